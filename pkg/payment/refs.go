package payment

import (
	"errors"
	"strconv"
	"strings"
)

// ErrUnknownReference means a provider transaction reference did not carry
// a decodable order id. Callers map it to the provider's "order not found"
// acknowledgment.
var ErrUnknownReference = errors.New("unknown transaction reference")

// vnpayDecodeTxnRef decodes "{orderId}_{timestamp}" (the bare order id is
// also accepted). A non-numeric prefix is ErrUnknownReference.
func vnpayDecodeTxnRef(ref string) (uint, error) {
	head, _, _ := strings.Cut(ref, "_")
	return parseOrderID(head)
}

// zalopayDecodeTransID decodes "yymmdd_{orderId}_{timestamp}".
func zalopayDecodeTransID(ref string) (uint, error) {
	parts := strings.Split(ref, "_")
	if len(parts) < 2 {
		return 0, ErrUnknownReference
	}
	return parseOrderID(parts[1])
}

// momoDecodeOrderID decodes "{orderId}_{nonce}".
func momoDecodeOrderID(ref string) (uint, error) {
	head, _, _ := strings.Cut(ref, "_")
	return parseOrderID(head)
}

// paypalDecodeCustomID decodes the bare order id carried in custom_id.
func paypalDecodeCustomID(ref string) (uint, error) {
	return parseOrderID(ref)
}

func parseOrderID(s string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil || n == 0 {
		return 0, ErrUnknownReference
	}
	return uint(n), nil
}
