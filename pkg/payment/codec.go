package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Each provider fixes its own canonical string and hash. The codecs below
// are pure; signing secrets always come from the caller. A signature
// mismatch is a boolean result, never an error.

func hmacSHA256Hex(secret, data string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

func hmacSHA512Hex(secret, data string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

func signatureEqual(got, want string) bool {
	return hmac.Equal([]byte(strings.ToLower(got)), []byte(strings.ToLower(want)))
}

// vnpayHashData canonicalizes params for VNPay: keys sorted, joined k=v&,
// values URL-encoded with spaces as '+' (url.QueryEscape does exactly
// that, which is the encoding VNPay signs). The signature fields are
// excluded from the canonical string.
func vnpayHashData(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params.Get(k)))
	}
	return b.String()
}

func vnpaySign(secret string, params url.Values) string {
	return hmacSHA512Hex(secret, vnpayHashData(params))
}

func vnpayVerify(secret string, params url.Values) bool {
	sig := params.Get("vnp_SecureHash")
	if sig == "" {
		return false
	}
	return signatureEqual(sig, vnpaySign(secret, params))
}

// zalopayCreateMac signs an order-creation request: the listed fields
// joined with '|' in fixed order, HMAC-SHA256 under key1.
func zalopayCreateMac(key1, appID, appTransID, appUser, amount, appTime, embedData, item string) string {
	data := strings.Join([]string{appID, appTransID, appUser, amount, appTime, embedData, item}, "|")
	return hmacSHA256Hex(key1, data)
}

// zalopayVerifyCallback checks a callback's mac: HMAC-SHA256 of the raw
// data string under key2.
func zalopayVerifyCallback(key2, data, mac string) bool {
	if mac == "" {
		return false
	}
	return signatureEqual(mac, hmacSHA256Hex(key2, data))
}

// momoRawSignature canonicalizes MoMo fields: the given keys in fixed
// order joined k=v&, values verbatim with no escaping. Missing optional
// fields canonicalize as the empty string, never omitted, so the string
// matches what MoMo signed.
func momoRawSignature(keys []string, fields map[string]string) string {
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fields[k])
	}
	return b.String()
}

func momoSign(secret string, keys []string, fields map[string]string) string {
	return hmacSHA256Hex(secret, momoRawSignature(keys, fields))
}

func momoVerify(secret string, keys []string, fields map[string]string) bool {
	sig := fields["signature"]
	if sig == "" {
		return false
	}
	return signatureEqual(sig, momoSign(secret, keys, fields))
}
