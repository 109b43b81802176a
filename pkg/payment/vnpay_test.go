package payment

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vnpayTestCreds() StaticCredentials {
	return StaticCredentials{
		"vnpay": {
			"tmn_code":    "TUTOR01",
			"hash_secret": "vnpay-secret",
			"pay_url":     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
			"return_url":  "https://tutorly.example.com/api/v1/payments/vnpay/return",
		},
	}
}

func signedVNPayCallback(secret string, set func(url.Values)) Payload {
	q := url.Values{}
	q.Set("vnp_TxnRef", "42_1700000000")
	q.Set("vnp_Amount", "12000000")
	q.Set("vnp_ResponseCode", "00")
	q.Set("vnp_TransactionStatus", "00")
	q.Set("vnp_TransactionNo", "14350936")
	q.Set("vnp_BankCode", "NCB")
	if set != nil {
		set(q)
	}
	q.Set("vnp_SecureHash", vnpaySign(secret, q))
	return Payload{Query: q}
}

func TestVNPayCreateCheckout(t *testing.T) {
	g := NewVNPayGateway(vnpayTestCreds())
	g.now = func() time.Time { return time.Unix(1700000000, 0).UTC() }

	co, err := g.CreateCheckout(context.Background(), OrderInfo{
		ID: 42, Total: 120000, Currency: "VND", Note: "Math 1:1", ClientIP: "203.0.113.7", Status: "pending",
	})
	require.NoError(t, err)
	assert.Equal(t, "42_1700000000", co.ProviderOrderID)
	assert.True(t, strings.HasPrefix(co.CheckoutURL, "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html?"))

	// The URL carries the amount in VND x100 and a signature computed over
	// the same canonical string a verifier would rebuild.
	u, err := url.Parse(co.CheckoutURL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "12000000", q.Get("vnp_Amount"))
	assert.True(t, vnpayVerify("vnpay-secret", q))
}

func TestVNPayCreateCheckoutRejectsSettledOrder(t *testing.T) {
	g := NewVNPayGateway(vnpayTestCreds())
	_, err := g.CreateCheckout(context.Background(), OrderInfo{ID: 42, Total: 120000, Status: "paid"})
	assert.ErrorIs(t, err, ErrOrderAlreadyPaid)
}

func TestVNPayCreateCheckoutUnconfigured(t *testing.T) {
	g := NewVNPayGateway(StaticCredentials{"vnpay": {"tmn_code": "TUTOR01"}})
	_, err := g.CreateCheckout(context.Background(), OrderInfo{ID: 42, Total: 120000})
	assert.ErrorIs(t, err, ErrProviderNotConfigured)
}

func TestVNPayVerifyCallbackSuccess(t *testing.T) {
	g := NewVNPayGateway(vnpayTestCreds())
	out := g.VerifyCallback(context.Background(), signedVNPayCallback("vnpay-secret", nil))

	assert.Equal(t, OutcomeSuccess, out.Status)
	assert.Equal(t, uint(42), out.OrderID)
	assert.Equal(t, int64(12000000), out.PaidAmount)
	assert.Equal(t, "14350936", out.ProviderTxnID)
	assert.True(t, g.ReconcileAmount(OrderInfo{ID: 42, Total: 120000}, out))
}

func TestVNPayReconcileRejectsOffByOne(t *testing.T) {
	g := NewVNPayGateway(vnpayTestCreds())
	out := g.VerifyCallback(context.Background(), signedVNPayCallback("vnpay-secret", func(q url.Values) {
		q.Set("vnp_Amount", "12000100")
	}))
	require.Equal(t, OutcomeSuccess, out.Status)
	assert.False(t, g.ReconcileAmount(OrderInfo{ID: 42, Total: 120000}, out))
}

func TestVNPayReconcileRejectsSubUnitDrift(t *testing.T) {
	g := NewVNPayGateway(vnpayTestCreds())
	// Signed amount is half a dong over the total; it must not round into
	// a match.
	out := g.VerifyCallback(context.Background(), signedVNPayCallback("vnpay-secret", func(q url.Values) {
		q.Set("vnp_Amount", "12000050")
	}))
	require.Equal(t, OutcomeSuccess, out.Status)
	assert.False(t, g.ReconcileAmount(OrderInfo{ID: 42, Total: 120000}, out))
}

func TestVNPayVerifyCallbackBadSignature(t *testing.T) {
	g := NewVNPayGateway(vnpayTestCreds())
	p := signedVNPayCallback("vnpay-secret", nil)
	p.Query.Set("vnp_Amount", "99")
	out := g.VerifyCallback(context.Background(), p)
	assert.Equal(t, OutcomeBadSignature, out.Status)
}

func TestVNPayVerifyCallbackDeclined(t *testing.T) {
	g := NewVNPayGateway(vnpayTestCreds())
	out := g.VerifyCallback(context.Background(), signedVNPayCallback("vnpay-secret", func(q url.Values) {
		q.Set("vnp_ResponseCode", "24")
		q.Set("vnp_TransactionStatus", "02")
	}))
	assert.Equal(t, OutcomeDeclined, out.Status)
	assert.Equal(t, "24", out.ResponseCode)
}

func TestVNPayVerifyCallbackUnknownReference(t *testing.T) {
	g := NewVNPayGateway(vnpayTestCreds())
	out := g.VerifyCallback(context.Background(), signedVNPayCallback("vnpay-secret", func(q url.Values) {
		q.Set("vnp_TxnRef", "not-an-order")
	}))
	// Authentic payload, but the reference decodes to no order.
	assert.Equal(t, OutcomeSuccess, out.Status)
	assert.Zero(t, out.OrderID)
}

func TestVNPayVerifyCallbackEmptyPayload(t *testing.T) {
	g := NewVNPayGateway(vnpayTestCreds())
	out := g.VerifyCallback(context.Background(), Payload{})
	assert.Equal(t, OutcomeMalformed, out.Status)
}
