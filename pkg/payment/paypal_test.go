package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paypalTestCreds() StaticCredentials {
	return StaticCredentials{
		"paypal": {
			"client_id":   "pp-client",
			"secret":      "pp-secret",
			"base_url":    "https://api-m.sandbox.paypal.com",
			"return_url":  "https://tutorly.example.com/api/v1/payments/paypal/return",
			"cancel_url":  "https://tutorly.example.com/checkout/cancelled",
			"vnd_per_usd": "25000",
		},
	}
}

func TestPayPalReconcileAmount(t *testing.T) {
	g := NewPayPalGateway(paypalTestCreds())
	order := OrderInfo{ID: 42, Gross: 3125000, Discount: 625000, Total: 2500000, Currency: "VND"}

	// 2,500,000 VND at 25,000 VND/USD is exactly 100.00 USD.
	out := &Outcome{
		Provider: ProviderPayPal,
		Status:   OutcomeSuccess,
		OrderID:  42,
		Meta:     map[string]string{"captured_usd": "100.00", "vnd_per_usd": "25000"},
	}
	require.True(t, g.ReconcileAmount(order, out))

	// A matching capture gets a display-only USD breakdown, proportional to
	// the VND gross/discount split.
	assert.Equal(t, "125.00", out.Meta["display_gross_usd"])
	assert.Equal(t, "25.00", out.Meta["display_discount_usd"])
}

func TestPayPalReconcileRejectsCentMismatch(t *testing.T) {
	g := NewPayPalGateway(paypalTestCreds())
	order := OrderInfo{ID: 42, Gross: 2500000, Total: 2500000, Currency: "VND"}

	out := &Outcome{Meta: map[string]string{"captured_usd": "99.99", "vnd_per_usd": "25000"}}
	assert.False(t, g.ReconcileAmount(order, out))

	out = &Outcome{Meta: map[string]string{"captured_usd": "not-a-number", "vnd_per_usd": "25000"}}
	assert.False(t, g.ReconcileAmount(order, out))
}

func TestPayPalReconcileRequiresVerifiedRate(t *testing.T) {
	g := NewPayPalGateway(paypalTestCreds())
	order := OrderInfo{ID: 42, Gross: 2500000, Total: 2500000, Currency: "VND"}

	// The rate is recorded by verification; an outcome without one never
	// reconciles.
	out := &Outcome{Meta: map[string]string{"captured_usd": "100.00"}}
	assert.False(t, g.ReconcileAmount(order, out))

	out = &Outcome{Meta: map[string]string{"captured_usd": "100.00", "vnd_per_usd": "0"}}
	assert.False(t, g.ReconcileAmount(order, out))
}

func TestPayPalUSDValue(t *testing.T) {
	assert.Equal(t, "100.00", usdValue(2500000, 25000))
	assert.Equal(t, "4.80", usdValue(120000, 25000))
	// Rounded to cents, half away from zero.
	assert.Equal(t, "0.05", usdValue(1150, 25000))
}

func TestPayPalVerifyCallbackWithoutToken(t *testing.T) {
	g := NewPayPalGateway(paypalTestCreds())
	out := g.VerifyCallback(context.Background(), Payload{})
	assert.Equal(t, OutcomeMalformed, out.Status)
}
