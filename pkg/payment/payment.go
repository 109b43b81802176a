// Package payment holds the per-provider gateway adapters and the
// canonicalization/signing codecs they verify callbacks with. Callbacks
// are untrusted input: verification failures are outcomes, never panics.
package payment

import (
	"context"
	"errors"
	"net/url"
)

type Provider string

const (
	ProviderVNPay   Provider = "vnpay"
	ProviderZaloPay Provider = "zalopay"
	ProviderPayPal  Provider = "paypal"
	ProviderMoMo    Provider = "momo"
)

var (
	// ErrProviderNotConfigured means required provider credentials are
	// absent. This is a deployment problem, not a per-request one.
	ErrProviderNotConfigured = errors.New("payment provider not configured")
	// ErrOrderAlreadyPaid rejects checkout creation for a settled order.
	ErrOrderAlreadyPaid = errors.New("order already paid")
)

// OrderInfo is the snapshot of an order a gateway needs to build a
// checkout or reconcile a callback amount. Amounts are whole currency
// units in the order's native currency.
type OrderInfo struct {
	ID       uint
	Gross    int64
	Discount int64
	Total    int64
	Currency string
	Note     string
	ClientIP string
	Status   string
}

// Checkout is the result of initiating a payment: a redirect URL and,
// for providers that assign one up front, their order reference.
type Checkout struct {
	CheckoutURL     string
	ProviderOrderID string
}

// Payload is a raw provider callback: query params for redirect/IPN style
// providers, a body for JSON webhooks. Both may be set.
type Payload struct {
	Query url.Values
	Body  []byte
}

// OutcomeStatus classifies a verified callback.
type OutcomeStatus string

const (
	// OutcomeSuccess means the signature checked out and the provider
	// reports a captured payment. The amount still needs reconciling.
	OutcomeSuccess OutcomeStatus = "success"
	// OutcomeDeclined means a well-formed, authentic callback reporting a
	// failed or cancelled transaction.
	OutcomeDeclined OutcomeStatus = "declined"
	// OutcomeBadSignature means the payload's signature did not verify.
	OutcomeBadSignature OutcomeStatus = "bad-signature"
	// OutcomeMalformed means the payload could not be decoded at all.
	OutcomeMalformed OutcomeStatus = "malformed"
)

// Outcome is the canonical result of verifying a provider callback.
// OrderID is zero when the provider's transaction reference did not decode
// to a known order id format.
type Outcome struct {
	Provider      Provider
	Status        OutcomeStatus
	OrderID       uint
	PaidAmount    int64 // in the unit the provider reports; ReconcileAmount knows the scale
	ProviderTxnID string
	ResponseCode  string
	Meta          map[string]string
}

// Credentials resolves provider credentials at call time so that settings
// updated at runtime take effect without a restart.
type Credentials interface {
	Credentials(ctx context.Context, provider string) (map[string]string, error)
}

// Gateway is one payment provider adapter.
type Gateway interface {
	Name() Provider
	// CreateCheckout builds a signed redirect URL for a pending order.
	CreateCheckout(ctx context.Context, order OrderInfo) (*Checkout, error)
	// VerifyCallback validates a raw callback and maps it to an Outcome.
	// It never returns an error: malformed or forged payloads yield a
	// non-success outcome so handlers can acknowledge in the provider's
	// own vocabulary.
	VerifyCallback(ctx context.Context, p Payload) *Outcome
	// ReconcileAmount reports whether the callback amount equals the
	// order total under this provider's minor-unit convention.
	ReconcileAmount(order OrderInfo, o *Outcome) bool
}

// StaticCredentials adapts a fixed credential map, mainly for tests.
type StaticCredentials map[string]map[string]string

func (s StaticCredentials) Credentials(_ context.Context, provider string) (map[string]string, error) {
	m, ok := s[provider]
	if !ok {
		return nil, ErrProviderNotConfigured
	}
	return m, nil
}

func requireKeys(creds map[string]string, keys ...string) error {
	for _, k := range keys {
		if creds[k] == "" {
			return ErrProviderNotConfigured
		}
	}
	return nil
}
