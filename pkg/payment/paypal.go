package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// PayPalGateway drives the PayPal Orders v2 API. There is no local HMAC:
// verification happens server side by capturing the approved order over an
// OAuth2 client-credentials session. PayPal settles in USD while orders
// are priced in VND, so reconciliation converts through a configured rate
// and the gross/discount breakdown it reports is display-only.
type PayPalGateway struct {
	creds  Credentials
	client *http.Client
	now    func() time.Time
}

func NewPayPalGateway(creds Credentials) *PayPalGateway {
	return &PayPalGateway{
		creds:  creds,
		client: &http.Client{Timeout: 15 * time.Second},
		now:    time.Now,
	}
}

func (g *PayPalGateway) Name() Provider { return ProviderPayPal }

type paypalConfig struct {
	clientID  string
	secret    string
	baseURL   string
	returnURL string
	cancelURL string
	vndPerUSD float64
}

func (g *PayPalGateway) config(ctx context.Context) (paypalConfig, error) {
	m, err := g.creds.Credentials(ctx, string(ProviderPayPal))
	if err != nil {
		return paypalConfig{}, err
	}
	if err := requireKeys(m, "client_id", "secret", "base_url", "vnd_per_usd"); err != nil {
		return paypalConfig{}, err
	}
	rate, err := strconv.ParseFloat(m["vnd_per_usd"], 64)
	if err != nil || rate <= 0 {
		return paypalConfig{}, ErrProviderNotConfigured
	}
	return paypalConfig{
		clientID:  m["client_id"],
		secret:    m["secret"],
		baseURL:   m["base_url"],
		returnURL: m["return_url"],
		cancelURL: m["cancel_url"],
		vndPerUSD: rate,
	}, nil
}

// httpClient returns a client that injects bearer tokens from the OAuth2
// client-credentials exchange, bounded by the gateway timeout.
func (g *PayPalGateway) httpClient(ctx context.Context, cfg paypalConfig) *http.Client {
	cc := clientcredentials.Config{
		ClientID:     cfg.clientID,
		ClientSecret: cfg.secret,
		TokenURL:     cfg.baseURL + "/v1/oauth2/token",
	}
	c := cc.Client(ctx)
	c.Timeout = g.client.Timeout
	return c
}

type paypalOrderResp struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []struct {
		Href string `json:"href"`
		Rel  string `json:"rel"`
	} `json:"links"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID       string `json:"id"`
				Status   string `json:"status"`
				CustomID string `json:"custom_id"`
				Amount   struct {
					CurrencyCode string `json:"currency_code"`
					Value        string `json:"value"`
				} `json:"amount"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

func (g *PayPalGateway) CreateCheckout(ctx context.Context, order OrderInfo) (*Checkout, error) {
	cfg, err := g.config(ctx)
	if err != nil {
		return nil, err
	}
	if order.Status != "" && order.Status != "pending" {
		return nil, ErrOrderAlreadyPaid
	}
	usd := usdValue(order.Total, cfg.vndPerUSD)
	body, _ := json.Marshal(map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"reference_id": strconv.FormatUint(uint64(order.ID), 10),
			"custom_id":    strconv.FormatUint(uint64(order.ID), 10),
			"description":  order.Note,
			"amount": map[string]string{
				"currency_code": "USD",
				"value":         usd,
			},
		}},
		"application_context": map[string]string{
			"return_url": cfg.returnURL,
			"cancel_url": cfg.cancelURL,
		},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.baseURL+"/v2/checkout/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.httpClient(ctx, cfg).Do(req)
	if err != nil {
		return nil, fmt.Errorf("paypal create: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("paypal create: status %d", resp.StatusCode)
	}
	var out paypalOrderResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("paypal create: %w", err)
	}
	approve := ""
	for _, l := range out.Links {
		if l.Rel == "approve" {
			approve = l.Href
		}
	}
	if approve == "" {
		return nil, fmt.Errorf("paypal create: no approve link")
	}
	return &Checkout{CheckoutURL: approve, ProviderOrderID: out.ID}, nil
}

// VerifyCallback captures the approved PayPal order named by the return
// query's token parameter. The capture response is the authoritative
// record of what was paid.
func (g *PayPalGateway) VerifyCallback(ctx context.Context, p Payload) *Outcome {
	out := &Outcome{Provider: ProviderPayPal, Status: OutcomeMalformed}
	token := p.Query.Get("token")
	if token == "" {
		return out
	}
	cfg, err := g.config(ctx)
	if err != nil {
		out.Status = OutcomeBadSignature
		return out
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.baseURL+"/v2/checkout/orders/"+token+"/capture", bytes.NewReader([]byte("{}")))
	if err != nil {
		return out
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.httpClient(ctx, cfg).Do(req)
	if err != nil {
		out.Status = OutcomeDeclined
		out.ResponseCode = "capture-failed"
		return out
	}
	defer resp.Body.Close()
	var capture paypalOrderResp
	if err := json.NewDecoder(resp.Body).Decode(&capture); err != nil {
		return out
	}
	out.ResponseCode = capture.Status
	if len(capture.PurchaseUnits) == 0 || len(capture.PurchaseUnits[0].Payments.Captures) == 0 {
		out.Status = OutcomeDeclined
		return out
	}
	cap0 := capture.PurchaseUnits[0].Payments.Captures[0]
	out.ProviderTxnID = cap0.ID
	if id, err := paypalDecodeCustomID(cap0.CustomID); err == nil {
		out.OrderID = id
	}
	capturedUSD, err := strconv.ParseFloat(cap0.Amount.Value, 64)
	if err != nil {
		return out
	}
	out.PaidAmount = int64(math.Round(capturedUSD * cfg.vndPerUSD))
	out.Meta = map[string]string{
		"paypal_order_id": token,
		"capture_id":      cap0.ID,
		"captured_usd":    cap0.Amount.Value,
		// The rate the capture was verified under; reconciliation reuses
		// it so a rotation between the two steps cannot skew the check.
		"vnd_per_usd": strconv.FormatFloat(cfg.vndPerUSD, 'f', -1, 64),
	}
	if capture.Status == "COMPLETED" && cap0.Status == "COMPLETED" {
		out.Status = OutcomeSuccess
	} else {
		out.Status = OutcomeDeclined
	}
	return out
}

// ReconcileAmount compares in USD cents: the captured value must equal the
// order total converted at the configured rate. On a match it records a
// proportional gross/discount breakdown in USD, display-only.
func (g *PayPalGateway) ReconcileAmount(order OrderInfo, o *Outcome) bool {
	captured, err := strconv.ParseFloat(o.Meta["captured_usd"], 64)
	if err != nil {
		return false
	}
	rate, err := strconv.ParseFloat(o.Meta["vnd_per_usd"], 64)
	if err != nil || rate <= 0 {
		return false
	}
	expectedCents := math.Round(float64(order.Total) / rate * 100)
	gotCents := math.Round(captured * 100)
	if expectedCents != gotCents {
		return false
	}
	if order.Total > 0 {
		grossUSD := captured * float64(order.Gross) / float64(order.Total)
		discountUSD := captured * float64(order.Discount) / float64(order.Total)
		o.Meta["display_gross_usd"] = strconv.FormatFloat(math.Round(grossUSD*100)/100, 'f', 2, 64)
		o.Meta["display_discount_usd"] = strconv.FormatFloat(math.Round(discountUSD*100)/100, 'f', 2, 64)
	}
	return true
}

func usdValue(totalVND int64, vndPerUSD float64) string {
	return strconv.FormatFloat(math.Round(float64(totalVND)/vndPerUSD*100)/100, 'f', 2, 64)
}
