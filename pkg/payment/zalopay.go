package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ZaloPayGateway creates orders against the ZaloPay v2 API and verifies
// its server-to-server callbacks. Requests are MAC'd with key1, callbacks
// with key2; amounts are whole VND.
type ZaloPayGateway struct {
	creds  Credentials
	client *http.Client
	now    func() time.Time
}

func NewZaloPayGateway(creds Credentials) *ZaloPayGateway {
	return &ZaloPayGateway{
		creds:  creds,
		client: &http.Client{Timeout: 15 * time.Second},
		now:    time.Now,
	}
}

func (g *ZaloPayGateway) Name() Provider { return ProviderZaloPay }

type zalopayConfig struct {
	appID       string
	key1        string
	key2        string
	baseURL     string
	callbackURL string
}

func (g *ZaloPayGateway) config(ctx context.Context) (zalopayConfig, error) {
	m, err := g.creds.Credentials(ctx, string(ProviderZaloPay))
	if err != nil {
		return zalopayConfig{}, err
	}
	if err := requireKeys(m, "app_id", "key1", "key2", "base_url"); err != nil {
		return zalopayConfig{}, err
	}
	return zalopayConfig{
		appID:       m["app_id"],
		key1:        m["key1"],
		key2:        m["key2"],
		baseURL:     m["base_url"],
		callbackURL: m["callback_url"],
	}, nil
}

type zalopayCreateResp struct {
	ReturnCode    int    `json:"return_code"`
	ReturnMessage string `json:"return_message"`
	OrderURL      string `json:"order_url"`
	ZpTransToken  string `json:"zp_trans_token"`
}

func (g *ZaloPayGateway) CreateCheckout(ctx context.Context, order OrderInfo) (*Checkout, error) {
	cfg, err := g.config(ctx)
	if err != nil {
		return nil, err
	}
	if order.Status != "" && order.Status != "pending" {
		return nil, ErrOrderAlreadyPaid
	}
	now := g.now()
	appTransID := fmt.Sprintf("%s_%d_%d", now.Format("060102"), order.ID, now.Unix())
	appUser := fmt.Sprintf("order_%d", order.ID)
	amount := strconv.FormatInt(order.Total, 10)
	appTime := strconv.FormatInt(now.UnixMilli(), 10)
	embedData := "{}"
	item := "[]"
	mac := zalopayCreateMac(cfg.key1, cfg.appID, appTransID, appUser, amount, appTime, embedData, item)

	form := url.Values{}
	form.Set("app_id", cfg.appID)
	form.Set("app_trans_id", appTransID)
	form.Set("app_user", appUser)
	form.Set("app_time", appTime)
	form.Set("amount", amount)
	form.Set("embed_data", embedData)
	form.Set("item", item)
	form.Set("description", order.Note)
	form.Set("callback_url", cfg.callbackURL)
	form.Set("mac", mac)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.baseURL+"/v2/create", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("zalopay create: %w", err)
	}
	defer resp.Body.Close()
	var out zalopayCreateResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("zalopay create: %w", err)
	}
	if out.ReturnCode != 1 {
		return nil, fmt.Errorf("zalopay create: %s", out.ReturnMessage)
	}
	return &Checkout{CheckoutURL: out.OrderURL, ProviderOrderID: appTransID}, nil
}

type zalopayCallback struct {
	Data string `json:"data"`
	Mac  string `json:"mac"`
	Type int    `json:"type"`
}

type zalopayCallbackData struct {
	AppID      int    `json:"app_id"`
	AppTransID string `json:"app_trans_id"`
	AppUser    string `json:"app_user"`
	Amount     int64  `json:"amount"`
	ZpTransID  int64  `json:"zp_trans_id"`
	ServerTime int64  `json:"server_time"`
	Channel    int    `json:"channel"`
}

// VerifyCallback checks the key2 MAC over the raw data string. ZaloPay
// only delivers callbacks for captured payments, so an authentic payload
// is a success outcome.
func (g *ZaloPayGateway) VerifyCallback(ctx context.Context, p Payload) *Outcome {
	out := &Outcome{Provider: ProviderZaloPay, Status: OutcomeMalformed}
	var cb zalopayCallback
	if err := json.Unmarshal(bytes.TrimSpace(p.Body), &cb); err != nil || cb.Data == "" {
		return out
	}
	cfg, err := g.config(ctx)
	if err != nil {
		out.Status = OutcomeBadSignature
		return out
	}
	if !zalopayVerifyCallback(cfg.key2, cb.Data, cb.Mac) {
		out.Status = OutcomeBadSignature
		return out
	}
	var data zalopayCallbackData
	if err := json.Unmarshal([]byte(cb.Data), &data); err != nil {
		return out
	}
	if id, err := zalopayDecodeTransID(data.AppTransID); err == nil {
		out.OrderID = id
	}
	out.Status = OutcomeSuccess
	out.PaidAmount = data.Amount
	out.ProviderTxnID = strconv.FormatInt(data.ZpTransID, 10)
	out.ResponseCode = "1"
	out.Meta = map[string]string{
		"app_trans_id": data.AppTransID,
		"zp_trans_id":  out.ProviderTxnID,
	}
	return out
}

// ReconcileAmount: ZaloPay reports whole VND.
func (g *ZaloPayGateway) ReconcileAmount(order OrderInfo, o *Outcome) bool {
	return o.PaidAmount == order.Total
}
