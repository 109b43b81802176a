package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// momoCreateSignKeys is the exact field table MoMo signs on order
// creation; momoIPNSignKeys on IPN/redirect. Order is fixed by the
// provider and must not be generalized.
var momoCreateSignKeys = []string{
	"accessKey", "amount", "extraData", "ipnUrl", "orderId",
	"orderInfo", "partnerCode", "redirectUrl", "requestId", "requestType",
}

var momoIPNSignKeys = []string{
	"accessKey", "amount", "extraData", "message", "orderId",
	"orderInfo", "orderType", "partnerCode", "payType", "requestId",
	"responseTime", "resultCode", "transId",
}

// MoMoGateway creates captureWallet requests against the MoMo v2 API and
// verifies its IPN/redirect payloads. Amounts are whole VND.
type MoMoGateway struct {
	creds  Credentials
	client *http.Client
	now    func() time.Time
	newID  func() string
}

func NewMoMoGateway(creds Credentials) *MoMoGateway {
	return &MoMoGateway{
		creds:  creds,
		client: &http.Client{Timeout: 15 * time.Second},
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

func (g *MoMoGateway) Name() Provider { return ProviderMoMo }

type momoConfig struct {
	partnerCode string
	accessKey   string
	secretKey   string
	baseURL     string
	redirectURL string
	ipnURL      string
}

func (g *MoMoGateway) config(ctx context.Context) (momoConfig, error) {
	m, err := g.creds.Credentials(ctx, string(ProviderMoMo))
	if err != nil {
		return momoConfig{}, err
	}
	if err := requireKeys(m, "partner_code", "access_key", "secret_key", "base_url"); err != nil {
		return momoConfig{}, err
	}
	return momoConfig{
		partnerCode: m["partner_code"],
		accessKey:   m["access_key"],
		secretKey:   m["secret_key"],
		baseURL:     m["base_url"],
		redirectURL: m["redirect_url"],
		ipnURL:      m["ipn_url"],
	}, nil
}

type momoCreateResp struct {
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
	PayURL     string `json:"payUrl"`
	RequestID  string `json:"requestId"`
	OrderID    string `json:"orderId"`
}

func (g *MoMoGateway) CreateCheckout(ctx context.Context, order OrderInfo) (*Checkout, error) {
	cfg, err := g.config(ctx)
	if err != nil {
		return nil, err
	}
	if order.Status != "" && order.Status != "pending" {
		return nil, ErrOrderAlreadyPaid
	}
	requestID := g.newID()
	orderID := fmt.Sprintf("%d_%d", order.ID, g.now().UnixNano())
	fields := map[string]string{
		"accessKey":   cfg.accessKey,
		"amount":      strconv.FormatInt(order.Total, 10),
		"extraData":   "",
		"ipnUrl":      cfg.ipnURL,
		"orderId":     orderID,
		"orderInfo":   order.Note,
		"partnerCode": cfg.partnerCode,
		"redirectUrl": cfg.redirectURL,
		"requestId":   requestID,
		"requestType": "captureWallet",
	}
	body, _ := json.Marshal(map[string]any{
		"partnerCode": cfg.partnerCode,
		"requestId":   requestID,
		"amount":      order.Total,
		"orderId":     orderID,
		"orderInfo":   order.Note,
		"redirectUrl": cfg.redirectURL,
		"ipnUrl":      cfg.ipnURL,
		"requestType": "captureWallet",
		"extraData":   "",
		"lang":        "vi",
		"signature":   momoSign(cfg.secretKey, momoCreateSignKeys, fields),
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.baseURL+"/v2/gateway/api/create", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("momo create: %w", err)
	}
	defer resp.Body.Close()
	var out momoCreateResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("momo create: %w", err)
	}
	if out.ResultCode != 0 {
		return nil, fmt.Errorf("momo create: %s", out.Message)
	}
	return &Checkout{CheckoutURL: out.PayURL, ProviderOrderID: orderID}, nil
}

// VerifyCallback handles both the JSON IPN body and the redirect query
// (same field names on both channels).
func (g *MoMoGateway) VerifyCallback(ctx context.Context, p Payload) *Outcome {
	out := &Outcome{Provider: ProviderMoMo, Status: OutcomeMalformed}
	fields := momoPayloadFields(p)
	if len(fields) == 0 || fields["orderId"] == "" {
		return out
	}
	cfg, err := g.config(ctx)
	if err != nil {
		out.Status = OutcomeBadSignature
		return out
	}
	fields["accessKey"] = cfg.accessKey
	if !momoVerify(cfg.secretKey, momoIPNSignKeys, fields) {
		out.Status = OutcomeBadSignature
		return out
	}
	out.ResponseCode = fields["resultCode"]
	out.ProviderTxnID = fields["transId"]
	if id, err := momoDecodeOrderID(fields["orderId"]); err == nil {
		out.OrderID = id
	}
	amount, err := strconv.ParseInt(fields["amount"], 10, 64)
	if err != nil {
		return out
	}
	out.PaidAmount = amount
	out.Meta = map[string]string{
		"momo_order_id": fields["orderId"],
		"trans_id":      fields["transId"],
		"pay_type":      fields["payType"],
	}
	if fields["resultCode"] == "0" {
		out.Status = OutcomeSuccess
	} else {
		out.Status = OutcomeDeclined
	}
	return out
}

// ReconcileAmount: MoMo reports whole VND.
func (g *MoMoGateway) ReconcileAmount(order OrderInfo, o *Outcome) bool {
	return o.PaidAmount == order.Total
}

func momoPayloadFields(p Payload) map[string]string {
	fields := map[string]string{}
	if len(p.Body) > 0 {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(p.Body, &raw); err != nil {
			return nil
		}
		for k, v := range raw {
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				fields[k] = s
				continue
			}
			var n json.Number
			if err := json.Unmarshal(v, &n); err == nil {
				fields[k] = n.String()
			}
		}
		return fields
	}
	for k := range p.Query {
		fields[k] = p.Query.Get(k)
	}
	return fields
}
