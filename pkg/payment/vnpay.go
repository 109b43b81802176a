package payment

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// VNPayGateway builds signed VNPay redirect URLs and verifies IPN/return
// payloads. VNPay signs the sorted query string with HMAC-SHA512 and
// reports amounts in VND x100.
type VNPayGateway struct {
	creds Credentials
	now   func() time.Time
}

func NewVNPayGateway(creds Credentials) *VNPayGateway {
	return &VNPayGateway{creds: creds, now: time.Now}
}

func (g *VNPayGateway) Name() Provider { return ProviderVNPay }

type vnpayConfig struct {
	tmnCode    string
	hashSecret string
	payURL     string
	returnURL  string
}

func (g *VNPayGateway) config(ctx context.Context) (vnpayConfig, error) {
	m, err := g.creds.Credentials(ctx, string(ProviderVNPay))
	if err != nil {
		return vnpayConfig{}, err
	}
	if err := requireKeys(m, "tmn_code", "hash_secret", "pay_url", "return_url"); err != nil {
		return vnpayConfig{}, err
	}
	return vnpayConfig{
		tmnCode:    m["tmn_code"],
		hashSecret: m["hash_secret"],
		payURL:     m["pay_url"],
		returnURL:  m["return_url"],
	}, nil
}

func (g *VNPayGateway) CreateCheckout(ctx context.Context, order OrderInfo) (*Checkout, error) {
	cfg, err := g.config(ctx)
	if err != nil {
		return nil, err
	}
	if order.Status != "" && order.Status != "pending" {
		return nil, ErrOrderAlreadyPaid
	}
	now := g.now()
	txnRef := fmt.Sprintf("%d_%d", order.ID, now.Unix())
	params := url.Values{}
	params.Set("vnp_Version", "2.1.0")
	params.Set("vnp_Command", "pay")
	params.Set("vnp_TmnCode", cfg.tmnCode)
	params.Set("vnp_Amount", strconv.FormatInt(order.Total*100, 10))
	params.Set("vnp_CurrCode", order.Currency)
	params.Set("vnp_TxnRef", txnRef)
	params.Set("vnp_OrderInfo", order.Note)
	params.Set("vnp_OrderType", "other")
	params.Set("vnp_Locale", "vn")
	params.Set("vnp_ReturnUrl", cfg.returnURL)
	params.Set("vnp_IpAddr", order.ClientIP)
	params.Set("vnp_CreateDate", now.Format("20060102150405"))
	sig := vnpaySign(cfg.hashSecret, params)
	return &Checkout{
		CheckoutURL:     cfg.payURL + "?" + vnpayHashData(params) + "&vnp_SecureHash=" + sig,
		ProviderOrderID: txnRef,
	}, nil
}

func (g *VNPayGateway) VerifyCallback(ctx context.Context, p Payload) *Outcome {
	out := &Outcome{Provider: ProviderVNPay, Status: OutcomeMalformed}
	if len(p.Query) == 0 {
		return out
	}
	cfg, err := g.config(ctx)
	if err != nil {
		out.Status = OutcomeBadSignature
		return out
	}
	if !vnpayVerify(cfg.hashSecret, p.Query) {
		out.Status = OutcomeBadSignature
		return out
	}
	out.ResponseCode = p.Query.Get("vnp_ResponseCode")
	out.ProviderTxnID = p.Query.Get("vnp_TransactionNo")
	if id, err := vnpayDecodeTxnRef(p.Query.Get("vnp_TxnRef")); err == nil {
		out.OrderID = id
	}
	amount, err := strconv.ParseInt(p.Query.Get("vnp_Amount"), 10, 64)
	if err != nil {
		out.Status = OutcomeMalformed
		return out
	}
	out.PaidAmount = amount
	out.Meta = map[string]string{
		"vnp_TxnRef":        p.Query.Get("vnp_TxnRef"),
		"vnp_BankCode":      p.Query.Get("vnp_BankCode"),
		"vnp_TransactionNo": out.ProviderTxnID,
		"vnp_PayDate":       p.Query.Get("vnp_PayDate"),
	}
	status := p.Query.Get("vnp_TransactionStatus")
	if out.ResponseCode == "00" && (status == "" || status == "00") {
		out.Status = OutcomeSuccess
	} else {
		out.Status = OutcomeDeclined
	}
	return out
}

// ReconcileAmount: VNPay reports VND x100, so the comparison stays in
// that scale. Dividing first would round sub-unit drift into acceptance.
func (g *VNPayGateway) ReconcileAmount(order OrderInfo, o *Outcome) bool {
	return o.PaidAmount == order.Total*100
}
