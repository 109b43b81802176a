package config

import (
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Payment  PaymentConfig
	VNPay    VNPayConfig
	ZaloPay  ZaloPayConfig
	MoMo     MoMoConfig
	PayPal   PayPalConfig
	AMQP     AMQPConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// JWTConfig carries what token validation needs; issuance belongs to the
// identity service.
type JWTConfig struct {
	AccessSecret string
}

// PaymentConfig carries the knobs shared by every provider: where the
// generated schedule starts relative to payment and how long gateway
// credentials loaded from the database stay cached.
type PaymentConfig struct {
	ScheduleOffsetDays int
	ScheduleBufferMin  int
	DefaultTimezone    string
	CredentialTTL      time.Duration
}

type VNPayConfig struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
}

type ZaloPayConfig struct {
	AppID       string
	Key1        string
	Key2        string
	Endpoint    string
	CallbackURL string
}

type MoMoConfig struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	Endpoint    string
	RedirectURL string
	IpnURL      string
}

type PayPalConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	ReturnURL    string
	CancelURL    string
	VNDPerUSD    int64
}

type AMQPConfig struct {
	URL string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         envStr("PORT", "8088"),
			Env:          envStr("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             envStr("DB_DSN", "tutorly:tutorly@tcp(localhost:3306)/tutorly?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret: envStr("JWT_ACCESS_SECRET", "change-me-in-production"),
		},
		Payment: PaymentConfig{
			ScheduleOffsetDays: envInt("SCHEDULE_OFFSET_DAYS", 0),
			ScheduleBufferMin:  envInt("SCHEDULE_BUFFER_MIN", 0),
			DefaultTimezone:    envStr("SCHEDULE_TIMEZONE", "Asia/Ho_Chi_Minh"),
			CredentialTTL:      time.Minute,
		},
		VNPay: VNPayConfig{
			TmnCode:    envStr("VNPAY_TMN_CODE", ""),
			HashSecret: envStr("VNPAY_HASH_SECRET", ""),
			PayURL:     envStr("VNPAY_PAY_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
			ReturnURL:  envStr("VNPAY_RETURN_URL", ""),
		},
		ZaloPay: ZaloPayConfig{
			AppID:       envStr("ZALOPAY_APP_ID", ""),
			Key1:        envStr("ZALOPAY_KEY1", ""),
			Key2:        envStr("ZALOPAY_KEY2", ""),
			Endpoint:    envStr("ZALOPAY_ENDPOINT", "https://sb-openapi.zalopay.vn"),
			CallbackURL: envStr("ZALOPAY_CALLBACK_URL", ""),
		},
		MoMo: MoMoConfig{
			PartnerCode: envStr("MOMO_PARTNER_CODE", ""),
			AccessKey:   envStr("MOMO_ACCESS_KEY", ""),
			SecretKey:   envStr("MOMO_SECRET_KEY", ""),
			Endpoint:    envStr("MOMO_ENDPOINT", "https://test-payment.momo.vn"),
			RedirectURL: envStr("MOMO_REDIRECT_URL", ""),
			IpnURL:      envStr("MOMO_IPN_URL", ""),
		},
		PayPal: PayPalConfig{
			ClientID:     envStr("PAYPAL_CLIENT_ID", ""),
			ClientSecret: envStr("PAYPAL_CLIENT_SECRET", ""),
			BaseURL:      envStr("PAYPAL_BASE_URL", "https://api-m.sandbox.paypal.com"),
			ReturnURL:    envStr("PAYPAL_RETURN_URL", ""),
			CancelURL:    envStr("PAYPAL_CANCEL_URL", ""),
			VNDPerUSD:    int64(envInt("PAYPAL_VND_PER_USD", 25000)),
		},
		AMQP: AMQPConfig{
			URL: envStr("AMQP_URL", ""),
		},
	}
}

// ProviderDefaults flattens the per-provider config blocks into the
// key/value shape the credential cache overlays with database settings.
// Providers with no secrets configured are omitted entirely so gateway
// construction can skip them.
func (c *Config) ProviderDefaults() map[string]map[string]string {
	defaults := map[string]map[string]string{}
	if c.VNPay.HashSecret != "" {
		defaults["vnpay"] = map[string]string{
			"tmn_code":    c.VNPay.TmnCode,
			"hash_secret": c.VNPay.HashSecret,
			"pay_url":     c.VNPay.PayURL,
			"return_url":  c.VNPay.ReturnURL,
		}
	}
	if c.ZaloPay.Key1 != "" {
		defaults["zalopay"] = map[string]string{
			"app_id":       c.ZaloPay.AppID,
			"key1":         c.ZaloPay.Key1,
			"key2":         c.ZaloPay.Key2,
			"base_url":     c.ZaloPay.Endpoint,
			"callback_url": c.ZaloPay.CallbackURL,
		}
	}
	if c.MoMo.SecretKey != "" {
		defaults["momo"] = map[string]string{
			"partner_code": c.MoMo.PartnerCode,
			"access_key":   c.MoMo.AccessKey,
			"secret_key":   c.MoMo.SecretKey,
			"base_url":     c.MoMo.Endpoint,
			"redirect_url": c.MoMo.RedirectURL,
			"ipn_url":      c.MoMo.IpnURL,
		}
	}
	if c.PayPal.ClientSecret != "" {
		defaults["paypal"] = map[string]string{
			"client_id":   c.PayPal.ClientID,
			"secret":      c.PayPal.ClientSecret,
			"base_url":    c.PayPal.BaseURL,
			"return_url":  c.PayPal.ReturnURL,
			"cancel_url":  c.PayPal.CancelURL,
			"vnd_per_usd": strconv.FormatInt(c.PayPal.VNDPerUSD, 10),
		}
	}
	return defaults
}

// Validate logs which payment providers are enabled. A provider with no
// secrets at all is disabled with a warning; a partially configured one
// is a deployment mistake and aborts startup.
func (c *Config) Validate() {
	check := func(name string, fields map[string]string, anySet bool) {
		if !anySet {
			logrus.WithField("provider", name).Warn("payment provider not configured, disabled")
			return
		}
		for k, v := range fields {
			if v == "" {
				logrus.WithFields(logrus.Fields{"provider": name, "field": k}).Fatal("payment provider partially configured")
			}
		}
		logrus.WithField("provider", name).Info("payment provider enabled")
	}
	check("vnpay", map[string]string{
		"tmn_code": c.VNPay.TmnCode, "hash_secret": c.VNPay.HashSecret, "return_url": c.VNPay.ReturnURL,
	}, c.VNPay.TmnCode != "" || c.VNPay.HashSecret != "")
	check("zalopay", map[string]string{
		"app_id": c.ZaloPay.AppID, "key1": c.ZaloPay.Key1, "key2": c.ZaloPay.Key2, "callback_url": c.ZaloPay.CallbackURL,
	}, c.ZaloPay.AppID != "" || c.ZaloPay.Key1 != "")
	check("momo", map[string]string{
		"partner_code": c.MoMo.PartnerCode, "access_key": c.MoMo.AccessKey, "secret_key": c.MoMo.SecretKey, "redirect_url": c.MoMo.RedirectURL,
	}, c.MoMo.PartnerCode != "" || c.MoMo.SecretKey != "")
	check("paypal", map[string]string{
		"client_id": c.PayPal.ClientID, "client_secret": c.PayPal.ClientSecret, "return_url": c.PayPal.ReturnURL,
	}, c.PayPal.ClientID != "" || c.PayPal.ClientSecret != "")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
