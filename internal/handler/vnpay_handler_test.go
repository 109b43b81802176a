package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tutorly/internal/service"
	"tutorly/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConfirmer struct {
	result   service.ConfirmResult
	provider payment.Provider
	payload  payment.Payload
}

func (s *stubConfirmer) Confirm(_ context.Context, provider payment.Provider, p payment.Payload) service.ConfirmResult {
	s.provider = provider
	s.payload = p
	return s.result
}

func performIPN(t *testing.T, result service.ConfirmResult) (map[string]string, *stubConfirmer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	stub := &stubConfirmer{result: result}
	r := gin.New()
	r.GET("/ipn", NewVNPayHandler(stub).IPN)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ipn?vnp_TxnRef=42_1&vnp_SecureHash=x", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, "IPN always acks with HTTP 200")
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body, stub
}

func TestVNPayIPNAckCodes(t *testing.T) {
	cases := []struct {
		reason string
		code   string
	}{
		{service.ReasonOK, "00"},
		// A recorded decline is still a successfully received notification.
		{service.ReasonGatewayDeclined, "00"},
		{service.ReasonNotFound, "01"},
		{service.ReasonAmountMismatch, "04"},
		{service.ReasonBadSignature, "97"},
		{service.ReasonUnhandled, "99"},
	}
	for _, tc := range cases {
		body, stub := performIPN(t, service.ConfirmResult{Reason: tc.reason, OrderID: 42})
		assert.Equal(t, tc.code, body["RspCode"], "reason %s", tc.reason)
		assert.Equal(t, payment.ProviderVNPay, stub.provider)
		assert.Equal(t, "42_1", stub.payload.Query.Get("vnp_TxnRef"))
	}
}

func TestVNPayReturn(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := &stubConfirmer{result: service.ConfirmResult{Reason: service.ReasonOK, OrderID: 42}}
	r := gin.New()
	r.GET("/return", NewVNPayHandler(stub).Return)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/return?vnp_TxnRef=42_1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"order_id":42}`, w.Body.String())

	stub.result = service.ConfirmResult{Reason: service.ReasonBadSignature, OrderID: 42}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/return?vnp_TxnRef=42_1", nil))
	assert.JSONEq(t, `{"ok":false,"order_id":42,"reason":"bad-signature"}`, w.Body.String())
}
