package webhook

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/trimtime/booking-api/internal/payment"
	"github.com/trimtime/booking-api/pkg/logger"
)

type stubVerifier struct {
	outcome *payment.Outcome
	err     error
	gotSig  string
}

func (v *stubVerifier) VerifyWebhook(_ []byte, sigHeader string) (*payment.Outcome, error) {
	v.gotSig = sigHeader
	return v.outcome, v.err
}

func postWebhook(h *Handler, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	verifier := &stubVerifier{err: errors.New("signature mismatch")}
	h := NewHandler(verifier, nil, logger.NewLogger(nil))

	w := postWebhook(h, `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "t=1,v1=abc", verifier.gotSig)
}

func TestWebhookAcknowledgesUnconsumedEvents(t *testing.T) {
	// Verifier returns (nil, nil) for event types the core ignores;
	// they must be acknowledged so the processor stops redelivering.
	h := NewHandler(&stubVerifier{}, nil, logger.NewLogger(nil))

	w := postWebhook(h, `{}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "received")
}
