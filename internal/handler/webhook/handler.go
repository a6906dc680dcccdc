package webhook

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trimtime/booking-api/internal/payment"
	"github.com/trimtime/booking-api/internal/service/booking"
	apperrors "github.com/trimtime/booking-api/pkg/errors"
	"github.com/trimtime/booking-api/pkg/logger"
)

const maxBodyBytes = 65536

// Verifier checks a webhook delivery's signature and maps it to a
// payment outcome. A nil outcome means an event type the booking core
// does not consume.
type Verifier interface {
	VerifyWebhook(body []byte, sigHeader string) (*payment.Outcome, error)
}

// Handler receives payment processor callbacks. The signature is the
// authentication; these routes carry no bearer token.
type Handler struct {
	verifier Verifier
	service  *booking.Service
	logger   *logger.Logger
}

func NewHandler(verifier Verifier, service *booking.Service, logger *logger.Logger) *Handler {
	return &Handler{verifier: verifier, service: service, logger: logger}
}

func (h *Handler) HandleWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	outcome, err := h.verifier.VerifyWebhook(body, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("rejected webhook delivery", "error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}
	if outcome == nil {
		// Event type we do not consume; acknowledge so the processor
		// stops redelivering it.
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := h.service.HandlePaymentOutcome(c.Request.Context(), outcome); err != nil {
		if apperrors.IsCode(err, apperrors.ErrReconciliation) {
			// Acknowledged: redelivery cannot fix a released hold, the
			// operator alert has already fired.
			c.JSON(http.StatusOK, gin.H{"received": true, "reconciliation": true})
			return
		}
		// Transient failure; let the processor redeliver.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/payments/webhook", h.HandleWebhook)
}
