package stream

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/trimtime/booking-api/internal/service/event"
	"github.com/trimtime/booking-api/pkg/logger"
	"github.com/trimtime/booking-api/pkg/messaging"
)

const heartbeatInterval = 25 * time.Second

// Handler streams a shop's slot events over SSE. Events are hints, not
// state transfer: delivery is at-least-once and unordered under
// failure, so clients re-fetch the slot grid on every event.
type Handler struct {
	broker messaging.Broker
	logger *logger.Logger
}

func NewHandler(broker messaging.Broker, logger *logger.Logger) *Handler {
	return &Handler{broker: broker, logger: logger}
}

func (h *Handler) StreamSlots(c *gin.Context) {
	shopID, err := uuid.Parse(c.Param("shopID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shop ID"})
		return
	}

	ctx := c.Request.Context()
	messages, err := h.broker.Subscribe(ctx, event.ShopChannel(shopID.String()))
	if err != nil {
		h.logger.Error(err, "failed to subscribe to shop channel", "shop_id", shopID.String())
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stream unavailable"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-messages:
			if !ok {
				return false
			}
			c.SSEvent("slot", string(msg))
			return true
		case <-heartbeat.C:
			c.SSEvent("heartbeat", time.Now().Unix())
			return true
		}
	})
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/shops/:shopID/slots/stream", h.StreamSlots)
}
