package slots

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/trimtime/booking-api/internal/service/slots"
	apperrors "github.com/trimtime/booking-api/pkg/errors"
	"github.com/trimtime/booking-api/pkg/httputil"
)

type Handler struct {
	service *slots.Service
}

func NewHandler(service *slots.Service) *Handler {
	return &Handler{service: service}
}

// ListSlots returns the slot grid for a shop, date and service. With
// staff_id absent or "all", one grid per active staff member.
func (h *Handler) ListSlots(c *gin.Context) {
	shopID, err := uuid.Parse(c.Param("shopID"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid shop ID", err))
		return
	}

	serviceID, err := uuid.Parse(c.Query("service_id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid service ID", err))
		return
	}

	date := c.Query("date")
	if date == "" {
		httputil.RespondWithError(c, apperrors.BadRequest("date is required", nil))
		return
	}

	q := slots.Query{
		ShopID:    shopID,
		ServiceID: serviceID,
		Date:      date,
	}
	if raw := c.Query("staff_id"); raw != "" && raw != "all" {
		staffID, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("invalid staff ID", err))
			return
		}
		q.StaffID = &staffID
	}

	grids, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, grids)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/shops/:shopID/slots", h.ListSlots)
}
