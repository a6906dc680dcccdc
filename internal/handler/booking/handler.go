package booking

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/trimtime/booking-api/internal/middleware"
	"github.com/trimtime/booking-api/internal/model"
	"github.com/trimtime/booking-api/internal/service/booking"
	apperrors "github.com/trimtime/booking-api/pkg/errors"
	"github.com/trimtime/booking-api/pkg/httputil"
	"github.com/trimtime/booking-api/pkg/validator"
)

type Handler struct {
	service   *booking.Service
	validator *validator.Validator
}

func NewHandler(service *booking.Service, validator *validator.Validator) *Handler {
	return &Handler{service: service, validator: validator}
}

// CreateBooking claims a slot and opens a payment intent. 409 means the
// slot was lost to a concurrent claim; 502 means the payment processor
// rejected the intent and the hold was already released.
func (h *Handler) CreateBooking(c *gin.Context) {
	customerID, ok := middleware.CustomerID(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(nil))
		return
	}

	var req model.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	resp, err := h.service.ClaimAndPay(c.Request.Context(), &req, customerID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, resp)
}

func (h *Handler) CancelBooking(c *gin.Context) {
	customerID, ok := middleware.CustomerID(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid booking ID", err))
		return
	}

	var req model.CancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
			return
		}
	}

	apt, err := h.service.Cancel(c.Request.Context(), id, customerID, req.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) GetBooking(c *gin.Context) {
	customerID, ok := middleware.CustomerID(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid booking ID", err))
		return
	}

	apt, err := h.service.GetAppointment(c.Request.Context(), id, customerID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) ListBookings(c *gin.Context) {
	customerID, ok := middleware.CustomerID(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(nil))
		return
	}

	appointments, err := h.service.ListAppointments(c.Request.Context(), customerID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if appointments == nil {
		appointments = []*model.Appointment{}
	}

	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
	}
}
