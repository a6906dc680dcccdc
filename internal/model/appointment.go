package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusOngoing   AppointmentStatus = "ongoing"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// HoldingStatuses are the appointment states that occupy a slot tuple.
// A cancelled appointment releases its tuple.
var HoldingStatuses = []AppointmentStatus{
	AppointmentStatusPending,
	AppointmentStatusConfirmed,
	AppointmentStatusOngoing,
	AppointmentStatusCompleted,
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Appointment binds a customer to a slot tuple. Status and PaymentStatus
// are independent lifecycles: service delivery vs. money movement.
type Appointment struct {
	Base
	ShopID        uuid.UUID         `db:"shop_id" json:"shop_id"`
	StaffID       uuid.UUID         `db:"staff_id" json:"staff_id"`
	ServiceID     uuid.UUID         `db:"service_id" json:"service_id"`
	CustomerID    uuid.UUID         `db:"customer_id" json:"customer_id"`
	SlotDate      ISODate           `db:"slot_date" json:"slot_date"`
	StartTime     string            `db:"start_time" json:"start_time"`
	EndTime       string            `db:"end_time" json:"end_time"`
	Status        AppointmentStatus `db:"status" json:"status"`
	PaymentStatus PaymentStatus     `db:"payment_status" json:"payment_status"`
	CancelReason  *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
}

// Key returns the slot tuple the appointment occupies.
func (a *Appointment) Key() SlotKey {
	return SlotKey{
		ShopID:    a.ShopID,
		StaffID:   a.StaffID,
		Date:      a.SlotDate.String(),
		StartTime: a.StartTime,
	}
}

// Holding reports whether the appointment currently occupies its tuple.
func (a *Appointment) Holding() bool {
	for _, s := range HoldingStatuses {
		if a.Status == s {
			return true
		}
	}
	return false
}

// AppointmentDraft carries the fields needed to create a pending hold.
type AppointmentDraft struct {
	ShopID     uuid.UUID
	StaffID    uuid.UUID
	ServiceID  uuid.UUID
	CustomerID uuid.UUID
	SlotDate   ISODate
	StartTime  string
	EndTime    string
}

// CreateBookingRequest is the boundary contract for claim-and-pay.
type CreateBookingRequest struct {
	ShopID    string `json:"shop_id" binding:"required,uuid"`
	StaffID   string `json:"staff_id" binding:"required,uuid"`
	ServiceID string `json:"service_id" binding:"required,uuid"`
	Date      string `json:"date" binding:"required" validate:"isodate"`
	StartTime string `json:"start_time" binding:"required" validate:"clocktime"`
}

// CancelBookingRequest is the boundary contract for cancellation.
type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// BookingResponse is returned by claim-and-pay. ClientSecret lets the
// customer finish the payment with the processor directly.
type BookingResponse struct {
	Appointment  *Appointment `json:"appointment"`
	ClientSecret string       `json:"client_secret,omitempty"`
	ExpiresAt    time.Time    `json:"expires_at"`
}
