package model

import (
	"time"

	"github.com/google/uuid"
)

type PaymentIntentStatus string

const (
	PaymentIntentStatusOpen      PaymentIntentStatus = "open"
	PaymentIntentStatusSucceeded PaymentIntentStatus = "succeeded"
	PaymentIntentStatusFailed    PaymentIntentStatus = "failed"
	PaymentIntentStatusCancelled PaymentIntentStatus = "cancelled"
)

// PaymentIntentRecord mirrors the processor-side intent opened for a
// held appointment. It exists between claim and finalize/rollback.
type PaymentIntentRecord struct {
	ID            uuid.UUID           `db:"id" json:"id"`
	AppointmentID uuid.UUID           `db:"appointment_id" json:"appointment_id"`
	ProviderRef   string              `db:"provider_ref" json:"provider_ref"`
	AmountCents   int64               `db:"amount_cents" json:"amount_cents"`
	Currency      string              `db:"currency" json:"currency"`
	Status        PaymentIntentStatus `db:"status" json:"status"`
	CreatedAt     time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at" json:"updated_at"`
}
