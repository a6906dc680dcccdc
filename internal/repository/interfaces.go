package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trimtime/booking-api/internal/model"
)

// Ledger errors.
var (
	// ErrSlotTaken is the contention outcome of Claim: another holding
	// appointment already occupies the tuple.
	ErrSlotTaken = errors.New("slot already taken")
	// ErrReleasedHold is returned when confirming an appointment that no
	// longer holds its tuple; the tuple may belong to someone else.
	ErrReleasedHold = errors.New("appointment no longer holds its slot")
	ErrNotFound     = errors.New("not found")
)

// LedgerRepository is the authoritative store of committed appointments.
// Claim and Release are atomic with respect to all concurrent callers.
type LedgerRepository interface {
	// Claim inserts a pending appointment for the draft's tuple. Exactly
	// one of N concurrent claims on a free tuple succeeds; the rest get
	// ErrSlotTaken. The insert-or-reject is the atomic primitive.
	Claim(ctx context.Context, draft *model.AppointmentDraft) (*model.Appointment, error)
	// Release transitions the appointment to cancelled, freeing its
	// tuple. Idempotent: releasing an already-cancelled appointment is a
	// no-op returning the current row.
	Release(ctx context.Context, id uuid.UUID, paymentStatus model.PaymentStatus, reason string) (*model.Appointment, error)
	// ConfirmPayment moves a holding appointment to confirmed/paid.
	// Idempotent; confirming a cancelled appointment returns
	// ErrReleasedHold and never resurrects the hold.
	ConfirmPayment(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	// BookedStartTimes returns the start times of tuples held for a
	// staff/date, the enumerator's booked-set input.
	BookedStartTimes(ctx context.Context, shopID, staffID uuid.UUID, date string) (map[string]bool, error)
	// ExpiredHolds returns pending appointments created before the
	// cutoff, i.e. phantom holds the sweeper must release.
	ExpiredHolds(ctx context.Context, cutoff time.Time, limit int) ([]*model.Appointment, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*model.Appointment, error)
}

// DirectoryRepository is the read-only shop/staff/service/customer
// lookup surface. The directory itself is owned by collaborators.
type DirectoryRepository interface {
	GetShop(ctx context.Context, id uuid.UUID) (*model.Shop, error)
	GetStaff(ctx context.Context, id uuid.UUID) (*model.Staff, error)
	ListActiveStaff(ctx context.Context, shopID uuid.UUID) ([]*model.Staff, error)
	GetService(ctx context.Context, id uuid.UUID) (*model.Service, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error)
}

type PaymentIntentRepository interface {
	Create(ctx context.Context, rec *model.PaymentIntentRecord) error
	GetByProviderRef(ctx context.Context, providerRef string) (*model.PaymentIntentRecord, error)
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.PaymentIntentRecord, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.PaymentIntentStatus) error
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	BeginTx(ctx context.Context) (*sqlx.Tx, error)
	UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error
	MoveToDeadLetter(ctx context.Context, tx *sqlx.Tx, evt *model.OutboxEvent) error
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}

// IsNoRows reports whether err is the driver's empty-result sentinel.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
