package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trimtime/booking-api/internal/model"
	"github.com/trimtime/booking-api/internal/payment"
	"github.com/trimtime/booking-api/internal/repository"
	"github.com/trimtime/booking-api/internal/service/booking"
	"github.com/trimtime/booking-api/internal/service/event"
	"github.com/trimtime/booking-api/pkg/logger"
	"github.com/trimtime/booking-api/pkg/metrics"
)

var (
	metricsOnce  sync.Once
	sweepMetrics *metrics.Metrics
)

func sharedMetrics() *metrics.Metrics {
	metricsOnce.Do(func() {
		sweepMetrics = metrics.NewMetrics("sweeper_test", "core")
	})
	return sweepMetrics
}

type sweepLedger struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*model.Appointment
}

func (l *sweepLedger) Claim(context.Context, *model.AppointmentDraft) (*model.Appointment, error) {
	return nil, repository.ErrSlotTaken
}

func (l *sweepLedger) Release(_ context.Context, id uuid.UUID, paymentStatus model.PaymentStatus, reason string) (*model.Appointment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	apt, ok := l.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if apt.Status != model.AppointmentStatusCancelled {
		apt.Status = model.AppointmentStatusCancelled
		apt.PaymentStatus = paymentStatus
		apt.CancelReason = &reason
	}
	cp := *apt
	return &cp, nil
}

func (l *sweepLedger) ConfirmPayment(context.Context, uuid.UUID) (*model.Appointment, error) {
	return nil, repository.ErrNotFound
}

func (l *sweepLedger) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	apt, ok := l.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *apt
	return &cp, nil
}

func (l *sweepLedger) BookedStartTimes(context.Context, uuid.UUID, uuid.UUID, string) (map[string]bool, error) {
	return nil, nil
}

func (l *sweepLedger) ExpiredHolds(_ context.Context, cutoff time.Time, limit int) ([]*model.Appointment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*model.Appointment
	for _, apt := range l.byID {
		if apt.Status == model.AppointmentStatusPending && apt.CreatedAt.Before(cutoff) {
			cp := *apt
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (l *sweepLedger) ListByCustomer(context.Context, uuid.UUID) ([]*model.Appointment, error) {
	return nil, nil
}

type noopOutbox struct{}

func (noopOutbox) Create(context.Context, *model.OutboxEvent) error { return nil }
func (noopOutbox) GetPendingEventsWithLock(context.Context, int) ([]*model.OutboxEvent, error) {
	return nil, nil
}
func (noopOutbox) BeginTx(context.Context) (*sqlx.Tx, error) { return nil, nil }
func (noopOutbox) UpdateStatusTx(context.Context, *sqlx.Tx, uuid.UUID, model.OutboxStatus, *string, *time.Time) error {
	return nil
}
func (noopOutbox) MoveToDeadLetter(context.Context, *sqlx.Tx, *model.OutboxEvent) error { return nil }
func (noopOutbox) DeleteProcessedBefore(context.Context, time.Time) (int64, error)      { return 0, nil }

type noopIntents struct{}

func (noopIntents) Create(context.Context, *model.PaymentIntentRecord) error { return nil }
func (noopIntents) GetByProviderRef(context.Context, string) (*model.PaymentIntentRecord, error) {
	return nil, repository.ErrNotFound
}
func (noopIntents) GetByAppointment(context.Context, uuid.UUID) (*model.PaymentIntentRecord, error) {
	return nil, repository.ErrNotFound
}
func (noopIntents) UpdateStatus(context.Context, uuid.UUID, model.PaymentIntentStatus) error {
	return nil
}

type noopProcessor struct{}

func (noopProcessor) OpenIntent(context.Context, int64, string, map[string]string) (*payment.Intent, error) {
	return &payment.Intent{}, nil
}
func (noopProcessor) CancelIntent(context.Context, string) error { return nil }

func pendingAppointment(age time.Duration) *model.Appointment {
	return &model.Appointment{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: time.Now().Add(-age),
		},
		ShopID:        uuid.New(),
		StaffID:       uuid.New(),
		SlotDate:      "2026-09-02",
		StartTime:     "10:00",
		Status:        model.AppointmentStatusPending,
		PaymentStatus: model.PaymentStatusPending,
	}
}

func TestSweepReleasesOnlyExpiredHolds(t *testing.T) {
	stale := pendingAppointment(30 * time.Minute)
	fresh := pendingAppointment(2 * time.Minute)
	ledger := &sweepLedger{byID: map[uuid.UUID]*model.Appointment{
		stale.ID: stale,
		fresh.ID: fresh,
	}}

	log := logger.NewLogger(nil)
	bookings := booking.NewService(
		ledger, nil, noopIntents{}, noopProcessor{},
		event.NewService(noopOutbox{}), nil,
		booking.Config{HoldTTL: 15 * time.Minute},
		log, sharedMetrics(),
	)
	sweeper := NewHoldSweeper(ledger, bookings, time.Minute, 100, log)

	require.NoError(t, sweeper.Sweep(context.Background()))

	released, err := ledger.Get(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, released.Status)

	kept, err := ledger.Get(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusPending, kept.Status)
}

func TestSweepIsIdempotent(t *testing.T) {
	stale := pendingAppointment(time.Hour)
	ledger := &sweepLedger{byID: map[uuid.UUID]*model.Appointment{stale.ID: stale}}

	log := logger.NewLogger(nil)
	bookings := booking.NewService(
		ledger, nil, noopIntents{}, noopProcessor{},
		event.NewService(noopOutbox{}), nil,
		booking.Config{HoldTTL: 15 * time.Minute},
		log, sharedMetrics(),
	)
	sweeper := NewHoldSweeper(ledger, bookings, time.Minute, 100, log)

	require.NoError(t, sweeper.Sweep(context.Background()))
	require.NoError(t, sweeper.Sweep(context.Background()))

	apt, err := ledger.Get(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, apt.Status)
}
