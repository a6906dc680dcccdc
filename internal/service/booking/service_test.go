package booking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trimtime/booking-api/internal/model"
	"github.com/trimtime/booking-api/internal/payment"
	"github.com/trimtime/booking-api/internal/repository"
)

// memLedger mirrors the partial-unique-index semantics of the Postgres
// ledger: insert-or-reject under a single lock.
type memLedger struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*model.Appointment
}

func newMemLedger() *memLedger {
	return &memLedger{byID: map[uuid.UUID]*model.Appointment{}}
}

func (l *memLedger) Claim(_ context.Context, draft *model.AppointmentDraft) (*model.Appointment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, apt := range l.byID {
		if apt.Holding() &&
			apt.ShopID == draft.ShopID && apt.StaffID == draft.StaffID &&
			apt.SlotDate == draft.SlotDate && apt.StartTime == draft.StartTime {
			return nil, repository.ErrSlotTaken
		}
	}

	apt := &model.Appointment{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		ShopID:        draft.ShopID,
		StaffID:       draft.StaffID,
		ServiceID:     draft.ServiceID,
		CustomerID:    draft.CustomerID,
		SlotDate:      draft.SlotDate,
		StartTime:     draft.StartTime,
		EndTime:       draft.EndTime,
		Status:        model.AppointmentStatusPending,
		PaymentStatus: model.PaymentStatusPending,
	}
	l.byID[apt.ID] = apt
	cp := *apt
	return &cp, nil
}

func (l *memLedger) Release(_ context.Context, id uuid.UUID, paymentStatus model.PaymentStatus, reason string) (*model.Appointment, error) {
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
		apt.UpdatedAt = time.Now()
	}
	cp := *apt
	return &cp, nil
}

func (l *memLedger) ConfirmPayment(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	apt, ok := l.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if apt.Status == model.AppointmentStatusCancelled {
		cp := *apt
		return &cp, repository.ErrReleasedHold
	}
	apt.Status = model.AppointmentStatusConfirmed
	apt.PaymentStatus = model.PaymentStatusPaid
	apt.UpdatedAt = time.Now()
	cp := *apt
	return &cp, nil
}

func (l *memLedger) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	apt, ok := l.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *apt
	return &cp, nil
}

func (l *memLedger) BookedStartTimes(_ context.Context, shopID, staffID uuid.UUID, date string) (map[string]bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	booked := map[string]bool{}
	for _, apt := range l.byID {
		if apt.Holding() && apt.ShopID == shopID && apt.StaffID == staffID && apt.SlotDate.String() == date {
			booked[apt.StartTime] = true
		}
	}
	return booked, nil
}

func (l *memLedger) ExpiredHolds(_ context.Context, cutoff time.Time, limit int) ([]*model.Appointment, error) {
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

func (l *memLedger) ListByCustomer(_ context.Context, customerID uuid.UUID) ([]*model.Appointment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*model.Appointment
	for _, apt := range l.byID {
		if apt.CustomerID == customerID {
			cp := *apt
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memDirectory struct {
	shop     *model.Shop
	staff    *model.Staff
	service  *model.Service
	customer *model.Customer
}

func (d *memDirectory) GetShop(_ context.Context, id uuid.UUID) (*model.Shop, error) {
	if d.shop == nil || d.shop.ID != id {
		return nil, repository.ErrNotFound
	}
	return d.shop, nil
}

func (d *memDirectory) GetStaff(_ context.Context, id uuid.UUID) (*model.Staff, error) {
	if d.staff == nil || d.staff.ID != id {
		return nil, repository.ErrNotFound
	}
	return d.staff, nil
}

func (d *memDirectory) ListActiveStaff(_ context.Context, shopID uuid.UUID) ([]*model.Staff, error) {
	if d.staff != nil && d.staff.ShopID == shopID && d.staff.Active {
		return []*model.Staff{d.staff}, nil
	}
	return nil, nil
}

func (d *memDirectory) GetService(_ context.Context, id uuid.UUID) (*model.Service, error) {
	if d.service == nil || d.service.ID != id {
		return nil, repository.ErrNotFound
	}
	return d.service, nil
}

func (d *memDirectory) GetCustomer(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	if d.customer == nil || d.customer.ID != id {
		return nil, repository.ErrNotFound
	}
	return d.customer, nil
}

type memIntents struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*model.PaymentIntentRecord
}

func newMemIntents() *memIntents {
	return &memIntents{byID: map[uuid.UUID]*model.PaymentIntentRecord{}}
}

func (m *memIntents) Create(_ context.Context, rec *model.PaymentIntentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now()
	cp := *rec
	m.byID[rec.ID] = &cp
	return nil
}

func (m *memIntents) GetByProviderRef(_ context.Context, providerRef string) (*model.PaymentIntentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.byID {
		if rec.ProviderRef == providerRef {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memIntents) GetByAppointment(_ context.Context, appointmentID uuid.UUID) (*model.PaymentIntentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.byID {
		if rec.AppointmentID == appointmentID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memIntents) UpdateStatus(_ context.Context, id uuid.UUID, status model.PaymentIntentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.byID[id]; ok {
		rec.Status = status
	}
	return nil
}

type memOutbox struct {
	mu     sync.Mutex
	events []*model.OutboxEvent
}

func (m *memOutbox) Create(_ context.Context, event *model.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *memOutbox) typeCounts() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int{}
	for _, e := range m.events {
		counts[e.EventType]++
	}
	return counts
}

func (m *memOutbox) GetPendingEventsWithLock(context.Context, int) ([]*model.OutboxEvent, error) {
	return nil, nil
}

func (m *memOutbox) BeginTx(context.Context) (*sqlx.Tx, error) { return nil, nil }

func (m *memOutbox) UpdateStatusTx(context.Context, *sqlx.Tx, uuid.UUID, model.OutboxStatus, *string, *time.Time) error {
	return nil
}

func (m *memOutbox) MoveToDeadLetter(context.Context, *sqlx.Tx, *model.OutboxEvent) error {
	return nil
}

func (m *memOutbox) DeleteProcessedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type fakeProcessor struct {
	mu        sync.Mutex
	openErr   error
	opened    int
	cancelled []string
}

func (p *fakeProcessor) OpenIntent(_ context.Context, _ int64, _ string, metadata map[string]string) (*payment.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.openErr != nil {
		return nil, p.openErr
	}
	p.opened++
	return &payment.Intent{
		ProviderRef:  "pi_" + metadata["appointment_id"],
		ClientSecret: "cs_test",
	}, nil
}

func (p *fakeProcessor) CancelIntent(_ context.Context, providerRef string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = append(p.cancelled, providerRef)
	return nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	sends int
}

func (n *fakeNotifier) SendBookingConfirmation(context.Context, *model.Appointment) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sends++
	return nil
}
