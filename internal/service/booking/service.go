package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trimtime/booking-api/internal/availability"
	"github.com/trimtime/booking-api/internal/model"
	"github.com/trimtime/booking-api/internal/payment"
	"github.com/trimtime/booking-api/internal/repository"
	"github.com/trimtime/booking-api/internal/service/event"
	"github.com/trimtime/booking-api/internal/slot"
	apperrors "github.com/trimtime/booking-api/pkg/errors"
	"github.com/trimtime/booking-api/pkg/logger"
	"github.com/trimtime/booking-api/pkg/metrics"
)

// Config holds the workflow's tunables. HoldTTL bounds how long an
// unpaid pending hold may occupy a slot before the sweeper releases it.
type Config struct {
	HoldTTL       time.Duration
	IntentTimeout time.Duration
}

// Notifier is the optional customer-facing side channel (email). All
// calls are best-effort.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, apt *model.Appointment) error
}

type Service struct {
	ledger    repository.LedgerRepository
	directory repository.DirectoryRepository
	intents   repository.PaymentIntentRepository
	processor payment.Processor
	events    *event.Service
	notifier  Notifier
	config    Config
	logger    *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewService(
	ledger repository.LedgerRepository,
	directory repository.DirectoryRepository,
	intents repository.PaymentIntentRepository,
	processor payment.Processor,
	events *event.Service,
	notifier Notifier,
	config Config,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	if config.HoldTTL <= 0 {
		config.HoldTTL = 15 * time.Minute
	}
	if config.IntentTimeout <= 0 {
		config.IntentTimeout = 10 * time.Second
	}
	return &Service{
		ledger:    ledger,
		directory: directory,
		intents:   intents,
		processor: processor,
		events:    events,
		notifier:  notifier,
		config:    config,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// ClaimAndPay runs the claim half of the booking workflow:
// validate tuple -> claim against the ledger -> open a payment intent.
// A failed intent open releases the hold synchronously, so it never
// strands a slot. An AlreadyTaken claim is terminal; callers must
// re-enumerate slots and pick again.
func (s *Service) ClaimAndPay(ctx context.Context, req *model.CreateBookingRequest, customerID uuid.UUID) (*model.BookingResponse, error) {
	shopID, staffID, serviceID, err := parseIDs(req)
	if err != nil {
		return nil, apperrors.BadRequest("malformed booking request", err)
	}

	shop, err := s.directory.GetShop(ctx, shopID)
	if err != nil {
		return nil, directoryErr("shop", err)
	}
	staff, err := s.directory.GetStaff(ctx, staffID)
	if err != nil {
		return nil, directoryErr("staff", err)
	}
	if staff.ShopID != shop.ID || !staff.Active {
		return nil, apperrors.BadRequest("staff member is not bookable at this shop", nil)
	}
	svc, err := s.directory.GetService(ctx, serviceID)
	if err != nil {
		return nil, directoryErr("service", err)
	}
	if svc.ShopID != shop.ID {
		return nil, apperrors.BadRequest("service does not belong to this shop", nil)
	}

	endTime, err := s.validateSlot(shop, req, svc)
	if err != nil {
		return nil, err
	}

	// Claim: the ledger insert is the atomic arbiter. No retry on
	// contention; the world has changed and the customer must re-pick.
	apt, err := s.ledger.Claim(ctx, &model.AppointmentDraft{
		ShopID:     shop.ID,
		StaffID:    staff.ID,
		ServiceID:  svc.ID,
		CustomerID: customerID,
		SlotDate:   model.ISODate(req.Date),
		StartTime:  req.StartTime,
		EndTime:    endTime,
	})
	if err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			s.metrics.ClaimAttempts.WithLabelValues("taken").Inc()
			return nil, apperrors.Conflict("slot no longer available", err)
		}
		s.metrics.ClaimAttempts.WithLabelValues("error").Inc()
		return nil, apperrors.Internal(err)
	}
	s.metrics.ClaimAttempts.WithLabelValues("claimed").Inc()

	if err := s.events.EmitSlotEvent(ctx, model.EventSlotClaimed, apt, model.SlotStatusBooked); err != nil {
		s.logger.Error(err, "failed to emit slot claimed event", "appointment_id", apt.ID.String())
	}

	intent, err := s.openIntent(ctx, apt, svc)
	if err != nil {
		// Release before surfacing the error so a failed intent open
		// never leaves a phantom hold behind.
		if _, relErr := s.release(ctx, apt.ID, model.PaymentStatusFailed, "payment intent open failed", "payment_failed"); relErr != nil {
			s.logger.Error(relErr, "failed to release hold after intent failure", "appointment_id", apt.ID.String())
		}
		return nil, apperrors.PaymentFailed("could not start payment", err)
	}

	rec := &model.PaymentIntentRecord{
		AppointmentID: apt.ID,
		ProviderRef:   intent.ProviderRef,
		AmountCents:   svc.PriceCents,
		Currency:      svc.Currency,
		Status:        model.PaymentIntentStatusOpen,
	}
	if err := s.intents.Create(ctx, rec); err != nil {
		if _, relErr := s.release(ctx, apt.ID, model.PaymentStatusFailed, "payment intent record failed", "payment_failed"); relErr != nil {
			s.logger.Error(relErr, "failed to release hold after intent record failure", "appointment_id", apt.ID.String())
		}
		return nil, apperrors.Internal(err)
	}

	s.logger.Info("slot claimed, awaiting payment",
		"appointment_id", apt.ID.String(),
		"shop_id", shop.ID.String(),
		"staff_id", staff.ID.String(),
		"slot", req.Date+" "+req.StartTime,
	)

	return &model.BookingResponse{
		Appointment:  apt,
		ClientSecret: intent.ClientSecret,
		ExpiresAt:    apt.CreatedAt.Add(s.config.HoldTTL),
	}, nil
}

// HandlePaymentOutcome applies an asynchronous processor signal.
// Deliveries are at-least-once; the intent record's status is the
// dedup point, so replays are no-ops with no duplicate side effects.
func (s *Service) HandlePaymentOutcome(ctx context.Context, outcome *payment.Outcome) error {
	rec, err := s.intents.GetByProviderRef(ctx, outcome.ProviderRef)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// A confirmation for an intent the core never opened is an
			// integrity signal, not a crash.
			s.metrics.ReconciliationErrors.Inc()
			s.logger.Warn("payment outcome for unknown intent", "provider_ref", outcome.ProviderRef)
			return apperrors.Reconciliation("unknown payment intent", err)
		}
		return apperrors.Internal(err)
	}

	if !outcome.Succeeded {
		return s.handlePaymentFailure(ctx, rec, outcome)
	}
	return s.handlePaymentSuccess(ctx, rec)
}

func (s *Service) handlePaymentSuccess(ctx context.Context, rec *model.PaymentIntentRecord) error {
	if rec.Status == model.PaymentIntentStatusSucceeded {
		// Replay of a confirmation we already applied.
		return nil
	}

	apt, err := s.ledger.ConfirmPayment(ctx, rec.AppointmentID)
	if err != nil {
		if errors.Is(err, repository.ErrReleasedHold) {
			// The hold was released (timeout or cancel) before the
			// confirmation arrived. The tuple may already belong to
			// someone else, so never resurrect; escalate instead.
			s.metrics.ReconciliationErrors.Inc()
			s.logger.Error(err, "payment succeeded for released hold, operator reconciliation required",
				"appointment_id", rec.AppointmentID.String(),
				"provider_ref", rec.ProviderRef,
			)
			return apperrors.Reconciliation("payment succeeded for released hold", err)
		}
		return apperrors.Internal(err)
	}

	if err := s.intents.UpdateStatus(ctx, rec.ID, model.PaymentIntentStatusSucceeded); err != nil {
		s.logger.Error(err, "failed to mark intent succeeded", "intent_id", rec.ID.String())
	}
	s.metrics.BookingsConfirmed.Inc()

	if err := s.events.EmitSlotEvent(ctx, model.EventSlotClaimed, apt, model.SlotStatusBooked); err != nil {
		s.logger.Error(err, "failed to emit confirmation event", "appointment_id", apt.ID.String())
	}

	if s.notifier != nil {
		if err := s.notifier.SendBookingConfirmation(ctx, apt); err != nil {
			s.logger.Error(err, "failed to send booking confirmation", "appointment_id", apt.ID.String())
		}
	}

	s.logger.Info("booking confirmed", "appointment_id", apt.ID.String())
	return nil
}

func (s *Service) handlePaymentFailure(ctx context.Context, rec *model.PaymentIntentRecord, outcome *payment.Outcome) error {
	if rec.Status == model.PaymentIntentStatusFailed || rec.Status == model.PaymentIntentStatusCancelled {
		return nil
	}

	reason := outcome.Reason
	if reason == "" {
		reason = "payment failed"
	}

	if _, err := s.release(ctx, rec.AppointmentID, model.PaymentStatusFailed, reason, "payment_failed"); err != nil {
		return apperrors.Internal(err)
	}
	if err := s.intents.UpdateStatus(ctx, rec.ID, model.PaymentIntentStatusFailed); err != nil {
		s.logger.Error(err, "failed to mark intent failed", "intent_id", rec.ID.String())
	}

	s.logger.Info("hold released on payment failure",
		"appointment_id", rec.AppointmentID.String(),
		"reason", reason,
	)
	return nil
}

// Cancel releases an appointment on behalf of the customer or shop.
// Idempotent: cancelling twice converges on the same terminal state. A
// cancel racing the expiry sweeper is harmless for the same reason.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, customerID uuid.UUID, reason string) (*model.Appointment, error) {
	apt, err := s.ledger.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, apperrors.Internal(err)
	}
	if apt.CustomerID != customerID {
		return nil, apperrors.NotFound("appointment", nil)
	}

	paymentStatus := model.PaymentStatusFailed
	if apt.PaymentStatus == model.PaymentStatusPaid {
		paymentStatus = model.PaymentStatusRefunded
	}
	if apt.Status == model.AppointmentStatusCancelled {
		paymentStatus = apt.PaymentStatus
	}
	if reason == "" {
		reason = "cancelled by customer"
	}

	released, err := s.release(ctx, id, paymentStatus, reason, "cancelled")
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return released, nil
}

// ReleaseExpiredHold is invoked by the sweeper for a pending hold past
// its TTL. The processor-side intent is cancelled best-effort.
func (s *Service) ReleaseExpiredHold(ctx context.Context, apt *model.Appointment) error {
	if _, err := s.release(ctx, apt.ID, model.PaymentStatusFailed, "payment confirmation timed out", "timeout"); err != nil {
		return err
	}
	s.metrics.HoldsExpired.Inc()

	rec, err := s.intents.GetByAppointment(ctx, apt.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error(err, "failed to load intent for expired hold", "appointment_id", apt.ID.String())
		}
		return nil
	}
	if rec.Status != model.PaymentIntentStatusOpen {
		return nil
	}
	if err := s.processor.CancelIntent(ctx, rec.ProviderRef); err != nil {
		s.logger.Error(err, "failed to cancel processor intent", "provider_ref", rec.ProviderRef)
	}
	if err := s.intents.UpdateStatus(ctx, rec.ID, model.PaymentIntentStatusCancelled); err != nil {
		s.logger.Error(err, "failed to mark intent cancelled", "intent_id", rec.ID.String())
	}
	return nil
}

// HoldCutoff returns the creation-time cutoff before which a pending
// hold counts as expired.
func (s *Service) HoldCutoff() time.Time {
	return s.now().Add(-s.config.HoldTTL)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID, customerID uuid.UUID) (*model.Appointment, error) {
	apt, err := s.ledger.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, apperrors.Internal(err)
	}
	if apt.CustomerID != customerID {
		return nil, apperrors.NotFound("appointment", nil)
	}
	return apt, nil
}

func (s *Service) ListAppointments(ctx context.Context, customerID uuid.UUID) ([]*model.Appointment, error) {
	appointments, err := s.ledger.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return appointments, nil
}

// release funnels every path that frees a tuple through one place so
// the released event and metrics stay consistent.
func (s *Service) release(ctx context.Context, id uuid.UUID, paymentStatus model.PaymentStatus, reason, metricReason string) (*model.Appointment, error) {
	wasHolding := true
	if current, err := s.ledger.Get(ctx, id); err == nil {
		wasHolding = current.Holding()
	}

	apt, err := s.ledger.Release(ctx, id, paymentStatus, reason)
	if err != nil {
		return nil, fmt.Errorf("failed to release appointment: %w", err)
	}

	if wasHolding {
		s.metrics.BookingsReleased.WithLabelValues(metricReason).Inc()
		if err := s.events.EmitSlotEvent(ctx, model.EventSlotReleased, apt, model.SlotStatusAvailable); err != nil {
			s.logger.Error(err, "failed to emit slot released event", "appointment_id", apt.ID.String())
		}
	}
	return apt, nil
}

// validateSlot re-derives the requested slot from the same pure inputs
// the enumerator uses, so a tuple that could never be displayed can
// never be claimed either.
func (s *Service) validateSlot(shop *model.Shop, req *model.CreateBookingRequest, svc *model.Service) (string, error) {
	date, err := time.Parse(model.DateLayout, req.Date)
	if err != nil {
		return "", apperrors.BadRequest("malformed date", err)
	}

	windows := availability.Resolve(shop.Availability, date)
	if !windows.IsOperatingDay {
		return "", apperrors.BadRequest("shop is not operating on this date", nil)
	}

	slots := slot.Enumerate(slot.Params{
		ShopID:           shop.ID,
		Date:             req.Date,
		Windows:          windows,
		DurationMinutes:  svc.DurationMinutes,
		BufferMinutes:    svc.BufferMinutes,
		AllowDuringBreak: shop.Availability.AllowBookingDuringBreak,
		Now:              s.now(),
	})
	for _, candidate := range slots {
		if candidate.StartTime != req.StartTime {
			continue
		}
		switch candidate.Status {
		case model.SlotStatusAvailable:
			return candidate.EndTime, nil
		case model.SlotStatusPast:
			return "", apperrors.BadRequest("slot start time has already passed", nil)
		default:
			return "", apperrors.BadRequest("slot is not bookable", nil)
		}
	}
	return "", apperrors.BadRequest("start time does not match any slot", nil)
}

func (s *Service) openIntent(ctx context.Context, apt *model.Appointment, svc *model.Service) (*payment.Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.IntentTimeout)
	defer cancel()

	start := time.Now()
	intent, err := s.processor.OpenIntent(ctx, svc.PriceCents, svc.Currency, map[string]string{
		"appointment_id": apt.ID.String(),
		"shop_id":        apt.ShopID.String(),
		"staff_id":       apt.StaffID.String(),
		"slot_date":      apt.SlotDate.String(),
		"start_time":     apt.StartTime,
	})
	s.metrics.PaymentIntentLatency.Observe(time.Since(start).Seconds())
	return intent, err
}

func parseIDs(req *model.CreateBookingRequest) (shopID, staffID, serviceID uuid.UUID, err error) {
	if shopID, err = uuid.Parse(req.ShopID); err != nil {
		return
	}
	if staffID, err = uuid.Parse(req.StaffID); err != nil {
		return
	}
	serviceID, err = uuid.Parse(req.ServiceID)
	return
}

func directoryErr(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, err)
	}
	return apperrors.Internal(err)
}
