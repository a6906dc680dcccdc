package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trimtime/booking-api/internal/model"
	"github.com/trimtime/booking-api/internal/repository"
)

func (r *paymentIntentRepository) Create(ctx context.Context, rec *model.PaymentIntentRecord) error {
	query := `
		INSERT INTO payment_intents (
			id, appointment_id, provider_ref, amount_cents, currency,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.AppointmentID,
		rec.ProviderRef,
		rec.AmountCents,
		rec.Currency,
		rec.Status,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment intent record: %w", err)
	}
	return nil
}

func (r *paymentIntentRepository) GetByProviderRef(ctx context.Context, providerRef string) (*model.PaymentIntentRecord, error) {
	query := `
		SELECT id, appointment_id, provider_ref, amount_cents, currency,
		       status, created_at, updated_at
		FROM payment_intents
		WHERE provider_ref = $1
	`
	var rec model.PaymentIntentRecord
	if err := r.db.GetContext(ctx, &rec, query, providerRef); err != nil {
		if repository.IsNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment intent record: %w", err)
	}
	return &rec, nil
}

func (r *paymentIntentRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.PaymentIntentRecord, error) {
	query := `
		SELECT id, appointment_id, provider_ref, amount_cents, currency,
		       status, created_at, updated_at
		FROM payment_intents
		WHERE appointment_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var rec model.PaymentIntentRecord
	if err := r.db.GetContext(ctx, &rec, query, appointmentID); err != nil {
		if repository.IsNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment intent record: %w", err)
	}
	return &rec, nil
}

func (r *paymentIntentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PaymentIntentStatus) error {
	query := `
		UPDATE payment_intents
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update payment intent status: %w", err)
	}
	return nil
}
