package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/trimtime/booking-api/internal/model"
	"github.com/trimtime/booking-api/internal/repository"
)

// uniqueViolation is the Postgres error code raised by the partial
// unique index on (shop_id, staff_id, slot_date, start_time) over
// holding statuses. See migrations/0001_booking_schema.sql.
const uniqueViolation = "23505"

func (r *ledgerRepository) Claim(ctx context.Context, draft *model.AppointmentDraft) (*model.Appointment, error) {
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

	query := `
		INSERT INTO appointments (
			id, shop_id, staff_id, service_id, customer_id,
			slot_date, start_time, end_time, status, payment_status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		apt.ID,
		apt.ShopID,
		apt.StaffID,
		apt.ServiceID,
		apt.CustomerID,
		apt.SlotDate,
		apt.StartTime,
		apt.EndTime,
		apt.Status,
		apt.PaymentStatus,
		apt.CreatedAt,
		apt.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, repository.ErrSlotTaken
		}
		return nil, fmt.Errorf("failed to claim slot: %w", err)
	}
	return apt, nil
}

func (r *ledgerRepository) Release(ctx context.Context, id uuid.UUID, paymentStatus model.PaymentStatus, reason string) (*model.Appointment, error) {
	// Single conditional UPDATE so a customer cancel racing the expiry
	// sweeper converges on cancelled without error on either side.
	query := `
		UPDATE appointments
		SET status = $2, payment_status = $3, cancel_reason = $4, updated_at = NOW()
		WHERE id = $1 AND status != $2
	`
	_, err := r.db.ExecContext(ctx, query, id, model.AppointmentStatusCancelled, paymentStatus, reason)
	if err != nil {
		return nil, fmt.Errorf("failed to release appointment: %w", err)
	}

	// Zero rows means it was already cancelled; return the current row
	// either way so callers see the converged state.
	return r.Get(ctx, id)
}

func (r *ledgerRepository) ConfirmPayment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		UPDATE appointments
		SET status = $2, payment_status = $3, updated_at = NOW()
		WHERE id = $1 AND status IN ($2, $4)
	`
	res, err := r.db.ExecContext(ctx, query,
		id,
		model.AppointmentStatusConfirmed,
		model.PaymentStatusPaid,
		model.AppointmentStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm appointment: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		apt, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		// The hold was released before the confirmation arrived; the
		// tuple may already belong to someone else.
		return apt, repository.ErrReleasedHold
	}

	return r.Get(ctx, id)
}

func (r *ledgerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, shop_id, staff_id, service_id, customer_id,
		       slot_date, start_time, end_time, status, payment_status,
		       cancel_reason, created_at, updated_at, deleted_at
		FROM appointments
		WHERE id = $1
	`
	var apt model.Appointment
	err := r.db.GetContext(ctx, &apt, query, id)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &apt, nil
}

func (r *ledgerRepository) BookedStartTimes(ctx context.Context, shopID, staffID uuid.UUID, date string) (map[string]bool, error) {
	query := `
		SELECT start_time
		FROM appointments
		WHERE shop_id = $1 AND staff_id = $2 AND slot_date = $3
		AND status IN ('pending', 'confirmed', 'ongoing', 'completed')
	`
	var starts []string
	if err := r.db.SelectContext(ctx, &starts, query, shopID, staffID, date); err != nil {
		return nil, fmt.Errorf("failed to list booked slots: %w", err)
	}

	booked := make(map[string]bool, len(starts))
	for _, s := range starts {
		booked[s] = true
	}
	return booked, nil
}

func (r *ledgerRepository) ExpiredHolds(ctx context.Context, cutoff time.Time, limit int) ([]*model.Appointment, error) {
	query := `
		SELECT id, shop_id, staff_id, service_id, customer_id,
		       slot_date, start_time, end_time, status, payment_status,
		       cancel_reason, created_at, updated_at, deleted_at
		FROM appointments
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("failed to find expired holds: %w", err)
	}
	return appointments, nil
}

func (r *ledgerRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT id, shop_id, staff_id, service_id, customer_id,
		       slot_date, start_time, end_time, status, payment_status,
		       cancel_reason, created_at, updated_at, deleted_at
		FROM appointments
		WHERE customer_id = $1
		ORDER BY slot_date DESC, start_time DESC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, customerID); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}
