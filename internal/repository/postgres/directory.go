package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/trimtime/booking-api/internal/model"
	"github.com/trimtime/booking-api/internal/repository"
)

// The directory tables are owned by the shop/identity services; the
// booking core only reads them.

type shopRow struct {
	model.Base
	Name         string `db:"name"`
	Availability []byte `db:"availability"`
}

func (r *directoryRepository) GetShop(ctx context.Context, id uuid.UUID) (*model.Shop, error) {
	query := `
		SELECT id, name, availability, created_at, updated_at, deleted_at
		FROM shops
		WHERE id = $1 AND deleted_at IS NULL
	`
	var row shopRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if repository.IsNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}

	shop := &model.Shop{Base: row.Base, Name: row.Name}
	// Availability is stored as a jsonb document. A malformed document
	// leaves the zero value, which resolves to "not operating".
	if len(row.Availability) > 0 {
		_ = json.Unmarshal(row.Availability, &shop.Availability)
	}
	shop.Availability.ShopID = shop.ID
	return shop, nil
}

func (r *directoryRepository) GetStaff(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	query := `
		SELECT id, shop_id, display_name, active, created_at, updated_at, deleted_at
		FROM staff
		WHERE id = $1 AND deleted_at IS NULL
	`
	var staff model.Staff
	if err := r.db.GetContext(ctx, &staff, query, id); err != nil {
		if repository.IsNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get staff: %w", err)
	}
	return &staff, nil
}

func (r *directoryRepository) ListActiveStaff(ctx context.Context, shopID uuid.UUID) ([]*model.Staff, error) {
	query := `
		SELECT id, shop_id, display_name, active, created_at, updated_at, deleted_at
		FROM staff
		WHERE shop_id = $1 AND active = TRUE AND deleted_at IS NULL
		ORDER BY display_name ASC
	`
	var staff []*model.Staff
	if err := r.db.SelectContext(ctx, &staff, query, shopID); err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	return staff, nil
}

func (r *directoryRepository) GetService(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	query := `
		SELECT id, shop_id, name, duration_minutes, buffer_minutes, price_cents,
		       currency, created_at, updated_at, deleted_at
		FROM services
		WHERE id = $1 AND deleted_at IS NULL
	`
	var svc model.Service
	if err := r.db.GetContext(ctx, &svc, query, id); err != nil {
		if repository.IsNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return &svc, nil
}

func (r *directoryRepository) GetCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	query := `
		SELECT id, name, email, created_at, updated_at, deleted_at
		FROM customers
		WHERE id = $1 AND deleted_at IS NULL
	`
	var customer model.Customer
	if err := r.db.GetContext(ctx, &customer, query, id); err != nil {
		if repository.IsNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &customer, nil
}
