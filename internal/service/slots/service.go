package slots

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/trimtime/booking-api/internal/availability"
	"github.com/trimtime/booking-api/internal/model"
	"github.com/trimtime/booking-api/internal/repository"
	"github.com/trimtime/booking-api/internal/slot"
	apperrors "github.com/trimtime/booking-api/pkg/errors"
	"github.com/trimtime/booking-api/pkg/logger"
)

const (
	directoryCacheTTL = 30 * time.Second
	cacheSweepEvery   = 5 * time.Minute
)

// Query selects one shop/date grid. A nil StaffID means every active
// staff member of the shop.
type Query struct {
	ShopID    uuid.UUID
	StaffID   *uuid.UUID
	ServiceID uuid.UUID
	Date      string
}

// StaffSlots is one staff member's slot grid for the queried date.
type StaffSlots struct {
	Staff *model.Staff `json:"staff"`
	Slots []model.Slot `json:"slots"`
}

// Service assembles slot grids from the pure resolver/enumerator pair
// and the ledger's booked set. Directory rows change rarely, so lookups
// sit behind a short-lived cache; the booked set is always read fresh.
type Service struct {
	directory repository.DirectoryRepository
	ledger    repository.LedgerRepository
	cache     *cache.Cache
	logger    *logger.Logger
	now       func() time.Time
}

func NewService(directory repository.DirectoryRepository, ledger repository.LedgerRepository, logger *logger.Logger) *Service {
	return &Service{
		directory: directory,
		ledger:    ledger,
		cache:     cache.New(directoryCacheTTL, cacheSweepEvery),
		logger:    logger,
		now:       time.Now,
	}
}

// List enumerates the slot grid for the query. Results reflect the
// ledger at read time; a slot can be lost between display and claim,
// which the claim path reports as a conflict.
func (s *Service) List(ctx context.Context, q Query) ([]*StaffSlots, error) {
	if _, err := time.Parse(model.DateLayout, q.Date); err != nil {
		return nil, apperrors.BadRequest("malformed date", err)
	}

	shop, err := s.getShop(ctx, q.ShopID)
	if err != nil {
		return nil, err
	}
	svc, err := s.getService(ctx, q.ServiceID)
	if err != nil {
		return nil, err
	}
	if svc.ShopID != shop.ID {
		return nil, apperrors.BadRequest("service does not belong to this shop", nil)
	}

	staffList, err := s.resolveStaff(ctx, shop, q.StaffID)
	if err != nil {
		return nil, err
	}

	date, _ := time.Parse(model.DateLayout, q.Date)
	windows := availability.Resolve(shop.Availability, date)
	now := s.now()

	out := make([]*StaffSlots, 0, len(staffList))
	for _, staff := range staffList {
		booked, err := s.ledger.BookedStartTimes(ctx, shop.ID, staff.ID, q.Date)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		out = append(out, &StaffSlots{
			Staff: staff,
			Slots: slot.Enumerate(slot.Params{
				ShopID:           shop.ID,
				StaffID:          staff.ID,
				Date:             q.Date,
				Windows:          windows,
				DurationMinutes:  svc.DurationMinutes,
				BufferMinutes:    svc.BufferMinutes,
				Booked:           booked,
				AllowDuringBreak: shop.Availability.AllowBookingDuringBreak,
				Now:              now,
			}),
		})
	}
	return out, nil
}

func (s *Service) resolveStaff(ctx context.Context, shop *model.Shop, staffID *uuid.UUID) ([]*model.Staff, error) {
	if staffID == nil {
		staffList, err := s.directory.ListActiveStaff(ctx, shop.ID)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		return staffList, nil
	}

	staff, err := s.getStaff(ctx, *staffID)
	if err != nil {
		return nil, err
	}
	if staff.ShopID != shop.ID || !staff.Active {
		return nil, apperrors.BadRequest("staff member is not bookable at this shop", nil)
	}
	return []*model.Staff{staff}, nil
}

func (s *Service) getShop(ctx context.Context, id uuid.UUID) (*model.Shop, error) {
	key := "shop:" + id.String()
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*model.Shop), nil
	}
	shop, err := s.directory.GetShop(ctx, id)
	if err != nil {
		return nil, directoryErr("shop", err)
	}
	s.cache.Set(key, shop, cache.DefaultExpiration)
	return shop, nil
}

func (s *Service) getStaff(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	key := "staff:" + id.String()
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*model.Staff), nil
	}
	staff, err := s.directory.GetStaff(ctx, id)
	if err != nil {
		return nil, directoryErr("staff", err)
	}
	s.cache.Set(key, staff, cache.DefaultExpiration)
	return staff, nil
}

func (s *Service) getService(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	key := "service:" + id.String()
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*model.Service), nil
	}
	svc, err := s.directory.GetService(ctx, id)
	if err != nil {
		return nil, directoryErr("service", err)
	}
	s.cache.Set(key, svc, cache.DefaultExpiration)
	return svc, nil
}

func directoryErr(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, err)
	}
	return apperrors.Internal(err)
}
