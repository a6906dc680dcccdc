package slots

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trimtime/booking-api/internal/model"
	"github.com/trimtime/booking-api/internal/repository"
	apperrors "github.com/trimtime/booking-api/pkg/errors"
	"github.com/trimtime/booking-api/pkg/logger"
)

type stubDirectory struct {
	shop    *model.Shop
	staff   []*model.Staff
	service *model.Service

	shopLookups int
}

func (d *stubDirectory) GetShop(_ context.Context, id uuid.UUID) (*model.Shop, error) {
	d.shopLookups++
	if d.shop == nil || d.shop.ID != id {
		return nil, repository.ErrNotFound
	}
	return d.shop, nil
}

func (d *stubDirectory) GetStaff(_ context.Context, id uuid.UUID) (*model.Staff, error) {
	for _, st := range d.staff {
		if st.ID == id {
			return st, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (d *stubDirectory) ListActiveStaff(_ context.Context, shopID uuid.UUID) ([]*model.Staff, error) {
	var out []*model.Staff
	for _, st := range d.staff {
		if st.ShopID == shopID && st.Active {
			out = append(out, st)
		}
	}
	return out, nil
}

func (d *stubDirectory) GetService(_ context.Context, id uuid.UUID) (*model.Service, error) {
	if d.service == nil || d.service.ID != id {
		return nil, repository.ErrNotFound
	}
	return d.service, nil
}

func (d *stubDirectory) GetCustomer(context.Context, uuid.UUID) (*model.Customer, error) {
	return nil, repository.ErrNotFound
}

type stubLedger struct {
	repository.LedgerRepository
	booked map[uuid.UUID]map[string]bool
}

func (l *stubLedger) BookedStartTimes(_ context.Context, _, staffID uuid.UUID, _ string) (map[string]bool, error) {
	return l.booked[staffID], nil
}

func newSlotsFixture() (*Service, *stubDirectory, *stubLedger) {
	shopID := uuid.New()
	dir := &stubDirectory{
		shop: &model.Shop{
			Base: model.Base{ID: shopID},
			Name: "Fade Factory",
			Availability: model.ShopAvailability{
				ShopID:      shopID,
				WorkingDays: []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
				OpenTime:    "09:00",
				CloseTime:   "17:00",
				Breaks: []model.BreakWindow{
					{Name: "lunch", Start: "13:00", End: "14:00"},
				},
			},
		},
		staff: []*model.Staff{
			{Base: model.Base{ID: uuid.New()}, ShopID: shopID, DisplayName: "Sam", Active: true},
			{Base: model.Base{ID: uuid.New()}, ShopID: shopID, DisplayName: "Riley", Active: true},
		},
		service: &model.Service{
			Base:            model.Base{ID: uuid.New()},
			ShopID:          shopID,
			Name:            "Haircut",
			DurationMinutes: 60,
		},
	}
	ledger := &stubLedger{booked: map[uuid.UUID]map[string]bool{}}

	svc := NewService(dir, ledger, logger.NewLogger(nil))
	svc.now = func() time.Time {
		return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc, dir, ledger
}

func TestListSingleStaffGrid(t *testing.T) {
	svc, dir, ledger := newSlotsFixture()
	staff := dir.staff[0]
	ledger.booked[staff.ID] = map[string]bool{"10:00": true}

	grids, err := svc.List(context.Background(), Query{
		ShopID:    dir.shop.ID,
		StaffID:   &staff.ID,
		ServiceID: dir.service.ID,
		Date:      "2026-09-02",
	})
	require.NoError(t, err)
	require.Len(t, grids, 1)
	require.Len(t, grids[0].Slots, 8)

	byStart := map[string]model.SlotStatus{}
	for _, s := range grids[0].Slots {
		byStart[s.StartTime] = s.Status
	}
	assert.Equal(t, model.SlotStatusAvailable, byStart["09:00"])
	assert.Equal(t, model.SlotStatusBooked, byStart["10:00"])
	assert.Equal(t, model.SlotStatusBreak, byStart["13:00"])
	assert.Equal(t, model.SlotStatusAvailable, byStart["16:00"])
}

func TestListAllStaff(t *testing.T) {
	svc, dir, ledger := newSlotsFixture()
	ledger.booked[dir.staff[1].ID] = map[string]bool{"09:00": true}

	grids, err := svc.List(context.Background(), Query{
		ShopID:    dir.shop.ID,
		ServiceID: dir.service.ID,
		Date:      "2026-09-02",
	})
	require.NoError(t, err)
	require.Len(t, grids, 2)

	assert.Equal(t, model.SlotStatusAvailable, grids[0].Slots[0].Status)
	assert.Equal(t, model.SlotStatusBooked, grids[1].Slots[0].Status)
	for _, g := range grids {
		for _, s := range g.Slots {
			assert.Equal(t, g.Staff.ID, s.StaffID)
		}
	}
}

func TestListCachesDirectoryLookups(t *testing.T) {
	svc, dir, _ := newSlotsFixture()

	q := Query{ShopID: dir.shop.ID, ServiceID: dir.service.ID, Date: "2026-09-02"}
	_, err := svc.List(context.Background(), q)
	require.NoError(t, err)
	_, err = svc.List(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, 1, dir.shopLookups)
}

func TestListRejectsForeignService(t *testing.T) {
	svc, dir, _ := newSlotsFixture()
	dir.service.ShopID = uuid.New()

	_, err := svc.List(context.Background(), Query{
		ShopID:    dir.shop.ID,
		ServiceID: dir.service.ID,
		Date:      "2026-09-02",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest))
}

func TestListUnknownShop(t *testing.T) {
	svc, dir, _ := newSlotsFixture()

	_, err := svc.List(context.Background(), Query{
		ShopID:    uuid.New(),
		ServiceID: dir.service.ID,
		Date:      "2026-09-02",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestListNonOperatingDayEmptyGrids(t *testing.T) {
	svc, dir, _ := newSlotsFixture()

	grids, err := svc.List(context.Background(), Query{
		ShopID:    dir.shop.ID,
		ServiceID: dir.service.ID,
		Date:      "2026-09-06",
	})
	require.NoError(t, err)
	require.Len(t, grids, 2)
	for _, g := range grids {
		assert.Empty(t, g.Slots)
	}
}
