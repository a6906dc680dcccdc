package slot

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trimtime/booking-api/internal/availability"
	"github.com/trimtime/booking-api/internal/model"
)

func dayParams() Params {
	return Params{
		ShopID:  uuid.New(),
		StaffID: uuid.New(),
		Date:    "2026-09-02",
		Windows: availability.DayWindows{
			IsOperatingDay: true,
			Open:           9 * 60,
			Close:          17 * 60,
			Breaks: []availability.BreakInterval{
				{Name: "lunch", Start: 13 * 60, End: 14 * 60},
			},
		},
		DurationMinutes: 60,
		Now:             time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestEnumerateNineToFiveHourly(t *testing.T) {
	slots := Enumerate(dayParams())

	// 09:00 through 16:00, the 13:00 slot falls in the lunch break.
	require.Len(t, slots, 8)
	assert.Equal(t, "09:00", slots[0].StartTime)
	assert.Equal(t, "10:00", slots[0].EndTime)
	assert.Equal(t, "16:00", slots[7].StartTime)
	assert.Equal(t, "17:00", slots[7].EndTime)

	for i, s := range slots {
		assert.Equal(t, i, s.Index)
		if s.StartTime == "13:00" {
			assert.Equal(t, model.SlotStatusBreak, s.Status)
		} else {
			assert.Equal(t, model.SlotStatusAvailable, s.Status)
		}
	}
}

func TestEnumerateBufferAdvancesCursor(t *testing.T) {
	p := dayParams()
	p.Windows.Breaks = nil
	p.BufferMinutes = 30

	slots := Enumerate(p)
	// 09:00, 10:30, 12:00, 13:30, 15:00 fit; 16:30+60 overruns close.
	require.Len(t, slots, 5)
	assert.Equal(t, "10:30", slots[1].StartTime)
	assert.Equal(t, "15:00", slots[4].StartTime)
}

func TestEnumerateBookedBeatsPastAndAvailable(t *testing.T) {
	p := dayParams()
	p.Booked = map[string]bool{"10:00": true, "13:00": true}

	slots := Enumerate(p)
	byStart := map[string]model.Slot{}
	for _, s := range slots {
		byStart[s.StartTime] = s
	}

	assert.Equal(t, model.SlotStatusBooked, byStart["10:00"].Status)
	// Break takes precedence over booked.
	assert.Equal(t, model.SlotStatusBreak, byStart["13:00"].Status)
}

func TestEnumerateMarksElapsedSlotsToday(t *testing.T) {
	p := dayParams()
	p.Now = time.Date(2026, 9, 2, 11, 15, 0, 0, time.UTC)

	slots := Enumerate(p)
	byStart := map[string]model.Slot{}
	for _, s := range slots {
		byStart[s.StartTime] = s
	}

	assert.Equal(t, model.SlotStatusPast, byStart["09:00"].Status)
	assert.Equal(t, model.SlotStatusPast, byStart["10:00"].Status)
	assert.Equal(t, model.SlotStatusPast, byStart["11:00"].Status)
	assert.Equal(t, model.SlotStatusAvailable, byStart["12:00"].Status)
}

func TestEnumerateAllowBookingDuringBreak(t *testing.T) {
	p := dayParams()
	p.AllowDuringBreak = true
	p.Booked = map[string]bool{"13:00": true}

	slots := Enumerate(p)
	byStart := map[string]model.Slot{}
	for _, s := range slots {
		byStart[s.StartTime] = s
	}

	// With the override the break slot is evaluated normally.
	assert.Equal(t, model.SlotStatusBooked, byStart["13:00"].Status)
}

func TestEnumerateZeroDurationYieldsEmpty(t *testing.T) {
	p := dayParams()
	p.DurationMinutes = 0
	assert.Empty(t, Enumerate(p))

	p.DurationMinutes = -30
	assert.Empty(t, Enumerate(p))
}

func TestEnumerateNonOperatingDayYieldsEmpty(t *testing.T) {
	p := dayParams()
	p.Windows = availability.DayWindows{}
	assert.Empty(t, Enumerate(p))
}

func TestEnumerateHolidayMarksGrid(t *testing.T) {
	p := dayParams()
	p.Windows = availability.DayWindows{
		IsHoliday: true,
		Open:      9 * 60,
		Close:     17 * 60,
	}

	slots := Enumerate(p)
	require.Len(t, slots, 8)
	for _, s := range slots {
		assert.Equal(t, model.SlotStatusHoliday, s.Status)
	}
}

func TestEnumerateDeterministic(t *testing.T) {
	p := dayParams()
	p.Booked = map[string]bool{"15:00": true}

	first := Enumerate(p)
	second := Enumerate(p)
	assert.Equal(t, first, second)
}

func TestEnumerateLastSlotFitsExactly(t *testing.T) {
	p := dayParams()
	p.Windows.Breaks = nil
	p.Windows.Close = 10*60 + 30
	p.DurationMinutes = 45

	slots := Enumerate(p)
	// 09:00 and 09:45 fit, 10:30 would overrun.
	require.Len(t, slots, 2)
	assert.Equal(t, "09:45", slots[1].StartTime)
	assert.Equal(t, "10:30", slots[1].EndTime)
}
