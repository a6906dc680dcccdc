package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trimtime/booking-api/internal/model"
)

func weekdayShop() model.ShopAvailability {
	return model.ShopAvailability{
		WorkingDays: []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		OpenTime:    "09:00",
		CloseTime:   "17:00",
		Breaks: []model.BreakWindow{
			{Name: "lunch", Start: "13:00", End: "14:00"},
		},
		Holidays: []string{"2026-12-25"},
	}
}

func TestResolveOperatingDay(t *testing.T) {
	// 2026-09-02 is a Wednesday.
	date := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	w := Resolve(weekdayShop(), date)

	assert.True(t, w.IsOperatingDay)
	assert.Equal(t, 9*60, w.Open)
	assert.Equal(t, 17*60, w.Close)
	if assert.Len(t, w.Breaks, 1) {
		assert.Equal(t, "lunch", w.Breaks[0].Name)
		assert.Equal(t, 13*60, w.Breaks[0].Start)
		assert.Equal(t, 14*60, w.Breaks[0].End)
	}
}

func TestResolveHolidayBeatsWorkingDay(t *testing.T) {
	// 2026-12-25 is a Friday but configured as a holiday.
	date := time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)
	w := Resolve(weekdayShop(), date)

	assert.False(t, w.IsOperatingDay)
	assert.True(t, w.IsHoliday)
}

func TestResolveNonWorkingWeekday(t *testing.T) {
	// 2026-09-06 is a Sunday.
	date := time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC)
	w := Resolve(weekdayShop(), date)

	assert.False(t, w.IsOperatingDay)
	assert.False(t, w.IsHoliday)
}

func TestResolveMalformedConfigNormalizesToClosed(t *testing.T) {
	date := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)

	av := weekdayShop()
	av.OpenTime = "not-a-time"
	assert.False(t, Resolve(av, date).IsOperatingDay)

	av = weekdayShop()
	av.CloseTime = "08:00" // closes before it opens
	assert.False(t, Resolve(av, date).IsOperatingDay)

	av = weekdayShop()
	av.WorkingDays = nil
	assert.False(t, Resolve(av, date).IsOperatingDay)
}

func TestResolveDropsInvalidBreaks(t *testing.T) {
	date := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)

	av := weekdayShop()
	av.Breaks = []model.BreakWindow{
		{Name: "before-open", Start: "08:00", End: "08:30"},
		{Name: "after-close", Start: "16:30", End: "17:30"},
		{Name: "empty", Start: "12:00", End: "12:00"},
		{Name: "tea", Start: "15:00", End: "15:15"},
	}

	w := Resolve(av, date)
	if assert.Len(t, w.Breaks, 1) {
		assert.Equal(t, "tea", w.Breaks[0].Name)
	}
}

func TestResolveWorkingDayNameIsCaseInsensitive(t *testing.T) {
	date := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)

	av := weekdayShop()
	av.WorkingDays = []string{"Monday", " WEDNESDAY "}
	assert.True(t, Resolve(av, date).IsOperatingDay)
}
