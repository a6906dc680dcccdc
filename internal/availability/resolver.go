package availability

import (
	"strings"
	"time"

	"github.com/trimtime/booking-api/internal/model"
)

// DayWindows is the resolved verdict for one shop-day. Open/Close/breaks
// are minutes since local midnight.
type DayWindows struct {
	IsOperatingDay bool
	IsHoliday      bool
	Open           int
	Close          int
	Breaks         []BreakInterval
}

type BreakInterval struct {
	Name  string
	Start int
	End   int
}

// Resolve turns a shop's operating rules and a candidate date into the
// day's bookable windows. It never fails: malformed configuration
// normalizes to "not operating", since an unbookable day is always a
// safe default.
//
// Precedence: holiday, then non-working weekday, then standard hours.
func Resolve(av model.ShopAvailability, date time.Time) DayWindows {
	holiday := false
	dateStr := date.Format(model.DateLayout)
	for _, h := range av.Holidays {
		if h == dateStr {
			holiday = true
			break
		}
	}

	if !holiday && !isWorkingDay(av.WorkingDays, date.Weekday()) {
		return DayWindows{}
	}

	open, err := model.ParseClock(av.OpenTime)
	if err != nil {
		return DayWindows{IsHoliday: holiday}
	}
	closeAt, err := model.ParseClock(av.CloseTime)
	if err != nil {
		return DayWindows{IsHoliday: holiday}
	}
	if closeAt <= open {
		return DayWindows{IsHoliday: holiday}
	}

	// Holidays keep their standard hours so viewers still see the grid,
	// marked holiday, but the day is not operating.
	if holiday {
		return DayWindows{IsHoliday: true, Open: open, Close: closeAt}
	}

	breaks := make([]BreakInterval, 0, len(av.Breaks))
	for _, b := range av.Breaks {
		start, err := model.ParseClock(b.Start)
		if err != nil {
			continue
		}
		end, err := model.ParseClock(b.End)
		if err != nil {
			continue
		}
		// Breaks must lie within [open, close) and be non-empty.
		if end <= start || start < open || end > closeAt {
			continue
		}
		breaks = append(breaks, BreakInterval{Name: b.Name, Start: start, End: end})
	}

	return DayWindows{
		IsOperatingDay: true,
		Open:           open,
		Close:          closeAt,
		Breaks:         breaks,
	}
}

func isWorkingDay(workingDays []string, wd time.Weekday) bool {
	name := strings.ToLower(wd.String())
	for _, d := range workingDays {
		if strings.ToLower(strings.TrimSpace(d)) == name {
			return true
		}
	}
	return false
}
