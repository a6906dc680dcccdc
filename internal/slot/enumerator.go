package slot

import (
	"time"

	"github.com/google/uuid"

	"github.com/trimtime/booking-api/internal/availability"
	"github.com/trimtime/booking-api/internal/model"
)

// Params are the complete inputs of one enumeration. The function is
// pure: server and any caching layer agree byte-for-byte on slot status
// given equal Params.
type Params struct {
	ShopID          uuid.UUID
	StaffID         uuid.UUID
	Date            string
	Windows         availability.DayWindows
	DurationMinutes int
	BufferMinutes   int
	// Booked holds the start times ("15:04") of tuples currently held in
	// the ledger for this staff/date.
	Booked map[string]bool
	// AllowDuringBreak evaluates break-intersecting slots normally
	// instead of forcing them to break status.
	AllowDuringBreak bool
	Now              time.Time
}

// Enumerate emits the candidate slots for one staff/day in generation
// order. A zero or negative duration is a configuration error and
// yields an empty list rather than failing.
//
// Status precedence per slot: break, then booked, then past (today
// only), then available. On a holiday every emitted slot would be
// unbookable, so a non-operating day yields no slots at all.
func Enumerate(p Params) []model.Slot {
	if p.DurationMinutes <= 0 || p.BufferMinutes < 0 {
		return []model.Slot{}
	}
	holidayGrid := !p.Windows.IsOperatingDay && p.Windows.IsHoliday && p.Windows.Close > p.Windows.Open
	if !p.Windows.IsOperatingDay && !holidayGrid {
		return []model.Slot{}
	}

	isToday := p.Now.Format(model.DateLayout) == p.Date
	nowMinutes := p.Now.Hour()*60 + p.Now.Minute()

	slots := make([]model.Slot, 0, (p.Windows.Close-p.Windows.Open)/p.DurationMinutes+1)
	index := 0
	for cursor := p.Windows.Open; cursor+p.DurationMinutes <= p.Windows.Close; cursor += p.DurationMinutes + p.BufferMinutes {
		start := model.FormatClock(cursor)
		end := cursor + p.DurationMinutes

		s := model.Slot{
			SlotKey: model.SlotKey{
				ShopID:    p.ShopID,
				StaffID:   p.StaffID,
				Date:      p.Date,
				StartTime: start,
			},
			EndTime: model.FormatClock(end),
			Index:   index,
			Status:  model.SlotStatusAvailable,
		}

		switch {
		case holidayGrid:
			s.Status = model.SlotStatusHoliday
		case !p.AllowDuringBreak && intersectsBreak(cursor, end, p.Windows.Breaks):
			s.Status = model.SlotStatusBreak
		case p.Booked[start]:
			s.Status = model.SlotStatusBooked
		case isToday && cursor <= nowMinutes:
			s.Status = model.SlotStatusPast
		}

		slots = append(slots, s)
		index++
	}
	return slots
}

// intersectsBreak reports whether [start,end) overlaps any break
// interval. Half-open: touching boundaries do not intersect.
func intersectsBreak(start, end int, breaks []availability.BreakInterval) bool {
	for _, b := range breaks {
		if start < b.End && b.Start < end {
			return true
		}
	}
	return false
}
