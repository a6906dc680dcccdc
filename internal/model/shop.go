package model

import (
	"time"

	"github.com/google/uuid"
)

// BreakWindow is a recurring intra-day break, e.g. lunch. Times are
// local shop clock in "15:04" form.
type BreakWindow struct {
	Name  string `db:"name" json:"name"`
	Start string `db:"start_time" json:"start"`
	End   string `db:"end_time" json:"end"`
}

// ShopAvailability holds a shop's operating rules. All clock values are
// the shop's local time; the booking core never normalizes across zones.
type ShopAvailability struct {
	ShopID                  uuid.UUID     `json:"shop_id"`
	WorkingDays             []string      `json:"working_days"`
	OpenTime                string        `json:"open_time"`
	CloseTime               string        `json:"close_time"`
	Breaks                  []BreakWindow `json:"breaks"`
	Holidays                []string      `json:"holidays"`
	AllowBookingDuringBreak bool          `json:"allow_booking_during_break"`
}

type Shop struct {
	Base
	Name         string           `db:"name" json:"name"`
	Availability ShopAvailability `db:"-" json:"availability"`
}

type Staff struct {
	Base
	ShopID      uuid.UUID `db:"shop_id" json:"shop_id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Active      bool      `db:"active" json:"active"`
}

// Service is a bookable offering. BufferMinutes adds cleanup time after
// each slot before the next one may start.
type Service struct {
	Base
	ShopID          uuid.UUID `db:"shop_id" json:"shop_id"`
	Name            string    `db:"name" json:"name"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	BufferMinutes   int       `db:"buffer_minutes" json:"buffer_minutes"`
	PriceCents      int64     `db:"price_cents" json:"price_cents"`
	Currency        string    `db:"currency" json:"currency"`
}

type Customer struct {
	Base
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
}

// DateLayout and ClockLayout are the wire formats for slot dates and
// local clock times.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// ParseClock parses a "15:04" value into minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes since midnight as "15:04".
func FormatClock(minutes int) string {
	return time.Date(0, 1, 1, minutes/60, minutes%60, 0, 0, time.UTC).Format(ClockLayout)
}
