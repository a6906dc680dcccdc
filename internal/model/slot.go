package model

import (
	"fmt"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusBooked    SlotStatus = "booked"
	SlotStatusBreak     SlotStatus = "break"
	SlotStatusHoliday   SlotStatus = "holiday"
	SlotStatusPast      SlotStatus = "past"
)

// SlotKey is the identity tuple of a bookable slot. Two slots with the
// same key are the same slot.
type SlotKey struct {
	ShopID    uuid.UUID `json:"shop_id"`
	StaffID   uuid.UUID `json:"staff_id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", k.ShopID, k.StaffID, k.Date, k.StartTime)
}

// Slot is derived, never persisted. Index is the generation order per
// staff/day, significant for display only.
type Slot struct {
	SlotKey
	EndTime string     `json:"end_time"`
	Index   int        `json:"index"`
	Status  SlotStatus `json:"status"`
}
