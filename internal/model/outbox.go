package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusRetry     OutboxStatus = "retry"
	OutboxStatusProcessed OutboxStatus = "processed"
	OutboxStatusFailed    OutboxStatus = "failed"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Channel      string          `db:"channel" json:"channel"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	RetryAt      *time.Time      `db:"retry_at" json:"retry_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// Slot event types published to calendar viewers.
const (
	EventSlotClaimed  = "slot.claimed"
	EventSlotReleased = "slot.released"
)

// SlotEvent is the payload for slot.claimed / slot.released. Consumers
// treat it as an invalidation hint and re-derive authoritative status.
type SlotEvent struct {
	ShopID    uuid.UUID  `json:"shop_id"`
	StaffID   uuid.UUID  `json:"staff_id"`
	Date      string     `json:"date"`
	StartTime string     `json:"start_time"`
	NewStatus SlotStatus `json:"new_status"`
}
