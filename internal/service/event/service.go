package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/trimtime/booking-api/internal/model"
	"github.com/trimtime/booking-api/internal/repository"
)

// Service records slot events in the outbox. The worker's outbox
// processor later publishes them to the shop's calendar channel, which
// gives at-least-once delivery without a dual write.
type Service struct {
	outboxRepo repository.OutboxRepository
}

func NewService(outboxRepo repository.OutboxRepository) *Service {
	return &Service{outboxRepo: outboxRepo}
}

// ShopChannel is the pub/sub channel carrying a shop's slot events.
func ShopChannel(shopID string) string {
	return fmt.Sprintf("shop.%s.slots", shopID)
}

// EmitSlotEvent enqueues a slot.claimed or slot.released event for all
// viewers of the shop's calendar.
func (s *Service) EmitSlotEvent(ctx context.Context, eventType string, apt *model.Appointment, newStatus model.SlotStatus) error {
	payload, err := json.Marshal(model.SlotEvent{
		ShopID:    apt.ShopID,
		StaffID:   apt.StaffID,
		Date:      apt.SlotDate.String(),
		StartTime: apt.StartTime,
		NewStatus: newStatus,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal slot event: %w", err)
	}

	return s.outboxRepo.Create(ctx, &model.OutboxEvent{
		EventType: eventType,
		Channel:   ShopChannel(apt.ShopID.String()),
		Payload:   payload,
	})
}
