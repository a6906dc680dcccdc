package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/trimtime/booking-api/internal/repository"
	"github.com/trimtime/booking-api/internal/service/booking"
	"github.com/trimtime/booking-api/pkg/logger"
)

// HoldSweeper releases pending holds whose payment confirmation never
// arrived within the hold TTL. It is the workflow's backstop: without
// it an abandoned checkout would occupy a slot forever.
type HoldSweeper struct {
	ledger    repository.LedgerRepository
	bookings  *booking.Service
	interval  time.Duration
	batchSize int
	logger    *logger.Logger
}

func NewHoldSweeper(ledger repository.LedgerRepository, bookings *booking.Service, interval time.Duration, batchSize int, logger *logger.Logger) *HoldSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &HoldSweeper{
		ledger:    ledger,
		bookings:  bookings,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

func (w *HoldSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("starting hold sweeper", "interval", w.interval.String())

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("shutting down hold sweeper")
			return
		case <-ticker.C:
			if err := w.Sweep(ctx); err != nil {
				w.logger.Error(err, "hold sweep failed")
			}
		}
	}
}

// Sweep releases one batch of expired holds. A release losing a race
// with a concurrent cancel or confirmation is harmless: release is
// idempotent and confirmation of a released hold escalates on its own.
func (w *HoldSweeper) Sweep(ctx context.Context) error {
	expired, err := w.ledger.ExpiredHolds(ctx, w.bookings.HoldCutoff(), w.batchSize)
	if err != nil {
		return fmt.Errorf("failed to list expired holds: %w", err)
	}

	for _, apt := range expired {
		if err := w.bookings.ReleaseExpiredHold(ctx, apt); err != nil {
			w.logger.Error(err, "failed to release expired hold", "appointment_id", apt.ID.String())
			continue
		}
		w.logger.Info("released expired hold",
			"appointment_id", apt.ID.String(),
			"slot", apt.SlotDate.String()+" "+apt.StartTime,
		)
	}
	return nil
}
