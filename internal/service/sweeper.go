package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tutor-service/internal/engine"
	"tutor-service/internal/models"
	"tutor-service/internal/notify"
	"tutor-service/pkg/response"
	"tutor-service/pkg/sl"
)

// ExpirePendingBookings declines pending bookings that have outlived the
// pending TTL. Each candidate is applied with a status-guarded update, so a
// booking confirmed between the scan and the sweep is left alone.
func (s *Service) ExpirePendingBookings(ctx context.Context) (int, error) {
	const op = "service.ExpirePendingBookings"

	pending, err := s.store.ListPendingBookings(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	byID := make(map[string]*models.Booking, len(pending))
	for _, booking := range pending {
		byID[booking.ID] = booking
	}

	expired := engine.ExpirePending(pending, s.now(), s.pendingTTL)

	declined := 0
	for _, id := range expired {
		err := s.store.UpdateBookingStatusIf(ctx, id, models.BookingPending, models.BookingDeclined)
		if err != nil {
			// Lost the race to a confirm or decline; nothing to do.
			if errors.Is(err, response.ErrConflict) || errors.Is(err, response.ErrNotFound) {
				continue
			}
			return declined, fmt.Errorf("%s: %w", op, err)
		}

		declined++

		booking := byID[id]
		booking.Status = models.BookingDeclined
		s.publish(ctx, booking, notify.ReasonExpired)
	}

	return declined, nil
}

// RunPendingSweeper periodically expires stale pending bookings until the
// context is cancelled.
func (s *Service) RunPendingSweeper(ctx context.Context, log *slog.Logger, interval time.Duration) {
	log = log.With(slog.String("component", "service/sweeper"))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("Pending sweeper started", slog.String("interval", interval.String()))

	for {
		select {
		case <-ctx.Done():
			log.Info("Pending sweeper stopped")
			return
		case <-ticker.C:
			n, err := s.ExpirePendingBookings(ctx)
			if err != nil {
				log.Error("Sweep failed", sl.Err(err))
				continue
			}
			if n > 0 {
				log.Info("Expired pending bookings", slog.Int("count", n))
			}
		}
	}
}
