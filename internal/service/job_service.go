package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"reservationsystem/internal/db"
	"reservationsystem/internal/entities"
	"reservationsystem/internal/repository"
)

type JobService struct {
	Repo   repository.ReservationStore
	logger *zap.Logger
	now    func() time.Time
}

func NewJobService(repo repository.ReservationStore, logger *zap.Logger, now func() time.Time) *JobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &JobService{Repo: repo, logger: logger.Named("jobs"), now: now}
}

// CancelExpiredPending cancels pending reservations whose start date has already passed
// and returns how many were cancelled.
func (s *JobService) CancelExpiredPending(ctx context.Context) (int, error) {
	s.logger.Info("checking for expired pending reservations")

	reservations, err := s.Repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("cron job: failed to list reservations: %w", err)
	}

	today := entities.DateOf(s.now())
	var expired []db.Reservation
	for _, res := range reservations {
		if _, err := nextStatus(opCancel, res.Status); err != nil {
			continue
		}
		if res.StartDate.Before(today) {
			expired = append(expired, res)
		}
	}
	if len(expired) == 0 {
		s.logger.Info("no expired pending reservations found")
		return 0, nil
	}

	var cancelled []int64
	for _, res := range expired {
		to, _ := nextStatus(opCancel, res.Status)
		// The record may have been approved or cancelled since the listing.
		ok, err := s.Repo.CompareAndSetStatus(ctx, res.ID, res.Status, to)
		if err != nil {
			return len(cancelled), fmt.Errorf("cron job: failed to cancel reservation %d: %w", res.ID, err)
		}
		if !ok {
			s.logger.Debug("reservation no longer pending, skipped", zap.Int64("reservation_id", res.ID))
			continue
		}
		cancelled = append(cancelled, res.ID)
	}
	s.logger.Info("expired pending reservations cancelled", zap.Int("count", len(cancelled)), zap.Int64s("ids", cancelled))
	return len(cancelled), nil
}
