package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"reservationsystem/internal/db"
	"reservationsystem/internal/entities"
	apperrors "reservationsystem/internal/errors"
	"reservationsystem/internal/repository"
)

// Options tunes the reservation rules.
type Options struct {
	// StrictConflicts limits the approval conflict check to approved reservations of the same room.
	StrictConflicts bool
	// SerializeApprovals runs approvals one at a time, per room when StrictConflicts is set.
	SerializeApprovals bool
	// RejectPastDates refuses start or end dates before today.
	RejectPastDates bool
	// Now is the clock used for RejectPastDates. Defaults to time.Now.
	Now func() time.Time
}

// ReservationService enforces the reservation lifecycle on top of a ReservationStore.
// It holds no reservation state and is safe for concurrent use.
type ReservationService struct {
	Repo      repository.ReservationStore
	logger    *zap.Logger
	opts      Options
	approvals *keyedMutex
}

func NewReservationService(repo repository.ReservationStore, logger *zap.Logger, opts Options) *ReservationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ReservationService{
		Repo:      repo,
		logger:    logger.Named("reservations"),
		opts:      opts,
		approvals: newKeyedMutex(),
	}
}

func (s *ReservationService) GetReservationByID(ctx context.Context, id int64) (entities.Reservation, error) {
	res, err := s.find(ctx, id)
	if err != nil {
		return entities.Reservation{}, err
	}
	return toDomainReservation(res), nil
}

func (s *ReservationService) GetAllReservations(ctx context.Context) ([]entities.Reservation, error) {
	rows, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	reservations := make([]entities.Reservation, 0, len(rows))
	for _, row := range rows {
		reservations = append(reservations, toDomainReservation(row))
	}
	return reservations, nil
}

func (s *ReservationService) Exists(ctx context.Context, id int64) (bool, error) {
	ok, err := s.Repo.Exists(ctx, id)
	if err != nil {
		return false, fmt.Errorf("check reservation %d: %w", id, err)
	}
	return ok, nil
}

func (s *ReservationService) CreateReservation(ctx context.Context, req entities.ReservationRequest) (entities.Reservation, error) {
	if req.Status != "" {
		return entities.Reservation{}, apperrors.InvalidInput("Reservation status must be null.")
	}
	if err := s.validateRequest(req); err != nil {
		return entities.Reservation{}, err
	}
	if req.ID != 0 {
		s.logger.Debug("ignoring client supplied id on create", zap.Int64("requested_id", req.ID))
	}

	saved, err := s.Repo.Save(ctx, db.Reservation{
		UserID:    req.UserID,
		RoomID:    req.RoomID,
		StartDate: req.Start,
		EndDate:   req.End,
		Status:    entities.StatusPending,
	})
	if err != nil {
		return entities.Reservation{}, fmt.Errorf("create reservation: %w", err)
	}
	s.logger.Info("reservation created",
		zap.Int64("reservation_id", saved.ID),
		zap.Int64("room_id", saved.RoomID),
		zap.Stringer("start", saved.StartDate),
		zap.Stringer("end", saved.EndDate),
	)
	return toDomainReservation(saved), nil
}

// UpdateReservation replaces the mutable fields of a pending reservation.
// The date range of req itself must be valid; the status in req is ignored.
func (s *ReservationService) UpdateReservation(ctx context.Context, id int64, req entities.ReservationRequest) (entities.Reservation, error) {
	existing, err := s.find(ctx, id)
	if err != nil {
		return entities.Reservation{}, err
	}
	status, err := nextStatus(opUpdate, existing.Status)
	if err != nil {
		return entities.Reservation{}, err
	}
	if err := s.validateRequest(req); err != nil {
		return entities.Reservation{}, err
	}

	updated, err := s.save(ctx, db.Reservation{
		ID:        existing.ID,
		UserID:    req.UserID,
		RoomID:    req.RoomID,
		StartDate: req.Start,
		EndDate:   req.End,
		Status:    status,
	})
	if err != nil {
		return entities.Reservation{}, err
	}
	s.logger.Info("reservation updated", zap.Int64("reservation_id", id))
	return toDomainReservation(updated), nil
}

func (s *ReservationService) CancelReservation(ctx context.Context, id int64) error {
	s.logger.Info("cancel reservation called", zap.Int64("reservation_id", id))
	existing, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	status, err := nextStatus(opCancel, existing.Status)
	if err != nil {
		return err
	}
	if err := s.Repo.SetStatus(ctx, id, status); err != nil {
		return s.storeError(id, "cancel", err)
	}
	s.logger.Info("reservation cancelled", zap.Int64("reservation_id", id))
	return nil
}

func (s *ReservationService) ApproveReservation(ctx context.Context, id int64) (entities.Reservation, error) {
	res, err := s.find(ctx, id)
	if err != nil {
		return entities.Reservation{}, err
	}
	if s.opts.SerializeApprovals {
		var unlock func()
		if res, unlock, err = s.lockApproval(ctx, res); err != nil {
			return entities.Reservation{}, err
		}
		defer unlock()
	}

	status, err := nextStatus(opApprove, res.Status)
	if err != nil {
		return entities.Reservation{}, err
	}
	others, err := s.Repo.List(ctx)
	if err != nil {
		return entities.Reservation{}, fmt.Errorf("list reservations for conflict check: %w", err)
	}
	if conflicts(res, others, s.opts.StrictConflicts) {
		s.logger.Info("reservation approval rejected by conflict", zap.Int64("reservation_id", id))
		return entities.Reservation{}, apperrors.InvalidState(
			"Reservation cannot be approved. It has conflicts with other reservations.")
	}

	res.Status = status
	approved, err := s.save(ctx, res)
	if err != nil {
		return entities.Reservation{}, err
	}
	s.logger.Info("reservation approved", zap.Int64("reservation_id", id), zap.Int64("room_id", res.RoomID))
	return toDomainReservation(approved), nil
}

// lockApproval takes the approval lock for res and returns the record as read under it.
// An update may move the reservation to another room while we wait, so the key is
// checked again after reading and the lock retaken when it changed.
func (s *ReservationService) lockApproval(ctx context.Context, res db.Reservation) (db.Reservation, func(), error) {
	for {
		key := s.approvalKey(res)
		unlock := s.approvals.Lock(key)
		current, err := s.find(ctx, res.ID)
		if err != nil {
			unlock()
			return db.Reservation{}, nil, err
		}
		if s.approvalKey(current) == key {
			return current, unlock, nil
		}
		unlock()
		res = current
	}
}

func (s *ReservationService) approvalKey(res db.Reservation) int64 {
	if s.opts.StrictConflicts {
		return res.RoomID
	}
	return 0
}

func (s *ReservationService) validateRequest(req entities.ReservationRequest) error {
	switch {
	case req.UserID == 0:
		return apperrors.InvalidInput("Reservation userId must not be null.")
	case req.RoomID == 0:
		return apperrors.InvalidInput("Reservation roomId must not be null.")
	case req.Start.IsZero():
		return apperrors.InvalidInput("Reservation start date must not be null.")
	case req.End.IsZero():
		return apperrors.InvalidInput("Reservation end date must not be null.")
	case !req.End.After(req.Start):
		return apperrors.InvalidInput("Reservation end date must be after start date.")
	}
	if s.opts.RejectPastDates {
		today := entities.DateOf(s.opts.Now())
		if req.Start.Before(today) || req.End.Before(today) {
			return apperrors.InvalidInput("Reservation dates must be today or in the future.")
		}
	}
	return nil
}

func (s *ReservationService) find(ctx context.Context, id int64) (db.Reservation, error) {
	res, err := s.Repo.Get(ctx, id)
	if err != nil {
		return db.Reservation{}, s.storeError(id, "get", err)
	}
	return res, nil
}

func (s *ReservationService) save(ctx context.Context, res db.Reservation) (db.Reservation, error) {
	saved, err := s.Repo.Save(ctx, res)
	if err != nil {
		return db.Reservation{}, s.storeError(res.ID, "save", err)
	}
	return saved, nil
}

func (s *ReservationService) storeError(id int64, op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("Reservation with id %d not found.", id)
	}
	return apperrors.Wrap(apperrors.KindUnknown, err, fmt.Sprintf("%s reservation %d", op, id))
}

func toDomainReservation(res db.Reservation) entities.Reservation {
	return entities.Reservation{
		ID:     res.ID,
		UserID: res.UserID,
		RoomID: res.RoomID,
		Start:  res.StartDate,
		End:    res.EndDate,
		Status: res.Status,
	}
}
