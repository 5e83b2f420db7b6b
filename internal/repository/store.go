package repository

import (
	"context"
	"errors"

	"reservationsystem/internal/db"
	"reservationsystem/internal/entities"
)

// ErrNotFound is returned when no reservation has the requested id.
var ErrNotFound = errors.New("reservation not found")

// ReservationStore is keyed storage of reservation records. It knows nothing
// about lifecycle rules; every method is atomic on its own.
type ReservationStore interface {
	Get(ctx context.Context, id int64) (db.Reservation, error)
	List(ctx context.Context) ([]db.Reservation, error)
	// Save inserts when res.ID is zero and overwrites the record with res.ID otherwise.
	Save(ctx context.Context, res db.Reservation) (db.Reservation, error)
	SetStatus(ctx context.Context, id int64, status entities.ReservationStatus) error
	// CompareAndSetStatus sets status to to only while the stored status is from.
	// It reports false when the record is missing or has moved on.
	CompareAndSetStatus(ctx context.Context, id int64, from, to entities.ReservationStatus) (bool, error)
	Exists(ctx context.Context, id int64) (bool, error)
}
