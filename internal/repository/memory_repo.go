package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"reservationsystem/internal/db"
	"reservationsystem/internal/entities"
)

// MemoryReservationRepository keeps reservations in a map. Used by tests and STORE_DRIVER=memory.
type MemoryReservationRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]db.Reservation
}

func NewMemoryReservationRepository() *MemoryReservationRepository {
	return &MemoryReservationRepository{rows: make(map[int64]db.Reservation)}
}

func (r *MemoryReservationRepository) Get(ctx context.Context, id int64) (db.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return db.Reservation{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.rows[id]
	if !ok {
		return db.Reservation{}, fmt.Errorf("reservation %d: %w", id, ErrNotFound)
	}
	return res, nil
}

func (r *MemoryReservationRepository) List(ctx context.Context) ([]db.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	reservations := make([]db.Reservation, 0, len(r.rows))
	for _, res := range r.rows {
		reservations = append(reservations, res)
	}
	sort.Slice(reservations, func(i, j int) bool { return reservations[i].ID < reservations[j].ID })
	return reservations, nil
}

func (r *MemoryReservationRepository) Save(ctx context.Context, res db.Reservation) (db.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return db.Reservation{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if res.ID == 0 {
		r.nextID++
		res.ID = r.nextID
	} else if _, ok := r.rows[res.ID]; !ok {
		return db.Reservation{}, fmt.Errorf("reservation %d: %w", res.ID, ErrNotFound)
	}
	r.rows[res.ID] = res
	return res, nil
}

func (r *MemoryReservationRepository) SetStatus(ctx context.Context, id int64, status entities.ReservationStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !status.Valid() {
		return fmt.Errorf("reservation %d: invalid status %q", id, status)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("reservation %d: %w", id, ErrNotFound)
	}
	res.Status = status
	r.rows[id] = res
	return nil
}

func (r *MemoryReservationRepository) CompareAndSetStatus(ctx context.Context, id int64, from, to entities.ReservationStatus) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !to.Valid() {
		return false, fmt.Errorf("reservation %d: invalid status %q", id, to)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.rows[id]
	if !ok || res.Status != from {
		return false, nil
	}
	res.Status = to
	r.rows[id] = res
	return true, nil
}

func (r *MemoryReservationRepository) Exists(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rows[id]
	return ok, nil
}

// Close is a no-op; it lets the memory store stand in wherever a closable store is expected.
func (r *MemoryReservationRepository) Close() error {
	return nil
}

func (r *MemoryReservationRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}
