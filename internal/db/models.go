package db

import "reservationsystem/internal/entities"

// Reservation is a row of the reservations table.
// created_at and updated_at are maintained by the database and not read back.
type Reservation struct {
	ID        int64
	UserID    int64
	RoomID    int64
	StartDate entities.Date
	EndDate   entities.Date
	Status    entities.ReservationStatus
}
