package entities

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusApproved  ReservationStatus = "APPROVED"
	StatusCancelled ReservationStatus = "CANCELLED"
)

// Valid reports whether s is one of the known statuses.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusCancelled:
		return true
	}
	return false
}

// Reservation is the domain record exchanged with callers.
type Reservation struct {
	ID     int64             `json:"id,omitempty"`
	UserID int64             `json:"userId"`
	RoomID int64             `json:"roomId"`
	Start  Date              `json:"start"`
	End    Date              `json:"end"`
	Status ReservationStatus `json:"status,omitempty"`
}
