package entities

// ReservationRequest is the body of create and update calls.
// ID and Status are accepted so that the service can reject or ignore them explicitly.
type ReservationRequest struct {
	ID     int64             `json:"id,omitempty"`
	UserID int64             `json:"userId"`
	RoomID int64             `json:"roomId"`
	Start  Date              `json:"start"`
	End    Date              `json:"end"`
	Status ReservationStatus `json:"status,omitempty"`
}
