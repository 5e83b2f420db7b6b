package service

import (
	"reservationsystem/internal/entities"
	apperrors "reservationsystem/internal/errors"
)

type operation string

const (
	opUpdate  operation = "modified"
	opCancel  operation = "cancelled"
	opApprove operation = "approved"
)

type transition struct {
	from []entities.ReservationStatus
	to   entities.ReservationStatus
}

// transitions is the lifecycle graph. Every status-changing operation is checked against it.
var transitions = map[operation]transition{
	opUpdate:  {from: []entities.ReservationStatus{entities.StatusPending}, to: entities.StatusPending},
	opCancel:  {from: []entities.ReservationStatus{entities.StatusPending}, to: entities.StatusCancelled},
	opApprove: {from: []entities.ReservationStatus{entities.StatusPending}, to: entities.StatusApproved},
}

// nextStatus returns the status op moves a reservation to, or an InvalidState error
// when op is not legal from current.
func nextStatus(op operation, current entities.ReservationStatus) (entities.ReservationStatus, error) {
	t := transitions[op]
	for _, from := range t.from {
		if from == current {
			return t.to, nil
		}
	}
	return "", apperrors.InvalidState(
		"Reservation cannot be %s. Status must be %s, but found %s", op, entities.StatusPending, current)
}
