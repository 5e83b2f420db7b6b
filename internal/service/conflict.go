package service

import (
	"reservationsystem/internal/db"
	"reservationsystem/internal/entities"
)

// overlaps reports whether found collides with candidate's date range. A range
// ending on the day another starts does not collide; equal start dates or equal
// end dates always do.
func overlaps(candidate, found db.Reservation) bool {
	cs, ce := candidate.StartDate, candidate.EndDate
	fs, fe := found.StartDate, found.EndDate

	return fe.After(cs) && fe.Before(ce) ||
		fs.After(cs) && fs.Before(ce) ||
		fs.Before(cs) && fe.After(ce) ||
		fs.Equal(cs) ||
		fe.Equal(ce)
}

// conflicts reports whether candidate collides with any record in others other than itself.
// Unless strict is set every other record counts, whatever its room or status.
func conflicts(candidate db.Reservation, others []db.Reservation, strict bool) bool {
	for _, found := range others {
		if found.ID == candidate.ID {
			continue
		}
		if strict && (found.RoomID != candidate.RoomID || found.Status != entities.StatusApproved) {
			continue
		}
		if overlaps(candidate, found) {
			return true
		}
	}
	return false
}
