package services

import (
	"errors"
	"fmt"
)

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomInactive        = errors.New("room is not active")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrOutOfOperatingHours = errors.New("requested interval is outside the room's operating hours")
	ErrInvalidDuration     = errors.New("invalid booking duration")
	ErrPastDate            = errors.New("booking date is in the past")
	ErrRoomCapacity        = errors.New("attendee count exceeds room capacity")
	ErrInvalidDeleteState  = errors.New("only cancelled reservations can be deleted")
	ErrReservationClosed   = errors.New("reservation is in a terminal status")
)

// ConflictError reports an overlap with an existing active reservation.
type ConflictError struct {
	ReservationID uint
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("interval overlaps active reservation %d", e.ReservationID)
}

// InvalidTransitionError reports a status change the state machine does
// not allow.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition reservation from %s to %s", e.From, e.To)
}
