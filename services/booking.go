package services

import (
	"crypto/rand"
	"time"

	"golang.org/x/exp/slices"

	"kitaspaces-server/models"
)

// ReservationStore persists reservations. Transact must serialize
// concurrent writers on the same room (the gorm store takes a row lock
// on the room) so that list-check-insert composes into one atomic unit;
// VoidPayment exists on the store so the cancel side effect can ride the
// same transaction.
type ReservationStore interface {
	ListActive(roomID uint, date time.Time) ([]models.Reservation, error)
	Get(id uint) (*models.Reservation, error)
	Insert(r *models.Reservation) error
	Update(r *models.Reservation) error
	Delete(id uint) error
	VoidPayment(paymentID uint) error
	Transact(roomID uint, fn func(tx ReservationStore) error) error
}

// RoomCatalog resolves rooms. Read-only to the booking engine.
type RoomCatalog interface {
	GetRoom(id uint) (*models.Room, error)
}

// CheckConflict validates a proposed [start, end) interval (minutes since
// midnight) against the given reservations, skipping cancelled rows and
// the reservation being edited. Returns nil or the first conflict.
func CheckConflict(reservations []models.Reservation, start, end int, excludeID uint) *ConflictError {
	for _, r := range reservations {
		if excludeID != 0 && r.ID == excludeID {
			continue
		}
		rs, re, ok := activeInterval(r)
		if !ok {
			continue
		}
		if start < re && rs < end {
			return &ConflictError{ReservationID: r.ID}
		}
	}
	return nil
}

// allowedTransitions is the reservation state machine. Missing keys
// (completed, cancelled, no_show) are terminal.
var allowedTransitions = map[string][]string{
	models.ReservationStatusPending:   {models.ReservationStatusConfirmed, models.ReservationStatusCancelled},
	models.ReservationStatusConfirmed: {models.ReservationStatusCompleted, models.ReservationStatusCancelled, models.ReservationStatusNoShow},
}

func isTerminalStatus(status string) bool {
	_, ok := allowedTransitions[status]
	return !ok
}

// BookingService owns reservation creation, rescheduling, status
// transitions and deletion. All writes go through Store.Transact so the
// conflict check always runs against the current active set.
type BookingService struct {
	Store  ReservationStore
	Rooms  RoomCatalog
	Config ScheduleConfig
}

func NewBookingService(store ReservationStore, rooms RoomCatalog, cfg ScheduleConfig) *BookingService {
	return &BookingService{Store: store, Rooms: rooms, Config: cfg}
}

type CreateBookingInput struct {
	RoomID        uint
	Date          time.Time
	StartTime     string // "10:00"
	DurationHours int
	SourceKind    string // member, customer
	UserID        *uint
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Attendees     int
	Purpose       string
	Discount      float64 // already-computed coupon/perk discount
	PaymentID     *uint

	// Policy flags. DirectConfirm is the admin/perk variant that enters
	// the state machine at confirmed because payment is settled
	// out-of-band. AllowPastDate relaxes only the date >= today check.
	DirectConfirm bool
	AllowPastDate bool
}

type CreateBookingResult struct {
	Reservation     *models.Reservation
	CapacityWarning string
}

func (s *BookingService) Create(input CreateBookingInput) (*CreateBookingResult, error) {
	room, err := s.Rooms.GetRoom(input.RoomID)
	if err != nil {
		return nil, err
	}
	if room.IsActive == nil || !*room.IsActive {
		return nil, ErrRoomInactive
	}

	start, end, err := s.boundedInterval(room, input.StartTime, input.DurationHours)
	if err != nil {
		return nil, err
	}

	date := normalizeDate(input.Date)
	if !input.AllowPastDate && date.Before(normalizeDate(time.Now())) {
		return nil, ErrPastDate
	}

	warning := ""
	if input.Attendees > room.Capacity && room.Capacity > 0 {
		if s.Config.EnforceCapacity {
			return nil, ErrRoomCapacity
		}
		warning = "attendee count exceeds room capacity"
	}

	amount := room.HourlyRate*float64(input.DurationHours) - input.Discount
	if amount < 0 {
		amount = 0
	}

	status := models.ReservationStatusPending
	if input.DirectConfirm {
		status = models.ReservationStatusConfirmed
	}

	reservation := &models.Reservation{
		RoomID:            input.RoomID,
		Date:              date,
		StartTime:         FormatClock(start),
		EndTime:           FormatClock(end),
		Duration:          input.DurationHours,
		Status:            status,
		SourceKind:        input.SourceKind,
		UserID:            input.UserID,
		CustomerName:      input.CustomerName,
		CustomerEmail:     input.CustomerEmail,
		CustomerPhone:     input.CustomerPhone,
		NumberOfAttendees: input.Attendees,
		Purpose:           input.Purpose,
		TotalAmount:       amount,
		PaymentID:         input.PaymentID,
		ReferenceCode:     newReferenceCode(),
	}

	// The conflict check and the insert share one transaction; of two
	// racing writers only the first sees the room unlocked, the second
	// re-reads after commit and gets the conflict.
	err = s.Store.Transact(input.RoomID, func(tx ReservationStore) error {
		active, err := tx.ListActive(input.RoomID, date)
		if err != nil {
			return err
		}
		if conflict := CheckConflict(active, start, end, 0); conflict != nil {
			return conflict
		}
		return tx.Insert(reservation)
	})
	if err != nil {
		return nil, err
	}

	return &CreateBookingResult{Reservation: reservation, CapacityWarning: warning}, nil
}

// Reschedule moves an existing reservation to a new date/interval. The
// conflict check excludes the reservation itself, so re-submitting the
// current interval succeeds. Status never changes here. The terminal
// check re-runs on a fresh read under the room lock so a concurrent
// transition cannot be overwritten by a stale snapshot.
func (s *BookingService) Reschedule(id uint, date time.Time, startTime string, durationHours int) (*models.Reservation, error) {
	reservation, err := s.Store.Get(id)
	if err != nil {
		return nil, err
	}

	room, err := s.Rooms.GetRoom(reservation.RoomID)
	if err != nil {
		return nil, err
	}

	start, end, err := s.boundedInterval(room, startTime, durationHours)
	if err != nil {
		return nil, err
	}
	date = normalizeDate(date)

	err = s.Store.Transact(reservation.RoomID, func(tx ReservationStore) error {
		current, err := tx.Get(id)
		if err != nil {
			return err
		}
		if isTerminalStatus(current.Status) {
			return ErrReservationClosed
		}

		active, err := tx.ListActive(current.RoomID, date)
		if err != nil {
			return err
		}
		if conflict := CheckConflict(active, start, end, current.ID); conflict != nil {
			return conflict
		}

		current.Date = date
		current.StartTime = FormatClock(start)
		current.EndTime = FormatClock(end)
		current.Duration = durationHours
		current.TotalAmount = room.HourlyRate * float64(durationHours)
		reservation = current
		return tx.Update(current)
	})
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

// SetStatus applies one state-machine transition. The transition check
// runs on a fresh read under the room lock, so of two racing
// transitions from the same state exactly one wins and a terminal
// status is never overwritten. Cancelling voids the linked payment
// inside the same transaction; if the void fails the status change
// rolls back with it.
func (s *BookingService) SetStatus(id uint, newStatus, reason string) (*models.Reservation, error) {
	return s.transition(id, newStatus, func(r *models.Reservation, tx ReservationStore) error {
		if newStatus == models.ReservationStatusCancelled {
			r.CancelReason = reason
			if r.PaymentID != nil {
				return tx.VoidPayment(*r.PaymentID)
			}
		}
		return nil
	})
}

// transition re-reads the reservation inside the room transaction,
// validates newStatus against the current state, applies the mutation
// and writes once.
func (s *BookingService) transition(id uint, newStatus string, mutate func(r *models.Reservation, tx ReservationStore) error) (*models.Reservation, error) {
	reservation, err := s.Store.Get(id)
	if err != nil {
		return nil, err
	}

	err = s.Store.Transact(reservation.RoomID, func(tx ReservationStore) error {
		current, err := tx.Get(id)
		if err != nil {
			return err
		}
		if !slices.Contains(allowedTransitions[current.Status], newStatus) {
			return &InvalidTransitionError{From: current.Status, To: newStatus}
		}

		current.Status = newStatus
		if err := mutate(current, tx); err != nil {
			return err
		}
		reservation = current
		return tx.Update(current)
	})
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

// CheckIn stamps arrival on a confirmed reservation.
func (s *BookingService) CheckIn(id uint) (*models.Reservation, error) {
	reservation, err := s.Store.Get(id)
	if err != nil {
		return nil, err
	}

	err = s.Store.Transact(reservation.RoomID, func(tx ReservationStore) error {
		current, err := tx.Get(id)
		if err != nil {
			return err
		}
		if current.Status != models.ReservationStatusConfirmed {
			return &InvalidTransitionError{From: current.Status, To: current.Status}
		}
		now := time.Now()
		current.CheckedInAt = &now
		reservation = current
		return tx.Update(current)
	})
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

// CheckOut stamps departure and completes the reservation in a single
// write, so the status and the timestamp can never disagree.
func (s *BookingService) CheckOut(id uint) (*models.Reservation, error) {
	return s.transition(id, models.ReservationStatusCompleted, func(r *models.Reservation, tx ReservationStore) error {
		now := time.Now()
		r.CheckedOutAt = &now
		return nil
	})
}

// Delete permanently removes a reservation. Only cancelled rows may go.
func (s *BookingService) Delete(id uint) error {
	reservation, err := s.Store.Get(id)
	if err != nil {
		return err
	}
	if reservation.Status != models.ReservationStatusCancelled {
		return ErrInvalidDeleteState
	}
	return s.Store.Delete(id)
}

// boundedInterval validates the duration and fits [start, end) inside the
// room's operating window.
func (s *BookingService) boundedInterval(room *models.Room, startTime string, durationHours int) (int, int, error) {
	if durationHours < 1 || durationHours > s.Config.MaxDurationHours {
		return 0, 0, ErrInvalidDuration
	}
	start, err := ParseClock(startTime)
	if err != nil {
		return 0, 0, ErrOutOfOperatingHours
	}
	open, err := ParseClock(room.OpenTime)
	if err != nil {
		return 0, 0, ErrOutOfOperatingHours
	}
	closeAt, err := ParseClock(room.CloseTime)
	if err != nil {
		return 0, 0, ErrOutOfOperatingHours
	}
	end := start + durationHours*60
	if start < open || end > closeAt {
		return 0, 0, ErrOutOfOperatingHours
	}
	return start, end, nil
}

func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

const referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newReferenceCode returns a human-readable booking reference like
// RSV-7K2MQ4XN.
func newReferenceCode() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "RSV-00000000"
	}
	out := make([]byte, 8)
	for i, v := range b {
		out[i] = referenceAlphabet[int(v)%len(referenceAlphabet)]
	}
	return "RSV-" + string(out)
}
