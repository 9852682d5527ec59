package services

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"kitaspaces-server/models"
)

// fakeStore is an in-memory ReservationStore. Transact takes a single
// lock, which is enough to mirror the per-room row lock the gorm store
// uses.
type fakeStore struct {
	mu           sync.Mutex
	nextID       uint
	reservations map[uint]*models.Reservation
	payments     map[uint]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:       1,
		reservations: make(map[uint]*models.Reservation),
		payments:     make(map[uint]string),
	}
}

func (f *fakeStore) ListActive(roomID uint, date time.Time) ([]models.Reservation, error) {
	var out []models.Reservation
	for _, r := range f.reservations {
		if r.RoomID == roomID && r.Date.Equal(date) && r.Status != models.ReservationStatusCancelled {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) Get(id uint) (*models.Reservation, error) {
	r, ok := f.reservations[id]
	if !ok {
		return nil, ErrReservationNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStore) Insert(r *models.Reservation) error {
	r.ID = f.nextID
	f.nextID++
	cp := *r
	f.reservations[r.ID] = &cp
	return nil
}

func (f *fakeStore) Update(r *models.Reservation) error {
	if _, ok := f.reservations[r.ID]; !ok {
		return ErrReservationNotFound
	}
	cp := *r
	f.reservations[r.ID] = &cp
	return nil
}

func (f *fakeStore) Delete(id uint) error {
	if _, ok := f.reservations[id]; !ok {
		return ErrReservationNotFound
	}
	delete(f.reservations, id)
	return nil
}

func (f *fakeStore) VoidPayment(paymentID uint) error {
	f.payments[paymentID] = models.PaymentStatusVoided
	return nil
}

func (f *fakeStore) Transact(roomID uint, fn func(tx ReservationStore) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(f)
}

type fakeCatalog struct {
	rooms map[uint]*models.Room
}

func (f *fakeCatalog) GetRoom(id uint) (*models.Room, error) {
	room, ok := f.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func newTestService() (*BookingService, *fakeStore) {
	active := true
	room := &models.Room{
		Name:       "Boardroom",
		OpenTime:   "09:00",
		CloseTime:  "18:00",
		HourlyRate: 40,
		Capacity:   12,
		IsActive:   &active,
	}
	room.ID = 1

	inactive := false
	closedRoom := &models.Room{Name: "Storage", OpenTime: "09:00", CloseTime: "18:00", IsActive: &inactive}
	closedRoom.ID = 2

	store := newFakeStore()
	catalog := &fakeCatalog{rooms: map[uint]*models.Room{1: room, 2: closedRoom}}
	return NewBookingService(store, catalog, DefaultScheduleConfig), store
}

func tomorrow() time.Time {
	return normalizeDate(time.Now().Add(24 * time.Hour))
}

func memberInput(start string, hours int) CreateBookingInput {
	userID := uint(42)
	return CreateBookingInput{
		RoomID:        1,
		Date:          tomorrow(),
		StartTime:     start,
		DurationHours: hours,
		SourceKind:    models.SourceKindMember,
		UserID:        &userID,
		Attendees:     4,
	}
}

func TestCreateBooking(t *testing.T) {
	svc, _ := newTestService()

	result, err := svc.Create(memberInput("10:00", 2))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	r := result.Reservation
	if r.Status != models.ReservationStatusPending {
		t.Errorf("status = %s, want pending", r.Status)
	}
	if r.StartTime != "10:00" || r.EndTime != "12:00" {
		t.Errorf("interval = %s-%s, want 10:00-12:00", r.StartTime, r.EndTime)
	}
	if r.TotalAmount != 80 {
		t.Errorf("amount = %v, want 80", r.TotalAmount)
	}
	if !strings.HasPrefix(r.ReferenceCode, "RSV-") {
		t.Errorf("reference code %q missing RSV- prefix", r.ReferenceCode)
	}
}

func TestCreateBookingConflict(t *testing.T) {
	svc, _ := newTestService()

	first, err := svc.Create(memberInput("10:00", 2))
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}

	// Overlapping customer booking loses
	in := memberInput("11:00", 2)
	in.SourceKind = models.SourceKindCustomer
	in.UserID = nil
	in.CustomerName = "Walk In"
	_, err = svc.Create(in)

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.ReservationID != first.Reservation.ID {
		t.Errorf("conflict id = %d, want %d", conflict.ReservationID, first.Reservation.ID)
	}

	// Back to back is fine
	if _, err := svc.Create(memberInput("12:00", 1)); err != nil {
		t.Fatalf("adjacent Create: %v", err)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	svc, _ := newTestService()

	cases := []struct {
		name    string
		mutate  func(*CreateBookingInput)
		wantErr error
	}{
		{"before open", func(in *CreateBookingInput) { in.StartTime = "08:00" }, ErrOutOfOperatingHours},
		{"past close", func(in *CreateBookingInput) { in.StartTime = "17:00"; in.DurationHours = 2 }, ErrOutOfOperatingHours},
		{"zero hours", func(in *CreateBookingInput) { in.DurationHours = 0 }, ErrInvalidDuration},
		{"over ceiling", func(in *CreateBookingInput) { in.DurationHours = 9 }, ErrInvalidDuration},
		{"past date", func(in *CreateBookingInput) { in.Date = time.Now().AddDate(0, 0, -1) }, ErrPastDate},
		{"inactive room", func(in *CreateBookingInput) { in.RoomID = 2 }, ErrRoomInactive},
		{"missing room", func(in *CreateBookingInput) { in.RoomID = 99 }, ErrRoomNotFound},
	}
	for _, c := range cases {
		in := memberInput("10:00", 1)
		c.mutate(&in)
		if _, err := svc.Create(in); !errors.Is(err, c.wantErr) {
			t.Errorf("%s: got %v, want %v", c.name, err, c.wantErr)
		}
	}
}

func TestCreateBookingPastDateOverride(t *testing.T) {
	svc, _ := newTestService()

	in := memberInput("10:00", 1)
	in.Date = time.Now().AddDate(0, 0, -1)
	in.AllowPastDate = true
	if _, err := svc.Create(in); err != nil {
		t.Fatalf("Create with AllowPastDate: %v", err)
	}
}

func TestCreateBookingDirectConfirm(t *testing.T) {
	svc, _ := newTestService()

	in := memberInput("10:00", 1)
	in.DirectConfirm = true
	result, err := svc.Create(in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if result.Reservation.Status != models.ReservationStatusConfirmed {
		t.Errorf("status = %s, want confirmed", result.Reservation.Status)
	}
}

func TestCreateBookingCapacity(t *testing.T) {
	svc, _ := newTestService()

	in := memberInput("10:00", 1)
	in.Attendees = 20
	result, err := svc.Create(in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if result.CapacityWarning == "" {
		t.Error("expected a capacity warning for 20 attendees in a 12-seat room")
	}

	svc.Config.EnforceCapacity = true
	in.StartTime = "14:00"
	if _, err := svc.Create(in); !errors.Is(err, ErrRoomCapacity) {
		t.Errorf("enforced capacity: got %v, want ErrRoomCapacity", err)
	}
}

func TestCreateBookingDiscount(t *testing.T) {
	svc, _ := newTestService()

	in := memberInput("10:00", 2)
	in.Discount = 100 // more than the 80 total
	result, err := svc.Create(in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if result.Reservation.TotalAmount != 0 {
		t.Errorf("amount = %v, want 0 (discount clamps, never refunds)", result.Reservation.TotalAmount)
	}
}

func TestReschedule(t *testing.T) {
	svc, store := newTestService()

	first, err := svc.Create(memberInput("10:00", 2))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := first.Reservation.ID

	// Re-submitting the same interval succeeds, the check excludes self
	if _, err := svc.Reschedule(id, tomorrow(), "10:00", 2); err != nil {
		t.Fatalf("Reschedule onto self: %v", err)
	}

	// Moving onto another booking fails with that booking's id
	second, err := svc.Create(memberInput("14:00", 1))
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	_, err = svc.Reschedule(id, tomorrow(), "14:00", 1)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.ReservationID != second.Reservation.ID {
		t.Errorf("conflict id = %d, want %d", conflict.ReservationID, second.Reservation.ID)
	}

	// A clean move updates interval and amount
	moved, err := svc.Reschedule(id, tomorrow(), "15:00", 3)
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if moved.StartTime != "15:00" || moved.EndTime != "18:00" {
		t.Errorf("interval = %s-%s, want 15:00-18:00", moved.StartTime, moved.EndTime)
	}
	if moved.TotalAmount != 120 {
		t.Errorf("amount = %v, want 120", moved.TotalAmount)
	}

	// The old interval is free again
	if _, err := svc.Create(memberInput("10:00", 2)); err != nil {
		t.Fatalf("Create over vacated interval: %v", err)
	}

	// Terminal reservations cannot move
	stored := store.reservations[id]
	stored.Status = models.ReservationStatusCompleted
	if _, err := svc.Reschedule(id, tomorrow(), "09:00", 1); !errors.Is(err, ErrReservationClosed) {
		t.Errorf("got %v, want ErrReservationClosed", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	svc, store := newTestService()

	cases := []struct {
		from, to string
		ok       bool
	}{
		{models.ReservationStatusPending, models.ReservationStatusConfirmed, true},
		{models.ReservationStatusPending, models.ReservationStatusCancelled, true},
		{models.ReservationStatusPending, models.ReservationStatusCompleted, false},
		{models.ReservationStatusPending, models.ReservationStatusNoShow, false},
		{models.ReservationStatusConfirmed, models.ReservationStatusCompleted, true},
		{models.ReservationStatusConfirmed, models.ReservationStatusCancelled, true},
		{models.ReservationStatusConfirmed, models.ReservationStatusNoShow, true},
		{models.ReservationStatusConfirmed, models.ReservationStatusPending, false},
		{models.ReservationStatusCompleted, models.ReservationStatusCancelled, false},
		{models.ReservationStatusCancelled, models.ReservationStatusConfirmed, false},
		{models.ReservationStatusNoShow, models.ReservationStatusConfirmed, false},
	}
	for _, c := range cases {
		r := &models.Reservation{RoomID: 1, Date: tomorrow(), StartTime: "10:00", EndTime: "11:00", Status: c.from}
		store.Insert(r)

		_, err := svc.SetStatus(r.ID, c.to, "")
		if c.ok && err != nil {
			t.Errorf("%s -> %s: unexpected error %v", c.from, c.to, err)
		}
		if !c.ok {
			var invalid *InvalidTransitionError
			if !errors.As(err, &invalid) {
				t.Errorf("%s -> %s: got %v, want InvalidTransitionError", c.from, c.to, err)
			}
		}
		store.Delete(r.ID)
	}
}

func TestCancelVoidsPaymentAndFreesInterval(t *testing.T) {
	svc, store := newTestService()

	paymentID := uint(9)
	in := memberInput("10:00", 2)
	in.PaymentID = &paymentID
	result, err := svc.Create(in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	cancelled, err := svc.SetStatus(result.Reservation.ID, models.ReservationStatusCancelled, "plans changed")
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if cancelled.CancelReason != "plans changed" {
		t.Errorf("cancel reason = %q", cancelled.CancelReason)
	}
	if store.payments[paymentID] != models.PaymentStatusVoided {
		t.Error("linked payment was not voided")
	}

	// The slot opens back up
	if _, err := svc.Create(memberInput("10:00", 2)); err != nil {
		t.Fatalf("Create over cancelled interval: %v", err)
	}
}

func TestCheckInCheckOut(t *testing.T) {
	svc, store := newTestService()

	in := memberInput("10:00", 1)
	in.DirectConfirm = true
	result, err := svc.Create(in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := result.Reservation.ID

	checkedIn, err := svc.CheckIn(id)
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if checkedIn.CheckedInAt == nil {
		t.Error("CheckedInAt not stamped")
	}

	checkedOut, err := svc.CheckOut(id)
	if err != nil {
		t.Fatalf("CheckOut: %v", err)
	}
	if checkedOut.Status != models.ReservationStatusCompleted {
		t.Errorf("status = %s, want completed", checkedOut.Status)
	}
	if checkedOut.CheckedOutAt == nil {
		t.Error("CheckedOutAt not stamped")
	}

	// Status and timestamp land in one write
	stored, err := store.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != models.ReservationStatusCompleted || stored.CheckedOutAt == nil {
		t.Errorf("stored status = %s, CheckedOutAt set = %v; want completed with timestamp", stored.Status, stored.CheckedOutAt != nil)
	}

	// Pending reservations cannot check in
	pending, err := svc.Create(memberInput("14:00", 1))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.CheckIn(pending.Reservation.ID); err == nil {
		t.Error("expected error checking in a pending reservation")
	}
}

func TestDeleteRequiresCancelled(t *testing.T) {
	svc, _ := newTestService()

	result, err := svc.Create(memberInput("10:00", 1))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := result.Reservation.ID

	if err := svc.Delete(id); !errors.Is(err, ErrInvalidDeleteState) {
		t.Errorf("delete pending: got %v, want ErrInvalidDeleteState", err)
	}

	if _, err := svc.SetStatus(id, models.ReservationStatusCancelled, ""); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if err := svc.Delete(id); err != nil {
		t.Fatalf("delete cancelled: %v", err)
	}
	if err := svc.Delete(id); !errors.Is(err, ErrReservationNotFound) {
		t.Errorf("delete again: got %v, want ErrReservationNotFound", err)
	}
}

// gatedStore delays every snapshot read taken outside a transaction
// until all expected readers have theirs, forcing the widest possible
// window between snapshot and commit. Reads inside Transact go to the
// plain fakeStore and are not gated.
type gatedStore struct {
	*fakeStore
	gate sync.WaitGroup
}

func (g *gatedStore) Get(id uint) (*models.Reservation, error) {
	r, err := g.fakeStore.Get(id)
	g.gate.Done()
	g.gate.Wait()
	return r, err
}

func TestStatusTransitionRaceOneWins(t *testing.T) {
	svc, store := newTestService()

	in := memberInput("10:00", 1)
	in.DirectConfirm = true
	result, err := svc.Create(in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := result.Reservation.ID

	gated := &gatedStore{fakeStore: store}
	gated.gate.Add(2)
	svc.Store = gated

	// Both callers snapshot the confirmed reservation before either
	// transaction commits.
	var wg sync.WaitGroup
	var completeErr, cancelErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, completeErr = svc.SetStatus(id, models.ReservationStatusCompleted, "")
	}()
	go func() {
		defer wg.Done()
		_, cancelErr = svc.SetStatus(id, models.ReservationStatusCancelled, "changed plans")
	}()
	wg.Wait()

	if (completeErr == nil) == (cancelErr == nil) {
		t.Fatalf("exactly one transition should win: complete=%v cancel=%v", completeErr, cancelErr)
	}

	var invalid *InvalidTransitionError
	loser := completeErr
	if loser == nil {
		loser = cancelErr
	}
	if !errors.As(loser, &invalid) {
		t.Fatalf("loser should fail the transition check, got %v", loser)
	}

	final, err := store.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if completeErr == nil && final.Status != models.ReservationStatusCompleted {
		t.Errorf("final status = %s, completed transition won", final.Status)
	}
	if cancelErr == nil && final.Status != models.ReservationStatusCancelled {
		t.Errorf("final status = %s, cancelled transition won", final.Status)
	}
}

func TestRescheduleRaceCannotReviveCancelled(t *testing.T) {
	svc, store := newTestService()

	result, err := svc.Create(memberInput("10:00", 1))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := result.Reservation.ID

	gated := &gatedStore{fakeStore: store}
	gated.gate.Add(2)
	svc.Store = gated

	var wg sync.WaitGroup
	var rescheduleErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, rescheduleErr = svc.Reschedule(id, tomorrow(), "14:00", 1)
	}()
	go func() {
		defer wg.Done()
		svc.SetStatus(id, models.ReservationStatusCancelled, "")
	}()
	wg.Wait()

	// Whichever order the transactions ran in, the cancellation must
	// stick: a reschedule holding a stale pre-cancel snapshot either ran
	// first or was rejected with ErrReservationClosed.
	final, err := store.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if final.Status != models.ReservationStatusCancelled {
		t.Fatalf("final status = %s, want cancelled", final.Status)
	}
	if rescheduleErr != nil && !errors.Is(rescheduleErr, ErrReservationClosed) {
		t.Errorf("reschedule error = %v, want ErrReservationClosed", rescheduleErr)
	}
}

func TestConcurrentCreatesOneWins(t *testing.T) {
	svc, _ := newTestService()

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(memberInput("10:00", 2))
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		var conflict *ConflictError
		if !errors.As(err, &conflict) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("%d writers succeeded, want exactly 1", won)
	}
}
