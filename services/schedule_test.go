package services

import (
	"testing"
	"time"

	"kitaspaces-server/models"
)

func testRoom() models.Room {
	active := true
	return models.Room{
		Name:       "Focus Room",
		OpenTime:   "09:00",
		CloseTime:  "18:00",
		HourlyRate: 15,
		Capacity:   4,
		IsActive:   &active,
	}
}

func reservationAt(id uint, start, end, status string) models.Reservation {
	r := models.Reservation{StartTime: start, EndTime: end, Status: status}
	r.ID = id
	return r
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"09:00", 540, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
		{"", 0, true},
	}
	for _, c := range cases {
		got, err := ParseClock(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error, got %d", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseClock(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestGenerateTimeSlots(t *testing.T) {
	slots, err := GenerateTimeSlots("09:00", "18:00", 30*time.Minute)
	if err != nil {
		t.Fatalf("GenerateTimeSlots: %v", err)
	}
	// 18 half-hour starts plus the closing label
	if len(slots) != 19 {
		t.Fatalf("expected 19 slots, got %d", len(slots))
	}
	if slots[0] != "09:00" {
		t.Errorf("first slot = %s, want 09:00", slots[0])
	}
	if slots[1] != "09:30" {
		t.Errorf("second slot = %s, want 09:30", slots[1])
	}
	if slots[len(slots)-1] != "18:00" {
		t.Errorf("last slot = %s, want 18:00", slots[len(slots)-1])
	}
}

func TestGenerateTimeSlotsCloseNotOnGrid(t *testing.T) {
	slots, err := GenerateTimeSlots("09:00", "17:45", 30*time.Minute)
	if err != nil {
		t.Fatalf("GenerateTimeSlots: %v", err)
	}
	// Last grid start is 17:30, then the 17:45 close label
	if slots[len(slots)-1] != "17:45" {
		t.Errorf("last slot = %s, want 17:45", slots[len(slots)-1])
	}
	if slots[len(slots)-2] != "17:30" {
		t.Errorf("second to last slot = %s, want 17:30", slots[len(slots)-2])
	}
}

func TestGenerateTimeSlotsInvalidWindow(t *testing.T) {
	if _, err := GenerateTimeSlots("18:00", "09:00", 30*time.Minute); err == nil {
		t.Fatal("expected error for open after close")
	}
	if _, err := GenerateTimeSlots("09:00", "09:00", 30*time.Minute); err == nil {
		t.Fatal("expected error for zero-length window")
	}
}

func TestComputeAvailabilityEmptyRoom(t *testing.T) {
	slots, err := ComputeAvailability(testRoom(), nil, DefaultScheduleConfig)
	if err != nil {
		t.Fatalf("ComputeAvailability: %v", err)
	}

	byTime := make(map[string]bool, len(slots))
	for _, s := range slots {
		byTime[s.Time] = s.IsAvailable
	}

	if !byTime["09:00"] {
		t.Error("09:00 should be available in an empty room")
	}
	if !byTime["17:00"] {
		t.Error("17:00 should be available, a full hour fits before close")
	}
	// Less than one hour left before close
	if byTime["17:30"] {
		t.Error("17:30 should be unavailable, no full hour before close")
	}
	if byTime["18:00"] {
		t.Error("closing label should never be available")
	}
}

func TestComputeAvailabilityAroundBooking(t *testing.T) {
	reservations := []models.Reservation{
		reservationAt(1, "13:00", "14:00", models.ReservationStatusConfirmed),
	}
	slots, err := ComputeAvailability(testRoom(), reservations, DefaultScheduleConfig)
	if err != nil {
		t.Fatalf("ComputeAvailability: %v", err)
	}

	byTime := make(map[string]bool, len(slots))
	for _, s := range slots {
		byTime[s.Time] = s.IsAvailable
	}

	if !byTime["09:00"] {
		t.Error("09:00 should be available")
	}
	// Booking starts before a full hour elapses from 12:30
	if byTime["12:30"] {
		t.Error("12:30 should be unavailable, booking starts at 13:00")
	}
	if byTime["13:00"] {
		t.Error("13:00 should be unavailable, inside the booking")
	}
	if byTime["13:30"] {
		t.Error("13:30 should be unavailable, inside the booking")
	}
	if !byTime["14:00"] {
		t.Error("14:00 should be available, booking end is exclusive")
	}
	if !byTime["12:00"] {
		t.Error("12:00 should be available, a full hour fits before 13:00")
	}
}

func TestComputeAvailabilityIgnoresCancelled(t *testing.T) {
	reservations := []models.Reservation{
		reservationAt(1, "13:00", "14:00", models.ReservationStatusCancelled),
	}
	slots, err := ComputeAvailability(testRoom(), reservations, DefaultScheduleConfig)
	if err != nil {
		t.Fatalf("ComputeAvailability: %v", err)
	}
	for _, s := range slots {
		if s.Time == "13:00" && !s.IsAvailable {
			t.Error("cancelled booking should not block 13:00")
		}
	}
}

func TestComputeAvailabilityPartitionsGrid(t *testing.T) {
	room := testRoom()
	reservations := []models.Reservation{
		reservationAt(1, "10:00", "12:00", models.ReservationStatusConfirmed),
		reservationAt(2, "15:00", "16:00", models.ReservationStatusPending),
	}

	grid, err := GenerateTimeSlots(room.OpenTime, room.CloseTime, DefaultScheduleConfig.SlotInterval)
	if err != nil {
		t.Fatalf("GenerateTimeSlots: %v", err)
	}
	slots, err := ComputeAvailability(room, reservations, DefaultScheduleConfig)
	if err != nil {
		t.Fatalf("ComputeAvailability: %v", err)
	}

	// Every grid label appears exactly once, flagged one way or the
	// other: available and unavailable partition the grid.
	if len(slots) != len(grid) {
		t.Fatalf("got %d slots for a %d-label grid", len(slots), len(grid))
	}
	available, unavailable := 0, 0
	for i, s := range slots {
		if s.Time != grid[i] {
			t.Fatalf("slot %d = %s, grid has %s", i, s.Time, grid[i])
		}
		if s.IsAvailable {
			available++
		} else {
			unavailable++
		}
	}
	if available+unavailable != len(grid) {
		t.Fatalf("available %d + unavailable %d != grid %d", available, unavailable, len(grid))
	}

	// No available slot sits inside an active booking
	for _, s := range slots {
		if !s.IsAvailable {
			continue
		}
		start, _ := ParseClock(s.Time)
		for _, r := range reservations {
			rs, re, ok := activeInterval(r)
			if ok && start >= rs && start < re {
				t.Errorf("slot %s marked available inside booking %s-%s", s.Time, r.StartTime, r.EndTime)
			}
		}
	}
}

func TestMaxDuration(t *testing.T) {
	room := testRoom()
	reservations := []models.Reservation{
		reservationAt(1, "13:00", "14:00", models.ReservationStatusConfirmed),
	}

	cases := []struct {
		start string
		want  int
	}{
		{"10:00", 3}, // bounded by the 13:00 booking
		{"14:00", 4}, // bounded by the 18:00 close
		{"09:00", 4}, // 13:00 booking leaves exactly four hours
		{"17:30", 1}, // floor, even though only half an hour remains
	}
	for _, c := range cases {
		got, err := MaxDuration(room, c.start, reservations, DefaultScheduleConfig)
		if err != nil {
			t.Fatalf("MaxDuration(%s): %v", c.start, err)
		}
		if got != c.want {
			t.Errorf("MaxDuration(%s) = %d, want %d", c.start, got, c.want)
		}
	}
}

func TestMaxDurationClampsToCeiling(t *testing.T) {
	room := testRoom()
	room.OpenTime = "08:00"
	room.CloseTime = "20:00"

	got, err := MaxDuration(room, "08:00", nil, DefaultScheduleConfig)
	if err != nil {
		t.Fatalf("MaxDuration: %v", err)
	}
	if got != DefaultScheduleConfig.MaxDurationHours {
		t.Errorf("MaxDuration = %d, want ceiling %d", got, DefaultScheduleConfig.MaxDurationHours)
	}
}

func TestCheckConflict(t *testing.T) {
	reservations := []models.Reservation{
		reservationAt(7, "10:00", "12:00", models.ReservationStatusConfirmed),
		reservationAt(8, "15:00", "16:00", models.ReservationStatusCancelled),
	}

	// Overlapping intervals conflict
	if c := CheckConflict(reservations, 11*60, 13*60, 0); c == nil {
		t.Error("expected conflict for 11:00-13:00")
	} else if c.ReservationID != 7 {
		t.Errorf("conflict id = %d, want 7", c.ReservationID)
	}

	// Adjacent intervals do not
	if c := CheckConflict(reservations, 12*60, 13*60, 0); c != nil {
		t.Error("12:00-13:00 should not conflict with a booking ending at 12:00")
	}
	if c := CheckConflict(reservations, 9*60, 10*60, 0); c != nil {
		t.Error("09:00-10:00 should not conflict with a booking starting at 10:00")
	}

	// Cancelled rows never conflict
	if c := CheckConflict(reservations, 15*60, 16*60, 0); c != nil {
		t.Error("cancelled booking should not conflict")
	}

	// Excluding the booking itself clears the conflict
	if c := CheckConflict(reservations, 10*60, 12*60, 7); c != nil {
		t.Error("excluded reservation should not conflict with itself")
	}
}
