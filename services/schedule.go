package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"kitaspaces-server/models"
)

// ScheduleConfig carries the deployment-wide booking policy. One policy
// applies to every entry point (member, customer, admin, perk).
type ScheduleConfig struct {
	SlotInterval     time.Duration // grid granularity for start times
	MinDuration      time.Duration // smallest bookable session
	MaxDurationHours int           // ceiling reported by MaxDuration
	EnforceCapacity  bool          // hard-fail when attendees exceed room capacity
}

var DefaultScheduleConfig = ScheduleConfig{
	SlotInterval:     30 * time.Minute,
	MinDuration:      time.Hour,
	MaxDurationHours: 8,
}

// TimeSlot is one candidate start time on a room's grid. IsAvailable
// means "selectable as a start": the slot is unbooked and at least one
// minimum booking unit fits before the next reservation or room close.
type TimeSlot struct {
	Time        string `json:"time"`
	IsAvailable bool   `json:"isAvailable"`
}

// ParseClock parses an "HH:MM" wall clock string into minutes since
// midnight.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// GenerateTimeSlots walks the operating window from open to close at the
// given interval. The closing time itself is appended once as a display
// label; it is never a valid start and callers mark it unavailable.
func GenerateTimeSlots(openTime, closeTime string, interval time.Duration) ([]string, error) {
	open, err := ParseClock(openTime)
	if err != nil {
		return nil, err
	}
	closeAt, err := ParseClock(closeTime)
	if err != nil {
		return nil, err
	}
	if open >= closeAt {
		return nil, fmt.Errorf("open time %s is not before close time %s", openTime, closeTime)
	}

	step := int(interval.Minutes())
	if step <= 0 {
		step = 30
	}

	var slots []string
	for t := open; t < closeAt; t += step {
		slots = append(slots, FormatClock(t))
	}
	slots = append(slots, FormatClock(closeAt))
	return slots, nil
}

// activeInterval returns the reservation's [start, end) in minutes, or
// ok=false for cancelled rows and rows with unparseable times.
func activeInterval(r models.Reservation) (start, end int, ok bool) {
	if r.Status == models.ReservationStatusCancelled {
		return 0, 0, false
	}
	start, err := ParseClock(r.StartTime)
	if err != nil {
		return 0, 0, false
	}
	end, err = ParseClock(r.EndTime)
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}

// ComputeAvailability marks every slot on the room's grid. A slot is
// unavailable when it falls inside any active reservation, when a
// reservation starts before one minimum unit elapses, or when the room
// closes before one minimum unit elapses. Cancelled reservations never
// block a slot.
func ComputeAvailability(room models.Room, reservations []models.Reservation, cfg ScheduleConfig) ([]TimeSlot, error) {
	grid, err := GenerateTimeSlots(room.OpenTime, room.CloseTime, cfg.SlotInterval)
	if err != nil {
		return nil, err
	}
	closeAt, _ := ParseClock(room.CloseTime)
	minUnit := int(cfg.MinDuration.Minutes())

	slots := make([]TimeSlot, 0, len(grid))
	for _, label := range grid {
		t, _ := ParseClock(label)
		slots = append(slots, TimeSlot{
			Time:        label,
			IsAvailable: startSelectable(t, closeAt, minUnit, reservations),
		})
	}
	return slots, nil
}

func startSelectable(t, closeAt, minUnit int, reservations []models.Reservation) bool {
	if t+minUnit > closeAt {
		return false
	}
	for _, r := range reservations {
		start, end, ok := activeInterval(r)
		if !ok {
			continue
		}
		if t >= start && t < end {
			return false // inside a booking
		}
		if start > t && start < t+minUnit {
			return false // next booking starts before a minimum unit fits
		}
	}
	return true
}

// MaxDuration reports, in whole hours, the longest session that can
// begin at startTime: the gap until room close or the nearest
// reservation starting after it, clamped to [1, MaxDurationHours]. It
// never rejects; conflicting starts still report the 1-hour floor and
// are caught by the conflict check at commit time.
func MaxDuration(room models.Room, startTime string, reservations []models.Reservation, cfg ScheduleConfig) (int, error) {
	start, err := ParseClock(startTime)
	if err != nil {
		return 0, err
	}
	boundary, err := ParseClock(room.CloseTime)
	if err != nil {
		return 0, err
	}

	for _, r := range reservations {
		rs, _, ok := activeInterval(r)
		if !ok {
			continue
		}
		if rs > start && rs < boundary {
			boundary = rs
		}
	}

	maxHours := (boundary - start) / 60
	if maxHours > cfg.MaxDurationHours {
		maxHours = cfg.MaxDurationHours
	}
	if maxHours < 1 {
		maxHours = 1
	}
	return maxHours, nil
}
