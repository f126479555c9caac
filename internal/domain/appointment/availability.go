package appointment

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultSlotLength applies when availability is asked for neither a service
// nor an explicit duration.
const DefaultSlotLength = 30 * time.Minute

// AvailabilityInput names a service or a raw Duration. A set ServiceID takes
// precedence.
type AvailabilityInput struct {
	BarberID  uuid.UUID
	ServiceID uuid.UUID
	Duration  time.Duration
	Date      time.Time
}

// Settings is the business configuration the calculator works from.
// Opening and Closing are offsets from midnight.
type Settings struct {
	Opening     time.Duration
	Closing     time.Duration
	WorkingDays map[time.Weekday]bool
	SlotStep    time.Duration
}

// Booking is an existing appointment interval for one barber.
type Booking struct {
	Start  time.Time
	End    time.Time
	Status Status
}

type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ComputeSlots returns the bookable slots for a day in ascending order.
// date supplies the calendar day and the location. A non working day yields an
// empty, non-nil slice.
func ComputeSlots(
	date time.Time,
	serviceDuration time.Duration,
	settings Settings,
	bookings []Booking,
) []Slot {

	slots := []Slot{}
	if !settings.WorkingDays[date.Weekday()] || settings.SlotStep <= 0 || serviceDuration <= 0 {
		return slots
	}

	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	opening := midnight.Add(settings.Opening)
	closing := midnight.Add(settings.Closing)

	active := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Status.BlocksSlot() {
			active = append(active, b)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Start.Before(active[j].Start) })

	for cur := opening; cur.Before(closing); cur = cur.Add(settings.SlotStep) {
		end := cur.Add(serviceDuration)
		if end.After(closing) {
			continue
		}
		if overlapsAny(cur, end, active) {
			continue
		}
		slots = append(slots, Slot{Start: cur, End: end})
	}

	return slots
}

func overlapsAny(start, end time.Time, bookings []Booking) bool {
	for _, b := range bookings {
		if !b.Start.Before(end) {
			// sorted by start, nothing further can overlap
			return false
		}
		if Overlaps(start, end, b.Start, b.End) {
			return true
		}
	}
	return false
}

// Overlaps is the half-open interval test [aStart,aEnd) ∩ [bStart,bEnd) ≠ ∅.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// WithinHours reports whether [start,end) is on a working day and inside opening hours.
func (s Settings) WithinHours(start, end time.Time) bool {
	if !s.WorkingDays[start.Weekday()] {
		return false
	}
	midnight := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	return !start.Before(midnight.Add(s.Opening)) && !end.After(midnight.Add(s.Closing))
}

// ===============================
// Parsing helpers
// ===============================

// ParseClock parses "HH:MM" into an offset from midnight.
func ParseClock(hm string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(hm))
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", hm)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// ParseWorkingDays parses a CSV like "1,2,3,4,5,6".
func ParseWorkingDays(csv string) (map[time.Weekday]bool, error) {
	days := map[time.Weekday]bool{}
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("invalid weekday %q", part)
		}
		days[time.Weekday(n)] = true
	}
	return days, nil
}

func FormatWorkingDays(days []int) string {
	sorted := append([]int(nil), days...)
	sort.Ints(sorted)
	parts := make([]string, 0, len(sorted))
	seen := map[int]bool{}
	for _, d := range sorted {
		if seen[d] {
			continue
		}
		seen[d] = true
		parts = append(parts, strconv.Itoa(d))
	}
	return strings.Join(parts, ",")
}

// NewSettings validates raw settings values.
func NewSettings(opening, closing, workingDays string, slotMinutes int) (Settings, error) {
	open, err := ParseClock(opening)
	if err != nil {
		return Settings{}, err
	}
	cl, err := ParseClock(closing)
	if err != nil {
		return Settings{}, err
	}
	if open >= cl {
		return Settings{}, fmt.Errorf("opening time %s must be before closing time %s", opening, closing)
	}
	if slotMinutes <= 0 {
		return Settings{}, fmt.Errorf("slot duration must be positive")
	}
	days, err := ParseWorkingDays(workingDays)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Opening:     open,
		Closing:     cl,
		WorkingDays: days,
		SlotStep:    time.Duration(slotMinutes) * time.Minute,
	}, nil
}
