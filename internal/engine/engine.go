// Package engine is the availability and conflict core. Every function is a
// pure computation over snapshots supplied by the caller: no storage access,
// no ambient clock, no mutation. The commit-time race between two requesters
// who both pass these checks is closed at the storage layer, not here.
package engine

import (
	"errors"
	"fmt"
	"time"

	"tutor-service/internal/models"

	"github.com/google/uuid"
)

const (
	// LeadDays is the minimum number of calendar days between "today" and
	// the earliest bookable date.
	LeadDays = 3

	// DefaultPendingTTL is how long an unanswered request may stay pending
	// before the sweeper declines it.
	DefaultPendingTTL = 14 * time.Hour
)

// BusinessHours are the bookable blocks of a day. A booking must fit inside
// exactly one block; straddling the midday gap is rejected.
var BusinessHours = []models.Interval{
	{Start: 8 * 60, End: 12 * 60},
	{Start: 13 * 60, End: 17 * 60},
}

var (
	ErrTooSoon      = errors.New("date is before the minimum lead time")
	ErrWeekend      = errors.New("date falls on a weekend")
	ErrOutsideHours = errors.New("interval is outside business hours")
	ErrInvalidOrder = errors.New("interval end must be after start")
	ErrSlotTaken    = errors.New("slot conflicts with an active booking")
	ErrDoubleBooked = errors.New("student already has an active booking in this interval")
)

// UnavailableError reports why a tutor cannot take the proposed interval.
type UnavailableError struct {
	Reason string
}

func (e *UnavailableError) Error() string {
	return "tutor unavailable: " + e.Reason
}

// WeeklySchedule maps weekdays to the intervals a tutor has declared
// available.
type WeeklySchedule map[time.Weekday][]models.Interval

func BuildWeeklySchedule(entries []*models.ScheduleEntry) WeeklySchedule {
	sched := make(WeeklySchedule, len(entries))
	for _, e := range entries {
		sched[e.Weekday] = append(sched[e.Weekday], e.Interval)
	}

	return sched
}

// Availability is the answer to "can tutor X take interval I on date D".
type Availability struct {
	Available bool
	Reason    string
}

// ReasonBooked marks the one unavailability cause that is a booking
// conflict rather than a schedule gap.
const ReasonBooked = "booked"

// Request is a proposed booking before it is persisted.
type Request struct {
	StudentID string
	TutorID   string
	Date      time.Time
	Interval  models.Interval
	Subject   string
}

// SameDate compares calendar dates ignoring the time of day.
func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func isWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}

// MinBookableDate is today plus the lead time, rolled forward past a
// weekend so the minimum never lands on Saturday or Sunday.
func MinBookableDate(now time.Time) time.Time {
	d := truncateToDate(now).AddDate(0, 0, LeadDays)
	for isWeekend(d.Weekday()) {
		d = d.AddDate(0, 0, 1)
	}

	return d
}

// ValidateStructure applies the tutor-independent rules: interval ordering,
// lead time, weekday, business hours. It is a pure function of its inputs.
func ValidateStructure(now, date time.Time, iv models.Interval) error {
	if !iv.Valid() {
		return ErrInvalidOrder
	}

	if truncateToDate(date).Before(MinBookableDate(now)) {
		return ErrTooSoon
	}

	if isWeekend(date.Weekday()) {
		return ErrWeekend
	}

	for _, block := range BusinessHours {
		if iv.ContainedIn(block) {
			return nil
		}
	}

	return ErrOutsideHours
}

// ComputeAvailability decides whether the tutor can take the interval on the
// date. Precedence: blackout, weekly schedule presence, declared-hours
// containment, conflicts with the tutor's active bookings. Safe to call once
// per candidate tutor while filtering a list.
func ComputeAvailability(tutorID string, date time.Time, iv models.Interval,
	sched WeeklySchedule, blackouts []*models.BlackoutDate, bookings []*models.Booking) Availability {

	for _, b := range blackouts {
		if b.TutorID == tutorID && SameDate(b.Date, date) {
			return Availability{Reason: "blocked: " + b.Reason}
		}
	}

	declared := sched[date.Weekday()]
	if len(declared) == 0 {
		return Availability{Reason: fmt.Sprintf("not available on %s", date.Weekday())}
	}

	contained := false
	for _, d := range declared {
		if iv.ContainedIn(d) {
			contained = true
			break
		}
	}
	if !contained {
		return Availability{Reason: "outside declared hours"}
	}

	for _, b := range bookings {
		if b.TutorID != tutorID || !b.Status.Active() || !SameDate(b.Date, date) {
			continue
		}
		if b.Interval.Overlaps(iv) {
			return Availability{Reason: ReasonBooked}
		}
	}

	return Availability{Available: true}
}

// WouldDoubleBook reports whether the student already holds an active
// booking overlapping the interval on the date, with any tutor.
func WouldDoubleBook(studentID string, date time.Time, iv models.Interval, bookings []*models.Booking) bool {
	for _, b := range bookings {
		if b.StudentID != studentID || !b.Status.Active() || !SameDate(b.Date, date) {
			continue
		}
		if b.Interval.Overlaps(iv) {
			return true
		}
	}

	return false
}

// Reserve runs the full admission pipeline: structural rules first (cheapest
// and tutor-independent), then tutor availability, then the student's own
// calendar. On success it returns a new pending booking for the caller to
// commit; nothing is persisted here.
func Reserve(req Request, sched WeeklySchedule, blackouts []*models.BlackoutDate,
	tutorBookings, studentBookings []*models.Booking, now time.Time) (*models.Booking, error) {

	if err := ValidateStructure(now, req.Date, req.Interval); err != nil {
		return nil, err
	}

	av := ComputeAvailability(req.TutorID, req.Date, req.Interval, sched, blackouts, tutorBookings)
	if !av.Available {
		if av.Reason == ReasonBooked {
			return nil, ErrSlotTaken
		}
		return nil, &UnavailableError{Reason: av.Reason}
	}

	if WouldDoubleBook(req.StudentID, req.Date, req.Interval, studentBookings) {
		return nil, ErrDoubleBooked
	}

	return &models.Booking{
		ID:        uuid.NewString(),
		StudentID: req.StudentID,
		TutorID:   req.TutorID,
		Date:      truncateToDate(req.Date),
		Interval:  req.Interval,
		Subject:   req.Subject,
		Status:    models.BookingPending,
		CreatedAt: now,
	}, nil
}

// ExpirePending proposes pending bookings older than ttl for auto-decline.
// Callers must apply each id with a status-guarded update, so re-running
// over a stale slice cannot decline a booking that was confirmed meanwhile.
func ExpirePending(bookings []*models.Booking, now time.Time, ttl time.Duration) []string {
	var expired []string
	for _, b := range bookings {
		if b.Status != models.BookingPending {
			continue
		}
		if now.Sub(b.CreatedAt) > ttl {
			expired = append(expired, b.ID)
		}
	}

	return expired
}
