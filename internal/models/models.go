package models

import (
	"fmt"
	"time"
)

const MinutesPerDay = 24 * 60

// Interval is a half-open [Start, End) range of minutes since midnight.
type Interval struct {
	Start int `db:"start_min" json:"start_min"`
	End   int `db:"end_min" json:"end_min"`
}

func (i Interval) Valid() bool {
	return i.Start >= 0 && i.Start < i.End && i.End <= MinutesPerDay
}

// Overlaps is the single conflict primitive: every overlap decision in the
// service funnels through it.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}

// ContainedIn reports whether i lies entirely inside o.
func (i Interval) ContainedIn(o Interval) bool {
	return o.Start <= i.Start && i.End <= o.End
}

func (i Interval) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", i.Start/60, i.Start%60, i.End/60, i.End%60)
}

type BookingStatus string

const (
	BookingPending          BookingStatus = "pending"
	BookingConfirmed        BookingStatus = "confirmed"
	BookingStarted          BookingStatus = "started"
	BookingAwaitingFeedback BookingStatus = "awaiting_feedback"
	BookingCompleted        BookingStatus = "completed"
	BookingDeclined         BookingStatus = "declined"
	BookingCancelled        BookingStatus = "cancelled"
)

// Active statuses occupy calendar space. Pending does not: an unanswered
// request never holds a slot hostage, only confirmation claims it.
func (s BookingStatus) Active() bool {
	switch s {
	case BookingConfirmed, BookingStarted, BookingAwaitingFeedback:
		return true
	default:
		return false
	}
}

func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingCompleted, BookingDeclined, BookingCancelled:
		return true
	default:
		return false
	}
}

type Booking struct {
	ID        string        `db:"booking_id"`
	StudentID string        `db:"student_id"`
	TutorID   string        `db:"tutor_id"`
	Date      time.Time     `db:"booking_date"`
	Interval  Interval      `db:"-"`
	Subject   string        `db:"subject"`
	Status    BookingStatus `db:"status"`
	CreatedAt time.Time     `db:"created_at"`
}

// ScheduleEntry is one declared weekly availability interval of a tutor.
type ScheduleEntry struct {
	ID       string       `db:"entry_id"`
	TutorID  string       `db:"tutor_id"`
	Weekday  time.Weekday `db:"weekday"`
	Interval Interval     `db:"-"`
}

// BlackoutDate marks a tutor fully unavailable on a date, overriding the
// weekly schedule.
type BlackoutDate struct {
	ID      string    `db:"blackout_id"`
	TutorID string    `db:"tutor_id"`
	Date    time.Time `db:"blackout_date"`
	Reason  string    `db:"reason"`
}
