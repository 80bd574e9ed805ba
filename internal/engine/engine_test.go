package engine

import (
	"errors"
	"testing"
	"time"

	"tutor-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func iv(start, end int) models.Interval {
	return models.Interval{Start: start, End: end}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// 2026-02-02 is a Monday.
var (
	monday    = date(2026, time.February, 2)
	refNow    = monday                       // "today"
	targetMon = date(2026, time.February, 9) // bookable Monday, a week out
)

func booking(tutorID, studentID string, day time.Time, interval models.Interval, status models.BookingStatus) *models.Booking {
	return &models.Booking{
		ID:        "b-" + tutorID + "-" + studentID,
		StudentID: studentID,
		TutorID:   tutorID,
		Date:      day,
		Interval:  interval,
		Status:    status,
	}
}

func TestMinBookableDate(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"monday lands on thursday", date(2026, time.February, 2), date(2026, time.February, 5)},
		{"tuesday lands on friday", date(2026, time.February, 3), date(2026, time.February, 6)},
		// Thu+3 = Sunday, rolled to Monday and not rolled any further.
		{"thursday rolls past the weekend", date(2026, time.February, 5), date(2026, time.February, 9)},
		// Wed+3 = Saturday, rolled two days to Monday.
		{"wednesday rolls past the weekend", date(2026, time.February, 4), date(2026, time.February, 9)},
		{"friday lands on monday", date(2026, time.February, 6), date(2026, time.February, 9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MinBookableDate(tt.now))
		})
	}
}

func TestValidateStructure(t *testing.T) {
	tests := []struct {
		name     string
		date     time.Time
		interval models.Interval
		wantErr  error
	}{
		{"valid morning slot", targetMon, iv(9*60, 10*60), nil},
		{"valid afternoon slot", targetMon, iv(13*60, 14*60), nil},
		{"fills a whole block", targetMon, iv(8*60, 12*60), nil},
		{"too soon", date(2026, time.February, 3), iv(9*60, 10*60), ErrTooSoon},
		{"weekend", date(2026, time.February, 7), iv(9*60, 10*60), ErrWeekend},
		{"before opening", targetMon, iv(7*60, 9*60), ErrOutsideHours},
		{"after closing", targetMon, iv(16*60+30, 17*60+30), ErrOutsideHours},
		// Scenario C: 11:30-13:30 straddles the midday gap.
		{"straddles the gap", targetMon, iv(11*60+30, 13*60+30), ErrOutsideHours},
		{"inside the gap", targetMon, iv(12*60, 13*60), ErrOutsideHours},
		{"inverted interval", targetMon, iv(10*60, 9*60), ErrInvalidOrder},
		{"empty interval", targetMon, iv(9*60, 9*60), ErrInvalidOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStructure(refNow, tt.date, tt.interval)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateStructureIsDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.NoError(t, ValidateStructure(refNow, targetMon, iv(9*60, 10*60)))
		assert.ErrorIs(t, ValidateStructure(refNow, date(2026, time.February, 3), iv(9*60, 10*60)), ErrTooSoon)
	}
}

func TestComputeAvailability(t *testing.T) {
	sched := WeeklySchedule{
		time.Monday: {iv(8*60, 12*60)},
	}

	t.Run("scenario A: free slot is available", func(t *testing.T) {
		av := ComputeAvailability("t1", targetMon, iv(9*60, 10*60), sched, nil, nil)
		assert.True(t, av.Available)
	})

	t.Run("scenario B: confirmed overlap blocks", func(t *testing.T) {
		existing := []*models.Booking{
			booking("t1", "s9", targetMon, iv(9*60+30, 10*60+30), models.BookingConfirmed),
		}

		av := ComputeAvailability("t1", targetMon, iv(9*60, 10*60), sched, nil, existing)
		assert.False(t, av.Available)
		assert.Equal(t, ReasonBooked, av.Reason)
	})

	t.Run("scenario D: pending does not block", func(t *testing.T) {
		existing := []*models.Booking{
			booking("t1", "s9", targetMon, iv(9*60, 10*60), models.BookingPending),
		}

		av := ComputeAvailability("t1", targetMon, iv(9*60, 10*60), sched, nil, existing)
		assert.True(t, av.Available)
	})

	t.Run("blackout overrides everything", func(t *testing.T) {
		blackouts := []*models.BlackoutDate{
			{TutorID: "t1", Date: targetMon, Reason: "conference"},
		}

		av := ComputeAvailability("t1", targetMon, iv(9*60, 10*60), sched, blackouts, nil)
		assert.False(t, av.Available)
		assert.Equal(t, "blocked: conference", av.Reason)
	})

	t.Run("another tutors blackout is ignored", func(t *testing.T) {
		blackouts := []*models.BlackoutDate{
			{TutorID: "t2", Date: targetMon, Reason: "conference"},
		}

		av := ComputeAvailability("t1", targetMon, iv(9*60, 10*60), sched, blackouts, nil)
		assert.True(t, av.Available)
	})

	t.Run("no declared weekday", func(t *testing.T) {
		tuesday := date(2026, time.February, 10)

		av := ComputeAvailability("t1", tuesday, iv(9*60, 10*60), sched, nil, nil)
		assert.False(t, av.Available)
		assert.Equal(t, "not available on Tuesday", av.Reason)
	})

	t.Run("not contained in declared hours", func(t *testing.T) {
		av := ComputeAvailability("t1", targetMon, iv(11*60+30, 12*60), WeeklySchedule{
			time.Monday: {iv(8*60, 11*60)},
		}, nil, nil)
		assert.False(t, av.Available)
		assert.Equal(t, "outside declared hours", av.Reason)
	})

	t.Run("containment needs a single covering interval", func(t *testing.T) {
		// Two touching declared intervals do not cover a request that
		// spans their boundary.
		av := ComputeAvailability("t1", targetMon, iv(9*60+30, 10*60+30), WeeklySchedule{
			time.Monday: {iv(8*60, 10*60), iv(10*60, 12*60)},
		}, nil, nil)
		assert.False(t, av.Available)
		assert.Equal(t, "outside declared hours", av.Reason)
	})

	t.Run("terminal booking does not block", func(t *testing.T) {
		existing := []*models.Booking{
			booking("t1", "s9", targetMon, iv(9*60, 10*60), models.BookingCancelled),
		}

		av := ComputeAvailability("t1", targetMon, iv(9*60, 10*60), sched, nil, existing)
		assert.True(t, av.Available)
	})

	t.Run("other tutors booking does not block", func(t *testing.T) {
		existing := []*models.Booking{
			booking("t2", "s9", targetMon, iv(9*60, 10*60), models.BookingConfirmed),
		}

		av := ComputeAvailability("t1", targetMon, iv(9*60, 10*60), sched, nil, existing)
		assert.True(t, av.Available)
	})
}

func TestWouldDoubleBook(t *testing.T) {
	own := []*models.Booking{
		booking("t2", "s1", targetMon, iv(9*60+30, 10*60+30), models.BookingConfirmed),
	}

	// Overlap with the student's own confirmed booking, even with another
	// tutor.
	assert.True(t, WouldDoubleBook("s1", targetMon, iv(9*60, 10*60), own))

	// Disjoint interval is fine.
	assert.False(t, WouldDoubleBook("s1", targetMon, iv(10*60+30, 11*60+30), own))

	// A pending booking of the student's own does not count.
	pending := []*models.Booking{
		booking("t2", "s1", targetMon, iv(9*60, 10*60), models.BookingPending),
	}
	assert.False(t, WouldDoubleBook("s1", targetMon, iv(9*60, 10*60), pending))
}

func TestReserve(t *testing.T) {
	sched := WeeklySchedule{
		time.Monday: {iv(8*60, 12*60)},
	}

	req := Request{
		StudentID: "s1",
		TutorID:   "t1",
		Date:      targetMon,
		Interval:  iv(9*60, 10*60),
		Subject:   "algebra",
	}

	t.Run("success creates a pending booking", func(t *testing.T) {
		b, err := Reserve(req, sched, nil, nil, nil, refNow)
		require.NoError(t, err)

		assert.NotEmpty(t, b.ID)
		assert.Equal(t, "s1", b.StudentID)
		assert.Equal(t, "t1", b.TutorID)
		assert.Equal(t, models.BookingPending, b.Status)
		assert.Equal(t, targetMon, b.Date)
		assert.Equal(t, iv(9*60, 10*60), b.Interval)
		assert.Equal(t, "algebra", b.Subject)
		assert.Equal(t, refNow, b.CreatedAt)
	})

	t.Run("structural rules run before tutor state", func(t *testing.T) {
		bad := req
		bad.Interval = iv(11*60+30, 13*60+30)

		// Empty schedule would also reject, but the structural error
		// must win.
		_, err := Reserve(bad, WeeklySchedule{}, nil, nil, nil, refNow)
		assert.ErrorIs(t, err, ErrOutsideHours)
	})

	t.Run("slot taken", func(t *testing.T) {
		taken := []*models.Booking{
			booking("t1", "s9", targetMon, iv(9*60+30, 10*60+30), models.BookingConfirmed),
		}

		_, err := Reserve(req, sched, nil, taken, nil, refNow)
		assert.ErrorIs(t, err, ErrSlotTaken)
	})

	t.Run("tutor unavailable", func(t *testing.T) {
		blackouts := []*models.BlackoutDate{
			{TutorID: "t1", Date: targetMon, Reason: "ill"},
		}

		_, err := Reserve(req, sched, blackouts, nil, nil, refNow)

		var unavailable *UnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, "blocked: ill", unavailable.Reason)
	})

	t.Run("student double booked", func(t *testing.T) {
		own := []*models.Booking{
			booking("t2", "s1", targetMon, iv(9*60, 10*60), models.BookingConfirmed),
		}

		_, err := Reserve(req, sched, nil, nil, own, refNow)
		assert.ErrorIs(t, err, ErrDoubleBooked)
	})

	t.Run("competing pending requests both pass", func(t *testing.T) {
		// First-confirmed-wins: an unconfirmed request holds nothing.
		pending := []*models.Booking{
			booking("t1", "s9", targetMon, iv(9*60, 10*60), models.BookingPending),
		}

		b, err := Reserve(req, sched, nil, pending, nil, refNow)
		require.NoError(t, err)
		assert.Equal(t, models.BookingPending, b.Status)
	})
}

func TestExpirePending(t *testing.T) {
	now := time.Date(2026, time.February, 2, 12, 0, 0, 0, time.UTC)

	stale := booking("t1", "s1", targetMon, iv(9*60, 10*60), models.BookingPending)
	stale.ID = "stale"
	stale.CreatedAt = now.Add(-15 * time.Hour)

	fresh := booking("t1", "s2", targetMon, iv(10*60, 11*60), models.BookingPending)
	fresh.ID = "fresh"
	fresh.CreatedAt = now.Add(-10 * time.Hour)

	confirmed := booking("t1", "s3", targetMon, iv(11*60, 12*60), models.BookingConfirmed)
	confirmed.ID = "confirmed"
	confirmed.CreatedAt = now.Add(-20 * time.Hour)

	expired := ExpirePending([]*models.Booking{stale, fresh, confirmed}, now, DefaultPendingTTL)
	assert.Equal(t, []string{"stale"}, expired)
}

func TestExpirePendingExactBoundary(t *testing.T) {
	now := time.Date(2026, time.February, 2, 12, 0, 0, 0, time.UTC)

	boundary := booking("t1", "s1", targetMon, iv(9*60, 10*60), models.BookingPending)
	boundary.CreatedAt = now.Add(-DefaultPendingTTL)

	// Exactly at the TTL is not yet expired.
	assert.Empty(t, ExpirePending([]*models.Booking{boundary}, now, DefaultPendingTTL))
}

func TestBuildWeeklySchedule(t *testing.T) {
	entries := []*models.ScheduleEntry{
		{ID: "e1", TutorID: "t1", Weekday: time.Monday, Interval: iv(8*60, 12*60)},
		{ID: "e2", TutorID: "t1", Weekday: time.Monday, Interval: iv(13*60, 15*60)},
		{ID: "e3", TutorID: "t1", Weekday: time.Friday, Interval: iv(9*60, 11*60)},
	}

	sched := BuildWeeklySchedule(entries)

	assert.Len(t, sched[time.Monday], 2)
	assert.Len(t, sched[time.Friday], 1)
	assert.Empty(t, sched[time.Wednesday])
}

func TestSameDate(t *testing.T) {
	assert.True(t, SameDate(
		time.Date(2026, time.February, 9, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.February, 9, 15, 30, 0, 0, time.UTC),
	))
	assert.False(t, SameDate(
		time.Date(2026, time.February, 9, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC),
	))
}

func TestErrorsAreComparable(t *testing.T) {
	err := ValidateStructure(refNow, date(2026, time.February, 7), iv(9*60, 10*60))
	assert.True(t, errors.Is(err, ErrWeekend))
}
