package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntervalOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a    Interval
		b    Interval
		want bool
	}{
		{"disjoint", Interval{Start: 480, End: 540}, Interval{Start: 600, End: 660}, false},
		{"touching is not overlap", Interval{Start: 480, End: 540}, Interval{Start: 540, End: 600}, false},
		{"partial overlap", Interval{Start: 540, End: 600}, Interval{Start: 570, End: 630}, true},
		{"nested", Interval{Start: 480, End: 720}, Interval{Start: 540, End: 600}, true},
		{"identical", Interval{Start: 540, End: 600}, Interval{Start: 540, End: 600}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			// Overlap is symmetric.
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestIntervalContainedIn(t *testing.T) {
	block := Interval{Start: 480, End: 720} // 08:00-12:00

	assert.True(t, Interval{Start: 540, End: 600}.ContainedIn(block))
	assert.True(t, Interval{Start: 480, End: 720}.ContainedIn(block))
	assert.False(t, Interval{Start: 420, End: 540}.ContainedIn(block))
	assert.False(t, Interval{Start: 660, End: 780}.ContainedIn(block))
}

func TestIntervalValid(t *testing.T) {
	assert.True(t, Interval{Start: 0, End: MinutesPerDay}.Valid())
	assert.True(t, Interval{Start: 540, End: 600}.Valid())
	assert.False(t, Interval{Start: 600, End: 540}.Valid())
	assert.False(t, Interval{Start: 600, End: 600}.Valid())
	assert.False(t, Interval{Start: -10, End: 60}.Valid())
	assert.False(t, Interval{Start: 1400, End: 1500}.Valid())
}

func TestBookingStatusActive(t *testing.T) {
	active := []BookingStatus{BookingConfirmed, BookingStarted, BookingAwaitingFeedback}
	for _, s := range active {
		assert.True(t, s.Active(), string(s))
	}

	inactive := []BookingStatus{BookingPending, BookingCompleted, BookingDeclined, BookingCancelled}
	for _, s := range inactive {
		assert.False(t, s.Active(), string(s))
	}
}

func TestBookingStatusTerminal(t *testing.T) {
	terminal := []BookingStatus{BookingCompleted, BookingDeclined, BookingCancelled}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), string(s))
	}

	open := []BookingStatus{BookingPending, BookingConfirmed, BookingStarted, BookingAwaitingFeedback}
	for _, s := range open {
		assert.False(t, s.Terminal(), string(s))
	}
}
