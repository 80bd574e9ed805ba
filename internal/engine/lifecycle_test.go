package engine

import (
	"testing"

	"tutor-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct {
		from, to models.BookingStatus
	}{
		{models.BookingPending, models.BookingConfirmed},
		{models.BookingPending, models.BookingDeclined},
		{models.BookingConfirmed, models.BookingStarted},
		{models.BookingConfirmed, models.BookingCancelled},
		{models.BookingStarted, models.BookingAwaitingFeedback},
		{models.BookingStarted, models.BookingCompleted},
		{models.BookingAwaitingFeedback, models.BookingCompleted},
	}

	for _, tt := range allowed {
		assert.NoError(t, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestCanTransitionRejectsInvalid(t *testing.T) {
	invalid := []struct {
		from, to models.BookingStatus
	}{
		{models.BookingPending, models.BookingStarted},
		{models.BookingPending, models.BookingCancelled},
		{models.BookingConfirmed, models.BookingConfirmed},
		{models.BookingConfirmed, models.BookingDeclined},
		{models.BookingStarted, models.BookingCancelled},
		{models.BookingAwaitingFeedback, models.BookingStarted},
	}

	for _, tt := range invalid {
		assert.ErrorIs(t, CanTransition(tt.from, tt.to), ErrInvalidTransition, "%s -> %s", tt.from, tt.to)
	}
}

func TestCanTransitionOutOfTerminal(t *testing.T) {
	terminal := []models.BookingStatus{
		models.BookingCompleted,
		models.BookingDeclined,
		models.BookingCancelled,
	}

	for _, from := range terminal {
		assert.ErrorIs(t, CanTransition(from, models.BookingConfirmed), ErrAlreadyTerminal, string(from))
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"08:00", 480, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"9:30", 0, true},
		{"09-30", 0, true},
		{"ab:cd", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
