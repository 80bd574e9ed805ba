package engine

import (
	"errors"

	"tutor-service/internal/models"
)

var (
	ErrAlreadyTerminal   = errors.New("booking is already in a terminal status")
	ErrInvalidTransition = errors.New("transition is not allowed from the current status")
)

// transitions is the full booking state machine. Terminal statuses have no
// outgoing edges.
var transitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingPending:          {models.BookingConfirmed, models.BookingDeclined},
	models.BookingConfirmed:        {models.BookingStarted, models.BookingCancelled},
	models.BookingStarted:          {models.BookingAwaitingFeedback, models.BookingCompleted},
	models.BookingAwaitingFeedback: {models.BookingCompleted},
}

// CanTransition checks a status change against the state machine.
func CanTransition(from, to models.BookingStatus) error {
	if from.Terminal() {
		return ErrAlreadyTerminal
	}

	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}

	return ErrInvalidTransition
}

// ParseClock converts "15:04" into minutes since midnight.
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, errors.New("expected HH:MM")
	}

	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	for _, c := range []byte{s[0], s[1], s[3], s[4]} {
		if c < '0' || c > '9' {
			return 0, errors.New("expected HH:MM")
		}
	}
	if h > 23 || m > 59 {
		return 0, errors.New("clock value out of range")
	}

	return h*60 + m, nil
}
