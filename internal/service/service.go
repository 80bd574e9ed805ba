package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tutor-service/api"
	"tutor-service/internal/config"
	"tutor-service/internal/engine"
	"tutor-service/internal/lock"
	"tutor-service/internal/models"
	"tutor-service/internal/notify"
	"tutor-service/pkg/response"

	"github.com/google/uuid"
)

type Service struct {
	store    Store
	locker   lock.Locker
	notifier notify.Notifier

	pendingTTL time.Duration
	lockTTL    time.Duration

	// now is injected so lead-time and expiry decisions are deterministic
	// under test.
	now func() time.Time
}

func NewService(store Store, locker lock.Locker, notifier notify.Notifier, cfg config.Booking) *Service {
	return &Service{
		store:      store,
		locker:     locker,
		notifier:   notifier,
		pendingTTL: cfg.PendingTTL,
		lockTTL:    cfg.LockTTL,
		now:        time.Now,
	}
}

type Store interface {
	// Bookings
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context, studentID, tutorID, status *string) ([]*models.Booking, error)
	ListActiveBookingsByTutor(ctx context.Context, tutorID string, date time.Time) ([]*models.Booking, error)
	ListActiveBookingsByStudent(ctx context.Context, studentID string, date time.Time) ([]*models.Booking, error)
	ListPendingBookings(ctx context.Context) ([]*models.Booking, error)
	UpdateBookingStatusIf(ctx context.Context, bookingID string, from, to models.BookingStatus) error

	// Weekly schedule
	CreateScheduleEntry(ctx context.Context, entry *models.ScheduleEntry) error
	ListScheduleEntries(ctx context.Context, tutorID string) ([]*models.ScheduleEntry, error)
	DeleteScheduleEntry(ctx context.Context, id string) error
	ListTutorsWithSchedule(ctx context.Context) ([]string, error)

	// Blackout dates
	CreateBlackoutAndCancelBookings(ctx context.Context, blackout *models.BlackoutDate) ([]*models.Booking, error)
	ListBlackouts(ctx context.Context, tutorID string) ([]*models.BlackoutDate, error)
	DeleteBlackout(ctx context.Context, id string) error
}

// Bookings

func (s *Service) CreateBooking(ctx context.Context, req *api.BookingCreateRequest) (*api.BookingResponse, error) {
	const op = "service.CreateBooking"

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid date: %w", op, response.ErrBadRequest)
	}

	interval, err := parseInterval(req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, response.ErrBadRequest, err)
	}

	lockKey := fmt.Sprintf("tutor:%s:%s", req.TutorID, req.Date)

	locked, err := s.locker.Lock(ctx, lockKey, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, lockKey)
	}()

	sched, blackouts, tutorBookings, err := s.tutorSnapshot(ctx, req.TutorID, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	studentBookings, err := s.store.ListActiveBookingsByStudent(ctx, req.StudentID, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	booking, err := engine.Reserve(engine.Request{
		StudentID: req.StudentID,
		TutorID:   req.TutorID,
		Date:      date,
		Interval:  interval,
		Subject:   req.Subject,
	}, sched, blackouts, tutorBookings, studentBookings, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.store.CreateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("%s: create booking: %w", op, err)
	}

	s.publish(ctx, booking, notify.ReasonRequested)

	return toBookingResponse(booking), nil
}

func (s *Service) GetBooking(ctx context.Context, id string) (*api.BookingResponse, error) {
	const op = "service.GetBooking"

	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toBookingResponse(booking), nil
}

func (s *Service) ListBookings(ctx context.Context, studentID, tutorID, status *string) ([]*api.BookingResponse, error) {
	const op = "service.ListBookings"

	bookings, err := s.store.ListBookings(ctx, studentID, tutorID, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		result = append(result, toBookingResponse(booking))
	}

	return result, nil
}

func (s *Service) ConfirmBooking(ctx context.Context, bookingID string) (*api.BookingResponse, error) {
	const op = "service.ConfirmBooking"

	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Confirmation claims the slot: the same lock as reserve plus the
	// storage overlap guard decide who wins between competing pendings.
	lockKey := fmt.Sprintf("tutor:%s:%s", booking.TutorID, booking.Date.Format("2006-01-02"))

	locked, err := s.locker.Lock(ctx, lockKey, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, lockKey)
	}()

	return s.transitionBooking(ctx, booking, models.BookingConfirmed, notify.ReasonConfirmed)
}

func (s *Service) DeclineBooking(ctx context.Context, bookingID string) (*api.BookingResponse, error) {
	return s.applyTransition(ctx, "service.DeclineBooking", bookingID, models.BookingDeclined, notify.ReasonDeclined)
}

func (s *Service) CancelBooking(ctx context.Context, bookingID string) (*api.BookingResponse, error) {
	return s.applyTransition(ctx, "service.CancelBooking", bookingID, models.BookingCancelled, notify.ReasonCancelled)
}

func (s *Service) StartBooking(ctx context.Context, bookingID string) (*api.BookingResponse, error) {
	return s.applyTransition(ctx, "service.StartBooking", bookingID, models.BookingStarted, notify.ReasonStarted)
}

func (s *Service) CompleteBooking(ctx context.Context, bookingID string, awaitFeedback bool) (*api.BookingResponse, error) {
	if awaitFeedback {
		return s.applyTransition(ctx, "service.CompleteBooking", bookingID, models.BookingAwaitingFeedback, notify.ReasonAwaitingFeedback)
	}

	return s.applyTransition(ctx, "service.CompleteBooking", bookingID, models.BookingCompleted, notify.ReasonCompleted)
}

func (s *Service) SubmitFeedback(ctx context.Context, bookingID string) (*api.BookingResponse, error) {
	return s.applyTransition(ctx, "service.SubmitFeedback", bookingID, models.BookingCompleted, notify.ReasonCompleted)
}

func (s *Service) applyTransition(ctx context.Context, op, bookingID string, to models.BookingStatus, reason string) (*api.BookingResponse, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := s.transitionBooking(ctx, booking, to, reason)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return resp, nil
}

func (s *Service) transitionBooking(ctx context.Context, booking *models.Booking, to models.BookingStatus, reason string) (*api.BookingResponse, error) {
	const op = "service.transitionBooking"

	if err := engine.CanTransition(booking.Status, to); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.store.UpdateBookingStatusIf(ctx, booking.ID, booking.Status, to); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	booking.Status = to
	s.publish(ctx, booking, reason)

	return toBookingResponse(booking), nil
}

// Availability

func (s *Service) CheckAvailability(ctx context.Context, tutorID, dateStr, startStr, endStr string) (*api.AvailabilityResponse, error) {
	const op = "service.CheckAvailability"

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid date: %w", op, response.ErrBadRequest)
	}

	interval, err := parseInterval(startStr, endStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, response.ErrBadRequest, err)
	}

	if err := engine.ValidateStructure(s.now(), date, interval); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sched, blackouts, bookings, err := s.tutorSnapshot(ctx, tutorID, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	av := engine.ComputeAvailability(tutorID, date, interval, sched, blackouts, bookings)

	return &api.AvailabilityResponse{
		TutorID:   tutorID,
		Date:      dateStr,
		Start:     startStr,
		End:       endStr,
		Available: av.Available,
		Reason:    av.Reason,
	}, nil
}

func (s *Service) SearchAvailableTutors(ctx context.Context, dateStr, startStr, endStr string) ([]string, error) {
	const op = "service.SearchAvailableTutors"

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid date: %w", op, response.ErrBadRequest)
	}

	interval, err := parseInterval(startStr, endStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, response.ErrBadRequest, err)
	}

	if err := engine.ValidateStructure(s.now(), date, interval); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tutorIDs, err := s.store.ListTutorsWithSchedule(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	available := make([]string, 0, len(tutorIDs))
	for _, tutorID := range tutorIDs {
		sched, blackouts, bookings, err := s.tutorSnapshot(ctx, tutorID, date)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if av := engine.ComputeAvailability(tutorID, date, interval, sched, blackouts, bookings); av.Available {
			available = append(available, tutorID)
		}
	}

	return available, nil
}

func (s *Service) tutorSnapshot(ctx context.Context, tutorID string, date time.Time) (engine.WeeklySchedule, []*models.BlackoutDate, []*models.Booking, error) {
	entries, err := s.store.ListScheduleEntries(ctx, tutorID)
	if err != nil {
		return nil, nil, nil, err
	}

	blackouts, err := s.store.ListBlackouts(ctx, tutorID)
	if err != nil {
		return nil, nil, nil, err
	}

	bookings, err := s.store.ListActiveBookingsByTutor(ctx, tutorID, date)
	if err != nil {
		return nil, nil, nil, err
	}

	return engine.BuildWeeklySchedule(entries), blackouts, bookings, nil
}

// Weekly schedule

func (s *Service) AddScheduleEntry(ctx context.Context, req *api.ScheduleEntryRequest) (*api.ScheduleEntryResponse, error) {
	const op = "service.AddScheduleEntry"

	weekday, ok := parseWeekday(req.Weekday)
	if !ok {
		return nil, fmt.Errorf("%s: invalid weekday: %w", op, response.ErrBadRequest)
	}
	if weekday == time.Saturday || weekday == time.Sunday {
		return nil, fmt.Errorf("%s: %w", op, engine.ErrWeekend)
	}

	interval, err := parseInterval(req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, response.ErrBadRequest, err)
	}
	if !interval.Valid() {
		return nil, fmt.Errorf("%s: %w", op, engine.ErrInvalidOrder)
	}

	withinHours := false
	for _, block := range engine.BusinessHours {
		if interval.ContainedIn(block) {
			withinHours = true
			break
		}
	}
	if !withinHours {
		return nil, fmt.Errorf("%s: %w", op, engine.ErrOutsideHours)
	}

	existing, err := s.store.ListScheduleEntries(ctx, req.TutorID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, e := range existing {
		if e.Weekday == weekday && e.Interval.Overlaps(interval) {
			return nil, fmt.Errorf("%s: overlaps entry %s: %w", op, e.ID, response.ErrConflict)
		}
	}

	entry := &models.ScheduleEntry{
		ID:       uuid.NewString(),
		TutorID:  req.TutorID,
		Weekday:  weekday,
		Interval: interval,
	}

	if err := s.store.CreateScheduleEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toScheduleEntryResponse(entry), nil
}

func (s *Service) GetSchedule(ctx context.Context, tutorID string) ([]*api.ScheduleEntryResponse, error) {
	const op = "service.GetSchedule"

	entries, err := s.store.ListScheduleEntries(ctx, tutorID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.ScheduleEntryResponse, 0, len(entries))
	for _, entry := range entries {
		result = append(result, toScheduleEntryResponse(entry))
	}

	return result, nil
}

func (s *Service) RemoveScheduleEntry(ctx context.Context, id string) error {
	const op = "service.RemoveScheduleEntry"

	if err := s.store.DeleteScheduleEntry(ctx, id); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Blackout dates

func (s *Service) AddBlackout(ctx context.Context, req *api.BlackoutRequest) (*api.BlackoutResponse, error) {
	const op = "service.AddBlackout"

	if strings.TrimSpace(req.Reason) == "" {
		return nil, fmt.Errorf("%s: empty reason: %w", op, response.ErrBadRequest)
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid date: %w", op, response.ErrBadRequest)
	}

	blackout := &models.BlackoutDate{
		ID:      uuid.NewString(),
		TutorID: req.TutorID,
		Date:    date,
		Reason:  req.Reason,
	}

	// A blackout evicts the day's confirmed bookings in the same commit.
	cancelled, err := s.store.CreateBlackoutAndCancelBookings(ctx, blackout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cancelledIDs := make([]string, 0, len(cancelled))
	for _, booking := range cancelled {
		cancelledIDs = append(cancelledIDs, booking.ID)
		s.publish(ctx, booking, notify.ReasonBlackout)
	}

	return &api.BlackoutResponse{
		ID:                blackout.ID,
		TutorID:           blackout.TutorID,
		Date:              req.Date,
		Reason:            blackout.Reason,
		CancelledBookings: cancelledIDs,
	}, nil
}

func (s *Service) ListBlackouts(ctx context.Context, tutorID string) ([]*api.BlackoutResponse, error) {
	const op = "service.ListBlackouts"

	blackouts, err := s.store.ListBlackouts(ctx, tutorID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.BlackoutResponse, 0, len(blackouts))
	for _, blackout := range blackouts {
		result = append(result, &api.BlackoutResponse{
			ID:      blackout.ID,
			TutorID: blackout.TutorID,
			Date:    blackout.Date.Format("2006-01-02"),
			Reason:  blackout.Reason,
		})
	}

	return result, nil
}

func (s *Service) RemoveBlackout(ctx context.Context, id string) error {
	const op = "service.RemoveBlackout"

	if err := s.store.DeleteBlackout(ctx, id); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// publish sends the transition event; a notification failure never rolls
// back a committed state change.
func (s *Service) publish(ctx context.Context, booking *models.Booking, reason string) {
	_ = s.notifier.BookingEvent(ctx, notify.Event{
		BookingID: booking.ID,
		StudentID: booking.StudentID,
		TutorID:   booking.TutorID,
		Status:    string(booking.Status),
		Reason:    reason,
		At:        s.now(),
	})
}

func toBookingResponse(b *models.Booking) *api.BookingResponse {
	return &api.BookingResponse{
		ID:        b.ID,
		StudentID: b.StudentID,
		TutorID:   b.TutorID,
		Date:      b.Date.Format("2006-01-02"),
		Start:     formatClock(b.Interval.Start),
		End:       formatClock(b.Interval.End),
		Subject:   b.Subject,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt,
	}
}

func toScheduleEntryResponse(e *models.ScheduleEntry) *api.ScheduleEntryResponse {
	return &api.ScheduleEntryResponse{
		ID:      e.ID,
		TutorID: e.TutorID,
		Weekday: e.Weekday.String(),
		Start:   formatClock(e.Interval.Start),
		End:     formatClock(e.Interval.End),
	}
}

func parseInterval(start, end string) (models.Interval, error) {
	startMin, err := engine.ParseClock(start)
	if err != nil {
		return models.Interval{}, fmt.Errorf("invalid start: %w", err)
	}

	endMin, err := engine.ParseClock(end)
	if err != nil {
		return models.Interval{}, fmt.Errorf("invalid end: %w", err)
	}

	return models.Interval{Start: startMin, End: endMin}, nil
}

func formatClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// parseWeekday accepts the spellings that commonly arrive in requests:
// "mon", "Monday", "1" (Monday=1 .. Sunday=7, or Sunday=0).
func parseWeekday(s string) (time.Weekday, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, false
	}

	if n, err := strconv.Atoi(s); err == nil {
		if n >= 0 && n <= 6 {
			return time.Weekday(n), true
		}
		if n == 7 {
			return time.Sunday, true
		}
		return 0, false
	}

	switch s {
	case "sun", "sunday":
		return time.Sunday, true
	case "mon", "monday":
		return time.Monday, true
	case "tue", "tues", "tuesday":
		return time.Tuesday, true
	case "wed", "wednesday":
		return time.Wednesday, true
	case "thu", "thur", "thursday":
		return time.Thursday, true
	case "fri", "friday":
		return time.Friday, true
	case "sat", "saturday":
		return time.Saturday, true
	default:
		return 0, false
	}
}
