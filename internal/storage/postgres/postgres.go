package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tutor-service/internal/models"
	"tutor-service/pkg/response"

	"github.com/lib/pq"
)

// The bookings table must carry an exclusion constraint so that a booking
// entering an active status can never overlap another active booking of the
// same tutor on the same date, no matter how the in-memory pre-check raced:
//
//	ALTER TABLE bookings ADD CONSTRAINT bookings_no_active_overlap
//	EXCLUDE USING gist (
//		tutor_id WITH =,
//		booking_date WITH =,
//		int4range(start_min, end_min) WITH &&
//	) WHERE (status IN ('confirmed', 'started', 'awaiting_feedback'));
//
// A violation surfaces as SQLSTATE 23P01 and is mapped to ErrAlreadyBooked.
type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// #### bookings ####

func (s *Storage) CreateBooking(ctx context.Context, booking *models.Booking) error {
	const op = "storage.postgres.CreateBooking"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bookings
		(booking_id, student_id, tutor_id, booking_date, start_min, end_min, subject, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		booking.ID,
		booking.StudentID,
		booking.TutorID,
		booking.Date,
		booking.Interval.Start,
		booking.Interval.End,
		booking.Subject,
		string(booking.Status),
		booking.CreatedAt,
	)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23P01" {
			return fmt.Errorf("%s: %w", op, response.ErrAlreadyBooked)
		}
		if ok && sqlErr.Code == "23505" {
			return fmt.Errorf("%s: %w", op, response.ErrConflict)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	const op = "storage.postgres.GetBooking"

	var booking models.Booking

	err := s.db.QueryRowContext(ctx,
		`SELECT booking_id, student_id, tutor_id, booking_date, start_min, end_min, subject, status, created_at
		FROM bookings WHERE booking_id=$1`, id).
		Scan(
			&booking.ID,
			&booking.StudentID,
			&booking.TutorID,
			&booking.Date,
			&booking.Interval.Start,
			&booking.Interval.End,
			&booking.Subject,
			&booking.Status,
			&booking.CreatedAt,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &booking, nil
}

func (s *Storage) ListBookings(ctx context.Context, studentID, tutorID, status *string) ([]*models.Booking, error) {
	const op = "storage.postgres.ListBookings"

	query := `SELECT booking_id, student_id, tutor_id, booking_date, start_min, end_min, subject, status, created_at
		FROM bookings WHERE 1=1`
	args := []any{}

	if studentID != nil {
		args = append(args, *studentID)
		query += fmt.Sprintf(" AND student_id=$%d", len(args))
	}
	if tutorID != nil {
		args = append(args, *tutorID)
		query += fmt.Sprintf(" AND tutor_id=$%d", len(args))
	}
	if status != nil {
		args = append(args, *status)
		query += fmt.Sprintf(" AND status=$%d", len(args))
	}

	query += " ORDER BY booking_date, start_min"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	return scanBookings(rows, op)
}

func (s *Storage) ListActiveBookingsByTutor(ctx context.Context, tutorID string, date time.Time) ([]*models.Booking, error) {
	const op = "storage.postgres.ListActiveBookingsByTutor"

	rows, err := s.db.QueryContext(ctx,
		`SELECT booking_id, student_id, tutor_id, booking_date, start_min, end_min, subject, status, created_at
		FROM bookings
		WHERE tutor_id=$1 AND booking_date=$2
		AND status IN ('confirmed', 'started', 'awaiting_feedback')`,
		tutorID, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	return scanBookings(rows, op)
}

func (s *Storage) ListActiveBookingsByStudent(ctx context.Context, studentID string, date time.Time) ([]*models.Booking, error) {
	const op = "storage.postgres.ListActiveBookingsByStudent"

	rows, err := s.db.QueryContext(ctx,
		`SELECT booking_id, student_id, tutor_id, booking_date, start_min, end_min, subject, status, created_at
		FROM bookings
		WHERE student_id=$1 AND booking_date=$2
		AND status IN ('confirmed', 'started', 'awaiting_feedback')`,
		studentID, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	return scanBookings(rows, op)
}

func (s *Storage) ListPendingBookings(ctx context.Context) ([]*models.Booking, error) {
	const op = "storage.postgres.ListPendingBookings"

	rows, err := s.db.QueryContext(ctx,
		`SELECT booking_id, student_id, tutor_id, booking_date, start_min, end_min, subject, status, created_at
		FROM bookings WHERE status='pending'`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	return scanBookings(rows, op)
}

// UpdateBookingStatusIf performs the compare-and-swap status change: the
// update applies only while the booking is still in the expected status.
// Confirming a slot that overlaps another active booking trips the
// exclusion constraint and is reported as ErrAlreadyBooked.
func (s *Storage) UpdateBookingStatusIf(ctx context.Context, bookingID string, from, to models.BookingStatus) error {
	const op = "storage.postgres.UpdateBookingStatusIf"

	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET status=$1 WHERE booking_id=$2 AND status=$3`,
		string(to), bookingID, string(from))
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23P01" {
			return fmt.Errorf("%s: %w", op, response.ErrAlreadyBooked)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if n == 0 {
		var current string
		err := s.db.QueryRowContext(ctx, `SELECT status FROM bookings WHERE booking_id=$1`, bookingID).Scan(&current)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		return fmt.Errorf("%s: status is %q, not %q: %w", op, current, from, response.ErrConflict)
	}

	return nil
}

// CreateBlackoutAndCancelBookings inserts the blackout and cancels the
// tutor's confirmed bookings on that date in one transaction, returning the
// cancelled bookings so the affected students can be notified.
func (s *Storage) CreateBlackoutAndCancelBookings(ctx context.Context, blackout *models.BlackoutDate) ([]*models.Booking, error) {
	const op = "storage.postgres.CreateBlackoutAndCancelBookings"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO blackout_dates (blackout_id, tutor_id, blackout_date, reason)
		VALUES ($1, $2, $3, $4)`,
		blackout.ID,
		blackout.TutorID,
		blackout.Date,
		blackout.Reason,
	)
	if err != nil {
		_ = tx.Rollback()

		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23505" {
			return nil, fmt.Errorf("%s: %w", op, response.ErrConflict)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := tx.QueryContext(ctx,
		`UPDATE bookings SET status='cancelled'
		WHERE tutor_id=$1 AND booking_date=$2 AND status='confirmed'
		RETURNING booking_id, student_id, tutor_id, booking_date, start_min, end_min, subject, status, created_at`,
		blackout.TutorID, blackout.Date)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cancelled, err := scanBookings(rows, op)
	rows.Close()
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return cancelled, nil
}

func scanBookings(rows *sql.Rows, op string) ([]*models.Booking, error) {
	var bookings []*models.Booking

	for rows.Next() {
		var booking models.Booking

		err := rows.Scan(
			&booking.ID,
			&booking.StudentID,
			&booking.TutorID,
			&booking.Date,
			&booking.Interval.Start,
			&booking.Interval.End,
			&booking.Subject,
			&booking.Status,
			&booking.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		bookings = append(bookings, &booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bookings, nil
}

// #### weekly schedule ####

func (s *Storage) CreateScheduleEntry(ctx context.Context, entry *models.ScheduleEntry) error {
	const op = "storage.postgres.CreateScheduleEntry"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO schedule_entries (entry_id, tutor_id, weekday, start_min, end_min)
		VALUES ($1, $2, $3, $4, $5)`,
		entry.ID,
		entry.TutorID,
		int(entry.Weekday),
		entry.Interval.Start,
		entry.Interval.End,
	)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23505" {
			return fmt.Errorf("%s: %w", op, response.ErrConflict)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) ListScheduleEntries(ctx context.Context, tutorID string) ([]*models.ScheduleEntry, error) {
	const op = "storage.postgres.ListScheduleEntries"

	rows, err := s.db.QueryContext(ctx,
		`SELECT entry_id, tutor_id, weekday, start_min, end_min
		FROM schedule_entries WHERE tutor_id=$1
		ORDER BY weekday, start_min`, tutorID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var entries []*models.ScheduleEntry

	for rows.Next() {
		var entry models.ScheduleEntry
		var weekday int

		err := rows.Scan(
			&entry.ID,
			&entry.TutorID,
			&weekday,
			&entry.Interval.Start,
			&entry.Interval.End,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		entry.Weekday = time.Weekday(weekday)

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return entries, nil
}

func (s *Storage) DeleteScheduleEntry(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteScheduleEntry"

	res, err := s.db.ExecContext(ctx, `DELETE FROM schedule_entries WHERE entry_id=$1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) ListTutorsWithSchedule(ctx context.Context) ([]string, error) {
	const op = "storage.postgres.ListTutorsWithSchedule"

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT tutor_id FROM schedule_entries`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var tutorIDs []string

	for rows.Next() {
		var tutorID string

		if err := rows.Scan(&tutorID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		tutorIDs = append(tutorIDs, tutorID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tutorIDs, nil
}

// #### blackout dates ####

func (s *Storage) ListBlackouts(ctx context.Context, tutorID string) ([]*models.BlackoutDate, error) {
	const op = "storage.postgres.ListBlackouts"

	rows, err := s.db.QueryContext(ctx,
		`SELECT blackout_id, tutor_id, blackout_date, reason
		FROM blackout_dates WHERE tutor_id=$1
		ORDER BY blackout_date`, tutorID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var blackouts []*models.BlackoutDate

	for rows.Next() {
		var blackout models.BlackoutDate

		err := rows.Scan(
			&blackout.ID,
			&blackout.TutorID,
			&blackout.Date,
			&blackout.Reason,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		blackouts = append(blackouts, &blackout)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return blackouts, nil
}

func (s *Storage) DeleteBlackout(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteBlackout"

	res, err := s.db.ExecContext(ctx, `DELETE FROM blackout_dates WHERE blackout_id=$1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}
