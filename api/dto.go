package api

import "time"

type BookingCreateRequest struct {
	StudentID string `json:"student_id"`
	TutorID   string `json:"tutor_id"`
	Date      string `json:"date"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Subject   string `json:"subject"`
}

type BookingResponse struct {
	ID        string    `json:"booking_id"`
	StudentID string    `json:"student_id"`
	TutorID   string    `json:"tutor_id"`
	Date      string    `json:"date"`
	Start     string    `json:"start"`
	End       string    `json:"end"`
	Subject   string    `json:"subject"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type BookingCompleteRequest struct {
	AwaitFeedback bool `json:"await_feedback"`
}

type AvailabilityResponse struct {
	TutorID   string `json:"tutor_id"`
	Date      string `json:"date"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

type ScheduleEntryRequest struct {
	TutorID string `json:"tutor_id"`
	Weekday string `json:"weekday"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

type ScheduleEntryResponse struct {
	ID      string `json:"entry_id"`
	TutorID string `json:"tutor_id"`
	Weekday string `json:"weekday"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

type BlackoutRequest struct {
	TutorID string `json:"tutor_id"`
	Date    string `json:"date"`
	Reason  string `json:"reason"`
}

type BlackoutResponse struct {
	ID                string   `json:"blackout_id"`
	TutorID           string   `json:"tutor_id"`
	Date              string   `json:"date"`
	Reason            string   `json:"reason"`
	CancelledBookings []string `json:"cancelled_bookings,omitempty"`
}
