package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"tutor-service/api"
	"tutor-service/internal/engine"
	"tutor-service/pkg/response"
	"tutor-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type BookingCreator interface {
	CreateBooking(ctx context.Context, req *api.BookingCreateRequest) (*api.BookingResponse, error)
}

type Request struct {
	api.BookingCreateRequest
}

type Response struct {
	response.Response
	Booking api.BookingResponse `json:"booking,omitempty"`
}

func New(log *slog.Logger, creator BookingCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.create.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		log.Info("Request body decoded", slog.Any("request", req))

		if req.StudentID == "" || req.TutorID == "" {
			log.Error("student_id or tutor_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "student_id and tutor_id are required"))
			return
		}

		booking, err := creator.CreateBooking(r.Context(), &req.BookingCreateRequest)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("bad request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid date or time"))
			return
		}

		if errors.Is(err, response.ErrLocked) {
			log.Error("resource is locked")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "resource is locked"))
			return
		}

		if errors.Is(err, engine.ErrTooSoon) {
			log.Error("date is too soon")
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(string(response.TOO_SOON), "date is before the minimum lead time"))
			return
		}

		if errors.Is(err, engine.ErrWeekend) {
			log.Error("date falls on a weekend")
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(string(response.WEEKEND), "date falls on a weekend"))
			return
		}

		if errors.Is(err, engine.ErrOutsideHours) {
			log.Error("interval is outside business hours")
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(string(response.OUTSIDE_HOURS), "interval is outside business hours"))
			return
		}

		if errors.Is(err, engine.ErrInvalidOrder) {
			log.Error("interval end is not after start")
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(string(response.INVALID_ORDER), "interval end must be after start"))
			return
		}

		var unavailable *engine.UnavailableError
		if errors.As(err, &unavailable) {
			log.Error("tutor unavailable", slog.String("reason", unavailable.Reason))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.UNAVAILABLE), unavailable.Reason))
			return
		}

		if errors.Is(err, engine.ErrSlotTaken) {
			log.Error("slot is taken")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.SLOT_TAKEN), "slot conflicts with an active booking"))
			return
		}

		if errors.Is(err, engine.ErrDoubleBooked) {
			log.Error("student is double booked")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.DOUBLE_BOOKED), "student already has an active booking in this interval"))
			return
		}

		if errors.Is(err, response.ErrAlreadyBooked) {
			log.Error("lost commit-time race for the slot")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.ALREADY_BOOKED), "slot was booked concurrently"))
			return
		}

		if err != nil {
			log.Error("Failed to create booking", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create booking"))
			return
		}

		log.Info("Booking created", slog.Any("booking", booking))

		w.WriteHeader(http.StatusCreated)
		responseOK(w, r, booking)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, booking *api.BookingResponse) {
	render.JSON(w, r, Response{
		Booking: *booking,
	})
}
