package check

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

type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, tutorID, date, start, end string) (*api.AvailabilityResponse, error)
}

type Response struct {
	response.Response
	Availability *api.AvailabilityResponse `json:"availability,omitempty"`
}

func New(log *slog.Logger, checker AvailabilityChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.check.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		tutorID := r.URL.Query().Get("tutor_id")
		date := r.URL.Query().Get("date")
		start := r.URL.Query().Get("start")
		end := r.URL.Query().Get("end")

		if tutorID == "" || date == "" || start == "" || end == "" {
			log.Error("missing query parameters")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "tutor_id, date, start and end are required"))
			return
		}

		availability, err := checker.CheckAvailability(r.Context(), tutorID, date, start, end)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("bad request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid date or time"))
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

		if err != nil {
			log.Error("Failed to check availability", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to check availability"))
			return
		}

		log.Info("Availability checked", slog.Any("availability", availability))

		render.JSON(w, r, Response{
			Availability: availability,
		})
	}
}
