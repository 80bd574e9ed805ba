package add

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

type ScheduleAdder interface {
	AddScheduleEntry(ctx context.Context, req *api.ScheduleEntryRequest) (*api.ScheduleEntryResponse, error)
}

type Request struct {
	api.ScheduleEntryRequest
}

type Response struct {
	response.Response
	Entry api.ScheduleEntryResponse `json:"entry,omitempty"`
}

func New(log *slog.Logger, adder ScheduleAdder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.schedule.add.New"

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

		if req.TutorID == "" {
			log.Error("tutor_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "tutor_id is required"))
			return
		}

		entry, err := adder.AddScheduleEntry(r.Context(), &req.ScheduleEntryRequest)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("bad request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid weekday or time"))
			return
		}

		if errors.Is(err, engine.ErrWeekend) {
			log.Error("weekday falls on a weekend")
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(string(response.WEEKEND), "weekly schedule covers Monday to Friday only"))
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

		if errors.Is(err, response.ErrConflict) {
			log.Error("entry overlaps an existing one")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CONFLICT), "entry overlaps an existing one"))
			return
		}

		if err != nil {
			log.Error("Failed to add schedule entry", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to add schedule entry"))
			return
		}

		log.Info("Schedule entry added", slog.Any("entry", entry))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Entry: *entry,
		})
	}
}
