package search

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"tutor-service/internal/engine"
	"tutor-service/pkg/response"
	"tutor-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type TutorSearcher interface {
	SearchAvailableTutors(ctx context.Context, date, start, end string) ([]string, error)
}

type Response struct {
	response.Response
	TutorIDs []string `json:"tutor_ids"`
}

func New(log *slog.Logger, searcher TutorSearcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tutors.search.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		date := r.URL.Query().Get("date")
		start := r.URL.Query().Get("start")
		end := r.URL.Query().Get("end")

		if date == "" || start == "" || end == "" {
			log.Error("missing query parameters")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "date, start and end are required"))
			return
		}

		tutorIDs, err := searcher.SearchAvailableTutors(r.Context(), date, start, end)

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
			log.Error("Failed to search tutors", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to search tutors"))
			return
		}

		log.Info("Tutors searched", slog.Int("count", len(tutorIDs)))

		render.JSON(w, r, Response{
			TutorIDs: tutorIDs,
		})
	}
}
