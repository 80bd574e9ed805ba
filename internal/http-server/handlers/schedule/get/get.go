package get

import (
	"context"
	"log/slog"
	"net/http"

	"tutor-service/api"
	"tutor-service/pkg/response"
	"tutor-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type ScheduleGetter interface {
	GetSchedule(ctx context.Context, tutorID string) ([]*api.ScheduleEntryResponse, error)
}

type Response struct {
	response.Response
	Entries []api.ScheduleEntryResponse `json:"entries"`
}

func New(log *slog.Logger, getter ScheduleGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.schedule.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		tutorID := chi.URLParam(r, "tutor_id")
		if tutorID == "" {
			log.Error("tutor_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "tutor_id is required"))
			return
		}

		entries, err := getter.GetSchedule(r.Context(), tutorID)

		if err != nil {
			log.Error("Failed to get schedule", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get schedule"))
			return
		}

		log.Info("Schedule retrieved", slog.Int("count", len(entries)))

		entriesResponse := make([]api.ScheduleEntryResponse, len(entries))
		for i, entry := range entries {
			entriesResponse[i] = *entry
		}

		render.JSON(w, r, Response{
			Entries: entriesResponse,
		})
	}
}
