package get

import (
	"context"
	"log/slog"
	"net/http"

	"tutor-service/api"
	"tutor-service/pkg/response"
	"tutor-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type BlackoutGetter interface {
	ListBlackouts(ctx context.Context, tutorID string) ([]*api.BlackoutResponse, error)
}

type Response struct {
	response.Response
	Blackouts []api.BlackoutResponse `json:"blackouts"`
}

func New(log *slog.Logger, getter BlackoutGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.blackouts.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		tutorID := r.URL.Query().Get("tutor_id")
		if tutorID == "" {
			log.Error("tutor_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "tutor_id is required"))
			return
		}

		blackouts, err := getter.ListBlackouts(r.Context(), tutorID)

		if err != nil {
			log.Error("Failed to list blackouts", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list blackouts"))
			return
		}

		log.Info("Blackouts retrieved", slog.Int("count", len(blackouts)))

		blackoutsResponse := make([]api.BlackoutResponse, len(blackouts))
		for i, blackout := range blackouts {
			blackoutsResponse[i] = *blackout
		}

		render.JSON(w, r, Response{
			Blackouts: blackoutsResponse,
		})
	}
}
