package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"tutor-service/api"
	"tutor-service/pkg/response"
	"tutor-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type BlackoutCreator interface {
	AddBlackout(ctx context.Context, req *api.BlackoutRequest) (*api.BlackoutResponse, error)
}

type Request struct {
	api.BlackoutRequest
}

type Response struct {
	response.Response
	Blackout api.BlackoutResponse `json:"blackout,omitempty"`
}

func New(log *slog.Logger, creator BlackoutCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.blackouts.create.New"

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

		blackout, err := creator.AddBlackout(r.Context(), &req.BlackoutRequest)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("bad request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "date and a non-empty reason are required"))
			return
		}

		if errors.Is(err, response.ErrConflict) {
			log.Error("blackout already exists for the date")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CONFLICT), "blackout already exists for the date"))
			return
		}

		if err != nil {
			log.Error("Failed to add blackout", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to add blackout"))
			return
		}

		log.Info("Blackout added", slog.Any("blackout", blackout))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Blackout: *blackout,
		})
	}
}
