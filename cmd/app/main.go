package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tutor-service/internal/config"
	availCheck "tutor-service/internal/http-server/handlers/availability/check"
	blackoutCreate "tutor-service/internal/http-server/handlers/blackouts/create"
	blackoutDelete "tutor-service/internal/http-server/handlers/blackouts/delete"
	blackoutGet "tutor-service/internal/http-server/handlers/blackouts/get"
	bookingCancel "tutor-service/internal/http-server/handlers/bookings/cancel"
	bookingComplete "tutor-service/internal/http-server/handlers/bookings/complete"
	bookingConfirm "tutor-service/internal/http-server/handlers/bookings/confirm"
	bookingCreate "tutor-service/internal/http-server/handlers/bookings/create"
	bookingDecline "tutor-service/internal/http-server/handlers/bookings/decline"
	bookingFeedback "tutor-service/internal/http-server/handlers/bookings/feedback"
	bookingGet "tutor-service/internal/http-server/handlers/bookings/get"
	bookingStart "tutor-service/internal/http-server/handlers/bookings/start"
	scheduleAdd "tutor-service/internal/http-server/handlers/schedule/add"
	scheduleGet "tutor-service/internal/http-server/handlers/schedule/get"
	scheduleRemove "tutor-service/internal/http-server/handlers/schedule/remove"
	tutorSearch "tutor-service/internal/http-server/handlers/tutors/search"
	"tutor-service/internal/lock"
	"tutor-service/internal/notify"
	svc "tutor-service/internal/service"
	"tutor-service/internal/storage/postgres"
	slogpretty "tutor-service/pkg/handlers/slogPretty"
	"tutor-service/pkg/middleware/mwLogger"
	"tutor-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	storage, err := postgres.New(cfg.StoragePath)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	locker, err := lock.NewRedisLock(cfg.RedisAddr)
	if err != nil {
		log.Error("Failed to init redis lock", sl.Err(err))
		os.Exit(1)
	}

	notifier, err := notify.NewRedisNotifier(cfg.RedisAddr, cfg.Booking.NotifyChannel)
	if err != nil {
		log.Error("Failed to init notifier", sl.Err(err))
		os.Exit(1)
	}

	service := svc.NewService(storage, locker, notifier, cfg.Booking)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go service.RunPendingSweeper(sweepCtx, log, cfg.Booking.SweepInterval)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)

	// Bookings
	router.Post("/bookings", bookingCreate.New(log, service))
	router.Get("/bookings", bookingGet.New(log, service))
	router.Get("/bookings/{id}", bookingGet.New(log, service))
	router.Post("/bookings/{id}/confirm", bookingConfirm.New(log, service))
	router.Post("/bookings/{id}/decline", bookingDecline.New(log, service))
	router.Post("/bookings/{id}/cancel", bookingCancel.New(log, service))
	router.Post("/bookings/{id}/start", bookingStart.New(log, service))
	router.Post("/bookings/{id}/complete", bookingComplete.New(log, service))
	router.Post("/bookings/{id}/feedback", bookingFeedback.New(log, service))

	// Availability
	router.Get("/availability", availCheck.New(log, service))
	router.Get("/tutors/available", tutorSearch.New(log, service))

	// Weekly schedule
	router.Post("/schedule", scheduleAdd.New(log, service))
	router.Get("/schedule/{tutor_id}", scheduleGet.New(log, service))
	router.Delete("/schedule/{id}", scheduleRemove.New(log, service))

	// Blackout dates
	router.Post("/blackouts", blackoutCreate.New(log, service))
	router.Get("/blackouts", blackoutGet.New(log, service))
	router.Delete("/blackouts/{id}", blackoutDelete.New(log, service))

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	stopSweep()

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	if storage != nil {
		if err := storage.Close(); err != nil {
			log.Error("Failed to close storage", sl.Err(err))
		} else {
			log.Info("Storage closed")
		}
	}

	if locker != nil {
		if err := locker.Close(); err != nil {
			log.Error("Failed to close locker", sl.Err(err))
		} else {
			log.Info("Locker closed")
		}
	}

	if notifier != nil {
		if err := notifier.Close(); err != nil {
			log.Error("Failed to close notifier", sl.Err(err))
		} else {
			log.Info("Notifier closed")
		}
	}

	log.Info("Shutdown finished, server stopped")

}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
