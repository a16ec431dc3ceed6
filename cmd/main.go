// Package main provides the entry point for the organizer portal.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/NirmalKumar12345/athilitics-web-sub001/internal/authapi"
	"github.com/NirmalKumar12345/athilitics-web-sub001/internal/config"
	"github.com/NirmalKumar12345/athilitics-web-sub001/internal/handler"
	"github.com/NirmalKumar12345/athilitics-web-sub001/internal/logger"
	"github.com/NirmalKumar12345/athilitics-web-sub001/internal/middleware"
	"github.com/NirmalKumar12345/athilitics-web-sub001/internal/storage"
	"github.com/NirmalKumar12345/athilitics-web-sub001/internal/verification"
)

const limiterIdle = time.Hour

// Run is the testable entrypoint for the application.
func Run(ctx context.Context) error {
	config.LoadDotEnv()
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()
	log.Info("Starting organizer portal",
		zap.String("storage", cfg.StorageDriver),
		zap.String("api", cfg.APIBaseURL))

	store, closeStore, err := newStore(ctx, cfg, log)
	if err != nil {
		log.Error("unable to open session storage", zap.Error(err))
		return err
	}
	defer closeStore()

	validate := validator.New()
	verifier, err := verification.New(validate)
	if err != nil {
		return fmt.Errorf("error registering validations: %w", err)
	}

	api := authapi.NewClient(cfg.APIBaseURL, cfg.APITimeout, log)
	h := handler.New(log, store, api, validate, verifier, handler.Options{
		SessionTTL:        cfg.SessionTTL,
		TokenTTL:          cfg.TokenTTL,
		DefaultRetryAfter: cfg.DefaultRetryAfter,
		CountdownInterval: cfg.CountdownInterval,
	})
	limiter := middleware.NewRateLimiter(cfg.OTPRateInterval, cfg.OTPRateBurst, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(cfg, log, h, limiter),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go limiter.Cleanup(ctx, 10*time.Minute, limiterIdle)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
		return err
	}

	log.Info("Shutting down server")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	return nil
}

func newRouter(cfg *config.Config, log *zap.Logger, h *handler.Handler, limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)

	r.Get("/healthz", h.Healthz)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(cfg.SessionTTL, cfg.Env == "production", log))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/mobile", h.SetMobileNumber)
			r.With(limiter.Limit).Post("/send-otp", h.SendOTP)
			r.With(limiter.Limit).Post("/resend-otp", h.ResendOTP)
			r.Post("/verify-otp", h.VerifyOTP)
			r.Post("/sign-up", h.SignUp)
			r.Post("/logout", h.Logout)
			r.Get("/status", h.Status)
			r.Get("/countdown", h.Countdown)
		})
		r.Get("/organizer/profile", h.Profile)
	})

	r.Route("/verification", func(r chi.Router) {
		r.Post("/validate", h.ValidateDocument)
		r.Post("/validate-field", h.ValidateField)
		r.Get("/id-format-hint", h.IDFormatHint)
	})
	return r
}

func newStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.Store, func(), error) {
	switch cfg.StorageDriver {
	case "", "memory":
		return storage.NewMemoryStore(), func() {}, nil
	case "redis":
		client, err := storage.ConnectRedis(ctx, storage.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		store := storage.NewRedisStore(client)
		return store, func() {
			if err := store.Close(); err != nil {
				log.Warn("unable to close redis", zap.Error(err))
			}
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := Run(ctx); err != nil {
		os.Exit(1)
	}
}
