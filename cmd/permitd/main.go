// Command permitd is a small demonstration server that rate-limits requests
// per client IP with a shared ceiling across all clients.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/permitkit/pkg/clientip"
	"github.com/dmitrymomot/permitkit/pkg/permit"
)

type config struct {
	Addr            string        `env:"PERMITD_ADDR" envDefault:":8080"`
	Rate            int64         `env:"PERMITD_RATE" envDefault:"10"`
	Limit           int64         `env:"PERMITD_LIMIT" envDefault:"20"`
	MaxAcquire      int64         `env:"PERMITD_MAX_ACQUIRE" envDefault:"10"`
	SharedRate      int64         `env:"PERMITD_SHARED_RATE" envDefault:"0"`
	SharedLimit     int64         `env:"PERMITD_SHARED_LIMIT" envDefault:"0"`
	Interval        time.Duration `env:"PERMITD_INTERVAL" envDefault:"1s"`
	ShutdownTimeout time.Duration `env:"PERMITD_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	LogJSON         bool          `env:"PERMITD_LOG_JSON" envDefault:"false"`
}

func main() {
	// The .env file is optional.
	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		slog.Error("failed to parse configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := newLogger(cfg)

	limiter, err := newLimiter(cfg)
	if err != nil {
		logger.Error("failed to build limiter", slog.Any("error", err))
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(permit.Middleware(limiter, clientip.FromRequest))
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("ok\n"))
	})
	r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
		key := permit.KeyOf(clientip.FromRequest(req))
		stats := limiter.Stats(key)
		logger.Info("bucket stats",
			slog.Int64("available", stats.Available),
			slog.Int64("claimed", stats.Claimed),
			slog.Int64("denied", stats.Denied),
		)
		w.Write([]byte("logged\n"))
	})

	if err := run(cfg, logger, r); err != nil {
		logger.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func newLogger(cfg config) *slog.Logger {
	var handler slog.Handler
	if cfg.LogJSON {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	return slog.New(handler)
}

func newLimiter(cfg config) (*permit.Limiter[string], error) {
	opts := []permit.Option{
		permit.WithPermitLimit(cfg.Limit),
		permit.WithMaxAcquire(cfg.MaxAcquire),
	}
	if cfg.SharedRate > 0 && cfg.SharedLimit > 0 {
		opts = append(opts, permit.WithSharedPool(cfg.SharedRate, cfg.SharedLimit))
	}
	return permit.New[string](cfg.Rate, cfg.Interval, opts...)
}

// run serves until SIGINT or SIGTERM, then drains in-flight requests within
// the configured timeout.
func run(cfg config, logger *slog.Logger, handler http.Handler) error {
	srv := &http.Server{Addr: cfg.Addr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
