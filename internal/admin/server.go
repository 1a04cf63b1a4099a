package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/testgen/internal/bot"
)

// shutdownTimeout — сколько ждать завершения запросов при остановке.
const shutdownTimeout = 5 * time.Second

// StatusProvider — источник состояния для /status.
type StatusProvider interface {
	Status() bot.Status
}

// Config — конфигурация admin сервера.
type Config struct {
	Addr   string
	Status StatusProvider

	// Health проверяет транспорт. Nil — только liveness.
	Health func() error

	// Gatherer — реестр метрик (по умолчанию prometheus.DefaultGatherer).
	Gatherer prometheus.Gatherer

	Logger *slog.Logger
}

// Server — admin HTTP сервер.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewHandler собирает mux со всеми endpoints.
func NewHandler(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	chain := Chain(
		Recovery(logger),
		Logging(logger),
	)

	mux := http.NewServeMux()
	mux.Handle("/healthz", chain(healthHandler(cfg.Health)))
	mux.Handle("/metrics", chain(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	mux.Handle("/status", chain(statusHandler(cfg.Status)))
	return mux
}

func healthHandler(check func() error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if check != nil {
			if err := check(); err != nil {
				Unavailable(w, err.Error())
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
}

func statusHandler(provider StatusProvider) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			MethodNotAllowed(w)
			return
		}
		if provider == nil {
			Unavailable(w, "status not available")
			return
		}
		Success(w, provider.Status())
	})
}

// New создаёт сервер.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg.Logger = logger.With("component", "admin")

	return &Server{
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewHandler(cfg),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: cfg.Logger,
	}
}

// Run обслуживает запросы до отмены ctx.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
