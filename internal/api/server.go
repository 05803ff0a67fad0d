// ABOUTME: HTTP router assembly and server lifecycle for `fitlog serve`.
// ABOUTME: chi router with CORS, request IDs, zap logging, and graceful shutdown.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/harperreed/fitlog/internal/records"
	"go.uber.org/zap"
)

// Options configures the router.
type Options struct {
	// AllowedOrigins restricts CORS; empty allows every origin.
	AllowedOrigins []string
}

// NewRouter builds the HTTP handler over the record services.
func NewRouter(svc *records.Services, logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(ZapRequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := svc.Store().Ping(req.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, envelope{"status": "unavailable", "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, envelope{"status": "ok"})
	})

	mountUsers(r, svc)
	mountKind(r, svc.Workouts, workoutRoutes, "lastWorkoutId")
	mountKind(r, svc.Nutrition, nutritionRoutes, "")
	mountKind(r, svc.Achievements, achievementRoutes, "")
	mountKind(r, svc.Metrics, metricRoutes, "")
	mountKind(r, svc.Goals, goalRoutes, "")
	mountKind(r, svc.SocialPosts, socialPostRoutes, "")

	return r
}

// Serve runs the HTTP server on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
