package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/lavai-rg/telegram-automation/cache"
	"github.com/lavai-rg/telegram-automation/logger"
	"github.com/lavai-rg/telegram-automation/repository"
)

// Server exposes the archive dashboard: tracker statistics, track listings
// and a live progress feed for running scans.
type Server struct {
	http     *http.Server
	tracks   repository.TrackRepository
	progress *cache.ProgressCache
	hub      *ProgressHub
}

func New(addr string, tracks repository.TrackRepository, progress *cache.ProgressCache) *Server {
	s := &Server{
		tracks:   tracks,
		progress: progress,
		hub:      NewProgressHub(progress),
	}

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	router.HandleFunc("/api/stats", s.statsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks", s.tracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/progress", s.progressHandler).Methods(http.MethodGet)
	router.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	router.HandleFunc("/ws/progress", s.progressSocketHandler)
	router.HandleFunc("/", s.indexHandler).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go s.hub.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dashboard listening", logger.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down dashboard")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
