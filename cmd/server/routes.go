package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/himanishpuri/LyricSync/pkg/logger"
)

// Handler registers all HTTP routes and middleware
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(loggingMiddleware)

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)

	// Health endpoints
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/health/metrics", s.handleMetrics).Methods(http.MethodGet)

	// Transcript management endpoints
	r.HandleFunc("/api/transcripts", s.handleListTranscripts).Methods(http.MethodGet)
	r.HandleFunc("/api/transcripts", s.handleAddTranscript).Methods(http.MethodPost)
	r.HandleFunc("/api/transcripts/{id}", s.handleGetTranscript).Methods(http.MethodGet)
	r.HandleFunc("/api/transcripts/{id}", s.handleDeleteTranscript).Methods(http.MethodDelete)
	r.HandleFunc("/api/transcripts/{id}/lines", s.handleLines).Methods(http.MethodGet)
	r.HandleFunc("/api/transcripts/{id}/resolve", s.handleResolve).Methods(http.MethodGet)

	// Session endpoints
	r.HandleFunc("/api/sessions", s.handleOpenSession).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions/{id}", s.withSession(nil)).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/{id}", s.handleCloseSession).Methods(http.MethodDelete)
	r.HandleFunc("/api/sessions/{id}/time", s.withSession(setTime)).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions/{id}/heights", s.withSession(reportHeights)).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions/{id}/viewport", s.withSession(setViewport)).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions/{id}/scroll", s.withSession(userScroll)).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions/{id}/jump", s.withSession(jumpToCurrent)).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusNotFound, "No such endpoint")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		AllowCredentials: !allowsAll(s.config.AllowedOrigins),
		MaxAge:           3600,
	})
	return c.Handler(r)
}

func allowsAll(origins []string) bool {
	return len(origins) == 0 || (len(origins) == 1 && origins[0] == "*")
}

// loggingMiddleware logs all HTTP requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Create a response writer wrapper to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(wrapped, r)

		logger.GetLogger().Debugf("%s %s from %s -> %d (%s)",
			r.Method, r.URL.Path, getClientIP(r), wrapped.statusCode, time.Since(start))
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs, take the first one
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// Run serves until ctx is cancelled, then shuts down and closes all sessions.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Infof("LyricSync server starting on %s", s.config.Addr)
	s.log.Infof("   Storage: %s", s.config.Backend)
	s.log.Infof("   CORS Origins: %v", s.config.AllowedOrigins)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Infof("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.sessions.closeAll()
	return err
}
