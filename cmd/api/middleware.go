package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/aryanraj/portfolio-contact/internal/contact"
	"github.com/aryanraj/portfolio-contact/internal/logging"
	"github.com/google/uuid"
)

var securityHeaders = [][2]string{
	{"Referrer-Policy", "no-referrer-when-downgrade"},
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"X-XSS-Protection", "0"},
}

func secHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, h := range securityHeaders {
			w.Header().Set(h[0], h[1])
		}
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(baseLogger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		requestLogger := baseLogger.With(
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestID,
		)

		ctx := logging.ContextWithLogger(r.Context(), requestLogger)
		r = r.WithContext(ctx)

		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if rec := recover(); rec != nil {
				requestLogger.Error("panic recovered",
					"err", rec,
					"type", fmt.Sprintf("%T", rec),
					"stack", string(debug.Stack()),
				)
				if !sr.wrote {
					contact.WriteError(sr, fmt.Errorf("panic: %v", rec))
				}
			}
			requestLogger.Log(ctx, levelFor(sr.status), "request completed",
				"status", sr.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"bytes", sr.length,
			)
		}()

		next.ServeHTTP(sr, r)
	})
}

// levelFor maps a response status to the completion log level.
func levelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	length int
	wrote  bool
}

func (sr *statusRecorder) WriteHeader(status int) {
	if !sr.wrote {
		sr.ResponseWriter.WriteHeader(status)
		sr.wrote = true
	}
	sr.status = status
}

func (sr *statusRecorder) Write(p []byte) (int, error) {
	if !sr.wrote {
		sr.WriteHeader(http.StatusOK)
	}
	n, err := sr.ResponseWriter.Write(p)
	sr.length += n
	return n, err
}
