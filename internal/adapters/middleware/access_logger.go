package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/architeacher/svc-job-worker/internal/infrastructure"
)

type skipAccessLogKey struct{}

type AccessLogger struct {
	logger *infrastructure.Logger
}

func NewAccessLogger(logger *infrastructure.Logger) *AccessLogger {
	return &AccessLogger{
		logger: logger.Component("http_access"),
	}
}

func (a *AccessLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if skip, ok := r.Context().Value(skipAccessLogKey{}).(bool); ok && skip {
			next.ServeHTTP(w, r)

			return
		}

		startTime := time.Now()
		recorder := newStatusRecorder(w)

		next.ServeHTTP(recorder, r)

		duration := time.Since(startTime)

		logEvent := a.logger.WithLevel(levelFor(recorder.statusCode)).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Str("user_agent", r.UserAgent()).
			Int("status_code", recorder.statusCode).
			Int64("response_size_bytes", recorder.bytesWritten).
			Dur("duration", duration)

		if requestID := chimiddleware.GetReqID(r.Context()); requestID != "" {
			logEvent.Str("request_id", requestID)
		}

		logEvent.Msg("HTTP request completed")
	})
}

func levelFor(statusCode int) zerolog.Level {
	switch {
	case statusCode >= http.StatusInternalServerError:
		return zerolog.ErrorLevel
	case statusCode >= http.StatusBadRequest:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}
