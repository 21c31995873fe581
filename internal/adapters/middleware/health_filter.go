package middleware

import (
	"context"
	"net/http"
	"slices"
)

// ProbeFilter keeps orchestrator probes and metric scrapes out of the access log.
type ProbeFilter struct {
	probePaths []string
	logProbes  bool
}

func NewProbeFilter(logProbes bool, probePaths ...string) *ProbeFilter {
	return &ProbeFilter{
		probePaths: probePaths,
		logProbes:  logProbes,
	}
}

func (f *ProbeFilter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.logProbes || !slices.Contains(f.probePaths, r.URL.Path) {
			next.ServeHTTP(w, r)

			return
		}

		ctx := context.WithValue(r.Context(), skipAccessLogKey{}, true)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
