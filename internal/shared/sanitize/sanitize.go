// Package sanitize prepares job payloads for logging.
package sanitize

import (
	"fmt"
	"strings"
)

const maxStringLen = 64

type (
	options struct {
		hideJWT   bool
		hideLists bool
	}

	Option func(*options)
)

// WithJWT keeps keys containing "jwt" in the output.
func WithJWT() Option {
	return func(o *options) {
		o.hideJWT = false
	}
}

// WithListSummary replaces list values by their length.
func WithListSummary() Option {
	return func(o *options) {
		o.hideLists = true
	}
}

// Params returns a copy of params safe to log: long strings are truncated,
// token keys are dropped and nested objects are sanitized recursively.
func Params(params map[string]any, opts ...Option) map[string]any {
	o := options{hideJWT: true}
	for _, opt := range opts {
		opt(&o)
	}

	return sanitize(params, o)
}

func sanitize(params map[string]any, o options) map[string]any {
	sanitized := make(map[string]any, len(params))

	for key, value := range params {
		if o.hideJWT && strings.Contains(key, "jwt") {
			continue
		}

		switch v := value.(type) {
		case map[string]any:
			sanitized[key] = sanitize(v, o)
		case string:
			sanitized[key] = truncate(v)
		case []any:
			if o.hideLists {
				sanitized[key] = fmt.Sprintf("List with %d items", len(v))
				continue
			}
			sanitized[key] = v
		default:
			sanitized[key] = v
		}
	}

	return sanitized
}

func truncate(s string) string {
	if len(s) <= maxStringLen {
		return s
	}

	return s[:maxStringLen] + "..truncated for print.."
}
