package domain

import (
	"time"
)

type (
	// DependencyStatus represents the health status of a dependency
	DependencyStatus struct {
		Status       DependencyCheckStatus `json:"status"`
		ResponseTime float32               `json:"response_time_ms"`
		LastChecked  time.Time             `json:"last_checked"`
		Error        string                `json:"error,omitempty"`
	}

	// WorkerStatus reports the supervisor of a running worker.
	WorkerStatus struct {
		Name       string `json:"name"`
		State      string `json:"state"`
		Reconnects int64  `json:"reconnects"`
	}

	// SecretCredentials selects how the service logs in to the secret store.
	SecretCredentials struct {
		Method   string
		Token    string
		RoleID   string
		SecretID string
	}

	// SecretBundle is one version of the flat key/value secrets of the service.
	SecretBundle struct {
		Values  map[string]any
		Version uint
	}

	// HealthResult contains health check results for the worker process
	HealthResult struct {
		OverallStatus HealthResponseStatus `json:"status"`
		Worker        WorkerStatus         `json:"worker"`
		Cache         *DependencyStatus    `json:"cache,omitempty"`
		Uptime        float32              `json:"uptime_seconds"`
	}
)
