package domain

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusStarted   JobStatus = "started"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// JobIDKey is the payload key producers may use to correlate status events.
const JobIDKey = "job_id"

type (
	// Job is a decoded queue payload bound to the worker that consumes it.
	Job struct {
		ID      string
		Worker  string
		Payload map[string]any
	}

	// JobEvent describes a job lifecycle change emitted by processors.
	JobEvent struct {
		Worker     string    `json:"worker"`
		JobID      string    `json:"job_id"`
		Status     JobStatus `json:"status"`
		Error      string    `json:"error,omitempty"`
		OccurredAt time.Time `json:"occurred_at"`
	}

	// TestPayload is the body published by the smoke publisher.
	TestPayload struct {
		MessageNumber int `json:"message_number"`
	}
)

// NewJob builds a job, reusing the producer supplied job id when present.
func NewJob(worker string, payload map[string]any) Job {
	id, _ := payload[JobIDKey].(string)
	if id == "" {
		id = uuid.NewString()
	}

	return Job{
		ID:      id,
		Worker:  worker,
		Payload: payload,
	}
}

func (j Job) Event(status JobStatus, err error) JobEvent {
	event := JobEvent{
		Worker:     j.Worker,
		JobID:      j.ID,
		Status:     status,
		OccurredAt: time.Now().UTC(),
	}

	if err != nil {
		event.Error = err.Error()
	}

	return event
}

func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// EnqueueResult describes where a job was published.
type EnqueueResult struct {
	Worker     string        `json:"worker"`
	Exchange   string        `json:"exchange"`
	RoutingKey string        `json:"routing_key"`
	Priority   uint8         `json:"priority"`
	Delay      time.Duration `json:"delay,omitempty"`
	Attempts   int           `json:"attempts"`
}
