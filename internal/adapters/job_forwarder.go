package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/architeacher/svc-job-worker/internal/config"
	"github.com/architeacher/svc-job-worker/internal/domain"
	"github.com/architeacher/svc-job-worker/internal/infrastructure"
)

type (
	// HTTPForwarder posts jobs to the downstream service that executes them.
	HTTPForwarder struct {
		service        string
		client         *resty.Client
		circuitBreaker *gobreaker.CircuitBreaker
		logger         *infrastructure.Logger
		metrics        infrastructure.Metrics
		config         config.ServiceEndpointConfig
	}

	forwardRequest struct {
		JobID   string         `json:"job_id"`
		Worker  string         `json:"worker"`
		Payload map[string]any `json:"payload"`
	}
)

func NewHTTPForwarder(
	service string,
	cfg config.ServiceEndpointConfig,
	logger *infrastructure.Logger,
	metrics infrastructure.Metrics,
) *HTTPForwarder {
	client := resty.New()

	client.SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(cfg.RetryWaitTime).
		SetRetryMaxWaitTime(cfg.MaxRetryWaitTime).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		})

	client.SetHeaders(map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   cfg.UserAgent,
	})

	log := logger.Component("forwarder")

	cbSettings := gobreaker.Settings{
		Name:        service,
		MaxRequests: cfg.CircuitBreaker.MaxRequests,
		Interval:    cfg.CircuitBreaker.Interval,
		Timeout:     cfg.CircuitBreaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// 4xx responses do not count against the breaker.
			return err == nil || errors.Is(err, domain.ErrInvalidPayload)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Info().
				Str("name", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	return &HTTPForwarder{
		service:        service,
		client:         client,
		circuitBreaker: gobreaker.NewCircuitBreaker(cbSettings),
		logger:         log,
		metrics:        metrics,
		config:         cfg,
	}
}

func (f *HTTPForwarder) Forward(ctx context.Context, job domain.Job) error {
	startTime := time.Now()

	_, err := f.circuitBreaker.Execute(func() (any, error) {
		return nil, f.post(ctx, job)
	})

	f.metrics.RecordDownstreamCall(ctx, f.service, time.Since(startTime), err == nil)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			f.logger.Warn().Str("service", f.service).Str("job_id", job.ID).Msg("circuit breaker is open")

			return domain.NewCircuitBreakerOpenError(f.service, err)
		}

		return err
	}

	return nil
}

func (f *HTTPForwarder) post(ctx context.Context, job domain.Job) error {
	resp, err := f.client.R().
		SetContext(ctx).
		SetBody(forwardRequest{JobID: job.ID, Worker: job.Worker, Payload: job.Payload}).
		Post(f.config.Path)
	if err != nil {
		f.logger.Error().
			Err(err).
			Str("service", f.service).
			Str("job_id", job.ID).
			Msg("failed to call downstream service")

		return domain.NewDownstreamError(f.service, 0, err)
	}

	f.logger.Debug().
		Str("service", f.service).
		Str("job_id", job.ID).
		Int("status_code", resp.StatusCode()).
		Dur("duration", resp.Time()).
		Msg("downstream call completed")

	switch {
	case resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices:
		return nil
	case resp.StatusCode() >= http.StatusBadRequest && resp.StatusCode() < http.StatusInternalServerError:
		return domain.NewInvalidPayloadError(job.Worker,
			fmt.Errorf("HTTP %d: %s", resp.StatusCode(), resp.Status()))
	default:
		return domain.NewDownstreamError(f.service, resp.StatusCode(),
			fmt.Errorf("HTTP %d: %s", resp.StatusCode(), resp.Status()))
	}
}
