package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var ErrShutdownTimeout = errors.New("graceful shutdown timed out")

// WorkerCtx runs a single named worker until it is signalled or fails fatally.
type WorkerCtx struct {
	worker string
	deps   *Dependencies

	shutdownChannel chan os.Signal
	done            chan error

	workerCtx      context.Context
	workerStopFunc context.CancelFunc
}

func NewWorker(worker string, opt ...WorkerOption) *WorkerCtx {
	wCtx := &WorkerCtx{
		worker:          worker,
		shutdownChannel: make(chan os.Signal, 1),
		done:            make(chan error, 1),
	}

	for i := range opt {
		opt[i](wCtx)
	}

	return wCtx
}

// Run returns nil after a graceful stop and the supervisor error when the worker
// failed with a non recoverable error.
func (c *WorkerCtx) Run() error {
	if err := c.build(); err != nil {
		return err
	}

	c.start()
	c.monitorConfigChanges()
	c.shutdownHook()

	return c.shutdown()
}

func (c *WorkerCtx) build() error {
	c.workerCtx, c.workerStopFunc = context.WithCancel(context.Background())

	deps, err := initializeDependencies(c.workerCtx,
		WithCache(c.workerCtx),
		WithWorker(c.workerCtx, c.worker),
	)
	if err != nil {
		c.workerStopFunc()

		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	c.deps = deps

	return nil
}

func (c *WorkerCtx) start() {
	c.deps.logger.Info().Str("worker", c.worker).Msg("starting worker")

	go func() {
		c.done <- c.deps.Infra.Supervisor.Run(c.workerCtx)
	}()

	if c.deps.Infra.HealthServer == nil {
		return
	}

	go func() {
		c.deps.logger.Info().Str("address", c.deps.Infra.HealthServer.Addr).Msg("health server starting up")

		if err := c.deps.Infra.HealthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.deps.logger.Error().Err(err).Msg("unable to start health server")
		}
	}()
}

func (c *WorkerCtx) shutdownHook() {
	signal.Notify(c.shutdownChannel, syscall.SIGINT, syscall.SIGTERM)
}

func (c *WorkerCtx) monitorConfigChanges() {
	reloadErrors := c.deps.configLoader.WatchConfigSignals(c.workerCtx)

	go func() {
		for err := range reloadErrors {
			if err != nil {
				c.deps.logger.Error().Err(err).Msg("failed to reload config")
				continue
			}

			c.deps.logger.Info().Msg("config reloaded successfully")
		}

		c.deps.logger.Info().Msg("stopping config monitor")
	}()
}

func (c *WorkerCtx) shutdown() error {
	var (
		runErr error
		exited bool
	)

	// Waits for one of the following shutdown conditions to happen.
	select {
	case <-c.shutdownChannel:
		c.deps.logger.Info().Str("worker", c.worker).Msg("received shutdown signal")
	case runErr = <-c.done:
		exited = true
	}

	signal.Stop(c.shutdownChannel)

	if !exited {
		runErr = c.stopSupervisor()
	}

	c.workerStopFunc()

	cleanupCtx, cancel := context.WithTimeout(context.Background(), c.deps.cfg.HealthServer.ShutdownTimeout)
	defer cancel()

	c.cleanup(cleanupCtx)

	if runErr != nil {
		c.deps.logger.Error().Err(runErr).Str("worker", c.worker).Msg("worker exited with error")

		return runErr
	}

	c.deps.logger.Info().Str("worker", c.worker).Msg("worker stopped")

	return nil
}

// stopSupervisor lets the in-flight message finish within the shutdown timeout.
func (c *WorkerCtx) stopSupervisor() error {
	c.deps.Infra.Supervisor.Stop()

	timer := time.NewTimer(c.deps.cfg.Workers.ShutdownTimeout)
	defer timer.Stop()

	select {
	case err := <-c.done:
		return err
	case <-timer.C:
		c.deps.logger.Error().Msg("graceful shutdown timed out.. forcing exit.")
		c.deps.Infra.Supervisor.ForceClose()

		return ErrShutdownTimeout
	}
}

func (c *WorkerCtx) cleanup(ctx context.Context) {
	c.deps.logger.Info().Msg("cleaning up resources...")

	if c.deps.Infra.HealthServer != nil {
		if err := c.deps.Infra.HealthServer.Shutdown(ctx); err != nil {
			c.deps.logger.Error().Err(err).Msg("unable to gracefully shutdown health server")
		}
	}

	c.deps.release(ctx)

	c.deps.logger.Info().Msg("cleanup completed")
}
