package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// State is the lifecycle state of a Supervisor.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateBackoff
	StateStopping
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateBackoff:
		return "backoff"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateStopped || s == StateFailed
}

// Supervisor keeps one worker consuming: it runs a Session, and when the session ends
// without a stop request it sleeps according to its ReconnectBackoff and starts a new one.
type Supervisor struct {
	name    string
	factory ConsumerFactory
	options supervisorOptions

	state atomic.Int32

	mu       sync.Mutex
	current  Session
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewSupervisor(name string, factory ConsumerFactory, opts ...SupervisorOption) *Supervisor {
	options := defaultSupervisorOptions()
	for _, opt := range opts {
		opt(&options)
	}

	if options.backoff == nil {
		options.backoff = NewReconnectBackoff(0)
	}

	return &Supervisor{
		name:    name,
		factory: factory,
		options: options,
		stopCh:  make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

// Run blocks until Stop is called, ctx is done or a session fails fatally. Only the
// fatal case returns an error.
func (s *Supervisor) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		if s.State().Terminal() {
			return nil
		}

		return ErrSupervisorStarted
	}

	s.notify(StateRunning)

	for {
		session := s.factory()
		if !s.attach(session) {
			s.finish(StateStopped)

			return nil
		}

		err := session.Run(ctx)
		if err != nil {
			s.release(session)
			s.finish(StateFailed)

			s.options.logger.Error().
				Err(err).
				Str("worker", s.name).
				Msg("worker failed with a non recoverable error")

			return fmt.Errorf("worker %s: %w", s.name, err)
		}

		if s.stopping() || ctx.Err() != nil || !session.ShouldReconnect() {
			s.release(session)
			s.finish(StateStopped)

			return nil
		}

		delay := s.options.backoff.Next(session.WasConsuming())
		s.release(session)

		if !s.setState(StateRunning, StateBackoff) {
			s.finish(StateStopped)

			return nil
		}

		s.options.logger.Info().
			Str("worker", s.name).
			Dur("delay", delay).
			Msg("reconnecting to RabbitMQ")
		s.options.onReconnect(delay)

		if !s.wait(ctx, delay) {
			s.finish(StateStopped)

			return nil
		}

		if !s.setState(StateBackoff, StateRunning) {
			s.finish(StateStopped)

			return nil
		}
	}
}

// Stop asks the supervisor to stop its current session and not reconnect. The session
// finishes the message in flight before Run returns. Stop does not wait for that.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)

		for {
			current := s.State()
			if current.Terminal() {
				return
			}

			next := StateStopping
			if current == StateIdle {
				next = StateStopped
			}

			if s.state.CompareAndSwap(int32(current), int32(next)) {
				s.notify(next)

				break
			}
		}

		s.mu.Lock()
		session := s.current
		s.mu.Unlock()

		if session != nil {
			session.Stop()
		}
	})
}

// ForceClose stops the supervisor and closes the connection of the current session
// without waiting for the message in flight. It is meant for a shutdown deadline.
func (s *Supervisor) ForceClose() {
	s.Stop()

	s.mu.Lock()
	session := s.current
	s.mu.Unlock()

	if session == nil {
		return
	}

	if err := session.CloseConnection(); err != nil {
		s.options.logger.Debug().Err(err).Str("worker", s.name).Msg("failed to close connection")
	}
}

func (s *Supervisor) stopping() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

func (s *Supervisor) attach(session Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopping() {
		return false
	}

	s.current = session

	return true
}

func (s *Supervisor) release(session Session) {
	session.Stop()

	if err := session.CloseConnection(); err != nil {
		s.options.logger.Debug().Err(err).Str("worker", s.name).Msg("failed to close connection")
	}

	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

func (s *Supervisor) wait(ctx context.Context, delay time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-s.stopCh:
		return false
	case <-s.options.after(delay):
		return true
	}
}

func (s *Supervisor) setState(from, to State) bool {
	if !s.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}

	s.notify(to)

	return true
}

func (s *Supervisor) finish(state State) {
	if State(s.state.Swap(int32(state))) == state {
		return
	}

	s.notify(state)
}

func (s *Supervisor) notify(state State) {
	for _, listener := range s.options.stateListeners {
		listener(state)
	}
}
