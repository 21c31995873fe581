package queue

import "time"

const (
	// MaxReconnectDelay caps the delay between reconnect attempts.
	MaxReconnectDelay = 30 * time.Second

	reconnectStep = time.Second
)

// ReconnectBackoff computes the delay before the next consumer attempt.
//
// The delay resets to zero when the previous attempt had started consuming and grows by
// one second otherwise. It always stays within [0, MaxReconnectDelay].
type ReconnectBackoff struct {
	delay time.Duration
	step  time.Duration
	max   time.Duration
}

func NewReconnectBackoff(initial time.Duration) *ReconnectBackoff {
	b := &ReconnectBackoff{
		step: reconnectStep,
		max:  MaxReconnectDelay,
	}
	b.delay = b.clamp(initial)

	return b
}

// Next records the outcome of an attempt and returns the delay to sleep before the next one.
func (b *ReconnectBackoff) Next(wasConsuming bool) time.Duration {
	if wasConsuming {
		b.delay = 0
	} else {
		b.delay = b.clamp(b.delay + b.step)
	}

	return b.delay
}

// Delay returns the current delay without changing it.
func (b *ReconnectBackoff) Delay() time.Duration {
	return b.delay
}

func (b *ReconnectBackoff) clamp(d time.Duration) time.Duration {
	switch {
	case d < 0:
		return 0
	case d > b.max:
		return b.max
	default:
		return d
	}
}
