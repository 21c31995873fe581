package queue

import (
	"time"

	"github.com/rs/zerolog"
)

// ZerologAdapter exposes a zerolog.Logger through the package Logger interface.
type ZerologAdapter struct {
	logger zerolog.Logger
}

func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

func (a *ZerologAdapter) Debug() LogEvent {
	return zerologEvent{event: a.logger.Debug()}
}

func (a *ZerologAdapter) Info() LogEvent {
	return zerologEvent{event: a.logger.Info()}
}

func (a *ZerologAdapter) Warn() LogEvent {
	return zerologEvent{event: a.logger.Warn()}
}

func (a *ZerologAdapter) Error() LogEvent {
	return zerologEvent{event: a.logger.Error()}
}

// zerologEvent is safe to use with a nil event, zerolog drops disabled levels that way.
type zerologEvent struct {
	event *zerolog.Event
}

func (e zerologEvent) Msg(msg string) {
	e.event.Msg(msg)
}

func (e zerologEvent) Err(err error) LogEvent {
	return zerologEvent{event: e.event.Err(err)}
}

func (e zerologEvent) Str(key, value string) LogEvent {
	return zerologEvent{event: e.event.Str(key, value)}
}

func (e zerologEvent) Int(key string, value int) LogEvent {
	return zerologEvent{event: e.event.Int(key, value)}
}

func (e zerologEvent) Dur(key string, value time.Duration) LogEvent {
	return zerologEvent{event: e.event.Dur(key, value)}
}
