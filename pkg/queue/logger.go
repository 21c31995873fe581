package queue

import "time"

// Logger defines a simple logging interface to avoid circular dependencies
type Logger interface {
	Debug() LogEvent
	Info() LogEvent
	Warn() LogEvent
	Error() LogEvent
}

// LogEvent defines a simple log event interface
type LogEvent interface {
	Msg(string)
	Err(error) LogEvent
	Str(string, string) LogEvent
	Int(string, int) LogEvent
	Dur(string, time.Duration) LogEvent
}

type nopLogger struct{}

func (nopLogger) Debug() LogEvent { return nopEvent{} }
func (nopLogger) Info() LogEvent  { return nopEvent{} }
func (nopLogger) Warn() LogEvent  { return nopEvent{} }
func (nopLogger) Error() LogEvent { return nopEvent{} }

type nopEvent struct{}

func (nopEvent) Msg(string)                           {}
func (e nopEvent) Err(error) LogEvent                 { return e }
func (e nopEvent) Str(string, string) LogEvent        { return e }
func (e nopEvent) Int(string, int) LogEvent           { return e }
func (e nopEvent) Dur(string, time.Duration) LogEvent { return e }
