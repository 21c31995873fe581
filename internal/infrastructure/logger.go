package infrastructure

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/architeacher/svc-job-worker/internal/config"
	"github.com/architeacher/svc-job-worker/pkg/queue"
)

// Logger is the service wide structured logger.
type Logger struct {
	zerolog.Logger
}

func New(cfg config.LoggingConfig) *Logger {
	return NewWithWriter(cfg, os.Stdout)
}

func NewWithWriter(cfg config.LoggingConfig, w io.Writer) *Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if strings.EqualFold(cfg.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return &Logger{
		Logger: zerolog.New(w).Level(level).With().Timestamp().Logger(),
	}
}

func NewTestLogger() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) *Logger {
	return &Logger{Logger: l.With().Str("component", name).Logger()}
}

// QueueLogger adapts the logger to the queue package logging interface.
func (l *Logger) QueueLogger() queue.Logger {
	return queue.NewZerologAdapter(l.Logger)
}
