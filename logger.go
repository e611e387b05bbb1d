package nacc

import (
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Logger is the structured logger used for run-level events. It is
// separate from the diagnostics stream, which carries the per-record
// [START] and [SKIP] lines.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

type LogLevel string

const (
	DebugLevel    LogLevel = "debug"
	InfoLevel     LogLevel = "info"
	WarnLevel     LogLevel = "warn"
	ErrorLevel    LogLevel = "error"
	DisabledLevel LogLevel = "disabled"
)

func (l LogLevel) ToCharmlogLevel() charmlog.Level {
	switch l {
	case DebugLevel:
		return charmlog.DebugLevel
	case InfoLevel:
		return charmlog.InfoLevel
	case WarnLevel:
		return charmlog.WarnLevel
	case ErrorLevel:
		return charmlog.ErrorLevel
	case DisabledLevel:
		return charmlog.Level(1000)
	default:
		return charmlog.InfoLevel
	}
}

type LogConfig struct {
	Level      LogLevel
	Output     io.Writer
	JSON       bool
	TimeFormat string
}

func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		Level:      InfoLevel,
		Output:     os.Stderr,
		TimeFormat: "15:04:05",
	}
}

type charmLogger struct {
	l *charmlog.Logger
}

func NewLogger(cfg *LogConfig) Logger {
	if cfg == nil {
		cfg = DefaultLogConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	l := charmlog.NewWithOptions(out, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      cfg.TimeFormat,
		Level:           cfg.Level.ToCharmlogLevel(),
		Prefix:          "redcap2nacc",
	})
	if cfg.JSON {
		l.SetFormatter(charmlog.JSONFormatter)
	}
	return &charmLogger{l: l}
}

// NopLogger discards everything.
func NopLogger() Logger {
	return NewLogger(&LogConfig{Level: DisabledLevel, Output: io.Discard})
}

func (c *charmLogger) Debug(msg string, keyvals ...any) { c.l.Debug(msg, keyvals...) }
func (c *charmLogger) Info(msg string, keyvals ...any)  { c.l.Info(msg, keyvals...) }
func (c *charmLogger) Warn(msg string, keyvals ...any)  { c.l.Warn(msg, keyvals...) }
func (c *charmLogger) Error(msg string, keyvals ...any) { c.l.Error(msg, keyvals...) }
