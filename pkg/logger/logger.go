// Package logger carries a logrus entry through context.Context so library
// code can log without holding a logger of its own. Output goes to stderr,
// keeping stdout free for command results.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Formats accepted by SetLogFormat
const (
	FormatText = "fmt"
	FormatJSON = "json"
)

var (
	// G returns the logger stored in ctx, falling back to L
	G = FromContext
	// L is the process-wide logger entry
	L = logrus.NewEntry(newLogger(os.Stderr))
)

type ctxKey struct{}

// Config is the logging section of the application configuration
type Config struct {
	Level  string `mapstructure:"log_level"`
	Format string `mapstructure:"log_format"`
}

// Setup applies cfg to the global logger
func Setup(cfg Config) error {
	if cfg.Level != "" {
		if err := SetLogLevel(cfg.Level); err != nil {
			return err
		}
	}
	SetLogFormat(cfg.Format)
	return nil
}

// WithLogger returns a copy of ctx carrying entry
func WithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, ctxKey{}, entry.WithContext(ctx))
}

// WithFields returns a copy of ctx whose logger carries the extra fields
func WithFields(ctx context.Context, fields logrus.Fields) context.Context {
	return WithLogger(ctx, FromContext(ctx).WithFields(fields))
}

// FromContext returns the logger entry attached to ctx, or L when there is none
func FromContext(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok {
		return entry
	}
	return L.WithContext(ctx)
}

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	applyFormat(l, FormatText)
	return l
}

func applyFormat(l *logrus.Logger, format string) {
	if format == FormatJSON {
		l.Formatter = &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "logLevel",
				logrus.FieldKeyMsg:   "message",
			},
			TimestampFormat: time.RFC3339Nano,
		}
		return
	}
	l.Formatter = &logrus.TextFormatter{
		TimestampFormat: time.RFC3339Nano,
		FullTimestamp:   true,
	}
}

// SetLogLevel parses level ("debug", "info", ...) and applies it to L
func SetLogLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}
	L.Logger.SetLevel(lvl)
	return nil
}

// SetLogFormat switches L between text ("fmt", the default) and JSON output
func SetLogFormat(format string) {
	applyFormat(L.Logger, format)
}

// SetLogOutput redirects L
func SetLogOutput(w io.Writer) {
	L.Logger.SetOutput(w)
}
