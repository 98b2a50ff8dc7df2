package logger

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Logger struct {
	*logrus.Entry
}

type settings struct {
	out   io.Writer
	level string
	json  bool
}

type Option func(*settings)

// WithOutput redirects log lines; the default is stdout.
func WithOutput(w io.Writer) Option { return func(s *settings) { s.out = w } }

// WithLevel overrides LOG_LEVEL.
func WithLevel(level string) Option { return func(s *settings) { s.level = level } }

// New builds the service logger. ENVIRONMENT empty or "local" gives a
// colored console, anything else gives JSON. LOG_LEVEL picks the level.
func New(service string, opts ...Option) *Logger {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	s := settings{
		out:   os.Stdout,
		level: os.Getenv("LOG_LEVEL"),
		json:  env != "" && env != "local",
	}
	for _, o := range opts {
		o(&s)
	}

	base := logrus.New()
	if s.json {
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
			ForceColors:     s.out == os.Stdout,
		})
	}
	base.SetOutput(s.out)
	base.SetLevel(parseLevel(s.level))

	return &Logger{Entry: logrus.NewEntry(base).WithField("service", service)}
}

// Discard returns a logger that writes nowhere.
func Discard() *Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &Logger{Entry: logrus.NewEntry(base)}
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Component scopes the logger to one subsystem.
func (l *Logger) Component(name string) *Logger {
	return &Logger{Entry: l.Entry.WithField("component", name)}
}

// ForCall tags entries with the call id.
func (l *Logger) ForCall(callID string) *logrus.Entry {
	return l.Entry.WithField("call_id", callID)
}

// RequestID returns the caller's X-Request-ID or a fresh one.
func RequestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.New().String()
}

func (l *Logger) WithRequest(r *http.Request) *logrus.Entry {
	return l.WithFields(logrus.Fields{
		"req_id":     RequestID(r),
		"method":     r.Method,
		"path":       r.URL.Path,
		"remote_ip":  r.RemoteAddr,
		"user_agent": r.UserAgent(),
	})
}

// WithError logs the error as a plain string field.
func (l *Logger) WithError(err error) *logrus.Entry {
	if err == nil {
		return l.Entry
	}
	return l.Entry.WithField("error", err.Error())
}
