package api

import (
	"fmt"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// requestLogger emits one line when a request starts and one when it completes, at a
// level derived from the response status.
type requestLogger struct {
	base zerolog.Logger
}

func newStructuredLogger(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return chimiddleware.RequestLogger(&requestLogger{base: logger.With().Str("component", "api").Logger()})
}

func (l *requestLogger) NewLogEntry(r *http.Request) chimiddleware.LogEntry {
	ctx := l.base.With().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("remote_addr", clientIP(r))
	if ref := r.Referer(); ref != "" {
		ctx = ctx.Str("referer", ref)
	}
	if reqID := getRequestID(r.Context()); reqID != "" {
		ctx = ctx.Str("request_id", reqID)
	}

	entry := &requestLogEntry{Logger: ctx.Logger()}
	entry.Logger.Debug().Msg("request started")
	return entry
}

type requestLogEntry struct {
	Logger zerolog.Logger
}

func (e *requestLogEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	var evt *zerolog.Event
	switch {
	case status >= http.StatusInternalServerError:
		evt = e.Logger.Error()
	case status >= http.StatusBadRequest:
		evt = e.Logger.Warn()
	default:
		evt = e.Logger.Info()
	}
	evt.Int("status", status).
		Int("bytes", bytes).
		Dur("elapsed", elapsed).
		Msg("request completed")
}

func (e *requestLogEntry) Panic(v interface{}, stack []byte) {
	e.Logger.Error().
		Str("panic", fmt.Sprintf("%+v", v)).
		Bytes("stack", stack).
		Msg("unhandled request panic")
}

func getLogEntry(r *http.Request) *zerolog.Logger {
	if entry, ok := chimiddleware.GetLogEntry(r).(*requestLogEntry); ok {
		return &entry.Logger
	}
	return &log.Logger
}

// logEntrySetField adds key to every later line logged for r.
func logEntrySetField(r *http.Request, key string, value interface{}) {
	if entry, ok := chimiddleware.GetLogEntry(r).(*requestLogEntry); ok {
		entry.Logger = entry.Logger.With().Interface(key, value).Logger()
	}
}
