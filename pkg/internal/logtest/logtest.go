// Package logtest provides slog handlers for tests.
package logtest

import (
	"context"
	"log/slog"
	"sync"
)

// NopLogger returns a new slog.Logger that does nothing.
func NopLogger() *slog.Logger {
	return slog.New(nopHandler{})
}

type nopHandler struct{}

func (h nopHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return false
}

func (h nopHandler) Handle(_ context.Context, _ slog.Record) error {
	return nil
}

func (h nopHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

func (h nopHandler) WithGroup(_ string) slog.Handler {
	return h
}

// Recorder is a slog.Handler that keeps every record it handles, for
// asserting on log output in tests.
type Recorder struct {
	mu      sync.Mutex
	records []slog.Record
}

func (r *Recorder) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

func (r *Recorder) Handle(_ context.Context, rec slog.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec.Clone())
	return nil
}

func (r *Recorder) WithAttrs(_ []slog.Attr) slog.Handler {
	return r
}

func (r *Recorder) WithGroup(_ string) slog.Handler {
	return r
}

// Messages returns the messages logged at the given level.
func (r *Recorder) Messages(level slog.Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var msgs []string
	for _, rec := range r.records {
		if rec.Level == level {
			msgs = append(msgs, rec.Message)
		}
	}
	return msgs
}
