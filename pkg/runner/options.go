package runner

import (
	"log/slog"
)

// DefaultMailboxSize is the default number of calls buffered by a Loop.
const DefaultMailboxSize = 64

// Option defines a functional option for configuring a Loop.
type Option func(*Loop)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithRecorder persists the snapshot every time the active configuration changes.
func WithRecorder(rec Recorder) Option {
	return func(l *Loop) {
		l.recorder = rec
	}
}

// WithMailboxSize sets how many pending calls the mailbox buffers before
// callers block.
func WithMailboxSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.size = n
		}
	}
}

// WithChangeHandler registers a callback for configuration changes.
// It can be passed several times.
func WithChangeHandler(fn ChangeFunc) Option {
	return func(l *Loop) {
		l.listeners = append(l.listeners, fn)
	}
}
