package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidChart is wrapped by every construction error.
var ErrInvalidChart = errors.New("invalid statechart")

// ErrNotRunning is returned when an event is triggered before Run.
var ErrNotRunning = errors.New("statechart is not running")

// ErrAlreadyRunning is returned when Run is called on an active or completed chart,
// or from inside a dispatch.
var ErrAlreadyRunning = errors.New("statechart is already running")

// ErrSnapshotNotFound is returned when a run ID cannot be found in a snapshot store.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ConfigurationError describes a malformed chart detected at build time.
type ConfigurationError struct {
	Scope  string
	Node   string
	Origin string
	Reason string
}

func (e *ConfigurationError) Error() string {
	where := e.Node
	if where == "" {
		where = "scope " + quoteScope(e.Scope)
	}
	if e.Origin != "" {
		return fmt.Sprintf("%s (%s): %s", where, e.Origin, e.Reason)
	}
	return fmt.Sprintf("%s: %s", where, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidChart.
func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidChart
}

func quoteScope(scope string) string {
	if scope == "" {
		return "<root>"
	}
	return fmt.Sprintf("%q", scope)
}

// HookStage names the kind of host callable that failed.
type HookStage string

const (
	StageEnter      HookStage = "enter"
	StageExit       HookStage = "exit"
	StageTransition HookStage = "transition"
	StageTask       HookStage = "task"
)

// HookError wraps an error returned by a host hook or task.
type HookError struct {
	Node   string
	Stage  HookStage
	Origin string
	Err    error
}

func (e *HookError) Error() string {
	msg := fmt.Sprintf("%s hook of %q failed", e.Stage, e.Node)
	if e.Origin != "" {
		msg += " (declared at " + e.Origin + ")"
	}
	return msg + ": " + e.Err.Error()
}

func (e *HookError) Unwrap() error {
	return e.Err
}
