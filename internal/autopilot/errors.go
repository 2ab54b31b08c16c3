package autopilot

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies where a run failed
type ErrorKind string

const (
	KindObservation ErrorKind = "observation"
	KindDecision    ErrorKind = "decision"
	KindExecution   ErrorKind = "execution"
	KindGeneration  ErrorKind = "generation"
	KindSchedule    ErrorKind = "schedule"
	KindPersistence ErrorKind = "persistence"
	KindTimeout     ErrorKind = "timeout"
)

var (
	// ErrNoResults is returned when the image orchestrator produced no images.
	ErrNoResults = errors.New("image orchestrator returned no results")
	// ErrInvalidTime is returned for a plan time that is not "HH:MM".
	ErrInvalidTime = errors.New("invalid plan time")
)

// RunError carries the failure kind and context of a chat or item failure.
type RunError struct {
	Kind   ErrorKind
	Op     string
	ChatID string
	Err    error
}

func (e *RunError) Error() string {
	if e.ChatID != "" {
		return fmt.Sprintf("%s: chat %s: %v", e.Op, e.ChatID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// Message is the bare cause, as recorded on configs and in results.
func (e *RunError) Message() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func newRunError(kind ErrorKind, op string, err error) *RunError {
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &RunError{Kind: kind, Op: op, Err: err}
}

// asRunError returns err as a *RunError, wrapping it with kind when it is
// not one already.
func asRunError(err error, kind ErrorKind, op string) *RunError {
	var re *RunError
	if errors.As(err, &re) {
		return re
	}
	return newRunError(kind, op, err)
}
