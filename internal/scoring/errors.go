package scoring

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrConfig     = errors.New("invalid configuration")
	ErrValidation = errors.New("validation failed")
	ErrLockedEnd  = errors.New("end is locked")
	ErrSubmission = errors.New("submission failed")
	ErrDetection  = errors.New("detection failed")
)

// ConfigError reports a range configuration that cannot back a session.
type ConfigError struct {
	RangeIndex int
	Reason     string
}

func (e *ConfigError) Error() string {
	if e.RangeIndex < 0 {
		return "invalid round configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid range %d configuration: %s", e.RangeIndex, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// ValidationError reports input rejected before any state change.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// LockedEndError reports a mutation aimed at an end that is submitted or not yet unlocked.
type LockedEndError struct {
	RangeIndex int
	EndNumber  int
	Submitted  bool
}

func (e *LockedEndError) Error() string {
	state := "not yet unlocked"
	if e.Submitted {
		state = "already submitted"
	}
	return fmt.Sprintf("range %d end %d is %s", e.RangeIndex, e.EndNumber, state)
}

func (e *LockedEndError) Is(target error) bool { return target == ErrLockedEnd }

// SubmissionFailed reports that the backend did not record an end.
type SubmissionFailed struct {
	RangeIndex int
	EndNumber  int
	Err        error
}

func (e *SubmissionFailed) Error() string {
	msg := fmt.Sprintf("submission of range %d end %d failed", e.RangeIndex, e.EndNumber)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SubmissionFailed) Unwrap() error { return e.Err }

func (e *SubmissionFailed) Is(target error) bool { return target == ErrSubmission }

// DetectionError reports a failed or malformed photo detection.
type DetectionError struct {
	RangeIndex int
	EndNumber  int
	Err        error
}

func (e *DetectionError) Error() string {
	msg := fmt.Sprintf("score detection for range %d end %d failed", e.RangeIndex, e.EndNumber)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DetectionError) Unwrap() error { return e.Err }

func (e *DetectionError) Is(target error) bool { return target == ErrDetection }

// ErrNotRecorded is wrapped by SubmissionFailed when the backend acknowledged without recording.
var ErrNotRecorded = errors.New("backend did not record the end")

// ErrNoSubmitter and ErrNoDetector are wrapped when a controller lacks the collaborator.
var (
	ErrNoSubmitter = errors.New("no end submitter configured")
	ErrNoDetector  = errors.New("no score detector configured")
)

func validation(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}
