package ubiforge

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidIdentifier = errors.New("invalid tool identifier")
	ErrFetch             = errors.New("unable to fetch releases")
	ErrParse             = errors.New("unable to parse release listing")
	ErrSchema            = errors.New("unexpected release listing schema")
	ErrNotFound          = errors.New("no matching version found")
	ErrFeatureDisabled   = errors.New("experimental feature is not enabled")
	ErrExecutionFailed   = errors.New("installer execution failed")
	ErrVersionMismatch   = errors.New("installed release differs from the resolved version")
)

// ResolveError describes a failure to list the versions for a tool identifier.
type ResolveError struct {
	Identifier string
	Endpoint   string
	Err        error
}

func (e *ResolveError) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("tool %q: %v", e.Identifier, e.Err)
	}
	return fmt.Sprintf("tool %q (endpoint %q): %v", e.Identifier, e.Endpoint, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// VersionNotFoundError is returned when no upstream tag matches the requested version.
type VersionNotFoundError struct {
	Identifier string
	Requested  string
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("tool %q: no release tag matches version %q", e.Identifier, e.Requested)
}

func (e *VersionNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ExecutionError describes an installer process that could not be started or exited unsuccessfully.
type ExecutionError struct {
	Command  string
	Args     []string
	ExitCode int
	Output   string
	Err      error
}

func (e *ExecutionError) Error() string {
	cmd := strings.TrimSpace(e.Command + " " + strings.Join(e.Args, " "))
	msg := fmt.Sprintf("%v: %s", ErrExecutionFailed, cmd)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit code %d)", e.ExitCode)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	if e.Output != "" {
		msg += "\nOutput:\n" + e.Output
	}
	return msg
}

func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecutionFailed
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
