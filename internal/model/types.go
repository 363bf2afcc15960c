package model

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ExitCode defines the CLI exit codes. The contract is deliberately narrow:
// scripts calling trimneck only need to distinguish "worked" from "did not",
// so every precondition failure and every pipeline failure maps to 1.
type ExitCode int

const (
	// ExitSuccess indicates the pipeline completed and the output image
	// was written to the requested path.
	ExitSuccess ExitCode = 0

	// ExitFailure indicates any failure: a required tool could not be
	// invoked, the input image is missing, or an external tool returned
	// a non-zero status mid-pipeline.
	ExitFailure ExitCode = 1
)

// CommandResult captures the observable outcome of one successful external
// tool invocation. It is constructed immediately after the child process
// exits and discarded once the caller has inspected it; nothing is retained
// across pipeline steps except file paths on disk.
type CommandResult struct {
	// CmdStr is the full command line, tokens joined with single spaces.
	// Used for verbose echo and for error reporting.
	CmdStr string

	// Stdout is the captured standard output of the child process.
	Stdout string

	// Stderr is the captured standard error of the child process.
	Stderr string
}

// TrimResult holds the paths of the artifacts the neck-trim pipeline leaves
// in the scratch directory. All paths are inside the scratch directory and
// become invalid once it is removed; callers must copy anything they want
// to keep before cleanup runs.
type TrimResult struct {
	// TrimmedImage is the neck-trimmed, padded image. This is the only
	// artifact the wrapper consumes downstream (copied to --output).
	TrimmedImage string

	// BrainMask is the brain mask trim_neck.sh writes alongside the
	// trimmed image. Kept for optional QC export, otherwise discarded
	// with the scratch directory.
	BrainMask string

	// TrimRegionMask is a mask in the original image space marking the
	// voxels retained by the trim. Also a QC artifact.
	TrimRegionMask string
}

// PipelineError is returned when an external tool invocation exits with a
// non-zero status. It carries the command line that failed so the failure
// can be reported with full context at the CLI boundary.
//
// There is no transient/permanent distinction: every PipelineError is
// terminal for the run. The runner has already printed the command line and
// both captured streams by the time this error is constructed.
type PipelineError struct {
	// Cmd is the full command line of the failed invocation.
	Cmd string

	// Err is the underlying error from the process wait, typically an
	// *exec.ExitError carrying the exit status.
	Err error
}

// Error satisfies the error interface.
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("error running command: %s: %v", e.Cmd, e.Err)
	}
	return fmt.Sprintf("error running command: %s", e.Cmd)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError creates a PipelineError for the given command tokens.
func NewPipelineError(cmd []string, err error) *PipelineError {
	return &PipelineError{Cmd: strings.Join(cmd, " "), Err: err}
}

// CLIError is a custom error type that carries an exit code. It allows the
// CLI layer to translate domain errors into the process exit status without
// inspecting error strings.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// ValidateImagePath performs the cheap syntactic checks we can do on an
// image path before handing it to the external tools: it must be non-empty
// and must not be a directory-like path (trailing separator). Existence is
// checked separately by the CLI because the rules differ for input
// (must exist) and output (parent is created on demand).
func ValidateImagePath(path string) error {
	if path == "" {
		return fmt.Errorf("image path must not be empty")
	}
	if strings.HasSuffix(path, string(filepath.Separator)) {
		return fmt.Errorf("image path %q must name a file, not a directory", path)
	}
	return nil
}
