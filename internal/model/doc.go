// Package model defines the domain types and value objects for the
// trimneck CLI.
//
// This package contains pure data structures with no external dependencies:
// the result record produced by external tool invocations (CommandResult),
// the pipeline output paths (TrimResult), and the error types that carry
// failure context across package boundaries (PipelineError, CLIError).
//
// Nothing here holds image data. The wrapper never decodes voxel content.
// All image manipulation happens inside the external tools, and these types
// only pass file paths and captured console output along.
package model
