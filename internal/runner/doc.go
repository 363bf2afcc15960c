// Package runner executes the external imaging tools and converts their
// exit status into errors the rest of the CLI can act on.
//
// The package has two layers:
//
//   - Executor is the low-level "spawn a child process and capture its
//     streams" abstraction. LocalExecutor runs tools from the host PATH;
//     internal/docker provides an implementation that runs the same argv
//     inside a pinned container image.
//   - Runner wraps an Executor with the reporting contract: optional echo
//     of the command line and both streams when verbose, and an
//     unconditional dump of the command line, both streams, and a stack
//     trace when a tool exits non-zero.
//
// Verbosity is an explicit field on the Runner rather than package state,
// so one pipeline run owns its own reporting configuration.
package runner
