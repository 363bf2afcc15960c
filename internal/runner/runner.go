package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime/debug"
	"strings"

	"github.com/mmr-tortoise/trimneck/internal/model"
)

// Executor spawns one external command synchronously and captures its
// output streams. The returned error is non-nil both when the command
// could not be started (e.g. binary not on PATH) and when it exited with
// a non-zero status; in either case the captured streams are still
// returned so the caller can surface them.
//
// workDir is the pipeline scratch directory. The local executor runs the
// command with workDir as its working directory; the container executor
// additionally bind-mounts it so the tools see the same paths.
type Executor interface {
	Exec(ctx context.Context, workDir string, argv []string) (stdout, stderr string, err error)
}

// LocalExecutor runs commands directly on the host via os/exec.
// This is the default backend: c3d and trim_neck.sh are resolved
// through PATH exactly as the user's shell would resolve them.
type LocalExecutor struct{}

// NewLocalExecutor creates a LocalExecutor. The struct is stateless; the
// constructor exists to match the package's other backends.
func NewLocalExecutor() *LocalExecutor {
	return &LocalExecutor{}
}

// Exec runs argv[0] with the remaining tokens as arguments, blocking until
// the child process exits. Stdout and stderr are captured separately so
// failures can report both streams individually.
func (e *LocalExecutor) Exec(ctx context.Context, workDir string, argv []string) (string, string, error) {
	// #nosec G204 -- argv is constructed internally from fixed tool
	// invocations, not from untrusted input.
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if workDir != "" {
		cmd.Dir = workDir
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Runner executes external commands through an Executor and applies the
// CLI's reporting contract. Verbosity is a run-scoped field, threaded in
// at construction, never a package global.
type Runner struct {
	executor Executor
	verbose  bool

	// console receives verbose echo and failure diagnostics.
	// Defaults to os.Stderr; tests substitute a buffer.
	console io.Writer
}

// New creates a Runner over the given executor. A nil console defaults to
// os.Stderr, which is where all diagnostic output belongs (stdout is
// reserved for the command's own result output).
func New(executor Executor, verbose bool, console io.Writer) *Runner {
	if console == nil {
		console = os.Stderr
	}
	return &Runner{executor: executor, verbose: verbose, console: console}
}

// Run executes a single external command and blocks until it completes.
//
// On success (exit status zero) it returns a CommandResult holding the
// joined command line and both captured streams. When verbose, the command
// line and both streams are echoed to the console as the run proceeds.
//
// On a non-zero exit status the command line and both streams are always
// written to the console (even when verbose already echoed them, matching
// the one place a user will look first when a run dies), a stack trace is
// emitted for diagnosis, and a model.PipelineError carrying the command
// line is returned. There is no retry and no partial recovery; every
// failure here is terminal for the pipeline run.
func (r *Runner) Run(ctx context.Context, workDir string, argv ...string) (*model.CommandResult, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("runner: empty command")
	}

	cmdStr := strings.Join(argv, " ")

	if r.verbose {
		fmt.Fprintf(r.console, "--- Running %s ---\n", argv[0])
		fmt.Fprintln(r.console, cmdStr)
	}

	stdout, stderr, err := r.executor.Exec(ctx, workDir, argv)

	if r.verbose {
		fmt.Fprintln(r.console, "--- command stdout ---")
		fmt.Fprintln(r.console, stdout)
		fmt.Fprintln(r.console, "--- command stderr ---")
		fmt.Fprintln(r.console, stderr)
		fmt.Fprintf(r.console, "--- end %s ---\n", argv[0])
	}

	if err != nil {
		fmt.Fprintf(r.console, "Error running command: %s\n", cmdStr)
		// Stack trace locates which pipeline step issued the failing
		// invocation without needing a debugger attached.
		r.console.Write(debug.Stack())
		if !r.verbose {
			// Streams were not echoed above; print them now so the
			// failure is always fully reported.
			fmt.Fprintln(r.console, "command stdout:\n"+stdout)
			fmt.Fprintln(r.console, "command stderr:\n"+stderr)
		}
		return nil, model.NewPipelineError(argv, err)
	}

	return &model.CommandResult{CmdStr: cmdStr, Stdout: stdout, Stderr: stderr}, nil
}

// Probe checks that a tool is invocable at all by running it with a
// help-style argument. Both c3d and trim_neck.sh exit zero for -h, so a
// successful probe means the tool exists and is executable through the
// selected backend. Used by the CLI's precondition checks before any
// image processing begins.
func (r *Runner) Probe(ctx context.Context, tool string) error {
	_, err := r.Run(ctx, "", tool, "-h")
	return err
}
