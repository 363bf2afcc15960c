// executor.go implements the runner.Executor interface on top of one-shot
// containers. Each pipeline step becomes: create a container from the
// configured image with the step's argv, start it, wait for it to exit,
// demultiplex its log stream into stdout/stderr, and remove it.
//
// The scratch directory is bind-mounted at its own host path, so the
// fixed scratch filenames the pipeline and trim_neck.sh agree on are
// identical whether a step runs locally or in a container.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/strslice"
	"github.com/docker/docker/pkg/stdcopy"
)

// ContainerExecutor runs external tool invocations inside containers
// created from a single pinned image. It satisfies runner.Executor, so
// the Runner's verbose/failure reporting contract applies unchanged to
// containerized runs.
type ContainerExecutor struct {
	cli   *Client
	image string

	// pullOnce guards the lazy image pull so a three-step pipeline run
	// inspects/pulls at most once.
	pullOnce sync.Once
	pullErr  error
}

// NewContainerExecutor creates an executor that runs every command inside
// the given image via the provided client. The image must contain both
// c3d and trim_neck.sh on its PATH.
func NewContainerExecutor(cli *Client, imageRef string) (*ContainerExecutor, error) {
	if imageRef == "" {
		return nil, fmt.Errorf("container executor requires a non-empty image reference")
	}
	return &ContainerExecutor{cli: cli, image: imageRef}, nil
}

// Image returns the image reference this executor runs commands in.
// Used by the CLI's result output to report the execution backend.
func (e *ContainerExecutor) Image() string {
	return e.image
}

// Exec runs argv inside a fresh container and blocks until it exits.
// The captured stdout and stderr are returned in both the success and
// failure cases; a non-zero container exit status is reported as an error
// so the Runner treats it exactly like a local non-zero exit.
func (e *ContainerExecutor) Exec(ctx context.Context, workDir string, argv []string) (string, string, error) {
	if err := e.ensureImage(ctx); err != nil {
		return "", "", err
	}

	cfg := &container.Config{
		Image:      e.image,
		Cmd:        strslice.StrSlice(argv),
		WorkingDir: workDir,
	}

	hostCfg := &container.HostConfig{}
	if workDir != "" {
		// Mount the scratch directory at the same absolute path inside
		// the container. The pipeline passes absolute scratch paths on
		// the command line, and trim_neck.sh writes its mask artifacts
		// next to them; a 1:1 mount keeps every path valid on both sides.
		hostCfg.Binds = []string{workDir + ":" + workDir}
	}

	created, err := e.cli.Inner().ContainerCreate(ctx, cfg, hostCfg, nil, nil, "")
	if err != nil {
		return "", "", fmt.Errorf("failed to create container from %s: %w", e.image, err)
	}

	// Remove the container whichever way the invocation ends. Force
	// covers the edge where the container is still transitioning state.
	defer func() {
		_ = e.cli.Inner().ContainerRemove(context.WithoutCancel(ctx), created.ID,
			container.RemoveOptions{Force: true})
	}()

	if err := e.cli.Inner().ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return "", "", fmt.Errorf("failed to start container for %q: %w", argv[0], err)
	}

	// Block until the container stops. No timeout: external tool
	// execution is unbounded by design, same as the local backend.
	waitCh, errCh := e.cli.Inner().ContainerWait(ctx, created.ID, container.WaitConditionNotRunning)

	var status int64
	select {
	case waitErr := <-errCh:
		return "", "", fmt.Errorf("failed waiting for container: %w", waitErr)
	case resp := <-waitCh:
		if resp.Error != nil {
			return "", "", fmt.Errorf("container wait error: %s", resp.Error.Message)
		}
		status = resp.StatusCode
	}

	stdout, stderr, logErr := e.collectLogs(ctx, created.ID)
	if logErr != nil {
		// The streams are part of the failure-reporting contract, so a
		// log collection failure is itself a failure even on exit 0.
		return stdout, stderr, fmt.Errorf("failed to collect container logs: %w", logErr)
	}

	if status != 0 {
		return stdout, stderr, fmt.Errorf("exit status %d", status)
	}
	return stdout, stderr, nil
}

// ensureImage makes sure the configured image is available locally,
// pulling it on first use. The result is cached for the lifetime of the
// executor so the pipeline's three steps trigger at most one pull.
func (e *ContainerExecutor) ensureImage(ctx context.Context) error {
	e.pullOnce.Do(func() {
		// A successful inspect means the image is already present.
		if _, _, err := e.cli.Inner().ImageInspectWithRaw(ctx, e.image); err == nil {
			return
		}

		rc, err := e.cli.Inner().ImagePull(ctx, e.image, image.PullOptions{})
		if err != nil {
			e.pullErr = fmt.Errorf("failed to pull image %s: %w", e.image, err)
			return
		}
		// The pull only completes once the progress stream is drained.
		_, e.pullErr = io.Copy(io.Discard, rc)
		_ = rc.Close()
	})
	return e.pullErr
}

// collectLogs fetches the finished container's log stream and splits it
// back into stdout and stderr. Docker multiplexes both streams into one
// connection for non-TTY containers; stdcopy.StdCopy demultiplexes them.
func (e *ContainerExecutor) collectLogs(ctx context.Context, containerID string) (string, string, error) {
	rc, err := e.cli.Inner().ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return "", "", err
	}
	defer rc.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, rc); err != nil {
		return stdout.String(), stderr.String(), err
	}
	return stdout.String(), stderr.String(), nil
}
