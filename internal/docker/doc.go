// Package docker provides the containerized execution backend for the
// trimneck pipeline.
//
// Neuroimaging toolchains are commonly distributed as container images so
// that every host runs the exact same c3d build. When a run configuration
// names an image, each pipeline step executes inside a fresh one-shot
// container from that image, with the scratch directory bind-mounted at
// its host path so the tools read and write the same files the local
// backend would.
//
// This package handles:
//   - Docker client initialization with automatic socket detection
//     (Linux, macOS, Windows)
//   - One-shot container execution: create, start, wait, collect logs,
//     remove
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package docker
