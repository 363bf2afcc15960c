// Package cli — check.go implements the "trimneck check" subcommand.
//
// check runs the same tool-availability probes the trim operation performs
// as preconditions, without touching any image. It exists so a user can
// verify their environment (PATH or container image) before queueing a
// batch of scans.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/trimneck/internal/config"
	"github.com/mmr-tortoise/trimneck/internal/model"
	"github.com/mmr-tortoise/trimneck/internal/runner"
)

// NewCheckCommand creates the "check" cobra command.
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Probe the external tools and report availability",
		Long: `Probe c3d and trim_neck.sh with a help-style invocation and report
whether each is invocable through the selected execution backend.

Exits 0 when both tools respond, 1 otherwise.

Examples:
  trimneck check
  trimneck check --config site.yaml
  trimneck check --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck()
		},
	}

	return cmd
}

// runCheck probes both tools and reports per-tool status. Unlike the trim
// preconditions, it does not stop at the first failure: a user fixing
// their environment wants the full picture in one pass.
func runCheck() error {
	ctx := context.Background()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return model.WrapCLIError(model.ExitFailure, "could not load config", err)
		}
		cfg = loaded
	}

	exec, backend, closeBackend, err := newExecutor(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	r := runner.New(exec, verbose, os.Stderr)

	status := map[string]bool{
		cfg.C3D:      r.Probe(ctx, cfg.C3D) == nil,
		cfg.TrimNeck: r.Probe(ctx, cfg.TrimNeck) == nil,
	}

	printCheckResult(backend, status)

	for tool, ok := range status {
		if !ok {
			return model.NewCLIError(model.ExitFailure,
				fmt.Sprintf("could not run %s, check PATH", tool))
		}
	}
	return nil
}

// printCheckResult outputs the per-tool availability in text or JSON.
func printCheckResult(backend string, status map[string]bool) {
	if jsonOutput {
		result := struct {
			Backend string          `json:"backend"`
			Tools   map[string]bool `json:"tools"`
		}{Backend: backend, Tools: status}

		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Backend: %s\n", backend)
	for tool, ok := range status {
		mark := "ok"
		if !ok {
			mark = "MISSING"
		}
		fmt.Printf("  %-14s %s\n", tool, mark)
	}
}
