// Package cli implements the cobra-based command-line surface of trimneck.
//
// The root command is the trim operation itself: validate preconditions,
// run the neck-trim pipeline in a private scratch directory, and publish
// the padded result to the requested output path. A single diagnostic
// subcommand (check) probes tool availability without processing anything.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/trimneck/internal/config"
	"github.com/mmr-tortoise/trimneck/internal/docker"
	"github.com/mmr-tortoise/trimneck/internal/model"
	"github.com/mmr-tortoise/trimneck/internal/pipeline"
	"github.com/mmr-tortoise/trimneck/internal/runner"
)

// Global flag variables bound to cobra persistent flags on the root
// command, which makes them available to every subcommand automatically.
var (
	// jsonOutput switches result and error output to JSON for machine
	// consumption. Diagnostics still go to stderr either way.
	jsonOutput bool

	// verbose echoes each external command line and its captured streams.
	// The value is threaded into the Runner at construction; nothing
	// reads this variable during command execution.
	verbose bool

	// configPath is the optional run configuration file (--config).
	configPath string
)

// Version, Commit, and Date are set at build time via ldflags.
// They are injected from the main package for --version output.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootFlags holds the flag values specific to the trim operation.
type rootFlags struct {
	input  string // --input: input anatomical image
	output string // --output: final trimmed/padded image path
	qcDir  string // --qc-dir: optional export directory for the QC masks
	padMM  int    // --pad-mm: per-face padding in millimeters
}

// NewRootCommand creates and configures the root cobra command.
//
// Unlike a multi-verb CLI, the root command does the work: trimneck is a
// single-pipeline tool and `trimneck --input a --output b` is the whole
// user-facing surface. The check subcommand exists purely for diagnosis.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "trimneck --input <image> --output <image>",
		Short: "Neck trim an anatomical image and conform it to LPI orientation",
		Long: `trimneck removes non-brain neck tissue from a T1w anatomical image.

The input is conformed to canonical LPI axis ordering with c3d, trimmed
with trim_neck.sh, and padded with empty voxels on every face. All
intermediate files live in a private temporary directory that is removed
when the run ends, whether it succeeded or not.

Both c3d and trim_neck.sh must be invocable, either on PATH or inside a
container image named by the run configuration (--config, docker.image).

Examples:
  trimneck --input brain_native.nii.gz --output out/trimmed.nii.gz
  trimneck --input t1.nii.gz --output t1_trim.nii.gz --pad-mm 15
  trimneck --input t1.nii.gz --output t1_trim.nii.gz --qc-dir qc/
  trimneck --config site.yaml --input t1.nii.gz --output t1_trim.nii.gz`,

		// We format errors and usage ourselves for cleaner output.
		SilenceUsage:  true,
		SilenceErrors: true,

		Args: cobra.NoArgs,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrim(cmd, flags)
		},
	}

	rootCmd.Flags().StringVar(&flags.input, "input", "", "Input anatomical image (required)")
	rootCmd.Flags().StringVar(&flags.output, "output", "", "Output image path (required)")
	rootCmd.Flags().IntVar(&flags.padMM, "pad-mm", config.DefaultPadMM, "Padding in mm added to every face of the trimmed volume")
	rootCmd.Flags().StringVar(&flags.qcDir, "qc-dir", "", "Directory to receive the QC mask artifacts (default: discard)")
	_ = rootCmd.MarkFlagRequired("input")
	_ = rootCmd.MarkFlagRequired("output")

	// PersistentFlags are inherited by all subcommands.
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Echo external commands and their output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Run configuration file (.yaml/.yml/.json/.jsonc)")

	rootCmd.AddCommand(NewCheckCommand())

	return rootCmd
}

// Execute runs the root command and translates errors into process exit
// codes: CLIError carries its own code, anything else exits 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		if cliErr, ok := err.(*model.CLIError); ok {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		printError(err.Error(), nil)
		os.Exit(int(model.ExitFailure))
	}
}

// runTrim is the orchestration function for the trim operation.
//
// Order matters: every precondition is checked before any image
// processing begins, so a missing tool or input fails fast without
// touching the output path.
func runTrim(cmd *cobra.Command, flags *rootFlags) error {
	// The CLI never cancels a running pipeline: once started, the only
	// way to stop is external process termination.
	ctx := context.Background()

	if err := model.ValidateImagePath(flags.input); err != nil {
		return model.WrapCLIError(model.ExitFailure, "invalid --input", err)
	}
	if err := model.ValidateImagePath(flags.output); err != nil {
		return model.WrapCLIError(model.ExitFailure, "invalid --output", err)
	}

	// Step 1: Resolve the run configuration. Defaults unless --config
	// names a file; the --pad-mm flag wins over the file when given
	// explicitly on the command line.
	cfg, err := loadRunConfig(cmd, flags)
	if err != nil {
		return err
	}

	// Step 2: Select the execution backend and wire the runner with the
	// run-scoped verbosity.
	exec, backend, closeBackend, err := newExecutor(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()
	r := runner.New(exec, verbose, os.Stderr)
	VerboseLog("Execution backend: %s", backend)

	// Step 3: Precondition checks, each fatal before any processing.
	if err := r.Probe(ctx, cfg.C3D); err != nil {
		return model.WrapCLIError(model.ExitFailure,
			fmt.Sprintf("could not run %s, check PATH", cfg.C3D), err)
	}
	if err := r.Probe(ctx, cfg.TrimNeck); err != nil {
		return model.WrapCLIError(model.ExitFailure,
			fmt.Sprintf("could not run %s, check PATH", cfg.TrimNeck), err)
	}
	if _, err := os.Stat(flags.input); err != nil {
		return model.WrapCLIError(model.ExitFailure,
			fmt.Sprintf("input image %s does not exist", flags.input), err)
	}

	// Step 4: Create the output directory if its path does not yet exist.
	outputDir := filepath.Dir(flags.output)
	if outputDir != "." {
		if mkErr := os.MkdirAll(outputDir, 0755); mkErr != nil {
			return model.WrapCLIError(model.ExitFailure, "failed to create output directory", mkErr)
		}
	}

	// Step 5: Create the private scratch directory under the system temp
	// root. Removal is deferred at creation, so intermediate artifacts
	// are discarded whether or not the run succeeds.
	workDir, err := os.MkdirTemp("", "*t1wpreproc.tmpdir")
	if err != nil {
		return model.WrapCLIError(model.ExitFailure, "failed to create working directory", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()
	VerboseLog("Working directory: %s", workDir)

	// The container backend only sees paths under the bind-mounted
	// scratch directory, so stage the input into it first.
	pipelineInput := flags.input
	if cfg.Docker.Image != "" {
		staged := filepath.Join(workDir, "input_native.nii.gz")
		if copyErr := pipeline.CopyFile(flags.input, staged); copyErr != nil {
			return model.WrapCLIError(model.ExitFailure, "failed to stage input into working directory", copyErr)
		}
		pipelineInput = staged
	}

	// Step 6: Run the pipeline.
	opts := pipeline.Options{C3D: cfg.C3D, TrimNeck: cfg.TrimNeck, PadMM: cfg.PadMM}
	result, err := pipeline.NeckTrim(ctx, r, pipelineInput, workDir, opts)
	if err != nil {
		return model.WrapCLIError(model.ExitFailure, "neck trim pipeline failed", err)
	}

	// Step 7: Publish the final image, then the optional QC masks.
	if err := pipeline.CopyFile(result.TrimmedImage, flags.output); err != nil {
		return model.WrapCLIError(model.ExitFailure, "failed to write output image", err)
	}

	var qcPaths []string
	if flags.qcDir != "" {
		qcPaths, err = exportQC(result, flags.qcDir)
		if err != nil {
			return err
		}
	}

	printTrimResult(flags.output, cfg.PadMM, backend, qcPaths)
	return nil
}

// loadRunConfig merges the configuration file (if any) with command-line
// overrides. An explicitly passed --pad-mm beats the file value; an
// untouched flag lets the file (or the built-in default) stand.
func loadRunConfig(cmd *cobra.Command, flags *rootFlags) (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitFailure, "could not load config", err)
		}
		cfg = loaded
		VerboseLog("Loaded config: %s", configPath)
	}

	if cmd.Flags().Changed("pad-mm") {
		cfg.PadMM = flags.padMM
		if err := cfg.Validate(); err != nil {
			return nil, model.WrapCLIError(model.ExitFailure, "invalid --pad-mm", err)
		}
	}
	return cfg, nil
}

// newExecutor builds the execution backend the configuration asks for:
// host PATH by default, one-shot containers when docker.image is set.
// The returned closer releases the Docker client; it is a no-op for the
// local backend.
func newExecutor(ctx context.Context, cfg *config.Config) (runner.Executor, string, func(), error) {
	if cfg.Docker.Image == "" {
		return runner.NewLocalExecutor(), "local", func() {}, nil
	}

	cli, err := docker.NewClient()
	if err != nil {
		return nil, "", nil, err // NewClient already returns a CLIError
	}
	if err := cli.Ping(ctx); err != nil {
		_ = cli.Close()
		return nil, "", nil, err
	}

	exec, err := docker.NewContainerExecutor(cli, cfg.Docker.Image)
	if err != nil {
		_ = cli.Close()
		return nil, "", nil, model.WrapCLIError(model.ExitFailure, "invalid docker configuration", err)
	}

	backend := "docker:" + cfg.Docker.Image
	return exec, backend, func() { _ = cli.Close() }, nil
}

// exportQC copies the two mask artifacts out of the scratch directory for
// quality-control review. The masks are the trim tool's side products; by
// default they vanish with the scratch directory, and this opt-in export
// is the only way to keep them.
func exportQC(result *model.TrimResult, qcDir string) ([]string, error) {
	if err := os.MkdirAll(qcDir, 0755); err != nil {
		return nil, model.WrapCLIError(model.ExitFailure, "failed to create QC directory", err)
	}

	var exported []string
	for _, src := range []string{result.BrainMask, result.TrimRegionMask} {
		dst := filepath.Join(qcDir, filepath.Base(src))
		if err := pipeline.CopyFile(src, dst); err != nil {
			return nil, model.WrapCLIError(model.ExitFailure, "failed to export QC mask", err)
		}
		exported = append(exported, dst)
	}
	return exported, nil
}

// printTrimResult outputs the run summary in text or JSON format.
func printTrimResult(output string, padMM int, backend string, qcPaths []string) {
	if jsonOutput {
		result := struct {
			Output  string   `json:"output"`
			PadMM   int      `json:"padMM"`
			Backend string   `json:"backend"`
			QC      []string `json:"qc,omitempty"`
		}{Output: output, PadMM: padMM, Backend: backend, QC: qcPaths}

		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Wrote %s (padded %dmm per face)\n", output, padMM)
	for _, qc := range qcPaths {
		fmt.Printf("  QC: %s\n", qc)
	}
}

// printError outputs an error message in text or JSON format based on the
// --json global flag. Errors go to stderr in both modes because stdout is
// reserved for successful result output.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		if underlying != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", message)
		}
	}
}

// VerboseLog prints a message to stderr only when verbose mode is enabled.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}
