// Package pipeline implements the neck-trim preprocessing pipeline:
// reorient a T1w anatomical image to canonical LPI axis ordering, remove
// neck tissue with the external trim_neck.sh segmentation tool, and pad
// the trimmed volume with background voxels.
//
// The pipeline contributes no image algorithm of its own. It is a fixed
// sequence of three external tool invocations where each step's output
// path is the next step's input path, all inside a scratch directory the
// caller owns. The scratch filenames are a contract: trim_neck.sh writes
// its mask artifacts under names it controls internally, and this package
// assumes those names by convention. If the tool's naming changes, this
// package breaks; there is deliberately no defensive probing.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mmr-tortoise/trimneck/internal/model"
	"github.com/mmr-tortoise/trimneck/internal/runner"
)

// Scratch-directory filenames. ReorientedName and TrimmedName are chosen
// by this package; BrainMaskName and TrimRegionName are side artifacts
// trim_neck.sh derives from the trimmed image name.
const (
	// ReorientedName is the input conformed to LPI orientation.
	ReorientedName = "input_reoriented_LPI.nii.gz"

	// TrimmedName is the neck-trimmed image. The pad step overwrites it
	// in place, so after a successful run it holds the padded result.
	TrimmedName = "T1wNeckTrim.nii.gz"

	// BrainMaskName is the brain mask trim_neck.sh writes next to the
	// trimmed image. QC artifact only.
	BrainMaskName = "T1wNeckTrim_mask.nii.gz"

	// TrimRegionName marks the retained voxels in the original image
	// space. QC artifact only.
	TrimRegionName = "T1wNeckTrim_region.nii.gz"
)

// targetOrientation is the canonical axis ordering every input is
// conformed to before trimming.
const targetOrientation = "LPI"

// trimThreshold is the internal threshold passed to trim_neck.sh -c.
// Fixed by the upstream preprocessing protocol, not user-tunable.
const trimThreshold = "20"

// Options selects the tool commands and padding for one pipeline run.
// The zero value is not usable; callers populate it from the run
// configuration (config.Default() or a loaded file, plus flags).
type Options struct {
	// C3D is the command for the reorientation and padding steps.
	C3D string

	// TrimNeck is the command for the neck-trim step.
	TrimNeck string

	// PadMM is the margin in millimeters added to every face of the
	// trimmed volume, filled with background value zero.
	PadMM int
}

// NeckTrim runs the three-step pipeline on inputImage inside workDir and
// returns the scratch paths of the trimmed image and the two QC masks.
//
// Steps, strictly ordered, each a single Runner invocation:
//
//  1. Reorient: c3d <input> -swapdim LPI -o <workDir>/input_reoriented_LPI.nii.gz
//  2. Trim:     trim_neck.sh -c 20 -w <workDir> <reoriented> <workDir>/T1wNeckTrim.nii.gz
//  3. Pad:      c3d <trimmed> -pad PxPxPmm PxPxPmm 0 -o <trimmed>
//
// Any step failure propagates immediately; later steps do not run. The
// caller owns workDir and its cleanup, so a failed run leaves no partial
// artifacts behind once the scratch directory is removed.
func NeckTrim(ctx context.Context, r *runner.Runner, inputImage, workDir string, opts Options) (*model.TrimResult, error) {
	// Conform the input to the target orientation. Downstream tools
	// assume LPI, so this always runs even for already-conformed inputs
	// (c3d makes it a cheap no-op rewrite in that case).
	reoriented := filepath.Join(workDir, ReorientedName)
	if _, err := r.Run(ctx, workDir, opts.C3D, inputImage, "-swapdim", targetOrientation, "-o", reoriented); err != nil {
		return nil, err
	}

	// Trim the neck. trim_neck.sh reads the reoriented image, writes the
	// trimmed image to the path we give it, and drops its mask artifacts
	// in the scratch directory under convention-based names.
	trimmed := filepath.Join(workDir, TrimmedName)
	if _, err := r.Run(ctx, workDir, opts.TrimNeck, "-c", trimThreshold, "-w", workDir, reoriented, trimmed); err != nil {
		return nil, err
	}

	// Pad the trimmed image in place, expanding the field of view by
	// PadMM on each face and filling new voxels with zero. c3d's -pad
	// takes a lower and an upper extent followed by the fill value.
	pad := padSpec(opts.PadMM)
	if _, err := r.Run(ctx, workDir, opts.C3D, trimmed, "-pad", pad, pad, "0", "-o", trimmed); err != nil {
		return nil, err
	}

	return &model.TrimResult{
		TrimmedImage:   trimmed,
		BrainMask:      filepath.Join(workDir, BrainMaskName),
		TrimRegionMask: filepath.Join(workDir, TrimRegionName),
	}, nil
}

// padSpec formats the per-axis millimeter padding extent for c3d -pad,
// e.g. "10x10x10mm". The same margin is applied on all three axes.
func padSpec(padMM int) string {
	return fmt.Sprintf("%dx%dx%dmm", padMM, padMM, padMM)
}
