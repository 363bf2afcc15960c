// copy.go publishes pipeline artifacts out of the scratch directory.
// Scratch contents vanish with the directory, so anything the user keeps
// is byte-copied to a path they chose before cleanup runs.
package pipeline

import (
	"fmt"
	"io"
	"os"
)

// CopyFile copies src to dst byte for byte, creating or truncating dst.
// The destination is synced before close so the published image is fully
// on disk by the time the scratch directory is removed.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("failed to sync %s: %w", dst, err)
	}
	return out.Close()
}
