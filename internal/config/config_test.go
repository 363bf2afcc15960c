package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes config content to a file with the given name inside
// a fresh temp dir and returns its path.
func writeConfig(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestDefault verifies the out-of-the-box configuration: bare tool names
// resolved through PATH and 10mm padding.
func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "c3d", cfg.C3D)
	assert.Equal(t, "trim_neck.sh", cfg.TrimNeck)
	assert.Equal(t, 10, cfg.PadMM)
	assert.Empty(t, cfg.Docker.Image)
}

// TestLoad_YAML verifies YAML parsing with all fields set.
func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "trimneck.yaml", `
c3d: /opt/itksnap/bin/c3d
trimNeck: /opt/picsl/trim_neck.sh
padMM: 15
docker:
  image: pyushkevich/itksnap:v3.8.0
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/itksnap/bin/c3d", cfg.C3D)
	assert.Equal(t, "/opt/picsl/trim_neck.sh", cfg.TrimNeck)
	assert.Equal(t, 15, cfg.PadMM)
	assert.Equal(t, "pyushkevich/itksnap:v3.8.0", cfg.Docker.Image)
}

// TestLoad_YAMLPartial verifies that unset fields fall back to defaults.
func TestLoad_YAMLPartial(t *testing.T) {
	path := writeConfig(t, "partial.yml", "padMM: 5\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "c3d", cfg.C3D, "unset tool path should default")
	assert.Equal(t, "trim_neck.sh", cfg.TrimNeck)
	assert.Equal(t, 5, cfg.PadMM)
}

// TestLoad_JSONC verifies that comments and trailing commas are tolerated
// in JSON config files.
func TestLoad_JSONC(t *testing.T) {
	path := writeConfig(t, "trimneck.jsonc", `{
  // site-pinned toolchain
  "c3d": "/usr/lib/c3d-1.4.2/c3d",
  "padMM": 12, // wider margin for pediatric scans
}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/usr/lib/c3d-1.4.2/c3d", cfg.C3D)
	assert.Equal(t, 12, cfg.PadMM)
	assert.Equal(t, "trim_neck.sh", cfg.TrimNeck, "unset field should default")
}

// TestLoad_PlainJSON verifies the .json extension takes the same path as .jsonc.
func TestLoad_PlainJSON(t *testing.T) {
	path := writeConfig(t, "trimneck.json", `{"trimNeck": "neck_trim_v2.sh"}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "neck_trim_v2.sh", cfg.TrimNeck)
}

// TestLoad_Errors covers the failure modes: missing file, unknown
// extension, malformed content, and invalid values.
func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := writeConfig(t, "trimneck.toml", "padMM = 5")
		_, err := Load(path)
		assert.ErrorContains(t, err, "unsupported config format")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "bad.yaml", "c3d: [unclosed")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("negative padding", func(t *testing.T) {
		path := writeConfig(t, "neg.yaml", "padMM: -3\n")
		_, err := Load(path)
		assert.ErrorContains(t, err, "padMM")
	})
}
