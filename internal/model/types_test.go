package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPipelineError_Error verifies the message format includes the full
// command line, with and without an underlying error.
func TestPipelineError_Error(t *testing.T) {
	underlying := errors.New("exit status 1")

	withErr := NewPipelineError([]string{"c3d", "in.nii.gz", "-swapdim", "LPI"}, underlying)
	assert.Contains(t, withErr.Error(), "c3d in.nii.gz -swapdim LPI")
	assert.Contains(t, withErr.Error(), "exit status 1")

	withoutErr := &PipelineError{Cmd: "trim_neck.sh -h"}
	assert.Equal(t, "error running command: trim_neck.sh -h", withoutErr.Error())
}

// TestPipelineError_Unwrap verifies errors.Is can see through a
// PipelineError to the underlying process error.
func TestPipelineError_Unwrap(t *testing.T) {
	underlying := errors.New("exit status 2")
	err := NewPipelineError([]string{"c3d", "-h"}, underlying)

	assert.True(t, errors.Is(err, underlying))

	var pe *PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "c3d -h", pe.Cmd)
}

// TestCLIError verifies message formatting and unwrapping for the exit-code
// carrying error type used at the CLI boundary.
func TestCLIError(t *testing.T) {
	plain := NewCLIError(ExitFailure, "input image does not exist")
	assert.Equal(t, "input image does not exist", plain.Error())
	assert.Equal(t, ExitFailure, plain.Code)

	underlying := errors.New("no such file")
	wrapped := WrapCLIError(ExitFailure, "could not read config", underlying)
	assert.Equal(t, "could not read config: no such file", wrapped.Error())
	assert.True(t, errors.Is(wrapped, underlying))
}

// TestCLIError_WrapsPipelineError verifies the nesting used when a pipeline
// step fails: CLIError at the boundary, PipelineError underneath.
func TestCLIError_WrapsPipelineError(t *testing.T) {
	pe := NewPipelineError([]string{"trim_neck.sh", "-c", "20"}, errors.New("exit status 1"))
	cliErr := WrapCLIError(ExitFailure, "neck trim pipeline failed", pe)

	var got *PipelineError
	require.True(t, errors.As(cliErr, &got))
	assert.Equal(t, "trim_neck.sh -c 20", got.Cmd)
}

// TestValidateImagePath checks the syntactic path validation rules.
func TestValidateImagePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"valid relative", "brain_native.nii.gz", false},
		{"valid nested", "out/trimmed.nii.gz", false},
		{"empty", "", true},
		{"trailing separator", "out/", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImagePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
