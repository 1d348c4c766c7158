package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPipelineYAML = `
name: analyst
max_steps: 12
stages:
  - name: Hypothesis
    router: hypothesis
  - name: Process
    router: process
  - name: Coder
    default_next: QualityReview
  - name: QualityReview
    router: quality_review
  - name: NoteTaker
    default_next: Process
  - name: Refiner
    default_next: end
`

func TestLoadPipeline(t *testing.T) {
	cfg, err := LoadPipeline(strings.NewReader(validPipelineYAML))
	require.NoError(t, err)

	assert.Equal(t, "analyst", cfg.Name)
	assert.Equal(t, 12, cfg.MaxSteps)
	assert.Equal(t, 300, cfg.DefaultTimeoutSeconds)
	require.Len(t, cfg.Stages, 6)
	assert.Equal(t, RouterHypothesis, cfg.GetStage("Hypothesis").Router)
	assert.Equal(t, "QualityReview", cfg.GetStage("Coder").DefaultNext)
}

func TestLoadPipelineDefaultsBounds(t *testing.T) {
	yamlDoc := `
name: minimal
stages:
  - name: Refiner
    default_next: end
`
	cfg, err := LoadPipeline(strings.NewReader(yamlDoc))
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.MaxSteps)
	assert.Equal(t, 300, cfg.DefaultTimeoutSeconds)
}

func TestLoadPipelineErrors(t *testing.T) {
	tests := []struct {
		name    string
		yamlDoc string
		wantErr string
	}{
		{
			name:    "malformed yaml",
			yamlDoc: "name: [unclosed",
			wantErr: "decode pipeline config",
		},
		{
			name:    "unknown field",
			yamlDoc: "name: x\nretries: 3\nstages:\n  - name: Refiner\n    default_next: end\n",
			wantErr: "decode pipeline config",
		},
		{
			name:    "fails validation",
			yamlDoc: "name: x\nstages:\n  - name: Dancer\n    default_next: end\n",
			wantErr: "invalid pipeline config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPipeline(strings.NewReader(tt.yamlDoc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadPipelineFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validPipelineYAML), 0o644))

	cfg, err := LoadPipelineFile(path)
	require.NoError(t, err)
	assert.Equal(t, "analyst", cfg.Name)

	_, err = LoadPipelineFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
