package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datalab-systems/analyst-core/coreengine/router"
)

func TestStageConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		stage   StageConfig
		wantErr string
	}{
		{
			name:    "missing name",
			stage:   StageConfig{DefaultNext: "end"},
			wantErr: "Name is required",
		},
		{
			name:    "unknown stage name",
			stage:   StageConfig{Name: "Dancer", DefaultNext: "end"},
			wantErr: "unknown stage name",
		},
		{
			name:    "unknown router binding",
			stage:   StageConfig{Name: "Coder", Router: "mystery"},
			wantErr: "unknown router binding",
		},
		{
			name:    "no router and no default next",
			stage:   StageConfig{Name: "Coder"},
			wantErr: "needs a default_next",
		},
		{
			name:  "router binding alone is enough",
			stage: StageConfig{Name: "Process", Router: RouterProcess},
		},
		{
			name:  "default next alone is enough",
			stage: StageConfig{Name: "Coder", DefaultNext: "QualityReview"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.stage.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestStageConfigValidateDefaults(t *testing.T) {
	stage := StageConfig{Name: "Coder", DefaultNext: "end"}
	require.NoError(t, stage.Validate())
	assert.Equal(t, "Coder", stage.OutputKey)
	assert.Equal(t, RouterNone, stage.Router)
}

func TestPipelineConfigValidate(t *testing.T) {
	t.Run("no stages", func(t *testing.T) {
		p := NewPipelineConfig("empty")
		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no stages")
	})

	t.Run("duplicate stage names", func(t *testing.T) {
		p := NewPipelineConfig("dupes")
		p.Stages = []*StageConfig{
			{Name: "Coder", DefaultNext: "end"},
			{Name: "Coder", DefaultNext: "end"},
		}
		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate stage name")
	})

	t.Run("dangling default next", func(t *testing.T) {
		p := NewPipelineConfig("dangling")
		p.Stages = []*StageConfig{
			{Name: "Coder", DefaultNext: "QualityReview"},
		}
		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("non-positive max steps", func(t *testing.T) {
		p := NewPipelineConfig("bounds")
		p.MaxSteps = 0
		p.Stages = []*StageConfig{
			{Name: "Refiner", DefaultNext: EndTarget},
		}
		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_steps")
	})
}

func TestAddStageRejectsInvalid(t *testing.T) {
	p := NewPipelineConfig("strict")
	err := p.AddStage(&StageConfig{Name: "NotAStage", DefaultNext: "end"})
	assert.Error(t, err)
	assert.Empty(t, p.Stages)
}

func TestDefaultPipeline(t *testing.T) {
	p := DefaultPipeline()
	require.NoError(t, p.Validate())
	assert.Equal(t, "analyst", p.Name)
	assert.Len(t, p.Stages, 9)
	assert.Equal(t, 30, p.MaxSteps)

	// Every stage of the enumeration is present exactly once.
	for _, stage := range router.Stages() {
		assert.NotNil(t, p.GetStage(string(stage)), "missing stage %s", stage)
	}

	// Worker stages flow into quality review; the refiner terminates.
	for _, worker := range []string{"Coder", "Search", "Visualization", "Report"} {
		assert.Equal(t, "QualityReview", p.GetStage(worker).DefaultNext)
	}
	assert.Equal(t, EndTarget, p.GetStage("Refiner").DefaultNext)
	assert.Equal(t, RouterHypothesis, p.GetStage("Hypothesis").Router)
	assert.Equal(t, RouterProcess, p.GetStage("Process").Router)
	assert.Equal(t, RouterQualityReview, p.GetStage("QualityReview").Router)
	assert.Equal(t, "Process", p.GetStage("NoteTaker").DefaultNext)
}

func TestGetStageMissing(t *testing.T) {
	p := DefaultPipeline()
	assert.Nil(t, p.GetStage("NoSuchStage"))
}

func TestStageNames(t *testing.T) {
	p := DefaultPipeline()
	names := p.StageNames()
	require.Len(t, names, 9)
	assert.Equal(t, "Hypothesis", names[0])
	assert.Equal(t, "Refiner", names[8])
}
