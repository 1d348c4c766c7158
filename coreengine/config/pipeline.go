// Package config provides pipeline and core configuration for the
// orchestration engine.
package config

import (
	"fmt"

	"github.com/datalab-systems/analyst-core/coreengine/router"
)

// RouterBinding selects which router decides the next stage after a stage
// completes.
type RouterBinding string

const (
	// RouterNone means the stage advances to its DefaultNext.
	RouterNone RouterBinding = "none"
	// RouterHypothesis binds the hypothesis gate.
	RouterHypothesis RouterBinding = "hypothesis"
	// RouterProcess binds the process router.
	RouterProcess RouterBinding = "process"
	// RouterQualityReview binds the quality review router.
	RouterQualityReview RouterBinding = "quality_review"
)

// IsValid reports whether the binding is one of the known values.
func (b RouterBinding) IsValid() bool {
	switch b {
	case RouterNone, RouterHypothesis, RouterProcess, RouterQualityReview:
		return true
	}
	return false
}

// EndTarget is the pseudo-stage that terminates the pipeline.
const EndTarget = "end"

// StageConfig is the declarative configuration of one pipeline stage.
type StageConfig struct {
	// Name must be a member of the stage enumeration.
	Name string `json:"name" yaml:"name"`

	// OutputKey labels this stage's contribution in the run state and
	// event stream. Defaults to the stage name.
	OutputKey string `json:"output_key" yaml:"output_key"`

	// Router selects the routing function consulted after this stage.
	Router RouterBinding `json:"router" yaml:"router"`

	// DefaultNext is the next stage when Router is none.
	DefaultNext string `json:"default_next" yaml:"default_next"`

	// TimeoutSeconds overrides the pipeline default when positive.
	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// Validate validates the stage configuration.
func (c *StageConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("StageConfig.Name is required")
	}
	if _, ok := router.StageFromString(c.Name); !ok {
		return fmt.Errorf("unknown stage name %q", c.Name)
	}
	if c.OutputKey == "" {
		c.OutputKey = c.Name
	}
	if c.Router == "" {
		c.Router = RouterNone
	}
	if !c.Router.IsValid() {
		return fmt.Errorf("stage %q has unknown router binding %q", c.Name, c.Router)
	}
	if c.Router == RouterNone && c.DefaultNext == "" {
		return fmt.Errorf("stage %q needs a default_next or a router binding", c.Name)
	}
	return nil
}

// PipelineConfig defines the stage graph and the run bounds.
type PipelineConfig struct {
	Name   string         `json:"name" yaml:"name"`
	Stages []*StageConfig `json:"stages" yaml:"stages"`

	// MaxSteps is the total-step safety ceiling. Revision loops are
	// bounded only by this cap.
	MaxSteps int `json:"max_steps" yaml:"max_steps"`

	// DefaultTimeoutSeconds applies to stages without their own timeout.
	DefaultTimeoutSeconds int `json:"default_timeout_seconds" yaml:"default_timeout_seconds"`
}

// NewPipelineConfig creates a pipeline config with defaults.
func NewPipelineConfig(name string) *PipelineConfig {
	return &PipelineConfig{
		Name:                  name,
		Stages:                make([]*StageConfig, 0),
		MaxSteps:              30,
		DefaultTimeoutSeconds: 300,
	}
}

// AddStage adds a stage to the pipeline.
func (p *PipelineConfig) AddStage(stage *StageConfig) error {
	if err := stage.Validate(); err != nil {
		return err
	}
	p.Stages = append(p.Stages, stage)
	return nil
}

// Validate validates the pipeline configuration.
func (p *PipelineConfig) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("PipelineConfig.Name is required")
	}
	if len(p.Stages) == 0 {
		return fmt.Errorf("pipeline %q has no stages", p.Name)
	}
	if p.MaxSteps <= 0 {
		return fmt.Errorf("pipeline %q max_steps must be positive, got %d", p.Name, p.MaxSteps)
	}

	names := make(map[string]bool)
	for _, stage := range p.Stages {
		if err := stage.Validate(); err != nil {
			return err
		}
		if names[stage.Name] {
			return fmt.Errorf("duplicate stage name: %s", stage.Name)
		}
		names[stage.Name] = true
	}

	for _, stage := range p.Stages {
		if stage.DefaultNext == "" || stage.DefaultNext == EndTarget {
			continue
		}
		if !names[stage.DefaultNext] {
			return fmt.Errorf("stage %q default_next %q not found", stage.Name, stage.DefaultNext)
		}
	}

	return nil
}

// GetStage gets a stage config by name.
func (p *PipelineConfig) GetStage(name string) *StageConfig {
	for _, stage := range p.Stages {
		if stage.Name == name {
			return stage
		}
	}
	return nil
}

// StageNames returns the configured stage names in order.
func (p *PipelineConfig) StageNames() []string {
	names := make([]string, len(p.Stages))
	for i, stage := range p.Stages {
		names[i] = stage.Name
	}
	return names
}

// DefaultPipeline builds the nine-stage analyst pipeline:
//
//	Hypothesis -> Process -> {Coder|Search|Visualization|Report} ->
//	QualityReview -> (revision loop | NoteTaker) -> Process -> ... ->
//	Refiner -> end
func DefaultPipeline() *PipelineConfig {
	p := NewPipelineConfig("analyst")

	stages := []*StageConfig{
		{Name: string(router.StageHypothesis), Router: RouterHypothesis},
		{Name: string(router.StageProcess), Router: RouterProcess},
		{Name: string(router.StageCoder), DefaultNext: string(router.StageQualityReview)},
		{Name: string(router.StageSearch), DefaultNext: string(router.StageQualityReview)},
		{Name: string(router.StageVisualization), DefaultNext: string(router.StageQualityReview)},
		{Name: string(router.StageReport), DefaultNext: string(router.StageQualityReview)},
		{Name: string(router.StageQualityReview), Router: RouterQualityReview},
		{Name: string(router.StageNoteTaker), DefaultNext: string(router.StageProcess)},
		{Name: string(router.StageRefiner), DefaultNext: EndTarget},
	}
	for _, stage := range stages {
		// Stage names come from the enumeration; AddStage cannot fail here.
		_ = p.AddStage(stage)
	}
	return p
}
