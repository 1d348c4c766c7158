// Package config: core engine configuration - no infrastructure URLs.
// Endpoint and credential configuration belongs to the deployment layer.
package config

// CoreConfig holds engine-level configuration that is independent of the
// pipeline shape.
type CoreConfig struct {
	// Bounds
	MaxSteps       int `json:"max_steps" yaml:"max_steps"`
	StageTimeout   int `json:"stage_timeout" yaml:"stage_timeout"`   // seconds
	ShutdownGraceS int `json:"shutdown_grace" yaml:"shutdown_grace"` // seconds

	// Logging
	LogLevel string `json:"log_level" yaml:"log_level"`
}

// DefaultCoreConfig returns a CoreConfig with default values.
func DefaultCoreConfig() *CoreConfig {
	return &CoreConfig{
		MaxSteps:       30,
		StageTimeout:   300,
		ShutdownGraceS: 10,
		LogLevel:       "INFO",
	}
}
