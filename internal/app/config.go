package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PipelinePath string            // hcl file or directory of hcl files
	Vars         map[string]string // -var overrides applied on top of declared defaults

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	WorkerCount     int
	Watch           bool
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	if cfg.WorkerCount < 1 {
		return nil, errors.New("WorkerCount must be at least 1")
	}
	return &cfg, nil
}
