// Package config loads discopt server settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/copyleftdev/discopt/internal/optimization/strategy"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Optimization struct {
		// WorkerCount bounds the number of jobs running at once.
		WorkerCount int `env:"OPT_WORKER_COUNT" envDefault:"10"`
		// EvalWorkers is the genetic strategy's parallel evaluation width.
		EvalWorkers     int           `env:"OPT_EVAL_WORKERS" envDefault:"1"`
		DefaultStrategy string        `env:"OPT_DEFAULT_STRATEGY" envDefault:"annealing"`
		JobTimeout      time.Duration `env:"OPT_JOB_TIMEOUT" envDefault:"5m"`
		// MaxJobs caps retained job records; the oldest finished job is
		// evicted first.
		MaxJobs int `env:"OPT_MAX_JOBS" envDefault:"1000"`
	}
	Problems struct {
		SchedulePath string `env:"PROBLEM_SCHEDULE_PATH"`
		TripPath     string `env:"PROBLEM_TRIP_PATH"`
		DormsPath    string `env:"PROBLEM_DORMS_PATH"`
	}
}

// Load parses the environment, fills environment-specific defaults and
// validates the result.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.Logging.Level == "" {
		if cfg.Environment == "development" {
			cfg.Logging.Level = "debug"
		} else {
			cfg.Logging.Level = "info"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP_PORT %d out of range", c.HTTP.Port)
	}
	if c.Optimization.WorkerCount < 1 {
		return fmt.Errorf("OPT_WORKER_COUNT must be at least 1, got %d", c.Optimization.WorkerCount)
	}
	if c.Optimization.EvalWorkers < 1 {
		return fmt.Errorf("OPT_EVAL_WORKERS must be at least 1, got %d", c.Optimization.EvalWorkers)
	}
	if c.Optimization.JobTimeout <= 0 {
		return fmt.Errorf("OPT_JOB_TIMEOUT must be positive, got %s", c.Optimization.JobTimeout)
	}
	if c.Optimization.MaxJobs < 1 {
		return fmt.Errorf("OPT_MAX_JOBS must be at least 1, got %d", c.Optimization.MaxJobs)
	}
	if !strategy.Known(c.Optimization.DefaultStrategy) {
		return fmt.Errorf("OPT_DEFAULT_STRATEGY %q is not one of %v", c.Optimization.DefaultStrategy, strategy.Names())
	}
	return nil
}
