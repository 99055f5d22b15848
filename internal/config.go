package internal

import (
	"fmt"

	"github.com/hbomb79/Glimpse/internal/classify"
	"github.com/hbomb79/Glimpse/internal/embed"
	"github.com/hbomb79/Glimpse/internal/fetch"
	"github.com/hbomb79/Glimpse/internal/frame"
	"github.com/ilyakaznacheev/cleanenv"
)

// GlimpseConfig is the struct used to contain the various user
// config supplied by file or environment. Everything here is passed
// explicitly in to the components constructed from it - no component
// reads ambient process state.
type GlimpseConfig struct {
	Concurrent ConcurrentConfig `yaml:"concurrency"`
	Classifier classify.Config  `yaml:"classifier"`
	Fetch      fetch.Config     `yaml:"fetch"`
	Frame      frame.Config     `yaml:"frame"`
	Embedder   embed.Config     `yaml:"embedder"`
	OutputRoot string           `yaml:"output_root" env:"OUTPUT_ROOT" env-default:"batch_outputs"`
}

// ConcurrentConfig is the subset of the configuration that controls
// how many rows are driven through the pipeline at once. The work is
// I/O bound and jobs are independent, so this can be raised well
// above 1 - subject to what the embedding provider will tolerate.
type ConcurrentConfig struct {
	BatchWorkers int `yaml:"batch_threads" env:"CONCURRENCY_BATCH_THREADS" env-default:"1"`
}

// LoadFromFile populates the config from a YAML file, with
// environment variables taking precedence per cleanenv semantics.
func (config *GlimpseConfig) LoadFromFile(configPath string) error {
	if err := cleanenv.ReadConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to load configuration for GlimpseConfig - %v", err.Error())
	}

	return nil
}

// LoadFromEnv populates the config purely from the environment,
// used when no configuration file is present.
func (config *GlimpseConfig) LoadFromEnv() error {
	if err := cleanenv.ReadEnv(config); err != nil {
		return fmt.Errorf("failed to load configuration for GlimpseConfig - %v", err.Error())
	}

	return nil
}
