package pipeline

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// RunConfig describes one batch extraction run. It is flag-assembled by
// the CLI or loaded from a YAML file.
type RunConfig struct {
	// CorpusRoot is the directory holding the four corpus
	// subdirectories.
	CorpusRoot string `yaml:"corpus_root"`

	// Output is the path of the JSON file the run writes.
	Output string `yaml:"output"`

	// Stylesheet is the XSLT stylesheet path, required when FullText is
	// set.
	Stylesheet string `yaml:"stylesheet,omitempty"`

	// FullText enables markdown full-text rendering per document.
	FullText bool `yaml:"full_text"`

	// StripLinks removes markdown link syntax from full text. Defaults
	// to true.
	StripLinks *bool `yaml:"strip_links,omitempty"`

	// Workers is the worker pool size. Defaults to the CPU count.
	Workers int `yaml:"workers,omitempty"`

	// Cache is an optional bbolt cache path; empty disables caching.
	Cache string `yaml:"cache,omitempty"`

	// FailFast aborts the whole batch on the first per-file failure
	// instead of collecting failures and continuing.
	FailFast bool `yaml:"fail_fast"`
}

// LoadRunConfig reads a YAML run configuration file.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	config := &RunConfig{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return config, nil
}

// ShouldStripLinks resolves the StripLinks option, defaulting to true.
func (config *RunConfig) ShouldStripLinks() bool {
	if config.StripLinks == nil {
		return true
	}
	return *config.StripLinks
}

// WorkerCount resolves the worker pool size.
func (config *RunConfig) WorkerCount() int {
	if config.Workers > 0 {
		return config.Workers
	}
	return runtime.NumCPU()
}

// Validate checks the configuration for a runnable combination.
func (config *RunConfig) Validate() error {
	if config.CorpusRoot == "" {
		return fmt.Errorf("corpus_root is required")
	}
	if config.FullText && config.Stylesheet == "" {
		return fmt.Errorf("stylesheet is required when full_text is enabled")
	}
	return nil
}
