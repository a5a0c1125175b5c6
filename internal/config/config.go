// Package config provides unified configuration loading for spiknet.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nvandessel/spiknet/internal/network"
	"github.com/nvandessel/spiknet/internal/neuron"
	"gopkg.in/yaml.v3"
)

// SpiknetConfig contains all spiknet configuration settings.
type SpiknetConfig struct {
	// Network describes the population and its wiring.
	Network NetworkConfig `json:"network" yaml:"network"`

	// Simulation controls the run length, seed and external drive.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Output selects which reports are written and where.
	Output OutputConfig `json:"output" yaml:"output"`

	// Logging contains settings for operational and tick logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// NetworkConfig describes the population and its random wiring.
type NetworkConfig struct {
	// Size is the number of neurons.
	Size int `json:"size" yaml:"size"`

	// InhibitoryFraction is the share of FS neurons when Types is empty.
	// Range: 0.0 to 1.0
	InhibitoryFraction float64 `json:"inhibitory_fraction" yaml:"inhibitory_fraction"`

	// MeanDegree is the Poisson mean of each neuron's out-degree.
	MeanDegree float64 `json:"mean_degree" yaml:"mean_degree"`

	// MeanStrength is the mean synapse strength; strengths are drawn
	// uniformly from [1e-6, 2*MeanStrength).
	MeanStrength float64 `json:"mean_strength" yaml:"mean_strength"`

	// Types optionally lists type proportions, e.g. "FS:0.2,IB:0.1".
	// Neurons not covered by the proportions are RS.
	Types string `json:"types,omitempty" yaml:"types,omitempty"`
}

// SimulationConfig controls a simulation run.
type SimulationConfig struct {
	// Ticks is the number of 1ms steps to run.
	Ticks int `json:"ticks" yaml:"ticks"`

	// Seed seeds the random draw service. 0 seeds from system entropy.
	Seed uint64 `json:"seed" yaml:"seed"`

	// InputMean and InputSD parameterize the normally distributed external
	// (thalamic) input drawn for every neuron on every tick.
	InputMean float64 `json:"input_mean" yaml:"input_mean"`
	InputSD   float64 `json:"input_sd" yaml:"input_sd"`
}

// OutputConfig selects the reports written by a run.
type OutputConfig struct {
	// Dir is the directory reports are written to.
	Dir string `json:"dir" yaml:"dir"`

	// Params writes the per-neuron parameter table (params.tsv).
	Params bool `json:"params" yaml:"params"`

	// Trajectory writes sample neuron trajectories (trajectory.tsv).
	Trajectory bool `json:"trajectory" yaml:"trajectory"`

	// Spikes writes the spike raster (spikes.tsv).
	Spikes bool `json:"spikes" yaml:"spikes"`
}

// LoggingConfig configures spiknet's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables the per-tick trace in <output dir>/ticks.jsonl.
	Level string `json:"level" yaml:"level"`
}

// Default returns a SpiknetConfig with sensible defaults.
func Default() *SpiknetConfig {
	return &SpiknetConfig{
		Network: NetworkConfig{
			Size:               1000,
			InhibitoryFraction: 0.2,
			MeanDegree:         100,
			MeanStrength:       4,
		},
		Simulation: SimulationConfig{
			Ticks:     1000,
			Seed:      0,
			InputMean: 0,
			InputSD:   5,
		},
		Output: OutputConfig{
			Dir:        ".",
			Trajectory: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from path, or from ~/.spiknet/config.yaml when
// path is empty, and then applies environment variable overrides.
// Order: defaults -> config file -> environment variables
func Load(path string) (*SpiknetConfig, error) {
	config := Default()

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		config = fileConfig
	} else if homeDir, err := os.UserHomeDir(); err == nil {
		configPath := filepath.Join(homeDir, ".spiknet", "config.yaml")
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*SpiknetConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Output.Dir = expandEnvVars(config.Output.Dir)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *SpiknetConfig) Validate() error {
	if c.Network.Size < 0 {
		return fmt.Errorf("size must be non-negative, got %d", c.Network.Size)
	}
	if c.Network.InhibitoryFraction < 0 || c.Network.InhibitoryFraction > 1 {
		return fmt.Errorf("inhibitory_fraction must be between 0 and 1, got %f", c.Network.InhibitoryFraction)
	}
	if c.Network.MeanDegree < 0 {
		return fmt.Errorf("mean_degree must be non-negative, got %f", c.Network.MeanDegree)
	}
	if c.Network.MeanStrength <= 0 {
		return fmt.Errorf("mean_strength must be positive, got %f", c.Network.MeanStrength)
	}
	if _, err := c.Network.TypeCounts(); err != nil {
		return err
	}

	if c.Simulation.Ticks < 0 {
		return fmt.Errorf("ticks must be non-negative, got %d", c.Simulation.Ticks)
	}
	if c.Simulation.InputSD < 0 {
		return fmt.Errorf("input_sd must be non-negative, got %f", c.Simulation.InputSD)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// TypeCounts converts the Types proportions into per-type neuron counts,
// rounding each to the nearest integer. It returns nil when Types is empty.
func (c NetworkConfig) TypeCounts() ([]network.TypeCount, error) {
	return ParseTypeProportions(c.Types, c.Size)
}

// ParseTypeProportions parses "NAME:fraction" pairs separated by commas and
// scales them to n neurons.
func ParseTypeProportions(s string, n int) ([]network.TypeCount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var counts []network.TypeCount
	var total float64
	for _, part := range strings.Split(s, ",") {
		name, frac, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("invalid type proportion %q (want NAME:fraction)", part)
		}
		name = strings.TrimSpace(name)
		if !neuron.TypeExists(name) {
			return nil, fmt.Errorf("unknown neuron type %q (valid: %s)", name, strings.Join(neuron.TypeNames(), ", "))
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(frac), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid proportion for %s: %w", name, err)
		}
		if p < 0 {
			return nil, fmt.Errorf("proportion for %s must be non-negative, got %f", name, p)
		}
		total += p
		counts = append(counts, network.TypeCount{Name: name, Count: int(p*float64(n) + 0.5)})
	}
	if total > 1+1e-9 {
		return nil, fmt.Errorf("type proportions sum to %f, must not exceed 1", total)
	}
	return counts, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *SpiknetConfig) {
	if v := os.Getenv("SPIKNET_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Network.Size = n
		}
	}

	if v := os.Getenv("SPIKNET_INHIBITORY_FRACTION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Network.InhibitoryFraction = f
		}
	}

	if v := os.Getenv("SPIKNET_MEAN_DEGREE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Network.MeanDegree = f
		}
	}

	if v := os.Getenv("SPIKNET_MEAN_STRENGTH"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Network.MeanStrength = f
		}
	}

	if v := os.Getenv("SPIKNET_TYPES"); v != "" {
		config.Network.Types = v
	}

	if v := os.Getenv("SPIKNET_TICKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Ticks = n
		}
	}

	if v := os.Getenv("SPIKNET_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Simulation.Seed = n
		}
	}

	if v := os.Getenv("SPIKNET_OUTPUT_DIR"); v != "" {
		config.Output.Dir = v
	}

	if v := os.Getenv("SPIKNET_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
