package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Engine    EngineConfig    `json:"engine"`
	Scheduler SchedulerConfig `json:"scheduler"`
}

type ServerConfig struct {
	Port     int    `json:"port"`
	LogLevel string `json:"log_level"`
}

// EngineConfig holds every tunable of the plasticity model.
type EngineConfig struct {
	HebbianLearningRate float64 `json:"hebbian_learning_rate"`
	HebbianDecay        float64 `json:"hebbian_decay"`
	HebbianThreshold    float64 `json:"hebbian_threshold"`
	LTPThresholdFreq    float64 `json:"ltp_threshold_freq"`
	LTPRate             float64 `json:"ltp_rate"`
	LTDThresholdFreq    float64 `json:"ltd_threshold_freq"`
	LTDRate             float64 `json:"ltd_rate"`
	BaseStabilityHours  float64 `json:"base_stability_hours"`

	RepetitionsForHabit   int     `json:"repetitions_for_habit"`
	ContextWeight         float64 `json:"context_weight"`
	RewardWeight          float64 `json:"reward_weight"`
	AutomaticityThreshold float64 `json:"automaticity_threshold"`

	TraumaIntensityThreshold float64 `json:"trauma_intensity_threshold"`

	ExplicitRate         float64 `json:"explicit_rate"`
	ImplicitRate         float64 `json:"implicit_rate"`
	ExplicitInterference float64 `json:"explicit_interference"`

	ConsolidationThreshold float64 `json:"consolidation_threshold"`
	LTPThresholdAccesses   int     `json:"ltp_threshold_accesses"`
}

type SchedulerConfig struct {
	TickSeconds          int     `json:"tick_seconds"`
	SynapticDecaySeconds int     `json:"synaptic_decay_seconds"`
	SynapticDecayFactor  float64 `json:"synaptic_decay_factor"`
}

// Default returns the standard configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 3210, LogLevel: "info"},
		Engine: EngineConfig{
			HebbianLearningRate:      0.1,
			HebbianDecay:             0.01,
			HebbianThreshold:         0.5,
			LTPThresholdFreq:         10,
			LTPRate:                  0.15,
			LTDThresholdFreq:         1,
			LTDRate:                  0.1,
			BaseStabilityHours:       24,
			RepetitionsForHabit:      66,
			ContextWeight:            0.3,
			RewardWeight:             0.4,
			AutomaticityThreshold:    0.7,
			TraumaIntensityThreshold: 0.7,
			ExplicitRate:             0.3,
			ImplicitRate:             0.1,
			ExplicitInterference:     0.4,
			ConsolidationThreshold:   0.7,
			LTPThresholdAccesses:     3,
		},
		Scheduler: SchedulerConfig{
			TickSeconds:          60,
			SynapticDecaySeconds: 60,
			SynapticDecayFactor:  0.01,
		},
	}
}

// envVarRe matches ${VAR} and ${VAR:default} patterns.
var envVarRe = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// Load reads a JSON config file and substitutes environment variable
// references. Values absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// Substitute ${VAR} and ${VAR:default} with environment values.
	resolved := envVarRe.ReplaceAllStringFunc(string(data), func(match string) string {
		parts := envVarRe.FindStringSubmatch(match)
		name := parts[1]
		defaultVal := parts[2]
		if v := os.Getenv(name); v != "" {
			return v
		}
		return defaultVal
	})

	cfg := Default()
	if err := json.Unmarshal([]byte(resolved), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
