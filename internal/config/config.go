// Package config provides a unified configuration system for motor.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for a motor run.
type Config struct {
	// Run tunes the orchestrator's own behavior.
	Run RunConfig `yaml:"run" json:"run"`

	// Drivers holds per-driver-class option sets, keyed by driver class
	// name, e.g. {"VaultDriver": {"address": "...", "skip_verify": true}}.
	// DriverSettings flattens this into the "ClassName.optionName" mapping the
	// driver protocol's Setup expects (§6 "Driver settings prefix").
	Drivers map[string]map[string]interface{} `yaml:"drivers" json:"drivers"`

	// Suite describes the argset scheme/source and oracle/result
	// comparisons a `motor run` invocation drives, letting a full suite be
	// declared in YAML rather than assembled in Go (the way
	// examples/basic-usage does it for library callers).
	Suite SuiteConfig `yaml:"suite" json:"suite"`

	Vault VaultConfig `yaml:"vault" json:"vault"`
	AWS   AWSConfig   `yaml:"aws" json:"aws"`

	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Notify  NotifyConfig  `yaml:"notify" json:"notify"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	Features map[string]bool `yaml:"features" json:"features"`

	Version string `yaml:"version" json:"version"`
	Profile string `yaml:"profile" json:"profile"`
}

// RunConfig holds orchestrator settings. `motor run` passes RecursionLimit
// to the Generator. MatchDepth and MaxAffectedArgsets are parsed and
// defaulted but read by nothing: hack matching always uses
// motor.DefaultMatchDepth, and the report cap comes from the
// --max-affected-argsets flag.
type RunConfig struct {
	RecursionLimit     int `yaml:"recursion_limit" json:"recursion_limit" default:"10"`
	MatchDepth         int `yaml:"match_depth" json:"match_depth" default:"10"`
	MaxAffectedArgsets int `yaml:"max_affected_argsets" json:"max_affected_argsets" default:"0"`
}

// SuiteConfig is the YAML-declared shape of one motor suite: the
// Cartesian-product scheme/source pair the Generator consumes, plus the
// oracle/result driver-class pairs to compare (§4.5, §4.8). Comparator
// choice is limited to "equal" here — a custom Comparator.Fn is a Go
// closure and can't round-trip through YAML, so richer comparisons stay a
// library-level (examples/basic-usage-style) concern.
type SuiteConfig struct {
	Scheme  map[string]interface{} `yaml:"scheme" json:"scheme"`
	Source  map[string]interface{} `yaml:"source" json:"source"`
	Triples []TripleConfig         `yaml:"triples" json:"triples"`
}

// TripleConfig names one oracle/result driver-class pair to compare, both
// of which must be present in motor.DefaultRegistry at run time.
type TripleConfig struct {
	Oracle string `yaml:"oracle" json:"oracle"`
	Result string `yaml:"result" json:"result"`
}

// VaultConfig contains the HashiCorp Vault settings the vault example
// driver reads (§6, examples/drivers).
type VaultConfig struct {
	Address    string `yaml:"address" json:"address" env:"VAULT_ADDR"`
	Token      string `yaml:"token" json:"token" env:"VAULT_TOKEN"`
	SkipVerify bool   `yaml:"skip_verify" json:"skip_verify" env:"VAULT_SKIP_VERIFY"`
	Namespace  string `yaml:"namespace" json:"namespace" env:"VAULT_NAMESPACE"`
}

// AWSConfig contains the settings the AWS example driver reads.
type AWSConfig struct {
	Region  string `yaml:"region" json:"region" env:"AWS_REGION"`
	Profile string `yaml:"profile" json:"profile" env:"AWS_PROFILE"`
}

// LoggingConfig contains structured-logging settings (internal/motorlog).
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level" default:"info" env:"MOTOR_LOG_LEVEL"`
	Format      string `yaml:"format" json:"format" default:"text"`
	Output      string `yaml:"output" json:"output" default:"stderr"`
	EnableColor bool   `yaml:"enable_color" json:"enable_color" default:"true"`
}

// NotifyConfig configures the optional NATS event publisher.
type NotifyConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" default:"false"`
	URL     string `yaml:"url" json:"url" default:"nats://127.0.0.1:4222" env:"MOTOR_NOTIFY_URL"`
	Subject string `yaml:"subject" json:"subject" default:"motor.results"`
}

// MetricsConfig configures the optional Prometheus exporter.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" default:"false"`
	Listen  string `yaml:"listen" json:"listen" default:":9090"`
}

// Manager manages configuration loading and change notification.
type Manager struct {
	mu          sync.RWMutex
	config      *Config
	configPath  string
	changeHooks []func(*Config)
}

// NewManager returns a Manager seeded with DefaultConfig.
func NewManager() *Manager {
	return &Manager{config: DefaultConfig()}
}

// DefaultConfig returns the baseline configuration every run starts from.
func DefaultConfig() *Config {
	return &Config{
		Run: RunConfig{
			RecursionLimit: 10,
			MatchDepth:     10,
		},
		Drivers: map[string]map[string]interface{}{},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "text",
			Output:      "stderr",
			EnableColor: true,
		},
		Notify:   NotifyConfig{Subject: "motor.results", URL: "nats://127.0.0.1:4222"},
		Metrics:  MetricsConfig{Listen: ":9090"},
		Features: map[string]bool{},
		Version:  "1.0",
		Profile:  "default",
	}
}

// Load reads and parses a YAML configuration file, applies environment
// overrides, and stores the result.
func (m *Manager) Load(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("expanding config path: %w", err)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if err := NewLoader().LoadFromEnvironment(cfg); err != nil {
		return fmt.Errorf("applying environment overrides: %w", err)
	}

	m.config = cfg
	m.configPath = expanded
	m.notifyChangeHooks(cfg)
	return nil
}

// Get returns a shallow copy of the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfgCopy := *m.config
	return &cfgCopy
}

// OnChange registers a callback invoked (in its own goroutine) whenever
// Load replaces the configuration.
func (m *Manager) OnChange(hook func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changeHooks = append(m.changeHooks, hook)
}

func (m *Manager) notifyChangeHooks(cfg *Config) {
	for _, hook := range m.changeHooks {
		go hook(cfg)
	}
}

// DriverSettings flattens Drivers into the "ClassName.optionName" mapping
// the driver protocol's Setup expects (§6).
func (c *Config) DriverSettings() map[string]interface{} {
	flat := make(map[string]interface{})
	for class, opts := range c.Drivers {
		for opt, v := range opts {
			flat[class+"."+opt] = v
		}
	}
	return flat
}

func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return os.ExpandEnv(path), nil
}

// sortedFeatureNames returns Features' keys sorted.
func (c *Config) sortedFeatureNames() []string {
	names := make([]string, 0, len(c.Features))
	for k := range c.Features {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
