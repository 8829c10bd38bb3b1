package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the host application configuration.
type Config struct {
	Serial SerialConfig `yaml:"serial"`
	Test   TestConfig   `yaml:"test"`
	Sim    SimConfig    `yaml:"sim"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// TestConfig contains depassivation test parameters.
type TestConfig struct {
	// DefaultDuration is the test length offered when starting a test.
	DefaultDuration time.Duration `yaml:"default_duration"`
	// PassFailVoltage is the minimum load voltage the battery must hold
	// throughout the test for a PASS verdict.
	PassFailVoltage float64 `yaml:"pass_fail_voltage"`
	// HistoryFile is where finished runs are archived.
	HistoryFile string `yaml:"history_file"`
}

// SimConfig contains simulated battery parameters for running the GUI
// without hardware.
type SimConfig struct {
	OpenCircuitVoltage float64       `yaml:"open_circuit_voltage"` // V
	InternalResistance float64       `yaml:"internal_resistance"`  // Ohm before depassivation
	LoadResistance     float64       `yaml:"load_resistance"`      // Ohm, the fixture's test load
	RecoveryRate       float64       `yaml:"recovery_rate"`        // Ohm shed per second under load
	NoiseLevel         float64       `yaml:"noise_level"`          // V, measurement noise amplitude
	TickInterval       time.Duration `yaml:"tick_interval"`        // simulated loop cadence
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port: "/dev/ttyUSB0", // "COM3" on Windows
			Baud: 115200,
		},
		Test: TestConfig{
			DefaultDuration: 60 * time.Second,
			PassFailVoltage: 3.0,
			HistoryFile:     "history.yaml",
		},
		Sim: SimConfig{
			OpenCircuitVoltage: 3.65,
			InternalResistance: 8.0,
			LoadResistance:     18.0,
			RecoveryRate:       0.5,
			NoiseLevel:         0.002,
			TickInterval:       10 * time.Millisecond,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}

	if c.Test.DefaultDuration == 0 {
		c.Test.DefaultDuration = def.Test.DefaultDuration
	}
	if c.Test.PassFailVoltage == 0 {
		c.Test.PassFailVoltage = def.Test.PassFailVoltage
	}
	if c.Test.HistoryFile == "" {
		c.Test.HistoryFile = def.Test.HistoryFile
	}

	if c.Sim.OpenCircuitVoltage == 0 {
		c.Sim.OpenCircuitVoltage = def.Sim.OpenCircuitVoltage
	}
	if c.Sim.InternalResistance == 0 {
		c.Sim.InternalResistance = def.Sim.InternalResistance
	}
	if c.Sim.LoadResistance == 0 {
		c.Sim.LoadResistance = def.Sim.LoadResistance
	}
	if c.Sim.RecoveryRate == 0 {
		c.Sim.RecoveryRate = def.Sim.RecoveryRate
	}
	// NoiseLevel is left alone: zero means a noise-free simulation, which
	// is a valid setting rather than a missing one.
	if c.Sim.TickInterval == 0 {
		c.Sim.TickInterval = def.Sim.TickInterval
	}
}
