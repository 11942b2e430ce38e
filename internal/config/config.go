// Package config loads the simulator's YAML configuration: which memory
// system implementation and address mapper to use, the DRAM device preset
// and any per-parameter overrides, and controller buffer sizing.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/comsys-lab/PIM-NDP-Sim/internal/simerrors"
)

// Config is the parsed top-level document.
type Config struct {
	MemorySystem MemorySystemConfig `yaml:"memory_system"`
	Device       DeviceConfig       `yaml:"device"`
	Controller   ControllerConfig   `yaml:"controller"`
}

// MemorySystemConfig selects the mapper and trace source.
type MemorySystemConfig struct {
	Mapper string `yaml:"mapper"` // "CRBRC" | "RBRCCh" | "MOP4CLXOR" | "RoBaRaCoCh"
	Trace  string `yaml:"trace"`  // path to a trace file, optional
}

// DeviceConfig selects a device preset and any cycle/nanosecond overrides.
type DeviceConfig struct {
	Preset    string             `yaml:"preset"` // "GDDR6_AiM" | "LPDDR5_AiM"
	TCKPicos  int                `yaml:"tck_ps"` // clock period in picoseconds, used to round ns overrides to cycles
	Overrides map[string]Override `yaml:"overrides"`
}

// Override is one timing-parameter override, given in exactly one of its
// two fields.
type Override struct {
	Cycles int     `yaml:"cycles"`
	Ns     float64 `yaml:"ns"`
}

// ControllerConfig mirrors controller.Config's YAML-facing fields.
type ControllerConfig struct {
	BufferCapacity int `yaml:"buffer_capacity"`
	HighWatermark  int `yaml:"high_watermark"`
	LowWatermark   int `yaml:"low_watermark"`
}

// Load reads and validates the YAML configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, simerrors.Wrap("config.Load", simerrors.ConfigurationError, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, simerrors.Wrap("config.Load", simerrors.ConfigurationError, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.MemorySystem.Mapper {
	case "CRBRC", "RBRCCh", "MOP4CLXOR", "RoBaRaCoCh":
	case "":
		return simerrors.New("Config.validate", simerrors.ConfigurationError, "memory_system.mapper is required")
	default:
		return simerrors.Newf("Config.validate", simerrors.ConfigurationError, "unknown mapper %q", c.MemorySystem.Mapper)
	}
	switch c.Device.Preset {
	case "GDDR6_AiM", "LPDDR5_AiM":
	case "":
		return simerrors.New("Config.validate", simerrors.ConfigurationError, "device.preset is required")
	default:
		return simerrors.Newf("Config.validate", simerrors.ConfigurationError, "unknown device preset %q", c.Device.Preset)
	}
	if c.Device.Preset != "" && c.Device.TCKPicos <= 0 && len(c.Device.Overrides) > 0 {
		for _, ov := range c.Device.Overrides {
			if ov.Ns != 0 {
				return simerrors.New("Config.validate", simerrors.ConfigurationError, "device.tck_ps must be set to use nanosecond overrides")
			}
		}
	}
	if c.Controller.BufferCapacity < 0 {
		return simerrors.New("Config.validate", simerrors.ConfigurationError, "controller.buffer_capacity must not be negative")
	}
	return nil
}

// ResolveCycles returns ov in cycles: Cycles verbatim if set, otherwise
// Ns rounded via tCK_ps, per spec.md §4.1's rounding(ns, tCK_ps) rule —
// round to the nearest cycle, ties away from zero.
func ResolveCycles(ov Override, tckPs int) int {
	if ov.Cycles != 0 {
		return ov.Cycles
	}
	return roundCycles(ov.Ns, tckPs)
}

func roundCycles(ns float64, tckPs int) int {
	ps := ns * 1000.0
	cycles := ps / float64(tckPs)
	if cycles >= 0 {
		return int(cycles + 0.5)
	}
	return -int(-cycles + 0.5)
}
