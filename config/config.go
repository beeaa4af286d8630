// Package config loads the robot configuration: runtime sizing, log
// routing and the port wiring applied before the user program starts.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/inhies/go-bytesize"
	"gopkg.in/yaml.v2"

	"brainos/devices"
	"brainos/hal"
	"brainos/kernel"
)

// Config is the root of a robot configuration file.
type Config struct {
	Runtime     Runtime    `yaml:"runtime"`
	Log         Log        `yaml:"log"`
	Competition string     `yaml:"competition"`
	Ports       []PortSpec `yaml:"ports"`
	Sim         Sim        `yaml:"sim"`
}

type Runtime struct {
	MaxTasks int `yaml:"max_tasks"`
	// StackSize is a human size such as "4KB" or a plain byte count.
	StackSize string `yaml:"stack_size"`
}

type Log struct {
	Serial string `yaml:"serial"`
	Baud   int    `yaml:"baud"`
	// Lines is how many log lines the console keeps on screen.
	Lines int `yaml:"lines"`
}

// PortSpec binds one smart port. ADI maps line letters to three-wire kinds
// and is only valid on expanders.
type PortSpec struct {
	Port int               `yaml:"port"`
	Kind string            `yaml:"kind"`
	ADI  map[string]string `yaml:"adi"`
}

// Sim configures the simulated hardware of host builds.
type Sim struct {
	Signals []Signal `yaml:"signals"`
}

// Signal drives a simulated input line with a square wave.
type Signal struct {
	Port   int           `yaml:"port"`
	Line   string        `yaml:"line"`
	Period time.Duration `yaml:"period"`
	High   time.Duration `yaml:"high"`
}

// Binding is a validated PortSpec.
type Binding struct {
	Port  devices.Port
	Kind  devices.Kind
	Lines [devices.ADILines]devices.ADIKind
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Runtime: Runtime{
			MaxTasks:  kernel.DefaultMaxTasks,
			StackSize: "4KB",
		},
		Log:         Log{Baud: 115200, Lines: 12},
		Competition: "driver",
	}
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a configuration on top of Default. Unknown keys are errors.
func Parse(b []byte) (*Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(b)) > 0 {
		if err := yaml.UnmarshalStrict(b, cfg); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field that can be checked without hardware.
func (c *Config) Validate() error {
	if c.Runtime.MaxTasks < 2 || c.Runtime.MaxTasks > kernel.MaxTasksLimit {
		return fmt.Errorf("runtime.max_tasks: %d not in 2..%d", c.Runtime.MaxTasks, kernel.MaxTasksLimit)
	}
	if _, err := c.StackBytes(); err != nil {
		return err
	}
	if c.Log.Baud < 0 {
		return fmt.Errorf("log.baud: %d is negative", c.Log.Baud)
	}
	if c.Log.Lines < 0 {
		return fmt.Errorf("log.lines: %d is negative", c.Log.Lines)
	}
	if _, err := c.Mode(); err != nil {
		return err
	}
	if _, err := c.Wiring(); err != nil {
		return err
	}
	for i, s := range c.Sim.Signals {
		if s.Port < 1 || s.Port > devices.SmartPorts {
			return fmt.Errorf("sim.signals[%d]: port %d not in 1..%d", i, s.Port, devices.SmartPorts)
		}
		if _, err := devices.ParseLine(s.Line); err != nil {
			return fmt.Errorf("sim.signals[%d]: %w", i, err)
		}
		if s.Period <= 0 || s.High < 0 || s.High > s.Period {
			return fmt.Errorf("sim.signals[%d]: need 0 <= high <= period and period > 0", i)
		}
	}
	return nil
}

// StackBytes returns the per-task stack size in bytes.
func (c *Config) StackBytes() (int, error) {
	s := strings.TrimSpace(c.Runtime.StackSize)
	if s == "" {
		return kernel.DefaultStackSize, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		size, perr := bytesize.Parse(s)
		if perr != nil {
			return 0, fmt.Errorf("runtime.stack_size: %w", perr)
		}
		n = int(size)
	}
	if n < kernel.FrameSize || n%kernel.WordSize != 0 {
		return 0, fmt.Errorf("runtime.stack_size: %d bytes must be a multiple of %d and at least %d", n, kernel.WordSize, kernel.FrameSize)
	}
	return n, nil
}

// Mode returns the initial simulated competition mode.
func (c *Config) Mode() (hal.CompetitionMode, error) {
	m, err := hal.ParseCompetitionMode(c.Competition)
	if err != nil {
		return 0, fmt.Errorf("competition: %w", err)
	}
	return m, nil
}

// Wiring validates the port list. A port may appear only once.
func (c *Config) Wiring() ([]Binding, error) {
	var out []Binding
	seen := make(map[int]bool)
	for i, p := range c.Ports {
		if p.Port < 1 || p.Port > devices.SmartPorts {
			return nil, fmt.Errorf("ports[%d]: port %d not in 1..%d", i, p.Port, devices.SmartPorts)
		}
		if seen[p.Port] {
			return nil, fmt.Errorf("ports[%d]: port %d listed twice", i, p.Port)
		}
		seen[p.Port] = true

		kind, err := devices.ParseKind(p.Kind)
		if err != nil || kind == devices.KindNone {
			return nil, fmt.Errorf("ports[%d]: invalid kind %q", i, p.Kind)
		}
		if p.Port == int(devices.InternalADIPort) && kind != devices.KindADIExpander {
			return nil, fmt.Errorf("ports[%d]: port %d is the built-in expander", i, p.Port)
		}
		b := Binding{Port: devices.Port(p.Port), Kind: kind}
		if len(p.ADI) > 0 && kind != devices.KindADIExpander {
			return nil, fmt.Errorf("ports[%d]: adi lines on a %s port", i, kind)
		}
		for name, k := range p.ADI {
			line, err := devices.ParseLine(name)
			if err != nil {
				return nil, fmt.Errorf("ports[%d].adi: %w", i, err)
			}
			ak, err := devices.ParseADIKind(k)
			if err != nil || ak == devices.ADINone {
				return nil, fmt.Errorf("ports[%d].adi.%s: invalid kind %q", i, name, k)
			}
			if b.Lines[line] != devices.ADINone && b.Lines[line] != ak {
				return nil, fmt.Errorf("ports[%d].adi.%s: line bound twice", i, name)
			}
			b.Lines[line] = ak
		}
		out = append(out, b)
	}
	return out, nil
}
