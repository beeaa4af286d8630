//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"brainos/config"
	"brainos/devices"
	"brainos/hal"
	"brainos/internal/buildinfo"
	"brainos/system"
	"brainos/tasks/demo"
)

func main() {
	var (
		path    string
		mode    string
		serial  string
		version bool
	)
	var hcfg hal.HeadlessConfig
	flag.StringVar(&path, "config", "", "Robot configuration file (YAML).")
	flag.BoolVar(&hcfg.Enabled, "headless", false, "Run without a window.")
	flag.IntVar(&hcfg.Hz, "hz", 60, "Tick rate in headless mode.")
	flag.Uint64Var(&hcfg.Ticks, "ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	flag.StringVar(&mode, "mode", "", "Initial competition mode: disconnected, disabled, autonomous or driver.")
	flag.StringVar(&serial, "serial", "", "Mirror the log to this serial device.")
	flag.BoolVar(&version, "version", false, "Print the build and exit.")
	flag.Parse()

	if version {
		fmt.Println(buildinfo.String())
		return
	}

	cfg, err := loadConfig(path, mode, serial)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	initial, _ := cfg.Mode()
	hcfg.Host = hal.HostConfig{
		SerialPort: cfg.Log.Serial,
		SerialBaud: cfg.Log.Baud,
		Mode:       initial,
	}

	newApp := func(h hal.HAL) (func() error, error) {
		if err := attachSignals(h, cfg); err != nil {
			return nil, err
		}
		s, err := system.New(h, cfg, demo.Program)
		if err != nil {
			return nil, err
		}
		return s.Step, nil
	}

	if hcfg.Enabled {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := hal.RunHeadless(ctx, newApp, hcfg); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := hal.RunWindow(newApp, hcfg.Host); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(path, mode, serial string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if mode != "" {
		cfg.Competition = mode
	}
	if serial != "" {
		cfg.Log.Serial = serial
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// attachSignals feeds the simulated square waves of the configuration into
// the host's three-wire lines.
func attachSignals(h hal.HAL, cfg *config.Config) error {
	for i, sig := range cfg.Sim.Signals {
		line, err := devices.ParseLine(sig.Line)
		if err != nil {
			return fmt.Errorf("sim.signals[%d]: %w", i, err)
		}
		if err := hal.AttachSignal(h, sig.Port, line, sig.Period, sig.High); err != nil {
			return fmt.Errorf("sim.signals[%d]: port %d line %s: %w", i, sig.Port, sig.Line, err)
		}
	}
	return nil
}
