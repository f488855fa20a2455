package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/wrenware/aa1024"
)

// Config describes one EEPROM bus: the SPI port carrying clock and data, and
// the GPIO lines selecting each chip. CS (and WP, when soft_wp is set) must
// be wired to pins the host drives; the SPI port's own chip select is unused.
//
//	port: SPI0.0
//	clock: 1MHz
//	soft_wp: true
//	chips:
//	  - {cs: GPIO22, wp: GPIO23}
//	  - {cs: GPIO24, wp: GPIO25}
type Config struct {
	Port   string       `yaml:"port"`
	Clock  string       `yaml:"clock"`
	SoftWP bool         `yaml:"soft_wp"`
	Chips  []ChipConfig `yaml:"chips"`
}

type ChipConfig struct {
	CS string `yaml:"cs"`
	WP string `yaml:"wp"`
}

func loadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Port == "" {
		return nil, fmt.Errorf("%s: port is required", path)
	}
	if n := len(cfg.Chips); n == 0 || n > aa1024.MaxChips {
		return nil, fmt.Errorf("%s: need 1-%d chips, have %d", path, aa1024.MaxChips, n)
	}
	if cfg.Clock == "" {
		cfg.Clock = "1MHz"
	}
	return &cfg, nil
}

// openBus initializes the host, connects the SPI port, resolves the control
// pins, and brings every configured chip to its resting state.
func openBus(cfg *Config) (*aa1024.Bus, spi.PortCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("host initialization failed: %w", err)
	}

	var clock physic.Frequency
	if err := clock.Set(cfg.Clock); err != nil {
		return nil, nil, fmt.Errorf("bad clock %q: %w", cfg.Clock, err)
	}

	port, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open SPI port %q: %w", cfg.Port, err)
	}

	// The 25AA1024 supports modes 0 and 3; CS is ours, not the port's.
	conn, err := port.Connect(clock, spi.Mode0|spi.NoCS, 8)
	if err != nil {
		port.Close()
		return nil, nil, fmt.Errorf("failed to connect SPI: %w", err)
	}

	pins := aa1024.PinMap{SoftWP: cfg.SoftWP}
	for i, cc := range cfg.Chips {
		cs := gpioreg.ByName(cc.CS)
		if cs == nil {
			port.Close()
			return nil, nil, fmt.Errorf("chip %d: unknown CS pin %q", i, cc.CS)
		}
		var wp gpio.PinIO
		if cc.WP != "" {
			if wp = gpioreg.ByName(cc.WP); wp == nil {
				port.Close()
				return nil, nil, fmt.Errorf("chip %d: unknown WP pin %q", i, cc.WP)
			}
		} else if cfg.SoftWP {
			port.Close()
			return nil, nil, fmt.Errorf("chip %d: soft_wp set but no WP pin", i)
		}
		pins.Chips[i] = aa1024.ChipPins{CS: cs, WP: wp}
	}

	bus := aa1024.NewBus(aa1024.NewSPIConn(conn), pins)
	for i := range cfg.Chips {
		if err := bus.Init(i); err != nil {
			port.Close()
			return nil, nil, fmt.Errorf("chip %d init: %w", i, err)
		}
	}
	return bus, port, nil
}
