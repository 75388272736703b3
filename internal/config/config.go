package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("config: invalid")

// Drivers names every LED backend.
var Drivers = []string{"sim", "console", "gpio", "gpiocdev", "strip"}

type SPI struct {
	Dev     string `yaml:"dev"`      // e.g. /dev/spidev0.0
	SpeedHz int    `yaml:"speed_hz"` // e.g. 2500000
}

type Config struct {
	Driver string `yaml:"driver"` // sim | console | gpio | gpiocdev | strip

	Pins     []string `yaml:"pins,omitempty"`     // periph names, LED 0 first
	GPIOChip string   `yaml:"gpiochip,omitempty"` // e.g. gpiochip0
	Lines    []int    `yaml:"lines,omitempty"`
	SPI      SPI      `yaml:"spi,omitempty"`

	OnColor       uint32 `yaml:"on_color,omitempty"`
	XFlipEveryRow bool   `yaml:"x_flip_every_row"`

	SpeedMS        int  `yaml:"speed_ms"`
	BufferSize     int  `yaml:"buffer_size"`
	RestartOnPrint bool `yaml:"restart_on_print"`
	Enabled        bool `yaml:"enabled"`

	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"log_level"`

	// set records the top-level keys present in a loaded file, so Merge
	// can tell an explicit false from an absent key.
	set map[string]bool
}

func Default() *Config {
	return &Config{
		Driver:     "sim",
		GPIOChip:   "gpiochip0",
		SPI:        SPI{Dev: "/dev/spidev0.0", SpeedHz: 2500000},
		OnColor:    0xFF9911CC,
		SpeedMS:    300,
		BufferSize: 50,
		Enabled:    true,
		Addr:       ":8080",
		LogLevel:   "info",
	}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	var keys map[string]any
	if err := yaml.Unmarshal(b, &keys); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	c.set = make(map[string]bool, len(keys))
	for k := range keys {
		c.set[k] = true
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Merge copies every field set in o over c. Booleans from a loaded file
// are copied whenever their key is present, false included; for a Config
// built in code only true counts as set.
func (c *Config) Merge(o *Config) {
	if o == nil {
		return
	}
	if o.Driver != "" {
		c.Driver = o.Driver
	}
	if len(o.Pins) > 0 {
		c.Pins = o.Pins
	}
	if o.GPIOChip != "" {
		c.GPIOChip = o.GPIOChip
	}
	if len(o.Lines) > 0 {
		c.Lines = o.Lines
	}
	if o.SPI.Dev != "" {
		c.SPI.Dev = o.SPI.Dev
	}
	if o.SPI.SpeedHz != 0 {
		c.SPI.SpeedHz = o.SPI.SpeedHz
	}
	if o.OnColor != 0 {
		c.OnColor = o.OnColor
	}
	if o.has("x_flip_every_row", o.XFlipEveryRow) {
		c.XFlipEveryRow = o.XFlipEveryRow
	}
	if o.SpeedMS != 0 {
		c.SpeedMS = o.SpeedMS
	}
	if o.BufferSize != 0 {
		c.BufferSize = o.BufferSize
	}
	if o.has("restart_on_print", o.RestartOnPrint) {
		c.RestartOnPrint = o.RestartOnPrint
	}
	if o.has("enabled", o.Enabled) {
		c.Enabled = o.Enabled
	}
	if o.Addr != "" {
		c.Addr = o.Addr
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
}

func (c *Config) has(key string, v bool) bool {
	if c.set != nil {
		return c.set[key]
	}
	return v
}

func (c *Config) Validate() error {
	known := false
	for _, d := range Drivers {
		if c.Driver == d {
			known = true
		}
	}
	switch {
	case !known:
		return fmt.Errorf("%w: unknown driver %q", ErrInvalid, c.Driver)
	case c.SpeedMS <= 0:
		return fmt.Errorf("%w: speed_ms must be positive, got %d", ErrInvalid, c.SpeedMS)
	case c.BufferSize <= 0:
		return fmt.Errorf("%w: buffer_size must be positive, got %d", ErrInvalid, c.BufferSize)
	case c.Driver == "gpio" && len(c.Pins) != 25:
		return fmt.Errorf("%w: gpio driver needs 25 pins, got %d", ErrInvalid, len(c.Pins))
	case c.Driver == "gpiocdev" && len(c.Lines) != 25:
		return fmt.Errorf("%w: gpiocdev driver needs 25 lines, got %d", ErrInvalid, len(c.Lines))
	case c.Driver == "strip" && c.SPI.SpeedHz <= 0:
		return fmt.Errorf("%w: spi.speed_hz must be positive", ErrInvalid)
	}
	return nil
}
