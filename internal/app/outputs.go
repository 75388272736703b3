package app

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/arcaluminis-text/internal/config"
	"github.com/coreman2200/arcaluminis-text/internal/glyph"
	"github.com/coreman2200/arcaluminis-text/internal/layout"
	"github.com/coreman2200/arcaluminis-text/internal/led"
)

// Bank is an opened set of 25 LED outputs.
type Bank struct {
	Name    string
	Outputs []led.Output
	Flusher led.Flusher
	close   func() error
}

func (b Bank) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

func simBank() Bank {
	sim := led.NewSim(glyph.Count)
	return Bank{Name: "sim", Outputs: sim.Outputs(), Flusher: sim}
}

// OpenBank opens the backend named by cfg.Driver.
func OpenBank(cfg *config.Config) (Bank, error) {
	l := layout.Matrix5x5
	l.Order.XFlipEveryRow = cfg.XFlipEveryRow
	on := led.NewColor(cfg.OnColor)

	switch cfg.Driver {
	case "sim":
		return simBank(), nil
	case "console":
		f := led.NewConsole(glyph.Count, on)
		return Bank{Name: "console", Outputs: f.Outputs(), Flusher: f, close: f.Close}, nil
	case "gpio":
		outs, err := led.OpenPins(cfg.Pins)
		if err != nil {
			return Bank{}, err
		}
		return Bank{Name: "gpio", Outputs: outs}, nil
	case "gpiocdev":
		lines, err := led.OpenLines(cfg.GPIOChip, cfg.Lines)
		if err != nil {
			return Bank{}, err
		}
		return Bank{Name: "gpiocdev", Outputs: lines.Outputs(), close: lines.Close}, nil
	case "strip":
		freq := physic.Frequency(cfg.SPI.SpeedHz) * physic.Hertz
		f, err := led.OpenStrip(cfg.SPI.Dev, glyph.Count, freq, on, l.Wire)
		if err != nil {
			return Bank{}, err
		}
		return Bank{Name: "strip", Outputs: f.Outputs(), Flusher: f, close: f.Close}, nil
	}
	return Bank{}, fmt.Errorf("unknown driver %q", cfg.Driver)
}

// OpenBankOrSim falls back to the simulator when hardware cannot be opened.
func OpenBankOrSim(cfg *config.Config) Bank {
	b, err := OpenBank(cfg)
	if err != nil {
		log.Warn().Err(err).Str("driver", cfg.Driver).Msg("LED init failed; falling back to SIM")
		return simBank()
	}
	return b
}
