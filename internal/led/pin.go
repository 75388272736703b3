package led

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Pin drives one LED wired to a GPIO output.
type Pin struct {
	gpio.PinOut
}

func (p Pin) On() error  { return p.Out(gpio.High) }
func (p Pin) Off() error { return p.Out(gpio.Low) }

// FromPins wraps already opened pins.
func FromPins(pins ...gpio.PinOut) []Output {
	out := make([]Output, len(pins))
	for i, p := range pins {
		out[i] = Pin{p}
	}
	return out
}

// OpenPins initializes the host drivers and resolves each pin by name
// (e.g. "GPIO17", "P1_11"). Every pin is driven low on open.
func OpenPins(names []string) ([]Output, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	pins := make([]gpio.PinOut, 0, len(names))
	for _, name := range names {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("gpio %q not found", name)
		}
		if err := p.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("gpio %q: %w", name, err)
		}
		pins = append(pins, p)
	}
	return FromPins(pins...), nil
}
