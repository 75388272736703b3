package led

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// StripFreq is the NRZ bit rate used for WS2812 class LEDs.
const StripFreq = 2500 * physic.KiloHertz

// NewStrip drives count NRZ LEDs (WS2812 and friends) on an open SPI port.
// A zero freq selects StripFreq.
func NewStrip(p spi.Port, count int, freq physic.Frequency, on ColorVal, wire func(int) int) (*Frame, error) {
	if freq == 0 {
		freq = StripFreq
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: count,
		Channels:  3,
		Freq:      freq,
	})
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	if err := d.Halt(); err != nil {
		return nil, fmt.Errorf("nrzled halt: %w", err)
	}
	return NewFrame(d, count, on, wire), nil
}

// OpenStrip initializes the host and opens the named SPI port ("" picks the
// first one registered).
func OpenStrip(dev string, count int, freq physic.Frequency, on ColorVal, wire func(int) int) (*Frame, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	p, err := spireg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", dev, err)
	}
	f, err := NewStrip(p, count, freq, on, wire)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	f.port = p
	return f, nil
}
