package led

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"

	"periph.io/x/conn/v3/display"
)

// Frame stages LED states in a one-row image and pushes it to a
// display.Drawer on Flush. Strips and the terminal preview both work
// this way: individual On/Off calls are cheap, Flush does the I/O.
type Frame struct {
	mu     sync.Mutex
	drawer display.Drawer
	img    *image.NRGBA
	on     color.NRGBA
	wire   func(int) int
	count  int
	port   io.Closer
}

// NewFrame builds a bank of count LEDs. wire maps an LED index to its pixel
// on the drawer; nil means identity.
func NewFrame(d display.Drawer, count int, on ColorVal, wire func(int) int) *Frame {
	if wire == nil {
		wire = func(i int) int { return i }
	}
	img := image.NewNRGBA(image.Rect(0, 0, count, 1))
	for x := 0; x < count; x++ {
		img.SetNRGBA(x, 0, color.NRGBA{A: 255})
	}
	return &Frame{
		drawer: d,
		img:    img,
		on:     on.ToRGB(),
		wire:   wire,
		count:  count,
	}
}

type frameOutput struct {
	f *Frame
	i int
}

func (o frameOutput) On() error  { return o.f.set(o.i, true) }
func (o frameOutput) Off() error { return o.f.set(o.i, false) }

func (f *Frame) set(i int, lit bool) error {
	x := f.wire(i)
	if x < 0 || x >= f.count {
		return fmt.Errorf("pixel %d out of range", x)
	}
	c := color.NRGBA{A: 255}
	if lit {
		c = f.on
	}
	f.mu.Lock()
	f.img.SetNRGBA(x, 0, c)
	f.mu.Unlock()
	return nil
}

func (f *Frame) Outputs() []Output {
	out := make([]Output, f.count)
	for i := range out {
		out[i] = frameOutput{f: f, i: i}
	}
	return out
}

// Image returns a copy of the staged pixels.
func (f *Frame) Image() *image.NRGBA {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := image.NewNRGBA(f.img.Rect)
	copy(cp.Pix, f.img.Pix)
	return cp
}

func (f *Frame) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.drawer.Draw(f.drawer.Bounds(), f.img, image.Point{})
}

// Close darkens the LEDs and releases the port they hang off, if any.
func (f *Frame) Close() error {
	err := f.drawer.Halt()
	if f.port != nil {
		if cerr := f.port.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
