//go:build linux

package led

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// Lines drives LEDs through the GPIO character device, one requested
// line per LED.
type Lines struct {
	mu    sync.Mutex
	lines []*gpiocdev.Line
}

// OpenLines requests every offset on chip (e.g. "gpiochip0") as an output
// initialised low.
func OpenLines(chip string, offsets []int) (*Lines, error) {
	l := &Lines{}
	for _, off := range offsets {
		line, err := gpiocdev.RequestLine(chip, off, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("ledtext"))
		if err != nil {
			_ = l.Close()
			return nil, fmt.Errorf("request %s line %d: %w", chip, off, err)
		}
		l.lines = append(l.lines, line)
	}
	return l, nil
}

type lineOutput struct {
	l *Lines
	i int
}

func (o lineOutput) On() error  { return o.l.set(o.i, 1) }
func (o lineOutput) Off() error { return o.l.set(o.i, 0) }

func (l *Lines) set(i, v int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lines == nil {
		return fmt.Errorf("lines closed")
	}
	return l.lines[i].SetValue(v)
}

func (l *Lines) Outputs() []Output {
	out := make([]Output, len(l.lines))
	for i := range out {
		out[i] = lineOutput{l: l, i: i}
	}
	return out
}

func (l *Lines) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var first error
	for _, line := range l.lines {
		if err := line.Close(); err != nil && first == nil {
			first = err
		}
	}
	l.lines = nil
	return first
}
