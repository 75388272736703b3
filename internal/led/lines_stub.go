//go:build !linux

package led

import "fmt"

type Lines struct{}

func OpenLines(chip string, offsets []int) (*Lines, error) {
	return nil, fmt.Errorf("gpiocdev driver not supported on this platform")
}

func (l *Lines) Outputs() []Output { return nil }

func (l *Lines) Close() error { return nil }
