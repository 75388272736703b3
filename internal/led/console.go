package led

import "periph.io/x/extra/devices/screen"

// NewConsole previews count LEDs as a row of ANSI colored cells on stdout.
func NewConsole(count int, on ColorVal) *Frame {
	return NewFrame(screen.New(count), count, on, nil)
}
