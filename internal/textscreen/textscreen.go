// Package textscreen turns a 5x5 LED matrix into a one-row text screen
// that scrolls its text one character at a time.
//
// The Driver is not safe for concurrent use. Every method, the alarm
// callback and the deferred completions must run on one goroutine, in
// practice an event.Loop. Completions are never delivered from inside the
// call that caused them; they are queued on the Scheduler and reach the
// Client after that call has returned.
package textscreen

import (
	"errors"
	"time"
)

var (
	ErrBusy             = errors.New("textscreen: another action is in progress")
	ErrInvalidSize      = errors.New("textscreen: invalid size")
	ErrUnsupported      = errors.New("textscreen: not supported")
	ErrInvalidCharacter = errors.New("textscreen: no glyph for character")
	ErrInternalFault    = errors.New("textscreen: internal fault")
)

// Status tracks the single outstanding action.
type Status int

const (
	Idle Status = iota
	ExecutingCommand
	ExecutingPrint
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case ExecutingCommand:
		return "executing_command"
	case ExecutingPrint:
		return "executing_print"
	}
	return "unknown"
}

// Policy decides what a print does to text that is already scrolling.
type Policy int

const (
	// ContinueScroll writes the new text over the start of the buffer and
	// keeps scrolling from the current position. The text never gets
	// shorter until Clear.
	ContinueScroll Policy = iota
	// RestartScroll replaces the text and starts again from its first
	// character.
	RestartScroll
)

func (p Policy) String() string {
	if p == RestartScroll {
		return "restart"
	}
	return "continue"
}

// Client receives completions. Neither method is called from within the
// Driver call that started the action.
type Client interface {
	// CommandComplete reports the end of DisplayOn, DisplayOff or Clear.
	CommandComplete(err error)
	// WriteComplete hands back the buffer given to Print together with the
	// number of bytes that were taken from it.
	WriteComplete(buf []byte, n int, err error)
}

// Alarm is a one-shot timer. Arm replaces any pending expiry, and the
// function passed to SetClient runs once per Arm, at or after base+d.
type Alarm interface {
	Now() time.Time
	Arm(base time.Time, d time.Duration)
	SetClient(fn func())
}

// Scheduler runs fn once, after the caller of Schedule has returned.
type Scheduler interface {
	Schedule(fn func())
}

type Config struct {
	// Speed is the time each character stays on the matrix.
	Speed time.Duration
	// Capacity is the size of the driver's text buffer.
	Capacity int
	Policy   Policy
	// Enabled is the initial state of the display.
	Enabled bool
}

const DefaultSpeed = 300 * time.Millisecond
