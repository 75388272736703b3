// Package matrix drives the 25 outputs of a 5x5 LED matrix from glyphs.
package matrix

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/arcaluminis-text/internal/diagnostics"
	"github.com/coreman2200/arcaluminis-text/internal/glyph"
	"github.com/coreman2200/arcaluminis-text/internal/led"
)

// ErrDeviceCount is returned when the matrix is not given exactly 25 outputs.
var ErrDeviceCount = errors.New("matrix: expecting 25 LEDs")

// Frame is the on/off state of every LED, index 0 upper-left.
type Frame [glyph.Count]bool

// Renderer sets the outputs. Render and Blank must be called from a single
// goroutine; State and Observe are safe from anywhere.
type Renderer struct {
	outs  []led.Output
	flush led.Flusher
	log   zerolog.Logger
	diag  diagnostics.Sink

	mu        sync.RWMutex
	state     Frame
	observers []func(Frame)
}

type Option func(*Renderer)

// WithFlusher latches the bank after every full update.
func WithFlusher(f led.Flusher) Option {
	return func(r *Renderer) { r.flush = f }
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Renderer) { r.log = l }
}

// WithDiagnostics reports failed LED writes and flushes to sink.
func WithDiagnostics(sink diagnostics.Sink) Option {
	return func(r *Renderer) { r.diag = sink }
}

func New(outs []led.Output, opts ...Option) (*Renderer, error) {
	if len(outs) != glyph.Count {
		return nil, fmt.Errorf("%w, %d supplied", ErrDeviceCount, len(outs))
	}
	r := &Renderer{
		outs: outs,
		log:  log.With().Str("component", "matrix").Logger(),
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// MustNew is New for board setup code, where a wrong LED count is a wiring
// mistake rather than something to recover from.
func MustNew(outs []led.Output, opts ...Option) *Renderer {
	r, err := New(outs, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Render lights the LEDs set in g and darkens the rest.
func (r *Renderer) Render(g glyph.Glyph) {
	r.apply(g.Bits())
}

// Blank turns every LED off.
func (r *Renderer) Blank() {
	r.apply(Frame{})
}

func (r *Renderer) apply(f Frame) {
	for i, lit := range f {
		var err error
		if lit {
			err = r.outs[i].On()
		} else {
			err = r.outs[i].Off()
		}
		if err != nil {
			r.log.Warn().Err(err).Int("led", i).Msg("led write failed")
			r.report(err, map[string]any{"led": i, "on": lit})
		}
	}
	if r.flush != nil {
		if err := r.flush.Flush(); err != nil {
			r.log.Warn().Err(err).Msg("flush failed")
			r.report(err, map[string]any{"flush": true})
		}
	}

	r.mu.Lock()
	r.state = f
	obs := r.observers
	r.mu.Unlock()
	for _, fn := range obs {
		fn(f)
	}
}

func (r *Renderer) report(err error, evidence map[string]any) {
	if r.diag == nil {
		return
	}
	r.diag(diagnostics.Diagnostic{
		Severity:     diagnostics.Err,
		Code:         diagnostics.CodeDeviceWrite,
		Summary:      "LED output failed",
		Detail:       err.Error(),
		LikelyCauses: []string{"Pin or line released by another process", "SPI port unplugged"},
		Evidence:     evidence,
	})
}

// State returns the last frame written.
func (r *Renderer) State() Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Observe registers fn to receive every frame. fn runs on the rendering
// goroutine and must not block.
func (r *Renderer) Observe(fn func(Frame)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}

// String draws the frame like glyph.Glyph.String.
func (f Frame) String() string {
	var g glyph.Glyph
	for i, lit := range f {
		if lit {
			g |= 1 << (glyph.Count - 1 - i)
		}
	}
	return g.String()
}
