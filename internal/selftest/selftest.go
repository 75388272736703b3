// Package selftest steps fixed patterns across the matrix so wiring
// mistakes are visible before any text is shown.
package selftest

import (
	"context"
	"fmt"
	"time"

	"github.com/coreman2200/arcaluminis-text/internal/glyph"
)

type Kind string

const (
	None       Kind = ""
	IndexSweep Kind = "index_sweep"
	AllOn      Kind = "all_on"
	GlyphWalk  Kind = "glyph_walk"
)

// Kinds lists the runnable patterns.
var Kinds = []Kind{IndexSweep, AllOn, GlyphWalk}

func Parse(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return None, fmt.Errorf("selftest: unknown pattern %q", s)
}

// Target is what a pattern is drawn on. *matrix.Renderer implements it.
type Target interface {
	Render(g glyph.Glyph)
	Blank()
}

const allLit glyph.Glyph = 1<<glyph.Count - 1

var walk = []byte("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ")

type Runner struct {
	kind Kind
	step int
}

func NewRunner(k Kind) *Runner { return &Runner{kind: k} }

// Step draws the next frame; returns false when complete.
func (r *Runner) Step(t Target) bool {
	switch r.kind {
	case IndexSweep:
		if r.step >= glyph.Count {
			return false
		}
		t.Render(glyph.Glyph(1) << (glyph.Count - 1 - r.step))
	case AllOn:
		if r.step >= 1 {
			return false
		}
		t.Render(allLit)
	case GlyphWalk:
		if r.step >= len(walk) {
			return false
		}
		g, _ := glyph.Lookup(walk[r.step])
		t.Render(g)
	default:
		return false
	}
	r.step++
	return true
}

// Run steps the pattern every interval and blanks the target at the end.
func (r *Runner) Run(ctx context.Context, t Target, interval time.Duration) error {
	defer t.Blank()
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for r.Step(t) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
	return nil
}
