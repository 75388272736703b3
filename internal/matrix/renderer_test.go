package matrix

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/arcaluminis-text/internal/diagnostics"
	"github.com/coreman2200/arcaluminis-text/internal/glyph"
	"github.com/coreman2200/arcaluminis-text/internal/led"
)

func TestNewRejectsWrongCount(t *testing.T) {
	for _, n := range []int{0, 24, 26} {
		_, err := New(led.NewSim(n).Outputs())
		assert.ErrorIs(t, err, ErrDeviceCount, "count %d", n)
	}
	assert.Panics(t, func() { MustNew(led.NewSim(5).Outputs()) })
}

func TestRenderSetsEveryLED(t *testing.T) {
	sim := led.NewSim(glyph.Count)
	r := MustNew(sim.Outputs(), WithFlusher(sim))

	h, _ := glyph.Lookup('H')
	r.Render(h)

	want := h.Bits()
	if diff := cmp.Diff(want[:], sim.State()); diff != "" {
		t.Fatalf("LED state mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, glyph.Count, sim.Writes())
	assert.Equal(t, 1, sim.Flushes())
	assert.Equal(t, Frame(want), r.State())
	assert.Equal(t, h.String(), r.State().String())
}

func TestBlankClearsEverything(t *testing.T) {
	sim := led.NewSim(glyph.Count)
	r := MustNew(sim.Outputs())
	eight, _ := glyph.Lookup('8')
	r.Render(eight)
	r.Blank()
	assert.Equal(t, make([]bool, glyph.Count), sim.State())
	assert.Equal(t, Frame{}, r.State())
}

func TestObserversSeeEachFrame(t *testing.T) {
	r := MustNew(led.NewSim(glyph.Count).Outputs())
	var frames []Frame
	r.Observe(func(f Frame) { frames = append(frames, f) })

	a, _ := glyph.Lookup('A')
	r.Render(a)
	r.Blank()
	require.Len(t, frames, 2)
	assert.Equal(t, Frame(a.Bits()), frames[0])
	assert.Equal(t, Frame{}, frames[1])
}

type failing struct{}

func (failing) On() error  { return errors.New("stuck") }
func (failing) Off() error { return errors.New("stuck") }

func TestWriteErrorsDoNotStopTheFrame(t *testing.T) {
	sim := led.NewSim(glyph.Count)
	outs := sim.Outputs()
	outs[0] = failing{}
	var rec diagnostics.Recorder
	r := MustNew(outs, WithDiagnostics(rec.Emit))

	l, _ := glyph.Lookup('L')
	r.Render(l)
	state := sim.State()
	assert.True(t, state[24], "later LEDs still written")
	assert.Equal(t, Frame(l.Bits()), r.State())

	require.Len(t, rec.All(), 1)
	d := rec.All()[0]
	assert.Equal(t, diagnostics.CodeDeviceWrite, d.Code)
	assert.Equal(t, 0, d.Evidence["led"])
	assert.NotEmpty(t, d.LikelyCauses)
}

type badFlush struct{}

func (badFlush) Flush() error { return errors.New("spi gone") }

func TestFlushErrorIsReported(t *testing.T) {
	var rec diagnostics.Recorder
	r := MustNew(led.NewSim(glyph.Count).Outputs(), WithFlusher(badFlush{}), WithDiagnostics(rec.Emit))
	r.Blank()
	assert.Equal(t, []string{diagnostics.CodeDeviceWrite}, rec.Codes())
}
