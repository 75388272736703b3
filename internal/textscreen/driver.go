package textscreen

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/arcaluminis-text/internal/diagnostics"
	"github.com/coreman2200/arcaluminis-text/internal/glyph"
	"github.com/coreman2200/arcaluminis-text/internal/scroll"
)

// Renderer draws onto the matrix. *matrix.Renderer implements it.
type Renderer interface {
	Render(g glyph.Glyph)
	Blank()
}

type textBuffer interface {
	Load(src []byte) int
	Replace(src []byte) int
	Advance() (byte, error)
	Reset()
	Len() int
	Cursor() int
	Cap() int
	Bytes() []byte
}

type Driver struct {
	matrix Renderer
	alarm  Alarm
	sched  Scheduler
	client Client

	text    textBuffer
	status  Status
	speed   time.Duration
	enabled bool
	policy  Policy

	// loan is the client's buffer between Print and WriteComplete.
	loan    []byte
	loanLen int

	log  zerolog.Logger
	diag diagnostics.Sink
}

type Option func(*Driver)

func WithLogger(l zerolog.Logger) Option {
	return func(d *Driver) { d.log = l }
}

// WithDiagnostics reports invalid characters and recovered faults to sink.
func WithDiagnostics(sink diagnostics.Sink) Option {
	return func(d *Driver) { d.diag = sink }
}

// New builds a driver and registers it as the alarm's client.
func New(r Renderer, a Alarm, s Scheduler, cfg Config, opts ...Option) *Driver {
	if cfg.Speed <= 0 {
		cfg.Speed = DefaultSpeed
	}
	d := &Driver{
		matrix:  r,
		alarm:   a,
		sched:   s,
		text:    scroll.New(cfg.Capacity),
		speed:   cfg.Speed,
		enabled: cfg.Enabled,
		policy:  cfg.Policy,
		log:     log.With().Str("component", "textscreen").Logger(),
	}
	for _, o := range opts {
		o(d)
	}
	a.SetClient(d.AlarmFired)
	return d
}

// SetClient sets the receiver of completions. A nil client drops them.
func (d *Driver) SetClient(c Client) { d.client = c }

// Size is one row holding as many characters as the buffer.
func (d *Driver) Size() (cols, rows int) { return d.text.Cap(), 1 }

// Print loans buf to the driver and starts scrolling its first n bytes.
// On success the driver keeps buf until WriteComplete returns it and Print
// returns nil. On error nothing changed and buf comes straight back.
func (d *Driver) Print(buf []byte, n int) ([]byte, error) {
	if d.status != Idle {
		return buf, ErrBusy
	}
	if n < 0 || n > len(buf) {
		return buf, fmt.Errorf("%w: length %d, buffer %d", ErrInvalidSize, n, len(buf))
	}
	d.status = ExecutingPrint
	prev := d.text.Len()

	var accepted int
	if d.policy == RestartScroll {
		accepted = d.text.Replace(buf[:n])
	} else {
		accepted = d.text.Load(buf[:n])
	}
	d.loan, d.loanLen = buf, accepted
	d.sched.Schedule(d.complete)

	// With no text before, nothing is armed; show the first character now.
	// A restart shows it regardless and re-arms from here.
	if accepted > 0 && (prev == 0 || d.policy == RestartScroll) {
		d.displayNext()
	}
	d.log.Debug().Int("accepted", accepted).Int("len", d.text.Len()).Msg("print")
	return nil, nil
}

func (d *Driver) DisplayOn() error {
	return d.command(func() { d.enabled = true })
}

// DisplayOff blanks the matrix. Scrolling continues unseen.
func (d *Driver) DisplayOff() error {
	return d.command(func() {
		d.enabled = false
		d.matrix.Blank()
	})
}

// Clear drops the text and blanks the matrix.
func (d *Driver) Clear() error {
	return d.command(func() {
		d.text.Reset()
		d.matrix.Blank()
	})
}

func (d *Driver) command(apply func()) error {
	if d.status != Idle {
		return ErrBusy
	}
	d.status = ExecutingCommand
	apply()
	d.sched.Schedule(d.complete)
	return nil
}

func (d *Driver) SetCursor(x, y int) error { return ErrUnsupported }
func (d *Driver) HideCursor() error        { return ErrUnsupported }
func (d *Driver) ShowCursor() error        { return ErrUnsupported }
func (d *Driver) BlinkCursorOn() error     { return ErrUnsupported }
func (d *Driver) BlinkCursorOff() error    { return ErrUnsupported }

// SetSpeed changes how long each character is shown, starting with the
// next alarm.
func (d *Driver) SetSpeed(speed time.Duration) error {
	if speed <= 0 {
		return fmt.Errorf("%w: speed %s", ErrInvalidSize, speed)
	}
	d.speed = speed
	return nil
}

// Command numbers understood by Command.
const (
	CmdExists   = 0
	CmdSetSpeed = 1
)

// Command is the numbered driver interface: CmdExists succeeds,
// CmdSetSpeed takes milliseconds.
func (d *Driver) Command(num, arg int) error {
	switch num {
	case CmdExists:
		return nil
	case CmdSetSpeed:
		return d.SetSpeed(time.Duration(arg) * time.Millisecond)
	}
	return ErrUnsupported
}

func (d *Driver) Status() Status       { return d.status }
func (d *Driver) Enabled() bool        { return d.enabled }
func (d *Driver) Speed() time.Duration { return d.speed }
func (d *Driver) Policy() Policy       { return d.policy }

// Snapshot describes the driver for status displays.
type Snapshot struct {
	Status   Status        `json:"-"`
	State    string        `json:"status"`
	Enabled  bool          `json:"enabled"`
	Speed    time.Duration `json:"-"`
	SpeedMS  int64         `json:"speed_ms"`
	Policy   string        `json:"policy"`
	Text     string        `json:"text"`
	Cursor   int           `json:"cursor"`
	Capacity int           `json:"capacity"`
}

func (d *Driver) Snapshot() Snapshot {
	return Snapshot{
		Status:   d.status,
		State:    d.status.String(),
		Enabled:  d.enabled,
		Speed:    d.speed,
		SpeedMS:  d.speed.Milliseconds(),
		Policy:   d.policy.String(),
		Text:     string(d.text.Bytes()),
		Cursor:   d.text.Cursor(),
		Capacity: d.text.Cap(),
	}
}

// AlarmFired shows the next character.
func (d *Driver) AlarmFired() { d.displayNext() }

func (d *Driver) displayNext() {
	c, err := d.text.Advance()
	switch {
	case errors.Is(err, scroll.ErrEmpty):
		d.matrix.Blank()
	case err != nil:
		d.matrix.Blank()
		err = fmt.Errorf("%w: %v", ErrInternalFault, err)
		d.log.Warn().Err(err).Msg("blanking display")
		d.report(diagnostics.Diagnostic{
			Severity: diagnostics.Err,
			Code:     diagnostics.CodeInternalFault,
			Summary:  "Scroll position outside the text buffer",
			Detail:   err.Error(),
			Evidence: map[string]any{"cursor": d.text.Cursor(), "len": d.text.Len(), "cap": d.text.Cap()},
		})
	default:
		d.show(c)
	}
	if d.text.Len() > 0 {
		d.alarm.Arm(d.alarm.Now(), d.speed)
	}
}

func (d *Driver) show(c byte) {
	if !d.enabled {
		d.matrix.Blank()
		return
	}
	g, ok := glyph.Lookup(c)
	if !ok {
		d.matrix.Blank()
		err := fmt.Errorf("%w: %q", ErrInvalidCharacter, c)
		d.log.Debug().Err(err).Int("pos", d.text.Cursor()-1).Msg("showing blank")
		d.report(diagnostics.Diagnostic{
			Severity:       diagnostics.Warn,
			Code:           diagnostics.CodeInvalidChar,
			Summary:        "Character has no glyph",
			Detail:         err.Error(),
			SuggestedFixes: []string{"Use digits and letters only"},
			Evidence:       map[string]any{"char": string(c), "pos": d.text.Cursor() - 1},
		})
		return
	}
	d.log.Debug().Str("char", string(c)).Msg("render")
	d.matrix.Render(g)
}

func (d *Driver) report(diag diagnostics.Diagnostic) {
	if d.diag != nil {
		d.diag(diag)
	}
}

// complete runs as the deferred callback of every accepted action.
func (d *Driver) complete() {
	status := d.status
	defer func() { d.status = Idle }()

	switch status {
	case ExecutingCommand:
		if d.client != nil {
			d.client.CommandComplete(nil)
		}
	case ExecutingPrint:
		buf, n := d.loan, d.loanLen
		d.loan, d.loanLen = nil, 0
		if d.client != nil {
			d.client.WriteComplete(buf, n, nil)
		}
	}
}
