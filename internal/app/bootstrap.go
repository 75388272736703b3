// Package app wires the LED backend, the event loop and the text screen
// together.
package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/arcaluminis-text/internal/alarm"
	"github.com/coreman2200/arcaluminis-text/internal/config"
	"github.com/coreman2200/arcaluminis-text/internal/diagnostics"
	"github.com/coreman2200/arcaluminis-text/internal/event"
	"github.com/coreman2200/arcaluminis-text/internal/glyph"
	"github.com/coreman2200/arcaluminis-text/internal/matrix"
	"github.com/coreman2200/arcaluminis-text/internal/selftest"
	"github.com/coreman2200/arcaluminis-text/internal/service"
	"github.com/coreman2200/arcaluminis-text/internal/textscreen"
)

type Core struct {
	Loop   *event.Loop
	Alarm  *alarm.Alarm
	Matrix *matrix.Renderer
	Text   *textscreen.Driver
	Screen *service.Screen
	Diag   *diagnostics.Fanout
	Bank   Bank
}

// InitCore builds the core on an already opened bank. Nothing runs until
// Run is called.
func InitCore(cfg *config.Config, bank Bank) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	diag := &diagnostics.Fanout{}
	m, err := matrix.New(bank.Outputs, matrix.WithFlusher(bank.Flusher), matrix.WithDiagnostics(diag.Emit))
	if err != nil {
		return nil, err
	}

	policy := textscreen.ContinueScroll
	if cfg.RestartOnPrint {
		policy = textscreen.RestartScroll
	}
	loop := event.New()
	al := alarm.New(loop)
	drv := textscreen.New(m, al, loop, textscreen.Config{
		Speed:    time.Duration(cfg.SpeedMS) * time.Millisecond,
		Capacity: cfg.BufferSize,
		Policy:   policy,
		Enabled:  cfg.Enabled,
	}, textscreen.WithDiagnostics(diag.Emit))

	log.Info().
		Str("driver", bank.Name).
		Int("speed_ms", cfg.SpeedMS).
		Int("buffer", cfg.BufferSize).
		Str("policy", policy.String()).
		Msg("text screen ready")

	return &Core{
		Loop:   loop,
		Alarm:  al,
		Matrix: m,
		Text:   drv,
		Screen: service.New(loop, drv),
		Diag:   diag,
		Bank:   bank,
	}, nil
}

// Run drives the loop until ctx is cancelled.
func (c *Core) Run(ctx context.Context) error {
	return c.Loop.Run(ctx)
}

// SelfTest draws pattern k on the matrix from the loop goroutine. The text
// scroll keeps its timer, so call Clear first for an undisturbed pattern.
func (c *Core) SelfTest(ctx context.Context, k selftest.Kind) error {
	return selftest.NewRunner(k).Run(ctx, loopTarget{ctx: ctx, c: c}, 150*time.Millisecond)
}

// SelfTestDirect draws pattern k straight onto the matrix. Only use it
// before Run.
func (c *Core) SelfTestDirect(ctx context.Context, k selftest.Kind, interval time.Duration) error {
	return selftest.NewRunner(k).Run(ctx, c.Matrix, interval)
}

type loopTarget struct {
	ctx context.Context
	c   *Core
}

func (t loopTarget) Render(g glyph.Glyph) {
	_ = t.c.Loop.Do(t.ctx, func() { t.c.Matrix.Render(g) })
}

func (t loopTarget) Blank() {
	_ = t.c.Loop.Do(context.Background(), func() { t.c.Matrix.Blank() })
}

func (c *Core) Close() error {
	c.Alarm.Disarm()
	return c.Bank.Close()
}
