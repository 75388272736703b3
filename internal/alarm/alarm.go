// Package alarm provides a one-shot alarm whose expiry is delivered on an
// event loop rather than on a timer goroutine.
package alarm

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Poster hands a callback to the goroutine that owns the alarm's client.
// *event.Loop satisfies it.
type Poster interface {
	Post(fn func()) error
}

// Alarm is a single one-shot alarm. Arming it again replaces any pending
// expiry, so the client sees at most one callback per Arm.
type Alarm struct {
	poster Poster
	now    func() time.Time
	log    zerolog.Logger

	mu     sync.Mutex
	timer  *time.Timer
	gen    uint64
	client func()
}

func New(p Poster) *Alarm {
	return &Alarm{
		poster: p,
		now:    time.Now,
		log:    log.With().Str("component", "alarm").Logger(),
	}
}

// SetClient sets the function invoked on expiry.
func (a *Alarm) SetClient(fn func()) {
	a.mu.Lock()
	a.client = fn
	a.mu.Unlock()
}

func (a *Alarm) Now() time.Time { return a.now() }

// Arm schedules expiry at base+d. A deadline already in the past fires as
// soon as possible.
func (a *Alarm) Arm(base time.Time, d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
	a.gen++
	gen := a.gen

	wait := base.Add(d).Sub(a.now())
	if wait < 0 {
		wait = 0
	}
	a.timer = time.AfterFunc(wait, func() {
		if err := a.poster.Post(func() { a.fire(gen) }); err != nil {
			a.log.Debug().Err(err).Msg("expiry dropped")
		}
	})
}

// Disarm cancels a pending expiry.
func (a *Alarm) Disarm() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
	a.gen++
}

// Armed reports whether an expiry is pending.
func (a *Alarm) Armed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timer != nil
}

func (a *Alarm) stopLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *Alarm) fire(gen uint64) {
	a.mu.Lock()
	if gen != a.gen {
		a.mu.Unlock()
		return
	}
	a.timer = nil
	fn := a.client
	a.mu.Unlock()
	if fn != nil {
		fn()
	}
}
