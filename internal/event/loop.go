// Package event runs callbacks one at a time on a single goroutine.
//
// Work arrives two ways. Post hands a callback over from any goroutine.
// Schedule, used from inside a running callback, queues work that runs
// once the current callback has returned and before the next posted one
// is picked up.
package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrStopped = errors.New("event: loop stopped")
	ErrRunning = errors.New("event: loop already running")
)

type Loop struct {
	queue chan func()
	done  chan struct{}
	log   zerolog.Logger

	running atomic.Bool
	once    sync.Once

	mu       sync.Mutex
	deferred []func()
}

type Option func(*Loop)

func WithLogger(l zerolog.Logger) Option {
	return func(lp *Loop) { lp.log = l }
}

func New(opts ...Option) *Loop {
	l := &Loop{
		queue: make(chan func(), 64),
		done:  make(chan struct{}),
		log:   log.With().Str("component", "event").Logger(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Run processes callbacks until ctx is cancelled. A loop runs at most once.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer l.once.Do(func() { close(l.done) })

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.queue:
			l.call(fn)
			l.drain()
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Post queues fn. It blocks while the queue is full and fails once the
// loop has stopped.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}
	select {
	case l.queue <- fn:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

// Do runs fn on the loop and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	err := l.Post(func() {
		defer close(finished)
		fn()
	})
	if err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// Schedule defers fn until the callback currently running returns. It is
// meant to be called from the loop goroutine; each call yields exactly one
// invocation of fn.
func (l *Loop) Schedule(fn func()) {
	l.mu.Lock()
	l.deferred = append(l.deferred, fn)
	l.mu.Unlock()
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		if len(l.deferred) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.deferred[0]
		l.deferred = l.deferred[1:]
		l.mu.Unlock()
		l.call(fn)
	}
}

func (l *Loop) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error().Interface("panic", r).Msg("callback panicked")
		}
	}()
	fn()
}
