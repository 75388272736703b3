// Package service gives the text screen a blocking API that any goroutine
// can call.
package service

import (
	"context"
	"time"

	"github.com/coreman2200/arcaluminis-text/internal/textscreen"
)

// Runner runs fn on the goroutine that owns the driver and waits for it.
// *event.Loop implements it.
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

type result struct {
	n   int
	err error
}

// Screen serializes callers onto the driver and waits for each action's
// completion. It owns the buffer it loans to the driver.
type Screen struct {
	run Runner
	drv *textscreen.Driver

	// Only touched on the loop goroutine.
	buf    []byte
	waiter chan result

	lock chan struct{}
}

// New attaches a Screen as drv's client. Call it before the loop starts
// delivering events to drv.
func New(run Runner, drv *textscreen.Driver) *Screen {
	cols, _ := drv.Size()
	s := &Screen{
		run:  run,
		drv:  drv,
		buf:  make([]byte, cols),
		lock: make(chan struct{}, 1),
	}
	drv.SetClient(s)
	return s
}

func (s *Screen) acquire(ctx context.Context) error {
	select {
	case s.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Screen) release() { <-s.lock }

// Print shows text and returns how many bytes the driver took.
func (s *Screen) Print(ctx context.Context, text string) (int, error) {
	if err := s.acquire(ctx); err != nil {
		return 0, err
	}
	defer s.release()

	done := make(chan result, 1)
	var startErr error
	err := s.run.Do(ctx, func() {
		if len(text) > len(s.buf) {
			s.buf = make([]byte, len(text))
		}
		buf := s.buf
		s.buf = nil
		n := copy(buf, text)
		s.waiter = done
		if back, err := s.drv.Print(buf, n); err != nil {
			s.buf, s.waiter, startErr = back, nil, err
		}
	})
	if err != nil {
		return 0, err
	}
	if startErr != nil {
		return 0, startErr
	}
	return s.wait(ctx, done)
}

func (s *Screen) On(ctx context.Context) error {
	return s.command(ctx, s.drv.DisplayOn)
}

func (s *Screen) Off(ctx context.Context) error {
	return s.command(ctx, s.drv.DisplayOff)
}

func (s *Screen) Clear(ctx context.Context) error {
	return s.command(ctx, s.drv.Clear)
}

func (s *Screen) command(ctx context.Context, start func() error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	done := make(chan result, 1)
	var startErr error
	err := s.run.Do(ctx, func() {
		s.waiter = done
		if err := start(); err != nil {
			s.waiter, startErr = nil, err
		}
	})
	if err != nil {
		return err
	}
	if startErr != nil {
		return startErr
	}
	_, err = s.wait(ctx, done)
	return err
}

func (s *Screen) wait(ctx context.Context, done <-chan result) (int, error) {
	select {
	case r := <-done:
		return r.n, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// call runs fn on the loop and returns its error.
func (s *Screen) call(ctx context.Context, fn func() error) error {
	var ferr error
	if err := s.run.Do(ctx, func() { ferr = fn() }); err != nil {
		return err
	}
	return ferr
}

func (s *Screen) SetSpeed(ctx context.Context, d time.Duration) error {
	return s.call(ctx, func() error { return s.drv.SetSpeed(d) })
}

func (s *Screen) Command(ctx context.Context, num, arg int) error {
	return s.call(ctx, func() error { return s.drv.Command(num, arg) })
}

func (s *Screen) SetCursor(ctx context.Context, x, y int) error {
	return s.call(ctx, func() error { return s.drv.SetCursor(x, y) })
}

func (s *Screen) Snapshot(ctx context.Context) (textscreen.Snapshot, error) {
	var snap textscreen.Snapshot
	err := s.call(ctx, func() error {
		snap = s.drv.Snapshot()
		return nil
	})
	return snap, err
}

// CommandComplete implements textscreen.Client.
func (s *Screen) CommandComplete(err error) {
	s.signal(result{err: err})
}

// WriteComplete implements textscreen.Client.
func (s *Screen) WriteComplete(buf []byte, n int, err error) {
	s.buf = buf
	s.signal(result{n: n, err: err})
}

func (s *Screen) signal(r result) {
	if s.waiter != nil {
		s.waiter <- r
		s.waiter = nil
	}
}
