package led

import "sync"

// Sim is an in-memory bank of LEDs. It backs the "sim" driver and tests.
type Sim struct {
	mu      sync.Mutex
	state   []bool
	writes  int
	flushes int
}

func NewSim(count int) *Sim {
	return &Sim{state: make([]bool, count)}
}

type simOutput struct {
	s *Sim
	i int
}

func (o simOutput) On() error  { o.s.set(o.i, true); return nil }
func (o simOutput) Off() error { o.s.set(o.i, false); return nil }

func (s *Sim) set(i int, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[i] = v
	s.writes++
}

// Outputs returns one Output per simulated LED, in index order.
func (s *Sim) Outputs() []Output {
	out := make([]Output, len(s.state))
	for i := range out {
		out[i] = simOutput{s: s, i: i}
	}
	return out
}

func (s *Sim) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
	return nil
}

// State returns a copy of the LED states.
func (s *Sim) State() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.state...)
}

// Writes counts individual On/Off calls.
func (s *Sim) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *Sim) Flushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushes
}
