package diagnostics

import "sync"

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

// Codes emitted by the display driver and the surfaces around it.
const (
	CodeInvalidChar   = "TEXT.INVALID_CHAR"
	CodeInternalFault = "TEXT.INTERNAL_FAULT"
	CodeDeviceWrite   = "LED.WRITE"
	CodeSelfTest      = "TEST.DONE"
	CodeTestUnknown   = "TEST.UNKNOWN"
	CodeTestDisabled  = "TEST.UNAVAILABLE"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// Sink receives diagnostics. Implementations must not block.
type Sink func(Diagnostic)

// Fanout delivers each diagnostic to every registered sink.
type Fanout struct {
	mu    sync.RWMutex
	sinks []Sink
}

func (f *Fanout) Add(s Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks = append(f.sinks, s)
}

func (f *Fanout) Emit(d Diagnostic) {
	f.mu.RLock()
	sinks := f.sinks
	f.mu.RUnlock()
	for _, s := range sinks {
		s(d)
	}
}

// Recorder keeps every diagnostic it sees.
type Recorder struct {
	mu  sync.Mutex
	got []Diagnostic
}

func (r *Recorder) Emit(d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, d)
}

func (r *Recorder) All() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Diagnostic(nil), r.got...)
}

// Codes lists the recorded codes in order.
func (r *Recorder) Codes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.got))
	for i, d := range r.got {
		out[i] = d.Code
	}
	return out
}
