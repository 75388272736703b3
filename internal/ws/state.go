package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/arcaluminis-text/internal/config"
	diag "github.com/coreman2200/arcaluminis-text/internal/diagnostics"
	"github.com/coreman2200/arcaluminis-text/internal/matrix"
	"github.com/coreman2200/arcaluminis-text/internal/selftest"
	"github.com/coreman2200/arcaluminis-text/internal/textscreen"
)

// Screen is the blocking text screen. *service.Screen implements it.
type Screen interface {
	Print(ctx context.Context, text string) (int, error)
	On(ctx context.Context) error
	Off(ctx context.Context) error
	Clear(ctx context.Context) error
	SetSpeed(ctx context.Context, d time.Duration) error
	Command(ctx context.Context, num, arg int) error
	Snapshot(ctx context.Context) (textscreen.Snapshot, error)
}

const writeWait = 200 * time.Millisecond

// ErrNoSelfTest is returned for runTest when no runner is installed.
var ErrNoSelfTest = errors.New("ws: self-test not available")

type State struct {
	mu sync.RWMutex

	Screen        Screen
	ConfigPath    string
	Config        *config.Config
	CurrentDriver string
	// RunTest starts a self-test pattern. Nil disables runTest.
	RunTest func(ctx context.Context, k selftest.Kind) error

	frameID     uint64
	last        matrix.Frame
	startTime   time.Time
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool

	frames chan matrix.Frame
	diags  chan diag.Diagnostic
	log    zerolog.Logger
}

func NewState(screen Screen, cfg *config.Config, driver string) *State {
	return &State{
		Screen:        screen,
		Config:        cfg,
		CurrentDriver: driver,
		startTime:     time.Now(),
		clients:       map[*websocket.Conn]bool{},
		diagClients:   map[*websocket.Conn]bool{},
		frames:        make(chan matrix.Frame, 32),
		diags:         make(chan diag.Diagnostic, 32),
		log:           log.With().Str("component", "ws").Logger(),
	}
}

// OnFrame is a matrix observer. Frames are dropped while the broadcast
// queue is full.
func (s *State) OnFrame(f matrix.Frame) {
	select {
	case s.frames <- f:
	default:
	}
}

// OnDiag is a diagnostics sink, dropping like OnFrame.
func (s *State) OnDiag(d diag.Diagnostic) {
	select {
	case s.diags <- d:
	default:
	}
}

// Run broadcasts queued frames and diagnostics until ctx is done.
func (s *State) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-s.frames:
			s.broadcastFrame(f)
		case d := <-s.diags:
			s.pushDiag(d)
		}
	}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	// Topology goes out before the connection joins the broadcast set so
	// only one goroutine ever writes to it.
	s.sendTopology(conn)
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()
	go s.drain(conn, s.clients)
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.diagClients[conn] = true
	s.mu.Unlock()
	go s.drain(conn, s.diagClients)
}

// drain reads until the peer goes away, then forgets the connection.
func (s *State) drain(conn *websocket.Conn, set map[*websocket.Conn]bool) {
	defer func() {
		s.mu.Lock()
		delete(set, conn)
		s.mu.Unlock()
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Control is one message on /control. Every field is optional.
type Control struct {
	Print   *string `json:"print,omitempty"`
	Enabled *bool   `json:"enabled,omitempty"`
	Clear   bool    `json:"clear,omitempty"`
	SpeedMS *int    `json:"speedMS,omitempty"`
	Command *struct {
		Num int `json:"num"`
		Arg int `json:"arg"`
	} `json:"command,omitempty"`
	RunTest string `json:"runTest,omitempty"`
}

type reply struct {
	Status textscreen.Snapshot `json:"status"`
	Error  string              `json:"error,omitempty"`
}

func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Control
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		var rep reply
		if err := s.applyControl(r.Context(), msg); err != nil {
			rep.Error = err.Error()
		}
		rep.Status, _ = s.Screen.Snapshot(r.Context())
		b, _ := json.Marshal(rep)
		_ = conn.WriteMessage(websocket.TextMessage, b)
	}
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Screen.Snapshot(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp := map[string]any{
		"frame_id": s.frameID,
		"uptime_s": time.Since(s.startTime).Seconds(),
		"count":    len(s.last),
		"driver":   s.CurrentDriver,
		"screen":   snap,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *State) applyControl(ctx context.Context, msg Control) error {
	if msg.Clear {
		if err := s.Screen.Clear(ctx); err != nil {
			return err
		}
	}
	if msg.Print != nil {
		if _, err := s.Screen.Print(ctx, *msg.Print); err != nil {
			return err
		}
	}
	if msg.Enabled != nil {
		var err error
		if *msg.Enabled {
			err = s.Screen.On(ctx)
		} else {
			err = s.Screen.Off(ctx)
		}
		if err != nil {
			return err
		}
	}
	if msg.SpeedMS != nil {
		if err := s.Screen.SetSpeed(ctx, time.Duration(*msg.SpeedMS)*time.Millisecond); err != nil {
			return err
		}
		s.saveConfig(func(c *config.Config) { c.SpeedMS = *msg.SpeedMS })
	}
	if msg.Command != nil {
		if err := s.Screen.Command(ctx, msg.Command.Num, msg.Command.Arg); err != nil {
			return err
		}
	}
	if msg.RunTest != "" {
		return s.startTest(msg.RunTest)
	}
	return nil
}

func (s *State) startTest(name string) error {
	k, err := selftest.Parse(name)
	if err != nil {
		s.OnDiag(diag.Diagnostic{
			Severity: diag.Warn, Code: diag.CodeTestUnknown, Summary: "Unknown test name",
			Evidence: map[string]any{"name": name},
		})
		return err
	}
	if s.RunTest == nil {
		s.OnDiag(diag.Diagnostic{
			Severity: diag.Warn, Code: diag.CodeTestDisabled, Summary: "Self-test not available",
			Evidence: map[string]any{"name": name},
		})
		return ErrNoSelfTest
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := s.RunTest(ctx, k); err != nil {
			s.log.Warn().Err(err).Str("test", name).Msg("self-test aborted")
			return
		}
		s.OnDiag(diag.Diagnostic{Severity: diag.Info, Code: diag.CodeSelfTest, Summary: "Test complete", Detail: name})
	}()
	return nil
}

func (s *State) saveConfig(update func(*config.Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Config == nil {
		return
	}
	update(s.Config)
	if s.ConfigPath == "" {
		return
	}
	if err := config.Save(s.ConfigPath, s.Config); err != nil {
		s.log.Warn().Err(err).Str("path", s.ConfigPath).Msg("save config")
	}
}

func (s *State) sendTopology(conn *websocket.Conn) {
	s.mu.RLock()
	top := map[string]any{
		"dim":    map[string]int{"x": 5, "y": 5},
		"driver": s.CurrentDriver,
		"leds":   s.last,
	}
	s.mu.RUnlock()
	b, _ := json.Marshal(top)
	_ = conn.WriteMessage(websocket.TextMessage, b)
}

type frameMsg struct {
	T       int64        `json:"t"`
	FrameID uint64       `json:"frame_id"`
	LEDs    matrix.Frame `json:"leds"`
}

func (s *State) broadcastFrame(f matrix.Frame) {
	s.mu.Lock()
	s.frameID++
	s.last = f
	b, _ := json.Marshal(frameMsg{T: time.Now().UnixNano(), FrameID: s.frameID, LEDs: f})
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			s.log.Debug().Err(err).Msg("write frame")
		}
	}
}

func (s *State) pushDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	s.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(s.diagClients))
	for c := range s.diagClients {
		conns = append(conns, c)
	}
	s.mu.RUnlock()
	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.WriteMessage(websocket.TextMessage, b)
	}
}

// Routes registers every handler on mux.
func (s *State) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/control", s.HandleControlWS)
	mux.HandleFunc("/health", s.HandleHealth)
}

func WithCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
