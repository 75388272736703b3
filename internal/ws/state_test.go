package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/arcaluminis-text/internal/config"
	diag "github.com/coreman2200/arcaluminis-text/internal/diagnostics"
	"github.com/coreman2200/arcaluminis-text/internal/matrix"
	"github.com/coreman2200/arcaluminis-text/internal/selftest"
	"github.com/coreman2200/arcaluminis-text/internal/textscreen"
)

type fakeScreen struct {
	mu      sync.Mutex
	text    string
	enabled bool
	speed   time.Duration
}

func (f *fakeScreen) Print(_ context.Context, text string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = text
	return len(text), nil
}
func (f *fakeScreen) On(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled = true
	return nil
}
func (f *fakeScreen) Off(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled = false
	return nil
}
func (f *fakeScreen) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = ""
	return nil
}
func (f *fakeScreen) SetSpeed(_ context.Context, d time.Duration) error {
	if d <= 0 {
		return textscreen.ErrInvalidSize
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.speed = d
	return nil
}
func (f *fakeScreen) Command(_ context.Context, num, _ int) error {
	if num != 0 {
		return textscreen.ErrUnsupported
	}
	return nil
}
func (f *fakeScreen) Snapshot(context.Context) (textscreen.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return textscreen.Snapshot{Text: f.text, Enabled: f.enabled, SpeedMS: f.speed.Milliseconds()}, nil
}

func serve(t *testing.T, s *State) string {
	t.Helper()
	mux := http.NewServeMux()
	s.Routes(mux)
	srv := httptest.NewServer(WithCORS(mux))
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	c.SetReadDeadline(time.Now().Add(2 * time.Second))
	return c
}

func TestControlAppliesAndPersistsSpeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	fs := &fakeScreen{}
	s := NewState(fs, config.Default(), "sim")
	s.ConfigPath = path
	c := dial(t, serve(t, s)+"/control")

	require.NoError(t, c.WriteJSON(map[string]any{"print": "HELLO", "enabled": true, "speedMS": 120}))
	var rep struct {
		Status map[string]any `json:"status"`
		Error  string         `json:"error"`
	}
	require.NoError(t, c.ReadJSON(&rep))
	assert.Empty(t, rep.Error)
	assert.Equal(t, "HELLO", rep.Status["text"])
	assert.Equal(t, true, rep.Status["enabled"])
	assert.EqualValues(t, 120, rep.Status["speed_ms"])

	saved, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 120, saved.SpeedMS)

	require.NoError(t, c.WriteJSON(map[string]any{"command": map[string]int{"num": 5}}))
	require.NoError(t, c.ReadJSON(&rep))
	assert.Equal(t, textscreen.ErrUnsupported.Error(), rep.Error)
}

func TestFramesAreBroadcast(t *testing.T) {
	s := NewState(&fakeScreen{}, nil, "sim")
	c := dial(t, serve(t, s)+"/ws")

	var top struct {
		Dim    map[string]int `json:"dim"`
		Driver string         `json:"driver"`
	}
	require.NoError(t, c.ReadJSON(&top))
	assert.Equal(t, map[string]int{"x": 5, "y": 5}, top.Dim)
	assert.Equal(t, "sim", top.Driver)

	var f matrix.Frame
	f[0], f[24] = true, true
	// The connection joins the broadcast set right after the topology.
	assert.Eventually(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(s.clients) == 1
	}, time.Second, 5*time.Millisecond)
	s.OnFrame(f)

	var msg frameMsg
	require.NoError(t, c.ReadJSON(&msg))
	assert.Equal(t, uint64(1), msg.FrameID)
	assert.Equal(t, f, msg.LEDs)
}

func TestDiagnosticsAndSelfTest(t *testing.T) {
	s := NewState(&fakeScreen{}, nil, "sim")
	ran := make(chan selftest.Kind, 1)
	s.RunTest = func(_ context.Context, k selftest.Kind) error {
		ran <- k
		return nil
	}
	url := serve(t, s)
	d := dial(t, url+"/diag")
	assert.Eventually(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(s.diagClients) == 1
	}, time.Second, 5*time.Millisecond)

	c := dial(t, url+"/control")
	require.NoError(t, c.WriteJSON(map[string]any{"runTest": "all_on"}))
	var rep map[string]any
	require.NoError(t, c.ReadJSON(&rep))
	assert.Equal(t, selftest.AllOn, <-ran)

	var got diag.Diagnostic
	require.NoError(t, d.ReadJSON(&got))
	assert.Equal(t, diag.CodeSelfTest, got.Code)

	require.NoError(t, c.WriteJSON(map[string]any{"runTest": "plane_z"}))
	require.NoError(t, c.ReadJSON(&rep))
	assert.NotEmpty(t, rep["error"])
	require.NoError(t, d.ReadJSON(&got))
	assert.Equal(t, diag.CodeTestUnknown, got.Code)
}

func TestSelfTestWithoutRunner(t *testing.T) {
	s := NewState(&fakeScreen{}, nil, "sim")
	err := s.applyControl(context.Background(), Control{RunTest: "all_on"})
	assert.ErrorIs(t, err, ErrNoSelfTest)

	d := <-s.diags
	assert.Equal(t, diag.CodeTestDisabled, d.Code)
	assert.Equal(t, "all_on", d.Evidence["name"])
}

func TestHealth(t *testing.T) {
	s := NewState(&fakeScreen{text: "HI"}, nil, "console")
	rec := httptest.NewRecorder()
	s.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "console", body["driver"])
	assert.EqualValues(t, 25, body["count"])
	assert.Equal(t, "HI", body["screen"].(map[string]any)["text"])
}
