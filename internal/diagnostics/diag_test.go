package diagnostics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanout(t *testing.T) {
	var a, b Recorder
	var f Fanout
	f.Add(a.Emit)
	f.Add(b.Emit)
	f.Emit(Diagnostic{Severity: Warn, Code: CodeInvalidChar})
	assert.Equal(t, []string{CodeInvalidChar}, a.Codes())
	assert.Equal(t, []string{CodeInvalidChar}, b.Codes())
}

func TestJSONOmitsEmpty(t *testing.T) {
	b, err := json.Marshal(Diagnostic{Severity: Info, Code: CodeSelfTest, Summary: "done"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"severity":"info","code":"TEST.DONE","summary":"done"}`, string(b))
}
