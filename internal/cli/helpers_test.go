package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/healthsync/internal/testutil"
)

// testNow is 2024-03-01 09:00 UTC, so "today" is 2024-03-01.
var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// testEnv runs CLI invocations against one temporary database.
type testEnv struct {
	t      *testing.T
	dir    string
	db     string
	config string
	clock  *testutil.FixedClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	return &testEnv{
		t:      t,
		dir:    dir,
		db:     filepath.Join(dir, "healthsync.db"),
		config: filepath.Join(dir, "missing.yaml"),
		clock:  testutil.NewFixedClock(testNow),
	}
}

// run executes one command and returns its stdout.
func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	opts := &RootOptions{Clock: e.clock}
	cmd := newRootCommand(opts)

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append([]string{"--config", e.config, "--db", e.db, "--user", "u1", "--no-color"}, args...))

	err := cmd.Execute()
	return out.String(), err
}

// runJSON executes one command with --format json and decodes the data
// payload into data.
func (e *testEnv) runJSON(data any, args ...string) (CLIResponse, error) {
	e.t.Helper()
	out, err := e.run(append([]string{"--format", "json"}, args...)...)

	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(e.t, json.Unmarshal([]byte(out), &raw), "output: %s", out)
	if data != nil && len(raw.Data) > 0 {
		require.NoError(e.t, json.Unmarshal(raw.Data, data))
	}
	return CLIResponse{Status: raw.Status, Error: raw.Error}, err
}
