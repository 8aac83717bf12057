package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldsync/internal/testutil"
)

// cliEnv runs commands against one temp-dir database with a fixed clock.
type cliEnv struct {
	t          *testing.T
	dir        string
	db         string
	config     string
	clock      *testutil.FixedClock
	httpClient *http.Client
}

const testConfig = `phone_region: US
created_by_id: rep-7
log_level: warn
`

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	env := &cliEnv{
		t:      t,
		dir:    dir,
		db:     filepath.Join(dir, "field.db"),
		config: filepath.Join(dir, "fieldsync.yaml"),
		clock:  testutil.NewFixedClockAt("2025-01-01 08:00:00"),
	}
	env.writeConfig(testConfig)
	return env
}

func (e *cliEnv) writeConfig(content string) {
	e.t.Helper()
	require.NoError(e.t, os.WriteFile(e.config, []byte(content), 0644))
}

func (e *cliEnv) writeFile(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// run executes the root command with the env's database and config and
// returns stdout.
func (e *cliEnv) run(args ...string) (string, error) {
	e.t.Helper()
	opts := &RootOptions{Clock: e.clock, HTTPClient: e.httpClient}
	cmd := newRootCommand(opts)

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--db", e.db, "--config", e.config}, args...))

	err := cmd.Execute()
	return out.String(), err
}

// runJSON runs a command with --format json, requires success and decodes
// the response data into v.
func (e *cliEnv) runJSON(v interface{}, args ...string) {
	e.t.Helper()
	out, err := e.run(append([]string{"--format", "json"}, args...)...)
	require.NoError(e.t, err, out)

	resp := decodeResponse(e.t, out)
	require.Equal(e.t, "ok", resp.Status, out)
	if v != nil {
		require.NoError(e.t, json.Unmarshal(resp.Data, v))
	}
}

// runJSONError runs a command with --format json, requires failure and
// returns the error envelope and the exit code.
func (e *cliEnv) runJSONError(args ...string) (*CLIError, int) {
	e.t.Helper()
	out, err := e.run(append([]string{"--format", "json"}, args...)...)
	require.Error(e.t, err)

	resp := decodeResponse(e.t, out)
	require.Equal(e.t, "error", resp.Status, out)
	require.NotNil(e.t, resp.Error)
	return resp.Error, GetExitCode(err)
}

type rawResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

func decodeResponse(t *testing.T, out string) rawResponse {
	t.Helper()
	var resp rawResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

// decodeInto decodes the data of an ok envelope into v.
func decodeInto(t *testing.T, out string, v interface{}) {
	t.Helper()
	resp := decodeResponse(t, out)
	require.Equal(t, "ok", resp.Status, out)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}
