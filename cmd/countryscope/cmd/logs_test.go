package cmd

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `{"time":"2026-10-18T09:00:00.000Z","level":"INFO","msg":"interactive_search_started","debounce":"300ms"}
{"time":"2026-10-18T09:00:01.000Z","level":"DEBUG","msg":"lookup_cached","query":"france","results":1}
{"time":"2026-10-18T09:00:02.000Z","level":"WARN","msg":"lookup_failed","query":"peru","code":"ERR_301_NETWORK_TIMEOUT"}
`

func TestLogsCmd_PrintsTail(t *testing.T) {
	// Given: a log file with three records
	isolate(t)
	path := t.TempDir() + "/app.log"
	writeFile(t, path, sampleLog)

	// When: reading it
	stdout, _, err := runRoot(t, "logs", "--file", path)

	// Then: every record is printed in readable form
	require.NoError(t, err)
	assert.Contains(t, stdout, "interactive_search_started")
	assert.Contains(t, stdout, "lookup_cached")
	assert.Contains(t, stdout, "lookup_failed")
	assert.Len(t, strings.Split(strings.TrimSpace(stdout), "\n"), 3)
}

func TestLogsCmd_LevelFilter(t *testing.T) {
	// Given: a log file with mixed levels
	isolate(t)
	path := t.TempDir() + "/app.log"
	writeFile(t, path, sampleLog)

	// When: filtering to warn and above
	stdout, _, err := runRoot(t, "logs", "--file", path, "--level", "warn")

	// Then: only the warning remains
	require.NoError(t, err)
	assert.Contains(t, stdout, "lookup_failed")
	assert.NotContains(t, stdout, "lookup_cached")
}

func TestLogsCmd_Grep(t *testing.T) {
	// Given: a log file
	isolate(t)
	path := t.TempDir() + "/app.log"
	writeFile(t, path, sampleLog)

	// When: grepping for a query
	stdout, _, err := runRoot(t, "logs", "--file", path, "--grep", `"query":"france"`)

	// Then: only the matching record is printed
	require.NoError(t, err)
	assert.Contains(t, stdout, "lookup_cached")
	assert.NotContains(t, stdout, "lookup_failed")
}

func TestLogsCmd_LinesLimit(t *testing.T) {
	// Given: a log file with three records
	isolate(t)
	path := t.TempDir() + "/app.log"
	writeFile(t, path, sampleLog)

	// When: asking for the last line only
	stdout, _, err := runRoot(t, "logs", "--file", path, "-n", "1")

	// Then: only the newest record is printed
	require.NoError(t, err)
	assert.Contains(t, stdout, "lookup_failed")
	assert.NotContains(t, stdout, "interactive_search_started")
}

func TestLogsCmd_InvalidGrep(t *testing.T) {
	// Given: a log file
	isolate(t)
	path := t.TempDir() + "/app.log"
	writeFile(t, path, sampleLog)

	// When: the pattern does not compile
	_, _, err := runRoot(t, "logs", "--file", path, "--grep", "(")

	// Then: a validation error is returned
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--grep")
}

func TestLogsCmd_MissingFile(t *testing.T) {
	// Given: no log file in the isolated home
	isolate(t)

	// When: reading the default log
	_, _, err := runRoot(t, "logs")

	// Then: the command explains where it looked
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no log file found")
}

func TestLogsCmd_Follow(t *testing.T) {
	// Given: a log file being followed
	isolate(t)
	path := t.TempDir() + "/app.log"
	writeFile(t, path, sampleLog)

	root := NewRootCmd()
	stdout := &syncBuffer{}
	root.SetOut(stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"logs", "--file", path, "-n", "0", "-f"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	// When: a record is appended
	time.Sleep(200 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"time":"2026-10-18T09:00:03.000Z","level":"INFO","msg":"appended_record"}` + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// Then: it is printed and the command exits on cancel
	assert.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "appended_record")
	}, 3*time.Second, 50*time.Millisecond)
	assert.NotContains(t, stdout.String(), "lookup_failed")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("logs -f did not stop after cancel")
	}
}
