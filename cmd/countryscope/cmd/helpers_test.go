package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// isolate points HOME and the XDG config dir at temp dirs and clears
// COUNTRYSCOPE_* overrides so commands never touch the real user files.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", home+"/.config")
	t.Setenv("NO_COLOR", "1")
	for _, name := range []string{"API_URL", "TIMEOUT", "DEBOUNCE", "CACHE_SIZE", "CACHE_TTL", "CACHE_FOLD_CASE", "LOG_LEVEL", "SERVER_ADDR"} {
		t.Setenv("COUNTRYSCOPE_"+name, "")
	}
	return home
}

// runRoot executes the root command with args and returns stdout and stderr.
func runRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

const franceJSON = `[{
	"name": {"common": "France", "official": "French Republic"},
	"flag": "🇫🇷",
	"capital": ["Paris"],
	"currencies": {"EUR": {"name": "Euro", "symbol": "€"}},
	"languages": {"fra": "French"},
	"population": 67391582,
	"region": "Europe",
	"cca2": "FR",
	"cca3": "FRA"
}]`

// fakeUpstream serves /name/france and answers 404 for anything else.
func fakeUpstream(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path == "/name/france" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(franceJSON))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":404,"message":"Not Found"}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// syncBuffer is a bytes.Buffer safe for a command goroutine and a test to share.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
