package logging

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestDefaultLogPath(t *testing.T) {
	path := DefaultLogPath()

	if filepath.Base(path) != "countryscope.log" {
		t.Errorf("DefaultLogPath should end with countryscope.log, got: %s", path)
	}
	if !strings.Contains(path, filepath.Join(".countryscope", "logs")) {
		t.Errorf("DefaultLogPath should live under .countryscope/logs, got: %s", path)
	}
	if filepath.Dir(path) != DefaultLogDir() {
		t.Errorf("DefaultLogPath should be inside DefaultLogDir")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("expected level 'info', got: %s", cfg.Level)
	}
	if cfg.MaxSizeMB != 10 || cfg.MaxFiles != 5 {
		t.Errorf("expected 10MB x 5 files, got: %dMB x %d", cfg.MaxSizeMB, cfg.MaxFiles)
	}
	if cfg.WriteToStderr {
		t.Error("default config must not write to stderr")
	}
}

func TestSetup_WritesJSONAtLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "test.log")

	logger, cleanup, err := Setup(Config{Level: "warn", FilePath: logPath, MaxSizeMB: 1, MaxFiles: 3})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	logger.Info("dropped_event")
	logger.Warn("lookup_failed", slog.String("query", "atlantis"))
	cleanup()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file was not created: %v", err)
	}
	if strings.Contains(string(content), "dropped_event") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(string(content), `"query":"atlantis"`) {
		t.Errorf("warn record missing, got: %s", content)
	}
}

func TestInstall_SetsDefaultLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logPath := filepath.Join(t.TempDir(), "default.log")
	cleanup, err := Install(Config{Level: "debug", FilePath: logPath})
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	slog.Info("via_default")
	cleanup()

	content, _ := os.ReadFile(logPath)
	if !strings.Contains(string(content), "via_default") {
		t.Errorf("default logger should write to the file, got: %s", content)
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := LevelFromString(tt.input); got != tt.expected {
			t.Errorf("LevelFromString(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestFindLogFile(t *testing.T) {
	if _, err := FindLogFile(filepath.Join(t.TempDir(), "missing.log")); err == nil {
		t.Error("expected error for missing explicit path")
	}

	path := filepath.Join(t.TempDir(), "present.log")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := FindLogFile(path)
	if err != nil || got != path {
		t.Errorf("FindLogFile(%q) = %q, %v", path, got, err)
	}
}

// ============================================================================
// Viewer
// ============================================================================

const sampleLog = `{"time":"2026-03-01T10:00:00.000Z","level":"DEBUG","msg":"cache_hit","query":"peru"}
{"time":"2026-03-01T10:00:01.000Z","level":"INFO","msg":"server_started","addr":":8000"}
not json at all
{"time":"2026-03-01T10:00:02.000Z","level":"WARN","msg":"lookup_failed","query":"atlantis","error_code":"ERR_304_NOT_FOUND"}
{"time":"2026-03-01T10:00:03.000Z","level":"ERROR","msg":"upstream_down","error_code":"ERR_302_NETWORK_UNAVAILABLE"}
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "countryscope.log")
	if err := os.WriteFile(path, []byte(sampleLog), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestViewer_Tail_LastN(t *testing.T) {
	v := NewViewer(ViewerConfig{NoColor: true}, &bytes.Buffer{})

	entries, err := v.Tail(writeSample(t), 2)
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Msg != "lookup_failed" || entries[1].Msg != "upstream_down" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestViewer_Tail_LevelFilter(t *testing.T) {
	v := NewViewer(ViewerConfig{Level: "warn", NoColor: true}, &bytes.Buffer{})

	entries, err := v.Tail(writeSample(t), 100)
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}

	// Unparseable lines are kept; level only filters structured records.
	var msgs []string
	for _, e := range entries {
		if e.IsValid {
			msgs = append(msgs, e.Msg)
		}
	}
	if strings.Join(msgs, ",") != "lookup_failed,upstream_down" {
		t.Errorf("unexpected filtered messages: %v", msgs)
	}
}

func TestViewer_Tail_PatternFilter(t *testing.T) {
	v := NewViewer(ViewerConfig{Pattern: regexp.MustCompile(`atlantis`), NoColor: true}, &bytes.Buffer{})

	entries, err := v.Tail(writeSample(t), 100)
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}

	if len(entries) != 1 || entries[0].Attrs["query"] != "atlantis" {
		t.Errorf("expected only the atlantis record, got %+v", entries)
	}
}

func TestViewer_Tail_MissingFile(t *testing.T) {
	v := NewViewer(ViewerConfig{}, &bytes.Buffer{})
	if _, err := v.Tail(filepath.Join(t.TempDir(), "none.log"), 10); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestViewer_FormatEntry(t *testing.T) {
	v := NewViewer(ViewerConfig{NoColor: true}, &bytes.Buffer{})

	entry := parseLine(`{"time":"2026-03-01T10:00:02.5Z","level":"WARN","msg":"lookup_failed","query":"atlantis","error_code":"ERR_304_NOT_FOUND"}`)
	got := v.FormatEntry(entry)

	want := "10:00:02.500 WARN  lookup_failed error_code=ERR_304_NOT_FOUND query=atlantis"
	if got != want {
		t.Errorf("FormatEntry =\n%q\nwant\n%q", got, want)
	}

	raw := parseLine("plain text")
	if v.FormatEntry(raw) != "plain text" {
		t.Error("invalid entries should render raw")
	}
}

func TestViewer_Print(t *testing.T) {
	var buf bytes.Buffer
	v := NewViewer(ViewerConfig{NoColor: true}, &buf)

	entries, err := v.Tail(writeSample(t), 100)
	if err != nil {
		t.Fatal(err)
	}
	v.Print(entries)

	if got := strings.Count(buf.String(), "\n"); got != 5 {
		t.Errorf("expected 5 printed lines, got %d", got)
	}
}

func TestViewer_Follow_SeesAppendedRecords(t *testing.T) {
	path := writeSample(t)
	v := NewViewer(ViewerConfig{Level: "info"}, &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	entries := make(chan Entry, 4)
	done := make(chan error, 1)
	go func() { done <- v.Follow(ctx, path, entries) }()

	// Give Follow time to seek to the end before appending.
	time.Sleep(150 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.WriteString(`{"time":"2026-03-01T10:00:04Z","level":"DEBUG","msg":"skipped"}` + "\n")
	_, _ = f.WriteString(`{"time":"2026-03-01T10:00:05Z","level":"INFO","msg":"appended"}` + "\n")
	_ = f.Close()

	select {
	case e := <-entries:
		if e.Msg != "appended" {
			t.Errorf("expected appended record, got %q", e.Msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("follow did not deliver appended record")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Follow returned %v", err)
	}
}

// ============================================================================
// Writer Rotation Tests
// ============================================================================

func TestRotatingWriter_Rotation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "rotate.log")

	// 0 MB rotates before every write to a non-empty file.
	w, err := NewRotatingWriter(logPath, 0, 3)
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}
	defer w.Close()

	for _, line := range []string{"first\n", "second\n", "third\n"} {
		if _, err := w.Write([]byte(line)); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	assertContent(t, logPath, "third\n")
	assertContent(t, logPath+".1", "second\n")
	assertContent(t, logPath+".2", "first\n")
}

func TestRotatingWriter_MaxFilesLimit(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "maxfiles.log")

	w, err := NewRotatingWriter(logPath, 0, 2)
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}
	defer w.Close()

	for i := 0; i < 6; i++ {
		_, _ = w.Write([]byte(fmt.Sprintf("line %d\n", i)))
	}

	if _, err := os.Stat(logPath + ".3"); !os.IsNotExist(err) {
		t.Error("rotated file .3 should not exist (beyond maxFiles)")
	}
	assertContent(t, logPath+".2", "line 3\n")
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	w, err := NewRotatingWriter(filepath.Join(t.TempDir(), "closed.log"), 1, 3)
	if err != nil {
		t.Fatal(err)
	}

	if err := w.Close(); err != nil {
		t.Errorf("close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}
	if _, err := w.Write([]byte("late\n")); err == nil {
		t.Error("write after close should fail")
	}
}

func TestRotatingWriter_ConcurrentWrites(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "concurrent.log")

	w, err := NewRotatingWriter(logPath, 10, 3)
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}
	defer w.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = w.Write([]byte(fmt.Sprintf(`{"id":%d,"iter":%d}`+"\n", id, j)))
			}
		}(i)
	}
	wg.Wait()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file should exist: %v", err)
	}
	if got := strings.Count(string(content), "\n"); got != 500 {
		t.Errorf("expected 500 lines, got %d", got)
	}
}

func assertContent(t *testing.T, path, want string) {
	t.Helper()
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if string(got) != want {
		t.Errorf("%s = %q, want %q", filepath.Base(path), got, want)
	}
}
