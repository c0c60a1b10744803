package logging

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Entry is one parsed JSON log record.
type Entry struct {
	Time    time.Time
	Level   string
	Msg     string
	Attrs   map[string]any
	Raw     string
	IsValid bool
}

// ViewerConfig configures filtering and rendering for the log viewer.
type ViewerConfig struct {
	// Level drops records below this level; empty keeps everything.
	Level string
	// Pattern keeps only records whose raw line matches.
	Pattern *regexp.Regexp
	NoColor bool
}

// Viewer reads countryscope log files back for humans.
type Viewer struct {
	config ViewerConfig
	out    io.Writer
	levels map[string]lipgloss.Style
}

// NewViewer creates a viewer printing to out.
func NewViewer(cfg ViewerConfig, out io.Writer) *Viewer {
	return &Viewer{
		config: cfg,
		out:    out,
		levels: map[string]lipgloss.Style{
			"DEBUG": lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
			"INFO":  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
			"WARN":  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
			"ERROR": lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		},
	}
}

// Tail returns the matching records among the last n lines of path.
func (v *Viewer) Tail(path string, n int) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Ring of the last n lines so large files stay cheap.
	ring := make([]string, 0, n)
	scanner := newLineScanner(file)
	for scanner.Scan() {
		if n <= 0 {
			continue
		}
		if len(ring) == n {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	var entries []Entry
	for _, line := range ring {
		if entry := parseLine(line); v.matches(entry) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Follow sends records appended to path after the call until ctx is done.
func (v *Viewer) Follow(ctx context.Context, path string, entries chan<- Entry) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}

	reader := bufio.NewReader(file)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var partial string
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		for {
			chunk, err := reader.ReadString('\n')
			partial += chunk
			if err != nil {
				// Incomplete line; finish it on the next tick.
				break
			}
			line := strings.TrimSuffix(partial, "\n")
			partial = ""
			if line == "" {
				continue
			}
			entry := parseLine(line)
			if !v.matches(entry) {
				continue
			}
			select {
			case entries <- entry:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// Print writes entries to the viewer's output, one per line.
func (v *Viewer) Print(entries []Entry) {
	for _, entry := range entries {
		_, _ = fmt.Fprintln(v.out, v.FormatEntry(entry))
	}
}

// FormatEntry renders "15:04:05.000 LEVEL msg k=v ..." with attributes
// in key order. Unparseable lines are returned unchanged.
func (v *Viewer) FormatEntry(entry Entry) string {
	if !entry.IsValid {
		return entry.Raw
	}

	keys := make([]string, 0, len(entry.Attrs))
	for k := range entry.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(entry.Time.Format("15:04:05.000"))
	b.WriteByte(' ')
	b.WriteString(v.formatLevel(entry.Level))
	b.WriteByte(' ')
	b.WriteString(entry.Msg)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Attrs[k])
	}
	return b.String()
}

func (v *Viewer) formatLevel(level string) string {
	label := strings.ToUpper(level)
	if len(label) > 5 {
		label = label[:5]
	}
	label = fmt.Sprintf("%-5s", label)

	style, ok := v.levels[strings.ToUpper(level)]
	if v.config.NoColor || !ok {
		return label
	}
	return style.Render(label)
}

func (v *Viewer) matches(entry Entry) bool {
	if v.config.Level != "" && entry.IsValid {
		if levelOf(entry.Level) < parseLevel(v.config.Level) {
			return false
		}
	}
	if v.config.Pattern != nil && !v.config.Pattern.MatchString(entry.Raw) {
		return false
	}
	return true
}

// levelOf maps slog's JSON level names (including offsets like "INFO+2").
func levelOf(name string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return parseLevel(name)
	}
	return l
}

func parseLine(line string) Entry {
	entry := Entry{Raw: line}

	var data map[string]any
	if err := json.Unmarshal([]byte(line), &data); err != nil {
		return entry
	}
	entry.IsValid = true

	if t, ok := data[slog.TimeKey].(string); ok {
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			entry.Time = parsed
		}
	}
	entry.Level, _ = data[slog.LevelKey].(string)
	entry.Msg, _ = data[slog.MessageKey].(string)

	delete(data, slog.TimeKey)
	delete(data, slog.LevelKey)
	delete(data, slog.MessageKey)
	entry.Attrs = data

	return entry
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	const maxCapacity = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxCapacity)
	return scanner
}
