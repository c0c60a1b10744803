package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/countryscope/internal/country"
	"github.com/Aman-CERP/countryscope/internal/search"
)

// Searcher is the part of search.Controller the TUI drives.
type Searcher interface {
	SetQuery(text string)
	Flush()
	Results() <-chan search.Result
}

// Message types for bubbletea
type resultMsg search.Result
type resultsClosedMsg struct{}

// waitForResult blocks on the next settled result.
func waitForResult(ch <-chan search.Result) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-ch
		if !ok {
			return resultsClosedMsg{}
		}
		return resultMsg(r)
	}
}

// searchModel is the bubbletea model for the interactive search screen.
type searchModel struct {
	searcher Searcher
	input    textinput.Model
	table    table.Model
	spinner  spinner.Model
	styles   Styles

	// shown is the result currently in the table.
	shown  search.Result
	closed bool

	width    int
	height   int
	quitting bool
}

// columnWidths for flag, name, capital, currency, language, population.
var columnWidths = []int{6, 26, 18, 28, 26, 14}

func newSearchModel(s Searcher, styles Styles, initial string) *searchModel {
	in := textinput.New()
	in.Placeholder = "Search for a country"
	in.Prompt = "› "
	in.PromptStyle = styles.Prompt
	in.CharLimit = 100
	in.Width = 40
	in.Focus()

	t := table.New(
		table.WithColumns(buildColumns(columnWidths)),
		table.WithHeight(15),
	)
	t.SetStyles(styles.tableStyles())

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Prompt

	m := &searchModel{
		searcher: s,
		input:    in,
		table:    t,
		spinner:  sp,
		styles:   styles,
		width:    120,
		height:   24,
	}
	m.resize()

	if initial != "" {
		m.input.SetValue(initial)
		m.input.CursorEnd()
		s.SetQuery(initial)
	}

	return m
}

func buildColumns(widths []int) []table.Column {
	cols := make([]table.Column, len(Columns))
	for i, title := range Columns {
		cols[i] = table.Column{Title: title, Width: widths[i]}
	}
	return cols
}

// Init implements tea.Model.
func (m *searchModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		waitForResult(m.searcher.Results()),
	)
}

// Update implements tea.Model.
func (m *searchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			m.searcher.Flush()
			return m, nil
		case "up":
			m.table.MoveUp(1)
			return m, nil
		case "down":
			m.table.MoveDown(1)
			return m, nil
		case "pgup":
			m.table.MoveUp(m.table.Height())
			return m, nil
		case "pgdown":
			m.table.MoveDown(m.table.Height())
			return m, nil
		}

		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if after := m.input.Value(); after != before {
			m.searcher.SetQuery(after)
		}
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case resultMsg:
		m.shown = search.Result(msg)
		m.table.SetRows(rowsFor(m.shown.Countries))
		m.table.GotoTop()
		return m, waitForResult(m.searcher.Results())

	case resultsClosedMsg:
		m.closed = true
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// resize fits the table to the terminal, giving spare width to the text
// columns.
func (m *searchModel) resize() {
	widths := append([]int(nil), columnWidths...)
	total := 0
	for _, w := range widths {
		total += w + 2 // cell padding
	}
	if spare := m.width - total - 4; spare > 0 {
		widths[1] += spare / 4
		widths[3] += spare / 4
		widths[4] += spare / 4
	}
	m.table.SetColumns(buildColumns(widths))
	m.table.SetWidth(m.width - 4)

	// title, input, status, blank, help and the table header
	h := m.height - 8
	if h < 3 {
		h = 3
	}
	m.table.SetHeight(h)
	m.input.Width = max(20, m.width/2)
}

// pending reports whether the box holds a query whose result has not
// arrived yet.
func (m *searchModel) pending() bool {
	q := strings.TrimSpace(m.input.Value())
	return q != "" && q != m.shown.Query && !m.closed
}

// View implements tea.Model.
func (m *searchModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("countryscope"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render("enter search now • ↑/↓ scroll • esc quit"))

	return lipgloss.NewStyle().MaxWidth(m.width).Render(b.String())
}

func (m *searchModel) statusLine() string {
	q := strings.TrimSpace(m.input.Value())
	switch {
	case m.closed:
		return m.styles.Warning.Render("search stopped")
	case q == "":
		return m.styles.Status.Render("Type a country name to search")
	case m.pending():
		return m.spinner.View() + m.styles.Status.Render(fmt.Sprintf(" Searching %q…", q))
	case len(m.shown.Countries) == 0:
		return m.styles.Status.Render(fmt.Sprintf("No countries match %q", q))
	default:
		noun := "countries"
		if len(m.shown.Countries) == 1 {
			noun = "country"
		}
		return m.styles.Status.Render(fmt.Sprintf("%d %s match ", len(m.shown.Countries), noun)) +
			m.styles.Accent.Render(q)
	}
}

func rowsFor(rs country.ResultSet) []table.Row {
	rows := make([]table.Row, 0, len(rs))
	for _, c := range rs {
		rows = append(rows, table.Row(Row(c)))
	}
	return rows
}

// RunSearch runs the interactive search screen until the user quits or ctx
// is cancelled. The caller owns s and stops it afterwards.
func RunSearch(ctx context.Context, s Searcher, cfg Config) error {
	if !cfg.Interactive() {
		return errors.New("interactive search needs a terminal")
	}

	model := newSearchModel(s, GetStyles(cfg.NoColor), cfg.InitialQuery)

	opts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithOutput(cfg.Output),
		tea.WithAltScreen(),
	}
	if cfg.Input != nil {
		opts = append(opts, tea.WithInput(cfg.Input))
	}

	_, err := tea.NewProgram(model, opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
