package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Aman-CERP/countryscope/internal/country"
)

// Columns are the result table headings, shared by the TUI and plain output.
var Columns = []string{"FLAG", "NAME", "CAPITAL", "CURRENCY", "LANGUAGE", "POPULATION"}

// Row returns the display cells for one country, in Columns order.
func Row(c country.Country) []string {
	return []string{
		c.FlagText(),
		c.Name.Common,
		country.FormatCapital(c.Capital),
		country.FormatCurrencies(c.Currencies),
		country.FormatLanguages(c.Languages),
		country.FormatPopulation(c.Population),
	}
}

// PlainRenderer writes result sets as aligned text columns.
type PlainRenderer struct {
	out      io.Writer
	noHeader bool
}

// NewPlainRenderer creates a plain text renderer writing to cfg.Output.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output}
}

// WithoutHeader suppresses the column header line.
func (r *PlainRenderer) WithoutHeader() *PlainRenderer {
	r.noHeader = true
	return r
}

// Render writes one line per country. An empty set writes only the header.
func (r *PlainRenderer) Render(rs country.ResultSet) error {
	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)

	if !r.noHeader {
		if _, err := fmt.Fprintln(tw, strings.Join(Columns, "\t")); err != nil {
			return err
		}
	}
	for _, c := range rs {
		if _, err := fmt.Fprintln(tw, strings.Join(sanitize(Row(c)), "\t")); err != nil {
			return err
		}
	}

	return tw.Flush()
}

// sanitize keeps cell text on one line so tabwriter columns stay aligned.
func sanitize(cells []string) []string {
	for i, c := range cells {
		cells[i] = strings.NewReplacer("\t", " ", "\n", " ").Replace(c)
	}
	return cells
}
