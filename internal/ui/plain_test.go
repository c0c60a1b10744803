package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/countryscope/internal/country"
)

func TestPlainRenderer_AlignsColumns(t *testing.T) {
	// Given: a plain renderer and two countries
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))
	peru := country.Country{
		Name:       country.Name{Common: "Peru"},
		Flags:      country.Flags{PNG: "https://flagcdn.com/w320/pe.png"},
		Capital:    []string{"Lima"},
		Currencies: map[string]country.Currency{"PEN": {Name: "Peruvian sol", Symbol: "S/ "}},
		Languages:  map[string]string{"aym": "Aymara", "que": "Quechua", "spa": "Spanish"},
		Population: 32971846,
	}

	// When: rendering
	require.NoError(t, r.Render(country.ResultSet{france, peru}))

	// Then: a header and one line per country, all without ANSI codes
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "FLAG"))
	assert.Contains(t, lines[1], "France")
	assert.Contains(t, lines[2], "Aymara, Quechua, Spanish")
	assert.Contains(t, lines[2], "https://flagcdn.com/w320/pe.png")
	assert.NotContains(t, buf.String(), "\x1b[")

	// Column alignment: NAME starts at the same offset on every line
	nameCol := strings.Index(lines[0], "NAME")
	assert.Equal(t, nameCol, strings.Index(lines[2], "Peru"))
}

func TestPlainRenderer_EmptySetWritesHeaderOnly(t *testing.T) {
	buf := &bytes.Buffer{}

	require.NoError(t, NewPlainRenderer(NewConfig(buf)).Render(country.Empty()))

	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestPlainRenderer_WithoutHeader(t *testing.T) {
	buf := &bytes.Buffer{}

	require.NoError(t, NewPlainRenderer(NewConfig(buf)).WithoutHeader().Render(country.ResultSet{france}))

	assert.NotContains(t, buf.String(), "POPULATION")
	assert.Contains(t, buf.String(), "France")
}

func TestRow_Order(t *testing.T) {
	row := Row(france)

	assert.Equal(t, []string{"🇫🇷", "France", "Paris", "Euro (€)", "French", "67,391,582"}, row)
}

func TestSanitize_FlattensControlWhitespace(t *testing.T) {
	assert.Equal(t, []string{"a b", "c d"}, sanitize([]string{"a\tb", "c\nd"}))
}
