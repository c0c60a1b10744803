// Package country defines the country records returned by the lookup API
// and the pure helpers that turn them into display strings.
package country

import (
	"maps"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
)

// Country is one element of the upstream /v3.1/name response.
// Only the fields the display surfaces read are decoded.
type Country struct {
	Name       Name                `json:"name"`
	Flag       string              `json:"flag,omitempty"`
	Flags      Flags               `json:"flags"`
	Capital    []string            `json:"capital,omitempty"`
	Currencies map[string]Currency `json:"currencies,omitempty"`
	Languages  map[string]string   `json:"languages,omitempty"`
	Population int64               `json:"population"`
	Region     string              `json:"region,omitempty"`
	CCA2       string              `json:"cca2,omitempty"`
	CCA3       string              `json:"cca3,omitempty"`
}

// Name holds the common and official country names.
type Name struct {
	Common   string `json:"common"`
	Official string `json:"official,omitempty"`
}

// Flags holds references to the flag images.
type Flags struct {
	PNG string `json:"png,omitempty"`
	SVG string `json:"svg,omitempty"`
	Alt string `json:"alt,omitempty"`
}

// Currency is a single entry of the currencies map, keyed by ISO code.
type Currency struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol,omitempty"`
}

// ResultSet is an ordered list of countries, possibly empty.
type ResultSet []Country

// Empty returns a non-nil empty result set so it encodes as [] rather than null.
func Empty() ResultSet {
	return ResultSet{}
}

// FlagText returns the flag emoji, falling back to the PNG reference.
func (c Country) FlagText() string {
	if c.Flag != "" {
		return c.Flag
	}
	return c.Flags.PNG
}

// FormatCurrencies renders currencies as "Name (Symbol)" joined by ", ",
// ordered by currency code.
func FormatCurrencies(currencies map[string]Currency) string {
	parts := make([]string, 0, len(currencies))
	for _, code := range slices.Sorted(maps.Keys(currencies)) {
		cur := currencies[code]
		parts = append(parts, cur.Name+" ("+cur.Symbol+")")
	}
	return strings.Join(parts, ", ")
}

// FormatLanguages renders language names joined by ", ", ordered by
// language code.
func FormatLanguages(languages map[string]string) string {
	parts := make([]string, 0, len(languages))
	for _, code := range slices.Sorted(maps.Keys(languages)) {
		parts = append(parts, languages[code])
	}
	return strings.Join(parts, ", ")
}

// FormatCapital joins the capital list; some countries list several.
func FormatCapital(capital []string) string {
	return strings.Join(capital, ", ")
}

// FormatPopulation renders a population with thousands separators.
func FormatPopulation(population int64) string {
	return humanize.Comma(population)
}
