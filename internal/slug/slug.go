// Package slug computes locale-aware ASCII label ids from event names.
//
// The algorithm mirrors the historical source's slugify_for_label: NFKC
// normalize, lowercase using the locale implied by the event's country,
// transliterate to ASCII, replace digit runs with lowercase Roman
// numerals, strip everything outside [a-z -], then join words with
// hyphens.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	numbersRE      = regexp.MustCompile(`\d+`)
	disallowedCharsRE = regexp.MustCompile(`[^a-z -]`)
)

// ForCountry resolves the collation locale to use for a given ISO-3166
// alpha-2 country code. An empty or unrecognized code falls back to the
// "und" (undetermined) locale, per SPEC_FULL.md §9(c) — stable but lossy
// for some scripts.
func ForCountry(country string) language.Tag {
	if country == "" {
		return language.Und
	}
	region, err := language.ParseRegion(country)
	if err != nil {
		return language.Und
	}
	tag, err := language.Compose(region)
	if err != nil {
		return language.Und
	}
	return tag
}

// ForLabel computes the label_id slug of name under the collation locale
// tag. This is the only slug function the write path should call; see
// SPEC_FULL.md §9(a) on legacy label ids.
func ForLabel(name string, tag language.Tag) string {
	lowered := cases.Lower(tag).String(norm.NFKC.String(name))
	translit := transliterate(lowered)
	translit = numbersRE.ReplaceAllStringFunc(translit, func(m string) string {
		n := uint32(0)
		for _, r := range m {
			n = n*10 + uint32(r-'0')
		}
		return " " + strings.ToLower(toRoman(n)) + " "
	})
	stripped := disallowedCharsRE.ReplaceAllString(translit, "")
	return strings.Join(strings.Fields(stripped), "-")
}

// transliterate approximates deunicode's behavior for the scripts this
// service actually encounters (Latin-derived names with European
// diacritics, plus a handful of common symbols): decompose to NFD,
// substitute known non-decomposing Latin Extended-A/symbol characters
// via a small table, then drop all combining marks and anything left
// outside ASCII.
func transliterate(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if repl, ok := translitTable[r]; ok {
			b.WriteString(repl)
			continue
		}
		if unicode.Is(unicode.Mn, r) {
			// Combining mark stripped by decomposition (e.g. the
			// acute accent split off of "á" by NFD).
			continue
		}
		if r > unicode.MaxASCII {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// translitTable covers characters with no ASCII-producing Unicode
// decomposition, plus a few symbols the historical source's label ids
// are known to spell out as words (see SPEC_FULL.md S1: "Tails &
// Tornadoes" -> "tails-and-tornadoes").
// Lowercase-only: ForLabel applies locale-aware lowercasing before this
// table is consulted, so uppercase variants never reach it.
var translitTable = map[rune]string{
	'&': " and ",
	'@': " at ",
	'ł': "l",
	'đ': "d",
	'ø': "o",
	'ß': "ss",
	'þ': "th",
	'æ': "ae",
	'œ': "oe",
	'ð': "d",
}
