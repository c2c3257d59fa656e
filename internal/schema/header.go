// Package schema maps raw (category, column) table headers onto stable
// canonical stat names.
//
// Column labels repeat across categories ("Yds" under Passing, Rushing and
// Receiving), so the first occurrence of a label keeps the bare label and
// every later occurrence is prefixed with the lowercased first two letters of
// its category ("ruYds"). The rule is encounter-order dependent: whichever
// category appears first in a table owns the bare name.
package schema

import (
	"strings"

	"github.com/albapepper/scoracle-gamelogs/internal/provider"
)

// Key is the raw identity of a header cell.
type Key struct {
	Category string
	Column   string
}

// Header is a key plus the tooltip carried by its column cell.
type Header struct {
	Key
	Tip string
}

// Entry is a canonical stat assignment.
type Entry struct {
	Key
	Name string
	Tip  string
}

// Flatten expands category cells by their column span into a per-column
// category list. Rows are concatenated left to right, top to bottom.
func Flatten(rows [][]provider.Cell) []string {
	var out []string
	for _, row := range rows {
		for _, c := range row {
			for i := 0; i < c.ColSpan(); i++ {
				out = append(out, c.Text)
			}
		}
	}
	return out
}

// categoryAt returns cats[i], or "" past the end of the list.
func categoryAt(cats []string, i int) string {
	if i < len(cats) {
		return cats[i]
	}
	return ""
}

// HeadersFromDocument extracts the seeding header structure: the first
// header row supplies categories and the second supplies columns. Documents
// with fewer than two header rows yield nothing.
func HeadersFromDocument(doc *provider.TableDocument) []Header {
	if doc == nil || len(doc.Header) < 2 {
		return nil
	}
	cats := Flatten(doc.Header[:1])
	bottom := doc.Header[1]
	out := make([]Header, 0, len(bottom))
	for i, c := range bottom {
		out = append(out, Header{
			Key: Key{Category: categoryAt(cats, i), Column: c.Text},
			Tip: strings.TrimSpace(c.Tip),
		})
	}
	return out
}

// AlignHeaders pairs the document's column row with its flattened category
// rows, dropping the rank column. Categories are indexed by the column's
// original position, so the rank column still consumes a category slot.
func AlignHeaders(doc *provider.TableDocument) []Header {
	if doc == nil {
		return nil
	}
	cats := Flatten(doc.CategoryRows())
	cols := doc.ColumnRow()
	out := make([]Header, 0, len(cols))
	for i, c := range cols {
		if c.IsRanker() {
			continue
		}
		out = append(out, Header{
			Key: Key{Category: categoryAt(cats, i), Column: c.Text},
			Tip: strings.TrimSpace(c.Tip),
		})
	}
	return out
}

// Disambiguate assigns canonical names to headers in encounter order.
//
// The first time a column label is seen it keeps the bare label; every later
// occurrence gets the category prefix. A key that repeats is treated as a
// later occurrence and overwrites its earlier assignment in place, so the
// returned slice holds one entry per distinct key, ordered by first sighting.
func Disambiguate(headers []Header) []Entry {
	seen := make(map[string]bool)
	index := make(map[Key]int)
	var out []Entry
	for _, h := range headers {
		name := h.Column
		if seen[h.Column] {
			name = prefix(h.Category) + h.Column
		} else {
			seen[h.Column] = true
		}
		e := Entry{Key: h.Key, Name: name, Tip: h.Tip}
		if i, ok := index[h.Key]; ok {
			out[i] = e
			continue
		}
		index[h.Key] = len(out)
		out = append(out, e)
	}
	return out
}

// prefix returns the lowercased first two characters of a category.
func prefix(category string) string {
	r := []rune(category)
	if len(r) > 2 {
		r = r[:2]
	}
	return strings.ToLower(string(r))
}

// FallbackName synthesizes the canonical name for a header the registry has
// never seen: category and column joined by "_" with outer underscores
// trimmed, so an empty category yields the bare column.
func FallbackName(k Key) string {
	return strings.Trim(k.Category+"_"+k.Column, "_")
}
