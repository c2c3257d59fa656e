package provider

// RankerStat marks the non-data row index column of a stats table.
const RankerStat = "ranker"

// Cell is one header or body cell with the attributes the core cares about.
type Cell struct {
	Text string `json:"text"`
	Span int    `json:"span,omitempty"` // colspan; values < 1 mean 1
	Tip  string `json:"tip,omitempty"`  // tooltip text
	Stat string `json:"stat,omitempty"` // stable stat identifier
}

// ColSpan returns the effective column span.
func (c Cell) ColSpan() int {
	if c.Span < 1 {
		return 1
	}
	return c.Span
}

// IsRanker reports whether the cell belongs to the row index column.
func (c Cell) IsRanker() bool {
	return c.Stat == RankerStat
}

// TableDocument is a markup-independent view of one stats table: the header
// rows (category rows followed by a single column row) and the body rows.
type TableDocument struct {
	URL    string   `json:"url,omitempty"`
	Header [][]Cell `json:"header"`
	Body   [][]Cell `json:"body"`
}

// CategoryRows returns every header row except the last.
func (d *TableDocument) CategoryRows() [][]Cell {
	if len(d.Header) < 2 {
		return nil
	}
	return d.Header[:len(d.Header)-1]
}

// ColumnRow returns the last header row, or nil if there is none.
func (d *TableDocument) ColumnRow() []Cell {
	if len(d.Header) == 0 {
		return nil
	}
	return d.Header[len(d.Header)-1]
}
