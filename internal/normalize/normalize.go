// Package normalize turns a fetched stats table into canonical GameRecords.
//
// Header cells are resolved through the schema registry (unknown headers
// extend it), body rows are filtered to real game rows, values are coerced to
// numbers where possible, and every record is completed with all canonical
// names the registry knows so records from different tables share one shape.
package normalize

import (
	"log/slog"
	"strconv"

	"github.com/albapepper/scoracle-gamelogs/internal/provider"
	"github.com/albapepper/scoracle-gamelogs/internal/schema"
	"github.com/albapepper/scoracle-gamelogs/internal/scoring"
)

// Fields names the canonical stats that populate GameRecord's fixed fields.
type Fields struct {
	Week       string
	Date       string
	Team       []string // first non-empty string wins
	Opponent   string
	Location   string
	AwayMarker string
}

// DefaultFields matches pro-football-reference game log headers.
func DefaultFields() Fields {
	return Fields{
		Week:       "Week",
		Date:       "Date",
		Team:       []string{"Tm", "Team"},
		Opponent:   "Opp",
		Location:   "game_location",
		AwayMarker: "@",
	}
}

// Report describes what one Normalize call did besides producing records.
type Report struct {
	NewHeaders  []schema.Entry
	RowsSkipped int
}

// Normalizer is safe for concurrent use; all shared state lives in the
// registry.
type Normalizer struct {
	registry *schema.Registry
	scorer   scoring.Engine
	fields   Fields
	logger   *slog.Logger
}

// New creates a normalizer.
func New(registry *schema.Registry, scorer scoring.Engine, fields Fields, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		registry: registry,
		scorer:   scorer,
		fields:   fields,
		logger:   logger,
	}
}

// Columns resolves the document's data columns to canonical names, extending
// the registry for headers it has not seen.
func (n *Normalizer) Columns(doc *provider.TableDocument) ([]string, []schema.Entry) {
	aligned := schema.AlignHeaders(doc)
	cols := make([]string, 0, len(aligned))
	var added []schema.Entry
	for _, h := range aligned {
		if e, ok := n.registry.Resolve(h.Key); ok {
			cols = append(cols, e.Name)
			continue
		}
		name, isNew, err := n.registry.Extend(h)
		if err != nil {
			n.logger.Error("Failed to persist new header", "category", h.Category, "column", h.Column, "error", err)
		}
		if isNew {
			n.logger.Warn("New header found",
				"category", h.Category, "column", h.Column, "fallback", name, "url", doc.URL)
			added = append(added, schema.Entry{Key: h.Key, Name: name, Tip: h.Tip})
		}
		cols = append(cols, name)
	}
	return cols, added
}

// Normalize converts every game row of doc into a scored GameRecord.
func (n *Normalizer) Normalize(doc *provider.TableDocument) ([]provider.GameRecord, Report) {
	var report Report
	cols, added := n.Columns(doc)
	report.NewHeaders = added

	// Snapshot after resolution so this table's own extensions are included.
	known := n.registry.Names()

	var games []provider.GameRecord
	for _, row := range doc.Body {
		stats, ok := rowStats(row, cols)
		if !ok {
			report.RowsSkipped++
			continue
		}
		for _, name := range known {
			if _, present := stats[name]; !present {
				stats[name] = 0
			}
		}
		game, ok := n.assemble(stats)
		if !ok {
			report.RowsSkipped++
			continue
		}
		games = append(games, game)
	}
	return games, report
}

// rowStats maps body cells onto cols. The first cell is the row index and
// must be a non-negative integer; it is not emitted. Cells past the end of
// cols are dropped.
func rowStats(row []provider.Cell, cols []string) (map[string]interface{}, bool) {
	if len(row) == 0 || !provider.IsDigits(row[0].Text) {
		return nil, false
	}
	stats := make(map[string]interface{}, len(cols))
	for i, c := range row[1:] {
		if i >= len(cols) {
			break
		}
		stats[cols[i]] = provider.CoerceCell(c.Text)
	}
	return stats, true
}

func (n *Normalizer) assemble(stats map[string]interface{}) (provider.GameRecord, bool) {
	week, ok := positiveInt(stats[n.fields.Week])
	if !ok {
		return provider.GameRecord{}, false
	}

	team := ""
	for _, key := range n.fields.Team {
		if s := stringField(stats, key); s != "" {
			team = s
			break
		}
	}

	loc, _ := stats[n.fields.Location].(string)

	return provider.GameRecord{
		Week:     week,
		Date:     stringField(stats, n.fields.Date),
		Team:     team,
		Opponent: stringField(stats, n.fields.Opponent),
		Home:     loc != n.fields.AwayMarker,
		Stats:    stats,
		Fantasy:  n.scorer.Score(stats),
	}, true
}

// positiveInt accepts an int > 0 or an all-digit string > 0.
func positiveInt(v interface{}) (int, bool) {
	switch w := v.(type) {
	case int:
		return w, w > 0
	case string:
		if !provider.IsDigits(w) {
			return 0, false
		}
		n, err := strconv.Atoi(w)
		return n, err == nil && n > 0
	default:
		return 0, false
	}
}

func stringField(stats map[string]interface{}, key string) string {
	s, _ := stats[key].(string)
	return s
}
