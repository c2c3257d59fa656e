package ingest

import (
	"fmt"
	"time"
)

// Result tracks counts and errors from an ingestion run.
type Result struct {
	YearsScanned      int
	PlayersDiscovered int
	DuplicatesSkipped int
	UnitsProcessed    int
	UnitsSucceeded    int
	UnitsFailed       int
	YearsFailed       int
	GamesWritten      int
	HeadersAdded      int
	Duration          time.Duration
	Errors            []string
}

// AddErrorf records a formatted error message.
func (r *Result) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// addUnit folds one unit's outcome into the run totals.
func (r *Result) addUnit(u UnitReport, ok bool) {
	r.UnitsProcessed++
	if ok {
		r.UnitsSucceeded++
	} else {
		r.UnitsFailed++
	}
	r.YearsFailed += u.YearsFailed
	r.GamesWritten += u.Games
	r.HeadersAdded += u.HeadersAdded
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"years=%d discovered=%d duplicates=%d processed=%d succeeded=%d failed=%d years_failed=%d games=%d new_headers=%d errors=%d dur=%s",
		r.YearsScanned, r.PlayersDiscovered, r.DuplicatesSkipped,
		r.UnitsProcessed, r.UnitsSucceeded, r.UnitsFailed, r.YearsFailed,
		r.GamesWritten, r.HeadersAdded, len(r.Errors), r.Duration.Round(time.Second),
	)
}

// UnitReport describes one player's processing.
type UnitReport struct {
	YearsFetched int
	YearsFailed  int
	Games        int
	HeadersAdded int
	RowsSkipped  int
	Errors       []string
}
