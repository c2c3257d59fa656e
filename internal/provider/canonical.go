// Package provider defines canonical data types that all providers normalize
// into. These structs are the contract between the fetch/parse collaborator,
// the normalizer and the persistence layer: providers output TableDocuments,
// the normalizer turns them into GameRecords, stores write PlayerRecords.
//
// Adding a new source site means implementing DocumentFetcher and
// PlayerDirectory. The schema registry and normalizer never change.
package provider

import (
	"context"
	"sort"
	"strconv"
)

// PlayerRef identifies one unit of work discovered from a season ranking.
type PlayerRef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ProfileURL string `json:"profile_url"`
	Position   string `json:"position,omitempty"`
}

// Fantasy is the derived score triple attached to every game.
type Fantasy struct {
	Standard float64 `json:"standard"`
	HalfPPR  float64 `json:"half_ppr"`
	PPR      float64 `json:"ppr"`
}

// GameRecord is one game's normalized stats for one player.
// Stats maps canonical name → int, float64 or string.
type GameRecord struct {
	Week     int                    `json:"week"`
	Date     string                 `json:"date"`
	Team     string                 `json:"team"`
	Opponent string                 `json:"opponent"`
	Home     bool                   `json:"home"`
	Stats    map[string]interface{} `json:"stats"`
	Fantasy  Fantasy                `json:"fantasy"`
}

// YearLog holds a player's games for one season, ordered by week.
type YearLog struct {
	Games []GameRecord `json:"games"`
}

// PlayerRecord is the per-player artifact. Years is keyed by the decimal
// season string ("2019") so the JSON shape matches the published format.
type PlayerRecord struct {
	ID    string             `json:"id"`
	Name  string             `json:"name"`
	Years map[string]YearLog `json:"years"`
}

// NewPlayerRecord returns an empty record for ref.
func NewPlayerRecord(ref PlayerRef) *PlayerRecord {
	return &PlayerRecord{
		ID:    ref.ID,
		Name:  ref.Name,
		Years: make(map[string]YearLog),
	}
}

// SetYear stores games for a season, sorting them by week.
func (p *PlayerRecord) SetYear(year int, games []GameRecord) {
	if games == nil {
		games = []GameRecord{}
	}
	sort.SliceStable(games, func(i, j int) bool { return games[i].Week < games[j].Week })
	p.Years[strconv.Itoa(year)] = YearLog{Games: games}
}

// GameCount returns the number of games across all years.
func (p *PlayerRecord) GameCount() int {
	n := 0
	for _, y := range p.Years {
		n += len(y.Games)
	}
	return n
}

// YearRange is an inclusive season range. The zero value is unbounded.
type YearRange struct {
	Start int
	End   int
}

// Contains reports whether year falls within the range.
func (r YearRange) Contains(year int) bool {
	if r.Start == 0 && r.End == 0 {
		return true
	}
	return year >= r.Start && year <= r.End
}

// Years lists every year in the range in ascending order. Unbounded and
// inverted ranges yield nil.
func (r YearRange) Years() []int {
	if r.Start == 0 && r.End == 0 || r.Start > r.End {
		return nil
	}
	out := make([]int, 0, r.End-r.Start+1)
	for y := r.Start; y <= r.End; y++ {
		out = append(out, y)
	}
	return out
}

// --------------------------------------------------------------------------
// Collaborator interfaces
// --------------------------------------------------------------------------

// DocumentFetcher retrieves one stats table. Implementations fail with a
// *FetchError on transport/status failure and a *ParseError when the page
// has no usable table.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, url string) (*TableDocument, error)
}

// PlayerDirectory discovers players and their per-season game log pages.
type PlayerDirectory interface {
	ListPlayers(ctx context.Context, year int) ([]PlayerRef, error)
	// ListYearLogs maps season → game log URL, restricted to years.
	ListYearLogs(ctx context.Context, profileURL string, years YearRange) (map[int]string, error)
}
