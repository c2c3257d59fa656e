// Package store persists PlayerRecords. Every sink overwrites the artifact
// for a player id, so repeated runs converge instead of duplicating.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/albapepper/scoracle-gamelogs/internal/provider"
)

// ErrNotFound is returned by readers for unknown player ids.
var ErrNotFound = errors.New("player not found")

// Sink receives completed player records.
type Sink interface {
	Save(ctx context.Context, rec *provider.PlayerRecord) error
}

// Reader serves persisted records.
type Reader interface {
	Get(ctx context.Context, id string) (*provider.PlayerRecord, error)
	List(ctx context.Context) ([]Summary, error)
}

// Summary is the listing view of one persisted player.
type Summary struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Years []string `json:"years"`
	Games int      `json:"games"`
}

// Summarize builds the listing view of rec.
func Summarize(rec *provider.PlayerRecord) Summary {
	years := make([]string, 0, len(rec.Years))
	for y := range rec.Years {
		years = append(years, y)
	}
	sort.Strings(years)
	return Summary{ID: rec.ID, Name: rec.Name, Years: years, Games: rec.GameCount()}
}

var validID = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidateID rejects ids that cannot safely name an artifact.
func ValidateID(id string) error {
	if !validID.MatchString(id) || id == "." || id == ".." {
		return fmt.Errorf("invalid player id %q", id)
	}
	return nil
}

// Multi fans a record out to several sinks. Every sink is attempted; the
// returned error joins all failures.
type Multi []Sink

// Save implements Sink.
func (m Multi) Save(ctx context.Context, rec *provider.PlayerRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.Save(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
