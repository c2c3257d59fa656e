package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-gamelogs/internal/provider"
)

func sampleRecord(id string) *provider.PlayerRecord {
	rec := provider.NewPlayerRecord(provider.PlayerRef{ID: id, Name: "Christian McCaffrey"})
	rec.SetYear(2019, []provider.GameRecord{
		{Week: 2, Team: "CAR", Stats: map[string]interface{}{"Yds": 37}},
		{Week: 1, Team: "CAR", Home: true, Stats: map[string]interface{}{"Yds": 128, "Date": "2019-09-08"},
			Fantasy: provider.Fantasy{Standard: 32.9, HalfPPR: 37.9, PPR: 42.9}},
	})
	rec.SetYear(2018, nil)
	return rec
}

// roundTrip exercises a Sink + Reader pair the same way for every backend.
func roundTrip(t *testing.T, s interface {
	Sink
	Reader
}) {
	t.Helper()
	ctx := context.Background()

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	_, err = s.Get(ctx, "McCaCh01")
	require.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Save(ctx, sampleRecord("McCaCh01")))
	require.NoError(t, s.Save(ctx, sampleRecord("JackLa00")))

	got, err := s.Get(ctx, "McCaCh01")
	require.NoError(t, err)
	require.Equal(t, "Christian McCaffrey", got.Name)
	games := got.Years["2019"].Games
	require.Len(t, games, 2)
	require.Equal(t, 1, games[0].Week)
	require.Equal(t, float64(128), games[0].Stats["Yds"])
	require.Equal(t, 42.9, games[0].Fantasy.PPR)
	require.NotNil(t, got.Years["2018"].Games)

	// Overwrite converges on the same artifact.
	rec := sampleRecord("McCaCh01")
	rec.Name = "C. McCaffrey"
	require.NoError(t, s.Save(ctx, rec))

	list, err = s.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []Summary{
		{ID: "JackLa00", Name: "Christian McCaffrey", Years: []string{"2018", "2019"}, Games: 2},
		{ID: "McCaCh01", Name: "C. McCaffrey", Years: []string{"2018", "2019"}, Games: 2},
	}, list)

	require.Error(t, s.Save(ctx, sampleRecord("../evil")))
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	s := NewFileStore(dir)
	roundTrip(t, s)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2, "no temp files left behind")

	data, err := os.ReadFile(filepath.Join(dir, "McCaCh01.json"))
	require.NoError(t, err)
	require.Contains(t, string(data), "\n  \"id\": \"McCaCh01\"")
	require.Contains(t, string(data), `"half_ppr": 37.9`)
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "gamelogs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	roundTrip(t, s)
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	_, err := OpenSQLite("  ")
	require.Error(t, err)
}

type failingSink struct{ err error }

func (f failingSink) Save(context.Context, *provider.PlayerRecord) error { return f.err }

func TestMultiAttemptsEverySink(t *testing.T) {
	fs := NewFileStore(t.TempDir())
	boom := errors.New("boom")
	m := Multi{failingSink{err: boom}, fs}

	err := m.Save(context.Background(), sampleRecord("McCaCh01"))
	require.ErrorIs(t, err, boom)

	_, err = fs.Get(context.Background(), "McCaCh01")
	require.NoError(t, err, "later sinks still receive the record")

	require.NoError(t, Multi{fs}.Save(context.Background(), sampleRecord("JackLa00")))
}

func TestValidateID(t *testing.T) {
	require.NoError(t, ValidateID("McCaCh01"))
	require.NoError(t, ValidateID("a.b-c_d"))
	for _, id := range []string{"", ".", "..", "a/b", "a b"} {
		require.Error(t, ValidateID(id), id)
	}
}
