package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-gamelogs/internal/config"
	"github.com/albapepper/scoracle-gamelogs/internal/provider"
	"github.com/albapepper/scoracle-gamelogs/internal/schema"
	"github.com/albapepper/scoracle-gamelogs/internal/store"
)

// testPool connects to TEST_DATABASE_URL; tests are skipped without it.
func testPool(t *testing.T) *Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := New(ctx, &config.Config{
		DatabaseURL:    url,
		DBPoolMinConns: 1,
		DBPoolMaxConns: 2,
		DBPoolMaxLife:  time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pool.HealthCheck(ctx))
	return pool
}

func TestGamelogStoreRoundTrip(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	s := NewGamelogStore(pool)

	rec := provider.NewPlayerRecord(provider.PlayerRef{ID: "TestPl00", Name: "Test Player"})
	rec.SetYear(2019, []provider.GameRecord{{Week: 1, Stats: map[string]interface{}{"Yds": 10}}})
	require.NoError(t, s.Save(ctx, rec))
	t.Cleanup(func() { _, _ = pool.Exec(ctx, "DELETE FROM player_gamelogs WHERE id = $1", rec.ID) })

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, "Test Player", got.Name)
	require.Len(t, got.Years["2019"].Games, 1)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Contains(t, list, store.Summary{ID: rec.ID, Name: "Test Player", Years: []string{"2019"}, Games: 1})

	_, err = s.Get(ctx, "missing-id")
	require.True(t, errors.Is(err, store.ErrNotFound))
}

func TestSchemaLogRewriteAndAppend(t *testing.T) {
	pool := testPool(t)
	l := NewSchemaLog(pool)

	seed := []schema.Entry{
		{Key: schema.Key{Column: "Week"}, Name: "Week"},
		{Key: schema.Key{Category: "Rushing", Column: "Yds"}, Name: "Yds", Tip: "Rushing yards"},
	}
	require.NoError(t, l.Rewrite(seed))
	require.NoError(t, l.Append(schema.Entry{Key: schema.Key{Category: "Kicking", Column: "FGM"}, Name: "Kicking_FGM"}))

	got, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, append(seed, schema.Entry{Key: schema.Key{Category: "Kicking", Column: "FGM"}, Name: "Kicking_FGM"}), got)
}
