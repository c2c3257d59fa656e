package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-gamelogs/internal/api/handler"
	"github.com/albapepper/scoracle-gamelogs/internal/cache"
	"github.com/albapepper/scoracle-gamelogs/internal/config"
	"github.com/albapepper/scoracle-gamelogs/internal/provider"
	"github.com/albapepper/scoracle-gamelogs/internal/schema"
	"github.com/albapepper/scoracle-gamelogs/internal/store"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()

	fs := store.NewFileStore(filepath.Join(dir, "data"))
	rec := provider.NewPlayerRecord(provider.PlayerRef{ID: "McCaCh01", Name: "Christian McCaffrey"})
	rec.SetYear(2019, []provider.GameRecord{{
		Week: 1, Date: "2019-09-08", Team: "CAR", Opponent: "LAR", Home: true,
		Stats:   map[string]interface{}{"Yds": 128},
		Fantasy: provider.Fantasy{Standard: 32.9, HalfPPR: 37.9, PPR: 42.9},
	}})
	require.NoError(t, fs.Save(context.Background(), rec))

	logPath := filepath.Join(dir, "table_metadata.txt")
	require.NoError(t, os.WriteFile(logPath, []byte(
		",Week:Week | \n"+
			"Rushing,Yds:Yds | Rushing yards\n"+
			"Receiving,Yds:reYds | \n"+
			"Receiving,Yds:reYds | Receiving yards\n"), 0o644))

	c := cache.New(true)
	t.Cleanup(c.Close)

	h := handler.New(fs, schema.NewFileLog(logPath), c, nil, nil)
	return NewRouter(h, &config.Config{CORSAllowOrigins: []string{"*"}})
}

func get(t *testing.T, h http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t)

	rec := get(t, h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Process-Time"))

	rec = get(t, h, "/health/db")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"database":"disabled"`)
}

func TestPlayers(t *testing.T) {
	h := newTestRouter(t)

	rec := get(t, h, "/api/v1/players")
	require.Equal(t, http.StatusOK, rec.Code)
	var list handler.PlayerList
	decode(t, rec, &list)
	require.Equal(t, 1, list.Count)
	require.Equal(t, store.Summary{ID: "McCaCh01", Name: "Christian McCaffrey", Years: []string{"2019"}, Games: 1}, list.Players[0])

	rec = get(t, h, "/api/v1/players/McCaCh01")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	var player provider.PlayerRecord
	decode(t, rec, &player)
	require.Equal(t, 42.9, player.Years["2019"].Games[0].Fantasy.PPR)

	rec = get(t, h, "/api/v1/players/McCaCh01")
	require.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	rec = get(t, h, "/api/v1/players/McCaCh01", "If-None-Match", etag)
	require.Equal(t, http.StatusNotModified, rec.Code)

	rec = get(t, h, "/api/v1/players/Nobody00")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)
}

func TestPlayerYear(t *testing.T) {
	h := newTestRouter(t)

	rec := get(t, h, "/api/v1/players/McCaCh01/years/2019")
	require.Equal(t, http.StatusOK, rec.Code)
	var year handler.PlayerYear
	decode(t, rec, &year)
	require.Equal(t, "2019", year.Year)
	require.Len(t, year.Games, 1)
	require.Equal(t, "LAR", year.Games[0].Opponent)

	rec = get(t, h, "/api/v1/players/McCaCh01/years/2017")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, h, "/api/v1/players/McCaCh01/years/19x9")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"INVALID_YEAR"`)
}

func TestSchema(t *testing.T) {
	h := newTestRouter(t)

	rec := get(t, h, "/api/v1/schema")
	require.Equal(t, http.StatusOK, rec.Code)
	var list handler.SchemaList
	decode(t, rec, &list)
	require.Equal(t, 3, list.Count)
	require.Equal(t, handler.SchemaEntry{Category: "Receiving", Column: "Yds", Name: "reYds", Tip: "Receiving yards"}, list.Entries[2])
	require.Equal(t, "Week", list.Entries[0].Name)
}

func TestRateLimitMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := RateLimitMiddleware(2, time.Minute)(ok)

	rec := get(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, h, "/")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestSwaggerDoc(t *testing.T) {
	h := newTestRouter(t)

	rec := get(t, h, "/docs/doc.json")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"/players/{playerID}/years/{year}"`)
}
