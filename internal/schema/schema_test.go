package schema

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-gamelogs/internal/provider"
)

func names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func hdr(cat, col string) Header {
	return Header{Key: Key{Category: cat, Column: col}}
}

func TestFlattenExpandsSpans(t *testing.T) {
	rows := [][]provider.Cell{
		{{Text: ""}, {Text: "Passing", Span: 2}, {Text: "Rushing", Span: 0}},
	}
	require.Equal(t, []string{"", "Passing", "Passing", "Rushing"}, Flatten(rows))
}

func TestDisambiguateScenario(t *testing.T) {
	got := Disambiguate([]Header{
		hdr("Passing", "Yds"),
		hdr("Passing", "TD"),
		hdr("Rushing", "Yds"),
	})
	require.Equal(t, []string{"Yds", "TD", "ruYds"}, names(got))
}

func TestDisambiguateUniqueAcrossCategories(t *testing.T) {
	got := Disambiguate([]Header{
		hdr("", "Week"),
		hdr("Passing", "Yds"),
		hdr("Passing", "TD"),
		hdr("Rushing", "Yds"),
		hdr("Rushing", "TD"),
		hdr("Receiving", "Yds"),
		hdr("Receiving", "TD"),
	})
	seen := map[string]bool{}
	for _, e := range got {
		require.False(t, seen[e.Name], "duplicate canonical name %q", e.Name)
		seen[e.Name] = true
	}
	require.Equal(t, []string{"Week", "Yds", "TD", "ruYds", "ruTD", "reYds", "reTD"}, names(got))
}

func TestDisambiguateRepeatedKeyOverwritesInPlace(t *testing.T) {
	got := Disambiguate([]Header{
		hdr("Rushing", "Yds"),
		hdr("Rushing", "Att"),
		hdr("Rushing", "Yds"),
	})
	require.Len(t, got, 2)
	require.Equal(t, Key{"Rushing", "Yds"}, got[0].Key)
	require.Equal(t, "ruYds", got[0].Name)
}

func TestHeadersFromDocument(t *testing.T) {
	doc := &provider.TableDocument{
		Header: [][]provider.Cell{
			{{Text: "", Span: 2}, {Text: "Passing", Span: 2}},
			{{Text: "Rk", Stat: "ranker"}, {Text: "Week", Tip: " Week number "}, {Text: "Yds"}, {Text: "TD"}, {Text: "Extra"}},
		},
	}
	got := HeadersFromDocument(doc)
	require.Len(t, got, 5)
	assert.Equal(t, Key{"", "Rk"}, got[0].Key)
	assert.Equal(t, "Week number", got[1].Tip)
	assert.Equal(t, Key{"Passing", "TD"}, got[3].Key)
	assert.Equal(t, Key{"", "Extra"}, got[4].Key)

	require.Nil(t, HeadersFromDocument(&provider.TableDocument{Header: [][]provider.Cell{{{Text: "Yds"}}}}))
}

func TestAlignHeadersSkipsRanker(t *testing.T) {
	doc := &provider.TableDocument{
		Header: [][]provider.Cell{
			{{Text: "", Span: 2}, {Text: "Rushing", Span: 2}},
			{{Text: "Rk", Stat: "ranker"}, {Text: "Week"}, {Text: "Att"}, {Text: "Yds"}},
		},
	}
	got := AlignHeaders(doc)
	require.Equal(t, []Header{hdr("", "Week"), hdr("Rushing", "Att"), hdr("Rushing", "Yds")}, got)
}

func TestFallbackName(t *testing.T) {
	require.Equal(t, "Kicking_FGM", FallbackName(Key{"Kicking", "FGM"}))
	require.Equal(t, "FGM", FallbackName(Key{"", "FGM"}))
	require.Equal(t, "Kicking", FallbackName(Key{"Kicking", ""}))
}

func TestSeedLaterPositionsOverwrite(t *testing.T) {
	dir := t.TempDir()
	log := NewFileLog(filepath.Join(dir, "meta", "table_metadata.txt"))
	reg := NewRegistry(log, nil)

	qb := []Header{hdr("Passing", "Yds"), hdr("Rushing", "Yds")}
	rb := []Header{hdr("Rushing", "Yds"), hdr("Receiving", "Yds")}
	require.NoError(t, reg.Seed(qb, rb))

	e, ok := reg.Resolve(Key{"Rushing", "Yds"})
	require.True(t, ok)
	require.Equal(t, "Yds", e.Name, "rb set processed last owns the key")

	e, ok = reg.Resolve(Key{"Passing", "Yds"})
	require.True(t, ok)
	require.Equal(t, "Yds", e.Name)
	require.Contains(t, reg.Collisions(), "Yds")

	persisted, err := ReadLog(log.Path())
	require.NoError(t, err)
	require.Equal(t, reg.Entries(), persisted)
}

func TestExtendAppendsOnce(t *testing.T) {
	dir := t.TempDir()
	log := NewFileLog(filepath.Join(dir, "table_metadata.txt"))
	reg := NewRegistry(log, nil)
	require.NoError(t, reg.Seed([]Header{hdr("", "Week")}))

	var wg sync.WaitGroup
	var mu sync.Mutex
	added := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name, ok, err := reg.Extend(Header{Key: Key{"Kicking", "FGM"}, Tip: "Field goals made"})
			assert.NoError(t, err)
			assert.Equal(t, "Kicking_FGM", name)
			if ok {
				mu.Lock()
				added++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, added)
	require.Equal(t, []string{"Kicking_FGM", "Week"}, reg.Names())

	raw, err := os.ReadFile(log.Path())
	require.NoError(t, err)
	require.Equal(t, ",Week:Week | \nKicking,FGM:Kicking_FGM | Field goals made\n", string(raw))

	name, ok, err := reg.Extend(hdr("", "Week"))
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, "Week", name)
}

func TestRestoreFromLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table_metadata.txt")
	content := "Passing,Yds:Yds | Passing yards\nRushing,Yds:ruYds | \nKicking,FGM:Kicking_FGM | made: all\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	entries, err := ReadLog(path)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "made: all", entries[2].Tip)

	reg := NewRegistry(nil, nil)
	reg.Restore(entries)
	e, ok := reg.Resolve(Key{"Rushing", "Yds"})
	require.True(t, ok)
	require.Equal(t, "ruYds", e.Name)

	missing, err := ReadLog(filepath.Join(t.TempDir(), "nope.txt"))
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestParseLineRejectsGarbage(t *testing.T) {
	_, err := ParseLine("no separators here")
	require.Error(t, err)

	e, err := ParseLine("Fumbles,FL:FL | Fumbles lost")
	require.NoError(t, err)
	require.Equal(t, Entry{Key: Key{"Fumbles", "FL"}, Name: "FL", Tip: "Fumbles lost"}, e)
	require.Equal(t, "Fumbles,FL:FL | Fumbles lost", FormatLine(e))
}
