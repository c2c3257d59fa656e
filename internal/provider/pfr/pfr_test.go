package pfr

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-gamelogs/internal/provider"
)

const gamelogTable = `
<table id="stats">
<thead>
  <tr class="over_header">
    <th colspan="4"></th>
    <th colspan="2" data-stat="header_rush">Rushing</th>
  </tr>
  <tr>
    <th data-stat="ranker" data-tip="Rank">Rk</th>
    <th data-stat="week_num">Week</th>
    <th data-stat="team">Tm</th>
    <th data-stat="game_location"></th>
    <th data-stat="rush_att" data-tip=" Rushing attempts ">Att</th>
    <th data-stat="rush_yds">Yds</th>
  </tr>
</thead>
<tbody>
  <tr><th data-stat="ranker">1</th><td>1</td><td>CAR</td><td></td><td>19</td><td>128</td></tr>
  <tr class="thead"><th>Rk</th><td>Week</td></tr>
  <tr><th data-stat="ranker">2</th><td>2</td><td>CAR</td><td>@</td><td>16</td><td>37</td></tr>
</tbody>
</table>`

func mustDoc(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)
	return doc
}

func TestParseTable(t *testing.T) {
	doc := mustDoc(t, "<html><body>"+gamelogTable+"</body></html>")
	table := findTable(doc, "stats")
	require.NotNil(t, table)

	td, err := parseTable(table)
	require.NoError(t, err)
	require.Len(t, td.Header, 2)
	require.Equal(t, 4, td.Header[0][0].Span)
	require.Equal(t, "", td.Header[0][0].Text, "blank category keeps its blank label")
	require.Equal(t, "Rushing", td.Header[0][1].Text)

	cols := td.Header[1]
	assert.True(t, cols[0].IsRanker())
	assert.Equal(t, "game_location", cols[3].Text)
	assert.Equal(t, "Rushing attempts", cols[4].Tip)

	require.Len(t, td.Body, 2, "thead rows inside the body are dropped")
	require.Equal(t, "1", td.Body[0][0].Text)
	require.Equal(t, "@", td.Body[1][3].Text)
	require.Equal(t, "37", td.Body[1][5].Text)
}

func TestFindTableInsideComment(t *testing.T) {
	page := `<html><body><div id="all_stats"><!--` + gamelogTable + `--></div></body></html>`
	doc := mustDoc(t, page)
	table := findTable(doc, "stats")
	require.NotNil(t, table)
	td, err := parseTable(table)
	require.NoError(t, err)
	require.Len(t, td.Body, 2)

	require.Nil(t, findTable(doc, "fantasy"))
}

func TestParseTableRequiresStructure(t *testing.T) {
	doc := mustDoc(t, `<table id="stats"><tbody><tr><td>1</td></tr></tbody></table>`)
	_, err := parseTable(findTable(doc, "stats"))
	require.Error(t, err)
}

const fantasyPage = `<html><body><table id="fantasy"><tbody>
<tr><th>1</th><td data-stat="player" data-append-csv="McCaCh01"><a href="/players/M/McCaCh01.htm">Christian McCaffrey</a></td><td data-stat="fantasy_pos">RB</td></tr>
<tr class="thead"><th>Rk</th><td data-stat="player">Player</td></tr>
<tr><th>2</th><td data-stat="player" data-append-csv="JackLa00"><a href="/players/J/JackLa00.htm">Lamar Jackson</a></td><td data-stat="fantasy_pos">QB</td></tr>
<tr><th>3</th><td data-stat="player">No Link</td><td data-stat="fantasy_pos">WR</td></tr>
</tbody></table></body></html>`

func TestParsePlayers(t *testing.T) {
	doc := mustDoc(t, fantasyPage)
	players := parsePlayers(findTable(doc, "fantasy"), func(h string) string { return "https://x.test" + h })
	require.Equal(t, []provider.PlayerRef{
		{ID: "McCaCh01", Name: "Christian McCaffrey", ProfileURL: "https://x.test/players/M/McCaCh01.htm", Position: "RB"},
		{ID: "JackLa00", Name: "Lamar Jackson", ProfileURL: "https://x.test/players/J/JackLa00.htm", Position: "QB"},
	}, players)
}

func profilePage(player string) string {
	return fmt.Sprintf(`<html><body><div id="inner_nav"><ul>
<li><span>Fantasy</span><div><ul><li><a href="/players/M/%[1]s/fantasy/2019/">2019</a></li></ul></div></li>
<li><span>Game Logs</span><div><ul>
  <li><a href="/players/M/%[1]s/gamelog/">Career</a></li>
  <li><a href="/players/M/%[1]s/gamelog/2017/">2017</a></li>
  <li><a href="/players/M/%[1]s/gamelog/2018/">2018</a></li>
  <li><a href="/players/M/%[1]s/gamelog/2019/">2019</a></li>
</ul></div></li>
</ul></div></body></html>`, player)
}

func TestParseYearLogs(t *testing.T) {
	doc := mustDoc(t, profilePage("McCaCh01"))
	logs, ok := parseYearLogs(doc, provider.YearRange{Start: 2018, End: 2024}, func(h string) string { return h })
	require.True(t, ok)
	require.Equal(t, map[int]string{
		2018: "/players/M/McCaCh01/gamelog/2018/",
		2019: "/players/M/McCaCh01/gamelog/2019/",
	}, logs)

	all, ok := parseYearLogs(doc, provider.YearRange{}, func(h string) string { return h })
	require.True(t, ok)
	require.Len(t, all, 3)

	none, ok := parseYearLogs(mustDoc(t, "<html><body></body></html>"), provider.YearRange{}, func(h string) string { return h })
	require.False(t, ok)
	require.Empty(t, none)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/years/2019/fantasy.htm", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, fantasyPage)
	})
	mux.HandleFunc("/players/M/McCaCh01.htm", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, profilePage("McCaCh01"))
	})
	mux.HandleFunc("/players/M/McCaCh01/gamelog/2019/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "scoracle-test", r.Header.Get("User-Agent"))
		fmt.Fprint(w, `<html><body><div><!--`+gamelogTable+`--></div></body></html>`)
	})
	mux.HandleFunc("/players/M/McCaCh01/gamelog/2018/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>No games</p></body></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientEndToEnd(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(Options{BaseURL: srv.URL, UserAgent: "scoracle-test", Timeout: 5 * time.Second}, nil)
	ctx := context.Background()

	players, err := c.ListPlayers(ctx, 2019)
	require.NoError(t, err)
	require.Len(t, players, 2)
	require.Equal(t, srv.URL+"/players/M/McCaCh01.htm", players[0].ProfileURL)

	logs, err := c.ListYearLogs(ctx, players[0].ProfileURL, provider.YearRange{Start: 2018, End: 2019})
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/players/M/McCaCh01/gamelog/2019/", logs[2019])

	td, err := c.FetchDocument(ctx, logs[2019])
	require.NoError(t, err)
	require.Equal(t, logs[2019], td.URL)
	require.Len(t, td.Body, 2)

	_, err = c.FetchDocument(ctx, logs[2018])
	require.True(t, provider.IsParseError(err), "got %v", err)

	_, err = c.FetchDocument(ctx, srv.URL+"/missing")
	require.True(t, provider.IsFetchError(err), "got %v", err)
	require.Contains(t, err.Error(), "status 404")

	_, err = c.ListPlayers(ctx, 1900)
	require.True(t, provider.IsFetchError(err))
}

func TestClientHonorsCancellation(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(Options{BaseURL: srv.URL, RequestsPerMinute: 60}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListPlayers(ctx, 2019)
	require.True(t, provider.IsFetchError(err))
}

func TestResolve(t *testing.T) {
	c := NewClient(Options{BaseURL: "https://x.test/"}, nil)
	require.Equal(t, "https://x.test/players/A.htm", c.resolve("/players/A.htm"))
	require.Equal(t, "https://x.test/players/A.htm", c.resolve("players/A.htm"))
	require.Equal(t, "https://y.test/a", c.resolve("https://y.test/a"))
}
