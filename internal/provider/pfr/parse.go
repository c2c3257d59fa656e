package pfr

import (
	"errors"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/albapepper/scoracle-gamelogs/internal/provider"
)

const (
	gamelogTableID = "stats"
	fantasyTableID = "fantasy"
)

// findTable locates table#id, looking inside HTML comments as well: the site
// ships secondary tables commented out and un-comments them client side.
func findTable(doc *goquery.Document, id string) *goquery.Selection {
	if sel := doc.Find("table#" + id); sel.Length() > 0 {
		return sel.First()
	}

	marker := `id="` + id + `"`
	var found *goquery.Selection
	doc.Find("*").Contents().EachWithBreak(func(_ int, s *goquery.Selection) bool {
		n := s.Get(0)
		if n.Type != html.CommentNode || !strings.Contains(n.Data, marker) {
			return true
		}
		inner, err := goquery.NewDocumentFromReader(strings.NewReader(n.Data))
		if err != nil {
			return true
		}
		if t := inner.Find("table#" + id); t.Length() > 0 {
			found = t.First()
			return false
		}
		return true
	})
	return found
}

// parseTable converts a stats table. Header rows keep th cells only; body
// rows keep th and td cells, minus the repeated mid-table header rows the
// site marks with class "thead".
func parseTable(table *goquery.Selection) (*provider.TableDocument, error) {
	thead := table.Find("thead").First()
	if thead.Length() == 0 {
		return nil, errors.New("table has no thead")
	}
	tbody := table.Find("tbody").First()
	if tbody.Length() == 0 {
		return nil, errors.New("table has no tbody")
	}

	td := &provider.TableDocument{}
	rows := thead.Find("tr")
	last := rows.Length() - 1
	rows.Each(func(i int, tr *goquery.Selection) {
		var row []provider.Cell
		tr.ChildrenFiltered("th").Each(func(_ int, th *goquery.Selection) {
			row = append(row, headerCell(th, i == last))
		})
		td.Header = append(td.Header, row)
	})

	tbody.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.HasClass("thead") {
			return
		}
		var row []provider.Cell
		tr.ChildrenFiltered("th, td").Each(func(_ int, c *goquery.Selection) {
			row = append(row, provider.Cell{
				Text: strings.TrimSpace(c.Text()),
				Stat: c.AttrOr("data-stat", ""),
			})
		})
		td.Body = append(td.Body, row)
	})
	return td, nil
}

// headerCell reads span, tooltip and stat id. A blank column label (the
// home/away column has none) falls back to its stat id so it still gets a
// meaningful canonical name.
func headerCell(th *goquery.Selection, columnRow bool) provider.Cell {
	c := provider.Cell{
		Text: strings.TrimSpace(th.Text()),
		Span: 1,
		Tip:  strings.TrimSpace(th.AttrOr("data-tip", "")),
		Stat: th.AttrOr("data-stat", ""),
	}
	if n, err := strconv.Atoi(th.AttrOr("colspan", "1")); err == nil && n > 0 {
		c.Span = n
	}
	if columnRow && c.Text == "" {
		c.Text = c.Stat
	}
	return c
}

// parsePlayers reads the season fantasy table.
func parsePlayers(table *goquery.Selection, resolve func(string) string) []provider.PlayerRef {
	var out []provider.PlayerRef
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.HasClass("thead") {
			return
		}
		nameCell := tr.Find(`td[data-stat="player"]`).First()
		a := nameCell.Find("a").First()
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		id := nameCell.AttrOr("data-append-csv", "")
		if id == "" {
			return
		}
		out = append(out, provider.PlayerRef{
			ID:         id,
			Name:       strings.TrimSpace(a.Text()),
			ProfileURL: resolve(href),
			Position:   strings.TrimSpace(tr.Find(`td[data-stat="fantasy_pos"]`).First().Text()),
		})
	})
	return out
}

// parseYearLogs reads the "Game Logs" list of the profile navigation.
// ok is false when the navigation or the section is missing.
func parseYearLogs(doc *goquery.Document, years provider.YearRange, resolve func(string) string) (map[int]string, bool) {
	out := make(map[int]string)
	nav := doc.Find("div#inner_nav").First()
	if nav.Length() == 0 {
		return out, false
	}
	label := nav.Find("span").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == "Game Logs"
	}).First()
	if label.Length() == 0 {
		return out, false
	}
	ul := nextList(label)
	if ul.Length() == 0 {
		return out, false
	}

	ul.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		if !strings.Contains(href, "/gamelog/") {
			return
		}
		text := strings.TrimSpace(a.Text())
		if !provider.IsDigits(text) {
			return
		}
		year, err := strconv.Atoi(text)
		if err != nil || !years.Contains(year) {
			return
		}
		out[year] = resolve(href)
	})
	return out, true
}

// nextList finds the first ul following s in document order, climbing out
// of s's ancestors until one has a later sibling containing a list.
func nextList(s *goquery.Selection) *goquery.Selection {
	for cur := s; cur.Length() > 0 && !cur.Is("body"); cur = cur.Parent() {
		for sib := cur.Next(); sib.Length() > 0; sib = sib.Next() {
			if sib.Is("ul") {
				return sib
			}
			if ul := sib.Find("ul").First(); ul.Length() > 0 {
				return ul
			}
		}
	}
	return &goquery.Selection{}
}
