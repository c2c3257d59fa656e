// Package pfr fetches pro-football-reference pages and turns them into the
// markup-independent shapes the core consumes.
//
// All requests go through one resty client. An optional token bucket limits
// the aggregate request rate across workers; per-unit pacing is the
// orchestrator's job.
package pfr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/albapepper/scoracle-gamelogs/internal/provider"
)

// DefaultBaseURL is the public site root.
const DefaultBaseURL = "https://www.pro-football-reference.com"

var tracer = otel.Tracer("scoracle.provider.pfr")

// Options configures a Client.
type Options struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerMinute int // 0 disables the shared limiter
	Retries           int // retries on 429 and 5xx
	RetryWait         time.Duration
}

// Client implements provider.DocumentFetcher and provider.PlayerDirectory.
type Client struct {
	http    *resty.Client
	baseURL string
	limiter *rate.Limiter
	logger  *slog.Logger
}

var (
	_ provider.DocumentFetcher = (*Client)(nil)
	_ provider.PlayerDirectory = (*Client)(nil)
)

// NewClient creates a client.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 2 * time.Second
	}

	hc := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(opts.RetryWait).
		AddRetryCondition(func(res *resty.Response, err error) bool {
			if res == nil {
				return err != nil
			}
			return res.StatusCode() == http.StatusTooManyRequests || res.StatusCode() >= 500
		})
	if opts.UserAgent != "" {
		hc.SetHeader("User-Agent", opts.UserAgent)
	}

	var limiter *rate.Limiter
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), 1)
	}

	return &Client{
		http:    hc,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		limiter: limiter,
		logger:  logger,
	}
}

// get performs a rate-limited GET and parses the body as HTML.
func (c *Client) get(ctx context.Context, url string) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "pfr:get", trace.WithAttributes(attribute.String("url", url)))
	defer span.End()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			span.SetStatus(codes.Error, "rate limit wait")
			return nil, &provider.FetchError{URL: url, Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	res, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, &provider.FetchError{URL: url, Err: err}
	}
	span.SetAttributes(attribute.Int("status", res.StatusCode()))
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "unexpected status")
		return nil, &provider.FetchError{URL: url, Status: res.StatusCode()}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, &provider.ParseError{URL: url, Reason: err.Error()}
	}
	return doc, nil
}

// resolve turns a site-relative href into an absolute URL.
func (c *Client) resolve(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return c.baseURL + href
}

// FetchDocument fetches a game log page and extracts its stats table.
func (c *Client) FetchDocument(ctx context.Context, url string) (*provider.TableDocument, error) {
	doc, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	table := findTable(doc, gamelogTableID)
	if table == nil {
		return nil, &provider.ParseError{URL: url, Reason: "no stats table"}
	}
	td, err := parseTable(table)
	if err != nil {
		return nil, &provider.ParseError{URL: url, Reason: err.Error()}
	}
	td.URL = url
	return td, nil
}

// ListPlayers returns everyone in a season's fantasy rankings.
func (c *Client) ListPlayers(ctx context.Context, year int) ([]provider.PlayerRef, error) {
	url := fmt.Sprintf("%s/years/%d/fantasy.htm", c.baseURL, year)
	doc, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	table := findTable(doc, fantasyTableID)
	if table == nil {
		return nil, &provider.ParseError{URL: url, Reason: "no fantasy table"}
	}
	players := parsePlayers(table, c.resolve)
	c.logger.Info("Found players", "year", year, "count", len(players))
	return players, nil
}

// ListYearLogs reads a player profile's game log navigation. A profile
// without game logs yields an empty map, not an error.
func (c *Client) ListYearLogs(ctx context.Context, profileURL string, years provider.YearRange) (map[int]string, error) {
	doc, err := c.get(ctx, profileURL)
	if err != nil {
		return nil, err
	}
	logs, ok := parseYearLogs(doc, years, c.resolve)
	if !ok {
		c.logger.Debug("No game log navigation", "url", profileURL)
	}
	return logs, nil
}
