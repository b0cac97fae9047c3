// Package dblp implements the dblp publication search API as a paper
// source. Paging uses the f (first hit) and h (hit count) parameters;
// the index refuses to serve hits past position 10,000.
package dblp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
	"github.com/SteadfastAsArt/paper-ladder/internal/papersources"
)

const (
	// Name is this source's registry key.
	Name = "dblp"

	// DefaultBaseURL is the default dblp API base URL.
	DefaultBaseURL = "https://dblp.org"

	// DefaultRateLimit is the default requests per second. dblp throttles
	// aggressively, so stay conservative.
	DefaultRateLimit = 1.0

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxBatchSize is the largest h value dblp accepts.
	MaxBatchSize = 1000

	// MaxOffset is the deepest f position dblp will serve.
	MaxOffset = 10000
)

// Config holds configuration for the dblp client.
type Config struct {
	// BaseURL overrides the API base URL, mainly for tests.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// Enabled indicates whether this source participates in searches.
	Enabled bool
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
}

// Client implements papersources.PaperSource for dblp.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

var _ papersources.PaperSource = (*Client)(nil)

// New creates a dblp client.
func New(cfg Config) (*Client, error) {
	cfg.applyDefaults()

	httpClient, err := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		UserAgent: "paper-ladder/1.0",
	})
	if err != nil {
		return nil, fmt.Errorf("dblp: %w", err)
	}

	return &Client{config: cfg, httpClient: httpClient}, nil
}

// Name returns the registry key.
func (c *Client) Name() string { return Name }

// Pagination declares offset paging with the 10k depth limit.
func (c *Client) Pagination() papersources.PageSpec {
	return papersources.PageSpec{
		Kind:         papersources.PageKindOffset,
		MaxBatchSize: MaxBatchSize,
		MaxOffset:    MaxOffset,
	}
}

// IsEnabled reports whether this source is enabled.
func (c *Client) IsEnabled() bool { return c.config.Enabled }

// Search performs one offset-paginated fetch against /search/publ/api.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	start := time.Now()

	query := url.Values{}
	query.Set("q", params.Query)
	query.Set("format", "json")

	size := params.MaxResults
	if size <= 0 || size > MaxBatchSize {
		size = MaxBatchSize
	}
	query.Set("h", strconv.Itoa(size))
	if params.Offset > 0 {
		query.Set("f", strconv.Itoa(params.Offset))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/search/publ/api?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, papersources.WrapTransportError(Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, papersources.NewAPIError(Name, resp)
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(papersources.LimitBody(resp)).Decode(&searchResp); err != nil {
		return nil, &domain.MalformedResponseError{Source: Name, Cause: err}
	}

	hits := searchResp.Result.Hits
	papers := make([]*domain.Paper, 0, len(hits.Hit))
	for i := range hits.Hit {
		if paper := hitToPaper(&hits.Hit[i].Info, params); paper != nil {
			papers = append(papers, paper)
		}
	}

	total, _ := strconv.Atoi(hits.Total)
	sent, _ := strconv.Atoi(hits.Sent)
	nextOffset := params.Offset + sent
	return &papersources.SearchResult{
		Papers:         papers,
		TotalResults:   total,
		HasMore:        sent > 0 && nextOffset < total,
		NextOffset:     nextOffset,
		Source:         Name,
		SearchDuration: time.Since(start),
	}, nil
}

// GetByID fetches a single publication by dblp key. The record API has
// no JSON single-record endpoint, so the key is resolved through search.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	result, err := c.Search(ctx, papersources.SearchParams{Query: id, MaxResults: 10})
	if err != nil {
		return nil, err
	}
	for _, paper := range result.Papers {
		if key, ok := paper.RawData["dblp_key"].(string); ok && key == id {
			return paper, nil
		}
	}
	if len(result.Papers) > 0 && domain.NormalizeDOI(id) != "" {
		want := domain.NormalizeDOI(id)
		for _, paper := range result.Papers {
			if paper.DOI == want {
				return paper, nil
			}
		}
	}
	return nil, domain.NewNotFoundError(Name, id)
}

// hitToPaper maps a dblp hit to the canonical record. Returns nil for
// hits without a usable title. Year filters are applied client side
// because the search API cannot express them.
func hitToPaper(info *Info, params papersources.SearchParams) *domain.Paper {
	title := domain.CleanText(strings.TrimSuffix(info.Title, "."))
	if title == "" {
		return nil
	}

	year, _ := strconv.Atoi(info.Year)
	if params.DateFrom != nil && year != 0 && year < params.DateFrom.Year() {
		return nil
	}
	if params.DateTo != nil && year != 0 && year > params.DateTo.Year() {
		return nil
	}

	var authors []domain.Author
	if info.Authors != nil {
		authors = make([]domain.Author, 0, len(info.Authors.Author))
		for _, a := range info.Authors.Author {
			if a.Text == "" {
				continue
			}
			authors = append(authors, domain.Author{Name: a.Text})
		}
	}

	var openAccess *bool
	if info.Access == "open" {
		openAccess = domain.OpenAccessFlag(true)
	}

	landing := info.EE
	if landing == "" {
		landing = info.URL
	}
	var pdfURL string
	if domain.IsPDFURL(info.EE) {
		pdfURL = info.EE
	}

	return &domain.Paper{
		Title:      title,
		Authors:    authors,
		DOI:        domain.NormalizeDOI(info.DOI),
		Year:       year,
		Venue:      string(info.Venue),
		URL:        landing,
		PDFURL:     pdfURL,
		Source:     Name,
		OpenAccess: openAccess,
		RawData: map[string]interface{}{
			"dblp_key": info.Key,
			"type":     info.Type,
		},
	}
}
