// Package core implements the CORE v3 works API as a paper source. Deep
// paging uses server-issued scroll tokens: the first request asks for a
// scroll, every response carries the scrollId that continues it. All
// requests require a Bearer API key.
package core

import (
	"bytes"
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
	Name = "core"

	// DefaultBaseURL is the default CORE API base URL.
	DefaultBaseURL = "https://api.core.ac.uk/v3"

	// DefaultRateLimit is the default requests per second for registered
	// keys.
	DefaultRateLimit = 2.0

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 60 * time.Second

	// MaxBatchSize is the largest limit value the search endpoint
	// accepts.
	MaxBatchSize = 100
)

// Config holds configuration for the CORE client.
type Config struct {
	// BaseURL overrides the API base URL, mainly for tests.
	BaseURL string

	// APIKey is the required Bearer credential.
	APIKey string

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

// Client implements papersources.PaperSource for CORE.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

var _ papersources.PaperSource = (*Client)(nil)

// New creates a CORE client.
func New(cfg Config) (*Client, error) {
	cfg.applyDefaults()

	var bearer string
	if cfg.APIKey != "" {
		bearer = "Bearer " + cfg.APIKey
	}
	httpClient, err := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:      cfg.Timeout,
		RateLimit:    cfg.RateLimit,
		UserAgent:    "paper-ladder/1.0",
		APIKey:       bearer,
		APIKeyHeader: "Authorization",
	})
	if err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}

	return &Client{config: cfg, httpClient: httpClient}, nil
}

// Name returns the registry key.
func (c *Client) Name() string { return Name }

// Pagination declares token paging with no ceiling.
func (c *Client) Pagination() papersources.PageSpec {
	return papersources.PageSpec{
		Kind:         papersources.PageKindToken,
		MaxBatchSize: MaxBatchSize,
	}
}

// IsEnabled reports whether this source is enabled. A missing API key
// disables the source since CORE rejects anonymous requests.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled && c.config.APIKey != ""
}

// Search performs one scroll fetch against /search/works.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	start := time.Now()

	size := params.MaxResults
	if size <= 0 || size > MaxBatchSize {
		size = MaxBatchSize
	}
	body := SearchRequest{
		Query: c.buildQuery(params),
		Limit: size,
	}
	if params.Cursor != "" {
		body.ScrollID = params.Cursor
	} else {
		body.Scroll = true
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/search/works", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, papersources.WrapTransportError(Name, err)
	}
	defer resp.Body.Close()

	// A scroll that sat idle too long comes back as 400.
	if resp.StatusCode == http.StatusBadRequest && params.Cursor != "" {
		return nil, &domain.CursorExpiredError{Source: Name, Cursor: params.Cursor}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, papersources.NewAPIError(Name, resp)
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(papersources.LimitBody(resp)).Decode(&searchResp); err != nil {
		return nil, &domain.MalformedResponseError{Source: Name, Cause: err}
	}

	papers := make([]*domain.Paper, 0, len(searchResp.Results))
	for i := range searchResp.Results {
		if paper := workToPaper(&searchResp.Results[i]); paper != nil {
			papers = append(papers, paper)
		}
	}

	nextCursor := searchResp.ScrollID
	if len(searchResp.Results) == 0 {
		nextCursor = ""
	}
	return &papersources.SearchResult{
		Papers:         papers,
		TotalResults:   searchResp.TotalHits,
		HasMore:        nextCursor != "",
		NextCursor:     nextCursor,
		Source:         Name,
		SearchDuration: time.Since(start),
	}, nil
}

// GetByID fetches a single work by CORE ID or DOI.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	workID := id
	if doi := domain.NormalizeDOI(id); strings.HasPrefix(doi, "10.") {
		workID = doi
	}

	u := c.config.BaseURL + "/works/" + url.PathEscape(workID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, papersources.WrapTransportError(Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.NewNotFoundError(Name, id)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, papersources.NewAPIError(Name, resp)
	}

	var work Work
	if err := json.NewDecoder(papersources.LimitBody(resp)).Decode(&work); err != nil {
		return nil, &domain.MalformedResponseError{Source: Name, Cause: err}
	}

	paper := workToPaper(&work)
	if paper == nil {
		return nil, domain.NewNotFoundError(Name, id)
	}
	return paper, nil
}

func (c *Client) buildQuery(params papersources.SearchParams) string {
	q := params.Query
	if params.DateFrom != nil {
		q += " AND yearPublished>=" + strconv.Itoa(params.DateFrom.Year())
	}
	if params.DateTo != nil {
		q += " AND yearPublished<=" + strconv.Itoa(params.DateTo.Year())
	}
	return q
}

// workToPaper maps a CORE work to the canonical record. Returns nil for
// works without a usable title.
func workToPaper(work *Work) *domain.Paper {
	title := domain.CleanText(work.Title)
	if title == "" {
		return nil
	}

	authors := make([]domain.Author, 0, len(work.Authors))
	for _, a := range work.Authors {
		if a.Name == "" {
			continue
		}
		authors = append(authors, domain.Author{Name: a.Name})
	}

	var venue string
	if len(work.Journals) > 0 {
		venue = work.Journals[0].Title
	}

	var landing string
	for _, link := range work.Links {
		if link.Type == "display" {
			landing = link.URL
			break
		}
	}

	var keywords []string
	if work.FieldOfStudy != "" {
		keywords = []string{work.FieldOfStudy}
	}

	var openAccess *bool
	if work.DownloadURL != "" {
		openAccess = domain.OpenAccessFlag(true)
	}

	return &domain.Paper{
		Title:         title,
		Authors:       authors,
		Abstract:      domain.CleanText(work.Abstract),
		DOI:           domain.NormalizeDOI(work.DOI),
		Year:          work.YearPublished,
		Venue:         venue,
		URL:           landing,
		PDFURL:        work.DownloadURL,
		Source:        Name,
		CitationCount: work.CitationCount,
		OpenAccess:    openAccess,
		Keywords:      keywords,
		RawData: map[string]interface{}{
			"core_id": work.ID,
		},
	}
}
