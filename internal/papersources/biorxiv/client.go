// Package biorxiv implements the bioRxiv/medRxiv content API as a paper
// source. The two preprint servers share one API distinguished by a server
// segment in the path. There is no query endpoint: the API serves
// date-windowed batches of up to 100 preprints addressed by a numeric
// cursor in the path, so searches fetch a window and filter locally.
package biorxiv

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
	"github.com/SteadfastAsArt/paper-ladder/internal/papersources"
)

const (
	// ServerBioRxiv selects the bioRxiv preprint server.
	ServerBioRxiv = "biorxiv"

	// ServerMedRxiv selects the medRxiv preprint server.
	ServerMedRxiv = "medrxiv"

	// DefaultBaseURL is the default content API base URL, shared by both
	// servers.
	DefaultBaseURL = "https://api.biorxiv.org"

	// DefaultRateLimit is the default requests per second.
	DefaultRateLimit = 1.0

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxBatchSize is the fixed batch size the details endpoint serves.
	MaxBatchSize = 100

	// DefaultLookback is the date window searched when the caller gives no
	// date range.
	DefaultLookback = 365 * 24 * time.Hour
)

// displayName maps server keys to the vendor's capitalization.
var displayName = map[string]string{
	ServerBioRxiv: "bioRxiv",
	ServerMedRxiv: "medRxiv",
}

// Config holds configuration for the bioRxiv/medRxiv client.
type Config struct {
	// BaseURL overrides the API base URL, mainly for tests.
	BaseURL string

	// Server selects the preprint server, ServerBioRxiv or ServerMedRxiv.
	Server string

	// Lookback is the date window used when a search has no date range.
	Lookback time.Duration

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
	if c.Server == "" {
		c.Server = ServerBioRxiv
	}
	if c.Lookback == 0 {
		c.Lookback = DefaultLookback
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
}

// Client implements papersources.PaperSource for one preprint server.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

var _ papersources.PaperSource = (*Client)(nil)

// New creates a bioRxiv or medRxiv client.
func New(cfg Config) (*Client, error) {
	cfg.applyDefaults()

	if _, ok := displayName[cfg.Server]; !ok {
		return nil, fmt.Errorf("%s: unknown preprint server %q", cfg.Server, cfg.Server)
	}

	httpClient, err := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		UserAgent: "paper-ladder/1.0",
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Server, err)
	}

	return &Client{config: cfg, httpClient: httpClient}, nil
}

// Name returns the registry key, the configured server name.
func (c *Client) Name() string { return c.config.Server }

// Pagination declares offset paging in the vendor's fixed 100-entry
// batches.
func (c *Client) Pagination() papersources.PageSpec {
	return papersources.PageSpec{
		Kind:         papersources.PageKindOffset,
		MaxBatchSize: MaxBatchSize,
	}
}

// IsEnabled reports whether this source is enabled.
func (c *Client) IsEnabled() bool { return c.config.Enabled }

// Search fetches one batch of the date window and filters it by the query
// locally. TotalResults and the offset count window entries, not matches,
// because that is the granularity the vendor cursor moves in.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	start := time.Now()

	from, to := c.dateWindow(params)
	u := fmt.Sprintf("%s/details/%s/%s/%s/%d", c.config.BaseURL, c.config.Server, from, to, params.Offset)

	detailsResp, err := c.fetch(ctx, u)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(params.Query))
	papers := make([]*domain.Paper, 0, len(detailsResp.Collection))
	for i := range detailsResp.Collection {
		entry := &detailsResp.Collection[i]
		if !matchesQuery(entry, query) {
			continue
		}
		if paper := c.entryToPaper(entry); paper != nil {
			papers = append(papers, paper)
		}
	}

	var total int
	if len(detailsResp.Messages) > 0 {
		total = detailsResp.Messages[0].Total
	}
	nextOffset := params.Offset + len(detailsResp.Collection)

	return &papersources.SearchResult{
		Papers:         papers,
		TotalResults:   total,
		HasMore:        len(detailsResp.Collection) > 0 && nextOffset < total,
		NextOffset:     nextOffset,
		Source:         c.config.Server,
		SearchDuration: time.Since(start),
	}, nil
}

// GetByID fetches a single preprint by DOI.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	doi := id
	if normalized := domain.NormalizeDOI(id); strings.HasPrefix(normalized, "10.") {
		doi = normalized
	}

	// The API takes the DOI's slash literally in the path.
	detailsResp, err := c.fetch(ctx, c.config.BaseURL+"/details/"+c.config.Server+"/"+doi)
	if err != nil {
		return nil, err
	}
	if len(detailsResp.Collection) == 0 {
		return nil, domain.NewNotFoundError(c.config.Server, id)
	}
	paper := c.entryToPaper(&detailsResp.Collection[0])
	if paper == nil {
		return nil, domain.NewNotFoundError(c.config.Server, id)
	}
	return paper, nil
}

func (c *Client) fetch(ctx context.Context, u string) (*DetailsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, papersources.WrapTransportError(c.config.Server, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, papersources.NewAPIError(c.config.Server, resp)
	}

	var detailsResp DetailsResponse
	if err := json.NewDecoder(papersources.LimitBody(resp)).Decode(&detailsResp); err != nil {
		return nil, &domain.MalformedResponseError{Source: c.config.Server, Cause: err}
	}
	return &detailsResp, nil
}

// dateWindow resolves the search's date range, falling back to the
// configured lookback ending now.
func (c *Client) dateWindow(params papersources.SearchParams) (string, string) {
	now := time.Now()
	from := now.Add(-c.config.Lookback)
	to := now
	if params.DateFrom != nil {
		from = *params.DateFrom
	}
	if params.DateTo != nil {
		to = *params.DateTo
	}
	return from.Format("2006-01-02"), to.Format("2006-01-02")
}

// matchesQuery reports whether a preprint matches the free-text query in
// title, abstract, or author list. An empty query matches everything.
func matchesQuery(entry *Entry, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(entry.Title), query) ||
		strings.Contains(strings.ToLower(entry.Abstract), query) ||
		strings.Contains(strings.ToLower(entry.Authors), query)
}

// entryToPaper maps a preprint record to the canonical record. Returns nil
// for entries without a usable title.
func (c *Client) entryToPaper(entry *Entry) *domain.Paper {
	title := domain.CleanText(entry.Title)
	if title == "" {
		return nil
	}

	authors := parseAuthors(entry.Authors)

	venue := displayName[c.config.Server]
	if entry.Category != "" {
		venue += " - " + entry.Category
	}

	var landing, pdfURL string
	doi := domain.NormalizeDOI(entry.DOI)
	if doi != "" {
		site := "https://www." + c.config.Server + ".org/content/"
		landing = site + doi
		pdfURL = site + doi + ".full.pdf"
	}

	raw := map[string]interface{}{
		"server": c.config.Server,
	}
	if entry.Category != "" {
		raw["category"] = entry.Category
	}
	if entry.Version != "" {
		raw["version"] = entry.Version
	}
	if entry.Published != "" && entry.Published != "NA" {
		raw["published_doi"] = domain.NormalizeDOI(entry.Published)
	}

	return &domain.Paper{
		Title:      title,
		Authors:    authors,
		Abstract:   domain.CleanText(entry.Abstract),
		DOI:        doi,
		Year:       domain.ExtractYear(entry.Date),
		Venue:      venue,
		URL:        landing,
		PDFURL:     pdfURL,
		Source:     c.config.Server,
		OpenAccess: domain.OpenAccessFlag(true),
		RawData:    raw,
	}
}

// parseAuthors splits the vendor's author string. Entries are separated by
// semicolons with names in "Surname, G." form; some records use plain
// comma separation instead.
func parseAuthors(s string) []domain.Author {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	sep := ","
	if strings.Contains(s, ";") {
		sep = ";"
	}

	parts := strings.Split(s, sep)
	authors := make([]domain.Author, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			authors = append(authors, domain.Author{Name: name})
		}
	}
	return authors
}
