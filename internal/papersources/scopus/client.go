// Package scopus implements the Elsevier Scopus search API as a paper
// source. Paging uses start/count offsets and subscription tiers cap
// the reachable depth at 5,000 results. Requests require an Elsevier
// API key in the X-ELS-APIKey header.
package scopus

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
	Name = "scopus"

	// DefaultBaseURL is the default Scopus API base URL.
	DefaultBaseURL = "https://api.elsevier.com/content"

	// DefaultRateLimit is the default requests per second for a standard
	// key.
	DefaultRateLimit = 2.0

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxBatchSize is the largest count value the search endpoint
	// accepts.
	MaxBatchSize = 25

	// MaxOffset is the deepest start position a standard subscription
	// will serve.
	MaxOffset = 5000

	apiKeyHeader = "X-ELS-APIKey"
)

// Config holds configuration for the Scopus client.
type Config struct {
	// BaseURL overrides the API base URL, mainly for tests.
	BaseURL string

	// APIKey is the required Elsevier API key.
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

// Client implements papersources.PaperSource for Scopus.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

var _ papersources.PaperSource = (*Client)(nil)

// New creates a Scopus client.
func New(cfg Config) (*Client, error) {
	cfg.applyDefaults()

	httpClient, err := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:      cfg.Timeout,
		RateLimit:    cfg.RateLimit,
		UserAgent:    "paper-ladder/1.0",
		APIKey:       cfg.APIKey,
		APIKeyHeader: apiKeyHeader,
	})
	if err != nil {
		return nil, fmt.Errorf("scopus: %w", err)
	}

	return &Client{config: cfg, httpClient: httpClient}, nil
}

// Name returns the registry key.
func (c *Client) Name() string { return Name }

// Pagination declares offset paging with the subscription depth limit.
func (c *Client) Pagination() papersources.PageSpec {
	return papersources.PageSpec{
		Kind:         papersources.PageKindOffset,
		MaxBatchSize: MaxBatchSize,
		MaxOffset:    MaxOffset,
	}
}

// IsEnabled reports whether this source is enabled. A missing API key
// disables the source since Scopus rejects anonymous requests.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled && c.config.APIKey != ""
}

// Search performs one offset-paginated fetch against /search/scopus.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(params), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

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

	entries := searchResp.SearchResults.Entries
	papers := make([]*domain.Paper, 0, len(entries))
	for i := range entries {
		if paper := entryToPaper(&entries[i]); paper != nil {
			papers = append(papers, paper)
		}
	}

	total, _ := strconv.Atoi(searchResp.SearchResults.TotalResults)
	nextOffset := params.Offset + len(entries)
	return &papersources.SearchResult{
		Papers:         papers,
		TotalResults:   total,
		HasMore:        len(entries) > 0 && nextOffset < total,
		NextOffset:     nextOffset,
		Source:         Name,
		SearchDuration: time.Since(start),
	}, nil
}

// GetByID fetches a single document by Scopus ID or DOI via an exact
// identifier query.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	var term string
	switch {
	case strings.HasPrefix(id, "SCOPUS_ID:"):
		term = "SCOPUS-ID(" + strings.TrimPrefix(id, "SCOPUS_ID:") + ")"
	case strings.HasPrefix(domain.NormalizeDOI(id), "10."):
		term = "DOI(" + domain.NormalizeDOI(id) + ")"
	default:
		term = "SCOPUS-ID(" + id + ")"
	}

	result, err := c.Search(ctx, papersources.SearchParams{
		Query:      term,
		MaxResults: 1,
		Filters:    map[string]string{"raw": "true"},
	})
	if err != nil {
		return nil, err
	}
	if len(result.Papers) == 0 {
		return nil, domain.NewNotFoundError(Name, id)
	}
	return result.Papers[0], nil
}

func (c *Client) searchURL(params papersources.SearchParams) string {
	term := params.Query
	// GetByID passes a prebuilt fielded query; plain searches wrap the
	// text in TITLE-ABS-KEY.
	if _, raw := params.Filters["raw"]; !raw {
		term = "TITLE-ABS-KEY(" + term + ")"
		if params.DateFrom != nil {
			term += " AND PUBYEAR > " + strconv.Itoa(params.DateFrom.Year()-1)
		}
		if params.DateTo != nil {
			term += " AND PUBYEAR < " + strconv.Itoa(params.DateTo.Year()+1)
		}
		if params.OpenAccessOnly {
			term += " AND OPENACCESS(1)"
		}
	}

	size := params.MaxResults
	if size <= 0 || size > MaxBatchSize {
		size = MaxBatchSize
	}

	query := url.Values{}
	query.Set("query", term)
	query.Set("count", strconv.Itoa(size))
	if params.Offset > 0 {
		query.Set("start", strconv.Itoa(params.Offset))
	}
	query.Set("view", "COMPLETE")

	return c.config.BaseURL + "/search/scopus?" + query.Encode()
}

// entryToPaper maps a Scopus entry to the canonical record. Returns nil
// for entries without a usable title.
func entryToPaper(entry *Entry) *domain.Paper {
	title := domain.CleanText(entry.Title)
	if title == "" {
		return nil
	}

	var authors []domain.Author
	if entry.Authors != nil {
		authors = make([]domain.Author, 0, len(entry.Authors.Authors))
		for _, a := range entry.Authors.Authors {
			name := strings.TrimSpace(a.GivenName + " " + a.Surname)
			if name == "" {
				name = a.Name
			}
			if name == "" {
				continue
			}
			authors = append(authors, domain.Author{Name: name, ORCID: a.ORCID})
		}
	} else if entry.Creator != "" {
		authors = []domain.Author{{Name: entry.Creator}}
	}

	var landing string
	for _, link := range entry.Links {
		if link.Ref == "scopus" {
			landing = link.Href
			break
		}
	}

	citedBy, _ := strconv.Atoi(entry.CitedByCount)

	raw := map[string]interface{}{
		"scopus_id": strings.TrimPrefix(entry.Identifier, "SCOPUS_ID:"),
		"eid":       entry.EID,
	}
	if entry.PubMedID != "" {
		raw["pubmed_id"] = entry.PubMedID
	}

	return &domain.Paper{
		Title:         title,
		Authors:       authors,
		Abstract:      domain.CleanText(entry.Description),
		DOI:           domain.NormalizeDOI(entry.DOI),
		Year:          domain.ExtractYear(entry.CoverDate),
		Venue:         entry.PublicationName,
		URL:           landing,
		Source:        Name,
		CitationCount: citedBy,
		OpenAccess:    domain.OpenAccessFlag(entry.OpenAccessFlag),
		RawData:       raw,
	}
}
