// Package doaj implements the Directory of Open Access Journals article
// search API as a paper source. The API pages by page number, so the
// byte offset is translated to page/pageSize pairs; requests are only
// aligned when the offset is a multiple of the page size, which the
// paginator guarantees by always asking for full batches. Result depth
// is capped at 10,000.
package doaj

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
	"github.com/SteadfastAsArt/paper-ladder/internal/papersources"
)

const (
	// Name is this source's registry key.
	Name = "doaj"

	// DefaultBaseURL is the default DOAJ API base URL.
	DefaultBaseURL = "https://doaj.org/api"

	// DefaultRateLimit is the default requests per second.
	DefaultRateLimit = 2.0

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxBatchSize is the largest pageSize value DOAJ accepts.
	MaxBatchSize = 100

	// MaxOffset is the deepest position the search index will serve.
	MaxOffset = 10000
)

// Config holds configuration for the DOAJ client.
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

// Client implements papersources.PaperSource for DOAJ.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

var _ papersources.PaperSource = (*Client)(nil)

// New creates a DOAJ client.
func New(cfg Config) (*Client, error) {
	cfg.applyDefaults()

	httpClient, err := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		UserAgent: "paper-ladder/1.0",
	})
	if err != nil {
		return nil, fmt.Errorf("doaj: %w", err)
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

// Search performs one page fetch against /search/articles/{query}.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	start := time.Now()

	size := params.MaxResults
	if size <= 0 || size > MaxBatchSize {
		size = MaxBatchSize
	}
	page := params.Offset/size + 1

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(size))

	u := c.config.BaseURL + "/search/articles/" + url.PathEscape(c.buildQuery(params)) + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
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

	papers := make([]*domain.Paper, 0, len(searchResp.Results))
	for i := range searchResp.Results {
		if paper := recordToPaper(&searchResp.Results[i]); paper != nil {
			papers = append(papers, paper)
		}
	}

	nextOffset := params.Offset + len(searchResp.Results)
	return &papersources.SearchResult{
		Papers:         papers,
		TotalResults:   searchResp.Total,
		HasMore:        len(searchResp.Results) > 0 && nextOffset < searchResp.Total,
		NextOffset:     nextOffset,
		Source:         Name,
		SearchDuration: time.Since(start),
	}, nil
}

// GetByID fetches a single article by DOAJ article ID.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	u := c.config.BaseURL + "/articles/" + url.PathEscape(id)
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

	var record Record
	if err := json.NewDecoder(papersources.LimitBody(resp)).Decode(&record); err != nil {
		return nil, &domain.MalformedResponseError{Source: Name, Cause: err}
	}

	paper := recordToPaper(&record)
	if paper == nil {
		return nil, domain.NewNotFoundError(Name, id)
	}
	return paper, nil
}

// buildQuery expresses filters in DOAJ's Lucene-flavoured query syntax.
func (c *Client) buildQuery(params papersources.SearchParams) string {
	q := params.Query
	if params.DateFrom != nil || params.DateTo != nil {
		from, to := "*", "*"
		if params.DateFrom != nil {
			from = strconv.Itoa(params.DateFrom.Year())
		}
		if params.DateTo != nil {
			to = strconv.Itoa(params.DateTo.Year())
		}
		q += fmt.Sprintf(" AND bibjson.year:[%s TO %s]", from, to)
	}
	return q
}

// recordToPaper maps a DOAJ record to the canonical record. Returns nil
// for records without a usable title. Everything in DOAJ is open access.
func recordToPaper(record *Record) *domain.Paper {
	bib := &record.BibJSON
	title := domain.CleanText(bib.Title)
	if title == "" {
		return nil
	}

	authors := make([]domain.Author, 0, len(bib.Author))
	for _, a := range bib.Author {
		if a.Name == "" {
			continue
		}
		authors = append(authors, domain.Author{
			Name:        a.Name,
			Affiliation: a.Affiliation,
			ORCID:       a.ORCID,
		})
	}

	var doi string
	for _, ident := range bib.Identifier {
		if ident.Type == "doi" {
			doi = ident.ID
			break
		}
	}

	var landing, pdfURL string
	for _, link := range bib.Link {
		if link.Type != "fulltext" {
			continue
		}
		if landing == "" {
			landing = link.URL
		}
		if link.ContentType == "PDF" || domain.IsPDFURL(link.URL) {
			pdfURL = link.URL
		}
	}

	keywords := append([]string(nil), bib.Keywords...)
	for _, subject := range bib.Subject {
		if subject.Term != "" {
			keywords = append(keywords, subject.Term)
		}
	}

	var venue string
	if bib.Journal != nil {
		venue = bib.Journal.Title
	}

	year, _ := strconv.Atoi(bib.Year)

	return &domain.Paper{
		Title:      title,
		Authors:    authors,
		Abstract:   domain.CleanText(bib.Abstract),
		DOI:        domain.NormalizeDOI(doi),
		Year:       year,
		Venue:      venue,
		URL:        landing,
		PDFURL:     pdfURL,
		Source:     Name,
		OpenAccess: domain.OpenAccessFlag(true),
		Keywords:   keywords,
		RawData: map[string]interface{}{
			"doaj_id": record.ID,
		},
	}
}
