// Package semanticscholar implements the Semantic Scholar Graph API as a
// paper source. The relevance-search endpoint is offset paginated and
// refuses to look past the first 10,000 results, so offset+limit is
// capped at 9,999.
package semanticscholar

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
	Name = "semanticscholar"

	// DefaultBaseURL is the default Graph API base URL.
	DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultRateLimit is the default requests per second. Unauthenticated
	// clients share a pool of roughly 1 req/s.
	DefaultRateLimit = 1.0

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxBatchSize is the largest limit value the search endpoint accepts.
	MaxBatchSize = 100

	// MaxOffset is the deepest position the search endpoint will serve.
	MaxOffset = 9999

	// MaxLinkBatchSize is the largest limit the citations and references
	// endpoints accept per request.
	MaxLinkBatchSize = 1000

	searchFields = "paperId,title,abstract,year,venue,url,citationCount,referenceCount,isOpenAccess,openAccessPdf,fieldsOfStudy,externalIds,authors,publicationDate"
)

// Config holds configuration for the Semantic Scholar client.
type Config struct {
	// BaseURL overrides the API base URL, mainly for tests.
	BaseURL string

	// APIKey is the optional x-api-key credential. Keyed clients get a
	// dedicated rate limit.
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

// Client implements papersources.PaperSource for Semantic Scholar.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

var _ papersources.PaperSource = (*Client)(nil)

// New creates a Semantic Scholar client.
func New(cfg Config) (*Client, error) {
	cfg.applyDefaults()

	httpClient, err := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:      cfg.Timeout,
		RateLimit:    cfg.RateLimit,
		UserAgent:    "paper-ladder/1.0",
		APIKey:       cfg.APIKey,
		APIKeyHeader: "x-api-key",
	})
	if err != nil {
		return nil, fmt.Errorf("semanticscholar: %w", err)
	}

	return &Client{config: cfg, httpClient: httpClient}, nil
}

// Name returns the registry key.
func (c *Client) Name() string { return Name }

// Pagination declares offset paging with the 10k-result window.
func (c *Client) Pagination() papersources.PageSpec {
	return papersources.PageSpec{
		Kind:         papersources.PageKindOffset,
		MaxBatchSize: MaxBatchSize,
		MaxOffset:    MaxOffset,
	}
}

// IsEnabled reports whether this source is enabled.
func (c *Client) IsEnabled() bool { return c.config.Enabled }

// Search performs one offset-paginated fetch against /paper/search.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(params), nil)
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

	papers := make([]*domain.Paper, 0, len(searchResp.Data))
	for i := range searchResp.Data {
		if paper := recordToPaper(&searchResp.Data[i]); paper != nil {
			papers = append(papers, paper)
		}
	}

	nextOffset := searchResp.Offset + len(searchResp.Data)
	return &papersources.SearchResult{
		Papers:         papers,
		TotalResults:   searchResp.Total,
		HasMore:        searchResp.Next > 0 && nextOffset < searchResp.Total,
		NextOffset:     nextOffset,
		Source:         Name,
		SearchDuration: time.Since(start),
	}, nil
}

// GetByID fetches a single paper. The endpoint accepts Semantic Scholar
// IDs as well as prefixed external identifiers such as DOI:... and
// arXiv:....
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	paperID := id
	if strings.HasPrefix(id, "10.") {
		paperID = "DOI:" + id
	}

	u := c.config.BaseURL + "/paper/" + url.PathEscape(paperID) + "?fields=" + url.QueryEscape(searchFields)
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

	var record Paper
	if err := json.NewDecoder(papersources.LimitBody(resp)).Decode(&record); err != nil {
		return nil, &domain.MalformedResponseError{Source: Name, Cause: err}
	}

	paper := recordToPaper(&record)
	if paper == nil {
		return nil, domain.NewNotFoundError(Name, id)
	}
	return paper, nil
}

// Citations lists the papers citing the given paper, newest-indexed
// first. Accepts the same identifier forms as GetByID.
func (c *Client) Citations(ctx context.Context, id string, limit int) ([]*domain.Paper, error) {
	var citResp CitationsResponse
	if err := c.fetchLinks(ctx, id, "citations", limit, &citResp); err != nil {
		return nil, err
	}

	papers := make([]*domain.Paper, 0, len(citResp.Data))
	for i := range citResp.Data {
		if paper := recordToPaper(&citResp.Data[i].CitingPaper); paper != nil {
			papers = append(papers, paper)
		}
	}
	return papers, nil
}

// References lists the papers the given paper cites.
func (c *Client) References(ctx context.Context, id string, limit int) ([]*domain.Paper, error) {
	var refResp ReferencesResponse
	if err := c.fetchLinks(ctx, id, "references", limit, &refResp); err != nil {
		return nil, err
	}

	papers := make([]*domain.Paper, 0, len(refResp.Data))
	for i := range refResp.Data {
		if paper := recordToPaper(&refResp.Data[i].CitedPaper); paper != nil {
			papers = append(papers, paper)
		}
	}
	return papers, nil
}

func (c *Client) fetchLinks(ctx context.Context, id, endpoint string, limit int, out interface{}) error {
	paperID := id
	if strings.HasPrefix(id, "10.") {
		paperID = "DOI:" + id
	}
	if limit <= 0 || limit > MaxLinkBatchSize {
		limit = MaxLinkBatchSize
	}

	query := url.Values{}
	query.Set("fields", searchFields)
	query.Set("limit", strconv.Itoa(limit))

	u := c.config.BaseURL + "/paper/" + url.PathEscape(paperID) + "/" + endpoint + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return papersources.WrapTransportError(Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.NewNotFoundError(Name, id)
	}
	if resp.StatusCode != http.StatusOK {
		return papersources.NewAPIError(Name, resp)
	}

	if err := json.NewDecoder(papersources.LimitBody(resp)).Decode(out); err != nil {
		return &domain.MalformedResponseError{Source: Name, Cause: err}
	}
	return nil
}

func (c *Client) searchURL(params papersources.SearchParams) string {
	query := url.Values{}
	query.Set("query", params.Query)
	query.Set("fields", searchFields)

	size := params.MaxResults
	if size <= 0 || size > MaxBatchSize {
		size = MaxBatchSize
	}
	query.Set("limit", strconv.Itoa(size))
	if params.Offset > 0 {
		query.Set("offset", strconv.Itoa(params.Offset))
	}

	if params.DateFrom != nil || params.DateTo != nil {
		from, to := "", ""
		if params.DateFrom != nil {
			from = params.DateFrom.Format("2006-01-02")
		}
		if params.DateTo != nil {
			to = params.DateTo.Format("2006-01-02")
		}
		query.Set("publicationDateOrYear", from+":"+to)
	}
	if params.OpenAccessOnly {
		query.Set("openAccessPdf", "")
	}
	if params.MinCitations > 0 {
		query.Set("minCitationCount", strconv.Itoa(params.MinCitations))
	}
	if fields, ok := params.Filters["fieldsOfStudy"]; ok {
		query.Set("fieldsOfStudy", fields)
	}

	return c.config.BaseURL + "/paper/search?" + query.Encode()
}

// recordToPaper maps a Semantic Scholar record to the canonical record.
// Returns nil for records without a usable title.
func recordToPaper(record *Paper) *domain.Paper {
	if record.Title == "" {
		return nil
	}

	authors := make([]domain.Author, 0, len(record.Authors))
	for _, a := range record.Authors {
		authors = append(authors, domain.Author{Name: a.Name})
	}

	var pdfURL string
	if record.OpenAccessPDF != nil {
		pdfURL = record.OpenAccessPDF.URL
	}

	year := record.Year
	if year == 0 {
		year = domain.ExtractYear(record.PublicationDate)
	}

	raw := map[string]interface{}{
		"paper_id": record.PaperID,
	}
	if record.ExternalIDs.ArXiv != "" {
		raw["arxiv_id"] = record.ExternalIDs.ArXiv
	}
	if record.ExternalIDs.PubMed != "" {
		raw["pubmed_id"] = record.ExternalIDs.PubMed
	}

	return &domain.Paper{
		Title:          domain.CleanText(record.Title),
		Authors:        authors,
		Abstract:       domain.CleanText(record.Abstract),
		DOI:            domain.NormalizeDOI(record.ExternalIDs.DOI),
		Year:           year,
		Venue:          record.Venue,
		URL:            record.URL,
		PDFURL:         pdfURL,
		Source:         Name,
		CitationCount:  record.CitationCount,
		ReferenceCount: record.ReferenceCount,
		OpenAccess:     domain.OpenAccessFlag(record.IsOpenAccess),
		Keywords:       record.FieldsOfStudy,
		RawData:        raw,
	}
}
