// Package pubmed implements the NCBI E-utilities API as a paper source.
// Searching is a two-step protocol: esearch.fcgi resolves a query to
// PMIDs, esummary.fcgi resolves PMIDs to metadata. The retstart offset
// cannot reach past position 9,998.
package pubmed

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
	Name = "pubmed"

	// DefaultBaseURL is the default E-utilities base URL.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultRateLimit is the default requests per second. NCBI allows
	// 3 req/s without an API key and 10 req/s with one.
	DefaultRateLimit = 3.0

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxBatchSize is the largest retmax value worth sending.
	MaxBatchSize = 100

	// MaxOffset is the deepest retstart position esearch will serve.
	MaxOffset = 9998
)

// Config holds configuration for the PubMed client.
type Config struct {
	// BaseURL overrides the API base URL, mainly for tests.
	BaseURL string

	// APIKey is the optional NCBI API key, passed as a query parameter.
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
		if c.APIKey != "" {
			c.RateLimit = 10.0
		}
	}
}

// Client implements papersources.PaperSource for PubMed.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

var _ papersources.PaperSource = (*Client)(nil)

// New creates a PubMed client.
func New(cfg Config) (*Client, error) {
	cfg.applyDefaults()

	httpClient, err := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		UserAgent: "paper-ladder/1.0",
	})
	if err != nil {
		return nil, fmt.Errorf("pubmed: %w", err)
	}

	return &Client{config: cfg, httpClient: httpClient}, nil
}

// Name returns the registry key.
func (c *Client) Name() string { return Name }

// Pagination declares offset paging with the esearch depth limit.
func (c *Client) Pagination() papersources.PageSpec {
	return papersources.PageSpec{
		Kind:         papersources.PageKindOffset,
		MaxBatchSize: MaxBatchSize,
		MaxOffset:    MaxOffset,
	}
}

// IsEnabled reports whether this source is enabled.
func (c *Client) IsEnabled() bool { return c.config.Enabled }

// Search resolves the query to PMIDs and then fetches their summaries.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	start := time.Now()

	searchResult, err := c.esearch(ctx, params)
	if err != nil {
		return nil, err
	}

	total, _ := strconv.Atoi(searchResult.Count)
	if len(searchResult.IDList) == 0 {
		return &papersources.SearchResult{
			Papers:         []*domain.Paper{},
			TotalResults:   total,
			Source:         Name,
			SearchDuration: time.Since(start),
		}, nil
	}

	papers, err := c.esummary(ctx, searchResult.IDList)
	if err != nil {
		return nil, err
	}

	nextOffset := params.Offset + len(searchResult.IDList)
	return &papersources.SearchResult{
		Papers:         papers,
		TotalResults:   total,
		HasMore:        nextOffset < total,
		NextOffset:     nextOffset,
		Source:         Name,
		SearchDuration: time.Since(start),
	}, nil
}

// GetByID fetches a single paper by PMID.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	pmid := strings.TrimPrefix(id, "pmid:")
	papers, err := c.esummary(ctx, []string{pmid})
	if err != nil {
		return nil, err
	}
	if len(papers) == 0 {
		return nil, domain.NewNotFoundError(Name, id)
	}
	return papers[0], nil
}

func (c *Client) esearch(ctx context.Context, params papersources.SearchParams) (*ESearchResult, error) {
	query := url.Values{}
	query.Set("db", "pubmed")
	query.Set("term", c.buildTerm(params))
	query.Set("retmode", "json")

	size := params.MaxResults
	if size <= 0 || size > MaxBatchSize {
		size = MaxBatchSize
	}
	query.Set("retmax", strconv.Itoa(size))
	if params.Offset > 0 {
		query.Set("retstart", strconv.Itoa(params.Offset))
	}
	if c.config.APIKey != "" {
		query.Set("api_key", c.config.APIKey)
	}

	var resp ESearchResponse
	if err := c.getJSON(ctx, c.config.BaseURL+"/esearch.fcgi?"+query.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp.Result, nil
}

func (c *Client) esummary(ctx context.Context, pmids []string) ([]*domain.Paper, error) {
	query := url.Values{}
	query.Set("db", "pubmed")
	query.Set("id", strings.Join(pmids, ","))
	query.Set("retmode", "json")
	if c.config.APIKey != "" {
		query.Set("api_key", c.config.APIKey)
	}

	var resp ESummaryResponse
	if err := c.getJSON(ctx, c.config.BaseURL+"/esummary.fcgi?"+query.Encode(), &resp); err != nil {
		return nil, err
	}

	// Preserve the uid ordering rather than ranging over the map.
	order := resp.Result.UIDs
	if len(order) == 0 {
		order = pmids
	}
	papers := make([]*domain.Paper, 0, len(order))
	for _, uid := range order {
		summary, ok := resp.Result.Summaries[uid]
		if !ok {
			continue
		}
		if paper := summaryToPaper(&summary); paper != nil {
			papers = append(papers, paper)
		}
	}
	return papers, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return papersources.WrapTransportError(Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return papersources.NewAPIError(Name, resp)
	}
	if err := json.NewDecoder(papersources.LimitBody(resp)).Decode(out); err != nil {
		return &domain.MalformedResponseError{Source: Name, Cause: err}
	}
	return nil
}

func (c *Client) buildTerm(params papersources.SearchParams) string {
	term := params.Query
	if params.DateFrom != nil || params.DateTo != nil {
		from, to := "1800/01/01", "3000/12/31"
		if params.DateFrom != nil {
			from = params.DateFrom.Format("2006/01/02")
		}
		if params.DateTo != nil {
			to = params.DateTo.Format("2006/01/02")
		}
		term += fmt.Sprintf(" AND (%s:%s[pdat])", from, to)
	}
	if params.OpenAccessOnly {
		term += " AND free full text[filter]"
	}
	return term
}

// summaryToPaper maps an esummary record to the canonical record.
// Returns nil for records without a usable title.
func summaryToPaper(summary *DocSummary) *domain.Paper {
	title := domain.CleanText(summary.Title)
	if title == "" {
		return nil
	}

	authors := make([]domain.Author, 0, len(summary.Authors))
	for _, a := range summary.Authors {
		if a.Name == "" {
			continue
		}
		authors = append(authors, domain.Author{Name: a.Name})
	}

	var doi, pmcID string
	for _, aid := range summary.ArticleIDs {
		switch aid.IDType {
		case "doi":
			doi = aid.Value
		case "pmc":
			pmcID = aid.Value
		}
	}
	if doi == "" && strings.HasPrefix(summary.ELocationID, "doi: ") {
		doi = strings.TrimPrefix(summary.ELocationID, "doi: ")
	}

	year := domain.ExtractYear(summary.PubDate)
	if year == 0 {
		year = domain.ExtractYear(summary.EPubDate)
	}

	venue := summary.FullJournal
	if venue == "" {
		venue = summary.Source
	}

	raw := map[string]interface{}{
		"pmid": summary.UID,
	}
	if pmcID != "" {
		raw["pmc_id"] = pmcID
	}

	var pdfURL string
	var openAccess *bool
	if pmcID != "" {
		pdfURL = "https://www.ncbi.nlm.nih.gov/pmc/articles/" + pmcID + "/pdf/"
		openAccess = domain.OpenAccessFlag(true)
	}

	return &domain.Paper{
		Title:      title,
		Authors:    authors,
		DOI:        domain.NormalizeDOI(doi),
		Year:       year,
		Venue:      venue,
		URL:        "https://pubmed.ncbi.nlm.nih.gov/" + summary.UID + "/",
		PDFURL:     pdfURL,
		Source:     Name,
		OpenAccess: openAccess,
		Keywords:   summary.PubType,
		RawData:    raw,
	}
}
