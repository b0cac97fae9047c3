// Package openalex implements the OpenAlex works API as a paper source.
// OpenAlex uses cursor pagination: every response carries a next_cursor
// that continues the result set, with no depth ceiling.
package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
	"github.com/SteadfastAsArt/paper-ladder/internal/papersources"
)

const (
	// Name is this source's registry key.
	Name = "openalex"

	// DefaultBaseURL is the default OpenAlex API base URL.
	DefaultBaseURL = "https://api.openalex.org"

	// DefaultRateLimit is the default requests per second. The polite pool
	// (requests carrying a mailto) allows 10 req/s.
	DefaultRateLimit = 10.0

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxBatchSize is the largest per_page value OpenAlex accepts.
	MaxBatchSize = 200

	doiPrefix = "https://doi.org/"
	idPrefix  = "https://openalex.org/"
)

// Config holds configuration for the OpenAlex client.
type Config struct {
	// BaseURL overrides the API base URL, mainly for tests.
	BaseURL string

	// Email is the contact address for the polite pool. Strongly
	// recommended; anonymous requests get a lower rate limit.
	Email string

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

// Client implements papersources.PaperSource for OpenAlex.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

var _ papersources.PaperSource = (*Client)(nil)

// New creates an OpenAlex client.
func New(cfg Config) (*Client, error) {
	cfg.applyDefaults()

	userAgent := "paper-ladder/1.0"
	if cfg.Email != "" {
		userAgent += " (mailto:" + cfg.Email + ")"
	}
	httpClient, err := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		UserAgent: userAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("openalex: %w", err)
	}

	return &Client{config: cfg, httpClient: httpClient}, nil
}

// Name returns the registry key.
func (c *Client) Name() string { return Name }

// Pagination declares cursor paging with no ceiling.
func (c *Client) Pagination() papersources.PageSpec {
	return papersources.PageSpec{
		Kind:         papersources.PageKindCursor,
		MaxBatchSize: MaxBatchSize,
	}
}

// IsEnabled reports whether this source is enabled.
func (c *Client) IsEnabled() bool { return c.config.Enabled }

// Search performs one cursor-paginated fetch against /works.
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

	papers := make([]*domain.Paper, 0, len(searchResp.Results))
	for i := range searchResp.Results {
		if paper := workToPaper(&searchResp.Results[i]); paper != nil {
			papers = append(papers, paper)
		}
	}

	return &papersources.SearchResult{
		Papers:         papers,
		TotalResults:   searchResp.Meta.Count,
		HasMore:        searchResp.Meta.NextCursor != "",
		NextCursor:     searchResp.Meta.NextCursor,
		Source:         Name,
		SearchDuration: time.Since(start),
	}, nil
}

// GetByID fetches a single work by OpenAlex ID or DOI.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.workURL(id), nil)
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

func (c *Client) searchURL(params papersources.SearchParams) string {
	query := url.Values{}
	query.Set("search", params.Query)

	size := params.MaxResults
	if size <= 0 || size > MaxBatchSize {
		size = MaxBatchSize
	}
	query.Set("per_page", strconv.Itoa(size))

	cursor := params.Cursor
	if cursor == "" {
		cursor = "*"
	}
	query.Set("cursor", cursor)

	if filters := buildFilters(params); len(filters) > 0 {
		query.Set("filter", strings.Join(filters, ","))
	}
	if c.config.Email != "" {
		query.Set("mailto", c.config.Email)
	}

	return c.config.BaseURL + "/works?" + query.Encode()
}

func (c *Client) workURL(id string) string {
	workID := id
	switch {
	case strings.HasPrefix(id, idPrefix):
		workID = strings.TrimPrefix(id, idPrefix)
	case strings.HasPrefix(id, "10."):
		workID = doiPrefix + id
	case strings.HasPrefix(id, "doi:"):
		workID = doiPrefix + strings.TrimPrefix(id, "doi:")
	}

	u := c.config.BaseURL + "/works/" + workID
	if c.config.Email != "" {
		u += "?mailto=" + url.QueryEscape(c.config.Email)
	}
	return u
}

func buildFilters(params papersources.SearchParams) []string {
	var filters []string
	if params.DateFrom != nil {
		filters = append(filters, "from_publication_date:"+params.DateFrom.Format("2006-01-02"))
	}
	if params.DateTo != nil {
		filters = append(filters, "to_publication_date:"+params.DateTo.Format("2006-01-02"))
	}
	if params.OpenAccessOnly {
		filters = append(filters, "is_oa:true")
	}
	if params.MinCitations > 0 {
		filters = append(filters, fmt.Sprintf("cited_by_count:>%d", params.MinCitations-1))
	}
	if extra, ok := params.Filters["filter"]; ok {
		filters = append(filters, extra)
	}
	return filters
}

// workToPaper maps an OpenAlex work to the canonical record. Returns nil
// for works without a usable title.
func workToPaper(work *Work) *domain.Paper {
	title := work.DisplayName
	if title == "" {
		title = work.Title
	}
	if title == "" {
		return nil
	}

	authors := make([]domain.Author, 0, len(work.Authorships))
	for _, as := range work.Authorships {
		author := domain.Author{
			Name:  as.Author.DisplayName,
			ORCID: strings.TrimPrefix(as.Author.Orcid, "https://orcid.org/"),
		}
		if len(as.Institutions) > 0 {
			author.Affiliation = as.Institutions[0].DisplayName
		}
		authors = append(authors, author)
	}

	keywords := make([]string, 0, len(work.Keywords))
	for _, kw := range work.Keywords {
		if kw.DisplayName != "" {
			keywords = append(keywords, kw.DisplayName)
		}
	}

	var venue, landing, pdfURL string
	if work.PrimaryLocation != nil {
		landing = work.PrimaryLocation.LandingPageURL
		pdfURL = work.PrimaryLocation.PDFURL
		if work.PrimaryLocation.Source != nil {
			venue = work.PrimaryLocation.Source.DisplayName
		}
	}

	var openAccess *bool
	if work.OpenAccess != nil {
		openAccess = domain.OpenAccessFlag(work.OpenAccess.IsOA)
		if pdfURL == "" && work.OpenAccess.OAURL != "" {
			pdfURL = work.OpenAccess.OAURL
		}
	}

	year := work.PublicationYear
	if year == 0 {
		year = domain.ExtractYear(work.PublicationDate)
	}

	return &domain.Paper{
		Title:          domain.CleanText(title),
		Authors:        authors,
		Abstract:       invertedIndexToText(work.AbstractInvertedIndex),
		DOI:            domain.NormalizeDOI(work.DOI),
		Year:           year,
		Venue:          venue,
		URL:            landing,
		PDFURL:         pdfURL,
		Source:         Name,
		CitationCount:  work.CitedByCount,
		ReferenceCount: len(work.ReferencedWorks),
		OpenAccess:     openAccess,
		Keywords:       keywords,
		RawData: map[string]interface{}{
			"openalex_id": strings.TrimPrefix(work.ID, idPrefix),
			"type":        work.Type,
		},
	}
}

// invertedIndexToText rebuilds the abstract from OpenAlex's inverted index
// (word -> positions).
func invertedIndexToText(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}

	// Guard against hostile payloads with absurd position counts.
	const maxWords = 100_000
	total := 0
	for _, positions := range index {
		total += len(positions)
	}
	if total > maxWords {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	words := make([]posWord, 0, total)
	for word, positions := range index {
		for _, pos := range positions {
			words = append(words, posWord{pos, word})
		}
	}
	sort.Slice(words, func(i, j int) bool { return words[i].pos < words[j].pos })

	var sb strings.Builder
	for i, w := range words {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(w.word)
	}
	return sb.String()
}
