// Package crossref implements the Crossref REST API as a paper source.
// Crossref deep-pages with server-issued cursors that expire after a few
// minutes of inactivity; a stale cursor comes back as HTTP 400 and is
// surfaced as a cursor-expired error so callers can restart the walk.
package crossref

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
	Name = "crossref"

	// DefaultBaseURL is the default Crossref API base URL.
	DefaultBaseURL = "https://api.crossref.org"

	// DefaultRateLimit is the default requests per second for the polite
	// pool.
	DefaultRateLimit = 10.0

	// DefaultTimeout is the default request timeout. Crossref can be slow
	// on large rows values.
	DefaultTimeout = 60 * time.Second

	// MaxBatchSize is the largest rows value Crossref accepts.
	MaxBatchSize = 1000

	// initialCursor starts a fresh cursor walk.
	initialCursor = "*"
)

// Config holds configuration for the Crossref client.
type Config struct {
	// BaseURL overrides the API base URL, mainly for tests.
	BaseURL string

	// Email is the contact address for the polite pool.
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

// Client implements papersources.PaperSource for Crossref.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

var _ papersources.PaperSource = (*Client)(nil)

// New creates a Crossref client.
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
		return nil, fmt.Errorf("crossref: %w", err)
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

	if resp.StatusCode == http.StatusBadRequest && params.Cursor != "" && params.Cursor != initialCursor {
		return nil, &domain.CursorExpiredError{Source: Name, Cursor: params.Cursor}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, papersources.NewAPIError(Name, resp)
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(papersources.LimitBody(resp)).Decode(&searchResp); err != nil {
		return nil, &domain.MalformedResponseError{Source: Name, Cause: err}
	}

	papers := make([]*domain.Paper, 0, len(searchResp.Message.Items))
	for i := range searchResp.Message.Items {
		if paper := workToPaper(&searchResp.Message.Items[i]); paper != nil {
			papers = append(papers, paper)
		}
	}

	// Crossref keeps issuing cursors past the end of the set; an empty
	// page means the walk is done.
	nextCursor := searchResp.Message.NextCursor
	if len(searchResp.Message.Items) == 0 {
		nextCursor = ""
	}

	return &papersources.SearchResult{
		Papers:         papers,
		TotalResults:   searchResp.Message.TotalResults,
		HasMore:        nextCursor != "",
		NextCursor:     nextCursor,
		Source:         Name,
		SearchDuration: time.Since(start),
	}, nil
}

// GetByID fetches a single work by DOI.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	doi := domain.NormalizeDOI(id)
	if !strings.HasPrefix(doi, "10.") {
		return nil, fmt.Errorf("%w: crossref lookups require a DOI", domain.ErrInvalidInput)
	}

	u := c.config.BaseURL + "/works/" + url.PathEscape(doi)
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

	var workResp WorkResponse
	if err := json.NewDecoder(papersources.LimitBody(resp)).Decode(&workResp); err != nil {
		return nil, &domain.MalformedResponseError{Source: Name, Cause: err}
	}

	paper := workToPaper(&workResp.Message)
	if paper == nil {
		return nil, domain.NewNotFoundError(Name, id)
	}
	return paper, nil
}

func (c *Client) searchURL(params papersources.SearchParams) string {
	query := url.Values{}
	query.Set("query", params.Query)

	size := params.MaxResults
	if size <= 0 || size > MaxBatchSize {
		size = MaxBatchSize
	}
	query.Set("rows", strconv.Itoa(size))

	cursor := params.Cursor
	if cursor == "" {
		cursor = initialCursor
	}
	query.Set("cursor", cursor)

	var filters []string
	if params.DateFrom != nil {
		filters = append(filters, "from-pub-date:"+params.DateFrom.Format("2006-01-02"))
	}
	if params.DateTo != nil {
		filters = append(filters, "until-pub-date:"+params.DateTo.Format("2006-01-02"))
	}
	if params.OpenAccessOnly {
		filters = append(filters, "has-license:true")
	}
	if len(filters) > 0 {
		query.Set("filter", strings.Join(filters, ","))
	}
	if c.config.Email != "" {
		query.Set("mailto", c.config.Email)
	}

	return c.config.BaseURL + "/works?" + query.Encode()
}

// workToPaper maps a Crossref work to the canonical record. Returns nil
// for works without a usable title.
func workToPaper(work *Work) *domain.Paper {
	if len(work.Title) == 0 || work.Title[0] == "" {
		return nil
	}

	authors := make([]domain.Author, 0, len(work.Author))
	for _, a := range work.Author {
		name := a.Name
		if name == "" {
			name = strings.TrimSpace(a.Given + " " + a.Family)
		}
		author := domain.Author{
			Name:  name,
			ORCID: strings.TrimPrefix(a.ORCID, "http://orcid.org/"),
		}
		author.ORCID = strings.TrimPrefix(author.ORCID, "https://orcid.org/")
		if len(a.Affiliation) > 0 {
			author.Affiliation = a.Affiliation[0].Name
		}
		authors = append(authors, author)
	}

	var venue string
	if len(work.ContainerTitle) > 0 {
		venue = work.ContainerTitle[0]
	}

	year := work.Published.Year()
	if year == 0 {
		year = work.PublishedPrint.Year()
	}
	if year == 0 {
		year = work.PublishedOnline.Year()
	}

	var pdfURL string
	for _, link := range work.Link {
		if link.ContentType == "application/pdf" || domain.IsPDFURL(link.URL) {
			pdfURL = link.URL
			break
		}
	}

	var openAccess *bool
	if len(work.License) > 0 {
		openAccess = domain.OpenAccessFlag(true)
	}

	return &domain.Paper{
		Title:          domain.CleanText(work.Title[0]),
		Authors:        authors,
		Abstract:       domain.CleanText(work.Abstract),
		DOI:            domain.NormalizeDOI(work.DOI),
		Year:           year,
		Venue:          venue,
		URL:            work.URL,
		PDFURL:         pdfURL,
		Source:         Name,
		CitationCount:  work.IsReferencedByCount,
		ReferenceCount: work.ReferencesCount,
		OpenAccess:     openAccess,
		Keywords:       work.Subject,
		RawData: map[string]interface{}{
			"type": work.Type,
		},
	}
}
