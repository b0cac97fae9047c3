// Package europepmc implements the Europe PMC REST search API as a
// paper source. The API pages with cursorMark tokens: the first request
// passes "*", every response carries the nextCursorMark that continues
// the walk. A nextCursorMark equal to the request's cursorMark means
// the set is exhausted.
package europepmc

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
	Name = "europepmc"

	// DefaultBaseURL is the default Europe PMC REST base URL.
	DefaultBaseURL = "https://www.ebi.ac.uk/europepmc/webservices/rest"

	// DefaultRateLimit is the default requests per second.
	DefaultRateLimit = 5.0

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxBatchSize is the largest pageSize value the API accepts.
	MaxBatchSize = 1000

	// initialCursor starts a fresh cursorMark walk.
	initialCursor = "*"
)

// Config holds configuration for the Europe PMC client.
type Config struct {
	// BaseURL overrides the API base URL, mainly for tests.
	BaseURL string

	// Email is an optional contact address attached to requests.
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

// Client implements papersources.PaperSource for Europe PMC.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

var _ papersources.PaperSource = (*Client)(nil)

// New creates a Europe PMC client.
func New(cfg Config) (*Client, error) {
	cfg.applyDefaults()

	httpClient, err := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		UserAgent: "paper-ladder/1.0",
	})
	if err != nil {
		return nil, fmt.Errorf("europepmc: %w", err)
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

// Search performs one cursorMark fetch against /search.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	start := time.Now()

	cursorMark := params.Cursor
	if cursorMark == "" {
		cursorMark = initialCursor
	}

	searchResp, err := c.fetch(ctx, c.searchURL(params, cursorMark))
	if err != nil {
		return nil, err
	}

	papers := make([]*domain.Paper, 0, len(searchResp.ResultList.Result))
	for i := range searchResp.ResultList.Result {
		if paper := articleToPaper(&searchResp.ResultList.Result[i]); paper != nil {
			papers = append(papers, paper)
		}
	}

	// The cursor stalling on itself marks the end of the result set.
	nextCursor := searchResp.NextCursorMark
	if nextCursor == cursorMark || len(searchResp.ResultList.Result) == 0 {
		nextCursor = ""
	}

	return &papersources.SearchResult{
		Papers:         papers,
		TotalResults:   searchResp.HitCount,
		HasMore:        nextCursor != "",
		NextCursor:     nextCursor,
		Source:         Name,
		SearchDuration: time.Since(start),
	}, nil
}

// GetByID fetches a single article by Europe PMC ID, PMID, PMCID, or
// DOI, via an exact identifier query.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	var term string
	switch {
	case strings.HasPrefix(id, "PMC"):
		term = "PMCID:" + id
	case strings.HasPrefix(domain.NormalizeDOI(id), "10."):
		term = `DOI:"` + domain.NormalizeDOI(id) + `"`
	default:
		term = "EXT_ID:" + id
	}

	query := url.Values{}
	query.Set("query", term)
	query.Set("format", "json")
	query.Set("resultType", "core")
	query.Set("pageSize", "1")

	searchResp, err := c.fetch(ctx, c.config.BaseURL+"/search?"+query.Encode())
	if err != nil {
		return nil, err
	}
	if len(searchResp.ResultList.Result) == 0 {
		return nil, domain.NewNotFoundError(Name, id)
	}
	paper := articleToPaper(&searchResp.ResultList.Result[0])
	if paper == nil {
		return nil, domain.NewNotFoundError(Name, id)
	}
	return paper, nil
}

func (c *Client) fetch(ctx context.Context, u string) (*SearchResponse, error) {
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
	return &searchResp, nil
}

func (c *Client) searchURL(params papersources.SearchParams, cursorMark string) string {
	term := params.Query
	if params.DateFrom != nil || params.DateTo != nil {
		from, to := "1800-01-01", "3000-12-31"
		if params.DateFrom != nil {
			from = params.DateFrom.Format("2006-01-02")
		}
		if params.DateTo != nil {
			to = params.DateTo.Format("2006-01-02")
		}
		term += fmt.Sprintf(" AND FIRST_PDATE:[%s TO %s]", from, to)
	}
	if params.OpenAccessOnly {
		term += " AND OPEN_ACCESS:Y"
	}

	size := params.MaxResults
	if size <= 0 || size > MaxBatchSize {
		size = MaxBatchSize
	}

	query := url.Values{}
	query.Set("query", term)
	query.Set("format", "json")
	query.Set("resultType", "core")
	query.Set("pageSize", strconv.Itoa(size))
	query.Set("cursorMark", cursorMark)
	if c.config.Email != "" {
		query.Set("email", c.config.Email)
	}

	return c.config.BaseURL + "/search?" + query.Encode()
}

// articleToPaper maps a Europe PMC article to the canonical record.
// Returns nil for articles without a usable title.
func articleToPaper(article *Article) *domain.Paper {
	title := domain.CleanText(article.Title)
	if title == "" {
		return nil
	}

	var authors []domain.Author
	if article.AuthorList != nil {
		authors = make([]domain.Author, 0, len(article.AuthorList.Author))
		for _, a := range article.AuthorList.Author {
			if a.FullName == "" {
				continue
			}
			author := domain.Author{Name: a.FullName}
			if a.AuthorID != nil && a.AuthorID.Type == "ORCID" {
				author.ORCID = a.AuthorID.Value
			}
			authors = append(authors, author)
		}
	} else if article.AuthorString != "" {
		names := strings.Split(strings.TrimSuffix(article.AuthorString, "."), ", ")
		authors = make([]domain.Author, 0, len(names))
		for _, name := range names {
			if name = strings.TrimSpace(name); name != "" {
				authors = append(authors, domain.Author{Name: name})
			}
		}
	}

	var keywords []string
	if article.KeywordList != nil {
		keywords = article.KeywordList.Keyword
	}

	var pdfURL, landing string
	if article.FullTextURLList != nil {
		for _, ft := range article.FullTextURLList.FullTextURL {
			switch ft.DocumentStyle {
			case "pdf":
				if pdfURL == "" {
					pdfURL = ft.URL
				}
			case "html":
				if landing == "" {
					landing = ft.URL
				}
			}
		}
	}
	if landing == "" {
		landing = "https://europepmc.org/article/" + article.Source + "/" + article.ID
	}

	var openAccess *bool
	if article.IsOpenAccess != "" {
		openAccess = domain.OpenAccessFlag(article.IsOpenAccess == "Y")
	}

	year, _ := strconv.Atoi(article.PubYear)
	if year == 0 {
		year = domain.ExtractYear(article.FirstPublicationDate)
	}

	raw := map[string]interface{}{
		"europepmc_id": article.ID,
		"source_db":    article.Source,
	}
	if article.PMID != "" {
		raw["pmid"] = article.PMID
	}
	if article.PMCID != "" {
		raw["pmc_id"] = article.PMCID
	}

	return &domain.Paper{
		Title:         title,
		Authors:       authors,
		Abstract:      domain.CleanText(article.AbstractText),
		DOI:           domain.NormalizeDOI(article.DOI),
		Year:          year,
		Venue:         article.JournalTitle,
		URL:           landing,
		PDFURL:        pdfURL,
		Source:        Name,
		CitationCount: article.CitedByCount,
		OpenAccess:    openAccess,
		Keywords:      keywords,
		RawData:       raw,
	}
}
