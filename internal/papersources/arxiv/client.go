// Package arxiv implements the arXiv query API as a paper source. The
// API speaks Atom XML and pages with start/max_results offsets; results
// past position 30,000 are not served.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
	"github.com/SteadfastAsArt/paper-ladder/internal/papersources"
)

const (
	// Name is this source's registry key.
	Name = "arxiv"

	// DefaultBaseURL is the default arXiv API base URL.
	DefaultBaseURL = "https://export.arxiv.org/api"

	// DefaultRateLimit is the default requests per second. arXiv asks
	// clients to stay around one request every three seconds.
	DefaultRateLimit = 0.33

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxBatchSize is the largest max_results value worth sending in a
	// single call.
	MaxBatchSize = 1000

	// MaxOffset is the deepest start position the API will serve.
	MaxOffset = 30000
)

// arxivIDRegex extracts the bare arXiv ID from an abs URL, with or
// without a version suffix.
var arxivIDRegex = regexp.MustCompile(`arxiv\.org/abs/(.+?)(?:v\d+)?$`)

// Config holds configuration for the arXiv client.
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

// Client implements papersources.PaperSource for arXiv.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

var _ papersources.PaperSource = (*Client)(nil)

// New creates an arXiv client.
func New(cfg Config) (*Client, error) {
	cfg.applyDefaults()

	httpClient, err := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		UserAgent: "paper-ladder/1.0",
	})
	if err != nil {
		return nil, fmt.Errorf("arxiv: %w", err)
	}

	return &Client{config: cfg, httpClient: httpClient}, nil
}

// Name returns the registry key.
func (c *Client) Name() string { return Name }

// Pagination declares offset paging with the 30k depth limit.
func (c *Client) Pagination() papersources.PageSpec {
	return papersources.PageSpec{
		Kind:         papersources.PageKindOffset,
		MaxBatchSize: MaxBatchSize,
		MaxOffset:    MaxOffset,
	}
}

// IsEnabled reports whether this source is enabled.
func (c *Client) IsEnabled() bool { return c.config.Enabled }

// Search performs one offset-paginated fetch against /query.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	start := time.Now()

	feed, err := c.fetchFeed(ctx, c.searchURL(params))
	if err != nil {
		return nil, err
	}

	papers := make([]*domain.Paper, 0, len(feed.Entries))
	for i := range feed.Entries {
		if paper := entryToPaper(&feed.Entries[i]); paper != nil {
			papers = append(papers, paper)
		}
	}

	nextOffset := params.Offset + len(feed.Entries)
	return &papersources.SearchResult{
		Papers:         papers,
		TotalResults:   feed.TotalResults,
		HasMore:        len(feed.Entries) > 0 && nextOffset < feed.TotalResults,
		NextOffset:     nextOffset,
		Source:         Name,
		SearchDuration: time.Since(start),
	}, nil
}

// GetByID fetches a single paper by arXiv ID via the id_list parameter.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	arxivID := strings.TrimPrefix(id, "arXiv:")
	if m := arxivIDRegex.FindStringSubmatch(arxivID); len(m) == 2 {
		arxivID = m[1]
	}

	query := url.Values{}
	query.Set("id_list", arxivID)
	feed, err := c.fetchFeed(ctx, c.config.BaseURL+"/query?"+query.Encode())
	if err != nil {
		return nil, err
	}

	if len(feed.Entries) == 0 {
		return nil, domain.NewNotFoundError(Name, id)
	}
	paper := entryToPaper(&feed.Entries[0])
	if paper == nil {
		return nil, domain.NewNotFoundError(Name, id)
	}
	return paper, nil
}

func (c *Client) fetchFeed(ctx context.Context, u string) (*Feed, error) {
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

	var feed Feed
	if err := xml.NewDecoder(papersources.LimitBody(resp)).Decode(&feed); err != nil {
		return nil, &domain.MalformedResponseError{Source: Name, Cause: err}
	}
	return &feed, nil
}

func (c *Client) searchURL(params papersources.SearchParams) string {
	searchQuery := "all:" + params.Query
	if params.DateFrom != nil || params.DateTo != nil {
		searchQuery += " AND " + dateFilter(params.DateFrom, params.DateTo)
	}
	if cat, ok := params.Filters["category"]; ok {
		searchQuery += " AND cat:" + cat
	}

	query := url.Values{}
	query.Set("search_query", searchQuery)

	size := params.MaxResults
	if size <= 0 || size > MaxBatchSize {
		size = MaxBatchSize
	}
	query.Set("max_results", strconv.Itoa(size))
	if params.Offset > 0 {
		query.Set("start", strconv.Itoa(params.Offset))
	}
	query.Set("sortBy", "relevance")
	query.Set("sortOrder", "descending")

	return c.config.BaseURL + "/query?" + query.Encode()
}

func dateFilter(from, to *time.Time) string {
	fromStr, toStr := "*", "*"
	if from != nil {
		fromStr = from.Format("20060102") + "0000"
	}
	if to != nil {
		toStr = to.Format("20060102") + "2359"
	}
	return fmt.Sprintf("submittedDate:[%s TO %s]", fromStr, toStr)
}

// entryToPaper maps an Atom entry to the canonical record. Returns nil
// for entries without a usable ID or title.
func entryToPaper(entry *Entry) *domain.Paper {
	matches := arxivIDRegex.FindStringSubmatch(entry.ID)
	if len(matches) < 2 {
		return nil
	}
	arxivID := matches[1]

	title := domain.CleanText(entry.Title)
	if title == "" {
		return nil
	}

	authors := make([]domain.Author, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		authors = append(authors, domain.Author{
			Name:        name,
			Affiliation: strings.TrimSpace(a.Affiliation),
		})
	}

	var year int
	if entry.Published != "" {
		if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
			year = t.Year()
		}
	}

	var pdfURL string
	for _, link := range entry.Links {
		if link.Title == "pdf" || link.Type == "application/pdf" {
			pdfURL = link.Href
			break
		}
	}
	if pdfURL == "" {
		pdfURL = "https://arxiv.org/pdf/" + arxivID
	}

	categories := make([]string, 0, len(entry.Categories))
	for _, cat := range entry.Categories {
		if cat.Term != "" {
			categories = append(categories, cat.Term)
		}
	}

	raw := map[string]interface{}{
		"arxiv_id":   arxivID,
		"categories": categories,
	}
	if entry.JournalRef != "" {
		raw["journal_ref"] = strings.TrimSpace(entry.JournalRef)
	}
	if entry.PrimaryCategory.Term != "" {
		raw["primary_category"] = entry.PrimaryCategory.Term
	}

	return &domain.Paper{
		Title:      title,
		Authors:    authors,
		Abstract:   domain.CleanText(entry.Summary),
		DOI:        domain.NormalizeDOI(entry.DOI),
		Year:       year,
		Venue:      strings.TrimSpace(entry.JournalRef),
		URL:        entry.ID,
		PDFURL:     pdfURL,
		Source:     Name,
		OpenAccess: domain.OpenAccessFlag(true),
		Keywords:   categories,
		RawData:    raw,
	}
}
