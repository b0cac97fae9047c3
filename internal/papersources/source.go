// Package papersources provides the contract and shared plumbing for
// academic paper source clients.
//
// Each academic database (OpenAlex, Crossref, PubMed, etc.) implements the
// PaperSource interface, allowing the aggregator to search many sources
// concurrently through one API. The package also provides the per-source
// rate limiter, the retrying HTTP client every adapter shares, and the
// paginator that normalizes offset, cursor, and continuation-token paging.
//
// Example usage:
//
//	source := openalex.New(cfg)
//	params := papersources.SearchParams{
//		Query:      "CRISPR gene editing",
//		MaxResults: 100,
//	}
//	result, err := source.Search(ctx, params)
package papersources

import (
	"context"
	"time"

	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
)

// SearchParams defines the parameters for searching academic papers.
// All fields except Query are optional.
type SearchParams struct {
	// Query is the search query string (required). The format may vary by
	// source - some support boolean operators or field-specific searches.
	Query string

	// MaxResults limits the number of papers returned in a single request.
	// Sources cap this at their own per-request maximum. A value of 0 uses
	// the source's default.
	MaxResults int

	// Offset specifies the starting position for offset-paginated sources.
	Offset int

	// Cursor is the opaque continuation value for cursor- and token-
	// paginated sources. Empty means "start from the beginning".
	Cursor string

	// DateFrom filters papers published on or after this date.
	DateFrom *time.Time

	// DateTo filters papers published on or before this date.
	DateTo *time.Time

	// OpenAccessOnly filters results to open access papers.
	OpenAccessOnly bool

	// MinCitations filters papers to those with at least this many
	// citations, on sources that support it. 0 applies no filter.
	MinCitations int

	// Filters carries source-specific named filters passed through to the
	// adapter verbatim (e.g. "category" for arXiv, "journal" for PubMed).
	Filters map[string]string
}

// SearchResult contains the results of one paper source fetch.
type SearchResult struct {
	// Papers contains the papers returned by this fetch, in the order the
	// source returned them.
	Papers []*domain.Paper

	// TotalResults is the total number of matches for the query regardless
	// of pagination. Provided by the source and may be an estimate; 0 when
	// the source does not report a total.
	TotalResults int

	// HasMore indicates whether additional results are available beyond
	// this batch.
	HasMore bool

	// NextOffset is the offset for the next batch on offset-paginated
	// sources. Only meaningful when HasMore is true.
	NextOffset int

	// NextCursor is the continuation value for the next batch on cursor-
	// and token-paginated sources. Empty means end of results.
	NextCursor string

	// Source is the name of the source that produced these results.
	Source string

	// SearchDuration is the time taken for the fetch, including network
	// latency and parsing.
	SearchDuration time.Duration
}

// PaperSource is the interface every source adapter implements.
type PaperSource interface {
	// Search performs exactly one rate-limited fetch for papers matching
	// the given parameters. Auto-pagination is the paginator's job, not
	// the adapter's.
	//
	// Implementations must respect context cancellation, apply their own
	// rate limiting, and translate transport failures into the domain
	// error taxonomy.
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)

	// GetByID retrieves a single paper by DOI or source-native identifier.
	// Returns an error wrapping domain.ErrNotFound when no paper exists.
	GetByID(ctx context.Context, id string) (*domain.Paper, error)

	// Name returns the source's registry key (e.g. "openalex").
	Name() string

	// Pagination declares the source's paging model and limits. Declared
	// at construction and constant for the adapter's lifetime.
	Pagination() PageSpec

	// IsEnabled reports whether this source can currently be searched.
	// A source may be disabled by configuration or a missing API key.
	IsEnabled() bool
}
