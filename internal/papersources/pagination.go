package papersources

import (
	"context"
	"fmt"

	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
)

// PageKind identifies a source's pagination model.
type PageKind int

const (
	// PageKindOffset is numeric offset/limit paging with a hard ceiling on
	// the maximum reachable offset.
	PageKindOffset PageKind = iota

	// PageKindCursor is opaque-cursor paging. No numeric ceiling, but some
	// sources expire cursors after a validity window.
	PageKindCursor

	// PageKindToken is continuation-token paging for bulk/streaming
	// endpoints. Same protocol as cursor paging, designed for very large
	// result counts.
	PageKindToken
)

// String returns the kind's name for logging.
func (k PageKind) String() string {
	switch k {
	case PageKindOffset:
		return "offset"
	case PageKindCursor:
		return "cursor"
	case PageKindToken:
		return "token"
	default:
		return "unknown"
	}
}

// PageSpec declares a source's paging model and limits. Fixed at adapter
// construction.
type PageSpec struct {
	// Kind is the paging model.
	Kind PageKind

	// MaxBatchSize is the largest number of results one request may ask
	// for.
	MaxBatchSize int

	// MaxOffset is the highest reachable offset for offset-kind sources.
	// 0 means unbounded. Ignored for cursor and token kinds.
	MaxOffset int
}

// PageState tracks one in-flight auto-paginated request. Created when
// pagination begins, advanced after each batch, and discarded once the
// requested count is reached, the source reports no more data, or the
// ceiling is hit.
type PageState struct {
	// Fetched is the cumulative number of results retrieved so far.
	Fetched int

	// Offset is the next offset to request, for offset-kind sources.
	Offset int

	// Cursor is the continuation value for the next batch, for cursor and
	// token kinds. Empty before the first fetch.
	Cursor string

	// Exhausted is set once the source has no more results.
	Exhausted bool
}

// FetchAllResult is the outcome of driving a source to completion.
type FetchAllResult struct {
	// Papers are the accumulated results in source order.
	Papers []*domain.Paper

	// TotalResults is the source-reported total for the query, when known.
	TotalResults int

	// Truncated is set when the source's pagination ceiling was reached
	// before the requested number of results. This is not an error; it
	// distinguishes "got everything available" from "got less than asked
	// because of a vendor limit".
	Truncated bool
}

// Paginator drives a source's paging model behind a uniform next-batch
// protocol. One paginator serves one source; state lives per call, so a
// paginator is safe for concurrent use.
type Paginator struct {
	source PaperSource
}

// NewPaginator creates a paginator for the given source.
func NewPaginator(source PaperSource) *Paginator {
	return &Paginator{source: source}
}

// NextBatch performs exactly one rate-limited fetch and advances the state.
// Requesting an offset beyond an offset-kind source's ceiling fails with a
// PaginationWindowError rather than silently returning wrong data.
func (p *Paginator) NextBatch(ctx context.Context, params SearchParams, state PageState) (*SearchResult, PageState, error) {
	spec := p.source.Pagination()

	switch spec.Kind {
	case PageKindOffset:
		if spec.MaxOffset > 0 && state.Offset >= spec.MaxOffset {
			return nil, state, &domain.PaginationWindowError{
				Source:    p.source.Name(),
				Offset:    state.Offset,
				MaxOffset: spec.MaxOffset,
			}
		}
		params.Offset = state.Offset
		params.Cursor = ""
	case PageKindCursor, PageKindToken:
		params.Offset = 0
		params.Cursor = state.Cursor
	default:
		return nil, state, fmt.Errorf("%s: unknown pagination kind %d", p.source.Name(), spec.Kind)
	}

	if params.MaxResults <= 0 || params.MaxResults > spec.MaxBatchSize {
		params.MaxResults = spec.MaxBatchSize
	}
	// Clamp the final batch so the request never reaches past the ceiling.
	if spec.Kind == PageKindOffset && spec.MaxOffset > 0 && params.Offset+params.MaxResults > spec.MaxOffset {
		params.MaxResults = spec.MaxOffset - params.Offset
	}

	result, err := p.source.Search(ctx, params)
	if err != nil {
		return nil, state, err
	}

	state.Fetched += len(result.Papers)
	switch spec.Kind {
	case PageKindOffset:
		state.Offset = result.NextOffset
		if state.Offset <= params.Offset {
			// Defend against sources that fail to advance the offset.
			state.Offset = params.Offset + len(result.Papers)
		}
		state.Exhausted = !result.HasMore || len(result.Papers) == 0
	case PageKindCursor, PageKindToken:
		state.Cursor = result.NextCursor
		state.Exhausted = state.Cursor == "" || len(result.Papers) == 0
	}

	return result, state, nil
}

// FetchAll drives repeated NextBatch calls, accumulating papers until
// maxResults is reached, the source is exhausted, or the source's offset
// ceiling cuts the run short (reported via Truncated, not as an error).
//
// A maxResults of 0 or less fetches a single page only: unbounded
// auto-pagination can burn through a vendor's credit allowance, so callers
// must opt in with an explicit count.
func (p *Paginator) FetchAll(ctx context.Context, params SearchParams, maxResults int) (*FetchAllResult, error) {
	spec := p.source.Pagination()
	out := &FetchAllResult{}
	state := PageState{Offset: params.Offset, Cursor: params.Cursor}

	singlePage := maxResults <= 0

	for {
		remaining := maxResults - state.Fetched
		if !singlePage {
			params.MaxResults = remaining
		}

		result, next, err := p.NextBatch(ctx, params, state)
		if err != nil {
			return nil, err
		}
		state = next

		if result.TotalResults > out.TotalResults {
			out.TotalResults = result.TotalResults
		}
		out.Papers = append(out.Papers, result.Papers...)
		if state.Fetched > maxResults && !singlePage {
			out.Papers = out.Papers[:maxResults]
			state.Fetched = maxResults
		}

		if singlePage || state.Fetched >= maxResults || state.Exhausted {
			return out, nil
		}

		// Hitting the offset ceiling with more results wanted is a vendor
		// limit, not an error.
		if spec.Kind == PageKindOffset && spec.MaxOffset > 0 && state.Offset >= spec.MaxOffset {
			out.Truncated = true
			return out, nil
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}
