// Package aggregator fans one logical query out to many paper sources,
// tolerates per-source failure, and merges the replies into a single
// deduplicated result.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
	"github.com/SteadfastAsArt/paper-ladder/internal/observability"
	"github.com/SteadfastAsArt/paper-ladder/internal/papersources"
)

// SearchRequest describes one multi-source search.
type SearchRequest struct {
	// Query is the free-text query (required).
	Query string

	// Sources names the sources to query. Empty means all enabled sources.
	Sources []string

	// Limit caps the merged result list. 0 uses DefaultLimit.
	Limit int

	// AutoPaginate drives each source through repeated fetches until Limit
	// results are gathered or the source runs dry. When false each source
	// contributes at most one page.
	AutoPaginate bool

	// Timeout bounds the whole search; 0 means the caller's context rules.
	Timeout time.Duration

	// Params carries the shared filter parameters (dates, open access,
	// citations, source-specific filters).
	Params papersources.SearchParams
}

// DefaultLimit is the merged result cap when the request does not set one.
const DefaultLimit = 10

// Aggregator orchestrates concurrent searches across registered sources.
// Requests are stateless, single-shot operations; nothing is carried over
// between calls.
type Aggregator struct {
	registry *papersources.Registry
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// New creates an aggregator over the given registry. metrics may be nil.
func New(registry *papersources.Registry, logger zerolog.Logger, metrics *observability.Metrics) *Aggregator {
	return &Aggregator{
		registry: registry,
		logger:   logger,
		metrics:  metrics,
	}
}

// sourceOutcome is the result of one per-source task. Exactly one of
// result/err is set.
type sourceOutcome struct {
	name      string
	papers    []*domain.Paper
	total     int
	truncated bool
	err       error
}

// Search executes one fan-out/merge cycle. Every requested source ends up
// either in SourcesQueried or in Errors; a failing source never aborts its
// siblings. The only hard failure is an empty or fully-unresolvable source
// set.
func (a *Aggregator) Search(ctx context.Context, req SearchRequest) (*domain.SearchResult, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	names := req.Sources
	if len(names) == 0 {
		names = a.registry.EnabledNames()
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no sources to query", domain.ErrInvalidInput)
	}

	errs := make(map[string]string)
	resolved := make([]papersources.PaperSource, 0, len(names))
	resolvedNames := make([]string, 0, len(names))
	for _, name := range names {
		source, err := a.registry.Get(name)
		if err != nil {
			errs[name] = err.Error()
			continue
		}
		resolved = append(resolved, source)
		resolvedNames = append(resolvedNames, name)
	}
	if len(resolved) == 0 {
		return nil, fmt.Errorf("%w: no resolvable sources in %v", domain.ErrInvalidInput, names)
	}

	requestID := uuid.NewString()
	logger := observability.WithSearchContext(a.logger, requestID, req.Query)
	logger.Debug().Strs("sources", resolvedNames).Int("limit", req.Limit).Msg("starting aggregated search")
	if a.metrics != nil {
		a.metrics.AggregatedSearches.Inc()
	}

	// Fan out one task per source. Outcomes land in a slice indexed by the
	// requested order so the merge stays deterministic.
	outcomes := make([]sourceOutcome, len(resolved))
	done := make(chan int, len(resolved))
	for i, source := range resolved {
		go func(i int, source papersources.PaperSource) {
			outcomes[i] = a.searchSource(ctx, source, req)
			done <- i
		}(i, source)
	}
	for range resolved {
		<-done
	}

	// Merge phase: single-threaded over the collected lists.
	result := &domain.SearchResult{
		Query:  req.Query,
		Errors: errs,
	}
	lists := make([][]*domain.Paper, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.err != nil {
			errs[outcome.name] = outcome.err.Error()
			logger.Warn().Err(outcome.err).Str("source", outcome.name).Msg("source search failed")
			continue
		}
		result.SourcesQueried = append(result.SourcesQueried, outcome.name)
		result.TotalResults += outcome.total
		lists = append(lists, outcome.papers)
	}

	merged, mergeCount := interleaveMerge(lists)
	if a.metrics != nil && mergeCount > 0 {
		a.metrics.PapersMerged.Add(float64(mergeCount))
	}
	if len(merged) > req.Limit {
		merged = merged[:req.Limit]
	}
	result.Papers = merged

	logger.Debug().
		Int("papers", len(result.Papers)).
		Int("merged_duplicates", mergeCount).
		Int("failed_sources", len(errs)).
		Msg("aggregated search complete")

	return result, nil
}

// searchSource runs one per-source task, translating every failure into an
// outcome rather than a panic or propagated error.
func (a *Aggregator) searchSource(ctx context.Context, source papersources.PaperSource, req SearchRequest) sourceOutcome {
	name := source.Name()
	outcome := sourceOutcome{name: name}
	start := time.Now()
	if a.metrics != nil {
		a.metrics.SearchesStarted.WithLabelValues(name).Inc()
	}

	params := req.Params
	params.Query = req.Query
	params.MaxResults = req.Limit

	if req.AutoPaginate {
		fetched, err := papersources.NewPaginator(source).FetchAll(ctx, params, req.Limit)
		if err != nil {
			outcome.err = err
		} else {
			outcome.papers = fetched.Papers
			outcome.total = fetched.TotalResults
			outcome.truncated = fetched.Truncated
		}
	} else {
		result, err := source.Search(ctx, params)
		if err != nil {
			outcome.err = err
		} else {
			outcome.papers = result.Papers
			outcome.total = result.TotalResults
		}
	}

	if a.metrics != nil {
		a.metrics.SearchDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		if outcome.err != nil {
			a.metrics.SearchesFailed.WithLabelValues(name).Inc()
		} else {
			a.metrics.SearchesCompleted.WithLabelValues(name).Inc()
			a.metrics.PapersPerSearch.WithLabelValues(name).Observe(float64(len(outcome.papers)))
		}
	}

	return outcome
}

// GetPaper retrieves a paper by DOI or source-native identifier, trying the
// given sources in order and returning the first hit. A nil paper with a
// nil error means no source knew the identifier.
func (a *Aggregator) GetPaper(ctx context.Context, identifier string, sources []string) (*domain.Paper, error) {
	if identifier == "" {
		return nil, fmt.Errorf("%w: empty identifier", domain.ErrInvalidInput)
	}
	if len(sources) == 0 {
		sources = a.registry.EnabledNames()
	}

	for _, name := range sources {
		source, err := a.registry.Get(name)
		if err != nil {
			continue
		}
		paper, err := source.GetByID(ctx, identifier)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			// Not found and transient source failures both mean "try the
			// next source".
			continue
		}
		return paper, nil
	}

	return nil, nil
}

// GetPaperMerged queries every source concurrently for one identifier and
// merges all hits into one record, first-resolved-source preference. A nil
// paper with a nil error means no source knew the identifier.
func (a *Aggregator) GetPaperMerged(ctx context.Context, identifier string, sources []string) (*domain.Paper, error) {
	if identifier == "" {
		return nil, fmt.Errorf("%w: empty identifier", domain.ErrInvalidInput)
	}
	if len(sources) == 0 {
		sources = a.registry.EnabledNames()
	}

	resolved := make([]papersources.PaperSource, 0, len(sources))
	for _, name := range sources {
		if source, err := a.registry.Get(name); err == nil {
			resolved = append(resolved, source)
		}
	}
	if len(resolved) == 0 {
		return nil, fmt.Errorf("%w: no resolvable sources in %v", domain.ErrInvalidInput, sources)
	}

	papers := make([]*domain.Paper, len(resolved))
	done := make(chan struct{}, len(resolved))
	for i, source := range resolved {
		go func(i int, source papersources.PaperSource) {
			defer func() { done <- struct{}{} }()
			if paper, err := source.GetByID(ctx, identifier); err == nil {
				papers[i] = paper
			}
		}(i, source)
	}
	for range resolved {
		<-done
	}

	var merged *domain.Paper
	for _, paper := range papers {
		if paper == nil {
			continue
		}
		if merged == nil {
			merged = clonePaper(paper)
			continue
		}
		mergeInto(merged, paper)
	}

	// An empty result caused by cancellation is not "not found".
	if merged == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return merged, nil
}
