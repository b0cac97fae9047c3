package aggregator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
	"github.com/SteadfastAsArt/paper-ladder/internal/papersources"
)

// stubSource is a scriptable PaperSource for aggregator tests.
type stubSource struct {
	name    string
	papers  []*domain.Paper
	total   int
	err     error
	byID    map[string]*domain.Paper
	delay   time.Duration
	enabled bool
}

func (s *stubSource) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	papers := s.papers
	if params.MaxResults > 0 && len(papers) > params.MaxResults {
		papers = papers[:params.MaxResults]
	}
	total := s.total
	if total == 0 {
		total = len(s.papers)
	}
	return &papersources.SearchResult{
		Papers:       papers,
		TotalResults: total,
		Source:       s.name,
	}, nil
}

func (s *stubSource) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	if paper, ok := s.byID[id]; ok {
		return paper, nil
	}
	return nil, domain.NewNotFoundError(s.name, id)
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Pagination() papersources.PageSpec {
	return papersources.PageSpec{Kind: papersources.PageKindOffset, MaxBatchSize: 100}
}

func (s *stubSource) IsEnabled() bool { return s.enabled }

func newTestAggregator(sources ...*stubSource) *Aggregator {
	reg := papersources.NewRegistry()
	for _, s := range sources {
		reg.Register(s)
	}
	return New(reg, zerolog.Nop(), nil)
}

func paper(title, source string) *domain.Paper {
	return &domain.Paper{Title: title, Source: source}
}

func TestSearchPartialFailureIsolation(t *testing.T) {
	good := &stubSource{
		name:    "good",
		enabled: true,
		papers:  []*domain.Paper{paper("p1", "good"), paper("p2", "good"), paper("p3", "good")},
	}
	bad := &stubSource{
		name:    "bad",
		enabled: true,
		err:     domain.NewExternalAPIError("bad", 503, "unavailable", nil),
	}

	result, err := newTestAggregator(good, bad).Search(context.Background(), SearchRequest{
		Query:   "q",
		Sources: []string{"good", "bad"},
		Limit:   10,
	})

	require.NoError(t, err, "a failing source must never fail the whole search")
	assert.Len(t, result.Papers, 3)
	assert.Equal(t, []string{"good"}, result.SourcesQueried)
	require.Contains(t, result.Errors, "bad")
	assert.Contains(t, result.Errors["bad"], "503")
}

func TestSearchEverySourceAccountedFor(t *testing.T) {
	empty := &stubSource{name: "empty", enabled: true}
	failing := &stubSource{name: "failing", enabled: true, err: fmt.Errorf("%w: boom", domain.ErrTransport)}

	result, err := newTestAggregator(empty, failing).Search(context.Background(), SearchRequest{
		Query:   "q",
		Sources: []string{"empty", "failing", "unregistered"},
	})

	require.NoError(t, err)
	// Zero hits is still "queried"; failures and unknown names are errors.
	assert.Equal(t, []string{"empty"}, result.SourcesQueried)
	assert.Contains(t, result.Errors, "failing")
	assert.Contains(t, result.Errors, "unregistered")
	assert.Len(t, result.Errors, 2)
}

func TestSearchRoundRobinInterleave(t *testing.T) {
	a := &stubSource{
		name:    "a",
		enabled: true,
		papers:  []*domain.Paper{paper("a1", "a"), paper("a2", "a"), paper("a3", "a")},
	}
	b := &stubSource{
		name:    "b",
		enabled: true,
		papers:  []*domain.Paper{paper("b1", "b"), paper("b2", "b"), paper("b3", "b")},
	}

	result, err := newTestAggregator(a, b).Search(context.Background(), SearchRequest{
		Query:   "q",
		Sources: []string{"a", "b"},
		Limit:   10,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "b1", "a2", "b2", "a3", "b3"}, titles(result.Papers))
}

func TestSearchTruncatesAfterMerge(t *testing.T) {
	a := &stubSource{
		name:    "a",
		enabled: true,
		papers:  []*domain.Paper{paper("a1", "a"), paper("a2", "a"), paper("a3", "a")},
	}
	b := &stubSource{
		name:    "b",
		enabled: true,
		papers:  []*domain.Paper{paper("b1", "b"), paper("b2", "b"), paper("b3", "b")},
	}

	result, err := newTestAggregator(a, b).Search(context.Background(), SearchRequest{
		Query:   "q",
		Sources: []string{"a", "b"},
		Limit:   3,
	})

	require.NoError(t, err)
	// Truncation happens after interleaving, so both sources appear.
	assert.Equal(t, []string{"a1", "b1", "a2"}, titles(result.Papers))
}

func TestSearchInvalidInput(t *testing.T) {
	agg := newTestAggregator()

	_, err := agg.Search(context.Background(), SearchRequest{Query: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = agg.Search(context.Background(), SearchRequest{Query: "q"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "no registered sources at all")

	agg = newTestAggregator(&stubSource{name: "x", enabled: true})
	_, err = agg.Search(context.Background(), SearchRequest{Query: "q", Sources: []string{"nope", "also-nope"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "no resolvable sources")
}

func TestSearchDefaultsToEnabledSources(t *testing.T) {
	on := &stubSource{name: "on", enabled: true, papers: []*domain.Paper{paper("p", "on")}}
	off := &stubSource{name: "off", enabled: false, papers: []*domain.Paper{paper("hidden", "off")}}

	result, err := newTestAggregator(on, off).Search(context.Background(), SearchRequest{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, []string{"on"}, result.SourcesQueried)
	assert.Equal(t, []string{"p"}, titles(result.Papers))
}

func TestSearchTimeoutIsPerSourceFailure(t *testing.T) {
	fast := &stubSource{name: "fast", enabled: true, papers: []*domain.Paper{paper("p", "fast")}}
	slow := &stubSource{name: "slow", enabled: true, delay: 2 * time.Second, papers: []*domain.Paper{paper("never", "slow")}}

	start := time.Now()
	result, err := newTestAggregator(fast, slow).Search(context.Background(), SearchRequest{
		Query:   "q",
		Sources: []string{"fast", "slow"},
		Timeout: 100 * time.Millisecond,
	})

	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, []string{"fast"}, result.SourcesQueried)
	assert.Contains(t, result.Errors, "slow")
	assert.Contains(t, result.Errors["slow"], "context deadline exceeded")
}

func TestGetPaperFirstHitWins(t *testing.T) {
	missing := &stubSource{name: "missing", enabled: true, byID: map[string]*domain.Paper{}}
	holding := &stubSource{
		name:    "holding",
		enabled: true,
		byID: map[string]*domain.Paper{
			"10.1/x": {Title: "Found", DOI: "10.1/x", Source: "holding"},
		},
	}

	agg := newTestAggregator(missing, holding)
	got, err := agg.GetPaper(context.Background(), "10.1/x", []string{"missing", "holding"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Found", got.Title)
}

func TestGetPaperNotFoundIsNil(t *testing.T) {
	src := &stubSource{name: "src", enabled: true, byID: map[string]*domain.Paper{}}

	got, err := newTestAggregator(src).GetPaper(context.Background(), "10.1/none", nil)
	require.NoError(t, err, "not-found is a normal outcome, not an error")
	assert.Nil(t, got)
}

func TestGetPaperMergedCombinesSources(t *testing.T) {
	oa := domain.OpenAccessFlag(true)
	a := &stubSource{
		name:    "a",
		enabled: true,
		byID: map[string]*domain.Paper{
			"10.1/x": {Title: "Paper", DOI: "10.1/x", Abstract: "short", Source: "a"},
		},
	}
	b := &stubSource{
		name:    "b",
		enabled: true,
		byID: map[string]*domain.Paper{
			"10.1/x": {
				Title:    "Paper",
				DOI:      "10.1/x",
				Abstract: "a much longer abstract text",
				PDFURL:   "https://example.org/x.pdf",
				Source:   "b", OpenAccess: oa,
			},
		},
	}

	got, err := newTestAggregator(a, b).GetPaperMerged(context.Background(), "10.1/x", []string{"a", "b"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a", got.Source)
	assert.Equal(t, "a much longer abstract text", got.Abstract)
	assert.Equal(t, "https://example.org/x.pdf", got.PDFURL)
}

func TestGetPaperMergedPropagatesContextError(t *testing.T) {
	slow := &stubSource{
		name:    "slow",
		enabled: true,
		delay:   200 * time.Millisecond,
		byID: map[string]*domain.Paper{
			"10.1/x": {Title: "Paper", DOI: "10.1/x", Source: "slow"},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	got, err := newTestAggregator(slow).GetPaperMerged(ctx, "10.1/x", []string{"slow"})
	require.ErrorIs(t, err, context.DeadlineExceeded, "a deadline must not masquerade as not-found")
	assert.Nil(t, got)
}

func TestSearchConcurrentFanOut(t *testing.T) {
	// Four sources each sleeping 100ms: sequential execution would take
	// 400ms+, concurrent well under that.
	var sources []*stubSource
	var names []string
	for i := 0; i < 4; i++ {
		name := fmt.Sprintf("s%d", i)
		sources = append(sources, &stubSource{
			name:    name,
			enabled: true,
			delay:   100 * time.Millisecond,
			papers:  []*domain.Paper{paper(name+"-p", name)},
		})
		names = append(names, name)
	}

	start := time.Now()
	result, err := newTestAggregator(sources...).Search(context.Background(), SearchRequest{
		Query:   "q",
		Sources: names,
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Len(t, result.SourcesQueried, 4)
	assert.Less(t, elapsed, 300*time.Millisecond, "sources must be queried concurrently")
}
