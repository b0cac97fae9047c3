package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
)

func titles(papers []*domain.Paper) []string {
	out := make([]string, 0, len(papers))
	for _, p := range papers {
		out = append(out, p.Title)
	}
	return out
}

func TestInterleaveRoundRobinOrder(t *testing.T) {
	listA := []*domain.Paper{
		{Title: "a1", Source: "A"},
		{Title: "a2", Source: "A"},
		{Title: "a3", Source: "A"},
	}
	listB := []*domain.Paper{
		{Title: "b1", Source: "B"},
		{Title: "b2", Source: "B"},
		{Title: "b3", Source: "B"},
	}

	merged, mergedN := interleaveMerge([][]*domain.Paper{listA, listB})
	assert.Equal(t, 0, mergedN)
	assert.Equal(t, []string{"a1", "b1", "a2", "b2", "a3", "b3"}, titles(merged))
}

func TestInterleaveUnevenLists(t *testing.T) {
	listA := []*domain.Paper{{Title: "a1", Source: "A"}}
	listB := []*domain.Paper{
		{Title: "b1", Source: "B"},
		{Title: "b2", Source: "B"},
		{Title: "b3", Source: "B"},
	}

	merged, _ := interleaveMerge([][]*domain.Paper{listA, listB})
	assert.Equal(t, []string{"a1", "b1", "b2", "b3"}, titles(merged))
}

func TestMergeIdempotent(t *testing.T) {
	list := []*domain.Paper{
		{Title: "First Paper", DOI: "10.1/a", Source: "A", Keywords: []string{"x"}},
		{Title: "Second Paper", Source: "A"},
	}

	// Merging a list with itself yields exactly the distinct elements.
	merged, mergedN := interleaveMerge([][]*domain.Paper{list, list})
	require.Len(t, merged, 2)
	assert.Equal(t, 2, mergedN)
	assert.Equal(t, []string{"First Paper", "Second Paper"}, titles(merged))
	assert.Equal(t, []string{"x"}, merged[0].Keywords, "no data loss or duplication")
}

func TestDedupByDOIDespiteDifferentTitles(t *testing.T) {
	listA := []*domain.Paper{{
		Title:  "Deep learning",
		DOI:    "10.1038/nature14539",
		Source: "openalex",
	}}
	listB := []*domain.Paper{{
		Title:  "Deep Learning (review)",
		DOI:    "https://doi.org/10.1038/NATURE14539",
		Source: "crossref",
	}}

	merged, mergedN := interleaveMerge([][]*domain.Paper{listA, listB})
	require.Len(t, merged, 1)
	assert.Equal(t, 1, mergedN)
	assert.Equal(t, "openalex", merged[0].Source, "primary source is first seen")
}

func TestDedupByTitleWithoutDOI(t *testing.T) {
	listA := []*domain.Paper{{Title: "Deep Learning", Source: "dblp"}}
	listB := []*domain.Paper{{Title: "deep learning", Source: "arxiv"}}

	merged, mergedN := interleaveMerge([][]*domain.Paper{listA, listB})
	assert.Len(t, merged, 1)
	assert.Equal(t, 1, mergedN)
}

func TestDedupTitleMatchAcquiresDOI(t *testing.T) {
	// First-seen record has no DOI; the duplicate carries one. The merged
	// record keeps the DOI and future DOI matches find it.
	listA := []*domain.Paper{{Title: "Attention Is All You Need", Source: "dblp"}}
	listB := []*domain.Paper{{Title: "Attention is all you need", DOI: "10.5555/3295222", Source: "semanticscholar"}}
	listC := []*domain.Paper{{Title: "Attention Is All You Need (NeurIPS)", DOI: "10.5555/3295222", Source: "openalex"}}

	merged, mergedN := interleaveMerge([][]*domain.Paper{listA, listB, listC})
	require.Len(t, merged, 1)
	assert.Equal(t, 2, mergedN)
	assert.Equal(t, "10.5555/3295222", merged[0].DOI)
	assert.Equal(t, "dblp", merged[0].Source)
}

func TestDistinctDOIsSameTitleStayDistinct(t *testing.T) {
	// A preprint and its published version carry different DOIs; without an
	// explicit cross-reference they are distinct papers.
	listA := []*domain.Paper{{Title: "Shared Title", DOI: "10.1101/2020.01.01.900000", Source: "europepmc"}}
	listB := []*domain.Paper{{Title: "Shared Title", DOI: "10.1038/s41586-020-1", Source: "crossref"}}

	merged, mergedN := interleaveMerge([][]*domain.Paper{listA, listB})
	assert.Len(t, merged, 2)
	assert.Equal(t, 0, mergedN)
}

func TestMergeFieldPreferences(t *testing.T) {
	oa := domain.OpenAccessFlag(true)
	primary := &domain.Paper{
		Title:         "P",
		Abstract:      "short",
		Source:        "A",
		CitationCount: 5,
		Keywords:      []string{"ml"},
		Authors:       []domain.Author{{Name: "One"}},
		RawData:       map[string]interface{}{"from": "A"},
	}
	candidate := &domain.Paper{
		Title:          "P",
		DOI:            "10.1/x",
		Abstract:       "a considerably longer abstract",
		Source:         "B",
		CitationCount:  3,
		ReferenceCount: 40,
		Keywords:       []string{"ML", "ai"},
		Authors:        []domain.Author{{Name: "One"}, {Name: "Two"}},
		PDFURL:         "https://example.org/p.pdf",
		URL:            "https://example.org/p",
		Venue:          "NeurIPS",
		Year:           2017,
		OpenAccess:     oa,
		RawData:        map[string]interface{}{"from": "B"},
	}

	mergeInto(primary, candidate)

	assert.Equal(t, "10.1/x", primary.DOI, "non-empty DOI preferred")
	assert.Equal(t, "a considerably longer abstract", primary.Abstract, "longer abstract preferred")
	assert.Equal(t, []string{"ml", "ai"}, primary.Keywords, "keyword union, case-insensitive")
	assert.Equal(t, 5, primary.CitationCount, "higher citation count preferred")
	assert.Equal(t, 40, primary.ReferenceCount)
	assert.Len(t, primary.Authors, 2, "more complete author list preferred")
	assert.Equal(t, "https://example.org/p.pdf", primary.PDFURL)
	assert.Equal(t, "NeurIPS", primary.Venue)
	assert.Equal(t, 2017, primary.Year)
	assert.Equal(t, "A", primary.Source, "primary source retained")
	assert.Equal(t, "A", primary.RawData["from"], "first-seen raw payload retained")
	require.NotNil(t, primary.OpenAccess)
	assert.True(t, *primary.OpenAccess)
}

func TestMergeTieKeepsPrimary(t *testing.T) {
	primary := &domain.Paper{Title: "P", Abstract: "12345", Source: "A"}
	candidate := &domain.Paper{Title: "P", Abstract: "abcde", Source: "B"}

	mergeInto(primary, candidate)
	assert.Equal(t, "12345", primary.Abstract, "equal-length abstracts keep first-seen value")
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	original := &domain.Paper{Title: "Immutable", Source: "A", Keywords: []string{"k"}}
	duplicate := &domain.Paper{Title: "Immutable", Source: "B", Keywords: []string{"other"}}

	merged, _ := interleaveMerge([][]*domain.Paper{{original}, {duplicate}})
	require.Len(t, merged, 1)
	assert.Equal(t, []string{"k"}, original.Keywords, "adapter-owned records stay untouched")
	assert.Equal(t, []string{"k", "other"}, merged[0].Keywords)
}
