package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"bare", "10.1038/nature14539", "10.1038/nature14539"},
		{"uppercase", "10.1038/NATURE14539", "10.1038/nature14539"},
		{"https prefix", "https://doi.org/10.1038/nature14539", "10.1038/nature14539"},
		{"http prefix", "http://doi.org/10.1038/nature14539", "10.1038/nature14539"},
		{"dx prefix", "https://dx.doi.org/10.1038/nature14539", "10.1038/nature14539"},
		{"doi scheme", "doi:10.1038/nature14539", "10.1038/nature14539"},
		{"whitespace", "  10.1038/nature14539 ", "10.1038/nature14539"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDOI(tt.in))
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"lowercase", "Deep Learning", "deep learning"},
		{"whitespace collapsed", "Deep \t Learning\n", "deep learning"},
		{"punctuation stripped", "Attention Is All You Need!", "attention is all you need"},
		{"hyphens and colons", "BERT: Pre-training of Deep Bidirectional Transformers", "bert pretraining of deep bidirectional transformers"},
		{"digits kept", "GPT-4 Technical Report", "gpt4 technical report"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTitle(tt.in))
		})
	}
}

func TestExtractYear(t *testing.T) {
	assert.Equal(t, 2019, ExtractYear("2019-06-05"))
	assert.Equal(t, 1997, ExtractYear("June 1997"))
	assert.Equal(t, 2023, ExtractYear("2023"))
	assert.Equal(t, 0, ExtractYear("n.d."))
	assert.Equal(t, 0, ExtractYear(""))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "A & B", CleanText("A &amp; B"))
	assert.Equal(t, "bold claim", CleanText("<b>bold</b>  claim"))
	assert.Equal(t, "", CleanText(""))
}

func TestIsPDFURL(t *testing.T) {
	assert.True(t, IsPDFURL("https://arxiv.org/pdf/2301.12345"))
	assert.True(t, IsPDFURL("https://example.org/paper.PDF"))
	assert.False(t, IsPDFURL("https://example.org/abs/2301.12345"))
	assert.False(t, IsPDFURL(""))
}

func TestPaperDedupKey(t *testing.T) {
	withDOI := &Paper{Title: "Deep Learning", DOI: "https://doi.org/10.1038/NATURE14539"}
	assert.Equal(t, "doi:10.1038/nature14539", withDOI.DedupKey())

	noDOI := &Paper{Title: "Deep  Learning!"}
	assert.Equal(t, "title:deep learning", noDOI.DedupKey())
}

func TestPaperSameAs(t *testing.T) {
	a := &Paper{Title: "A Paper", DOI: "10.1038/nature14539", Source: "openalex"}
	b := &Paper{Title: "Completely Different Title", DOI: "DOI:10.1038/NATURE14539", Source: "crossref"}
	assert.True(t, a.SameAs(b), "matching DOIs merge regardless of title")

	c := &Paper{Title: "Deep Learning", Source: "dblp"}
	d := &Paper{Title: "deep learning", Source: "arxiv"}
	assert.True(t, c.SameAs(d), "matching normalized titles merge when DOI is missing")

	// A DOI on only one side falls back to title comparison.
	e := &Paper{Title: "Deep Learning", DOI: "10.1/x", Source: "crossref"}
	assert.True(t, e.SameAs(c))

	f := &Paper{Title: "Another Paper", DOI: "10.1/y", Source: "crossref"}
	assert.False(t, a.SameAs(f))
	assert.False(t, a.SameAs(nil))
}
