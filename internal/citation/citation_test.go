package citation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
)

func samplePaper() *domain.Paper {
	return &domain.Paper{
		Title: "Deep learning",
		Authors: []domain.Author{
			{Name: "Yann LeCun"},
			{Name: "Yoshua Bengio"},
			{Name: "Geoffrey Hinton"},
		},
		Abstract: "Deep learning allows computational models to learn representations.",
		DOI:      "10.1038/nature14539",
		Year:     2015,
		Venue:    "Nature",
		URL:      "https://www.nature.com/articles/nature14539",
		Source:   "openalex",
		Keywords: []string{"machine learning", "neural networks"},
	}
}

func TestBibTeXFormat(t *testing.T) {
	out := BibTeX{}.Format(samplePaper())

	assert.True(t, strings.HasPrefix(out, "@article{lecun2015deep,\n"), out)
	assert.Contains(t, out, "    title = {Deep learning}")
	assert.Contains(t, out, "    author = {Yann LeCun and Yoshua Bengio and Geoffrey Hinton}")
	assert.Contains(t, out, "    year = {2015}")
	assert.Contains(t, out, "    journal = {Nature}")
	assert.Contains(t, out, "    doi = {10.1038/nature14539}")
	assert.Contains(t, out, "    keywords = {machine learning, neural networks}")
	assert.True(t, strings.HasSuffix(out, "\n}"), out)

	// The last field must not carry a trailing comma.
	lines := strings.Split(out, "\n")
	last := lines[len(lines)-2]
	assert.False(t, strings.HasSuffix(last, ","), last)
}

func TestBibTeXEscapesAndEntryType(t *testing.T) {
	paper := &domain.Paper{
		Title:   "Carbon & Silicon: 100% of AT&T's R_D",
		Authors: []domain.Author{{Name: "Ada Lovelace"}},
		Year:    1843,
	}
	out := BibTeX{}.Format(paper)

	assert.True(t, strings.HasPrefix(out, "@misc{lovelace1843carbon,"), "no venue means a misc entry")
	assert.Contains(t, out, `Carbon \& Silicon: 100\% of AT\&T's R\_D`)
}

func TestBibTeXKeySkipsArticles(t *testing.T) {
	paper := &domain.Paper{
		Title:   "The Structure of Scientific Revolutions",
		Authors: []domain.Author{{Name: "Thomas S. Kuhn"}},
		Year:    1962,
	}
	out := BibTeX{}.Format(paper)
	assert.True(t, strings.HasPrefix(out, "@misc{kuhn1962structure,"), out)
}

func TestBibTeXKeyFallback(t *testing.T) {
	out := BibTeX{}.Format(&domain.Paper{})
	assert.True(t, strings.HasPrefix(out, "@misc{unknown,"), out)
}

func TestRISFormat(t *testing.T) {
	out := RIS{}.Format(samplePaper())
	lines := strings.Split(out, "\n")

	assert.Equal(t, "TY  - JOUR", lines[0])
	assert.Contains(t, lines, "TI  - Deep learning")
	assert.Contains(t, lines, "AU  - Yann LeCun")
	assert.Contains(t, lines, "AU  - Geoffrey Hinton")
	assert.Contains(t, lines, "PY  - 2015")
	assert.Contains(t, lines, "JO  - Nature")
	assert.Contains(t, lines, "DO  - 10.1038/nature14539")
	assert.Contains(t, lines, "KW  - neural networks")
	assert.Contains(t, lines, "DB  - openalex")
	assert.Equal(t, "ER  -", lines[len(lines)-1])
}

func TestRISGenericType(t *testing.T) {
	out := RIS{}.Format(&domain.Paper{Title: "Tech report"})
	assert.True(t, strings.HasPrefix(out, "TY  - GEN\n"), out)
}

func TestEndNoteFormat(t *testing.T) {
	paper := samplePaper()
	paper.Title = "Deep <learning> & friends"
	out := EndNote{}.Format(paper)

	assert.Contains(t, out, `<ref-type name="Journal Article">17</ref-type>`)
	assert.Contains(t, out, "<author>Yann LeCun</author>")
	assert.Contains(t, out, "<title>Deep &lt;learning&gt; &amp; friends</title>")
	assert.Contains(t, out, "<secondary-title>Nature</secondary-title>")
	assert.Contains(t, out, "<year>2015</year>")
	assert.Contains(t, out, "<electronic-resource-num>10.1038/nature14539</electronic-resource-num>")
	assert.Contains(t, out, "<keyword>machine learning</keyword>")
}

func TestEndNoteFormatListWrapsDocument(t *testing.T) {
	out := EndNote{}.FormatList([]*domain.Paper{samplePaper(), {Title: "Second"}})

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`), out)
	assert.Contains(t, out, "<records>")
	assert.Equal(t, 2, strings.Count(out, "<record>"))
	assert.True(t, strings.HasSuffix(out, "</xml>"), out)
}

func TestExport(t *testing.T) {
	papers := []*domain.Paper{samplePaper(), {Title: "Second", Year: 2020}}

	out, err := Export(papers, "bibtex")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "@"))
	assert.Contains(t, out, "\n\n@")

	// Aliases resolve to the same formatters.
	aliased, err := Export(papers, "BIB")
	require.NoError(t, err)
	assert.Equal(t, out, aliased)
}

func TestExportUnknownFormat(t *testing.T) {
	_, err := Export(nil, "apa")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "bibtex")
}

func TestExtensions(t *testing.T) {
	for format, ext := range map[string]string{
		"bibtex": ".bib", "ris": ".ris", "endnote": ".xml",
	} {
		formatter, err := New(format)
		require.NoError(t, err)
		assert.Equal(t, ext, formatter.Extension())
	}
}
