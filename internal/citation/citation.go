// Package citation renders canonical paper records in reference-manager
// formats. BibTeX, RIS, and EndNote XML are supported; records with a
// venue export as journal articles, the rest as generic entries.
package citation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
)

// maxAbstractLen caps exported abstracts; BibTeX tooling chokes on very
// long field values.
const maxAbstractLen = 2000

// Formatter renders papers as citations in one format.
type Formatter interface {
	// Format renders a single paper.
	Format(paper *domain.Paper) string

	// FormatList renders many papers as one document.
	FormatList(papers []*domain.Paper) string

	// Extension is the conventional file extension, dot included.
	Extension() string
}

// formatters maps format names and their aliases to constructors.
var formatters = map[string]func() Formatter{
	"bibtex":  func() Formatter { return BibTeX{} },
	"bib":     func() Formatter { return BibTeX{} },
	"ris":     func() Formatter { return RIS{} },
	"endnote": func() Formatter { return EndNote{} },
	"xml":     func() Formatter { return EndNote{} },
}

// New returns the formatter for the given format name. Names are
// case-insensitive; "bib" and "xml" alias bibtex and endnote.
func New(format string) (Formatter, error) {
	if ctor, ok := formatters[strings.ToLower(format)]; ok {
		return ctor(), nil
	}
	return nil, fmt.Errorf("%w: unknown citation format %q (available: %s)",
		domain.ErrInvalidInput, format, strings.Join(Formats(), ", "))
}

// Formats lists the accepted format names, aliases included.
func Formats() []string {
	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Export renders papers in the named format.
func Export(papers []*domain.Paper, format string) (string, error) {
	formatter, err := New(format)
	if err != nil {
		return "", err
	}
	return formatter.FormatList(papers), nil
}

// BibTeX renders citations as BibTeX entries.
type BibTeX struct{}

// Extension returns ".bib".
func (BibTeX) Extension() string { return ".bib" }

// FormatList joins entries with blank lines.
func (f BibTeX) FormatList(papers []*domain.Paper) string {
	entries := make([]string, 0, len(papers))
	for _, paper := range papers {
		entries = append(entries, f.Format(paper))
	}
	return strings.Join(entries, "\n\n")
}

// Format renders one BibTeX entry. The citation key is first author's
// last name + year + first significant title word.
func (f BibTeX) Format(paper *domain.Paper) string {
	entryType := "misc"
	if paper.Venue != "" {
		entryType = "article"
	}

	var fields []string
	add := func(name, value string) {
		if value != "" {
			fields = append(fields, fmt.Sprintf("    %s = {%s}", name, value))
		}
	}

	add("title", escapeBibTeX(paper.Title))
	if len(paper.Authors) > 0 {
		names := make([]string, 0, len(paper.Authors))
		for _, author := range paper.Authors {
			names = append(names, escapeBibTeX(author.Name))
		}
		add("author", strings.Join(names, " and "))
	}
	if paper.Year > 0 {
		add("year", strconv.Itoa(paper.Year))
	}
	add("journal", escapeBibTeX(paper.Venue))
	add("doi", paper.DOI)
	add("url", paper.URL)
	add("abstract", escapeBibTeX(truncate(paper.Abstract, maxAbstractLen)))
	if len(paper.Keywords) > 0 {
		add("keywords", escapeBibTeX(strings.Join(paper.Keywords, ", ")))
	}

	var b strings.Builder
	b.WriteString("@" + entryType + "{" + citationKey(paper) + ",\n")
	b.WriteString(strings.Join(fields, ",\n"))
	b.WriteString("\n}")
	return b.String()
}

// RIS renders citations in the RIS tagged format understood by Zotero,
// Mendeley, and EndNote imports.
type RIS struct{}

// Extension returns ".ris".
func (RIS) Extension() string { return ".ris" }

// FormatList joins records with blank lines.
func (f RIS) FormatList(papers []*domain.Paper) string {
	records := make([]string, 0, len(papers))
	for _, paper := range papers {
		records = append(records, f.Format(paper))
	}
	return strings.Join(records, "\n\n")
}

// Format renders one RIS record.
func (f RIS) Format(paper *domain.Paper) string {
	var lines []string
	add := func(tag, value string) {
		if value != "" {
			lines = append(lines, tag+"  - "+value)
		}
	}

	if paper.Venue != "" {
		lines = append(lines, "TY  - JOUR")
	} else {
		lines = append(lines, "TY  - GEN")
	}
	add("TI", paper.Title)
	for _, author := range paper.Authors {
		add("AU", author.Name)
	}
	if paper.Year > 0 {
		add("PY", strconv.Itoa(paper.Year))
	}
	add("JO", paper.Venue)
	add("DO", paper.DOI)
	add("UR", paper.URL)
	add("AB", paper.Abstract)
	for _, keyword := range paper.Keywords {
		add("KW", keyword)
	}
	add("DB", paper.Source)
	lines = append(lines, "ER  -")

	return strings.Join(lines, "\n")
}

// EndNote renders citations as EndNote XML records.
type EndNote struct{}

// Extension returns ".xml".
func (EndNote) Extension() string { return ".xml" }

// FormatList wraps records in the xml/records document EndNote imports.
func (f EndNote) FormatList(papers []*domain.Paper) string {
	lines := []string{`<?xml version="1.0" encoding="UTF-8"?>`, "<xml>", "<records>"}
	for _, paper := range papers {
		lines = append(lines, f.Format(paper))
	}
	lines = append(lines, "</records>", "</xml>")
	return strings.Join(lines, "\n")
}

// Format renders one record. Reference type 17 is Journal Article, 13 is
// Generic.
func (f EndNote) Format(paper *domain.Paper) string {
	lines := []string{"<record>"}
	if paper.Venue != "" {
		lines = append(lines, `    <ref-type name="Journal Article">17</ref-type>`)
	} else {
		lines = append(lines, `    <ref-type name="Generic">13</ref-type>`)
	}

	if len(paper.Authors) > 0 {
		lines = append(lines, "    <contributors>", "        <authors>")
		for _, author := range paper.Authors {
			lines = append(lines, "            <author>"+escapeXML(author.Name)+"</author>")
		}
		lines = append(lines, "        </authors>", "    </contributors>")
	}

	lines = append(lines, "    <titles>")
	if paper.Title != "" {
		lines = append(lines, "        <title>"+escapeXML(paper.Title)+"</title>")
	}
	if paper.Venue != "" {
		lines = append(lines, "        <secondary-title>"+escapeXML(paper.Venue)+"</secondary-title>")
	}
	lines = append(lines, "    </titles>")

	if paper.Year > 0 {
		lines = append(lines,
			"    <dates>",
			"        <year>"+strconv.Itoa(paper.Year)+"</year>",
			"    </dates>")
	}
	if paper.DOI != "" {
		lines = append(lines, "    <electronic-resource-num>"+escapeXML(paper.DOI)+"</electronic-resource-num>")
	}

	if paper.URL != "" || paper.PDFURL != "" {
		lines = append(lines, "    <urls>", "        <related-urls>")
		if paper.URL != "" {
			lines = append(lines, "            <url>"+escapeXML(paper.URL)+"</url>")
		}
		if paper.PDFURL != "" {
			lines = append(lines, "            <url>"+escapeXML(paper.PDFURL)+"</url>")
		}
		lines = append(lines, "        </related-urls>", "    </urls>")
	}

	if paper.Abstract != "" {
		lines = append(lines, "    <abstract>"+escapeXML(paper.Abstract)+"</abstract>")
	}
	if len(paper.Keywords) > 0 {
		lines = append(lines, "    <keywords>")
		for _, keyword := range paper.Keywords {
			lines = append(lines, "        <keyword>"+escapeXML(keyword)+"</keyword>")
		}
		lines = append(lines, "    </keywords>")
	}

	lines = append(lines, "</record>")
	return strings.Join(lines, "\n")
}

// skipWords are articles and prepositions skipped when picking the title
// word for a citation key.
var skipWords = map[string]bool{
	"a": true, "an": true, "the": true, "on": true, "in": true,
	"of": true, "for": true, "to": true, "and": true,
}

// citationKey builds a key like "lecun2015deep".
func citationKey(paper *domain.Paper) string {
	var author string
	if len(paper.Authors) > 0 {
		parts := strings.Fields(paper.Authors[0].Name)
		if len(parts) > 0 {
			author = sanitizeKey(parts[len(parts)-1])
		}
	}

	var year string
	if paper.Year > 0 {
		year = strconv.Itoa(paper.Year)
	}

	var word string
	for _, candidate := range strings.Fields(strings.ToLower(paper.Title)) {
		cleaned := sanitizeKey(candidate)
		if cleaned == "" || skipWords[cleaned] {
			continue
		}
		if len(cleaned) > 10 {
			cleaned = cleaned[:10]
		}
		word = cleaned
		break
	}

	key := author + year + word
	if key == "" {
		return "unknown"
	}
	return key
}

// sanitizeKey keeps only ASCII letters and digits, lowercased.
func sanitizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var bibtexEscaper = strings.NewReplacer(
	"&", `\&`,
	"%", `\%`,
	"$", `\$`,
	"#", `\#`,
	"_", `\_`,
	"{", `\{`,
	"}", `\}`,
	"~", `\textasciitilde{}`,
	"^", `\textasciicircum{}`,
)

func escapeBibTeX(s string) string {
	return bibtexEscaper.Replace(s)
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
