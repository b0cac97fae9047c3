// Package extract defines the document model and contract for structured
// content extraction from downloaded papers and books.
//
// The package holds boundary types only. Extraction engines (PDF layout
// analysis, HTML readability) are external collaborators that implement
// the Extractor interface and hand back a Document.
package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// DocumentType selects how an extracted document is structured.
type DocumentType string

const (
	// TypePaper treats the document as an academic paper with flat,
	// conventionally named sections.
	TypePaper DocumentType = "paper"
	// TypeBook treats the document as a book with a nested chapter tree.
	TypeBook DocumentType = "book"
	// TypeAuto lets the extractor pick between paper and book based on
	// heading patterns and length.
	TypeAuto DocumentType = "auto"
)

// ParseDocumentType validates a user-provided document type string.
func ParseDocumentType(s string) (DocumentType, error) {
	switch DocumentType(strings.ToLower(s)) {
	case TypePaper:
		return TypePaper, nil
	case TypeBook:
		return TypeBook, nil
	case TypeAuto, "":
		return TypeAuto, nil
	}
	return "", fmt.Errorf("unknown document type %q (want paper, book, or auto)", s)
}

// BlockType identifies the kind of a content block.
type BlockType string

const (
	BlockText     BlockType = "text"
	BlockTitle    BlockType = "title"
	BlockImage    BlockType = "image"
	BlockTable    BlockType = "table"
	BlockEquation BlockType = "equation"
)

// ContentBlock is one unit of extracted content in reading order.
type ContentBlock struct {
	Type BlockType `json:"type"`
	// Content holds text for text and title blocks, an image path for
	// image blocks, and HTML or LaTeX for table and equation blocks.
	Content string `json:"content"`
	// Level is the heading depth for title blocks, 0 otherwise.
	Level int `json:"level,omitempty"`
	// Page is the zero-based page index the block was found on.
	Page int `json:"page"`
}

// Section is a titled span of the document. Papers use a flat section
// list; books nest sections through Children.
type Section struct {
	Title    string         `json:"title"`
	Level    int            `json:"level"`
	Kind     SectionKind    `json:"kind,omitempty"`
	Blocks   []ContentBlock `json:"blocks,omitempty"`
	Children []*Section     `json:"children,omitempty"`
	// PageStart is the page the section heading appears on.
	PageStart int `json:"page_start"`
}

// Text concatenates the section's text blocks into one string. Image,
// table, and equation blocks are skipped.
func (s *Section) Text() string {
	var parts []string
	for _, b := range s.Blocks {
		if b.Type == BlockText && b.Content != "" {
			parts = append(parts, b.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Document is the result of extracting one source file or URL.
type Document struct {
	Title    string       `json:"title"`
	Type     DocumentType `json:"type"`
	Markdown string       `json:"markdown"`
	Sections []*Section   `json:"sections"`
	// Figures are paths to extracted figure images.
	Figures []string `json:"figures,omitempty"`
	// Tables are the HTML or LaTeX bodies of extracted tables.
	Tables []string `json:"tables,omitempty"`
	// SourcePath is the URL or file path the document came from.
	SourcePath string            `json:"source_path"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Section returns the first section of the given kind, searching the
// tree depth-first, or nil.
func (d *Document) Section(kind SectionKind) *Section {
	return findSection(d.Sections, kind)
}

func findSection(sections []*Section, kind SectionKind) *Section {
	for _, s := range sections {
		if s.Kind == kind {
			return s
		}
		if found := findSection(s.Children, kind); found != nil {
			return found
		}
	}
	return nil
}

// Options controls a single extraction run.
type Options struct {
	// Type hints the document structure. Defaults to TypeAuto.
	Type DocumentType
	// OutputDir receives extracted figure images when set.
	OutputDir string
}

// Extractor is implemented by content extraction engines.
type Extractor interface {
	// Extract produces a structured Document from a file path or URL.
	Extract(ctx context.Context, source string, opts Options) (*Document, error)

	// CanHandle reports whether this extractor understands the source.
	CanHandle(source string) bool

	// Name identifies the engine (e.g. "pdf", "html").
	Name() string
}

// SectionKind classifies a section heading against the conventional
// academic paper layout.
type SectionKind string

const (
	KindAbstract        SectionKind = "abstract"
	KindIntroduction    SectionKind = "introduction"
	KindMethods         SectionKind = "methods"
	KindResults         SectionKind = "results"
	KindDiscussion      SectionKind = "discussion"
	KindConclusion      SectionKind = "conclusion"
	KindReferences      SectionKind = "references"
	KindAcknowledgments SectionKind = "acknowledgments"
)

var sectionPatterns = []struct {
	kind SectionKind
	re   *regexp.Regexp
}{
	{KindAbstract, regexp.MustCompile(`^(abstract|summary)$`)},
	{KindIntroduction, regexp.MustCompile(`^(\d+\.?\s*)?introduction$`)},
	{KindMethods, regexp.MustCompile(`^(\d+\.?\s*)?(methods?|methodology|materials?\s*(and|&)\s*methods?|experimental(\s*(section|methods?))?)$`)},
	{KindResults, regexp.MustCompile(`^(\d+\.?\s*)?(results?|findings|results?\s*(and|&)\s*discussion)$`)},
	{KindDiscussion, regexp.MustCompile(`^(\d+\.?\s*)?discussion$`)},
	{KindConclusion, regexp.MustCompile(`^(\d+\.?\s*)?(conclusions?|concluding\s*remarks?)$`)},
	{KindReferences, regexp.MustCompile(`^(\d+\.?\s*)?(references?|bibliography|literature\s*cited)$`)},
	{KindAcknowledgments, regexp.MustCompile(`^acknowledge?m?ents?$`)},
}

// ClassifySection matches a heading against the conventional paper
// section names. Returns "" when the heading is not a standard section.
func ClassifySection(title string) SectionKind {
	clean := strings.ToLower(strings.TrimSpace(title))
	for _, p := range sectionPatterns {
		if p.re.MatchString(clean) {
			return p.kind
		}
	}
	return ""
}
