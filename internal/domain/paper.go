// Package domain defines the canonical paper record shared by every source
// adapter and the aggregation core, together with the normalization rules
// that decide when two records describe the same paper.
package domain

import "strings"

// Author represents a paper author with optional affiliation and ORCID.
type Author struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
	ORCID       string `json:"orcid,omitempty"`
}

// String returns a formatted string representation of the author.
func (a Author) String() string {
	var sb strings.Builder
	sb.WriteString(a.Name)

	if a.Affiliation != "" {
		sb.WriteString(" (")
		sb.WriteString(a.Affiliation)
		sb.WriteString(")")
	}

	if a.ORCID != "" {
		sb.WriteString(" [")
		sb.WriteString(a.ORCID)
		sb.WriteString("]")
	}

	return sb.String()
}

// Paper is the canonical record produced by every source adapter.
// Title and Source are always set; everything else is best-effort and
// depends on what the originating API exposes.
type Paper struct {
	Title           string                 `json:"title"`
	Authors         []Author               `json:"authors,omitempty"`
	Abstract        string                 `json:"abstract,omitempty"`
	DOI             string                 `json:"doi,omitempty"`
	Year            int                    `json:"year,omitempty"`
	Venue           string                 `json:"venue,omitempty"`
	URL             string                 `json:"url,omitempty"`
	PDFURL          string                 `json:"pdf_url,omitempty"`
	Source          string                 `json:"source"`
	CitationCount   int                    `json:"citation_count,omitempty"`
	ReferenceCount  int                    `json:"reference_count,omitempty"`
	OpenAccess      *bool                  `json:"open_access,omitempty"`
	Keywords        []string               `json:"keywords,omitempty"`
	RawData         map[string]interface{} `json:"raw_data,omitempty"`
}

// DedupKey returns the key papers are deduplicated on: the normalized DOI
// when one exists, otherwise the normalized title. The prefixes keep a DOI
// that happens to equal a title from colliding.
func (p *Paper) DedupKey() string {
	if doi := NormalizeDOI(p.DOI); doi != "" {
		return "doi:" + doi
	}
	return "title:" + NormalizeTitle(p.Title)
}

// SameAs reports whether two papers represent the same logical paper.
// Two papers match when their normalized DOIs are equal, or, when either
// lacks a DOI, when their normalized titles are equal.
func (p *Paper) SameAs(other *Paper) bool {
	if other == nil {
		return false
	}
	doiA, doiB := NormalizeDOI(p.DOI), NormalizeDOI(other.DOI)
	if doiA != "" && doiB != "" {
		return doiA == doiB
	}
	return NormalizeTitle(p.Title) == NormalizeTitle(other.Title)
}

// AuthorNames returns the ordered display names of the paper's authors.
func (p *Paper) AuthorNames() []string {
	names := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		names = append(names, a.Name)
	}
	return names
}

// OpenAccessFlag is a convenience constructor for the optional open-access flag.
func OpenAccessFlag(v bool) *bool {
	return &v
}
