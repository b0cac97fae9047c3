package httpserver

import (
	"sort"

	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
	"github.com/SteadfastAsArt/paper-ladder/internal/papersources"
)

// Response types for JSON serialization.

type searchResponse struct {
	Query          string            `json:"query"`
	Papers         []paperResponse   `json:"papers"`
	TotalResults   int               `json:"total_results,omitempty"`
	SourcesQueried []string          `json:"sources_queried"`
	Errors         map[string]string `json:"errors,omitempty"`
}

type paperResponse struct {
	Title          string           `json:"title"`
	Authors        []authorResponse `json:"authors,omitempty"`
	Abstract       string           `json:"abstract,omitempty"`
	DOI            string           `json:"doi,omitempty"`
	Year           int              `json:"year,omitempty"`
	Venue          string           `json:"venue,omitempty"`
	URL            string           `json:"url,omitempty"`
	PdfURL         string           `json:"pdf_url,omitempty"`
	Source         string           `json:"source"`
	CitationCount  int              `json:"citation_count,omitempty"`
	ReferenceCount int              `json:"reference_count,omitempty"`
	OpenAccess     *bool            `json:"open_access,omitempty"`
	Keywords       []string         `json:"keywords,omitempty"`
}

type authorResponse struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
	ORCID       string `json:"orcid,omitempty"`
}

type sourceInfoResponse struct {
	Name       string             `json:"name"`
	Enabled    bool               `json:"enabled"`
	Pagination paginationResponse `json:"pagination"`
}

type paginationResponse struct {
	Kind         string `json:"kind"`
	MaxBatchSize int    `json:"max_batch_size"`
	MaxOffset    int    `json:"max_offset,omitempty"`
}

type listSourcesResponse struct {
	Sources []sourceInfoResponse `json:"sources"`
}

// Converter functions

func searchResultToResponse(r *domain.SearchResult) searchResponse {
	papers := make([]paperResponse, len(r.Papers))
	for i, p := range r.Papers {
		papers[i] = paperToResponse(p)
	}
	return searchResponse{
		Query:          r.Query,
		Papers:         papers,
		TotalResults:   r.TotalResults,
		SourcesQueried: r.SourcesQueried,
		Errors:         r.Errors,
	}
}

func paperToResponse(p *domain.Paper) paperResponse {
	authors := make([]authorResponse, len(p.Authors))
	for i, a := range p.Authors {
		authors[i] = authorResponse{
			Name:        a.Name,
			Affiliation: a.Affiliation,
			ORCID:       a.ORCID,
		}
	}
	return paperResponse{
		Title:          p.Title,
		Authors:        authors,
		Abstract:       p.Abstract,
		DOI:            p.DOI,
		Year:           p.Year,
		Venue:          p.Venue,
		URL:            p.URL,
		PdfURL:         p.PDFURL,
		Source:         p.Source,
		CitationCount:  p.CitationCount,
		ReferenceCount: p.ReferenceCount,
		OpenAccess:     p.OpenAccess,
		Keywords:       p.Keywords,
	}
}

func sourceToResponse(src papersources.PaperSource) sourceInfoResponse {
	spec := src.Pagination()
	return sourceInfoResponse{
		Name:    src.Name(),
		Enabled: src.IsEnabled(),
		Pagination: paginationResponse{
			Kind:         spec.Kind.String(),
			MaxBatchSize: spec.MaxBatchSize,
			MaxOffset:    spec.MaxOffset,
		},
	}
}

func sortSourceInfos(infos []sourceInfoResponse) {
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
}
