package semanticscholar

// SearchResponse is the envelope returned by /paper/search.
type SearchResponse struct {
	Total  int     `json:"total"`
	Offset int     `json:"offset"`
	Next   int     `json:"next"`
	Data   []Paper `json:"data"`
}

// CitationsResponse is the envelope returned by /paper/{id}/citations.
type CitationsResponse struct {
	Offset int `json:"offset"`
	Next   int `json:"next"`
	Data   []struct {
		CitingPaper Paper `json:"citingPaper"`
	} `json:"data"`
}

// ReferencesResponse is the envelope returned by /paper/{id}/references.
type ReferencesResponse struct {
	Offset int `json:"offset"`
	Next   int `json:"next"`
	Data   []struct {
		CitedPaper Paper `json:"citedPaper"`
	} `json:"data"`
}

// Paper is a Semantic Scholar paper record.
type Paper struct {
	PaperID         string         `json:"paperId"`
	Title           string         `json:"title"`
	Abstract        string         `json:"abstract"`
	Year            int            `json:"year"`
	Venue           string         `json:"venue"`
	URL             string         `json:"url"`
	CitationCount   int            `json:"citationCount"`
	ReferenceCount  int            `json:"referenceCount"`
	IsOpenAccess    bool           `json:"isOpenAccess"`
	OpenAccessPDF   *OpenAccessPDF `json:"openAccessPdf"`
	FieldsOfStudy   []string       `json:"fieldsOfStudy"`
	ExternalIDs     ExternalIDs    `json:"externalIds"`
	Authors         []Author       `json:"authors"`
	PublicationDate string         `json:"publicationDate"`
}

// ExternalIDs holds the identifier map attached to a paper.
type ExternalIDs struct {
	DOI    string `json:"DOI"`
	ArXiv  string `json:"ArXiv"`
	PubMed string `json:"PubMed"`
}

// OpenAccessPDF points at a paper's open-access PDF, when one exists.
type OpenAccessPDF struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}

// Author is a Semantic Scholar author record.
type Author struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}
