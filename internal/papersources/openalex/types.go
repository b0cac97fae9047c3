package openalex

// SearchResponse is the envelope of the OpenAlex /works endpoint.
type SearchResponse struct {
	Meta    Meta   `json:"meta"`
	Results []Work `json:"results"`
}

// Meta carries result counts and the pagination cursor.
type Meta struct {
	Count      int    `json:"count"`
	PerPage    int    `json:"per_page"`
	NextCursor string `json:"next_cursor"`
}

// Work is a single OpenAlex work record.
type Work struct {
	ID                    string           `json:"id"`
	DOI                   string           `json:"doi"`
	Title                 string           `json:"title"`
	DisplayName           string           `json:"display_name"`
	PublicationYear       int              `json:"publication_year"`
	PublicationDate       string           `json:"publication_date"`
	Type                  string           `json:"type"`
	CitedByCount          int              `json:"cited_by_count"`
	ReferencedWorks       []string         `json:"referenced_works"`
	Authorships           []Authorship     `json:"authorships"`
	PrimaryLocation       *Location        `json:"primary_location"`
	OpenAccess            *OpenAccess      `json:"open_access"`
	Keywords              []Keyword        `json:"keywords"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
}

// Authorship links an author to a work.
type Authorship struct {
	Author       AuthorInfo    `json:"author"`
	Institutions []Institution `json:"institutions"`
}

// AuthorInfo identifies an author.
type AuthorInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Orcid       string `json:"orcid"`
}

// Institution is an author affiliation.
type Institution struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Location describes where a work is hosted.
type Location struct {
	LandingPageURL string  `json:"landing_page_url"`
	PDFURL         string  `json:"pdf_url"`
	Source         *Venue  `json:"source"`
}

// Venue is the journal or repository hosting a work.
type Venue struct {
	DisplayName string `json:"display_name"`
}

// OpenAccess describes a work's open access status.
type OpenAccess struct {
	IsOA  bool   `json:"is_oa"`
	OAURL string `json:"oa_url"`
}

// Keyword is an OpenAlex-assigned subject keyword.
type Keyword struct {
	DisplayName string `json:"display_name"`
}
