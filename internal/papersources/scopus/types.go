package scopus

// SearchResponse is the envelope returned by the Scopus search API.
type SearchResponse struct {
	SearchResults SearchResults `json:"search-results"`
}

// SearchResults holds the paging counters and entries. The counters
// arrive as strings.
type SearchResults struct {
	TotalResults string  `json:"opensearch:totalResults"`
	StartIndex   string  `json:"opensearch:startIndex"`
	ItemsPerPage string  `json:"opensearch:itemsPerPage"`
	Entries      []Entry `json:"entry"`
}

// Entry is a single document in the search results.
type Entry struct {
	Identifier      string       `json:"dc:identifier"` // "SCOPUS_ID:85012345678"
	EID             string       `json:"eid"`
	DOI             string       `json:"prism:doi"`
	Title           string       `json:"dc:title"`
	Creator         string       `json:"dc:creator"` // first author in STANDARD view
	Description     string       `json:"dc:description"`
	PublicationName string       `json:"prism:publicationName"`
	CoverDate       string       `json:"prism:coverDate"`
	CitedByCount    string       `json:"citedby-count"`
	PubMedID        string       `json:"pubmed-id"`
	SubType         string       `json:"subtype"`
	OpenAccessFlag  bool         `json:"openaccessFlag"`
	Links           []Link       `json:"link"`
	Authors         *AuthorGroup `json:"author"` // COMPLETE view only
}

// Link is a @ref-typed link attached to an entry.
type Link struct {
	Ref  string `json:"@ref"`
	Href string `json:"@href"`
}

// AuthorGroup wraps the author array in COMPLETE view responses.
type AuthorGroup struct {
	Authors []Author `json:"author"`
}

// Author is a single author in a COMPLETE view response.
type Author struct {
	AuthID    string `json:"authid"`
	Name      string `json:"authname"` // "Surname, Given"
	GivenName string `json:"given-name"`
	Surname   string `json:"surname"`
	ORCID     string `json:"orcid"`
}
