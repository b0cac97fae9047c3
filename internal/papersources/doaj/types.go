package doaj

// SearchResponse is the envelope returned by /search/articles.
type SearchResponse struct {
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"pageSize"`
	Results  []Record `json:"results"`
}

// Record is a DOAJ article record.
type Record struct {
	ID      string  `json:"id"`
	BibJSON BibJSON `json:"bibjson"`
}

// BibJSON is the bibliographic payload of a record.
type BibJSON struct {
	Title      string       `json:"title"`
	Abstract   string       `json:"abstract"`
	Year       string       `json:"year"`
	Author     []Author     `json:"author"`
	Journal    *Journal     `json:"journal"`
	Identifier []Identifier `json:"identifier"`
	Link       []Link       `json:"link"`
	Keywords   []string     `json:"keywords"`
	Subject    []Subject    `json:"subject"`
}

// Author is an article author.
type Author struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation"`
	ORCID       string `json:"orcid_id"`
}

// Journal describes the publishing journal.
type Journal struct {
	Title     string `json:"title"`
	Publisher string `json:"publisher"`
}

// Identifier is a typed identifier such as a DOI or ISSN.
type Identifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Link is a typed link attached to an article.
type Link struct {
	Type        string `json:"type"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
}

// Subject is a classification term.
type Subject struct {
	Term string `json:"term"`
}
