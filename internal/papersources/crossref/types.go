package crossref

// SearchResponse is the envelope returned by /works.
type SearchResponse struct {
	Status  string  `json:"status"`
	Message Message `json:"message"`
}

// Message holds the result page inside the envelope.
type Message struct {
	TotalResults int    `json:"total-results"`
	NextCursor   string `json:"next-cursor"`
	Items        []Work `json:"items"`
}

// WorkResponse is the envelope returned by /works/{doi}.
type WorkResponse struct {
	Status  string `json:"status"`
	Message Work   `json:"message"`
}

// Work is a Crossref work record. Titles and container titles arrive as
// arrays; the first element is the usable value.
type Work struct {
	DOI                  string      `json:"DOI"`
	Title                []string    `json:"title"`
	Abstract             string      `json:"abstract"`
	Author               []Author    `json:"author"`
	ContainerTitle       []string    `json:"container-title"`
	Published            *DateParts  `json:"published"`
	PublishedPrint       *DateParts  `json:"published-print"`
	PublishedOnline      *DateParts  `json:"published-online"`
	URL                  string      `json:"URL"`
	Link                 []Link      `json:"link"`
	IsReferencedByCount  int         `json:"is-referenced-by-count"`
	ReferencesCount      int         `json:"references-count"`
	Subject              []string    `json:"subject"`
	Type                 string      `json:"type"`
	License              []License   `json:"license"`
}

// Author is a Crossref contributor record.
type Author struct {
	Given       string        `json:"given"`
	Family      string        `json:"family"`
	Name        string        `json:"name"`
	ORCID       string        `json:"ORCID"`
	Affiliation []Affiliation `json:"affiliation"`
}

// Affiliation is a contributor affiliation.
type Affiliation struct {
	Name string `json:"name"`
}

// DateParts is Crossref's [[year, month, day]] date encoding.
type DateParts struct {
	DateParts [][]int `json:"date-parts"`
}

// Year returns the year component, or zero when absent.
func (d *DateParts) Year() int {
	if d == nil || len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return 0
	}
	return d.DateParts[0][0]
}

// Link is a full-text link attached to a work.
type Link struct {
	URL         string `json:"URL"`
	ContentType string `json:"content-type"`
}

// License is a license attached to a work.
type License struct {
	URL string `json:"URL"`
}
