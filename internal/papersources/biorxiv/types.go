package biorxiv

// DetailsResponse is the envelope returned by the /details endpoint.
type DetailsResponse struct {
	Messages   []Message `json:"messages"`
	Collection []Entry   `json:"collection"`
}

// Message carries the paging counters for a details request.
type Message struct {
	Status string `json:"status"` // "ok" or "no posts found"
	Count  int    `json:"count"`
	Total  int    `json:"total"`
}

// Entry is a single preprint record.
type Entry struct {
	DOI       string `json:"doi"`
	Title     string `json:"title"`
	Authors   string `json:"authors"` // "Surname, G.; Surname, H." or comma-separated
	Date      string `json:"date"`    // "2024-01-15"
	Version   string `json:"version"`
	Category  string `json:"category"`
	Abstract  string `json:"abstract"`
	Published string `json:"published"` // journal DOI once published, else "NA"
	Server    string `json:"server"`
}
