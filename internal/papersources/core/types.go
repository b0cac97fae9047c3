package core

// SearchRequest is the body posted to /search/works. ScrollID continues
// a scroll; Scroll requests a fresh one.
type SearchRequest struct {
	Query    string `json:"q"`
	Limit    int    `json:"limit"`
	Scroll   bool   `json:"scroll,omitempty"`
	ScrollID string `json:"scrollId,omitempty"`
}

// SearchResponse is the envelope returned by /search/works.
type SearchResponse struct {
	TotalHits int    `json:"totalHits"`
	Limit     int    `json:"limit"`
	ScrollID  string `json:"scrollId"`
	Results   []Work `json:"results"`
}

// Work is a CORE work record.
type Work struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Abstract      string   `json:"abstract"`
	DOI           string   `json:"doi"`
	YearPublished int      `json:"yearPublished"`
	Publisher     string   `json:"publisher"`
	DownloadURL   string   `json:"downloadUrl"`
	CitationCount int      `json:"citationCount"`
	Authors       []Author `json:"authors"`
	Journals      []Journal `json:"journals"`
	Links         []Link   `json:"links"`
	FieldOfStudy  string   `json:"fieldOfStudy"`
}

// Author is a work author.
type Author struct {
	Name string `json:"name"`
}

// Journal identifies a journal a work appeared in.
type Journal struct {
	Title string `json:"title"`
}

// Link is a typed link attached to a work.
type Link struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}
