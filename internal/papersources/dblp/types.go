package dblp

import "encoding/json"

// SearchResponse is the envelope returned by /search/publ/api.
type SearchResponse struct {
	Result Result `json:"result"`
}

// Result holds the hit list and paging counters.
type Result struct {
	Hits Hits `json:"hits"`
}

// Hits carries the matched publications. The counters arrive as strings.
type Hits struct {
	Total string `json:"@total"`
	First string `json:"@first"`
	Sent  string `json:"@sent"`
	Hit   []Hit  `json:"hit"`
}

// Hit is a single search hit.
type Hit struct {
	Info Info `json:"info"`
}

// Info is the publication record inside a hit.
type Info struct {
	Title   string   `json:"title"`
	Authors *Authors `json:"authors"`
	Venue   Flexible `json:"venue"`
	Year    string   `json:"year"`
	Type    string   `json:"type"`
	Access  string   `json:"access"`
	DOI     string   `json:"doi"`
	EE      string   `json:"ee"`
	URL     string   `json:"url"`
	Key     string   `json:"key"`
}

// Authors wraps the author list. dblp emits a single object instead of
// an array when a publication has one author.
type Authors struct {
	Author []AuthorName `json:"author"`
}

// UnmarshalJSON accepts both the single-object and the array encodings.
func (a *Authors) UnmarshalJSON(data []byte) error {
	var multi struct {
		Author []AuthorName `json:"author"`
	}
	if err := json.Unmarshal(data, &multi); err == nil {
		a.Author = multi.Author
		return nil
	}

	var single struct {
		Author AuthorName `json:"author"`
	}
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	if single.Author.Text != "" {
		a.Author = []AuthorName{single.Author}
	}
	return nil
}

// AuthorName is an author entry; the name is in the "text" field.
type AuthorName struct {
	PID  string `json:"@pid"`
	Text string `json:"text"`
}

// Flexible is a string-or-array JSON value flattened to its first
// string.
type Flexible string

// UnmarshalJSON accepts a bare string or an array of strings.
func (f *Flexible) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = Flexible(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	if len(list) > 0 {
		*f = Flexible(list[0])
	}
	return nil
}
