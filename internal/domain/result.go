package domain

// SearchResult is the merged outcome of one multi-source search.
//
// Invariant: every source requested for a search appears either in
// SourcesQueried (it responded, possibly with zero papers) or as a key in
// Errors (it failed), never both and never neither.
type SearchResult struct {
	// Query is the free-text query the result answers.
	Query string `json:"query"`

	// Papers is the merged, deduplicated, interleaved paper list.
	Papers []*Paper `json:"papers"`

	// TotalResults is a best-effort estimate of the total matches across
	// sources, summed from the per-source totals where available.
	TotalResults int `json:"total_results,omitempty"`

	// SourcesQueried lists sources that completed, even with zero hits.
	SourcesQueried []string `json:"sources_queried"`

	// Errors maps a failed source name to its error message.
	Errors map[string]string `json:"errors,omitempty"`
}

// OK reports whether every requested source completed without error.
func (r *SearchResult) OK() bool {
	return len(r.Errors) == 0
}
