package pubmed

import "encoding/json"

// ESearchResponse is the envelope returned by esearch.fcgi in JSON mode.
type ESearchResponse struct {
	Result ESearchResult `json:"esearchresult"`
}

// ESearchResult holds the PMIDs matching a query. Count arrives as a
// string.
type ESearchResult struct {
	Count    string   `json:"count"`
	RetMax   string   `json:"retmax"`
	RetStart string   `json:"retstart"`
	IDList   []string `json:"idlist"`
}

// ESummaryResponse is the envelope returned by esummary.fcgi in JSON
// mode. The result object maps each PMID to its document summary, with
// a "uids" key carrying the ordering.
type ESummaryResponse struct {
	Result ESummaryResult `json:"result"`
}

// ESummaryResult keeps the raw per-PMID payloads so the uids key and the
// summaries can be split apart after decoding.
type ESummaryResult struct {
	UIDs      []string
	Summaries map[string]DocSummary
}

// UnmarshalJSON splits the flat esummary result object into the uid
// ordering and the per-PMID summaries.
func (r *ESummaryResult) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if uids, ok := raw["uids"]; ok {
		if err := json.Unmarshal(uids, &r.UIDs); err != nil {
			return err
		}
		delete(raw, "uids")
	}

	r.Summaries = make(map[string]DocSummary, len(raw))
	for uid, payload := range raw {
		var summary DocSummary
		if err := json.Unmarshal(payload, &summary); err != nil {
			return err
		}
		r.Summaries[uid] = summary
	}
	return nil
}

// DocSummary is a single esummary document record.
type DocSummary struct {
	UID          string      `json:"uid"`
	Title        string      `json:"title"`
	PubDate      string      `json:"pubdate"`
	EPubDate     string      `json:"epubdate"`
	FullJournal  string      `json:"fulljournalname"`
	Source       string      `json:"source"`
	Authors      []DocAuthor `json:"authors"`
	ArticleIDs   []ArticleID `json:"articleids"`
	ELocationID  string      `json:"elocationid"`
	PubType      []string    `json:"pubtype"`
	Availability string      `json:"availablefromurl"`
}

// DocAuthor is an author entry in a document summary.
type DocAuthor struct {
	Name     string `json:"name"`
	AuthType string `json:"authtype"`
}

// ArticleID is an identifier attached to a document summary (pmid, doi,
// pmc).
type ArticleID struct {
	IDType string `json:"idtype"`
	Value  string `json:"value"`
}
