package europepmc

// SearchResponse is the envelope returned by the Europe PMC search API.
type SearchResponse struct {
	HitCount       int        `json:"hitCount"`
	NextCursorMark string     `json:"nextCursorMark"`
	ResultList     ResultList `json:"resultList"`
}

// ResultList wraps the article array.
type ResultList struct {
	Result []Article `json:"result"`
}

// Article is a single Europe PMC result.
type Article struct {
	ID                   string        `json:"id"`
	Source               string        `json:"source"` // "MED", "PMC", "PPR", ...
	PMID                 string        `json:"pmid"`
	PMCID                string        `json:"pmcid"`
	DOI                  string        `json:"doi"`
	Title                string        `json:"title"`
	AuthorString         string        `json:"authorString"` // "Author A, Author B."
	AuthorList           *AuthorList   `json:"authorList"`
	JournalTitle         string        `json:"journalTitle"`
	PubYear              string        `json:"pubYear"`
	AbstractText         string        `json:"abstractText"`
	IsOpenAccess         string        `json:"isOpenAccess"` // "Y"/"N"
	CitedByCount         int           `json:"citedByCount"`
	FirstPublicationDate string        `json:"firstPublicationDate"`
	KeywordList          *KeywordList  `json:"keywordList"`
	FullTextURLList      *FullTextURLs `json:"fullTextUrlList"`
}

// AuthorList wraps the structured author array.
type AuthorList struct {
	Author []Author `json:"author"`
}

// Author is a structured author entry.
type Author struct {
	FullName string    `json:"fullName"`
	AuthorID *AuthorID `json:"authorId"`
}

// AuthorID is a typed author identifier, usually an ORCID.
type AuthorID struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// KeywordList wraps the keyword array.
type KeywordList struct {
	Keyword []string `json:"keyword"`
}

// FullTextURLs wraps the full-text link array.
type FullTextURLs struct {
	FullTextURL []FullTextURL `json:"fullTextUrl"`
}

// FullTextURL is one full-text link.
type FullTextURL struct {
	DocumentStyle string `json:"documentStyle"` // "pdf" or "html"
	Availability  string `json:"availability"`
	URL           string `json:"url"`
}
