package europepmc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SteadfastAsArt/paper-ladder/internal/papersources"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client, err := New(Config{
		BaseURL:   serverURL,
		Timeout:   5 * time.Second,
		RateLimit: 100,
		Enabled:   true,
	})
	require.NoError(t, err)
	return client
}

func sampleArticle() Article {
	return Article{
		ID:           "38000001",
		Source:       "MED",
		PMID:         "38000001",
		DOI:          "10.1093/nar/gkad1234",
		Title:        "Europe PMC in 2024",
		AuthorString: "McEntyre J, Levchenko M.",
		JournalTitle: "Nucleic Acids Research",
		PubYear:      "2024",
		AbstractText: "Europe PMC is an open science platform.",
		IsOpenAccess: "Y",
		CitedByCount: 12,
		FullTextURLList: &FullTextURLs{FullTextURL: []FullTextURL{
			{DocumentStyle: "pdf", Availability: "Open access", URL: "https://example.org/gkad1234.pdf"},
			{DocumentStyle: "html", Availability: "Open access", URL: "https://example.org/gkad1234"},
		}},
	}
}

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "*", r.URL.Query().Get("cursorMark"))
		assert.Equal(t, "core", r.URL.Query().Get("resultType"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(SearchResponse{
			HitCount:       98,
			NextCursorMark: "AoIIP4AAACs0",
			ResultList:     ResultList{Result: []Article{sampleArticle()}},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	result, err := client.Search(context.Background(), papersources.SearchParams{Query: "europe pmc"})
	require.NoError(t, err)

	assert.Equal(t, 98, result.TotalResults)
	assert.True(t, result.HasMore)
	assert.Equal(t, "AoIIP4AAACs0", result.NextCursor)
	require.Len(t, result.Papers, 1)

	paper := result.Papers[0]
	assert.Equal(t, "Europe PMC in 2024", paper.Title)
	assert.Equal(t, "10.1093/nar/gkad1234", paper.DOI)
	assert.Equal(t, 2024, paper.Year)
	assert.Equal(t, "https://example.org/gkad1234.pdf", paper.PDFURL)
	assert.Equal(t, "https://example.org/gkad1234", paper.URL)
	require.Len(t, paper.Authors, 2)
	assert.Equal(t, "McEntyre J", paper.Authors[0].Name)
	assert.Equal(t, "Levchenko M", paper.Authors[1].Name)
	require.NotNil(t, paper.OpenAccess)
	assert.True(t, *paper.OpenAccess)
	assert.Equal(t, "38000001", paper.RawData["pmid"])
}

func TestSearchCursorStallEndsWalk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Europe PMC signals exhaustion by echoing the cursor back.
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(SearchResponse{
			HitCount:       98,
			NextCursorMark: r.URL.Query().Get("cursorMark"),
			ResultList:     ResultList{Result: []Article{sampleArticle()}},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	result, err := client.Search(context.Background(), papersources.SearchParams{
		Query:  "europe pmc",
		Cursor: "AoIIP4AAACs0",
	})
	require.NoError(t, err)
	assert.False(t, result.HasMore)
	assert.Empty(t, result.NextCursor)
	assert.Len(t, result.Papers, 1, "the final page still carries results")
}

func TestGetByIDBuildsIdentifierQuery(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{"pmcid", "PMC1234567", "PMCID:PMC1234567"},
		{"doi", "https://doi.org/10.1093/nar/gkad1234", `DOI:"10.1093/nar/gkad1234"`},
		{"pmid", "38000001", "EXT_ID:38000001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.want, r.URL.Query().Get("query"))
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(SearchResponse{
					HitCount:   1,
					ResultList: ResultList{Result: []Article{sampleArticle()}},
				})
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			paper, err := client.GetByID(context.Background(), tt.id)
			require.NoError(t, err)
			assert.Equal(t, "Europe PMC in 2024", paper.Title)
		})
	}
}
