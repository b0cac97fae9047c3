package semanticscholar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
	"github.com/SteadfastAsArt/paper-ladder/internal/papersources"
)

func newTestClient(t *testing.T, serverURL, apiKey string) *Client {
	t.Helper()
	client, err := New(Config{
		BaseURL:   serverURL,
		APIKey:    apiKey,
		Timeout:   5 * time.Second,
		RateLimit: 100,
		Enabled:   true,
	})
	require.NoError(t, err)
	return client
}

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/paper/search", r.URL.Path)
		assert.Equal(t, "transformers", r.URL.Query().Get("query"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Equal(t, "200", r.URL.Query().Get("offset"))
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(SearchResponse{
			Total:  450,
			Offset: 200,
			Next:   300,
			Data: []Paper{
				{
					PaperID:        "abc123",
					Title:          "Attention Is All You Need",
					Abstract:       "The dominant sequence transduction models...",
					Year:           2017,
					Venue:          "NeurIPS",
					URL:            "https://www.semanticscholar.org/paper/abc123",
					CitationCount:  90000,
					ReferenceCount: 42,
					IsOpenAccess:   true,
					OpenAccessPDF:  &OpenAccessPDF{URL: "https://example.org/attention.pdf"},
					FieldsOfStudy:  []string{"Computer Science"},
					ExternalIDs:    ExternalIDs{DOI: "10.5555/3295222", ArXiv: "1706.03762"},
					Authors:        []Author{{AuthorID: "a1", Name: "Ashish Vaswani"}},
				},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "secret")
	result, err := client.Search(context.Background(), papersources.SearchParams{
		Query:  "transformers",
		Offset: 200,
	})
	require.NoError(t, err)

	assert.Equal(t, 450, result.TotalResults)
	assert.True(t, result.HasMore)
	assert.Equal(t, 201, result.NextOffset)
	require.Len(t, result.Papers, 1)

	paper := result.Papers[0]
	assert.Equal(t, "Attention Is All You Need", paper.Title)
	assert.Equal(t, "10.5555/3295222", paper.DOI)
	assert.Equal(t, "https://example.org/attention.pdf", paper.PDFURL)
	assert.Equal(t, "1706.03762", paper.RawData["arxiv_id"])
	assert.Equal(t, Name, paper.Source)
}

func TestSearchBadRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unparsable query", http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")
	_, err := client.Search(context.Background(), papersources.SearchParams{Query: "q"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)

	var apiErr *domain.ExternalAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestGetByIDPrefixesDOI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/paper/DOI:10.1038/nature12373", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Paper{
			PaperID:     "xyz",
			Title:       "CRISPR",
			ExternalIDs: ExternalIDs{DOI: "10.1038/nature12373"},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")
	paper, err := client.GetByID(context.Background(), "10.1038/nature12373")
	require.NoError(t, err)
	assert.Equal(t, "10.1038/nature12373", paper.DOI)
}

func TestCitations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/paper/DOI:10.5555/3295222/citations", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, searchFields, r.URL.Query().Get("fields"))

		w.Header().Set("Content-Type", "application/json")
		var resp CitationsResponse
		resp.Data = make([]struct {
			CitingPaper Paper `json:"citingPaper"`
		}, 2)
		resp.Data[0].CitingPaper = Paper{
			PaperID:     "cit1",
			Title:       "BERT",
			Year:        2019,
			ExternalIDs: ExternalIDs{DOI: "10.18653/v1/N19-1423"},
		}
		// Untitled stub records get dropped.
		resp.Data[1].CitingPaper = Paper{PaperID: "cit2"}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")
	papers, err := client.Citations(context.Background(), "10.5555/3295222", 50)
	require.NoError(t, err)

	require.Len(t, papers, 1)
	assert.Equal(t, "BERT", papers[0].Title)
	assert.Equal(t, "10.18653/v1/n19-1423", papers[0].DOI)
	assert.Equal(t, Name, papers[0].Source)
}

func TestReferencesCapsLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/paper/abc123/references", r.URL.Path)
		assert.Equal(t, "1000", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		var resp ReferencesResponse
		resp.Data = make([]struct {
			CitedPaper Paper `json:"citedPaper"`
		}, 1)
		resp.Data[0].CitedPaper = Paper{PaperID: "ref1", Title: "Neural Machine Translation"}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")
	papers, err := client.References(context.Background(), "abc123", 5000)
	require.NoError(t, err)

	require.Len(t, papers, 1)
	assert.Equal(t, "Neural Machine Translation", papers[0].Title)
}

func TestCitationsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "paper not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")
	_, err := client.Citations(context.Background(), "missing", 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPaginationSpec(t *testing.T) {
	client := newTestClient(t, "http://unused", "")
	spec := client.Pagination()
	assert.Equal(t, papersources.PageKindOffset, spec.Kind)
	assert.Equal(t, MaxOffset, spec.MaxOffset)
}
