package dblp

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

const searchBody = `{
	"result": {
		"hits": {
			"@total": "1543",
			"@first": "0",
			"@sent": "2",
			"hit": [
				{
					"info": {
						"title": "Attention Is All You Need.",
						"authors": {
							"author": [
								{"@pid": "1", "text": "Ashish Vaswani"},
								{"@pid": "2", "text": "Noam Shazeer"}
							]
						},
						"venue": "NeurIPS",
						"year": "2017",
						"type": "Conference and Workshop Papers",
						"access": "open",
						"doi": "10.5555/3295222.3295349",
						"ee": "https://papers.nips.cc/paper/7181.pdf",
						"url": "https://dblp.org/rec/conf/nips/VaswaniSPUJGKP17",
						"key": "conf/nips/VaswaniSPUJGKP17"
					}
				},
				{
					"info": {
						"title": "A Solo Author Paper.",
						"authors": {"author": {"@pid": "3", "text": "Donald E. Knuth"}},
						"venue": ["Commun. ACM", "CACM"],
						"year": "1974",
						"type": "Journal Articles",
						"url": "https://dblp.org/rec/journals/cacm/Knuth74",
						"key": "journals/cacm/Knuth74"
					}
				}
			]
		}
	}
}`

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/publ/api", r.URL.Path)
		assert.Equal(t, "transformers", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "50", r.URL.Query().Get("h"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchBody))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	result, err := client.Search(context.Background(), papersources.SearchParams{
		Query:      "transformers",
		MaxResults: 50,
	})
	require.NoError(t, err)

	assert.Equal(t, 1543, result.TotalResults)
	assert.True(t, result.HasMore)
	assert.Equal(t, 2, result.NextOffset)
	require.Len(t, result.Papers, 2)

	first := result.Papers[0]
	assert.Equal(t, "Attention Is All You Need", first.Title)
	assert.Equal(t, []string{"Ashish Vaswani", "Noam Shazeer"}, first.AuthorNames())
	assert.Equal(t, "NeurIPS", first.Venue)
	assert.Equal(t, 2017, first.Year)
	assert.Equal(t, "10.5555/3295222.3295349", first.DOI)
	assert.Equal(t, "https://papers.nips.cc/paper/7181.pdf", first.PDFURL)
	require.NotNil(t, first.OpenAccess)
	assert.True(t, *first.OpenAccess)
	assert.Equal(t, "conf/nips/VaswaniSPUJGKP17", first.RawData["dblp_key"])

	// Single-author object form and array-valued venue both decode.
	second := result.Papers[1]
	assert.Equal(t, []string{"Donald E. Knuth"}, second.AuthorNames())
	assert.Equal(t, "Commun. ACM", second.Venue)
	assert.Nil(t, second.OpenAccess)
}

func TestSearchOffset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "200", r.URL.Query().Get("f"))
		_, _ = w.Write([]byte(`{"result": {"hits": {"@total": "1543", "@sent": "0", "hit": []}}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	result, err := client.Search(context.Background(), papersources.SearchParams{
		Query:  "transformers",
		Offset: 200,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Papers)
	assert.False(t, result.HasMore)
}

func TestSearchYearFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(searchBody))
	}))
	defer server.Close()

	from := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

	client := newTestClient(t, server.URL)
	result, err := client.Search(context.Background(), papersources.SearchParams{
		Query:    "anything",
		DateFrom: &from,
	})
	require.NoError(t, err)

	// The 1974 paper is filtered client side.
	require.Len(t, result.Papers, 1)
	assert.Equal(t, 2017, result.Papers[0].Year)
}

func TestGetByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(searchBody))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	paper, err := client.GetByID(context.Background(), "journals/cacm/Knuth74")
	require.NoError(t, err)
	assert.Equal(t, "A Solo Author Paper", paper.Title)

	_, err = client.GetByID(context.Background(), "conf/nips/DoesNotExist99")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Search(context.Background(), papersources.SearchParams{Query: "x"})
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestAuthorsUnmarshalEmptyArray(t *testing.T) {
	var authors Authors
	require.NoError(t, json.Unmarshal([]byte(`{"author": []}`), &authors))
	assert.Empty(t, authors.Author)
}
