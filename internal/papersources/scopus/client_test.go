package scopus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
	"github.com/SteadfastAsArt/paper-ladder/internal/papersources"
)

const searchBody = `{
	"search-results": {
		"opensearch:totalResults": "1287",
		"opensearch:startIndex": "0",
		"opensearch:itemsPerPage": "2",
		"entry": [
			{
				"dc:identifier": "SCOPUS_ID:85012345678",
				"eid": "2-s2.0-85012345678",
				"prism:doi": "10.1016/J.NEUNET.2021.01.001",
				"dc:title": "Graph neural networks for molecular property prediction",
				"dc:description": "We benchmark GNN architectures.",
				"prism:publicationName": "Neural Networks",
				"prism:coverDate": "2021-04-15",
				"citedby-count": "142",
				"pubmed-id": "33550123",
				"openaccessFlag": true,
				"link": [
					{"@ref": "self", "@href": "https://api.elsevier.com/content/abstract/scopus_id/85012345678"},
					{"@ref": "scopus", "@href": "https://www.scopus.com/inward/record.uri?eid=2-s2.0-85012345678"}
				],
				"author": {
					"author": [
						{"authid": "57201234567", "authname": "Nguyen, T.", "given-name": "Thanh", "surname": "Nguyen", "orcid": "0000-0002-1825-0097"},
						{"authid": "57209876543", "authname": "Ito, K."}
					]
				}
			},
			{
				"dc:identifier": "SCOPUS_ID:85098765432",
				"eid": "2-s2.0-85098765432",
				"dc:title": "A survey of message passing",
				"dc:creator": "Rossi F.",
				"prism:coverDate": "2020-11-01",
				"citedby-count": "9",
				"openaccessFlag": false
			}
		]
	}
}`

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client, err := New(Config{
		BaseURL:   serverURL,
		APIKey:    "scopus-key",
		Timeout:   5 * time.Second,
		RateLimit: 100,
		Enabled:   true,
	})
	require.NoError(t, err)
	return client
}

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/scopus", r.URL.Path)
		assert.Equal(t, "scopus-key", r.Header.Get("X-ELS-APIKey"))

		q := r.URL.Query()
		assert.Equal(t, "TITLE-ABS-KEY(graph neural networks)", q.Get("query"))
		assert.Equal(t, "25", q.Get("count"))
		assert.Equal(t, "COMPLETE", q.Get("view"))
		assert.Empty(t, q.Get("start"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchBody))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	result, err := client.Search(context.Background(), papersources.SearchParams{
		Query: "graph neural networks",
	})
	require.NoError(t, err)

	assert.Equal(t, 1287, result.TotalResults)
	assert.True(t, result.HasMore)
	assert.Equal(t, 2, result.NextOffset)

	require.Len(t, result.Papers, 2)
	paper := result.Papers[0]
	assert.Equal(t, "Graph neural networks for molecular property prediction", paper.Title)
	assert.Equal(t, "10.1016/j.neunet.2021.01.001", paper.DOI)
	assert.Equal(t, 2021, paper.Year)
	assert.Equal(t, "Neural Networks", paper.Venue)
	assert.Equal(t, "https://www.scopus.com/inward/record.uri?eid=2-s2.0-85012345678", paper.URL)
	assert.Equal(t, 142, paper.CitationCount)
	require.NotNil(t, paper.OpenAccess)
	assert.True(t, *paper.OpenAccess)

	require.Len(t, paper.Authors, 2)
	assert.Equal(t, "Thanh Nguyen", paper.Authors[0].Name)
	assert.Equal(t, "0000-0002-1825-0097", paper.Authors[0].ORCID)
	// No given-name/surname falls back to authname.
	assert.Equal(t, "Ito, K.", paper.Authors[1].Name)

	assert.Equal(t, "85012345678", paper.RawData["scopus_id"])
	assert.Equal(t, "2-s2.0-85012345678", paper.RawData["eid"])
	assert.Equal(t, "33550123", paper.RawData["pubmed_id"])

	// STANDARD view entry with only dc:creator still yields one author.
	second := result.Papers[1]
	require.Len(t, second.Authors, 1)
	assert.Equal(t, "Rossi F.", second.Authors[0].Name)
	require.NotNil(t, second.OpenAccess)
	assert.False(t, *second.OpenAccess)
}

func TestSearchQueryFilters(t *testing.T) {
	var query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("query")
		assert.Equal(t, "200", r.URL.Query().Get("start"))
		_, _ = w.Write([]byte(`{"search-results": {"opensearch:totalResults": "0", "entry": []}}`))
	}))
	defer server.Close()

	from := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	client := newTestClient(t, server.URL)
	result, err := client.Search(context.Background(), papersources.SearchParams{
		Query:          "transformers",
		Offset:         200,
		DateFrom:       &from,
		DateTo:         &to,
		OpenAccessOnly: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "TITLE-ABS-KEY(transformers) AND PUBYEAR > 2018 AND PUBYEAR < 2024 AND OPENACCESS(1)", query)
	assert.False(t, result.HasMore)
}

func TestGetByIDByDOI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "DOI(10.1016/j.neunet.2021.01.001)", q.Get("query"))
		assert.Equal(t, "1", q.Get("count"))
		_, _ = w.Write([]byte(searchBody))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	paper, err := client.GetByID(context.Background(), "https://doi.org/10.1016/j.neunet.2021.01.001")
	require.NoError(t, err)
	assert.Equal(t, "Graph neural networks for molecular property prediction", paper.Title)
}

func TestGetByIDByScopusID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SCOPUS-ID(85012345678)", r.URL.Query().Get("query"))
		_, _ = w.Write([]byte(searchBody))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	paper, err := client.GetByID(context.Background(), "SCOPUS_ID:85012345678")
	require.NoError(t, err)
	assert.Equal(t, "85012345678", paper.RawData["scopus_id"])
}

func TestGetByIDNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"search-results": {"opensearch:totalResults": "0", "entry": []}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.GetByID(context.Background(), "SCOPUS_ID:0")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearchUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Search(context.Background(), papersources.SearchParams{Query: "x"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestIsEnabledRequiresKey(t *testing.T) {
	client, err := New(Config{Enabled: true})
	require.NoError(t, err)
	assert.False(t, client.IsEnabled())

	keyed, err := New(Config{Enabled: true, APIKey: "k"})
	require.NoError(t, err)
	assert.True(t, keyed.IsEnabled())
}
