package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"post-analyzer/shared/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(context.Background(), &config.SearchConfig{APIKey: "k"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSearch(t *testing.T) {
	var gotQuery, gotCx, gotNum string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotCx = r.URL.Query().Get("cx")
		gotNum = r.URL.Query().Get("num")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[
			{"title":"Example","link":"https://example.com/a","snippet":"first"},
			{"title":"Other","link":"https://example.com/b","snippet":"second"}
		]}`))
	}))
	defer server.Close()

	cfg := &config.SearchConfig{APIKey: "k", EngineID: "engine", NumResults: 3}
	client, err := NewClient(context.Background(), cfg,
		option.WithEndpoint(server.URL+"/"), option.WithHTTPClient(server.Client()))
	require.NoError(t, err)

	results, err := client.Search(context.Background(), "https://example.com/a")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/a", gotQuery)
	assert.Equal(t, "engine", gotCx)
	assert.Equal(t, "3", gotNum)
	require.Len(t, results, 2)
	assert.Equal(t, "Example", results[0].Title)
	assert.Equal(t, "second", results[1].Snippet)
}

func TestSearchNoItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	cfg := &config.SearchConfig{APIKey: "k", EngineID: "engine", NumResults: 3}
	client, err := NewClient(context.Background(), cfg,
		option.WithEndpoint(server.URL+"/"), option.WithHTTPClient(server.Client()))
	require.NoError(t, err)

	results, err := client.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, results)
}
