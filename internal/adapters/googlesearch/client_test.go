package googlesearch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/customsearch/v1", r.URL.Path)
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		assert.Equal(t, "cx1", r.URL.Query().Get("cx"))
		assert.Equal(t, `"+15550001" scam OR fraud`, r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("num"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"title":"T1","link":"https://a.org","snippet":"s1","displayLink":"a.org"},{"title":"T2","link":"https://b.org","snippet":"s2"}]}`))
	}))
	defer srv.Close()

	c, err := New("k", "cx1", WithEndpoint(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	res, err := c.Search(context.Background(), `"+15550001" scam OR fraud`, 5)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "T1", res[0].Title)
	assert.Equal(t, "a.org", res[0].DisplayLink)
	assert.Equal(t, "https://b.org", res[1].Link)
}

func TestSearch_NoItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"searchInformation":{"totalResults":"0"}}`))
	}))
	defer srv.Close()

	c, _ := New("k", "cx", WithEndpoint(srv.URL))
	res, err := c.Search(context.Background(), "q", 50)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestSearch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"Daily limit exceeded"}}`))
	}))
	defer srv.Close()

	c, _ := New("k", "cx", WithEndpoint(srv.URL))
	_, err := c.Search(context.Background(), "q", 5)

	var apiErr *googleapi.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Code)
	assert.Equal(t, "Daily limit exceeded", apiErr.Message)
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New("", "cx")
	assert.Error(t, err)
}
