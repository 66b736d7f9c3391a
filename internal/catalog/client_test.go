package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchCollectionSkipsMetadataEntry(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sigls/v2", r.URL.Path)
		require.Equal(t, "col-1", r.URL.Query().Get("id"))
		require.Equal(t, "en-us", r.URL.Query().Get("language"))
		require.Equal(t, "US", r.URL.Query().Get("market"))
		w.Header().Set("Content-Type", "application/json")
		// First entry is collection metadata without an id.
		_, _ = w.Write([]byte(`[{"title":"Console"},{"id":"9NABC"},{"id":"9NDEF"}]`))
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{CatalogBaseURL: srv.URL, MarketplaceBaseURL: srv.URL})
	require.NoError(t, err)

	ids, err := c.FetchCollection(context.Background(), "col-1", "en-us", "US")
	require.NoError(t, err)
	require.Equal(t, []string{"9NABC", "9NDEF"}, ids)
}

func TestFetchCollectionUpstreamError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{CatalogBaseURL: srv.URL, MarketplaceBaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.FetchCollection(context.Background(), "col-1", "en-us", "US")
	require.ErrorContains(t, err, "unexpected status 502")
}

func TestFetchProductsMapsFields(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v7.0/products", r.URL.Path)
		require.Equal(t, "9NABC,9NDEF", r.URL.Query().Get("bigIds"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"Products": [{
				"ProductId": "9NABC",
				"LocalizedProperties": [{
					"ProductTitle": "Halo Infinite",
					"ProductDescription": "desc",
					"DeveloperName": "343",
					"PublisherName": "Xbox Game Studios",
					"ShortTitle": "Halo",
					"SortTitle": "Halo Infinite",
					"ShortDescription": "short",
					"Images": [{
						"FileId": "f1",
						"Height": 1080,
						"Width": 1920,
						"Uri": "//img.example.com/f1.jpg",
						"ImagePurpose": "Screenshot",
						"ImagePositionInfo": "0"
					}]
				}]
			}]
		}`))
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{CatalogBaseURL: srv.URL, MarketplaceBaseURL: srv.URL})
	require.NoError(t, err)

	games, err := c.FetchProducts(context.Background(), []string{"9NABC", "9NDEF"}, "en-us", "US")
	require.NoError(t, err)
	require.Len(t, games, 1)
	require.Equal(t, "9NABC", games[0].ProductID)
	require.Equal(t, "Halo Infinite", games[0].ProductTitle)
	require.Len(t, games[0].ImageDescriptors, 1)
	require.Equal(t, "Screenshot", games[0].ImageDescriptors[0].Purpose)
	require.Equal(t, 1920, games[0].ImageDescriptors[0].Width)
}

func TestFetchProductsEmptyInput(t *testing.T) {
	t.Parallel()

	c, err := NewClient(ClientConfig{CatalogBaseURL: "http://localhost", MarketplaceBaseURL: "http://localhost"})
	require.NoError(t, err)

	games, err := c.FetchProducts(context.Background(), nil, "en-us", "US")
	require.NoError(t, err)
	require.Nil(t, games)
}

func TestSearchReturnsIDs(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v7.0/productFamilies/autosuggest", r.URL.Path)
		require.Equal(t, "halo", r.URL.Query().Get("query"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Results":[{"ProductId":"9NABC"},{"ProductId":""}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{CatalogBaseURL: srv.URL, MarketplaceBaseURL: srv.URL})
	require.NoError(t, err)

	ids, err := c.Search(context.Background(), "halo", "en-us", "US")
	require.NoError(t, err)
	require.Equal(t, []string{"9NABC"}, ids)
}
