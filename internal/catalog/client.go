package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ClientConfig controls the upstream catalog/marketplace HTTP client.
type ClientConfig struct {
	// CatalogBaseURL serves the collection membership endpoint.
	CatalogBaseURL string
	// MarketplaceBaseURL serves product details and search.
	MarketplaceBaseURL string
	UserAgent          string
	Timeout            time.Duration
}

// Client fetches collection membership and product details from the
// catalog upstreams.
type Client struct {
	catalogBase     string
	marketplaceBase string
	userAgent       string
	httpClient      *http.Client
}

// NewClient constructs a Client. Base URLs are required.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.CatalogBaseURL == "" {
		return nil, fmt.Errorf("catalog base URL is required")
	}
	if cfg.MarketplaceBaseURL == "" {
		return nil, fmt.Errorf("marketplace base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		catalogBase:     strings.TrimRight(cfg.CatalogBaseURL, "/"),
		marketplaceBase: strings.TrimRight(cfg.MarketplaceBaseURL, "/"),
		userAgent:       cfg.UserAgent,
		httpClient:      &http.Client{Timeout: timeout},
	}, nil
}

// collectionEntry is one element of the collection endpoint response.
// The first element carries collection metadata and has no id.
type collectionEntry struct {
	ID string `json:"id"`
}

// FetchCollection returns the product ids currently in a collection for
// the given locale and market.
func (c *Client) FetchCollection(ctx context.Context, collectionID, language, market string) ([]string, error) {
	q := url.Values{}
	q.Set("id", collectionID)
	q.Set("language", language)
	q.Set("market", market)
	endpoint := fmt.Sprintf("%s/sigls/v2?%s", c.catalogBase, q.Encode())

	var entries []collectionEntry
	if err := c.getJSON(ctx, endpoint, &entries); err != nil {
		return nil, fmt.Errorf("fetch collection %s/%s: %w", collectionID, market, err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.ID != "" {
			ids = append(ids, e.ID)
		}
	}
	return ids, nil
}

type productsResponse struct {
	Products []struct {
		ProductID           string `json:"ProductId"`
		LocalizedProperties []struct {
			ProductTitle       string `json:"ProductTitle"`
			ProductDescription string `json:"ProductDescription"`
			DeveloperName      string `json:"DeveloperName"`
			PublisherName      string `json:"PublisherName"`
			ShortTitle         string `json:"ShortTitle"`
			SortTitle          string `json:"SortTitle"`
			ShortDescription   string `json:"ShortDescription"`
			Images             []struct {
				FileID            string `json:"FileId"`
				Height            int    `json:"Height"`
				Width             int    `json:"Width"`
				URI               string `json:"Uri"`
				ImagePurpose      string `json:"ImagePurpose"`
				ImagePositionInfo string `json:"ImagePositionInfo"`
			} `json:"Images"`
		} `json:"LocalizedProperties"`
	} `json:"Products"`
}

// FetchProducts returns localized product records for the given ids.
// Callers are expected to pass at most DefaultChunkSize ids per request.
func (c *Client) FetchProducts(ctx context.Context, gameIDs []string, language, market string) ([]Game, error) {
	if len(gameIDs) == 0 {
		return nil, nil
	}
	q := url.Values{}
	q.Set("bigIds", strings.Join(gameIDs, ","))
	q.Set("languages", language)
	q.Set("market", market)
	endpoint := fmt.Sprintf("%s/v7.0/products?%s", c.marketplaceBase, q.Encode())

	var resp productsResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("fetch products (%d ids, %s): %w", len(gameIDs), language, err)
	}

	games := make([]Game, 0, len(resp.Products))
	for _, p := range resp.Products {
		if len(p.LocalizedProperties) == 0 {
			continue
		}
		lp := p.LocalizedProperties[0]
		game := Game{
			ProductID:          p.ProductID,
			ProductTitle:       lp.ProductTitle,
			ProductDescription: lp.ProductDescription,
			DeveloperName:      lp.DeveloperName,
			PublisherName:      lp.PublisherName,
			ShortTitle:         lp.ShortTitle,
			SortTitle:          lp.SortTitle,
			ShortDescription:   lp.ShortDescription,
		}
		for _, img := range lp.Images {
			game.ImageDescriptors = append(game.ImageDescriptors, ImageDescriptor{
				FileID:       img.FileID,
				Height:       img.Height,
				Width:        img.Width,
				URI:          img.URI,
				Purpose:      img.ImagePurpose,
				PositionInfo: img.ImagePositionInfo,
			})
		}
		games = append(games, game)
	}
	return games, nil
}

type searchResponse struct {
	Results []struct {
		ProductID string `json:"ProductId"`
	} `json:"Results"`
}

// Search queries the marketplace and returns matching product ids.
func (c *Client) Search(ctx context.Context, query, language, market string) ([]string, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("language", language)
	q.Set("market", market)
	endpoint := fmt.Sprintf("%s/v7.0/productFamilies/autosuggest?%s", c.marketplaceBase, q.Encode())

	var resp searchResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	ids := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.ProductID != "" {
			ids = append(ids, r.ProductID)
		}
	}
	return ids, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
