package imagecache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pultar/gamepass-service/internal/catalog"
	"github.com/pultar/gamepass-service/internal/metrics"
	"github.com/pultar/gamepass-service/internal/store"
)

// URLResolver looks up a stored image URI for a product. It returns
// store.ErrNotFound when no descriptor row matches.
type URLResolver interface {
	ImageURL(ctx context.Context, productID, language, purpose string) (string, error)
}

// ProductFetcher is the marketplace fallback used when the repository
// has no descriptor yet, e.g. for products added since the last crawl.
type ProductFetcher interface {
	FetchProducts(ctx context.Context, gameIDs []string, language, market string) ([]catalog.Game, error)
}

// Service resolves image requests: cache lookup, URL resolution,
// download, optional resize, single-variant store.
type Service struct {
	cache      *Cache
	resolver   URLResolver
	fetcher    ProductFetcher
	httpClient *http.Client
	market     string
	logger     *zap.Logger
}

// NewService constructs a Service. market is used for the marketplace
// fallback fetch.
func NewService(cache *Cache, resolver URLResolver, fetcher ProductFetcher, market string, timeout time.Duration, logger *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		cache:      cache,
		resolver:   resolver,
		fetcher:    fetcher,
		httpClient: &http.Client{Timeout: timeout},
		market:     market,
		logger:     logger,
	}
}

// Serve returns JPEG bytes for the requested variant. width <= 0 asks
// for the unprocessed original. It returns store.ErrNotFound when no
// source URL resolves.
func (s *Service) Serve(ctx context.Context, productID, language, purpose string, width int) ([]byte, error) {
	if data, ok := s.lookup(productID, language, purpose, width); ok {
		metrics.ObserveImageCache("hit")
		return data, nil
	}
	metrics.ObserveImageCache("miss")

	uri, err := s.resolveURL(ctx, productID, language, purpose)
	if err != nil {
		return nil, err
	}
	data, err := s.download(ctx, uri)
	if err != nil {
		return nil, err
	}

	key := Key{ProductID: productID, Language: language, Purpose: purpose}
	if width > 0 {
		variant, w, h, err := Normalize(data, width)
		if err != nil {
			return nil, fmt.Errorf("process image %s/%s: %w", productID, purpose, err)
		}
		data, key.Width, key.Height = variant, w, h
	}
	// Only the requested variant is stored; the original is not kept
	// alongside it.
	s.cache.Set(key, data)
	s.logger.Debug("image cached",
		zap.String("product_id", productID),
		zap.String("purpose", purpose),
		zap.Int("width", key.Width),
	)
	return data, nil
}

func (s *Service) lookup(productID, language, purpose string, width int) ([]byte, bool) {
	if width <= 0 {
		return s.cache.Get(Key{ProductID: productID, Language: language, Purpose: purpose})
	}
	height, ok := s.cache.FindHeight(productID, language, purpose, width)
	if !ok {
		return nil, false
	}
	return s.cache.Get(Key{
		ProductID: productID,
		Language:  language,
		Purpose:   purpose,
		Width:     width,
		Height:    height,
	})
}

func (s *Service) resolveURL(ctx context.Context, productID, language, purpose string) (string, error) {
	uri, err := s.resolver.ImageURL(ctx, productID, language, purpose)
	if err == nil {
		return uri, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("resolve image url: %w", err)
	}
	if s.fetcher == nil {
		return "", store.ErrNotFound
	}

	// No descriptor row yet; ask the marketplace directly.
	games, err := s.fetcher.FetchProducts(ctx, []string{productID}, language, s.market)
	if err != nil {
		return "", fmt.Errorf("fallback product fetch: %w", err)
	}
	wantPurpose := purpose
	wantPosition := ""
	if position, ok := strings.CutPrefix(purpose, "Screenshot_"); ok {
		wantPurpose = "Screenshot"
		wantPosition = position
	}
	for _, game := range games {
		if game.ProductID != productID {
			continue
		}
		for _, d := range game.ImageDescriptors {
			if d.Purpose != wantPurpose {
				continue
			}
			if wantPosition != "" && d.PositionInfo != wantPosition {
				continue
			}
			if d.URI != "" {
				return d.URI, nil
			}
		}
	}
	return "", store.ErrNotFound
}

func (s *Service) download(ctx context.Context, uri string) ([]byte, error) {
	// Marketplace descriptors carry protocol-relative URIs.
	if strings.HasPrefix(uri, "//") {
		uri = "https:" + uri
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image source responded with status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	return data, nil
}
