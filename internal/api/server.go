// Package api exposes the HTTP interface for the catalog service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pultar/gamepass-service/internal/catalog"
	"github.com/pultar/gamepass-service/internal/config"
	"github.com/pultar/gamepass-service/internal/crawl"
	"github.com/pultar/gamepass-service/internal/metrics"
	"github.com/pultar/gamepass-service/internal/store"
)

// GameStore is the read side of the persisted catalog.
type GameStore interface {
	ListProducts(ctx context.Context, market, collectionID string) ([]string, error)
	Details(ctx context.Context, productIDs []string, language, market, collectionID string) ([]store.GameDetails, error)
	Availability(ctx context.Context, productIDs []string, market, collectionID string, now time.Time) (map[string][]store.Period, error)
}

// MarketplaceClient covers the upstream calls the API makes directly:
// autosuggest search and the details fallback for products the crawler
// has not persisted yet.
type MarketplaceClient interface {
	Search(ctx context.Context, query, language, market string) ([]string, error)
	FetchProducts(ctx context.Context, gameIDs []string, language, market string) ([]catalog.Game, error)
}

// CrawlController controls the singleton crawl run.
type CrawlController interface {
	Start() error
	Cancel()
	Status() crawl.Status
}

// ImageService serves cached artwork variants.
type ImageService interface {
	Serve(ctx context.Context, productID, language, purpose string, width int) ([]byte, error)
}

// ManifestResolver reports cache-presence checksums without serving bytes.
type ManifestResolver interface {
	Manifest(productIDs []string, language, purpose string, width int) map[string]*string
}

// MarketIndex validates market query parameters.
type MarketIndex interface {
	IsMarket(market string) bool
}

// Clock abstracts time.Now for availability period classification.
type Clock interface {
	Now() time.Time
}

// Server wires HTTP handlers to the store, the crawl coordinator, and
// the image cache.
type Server struct {
	router      chi.Router
	games       GameStore
	marketplace MarketplaceClient
	coordinator CrawlController
	images      ImageService
	manifests   ManifestResolver
	index       MarketIndex
	clock       Clock
	cfg         config.Config
	logger      *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	games GameStore,
	marketplace MarketplaceClient,
	coordinator CrawlController,
	images ImageService,
	manifests ManifestResolver,
	index MarketIndex,
	clock Clock,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	s := &Server{
		games:       games,
		marketplace: marketplace,
		coordinator: coordinator,
		images:      images,
		manifests:   manifests,
		index:       index,
		clock:       clock,
		cfg:         cfg,
		logger:      logger.Named("api"),
	}

	requestTimeout := time.Duration(cfg.Server.RequestTimeoutSec) * time.Second
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))
	r.Use(recoverMiddleware(s.logger))
	r.Use(metricsMiddleware)
	r.Use(timeoutMiddleware(requestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/games", func(r chi.Router) {
			if cfg.Auth.Enabled {
				r.Use(bearerAuthMiddleware(cfg.Auth.BearerToken))
			}
			r.Get("/", s.listGames)
			r.Get("/details", s.gameDetails)
			r.Get("/availability", s.gameAvailability)
			r.Get("/search", s.searchGames)
		})
		r.Route("/webhooks", func(r chi.Router) {
			if cfg.Auth.Enabled {
				r.Use(bearerAuthMiddleware(cfg.Auth.BearerToken))
			}
			r.Post("/crawl", s.triggerCrawl)
			r.Get("/crawl/status", s.crawlStatus)
			r.Post("/crawl/cancel", s.cancelCrawl)
		})
		r.Route("/images", func(r chi.Router) {
			r.Get("/manifest", s.imageManifest)
			r.Get("/{productId}", s.serveImage)
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
