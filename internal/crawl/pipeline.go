// Package crawl implements the two-phase catalog crawl pipeline and the
// coordinator that owns its run state.
package crawl

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pultar/gamepass-service/internal/catalog"
	"github.com/pultar/gamepass-service/internal/metrics"
)

// Fetcher is the upstream the pipeline pulls collection membership and
// product details from.
type Fetcher interface {
	FetchCollection(ctx context.Context, collectionID, language, market string) ([]string, error)
	FetchProducts(ctx context.Context, gameIDs []string, language, market string) ([]catalog.Game, error)
}

// Repository is the write side the pipeline persists into.
type Repository interface {
	SaveAvailability(ctx context.Context, collectionID, market string, productIDs []string, observedAt time.Time) error
	UpsertDescriptions(ctx context.Context, games []catalog.Game, language string) error
	UpsertImages(ctx context.Context, games []catalog.Game, language string) error
}

// MarketIndex answers which markets exist and which locales each serves.
type MarketIndex interface {
	Markets() []string
	Languages(market string) []string
}

// Clock abstracts time.Now for run timestamps.
type Clock interface {
	Now() time.Time
}

// Config controls pipeline behavior.
type Config struct {
	Collections     []string
	DefaultLanguage string
	DefaultMarket   string
	ChunkSize       int
	// Concurrency caps the number of in-flight collection fetches.
	Concurrency int
}

// Pipeline executes the collection and detail phases of one crawl run.
type Pipeline struct {
	fetcher Fetcher
	repo    Repository
	index   MarketIndex
	clock   Clock
	cfg     Config
	logger  *zap.Logger
}

// NewPipeline constructs a Pipeline.
func NewPipeline(fetcher Fetcher, repo Repository, index MarketIndex, clock Clock, cfg Config, logger *zap.Logger) *Pipeline {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = catalog.DefaultChunkSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 16
	}
	if len(cfg.Collections) == 0 {
		cfg.Collections = catalog.Collections()
	}
	return &Pipeline{
		fetcher: fetcher,
		repo:    repo,
		index:   index,
		clock:   clock,
		cfg:     cfg,
		logger:  logger,
	}
}

// Run executes both phases. It returns the default-locale stubs collected
// for the downstream notifier; the stubs of already-completed locales are
// returned even when the run fails or is cancelled partway.
func (p *Pipeline) Run(ctx context.Context) ([]catalog.GameStub, error) {
	games, markets, err := p.collectionPhase(ctx)
	if err != nil {
		return nil, err
	}

	languages := RequiredLanguages(markets, p.index)
	p.logger.Info("collection phase complete",
		zap.Int("games", len(games)),
		zap.Int("active_markets", len(markets)),
		zap.Int("required_languages", len(languages)),
	)
	if len(languages) == 0 {
		return nil, nil
	}

	return p.detailPhase(ctx, games, languages)
}

type pairResult struct {
	market  string
	gameIDs []string
}

// collectionPhase fans out over every collection x market pair, persists
// availability for each successful fetch, and aggregates the
// deduplicated game-id set plus the markets that yielded at least one
// game. Fetch failures count as empty results; persistence failures
// abort the phase.
func (p *Pipeline) collectionPhase(ctx context.Context) ([]string, []string, error) {
	markets := p.index.Markets()

	type pair struct {
		collectionID string
		market       string
	}
	pairs := make([]pair, 0, len(p.cfg.Collections)*len(markets))
	for _, c := range p.cfg.Collections {
		for _, m := range markets {
			pairs = append(pairs, pair{collectionID: c, market: m})
		}
	}

	results := make([]pairResult, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for i, pr := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ids, err := p.fetcher.FetchCollection(gctx, pr.collectionID, p.cfg.DefaultLanguage, pr.market)
			if err != nil {
				if cerr := gctx.Err(); cerr != nil {
					return cerr
				}
				// Missing one market's membership is tolerable; treat as empty.
				metrics.ObserveCollectionFetch(pr.market, "error")
				p.logger.Warn("collection fetch failed",
					zap.String("collection_id", pr.collectionID),
					zap.String("market", pr.market),
					zap.Error(err),
				)
				return nil
			}
			metrics.ObserveCollectionFetch(pr.market, "ok")
			if len(ids) == 0 {
				return nil
			}
			p.logger.Debug("collection fetched",
				zap.String("collection_id", pr.collectionID),
				zap.String("market", pr.market),
				zap.Int("games", len(ids)),
			)
			if err := p.repo.SaveAvailability(gctx, pr.collectionID, pr.market, ids, p.clock.Now()); err != nil {
				return fmt.Errorf("save availability %s/%s: %w", pr.collectionID, pr.market, err)
			}
			results[i] = pairResult{market: pr.market, gameIDs: ids}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	seen := make(map[string]struct{})
	var games []string
	marketSet := make(map[string]struct{})
	for _, r := range results {
		if len(r.gameIDs) == 0 {
			continue
		}
		marketSet[r.market] = struct{}{}
		for _, id := range r.gameIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			games = append(games, id)
		}
	}
	activeMarkets := make([]string, 0, len(marketSet))
	for m := range marketSet {
		activeMarkets = append(activeMarkets, m)
	}
	sort.Strings(activeMarkets)
	sort.Strings(games)
	return games, activeMarkets, nil
}

// RequiredLanguages is the union of the locale sets of every active
// market. Empty input yields an empty result.
func RequiredLanguages(markets []string, index MarketIndex) []string {
	set := make(map[string]struct{})
	for _, m := range markets {
		for _, l := range index.Languages(m) {
			set[l] = struct{}{}
		}
	}
	languages := make([]string, 0, len(set))
	for l := range set {
		languages = append(languages, l)
	}
	sort.Strings(languages)
	return languages
}

// detailPhase fetches and persists localized product details, one
// goroutine per locale, sequential chunks within a locale. A chunk
// failure fails the whole phase: unlike phase one, missing product
// detail is not tolerable.
func (p *Pipeline) detailPhase(ctx context.Context, games, languages []string) ([]catalog.GameStub, error) {
	chunks := catalog.ChunkIDs(games, p.cfg.ChunkSize)
	stubsPerLanguage := make([][]catalog.GameStub, len(languages))

	g, gctx := errgroup.WithContext(ctx)
	for i, language := range languages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for n, chunk := range chunks {
				if err := gctx.Err(); err != nil {
					return err
				}
				p.logger.Debug("fetching product chunk",
					zap.String("language", language),
					zap.Int("chunk", n+1),
					zap.Int("chunks", len(chunks)),
				)
				products, err := p.fetcher.FetchProducts(gctx, chunk, language, p.cfg.DefaultMarket)
				if err != nil {
					metrics.ObserveChunk(language, "error")
					return fmt.Errorf("fetch products %s chunk %d/%d: %w", language, n+1, len(chunks), err)
				}
				if err := p.repo.UpsertDescriptions(gctx, products, language); err != nil {
					metrics.ObserveChunk(language, "error")
					return fmt.Errorf("persist descriptions %s chunk %d/%d: %w", language, n+1, len(chunks), err)
				}
				if err := p.repo.UpsertImages(gctx, products, language); err != nil {
					metrics.ObserveChunk(language, "error")
					return fmt.Errorf("persist images %s chunk %d/%d: %w", language, n+1, len(chunks), err)
				}
				metrics.ObserveChunk(language, "ok")
				if language == p.cfg.DefaultLanguage {
					for _, product := range products {
						stubsPerLanguage[i] = append(stubsPerLanguage[i], product.Stub())
					}
				}
			}
			return nil
		})
	}
	err := g.Wait()

	// Aggregate after all workers have stopped; completed locales keep
	// their stubs even on failure so the notifier can still fire.
	var stubs []catalog.GameStub
	for _, s := range stubsPerLanguage {
		stubs = append(stubs, s...)
	}
	if err != nil {
		return stubs, fmt.Errorf("detail phase: %w", err)
	}
	return stubs, nil
}
