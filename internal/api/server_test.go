package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pultar/gamepass-service/internal/catalog"
	"github.com/pultar/gamepass-service/internal/config"
	"github.com/pultar/gamepass-service/internal/crawl"
	"github.com/pultar/gamepass-service/internal/store"
)

type fakeGameStore struct {
	listIDs      []string
	listErr      error
	details      []store.GameDetails
	detailsErr   error
	availability map[string][]store.Period
}

func (f *fakeGameStore) ListProducts(_ context.Context, _, _ string) ([]string, error) {
	return f.listIDs, f.listErr
}

func (f *fakeGameStore) Details(_ context.Context, _ []string, _, _, _ string) ([]store.GameDetails, error) {
	return f.details, f.detailsErr
}

func (f *fakeGameStore) Availability(_ context.Context, _ []string, _, _ string, _ time.Time) (map[string][]store.Period, error) {
	return f.availability, nil
}

type fakeMarketplace struct {
	searchIDs []string
	searchErr error
	products  []catalog.Game
	fetchErr  error
}

func (f *fakeMarketplace) Search(_ context.Context, _, _, _ string) ([]string, error) {
	return f.searchIDs, f.searchErr
}

func (f *fakeMarketplace) FetchProducts(_ context.Context, _ []string, _, _ string) ([]catalog.Game, error) {
	return f.products, f.fetchErr
}

type fakeCoordinator struct {
	startErr  error
	status    crawl.Status
	cancelled bool
}

func (f *fakeCoordinator) Start() error { return f.startErr }

func (f *fakeCoordinator) Cancel() { f.cancelled = true }

func (f *fakeCoordinator) Status() crawl.Status { return f.status }

type fakeImageService struct {
	data []byte
	err  error
}

func (f *fakeImageService) Serve(_ context.Context, _, _, _ string, _ int) ([]byte, error) {
	return f.data, f.err
}

type fakeManifests struct {
	checksums map[string]*string
}

func (f *fakeManifests) Manifest(_ []string, _, _ string, _ int) map[string]*string {
	return f.checksums
}

type fakeMarketIndex struct{}

func (fakeMarketIndex) IsMarket(market string) bool {
	return market == "US" || market == "DE"
}

type fixedClock struct{}

func (fixedClock) Now() time.Time { return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC) }

type serverFixture struct {
	games       *fakeGameStore
	marketplace *fakeMarketplace
	coordinator *fakeCoordinator
	images      *fakeImageService
	manifests   *fakeManifests
	cfg         config.Config
}

func newFixture() *serverFixture {
	return &serverFixture{
		games:       &fakeGameStore{},
		marketplace: &fakeMarketplace{},
		coordinator: &fakeCoordinator{},
		images:      &fakeImageService{},
		manifests:   &fakeManifests{},
		cfg: config.Config{
			Server: config.ServerConfig{Port: 8080, RequestTimeoutSec: 5},
			Crawl:  config.CrawlConfig{DefaultMarket: "US", DefaultLanguage: "en-us"},
		},
	}
}

func (f *serverFixture) server() *Server {
	return NewServer(
		f.games,
		f.marketplace,
		f.coordinator,
		f.images,
		f.manifests,
		fakeMarketIndex{},
		fixedClock{},
		f.cfg,
		zap.NewNop(),
	)
}

func doRequest(t *testing.T, s *Server, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newFixture().server(), http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestListGames(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.games.listIDs = []string{"a", "b"}
	rec := doRequest(t, f.server(), http.MethodGet, "/v1/games/?market=US", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var ids []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ids))
	require.Equal(t, []string{"a", "b"}, ids)
}

func TestListGamesRejectsUnknownMarket(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newFixture().server(), http.MethodGet, "/v1/games/?market=XX", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGameDetailsRequiresParameters(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newFixture().server(), http.MethodGet, "/v1/games/details?productIds=a", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGameDetailsFetchesMissingFromMarketplace(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.games.details = []store.GameDetails{{Game: catalog.Game{ProductID: "a", ProductTitle: "Stored"}}}
	f.marketplace.products = []catalog.Game{{ProductID: "b", ProductTitle: "Fresh"}}

	rec := doRequest(t, f.server(), http.MethodGet, "/v1/games/details?productIds=a,b&language=en-us", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var games []store.GameDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &games))
	require.Len(t, games, 2)
	require.Equal(t, "Stored", games[0].ProductTitle)
	require.Equal(t, "Fresh", games[1].ProductTitle)
}

func TestGameAvailability(t *testing.T) {
	t.Parallel()

	f := newFixture()
	end := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	f.games.availability = map[string][]store.Period{
		"a": {{Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), End: &end}},
	}

	rec := doRequest(t, f.server(), http.MethodGet, "/v1/games/availability?productIds=a&market=US&collectionId=c1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var periods map[string][]store.Period
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &periods))
	require.Len(t, periods["a"], 1)
	require.NotNil(t, periods["a"][0].End)
}

func TestGameAvailabilityRequiresParameters(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newFixture().server(), http.MethodGet, "/v1/games/availability?productIds=a&market=US", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchGames(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.marketplace.searchIDs = []string{"x"}
	rec := doRequest(t, f.server(), http.MethodGet, "/v1/games/search?query=halo&language=en-us&market=US", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSearchGamesUpstreamFailure(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.marketplace.searchErr = errors.New("upstream down")
	rec := doRequest(t, f.server(), http.MethodGet, "/v1/games/search?query=halo&language=en-us&market=US", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestTriggerCrawl(t *testing.T) {
	t.Parallel()

	f := newFixture()
	rec := doRequest(t, f.server(), http.MethodPost, "/v1/webhooks/crawl", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "crawl_started", body["status"])
}

func TestTriggerCrawlConflict(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.coordinator.startErr = crawl.ErrAlreadyRunning
	rec := doRequest(t, f.server(), http.MethodPost, "/v1/webhooks/crawl", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCrawlStatus(t *testing.T) {
	t.Parallel()

	f := newFixture()
	last := time.Date(2026, 1, 14, 3, 0, 0, 0, time.UTC)
	f.coordinator.status = crawl.Status{IsRunning: true, LastRunDate: &last}

	rec := doRequest(t, f.server(), http.MethodGet, "/v1/webhooks/crawl/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status crawl.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.True(t, status.IsRunning)
	require.NotNil(t, status.LastRunDate)
}

func TestCancelCrawl(t *testing.T) {
	t.Parallel()

	f := newFixture()
	rec := doRequest(t, f.server(), http.MethodPost, "/v1/webhooks/crawl/cancel", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.True(t, f.coordinator.cancelled)
}

func TestBearerAuthGuardsGamesAndWebhooks(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.cfg.Auth = config.AuthConfig{Enabled: true, BearerToken: "sekret"}
	f.images.data = []byte("jpeg")
	s := f.server()

	rec := doRequest(t, s, http.MethodPost, "/v1/webhooks/crawl", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/v1/games/?market=US", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	header := http.Header{"Authorization": []string{"Bearer sekret"}}
	rec = doRequest(t, s, http.MethodPost, "/v1/webhooks/crawl", header)
	require.Equal(t, http.StatusAccepted, rec.Code)

	// Image endpoints stay open for direct client consumption.
	rec = doRequest(t, s, http.MethodGet, "/v1/images/p1?language=en-us&purpose=BoxArt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestServeImage(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.images.data = []byte("jpeg bytes")
	rec := doRequest(t, f.server(), http.MethodGet, "/v1/images/p1?language=en-us&purpose=BoxArt&width=400", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	require.Equal(t, "max-age=86400", rec.Header().Get("Cache-Control"))
	require.Equal(t, "jpeg bytes", rec.Body.String())
}

func TestServeImageNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.images.err = store.ErrNotFound
	rec := doRequest(t, f.server(), http.MethodGet, "/v1/images/p1?language=en-us&purpose=BoxArt", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeImageRejectsBadWidth(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newFixture().server(), http.MethodGet, "/v1/images/p1?language=en-us&purpose=BoxArt&width=abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImageManifest(t *testing.T) {
	t.Parallel()

	f := newFixture()
	sum := "d41d8cd98f00b204e9800998ecf8427e"
	f.manifests.checksums = map[string]*string{"p1": &sum, "p2": nil}

	rec := doRequest(t, f.server(), http.MethodGet, "/v1/images/manifest?language=en-us&purpose=BoxArt&width=400&productIds=p1,p2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var checksums map[string]*string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &checksums))
	require.NotNil(t, checksums["p1"])
	require.Equal(t, sum, *checksums["p1"])
	require.Nil(t, checksums["p2"])
}

func TestImageManifestRequiresParameters(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newFixture().server(), http.MethodGet, "/v1/images/manifest?language=en-us&purpose=BoxArt&width=400", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
