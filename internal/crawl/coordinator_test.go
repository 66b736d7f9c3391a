package crawl

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pultar/gamepass-service/internal/catalog"
)

// blockingFetcher parks every collection fetch until release is closed
// or the context is cancelled.
type blockingFetcher struct {
	release chan struct{}
	ids     []string
}

func (f *blockingFetcher) FetchCollection(ctx context.Context, _, _, _ string) ([]string, error) {
	select {
	case <-f.release:
		return f.ids, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *blockingFetcher) FetchProducts(_ context.Context, gameIDs []string, _, _ string) ([]catalog.Game, error) {
	games := make([]catalog.Game, len(gameIDs))
	for i, id := range gameIDs {
		games[i] = catalog.Game{ProductID: id, ProductTitle: "Title " + id}
	}
	return games, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls [][]catalog.GameStub
	err   error
}

func (f *fakeNotifier) Notify(_ context.Context, stubs []catalog.GameStub) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, stubs)
	return f.err
}

func (f *fakeNotifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestCoordinator(fetcher Fetcher, notifier Notifier, clock Clock) *Coordinator {
	idx := &fakeIndex{
		markets:   []string{"US"},
		languages: map[string][]string{"US": {"en-us"}},
	}
	cfg := Config{
		Collections:     []string{"col-1"},
		DefaultLanguage: "en-us",
		DefaultMarket:   "US",
		ChunkSize:       20,
		Concurrency:     2,
	}
	p := NewPipeline(fetcher, newFakeRepo(), idx, clock, cfg, zap.NewNop())
	return NewCoordinator(p, notifier, clock, zap.NewNop())
}

func TestCoordinatorRejectsConcurrentStart(t *testing.T) {
	t.Parallel()

	fetcher := &blockingFetcher{release: make(chan struct{})}
	c := newTestCoordinator(fetcher, &fakeNotifier{}, &fakeClock{now: time.Unix(100, 0)})

	require.NoError(t, c.Start())
	require.ErrorIs(t, c.Start(), ErrAlreadyRunning)
	require.True(t, c.Status().IsRunning)

	close(fetcher.release)
	c.wait()

	// The slot is free again once the run finishes.
	require.False(t, c.Status().IsRunning)
	require.NoError(t, c.Start())
	c.wait()
}

func TestCoordinatorCancelStopsRun(t *testing.T) {
	t.Parallel()

	fetcher := &blockingFetcher{release: make(chan struct{})}
	notifier := &fakeNotifier{}
	c := newTestCoordinator(fetcher, notifier, &fakeClock{now: time.Unix(100, 0)})

	require.NoError(t, c.Start())
	c.Cancel()

	require.Eventually(t, func() bool {
		return !c.Status().IsRunning
	}, 2*time.Second, 10*time.Millisecond)

	// Nothing was fetched, so nothing is forwarded downstream.
	require.Zero(t, notifier.callCount())
}

func TestCoordinatorRecordsLastRunDate(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	fetcher := &blockingFetcher{release: make(chan struct{}), ids: []string{"a"}}
	close(fetcher.release)
	c := newTestCoordinator(fetcher, &fakeNotifier{}, clock)

	require.Nil(t, c.Status().LastRunDate)
	require.NoError(t, c.Start())
	c.wait()

	status := c.Status()
	require.NotNil(t, status.LastRunDate)
	require.Equal(t, clock.now, *status.LastRunDate)
}

func TestCoordinatorNotifiesAfterSuccessfulRun(t *testing.T) {
	t.Parallel()

	fetcher := &blockingFetcher{release: make(chan struct{}), ids: []string{"a", "b"}}
	close(fetcher.release)
	notifier := &fakeNotifier{}
	c := newTestCoordinator(fetcher, notifier, &fakeClock{now: time.Unix(100, 0)})

	require.NoError(t, c.Start())
	c.wait()

	require.Equal(t, 1, notifier.callCount())
	require.Len(t, notifier.calls[0], 2)
	require.Equal(t, "a", notifier.calls[0][0].ProductID)
}

func TestCoordinatorNotifierFailureDoesNotBlockNextRun(t *testing.T) {
	t.Parallel()

	fetcher := &blockingFetcher{release: make(chan struct{}), ids: []string{"a"}}
	close(fetcher.release)
	notifier := &fakeNotifier{err: errors.New("downstream down")}
	c := newTestCoordinator(fetcher, notifier, &fakeClock{now: time.Unix(100, 0)})

	require.NoError(t, c.Start())
	c.wait()

	require.False(t, c.Status().IsRunning)
	require.NoError(t, c.Start())
	c.wait()
	require.Equal(t, 2, notifier.callCount())
}
