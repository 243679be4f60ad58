package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jo-hoe/photobrowser/internal/backend/cache"
	"github.com/jo-hoe/photobrowser/internal/unsplash"
	"github.com/twitsprout/tools/clock"
)

var (
	// ErrSuperseded is returned by a fetch that was replaced by a newer one.
	ErrSuperseded = errors.New("fetch superseded by a newer request")
	// ErrClosed is returned once the browser has been torn down.
	ErrClosed = errors.New("browser closed")
	// ErrPhotoNotFound is returned for ids that are not part of the displayed list.
	ErrPhotoNotFound = errors.New("photo not in displayed list")
)

const closeTimeout = 5 * time.Second

// Fetcher loads one batch of random photos.
type Fetcher interface {
	RandomPhotos(ctx context.Context, query string) ([]unsplash.Photo, error)
}

// Browser owns the displayed photo list and the single in-flight fetch.
type Browser struct {
	fetcher Fetcher
	store   cache.BatchStore
	clock   clock.Clock

	mu         sync.Mutex
	snapshot   Snapshot
	cancel     context.CancelFunc
	generation uint64
	closed     bool

	// generation of the fetch whose photos are on screen
	displayed uint64

	// orders writes to the batch store
	storeMu sync.Mutex
}

type Option func(*Browser)

func WithClock(c clock.Clock) Option {
	return func(b *Browser) {
		b.clock = c
	}
}

// New creates a browser. A nil store keeps the displayed batch in memory.
func New(fetcher Fetcher, store cache.BatchStore, opts ...Option) *Browser {
	if store == nil {
		store = cache.NewMemoryBatchStore()
	}
	b := &Browser{
		fetcher:  fetcher,
		store:    store,
		clock:    &clock.Default{},
		snapshot: initialSnapshot(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Fetch loads a new batch for query, replacing any fetch in flight.
// The returned error is the fetch failure the screen should report.
func (b *Browser) Fetch(ctx context.Context, query string) (Snapshot, error) {
	return b.run(ctx, strings.TrimSpace(query), false)
}

// Refresh repeats the last query with the refreshing indicator on.
func (b *Browser) Refresh(ctx context.Context) (Snapshot, error) {
	b.mu.Lock()
	query := b.snapshot.Query
	b.mu.Unlock()
	return b.run(ctx, query, true)
}

func (b *Browser) run(ctx context.Context, query string, refresh bool) (Snapshot, error) {
	fetchCtx, generation, err := b.begin(ctx, query, refresh)
	if err != nil {
		return b.Snapshot(), err
	}

	slog.Debug("browser: fetching photos", "query", query, "refresh", refresh, "generation", generation)
	photos, fetchErr := b.fetcher.RandomPhotos(fetchCtx, query)

	b.mu.Lock()
	if generation != b.generation {
		snapshot := b.snapshot.clone()
		closed := b.closed
		b.mu.Unlock()
		if closed {
			return snapshot, ErrClosed
		}
		slog.Debug("browser: discarding superseded fetch", "query", query, "generation", generation)
		return snapshot, ErrSuperseded
	}
	b.cancel()
	b.cancel = nil

	if fetchErr != nil {
		b.applyFailure(fetchErr)
		snapshot := b.snapshot.clone()
		b.mu.Unlock()
		slog.Warn("browser: fetch failed", "query", query, "error", fetchErr)
		return snapshot, fmt.Errorf("failed to fetch photos: %w", fetchErr)
	}

	b.applySuccess(query, photos)
	b.displayed = generation
	snapshot := b.snapshot.clone()
	b.mu.Unlock()
	slog.Info("browser: fetch complete", "query", query, "count", len(photos), "phase", snapshot.Phase.String())

	b.persist(ctx, generation, cache.Batch{Query: query, Photos: snapshot.Photos, FetchedAt: snapshot.UpdatedAt})
	return snapshot, nil
}

// persist stores the displayed batch outside the state lock. A batch that is
// no longer on screen by the time it gets the store is dropped.
func (b *Browser) persist(ctx context.Context, generation uint64, batch cache.Batch) {
	b.storeMu.Lock()
	defer b.storeMu.Unlock()

	b.mu.Lock()
	current := !b.closed && b.displayed == generation
	b.mu.Unlock()
	if !current {
		slog.Debug("browser: skipping stale batch", "generation", generation)
		return
	}
	if err := b.store.SaveBatch(ctx, batch); err != nil {
		slog.Error("browser: failed to persist displayed batch", "error", err)
	}
}

// begin cancels the in-flight fetch and marks the new one as running.
func (b *Browser) begin(ctx context.Context, query string, refresh bool) (context.Context, uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, 0, ErrClosed
	}
	if b.cancel != nil {
		b.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.generation++

	s := &b.snapshot
	s.Query = query
	if refresh {
		s.Phase = Refreshing
		s.Refreshing = true
	} else {
		s.Phase = Loading
		// the shimmer stands in for the list until there is something to show
		s.ShimmerVisible = !s.ListVisible
	}
	return fetchCtx, b.generation, nil
}

func (b *Browser) applySuccess(query string, photos []unsplash.Photo) {
	s := &b.snapshot
	s.Query = query
	s.Photos = append([]unsplash.Photo(nil), photos...)
	s.Err = ""
	s.ErrorVisible = false
	s.ListVisible = true
	s.Phase = Loaded
	if len(photos) == 0 {
		s.Phase = Empty
	}
	b.settle()
}

func (b *Browser) applyFailure(err error) {
	s := &b.snapshot
	s.Err = err.Error()
	s.ListVisible = false
	s.ErrorVisible = true
	s.Phase = Failed
	b.settle()
}

func (b *Browser) settle() {
	b.snapshot.ShimmerVisible = false
	b.snapshot.Refreshing = false
	b.snapshot.UpdatedAt = b.clock.Now().UTC()
}

// Snapshot returns a copy of the current screen state.
func (b *Browser) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot.clone()
}

// Photo resolves id against the displayed list. A screen that has not shown
// any result yet falls back to the stored batch another replica rendered.
// Photos of a list hidden by a failed fetch are not resolvable.
func (b *Browser) Photo(ctx context.Context, id string) (unsplash.Photo, error) {
	b.mu.Lock()
	s := &b.snapshot
	if s.ListVisible || s.ErrorVisible {
		defer b.mu.Unlock()
		if !s.ListVisible {
			return unsplash.Photo{}, ErrPhotoNotFound
		}
		for _, photo := range s.Photos {
			if photo.ID == id {
				return photo, nil
			}
		}
		return unsplash.Photo{}, ErrPhotoNotFound
	}
	b.mu.Unlock()

	batch, err := b.store.LoadBatch(ctx)
	if errors.Is(err, cache.ErrBatchNotFound) {
		return unsplash.Photo{}, ErrPhotoNotFound
	}
	if err != nil {
		return unsplash.Photo{}, fmt.Errorf("failed to load displayed batch: %w", err)
	}
	if photo, ok := batch.Find(id); ok {
		return photo, nil
	}
	return unsplash.Photo{}, ErrPhotoNotFound
}

// Close cancels the in-flight fetch and clears the displayed batch from the
// store. Later fetches fail with ErrClosed.
func (b *Browser) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.generation++
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.mu.Unlock()

	b.storeMu.Lock()
	defer b.storeMu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := b.store.DeleteBatch(ctx); err != nil {
		slog.Error("browser: failed to clear displayed batch", "error", err)
	}
	slog.Debug("browser: closed")
}
