package coordinator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/wikipreview/pkg/adapters/logger"
	"github.com/user/wikipreview/pkg/preview"
	"github.com/user/wikipreview/pkg/summarizer"
)

// fakePreviews records requested keys and fails according to failFn.
type fakePreviews struct {
	delay  time.Duration
	failFn func(key preview.Key, call int) error

	mu       sync.Mutex
	calls    []preview.Key
	perKey   map[preview.Key]int
	prefetch [][]preview.Key
}

func newFakePreviews() *fakePreviews {
	return &fakePreviews{perKey: make(map[preview.Key]int)}
}

func (f *fakePreviews) Get(ctx context.Context, key preview.Key) (preview.Bitmap, error) {
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.perKey[key]++
	call := f.perKey[key]
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return preview.Bitmap{}, preview.NewRenderError(preview.Classify(ctx.Err(), preview.ErrCancelled), key, ctx.Err())
		}
	}
	if f.failFn != nil {
		if err := f.failFn(key, call); err != nil {
			return preview.Bitmap{}, err
		}
	}
	return preview.Bitmap{Density: 1}, nil
}

func (f *fakePreviews) Calls() []preview.Key {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]preview.Key(nil), f.calls...)
}

func (f *fakePreviews) CallsFor(key preview.Key) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.perKey[key]
}

type fakePrefetcher struct {
	*fakePreviews
}

func (f fakePrefetcher) Prefetch(ctx context.Context, keys []preview.Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefetch = append(f.prefetch, keys)
	return nil
}

func testConfig() Config {
	return Config{
		Themes:             []string{"light", "dark"},
		Theme:              "light",
		Version:            "1.0",
		Timeout:            2 * time.Second,
		PermutationTimeout: time.Second,
		RetryAttempts:      3,
		RetryBase:          time.Millisecond,
	}
}

func waitDone(t *testing.T, c *Coordinator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx))
}

func TestCoordinator_Permutations(t *testing.T) {
	c := New(testConfig(), newFakePreviews(), logger.NewNoop())

	keys := c.Permutations("sepia")

	assert.Equal(t, []preview.Key{
		preview.NewThemeKey("light", "1.0"),
		preview.NewThemeKey("dark", "1.0"),
		preview.NewTableKey("sepia", true, "1.0"),
		preview.NewTableKey("sepia", false, "1.0"),
	}, keys)
}

func TestCoordinator_InitializeRunsOnce(t *testing.T) {
	previews := newFakePreviews()
	c := New(testConfig(), previews, logger.NewNoop())

	assert.True(t, c.Initialize(context.Background()))
	assert.False(t, c.Initialize(context.Background()))
	waitDone(t, c)

	assert.Equal(t, StateCompleted, c.State())
	assert.Equal(t, c.Permutations("light"), previews.Calls(), "permutations run once in declared order")
	assert.False(t, c.Initialize(context.Background()), "completed coordinator does not run again")
}

func TestCoordinator_ConcurrentInitialize(t *testing.T) {
	previews := newFakePreviews()
	previews.delay = 5 * time.Millisecond
	c := New(testConfig(), previews, logger.NewNoop())

	var started atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Initialize(context.Background()) {
				started.Add(1)
			}
		}()
	}
	wg.Wait()
	waitDone(t, c)

	assert.Equal(t, int32(1), started.Load())
	assert.Len(t, previews.Calls(), 4)
}

func TestCoordinator_FailureDoesNotAbortRun(t *testing.T) {
	previews := newFakePreviews()
	bad := preview.NewThemeKey("dark", "1.0")
	previews.failFn = func(key preview.Key, call int) error {
		if key == bad {
			return preview.NewRenderError(preview.ErrContentLoad, key, errors.New("404"))
		}
		return nil
	}
	c := New(testConfig(), previews, logger.NewNoop())

	c.Initialize(context.Background())
	waitDone(t, c)

	assert.Equal(t, 1, previews.CallsFor(bad), "generic failures are not retried")
	assert.Len(t, previews.Calls(), 4)
	assert.Equal(t, StateCompleted, c.State())
	assert.False(t, c.Generated(bad))

	summary := c.LastSummary()
	require.NotNil(t, summary)
	assert.Equal(t, summarizer.OutcomeCompleted, summary.Outcome)
	assert.Equal(t, 3, summary.Count(summarizer.StatusGenerated))
	assert.Equal(t, 1, summary.Count(summarizer.StatusFailed))
	assert.NotEmpty(t, summary.RunID)
}

func TestCoordinator_RetriesCancellation(t *testing.T) {
	previews := newFakePreviews()
	flaky := preview.NewTableKey("light", true, "1.0")
	previews.failFn = func(key preview.Key, call int) error {
		if key == flaky && call < 3 {
			return preview.NewRenderError(preview.ErrHostContextTimeout, key, errors.New("no host"))
		}
		return nil
	}
	c := New(testConfig(), previews, logger.NewNoop())

	c.Initialize(context.Background())
	waitDone(t, c)

	assert.Equal(t, 3, previews.CallsFor(flaky))
	assert.True(t, c.Generated(flaky))
	assert.Equal(t, 3, c.LastSummary().Results[2].Attempts)
}

func TestCoordinator_TimeoutResetsState(t *testing.T) {
	previews := newFakePreviews()
	previews.delay = 50 * time.Millisecond
	cfg := testConfig()
	cfg.Timeout = 70 * time.Millisecond
	c := New(cfg, previews, logger.NewNoop())

	c.Initialize(context.Background())
	waitDone(t, c)

	assert.Equal(t, StateUninitialized, c.State())
	assert.Equal(t, summarizer.OutcomeTimedOut, c.LastSummary().Outcome)
	assert.Less(t, len(previews.Calls()), 4, "timeout aborts the remaining permutations")

	previews.delay = 0
	assert.True(t, c.Initialize(context.Background()), "a later trigger may try again")
	waitDone(t, c)
	assert.Equal(t, StateCompleted, c.State())
}

func TestCoordinator_AllFailedResetsState(t *testing.T) {
	previews := newFakePreviews()
	previews.failFn = func(key preview.Key, call int) error {
		return preview.NewRenderError(preview.ErrSurface, key, errors.New("broken"))
	}
	c := New(testConfig(), previews, logger.NewNoop())

	c.Initialize(context.Background())
	waitDone(t, c)

	assert.Equal(t, StateUninitialized, c.State())
	assert.Equal(t, summarizer.OutcomeFailed, c.LastSummary().Outcome)
}

func TestCoordinator_ThemeChangeSkipsGenerated(t *testing.T) {
	previews := newFakePreviews()
	c := New(testConfig(), previews, logger.NewNoop())
	c.Initialize(context.Background())
	waitDone(t, c)

	c.OnThemeChanged(context.Background(), "dark")
	waitDone(t, c)

	calls := previews.Calls()
	require.Len(t, calls, 6)
	assert.Equal(t, []preview.Key{
		preview.NewTableKey("dark", true, "1.0"),
		preview.NewTableKey("dark", false, "1.0"),
	}, calls[4:])
	assert.True(t, c.Generated(preview.NewTableKey("light", true, "1.0")), "earlier theme stays generated")
	assert.Equal(t, "dark", c.Theme())
	assert.Equal(t, 2, c.LastSummary().Count(summarizer.StatusSkipped))
}

func TestCoordinator_ThemeChangeCancelsActiveRun(t *testing.T) {
	previews := newFakePreviews()
	previews.delay = 40 * time.Millisecond
	c := New(testConfig(), previews, logger.NewNoop())

	c.Initialize(context.Background())
	time.Sleep(10 * time.Millisecond)
	c.OnThemeChanged(context.Background(), "sepia")
	waitDone(t, c)

	assert.Equal(t, StateCompleted, c.State())
	assert.True(t, c.Generated(preview.NewTableKey("sepia", false, "1.0")))
	assert.False(t, c.Generated(preview.NewTableKey("light", false, "1.0")))
}

func TestCoordinator_Reset(t *testing.T) {
	previews := newFakePreviews()
	c := New(testConfig(), previews, logger.NewNoop())
	c.Initialize(context.Background())
	waitDone(t, c)

	c.Reset()

	assert.Equal(t, StateUninitialized, c.State())
	assert.False(t, c.Generated(preview.NewThemeKey("light", "1.0")))
	assert.True(t, c.Initialize(context.Background()))
	waitDone(t, c)
	assert.Len(t, previews.Calls(), 8)
}

func TestCoordinator_BatchPrefetch(t *testing.T) {
	previews := newFakePreviews()
	cfg := testConfig()
	cfg.Batch = true
	var summaries atomic.Int32
	cfg.OnSummary = func(*summarizer.Summary) { summaries.Add(1) }
	c := New(cfg, fakePrefetcher{previews}, logger.NewNoop())

	c.Initialize(context.Background())
	waitDone(t, c)

	previews.mu.Lock()
	groups := previews.prefetch
	previews.mu.Unlock()
	require.Len(t, groups, 2)
	assert.Len(t, groups[0], 2)
	assert.Equal(t, preview.KindTable, groups[1][0].Kind)
	assert.Equal(t, int32(1), summaries.Load())
}

func TestCoordinator_StopCancels(t *testing.T) {
	previews := newFakePreviews()
	previews.delay = time.Second
	c := New(testConfig(), previews, logger.NewNoop())

	c.Initialize(context.Background())
	time.Sleep(10 * time.Millisecond)
	c.Stop()
	waitDone(t, c)

	assert.Equal(t, StateUninitialized, c.State())
	assert.Equal(t, summarizer.OutcomeCancelled, c.LastSummary().Outcome)
}
