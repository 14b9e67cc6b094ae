// Package coordinator pre-warms the preview caches in the background: once
// at startup and again whenever the reading theme changes.
package coordinator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/user/wikipreview/pkg/ports"
	"github.com/user/wikipreview/pkg/preview"
	"github.com/user/wikipreview/pkg/summarizer"
)

// State is the generation state.
type State int32

const (
	StateUninitialized State = iota
	StateGenerating
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateGenerating:
		return "generating"
	case StateCompleted:
		return "completed"
	default:
		return "uninitialized"
	}
}

// Previews produces previews, normally through the caches.
type Previews interface {
	Get(ctx context.Context, key preview.Key) (preview.Bitmap, error)
}

// Prefetcher renders a group of keys of one kind from a single document load.
type Prefetcher interface {
	Prefetch(ctx context.Context, keys []preview.Key) error
}

// Config configures the coordinator.
type Config struct {
	Themes             []string // Theme previews to generate, in order
	Theme              string   // Active reading theme
	Version            string
	Timeout            time.Duration // Whole run (default: 45s)
	PermutationTimeout time.Duration // One preview (default: 20s)
	RetryAttempts      int           // default: 3
	RetryBase          time.Duration // default: 500ms
	Batch              bool          // Prefetch each kind from one document load first

	// OnSummary receives the summary of every finished run.
	OnSummary func(*summarizer.Summary)
	// CacheInfo snapshots the caches for run summaries.
	CacheInfo func() []summarizer.CacheInfo
}

// DefaultConfig returns the default coordinator configuration.
func DefaultConfig() Config {
	return Config{
		Themes:             []string{preview.ThemeLight, preview.ThemeSepia, preview.ThemeDark, preview.ThemeBlack},
		Theme:              preview.ThemeLight,
		Timeout:            45 * time.Second,
		PermutationTimeout: 20 * time.Second,
		RetryAttempts:      3,
		RetryBase:          500 * time.Millisecond,
	}
}

// Coordinator runs generation in the background. At most one run executes
// at a time; starting a run cancels the one in progress.
type Coordinator struct {
	cfg      Config
	previews Previews
	logger   ports.Logger

	state atomic.Int32
	runMu sync.Mutex

	mu         sync.Mutex
	theme      string
	generated  map[preview.Key]struct{}
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
	last       *summarizer.Summary
}

// New creates a new Coordinator.
func New(cfg Config, previews Previews, logger ports.Logger) *Coordinator {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.PermutationTimeout <= 0 {
		cfg.PermutationTimeout = def.PermutationTimeout
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = def.RetryAttempts
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = def.RetryBase
	}
	if cfg.Theme == "" {
		cfg.Theme = def.Theme
	}
	return &Coordinator{
		cfg:       cfg,
		previews:  previews,
		logger:    logger.WithComponent("coordinator"),
		theme:     cfg.Theme,
		generated: make(map[preview.Key]struct{}),
	}
}

// State returns the current state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Theme returns the active theme.
func (c *Coordinator) Theme() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.theme
}

// Generated reports whether key was generated in this process.
func (c *Coordinator) Generated(key preview.Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.generated[key]
	return ok
}

// LastSummary returns the summary of the last finished run, or nil.
func (c *Coordinator) LastSummary() *summarizer.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Permutations returns the keys a run for theme generates, in order: the
// theme preview of every configured theme, then the collapsed and expanded
// table previews of theme.
func (c *Coordinator) Permutations(theme string) []preview.Key {
	keys := make([]preview.Key, 0, len(c.cfg.Themes)+2)
	for _, t := range c.cfg.Themes {
		keys = append(keys, preview.NewThemeKey(t, c.cfg.Version))
	}
	return append(keys,
		preview.NewTableKey(theme, true, c.cfg.Version),
		preview.NewTableKey(theme, false, c.cfg.Version),
	)
}

// Initialize starts the first run. It returns false, doing nothing, when a
// run is already in progress or has completed. The run stops when ctx is done.
func (c *Coordinator) Initialize(ctx context.Context) bool {
	if !c.state.CompareAndSwap(int32(StateUninitialized), int32(StateGenerating)) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startLocked(ctx, c.theme)
	return true
}

// OnThemeChanged cancels the active run and starts one for theme. Previews
// generated for earlier themes stay cached.
func (c *Coordinator) OnThemeChanged(ctx context.Context, theme string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.theme = theme
	c.state.Store(int32(StateGenerating))
	c.logger.Info("Theme changed to %s, regenerating", theme)
	c.startLocked(ctx, theme)
}

// Reset cancels the active run, forgets generated keys and returns to
// Uninitialized. It accompanies a cache clear.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	c.generated = make(map[preview.Key]struct{})
	c.state.Store(int32(StateUninitialized))
}

// Stop cancels the active run.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// Wait blocks until the most recently started run has finished.
func (c *Coordinator) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		done := c.done
		c.mu.Unlock()
		if done == nil {
			return nil
		}

		select {
		case <-done:
			c.mu.Lock()
			latest := c.done == done
			c.mu.Unlock()
			if latest {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Coordinator) startLocked(ctx context.Context, theme string) {
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	gen := c.generation
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel, c.done = cancel, done

	go func() {
		defer close(done)
		defer cancel()
		c.run(runCtx, gen, theme)
	}()
}

func (c *Coordinator) run(ctx context.Context, gen uint64, theme string) {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	b := summarizer.NewBuilder(uuid.NewString()).WithTheme(theme).WithVersion(c.cfg.Version)
	runID := b.Build().RunID
	keys := c.Permutations(theme)
	c.logger.Info("Generation run %s started for theme %s (%d previews)", runID, theme, len(keys))

	runCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if c.cfg.Batch {
		c.prefetch(runCtx, keys)
	}

	var generated, failed int
	for _, key := range keys {
		if runCtx.Err() != nil {
			break
		}
		if c.Generated(key) {
			b.AddResult(summarizer.Result{Key: key.String(), Status: summarizer.StatusSkipped})
			continue
		}

		start := time.Now()
		attempts, err := Retry(runCtx, c.cfg.RetryAttempts, c.cfg.RetryBase, func(ctx context.Context) error {
			pctx, cancel := context.WithTimeout(ctx, c.cfg.PermutationTimeout)
			defer cancel()
			_, err := c.previews.Get(pctx, key)
			return err
		})
		res := summarizer.Result{
			Key:        key.String(),
			Attempts:   attempts,
			DurationMs: time.Since(start).Milliseconds(),
		}
		if err != nil {
			res.Status = summarizer.StatusFailed
			res.Error = err.Error()
			failed++
			if runCtx.Err() == nil {
				c.logger.Warn("Failed to generate %s after %d attempts: %v", key, attempts, err)
			}
		} else {
			res.Status = summarizer.StatusGenerated
			generated++
			c.markGenerated(gen, key)
		}
		b.AddResult(res)
	}

	var outcome summarizer.Outcome
	switch {
	case ctx.Err() != nil:
		outcome = summarizer.OutcomeCancelled
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		outcome = summarizer.OutcomeTimedOut
	case failed > 0 && generated == 0 && b.Build().Count(summarizer.StatusSkipped) == 0:
		outcome = summarizer.OutcomeFailed
	default:
		outcome = summarizer.OutcomeCompleted
	}
	if c.cfg.CacheInfo != nil {
		b.WithCaches(c.cfg.CacheInfo()...)
	}
	summary := b.Finish(outcome).Build()
	c.finish(gen, summary)

	c.logger.Info("Generation run %s %s in %d ms: %d generated, %d failed",
		runID, outcome, summary.Duration().Milliseconds(), generated, failed)
	if c.cfg.OnSummary != nil {
		c.cfg.OnSummary(summary)
	}
}

// prefetch renders the missing keys of each kind as one group. Errors are
// left to the per-key pass.
func (c *Coordinator) prefetch(ctx context.Context, keys []preview.Key) {
	p, ok := c.previews.(Prefetcher)
	if !ok {
		return
	}
	groups := make(map[preview.SubjectKind][]preview.Key)
	var order []preview.SubjectKind
	for _, key := range keys {
		if c.Generated(key) || key.Theme == preview.ThemeSystem {
			continue
		}
		if _, ok := groups[key.Kind]; !ok {
			order = append(order, key.Kind)
		}
		groups[key.Kind] = append(groups[key.Kind], key)
	}
	for _, kind := range order {
		group := groups[kind]
		pctx, cancel := context.WithTimeout(ctx, c.cfg.PermutationTimeout*time.Duration(len(group)))
		if err := p.Prefetch(pctx, group); err != nil {
			c.logger.Debug("Prefetch of %d %s previews incomplete: %v", len(group), kind, err)
		}
		cancel()
	}
}

func (c *Coordinator) markGenerated(gen uint64, key preview.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.generation {
		c.generated[key] = struct{}{}
	}
}

// finish records the summary and moves the state on, unless a newer run or
// a reset has taken over.
func (c *Coordinator) finish(gen uint64, summary *summarizer.Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = summary
	if gen != c.generation {
		return
	}
	if summary.Outcome == summarizer.OutcomeCompleted {
		c.state.CompareAndSwap(int32(StateGenerating), int32(StateCompleted))
		return
	}
	c.state.CompareAndSwap(int32(StateGenerating), int32(StateUninitialized))
}
