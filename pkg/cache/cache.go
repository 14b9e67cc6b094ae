// Package cache implements the two-tier preview cache: a byte-bounded
// in-memory LRU in front of a directory of PNG files, filled on demand by a
// renderer.
package cache

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/singleflight"

	"github.com/user/wikipreview/pkg/ports"
	"github.com/user/wikipreview/pkg/preview"
	"github.com/user/wikipreview/pkg/renderer"
)

// DefaultHeapLimit is the heap size assumed when no runtime memory limit is set.
const DefaultHeapLimit int64 = 512 << 20

// ErrWrite marks a failed disk-tier write. Such failures are logged and the
// preview is still returned.
var ErrWrite = errors.New("cache write failed")

// Generator renders a preview on a cache miss.
type Generator interface {
	Render(ctx context.Context, key preview.Key) (preview.Bitmap, error)
}

// BatchGenerator renders several previews from one document load.
type BatchGenerator interface {
	Generator
	RenderMany(ctx context.Context, keys []preview.Key) []renderer.Result
}

// Placeholders draws the preview shown when rendering fails.
type Placeholders interface {
	Placeholder(key preview.Key) preview.Bitmap
}

// Config configures one cache. A cache serves a single subject kind.
type Config struct {
	Kind    preview.SubjectKind
	Dir     string // Cache root; files live in Dir/<kind>_previews
	Target  preview.Dimensions
	Density float64
	Budget  int64 // Memory tier bytes
	Version string
}

// Stats are the cache counters.
type Stats struct {
	Kind        preview.SubjectKind
	MemoryHits  int64
	DiskHits    int64
	Misses      int64
	Renders     int64
	Failures    int64
	Evictions   int64
	Discarded   int64
	WriteErrors int64
	Entries     int
	Bytes       int64
	Budget      int64
}

// Cache is the preview cache of one subject kind.
type Cache struct {
	cfg          Config
	generator    Generator
	placeholders Placeholders
	logger       ports.Logger

	mem   *memory
	disk  *disk
	group singleflight.Group

	flightMu sync.Mutex
	flights  map[string]*flight

	memHits     atomic.Int64
	diskHits    atomic.Int64
	misses      atomic.Int64
	renders     atomic.Int64
	failures    atomic.Int64
	writeErrors atomic.Int64
}

// New creates a cache. codec encodes and decodes the PNG files.
func New(cfg Config, generator Generator, placeholders Placeholders, fs ports.FileSystem, codec ports.Renderer, logger ports.Logger) *Cache {
	if cfg.Density <= 0 {
		cfg.Density = 1
	}
	log := logger.WithComponent(cfg.Kind.String() + "-cache")
	return &Cache{
		cfg:          cfg,
		generator:    generator,
		placeholders: placeholders,
		logger:       log,
		mem:          newMemory(cfg.Budget),
		flights:      make(map[string]*flight),
		disk: &disk{
			dir:     filepath.Join(cfg.Dir, cfg.Kind.CacheDir()),
			fs:      fs,
			codec:   codec,
			target:  cfg.Target,
			density: cfg.Density,
			logger:  log,
		},
	}
}

// Kind returns the subject kind the cache serves.
func (c *Cache) Kind() preview.SubjectKind {
	return c.cfg.Kind
}

// Dir returns the directory of the disk tier.
func (c *Cache) Dir() string {
	return c.disk.dir
}

// Get returns the preview of key from memory, then disk, then by rendering.
// Concurrent misses for one key share a single render.
func (c *Cache) Get(ctx context.Context, key preview.Key) (preview.Bitmap, error) {
	if key.Kind != c.cfg.Kind {
		return preview.Bitmap{}, fmt.Errorf("%s cache cannot serve %s", c.cfg.Kind, key)
	}
	if bmp, ok := c.mem.get(key); ok {
		c.memHits.Add(1)
		return bmp, nil
	}

	name := key.String()
	f := c.join(ctx, name)
	defer c.leave(name, f)

	ch := c.group.DoChan(name, func() (any, error) {
		return c.fill(f.ctx, key)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return preview.Bitmap{}, res.Err
		}
		return res.Val.(preview.Bitmap), nil
	case <-ctx.Done():
		return preview.Bitmap{}, preview.NewRenderError(preview.Classify(ctx.Err(), preview.ErrCancelled), key, ctx.Err())
	}
}

// flight is the render shared by the callers waiting on one key. Its
// context is detached from any single caller and is cancelled once every
// caller has left.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func (c *Cache) join(ctx context.Context, name string) *flight {
	c.flightMu.Lock()
	defer c.flightMu.Unlock()
	f, ok := c.flights[name]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		c.flights[name] = f
	}
	f.waiters++
	return f
}

func (c *Cache) leave(name string, f *flight) {
	c.flightMu.Lock()
	defer c.flightMu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if c.flights[name] == f {
		delete(c.flights, name)
	}
}

// GetOrPlaceholder returns the preview of key, or its placeholder when the
// preview cannot be produced. Placeholders are never cached.
func (c *Cache) GetOrPlaceholder(ctx context.Context, key preview.Key) preview.Bitmap {
	bmp, err := c.Get(ctx, key)
	if err == nil {
		return bmp
	}
	c.logger.Warn("Using placeholder for %s: %v", key, err)
	return c.placeholders.Placeholder(key)
}

// Prefetch makes sure every key is cached. When the generator supports
// batches, the missing keys are rendered from one document load.
func (c *Cache) Prefetch(ctx context.Context, keys []preview.Key) error {
	batch, ok := c.generator.(BatchGenerator)
	if !ok {
		var errs []error
		for _, key := range keys {
			if _, err := c.Get(ctx, key); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	var missing []preview.Key
	for _, key := range keys {
		if key.Kind != c.cfg.Kind {
			return fmt.Errorf("%s cache cannot serve %s", c.cfg.Kind, key)
		}
		if _, ok := c.mem.get(key); ok {
			c.memHits.Add(1)
			continue
		}
		if bmp, ok := c.loadDisk(key); ok {
			c.mem.put(key, bmp)
			continue
		}
		missing = append(missing, key)
	}
	if len(missing) == 0 {
		return nil
	}

	c.misses.Add(int64(len(missing)))
	var errs []error
	for _, res := range batch.RenderMany(ctx, missing) {
		if res.Err == nil {
			res.Err = c.store(res.Key, res.Bitmap)
		}
		if res.Err != nil {
			c.failures.Add(1)
			errs = append(errs, res.Err)
		}
	}
	return errors.Join(errs...)
}

// Contains reports whether key is in the memory tier.
func (c *Cache) Contains(key preview.Key) bool {
	_, ok := c.mem.get(key)
	return ok
}

// Clear empties the memory tier and deletes every file of the disk tier.
func (c *Cache) Clear() error {
	entries := c.mem.clear()
	files, err := c.disk.clear()
	c.logger.Info("Cleared %d cached and %d stored previews", entries, files)
	if err != nil {
		return fmt.Errorf("clear %s: %w", c.disk.dir, err)
	}
	return nil
}

// PruneStale deletes disk files written by other versions.
func (c *Cache) PruneStale() (int, error) {
	n, err := c.disk.prune(c.cfg.Version)
	if n > 0 {
		c.logger.Info("Pruned %d stale previews from %s", n, c.disk.dir)
	}
	if err != nil {
		return n, fmt.Errorf("prune %s: %w", c.disk.dir, err)
	}
	return n, nil
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	m := c.mem.stats()
	return Stats{
		Kind:        c.cfg.Kind,
		MemoryHits:  c.memHits.Load(),
		DiskHits:    c.diskHits.Load(),
		Misses:      c.misses.Load(),
		Renders:     c.renders.Load(),
		Failures:    c.failures.Load(),
		Evictions:   m.evictions,
		Discarded:   c.disk.discarded.Load(),
		WriteErrors: c.writeErrors.Load(),
		Entries:     m.entries,
		Bytes:       m.used,
		Budget:      m.budget,
	}
}

func (c *Cache) fill(ctx context.Context, key preview.Key) (preview.Bitmap, error) {
	if bmp, ok := c.mem.get(key); ok {
		c.memHits.Add(1)
		return bmp, nil
	}
	if bmp, ok := c.loadDisk(key); ok {
		c.mem.put(key, bmp)
		return bmp, nil
	}

	c.misses.Add(1)
	bmp, err := c.generator.Render(ctx, key)
	if err == nil {
		err = c.store(key, bmp)
	}
	if err != nil {
		c.failures.Add(1)
		return preview.Bitmap{}, err
	}
	return bmp, nil
}

func (c *Cache) loadDisk(key preview.Key) (preview.Bitmap, bool) {
	bmp, ok, err := c.disk.load(key)
	if err != nil {
		c.logger.Warn("Failed to read cached preview %s: %v", key, err)
		return preview.Bitmap{}, false
	}
	if ok {
		c.diskHits.Add(1)
	}
	return bmp, ok
}

// store validates a rendered bitmap, writes it to disk, then to memory.
func (c *Cache) store(key preview.Key, bmp preview.Bitmap) error {
	if bmp.IsZero() || bmp.Size() != c.cfg.Target {
		return preview.NewRenderError(preview.ErrCapture, key,
			fmt.Errorf("rendered %dx%d, want %dx%d", bmp.Width(), bmp.Height(), c.cfg.Target.Width, c.cfg.Target.Height))
	}
	c.renders.Add(1)

	if err := c.disk.store(key, bmp); err != nil {
		c.writeErrors.Add(1)
		c.logger.Warn("Failed to store %s: %v", key, err)
	}
	if !c.mem.put(key, bmp) {
		c.logger.Warn("Preview %s (%s) exceeds the memory budget of %s", key,
			humanize.IBytes(uint64(bmp.Bytes())), humanize.IBytes(uint64(c.cfg.Budget)))
	}
	c.logger.Debug("Cached %s", key)
	return nil
}

// HeapLimit returns the runtime memory limit, or fallback when none is
// set. A non-positive fallback means DefaultHeapLimit.
func HeapLimit(fallback int64) int64 {
	if limit := debug.SetMemoryLimit(-1); limit > 0 && limit != math.MaxInt64 {
		return limit
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultHeapLimit
}

// MemoryBudget returns the memory tier budget of kind for a heap limit:
// an eighth for theme previews and a sixteenth for table previews.
func MemoryBudget(kind preview.SubjectKind, heap int64) int64 {
	if kind == preview.KindTheme {
		return heap / 8
	}
	return heap / 16
}
