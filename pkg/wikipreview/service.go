// Package wikipreview provides a high-level API for themed article previews.
// It wires the host pool, renderer, caches and background coordinator.
package wikipreview

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/user/wikipreview/pkg/adapters/ggrenderer"
	"github.com/user/wikipreview/pkg/adapters/logger"
	"github.com/user/wikipreview/pkg/adapters/nullsink"
	"github.com/user/wikipreview/pkg/adapters/osfilesystem"
	"github.com/user/wikipreview/pkg/adapters/themedoc"
	"github.com/user/wikipreview/pkg/adapters/wikicontent"
	"github.com/user/wikipreview/pkg/cache"
	"github.com/user/wikipreview/pkg/coordinator"
	"github.com/user/wikipreview/pkg/hostpool"
	"github.com/user/wikipreview/pkg/ports"
	"github.com/user/wikipreview/pkg/preview"
	"github.com/user/wikipreview/pkg/renderer"
	"github.com/user/wikipreview/pkg/stages/capture"
	"github.com/user/wikipreview/pkg/stages/crop"
	"github.com/user/wikipreview/pkg/stages/document"
	"github.com/user/wikipreview/pkg/stages/layout"
	"github.com/user/wikipreview/pkg/stages/placeholder"
	"github.com/user/wikipreview/pkg/stages/split"
	"github.com/user/wikipreview/pkg/summarizer"
)

// Dependencies are the collaborators of a Service. Nil fields get the
// default adapters.
type Dependencies struct {
	Loader     ports.ContentLoader
	Builder    ports.DocumentBuilder
	FileSystem ports.FileSystem
	Images     ports.Renderer
	Sink       ports.DebugSink
	Logger     ports.Logger

	// OnSummary receives the summary of every finished background run.
	OnSummary func(*summarizer.Summary)
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Loader == nil {
		d.Loader = wikicontent.New(wikicontent.DefaultConfig())
	}
	if d.Builder == nil {
		d.Builder = themedoc.New()
	}
	if d.FileSystem == nil {
		d.FileSystem = osfilesystem.New()
	}
	if d.Images == nil {
		d.Images = ggrenderer.New()
	}
	if d.Sink == nil {
		d.Sink = nullsink.New()
	}
	if d.Logger == nil {
		d.Logger = logger.NewNoop()
	}
	return d
}

// Service serves previews to UI code and keeps the caches warm.
type Service struct {
	cfg         Config
	deps        Dependencies
	logger      ports.Logger
	hosts       *hostpool.Pool
	renderer    *renderer.Renderer
	themes      *cache.Cache
	tables      *cache.Cache
	coordinator *coordinator.Coordinator
	summaries   summarizer.Formatter
}

// New constructs a Service.
func New(cfg Config, deps Dependencies) *Service {
	deps = deps.withDefaults()
	log := deps.Logger

	s := &Service{
		cfg:       cfg,
		deps:      deps,
		logger:    log.WithComponent("wikipreview"),
		hosts:     hostpool.New(cfg.ToHostPoolConfig(), log),
		summaries: summarizer.NewMarkdownFormatter(),
	}

	rc := cfg.ToRendererConfig()
	s.renderer = renderer.New(rc, s.hosts, renderer.Stages{
		Document:    document.NewStage(deps.Loader, deps.Builder, deps.Sink, log, rc.LoadTimeout),
		Capture:     capture.NewStage(deps.Sink, log),
		Layout:      layout.NewStage(),
		Crop:        crop.NewStage(deps.Images, deps.Sink, log),
		Split:       split.NewStage(deps.Images, log),
		Placeholder: placeholder.NewStage(deps.Images, log),
	}, log)

	s.themes = cache.New(cfg.CacheConfig(preview.KindTheme), s.renderer, s.renderer, deps.FileSystem, deps.Images, log)
	s.tables = cache.New(cfg.CacheConfig(preview.KindTable), s.renderer, s.renderer, deps.FileSystem, deps.Images, log)

	cc := cfg.ToCoordinatorConfig()
	cc.CacheInfo = s.CacheInfo
	cc.OnSummary = s.onSummary
	s.coordinator = coordinator.New(cc, s, log)

	return s
}

// Config returns the service configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Hosts returns the host pool. Producers register hosts here.
func (s *Service) Hosts() *hostpool.Pool {
	return s.hosts
}

// Attach registers host and returns its handle. The pool holds hosts
// weakly: the caller keeps the handle reachable for as long as the host
// should serve renders, and passes it to Detach when the host goes away.
func (s *Service) Attach(host ports.Host) *hostpool.Handle {
	h := hostpool.NewHandle(host)
	s.hosts.Register(h)
	return h
}

// Detach unregisters a handle returned by Attach.
func (s *Service) Detach(h *hostpool.Handle) {
	s.hosts.Unregister(h)
}

// Coordinator returns the background coordinator.
func (s *Service) Coordinator() *coordinator.Coordinator {
	return s.coordinator
}

// GetPreview returns the preview of kind under theme. It never fails: when
// rendering does, a placeholder of the right size is returned instead.
func (s *Service) GetPreview(ctx context.Context, kind preview.SubjectKind, theme string, collapsed bool) preview.Bitmap {
	key := s.key(kind, theme, collapsed)
	return s.cacheFor(kind).GetOrPlaceholder(ctx, key)
}

// Get returns the preview of key, or the error that prevented it.
func (s *Service) Get(ctx context.Context, key preview.Key) (preview.Bitmap, error) {
	return s.cacheFor(key.Kind).Get(ctx, key)
}

// Prefetch renders the missing keys, grouped per kind.
func (s *Service) Prefetch(ctx context.Context, keys []preview.Key) error {
	groups := make(map[preview.SubjectKind][]preview.Key)
	for _, key := range keys {
		groups[key.Kind] = append(groups[key.Kind], key)
	}
	var errs []error
	for _, kind := range []preview.SubjectKind{preview.KindTheme, preview.KindTable} {
		if len(groups[kind]) == 0 {
			continue
		}
		if err := s.cacheFor(kind).Prefetch(ctx, groups[kind]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ClearCache cancels background generation and empties both tiers of
// both caches. The next Start or theme change regenerates.
func (s *Service) ClearCache() error {
	s.coordinator.Reset()
	return errors.Join(s.themes.Clear(), s.tables.Clear())
}

// Start removes files of other versions from the disk tier and starts the
// first background run. Generation stops when ctx is done.
func (s *Service) Start(ctx context.Context) error {
	if _, err := s.PruneStale(ctx); err != nil {
		return err
	}
	s.logger.Info("Preview service started (version %s, theme %s)", s.cfg.Version, s.coordinator.Theme())
	s.coordinator.Initialize(ctx)
	return nil
}

// PruneStale removes disk files of other versions from both caches.
func (s *Service) PruneStale(ctx context.Context) (int, error) {
	var themes, tables int
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.themes.PruneStale()
		themes = n
		return err
	})
	g.Go(func() error {
		n, err := s.tables.PruneStale()
		tables = n
		return err
	})
	if err := g.Wait(); err != nil {
		return themes + tables, fmt.Errorf("prune stale previews: %w", err)
	}
	return themes + tables, nil
}

// OnThemeChanged regenerates for the new reading theme.
func (s *Service) OnThemeChanged(ctx context.Context, theme string) {
	s.coordinator.OnThemeChanged(ctx, theme)
}

// Wait blocks until the current background run has finished.
func (s *Service) Wait(ctx context.Context) error {
	return s.coordinator.Wait(ctx)
}

// Stats returns the counters of both caches.
func (s *Service) Stats() []cache.Stats {
	return []cache.Stats{s.themes.Stats(), s.tables.Stats()}
}

// CacheInfo returns cache snapshots for run summaries.
func (s *Service) CacheInfo() []summarizer.CacheInfo {
	stats := s.Stats()
	infos := make([]summarizer.CacheInfo, 0, len(stats))
	for _, st := range stats {
		infos = append(infos, summarizer.CacheInfo{
			Kind:       st.Kind.String(),
			Entries:    st.Entries,
			Bytes:      st.Bytes,
			Budget:     st.Budget,
			MemoryHits: st.MemoryHits,
			DiskHits:   st.DiskHits,
			Renders:    st.Renders,
			Evictions:  st.Evictions,
		})
	}
	return infos
}

// Close stops background generation. Hosts stay owned by their producer.
func (s *Service) Close() error {
	s.coordinator.Stop()
	s.logger.Info("Preview service closed")
	return nil
}

func (s *Service) key(kind preview.SubjectKind, theme string, collapsed bool) preview.Key {
	if kind == preview.KindTable {
		return preview.NewTableKey(theme, collapsed, s.cfg.Version)
	}
	return preview.NewThemeKey(theme, s.cfg.Version)
}

func (s *Service) cacheFor(kind preview.SubjectKind) *cache.Cache {
	if kind == preview.KindTable {
		return s.tables
	}
	return s.themes
}

// onSummary saves each run summary to the debug sink before handing it on.
func (s *Service) onSummary(summary *summarizer.Summary) {
	if s.deps.Sink.Enabled() {
		data := s.summaries.Format(summary)
		if err := s.deps.Sink.SaveSummary(summary.RunID+".md", []byte(data)); err != nil {
			s.logger.Warn("Failed to write summary: %v", err)
		}
	}
	if s.deps.OnSummary != nil {
		s.deps.OnSummary(summary)
	}
}

var (
	_ coordinator.Previews   = (*Service)(nil)
	_ coordinator.Prefetcher = (*Service)(nil)
)
