// Package document implements the document building stage.
package document

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/user/wikipreview/pkg/pipeline"
	"github.com/user/wikipreview/pkg/ports"
	"github.com/user/wikipreview/pkg/preview"
)

// DefaultLoadTimeout bounds a single article load.
const DefaultLoadTimeout = 15 * time.Second

// Stage loads article content and wraps it into a themed document.
// Theme previews use the home-feed document and do not load content.
type Stage struct {
	loader      ports.ContentLoader
	builder     ports.DocumentBuilder
	sink        ports.DebugSink
	logger      ports.Logger
	loadTimeout time.Duration

	mu       sync.Mutex
	articles map[string]string
}

// NewStage creates a new document stage. A zero loadTimeout uses DefaultLoadTimeout.
func NewStage(loader ports.ContentLoader, builder ports.DocumentBuilder, sink ports.DebugSink, logger ports.Logger, loadTimeout time.Duration) *Stage {
	if loadTimeout <= 0 {
		loadTimeout = DefaultLoadTimeout
	}
	return &Stage{
		loader:      loader,
		builder:     builder,
		sink:        sink,
		logger:      logger.WithComponent("document"),
		loadTimeout: loadTimeout,
		articles:    make(map[string]string),
	}
}

// Execute builds the document for input.Key.
func (s *Stage) Execute(ctx context.Context, input pipeline.DocumentInput) (pipeline.DocumentResult, error) {
	key := input.Key

	var (
		html string
		err  error
	)
	if key.Kind == preview.KindTheme {
		s.logger.Debug("Building feed document for %s", key.Theme)
		html, err = s.builder.BuildFeedDocument(key.Theme)
	} else {
		var body string
		body, err = s.article(ctx, key, input.Title)
		if err != nil {
			return pipeline.DocumentResult{}, err
		}
		s.logger.Debug("Building article document for %s", key)
		html, err = s.builder.BuildDocument(input.Title, body, key.Theme, key.Collapsed)
	}
	if err != nil {
		return pipeline.DocumentResult{}, preview.NewRenderError(preview.ErrDocumentBuild, key, fmt.Errorf("build document: %w", err))
	}

	if s.sink.Enabled() {
		s.sink.SaveDocument(key.String(), html)
	}
	return pipeline.DocumentResult{HTML: html}, nil
}

// article returns the body of title, loading it on first use.
// Article content does not change between permutations, so one
// successful load serves every key.
func (s *Stage) article(ctx context.Context, key preview.Key, title string) (string, error) {
	s.mu.Lock()
	body, ok := s.articles[title]
	s.mu.Unlock()
	if ok {
		return body, nil
	}

	s.logger.Debug("Loading article %s", title)
	loadCtx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()

	start := time.Now()
	body, err := s.loader.LoadArticle(loadCtx, title)
	if err != nil {
		kind := preview.ErrContentLoad
		if ctx.Err() != nil {
			kind = preview.Classify(ctx.Err(), kind)
		}
		return "", preview.NewRenderError(kind, key, fmt.Errorf("load article %q: %w", title, err))
	}
	s.logger.Debug("Article loaded in %d ms", time.Since(start).Milliseconds())

	s.mu.Lock()
	s.articles[title] = body
	s.mu.Unlock()
	return body, nil
}

// Forget drops cached article content so the next render reloads it.
func (s *Stage) Forget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles = make(map[string]string)
}
