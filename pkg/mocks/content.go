package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/user/wikipreview/pkg/ports"
)

// ContentLoader is a mock implementation of ports.ContentLoader.
type ContentLoader struct {
	LoadArticleFunc func(ctx context.Context, title string) (string, error)

	mu     sync.Mutex
	titles []string
}

func (m *ContentLoader) LoadArticle(ctx context.Context, title string) (string, error) {
	m.mu.Lock()
	m.titles = append(m.titles, title)
	m.mu.Unlock()

	if m.LoadArticleFunc != nil {
		return m.LoadArticleFunc(ctx, title)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("<section><h2>%s</h2><table class=\"infobox\"><tr><td>row</td></tr></table></section>", title), nil
}

// Calls returns the number of LoadArticle calls.
func (m *ContentLoader) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.titles)
}

var _ ports.ContentLoader = (*ContentLoader)(nil)

// DocumentBuilder is a mock implementation of ports.DocumentBuilder.
// Its documents carry data-theme and data-collapsed attributes that mock
// surfaces read back.
type DocumentBuilder struct {
	BuildDocumentFunc     func(title, html, theme string, collapsed bool) (string, error)
	BuildFeedDocumentFunc func(theme string) (string, error)
}

func (m *DocumentBuilder) BuildDocument(title, html, theme string, collapsed bool) (string, error) {
	if m.BuildDocumentFunc != nil {
		return m.BuildDocumentFunc(title, html, theme, collapsed)
	}
	return fmt.Sprintf(`<html data-theme="%s" data-collapsed="%t"><body><h1>%s</h1>%s</body></html>`,
		theme, collapsed, title, html), nil
}

func (m *DocumentBuilder) BuildFeedDocument(theme string) (string, error) {
	if m.BuildFeedDocumentFunc != nil {
		return m.BuildFeedDocumentFunc(theme)
	}
	return fmt.Sprintf(`<html data-theme="%s" data-collapsed="false"><body>feed</body></html>`, theme), nil
}

var _ ports.DocumentBuilder = (*DocumentBuilder)(nil)
