package ports

import "context"

// ContentLoader fetches the HTML of a wiki article.
type ContentLoader interface {
	// LoadArticle returns the article body HTML for title.
	LoadArticle(ctx context.Context, title string) (string, error)
}

// DocumentBuilder wraps content into a complete themed HTML document.
type DocumentBuilder interface {
	// BuildDocument wraps article HTML with the theme and table-collapse state.
	BuildDocument(title, html, theme string, collapsed bool) (string, error)

	// BuildFeedDocument returns a home-feed document under theme.
	BuildFeedDocument(theme string) (string, error)
}
