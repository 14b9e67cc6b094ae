// Package themedoc builds the themed HTML documents that preview surfaces
// load: an article page for table previews and a home feed for theme
// previews.
package themedoc

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/wikipreview/pkg/ports"
	"github.com/user/wikipreview/pkg/preview"
)

// TableLabel is the header shown in place of a collapsed table.
const TableLabel = "Quick facts"

var defaultFeed = []FeedCard{
	{Heading: "Featured article", Title: "Earth", Lines: 4, Image: true},
	{Heading: "Top read", Title: "Solar System", Lines: 3},
	{Heading: "Picture of the day", Title: "Aurora borealis", Lines: 1, Image: true},
	{Heading: "In the news", Title: "Current events", Lines: 3},
}

// Builder implements ports.DocumentBuilder with html/template.
type Builder struct {
	tmpl *template.Template
	feed []FeedCard
}

// New creates a new Builder.
func New() *Builder {
	return &Builder{
		tmpl: template.Must(template.New("document").Funcs(funcs).Parse(documentTemplate)),
		feed: defaultFeed,
	}
}

// BuildDocument wraps article HTML in a themed page. Scripts are removed
// from the article and every table gets a header that stands in for it
// while collapsed.
func (b *Builder) BuildDocument(title, html, theme string, collapsed bool) (string, error) {
	body, err := prepareArticle(html)
	if err != nil {
		return "", fmt.Errorf("prepare article: %w", err)
	}
	return b.render(TemplateVars{
		Title:     title,
		Theme:     themeAttr(theme),
		Collapsed: collapsed,
		Body:      template.HTML(body),
	})
}

// BuildFeedDocument builds the home feed page of theme.
func (b *Builder) BuildFeedDocument(theme string) (string, error) {
	return b.render(TemplateVars{
		Title: "Home",
		Theme: themeAttr(theme),
		Feed:  b.feed,
	})
}

func (b *Builder) render(vars TemplateVars) (string, error) {
	vars.Themes = themeVars()
	vars.Script = template.JS(stateScript)

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

func prepareArticle(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find("script").Remove()
	doc.Find("table").Each(func(_ int, s *goquery.Selection) {
		s.BeforeHtml(`<div class="wp-table-header">` + TableLabel + `</div>`)
	})
	return doc.Find("body").Html()
}

// themeAttr maps the system theme and unknown themes to light. The system
// theme is composed from the light and dark renders.
func themeAttr(theme string) string {
	if theme == preview.ThemeSystem || !preview.KnownTheme(theme) {
		return preview.ThemeLight
	}
	return theme
}

var _ ports.DocumentBuilder = (*Builder)(nil)
