// Package wikicontent loads article HTML from a MediaWiki REST endpoint.
package wikicontent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/user/wikipreview/pkg/ports"
)

// DefaultEndpoint serves mobile-formatted article HTML.
const DefaultEndpoint = "https://en.wikipedia.org/api/rest_v1/page/mobile-html/"

// Config configures the loader.
type Config struct {
	Endpoint          string        // Base URL; the title is appended
	UserAgent         string        // Sent with every request
	Timeout           time.Duration // Per request (default: 15s)
	RequestsPerSecond float64       // Request pacing (default: 1)
	MaxBytes          int64         // Largest accepted response (default: 8 MiB)
}

// DefaultConfig returns the default loader configuration.
func DefaultConfig() Config {
	return Config{
		Endpoint:          DefaultEndpoint,
		UserAgent:         "wikipreview/1.0",
		Timeout:           15 * time.Second,
		RequestsPerSecond: 1,
		MaxBytes:          8 << 20,
	}
}

// Loader implements ports.ContentLoader over HTTP.
type Loader struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
}

// New creates a new Loader. Zero fields of cfg take their defaults.
func New(cfg Config) *Loader {
	def := DefaultConfig()
	if cfg.Endpoint == "" {
		cfg.Endpoint = def.Endpoint
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = def.MaxBytes
	}
	return &Loader{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// LoadArticle fetches the body HTML of title. Relative resource URLs are
// made absolute and scripts are removed.
func (l *Loader) LoadArticle(ctx context.Context, title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("load article: empty title")
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("load article: %w", err)
	}

	target, err := url.Parse(l.cfg.Endpoint + url.PathEscape(strings.ReplaceAll(title, " ", "_")))
	if err != nil {
		return "", fmt.Errorf("load article: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", fmt.Errorf("load article: create request: %w", err)
	}
	req.Header.Set("User-Agent", l.cfg.UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("load article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("load article: %s returned %d: %s", title, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.cfg.MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("load article: read: %w", err)
	}
	if int64(len(body)) > l.cfg.MaxBytes {
		return "", fmt.Errorf("load article: %s exceeds %d bytes", title, l.cfg.MaxBytes)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("load article: parse: %w", err)
	}
	doc.Find("script").Remove()
	absolutize(doc, target)

	html, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("load article: serialize: %w", err)
	}
	if strings.TrimSpace(html) == "" {
		return "", fmt.Errorf("load article: %s has no content", title)
	}
	return html, nil
}

// absolutize resolves src, href and srcset attributes against base.
func absolutize(doc *goquery.Document, base *url.URL) {
	for _, attr := range []string{"src", "href"} {
		doc.Find("[" + attr + "]").Each(func(_ int, s *goquery.Selection) {
			v, _ := s.Attr(attr)
			if strings.HasPrefix(v, "#") {
				return
			}
			if ref, err := url.Parse(v); err == nil {
				s.SetAttr(attr, base.ResolveReference(ref).String())
			}
		})
	}
	doc.Find("[srcset]").Each(func(_ int, s *goquery.Selection) {
		v, _ := s.Attr("srcset")
		parts := strings.Split(v, ",")
		for i, part := range parts {
			fields := strings.Fields(part)
			if len(fields) == 0 {
				continue
			}
			if ref, err := url.Parse(fields[0]); err == nil {
				fields[0] = base.ResolveReference(ref).String()
			}
			parts[i] = strings.Join(fields, " ")
		}
		s.SetAttr("srcset", strings.Join(parts, ", "))
	})
}

var _ ports.ContentLoader = (*Loader)(nil)
