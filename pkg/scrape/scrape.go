// Package scrape turns web pages into sources: page title, site host, URL
// and readable body text.
package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/OFFIS-RIT/factgraph/internal/util"
	"github.com/OFFIS-RIT/factgraph/pkg/common"
	"github.com/OFFIS-RIT/factgraph/pkg/logger"

	"codeberg.org/readeck/go-readability/v2"
	"golang.org/x/net/html"
	"golang.org/x/sync/singleflight"
)

// TitleNotFound is the title of a source whose page had no usable title.
const TitleNotFound = "Title not found"

const (
	maxPageBytes = 10 << 20

	// fetchTimeout bounds a shared fetch that no longer follows the
	// context of the caller that started it.
	fetchTimeout = 30 * time.Second

	DefaultUserAgent = "Mozilla/5.0 (compatible; factgraph/1.0)"
)

// Scraper fetches pages and extracts their main text. Results are cached per
// URL for the lifetime of the Scraper.
type Scraper struct {
	client    *http.Client
	userAgent string
	searchURL string
	robots    *robotsChecker

	cache   map[string]common.SourceInput
	cacheMu sync.RWMutex
	group   singleflight.Group
}

type ScraperOption func(*Scraper)

// WithSearchURL sets the HTML search endpoint used by Search.
func WithSearchURL(u string) ScraperOption {
	return func(s *Scraper) {
		if u != "" {
			s.searchURL = u
		}
	}
}

func WithUserAgent(ua string) ScraperOption {
	return func(s *Scraper) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithRobots toggles the robots.txt check. It is on by default.
func WithRobots(enabled bool) ScraperOption {
	return func(s *Scraper) {
		if !enabled {
			s.robots = nil
		} else if s.robots == nil {
			s.robots = newRobotsChecker(s.client, s.userAgent)
		}
	}
}

// NewScraper creates a Scraper. A nil client selects an http.Client with a
// 30 second timeout.
func NewScraper(client *http.Client, opts ...ScraperOption) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	s := &Scraper{
		client:    client,
		userAgent: DefaultUserAgent,
		searchURL: DefaultSearchURL,
		cache:     make(map[string]common.SourceInput),
	}
	s.robots = newRobotsChecker(client, s.userAgent)
	for _, opt := range opts {
		opt(s)
	}
	if s.robots != nil {
		s.robots.userAgent = s.userAgent
	}
	return s
}

// Extract fetches rawURL and returns it as a source. On failure the returned
// source still carries the URL and the TitleNotFound title.
//
// Concurrent calls for one URL share a single fetch. The shared fetch is
// detached from the callers' contexts, so a canceled caller only stops
// waiting for it.
func (s *Scraper) Extract(ctx context.Context, rawURL string) (common.SourceInput, error) {
	failed := common.SourceInput{Title: TitleNotFound, URL: rawURL}

	s.cacheMu.RLock()
	if cached, ok := s.cache[rawURL]; ok {
		s.cacheMu.RUnlock()
		return cached, nil
	}
	s.cacheMu.RUnlock()

	logger.Info("[Scrape][Extract] Start body extraction", "url", rawURL)
	ch := s.group.DoChan(rawURL, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		src, err := s.fetch(fetchCtx, rawURL)
		if err != nil {
			return nil, err
		}
		s.cacheMu.Lock()
		s.cache[rawURL] = src
		s.cacheMu.Unlock()
		return src, nil
	})

	select {
	case <-ctx.Done():
		return failed, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			logger.Error("[Scrape][Extract] Failed to extract page", "url", rawURL, "err", res.Err)
			return failed, res.Err
		}
		return res.Val.(common.SourceInput), nil
	}
}

func (s *Scraper) fetch(ctx context.Context, rawURL string) (common.SourceInput, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return common.SourceInput{}, fmt.Errorf("invalid url %q", rawURL)
	}

	if s.robots != nil && !s.robots.allowed(ctx, u) {
		return common.SourceInput{}, fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return common.SourceInput{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	resp, err := s.client.Do(req)
	if err != nil {
		return common.SourceInput{}, fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return common.SourceInput{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return common.SourceInput{}, fmt.Errorf("failed to read body: %w", err)
	}

	src := common.SourceInput{
		Title: TitleNotFound,
		URL:   rawURL,
		Site:  u.Host,
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") {
		if !strings.HasPrefix(contentType, "text/") {
			return common.SourceInput{}, fmt.Errorf("unsupported content type %q", contentType)
		}
		src.Body = util.SanitizeText(string(data))
		return src, nil
	}

	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return common.SourceInput{}, fmt.Errorf("failed to parse html: %w", err)
	}
	if title := pageTitle(doc); title != "" {
		src.Title = title
	}

	src.Body = readableText(data, u)
	if src.Body == "" {
		src.Body = plainText(doc)
	}
	src.Body = util.SanitizeText(src.Body)
	return src, nil
}

func readableText(data []byte, u *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(data), u)
	if err != nil {
		logger.Debug("[Scrape][Extract] Readability failed, using plain text", "url", u.String(), "err", err)
		return ""
	}
	var builder strings.Builder
	if err := article.RenderText(&builder); err != nil {
		return ""
	}
	return strings.TrimSpace(builder.String())
}

func pageTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		var b strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		}
		return strings.TrimSpace(b.String())
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := pageTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// plainText joins every visible text block with single spaces.
func plainText(doc *html.Node) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head", "template":
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.Join(strings.Fields(n.Data), " "); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(parts, " ")
}
