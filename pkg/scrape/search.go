package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/OFFIS-RIT/factgraph/pkg/common"
	"github.com/OFFIS-RIT/factgraph/pkg/logger"

	"golang.org/x/net/html"
)

// DefaultSearchURL is the DuckDuckGo HTML endpoint. Any endpoint that takes
// the query as q and marks result links with the result__a class works.
const DefaultSearchURL = "https://html.duckduckgo.com/html/"

const DefaultSearchResults = 5

// SearchResult is one hit of a web search.
type SearchResult struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Search runs query against the search endpoint and returns at most n
// distinct http(s) result links in page order.
func (s *Scraper) Search(ctx context.Context, query string, n int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search query is empty")
	}
	if n <= 0 {
		n = DefaultSearchResults
	}

	endpoint, err := url.Parse(s.searchURL)
	if err != nil {
		return nil, fmt.Errorf("invalid search url: %w", err)
	}
	params := endpoint.Query()
	params.Set("q", query)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse search page: %w", err)
	}

	results := searchResults(doc, endpoint, n)
	logger.Info("[Scrape][Search] Search finished", "query", query, "results", len(results))
	return results, nil
}

// SearchAndExtract searches for query and extracts every hit. Hits that
// cannot be fetched or have no body are returned in failed.
func (s *Scraper) SearchAndExtract(ctx context.Context, query string, n int) (sources []common.SourceInput, failed []string, err error) {
	results, err := s.Search(ctx, query, n)
	if err != nil {
		return nil, nil, err
	}

	sources = make([]common.SourceInput, 0, len(results))
	failed = []string{}
	for _, r := range results {
		src, err := s.Extract(ctx, r.URL)
		if err != nil || src.Body == "" {
			failed = append(failed, r.URL)
			continue
		}
		if src.Title == TitleNotFound && r.Title != "" {
			src.Title = r.Title
		}
		sources = append(sources, src)
	}
	return sources, failed, ctx.Err()
}

func searchResults(doc *html.Node, base *url.URL, n int) []SearchResult {
	var (
		results []SearchResult
		seen    = map[string]struct{}{}
	)

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if len(results) >= n {
			return
		}
		if node.Type == html.ElementNode && node.Data == "a" && hasClass(node, "result__a") {
			if target := resultTarget(attr(node, "href"), base); target != "" {
				if _, dup := seen[target]; !dup {
					seen[target] = struct{}{}
					results = append(results, SearchResult{
						Title: strings.Join(strings.Fields(textContent(node)), " "),
						URL:   target,
					})
				}
			}
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return results
}

// resultTarget resolves a result href. Redirect links carrying the target in
// uddg are unwrapped.
func resultTarget(href string, base *url.URL) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	u := base.ResolveReference(ref)
	if target := u.Query().Get("uddg"); target != "" {
		if u, err = url.Parse(target); err != nil {
			return ""
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(attr(n, "class")), class)
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
