package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/OFFIS-RIT/factgraph/pkg/logger"

	"github.com/temoto/robotstxt"
)

// ErrDisallowed is returned for pages the site's robots.txt excludes.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// robotsAgent is matched against robots.txt groups. Sites without a group
// for it fall back to their "*" rules.
const robotsAgent = "factgraph"

// robotsChecker caches the robots.txt of every host it has seen.
type robotsChecker struct {
	client    *http.Client
	userAgent string

	mu    sync.RWMutex
	hosts map[string]*robotstxt.RobotsData
}

func newRobotsChecker(client *http.Client, userAgent string) *robotsChecker {
	return &robotsChecker{
		client:    client,
		userAgent: userAgent,
		hosts:     make(map[string]*robotstxt.RobotsData),
	}
}

// allowed reports whether u may be fetched. A robots.txt that cannot be
// fetched or parsed allows everything.
func (r *robotsChecker) allowed(ctx context.Context, u *url.URL) bool {
	data, err := r.data(ctx, u)
	if err != nil {
		logger.Debug("[Scrape][Robots] robots.txt unavailable, allowing", "host", u.Host, "err", err)
		return true
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return data.TestAgent(path, robotsAgent)
}

func (r *robotsChecker) data(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	key := u.Scheme + "://" + u.Host

	r.mu.RLock()
	data, ok := r.hosts[key]
	r.mu.RUnlock()
	if ok {
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.mu.Lock()
	r.hosts[key] = data
	r.mu.Unlock()
	return data, nil
}
