package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"
)

// ErrDisallowed is returned for URLs blocked by the host's robots.txt.
var ErrDisallowed = errors.New("disallowed by robots.txt")

const maxBodySize = 4 << 20

// Response is a fetched page. Non-OK statuses are not errors; callers decide.
type Response struct {
	StatusCode int
	Body       []byte
	URL        string
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64 // per host; <= 0 disables throttling
	RespectRobots     bool
	Client            *http.Client
	Logger            *slog.Logger
}

// Fetcher performs polite GET requests: one token bucket and one robots.txt per host.
type Fetcher struct {
	client        *http.Client
	userAgent     string
	rps           float64
	respectRobots bool
	log           *slog.Logger

	mu    sync.Mutex
	hosts map[string]*hostInfo
}

type hostInfo struct {
	robots  *robotstxt.RobotsData // nil if not fetched or unavailable
	limiter *rate.Limiter
}

// NewFetcher returns a Fetcher with defaults filled in.
func NewFetcher(opts FetcherOptions) *Fetcher {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "toranews/1.0"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Fetcher{
		client:        client,
		userAgent:     opts.UserAgent,
		rps:           opts.RequestsPerSecond,
		respectRobots: opts.RespectRobots,
		log:           opts.Logger,
		hosts:         make(map[string]*hostInfo),
	}
}

// Get fetches rawURL and returns the (size-capped) body whatever the status.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	h := f.host(ctx, u)
	if h.robots != nil && !h.robots.FindGroup(f.userAgent).Test(u.Path) {
		return nil, fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
	}
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ja,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.log.Warn("failed to close response body", "url", rawURL, "error", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}

	f.log.Debug("fetched", "url", rawURL, "status", resp.StatusCode, "bytes", len(body))
	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		URL:        resp.Request.URL.String(),
	}, nil
}

func (f *Fetcher) host(ctx context.Context, u *url.URL) *hostInfo {
	f.mu.Lock()
	h, ok := f.hosts[u.Host]
	f.mu.Unlock()
	if ok {
		return h
	}

	limit, burst := rate.Inf, 1
	if f.rps > 0 {
		limit = rate.Limit(f.rps)
		burst = max(1, int(f.rps))
	}
	h = &hostInfo{limiter: rate.NewLimiter(limit, burst)}
	if f.respectRobots {
		h.robots = f.fetchRobots(ctx, u.Scheme, u.Host)
	}

	f.mu.Lock()
	f.hosts[u.Host] = h
	f.mu.Unlock()
	return h
}

// fetchRobots treats any failure as "no robots file".
func (f *Fetcher) fetchRobots(ctx context.Context, scheme, host string) *robotstxt.RobotsData {
	robotsURL := scheme + "://" + host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		f.log.Debug("robots.txt unavailable", "host", host, "error", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil
	}

	robots, err := robotstxt.FromResponse(resp)
	if err != nil {
		f.log.Debug("robots.txt unparsable", "host", host, "error", err)
		return nil
	}
	return robots
}
