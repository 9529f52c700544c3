package source

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jwkaltz/gravitas/pkg/cache"
	"github.com/jwkaltz/gravitas/pkg/errors"
	"github.com/jwkaltz/gravitas/pkg/graph"
	"github.com/jwkaltz/gravitas/pkg/httputil"
	"github.com/jwkaltz/gravitas/pkg/observability"
)

const httpTimeout = 10 * time.Second

// Client fetches snapshots over HTTP(S) with response caching and retries.
// Responses are cached as raw bodies keyed by URL, so a cached DOT source
// stays DOT on disk and is re-parsed on every hit.
type Client struct {
	http  *http.Client
	cache *httputil.Cache
}

// NewClient creates a Client storing responses in c. The cache decides TTL
// and location; [NewSnapshotCache] builds the default one.
func NewClient(c *httputil.Cache) *Client {
	return &Client{
		http:  &http.Client{Timeout: httpTimeout},
		cache: c,
	}
}

// NewSnapshotCache creates the file-backed response cache used for HTTP
// sources, namespaced under "source:" in the default cache directory with
// entries expiring after [cache.TTLSnapshot].
func NewSnapshotCache() (*httputil.Cache, error) {
	c, err := httputil.NewCache("", cache.TTLSnapshot)
	if err != nil {
		return nil, err
	}
	return c.Namespace("source:"), nil
}

// Fetch retrieves and parses the snapshot at rawURL. The format follows the
// URL path: .dot and .gv parse as DOT, everything else as JSON.
//
// Cached responses are served without a network round trip unless refresh is
// true. Network failures and 5xx responses are retried with backoff; 404
// returns [errors.ErrCodeNotFound] and 429 returns a
// [errors.RateLimitedError] carrying the server's Retry-After.
func (c *Client) Fetch(ctx context.Context, rawURL string, refresh bool) (*graph.Snapshot, error) {
	if err := errors.ValidateURL(rawURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse URL %s", rawURL)
	}

	parse := func(body string) (*graph.Snapshot, error) {
		if isDOT(u.Path) {
			return ReadDOT(strings.NewReader(body))
		}
		return ReadJSON(strings.NewReader(body))
	}

	var body string
	if !refresh {
		if ok, _ := c.cache.Get(rawURL, &body); ok {
			observability.Cache().OnCacheHit(ctx, "snapshot")
			return parse(body)
		}
		observability.Cache().OnCacheMiss(ctx, "snapshot")
	}

	fetch := func() error {
		var err error
		body, err = c.get(ctx, u)
		return err
	}
	if err := httputil.RetryWithBackoff(ctx, fetch); err != nil {
		return nil, err
	}

	_ = c.cache.Set(rawURL, body)
	return parse(body)
}

func (c *Client) get(ctx context.Context, u *url.URL) (string, error) {
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, http.MethodGet, u.Host, u.Path)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "build request for %s", u)
	}
	req.Header.Set("Accept", "application/json, text/vnd.graphviz")

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, u.Host, u.Path, err)
		return "", &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", u)}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, http.MethodGet, u.Host, u.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp, u); err != nil {
		return "", err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, u.Host, u.Path, err)
		return "", &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "read response from %s", u)}
	}
	return string(data), nil
}

func checkStatus(resp *http.Response, u *url.URL) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "snapshot not found: %s", u)
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return &errors.RateLimitedError{
			RetryAfter: retryAfter,
			Message:    "rate limited by " + u.Host,
		}
	case resp.StatusCode >= 500:
		return &httputil.RetryableError{
			Err: errors.New(errors.ErrCodeNetwork, "server error from %s: status %d", u.Host, resp.StatusCode),
		}
	default:
		return errors.New(errors.ErrCodeNetwork, "unexpected status %d from %s", resp.StatusCode, u)
	}
}
