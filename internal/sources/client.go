package sources

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

const (
	requestTimeout = 30 * time.Second
	maxAttempts    = 4
	initialBackoff = 2 * time.Second
	maxBackoff     = 30 * time.Second
)

// restClient is the shared HTTP layer for all statistical APIs: cache-first
// reads, a token-bucket rate limit per upstream, and exponential-backoff
// retries on transient failures.
type restClient struct {
	http    *fasthttp.Client
	limiter *rate.Limiter
	cache   *Cache
	offline bool
	log     zerolog.Logger
}

func newRESTClient(cache *Cache, requestsPerSecond float64, offline bool, log zerolog.Logger) *restClient {
	return &restClient{
		http: &fasthttp.Client{
			ReadTimeout:  requestTimeout,
			WriteTimeout: requestTimeout,
			Name:         "pensions-panorama",
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		cache:   cache,
		offline: offline,
		log:     log,
	}
}

// getJSON fetches url and decodes the body into out. Responses are served
// from the cache when fresh; in offline mode a cache miss is an error rather
// than a network call.
func (c *restClient) getJSON(ctx context.Context, url string, out interface{}) error {
	body, err := c.getBytes(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}

func (c *restClient) getBytes(ctx context.Context, url string) ([]byte, error) {
	if c.cache != nil {
		if body, ok := c.cache.Get(url); ok {
			c.log.Debug().Str("url", url).Msg("cache hit")
			return body, nil
		}
	}
	if c.offline {
		return nil, fmt.Errorf("offline mode: %s not in cache", url)
	}

	body, err := c.fetchWithRetry(ctx, url)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Set(url, body)
	}
	return body, nil
}

func (c *restClient) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	backoff := initialBackoff
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, retryable, err := c.fetchOnce(url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			break
		}

		c.log.Warn().Err(err).Str("url", url).Int("attempt", attempt).
			Msg("request failed; backing off")
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return nil, fmt.Errorf("request to %s failed after %d attempts: %w", url, maxAttempts, lastErr)
}

// fetchOnce performs a single GET. Server errors and HTTP 429 are retryable;
// other client errors are not.
func (c *restClient) fetchOnce(url string) ([]byte, bool, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	if err := c.http.DoTimeout(req, resp, requestTimeout); err != nil {
		return nil, true, err
	}

	status := resp.StatusCode()
	switch {
	case status >= 200 && status < 300:
		body := make([]byte, len(resp.Body()))
		copy(body, resp.Body())
		return body, false, nil
	case status == fasthttp.StatusTooManyRequests || status >= 500:
		return nil, true, fmt.Errorf("HTTP %d", status)
	default:
		return nil, false, fmt.Errorf("HTTP %d", status)
	}
}
