package nse

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"derivflow/config"
	"derivflow/logger"
)

// FetchError is a transient per-source failure: a transport error, a non-2xx
// status, or an unreadable body. The caller skips the source for the cycle
// and the next scheduled poll is the de facto retry.
type FetchError struct {
	Source string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.Source, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsFetchError reports whether err is a transient fetch failure.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// Client fetches raw payloads from the provider. It owns a private cookie
// session: the provider requires a warm-up request to its root page before
// the API endpoints answer, and the resulting cookies must be reused for the
// lifetime of the client. The session is never shared between pipeline
// instances.
type Client struct {
	config  *config.Config
	http    *http.Client
	limiter *rate.Limiter
	log     *logger.Log

	mu     sync.Mutex
	warmed bool
}

// NewClient builds a Client from the provider configuration.
func NewClient(cfg *config.Config) (*Client, error) {
	log := logger.GetLogger()

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.Provider.ConnectionPool.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Provider.ConnectionPool.MaxIdleConns,
		MaxConnsPerHost:     cfg.Provider.ConnectionPool.MaxConnsPerHost,
		IdleConnTimeout:     cfg.Provider.ConnectionPool.IdleConnTimeout,
	}

	rps := cfg.Provider.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.Provider.Burst
	if burst < 1 {
		burst = 1
	}

	client := &Client{
		config: cfg,
		http: &http.Client{
			Transport: transport,
			Jar:       jar,
			Timeout:   cfg.Provider.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		log:     log,
	}

	log.WithComponent("fetcher").WithFields(logger.Fields{
		"base_url": cfg.Provider.BaseURL,
		"timeout":  cfg.Provider.Timeout,
	}).Info("provider client initialized")

	return client, nil
}

// Warm performs the session warm-up request against the provider root. A
// failure is not fatal: the client stays usable and re-warms lazily on the
// next fetch.
func (c *Client) Warm(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.warmLocked(ctx)
}

func (c *Client) warmLocked(ctx context.Context) error {
	if c.warmed {
		return nil
	}

	log := c.log.WithComponent("fetcher").WithFields(logger.Fields{"operation": "warm_session"})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Provider.BaseURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build warm-up request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("warm-up request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("warm-up request returned status %d", resp.StatusCode)
	}

	c.warmed = true
	log.Info("provider session established")
	return nil
}

func (c *Client) ensureWarm(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.warmed {
		return
	}
	if err := c.warmLocked(ctx); err != nil {
		c.log.WithComponent("fetcher").WithError(err).Warn("session warm-up failed, continuing without cookies")
	}
}

// Fetch performs one GET against the source endpoint and returns the raw
// body. All failures come back as *FetchError.
func (c *Client) Fetch(ctx context.Context, src config.SourceConfig) ([]byte, error) {
	log := c.log.WithComponent("fetcher").WithFields(logger.Fields{
		"source":    src.Key,
		"operation": "fetch",
	})

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{Source: src.Key, Err: err}
	}

	c.ensureWarm(ctx)

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, &FetchError{Source: src.Key, Err: err}
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Source: src.Key, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		// A rejected request usually means the session cookies expired;
		// force a re-warm on the next fetch.
		c.mu.Lock()
		c.warmed = false
		c.mu.Unlock()
		return nil, &FetchError{Source: src.Key, Status: resp.StatusCode}
	}

	// Setting Accept-Encoding ourselves disables the transport's transparent
	// decompression, so gzip bodies arrive compressed.
	reader := io.Reader(resp.Body)
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, &FetchError{Source: src.Key, Err: err}
		}
		defer gz.Close()
		reader = gz
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &FetchError{Source: src.Key, Err: err}
	}

	logger.LogPerformanceEntry(log, "fetcher", "api_request", time.Since(start), logger.Fields{
		"source": src.Key,
		"bytes":  len(body),
	})
	logger.IncrementFetch(src.Key, len(body))

	return body, nil
}

func (c *Client) setHeaders(req *http.Request) {
	p := c.config.Provider
	if p.UserAgent != "" {
		req.Header.Set("User-Agent", p.UserAgent)
	}
	if p.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", p.AcceptLanguage)
	}
	if p.AcceptEncoding != "" {
		req.Header.Set("Accept-Encoding", p.AcceptEncoding)
	}
}
