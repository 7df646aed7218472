// Package feed fetches the guide's JSON feeds over HTTP.
//
// Every request carries a cache-busting "t" query parameter holding the
// current time in Unix milliseconds. Bodies are read up to MaxResponseSize
// bytes. Failures are reported as *FetchError (transport or non-2xx) and
// *ParseError (body not a JSON object).
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/OkinawaYT/Michishirube2026/internal/clock"
	"github.com/OkinawaYT/Michishirube2026/internal/model"
)

// MaxResponseSize bounds body reads: 32 MB. Feed documents are a few
// hundred kilobytes at most.
const MaxResponseSize int64 = 32 << 20

// CacheBustParam is the query parameter carrying the request timestamp.
const CacheBustParam = "t"

// Client performs cache-busted GETs against the feeds.
//
// Thread-safety: Client is safe for concurrent use.
type Client struct {
	http    *http.Client
	clock   clock.Clock
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithClock sets the clock used for cache-busting timestamps.
func WithClock(clk clock.Clock) Option {
	return func(c *Client) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithTimeout bounds each request. Zero (the default) means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// New creates a Client. Without options it uses http.DefaultClient and the
// real clock.
func New(opts ...Option) *Client {
	c := &Client{
		http:  http.DefaultClient,
		clock: clock.Real(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch GETs rawURL with the cache-busting parameter and returns the body
// of a 2xx response.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	target, err := CacheBust(rawURL, c.clock.Now())
	if err != nil {
		return nil, &FetchError{Code: ErrCodeTransport, URL: rawURL, Err: err}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{Code: ErrCodeTransport, URL: rawURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Code: ErrCodeTransport, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseSize))
		return nil, &FetchError{
			Code:       ErrCodeStatus,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, &FetchError{Code: ErrCodeTransport, URL: rawURL, Err: fmt.Errorf("reading response body: %w", err)}
	}
	return body, nil
}

// ParseMaster decodes a master document, wrapping failures in *ParseError.
func ParseMaster(rawURL string, body []byte) (model.Master, error) {
	m, err := model.DecodeMaster(body)
	if err != nil {
		return model.EmptyMaster(), newParseError(rawURL, err)
	}
	return m, nil
}

// ParseLive decodes a live document, wrapping failures in *ParseError.
func ParseLive(rawURL string, body []byte) (model.LivePayload, error) {
	p, err := model.DecodeLive(body)
	if err != nil {
		return model.LivePayload{Live: model.EmptyLive()}, newParseError(rawURL, err)
	}
	return p, nil
}

func newParseError(rawURL string, err error) *ParseError {
	code := ErrCodeInvalidJSON
	if errors.Is(err, model.ErrNotObject) {
		code = ErrCodeNotObject
	}
	return &ParseError{Code: code, URL: rawURL, Err: err}
}

// CacheBust returns rawURL with the "t" parameter set to now in Unix
// milliseconds. Existing query parameters are preserved.
func CacheBust(rawURL string, now time.Time) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(CacheBustParam, strconv.FormatInt(clock.UnixMillis(now), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
