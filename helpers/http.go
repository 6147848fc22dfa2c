package helpers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"slices"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"
)

// ErrRateLimited is wrapped by fetch errors caused by 429/430 responses
var ErrRateLimited = errors.New("rate limited")

// HTTP client and header configurations
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/112.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0.3 Safari/605.1.15",
	}

	referers = []string{
		"https://www.google.com/",
		"https://www.bing.com/",
		"https://duckduckgo.com/",
	}
)

const (
	acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptPDF  = "application/pdf,*/*;q=0.8"
)

// ClientOptions configures timeouts and the retry/backoff policy
type ClientOptions struct {
	Timeout          time.Duration
	RetryCount       int
	RetryWaitTime    time.Duration
	RetryMaxWaitTime time.Duration
}

// Client fetches pages and documents with retries on transport errors and 5xx responses
type Client struct {
	http *resty.Client
	rnd  *mathrand.Rand
}

// NewClient creates a new HTTP client
func NewClient(opts ClientOptions) *Client {
	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetRetryCount(opts.RetryCount)
	client.SetRetryWaitTime(opts.RetryWaitTime)
	client.SetRetryMaxWaitTime(opts.RetryMaxWaitTime)
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return r != nil && r.StatusCode() >= http.StatusInternalServerError
	})

	return &Client{
		http: client,
		rnd:  mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
	}
}

// FetchHTML sends a GET request with browser-like headers,
// converts the response body to UTF-8 (if needed), and returns it as an io.Reader.
func (c *Client) FetchHTML(ctx context.Context, url string) (io.Reader, error) {
	resp, err := c.get(ctx, url, acceptHTML)
	if err != nil {
		return nil, err
	}
	bodyBytes := resp.Body()

	// Determine the encoding from Content-Type header and body content
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, resp.Header().Get("Content-Type"))

	// If already UTF-8, return as is
	if name == "utf-8" || name == "UTF-8" {
		return bytes.NewReader(bodyBytes), nil
	}

	// Convert to UTF-8 if necessary
	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, fmt.Errorf("failed to read converted UTF-8 body: %w", err)
	}

	return &buf, nil
}

// FetchBytes downloads a binary document such as a PDF report
func (c *Client) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.get(ctx, url, acceptPDF)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

func (c *Client) get(ctx context.Context, url, accept string) (*resty.Response, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("User-Agent", userAgents[c.rnd.Intn(len(userAgents))]).
		SetHeader("Accept", accept).
		SetHeader("Accept-Language", "en-US,en;q=0.9,zh-CN;q=0.8,ko-KR;q=0.7").
		SetHeader("Cache-Control", "no-cache").
		SetHeader("Pragma", "no-cache").
		SetHeader("referer", referers[c.rnd.Intn(len(referers))]).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}

	// Check for rate limiting
	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode()) {
		retryAfter := resp.Header().Get("Retry-After")
		return nil, fmt.Errorf("%w; retry after %s", ErrRateLimited, retryAfter)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch %s unexpected status code: %d", url, resp.StatusCode())
	}

	return resp, nil
}
