package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
)

// NoResults is the text returned to models when a search finds nothing.
const NoResults = "No search results found."

var (
	// ErrMissingAPIKey is returned by providers configured without a key.
	ErrMissingAPIKey = errors.New("search: API key is missing")
	// ErrRequestRejected marks 4xx responses other than 429; they are not retried.
	ErrRequestRejected = errors.New("search: request rejected")
	// ErrBadResponse marks responses that cannot be decoded.
	ErrBadResponse = errors.New("search: malformed response")
)

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Searcher runs web searches.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// Func adapts a function to Searcher.
type Func func(ctx context.Context, query string) ([]Result, error)

// Search implements Searcher.
func (f Func) Search(ctx context.Context, query string) ([]Result, error) { return f(ctx, query) }

// Format renders results as the text handed to a model.
func Format(results []Result) string {
	if len(results) == 0 {
		return NoResults
	}

	blocks := make([]string, 0, len(results))

	for _, r := range results {
		var b strings.Builder
		if r.Title != "" {
			b.WriteString(r.Title)
			b.WriteString("\n")
		}
		if r.URL != "" {
			b.WriteString(r.URL)
			b.WriteString("\n")
		}
		b.WriteString(r.Content)
		blocks = append(blocks, strings.TrimSpace(b.String()))
	}

	return strings.Join(blocks, "\n\n")
}

// Sources returns the distinct non-empty URLs of results in order.
func Sources(results []Result) []string {
	seen := map[string]bool{}

	var out []string

	for _, r := range results {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		out = append(out, r.URL)
	}

	return out
}

// RetryOptions configures provider retries on 429 and 5xx responses.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
}

// DefaultRetryOptions mirrors a doubling backoff starting at one second.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{MaxAttempts: 4, InitialDelay: time.Second, Multiplier: 2.0}
}

func newRetry(opts RetryOptions) retry.Retry[[]byte] {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.Multiplier < 1 {
		opts.Multiplier = 2.0
	}

	return retry.New[[]byte](retry.Config{
		MaxAttempts:   opts.MaxAttempts,
		InitialDelay:  opts.InitialDelay,
		BackoffPolicy: retry.BackoffExponential,
		Multiplier:    opts.Multiplier,
		NonRetryableErrors: []error{
			ErrMissingAPIKey,
			ErrRequestRejected,
			ErrBadResponse,
			context.Canceled,
			context.DeadlineExceeded,
		},
	})
}

// postJSON posts body to url and returns the response body of a 200 reply.
func postJSON(ctx context.Context, client *http.Client, r retry.Retry[[]byte], provider, url string, headers map[string]string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	return r.Do(ctx, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}

		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", provider, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, fmt.Errorf("%s: read body: %w", provider, err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return data, nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return nil, fmt.Errorf("%s http %d", provider, resp.StatusCode)
		default:
			return nil, fmt.Errorf("%w: %s http %d: %s", ErrRequestRejected, provider, resp.StatusCode, snippet(data))
		}
	})
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		return s[:200]
	}

	return s
}
