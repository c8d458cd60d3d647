package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
)

// DefaultTavilyEndpoint is the Tavily search API.
const DefaultTavilyEndpoint = "https://api.tavily.com/search"

// TavilyOptions configures the Tavily provider.
type TavilyOptions struct {
	APIKey string
	// Depth controls Tavily's search depth (basic or advanced).
	Depth      string
	MaxResults int
	Endpoint   string
	HTTPClient *http.Client
	Retry      RetryOptions
}

// Tavily calls the Tavily search API.
type Tavily struct {
	opts  TavilyOptions
	retry retry.Retry[[]byte]
}

// NewTavily constructs a Tavily search provider.
func NewTavily(optFns ...func(o *TavilyOptions)) *Tavily {
	opts := TavilyOptions{
		Depth:      "basic",
		MaxResults: 5,
		Endpoint:   DefaultTavilyEndpoint,
		Retry:      DefaultRetryOptions(),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Depth == "" {
		opts.Depth = "basic"
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 5
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Tavily{opts: opts, retry: newRetry(opts.Retry)}
}

// Search posts a query to Tavily.
func (t *Tavily) Search(ctx context.Context, query string) ([]Result, error) {
	if strings.TrimSpace(t.opts.APIKey) == "" {
		return nil, fmt.Errorf("tavily: %w", ErrMissingAPIKey)
	}

	body := map[string]any{
		"query":        query,
		"api_key":      t.opts.APIKey,
		"search_depth": t.opts.Depth,
		"max_results":  t.opts.MaxResults,
	}

	data, err := postJSON(ctx, t.opts.HTTPClient, t.retry, "tavily", t.opts.Endpoint, nil, body)
	if err != nil {
		return nil, err
	}

	var response struct {
		Results []Result `json:"results"`
	}

	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("%w: tavily: %v", ErrBadResponse, err)
	}

	results := make([]Result, 0, len(response.Results))
	for _, r := range response.Results {
		results = append(results, r)
		if len(results) >= t.opts.MaxResults {
			break
		}
	}

	return results, nil
}
