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

// DefaultQianfanEndpoint is the Baidu Qianfan AI search API.
const DefaultQianfanEndpoint = "https://qianfan.baidubce.com/v2/ai_search/web_search"

// QianfanOptions configures the Qianfan provider.
type QianfanOptions struct {
	APIKey string
	// Recency is the search_recency_filter (week, month, semiyear, year).
	Recency    string
	Edition    string
	Source     string
	MaxResults int
	Endpoint   string
	HTTPClient *http.Client
	Retry      RetryOptions
}

// Qianfan calls the Baidu Qianfan web search API.
type Qianfan struct {
	opts  QianfanOptions
	retry retry.Retry[[]byte]
}

// NewQianfan constructs a Qianfan search provider.
func NewQianfan(optFns ...func(o *QianfanOptions)) *Qianfan {
	opts := QianfanOptions{
		Recency:  "week",
		Edition:  "standard",
		Source:   "baidu_search_v2",
		Endpoint: DefaultQianfanEndpoint,
		Retry:    DefaultRetryOptions(),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Qianfan{opts: opts, retry: newRetry(opts.Retry)}
}

// Search sends the query as a single user message.
func (q *Qianfan) Search(ctx context.Context, query string) ([]Result, error) {
	if strings.TrimSpace(q.opts.APIKey) == "" {
		return nil, fmt.Errorf("qianfan: %w", ErrMissingAPIKey)
	}

	body := map[string]any{
		"messages": []map[string]string{
			{"role": "user", "content": query},
		},
		"edition":       q.opts.Edition,
		"search_source": q.opts.Source,
	}
	if q.opts.Recency != "" {
		body["search_recency_filter"] = q.opts.Recency
	}

	headers := map[string]string{"Authorization": "Bearer " + q.opts.APIKey}

	data, err := postJSON(ctx, q.opts.HTTPClient, q.retry, "qianfan", q.opts.Endpoint, headers, body)
	if err != nil {
		return nil, err
	}

	var response struct {
		References []Result `json:"references"`
	}

	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("%w: qianfan: %v", ErrBadResponse, err)
	}

	results := response.References
	if q.opts.MaxResults > 0 && len(results) > q.opts.MaxResults {
		results = results[:q.opts.MaxResults]
	}

	return results, nil
}
