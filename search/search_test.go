package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(o *RetryOptions) {
	o.MaxAttempts = 3
	o.InitialDelay = time.Millisecond
}

func TestTavily_Search(t *testing.T) {
	var body map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		var results []Result
		for i := range 7 {
			results = append(results, Result{Title: fmt.Sprintf("t%d", i), URL: fmt.Sprintf("https://e.x/%d", i), Content: "c"})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"results": results})
	}))
	defer srv.Close()

	tv := NewTavily(func(o *TavilyOptions) {
		o.APIKey = "key"
		o.Endpoint = srv.URL
		o.Depth = "advanced"
		fastRetry(&o.Retry)
	})

	results, err := tv.Search(context.Background(), "golang")
	require.NoError(t, err)

	assert.Len(t, results, 5)
	assert.Equal(t, "t0", results[0].Title)
	assert.Equal(t, "golang", body["query"])
	assert.Equal(t, "key", body["api_key"])
	assert.Equal(t, "advanced", body["search_depth"])
}

func TestTavily_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"title":"ok","url":"https://e.x","content":"c"}]}`))
	}))
	defer srv.Close()

	tv := NewTavily(func(o *TavilyOptions) {
		o.APIKey = "key"
		o.Endpoint = srv.URL
		fastRetry(&o.Retry)
	})

	results, err := tv.Search(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTavily_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	tv := NewTavily(func(o *TavilyOptions) {
		o.APIKey = "key"
		o.Endpoint = srv.URL
		fastRetry(&o.Retry)
	})

	_, err := tv.Search(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestTavily_MissingKey(t *testing.T) {
	_, err := NewTavily().Search(context.Background(), "q")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestQianfan_Search(t *testing.T) {
	var (
		auth string
		body map[string]any
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"references":[{"title":"a","url":"https://a.x","content":"alpha"},{"title":"b","url":"https://b.x","content":"beta"}]}`))
	}))
	defer srv.Close()

	qf := NewQianfan(func(o *QianfanOptions) {
		o.APIKey = "secret"
		o.Endpoint = srv.URL
		fastRetry(&o.Retry)
	})

	results, err := qf.Search(context.Background(), "news")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "standard", body["edition"])
	assert.Equal(t, "baidu_search_v2", body["search_source"])
	assert.Equal(t, "week", body["search_recency_filter"])

	msgs := body["messages"].([]any)
	assert.Equal(t, map[string]any{"role": "user", "content": "news"}, msgs[0])
}

func TestQianfan_NoReferences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	qf := NewQianfan(func(o *QianfanOptions) {
		o.APIKey = "secret"
		o.Endpoint = srv.URL
	})

	results, err := qf.Search(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Equal(t, NoResults, Format(results))
}

func TestFormatAndSources(t *testing.T) {
	results := []Result{
		{Title: "A", URL: "https://a.x", Content: "alpha"},
		{Title: "B", URL: "https://a.x", Content: "beta"},
		{Content: "gamma"},
	}

	assert.Equal(t, "A\nhttps://a.x\nalpha\n\nB\nhttps://a.x\nbeta\n\ngamma", Format(results))
	assert.Equal(t, []string{"https://a.x"}, Sources(results))
}

func TestStatic(t *testing.T) {
	s := NewStatic(Result{Content: "default"}).Add("go", Result{Content: "gopher"})

	r, err := s.Search(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, "gopher", r[0].Content)

	r, err = s.Search(context.Background(), "rust")
	require.NoError(t, err)
	assert.Equal(t, "default", r[0].Content)

	assert.Equal(t, []string{"go", "rust"}, s.Queries())

	boom := errors.New("down")
	_, err = s.Fail(boom).Search(context.Background(), "go")
	assert.ErrorIs(t, err, boom)
}

func TestWithCircuitBreaker_Opens(t *testing.T) {
	var calls int

	failing := Func(func(context.Context, string) ([]Result, error) {
		calls++
		return nil, errors.New("down")
	})

	s := WithCircuitBreaker(failing, func(o *BreakerOptions) {
		o.Threshold = 2
		o.Timeout = time.Minute
	})

	for range 4 {
		_, err := s.Search(context.Background(), "q")
		require.Error(t, err)
	}

	assert.Equal(t, 2, calls)
}
