package search

import (
	"context"
	"sync"
)

// Static answers queries from a fixed table and records every query. It is
// safe for concurrent use.
type Static struct {
	mu       sync.Mutex
	results  map[string][]Result
	fallback []Result
	err      error
	queries  []string
}

// NewStatic returns a provider answering every unknown query with fallback.
func NewStatic(fallback ...Result) *Static {
	return &Static{results: map[string][]Result{}, fallback: fallback}
}

// Add registers results for an exact query.
func (s *Static) Add(query string, results ...Result) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[query] = results

	return s
}

// Fail makes every subsequent search return err.
func (s *Static) Fail(err error) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.err = err

	return s
}

// Queries returns the queries received so far.
func (s *Static) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.queries...)
}

// Search implements Searcher.
func (s *Static) Search(ctx context.Context, query string) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries = append(s.queries, query)

	if s.err != nil {
		return nil, s.err
	}

	if r, ok := s.results[query]; ok {
		return append([]Result(nil), r...), nil
	}

	return append([]Result(nil), s.fallback...), nil
}
