// Package search provides web search providers used as research tools.
//
// Available providers:
//
//   - Tavily: requires an API key, supports basic/advanced depth
//   - Qianfan: Baidu AI search, bearer API key, recency filter
//   - Static: canned results for tests and offline runs
//
// Providers retry rate limited (429) and server side (5xx) failures with
// exponential backoff. WithCircuitBreaker stops calling a failing provider
// for a cool-down period.
//
// # Tavily Example
//
//	provider := search.NewTavily(func(o *search.TavilyOptions) {
//		o.APIKey = os.Getenv("TAVILY_API_KEY")
//		o.Depth = "advanced"
//	})
//	results, err := provider.Search(ctx, "climate change research 2024")
//
// # Custom Providers
//
// Implement Searcher to add your own backend:
//
//	type Searcher interface {
//		Search(ctx context.Context, query string) ([]search.Result, error)
//	}
package search
