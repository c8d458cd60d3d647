package research

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/researchmesh/internal/testutil"
	"github.com/hupe1980/researchmesh/model"
	"github.com/hupe1980/researchmesh/search"
	"github.com/hupe1980/researchmesh/state"
)

func deepSearchModel(reflect func(req model.Request) map[string]any) *model.MockModel {
	router := testutil.NewRouter().
		OnJSON("diverse web search queries", map[string]any{"query": []string{"a", "b", "c", "d"}, "rationale": "coverage"}).
		On("analyzing summaries", func(req model.Request) (model.Response, error) { return testutil.JSON(reflect(req)), nil })

	return model.NewMockModel("mock").SetResponder(router.Responder())
}

func TestDeepSearch_StopsAtLoopCap(t *testing.T) {
	m := deepSearchModel(func(model.Request) map[string]any {
		return map[string]any{
			"is_sufficient":     false,
			"knowledge_gap":     "more detail",
			"follow_up_queries": []string{"follow up"},
			"answer":            "best effort answer",
		}
	})
	searcher := search.NewStatic(doc)

	store, answer, err := newAssistant(m, searcher).Run(context.Background(), ModeDeepSearch, "What is Go?")
	require.NoError(t, err)

	assert.Equal(t, "best effort answer", answer)
	assert.Equal(t, 2, state.Value[int](store, FieldResearchLoopCount))
	assert.Equal(t, "What is Go?", state.Value[string](store, FieldResearchTopic))
	assert.ElementsMatch(t, []string{"a", "b", "c", "follow up", "follow up"}, searcher.Queries())
	assert.Len(t, state.Value[[]QueryResult](store, FieldQueryResults), 5)
	assert.Equal(t, 5, strings.Count(state.Value[string](store, FieldWebSearchSummary), "Query: "))
}

func TestDeepSearch_SufficientFirstRound(t *testing.T) {
	var reflections int

	m := deepSearchModel(func(req model.Request) map[string]any {
		reflections++
		assert.Contains(t, req.Instructions, "Query: a")
		return map[string]any{"is_sufficient": true, "answer": "Go is a language."}
	})

	store, answer, err := newAssistant(m, search.NewStatic(doc), func(o *Options) { o.InitialQueryCount = 1 }).
		Run(context.Background(), ModeDeepSearch, "What is Go?")
	require.NoError(t, err)

	assert.Equal(t, "Go is a language.", answer)
	assert.Equal(t, 1, reflections)
	assert.Equal(t, []string{"a"}, state.Value[[]string](store, FieldQueries))
	assert.Equal(t, 0, state.Value[int](store, FieldResearchLoopCount))
}

func TestDeepSearch_FailedQueryRecorded(t *testing.T) {
	m := deepSearchModel(func(model.Request) map[string]any {
		return map[string]any{"is_sufficient": true}
	})

	searcher := search.Func(func(_ context.Context, q string) ([]search.Result, error) {
		if q == "b" {
			return nil, errors.New("rate limited")
		}
		return []search.Result{doc}, nil
	})

	store, answer, err := newAssistant(m, searcher).Run(context.Background(), ModeDeepSearch, "What is Go?")
	require.NoError(t, err)

	results := state.Value[[]QueryResult](store, FieldQueryResults)
	require.Len(t, results, 3)
	assert.Equal(t, "rate limited", results[1].Error)
	assert.Empty(t, results[0].Error)

	// Without an answer the summary is returned.
	assert.Contains(t, answer, "search failed: rate limited")
}

func TestSummarize(t *testing.T) {
	got := Summarize([]QueryResult{
		{Query: "a", Results: []search.Result{doc}},
		{Query: "b"},
	})

	assert.Equal(t, "Query: a\nDoc\nhttps://example.com/doc\ncontent\n\n---\n\nQuery: b\n"+search.NoResults, got)
}
