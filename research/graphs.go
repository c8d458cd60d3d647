package research

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/researchmesh/graph"
	"github.com/hupe1980/researchmesh/state"
)

// Mode selects the research graph.
type Mode string

const (
	// ModeSupervisor clarifies, writes a brief and runs the supervisor.
	ModeSupervisor Mode = "supervisor"
	// ModeDeepSearch generates queries, searches and reflects.
	ModeDeepSearch Mode = "deepsearch"
)

// ErrUnknownMode is returned for modes other than supervisor and deepsearch.
var ErrUnknownMode = errors.New("unknown research mode")

func (a *Assistant) graphOptions(name string) func(o *graph.Options) {
	return func(o *graph.Options) {
		o.Name = name
		o.MaxSteps = a.opts.MaxGraphSteps
		o.Logger = a.opts.Logger
		o.Callbacks = a.opts.Callbacks
	}
}

// SupervisorGraph compiles clarify -> brief -> supervisor. With SkipClarify
// the walk starts at the brief stage.
func (a *Assistant) SupervisorGraph() (*graph.Graph, error) {
	start := StageClarify
	if a.opts.SkipClarify {
		start = StageBrief
	}

	return graph.New(Schema, a.graphOptions("supervisor")).
		AddStage(StageClarify, a.clarifyStage, StageBrief, graph.End).
		AddStage(StageBrief, a.briefStage, StageSupervisor).
		AddStage(StageSupervisor, a.supervisorStage, graph.End).
		SetStart(start).
		Compile()
}

// DeepSearchGraph compiles generate_query -> web_search <-> reflection.
func (a *Assistant) DeepSearchGraph() (*graph.Graph, error) {
	return graph.New(Schema, a.graphOptions("deepsearch")).
		AddStage(StageGenerateQuery, a.generateQueryStage, StageWebSearch).
		AddStage(StageWebSearch, a.webSearchStage, StageReflection).
		AddStage(StageReflection, a.reflectionStage, StageWebSearch, graph.End).
		SetStart(StageGenerateQuery).
		Compile()
}

// Graph returns the compiled graph for mode.
func (a *Assistant) Graph(mode Mode) (*graph.Graph, error) {
	switch mode {
	case ModeSupervisor, "":
		return a.SupervisorGraph()
	case ModeDeepSearch:
		return a.DeepSearchGraph()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// Run walks the graph of mode seeded with request and returns the final
// store and answer. On error the store reached so far is returned. A walk
// cut short by ctx ends with the partial answer and ctx's error.
func (a *Assistant) Run(ctx context.Context, mode Mode, request string) (*state.Store, string, error) {
	g, err := a.Graph(mode)
	if err != nil {
		return nil, "", err
	}

	store, err := g.Invoke(ctx, Seed(request))
	if store == nil {
		return nil, "", err
	}

	if err == nil {
		err = ctx.Err()
	}

	return store, FinalAnswer(store), err
}
