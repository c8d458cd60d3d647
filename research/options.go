package research

import (
	"time"

	"github.com/hupe1980/researchmesh/graph"
	"github.com/hupe1980/researchmesh/logging"
)

// Options configures an Assistant.
type Options struct {
	// MaxSupervisorIterations caps the supervisor loop.
	MaxSupervisorIterations int
	// MaxResearcherIterations caps every researcher loop.
	MaxResearcherIterations int
	// MaxSearchCalls caps SearchTool calls per researcher.
	MaxSearchCalls int
	// MaxConcurrentResearchUnits caps the researchers one ConductResearch
	// call may run at once.
	MaxConcurrentResearchUnits int
	// MaxResearchLoops caps the reflection rounds of the deep-search graph.
	MaxResearchLoops int
	// InitialQueryCount is the number of queries generate_query asks for.
	InitialQueryCount int
	// MaxGraphSteps caps the stages a graph walk executes.
	MaxGraphSteps int
	// StructuredRetries is the number of corrective re-prompts per
	// structured call.
	StructuredRetries int
	// SkipClarify starts the supervisor graph at the brief stage.
	SkipClarify bool
	// Logger receives research, loop and graph logs.
	Logger logging.Logger
	// Callbacks run around every stage of the research graphs.
	Callbacks *graph.CallbackManager
	// Now returns the date rendered into prompts.
	Now func() time.Time
}

// DefaultOptions returns the defaults of the research assistant.
func DefaultOptions() Options {
	return Options{
		MaxSupervisorIterations:    8,
		MaxResearcherIterations:    10,
		MaxSearchCalls:             3,
		MaxConcurrentResearchUnits: 1,
		MaxResearchLoops:           2,
		InitialQueryCount:          3,
		MaxGraphSteps:              25,
		StructuredRetries:          1,
		Logger:                     logging.NoOpLogger{},
		Now:                        time.Now,
	}
}

func (o *Options) normalize() {
	d := DefaultOptions()

	if o.MaxSupervisorIterations <= 0 {
		o.MaxSupervisorIterations = d.MaxSupervisorIterations
	}
	if o.MaxResearcherIterations <= 0 {
		o.MaxResearcherIterations = d.MaxResearcherIterations
	}
	if o.MaxSearchCalls <= 0 {
		o.MaxSearchCalls = d.MaxSearchCalls
	}
	if o.MaxConcurrentResearchUnits <= 0 {
		o.MaxConcurrentResearchUnits = d.MaxConcurrentResearchUnits
	}
	if o.MaxResearchLoops < 0 {
		o.MaxResearchLoops = d.MaxResearchLoops
	}
	if o.InitialQueryCount <= 0 {
		o.InitialQueryCount = d.InitialQueryCount
	}
	if o.MaxGraphSteps <= 0 {
		o.MaxGraphSteps = d.MaxGraphSteps
	}
	if o.StructuredRetries < 0 {
		o.StructuredRetries = 0
	}
	if o.Logger == nil {
		o.Logger = d.Logger
	}
	if o.Now == nil {
		o.Now = d.Now
	}
}
