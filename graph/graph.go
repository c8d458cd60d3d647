package graph

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/hupe1980/researchmesh/logging"
	"github.com/hupe1980/researchmesh/state"
)

// End is the reserved target that terminates a walk.
const End = "__end__"

// Start is reserved for graph entry and cannot name a stage.
const Start = "__start__"

// DefaultMaxSteps bounds a walk when no MaxSteps option is given.
const DefaultMaxSteps = 25

var (
	// ErrInvalidGraph is returned by Compile for structural mistakes.
	ErrInvalidGraph = errors.New("invalid graph")
	// ErrUndeclaredTransition is returned when a stage targets a name outside its ends.
	ErrUndeclaredTransition = errors.New("undeclared transition")
	// ErrStepLimit is returned when a walk exceeds MaxSteps stage executions.
	ErrStepLimit = errors.New("graph step limit exceeded")
)

// Directive tells the driver where to go next and what to merge first.
type Directive struct {
	Goto   string
	Update state.Update
}

// Goto advances to target after merging update.
func Goto(target string, update state.Update) Directive {
	return Directive{Goto: target, Update: update}
}

// Stop merges update and ends the walk.
func Stop(update state.Update) Directive {
	return Directive{Goto: End, Update: update}
}

// IsStop reports whether the directive ends the walk.
func (d Directive) IsStop() bool { return d.Goto == End }

// Stage is one unit of work in a graph.
type Stage func(ctx context.Context, s state.View) (Directive, error)

// Options configures a graph.
type Options struct {
	// Name identifies the graph in logs and callbacks.
	Name string
	// MaxSteps bounds the number of stage executions per walk.
	MaxSteps int
	// Logger receives stage logs. A logger with a LogStage method (such as
	// logging.StructuredLogger) receives one call per executed stage.
	Logger logging.Logger
	// Callbacks run around every stage.
	Callbacks *CallbackManager
}

type stageDef struct {
	name string
	fn   Stage
	ends []string
}

// Builder collects stages and edges. Errors are reported by Compile.
type Builder struct {
	schema *state.Schema
	stages map[string]*stageDef
	order  []string
	start  string
	errs   []error
	opts   Options
}

// New creates a builder for graphs over schema.
func New(schema *state.Schema, optFns ...func(o *Options)) *Builder {
	opts := Options{
		Name:     "graph",
		MaxSteps: DefaultMaxSteps,
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if opts.Callbacks == nil {
		opts.Callbacks = NewCallbackManager()
	}

	return &Builder{schema: schema, stages: map[string]*stageDef{}, opts: opts}
}

// AddStage registers a stage and the set of targets it may transfer to.
func (b *Builder) AddStage(name string, fn Stage, ends ...string) *Builder {
	switch {
	case name == "":
		b.errs = append(b.errs, fmt.Errorf("%w: stage without name", ErrInvalidGraph))
	case name == End || name == Start:
		b.errs = append(b.errs, fmt.Errorf("%w: %q is a reserved name", ErrInvalidGraph, name))
	case fn == nil:
		b.errs = append(b.errs, fmt.Errorf("%w: stage %s has no function", ErrInvalidGraph, name))
	case b.stages[name] != nil:
		b.errs = append(b.errs, fmt.Errorf("%w: duplicate stage %s", ErrInvalidGraph, name))
	default:
		b.stages[name] = &stageDef{name: name, fn: fn, ends: slices.Clone(ends)}
		b.order = append(b.order, name)
	}

	return b
}

// SetStart designates the entry stage.
func (b *Builder) SetStart(name string) *Builder {
	b.start = name
	return b
}

// Compile validates the graph structure and returns an executable graph.
func (b *Builder) Compile() (*Graph, error) {
	if b.schema == nil {
		return nil, fmt.Errorf("%w: nil schema", ErrInvalidGraph)
	}

	errs := slices.Clone(b.errs)

	if b.start == "" {
		errs = append(errs, fmt.Errorf("%w: no start stage", ErrInvalidGraph))
	} else if b.stages[b.start] == nil {
		errs = append(errs, fmt.Errorf("%w: start stage %s is not registered", ErrInvalidGraph, b.start))
	}

	for _, name := range b.order {
		def := b.stages[name]
		if len(def.ends) == 0 {
			errs = append(errs, fmt.Errorf("%w: stage %s declares no ends", ErrInvalidGraph, name))
		}

		for _, end := range def.ends {
			if end != End && b.stages[end] == nil {
				errs = append(errs, fmt.Errorf("%w: stage %s targets unregistered stage %s", ErrInvalidGraph, name, end))
			}
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	stages := make(map[string]*stageDef, len(b.stages))
	for name, def := range b.stages {
		stages[name] = &stageDef{name: def.name, fn: def.fn, ends: slices.Clone(def.ends)}
	}

	return &Graph{
		schema: b.schema,
		stages: stages,
		order:  slices.Clone(b.order),
		start:  b.start,
		opts:   b.opts,
	}, nil
}

// Graph is a compiled, immutable workflow. It is safe for concurrent
// invocations; every Invoke walks its own store.
type Graph struct {
	schema *state.Schema
	stages map[string]*stageDef
	order  []string
	start  string
	opts   Options
}

// Name returns the configured graph name.
func (g *Graph) Name() string { return g.opts.Name }

// Stages returns the stage names in registration order.
func (g *Graph) Stages() []string { return slices.Clone(g.order) }

// Ends returns the declared targets of stage.
func (g *Graph) Ends(stage string) []string {
	if def := g.stages[stage]; def != nil {
		return slices.Clone(def.ends)
	}

	return nil
}

// stageLogger is implemented by logging.StructuredLogger.
type stageLogger interface {
	LogStage(stage, next string, dur time.Duration, err error)
}

// Invoke walks the graph from the start stage over a fresh store seeded with
// seed. It returns the final store when a stage stops. On error the store
// reached so far is returned alongside the error.
func (g *Graph) Invoke(ctx context.Context, seed state.Update) (*state.Store, error) {
	store := state.NewStore(g.schema)
	if err := store.Merge(seed); err != nil {
		return nil, fmt.Errorf("seed state: %w", err)
	}

	view := readOnly{store}
	current := g.start

	for step := 0; current != End; step++ {
		if step >= g.opts.MaxSteps {
			return store, fmt.Errorf("%w: %d steps (at %s)", ErrStepLimit, g.opts.MaxSteps, current)
		}

		if err := ctx.Err(); err != nil {
			return store, err
		}

		next, err := g.runStage(ctx, step, g.stages[current], store, view)
		if err != nil {
			return store, err
		}

		current = next
	}

	g.opts.Logger.Debug("graph.walk.finished", "graph", g.opts.Name, "version", store.Version())

	return store, nil
}

func (g *Graph) runStage(ctx context.Context, step int, def *stageDef, store *state.Store, view state.View) (string, error) {
	cbCtx := &CallbackContext{Graph: g.opts.Name, Stage: def.name, Step: step, View: view}

	if err := g.opts.Callbacks.ExecuteCallbacks(ctx, CallbackBeforeStage, cbCtx); err != nil {
		return "", fmt.Errorf("before stage %s: %w", def.name, err)
	}

	start := time.Now()
	dir, err := def.fn(ctx, view)

	if err == nil && !slices.Contains(def.ends, dir.Goto) {
		err = fmt.Errorf("%w: %s -> %q (declared %v)", ErrUndeclaredTransition, def.name, dir.Goto, def.ends)
	}

	if err == nil && len(dir.Update) > 0 {
		cbCtx.Next, cbCtx.Update = dir.Goto, dir.Update
		if err = g.opts.Callbacks.ExecuteCallbacks(ctx, CallbackOnStateChange, cbCtx); err == nil {
			err = store.Merge(dir.Update)
		}
	}

	g.logStage(def.name, dir.Goto, time.Since(start), err)

	if err != nil {
		cbCtx.Err = err
		if cbErr := g.opts.Callbacks.ExecuteCallbacks(ctx, CallbackOnError, cbCtx); cbErr != nil {
			return "", errors.Join(fmt.Errorf("stage %s: %w", def.name, err), cbErr)
		}

		return "", fmt.Errorf("stage %s: %w", def.name, err)
	}

	cbCtx.Next = dir.Goto
	if err := g.opts.Callbacks.ExecuteCallbacks(ctx, CallbackAfterStage, cbCtx); err != nil {
		return "", fmt.Errorf("after stage %s: %w", def.name, err)
	}

	return dir.Goto, nil
}

func (g *Graph) logStage(stage, next string, dur time.Duration, err error) {
	if l, ok := g.opts.Logger.(stageLogger); ok {
		l.LogStage(stage, next, dur, err)
		return
	}

	if err != nil {
		g.opts.Logger.Error("graph.stage.failed", "graph", g.opts.Name, "stage", stage, "error", err.Error())
		return
	}

	g.opts.Logger.Debug("graph.stage.executed", "graph", g.opts.Name, "stage", stage, "next", next, "duration_ms", dur.Milliseconds())
}

// readOnly hides the store's mutators from stages.
type readOnly struct {
	s *state.Store
}

func (r readOnly) Get(name string) (any, bool) { return r.s.Get(name) }

// Snapshot exposes all values for prompt rendering.
func (r readOnly) Snapshot() map[string]any { return r.s.Snapshot() }
