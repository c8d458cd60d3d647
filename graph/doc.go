// Package graph implements the workflow graph: named stages connected by
// declared transfer edges and walked by a driver that applies each stage's
// Directive.
//
// Stages never mutate state directly. A stage reads a state.View and returns
// a Directive naming the next stage (or End) together with a partial
// state.Update. The driver checks the target against the stage's declared
// ends, merges the update through the schema's merge policies and moves on.
//
// Routing mistakes are caught by Compile: every stage must declare its ends
// and every end must name a registered stage or End. A directive naming an
// undeclared target still aborts the walk with ErrUndeclaredTransition.
//
// Example:
//
//	b := graph.New(schema)
//	b.AddStage("clarify", clarify, "brief", graph.End)
//	b.AddStage("brief", brief, "supervisor")
//	b.AddStage("supervisor", supervise, graph.End)
//	b.SetStart("clarify")
//
//	g, err := b.Compile()
//	if err != nil {
//		return err
//	}
//
//	final, err := g.Invoke(ctx, state.Update{"messages": seed})
package graph
