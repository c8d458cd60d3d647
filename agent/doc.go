// Package agent implements the bounded tool-calling loop that drives a model
// through repeated tool invocation rounds.
//
// A Loop is configured once with a model, a closed tool registry and its
// budgets, then run against a seed history:
//
//	loop := agent.New(m, registry, func(o *agent.Options) {
//		o.MaxIterations = 10
//		o.ToolBudgets = map[string]int{"SearchTool": 3}
//	})
//	res, err := loop.Run(ctx, history)
//
// Guarantees:
//   - A run halts within MaxIterations model rounds
//   - A budgeted tool executes at most its allotted number of times
//   - Tool failures and panics become tool result text, never loop errors
//
// Only model failures and context errors leave Run as errors. FanOut runs
// independent units (e.g. nested loops) with bounded concurrency.
package agent
