// Package core provides the foundational types shared by every layer of
// researchmesh:
//
//   - Messages (role + ordered parts) forming append-only conversation histories
//   - Tool calls and tool results paired by call identifier
//   - Budgets capping how often a named capability may be consumed
//   - ToolContext, the constrained surface handed to tool executors
//
// The package has no knowledge of models, graphs or concrete tools. Higher
// layers (tool, agent, graph, research) build on these types.
package core
