// Package state implements the per-invocation state store used by workflow
// graphs. A Schema declares the fields a graph works with; each field carries
// a default value and a merge policy. Stages never write a Store directly:
// they return partial Updates which the graph driver merges field by field.
//
// Built-in policies:
//
//   - Replace: the incoming value wins outright (briefs, plans, counters)
//   - Append: incoming slice elements are concatenated in arrival order
//   - Messages: appends message histories, but an Override replaces wholesale
package state
