// Package model defines the provider-agnostic abstractions for interacting
// with language models inside researchmesh.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Normalize tool call representation (ToolDefinition, core.ToolCall)
//   - Support JSON output requests for structured responses
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (OpenAI and compatible endpoints, Anthropic) implement Model in
// sub-packages so higher layers (agent loops, structured calls) remain
// decoupled from vendor SDKs.
package model
