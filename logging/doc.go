// Package logging provides a minimal logging interface and adapters for researchmesh.
//
// The Logger interface defines the leveled methods (Debug, Info, Warn, Error)
// that loops, graphs and tools use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter and StructuredLogger built on log/slog
//   - ZapAdapter wrapping go.uber.org/zap
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	loop := agent.New(m, registry, func(o *agent.Options) { o.Logger = logger })
//
// Messages are dotted event keys ("agent.loop.iteration") followed by
// alternating key/value pairs.
package logging
