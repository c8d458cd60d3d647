package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/logging"
	"github.com/hupe1980/researchmesh/tool"
)

// toolCallLogger is implemented by logging.StructuredLogger.
type toolCallLogger interface {
	LogToolCall(tool string, dur time.Duration, err error)
}

// executor runs single tool calls with panic safety. Calls of one batch are
// executed sequentially in emitted order by the loop.
type executor struct {
	agentName string
	store     core.StateAccessor
	logger    logging.Logger
}

// execute runs call and always returns a result tied to the call id.
func (e *executor) execute(ctx context.Context, impl tool.Tool, call core.ToolCall) (any, error) {
	toolCtx := core.NewToolContext(ctx, call.ID, func(o *core.ToolContextOptions) {
		o.AgentName = e.agentName
		o.State = e.store
		o.Logger = e.logger
	})

	start := time.Now()

	var (
		result any
		err    error
	)

	func() { // panic safety
		defer func() {
			if r := recover(); r != nil {
				err = &tool.ToolError{Tool: call.Name, Message: fmt.Sprint(r), Code: tool.CodePanic, Details: panicError(r)}
				e.logger.Error("agent.function.panic", "agent", e.agentName, "function", call.Name, "recover", r)
			}
		}()
		result, err = callTool(impl, toolCtx, call)
	}()

	dur := time.Since(start)

	if l, ok := e.logger.(toolCallLogger); ok {
		l.LogToolCall(call.Name, dur, err)
	} else {
		e.logger.Info(
			"agent.function.executed",
			"agent", e.agentName,
			"function", call.Name,
			"duration_ms", dur.Milliseconds(),
			"error", err != nil,
		)
	}

	return result, err
}

// callTool decodes the raw JSON arguments and invokes the tool.
func callTool(impl tool.Tool, toolCtx *core.ToolContext, call core.ToolCall) (any, error) {
	args := map[string]any{}

	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return nil, &tool.ToolError{
				Tool:    call.Name,
				Message: fmt.Sprintf("failed to unmarshal args: %v", err),
				Code:    tool.CodeArguments,
				Details: err,
			}
		}
		if args == nil { // "null"
			args = map[string]any{}
		}
	}

	return impl.Call(toolCtx, args)
}

// panicError converts a recovered panic value to an error carrying the stack.
func panicError(r any) error { return &panicErr{val: r, stack: debug.Stack()} }

type panicErr struct {
	val   any
	stack []byte
}

func (p *panicErr) Error() string { return fmt.Sprintf("panic recovered: %v", p.val) }

// Stack returns the goroutine stack captured at recovery.
func (p *panicErr) Stack() []byte { return p.stack }
