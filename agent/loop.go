package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/logging"
	"github.com/hupe1980/researchmesh/model"
	"github.com/hupe1980/researchmesh/state"
	"github.com/hupe1980/researchmesh/tool"
)

var (
	// ErrEmptyHistory is returned when the seed history has no system or human message.
	ErrEmptyHistory = errors.New("history must contain a system or human message")
	// ErrModel wraps failures of the underlying model call.
	ErrModel = errors.New("model call failed")
)

// StopReason explains why a run ended.
type StopReason string

const (
	// StopDirectAnswer means the model answered without calling tools.
	StopDirectAnswer StopReason = "direct_answer"
	// StopCompleted means the completion tool was called.
	StopCompleted StopReason = "completed"
	// StopMaxIterations means the iteration cap forced the stop.
	StopMaxIterations StopReason = "max_iterations"
	// StopCancelled means the context was cancelled or timed out.
	StopCancelled StopReason = "cancelled"
)

// DefaultMaxIterations bounds a loop configured without MaxIterations.
const DefaultMaxIterations = 10

// Options configures a Loop.
type Options struct {
	// Name identifies the loop in logs and tool contexts.
	Name string
	// MaxIterations caps the number of model rounds.
	MaxIterations int
	// ToolBudgets caps executions per tool name. Tools not listed are unlimited.
	ToolBudgets map[string]int
	// CompletionTool names the tool whose call ends the loop.
	CompletionTool string
	// Instructions is rendered into the system prompt of every request.
	Instructions Instruction
	// Logger receives loop and tool logs.
	Logger logging.Logger
	// Store is the working state tools read and stage updates into. Callers
	// pass a clone when updates must not reach shared state directly.
	Store *state.Store
	// BudgetNotice formats the synthetic tool result sent when a call is
	// rejected by its budget.
	BudgetNotice func(toolName string, limit int, completionTool string) string
	// Processors run after the built-in instruction and tool processors.
	Processors []RequestProcessor
}

// DefaultBudgetNotice is the synthetic result text for an over-budget call.
func DefaultBudgetNotice(toolName string, limit int, completionTool string) string {
	return fmt.Sprintf("max %s limit reached (%d), call %s immediately", toolName, limit, completionTool)
}

// Result is the outcome of a loop run.
type Result struct {
	// Summary is the completion summary, or the direct answer.
	Summary string
	// Content is the last non-empty assistant text.
	Content string
	// StopReason explains why the run ended.
	StopReason StopReason
	// Iterations counts model rounds.
	Iterations int
	// ToolCalls counts executed calls per tool name.
	ToolCalls map[string]int
	// Skipped lists the unknown tool names the model requested, in order.
	Skipped []string
	// History is the seed history plus every message appended by the run.
	History []core.Message
}

// Loop is a bounded tool-calling loop. A Loop holds no per-run state and may
// be run repeatedly; concurrent runs must not share a working Store.
type Loop struct {
	model      model.Model
	registry   *tool.Registry
	processors []RequestProcessor
	opts       Options
}

// New creates a loop over m exposing the tools of registry.
func New(m model.Model, registry *tool.Registry, optFns ...func(o *Options)) *Loop {
	opts := Options{
		Name:           "agent",
		MaxIterations:  DefaultMaxIterations,
		CompletionTool: tool.DefaultCompletionToolName,
		Logger:         logging.NoOpLogger{},
		BudgetNotice:   DefaultBudgetNotice,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if opts.BudgetNotice == nil {
		opts.BudgetNotice = DefaultBudgetNotice
	}

	if registry == nil {
		registry = tool.MustRegistry()
	}

	processors := []RequestProcessor{
		NewInstructionsProcessor(opts.Instructions),
		NewToolsProcessor(registry),
	}
	processors = append(processors, opts.Processors...)

	return &Loop{model: m, registry: registry, processors: processors, opts: opts}
}

// Name returns the configured loop name.
func (l *Loop) Name() string { return l.opts.Name }

// Run drives the model until it answers directly, calls the completion tool,
// exhausts MaxIterations or ctx is done. A cancelled run returns the partial
// result together with the context error.
func (l *Loop) Run(ctx context.Context, history []core.Message) (*Result, error) {
	if !hasPrompt(history) {
		return nil, ErrEmptyHistory
	}

	res := &Result{
		ToolCalls: map[string]int{},
		History:   append([]core.Message(nil), history...),
	}

	budget := core.NewBudget(l.opts.ToolBudgets)

	var accessor core.StateAccessor
	if l.opts.Store != nil {
		accessor = l.opts.Store
	}

	exec := &executor{
		agentName: l.opts.Name,
		store:     accessor,
		logger:    l.opts.Logger,
	}

	l.opts.Logger.Debug("agent.loop.start", "agent", l.opts.Name, "max_iterations", l.opts.MaxIterations)

	for res.Iterations < l.opts.MaxIterations {
		if err := ctx.Err(); err != nil {
			return l.cancelled(res, err)
		}

		res.Iterations++
		l.opts.Logger.Debug("agent.loop.iteration", "agent", l.opts.Name, "iteration", res.Iterations)

		req, err := l.buildRequest(ctx, res.History)
		if err != nil {
			return nil, err
		}

		resp, err := l.generate(ctx, req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return l.cancelled(res, ctxErr)
			}

			return nil, fmt.Errorf("%w: %w", ErrModel, err)
		}

		msg := resp.Message
		msg.Role = core.RoleAssistant
		res.History = append(res.History, msg)

		if text := msg.Text(); text != "" {
			res.Content = text
		}

		calls := msg.ToolCalls()
		if len(calls) == 0 {
			res.Summary = res.Content
			res.StopReason = StopDirectAnswer

			return l.finish(res), nil
		}

		if l.runBatch(ctx, exec, budget, calls, res) {
			res.StopReason = StopCompleted
			return l.finish(res), nil
		}
	}

	res.StopReason = StopMaxIterations
	l.opts.Logger.Warn("agent.loop.max_iterations", "agent", l.opts.Name, "iterations", res.Iterations)

	return l.finish(res), nil
}

// runBatch processes the calls of one assistant message in emitted order and
// reports whether the completion tool was dispatched. A failed completion call
// still ends the loop, leaving the summary empty.
func (l *Loop) runBatch(ctx context.Context, exec *executor, budget *core.Budget, calls []core.ToolCall, res *Result) bool {
	completed := false

	for _, call := range calls {
		impl, err := l.registry.Lookup(call.Name)
		if err != nil {
			l.opts.Logger.Warn("agent.tool.unknown", "agent", l.opts.Name, "tool", call.Name, "call_id", call.ID)
			res.Skipped = append(res.Skipped, call.Name)

			continue
		}

		if err := budget.Consume(call.Name); err != nil {
			limit, _ := budget.Limit(call.Name)
			l.opts.Logger.Warn("agent.tool.budget_exceeded", "agent", l.opts.Name, "tool", call.Name, "limit", limit)
			res.History = append(res.History, core.NewToolResultMessage(core.ToolResult{
				ID:       call.ID,
				Name:     call.Name,
				Response: l.opts.BudgetNotice(call.Name, limit, l.opts.CompletionTool),
			}))

			continue
		}

		result, err := exec.execute(ctx, impl, call)
		res.ToolCalls[call.Name]++

		tr := core.ToolResult{ID: call.ID, Name: call.Name, Response: result}
		if err != nil {
			tr.Response = nil
			tr.Error = err.Error()
		}

		res.History = append(res.History, core.NewToolResultMessage(tr))

		if call.Name == l.opts.CompletionTool {
			completed = true
			if err == nil {
				if summary := tool.SummaryFrom(result); summary != "" {
					res.Summary = summary
				}
			}
		}
	}

	return completed
}

func (l *Loop) buildRequest(ctx context.Context, history []core.Message) (model.Request, error) {
	req := model.Request{Messages: history}

	var view state.View = emptyView{}
	if l.opts.Store != nil {
		view = l.opts.Store
	}

	for _, p := range l.processors {
		if err := p.ProcessRequest(ctx, &req, view); err != nil {
			return model.Request{}, fmt.Errorf("processor %s: %w", p.Name(), err)
		}
	}

	return req, nil
}

// modelCallLogger is implemented by logging.StructuredLogger.
type modelCallLogger interface {
	LogModelCall(model string, tokens int, dur time.Duration, err error)
}

func (l *Loop) generate(ctx context.Context, req model.Request) (model.Response, error) {
	start := time.Now()
	resp, err := model.Collect(ctx, l.model, req)

	if ml, ok := l.opts.Logger.(modelCallLogger); ok {
		tokens := 0
		if resp.Usage != nil {
			tokens = resp.Usage.TotalTokens
		}
		ml.LogModelCall(l.model.Info().Name, tokens, time.Since(start), err)
	}

	return resp, err
}

func (l *Loop) cancelled(res *Result, err error) (*Result, error) {
	res.StopReason = StopCancelled
	l.opts.Logger.Warn("agent.loop.cancelled", "agent", l.opts.Name, "iterations", res.Iterations, "error", err.Error())

	return res, err
}

func (l *Loop) finish(res *Result) *Result {
	l.opts.Logger.Info(
		"agent.loop.finished",
		"agent", l.opts.Name,
		"stop_reason", string(res.StopReason),
		"iterations", res.Iterations,
		"skipped", len(res.Skipped),
	)

	return res
}

func hasPrompt(history []core.Message) bool {
	for _, m := range history {
		if m.Role == core.RoleSystem || m.Role == core.RoleHuman {
			return true
		}
	}

	return false
}
