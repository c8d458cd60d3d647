package core

import (
	"context"
	"errors"

	"github.com/hupe1980/researchmesh/logging"
)

// ErrNoState is returned by ToolContext.UpdateState when the dispatching loop
// was configured without working state.
var ErrNoState = errors.New("no working state attached")

// StateAccessor is the working state a tool may read and stage updates into.
// It is satisfied by *state.Store; the agent loop hands tools a private copy
// so staged updates only reach shared state through a stage directive.
type StateAccessor interface {
	Get(name string) (any, bool)
	MergeField(name string, value any) error
}

// ToolContext provides a constrained, auditable surface for tool
// implementations invoked by an agent loop: the call's context and id, the
// owning agent's name, a logger and the loop's working state.
type ToolContext struct {
	ctx        context.Context
	callID     string
	agentName  string
	state      StateAccessor
	updatedKey []string

	*loggerAdapter
}

// ToolContextOptions configures NewToolContext.
type ToolContextOptions struct {
	AgentName string
	State     StateAccessor
	Logger    logging.Logger
}

// NewToolContext constructs a tool context for a single tool call.
func NewToolContext(ctx context.Context, callID string, optFns ...func(o *ToolContextOptions)) *ToolContext {
	opts := ToolContextOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	return &ToolContext{
		ctx:           ctx,
		callID:        callID,
		agentName:     opts.AgentName,
		state:         opts.State,
		loggerAdapter: newLoggerAdapter(opts.Logger),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// CallID returns the tool call id associated with the invocation.
func (tc *ToolContext) CallID() string { return tc.callID }

// AgentName returns the name of the loop that dispatched the call.
func (tc *ToolContext) AgentName() string { return tc.agentName }

// GetState reads a field from the loop's working state.
func (tc *ToolContext) GetState(name string) (any, bool) {
	if tc.state == nil {
		return nil, false
	}

	return tc.state.Get(name)
}

// UpdateState merges value into the named field of the working state using
// the field's merge policy.
func (tc *ToolContext) UpdateState(name string, value any) error {
	if tc.state == nil {
		return ErrNoState
	}

	if err := tc.state.MergeField(name, value); err != nil {
		return err
	}

	tc.updatedKey = append(tc.updatedKey, name)
	tc.LogDebug("tool.state.updated", "field", name, "call_id", tc.callID)

	return nil
}

// UpdatedFields lists the fields updated through this context, in order.
func (tc *ToolContext) UpdatedFields() []string { return tc.updatedKey }
