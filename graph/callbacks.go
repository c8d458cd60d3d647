package graph

import (
	"context"

	"github.com/hupe1980/researchmesh/logging"
	"github.com/hupe1980/researchmesh/state"
)

// CallbackType defines the lifecycle points of a walk where callbacks run.
type CallbackType string

const (
	// CallbackBeforeStage is triggered before a stage function runs.
	CallbackBeforeStage CallbackType = "before_stage"

	// CallbackAfterStage is triggered after a stage's update was merged.
	CallbackAfterStage CallbackType = "after_stage"

	// CallbackOnError is triggered when a stage fails, routes to an
	// undeclared target or its update cannot be merged.
	CallbackOnError CallbackType = "on_error"

	// CallbackOnStateChange is triggered before a non-empty update is merged.
	// Returning an error rejects the update and aborts the walk.
	CallbackOnStateChange CallbackType = "on_state_change"
)

// CallbackContext describes the walk position a callback runs at.
type CallbackContext struct {
	// Graph is the graph name.
	Graph string
	// Stage is the stage being executed.
	Stage string
	// Next is the directive target, once known.
	Next string
	// Step counts executed stages, starting at 0.
	Step int
	// View reads the current state.
	View state.View
	// Update is the pending update (on_state_change and after_stage).
	Update state.Update
	// Err is the stage failure (on_error only).
	Err error
}

// Callback is a lifecycle hook. Callbacks run synchronously; an error
// terminates the walk.
type Callback interface {
	Type() CallbackType
	Execute(ctx context.Context, callbackCtx *CallbackContext) error
}

// FunctionCallback wraps a function as a callback implementation.
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, callbackCtx *CallbackContext) error
}

// NewFunctionCallback creates a new function-based callback.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, callbackCtx *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{
		callbackType: callbackType,
		fn:           fn,
	}
}

// Type returns the callback type this function handles.
func (c *FunctionCallback) Type() CallbackType {
	return c.callbackType
}

// Execute calls the wrapped function with the provided context.
func (c *FunctionCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	return c.fn(ctx, callbackCtx)
}

// CallbackManager holds callbacks per type and runs them in registration
// order. Registration is not synchronized; register before invoking.
type CallbackManager struct {
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates an empty callback manager.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{
		callbacks: make(map[CallbackType][]Callback),
	}
}

// RegisterCallback adds a callback for its type.
func (cm *CallbackManager) RegisterCallback(callback Callback) *CallbackManager {
	callbackType := callback.Type()
	cm.callbacks[callbackType] = append(cm.callbacks[callbackType], callback)

	return cm
}

// ExecuteCallbacks runs the callbacks of callbackType, stopping at the first error.
func (cm *CallbackManager) ExecuteCallbacks(
	ctx context.Context,
	callbackType CallbackType,
	callbackCtx *CallbackContext,
) error {
	for _, callback := range cm.callbacks[callbackType] {
		if err := callback.Execute(ctx, callbackCtx); err != nil {
			return err
		}
	}

	return nil
}

// LoggingCallback logs walk events to a logging.Logger.
type LoggingCallback struct {
	callbackType CallbackType
	logger       logging.Logger
}

// NewLoggingCallback creates a new logging callback.
func NewLoggingCallback(callbackType CallbackType, logger logging.Logger) *LoggingCallback {
	return &LoggingCallback{
		callbackType: callbackType,
		logger:       logger,
	}
}

// Type returns the callback type this logger handles.
func (c *LoggingCallback) Type() CallbackType {
	return c.callbackType
}

// Execute logs the event.
func (c *LoggingCallback) Execute(_ context.Context, callbackCtx *CallbackContext) error {
	if c.logger == nil {
		return nil
	}

	args := []any{"graph", callbackCtx.Graph, "stage", callbackCtx.Stage, "step", callbackCtx.Step}
	if callbackCtx.Next != "" {
		args = append(args, "next", callbackCtx.Next)
	}
	if callbackCtx.Err != nil {
		args = append(args, "error", callbackCtx.Err.Error())
	}

	c.logger.Debug("graph.callback."+string(c.callbackType), args...)

	return nil
}

// StateValidationCallback vets updates before they are merged.
type StateValidationCallback struct {
	validator func(update state.Update) error
}

// NewStateValidationCallback creates a new state validation callback.
func NewStateValidationCallback(validator func(update state.Update) error) *StateValidationCallback {
	return &StateValidationCallback{
		validator: validator,
	}
}

// Type returns the callback type (always CallbackOnStateChange).
func (c *StateValidationCallback) Type() CallbackType {
	return CallbackOnStateChange
}

// Execute validates the pending update.
func (c *StateValidationCallback) Execute(_ context.Context, callbackCtx *CallbackContext) error {
	if c.validator != nil && callbackCtx.Update != nil {
		return c.validator(callbackCtx.Update)
	}

	return nil
}
