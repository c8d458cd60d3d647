package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/state"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testSchema() *state.Schema {
	return state.MustSchema(
		state.MessagesField("messages"),
		state.ReplaceField("count", 0),
		state.AppendField("trail", func() any { return []string{} }),
	)
}

func noop(target string) Stage {
	return func(context.Context, state.View) (Directive, error) {
		return Goto(target, nil), nil
	}
}

func TestCompile_RejectsUndeclaredEnd(t *testing.T) {
	b := New(testSchema())
	b.AddStage("a", noop("b"), "b")
	b.SetStart("a")

	_, err := b.Compile()
	require.ErrorIs(t, err, ErrInvalidGraph)
	assert.Contains(t, err.Error(), "unregistered stage b")
}

func TestCompile_Validation(t *testing.T) {
	cases := map[string]func(b *Builder){
		"no start":      func(b *Builder) { b.AddStage("a", noop(End), End) },
		"unknown start": func(b *Builder) { b.AddStage("a", noop(End), End).SetStart("x") },
		"no ends":       func(b *Builder) { b.AddStage("a", noop(End)).SetStart("a") },
		"reserved":      func(b *Builder) { b.AddStage(End, noop(End), End).SetStart(End) },
		"duplicate": func(b *Builder) {
			b.AddStage("a", noop(End), End).AddStage("a", noop(End), End).SetStart("a")
		},
		"nil stage": func(b *Builder) { b.AddStage("a", nil, End).SetStart("a") },
	}

	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			b := New(testSchema())
			build(b)

			_, err := b.Compile()
			if !errors.Is(err, ErrInvalidGraph) {
				t.Fatalf("expected ErrInvalidGraph, got %v", err)
			}
		})
	}
}

func TestInvoke_LoopUntilStop(t *testing.T) {
	b := New(testSchema())
	b.AddStage("start", func(_ context.Context, _ state.View) (Directive, error) {
		return Goto("work", state.Update{"trail": "start"}), nil
	}, "work")
	b.AddStage("work", func(_ context.Context, v state.View) (Directive, error) {
		n := state.Value[int](v, "count") + 1
		update := state.Update{"count": n, "trail": "work"}
		if n < 3 {
			return Goto("work", update), nil
		}
		update["messages"] = []core.Message{core.NewAssistantMessage("done")}
		return Stop(update), nil
	}, "work", End)
	b.SetStart("start")

	g, err := b.Compile()
	require.NoError(t, err)

	final, err := g.Invoke(context.Background(), state.Update{
		"messages": []core.Message{core.NewHumanMessage("go")},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, state.Value[int](final, "count"))
	assert.Equal(t, []string{"start", "work", "work", "work"}, state.Value[[]string](final, "trail"))

	msgs := state.Value[[]core.Message](final, "messages")
	require.Len(t, msgs, 2)
	assert.Equal(t, "done", core.LastAssistantText(msgs))
}

func TestInvoke_UndeclaredTransition(t *testing.T) {
	b := New(testSchema())
	b.AddStage("a", func(context.Context, state.View) (Directive, error) {
		return Goto("b", state.Update{"count": 7}), nil
	}, End)
	b.AddStage("b", noop(End), End)
	b.SetStart("a")

	g, err := b.Compile()
	require.NoError(t, err)

	final, err := g.Invoke(context.Background(), nil)
	require.ErrorIs(t, err, ErrUndeclaredTransition)
	// The update of a misrouted directive is never merged.
	assert.Equal(t, 0, state.Value[int](final, "count"))
}

func TestInvoke_StepLimit(t *testing.T) {
	b := New(testSchema(), func(o *Options) { o.MaxSteps = 5 })
	b.AddStage("spin", noop("spin"), "spin")
	b.SetStart("spin")

	g, err := b.Compile()
	require.NoError(t, err)

	_, err = g.Invoke(context.Background(), nil)
	assert.ErrorIs(t, err, ErrStepLimit)
}

func TestInvoke_StageErrorAndCallbacks(t *testing.T) {
	var events []string

	cm := NewCallbackManager()
	for _, typ := range []CallbackType{CallbackBeforeStage, CallbackAfterStage, CallbackOnError, CallbackOnStateChange} {
		cm.RegisterCallback(NewFunctionCallback(typ, func(_ context.Context, c *CallbackContext) error {
			events = append(events, string(typ)+":"+c.Stage)
			return nil
		}))
	}

	boom := errors.New("boom")

	b := New(testSchema(), func(o *Options) { o.Callbacks = cm })
	b.AddStage("ok", func(context.Context, state.View) (Directive, error) {
		return Goto("fail", state.Update{"count": 1}), nil
	}, "fail")
	b.AddStage("fail", func(context.Context, state.View) (Directive, error) {
		return Directive{}, boom
	}, End)
	b.SetStart("ok")

	g, err := b.Compile()
	require.NoError(t, err)

	_, err = g.Invoke(context.Background(), nil)
	require.ErrorIs(t, err, boom)

	assert.Equal(t, []string{
		"before_stage:ok",
		"on_state_change:ok",
		"after_stage:ok",
		"before_stage:fail",
		"on_error:fail",
	}, events)
}

func TestInvoke_StateValidationRejects(t *testing.T) {
	cm := NewCallbackManager().RegisterCallback(NewStateValidationCallback(func(u state.Update) error {
		if n, ok := u["count"].(int); ok && n < 0 {
			return errors.New("count must not be negative")
		}
		return nil
	}))

	b := New(testSchema(), func(o *Options) { o.Callbacks = cm })
	b.AddStage("a", func(context.Context, state.View) (Directive, error) {
		return Stop(state.Update{"count": -1}), nil
	}, End)
	b.SetStart("a")

	g, err := b.Compile()
	require.NoError(t, err)

	final, err := g.Invoke(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, 0, state.Value[int](final, "count"))
}

func TestInvoke_SeedUnknownField(t *testing.T) {
	b := New(testSchema())
	b.AddStage("a", noop(End), End).SetStart("a")

	g, err := b.Compile()
	require.NoError(t, err)

	_, err = g.Invoke(context.Background(), state.Update{"nope": 1})
	assert.ErrorIs(t, err, state.ErrUnknownField)
}

func TestInvoke_Cancelled(t *testing.T) {
	b := New(testSchema())
	b.AddStage("a", noop(End), End).SetStart("a")

	g, err := b.Compile()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = g.Invoke(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGraph_Introspection(t *testing.T) {
	b := New(testSchema(), func(o *Options) { o.Name = "demo" })
	b.AddStage("a", noop("b"), "b").AddStage("b", noop(End), End).SetStart("a")

	g, err := b.Compile()
	require.NoError(t, err)

	assert.Equal(t, "demo", g.Name())
	assert.Equal(t, []string{"a", "b"}, g.Stages())
	assert.Equal(t, []string{End}, g.Ends("b"))
	assert.Nil(t, g.Ends("x"))
}
