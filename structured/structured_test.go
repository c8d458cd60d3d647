package structured

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/model"
)

type reflection struct {
	IsSufficient    bool     `json:"is_sufficient"`
	KnowledgeGap    string   `json:"knowledge_gap,omitempty"`
	FollowUpQueries []string `json:"follow_up_queries,omitempty"`
	Confidence      float64  `json:"confidence,omitempty" minimum:"0" maximum:"1"`
	Answer          string   `json:"answer" minLength:"1"`
}

func prompt() []core.Message {
	return []core.Message{core.NewHumanMessage("reflect")}
}

func TestInvoke_Valid(t *testing.T) {
	m := model.NewMockModel("mock").Enqueue(model.TextResponse(
		"```json\n{\"is_sufficient\": true, \"knowledge_gap\": \"\", \"follow_up_queries\": [], \"confidence\": 0.8, \"answer\": \"42\"}\n```",
	))

	out, err := Invoke[reflection](context.Background(), m, prompt(), WithInstructions("be precise"))
	require.NoError(t, err)

	assert.True(t, out.IsSufficient)
	assert.Equal(t, "42", out.Answer)
	assert.InDelta(t, 0.8, out.Confidence, 1e-9)

	req := m.Requests()[0]
	require.NotNil(t, req.ResponseFormat)
	assert.True(t, req.ResponseFormat.JSON)
	assert.Equal(t, "be precise", req.Instructions)
}

func TestInvoke_ViolationWithoutRetry(t *testing.T) {
	m := model.NewMockModel("mock").Enqueue(model.TextResponse(
		`{"is_sufficient": false, "knowledge_gap": "x", "follow_up_queries": ["q"], "confidence": 1.5, "answer": "a"}`,
	))

	_, err := Invoke[reflection](context.Background(), m, prompt())

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "confidence", vErr.Field)
	assert.Equal(t, "maximum", vErr.Constraint)
	assert.Equal(t, 1, m.CallCount())
}

func TestInvoke_RetryCorrects(t *testing.T) {
	m := model.NewMockModel("mock").Enqueue(
		model.TextResponse(`{"is_sufficient": true, "answer": "   "}`),
		model.TextResponse(`{"is_sufficient": true, "answer": "fixed"}`),
	)

	out, err := Invoke[reflection](context.Background(), m, prompt(), WithRetries(1))
	require.NoError(t, err)
	assert.Equal(t, "fixed", out.Answer)

	reqs := m.Requests()
	require.Len(t, reqs, 2)
	require.Len(t, reqs[1].Messages, 3)
	assert.Equal(t, core.RoleHuman, reqs[1].Messages[2].Role)
	assert.Contains(t, reqs[1].Messages[2].Text(), "answer")
}

func TestInvoke_NoJSON(t *testing.T) {
	m := model.NewMockModel("mock").Enqueue(model.TextResponse("I cannot answer that."))

	_, err := Invoke[reflection](context.Background(), m, prompt())

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "json", vErr.Constraint)
}

func TestInvoke_ModelError(t *testing.T) {
	boom := errors.New("unreachable")
	m := model.NewMockModel("mock").EnqueueError(boom)

	_, err := Invoke[reflection](context.Background(), m, prompt(), WithRetries(3))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, m.CallCount())
}

func TestExtractJSON(t *testing.T) {
	obj, err := ExtractJSON(`Sure! {bad} then {"a": {"b": 1}} trailing`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": map[string]any{"b": float64(1)}}, obj)

	_, err = ExtractJSON("none")
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestDecode_TypeMismatch(t *testing.T) {
	_, err := Decode[reflection](`{"is_sufficient": "yes", "answer": "a"}`)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "is_sufficient", vErr.Field)
	assert.Equal(t, "type", vErr.Constraint)
}
