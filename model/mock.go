package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/researchmesh/core"
)

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Queued responses are returned in order; once the queue is exhausted a
// responder function (if set) is consulted, otherwise it echoes the last
// message text. Every request is recorded.
type MockModel struct {
	info      Info
	mu        sync.Mutex
	queue     []mockStep
	responder func(req Request) (Response, error)
	requests  []Request
}

type mockStep struct {
	resp Response
	err  error
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      "mock",
			SupportsTools: true,
		},
	}
}

// Enqueue appends canned responses.
func (m *MockModel) Enqueue(resps ...Response) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range resps {
		m.queue = append(m.queue, mockStep{resp: r})
	}

	return m
}

// EnqueueError appends a failing step.
func (m *MockModel) EnqueueError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queue = append(m.queue, mockStep{err: err})

	return m
}

// SetResponder installs a function answering requests once the queue is empty.
func (m *MockModel) SetResponder(fn func(req Request) (Response, error)) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.responder = fn

	return m
}

// Requests returns a copy of all requests received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Request(nil), m.requests...)
}

// CallCount returns how many times Generate was called.
func (m *MockModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.requests)
}

func (m *MockModel) next(req Request) (Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)

	if len(m.queue) > 0 {
		step := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()

		return step.resp, step.err
	}

	responder := m.responder
	m.mu.Unlock()

	if responder != nil {
		return responder(req)
	}

	if len(req.Messages) == 0 {
		return Response{}, fmt.Errorf("no messages provided")
	}

	last := req.Messages[len(req.Messages)-1]

	return TextResponse(fmt.Sprintf("Mock response to: %s", last.Text())), nil
}

// Generate implements Model; emits optional streaming chunks then the final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		resp, err := m.next(req)
		if err != nil {
			errCh <- err
			return
		}

		if req.Stream {
			if text := resp.Message.Text(); text != "" {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Message: core.NewAssistantMessage(text)}:
				}
			}
		}

		resp.Partial = false

		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- resp:
		}
	}()

	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }

// TextResponse builds a final assistant response without tool calls.
func TextResponse(text string) Response {
	return Response{Message: core.NewAssistantMessage(text), FinishReason: "stop"}
}

// ToolCallResponse builds a final assistant response requesting tool calls.
func ToolCallResponse(calls ...core.ToolCall) Response {
	return Response{Message: core.NewAssistantMessage("", calls...), FinishReason: "tool_calls"}
}
