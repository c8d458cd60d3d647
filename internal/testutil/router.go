package testutil

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/model"
)

// Route answers the requests whose instructions contain its marker.
type Route func(req model.Request) (model.Response, error)

type route struct {
	marker string
	fn     Route
}

// Router scripts a mock model by routing requests on their system prompt.
// Routes are matched in registration order. It is safe for concurrent use.
//
//	m := model.NewMockModel("mock").SetResponder(
//	  testutil.NewRouter().OnJSON("plan generator", plan).Responder(),
//	)
type Router struct {
	mu     sync.Mutex
	routes []route
	hits   map[string]int
}

// NewRouter creates an empty router.
func NewRouter() *Router { return &Router{hits: map[string]int{}} }

// On registers fn for requests whose instructions contain marker (chainable).
func (r *Router) On(marker string, fn Route) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.routes = append(r.routes, route{marker: marker, fn: fn})

	return r
}

// OnJSON answers requests containing marker with v encoded as JSON (chainable).
func (r *Router) OnJSON(marker string, v any) *Router {
	text := MustJSON(v)

	return r.On(marker, func(model.Request) (model.Response, error) {
		return model.TextResponse(text), nil
	})
}

// Hits returns how many requests matched marker.
func (r *Router) Hits(marker string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.hits[marker]
}

// Responder returns the function to install with MockModel.SetResponder.
// Unmatched requests fail.
func (r *Router) Responder() func(req model.Request) (model.Response, error) {
	return func(req model.Request) (model.Response, error) {
		r.mu.Lock()

		var fn Route

		for _, rt := range r.routes {
			if strings.Contains(req.Instructions, rt.marker) {
				fn = rt.fn
				r.hits[rt.marker]++

				break
			}
		}

		r.mu.Unlock()

		if fn == nil {
			return model.Response{}, fmt.Errorf("testutil: no route for instructions %.60q", req.Instructions)
		}

		return fn(req)
	}
}

// JSON returns a final assistant response carrying v as JSON text.
func JSON(v any) model.Response { return model.TextResponse(MustJSON(v)) }

// Call returns a final assistant response requesting one tool call.
func Call(name string, args any) model.Response {
	return model.ToolCallResponse(ToolCall(core.NewID(), name, args))
}
