package research

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/researchmesh/internal/util"
)

var (
	// ErrNoPlan is reported when research is conducted before planning.
	ErrNoPlan = errors.New("no research plan")
	// ErrInvalidPlan is returned by NewPlan for steps violating the plan constraints.
	ErrInvalidPlan = errors.New("invalid research plan")
	// ErrPlanExhausted is returned by Advance once every step was researched.
	ErrPlanExhausted = errors.New("all research steps completed")
)

// Step is one executable unit of a research plan.
type Step struct {
	Title           string   `json:"title" minLength:"1" description:"Step name or theme"`
	Objective       string   `json:"objective" minLength:"1" description:"Concrete goal of the step"`
	Actions         []string `json:"actions" minItems:"2" maxItems:"6" description:"Atomic, executable actions reaching the objective"`
	Deliverables    []string `json:"deliverables" minItems:"1" description:"Expected outputs of the step"`
	SuccessCriteria []string `json:"successCriteria" minItems:"1" description:"Criteria deciding whether the step is done"`
}

// planOutput is the structured output requested from the planner.
type planOutput struct {
	PlanText string `json:"planText" minLength:"1" description:"Readable, detailed and executable research plan"`
	Steps    []Step `json:"steps" minItems:"3" maxItems:"7" description:"Ordered research steps"`
}

// Plan is an ordered list of steps with a cursor on the next step to research.
// The cursor only moves forward and never passes len(Steps).
type Plan struct {
	PlanText         string `json:"planText"`
	Steps            []Step `json:"steps"`
	CurrentStepIndex int    `json:"currentStepIndex"`
}

// NewPlan validates steps and returns a plan with its cursor at 0.
func NewPlan(text string, steps []Step) (*Plan, error) {
	steps = normalizeSteps(steps)
	out := planOutput{PlanText: text, Steps: steps}

	if err := util.ValidateParameters(toMap(out), util.CreateSchema(out)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}

	return &Plan{PlanText: text, Steps: steps}, nil
}

// normalizeSteps copies steps, turning nil lists into empty ones so they are
// checked against their minimum sizes.
func normalizeSteps(steps []Step) []Step {
	out := make([]Step, len(steps))

	for i, s := range steps {
		if s.Actions == nil {
			s.Actions = []string{}
		}
		if s.Deliverables == nil {
			s.Deliverables = []string{}
		}
		if s.SuccessCriteria == nil {
			s.SuccessCriteria = []string{}
		}
		out[i] = s
	}

	return out
}

// Current returns the step under the cursor. ok is false once exhausted.
func (p *Plan) Current() (Step, bool) {
	if p.Exhausted() {
		return Step{}, false
	}

	return p.Steps[p.CurrentStepIndex], true
}

// Pending returns up to n steps starting at the cursor.
func (p *Plan) Pending(n int) []Step {
	if p.Exhausted() || n <= 0 {
		return nil
	}

	end := min(p.CurrentStepIndex+n, len(p.Steps))

	return p.Steps[p.CurrentStepIndex:end]
}

// Exhausted reports whether every step was researched.
func (p *Plan) Exhausted() bool {
	return p == nil || p.CurrentStepIndex >= len(p.Steps)
}

// Advance moves the cursor to the next step.
func (p *Plan) Advance() error {
	return p.AdvanceBy(1)
}

// AdvanceBy moves the cursor n steps forward, stopping at len(Steps).
func (p *Plan) AdvanceBy(n int) error {
	if p.Exhausted() {
		return ErrPlanExhausted
	}

	if n > 0 {
		p.CurrentStepIndex = min(p.CurrentStepIndex+n, len(p.Steps))
	}

	return nil
}

// Clone returns a copy whose cursor can move independently.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}

	cp := *p
	cp.Steps = append([]Step(nil), p.Steps...)

	return &cp
}

// Task renders step index as a self-contained research task.
func (p *Plan) Task(index int) string {
	s := p.Steps[index]

	var b strings.Builder

	fmt.Fprintf(&b, "Research step %d: %s\n\n", index+1, s.Title)
	fmt.Fprintf(&b, "Objective: %s\n\n", s.Objective)
	writeList(&b, "Actions", s.Actions)
	writeList(&b, "Deliverables", s.Deliverables)
	writeList(&b, "Success criteria", s.SuccessCriteria)

	return strings.TrimSpace(b.String())
}

func writeList(b *strings.Builder, title string, items []string) {
	fmt.Fprintf(b, "%s:\n", title)

	for i, item := range items {
		fmt.Fprintf(b, "%d. %s\n", i+1, item)
	}

	b.WriteString("\n")
}
