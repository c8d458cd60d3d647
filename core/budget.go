package core

import (
	"errors"
	"fmt"
	"maps"
	"sync"
)

// ErrBudgetExceeded is returned when a capped name has no remaining calls.
var ErrBudgetExceeded = errors.New("budget exceeded")

// Budget enforces per-name call caps (e.g. per tool). Names without a
// declared limit are unlimited. Consume is evaluated before work is
// dispatched, so a rejected call never runs.
type Budget struct {
	limits   map[string]int
	consumed map[string]int
	mu       sync.Mutex
}

// NewBudget creates a budget from name -> max calls. Non-positive limits are
// treated as "no calls allowed".
func NewBudget(limits map[string]int) *Budget {
	l := make(map[string]int, len(limits))
	maps.Copy(l, limits)

	return &Budget{limits: l, consumed: map[string]int{}}
}

// Consume records one call for name. It returns ErrBudgetExceeded (and does
// not count the call) when the cap is already reached.
func (b *Budget) Consume(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	limit, capped := b.limits[name]
	if capped && b.consumed[name] >= limit {
		return fmt.Errorf("%w: %s (max %d)", ErrBudgetExceeded, name, limit)
	}

	b.consumed[name]++

	return nil
}

// Count returns how many calls were recorded for name.
func (b *Budget) Count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.consumed[name]
}

// Limit returns the declared cap for name and whether one exists.
func (b *Budget) Limit(name string) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	l, ok := b.limits[name]

	return l, ok
}

// Remaining returns how many calls are left for name, or -1 if unlimited.
func (b *Budget) Remaining(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	limit, capped := b.limits[name]
	if !capped {
		return -1 // unlimited
	}

	if r := limit - b.consumed[name]; r > 0 {
		return r
	}

	return 0
}

// Snapshot returns a copy of the consumed counters.
func (b *Budget) Snapshot() map[string]int {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]int, len(b.consumed))
	maps.Copy(out, b.consumed)

	return out
}
