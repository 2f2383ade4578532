package optimizer

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a referenced recommendation is absent from
// the coordinator's current list.
var ErrNotFound = errors.New("recommendation not found")

// Coordinator owns one session's view of the recommendation list, its
// selection set, and all lifecycle transitions. It is not goroutine-safe:
// the engine assumes a single logical writer per collection, and hosts
// embedding it in a concurrent server must serialize access (one
// coordinator per session, or an external lock around batch operations).
type Coordinator struct {
	registry  *ExecutorRegistry
	items     []*Recommendation
	index     map[string]*Recommendation
	selection map[string]struct{}
}

// NewCoordinator creates a coordinator dispatching through the given
// executor registry.
func NewCoordinator(registry *ExecutorRegistry) *Coordinator {
	return &Coordinator{
		registry:  registry,
		index:     make(map[string]*Recommendation),
		selection: make(map[string]struct{}),
	}
}

// SetRecommendations replaces the underlying list and prunes the selection
// down to IDs that are still pending. Recommendations are never created or
// deleted here; the list comes from an external source.
func (c *Coordinator) SetRecommendations(items []*Recommendation) {
	c.items = items
	c.index = make(map[string]*Recommendation, len(items))
	for _, rec := range items {
		c.index[rec.ID] = rec
	}
	c.pruneSelection()
}

// Recommendations returns the current list in source order.
func (c *Coordinator) Recommendations() []*Recommendation {
	return c.items
}

// Get looks up a recommendation by ID.
func (c *Coordinator) Get(id string) (*Recommendation, bool) {
	rec, ok := c.index[id]
	return rec, ok
}

// Execute runs the external action for a pending or snoozed recommendation
// and marks it executed on success. A snoozed item may be executed directly,
// bypassing snooze expiry. On executor failure the status is left unchanged
// and the error is returned, never swallowed.
func (c *Coordinator) Execute(ctx context.Context, id string) error {
	rec, ok := c.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if rec.Status != StatusPending && rec.Status != StatusSnoozed {
		return fmt.Errorf("recommendation %s is %s and cannot be executed", id, rec.Status)
	}

	exec, err := c.registry.Lookup(rec.ActionModule)
	if err != nil {
		return err
	}
	if err := exec.Execute(ctx, rec); err != nil {
		return fmt.Errorf("execute %s: %w", id, err)
	}

	rec.Status = StatusExecuted
	rec.SnoozeUntil = nil
	c.pruneSelection()
	return nil
}

// Ignore dismisses a pending recommendation. The dismissal is reported to
// the action executor so the backing platform stays in sync; on failure the
// status is left pending and the error surfaces.
func (c *Coordinator) Ignore(ctx context.Context, id string) error {
	rec, ok := c.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if rec.Status != StatusPending {
		return fmt.Errorf("recommendation %s is %s and cannot be ignored", id, rec.Status)
	}

	exec, err := c.registry.Lookup(rec.ActionModule)
	if err != nil {
		return err
	}
	if err := exec.Ignore(ctx, rec); err != nil {
		return fmt.Errorf("ignore %s: %w", id, err)
	}

	rec.Status = StatusIgnored
	c.pruneSelection()
	return nil
}

// Snooze defers a pending recommendation until now + the requested offset.
// Unknown items, non-pending items, and durations outside the catalog are
// silent no-ops: Snooze reports whether the deferral was applied.
func (c *Coordinator) Snooze(id string, d SnoozeDuration, now time.Time) bool {
	rec, ok := c.index[id]
	if !ok || rec.Status != StatusPending {
		return false
	}
	offset, ok := snoozeOffset(d)
	if !ok {
		return false
	}

	until := now.Add(offset)
	rec.Status = StatusSnoozed
	rec.SnoozeUntil = &until
	c.pruneSelection()
	return true
}
