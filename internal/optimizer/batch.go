package optimizer

import (
	"context"
	"log"
)

// ProgressFunc reports batch progress. It fires with (current, total) before
// each item is attempted, so a caller can show "item i of n" as it starts.
type ProgressFunc func(current, total int)

// BatchFailure records one item that failed during a batch run.
type BatchFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BatchResult summarizes a batch run.
type BatchResult struct {
	Success  int            `json:"success"`
	Failed   int            `json:"failed"`
	Failures []BatchFailure `json:"failures,omitempty"`
}

// ToggleSelection flips an ID's membership in the selection set. Anything
// that is absent or not pending is a silent no-op, keeping the selection a
// strict subset of pending IDs.
func (c *Coordinator) ToggleSelection(id string) {
	rec, ok := c.index[id]
	if !ok || rec.Status != StatusPending {
		return
	}
	if _, selected := c.selection[id]; selected {
		delete(c.selection, id)
	} else {
		c.selection[id] = struct{}{}
	}
}

// SelectAllPending selects every currently pending recommendation.
func (c *Coordinator) SelectAllPending() {
	for _, rec := range c.items {
		if rec.Status == StatusPending {
			c.selection[rec.ID] = struct{}{}
		}
	}
}

// ClearSelection empties the selection set.
func (c *Coordinator) ClearSelection() {
	if len(c.selection) > 0 {
		c.selection = make(map[string]struct{})
	}
}

// ToggleAllPending is the tri-state "select all" toggle: a no-op with no
// pending items, clear when everything pending is already selected,
// select-all otherwise.
func (c *Coordinator) ToggleAllPending() {
	pending := 0
	for _, rec := range c.items {
		if rec.Status == StatusPending {
			pending++
		}
	}
	if pending == 0 {
		return
	}
	if len(c.selection) == pending {
		c.ClearSelection()
		return
	}
	c.SelectAllPending()
}

// IsSelected reports whether an ID is currently selected.
func (c *Coordinator) IsSelected(id string) bool {
	_, ok := c.selection[id]
	return ok
}

// SelectedIDs returns the selected IDs in list order.
func (c *Coordinator) SelectedIDs() []string {
	ids := make([]string, 0, len(c.selection))
	for _, rec := range c.items {
		if _, ok := c.selection[rec.ID]; ok {
			ids = append(ids, rec.ID)
		}
	}
	return ids
}

// TotalEstimatedImpact sums the estimated impact over the selected items.
func (c *Coordinator) TotalEstimatedImpact() float64 {
	var total float64
	for id := range c.selection {
		if rec, ok := c.index[id]; ok {
			total += rec.EstimatedImpact
		}
	}
	return total
}

// pruneSelection recomputes the selection as its intersection with the
// currently pending IDs. When nothing changed the existing map is kept, so
// callers comparing selection identity across list refreshes see a stable
// value.
func (c *Coordinator) pruneSelection() {
	changed := false
	for id := range c.selection {
		rec, ok := c.index[id]
		if !ok || rec.Status != StatusPending {
			changed = true
			break
		}
	}
	if !changed {
		return
	}

	next := make(map[string]struct{}, len(c.selection))
	for id := range c.selection {
		if rec, ok := c.index[id]; ok && rec.Status == StatusPending {
			next[id] = struct{}{}
		}
	}
	c.selection = next
}

// BatchExecute executes every selected recommendation sequentially, in list
// order. Each item's external call completes before the next begins; a
// per-item failure is counted and the batch continues. Successful items are
// marked executed immediately, so partial results stay visible even if a
// later item fails. A canceled context stops the loop between items.
func (c *Coordinator) BatchExecute(ctx context.Context, progress ProgressFunc) BatchResult {
	return c.runBatch(ctx, progress, c.Execute)
}

// BatchIgnore dismisses every selected recommendation sequentially with the
// same progress and partial-failure semantics as BatchExecute.
func (c *Coordinator) BatchIgnore(ctx context.Context, progress ProgressFunc) BatchResult {
	return c.runBatch(ctx, progress, c.Ignore)
}

func (c *Coordinator) runBatch(ctx context.Context, progress ProgressFunc, transition func(context.Context, string) error) BatchResult {
	ids := c.SelectedIDs()
	total := len(ids)

	var res BatchResult
	for i, id := range ids {
		if ctx.Err() != nil {
			log.Printf("[batch] canceled after %d of %d items", i, total)
			break
		}
		if progress != nil {
			progress(i+1, total)
		}
		if err := transition(ctx, id); err != nil {
			log.Printf("[batch] item %s failed: %v", id, err)
			res.Failed++
			res.Failures = append(res.Failures, BatchFailure{ID: id, Error: err.Error()})
			continue
		}
		res.Success++
	}
	return res
}
