package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/adperf-monitor/internal/optimizer"
	"github.com/ignite/adperf-monitor/internal/pkg/distlock"
	"github.com/ignite/adperf-monitor/internal/pkg/httputil"
	"github.com/ignite/adperf-monitor/internal/storage"
)

// RecommendationStore abstracts recommendation persistence.
type RecommendationStore interface {
	List(ctx context.Context, accountID string, status optimizer.RecommendationStatus) ([]*optimizer.Recommendation, error)
	UpdateStatus(ctx context.Context, accountID string, rec *optimizer.Recommendation) error
}

// SpendProvider supplies pair spend data for impact estimation.
type SpendProvider interface {
	PairSpend(ctx context.Context, accountID, audienceA, audienceB string) (*optimizer.SpendData, error)
}

// SnoozeNotifier propagates snoozes to the ad platform. Notification is
// advisory; snoozing stays effective even when the platform call fails.
type SnoozeNotifier interface {
	Snooze(ctx context.Context, rec *optimizer.Recommendation, until time.Time) error
}

// LockFactory builds a fresh distributed lock for one batch run.
type LockFactory func() distlock.DistLock

// Handlers contains all HTTP handlers
type Handlers struct {
	accountID string
	repo      RecommendationStore
	registry  *optimizer.ExecutorRegistry
	spend     SpendProvider
	store     *storage.Storage
	notifier  SnoozeNotifier
	batchLock LockFactory
}

// NewHandlers creates a new Handlers instance
func NewHandlers(accountID string, repo RecommendationStore, registry *optimizer.ExecutorRegistry, store *storage.Storage) *Handlers {
	return &Handlers{
		accountID: accountID,
		repo:      repo,
		registry:  registry,
		store:     store,
	}
}

// SetSpendProvider sets the spend provider for impact hydration
func (h *Handlers) SetSpendProvider(p SpendProvider) {
	h.spend = p
}

// SetSnoozeNotifier sets the platform snooze notifier
func (h *Handlers) SetSnoozeNotifier(n SnoozeNotifier) {
	h.notifier = n
}

// SetBatchLockFactory sets the lock factory serializing batch runs
func (h *Handlers) SetBatchLockFactory(f LockFactory) {
	h.batchLock = f
}

// HealthCheck responds with server status
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleFatigueScore scores one creative's fatigue from its metric deltas.
func (h *Handlers) HandleFatigueScore(w http.ResponseWriter, r *http.Request) {
	var input optimizer.CreativeFatigueInput
	if !httputil.Decode(w, r, &input) {
		return
	}

	httputil.OK(w, optimizer.ScoreCreativeFatigue(input))
}

type exclusionAdviceRequest struct {
	optimizer.AudienceOverlapPair
	SpendData *optimizer.SpendData `json:"spend_data,omitempty"`
}

type exclusionAdviceResponse struct {
	optimizer.ExclusionSuggestion
	ImpactSummary string `json:"impact_summary"`
}

// HandleExclusionAdvice classifies an audience overlap and advises on
// exclusion. Spend is hydrated from the spend provider when the request
// carries audience IDs and no explicit spend data.
func (h *Handlers) HandleExclusionAdvice(w http.ResponseWriter, r *http.Request) {
	var req exclusionAdviceRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.AudienceA.ID == "" || req.AudienceB.ID == "" {
		httputil.BadRequest(w, "audience_a and audience_b are required")
		return
	}

	spendData := req.SpendData
	if spendData == nil && h.spend != nil {
		hydrated, err := h.spend.PairSpend(r.Context(), h.accountID, req.AudienceA.ID, req.AudienceB.ID)
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		spendData = hydrated
	}

	suggestion := optimizer.Advise(req.AudienceOverlapPair, spendData)
	httputil.OK(w, exclusionAdviceResponse{
		ExclusionSuggestion: suggestion,
		ImpactSummary:       optimizer.FormatImpactSummary(suggestion.Impact),
	})
}

// recommendationView annotates a recommendation with its read-time
// snooze-expiry state.
type recommendationView struct {
	*optimizer.Recommendation
	SnoozeExpired bool `json:"snooze_expired"`
}

// HandleListRecommendations returns the account's recommendations. Snoozed
// items whose deferral elapsed are annotated, not mutated.
func (h *Handlers) HandleListRecommendations(w http.ResponseWriter, r *http.Request) {
	status := optimizer.RecommendationStatus(r.URL.Query().Get("status"))

	recs, err := h.repo.List(r.Context(), h.accountID, status)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	now := time.Now()
	views := make([]recommendationView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, recommendationView{Recommendation: rec, SnoozeExpired: rec.SnoozeExpired(now)})
	}

	httputil.OK(w, map[string]interface{}{
		"recommendations": views,
		"total":           len(views),
	})
}

// loadCoordinator builds a fresh engine coordinator over the account's
// current recommendations.
func (h *Handlers) loadCoordinator(ctx context.Context) (*optimizer.Coordinator, error) {
	recs, err := h.repo.List(ctx, h.accountID, "")
	if err != nil {
		return nil, err
	}
	c := optimizer.NewCoordinator(h.registry)
	c.SetRecommendations(recs)
	return c, nil
}

// persistTransition writes a recommendation's new status back and records
// the audit entry. Persistence errors are surfaced to the caller.
func (h *Handlers) persistTransition(ctx context.Context, c *optimizer.Coordinator, id, action string, actionErr error) error {
	rec, ok := c.Get(id)
	if !ok {
		return optimizer.ErrNotFound
	}

	record := storage.ActionRecord{
		AccountID:        h.accountID,
		RecommendationID: id,
		Action:           action,
		Outcome:          "ok",
	}
	if actionErr != nil {
		record.Outcome = "failed"
		record.Error = actionErr.Error()
	}
	h.store.RecordAction(ctx, record)

	if actionErr != nil {
		// Status did not change; nothing to persist.
		return nil
	}
	return h.repo.UpdateStatus(ctx, h.accountID, rec)
}

// HandleExecuteRecommendation applies a single recommendation.
func (h *Handlers) HandleExecuteRecommendation(w http.ResponseWriter, r *http.Request) {
	h.handleSingleAction(w, r, "execute", func(ctx context.Context, c *optimizer.Coordinator, id string) error {
		return c.Execute(ctx, id)
	})
}

// HandleIgnoreRecommendation dismisses a single recommendation.
func (h *Handlers) HandleIgnoreRecommendation(w http.ResponseWriter, r *http.Request) {
	h.handleSingleAction(w, r, "ignore", func(ctx context.Context, c *optimizer.Coordinator, id string) error {
		return c.Ignore(ctx, id)
	})
}

func (h *Handlers) handleSingleAction(w http.ResponseWriter, r *http.Request, action string, transition func(context.Context, *optimizer.Coordinator, string) error) {
	id := chi.URLParam(r, "id")

	c, err := h.loadCoordinator(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if _, ok := c.Get(id); !ok {
		httputil.NotFound(w, "recommendation not found")
		return
	}

	actionErr := transition(r.Context(), c, id)
	if err := h.persistTransition(r.Context(), c, id, action, actionErr); err != nil {
		httputil.InternalError(w, err)
		return
	}

	if actionErr != nil {
		if errors.Is(actionErr, optimizer.ErrNotFound) {
			httputil.NotFound(w, "recommendation not found")
			return
		}
		// The action failed but the recommendation stays actionable.
		httputil.JSON(w, http.StatusBadGateway, map[string]interface{}{
			"error": actionErr.Error(),
		})
		return
	}

	rec, _ := c.Get(id)
	httputil.OK(w, rec)
}

type snoozeRequest struct {
	Duration optimizer.SnoozeDuration `json:"duration"`
}

// HandleSnoozeRecommendation defers a pending recommendation. Unknown
// durations and non-pending items leave everything unchanged; the response
// reports whether the snooze took effect.
func (h *Handlers) HandleSnoozeRecommendation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req snoozeRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	c, err := h.loadCoordinator(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if _, ok := c.Get(id); !ok {
		httputil.NotFound(w, "recommendation not found")
		return
	}

	snoozed := c.Snooze(id, req.Duration, time.Now())
	rec, _ := c.Get(id)

	if snoozed {
		if err := h.repo.UpdateStatus(r.Context(), h.accountID, rec); err != nil {
			httputil.InternalError(w, err)
			return
		}
		if h.notifier != nil && rec.SnoozeUntil != nil {
			if err := h.notifier.Snooze(r.Context(), rec, *rec.SnoozeUntil); err != nil {
				// Advisory only; the engine-local snooze stands.
				httputil.OK(w, map[string]interface{}{"snoozed": true, "recommendation": rec})
				return
			}
		}
	}

	httputil.OK(w, map[string]interface{}{
		"snoozed":        snoozed,
		"recommendation": rec,
	})
}

type batchRequest struct {
	IDs []string `json:"ids"`
}

// HandleBatchExecute executes a selection of recommendations sequentially.
func (h *Handlers) HandleBatchExecute(w http.ResponseWriter, r *http.Request) {
	h.handleBatchAction(w, r, "execute", (*optimizer.Coordinator).BatchExecute)
}

// HandleBatchIgnore dismisses a selection of recommendations sequentially.
func (h *Handlers) HandleBatchIgnore(w http.ResponseWriter, r *http.Request) {
	h.handleBatchAction(w, r, "ignore", (*optimizer.Coordinator).BatchIgnore)
}

func (h *Handlers) handleBatchAction(w http.ResponseWriter, r *http.Request, action string, run func(*optimizer.Coordinator, context.Context, optimizer.ProgressFunc) optimizer.BatchResult) {
	var req batchRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		httputil.BadRequest(w, "ids is required")
		return
	}

	// One batch at a time per account, across all hosts.
	if h.batchLock != nil {
		lock := h.batchLock()
		acquired, err := lock.Acquire(r.Context())
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		if !acquired {
			httputil.Error(w, http.StatusConflict, "another batch operation is in progress")
			return
		}
		defer lock.Release(r.Context())
	}

	c, err := h.loadCoordinator(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	for _, id := range req.IDs {
		c.ToggleSelection(id)
	}

	selected := c.SelectedIDs()
	result := run(c, r.Context(), nil)

	// Persist every item that transitioned; failures only get audit entries.
	failed := make(map[string]string, len(result.Failures))
	for _, f := range result.Failures {
		failed[f.ID] = f.Error
	}
	for _, id := range selected {
		var actionErr error
		if msg, ok := failed[id]; ok {
			actionErr = errors.New(msg)
		}
		if err := h.persistTransition(r.Context(), c, id, action, actionErr); err != nil {
			httputil.InternalError(w, err)
			return
		}
	}

	httputil.OK(w, result)
}

// HandleSelectionImpact totals the estimated impact of a query-supplied
// selection. Non-pending or unknown IDs contribute nothing.
func (h *Handlers) HandleSelectionImpact(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("ids"))
	if raw == "" {
		httputil.BadRequest(w, "ids query parameter is required")
		return
	}

	c, err := h.loadCoordinator(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	for _, id := range strings.Split(raw, ",") {
		c.ToggleSelection(strings.TrimSpace(id))
	}

	httputil.OK(w, map[string]interface{}{
		"selected":               len(c.SelectedIDs()),
		"total_estimated_impact": c.TotalEstimatedImpact(),
	})
}

// HandleSnoozeOptions lists the offered snooze durations.
func (h *Handlers) HandleSnoozeOptions(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]interface{}{
		"options": optimizer.SnoozeOptions(),
	})
}

// HandleRecentActions returns the account's latest audit entries.
func (h *Handlers) HandleRecentActions(w http.ResponseWriter, r *http.Request) {
	actions := h.store.RecentActions(r.Context(), h.accountID, 50)
	httputil.OK(w, map[string]interface{}{
		"actions": actions,
		"total":   len(actions),
	})
}
