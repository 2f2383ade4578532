package optimizer

import (
	"time"
)

// RecommendationStatus represents the lifecycle state of a recommendation.
type RecommendationStatus string

const (
	StatusPending  RecommendationStatus = "pending"
	StatusExecuted RecommendationStatus = "executed"
	StatusIgnored  RecommendationStatus = "ignored"
	StatusSnoozed  RecommendationStatus = "snoozed"
)

// RecommendationType identifies the kind of optimization action proposed.
type RecommendationType string

const (
	TypePauseCreative   RecommendationType = "pause_creative"
	TypeReduceBudget    RecommendationType = "reduce_budget"
	TypeIncreaseBudget  RecommendationType = "increase_budget"
	TypeExcludeAudience RecommendationType = "exclude_audience"
	TypeRefreshCreative RecommendationType = "refresh_creative"
	TypeOptimizeBidding RecommendationType = "optimize_bidding"
)

// AllRecommendationTypes returns every supported recommendation type.
func AllRecommendationTypes() []RecommendationType {
	return []RecommendationType{
		TypePauseCreative, TypeReduceBudget, TypeIncreaseBudget,
		TypeExcludeAudience, TypeRefreshCreative, TypeOptimizeBidding,
	}
}

// Recommendation is one actionable optimization suggestion produced by an
// external generation process. The engine only transitions its status; it
// never creates or deletes recommendations.
type Recommendation struct {
	ID              string               `json:"id" db:"id"`
	Type            RecommendationType   `json:"type" db:"type"`
	PriorityScore   int                  `json:"priority_score" db:"priority_score"`
	Title           string               `json:"title" db:"title"`
	Description     string               `json:"description" db:"description"`
	ActionModule    string               `json:"action_module" db:"action_module"`
	EstimatedImpact float64              `json:"estimated_impact" db:"estimated_impact"`
	Status          RecommendationStatus `json:"status" db:"status"`
	SnoozeUntil     *time.Time           `json:"snooze_until,omitempty" db:"snooze_until"`
}

// SnoozeExpired reports whether a snoozed recommendation's deferral has
// elapsed at the given instant. Expiry is purely a read-time computation;
// the stored status stays "snoozed" until a caller acts on the item.
func (r *Recommendation) SnoozeExpired(now time.Time) bool {
	if r.Status != StatusSnoozed || r.SnoozeUntil == nil {
		return false
	}
	return !now.Before(*r.SnoozeUntil)
}

// SnoozeDuration is one of the fixed deferral periods offered to users.
type SnoozeDuration string

const (
	Snooze1Hour  SnoozeDuration = "1h"
	Snooze4Hours SnoozeDuration = "4h"
	Snooze1Day   SnoozeDuration = "1d"
	Snooze3Days  SnoozeDuration = "3d"
	Snooze7Days  SnoozeDuration = "7d"
)

// SnoozeOption pairs an offered duration with its concrete offset.
type SnoozeOption struct {
	Duration SnoozeDuration `json:"duration"`
	Offset   time.Duration  `json:"-"`
}

// SnoozeOptions returns the full catalog of offered snooze durations.
func SnoozeOptions() []SnoozeOption {
	return []SnoozeOption{
		{Snooze1Hour, 1 * time.Hour},
		{Snooze4Hours, 4 * time.Hour},
		{Snooze1Day, 24 * time.Hour},
		{Snooze3Days, 3 * 24 * time.Hour},
		{Snooze7Days, 7 * 24 * time.Hour},
	}
}

// snoozeOffset resolves a duration to its offset. The second return is
// false for anything outside the catalog.
func snoozeOffset(d SnoozeDuration) (time.Duration, bool) {
	for _, opt := range SnoozeOptions() {
		if opt.Duration == d {
			return opt.Offset, true
		}
	}
	return 0, false
}

// PriorityTier classifies how urgently an audience overlap needs attention.
type PriorityTier string

const (
	TierNone     PriorityTier = "none"
	TierLow      PriorityTier = "low"
	TierMedium   PriorityTier = "medium"
	TierHigh     PriorityTier = "high"
	TierCritical PriorityTier = "critical"
)

// AlternativeAction suggests what to do instead of a plain exclusion.
type AlternativeAction string

const (
	ActionMerge   AlternativeAction = "merge"
	ActionMonitor AlternativeAction = "monitor"
)

// AudienceBase identifies one targetable audience and its unique reach.
type AudienceBase struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// AudienceOverlapPair holds the overlap statistics between two audiences.
// OverlapPercentage is relative to the smaller audience's reach and is
// computed upstream.
type AudienceOverlapPair struct {
	AudienceA         AudienceBase `json:"audience_a"`
	AudienceB         AudienceBase `json:"audience_b"`
	OverlapCount      int64        `json:"overlap_count"`
	OverlapPercentage float64      `json:"overlap_percentage"`
}

// SpendData carries optional per-audience spend and CPA figures. Nil fields
// mean the upstream provider had no data for that audience.
type SpendData struct {
	SpendA *float64 `json:"spend_a,omitempty"`
	SpendB *float64 `json:"spend_b,omitempty"`
	CPAA   *float64 `json:"cpa_a,omitempty"`
	CPAB   *float64 `json:"cpa_b,omitempty"`
}

// ExclusionDirection says which audience keeps its targeting and which one
// gets excluded from it.
type ExclusionDirection struct {
	Keep    AudienceBase `json:"keep"`
	Exclude AudienceBase `json:"exclude"`
	Reason  string       `json:"reason"`
}

// EstimatedImpact quantifies what an exclusion is expected to save.
// When DataAvailable is false the currency/CPA fields are zero and must be
// rendered as "not available", never as $0.
type EstimatedImpact struct {
	EstimatedSavings        float64 `json:"estimated_savings"`
	EstimatedCPAImprovement float64 `json:"estimated_cpa_improvement"`
	OverlapReductionPercent float64 `json:"overlap_reduction_percent"`
	DataAvailable           bool    `json:"data_available"`
}

// ExclusionSuggestion is the full actionable output of the exclusion advisor.
type ExclusionSuggestion struct {
	ShouldExclude     bool                `json:"should_exclude"`
	Priority          PriorityTier        `json:"priority"`
	Direction         *ExclusionDirection `json:"direction,omitempty"`
	Impact            EstimatedImpact     `json:"impact"`
	ActionSteps       []string            `json:"action_steps,omitempty"`
	AlternativeAction AlternativeAction   `json:"alternative_action,omitempty"`
	AlternativeReason string              `json:"alternative_reason,omitempty"`
	Reason            string              `json:"reason"`
}
