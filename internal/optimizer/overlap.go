package optimizer

import (
	"fmt"
	"math"
)

// Overlap thresholds (lower bound inclusive) and the point at which merging
// beats a permanent exclusion.
const (
	overlapLowThreshold      = 20.0
	overlapMediumThreshold   = 30.0
	overlapHighThreshold     = 40.0
	overlapCriticalThreshold = 60.0
	mergeThreshold           = 70.0

	// Flat self-competition CPA penalty, scaled by the overlap ratio.
	// Placeholder heuristic carried over for behavioral compatibility; it
	// has no empirical calibration behind it.
	competitionCPAPenaltyPercent = 10.0
)

// ClassifyOverlap maps an overlap percentage to a priority tier.
func ClassifyOverlap(overlapPercentage float64) PriorityTier {
	switch {
	case overlapPercentage >= overlapCriticalThreshold:
		return TierCritical
	case overlapPercentage >= overlapHighThreshold:
		return TierHigh
	case overlapPercentage >= overlapMediumThreshold:
		return TierMedium
	case overlapPercentage >= overlapLowThreshold:
		return TierLow
	default:
		return TierNone
	}
}

// Advise turns an overlap pair plus optional spend data into an actionable
// exclusion suggestion. Pure and total: a nil spend means impact data is
// unavailable, never an error.
func Advise(pair AudienceOverlapPair, spend *SpendData) ExclusionSuggestion {
	priority := ClassifyOverlap(pair.OverlapPercentage)
	if priority == TierNone {
		return ExclusionSuggestion{
			ShouldExclude: false,
			Priority:      TierNone,
			Impact:        EstimatedImpact{OverlapReductionPercent: pair.OverlapPercentage},
			Reason:        "overlap below actionable threshold",
		}
	}

	dir := decideDirection(pair)
	sug := ExclusionSuggestion{
		ShouldExclude: true,
		Priority:      priority,
		Direction:     &dir,
		Impact:        estimateImpact(pair, spend),
		ActionSteps:   actionSteps(dir),
		Reason: fmt.Sprintf("%.1f%% of %s's reach is also covered by %s",
			pair.OverlapPercentage, dir.Exclude.Name, dir.Keep.Name),
	}

	if pair.OverlapPercentage >= mergeThreshold {
		sug.AlternativeAction = ActionMerge
		sug.AlternativeReason = fmt.Sprintf(
			"%s and %s are near-duplicates; consolidating them into a single audience beats maintaining a permanent exclusion",
			pair.AudienceA.Name, pair.AudienceB.Name)
	}

	return sug
}

// decideDirection keeps the larger audience and excludes the smaller one
// from it: the larger reach should not self-compete with the subset also
// targeted by the smaller audience. On equal sizes the audience with the
// lexicographically larger ID is excluded, so repeated calls always produce
// the same direction.
func decideDirection(pair AudienceOverlapPair) ExclusionDirection {
	keep, exclude := pair.AudienceA, pair.AudienceB
	if keep.Size < exclude.Size || (keep.Size == exclude.Size && keep.ID > exclude.ID) {
		keep, exclude = exclude, keep
	}
	return ExclusionDirection{
		Keep:    keep,
		Exclude: exclude,
		Reason: fmt.Sprintf("%s has the larger unique reach (%d vs %d); excluding %s from it stops the two from bidding against each other",
			keep.Name, keep.Size, exclude.Size, exclude.Name),
	}
}

// estimateImpact models the spend wasted on the overlapping segment. Savings
// are capped at the smaller audience's full spend: even at near-100% overlap
// an exclusion cannot recover more than that audience spends.
func estimateImpact(pair AudienceOverlapPair, spend *SpendData) EstimatedImpact {
	impact := EstimatedImpact{OverlapReductionPercent: pair.OverlapPercentage}
	if spend == nil || (spend.SpendA == nil && spend.SpendB == nil) {
		return impact
	}

	impact.DataAvailable = true
	smallerSpend := math.Min(floatOrZero(spend.SpendA), floatOrZero(spend.SpendB))
	impact.EstimatedSavings = math.Min(smallerSpend*pair.OverlapPercentage/100, smallerSpend)

	if spend.CPAA != nil && spend.CPAB != nil {
		impact.EstimatedCPAImprovement = competitionCPAPenaltyPercent * pair.OverlapPercentage / 100
	}

	return impact
}

// actionSteps builds the ordered checklist for applying an exclusion.
// The first step must name the audience being edited.
func actionSteps(dir ExclusionDirection) []string {
	return []string{
		fmt.Sprintf("Open the targeting settings of %q in your ads manager", dir.Keep.Name),
		fmt.Sprintf("Add %q to its audience exclusion list", dir.Exclude.Name),
		"Save the change and allow up to 24 hours for delivery to propagate",
		"Review CPA and unique reach after a 7-day monitoring window",
	}
}

// FormatImpactSummary renders an impact for display. Missing spend data is
// an explicit "not available", never "$0" (which would imply zero impact).
// CPA improvement is framed as a cost reduction, so it renders negative.
func FormatImpactSummary(impact EstimatedImpact) string {
	if !impact.DataAvailable {
		return "Estimated impact: not available (no spend data)"
	}
	s := fmt.Sprintf("Estimated savings: $%.2f/mo", impact.EstimatedSavings)
	if impact.EstimatedCPAImprovement > 0 {
		s += fmt.Sprintf(", CPA %.1f%%", -impact.EstimatedCPAImprovement)
	}
	return s
}

func floatOrZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
