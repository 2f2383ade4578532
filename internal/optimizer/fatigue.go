package optimizer

import "math"

// HealthStatus is the coarse tier derived from a fatigue score.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthWarning  HealthStatus = "warning"
	HealthFatigued HealthStatus = "fatigued"
)

// CreativeFatigueInput holds the performance deltas for one creative
// evaluation. Changes are percentages relative to the creative's baseline
// period; frequency is average impressions per unique viewer.
type CreativeFatigueInput struct {
	CTRChangePercent            float64 `json:"ctr_change_percent"`
	Frequency                   float64 `json:"frequency"`
	DaysActive                  float64 `json:"days_active"`
	ConversionRateChangePercent float64 `json:"conversion_rate_change_percent"`
}

// FatigueBreakdown exposes the four component scores behind a total.
type FatigueBreakdown struct {
	CTR        float64 `json:"ctr"`
	Frequency  float64 `json:"frequency"`
	Days       float64 `json:"days"`
	Conversion float64 `json:"conversion"`
}

// CreativeFatigueResult is the scored outcome for one creative.
type CreativeFatigueResult struct {
	Score     float64          `json:"score"`
	Status    HealthStatus     `json:"status"`
	Breakdown FatigueBreakdown `json:"breakdown"`
}

// Component weights. Must sum to 1.0 so that equal sub-scores pass through
// unchanged.
const (
	weightCTR        = 0.40
	weightFrequency  = 0.30
	weightDays       = 0.20
	weightConversion = 0.10
)

var (
	frequencyBreakpoints  = [4]float64{2, 3, 4, 6}
	daysActiveBreakpoints = [4]float64{7, 14, 30, 60}
)

// ScoreCreativeFatigue computes a 0-100 fatigue score from performance
// deltas. It is total: out-of-range inputs are clamped, never rejected.
func ScoreCreativeFatigue(in CreativeFatigueInput) CreativeFatigueResult {
	b := FatigueBreakdown{
		CTR:        declineScore(in.CTRChangePercent),
		Frequency:  bandScore(in.Frequency, frequencyBreakpoints),
		Days:       bandScore(in.DaysActive, daysActiveBreakpoints),
		Conversion: declineScore(in.ConversionRateChangePercent),
	}

	// Sub-scores are weighted unrounded; rounding anything earlier would
	// break exact arithmetic at the band boundaries.
	score := b.CTR*weightCTR + b.Frequency*weightFrequency +
		b.Days*weightDays + b.Conversion*weightConversion

	return CreativeFatigueResult{
		Score:     score,
		Status:    healthStatusForScore(score),
		Breakdown: b,
	}
}

// declineScore maps a signed percentage change to a 0-100 fatigue signal.
// An improving metric contributes nothing; a flat metric already scores 25,
// and the signal saturates at a 30% decline.
func declineScore(changePercent float64) float64 {
	if changePercent > 0 {
		return 0
	}
	return math.Min(100, 25+math.Abs(changePercent)*2.5)
}

// bandScore maps a value onto four linear bands worth 25 points each, with
// band edges at the given breakpoints. Values below zero score 0 and values
// beyond the last breakpoint clamp at 100.
func bandScore(v float64, bp [4]float64) float64 {
	switch {
	case v <= 0:
		return 0
	case v <= bp[0]:
		return v / bp[0] * 25
	case v <= bp[1]:
		return 25 + (v-bp[0])/(bp[1]-bp[0])*25
	case v <= bp[2]:
		return 50 + (v-bp[1])/(bp[2]-bp[1])*25
	case v <= bp[3]:
		return 75 + (v-bp[2])/(bp[3]-bp[2])*25
	default:
		return 100
	}
}

func healthStatusForScore(score float64) HealthStatus {
	switch {
	case score <= 40:
		return HealthHealthy
	case score <= 70:
		return HealthWarning
	default:
		return HealthFatigued
	}
}
