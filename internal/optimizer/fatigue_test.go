package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeclineScore_ImprovingMetric(t *testing.T) {
	// Any positive change means the metric is improving, so no fatigue signal.
	for _, change := range []float64{0.1, 1, 5, 50} {
		assert.Equal(t, 0.0, declineScore(change), "change=%v", change)
	}
}

func TestDeclineScore_Decline(t *testing.T) {
	tests := []struct {
		change float64
		want   float64
	}{
		{0, 25},
		{-5, 37.5},
		{-10, 50},
		{-15, 62.5},
		{-20, 75},
		{-25, 87.5},
		{-30, 100},
		{-31, 100},
		{-500, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, declineScore(tt.change), "change=%v", tt.change)
	}
}

func TestBandScore_FrequencyBreakpoints(t *testing.T) {
	tests := []struct {
		frequency float64
		want      float64
	}{
		{0, 0},
		{-1, 0},
		{1, 12.5},
		{2, 25},
		{2.5, 37.5},
		{3, 50},
		{4, 75},
		{5, 87.5},
		{6, 100},
		{12, 100},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, bandScore(tt.frequency, frequencyBreakpoints), 1e-9, "frequency=%v", tt.frequency)
	}
}

func TestBandScore_DaysActiveBreakpoints(t *testing.T) {
	tests := []struct {
		days float64
		want float64
	}{
		{0, 0},
		{7, 25},
		{14, 50},
		{30, 75},
		{60, 100},
		{90, 100},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, bandScore(tt.days, daysActiveBreakpoints), 1e-9, "days=%v", tt.days)
	}
}

func TestBandScore_Monotonic(t *testing.T) {
	prev := -1.0
	for v := 0.0; v <= 8.0; v += 0.25 {
		score := bandScore(v, frequencyBreakpoints)
		assert.GreaterOrEqual(t, score, prev, "frequency=%v", v)
		assert.LessOrEqual(t, score, 100.0)
		prev = score
	}
}

func TestScoreCreativeFatigue_WeightsSumToOne(t *testing.T) {
	// All four sub-scores at 50 must pass through the weighting unchanged.
	result := ScoreCreativeFatigue(CreativeFatigueInput{
		CTRChangePercent:            -10, // 50
		Frequency:                   3,   // 50
		DaysActive:                  14,  // 50
		ConversionRateChangePercent: -10, // 50
	})

	assert.Equal(t, 50.0, result.Score)
	assert.Equal(t, HealthWarning, result.Status)
	assert.Equal(t, FatigueBreakdown{CTR: 50, Frequency: 50, Days: 50, Conversion: 50}, result.Breakdown)
}

func TestScoreCreativeFatigue_FreshCreative(t *testing.T) {
	result := ScoreCreativeFatigue(CreativeFatigueInput{
		CTRChangePercent:            5,
		Frequency:                   1,
		DaysActive:                  2,
		ConversionRateChangePercent: 2,
	})

	// ctr=0, freq=12.5, days=2/7*25, conv=0
	assert.InDelta(t, 12.5*0.30+(2.0/7.0*25)*0.20, result.Score, 1e-9)
	assert.Equal(t, HealthHealthy, result.Status)
	assert.Equal(t, 0.0, result.Breakdown.CTR)
	assert.Equal(t, 0.0, result.Breakdown.Conversion)
}

func TestScoreCreativeFatigue_ExhaustedCreative(t *testing.T) {
	result := ScoreCreativeFatigue(CreativeFatigueInput{
		CTRChangePercent:            -45,
		Frequency:                   9,
		DaysActive:                  120,
		ConversionRateChangePercent: -60,
	})

	assert.Equal(t, 100.0, result.Score)
	assert.Equal(t, HealthFatigued, result.Status)
}

func TestScoreCreativeFatigue_StatusBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  HealthStatus
	}{
		{0, HealthHealthy},
		{40, HealthHealthy},
		{40.01, HealthWarning},
		{70, HealthWarning},
		{70.01, HealthFatigued},
		{100, HealthFatigued},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, healthStatusForScore(tt.score), "score=%v", tt.score)
	}
}

func TestScoreCreativeFatigue_ZeroInput(t *testing.T) {
	// Flat deltas still contribute the 25-point floor from CTR/conversion.
	result := ScoreCreativeFatigue(CreativeFatigueInput{})

	assert.Equal(t, 25.0, result.Breakdown.CTR)
	assert.Equal(t, 25.0, result.Breakdown.Conversion)
	assert.Equal(t, 0.0, result.Breakdown.Frequency)
	assert.Equal(t, 0.0, result.Breakdown.Days)
	assert.Equal(t, 12.5, result.Score)
	assert.Equal(t, HealthHealthy, result.Status)
}
