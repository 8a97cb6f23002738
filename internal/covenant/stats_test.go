package covenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTransitionStats(t *testing.T) {
	stats, err := ComputeTransitionStats("healthy→at_risk|at_risk→breach", StateAtRisk, []float64{10, 20, 30}, 2)
	require.NoError(t, err)

	assert.Equal(t, StateAtRisk, stats.EntryState)
	assert.Equal(t, 3, stats.Occurrences)
	assert.InDelta(t, 20, stats.MeanDurationDays, 1e-9)
	// Sample standard deviation over {10, 20, 30}.
	assert.InDelta(t, 10, stats.StdDevDurationDays, 1e-9)
	assert.InDelta(t, 66.6667, stats.CompletionProbability, 1e-3)
}

func TestComputeTransitionStatsSingleObservation(t *testing.T) {
	stats, err := ComputeTransitionStats("sig", StateHealthy, []float64{14}, 1)
	require.NoError(t, err)

	assert.InDelta(t, 14, stats.MeanDurationDays, 1e-9)
	assert.Zero(t, stats.StdDevDurationDays)
	assert.InDelta(t, 100, stats.CompletionProbability, 1e-9)
}

func TestComputeTransitionStatsEmptyInput(t *testing.T) {
	_, err := ComputeTransitionStats("sig", StateHealthy, nil, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyHistory)
}

func TestComputeTransitionStatsCompletionCapped(t *testing.T) {
	stats, err := ComputeTransitionStats("sig", StateHealthy, []float64{5}, 3)
	require.NoError(t, err)
	assert.InDelta(t, 100, stats.CompletionProbability, 1e-9)
}
