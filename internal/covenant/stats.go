package covenant

import (
	"fmt"
	"math"
	"time"
)

// TransitionStats is a statistical summary of one recurring transition
// sequence, produced by replaying historical covenant lifecycles. It is
// the raw material the pattern library is built from.
type TransitionStats struct {
	// Signature identifies the summarized sequence (joined from→to labels).
	Signature string `json:"signature"`

	// EntryState is the state an entity is in when the sequence begins.
	EntryState CovenantState `json:"entryState"`

	Occurrences        int     `json:"occurrences"`
	MeanDurationDays   float64 `json:"meanDurationDays"`
	StdDevDurationDays float64 `json:"stdDevDurationDays"`

	// CompletionProbability is the percentage (0-100) of observed entries
	// that ran the sequence to its final state.
	CompletionProbability float64 `json:"completionProbability"`

	// Outcome tallies over completed observations.
	PositiveOutcomes int `json:"positiveOutcomes"`
	NegativeOutcomes int `json:"negativeOutcomes"`
	NeutralOutcomes  int `json:"neutralOutcomes"`

	FirstObserved time.Time `json:"firstObserved"`
	LastObserved  time.Time `json:"lastObserved"`
}

// ComputeTransitionStats summarizes observed sequence durations (in days)
// and completion counts into a TransitionStats. Computing statistics from
// an empty observation set is a precondition violation.
func ComputeTransitionStats(signature string, entryState CovenantState, durations []float64, completed int) (TransitionStats, error) {
	if len(durations) == 0 {
		return TransitionStats{}, fmt.Errorf("compute stats for %q: %w", signature, ErrEmptyHistory)
	}

	var sum float64
	for _, d := range durations {
		sum += d
	}
	mean := sum / float64(len(durations))

	// Sample standard deviation; a single observation has no spread.
	var stddev float64
	if len(durations) > 1 {
		var sq float64
		for _, d := range durations {
			sq += (d - mean) * (d - mean)
		}
		stddev = math.Sqrt(sq / float64(len(durations)-1))
	}

	completion := float64(completed) / float64(len(durations)) * 100
	if completion > 100 {
		completion = 100
	}

	return TransitionStats{
		Signature:             signature,
		EntryState:            entryState,
		Occurrences:           len(durations),
		MeanDurationDays:      mean,
		StdDevDurationDays:    stddev,
		CompletionProbability: completion,
	}, nil
}
