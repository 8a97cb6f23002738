package temporal

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ledgerline/covtrace/internal/covenant"
)

// minMatchConfidence is the floor below which pattern detections are
// discarded.
const minMatchConfidence = 30

// PatternFromStats converts an upstream statistical summary into the
// canonical pattern representation consumed by matching. Duration bounds
// are mean ± 2σ (floored at zero on the low side).
func PatternFromStats(id, name string, stats covenant.TransitionStats, actions []string) CausalPattern {
	outcome := statsOutcome(stats)

	p := CausalPattern{
		ID:              id,
		Name:            name,
		EntryPoint:      EntityStateRef{EntityType: EntityCovenant, State: string(stats.EntryState)},
		ExpectedOutcome: outcome,
		Statistics: PatternStatistics{
			Occurrences:           stats.Occurrences,
			MeanDurationDays:      stats.MeanDurationDays,
			StdDevDurationDays:    stats.StdDevDurationDays,
			MinDurationDays:       math.Max(0, stats.MeanDurationDays-2*stats.StdDevDurationDays),
			MaxDurationDays:       stats.MeanDurationDays + 2*stats.StdDevDurationDays,
			CompletionProbability: stats.CompletionProbability,
			OutcomeDistribution: map[OutcomeType]int{
				OutcomePositive: stats.PositiveOutcomes,
				OutcomeNegative: stats.NegativeOutcomes,
				OutcomeNeutral:  stats.NeutralOutcomes,
			},
			FirstObserved: stats.FirstObserved,
			LastObserved:  stats.LastObserved,
		},
		RecommendedActions: actions,
	}

	return p
}

// DerivePatterns generalizes detected chains into patterns so the library
// can grow from observed behavior. Severity carries over from the chain.
func DerivePatterns(chains []CausalChain) []CausalPattern {
	patterns := make([]CausalPattern, 0, len(chains))
	for _, c := range chains {
		mean := c.TotalDurationDays
		patterns = append(patterns, CausalPattern{
			ID:              "pattern-" + c.ID,
			Name:            fmt.Sprintf("Observed sequence %s", c.Signature),
			EntryPoint:      c.EntryPoint,
			ExpectedOutcome: c.OutcomeType,
			Severity:        c.Severity,
			Statistics: PatternStatistics{
				Occurrences:           c.OccurrenceCount,
				MeanDurationDays:      mean,
				MinDurationDays:       mean,
				MaxDurationDays:       mean,
				CompletionProbability: c.Probability,
			},
		})
	}
	return patterns
}

// statsOutcome picks the dominant outcome tally; negative wins ties.
func statsOutcome(stats covenant.TransitionStats) OutcomeType {
	if stats.NegativeOutcomes > 0 && stats.NegativeOutcomes >= stats.PositiveOutcomes && stats.NegativeOutcomes >= stats.NeutralOutcomes {
		return OutcomeNegative
	}
	if stats.PositiveOutcomes > 0 && stats.PositiveOutcomes >= stats.NeutralOutcomes {
		return OutcomePositive
	}
	return OutcomeNeutral
}

// DetectActivePatterns scores how well an entity's current state and
// time-in-state match each known pattern. A pattern is active only while
// the entity is within the pattern's typical duration window
// (daysInState ≤ mean + 2σ). Detections below confidence 30 are
// discarded; survivors are sorted descending by confidence.
func DetectActivePatterns(snap covenant.CovenantSnapshot, library []CausalPattern, now time.Time) []ActivePatternDetection {
	days := snap.DaysInState

	var detections []ActivePatternDetection
	for _, p := range library {
		if p.EntryPoint.State != string(snap.State) {
			continue
		}

		mean := p.Statistics.MeanDurationDays
		stddev := p.Statistics.StdDevDurationDays

		if days > mean+2*stddev {
			continue
		}

		if stddev <= 0 {
			// A pattern observed once has no spread; substitute a
			// one-day spread so the positional factor stays defined.
			// The activity window above keeps the true bound.
			stddev = 1
		}

		// Positional factor peaks when the entity sits near the
		// pattern's expected midpoint duration.
		positional := 100 - 20*math.Abs(days-mean/2)/stddev
		if positional < 0 {
			positional = 0
		}

		confidence := math.Min(100, positional*p.Statistics.CompletionProbability/100)
		if confidence < minMatchConfidence {
			continue
		}

		remaining := math.Max(0, mean-days)
		completion := now.Add(time.Duration(remaining * float64(hoursPerDay) * float64(time.Hour)))

		progress := 0.0
		if mean > 0 {
			progress = math.Min(100, days/mean*100)
		}

		detections = append(detections, ActivePatternDetection{
			PatternID:       p.ID,
			PatternName:     p.Name,
			EntityID:        snap.CovenantID,
			EntityType:      EntityCovenant,
			MatchConfidence: confidence,
			ProgressPct:     progress,
			PredictedRemaining: []PredictedNode{{
				State:      terminalState(p.ExpectedOutcome),
				ExpectedAt: completion,
				Confidence: confidence,
			}},
			ExpectedCompletionDate: completion,
			ExpectedOutcome:        p.ExpectedOutcome,
			Severity:               p.Severity,
			DaysUntilCritical:      remaining,
		})
	}

	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].MatchConfidence > detections[j].MatchConfidence
	})

	return detections
}

// terminalState names the state a pattern is expected to end in, by
// outcome polarity.
func terminalState(outcome OutcomeType) string {
	switch outcome {
	case OutcomePositive:
		return string(covenant.StateHealthy)
	case OutcomeNegative:
		return string(covenant.StateBreach)
	default:
		return string(covenant.StateWaived)
	}
}
