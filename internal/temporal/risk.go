package temporal

import (
	"fmt"
	"math"

	"github.com/ledgerline/covtrace/internal/covenant"
)

// Risk factor contributions. Scoring is deterministic and additive, not
// probabilistic inference.
const (
	riskBreachPoints       = 40
	riskAtRiskPoints       = 20
	riskPatternCritical    = 30
	riskPatternHigh        = 20
	riskPatternOther       = 10
	riskWaiverPeriodPoints = 15
	riskDefaultPoints      = 50

	deterioratingMultiplier = 1.5
)

// AssessRisk aggregates discrete risk factors for one facility into a
// bounded composite score, a categorical level, a trajectory and a
// horizon-based default-probability curve.
func AssessRisk(fac covenant.FacilitySnapshot, detections []ActivePatternDetection) RiskAssessment {
	var score float64
	var factors []RiskFactor

	for _, c := range fac.Covenants {
		switch c.State {
		case covenant.StateBreach:
			score += riskBreachPoints
			factors = append(factors, RiskFactor{
				Name:         "covenant_breach",
				Contribution: riskBreachPoints,
				Detail:       fmt.Sprintf("%s is in breach", c.Name),
			})
		case covenant.StateAtRisk:
			trend := "stable"
			if c.DaysInState > 30 {
				trend = "increasing"
			}
			score += riskAtRiskPoints
			factors = append(factors, RiskFactor{
				Name:         "covenant_at_risk",
				Contribution: riskAtRiskPoints,
				Detail:       fmt.Sprintf("%s is at risk (%.0f days)", c.Name, c.DaysInState),
				Trend:        trend,
			})
		}
	}

	for _, d := range detections {
		if d.ExpectedOutcome != OutcomeNegative {
			continue
		}
		points := float64(riskPatternOther)
		switch d.Severity {
		case SeverityCritical:
			points = riskPatternCritical
		case SeverityHigh:
			points = riskPatternHigh
		}
		score += points
		factors = append(factors, RiskFactor{
			Name:         "negative_pattern",
			Contribution: points,
			Detail:       fmt.Sprintf("active pattern %s (confidence %.0f)", d.PatternName, d.MatchConfidence),
		})
	}

	switch fac.Status {
	case covenant.FacilityWaiverPeriod:
		score += riskWaiverPeriodPoints
		factors = append(factors, RiskFactor{
			Name:         "facility_waiver_period",
			Contribution: riskWaiverPeriodPoints,
		})
	case covenant.FacilityDefault:
		score += riskDefaultPoints
		factors = append(factors, RiskFactor{
			Name:         "facility_default",
			Contribution: riskDefaultPoints,
		})
	}

	score = clamp(score, 0, 100)
	trajectory := deriveTrajectory(detections)

	return RiskAssessment{
		FacilityID:         fac.FacilityID,
		OverallScore:       score,
		RiskLevel:          riskLevelFor(score),
		Trajectory:         trajectory,
		DefaultProbability: defaultProbabilityCurve(score, trajectory),
		RiskFactors:        factors,
		PortfolioComparison: PortfolioComparison{
			Percentile: math.Max(0, 100-score),
			Comparison: portfolioComparisonFor(score),
		},
	}
}

// riskLevelFor maps a score to its categorical band. Thresholds are
// inclusive at the boundary.
func riskLevelFor(score float64) RiskLevel {
	switch {
	case score >= 70:
		return RiskCritical
	case score >= 50:
		return RiskHigh
	case score >= 25:
		return RiskMedium
	default:
		return RiskLow
	}
}

// deriveTrajectory compares active pattern polarity: more positive
// patterns than negative means improving, more negative means
// deteriorating, a tie means stable.
func deriveTrajectory(detections []ActivePatternDetection) Trajectory {
	positive, negative := 0, 0
	for _, d := range detections {
		switch d.ExpectedOutcome {
		case OutcomePositive:
			positive++
		case OutcomeNegative:
			negative++
		}
	}

	switch {
	case positive > negative:
		return TrajectoryImproving
	case negative > positive:
		return TrajectoryDeteriorating
	default:
		return TrajectoryStable
	}
}

// defaultProbabilityCurve projects default likelihood over fixed
// horizons. A deteriorating trajectory scales the whole curve by 1.5.
func defaultProbabilityCurve(score float64, trajectory Trajectory) DefaultProbability {
	base := score / 200
	mult := 1.0
	if trajectory == TrajectoryDeteriorating {
		mult = deterioratingMultiplier
	}

	return DefaultProbability{
		Days30:  math.Min(100, base*30*mult),
		Days90:  math.Min(100, base*60*mult),
		Days180: math.Min(100, base*80*mult),
		Days365: math.Min(100, base*100*mult),
	}
}

func portfolioComparisonFor(score float64) string {
	switch {
	case score > 50:
		return "worse"
	case score < 25:
		return "better"
	default:
		return "similar"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
