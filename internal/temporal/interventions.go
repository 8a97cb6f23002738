package temporal

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// waiverPrepWindowDays is the lead time below which waiver paperwork
// should be started alongside outreach.
const waiverPrepWindowDays = 30

// RecommendInterventions maps risk level, active patterns and trajectory
// to a prioritized action list. The result is stable-sorted by priority
// rank only; ties keep insertion order.
func RecommendInterventions(risk RiskAssessment, detections []ActivePatternDetection, now time.Time) []Intervention {
	var out []Intervention

	if risk.RiskLevel == RiskCritical {
		deadline := now.AddDate(0, 0, 7)
		out = append(out, Intervention{
			ID:          uuid.NewString(),
			Title:       "Immediate Escalation",
			Description: fmt.Sprintf("Escalate facility %s to the credit committee: composite risk %.0f", risk.FacilityID, risk.OverallScore),
			Priority:    PriorityCritical,
			Deadline:    &deadline,
		})
	}

	for _, d := range detections {
		if d.ExpectedOutcome != OutcomeNegative || d.MatchConfidence <= 50 {
			continue
		}

		out = append(out, Intervention{
			ID:          uuid.NewString(),
			Title:       "Proactive Outreach",
			Description: fmt.Sprintf("Contact borrower: %s matches %s at %.0f%% confidence", d.EntityID, d.PatternName, d.MatchConfidence),
			Priority:    PriorityHigh,
			PatternID:   d.PatternID,
		})

		if d.DaysUntilCritical < waiverPrepWindowDays {
			deadline := now.Add(time.Duration(d.DaysUntilCritical * float64(hoursPerDay) * float64(time.Hour)))
			out = append(out, Intervention{
				ID:          uuid.NewString(),
				Title:       "Prepare Waiver Documentation",
				Description: fmt.Sprintf("Draft waiver terms for %s ahead of expected breach", d.EntityID),
				Priority:    PriorityHigh,
				PatternID:   d.PatternID,
				Deadline:    &deadline,
			})
		}
	}

	if risk.Trajectory == TrajectoryDeteriorating {
		out = append(out, Intervention{
			ID:          uuid.NewString(),
			Title:       "Increase Monitoring Frequency",
			Description: "Move covenant testing to the tighter reporting cycle while the trend holds",
			Priority:    PriorityMedium,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return priorityRank(out[i].Priority) < priorityRank(out[j].Priority)
	})

	return out
}
