package covenant

import "time"

// CovenantState is the lifecycle state of a covenant. The set is closed:
// transition validation happens upstream, this package only consumes
// already-valid transitions.
type CovenantState string

const (
	StateHealthy  CovenantState = "healthy"
	StateAtRisk   CovenantState = "at_risk"
	StateBreach   CovenantState = "breach"
	StateWaived   CovenantState = "waived"
	StateResolved CovenantState = "resolved"
)

// FacilityStatus is the lifecycle state of a credit facility.
type FacilityStatus string

const (
	FacilityActive       FacilityStatus = "active"
	FacilityWaiverPeriod FacilityStatus = "waiver_period"
	FacilityDefault      FacilityStatus = "default"
	FacilityClosed       FacilityStatus = "closed"
)

// Well-known transition triggers recorded by the compliance workflow.
const (
	TriggerTestFailed    = "test_failed"
	TriggerTestPassed    = "test_passed"
	TriggerWaiverGranted = "waiver_granted"
	TriggerWaiverExpired = "waiver_expired"
	TriggerAmendment     = "amendment_executed"
)

// TestResult captures the covenant test measurement that accompanied a
// transition, where applicable.
type TestResult struct {
	Ratio       float64 `json:"ratio"`
	Threshold   float64 `json:"threshold"`
	HeadroomPct float64 `json:"headroomPct"`
	Passed      bool    `json:"passed"`
}

// StateTransition is one observed covenant state change. Transitions
// arrive time-ordered per covenant and are immutable.
type StateTransition struct {
	ID         string        `json:"id"`
	CovenantID string        `json:"covenantId"`
	FromState  CovenantState `json:"fromState"`
	ToState    CovenantState `json:"toState"`
	Trigger    string        `json:"trigger"`
	Timestamp  time.Time     `json:"timestamp"`
	TestResult *TestResult   `json:"testResult,omitempty"`
}

// CovenantSnapshot is the current state of one covenant.
type CovenantSnapshot struct {
	CovenantID  string        `json:"covenantId"`
	Name        string        `json:"name"`
	FacilityID  string        `json:"facilityId"`
	State       CovenantState `json:"state"`
	StateSince  time.Time     `json:"stateSince"`
	DaysInState float64       `json:"daysInState"`
}

// FacilitySnapshot is the current state of one facility and its covenants.
type FacilitySnapshot struct {
	FacilityID string             `json:"facilityId"`
	Name       string             `json:"name"`
	Status     FacilityStatus     `json:"status"`
	Covenants  []CovenantSnapshot `json:"covenants"`
}
