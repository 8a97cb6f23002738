// Package temporal turns time-ordered covenant, facility and waiver state
// transitions into causal chains, pattern matches, risk assessments,
// recommended interventions and downstream cascade analysis.
//
// Every operation in this package is a pure function over data already in
// memory: no I/O, no shared mutable state, no ordering requirements beyond
// the ones stated per operation. Callers may run computations for
// different facilities in parallel without coordination.
package temporal

import "time"

// EntityType classifies the subject of a temporal node. The set is closed.
type EntityType string

const (
	EntityFacility   EntityType = "facility"
	EntityCovenant   EntityType = "covenant"
	EntityObligation EntityType = "obligation"
	EntityWaiver     EntityType = "waiver"
	EntityDocument   EntityType = "document"
	EntityEvent      EntityType = "event"
)

// RelationType classifies a directed causal/temporal edge. The set is closed.
type RelationType string

const (
	RelationTriggeredBy    RelationType = "triggered_by"
	RelationPrecededBy     RelationType = "preceded_by"
	RelationCaused         RelationType = "caused"
	RelationCorrelatedWith RelationType = "correlated_with"
	RelationMitigatedBy    RelationType = "mitigated_by"
	RelationEscalatedTo    RelationType = "escalated_to"
	RelationResolvedBy     RelationType = "resolved_by"
	RelationRequires       RelationType = "requires"
	RelationEnables        RelationType = "enables"
)

// OutcomeType is the polarity of a chain or pattern outcome.
type OutcomeType string

const (
	OutcomePositive OutcomeType = "positive"
	OutcomeNegative OutcomeType = "negative"
	OutcomeNeutral  OutcomeType = "neutral"
)

// Severity grades a negative outcome. Defined only for negative chains.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// RiskLevel is the categorical band of a composite risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Trajectory is the directional risk trend derived from active pattern
// polarity.
type Trajectory string

const (
	TrajectoryImproving     Trajectory = "improving"
	TrajectoryStable        Trajectory = "stable"
	TrajectoryDeteriorating Trajectory = "deteriorating"
)

// Priority orders recommended interventions.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// priorityRank maps priorities to sortable ranks. Unknown values sink to
// the bottom; they cannot appear unless a caller violates the closed set.
func priorityRank(p Priority) int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// TemporalNode is a point-in-time state of one entity. Nodes are created
// once per observed transition and are immutable thereafter.
type TemporalNode struct {
	ID         string     `json:"id"`
	EntityType EntityType `json:"entityType"`
	EntityID   string     `json:"entityId"`
	EntityName string     `json:"entityName"`
	State      string     `json:"state"`
	Timestamp  time.Time  `json:"timestamp"`

	// DurationDays is the time already spent in this state; 0 while the
	// state is still current.
	DurationDays float64 `json:"durationDays"`

	// ParentIDs back-references the owning facility/covenant/waiver.
	ParentIDs map[string]string `json:"parentIds,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// TemporalEdge is a directed causal/temporal relation between two nodes.
// TimeDeltaDays is always non-negative; directly observed transitions
// carry confidence 100.
type TemporalEdge struct {
	ID            string       `json:"id"`
	FromNodeID    string       `json:"fromNodeId"`
	ToNodeID      string       `json:"toNodeId"`
	RelationType  RelationType `json:"relationType"`
	TimeDeltaDays float64      `json:"timeDeltaDays"`
	Confidence    float64      `json:"confidence"`
	Weight        float64      `json:"weight"`
	Description   string       `json:"description,omitempty"`
	ObservedAt    time.Time    `json:"observedAt"`
}

// EntityStateRef names an entity type in a particular state. Used for
// chain entry/exit points and pattern entry conditions.
type EntityStateRef struct {
	EntityType EntityType `json:"entityType"`
	State      string     `json:"state"`
}

// CausalChain is an ordered node sequence treated as one causality path,
// grouped by structural signature across entity histories.
type CausalChain struct {
	ID                string         `json:"id"`
	Signature         string         `json:"signature"`
	NodeIDs           []string       `json:"nodeIds"`
	Edges             []TemporalEdge `json:"edges"`
	TotalDurationDays float64        `json:"totalDurationDays"`
	OccurrenceCount   int            `json:"occurrenceCount"`

	// Probability is this chain's share (0-100) of all observed chain
	// occurrences in one detection run.
	Probability float64        `json:"probability"`
	EntryPoint  EntityStateRef `json:"entryPoint"`
	ExitPoint   EntityStateRef `json:"exitPoint"`
	OutcomeType OutcomeType    `json:"outcomeType"`

	// Severity is set only when OutcomeType is negative.
	Severity Severity `json:"severity,omitempty"`
}

// PatternStatistics summarizes the historical behavior of a pattern.
type PatternStatistics struct {
	Occurrences        int     `json:"occurrences"`
	MeanDurationDays   float64 `json:"meanDurationDays"`
	StdDevDurationDays float64 `json:"stdDevDurationDays"`

	// Min/MaxDurationDays bound the typical duration at mean ± 2σ.
	MinDurationDays float64 `json:"minDurationDays"`
	MaxDurationDays float64 `json:"maxDurationDays"`

	// CompletionProbability is the percentage (0-100) of matched entities
	// that historically ran the pattern to completion.
	CompletionProbability float64             `json:"completionProbability"`
	OutcomeDistribution   map[OutcomeType]int `json:"outcomeDistribution,omitempty"`
	FirstObserved         time.Time           `json:"firstObserved,omitzero"`
	LastObserved          time.Time           `json:"lastObserved,omitzero"`
}

// CausalPattern is a named, reusable generalization of a causal chain.
// Patterns are immutable reference data: the library is constructed once
// and passed by value into every engine call.
type CausalPattern struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	Description        string            `json:"description,omitempty"`
	EntryPoint         EntityStateRef    `json:"entryPoint"`
	ExpectedOutcome    OutcomeType       `json:"expectedOutcome"`
	Severity           Severity          `json:"severity,omitempty"`
	Statistics         PatternStatistics `json:"statistics"`
	RecommendedActions []string          `json:"recommendedActions,omitempty"`
}

// PredictedNode is a forecast state for an entity currently matching a
// pattern.
type PredictedNode struct {
	State      string    `json:"state"`
	ExpectedAt time.Time `json:"expectedAt"`
	Confidence float64   `json:"confidence"`
}

// ActivePatternDetection is a runtime match of a live entity against a
// pattern.
type ActivePatternDetection struct {
	PatternID   string     `json:"patternId"`
	PatternName string     `json:"patternName"`
	EntityID    string     `json:"entityId"`
	EntityType  EntityType `json:"entityType"`

	// MatchConfidence is 0-100.
	MatchConfidence float64 `json:"matchConfidence"`

	// ProgressPct is how far through the pattern's typical duration the
	// entity has progressed (0-100).
	ProgressPct float64 `json:"progressPct"`

	PredictedRemaining     []PredictedNode `json:"predictedRemaining,omitempty"`
	ExpectedCompletionDate time.Time       `json:"expectedCompletionDate"`
	ExpectedOutcome        OutcomeType     `json:"expectedOutcome"`
	Severity               Severity        `json:"severity,omitempty"`
	DaysUntilCritical      float64         `json:"daysUntilCritical"`
}

// RiskFactor is one itemized contribution to a composite risk score.
type RiskFactor struct {
	Name         string  `json:"name"`
	Contribution float64 `json:"contribution"`
	Detail       string  `json:"detail,omitempty"`
	Trend        string  `json:"trend,omitempty"`
}

// DefaultProbability is the default likelihood curve at fixed horizons,
// each value a percentage in [0, 100].
type DefaultProbability struct {
	Days30  float64 `json:"days30"`
	Days90  float64 `json:"days90"`
	Days180 float64 `json:"days180"`
	Days365 float64 `json:"days365"`
}

// PortfolioComparison positions a facility's risk against the portfolio.
type PortfolioComparison struct {
	Percentile float64 `json:"percentile"`
	Comparison string  `json:"comparison"` // worse, similar, better
}

// RiskAssessment is the composite risk picture for one facility.
type RiskAssessment struct {
	FacilityID          string              `json:"facilityId"`
	OverallScore        float64             `json:"overallScore"`
	RiskLevel           RiskLevel           `json:"riskLevel"`
	Trajectory          Trajectory          `json:"trajectory"`
	DefaultProbability  DefaultProbability  `json:"defaultProbability"`
	RiskFactors         []RiskFactor        `json:"riskFactors"`
	PortfolioComparison PortfolioComparison `json:"portfolioComparison"`
}

// Intervention is one recommended action with an optional deadline.
type Intervention struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	PatternID   string     `json:"patternId,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

// PredictionHorizonDays is the fixed forward-looking window of a
// facility prediction.
const PredictionHorizonDays = 180

// FacilityPrediction is the top-level prediction artifact per facility.
type FacilityPrediction struct {
	FacilityID            string                   `json:"facilityId"`
	GeneratedAt           time.Time                `json:"generatedAt"`
	ActivePatterns        []ActivePatternDetection `json:"activePatterns"`
	PredictedTransitions  []PredictedNode          `json:"predictedTransitions"`
	RiskAssessment        RiskAssessment           `json:"riskAssessment"`
	Interventions         []Intervention           `json:"interventions"`
	OverallConfidence     float64                  `json:"overallConfidence"`
	PredictionHorizonDays int                      `json:"predictionHorizonDays"`
}

// CascadeImpact aggregates the downstream footprint of a cascade.
type CascadeImpact struct {
	AffectedEntities int     `json:"affectedEntities"`
	StateCount       int     `json:"stateCount"`
	ElapsedDays      float64 `json:"elapsedDays"`
}

// EventCascade is the breadth-first downstream analysis of one trigger
// node.
type EventCascade struct {
	TriggerEvent  TemporalNode   `json:"triggerEvent"`
	CascadeEvents []TemporalNode `json:"cascadeEvents"`
	CascadeEdges  []TemporalEdge `json:"cascadeEdges"`

	// Depth is the longest path length from the trigger.
	Depth int `json:"depth"`

	// Breadth is the largest count of cascade nodes sharing one
	// day-granularity timestamp bucket.
	Breadth     int           `json:"breadth"`
	TotalImpact CascadeImpact `json:"totalImpact"`

	// IsActive is true while any reachable node is still the current
	// state for its entity.
	IsActive    bool       `json:"isActive"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// TemporalGraphQuery is a declarative filter over a node/edge collection.
// Absent fields are no-ops.
type TemporalGraphQuery struct {
	EntityTypes   []EntityType   `json:"entityTypes,omitempty"`
	States        []string       `json:"states,omitempty"`
	FacilityIDs   []string       `json:"facilityIds,omitempty"`
	FromDate      *time.Time     `json:"fromDate,omitempty"`
	ToDate        *time.Time     `json:"toDate,omitempty"`
	RelationTypes []RelationType `json:"relationTypes,omitempty"`
	MinConfidence float64        `json:"minConfidence,omitempty"`
	Limit         int            `json:"limit,omitempty"`
}

// QueryResult is the filtered node/edge set returned by a query.
type QueryResult struct {
	Nodes []TemporalNode `json:"nodes"`
	Edges []TemporalEdge `json:"edges"`
}
