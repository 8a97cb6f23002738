package temporal

import "time"

// PortfolioAnalytics is the portfolio-level rollup of graph, chain,
// pattern and prediction outputs.
type PortfolioAnalytics struct {
	GeneratedAt time.Time `json:"generatedAt"`

	TotalNodes          int                  `json:"totalNodes"`
	TotalEdges          int                  `json:"totalEdges"`
	NodesByEntityType   map[EntityType]int   `json:"nodesByEntityType"`
	EdgesByRelationType map[RelationType]int `json:"edgesByRelationType"`

	TotalChains      int                 `json:"totalChains"`
	ChainsByOutcome  map[OutcomeType]int `json:"chainsByOutcome"`
	MeanChainLength  float64             `json:"meanChainLength"`
	PatternCount     int                 `json:"patternCount"`
	ActiveDetections int                 `json:"activeDetections"`

	MeanDetectionConfidence float64           `json:"meanDetectionConfidence"`
	MeanRiskScore           float64           `json:"meanRiskScore"`
	RiskLevelDistribution   map[RiskLevel]int `json:"riskLevelDistribution"`
	FacilitiesAssessed      int               `json:"facilitiesAssessed"`
}

// Aggregate rolls up nodes, edges, chains, patterns and predictions into
// portfolio-level summary statistics.
func Aggregate(nodes []TemporalNode, edges []TemporalEdge, chains []CausalChain, patterns []CausalPattern, predictions []FacilityPrediction, now time.Time) PortfolioAnalytics {
	a := PortfolioAnalytics{
		GeneratedAt:           now,
		TotalNodes:            len(nodes),
		TotalEdges:            len(edges),
		NodesByEntityType:     make(map[EntityType]int),
		EdgesByRelationType:   make(map[RelationType]int),
		TotalChains:           len(chains),
		ChainsByOutcome:       make(map[OutcomeType]int),
		PatternCount:          len(patterns),
		RiskLevelDistribution: make(map[RiskLevel]int),
		FacilitiesAssessed:    len(predictions),
	}

	for _, n := range nodes {
		a.NodesByEntityType[n.EntityType]++
	}
	for _, e := range edges {
		a.EdgesByRelationType[e.RelationType]++
	}

	var chainNodes int
	for _, c := range chains {
		a.ChainsByOutcome[c.OutcomeType]++
		chainNodes += len(c.NodeIDs)
	}
	if len(chains) > 0 {
		a.MeanChainLength = float64(chainNodes) / float64(len(chains))
	}

	var confidenceSum float64
	var confidenceCount int
	var riskSum float64
	for _, p := range predictions {
		a.ActiveDetections += len(p.ActivePatterns)
		for _, d := range p.ActivePatterns {
			confidenceSum += d.MatchConfidence
			confidenceCount++
		}
		riskSum += p.RiskAssessment.OverallScore
		a.RiskLevelDistribution[p.RiskAssessment.RiskLevel]++
	}
	if confidenceCount > 0 {
		a.MeanDetectionConfidence = confidenceSum / float64(confidenceCount)
	}
	if len(predictions) > 0 {
		a.MeanRiskScore = riskSum / float64(len(predictions))
	}

	return a
}
