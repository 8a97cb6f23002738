package temporal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregate(t *testing.T) {
	nodes := []TemporalNode{
		{ID: "n1", EntityType: EntityCovenant},
		{ID: "n2", EntityType: EntityCovenant},
		{ID: "n3", EntityType: EntityFacility},
	}
	edges := []TemporalEdge{
		{ID: "e1", RelationType: RelationCaused},
		{ID: "e2", RelationType: RelationPrecededBy},
	}
	chains := []CausalChain{
		{NodeIDs: []string{"n1", "n2"}, OutcomeType: OutcomeNegative},
		{NodeIDs: []string{"n1", "n2", "n3", "n3"}, OutcomeType: OutcomePositive},
	}
	patterns := []CausalPattern{{ID: "p1"}, {ID: "p2"}, {ID: "p3"}}
	predictions := []FacilityPrediction{
		{
			ActivePatterns: []ActivePatternDetection{{MatchConfidence: 80}, {MatchConfidence: 40}},
			RiskAssessment: RiskAssessment{OverallScore: 60, RiskLevel: RiskHigh},
		},
		{
			RiskAssessment: RiskAssessment{OverallScore: 20, RiskLevel: RiskLow},
		},
	}

	a := Aggregate(nodes, edges, chains, patterns, predictions, testEpoch)

	assert.Equal(t, testEpoch, a.GeneratedAt)
	assert.Equal(t, 3, a.TotalNodes)
	assert.Equal(t, 2, a.TotalEdges)
	assert.Equal(t, 2, a.NodesByEntityType[EntityCovenant])
	assert.Equal(t, 1, a.NodesByEntityType[EntityFacility])
	assert.Equal(t, 1, a.EdgesByRelationType[RelationCaused])

	assert.Equal(t, 2, a.TotalChains)
	assert.Equal(t, 1, a.ChainsByOutcome[OutcomeNegative])
	assert.InDelta(t, 3, a.MeanChainLength, 1e-9)
	assert.Equal(t, 3, a.PatternCount)

	assert.Equal(t, 2, a.ActiveDetections)
	assert.InDelta(t, 60, a.MeanDetectionConfidence, 1e-9)
	assert.InDelta(t, 40, a.MeanRiskScore, 1e-9)
	assert.Equal(t, 1, a.RiskLevelDistribution[RiskHigh])
	assert.Equal(t, 1, a.RiskLevelDistribution[RiskLow])
	assert.Equal(t, 2, a.FacilitiesAssessed)
}

func TestAggregateEmpty(t *testing.T) {
	a := Aggregate(nil, nil, nil, nil, nil, testEpoch)

	assert.Zero(t, a.TotalNodes)
	assert.Zero(t, a.MeanChainLength)
	assert.Zero(t, a.MeanDetectionConfidence)
	assert.Zero(t, a.MeanRiskScore)
	assert.Empty(t, a.NodesByEntityType)
}
