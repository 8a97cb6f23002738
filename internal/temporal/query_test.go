package temporal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queryFixture() ([]TemporalNode, []TemporalEdge) {
	nodes := []TemporalNode{
		{ID: "n1", EntityType: EntityCovenant, EntityID: "cov-a", State: "healthy", Timestamp: testEpoch, ParentIDs: map[string]string{"facility": "fac-1"}},
		{ID: "n2", EntityType: EntityCovenant, EntityID: "cov-a", State: "at_risk", Timestamp: testEpoch.AddDate(0, 0, 10), ParentIDs: map[string]string{"facility": "fac-1"}},
		{ID: "n3", EntityType: EntityCovenant, EntityID: "cov-b", State: "breach", Timestamp: testEpoch.AddDate(0, 0, 20), ParentIDs: map[string]string{"facility": "fac-2"}},
		{ID: "n4", EntityType: EntityFacility, EntityID: "fac-1", State: "active", Timestamp: testEpoch.AddDate(0, 0, 30)},
	}
	edges := []TemporalEdge{
		{ID: "e1", FromNodeID: "n1", ToNodeID: "n2", RelationType: RelationPrecededBy, Confidence: 100},
		{ID: "e2", FromNodeID: "n2", ToNodeID: "n3", RelationType: RelationCaused, Confidence: 60},
		{ID: "e3", FromNodeID: "n3", ToNodeID: "n4", RelationType: RelationEscalatedTo, Confidence: 100},
	}
	return nodes, edges
}

func TestApplyQueryNoFilters(t *testing.T) {
	nodes, edges := queryFixture()
	result := ApplyQuery(TemporalGraphQuery{}, nodes, edges)
	assert.Len(t, result.Nodes, 4)
	assert.Len(t, result.Edges, 3)
}

func TestApplyQueryEntityTypesAndStates(t *testing.T) {
	nodes, edges := queryFixture()

	result := ApplyQuery(TemporalGraphQuery{
		EntityTypes: []EntityType{EntityCovenant},
		States:      []string{"at_risk", "breach"},
	}, nodes, edges)

	require.Len(t, result.Nodes, 2)
	assert.Equal(t, "n2", result.Nodes[0].ID)
	assert.Equal(t, "n3", result.Nodes[1].ID)

	// Only edges with both endpoints surviving remain.
	require.Len(t, result.Edges, 1)
	assert.Equal(t, "e2", result.Edges[0].ID)
}

func TestApplyQueryFacilityIDs(t *testing.T) {
	nodes, edges := queryFixture()

	result := ApplyQuery(TemporalGraphQuery{FacilityIDs: []string{"fac-1"}}, nodes, edges)

	// Matches on parent facility as well as on the facility node itself.
	ids := make([]string, len(result.Nodes))
	for i, n := range result.Nodes {
		ids[i] = n.ID
	}
	assert.ElementsMatch(t, []string{"n1", "n2", "n4"}, ids)
}

func TestApplyQueryDateWindow(t *testing.T) {
	nodes, edges := queryFixture()
	from := testEpoch.AddDate(0, 0, 5)
	to := testEpoch.AddDate(0, 0, 25)

	result := ApplyQuery(TemporalGraphQuery{FromDate: &from, ToDate: &to}, nodes, edges)

	require.Len(t, result.Nodes, 2)
	assert.Equal(t, "n2", result.Nodes[0].ID)
	assert.Equal(t, "n3", result.Nodes[1].ID)
}

func TestApplyQueryDateBoundariesInclusive(t *testing.T) {
	nodes, edges := queryFixture()
	from := testEpoch
	to := testEpoch

	result := ApplyQuery(TemporalGraphQuery{FromDate: &from, ToDate: &to}, nodes, edges)
	require.Len(t, result.Nodes, 1)
	assert.Equal(t, "n1", result.Nodes[0].ID)
}

func TestApplyQueryRelationTypesAndConfidence(t *testing.T) {
	nodes, edges := queryFixture()

	result := ApplyQuery(TemporalGraphQuery{RelationTypes: []RelationType{RelationCaused, RelationEscalatedTo}}, nodes, edges)
	require.Len(t, result.Edges, 2)

	result = ApplyQuery(TemporalGraphQuery{MinConfidence: 80}, nodes, edges)
	require.Len(t, result.Edges, 2)
	for _, e := range result.Edges {
		assert.GreaterOrEqual(t, e.Confidence, 80.0)
	}
}

func TestApplyQueryLimitTruncatesNodesOnly(t *testing.T) {
	nodes, edges := queryFixture()

	result := ApplyQuery(TemporalGraphQuery{Limit: 2}, nodes, edges)
	assert.Len(t, result.Nodes, 2)
	assert.Len(t, result.Edges, 3)
}

func TestApplyQueryIdempotent(t *testing.T) {
	nodes, edges := queryFixture()
	from := testEpoch.AddDate(0, 0, 1)
	q := TemporalGraphQuery{
		EntityTypes:   []EntityType{EntityCovenant},
		FromDate:      &from,
		MinConfidence: 50,
		Limit:         10,
	}

	first := ApplyQuery(q, nodes, edges)
	second := ApplyQuery(q, nodes, edges)
	assert.Equal(t, first, second)

	// The inputs are untouched.
	freshNodes, freshEdges := queryFixture()
	assert.Equal(t, freshNodes, nodes)
	assert.Equal(t, freshEdges, edges)
}

func TestApplyQueryEmptyResult(t *testing.T) {
	nodes, edges := queryFixture()
	future := testEpoch.AddDate(1, 0, 0)

	result := ApplyQuery(TemporalGraphQuery{FromDate: &future}, nodes, edges)
	assert.Empty(t, result.Nodes)
	assert.Empty(t, result.Edges)
}
