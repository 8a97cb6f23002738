package temporal

import (
	"fmt"

	"github.com/ledgerline/covtrace/internal/covenant"
)

const hoursPerDay = 24

// BuildNodeFromTransition maps one observed transition to a temporal
// node. DurationDays is always 0 at construction; the caller fills it in
// once the following transition is known.
func BuildNodeFromTransition(t covenant.StateTransition, entityName, facilityID string) TemporalNode {
	node := TemporalNode{
		ID:         nodeID(t.CovenantID, t),
		EntityType: EntityCovenant,
		EntityID:   t.CovenantID,
		EntityName: entityName,
		State:      string(t.ToState),
		Timestamp:  t.Timestamp,
		ParentIDs:  map[string]string{"facility": facilityID},
	}

	if t.TestResult != nil {
		node.Metadata = map[string]string{
			"trigger":      t.Trigger,
			"headroom_pct": fmt.Sprintf("%.2f", t.TestResult.HeadroomPct),
			"test_passed":  fmt.Sprintf("%t", t.TestResult.Passed),
		}
	} else if t.Trigger != "" {
		node.Metadata = map[string]string{"trigger": t.Trigger}
	}

	return node
}

// BuildEdgesFromTransitions links each consecutive transition pair with a
// directed edge. The relation type comes from a deterministic rule table
// over (trigger, from_state, to_state); directly observed edges carry
// confidence 100. A single-element history yields no edges.
func BuildEdgesFromTransitions(transitions []covenant.StateTransition) ([]TemporalEdge, error) {
	if len(transitions) == 0 {
		return nil, fmt.Errorf("build edges: %w", covenant.ErrEmptyHistory)
	}

	edges := make([]TemporalEdge, 0, len(transitions)-1)
	for i := 0; i < len(transitions)-1; i++ {
		from, to := transitions[i], transitions[i+1]

		delta := to.Timestamp.Sub(from.Timestamp).Hours() / hoursPerDay
		if delta < 0 {
			return nil, fmt.Errorf("transitions out of order: %s observed before %s", to.ID, from.ID)
		}

		fromID := nodeID(from.CovenantID, from)
		toID := nodeID(to.CovenantID, to)
		edges = append(edges, TemporalEdge{
			ID:            edgeID(fromID, toID),
			FromNodeID:    fromID,
			ToNodeID:      toID,
			RelationType:  classifyRelation(to.Trigger, to.FromState, to.ToState),
			TimeDeltaDays: delta,
			Confidence:    100,
			Weight:        1,
			Description:   fmt.Sprintf("%s → %s", to.FromState, to.ToState),
			ObservedAt:    to.Timestamp,
		})
	}

	return edges, nil
}

// BuildEntityGraph builds the full node and edge set for one covenant
// history, filling node durations from the gaps between consecutive
// transitions. The last node keeps duration 0: it is still current.
func BuildEntityGraph(history []covenant.StateTransition, entityName, facilityID string) ([]TemporalNode, []TemporalEdge, error) {
	if len(history) == 0 {
		return nil, nil, fmt.Errorf("build entity graph: %w", covenant.ErrEmptyHistory)
	}

	nodes := make([]TemporalNode, 0, len(history))
	for i, t := range history {
		node := BuildNodeFromTransition(t, entityName, facilityID)
		if i < len(history)-1 {
			node.DurationDays = history[i+1].Timestamp.Sub(t.Timestamp).Hours() / hoursPerDay
		}
		nodes = append(nodes, node)
	}

	edges, err := BuildEdgesFromTransitions(history)
	if err != nil {
		return nil, nil, err
	}

	return nodes, edges, nil
}

// classifyRelation is the deterministic rule table for edge relation
// types. Rules are checked in order; the first match wins.
func classifyRelation(trigger string, from, to covenant.CovenantState) RelationType {
	switch {
	case trigger == covenant.TriggerWaiverGranted:
		return RelationMitigatedBy
	case to == covenant.StateBreach && from == covenant.StateAtRisk:
		return RelationCaused
	case to == covenant.StateBreach:
		return RelationEscalatedTo
	case from == covenant.StateBreach && (to == covenant.StateHealthy || to == covenant.StateResolved):
		return RelationResolvedBy
	case from == covenant.StateHealthy && to == covenant.StateAtRisk:
		return RelationPrecededBy
	case from == covenant.StateAtRisk && to == covenant.StateHealthy:
		return RelationResolvedBy
	default:
		return RelationPrecededBy
	}
}

func nodeID(entityID string, t covenant.StateTransition) string {
	return fmt.Sprintf("node-%s-%d", entityID, t.Timestamp.Unix())
}

func edgeID(fromID, toID string) string {
	return fmt.Sprintf("edge-%s-%s", fromID, toID)
}
