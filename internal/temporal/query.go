package temporal

// ApplyQuery runs a declarative filter pipeline over a node/edge
// collection. Filters apply in a fixed order: entity types, states,
// facility ids, from date, to date (all on nodes), then edges are pruned
// to those with both endpoints surviving, then relation types and the
// confidence floor, and finally the limit truncates the node list only.
// Absent filter fields are no-ops; there are no error cases.
func ApplyQuery(q TemporalGraphQuery, nodes []TemporalNode, edges []TemporalEdge) QueryResult {
	filtered := nodes

	if len(q.EntityTypes) > 0 {
		allowed := make(map[EntityType]bool, len(q.EntityTypes))
		for _, t := range q.EntityTypes {
			allowed[t] = true
		}
		filtered = filterNodes(filtered, func(n TemporalNode) bool { return allowed[n.EntityType] })
	}

	if len(q.States) > 0 {
		allowed := make(map[string]bool, len(q.States))
		for _, s := range q.States {
			allowed[s] = true
		}
		filtered = filterNodes(filtered, func(n TemporalNode) bool { return allowed[n.State] })
	}

	if len(q.FacilityIDs) > 0 {
		allowed := make(map[string]bool, len(q.FacilityIDs))
		for _, id := range q.FacilityIDs {
			allowed[id] = true
		}
		filtered = filterNodes(filtered, func(n TemporalNode) bool {
			return allowed[n.EntityID] || allowed[n.ParentIDs["facility"]]
		})
	}

	if q.FromDate != nil {
		filtered = filterNodes(filtered, func(n TemporalNode) bool { return !n.Timestamp.Before(*q.FromDate) })
	}

	if q.ToDate != nil {
		filtered = filterNodes(filtered, func(n TemporalNode) bool { return !n.Timestamp.After(*q.ToDate) })
	}

	surviving := make(map[string]bool, len(filtered))
	for _, n := range filtered {
		surviving[n.ID] = true
	}

	filteredEdges := make([]TemporalEdge, 0, len(edges))
	for _, e := range edges {
		if surviving[e.FromNodeID] && surviving[e.ToNodeID] {
			filteredEdges = append(filteredEdges, e)
		}
	}

	if len(q.RelationTypes) > 0 {
		allowed := make(map[RelationType]bool, len(q.RelationTypes))
		for _, r := range q.RelationTypes {
			allowed[r] = true
		}
		kept := filteredEdges[:0]
		for _, e := range filteredEdges {
			if allowed[e.RelationType] {
				kept = append(kept, e)
			}
		}
		filteredEdges = kept
	}

	if q.MinConfidence > 0 {
		kept := filteredEdges[:0]
		for _, e := range filteredEdges {
			if e.Confidence >= q.MinConfidence {
				kept = append(kept, e)
			}
		}
		filteredEdges = kept
	}

	if q.Limit > 0 && len(filtered) > q.Limit {
		filtered = filtered[:q.Limit]
	}

	return QueryResult{Nodes: filtered, Edges: filteredEdges}
}

func filterNodes(nodes []TemporalNode, keep func(TemporalNode) bool) []TemporalNode {
	out := make([]TemporalNode, 0, len(nodes))
	for _, n := range nodes {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}
