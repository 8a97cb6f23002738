package temporal

import (
	"fmt"
	"time"
)

// AnalyzeCascade computes the downstream impact of a trigger node via
// breadth-first traversal of the directed edge set. Every outgoing edge
// of a visited node is recorded even when its target was already visited
// (multi-path evidence is preserved), but each target is enqueued at most
// once.
func AnalyzeCascade(triggerID string, nodes []TemporalNode, edges []TemporalEdge) (EventCascade, error) {
	byID := make(map[string]TemporalNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	trigger, ok := byID[triggerID]
	if !ok {
		return EventCascade{}, fmt.Errorf("trigger node %q not found", triggerID)
	}

	outgoing := make(map[string][]TemporalEdge)
	for _, e := range edges {
		outgoing[e.FromNodeID] = append(outgoing[e.FromNodeID], e)
	}

	visited := map[string]bool{triggerID: true}
	queue := []string{triggerID}
	var cascadeEvents []TemporalNode
	var cascadeEdges []TemporalEdge

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, e := range outgoing[current] {
			cascadeEdges = append(cascadeEdges, e)

			if visited[e.ToNodeID] {
				continue
			}
			visited[e.ToNodeID] = true

			if target, ok := byID[e.ToNodeID]; ok {
				cascadeEvents = append(cascadeEvents, target)
			}
			queue = append(queue, e.ToNodeID)
		}
	}

	cascade := EventCascade{
		TriggerEvent:  trigger,
		CascadeEvents: cascadeEvents,
		CascadeEdges:  cascadeEdges,
		Depth:         cascadeDepth(triggerID, visited, cascadeEdges),
		Breadth:       cascadeBreadth(trigger, cascadeEvents),
		TotalImpact:   cascadeImpact(trigger, cascadeEvents),
	}

	cascade.IsActive, cascade.CompletedAt = cascadeActivity(trigger, cascadeEvents)
	return cascade, nil
}

// cascadeDepth is the longest path length from the trigger, computed by
// repeated relaxation over the traversed edges. Time-ordered transitions
// cannot form cycles, but the pass count is still capped at the visited
// node count so termination holds even on malformed input.
func cascadeDepth(triggerID string, visited map[string]bool, edges []TemporalEdge) int {
	dist := map[string]int{triggerID: 0}

	for pass := 0; pass < len(visited); pass++ {
		changed := false
		for _, e := range edges {
			if !visited[e.FromNodeID] || !visited[e.ToNodeID] {
				continue
			}
			if d, ok := dist[e.FromNodeID]; ok && d+1 > dist[e.ToNodeID] {
				dist[e.ToNodeID] = d + 1
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	depth := 0
	for _, d := range dist {
		if d > depth {
			depth = d
		}
	}
	return depth
}

// cascadeBreadth is the largest count of cascade nodes sharing one
// day-granularity timestamp bucket.
func cascadeBreadth(trigger TemporalNode, events []TemporalNode) int {
	buckets := make(map[string]int)
	bucket := func(n TemporalNode) {
		buckets[n.Timestamp.Format(time.DateOnly)]++
	}

	bucket(trigger)
	for _, n := range events {
		bucket(n)
	}

	breadth := 0
	for _, count := range buckets {
		if count > breadth {
			breadth = count
		}
	}
	return breadth
}

func cascadeImpact(trigger TemporalNode, events []TemporalNode) CascadeImpact {
	entities := make(map[string]bool)
	last := trigger.Timestamp
	for _, n := range events {
		entities[n.EntityID] = true
		if n.Timestamp.After(last) {
			last = n.Timestamp
		}
	}

	return CascadeImpact{
		AffectedEntities: len(entities),
		StateCount:       len(events),
		ElapsedDays:      last.Sub(trigger.Timestamp).Hours() / hoursPerDay,
	}
}

// cascadeActivity reports whether any reachable node is still current
// (duration 0), and the completion time when every node has settled.
func cascadeActivity(trigger TemporalNode, events []TemporalNode) (bool, *time.Time) {
	all := append([]TemporalNode{trigger}, events...)

	var completedAt time.Time
	for _, n := range all {
		if n.DurationDays == 0 {
			return true, nil
		}
		settled := n.Timestamp.Add(time.Duration(n.DurationDays * float64(hoursPerDay) * float64(time.Hour)))
		if settled.After(completedAt) {
			completedAt = settled
		}
	}
	return false, &completedAt
}
