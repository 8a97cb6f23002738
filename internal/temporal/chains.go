package temporal

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ledgerline/covtrace/internal/covenant"
)

// DefaultMinChainLength is the minimum history length considered by
// chain detection when the caller does not specify one.
const DefaultMinChainLength = 2

// Signature separators. Neither appears in the closed state constant
// set, so delimiter collisions cannot occur.
const (
	signatureStepSep  = "|"
	signatureStateSep = "→"
)

// EntityHistory is one entity's ordered transition history, the unit of
// input for chain detection.
type EntityHistory struct {
	EntityID    string
	EntityName  string
	FacilityID  string
	Transitions []covenant.StateTransition
}

// DetectCausalChains groups entity histories by structural signature
// into causal chains. Histories shorter than minChainLength are silently
// skipped. The first occurrence of a signature creates the chain record;
// later occurrences only increment its count. Probabilities are
// normalized globally: each chain's probability is its share of the
// summed occurrence counts across all returned chains, so chains compete
// on relative frequency. Output is sorted descending by occurrence count.
func DetectCausalChains(histories []EntityHistory, minChainLength int) ([]CausalChain, error) {
	if minChainLength <= 0 {
		minChainLength = DefaultMinChainLength
	}

	bySignature := make(map[string]*CausalChain)
	var order []string

	for _, h := range histories {
		if len(h.Transitions) < minChainLength {
			continue
		}

		sig := chainSignature(h.Transitions)
		if existing, ok := bySignature[sig]; ok {
			existing.OccurrenceCount++
			continue
		}

		chain, err := buildChain(h, sig)
		if err != nil {
			return nil, err
		}
		bySignature[sig] = &chain
		order = append(order, sig)
	}

	chains := make([]CausalChain, 0, len(order))
	total := 0
	for _, sig := range order {
		total += bySignature[sig].OccurrenceCount
	}
	for _, sig := range order {
		c := *bySignature[sig]
		if total > 0 {
			c.Probability = float64(c.OccurrenceCount) / float64(total) * 100
		}
		chains = append(chains, c)
	}

	sort.SliceStable(chains, func(i, j int) bool {
		return chains[i].OccurrenceCount > chains[j].OccurrenceCount
	})

	return chains, nil
}

// buildChain materializes the chain record for the first observed
// occurrence of a signature.
func buildChain(h EntityHistory, sig string) (CausalChain, error) {
	nodes, edges, err := BuildEntityGraph(h.Transitions, h.EntityName, h.FacilityID)
	if err != nil {
		return CausalChain{}, fmt.Errorf("chain %q: %w", sig, err)
	}

	nodeIDs := make([]string, len(nodes))
	for i, n := range nodes {
		nodeIDs[i] = n.ID
	}

	first := h.Transitions[0]
	last := h.Transitions[len(h.Transitions)-1]
	outcome := chainOutcome(last.ToState)

	chain := CausalChain{
		ID:                "chain-" + h.EntityID + "-" + fmt.Sprint(first.Timestamp.Unix()),
		Signature:         sig,
		NodeIDs:           nodeIDs,
		Edges:             edges,
		TotalDurationDays: last.Timestamp.Sub(first.Timestamp).Hours() / hoursPerDay,
		OccurrenceCount:   1,
		EntryPoint:        EntityStateRef{EntityType: EntityCovenant, State: string(first.FromState)},
		ExitPoint:         EntityStateRef{EntityType: EntityCovenant, State: string(last.ToState)},
		OutcomeType:       outcome,
	}

	if outcome == OutcomeNegative {
		chain.Severity = chainSeverity(h.Transitions)
	}

	return chain, nil
}

// chainSignature builds the structural grouping key for a history by
// joining its from→to labels.
func chainSignature(transitions []covenant.StateTransition) string {
	steps := make([]string, len(transitions))
	for i, t := range transitions {
		steps[i] = string(t.FromState) + signatureStateSep + string(t.ToState)
	}
	return strings.Join(steps, signatureStepSep)
}

// chainOutcome derives outcome polarity from the final state of a
// sequence.
func chainOutcome(final covenant.CovenantState) OutcomeType {
	switch final {
	case covenant.StateHealthy, covenant.StateResolved:
		return OutcomePositive
	case covenant.StateBreach, covenant.StateAtRisk:
		return OutcomeNegative
	case covenant.StateWaived:
		return OutcomeNeutral
	default:
		return OutcomeNeutral
	}
}

// chainSeverity grades a negative chain. Breach severity scales with the
// number of failed tests leading up to it; at-risk severity thresholds on
// the last observed headroom.
func chainSeverity(transitions []covenant.StateTransition) Severity {
	last := transitions[len(transitions)-1]

	switch last.ToState {
	case covenant.StateBreach:
		failed := 0
		for _, t := range transitions {
			if t.TestResult != nil && !t.TestResult.Passed {
				failed++
			}
		}
		switch {
		case failed >= 3:
			return SeverityCritical
		case failed >= 2:
			return SeverityHigh
		default:
			return SeverityMedium
		}

	case covenant.StateAtRisk:
		if last.TestResult != nil {
			switch {
			case last.TestResult.HeadroomPct < 5:
				return SeverityHigh
			case last.TestResult.HeadroomPct < 10:
				return SeverityMedium
			}
		}
		return SeverityLow

	default:
		return SeverityLow
	}
}
