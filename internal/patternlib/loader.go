// Package patternlib loads and hot-reloads the seeded causal pattern
// library from a YAML file, and merges it with patterns derived at
// runtime from detected chains. The merged library is an immutable value
// passed explicitly into every engine call.
package patternlib

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ledgerline/covtrace/internal/temporal"
)

// patternsFile is the on-disk YAML layout.
type patternsFile struct {
	Patterns []patternSpec `yaml:"patterns"`
}

type patternSpec struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	EntryState      string `yaml:"entryState"`
	ExpectedOutcome string `yaml:"expectedOutcome"`
	Severity        string `yaml:"severity"`

	Occurrences           int     `yaml:"occurrences"`
	MeanDurationDays      float64 `yaml:"meanDurationDays"`
	StdDevDurationDays    float64 `yaml:"stdDevDurationDays"`
	CompletionProbability float64 `yaml:"completionProbability"`

	RecommendedActions []string `yaml:"recommendedActions"`
}

// Load reads and validates a pattern library file. Patterns without an
// explicit id get a generated one.
func Load(path string) ([]temporal.CausalPattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern file: %w", err)
	}

	var file patternsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse pattern file: %w", err)
	}

	patterns := make([]temporal.CausalPattern, 0, len(file.Patterns))
	for i, spec := range file.Patterns {
		p, err := spec.toPattern()
		if err != nil {
			return nil, fmt.Errorf("pattern %d (%s): %w", i, spec.Name, err)
		}
		patterns = append(patterns, p)
	}

	return patterns, nil
}

func (s patternSpec) toPattern() (temporal.CausalPattern, error) {
	if s.Name == "" {
		return temporal.CausalPattern{}, fmt.Errorf("name is required")
	}
	if s.EntryState == "" {
		return temporal.CausalPattern{}, fmt.Errorf("entryState is required")
	}
	if s.MeanDurationDays < 0 || s.StdDevDurationDays < 0 {
		return temporal.CausalPattern{}, fmt.Errorf("durations must be non-negative")
	}
	if s.CompletionProbability < 0 || s.CompletionProbability > 100 {
		return temporal.CausalPattern{}, fmt.Errorf("completionProbability must be in [0, 100]")
	}

	outcome, err := parseOutcome(s.ExpectedOutcome)
	if err != nil {
		return temporal.CausalPattern{}, err
	}

	severity, err := parseSeverity(s.Severity, outcome)
	if err != nil {
		return temporal.CausalPattern{}, err
	}

	id := s.ID
	if id == "" {
		id = "pattern-" + uuid.NewString()
	}

	minDur := s.MeanDurationDays - 2*s.StdDevDurationDays
	if minDur < 0 {
		minDur = 0
	}

	return temporal.CausalPattern{
		ID:              id,
		Name:            s.Name,
		Description:     s.Description,
		EntryPoint:      temporal.EntityStateRef{EntityType: temporal.EntityCovenant, State: s.EntryState},
		ExpectedOutcome: outcome,
		Severity:        severity,
		Statistics: temporal.PatternStatistics{
			Occurrences:           s.Occurrences,
			MeanDurationDays:      s.MeanDurationDays,
			StdDevDurationDays:    s.StdDevDurationDays,
			MinDurationDays:       minDur,
			MaxDurationDays:       s.MeanDurationDays + 2*s.StdDevDurationDays,
			CompletionProbability: s.CompletionProbability,
		},
		RecommendedActions: s.RecommendedActions,
	}, nil
}

func parseOutcome(s string) (temporal.OutcomeType, error) {
	switch temporal.OutcomeType(s) {
	case temporal.OutcomePositive, temporal.OutcomeNegative, temporal.OutcomeNeutral:
		return temporal.OutcomeType(s), nil
	case "":
		return temporal.OutcomeNeutral, nil
	default:
		return "", fmt.Errorf("unknown expectedOutcome %q", s)
	}
}

func parseSeverity(s string, outcome temporal.OutcomeType) (temporal.Severity, error) {
	if s == "" {
		return "", nil
	}
	if outcome != temporal.OutcomeNegative {
		return "", fmt.Errorf("severity is only valid for negative patterns")
	}
	switch temporal.Severity(s) {
	case temporal.SeverityLow, temporal.SeverityMedium, temporal.SeverityHigh, temporal.SeverityCritical:
		return temporal.Severity(s), nil
	default:
		return "", fmt.Errorf("unknown severity %q", s)
	}
}

// Merge combines seeded and derived patterns into a fresh slice. Seeded
// patterns win id collisions so curated entries cannot be shadowed by
// runtime derivations.
func Merge(seeded, derived []temporal.CausalPattern) []temporal.CausalPattern {
	out := make([]temporal.CausalPattern, 0, len(seeded)+len(derived))
	seen := make(map[string]bool, len(seeded))

	for _, p := range seeded {
		out = append(out, p)
		seen[p.ID] = true
	}
	for _, p := range derived {
		if !seen[p.ID] {
			out = append(out, p)
			seen[p.ID] = true
		}
	}
	return out
}
