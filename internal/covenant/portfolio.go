package covenant

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// Portfolio is a materialized snapshot of all tracked facilities plus the
// per-covenant transition histories the engine analyzes. The surrounding
// application produces these snapshots; this package only loads them.
type Portfolio struct {
	Name       string             `json:"name"`
	AsOf       time.Time          `json:"asOf"`
	Facilities []FacilitySnapshot `json:"facilities"`

	// Histories maps covenant id to its time-ordered transitions.
	Histories map[string][]StateTransition `json:"histories"`
}

// LoadPortfolio reads a portfolio snapshot from a JSON file and sorts
// every history chronologically so downstream consumers can rely on
// time ordering.
func LoadPortfolio(path string) (*Portfolio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read portfolio snapshot: %w", err)
	}

	var p Portfolio
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse portfolio snapshot: %w", err)
	}

	for id, history := range p.Histories {
		sort.SliceStable(history, func(i, j int) bool {
			return history[i].Timestamp.Before(history[j].Timestamp)
		})
		p.Histories[id] = history
	}

	return &p, nil
}

// Facility returns the snapshot for the given facility id.
func (p *Portfolio) Facility(id string) (FacilitySnapshot, error) {
	for _, f := range p.Facilities {
		if f.FacilityID == id {
			return f, nil
		}
	}
	return FacilitySnapshot{}, fmt.Errorf("facility %q: %w", id, ErrFacilityNotFound)
}

// FacilityHistories returns the transition histories of all covenants
// belonging to the given facility, keyed by covenant id.
func (p *Portfolio) FacilityHistories(facilityID string) map[string][]StateTransition {
	out := make(map[string][]StateTransition)
	for _, f := range p.Facilities {
		if f.FacilityID != facilityID {
			continue
		}
		for _, c := range f.Covenants {
			if history, ok := p.Histories[c.CovenantID]; ok {
				out[c.CovenantID] = history
			}
		}
	}
	return out
}
