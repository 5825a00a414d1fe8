// Package phase holds the externally-advanced ruleset snapshot consulted by
// the round engines. A phase changes a handful of times per game, always as a
// side effect of a train purchase, and is queried fresh at every step rather
// than cached across steps.
package phase

import (
	"fmt"
)

// Phase is one immutable ruleset snapshot.
type Phase struct {
	Name        string
	TileColours []string // colours legal to lay, in rank order
	// TileLays maps colour to the number of normal lays per company turn.
	// Colours missing from the map default to one lay.
	TileLays         map[string]int
	TrainLimit       int
	NumberOfORs      int
	PrivatesSellable bool     // companies may buy privates from players
	TreasuryTrading  bool     // companies may trade their own treasury shares
	TrainTrading     bool     // cross-company train trades are permitted
	RustedTrains     []string // train types that rust when this phase starts
	ReleasedTrains   []string // train types newly available for purchase
	ClosesPrivates   bool     // all private companies close when this phase starts
}

// AllowsColour reports whether tiles of colour c may be laid.
func (p Phase) AllowsColour(c string) bool {
	for _, col := range p.TileColours {
		if col == c {
			return true
		}
	}
	return false
}

// LaysFor returns the per-turn normal lay count for colour c.
func (p Phase) LaysFor(c string) int {
	if n, ok := p.TileLays[c]; ok {
		return n
	}
	return 1
}

// Change describes the side effects of one phase advancement.
type Change struct {
	From           string
	To             string
	RustedTrains   []string
	ReleasedTrains []string
	PrivatesClose  bool
	TrainLimit     int
}

// Manager owns the ordered phase list and the current index. The phase list
// is immutable after construction; only the index moves, which keeps cloning
// for state snapshots cheap.
type Manager struct {
	phases []Phase
	index  int
}

// NewManager validates and wraps an ordered phase list. An empty or
// malformed list is a configuration defect and fails construction.
func NewManager(phases []Phase) (*Manager, error) {
	if len(phases) == 0 {
		return nil, fmt.Errorf("phase list is empty")
	}
	seen := make(map[string]bool, len(phases))
	for i, p := range phases {
		if p.Name == "" {
			return nil, fmt.Errorf("phase %d has no name", i)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate phase name %q", p.Name)
		}
		seen[p.Name] = true
		if p.TrainLimit <= 0 {
			return nil, fmt.Errorf("phase %q has train limit %d", p.Name, p.TrainLimit)
		}
	}
	return &Manager{phases: phases, index: 0}, nil
}

// Current returns the active phase.
func (m *Manager) Current() Phase {
	return m.phases[m.index]
}

// Name returns the active phase name.
func (m *Manager) Name() string {
	return m.phases[m.index].Name
}

// Index returns the active phase index.
func (m *Manager) Index() int {
	return m.index
}

// Has reports whether a phase with the given name exists.
func (m *Manager) Has(name string) bool {
	for _, p := range m.phases {
		if p.Name == name {
			return true
		}
	}
	return false
}

// AdvanceTo moves the current phase forward to the named phase and returns
// the accumulated side effects. Advancing to the current or an earlier phase
// is a no-op; phases are never re-entered.
func (m *Manager) AdvanceTo(name string) (Change, bool) {
	target := -1
	for i, p := range m.phases {
		if p.Name == name {
			target = i
			break
		}
	}
	if target <= m.index {
		return Change{}, false
	}

	change := Change{From: m.Name(), To: name}
	for i := m.index + 1; i <= target; i++ {
		p := m.phases[i]
		change.RustedTrains = append(change.RustedTrains, p.RustedTrains...)
		change.ReleasedTrains = append(change.ReleasedTrains, p.ReleasedTrains...)
		if p.ClosesPrivates {
			change.PrivatesClose = true
		}
	}
	m.index = target
	change.TrainLimit = m.Current().TrainLimit
	return change, true
}

// Clone returns a copy sharing the immutable phase list.
func (m *Manager) Clone() *Manager {
	return &Manager{phases: m.phases, index: m.index}
}
