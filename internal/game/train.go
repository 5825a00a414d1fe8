package game

import "fmt"

// TrainType describes one class of train in the supply.
type TrainType struct {
	Name string
	Cost int
	// Amount is the number available from the IPO; negative means unlimited
	// (new copies are cloned back into the supply after each purchase).
	Amount int
	// StartsPhase names the phase that begins when the first train of this
	// type is bought from the supply.
	StartsPhase string
	// ExchangeValue is the discount granted when exchanging an older train
	// for this one; zero disables exchange.
	ExchangeValue int
	// DualWith names a second type this train may be assigned to, or empty.
	DualWith string
}

// Train is one train instance.
type Train struct {
	ID   string
	Type string
	// AssignedType resolves a dual train to one of its two types; cleared
	// before the train is discarded.
	AssignedType string
}

// TrainSupply tracks the bank's new (IPO) and used (pool) trains.
type TrainSupply struct {
	Types []TrainType
	// Remaining maps type name to trains left in the IPO (-1 = unlimited).
	Remaining map[string]int
	// Bought records types that have had at least one supply purchase, which
	// is what triggers phase advancement.
	Bought map[string]bool
	// Released marks types put on sale ahead of the strict type order, as a
	// phase side effect.
	Released map[string]bool
	Pool     []*Train
	serial   int
}

// NewTrainSupply builds the supply from the type list.
func NewTrainSupply(types []TrainType) *TrainSupply {
	s := &TrainSupply{
		Types:     types,
		Remaining: make(map[string]int, len(types)),
		Bought:    make(map[string]bool),
		Released:  make(map[string]bool),
	}
	for _, tt := range types {
		s.Remaining[tt.Name] = tt.Amount
	}
	return s
}

func (s *TrainSupply) clone() *TrainSupply {
	cp := &TrainSupply{
		Types:     s.Types,
		Remaining: make(map[string]int, len(s.Remaining)),
		Bought:    make(map[string]bool, len(s.Bought)),
		Released:  make(map[string]bool, len(s.Released)),
		Pool:      make([]*Train, len(s.Pool)),
		serial:    s.serial,
	}
	for k, v := range s.Remaining {
		cp.Remaining[k] = v
	}
	for k, v := range s.Bought {
		cp.Bought[k] = v
	}
	for k, v := range s.Released {
		cp.Released[k] = v
	}
	for i, t := range s.Pool {
		tc := *t
		cp.Pool[i] = &tc
	}
	return cp
}

// TypeByName looks up a train type.
func (s *TrainSupply) TypeByName(name string) (TrainType, bool) {
	for _, tt := range s.Types {
		if tt.Name == name {
			return tt, true
		}
	}
	return TrainType{}, false
}

// Available reports whether a new train of the type can be bought. Trains
// sell in type order: only the cheapest type with stock remaining, plus
// released types, are on sale.
func (s *TrainSupply) Available(name string) bool {
	n, ok := s.Remaining[name]
	if !ok || n == 0 {
		return false
	}
	if s.Released[name] {
		return true
	}
	for _, tt := range s.Types {
		if s.Remaining[tt.Name] != 0 {
			return tt.Name == name
		}
	}
	return false
}

// Release puts the named types on sale ahead of the strict type order.
func (s *TrainSupply) Release(names ...string) {
	for _, n := range names {
		s.Released[n] = true
	}
}

// CheapestAvailable returns the lowest-cost type still in supply.
func (s *TrainSupply) CheapestAvailable() (TrainType, bool) {
	for _, tt := range s.Types {
		if s.Available(tt.Name) {
			return tt, true
		}
	}
	return TrainType{}, false
}

// TakeNew removes one train of the type from the IPO and returns a fresh
// instance. FirstOfType reports whether this was the first supply purchase of
// the type, the trigger for phase advancement.
func (s *TrainSupply) TakeNew(name string) (train *Train, firstOfType bool, err error) {
	n, ok := s.Remaining[name]
	if !ok || n == 0 {
		return nil, false, fmt.Errorf("no %s train in supply", name)
	}
	if n > 0 {
		s.Remaining[name] = n - 1
	}
	first := !s.Bought[name]
	s.Bought[name] = true
	s.serial++
	return &Train{ID: fmt.Sprintf("%s-%d", name, s.serial), Type: name}, first, nil
}

// TakeFromPool removes and returns a used train of the type.
func (s *TrainSupply) TakeFromPool(name string) (*Train, bool) {
	for i, t := range s.Pool {
		if t.Type == name {
			s.Pool = append(s.Pool[:i:i], s.Pool[i+1:]...)
			return t, true
		}
	}
	return nil, false
}

// PoolTypes returns the distinct train types in the pool, in supply order.
func (s *TrainSupply) PoolTypes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, tt := range s.Types {
		for _, t := range s.Pool {
			if t.Type == tt.Name && !seen[tt.Name] {
				seen[tt.Name] = true
				out = append(out, tt.Name)
			}
		}
	}
	return out
}

// Discard returns a train to the pool.
func (s *TrainSupply) Discard(t *Train) {
	t.AssignedType = ""
	s.Pool = append(s.Pool, t)
}
