package actions

import "strings"

// Set is the ordered legal-action set published after every mutation.
// Order is the enumeration order of the generating round and is part of the
// deterministic contract: identical state yields an identical set.
type Set struct {
	items []Action
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{items: make([]Action, 0, 8)}
}

// Add appends options to the set.
func (s *Set) Add(as ...Action) {
	s.items = append(s.items, as...)
}

// Clear removes all options.
func (s *Set) Clear() {
	s.items = s.items[:0]
}

// Items returns the options in publication order. The slice is shared; do
// not mutate.
func (s *Set) Items() []Action {
	return s.items
}

// Len returns the number of options.
func (s *Set) Len() int { return len(s.items) }

// IsEmpty reports whether the set holds no options.
func (s *Set) IsEmpty() bool { return len(s.items) == 0 }

// Contains reports whether a submitted action matches one of the enumerated
// options (option-field equality, see SameOption).
func (s *Set) Contains(a Action) bool {
	for _, item := range s.items {
		if SameOption(item, a) {
			return true
		}
	}
	return false
}

// ContainsType reports whether any option has the given type.
func (s *Set) ContainsType(t Type) bool {
	for _, item := range s.items {
		if item.Type() == t {
			return true
		}
	}
	return false
}

// OfType returns all options with the given type, in publication order.
func (s *Set) OfType(t Type) []Action {
	var out []Action
	for _, item := range s.items {
		if item.Type() == t {
			out = append(out, item)
		}
	}
	return out
}

// Clone returns a shallow copy of the set.
func (s *Set) Clone() *Set {
	out := &Set{items: make([]Action, len(s.items))}
	copy(out.items, s.items)
	return out
}

// String renders the set for diagnostics.
func (s *Set) String() string {
	parts := make([]string, len(s.items))
	for i, item := range s.items {
		parts[i] = item.String()
	}
	return "[" + strings.Join(parts, "; ") + "]"
}
