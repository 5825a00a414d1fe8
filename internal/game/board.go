package game

import "strings"

// Hex is one map location. Geometry and route finding live outside the
// engine; the hex carries only what lay validation needs.
type Hex struct {
	ID string
	// Cost is the terrain cost of laying a tile here.
	Cost int
	// Colour and TileID describe the tile currently on the hex; an empty
	// colour means unlaid ground (counts as pre-yellow).
	Colour string
	TileID string
	// TokenSlots is the number of station token slots on the current tile.
	TokenSlots int
	// Tokens holds the company IDs with a base token here.
	Tokens []string
	// HomeOf lists companies whose home base is this hex. An undecided home
	// claim blocks a slot unless NeverBlocking is set.
	HomeOf        []string
	NeverBlocking bool
}

func (h *Hex) clone() *Hex {
	cp := *h
	cp.Tokens = append([]string(nil), h.Tokens...)
	cp.HomeOf = append([]string(nil), h.HomeOf...)
	return &cp
}

// HasTokenOf reports whether the company already has a token on this hex.
func (h *Hex) HasTokenOf(company string) bool {
	for _, id := range h.Tokens {
		if id == company {
			return true
		}
	}
	return false
}

// TileInfo describes one tile class in the tile set.
type TileInfo struct {
	ID     string
	Colour string
	// Count is the number physically available; negative means unlimited.
	Count int
	// Slots is the number of token slots the tile provides.
	Slots int
}

// Board is the hex map plus the shared tile set.
type Board struct {
	Hexes map[string]*Hex
	// Tiles maps tile ID to its class; Remaining tracks physical supply.
	Tiles     map[string]TileInfo
	Remaining map[string]int
}

// NewBoard builds a board from hex and tile lists.
func NewBoard(hexes []Hex, tiles []TileInfo) *Board {
	b := &Board{
		Hexes:     make(map[string]*Hex, len(hexes)),
		Tiles:     make(map[string]TileInfo, len(tiles)),
		Remaining: make(map[string]int, len(tiles)),
	}
	for i := range hexes {
		h := hexes[i]
		b.Hexes[h.ID] = &h
	}
	for _, t := range tiles {
		b.Tiles[t.ID] = t
		b.Remaining[t.ID] = t.Count
	}
	return b
}

func (b *Board) clone() *Board {
	cp := &Board{
		Hexes:     make(map[string]*Hex, len(b.Hexes)),
		Tiles:     b.Tiles,
		Remaining: make(map[string]int, len(b.Remaining)),
	}
	for id, h := range b.Hexes {
		cp.Hexes[id] = h.clone()
	}
	for id, n := range b.Remaining {
		cp.Remaining[id] = n
	}
	return cp
}

// Hex returns the hex with the given ID.
func (b *Board) Hex(id string) (*Hex, bool) {
	h, ok := b.Hexes[id]
	return h, ok
}

// TileAvailable reports whether a physical tile of the ID remains.
func (b *Board) TileAvailable(id string) bool {
	n, ok := b.Remaining[id]
	return ok && n != 0
}

// TakeTile consumes one tile from the set and returns the previous tile on
// the hex (if any) to it.
func (b *Board) TakeTile(id string, replacing string) {
	if n := b.Remaining[id]; n > 0 {
		b.Remaining[id] = n - 1
	}
	if replacing != "" {
		if n, ok := b.Remaining[replacing]; ok && n >= 0 {
			b.Remaining[replacing] = n + 1
		}
	}
}

// locationAllows checks a comma-joined location restriction against a hex ID;
// an empty restriction allows every hex.
func locationAllows(locations, hexID string) bool {
	if locations == "" {
		return true
	}
	for _, loc := range strings.Split(locations, ",") {
		if strings.TrimSpace(loc) == hexID {
			return true
		}
	}
	return false
}

// colourAllows checks a comma-joined colour restriction; empty allows all.
func colourAllows(colours, colour string) bool {
	if colours == "" {
		return true
	}
	for _, c := range strings.Split(colours, ",") {
		if strings.TrimSpace(c) == colour {
			return true
		}
	}
	return false
}
