package game

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// StateChecksum computes a deterministic SHA-256 digest over the game state.
// Save files carry it so a reload can detect divergence between the replayed
// state and the state that was saved. Map iteration order is normalized by
// sorting keys; the report buffer is excluded, it is presentation only.
func StateChecksum(g *GameState) string {
	var b strings.Builder

	fmt.Fprintf(&b, "game=%s phase=%s sr=%d or=%d ror=%d bank=%d over=%v pending=%v\n",
		g.GameID, g.Phase.Name(), g.SRNumber, g.ORNumber, g.RelativeORNumber,
		g.BankCash, g.GameOver, g.GameOverPending)
	fmt.Fprintf(&b, "round=%s\n", g.Round.Kind)

	for _, p := range g.Players {
		fmt.Fprintf(&b, "player=%s cash=%d bankrupt=%v priority=%v\n",
			p.ID, p.Cash, p.Bankrupt, p.Priority)
	}

	for _, c := range g.Companies {
		fmt.Fprintf(&b, "company=%s cash=%d pres=%s par=%d price=%d floated=%v closed=%v operated=%v loans=%d tokens=%d bonuses=%d\n",
			c.ID, c.Cash, c.President, c.ParPrice, c.PriceIndex,
			c.Floated, c.Closed, c.HasOperated, c.Loans, c.TokensLaid, c.Bonuses)
		holders := make([]string, 0, len(c.Holdings))
		for h := range c.Holdings {
			holders = append(holders, h)
		}
		sort.Strings(holders)
		for _, h := range holders {
			if c.Holdings[h] != 0 {
				fmt.Fprintf(&b, "  holding=%s shares=%d\n", h, c.Holdings[h])
			}
		}
		for _, t := range c.Trains {
			fmt.Fprintf(&b, "  train=%s type=%s assigned=%s\n", t.ID, t.Type, t.AssignedType)
		}
	}

	for _, pc := range g.Privates {
		fmt.Fprintf(&b, "private=%s owner=%s closed=%v\n", pc.ID, pc.Owner, pc.Closed)
		for _, sp := range pc.Specials {
			fmt.Fprintf(&b, "  special=%s exercised=%v\n", sp.ID, sp.Exercised)
		}
	}

	hexIDs := make([]string, 0, len(g.Board.Hexes))
	for id := range g.Board.Hexes {
		hexIDs = append(hexIDs, id)
	}
	sort.Strings(hexIDs)
	for _, id := range hexIDs {
		h := g.Board.Hexes[id]
		if h.TileID == "" && len(h.Tokens) == 0 {
			continue
		}
		fmt.Fprintf(&b, "hex=%s tile=%s colour=%s tokens=%s\n",
			h.ID, h.TileID, h.Colour, strings.Join(h.Tokens, ","))
	}

	typeNames := make([]string, 0, len(g.Supply.Remaining))
	for name := range g.Supply.Remaining {
		typeNames = append(typeNames, name)
	}
	sort.Strings(typeNames)
	for _, name := range typeNames {
		fmt.Fprintf(&b, "supply=%s remaining=%d\n", name, g.Supply.Remaining[name])
	}
	for _, t := range g.Supply.Pool {
		fmt.Fprintf(&b, "pooltrain=%s type=%s\n", t.ID, t.Type)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
