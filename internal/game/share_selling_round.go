package game

import (
	"fmt"

	"github.com/ironrail/rails-server-go/internal/game/actions"
)

// ShareSellingRound is a forced sub-round: one player must raise a cash
// target by selling shares. It ends as soon as the target is met; a player
// with nothing left to sell goes bankrupt.
type ShareSellingRound struct {
	sup *RoundSupervisor
	g   *GameState
	st  *SellingState
}

// RoundName implements Round.
func (r *ShareSellingRound) RoundName() string {
	return fmt.Sprintf("Share selling round (%s must raise %d)", r.st.Player, r.st.CashToRaise)
}

func (r *ShareSellingRound) player() *Player {
	p, _ := r.g.PlayerByID(r.st.Player)
	return p
}

// SetPossibleActions implements Round. An empty enumeration means the player
// cannot raise the cash: that is bankruptcy, resolved on the spot.
func (r *ShareSellingRound) SetPossibleActions() bool {
	g := r.g
	p := r.player()
	any := false
	for _, c := range g.Companies {
		if c.Closed {
			continue
		}
		// The presidency of the company that forced the sale may never be
		// dumped to fund its own obligation.
		allowDump := r.st.AllowDump && c.ID != r.st.Company
		if max := maxSellable(g, p, c, allowDump); max > 0 {
			r.sup.possible.Add(actions.SellShares{
				Player: p.ID, Company: c.ID,
				MaxShares: max, Price: g.Market.Price(c.PriceIndex),
			})
			any = true
		}
	}
	if !any {
		r.declareBankruptcy(p)
	}
	return any
}

// Process implements Round.
func (r *ShareSellingRound) Process(a actions.Action) bool {
	sell, ok := a.(actions.SellShares)
	if !ok {
		r.g.Report.Add("Rejected %q: only share sales are possible now", a.String())
		return false
	}
	return r.executeSell(sell)
}

// Resume implements Round; the sub-round itself is never interrupted.
func (r *ShareSellingRound) Resume() {}

func (r *ShareSellingRound) executeSell(a actions.SellShares) bool {
	g := r.g
	p := r.player()
	c, ok := g.CompanyByID(a.Company)
	if !ok || c.Closed {
		g.Report.Add("Rejected sale: %q is not open", a.Company)
		return false
	}
	allowDump := r.st.AllowDump && c.ID != r.st.Company
	if a.Number < 1 || a.Number > maxSellable(g, p, c, allowDump) {
		g.Report.Add("Rejected sale: %s cannot sell %d share(s) of %s", p.Name, a.Number, c.Name)
		return false
	}

	proceeds := sellPlayerShares(g, p, c, a.Number)
	r.st.CashToRaise -= proceeds
	if r.st.CashToRaise <= 0 {
		g.Report.Add("%s has raised the required cash", p.Name)
		r.sup.FinishShareSellingRound()
	}
	return true
}

// declareBankruptcy marks the player bankrupt and, under the usual rules,
// ends the game.
func (r *ShareSellingRound) declareBankruptcy(p *Player) {
	g := r.g
	p.Bankrupt = true
	g.Report.Add("%s cannot raise %d and is bankrupt", p.Name, r.st.CashToRaise)
	if g.Options.BankruptcyEndsGame {
		r.sup.FinishGame()
		return
	}
	// The obligation stays unmet; hand control back to the suspended round
	// so it can resolve the pending action against an insolvent president.
	r.sup.FinishShareSellingRound()
	if !g.GameOver {
		// Bankruptcy was detected during legal-set generation; the restored
		// round must contribute its own options to the set being built.
		r.sup.currentRound().SetPossibleActions()
	}
}
