package game

import (
	"fmt"

	"github.com/ironrail/rails-server-go/internal/game/actions"
)

// TreasuryShareRound lets a company trade its own shares against the pool
// during its operating turn. The president acts for the company; Done hands
// control back to the operating round.
type TreasuryShareRound struct {
	sup *RoundSupervisor
	g   *GameState
	st  *TreasuryState
}

// RoundName implements Round.
func (r *TreasuryShareRound) RoundName() string {
	return fmt.Sprintf("Treasury share trading (%s)", r.st.Company)
}

func (r *TreasuryShareRound) company() *PublicCompany {
	c, _ := r.g.CompanyByID(r.st.Company)
	return c
}

// SetPossibleActions implements Round.
func (r *TreasuryShareRound) SetPossibleActions() bool {
	g := r.g
	c := r.company()
	price := g.Market.Price(c.PriceIndex)

	if c.Holdings[holdingPool] > 0 && c.Cash >= price {
		r.sup.possible.Add(actions.BuyCertificate{
			Player: c.ID, Company: c.ID, Source: holdingPool,
			Shares: 1, Price: price,
		})
	}
	if c.Holdings[holdingTreasury] > 0 && c.Holdings[holdingPool] < c.NumShares/2 {
		max := c.Holdings[holdingTreasury]
		if room := c.NumShares/2 - c.Holdings[holdingPool]; room < max {
			max = room
		}
		r.sup.possible.Add(actions.SellShares{
			Player: c.ID, Company: c.ID, MaxShares: max, Price: price,
		})
	}
	r.sup.possible.Add(actions.NullAction{Player: c.President, Mode: actions.NullDone})
	return true
}

// Process implements Round.
func (r *TreasuryShareRound) Process(a actions.Action) bool {
	switch act := a.(type) {
	case actions.BuyCertificate:
		return r.executeBuy(act)
	case actions.SellShares:
		return r.executeSell(act)
	case actions.NullAction:
		if act.Mode != actions.NullDone {
			r.g.Report.Add("Rejected %q: only done ends treasury trading", a.String())
			return false
		}
		r.g.Report.Add("%s finishes trading treasury shares", r.company().Name)
		r.sup.FinishTreasuryShareRound()
		return true
	}
	r.g.Report.Add("Rejected %q: cannot be processed while trading treasury shares", a.String())
	return false
}

// Resume implements Round; treasury trading is never interrupted.
func (r *TreasuryShareRound) Resume() {}

func (r *TreasuryShareRound) executeBuy(a actions.BuyCertificate) bool {
	g := r.g
	c := r.company()
	price := g.Market.Price(c.PriceIndex)
	if a.Company != c.ID || a.Source != holdingPool {
		g.Report.Add("Rejected purchase: %s may only buy its own pool shares", c.Name)
		return false
	}
	if c.Holdings[holdingPool] < 1 {
		g.Report.Add("Rejected purchase: no %s share in the pool", c.Name)
		return false
	}
	if c.Cash < price {
		g.Report.Add("Rejected purchase: %s holds %d, the share costs %d", c.Name, c.Cash, price)
		return false
	}

	_ = g.MoveCash(c.ID, BankID, price)
	c.Holdings[holdingPool]--
	c.Holdings[holdingTreasury]++
	g.Report.Add("%s buys one of its own shares from the pool for %d", c.Name, price)
	return true
}

func (r *TreasuryShareRound) executeSell(a actions.SellShares) bool {
	g := r.g
	c := r.company()
	room := c.NumShares/2 - c.Holdings[holdingPool]
	max := c.Holdings[holdingTreasury]
	if room < max {
		max = room
	}
	if a.Number < 1 || a.Number > max {
		g.Report.Add("Rejected sale: %s cannot sell %d treasury share(s)", c.Name, a.Number)
		return false
	}

	price := g.Market.Price(c.PriceIndex)
	proceeds := a.Number * price
	c.Holdings[holdingTreasury] -= a.Number
	c.Holdings[holdingPool] += a.Number
	_ = g.MoveCash(BankID, c.ID, proceeds)
	g.Report.Add("%s sells %d treasury share(s) for %d", c.Name, a.Number, proceeds)
	return true
}
