package game

import (
	"fmt"

	"github.com/ironrail/rails-server-go/internal/game/actions"
)

// StartRound sells the start packet: each player in turn buys the cheapest
// unsold item at face price or passes. The round ends when the packet is
// sold out or every player passed in succession.
type StartRound struct {
	sup *RoundSupervisor
	g   *GameState
	st  *StartRoundState
}

// RoundName implements Round.
func (r *StartRound) RoundName() string {
	return fmt.Sprintf("Start round %d", r.st.Number)
}

func (r *StartRound) player() *Player {
	return r.g.Players[r.st.TurnPlayer]
}

// cheapestUnsold returns the first unsold packet item; the packet is ordered
// by price.
func (r *StartRound) cheapestUnsold() *StartItem {
	for i := range r.g.StartPacket {
		if !r.g.StartPacket[i].Sold {
			return &r.g.StartPacket[i]
		}
	}
	return nil
}

// SetPossibleActions implements Round.
func (r *StartRound) SetPossibleActions() bool {
	p := r.player()
	if item := r.cheapestUnsold(); item != nil && p.Cash >= item.Price {
		r.sup.possible.Add(actions.BuyStartItem{
			Player: p.ID, Item: item.Private, Price: item.Price,
		})
	}
	r.sup.possible.Add(actions.NullAction{Player: p.ID, Mode: actions.NullPass})
	return true
}

// Process implements Round.
func (r *StartRound) Process(a actions.Action) bool {
	switch act := a.(type) {
	case actions.BuyStartItem:
		return r.executeBuy(act)
	case actions.NullAction:
		return r.executePass(act)
	}
	r.g.Report.Add("Rejected %q: cannot be processed in a start round", a.String())
	return false
}

// Resume implements Round; start rounds are never interrupted.
func (r *StartRound) Resume() {}

func (r *StartRound) executeBuy(a actions.BuyStartItem) bool {
	g := r.g
	p := r.player()
	item := r.cheapestUnsold()
	if item == nil || item.Private != a.Item {
		g.Report.Add("Rejected purchase: %q is not the next item for sale", a.Item)
		return false
	}
	if a.Price != item.Price {
		g.Report.Add("Rejected purchase: price %d differs from the face price %d", a.Price, item.Price)
		return false
	}
	if p.Cash < item.Price {
		g.Report.Add("Rejected purchase: %s holds %d, the item costs %d", p.Name, p.Cash, item.Price)
		return false
	}
	pc, ok := g.PrivateByID(item.Private)
	if !ok {
		g.Report.Add("Rejected purchase: unknown private %q", item.Private)
		return false
	}

	_ = g.MoveCash(p.ID, BankID, item.Price)
	item.Sold = true
	pc.Owner = p.ID
	r.st.Passes = 0
	g.Report.Add("%s buys %s for %d", p.Name, pc.Name, item.Price)

	if g.StartPacketSold() {
		next := g.PlayerAfter(p.ID)
		g.SetPriorityPlayer(next.ID)
		g.Report.Add("The start packet is sold out; %s has the priority deal", next.Name)
		r.sup.nextRound(RoundStart)
		return true
	}
	r.advanceTurn()
	return true
}

func (r *StartRound) executePass(a actions.NullAction) bool {
	g := r.g
	p := r.player()
	if a.Mode != actions.NullPass {
		g.Report.Add("Rejected %q: only pass is available", a.String())
		return false
	}
	g.Report.Add("%s passes", p.Name)
	r.st.Passes++
	if r.st.Passes >= len(g.Players) {
		g.Report.Add("All players passed; %s ends", r.RoundName())
		r.sup.nextRound(RoundStart)
		return true
	}
	r.advanceTurn()
	return true
}

func (r *StartRound) advanceTurn() {
	for {
		r.st.TurnPlayer = (r.st.TurnPlayer + 1) % len(r.g.Players)
		if !r.player().Bankrupt {
			return
		}
	}
}
