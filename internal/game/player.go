package game

// Player is one participant. Cash moves only through GameState.MoveCash so
// that the bank stays balanced.
type Player struct {
	ID        string
	Name      string
	Cash      int
	Bankrupt  bool
	// Priority marks the holder of the priority deal for the next stock round.
	Priority bool
}

func (p *Player) clone() *Player {
	cp := *p
	return &cp
}

// Worth returns the player's total worth: cash, share value at current
// market price, and face value of owned privates.
func (g *GameState) Worth(p *Player) int {
	worth := p.Cash
	for _, c := range g.Companies {
		shares := c.Holdings[p.ID]
		if shares > 0 && !c.Closed {
			worth += shares * g.Market.Price(c.PriceIndex)
		}
	}
	for _, pc := range g.Privates {
		if pc.Owner == p.ID && !pc.Closed {
			worth += pc.BasePrice
		}
	}
	return worth
}
