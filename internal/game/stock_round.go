package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ironrail/rails-server-go/internal/game/actions"
)

// StockRound runs the certificate-trading turns: each player may sell any
// number of holdings and finish the turn with one purchase or a pass. A full
// cycle of passes ends the round.
type StockRound struct {
	sup *RoundSupervisor
	g   *GameState
	st  *StockRoundState
}

// RoundName implements Round.
func (r *StockRound) RoundName() string {
	return fmt.Sprintf("Stock round %d", r.st.Number)
}

func (r *StockRound) player() *Player {
	return r.g.Players[r.st.TurnPlayer]
}

// SetPossibleActions implements Round.
func (r *StockRound) SetPossibleActions() bool {
	g := r.g
	p := r.player()
	ps := r.sup.possible

	for _, c := range g.Companies {
		if c.Closed {
			continue
		}
		if !c.Floated && c.President == "" {
			if prices := r.affordablePars(p); prices != "" {
				ps.Add(actions.StartCompany{Player: p.ID, Company: c.ID, Prices: prices})
			}
			continue
		}
		if c.Holdings[holdingIPO] > 0 && c.ParPrice > 0 && p.Cash >= c.ParPrice {
			ps.Add(actions.BuyCertificate{
				Player: p.ID, Company: c.ID, Source: holdingIPO,
				Shares: 1, Price: c.ParPrice,
			})
		}
		if c.Holdings[holdingPool] > 0 {
			price := g.Market.Price(c.PriceIndex)
			if p.Cash >= price {
				ps.Add(actions.BuyCertificate{
					Player: p.ID, Company: c.ID, Source: holdingPool,
					Shares: 1, Price: price,
				})
			}
		}
		if r.st.SellingAllowed {
			if max := maxSellable(g, p, c, true); max > 0 {
				ps.Add(actions.SellShares{
					Player: p.ID, Company: c.ID,
					MaxShares: max, Price: g.Market.Price(c.PriceIndex),
				})
			}
		}
	}

	ps.Add(actions.NullAction{Player: p.ID, Mode: actions.NullPass})
	return true
}

// affordablePars returns the par prices the player could start a company at,
// comma-joined. Starting costs two shares at par (the president certificate).
func (r *StockRound) affordablePars(p *Player) string {
	var out []string
	for _, par := range r.g.ParPriceList {
		if p.Cash >= 2*par {
			out = append(out, strconv.Itoa(par))
		}
	}
	return strings.Join(out, ",")
}

// Process implements Round.
func (r *StockRound) Process(a actions.Action) bool {
	switch act := a.(type) {
	case actions.StartCompany:
		return r.executeStart(act)
	case actions.BuyCertificate:
		return r.executeBuy(act)
	case actions.SellShares:
		return r.executeSell(act)
	case actions.NullAction:
		return r.executePass(act)
	}
	r.g.Report.Add("Rejected %q: cannot be processed in a stock round", a.String())
	return false
}

// Resume implements Round; stock rounds are never interrupted.
func (r *StockRound) Resume() {}

func (r *StockRound) executeStart(a actions.StartCompany) bool {
	g := r.g
	p := r.player()
	c, ok := g.CompanyByID(a.Company)
	if !ok || c.Closed || c.President != "" {
		g.Report.Add("Rejected start: %q cannot be started", a.Company)
		return false
	}
	parIndex, valid := g.Market.ParIndex(a.ParPrice)
	if !valid || !colourAllows(a.Prices, strconv.Itoa(a.ParPrice)) {
		g.Report.Add("Rejected start: %d is not a permitted par price", a.ParPrice)
		return false
	}
	cost := 2 * a.ParPrice
	if p.Cash < cost {
		g.Report.Add("Rejected start: %s holds %d, the president certificate costs %d",
			p.Name, p.Cash, cost)
		return false
	}

	_ = g.MoveCash(p.ID, BankID, cost)
	c.Holdings[holdingIPO] -= 2
	c.Holdings[p.ID] += 2
	c.President = p.ID
	c.ParPrice = a.ParPrice
	c.PriceIndex = parIndex
	g.Report.Add("%s starts %s at par %d", p.Name, c.Name, a.ParPrice)
	floatIfReady(g, c)
	r.recordAction(p)
	r.endTurn()
	return true
}

func (r *StockRound) executeBuy(a actions.BuyCertificate) bool {
	g := r.g
	p := r.player()
	c, ok := g.CompanyByID(a.Company)
	if !ok || c.Closed || c.President == "" {
		g.Report.Add("Rejected purchase: %q has no certificates for sale", a.Company)
		return false
	}
	if c.Holdings[a.Source] < a.Shares {
		g.Report.Add("Rejected purchase: %s of %s holds no certificate", a.Source, c.Name)
		return false
	}
	price := a.Price * a.Shares
	if p.Cash < price {
		g.Report.Add("Rejected purchase: %s holds %d, the certificate costs %d",
			p.Name, p.Cash, price)
		return false
	}

	_ = g.MoveCash(p.ID, BankID, price)
	c.Holdings[a.Source] -= a.Shares
	c.Holdings[p.ID] += a.Shares
	g.Report.Add("%s buys %d share(s) of %s from the %s for %d",
		p.Name, a.Shares, c.Name, a.Source, price)
	checkPresidency(g, c)
	floatIfReady(g, c)
	r.recordAction(p)
	r.endTurn()
	return true
}

func (r *StockRound) executeSell(a actions.SellShares) bool {
	g := r.g
	p := r.player()
	if !r.st.SellingAllowed {
		g.Report.Add("Rejected sale: selling is not allowed in the first stock round")
		return false
	}
	c, ok := g.CompanyByID(a.Company)
	if !ok || c.Closed {
		g.Report.Add("Rejected sale: %q is not open", a.Company)
		return false
	}
	if a.Number < 1 || a.Number > maxSellable(g, p, c, true) {
		g.Report.Add("Rejected sale: %s cannot sell %d share(s) of %s", p.Name, a.Number, c.Name)
		return false
	}

	sellPlayerShares(g, p, c, a.Number)
	r.recordAction(p)
	// Selling does not end the turn; the player may keep selling or buy.
	return true
}

func (r *StockRound) executePass(a actions.NullAction) bool {
	g := r.g
	p := r.player()
	if a.Mode != actions.NullPass {
		g.Report.Add("Rejected %q: only pass ends a stock turn", a.String())
		return false
	}
	g.Report.Add("%s passes", p.Name)
	r.st.Passes++
	if r.st.Passes >= len(g.Players) {
		if r.st.LastToAct != "" {
			next := g.PlayerAfter(r.st.LastToAct)
			g.SetPriorityPlayer(next.ID)
			g.Report.Add("%s has the priority deal", next.Name)
		}
		g.Report.Add("%s ends", r.RoundName())
		r.sup.nextRound(RoundStock)
		return true
	}
	r.endTurn()
	return true
}

func (r *StockRound) recordAction(p *Player) {
	r.st.Passes = 0
	r.st.LastToAct = p.ID
}

func (r *StockRound) endTurn() {
	for {
		r.st.TurnPlayer = (r.st.TurnPlayer + 1) % len(r.g.Players)
		if !r.player().Bankrupt {
			return
		}
	}
}

// --- shared share mechanics ---

// maxSellable returns how many shares of c the player may sell into the pool:
// bounded by the holding, the pool capacity, and the president-retention
// rule. With allowDump, a president may sell out entirely when another player
// holds enough shares to take over.
func maxSellable(g *GameState, p *Player, c *PublicCompany, allowDump bool) int {
	owned := c.Holdings[p.ID]
	room := c.NumShares/2 - c.Holdings[holdingPool]
	max := owned
	if room < max {
		max = room
	}
	if max <= 0 {
		return 0
	}
	if c.President == p.ID {
		best := 0
		for _, other := range g.Players {
			if other.ID != p.ID && c.Holdings[other.ID] > best {
				best = c.Holdings[other.ID]
			}
		}
		if !(allowDump && best >= 2) {
			if keep := owned - 2; keep < max {
				max = keep
			}
		}
	}
	if max < 0 {
		return 0
	}
	return max
}

// sellPlayerShares moves shares to the pool, pays the seller at the current
// price, drops the price one space per share, and re-checks the presidency.
// It returns the proceeds.
func sellPlayerShares(g *GameState, p *Player, c *PublicCompany, number int) int {
	price := g.Market.Price(c.PriceIndex)
	proceeds := number * price
	c.Holdings[p.ID] -= number
	c.Holdings[holdingPool] += number
	_ = g.MoveCash(BankID, p.ID, proceeds)
	c.PriceIndex = g.Market.Down(c.PriceIndex, number)
	g.Report.Add("%s sells %d share(s) of %s for %d; price drops to %d",
		p.Name, number, c.Name, proceeds, g.Market.Price(c.PriceIndex))
	checkPresidency(g, c)
	if g.Market.Closes(c.PriceIndex) {
		g.CloseCompany(c)
	}
	return proceeds
}

// checkPresidency hands the presidency to the largest holder. The incumbent
// keeps it on ties.
func checkPresidency(g *GameState, c *PublicCompany) {
	incumbent := c.Holdings[c.President]
	for _, p := range g.Players {
		if p.ID == c.President || p.Bankrupt {
			continue
		}
		if c.Holdings[p.ID] > incumbent && c.Holdings[p.ID] >= 2 {
			c.President = p.ID
			incumbent = c.Holdings[p.ID]
			g.Report.Add("%s becomes president of %s", p.Name, c.Name)
		}
	}
}

// floatIfReady floats the company once enough shares left the IPO, funding
// the treasury with the full capitalization.
func floatIfReady(g *GameState, c *PublicCompany) {
	if c.Floated {
		return
	}
	if c.NumShares-c.Holdings[holdingIPO] < g.Options.SharesToFloat {
		return
	}
	c.Floated = true
	capital := c.NumShares * c.ParPrice
	_ = g.MoveCash(BankID, c.ID, capital)
	g.Report.Add("%s floats and receives %d", c.Name, capital)
}
