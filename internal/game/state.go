package game

import (
	"fmt"

	"github.com/ironrail/rails-server-go/internal/game/phase"
)

// BankID is the cash-holder key for the bank.
const BankID = "bank"

// Options are the variant toggles a game definition configures.
type Options struct {
	// SkipFirstStockRound runs the first operating round set directly after
	// a fully-sold start round.
	SkipFirstStockRound bool
	// BankruptcyEndsGame finishes the game immediately on player bankruptcy.
	BankruptcyEndsGame bool
	// GameEndsImmediately finishes at the end of the current operating round
	// once game over is pending, instead of the end of the OR set.
	GameEndsImmediately bool
	// PoolPaysToCompany routes dividends on pool shares to the treasury.
	PoolPaysToCompany bool
	// PresidentMustAddCash decides whether an emergency train purchase may
	// or must draw on the president's cash before selling shares.
	PresidentMustAddCash bool
	// SharesToFloat is the share count that floats a company.
	SharesToFloat int
	// TokenCost is the price of a normal base-token lay.
	TokenCost int
}

// StartItem is one slot of the initial-offering packet.
type StartItem struct {
	Private string
	Price   int
	Sold    bool
}

// GameState is the root of all mutable game data. Every counter that would
// otherwise be a global lives here; one instance exists per game, and the
// supervisor's Process call is the sole mutation boundary.
type GameState struct {
	GameID string

	Players   []*Player
	Companies []*PublicCompany
	Privates  []*PrivateCompany

	BankCash int
	Supply   *TrainSupply
	Board    *Board
	Market   *StockMarket
	Phase    *phase.Manager

	StartPacket []StartItem
	// ParPriceList holds the par prices companies may start at.
	ParPriceList []int
	Options      Options

	Report *Report

	// Round is the active round context; see RoundCtx.
	Round RoundCtx

	// Round numbering.
	SRNumber         int
	ORNumber         int
	RelativeORNumber int
	NumORsThisSet    int
	StartRoundsRun   int

	GameOverPending bool
	GameOver        bool
}

// Clone deep-copies the state. Snapshots taken before each accepted action
// are what undo restores.
func (g *GameState) Clone() *GameState {
	cp := *g
	cp.Players = make([]*Player, len(g.Players))
	for i, p := range g.Players {
		cp.Players[i] = p.clone()
	}
	cp.Companies = make([]*PublicCompany, len(g.Companies))
	for i, c := range g.Companies {
		cp.Companies[i] = c.clone()
	}
	cp.Privates = make([]*PrivateCompany, len(g.Privates))
	for i, pc := range g.Privates {
		cp.Privates[i] = pc.clone()
	}
	cp.Supply = g.Supply.clone()
	cp.Board = g.Board.clone()
	cp.Market = g.Market // immutable
	cp.Phase = g.Phase.Clone()
	cp.StartPacket = append([]StartItem(nil), g.StartPacket...)
	cp.ParPriceList = append([]int(nil), g.ParPriceList...)
	cp.Report = g.Report.clone()
	cp.Round = g.Round.clone()
	return &cp
}

// PlayerByID returns the player with the given ID.
func (g *GameState) PlayerByID(id string) (*Player, bool) {
	for _, p := range g.Players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// PlayerIndex returns the turn-order index of the player.
func (g *GameState) PlayerIndex(id string) int {
	for i, p := range g.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// PlayerAfter returns the next player in turn order.
func (g *GameState) PlayerAfter(id string) *Player {
	i := g.PlayerIndex(id)
	if i < 0 {
		return nil
	}
	return g.Players[(i+1)%len(g.Players)]
}

// CompanyByID returns the public company with the given ID.
func (g *GameState) CompanyByID(id string) (*PublicCompany, bool) {
	for _, c := range g.Companies {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// PrivateByID returns the private company with the given ID.
func (g *GameState) PrivateByID(id string) (*PrivateCompany, bool) {
	for _, pc := range g.Privates {
		if pc.ID == id {
			return pc, true
		}
	}
	return nil, false
}

// SpecialByID returns a special property and its owning private.
func (g *GameState) SpecialByID(id string) (*SpecialProperty, *PrivateCompany, bool) {
	for _, pc := range g.Privates {
		for _, sp := range pc.Specials {
			if sp.ID == id {
				return sp, pc, true
			}
		}
	}
	return nil, nil, false
}

// PresidentOf returns the president of the company.
func (g *GameState) PresidentOf(c *PublicCompany) (*Player, bool) {
	return g.PlayerByID(c.President)
}

// Cash returns the balance of a cash holder (bank, player, or company).
func (g *GameState) Cash(holder string) (int, error) {
	ref, err := g.cashRef(holder)
	if err != nil {
		return 0, err
	}
	return *ref, nil
}

func (g *GameState) cashRef(holder string) (*int, error) {
	if holder == BankID {
		return &g.BankCash, nil
	}
	if p, ok := g.PlayerByID(holder); ok {
		return &p.Cash, nil
	}
	if c, ok := g.CompanyByID(holder); ok {
		return &c.Cash, nil
	}
	return nil, fmt.Errorf("unknown cash holder %q", holder)
}

// MoveCash transfers amount between two cash holders. The bank may go
// negative, which raises the game-over-pending condition (bank broken);
// players and companies may not.
func (g *GameState) MoveCash(from, to string, amount int) error {
	if amount < 0 {
		return fmt.Errorf("negative cash transfer %d", amount)
	}
	src, err := g.cashRef(from)
	if err != nil {
		return err
	}
	dst, err := g.cashRef(to)
	if err != nil {
		return err
	}
	if from != BankID && *src < amount {
		return fmt.Errorf("%s holds %d, cannot pay %d", from, *src, amount)
	}
	*src -= amount
	*dst += amount
	if g.BankCash <= 0 && !g.GameOverPending {
		g.GameOverPending = true
		g.Report.Add("The bank is broken; the game ends after the current set of operating rounds")
	}
	return nil
}

// CheckPriceExtremes raises game-over-pending when a company token reaches
// the top of the market, and closes companies driven onto the closing space.
func (g *GameState) CheckPriceExtremes(c *PublicCompany) {
	if g.Market.AtTop(c.PriceIndex) && !g.GameOverPending {
		g.GameOverPending = true
		g.Report.Add("%s reached the maximum share price; the game ends after the current set of operating rounds", c.Name)
	}
}

// CloseCompany closes a public company: trains to the pool, tokens stay,
// certificates become worthless.
func (g *GameState) CloseCompany(c *PublicCompany) {
	for _, t := range c.Trains {
		g.Supply.Discard(t)
	}
	c.Trains = nil
	c.Closed = true
	g.Report.Add("%s closes", c.Name)
}

// ClosePrivate closes a private company and its special properties.
func (g *GameState) ClosePrivate(pc *PrivateCompany) {
	pc.Closed = true
	for _, sp := range pc.Specials {
		sp.Exercised = true
	}
	g.Report.Add("Private %s closes", pc.Name)
}

// StartPacketSold reports whether every start-packet item has been bought.
func (g *GameState) StartPacketSold() bool {
	for _, item := range g.StartPacket {
		if !item.Sold {
			return false
		}
	}
	return true
}

// PriorityPlayer returns the holder of the priority deal, defaulting to the
// first player.
func (g *GameState) PriorityPlayer() *Player {
	for _, p := range g.Players {
		if p.Priority {
			return p
		}
	}
	return g.Players[0]
}

// SetPriorityPlayer moves the priority deal.
func (g *GameState) SetPriorityPlayer(id string) {
	for _, p := range g.Players {
		p.Priority = p.ID == id
	}
}

// OverLimitCompanies returns companies holding more trains than the current
// phase allows, in operating order.
func (g *GameState) OverLimitCompanies() []*PublicCompany {
	limit := g.Phase.Current().TrainLimit
	var out []*PublicCompany
	for _, c := range g.Companies {
		if !c.Closed && len(c.Trains) > limit {
			out = append(out, c)
		}
	}
	return out
}

// ApplyPhaseChange executes the side effects of a phase advancement: rusting
// trains, releasing later train types and closing privates.
func (g *GameState) ApplyPhaseChange(change phase.Change) {
	g.Report.Add("Phase %s begins", change.To)
	for _, released := range change.ReleasedTrains {
		g.Supply.Release(released)
		g.Report.Add("%s trains are now on sale", released)
	}
	for _, rusted := range change.RustedTrains {
		for _, c := range g.Companies {
			kept := c.Trains[:0]
			for _, t := range c.Trains {
				if t.Type == rusted {
					g.Report.Add("%s train of %s rusts", t.Type, c.Name)
				} else {
					kept = append(kept, t)
				}
			}
			c.Trains = kept
		}
		// Rusted trains also leave the pool.
		keptPool := g.Supply.Pool[:0]
		for _, t := range g.Supply.Pool {
			if t.Type != rusted {
				keptPool = append(keptPool, t)
			}
		}
		g.Supply.Pool = keptPool
	}
	if change.PrivatesClose {
		for _, pc := range g.Privates {
			if !pc.Closed {
				g.ClosePrivate(pc)
			}
		}
	}
}
