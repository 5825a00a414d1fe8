package game

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ironrail/rails-server-go/internal/game/actions"
)

// Step is one stage of a company's operating turn.
type Step int

const (
	StepInitial Step = iota
	StepLayTrack
	StepLayToken
	StepCalcRevenue
	StepPayout // obsolete, unconditionally skipped
	StepBuyTrain
	StepTradeShares
	StepDiscardTrains // entered out of sequence on train-limit excess
	StepFinal
)

var stepNames = map[Step]string{
	StepInitial:       "INITIAL",
	StepLayTrack:      "LAY_TRACK",
	StepLayToken:      "LAY_TOKEN",
	StepCalcRevenue:   "CALC_REVENUE",
	StepPayout:        "PAYOUT",
	StepBuyTrain:      "BUY_TRAIN",
	StepTradeShares:   "TRADE_SHARES",
	StepDiscardTrains: "DISCARD_TRAINS",
	StepFinal:         "FINAL",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STEP_%d", int(s))
}

// ORState is the operating round bookkeeping: the ordered company queue with
// its cursor, the step cursor, and the per-turn accumulators.
type ORState struct {
	Step         Step
	CompanyOrder []string
	Cursor       int

	// Per-turn state, reset by initTurn.
	TileLays        map[string]int // remaining normal lays per colour
	NormalTokenLaid bool
	SpentOnPrivates int
	SpentOnTiles    int
	SpentOnTokens   int
	SpentOnTrains   int
	TrainsBought    []string
	LoansThisTurn   int

	// ReturnStep is where control goes back to once forced discards finish.
	ReturnStep Step
	// DoneSkipCompat drops the next Done during a reload; see the
	// trade-shares skip rules.
	DoneSkipCompat bool
}

func (st *ORState) clone() *ORState {
	cp := *st
	cp.CompanyOrder = append([]string(nil), st.CompanyOrder...)
	cp.TileLays = make(map[string]int, len(st.TileLays))
	for k, v := range st.TileLays {
		cp.TileLays[k] = v
	}
	cp.TrainsBought = append([]string(nil), st.TrainsBought...)
	return &cp
}

// newORState builds the operating queue: floated, non-closed companies in
// operating precedence (market price descending, stable).
func newORState(g *GameState) *ORState {
	st := &ORState{Step: StepInitial, TileLays: map[string]int{}}
	for _, c := range g.Companies {
		if c.Floated && !c.Closed {
			st.CompanyOrder = append(st.CompanyOrder, c.ID)
		}
	}
	sortByPrecedence(g, st.CompanyOrder)
	return st
}

func sortByPrecedence(g *GameState, ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, _ := g.CompanyByID(ids[i])
		b, _ := g.CompanyByID(ids[j])
		return g.Market.Price(a.PriceIndex) > g.Market.Price(b.PriceIndex)
	})
}

// OperatingRound sequences one operating round across the company queue. It
// is a stateless facade over ORState.
type OperatingRound struct {
	sup *RoundSupervisor
	g   *GameState
	st  *ORState
}

// RoundName implements Round.
func (r *OperatingRound) RoundName() string {
	return fmt.Sprintf("Operating round %d.%d", r.g.SRNumber, r.g.RelativeORNumber)
}

func (r *OperatingRound) company() *PublicCompany {
	c, _ := r.g.CompanyByID(r.st.CompanyOrder[r.st.Cursor])
	return c
}

func (r *OperatingRound) president() *Player {
	p, _ := r.g.PresidentOf(r.company())
	return p
}

// initTurn starts the current company's turn: the acting player is the
// president, per-turn accumulators are cleared, and the step cursor walks
// off INITIAL as a non-actionable transition.
func (r *OperatingRound) initTurn() {
	c := r.company()
	ph := r.g.Phase.Current()
	r.st.Step = StepInitial
	r.st.TileLays = make(map[string]int, len(ph.TileColours))
	for _, colour := range ph.TileColours {
		r.st.TileLays[colour] = ph.LaysFor(colour)
	}
	r.st.NormalTokenLaid = false
	r.st.SpentOnPrivates = 0
	r.st.SpentOnTiles = 0
	r.st.SpentOnTokens = 0
	r.st.SpentOnTrains = 0
	r.st.TrainsBought = nil
	r.st.LoansThisTurn = 0
	r.g.Report.Add("%s operates (president %s)", c.Name, c.President)
	r.nextStep()
}

// nextStep advances the step cursor, applying the skip predicates. The
// cursor is monotonically non-decreasing within a turn except for the forced
// DISCARD_TRAINS re-entry.
func (r *OperatingRound) nextStep() {
	c := r.company()
	for {
		r.st.Step++
		switch r.st.Step {
		case StepLayTrack:
			return
		case StepLayToken:
			if c.FreeTokens() == 0 {
				continue
			}
			return
		case StepCalcRevenue:
			if !c.HasTrain() {
				// A company that cannot run trains withholds zero revenue
				// automatically; this still counts as passing the step.
				r.g.Report.Add("%s has no train and withholds zero revenue", c.Name)
				if done := r.distributeDividend(c, 0, actions.AllocWithhold); done {
					return
				}
				continue
			}
			return
		case StepPayout:
			continue
		case StepBuyTrain:
			return
		case StepTradeShares:
			if !r.mayEnterTradeShares(c) {
				continue
			}
			buy, sell := r.treasuryTradesPossible(c)
			if !buy && !sell {
				if r.sup.replaying {
					r.st.DoneSkipCompat = true
				}
				continue
			}
			r.sup.StartTreasuryShareTradingRound(c.ID)
			return
		case StepDiscardTrains:
			continue
		default:
			r.finishTurn()
			return
		}
	}
}

// mayEnterTradeShares gates the TRADE_SHARES step: the company must be
// allowed to trade, have operated before, and the phase must permit
// treasury trading.
func (r *OperatingRound) mayEnterTradeShares(c *PublicCompany) bool {
	return c.MayTradeShares && c.HasOperated && r.g.Phase.Current().TreasuryTrading
}

// treasuryTradesPossible reports whether a treasury buy or sell could
// actually happen at current share levels and price.
func (r *OperatingRound) treasuryTradesPossible(c *PublicCompany) (buy, sell bool) {
	price := r.g.Market.Price(c.PriceIndex)
	buy = c.Holdings[holdingPool] > 0 && c.Cash >= price
	sell = c.Holdings[holdingTreasury] > 0 && c.Holdings[holdingPool] < c.NumShares/2
	return buy, sell
}

// finishTurn marks the company operated, closes privates whose special
// property has been exercised, and either advances the queue or finishes
// the round.
func (r *OperatingRound) finishTurn() {
	c := r.company()
	if !c.Closed {
		c.HasOperated = true
	}
	r.closeExercisedPrivates(c)

	// Operating precedence may have changed since the round started; only
	// companies not yet visited this round may move.
	if r.st.Cursor+1 < len(r.st.CompanyOrder) {
		unvisited := r.st.CompanyOrder[r.st.Cursor+1:]
		sortByPrecedence(r.g, unvisited)
	}
	r.st.Cursor++
	for r.st.Cursor < len(r.st.CompanyOrder) {
		next, ok := r.g.CompanyByID(r.st.CompanyOrder[r.st.Cursor])
		if ok && !next.Closed {
			break
		}
		r.st.Cursor++
	}
	if r.st.Cursor >= len(r.st.CompanyOrder) {
		r.g.Report.Add("%s is finished", r.RoundName())
		r.sup.nextRound(RoundOperating)
		return
	}
	r.initTurn()
}

func (r *OperatingRound) closeExercisedPrivates(c *PublicCompany) {
	for _, pc := range r.g.Privates {
		if pc.Closed {
			continue
		}
		if pc.Owner != c.ID && pc.Owner != c.President {
			continue
		}
		for _, sp := range pc.Specials {
			if sp.Exercised && sp.ClosesPrivate {
				r.g.ClosePrivate(pc)
				break
			}
		}
	}
}

// Resume implements Round: it re-drives the pending action recorded before
// an interrupting sub-round, or, after a treasury trading round, advances
// past the TRADE_SHARES step.
func (r *OperatingRound) Resume() {
	if a := r.sup.takePending(); a != nil {
		switch act := a.(type) {
		case actions.BuyTrain:
			r.executeBuyTrain(act)
		case actions.RepayLoans:
			r.executeRepayLoans(act)
		case actions.SetDividend:
			r.executeSetDividend(act)
		default:
			r.sup.logger.Error("pending action of unexpected type",
				zap.String("action", a.String()))
		}
		return
	}
	if r.st.Step == StepTradeShares {
		r.nextStep()
	}
}

// stepForced reports whether the current step forces a specific action,
// suppressing Done and the cross-cutting extras.
func (r *OperatingRound) stepForced() bool {
	switch r.st.Step {
	case StepDiscardTrains, StepCalcRevenue:
		return true
	case StepLayTrack:
		return r.homeTokenOutstanding(r.company())
	}
	return false
}

func (r *OperatingRound) homeTokenOutstanding(c *PublicCompany) bool {
	return !c.HomeTokenLaid && c.HomeHex != "" && c.FreeTokens() > 0
}

// SetPossibleActions implements Round: the step-dependent legal-action
// generation.
func (r *OperatingRound) SetPossibleActions() bool {
	c := r.company()
	ps := r.sup.possible

	switch r.st.Step {
	case StepLayTrack:
		if r.homeTokenOutstanding(c) {
			// Forced: the home base token must go down before any track.
			ps.Add(actions.BaseTokenLay{
				Company:   c.ID,
				Locations: c.HomeHex,
				Home:      true,
			})
			return true
		}
		if colours := r.normalLayColours(); colours != "" {
			ps.Add(actions.TileLay{Company: c.ID, Colours: colours})
		}
		for _, sp := range r.eligibleSpecials(c, SpecialTileLay) {
			ps.Add(actions.TileLay{
				Company:   c.ID,
				Colours:   r.specialColours(sp),
				Locations: sp.Locations,
				SpecialID: sp.ID,
			})
		}
		ps.Add(actions.NullAction{Player: c.President, Mode: actions.NullSkip})

	case StepLayToken:
		if c.FreeTokens() > 0 && !r.st.NormalTokenLaid && r.anyTokenableHex(c) {
			ps.Add(actions.BaseTokenLay{Company: c.ID})
		}
		for _, sp := range r.eligibleSpecials(c, SpecialTokenLay) {
			ps.Add(actions.BaseTokenLay{
				Company:   c.ID,
				Locations: sp.Locations,
				SpecialID: sp.ID,
			})
		}
		ps.Add(actions.NullAction{Player: c.President, Mode: actions.NullSkip})

	case StepCalcRevenue:
		ps.Add(actions.SetDividend{
			Company: c.ID,
			Allowed: r.allowedAllocations(c),
		})

	case StepBuyTrain:
		r.addTrainBuyingActions(c, ps)
		if !c.MustOwnTrain || c.HasTrain() {
			ps.Add(actions.NullAction{Player: c.President, Mode: actions.NullDone})
		}

	case StepDiscardTrains:
		if dc := r.currentDiscarder(); dc != nil {
			ps.Add(actions.DiscardTrain{Company: dc.ID, Forced: true})
		}
	}

	if !r.stepForced() {
		r.addCrossCuttingActions(c, ps)
	}
	return !ps.IsEmpty()
}

// normalLayColours joins the colours with remaining normal lays, in phase
// rank order.
func (r *OperatingRound) normalLayColours() string {
	var colours []string
	for _, colour := range r.g.Phase.Current().TileColours {
		if r.st.TileLays[colour] > 0 {
			colours = append(colours, colour)
		}
	}
	return strings.Join(colours, ",")
}

func (r *OperatingRound) specialColours(sp *SpecialProperty) string {
	if sp.Colours != "" {
		return sp.Colours
	}
	return strings.Join(r.g.Phase.Current().TileColours, ",")
}

// eligibleSpecials returns the unexercised specials of the given kind owned
// by the company or its president, whose constraints currently hold.
func (r *OperatingRound) eligibleSpecials(c *PublicCompany, kind SpecialKind) []*SpecialProperty {
	var out []*SpecialProperty
	for _, pc := range r.g.Privates {
		if pc.Closed {
			continue
		}
		if pc.Owner != c.ID && pc.Owner != c.President {
			continue
		}
		for _, sp := range pc.Specials {
			if sp.Kind != kind || sp.Exercised {
				continue
			}
			if kind == SpecialTokenLay && c.FreeTokens() == 0 {
				continue
			}
			out = append(out, sp)
		}
	}
	return out
}

// anyTokenableHex reports whether some hex has a free, unblocked slot the
// company could token.
func (r *OperatingRound) anyTokenableHex(c *PublicCompany) bool {
	for _, h := range r.g.Board.Hexes {
		if r.tokenSlotFree(h, c) == nil && !h.HasTokenOf(c.ID) {
			return true
		}
	}
	return false
}

// tokenSlotFree validates slot availability on a hex for the company,
// including home-reservation blocking. It returns nil when a slot is free.
func (r *OperatingRound) tokenSlotFree(h *Hex, c *PublicCompany) error {
	if h.TokenSlots == 0 {
		return fmt.Errorf("hex %s has no token slots", h.ID)
	}
	free := h.TokenSlots - len(h.Tokens)
	if !h.NeverBlocking {
		for _, homeID := range h.HomeOf {
			if homeID == c.ID {
				continue
			}
			home, ok := r.g.CompanyByID(homeID)
			if ok && !home.Closed && !home.HomeTokenLaid {
				// An undecided home claim reserves a slot.
				free--
			}
		}
	}
	if free <= 0 {
		return fmt.Errorf("no free token slot on hex %s", h.ID)
	}
	return nil
}

// allowedAllocations computes the dividend choices for the company.
func (r *OperatingRound) allowedAllocations(c *PublicCompany) actions.AllocSet {
	if c.AlwaysSplit {
		return actions.AllocSet(0).With(actions.AllocSplit)
	}
	set := actions.AllocSet(0).With(actions.AllocWithhold).With(actions.AllocPayout)
	if c.MaySplit {
		set = set.With(actions.AllocSplit)
	}
	return set
}

// addTrainBuyingActions enumerates every affordable train purchase: new
// trains per type with exchange variants, used pool trains, and
// cross-company trades in presidency precedence. When nothing is affordable
// and a train is mandatory, the emergency path is generated instead.
func (r *OperatingRound) addTrainBuyingActions(c *PublicCompany, ps *actions.Set) {
	limit := r.g.Phase.Current().TrainLimit
	atLimit := len(c.Trains) >= limit
	added := false

	for _, tt := range r.g.Supply.Types {
		if !r.g.Supply.Available(tt.Name) {
			continue
		}
		if !atLimit && c.Cash >= tt.Cost {
			ps.Add(actions.BuyTrain{
				Company: c.ID, TrainType: tt.Name,
				FromOwner: holdingIPO, FixedPrice: tt.Cost,
			})
			added = true
		}
		if tt.ExchangeValue > 0 && c.HasTrain() && c.Cash >= tt.Cost-tt.ExchangeValue {
			ps.Add(actions.BuyTrain{
				Company: c.ID, TrainType: tt.Name,
				FromOwner: holdingIPO, FixedPrice: tt.Cost - tt.ExchangeValue,
				Exchange: true,
			})
			added = true
		}
	}

	if !atLimit {
		for _, name := range r.g.Supply.PoolTypes() {
			tt, _ := r.g.Supply.TypeByName(name)
			if c.Cash >= tt.Cost {
				ps.Add(actions.BuyTrain{
					Company: c.ID, TrainType: name,
					FromOwner: holdingPool, FixedPrice: tt.Cost,
				})
				added = true
			}
		}
	}

	if !atLimit && r.g.Phase.Current().TrainTrading && c.Cash >= 1 {
		for _, seller := range r.companiesByPresidency(c) {
			if seller.ID == c.ID || !seller.HasTrain() {
				continue
			}
			for _, name := range distinctTrainTypes(seller.Trains) {
				ps.Add(actions.BuyTrain{
					Company: c.ID, TrainType: name, FromOwner: seller.ID,
				})
				added = true
			}
		}
	}

	if !added && c.MustOwnTrain && !c.HasTrain() {
		if tt, ok := r.g.Supply.CheapestAvailable(); ok {
			ps.Add(actions.BuyTrain{
				Company: c.ID, TrainType: tt.Name,
				FromOwner: holdingIPO, FixedPrice: tt.Cost,
				Emergency: true,
			})
		}
	}
}

// companiesByPresidency orders companies with the current president's
// companies first, then the remaining players' in turn order.
func (r *OperatingRound) companiesByPresidency(c *PublicCompany) []*PublicCompany {
	var out []*PublicCompany
	start := r.g.PlayerIndex(c.President)
	for i := 0; i < len(r.g.Players); i++ {
		player := r.g.Players[(start+i)%len(r.g.Players)]
		for _, other := range r.g.Companies {
			if !other.Closed && other.Floated && other.President == player.ID {
				out = append(out, other)
			}
		}
	}
	return out
}

func distinctTrainTypes(trains []*Train) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range trains {
		if !seen[t.Type] {
			seen[t.Type] = true
			out = append(out, t.Type)
		}
	}
	return out
}

// currentDiscarder returns the single excess-holding company whose discard
// choice is exposed: companies of the next player in turn order, starting at
// the current president, are checked first.
func (r *OperatingRound) currentDiscarder() *PublicCompany {
	limit := r.g.Phase.Current().TrainLimit
	start := r.g.PlayerIndex(r.company().President)
	for i := 0; i < len(r.g.Players); i++ {
		player := r.g.Players[(start+i)%len(r.g.Players)]
		for _, c := range r.g.Companies {
			if !c.Closed && c.President == player.ID && len(c.Trains) > limit {
				return c
			}
		}
	}
	return nil
}

// addCrossCuttingActions exposes the step-independent affordances: manual
// private closes, private buy offers, common specials, bonus tokens, loans,
// destination declarations, and extraordinary costs.
func (r *OperatingRound) addCrossCuttingActions(c *PublicCompany, ps *actions.Set) {
	if r.g.Phase.Current().PrivatesSellable {
		start := r.g.PlayerIndex(c.President)
		for i := 0; i < len(r.g.Players); i++ {
			player := r.g.Players[(start+i)%len(r.g.Players)]
			for _, pc := range r.g.Privates {
				if pc.Closed || pc.Owner != player.ID {
					continue
				}
				min := pc.BasePrice / 2
				max := pc.BasePrice * 2
				if c.Cash >= min {
					ps.Add(actions.BuyPrivate{
						Company: c.ID, Private: pc.ID, Seller: player.ID,
						MinPrice: min, MaxPrice: max,
					})
				}
			}
		}
	}

	for _, pc := range r.g.Privates {
		if pc.Closed || !pc.CloseManually {
			continue
		}
		if pc.Owner == c.ID || pc.Owner == c.President {
			ps.Add(actions.ClosePrivate{Player: c.President, Private: pc.ID})
		}
	}

	for _, pc := range r.g.Privates {
		if pc.Closed {
			continue
		}
		owned := pc.Owner == c.ID || pc.Owner == c.President
		for _, sp := range pc.Specials {
			if sp.Exercised {
				continue
			}
			switch {
			case sp.Kind == SpecialBonusToken && owned:
				if sp.Price > 0 {
					ps.Add(actions.BuyBonusToken{
						Company: c.ID, SpecialID: sp.ID, Name: sp.Name,
						Price: sp.Price, Value: sp.Value,
					})
				} else {
					ps.Add(actions.BonusTokenLay{Company: c.ID, SpecialID: sp.ID})
				}
			case sp.Kind == SpecialRight && (owned || sp.CommonToAll):
				ps.Add(actions.UseSpecialProperty{Player: c.President, SpecialID: sp.ID})
			case sp.CommonToAll || (sp.StepIndependent && owned):
				ps.Add(actions.UseSpecialProperty{Player: c.President, SpecialID: sp.ID})
			}
		}
	}

	if c.MaxLoans > 0 && c.Loans < c.MaxLoans && r.st.LoansThisTurn == 0 {
		ps.Add(actions.TakeLoans{
			Company: c.ID, MaxNumber: c.MaxLoans - c.Loans, ValuePerLoan: c.LoanValue,
		})
	}
	if c.Loans > 0 {
		ps.Add(actions.RepayLoans{
			Company: c.ID, MinNumber: 0, MaxNumber: c.Loans, ValuePerLoan: c.LoanValue,
		})
	}

	if c.Floated && !c.ReachedDestination && c.HomeTokenLaid {
		ps.Add(actions.ReachDestinations{Company: c.ID})
	}

	ps.Add(actions.OperatingCost{Company: c.ID, Reason: "maintenance"})
}
