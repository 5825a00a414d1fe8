package game

import (
	"github.com/ironrail/rails-server-go/internal/game/actions"
)

// Process implements Round: dispatch to the executor for the submitted
// action. Executors validate choice fields and only then mutate; a false
// return leaves the state untouched apart from report lines.
func (r *OperatingRound) Process(a actions.Action) bool {
	switch act := a.(type) {
	case actions.NullAction:
		return r.executeNull(act)
	case actions.TileLay:
		return r.executeLayTile(act)
	case actions.BaseTokenLay:
		return r.executeLayBaseToken(act)
	case actions.SetDividend:
		return r.executeSetDividend(act)
	case actions.BuyTrain:
		return r.executeBuyTrain(act)
	case actions.DiscardTrain:
		return r.executeDiscardTrain(act)
	case actions.BuyPrivate:
		return r.executeBuyPrivate(act)
	case actions.ClosePrivate:
		return r.executeClosePrivate(act)
	case actions.BuyBonusToken:
		return r.executeBuyBonusToken(act)
	case actions.BonusTokenLay:
		return r.executeBonusTokenLay(act)
	case actions.UseSpecialProperty:
		return r.executeUseSpecial(act)
	case actions.ReachDestinations:
		return r.executeReachDestinations(act)
	case actions.TakeLoans:
		return r.executeTakeLoans(act)
	case actions.RepayLoans:
		return r.executeRepayLoans(act)
	case actions.OperatingCost:
		return r.executeOperatingCost(act)
	}
	r.g.Report.Add("Rejected %q: cannot be processed in an operating round", a.String())
	return false
}

func (r *OperatingRound) executeNull(a actions.NullAction) bool {
	c := r.company()
	switch a.Mode {
	case actions.NullSkip:
		if r.st.Step != StepLayTrack && r.st.Step != StepLayToken {
			r.g.Report.Add("Rejected skip: nothing to skip in step %s", r.st.Step)
			return false
		}
		r.g.Report.Add("%s skips the %s step", c.Name, r.st.Step)
		r.nextStep()
		return true
	case actions.NullDone:
		if r.st.Step != StepBuyTrain {
			r.g.Report.Add("Rejected done: not in step %s", StepBuyTrain)
			return false
		}
		if c.MustOwnTrain && !c.HasTrain() {
			r.g.Report.Add("Rejected done: %s must own a train", c.Name)
			return false
		}
		r.g.Report.Add("%s is done buying trains", c.Name)
		r.nextStep()
		return true
	}
	r.g.Report.Add("Rejected %q: pass has no meaning in an operating round", a.String())
	return false
}

// nextHexColour returns the tile colour a hex upgrades to; unlaid ground
// upgrades to yellow.
func nextHexColour(current string) string {
	switch current {
	case "":
		return "yellow"
	case "yellow":
		return "green"
	case "green":
		return "brown"
	}
	return ""
}

func (r *OperatingRound) executeLayTile(a actions.TileLay) bool {
	c := r.company()
	g := r.g

	if r.st.Step != StepLayTrack {
		g.Report.Add("Rejected tile lay: not in step %s", StepLayTrack)
		return false
	}
	if r.homeTokenOutstanding(c) {
		g.Report.Add("Rejected tile lay: %s must lay its home token first", c.Name)
		return false
	}
	h, ok := g.Board.Hex(a.Hex)
	if !ok {
		g.Report.Add("Rejected tile lay: unknown hex %q", a.Hex)
		return false
	}
	info, exists := g.Board.Tiles[a.TileID]
	if !exists {
		g.Report.Add("Rejected tile lay: unknown tile %q", a.TileID)
		return false
	}
	if !g.Board.TileAvailable(a.TileID) {
		g.Report.Add("Rejected tile lay: no tile %s remains in the set", a.TileID)
		return false
	}
	if info.Colour != nextHexColour(h.Colour) {
		g.Report.Add("Rejected tile lay: tile %s (%s) cannot replace %s on %s",
			a.TileID, info.Colour, h.Colour, h.ID)
		return false
	}
	if !locationAllows(a.Locations, h.ID) {
		g.Report.Add("Rejected tile lay: hex %s is outside the permitted locations", h.ID)
		return false
	}
	if !colourAllows(a.Colours, info.Colour) {
		g.Report.Add("Rejected tile lay: colour %s is not offered", info.Colour)
		return false
	}
	if !g.Phase.Current().AllowsColour(info.Colour) {
		g.Report.Add("Rejected tile lay: phase %s does not allow %s tiles",
			g.Phase.Name(), info.Colour)
		return false
	}

	var sp *SpecialProperty
	if a.SpecialID != "" {
		var pc *PrivateCompany
		sp, pc, ok = g.SpecialByID(a.SpecialID)
		if !ok || sp.Exercised || pc.Closed {
			g.Report.Add("Rejected tile lay: special property %q is not usable", a.SpecialID)
			return false
		}
		if pc.Owner != c.ID && pc.Owner != c.President {
			g.Report.Add("Rejected tile lay: %s does not control %s", c.Name, pc.Name)
			return false
		}
	}
	extra := sp != nil && sp.ExtraLay
	if !extra && r.st.TileLays[info.Colour] <= 0 {
		g.Report.Add("Rejected tile lay: no %s lay remains this turn", info.Colour)
		return false
	}

	cost := h.Cost
	if sp != nil && sp.FreeLay {
		cost = 0
	}
	if cost < 0 || cost%10 != 0 {
		g.Report.Add("Rejected tile lay: terrain cost %d is invalid", cost)
		return false
	}
	if c.Cash < cost {
		g.Report.Add("Rejected tile lay: %s holds %d, terrain costs %d", c.Name, c.Cash, cost)
		return false
	}

	if cost > 0 {
		_ = g.MoveCash(c.ID, BankID, cost)
		r.st.SpentOnTiles += cost
	}
	g.Board.TakeTile(a.TileID, h.TileID)
	h.TileID = a.TileID
	h.Colour = info.Colour
	if info.Slots > h.TokenSlots {
		h.TokenSlots = info.Slots
	}
	if sp != nil {
		sp.Exercised = true
	}
	if !extra {
		// A normal lay commits the turn to one colour family.
		n := r.st.TileLays[info.Colour] - 1
		r.st.TileLays = map[string]int{}
		if n > 0 {
			r.st.TileLays[info.Colour] = n
		}
	}
	g.Report.Add("%s lays tile %s on %s (cost %d)", c.Name, a.TileID, h.ID, cost)

	if r.normalLayColours() == "" && len(r.eligibleSpecials(c, SpecialTileLay)) == 0 {
		r.nextStep()
	}
	return true
}

func (r *OperatingRound) executeLayBaseToken(a actions.BaseTokenLay) bool {
	c := r.company()
	g := r.g

	homeLay := a.Home && r.st.Step == StepLayTrack
	if r.st.Step != StepLayToken && !homeLay {
		g.Report.Add("Rejected token lay: not in step %s", StepLayToken)
		return false
	}
	if c.FreeTokens() == 0 {
		g.Report.Add("Rejected token lay: %s has no token left", c.Name)
		return false
	}
	hexID := a.Hex
	if hexID == "" && a.Home {
		hexID = c.HomeHex
	}
	h, ok := g.Board.Hex(hexID)
	if !ok {
		g.Report.Add("Rejected token lay: unknown hex %q", hexID)
		return false
	}
	if !locationAllows(a.Locations, h.ID) {
		g.Report.Add("Rejected token lay: hex %s is outside the permitted locations", h.ID)
		return false
	}
	if h.HasTokenOf(c.ID) {
		g.Report.Add("Rejected token lay: %s already has a token on %s", c.Name, h.ID)
		return false
	}
	if err := r.tokenSlotFree(h, c); err != nil {
		g.Report.Add("Rejected token lay: %v", err)
		return false
	}

	var sp *SpecialProperty
	if a.SpecialID != "" {
		var pc *PrivateCompany
		sp, pc, ok = g.SpecialByID(a.SpecialID)
		if !ok || sp.Exercised || pc.Closed {
			g.Report.Add("Rejected token lay: special property %q is not usable", a.SpecialID)
			return false
		}
	}
	normal := sp == nil && !a.Home
	if normal && r.st.NormalTokenLaid {
		g.Report.Add("Rejected token lay: %s already laid a token this turn", c.Name)
		return false
	}
	cost := 0
	if normal {
		cost = g.Options.TokenCost
	}
	if c.Cash < cost {
		g.Report.Add("Rejected token lay: %s holds %d, token costs %d", c.Name, c.Cash, cost)
		return false
	}

	if cost > 0 {
		_ = g.MoveCash(c.ID, BankID, cost)
		r.st.SpentOnTokens += cost
	}
	h.Tokens = append(h.Tokens, c.ID)
	c.TokensLaid++
	if a.Home {
		c.HomeTokenLaid = true
	}
	if sp != nil {
		sp.Exercised = true
	}
	if normal {
		r.st.NormalTokenLaid = true
	}
	g.Report.Add("%s lays a base token on %s (cost %d)", c.Name, h.ID, cost)

	if r.st.Step == StepLayToken {
		exhausted := c.FreeTokens() == 0 ||
			(r.st.NormalTokenLaid && len(r.eligibleSpecials(c, SpecialTokenLay)) == 0)
		if exhausted {
			r.nextStep()
		}
	}
	return true
}

func (r *OperatingRound) executeSetDividend(a actions.SetDividend) bool {
	c := r.company()
	g := r.g

	if r.st.Step != StepCalcRevenue {
		g.Report.Add("Rejected dividend: not in step %s", StepCalcRevenue)
		return false
	}
	revenue, alloc := a.Revenue, a.Allocation
	if a.Mandatory {
		revenue, alloc = 0, actions.AllocWithhold
	}
	if revenue < 0 || revenue%10 != 0 {
		g.Report.Add("Rejected dividend: revenue %d must be a non-negative multiple of ten", revenue)
		return false
	}
	if revenue > 0 && !c.HasTrain() {
		g.Report.Add("Rejected dividend: %s has no train to run", c.Name)
		return false
	}
	if !a.Allowed.Has(alloc) {
		g.Report.Add("Rejected dividend: allocation %s is not permitted", alloc)
		return false
	}

	g.Report.Add("%s declares revenue %d (%s)", c.Name, revenue, alloc)
	if turnEnded := r.distributeDividend(c, revenue, alloc); turnEnded {
		return true
	}
	r.nextStep()
	return true
}

// distributeDividend applies one revenue declaration: loan interest comes off
// the top, the remainder is withheld, paid out, or split, and the share price
// moves. It returns true when the turn ended because the company closed.
func (r *OperatingRound) distributeDividend(c *PublicCompany, revenue int, alloc actions.Allocation) bool {
	g := r.g

	if interest := c.Loans * c.LoanInterest; interest > 0 && revenue > 0 {
		deduct := interest
		if deduct > revenue {
			deduct = revenue
		}
		revenue -= deduct
		g.Report.Add("%s pays %d loan interest out of revenue", c.Name, deduct)
	}

	switch alloc {
	case actions.AllocPayout:
		r.payoutRevenue(c, revenue)
		if revenue > 0 {
			c.PriceIndex = g.Market.Up(c.PriceIndex)
			g.Report.Add("%s price rises to %d", c.Name, g.Market.Price(c.PriceIndex))
			g.CheckPriceExtremes(c)
		}
	case actions.AllocSplit:
		withheld := 0
		if c.NumShares > 0 {
			withheld = revenue / (2 * c.NumShares) * c.NumShares
		}
		if withheld > 0 {
			_ = g.MoveCash(BankID, c.ID, withheld)
		}
		g.Report.Add("%s withholds %d and pays out %d", c.Name, withheld, revenue-withheld)
		r.payoutRevenue(c, revenue-withheld)
	default:
		if revenue > 0 {
			_ = g.MoveCash(BankID, c.ID, revenue)
		}
		g.Report.Add("%s withholds %d", c.Name, revenue)
		c.PriceIndex = g.Market.Down(c.PriceIndex, 1)
		g.Report.Add("%s price drops to %d", c.Name, g.Market.Price(c.PriceIndex))
		if g.Market.Closes(c.PriceIndex) {
			g.CloseCompany(c)
			r.finishTurn()
			return true
		}
	}
	return false
}

// payoutRevenue pays per-holder dividends, rounded up per holding. Treasury
// shares pay the company; pool shares pay the company only under the
// pool-pays-to-company option.
func (r *OperatingRound) payoutRevenue(c *PublicCompany, amount int) {
	g := r.g
	if amount <= 0 {
		g.Report.Add("%s pays no dividend", c.Name)
		return
	}
	per := func(shares int) int {
		return (amount*shares*c.ShareUnit + 99) / 100
	}
	for _, p := range g.Players {
		if shares := c.Holdings[p.ID]; shares > 0 {
			d := per(shares)
			_ = g.MoveCash(BankID, p.ID, d)
			g.Report.Add("%s receives %d for %d share(s) of %s", p.Name, d, shares, c.Name)
		}
	}
	if shares := c.Holdings[holdingTreasury]; shares > 0 {
		d := per(shares)
		_ = g.MoveCash(BankID, c.ID, d)
		g.Report.Add("%s receives %d for its treasury shares", c.Name, d)
	}
	if shares := c.Holdings[holdingPool]; shares > 0 && g.Options.PoolPaysToCompany {
		d := per(shares)
		_ = g.MoveCash(BankID, c.ID, d)
		g.Report.Add("%s receives %d for pool shares", c.Name, d)
	}
}

func (r *OperatingRound) executeBuyTrain(a actions.BuyTrain) bool {
	c := r.company()
	g := r.g

	if r.st.Step != StepBuyTrain {
		g.Report.Add("Rejected train purchase: not in step %s", StepBuyTrain)
		return false
	}
	tt, ok := g.Supply.TypeByName(a.TrainType)
	if !ok {
		g.Report.Add("Rejected train purchase: unknown train type %q", a.TrainType)
		return false
	}
	if !a.Exchange && len(c.Trains) >= g.Phase.Current().TrainLimit {
		g.Report.Add("Rejected train purchase: %s is at the train limit", c.Name)
		return false
	}

	price := a.Price
	if a.FixedPrice > 0 {
		if price == 0 {
			price = a.FixedPrice
		}
		if price != a.FixedPrice {
			g.Report.Add("Rejected train purchase: price %d differs from the fixed price %d",
				price, a.FixedPrice)
			return false
		}
	}
	if price <= 0 {
		g.Report.Add("Rejected train purchase: price %d must be positive", price)
		return false
	}

	var seller *PublicCompany
	switch a.FromOwner {
	case holdingIPO:
		if !g.Supply.Available(a.TrainType) {
			g.Report.Add("Rejected train purchase: no new %s train remains", a.TrainType)
			return false
		}
	case holdingPool:
		found := false
		for _, name := range g.Supply.PoolTypes() {
			if name == a.TrainType {
				found = true
				break
			}
		}
		if !found {
			g.Report.Add("Rejected train purchase: no %s train in the pool", a.TrainType)
			return false
		}
	default:
		if !g.Phase.Current().TrainTrading {
			g.Report.Add("Rejected train purchase: phase %s forbids train trades", g.Phase.Name())
			return false
		}
		seller, ok = g.CompanyByID(a.FromOwner)
		if !ok || seller.Closed {
			g.Report.Add("Rejected train purchase: unknown seller %q", a.FromOwner)
			return false
		}
		hasType := false
		for _, t := range seller.Trains {
			if t.Type == a.TrainType {
				hasType = true
				break
			}
		}
		if !hasType {
			g.Report.Add("Rejected train purchase: %s owns no %s train", seller.Name, a.TrainType)
			return false
		}
	}

	// Funding: when the company treasury falls short on the emergency path the
	// president covers the difference, selling shares first if needed.
	presidentShare := 0
	if price > c.Cash {
		if !a.Emergency {
			g.Report.Add("Rejected train purchase: %s holds %d, the train costs %d",
				c.Name, c.Cash, price)
			return false
		}
		p := r.president()
		shortfall := price - c.Cash
		if p.Cash < shortfall {
			if p.Bankrupt {
				g.Report.Add("Rejected train purchase: president %s is bankrupt", p.Name)
				return false
			}
			r.sup.setPending(a)
			r.sup.StartShareSellingRound(p.ID, shortfall-p.Cash, c.ID, false)
			return true
		}
		presidentShare = shortfall
	}

	if a.Exchange {
		if !c.HasTrain() {
			g.Report.Add("Rejected train exchange: %s owns no train to exchange", c.Name)
			return false
		}
		old := c.Trains[0]
		c.Trains = c.Trains[1:]
		old.AssignedType = ""
		g.Supply.Discard(old)
		g.Report.Add("%s turns in its %s train", c.Name, old.Type)
	}

	var t *Train
	firstOfType := false
	switch a.FromOwner {
	case holdingIPO:
		var err error
		t, firstOfType, err = g.Supply.TakeNew(a.TrainType)
		if err != nil {
			g.Report.Add("Rejected train purchase: %v", err)
			return false
		}
	case holdingPool:
		t, _ = g.Supply.TakeFromPool(a.TrainType)
	default:
		for _, st := range seller.Trains {
			if st.Type == a.TrainType {
				t, _ = seller.RemoveTrain(st.ID)
				break
			}
		}
	}

	if presidentShare > 0 {
		_ = g.MoveCash(r.president().ID, c.ID, presidentShare)
		g.Report.Add("President %s adds %d from their own cash", r.president().Name, presidentShare)
	}
	payee := BankID
	if seller != nil {
		payee = seller.ID
	}
	_ = g.MoveCash(c.ID, payee, price)

	if tt.DualWith != "" {
		t.AssignedType = tt.Name
	}
	c.Trains = append(c.Trains, t)
	r.st.SpentOnTrains += price
	r.st.TrainsBought = append(r.st.TrainsBought, t.ID)
	g.Report.Add("%s buys a %s train from %s for %d", c.Name, a.TrainType, a.FromOwner, price)

	if firstOfType && tt.StartsPhase != "" {
		if change, advanced := g.Phase.AdvanceTo(tt.StartsPhase); advanced {
			g.ApplyPhaseChange(change)
			if len(g.OverLimitCompanies()) > 0 {
				r.st.ReturnStep = StepBuyTrain
				r.st.Step = StepDiscardTrains
			}
		}
	}
	return true
}

func (r *OperatingRound) executeDiscardTrain(a actions.DiscardTrain) bool {
	g := r.g
	if r.st.Step != StepDiscardTrains && r.st.Step != StepBuyTrain {
		g.Report.Add("Rejected discard: not in step %s", StepDiscardTrains)
		return false
	}
	c, ok := g.CompanyByID(a.Company)
	if !ok {
		g.Report.Add("Rejected discard: unknown company %q", a.Company)
		return false
	}
	trainID := a.TrainID
	if trainID == "" && len(c.Trains) > 0 {
		trainID = c.Trains[0].ID
	}
	t, ok := c.RemoveTrain(trainID)
	if !ok {
		g.Report.Add("Rejected discard: %s owns no train %q", c.Name, trainID)
		return false
	}
	t.AssignedType = ""
	g.Supply.Discard(t)
	g.Report.Add("%s discards a %s train to the pool", c.Name, t.Type)

	if r.st.Step == StepDiscardTrains && len(g.OverLimitCompanies()) == 0 {
		ret := r.st.ReturnStep
		if ret == StepInitial {
			ret = StepBuyTrain
		}
		r.st.Step = ret
		r.st.ReturnStep = StepInitial
	}
	return true
}

func (r *OperatingRound) executeBuyPrivate(a actions.BuyPrivate) bool {
	c := r.company()
	g := r.g
	if !g.Phase.Current().PrivatesSellable {
		g.Report.Add("Rejected private purchase: phase %s forbids it", g.Phase.Name())
		return false
	}
	pc, ok := g.PrivateByID(a.Private)
	if !ok || pc.Closed {
		g.Report.Add("Rejected private purchase: %q is not for sale", a.Private)
		return false
	}
	if pc.Owner != a.Seller {
		g.Report.Add("Rejected private purchase: %s does not own %s", a.Seller, pc.Name)
		return false
	}
	if a.Price < a.MinPrice || a.Price > a.MaxPrice {
		g.Report.Add("Rejected private purchase: price %d is outside %d..%d",
			a.Price, a.MinPrice, a.MaxPrice)
		return false
	}
	if c.Cash < a.Price {
		g.Report.Add("Rejected private purchase: %s holds %d, the price is %d",
			c.Name, c.Cash, a.Price)
		return false
	}
	_ = g.MoveCash(c.ID, a.Seller, a.Price)
	pc.Owner = c.ID
	r.st.SpentOnPrivates += a.Price
	g.Report.Add("%s buys private %s from %s for %d", c.Name, pc.Name, a.Seller, a.Price)
	return true
}

func (r *OperatingRound) executeClosePrivate(a actions.ClosePrivate) bool {
	c := r.company()
	g := r.g
	pc, ok := g.PrivateByID(a.Private)
	if !ok || pc.Closed {
		g.Report.Add("Rejected close: %q is not open", a.Private)
		return false
	}
	if !pc.CloseManually {
		g.Report.Add("Rejected close: %s cannot be closed voluntarily", pc.Name)
		return false
	}
	if pc.Owner != c.ID && pc.Owner != c.President {
		g.Report.Add("Rejected close: %s is not controlled by %s", pc.Name, c.Name)
		return false
	}
	g.ClosePrivate(pc)
	return true
}

func (r *OperatingRound) executeBuyBonusToken(a actions.BuyBonusToken) bool {
	c := r.company()
	g := r.g
	sp, pc, ok := g.SpecialByID(a.SpecialID)
	if !ok || sp.Exercised || pc.Closed || sp.Kind != SpecialBonusToken {
		g.Report.Add("Rejected bonus token: %q is not purchasable", a.SpecialID)
		return false
	}
	if c.Cash < sp.Price {
		g.Report.Add("Rejected bonus token: %s holds %d, the token costs %d",
			c.Name, c.Cash, sp.Price)
		return false
	}
	_ = g.MoveCash(c.ID, BankID, sp.Price)
	c.Bonuses += sp.Value
	sp.Exercised = true
	g.Report.Add("%s buys bonus token %s for %d (+%d revenue)", c.Name, sp.Name, sp.Price, sp.Value)
	return true
}

func (r *OperatingRound) executeBonusTokenLay(a actions.BonusTokenLay) bool {
	c := r.company()
	g := r.g
	sp, pc, ok := g.SpecialByID(a.SpecialID)
	if !ok || sp.Exercised || pc.Closed || sp.Kind != SpecialBonusToken {
		g.Report.Add("Rejected bonus token lay: %q is not usable", a.SpecialID)
		return false
	}
	if !locationAllows(sp.Locations, a.Hex) {
		g.Report.Add("Rejected bonus token lay: hex %q is outside the permitted locations", a.Hex)
		return false
	}
	c.Bonuses += sp.Value
	sp.Exercised = true
	g.Report.Add("%s lays bonus token %s on %s (+%d revenue)", c.Name, sp.Name, a.Hex, sp.Value)
	return true
}

func (r *OperatingRound) executeUseSpecial(a actions.UseSpecialProperty) bool {
	c := r.company()
	g := r.g
	sp, pc, ok := g.SpecialByID(a.SpecialID)
	if !ok || sp.Exercised || pc.Closed {
		g.Report.Add("Rejected special property: %q is not usable", a.SpecialID)
		return false
	}
	if sp.Price > 0 {
		if c.Cash < sp.Price {
			g.Report.Add("Rejected special property: %s holds %d, it costs %d",
				c.Name, c.Cash, sp.Price)
			return false
		}
		_ = g.MoveCash(c.ID, BankID, sp.Price)
	}
	c.Bonuses += sp.Value
	sp.Exercised = true
	g.Report.Add("%s exercises %s", c.Name, sp.Name)
	return true
}

func (r *OperatingRound) executeReachDestinations(a actions.ReachDestinations) bool {
	c := r.company()
	g := r.g
	if c.ReachedDestination {
		g.Report.Add("Rejected: %s has already reached its destination", c.Name)
		return false
	}
	c.ReachedDestination = true
	g.Report.Add("%s reaches its destination", c.Name)
	return true
}

func (r *OperatingRound) executeTakeLoans(a actions.TakeLoans) bool {
	c := r.company()
	g := r.g
	if c.MaxLoans == 0 {
		g.Report.Add("Rejected loan: %s may not take loans", c.Name)
		return false
	}
	if a.Number < 1 || a.Number > a.MaxNumber || c.Loans+a.Number > c.MaxLoans {
		g.Report.Add("Rejected loan: %d loan(s) exceeds the limit", a.Number)
		return false
	}
	if r.st.LoansThisTurn > 0 {
		g.Report.Add("Rejected loan: %s already took a loan this turn", c.Name)
		return false
	}
	amount := a.Number * c.LoanValue
	_ = g.MoveCash(BankID, c.ID, amount)
	c.Loans += a.Number
	r.st.LoansThisTurn += a.Number
	g.Report.Add("%s takes %d loan(s) for %d", c.Name, a.Number, amount)
	return true
}

func (r *OperatingRound) executeRepayLoans(a actions.RepayLoans) bool {
	c := r.company()
	g := r.g
	if a.Number < a.MinNumber || a.Number > a.MaxNumber || a.Number > c.Loans {
		g.Report.Add("Rejected repayment: %d loan(s) is out of range", a.Number)
		return false
	}
	if a.Number == 0 {
		return true
	}
	amount := a.Number * c.LoanValue
	if c.Cash < amount {
		p := r.president()
		shortfall := amount - c.Cash
		if p.Cash < shortfall {
			r.sup.setPending(a)
			r.sup.StartShareSellingRound(p.ID, shortfall-p.Cash, c.ID, false)
			return true
		}
		_ = g.MoveCash(p.ID, c.ID, shortfall)
		g.Report.Add("President %s adds %d to repay loans", p.Name, shortfall)
	}
	_ = g.MoveCash(c.ID, BankID, amount)
	c.Loans -= a.Number
	g.Report.Add("%s repays %d loan(s) for %d", c.Name, a.Number, amount)
	return true
}

func (r *OperatingRound) executeOperatingCost(a actions.OperatingCost) bool {
	c := r.company()
	g := r.g
	if a.Amount <= 0 || a.Amount%10 != 0 {
		g.Report.Add("Rejected operating cost: amount %d must be a positive multiple of ten", a.Amount)
		return false
	}
	if c.Cash < a.Amount {
		g.Report.Add("Rejected operating cost: %s holds %d, the cost is %d",
			c.Name, c.Cash, a.Amount)
		return false
	}
	_ = g.MoveCash(c.ID, BankID, a.Amount)
	g.Report.Add("%s pays %d operating cost (%s)", c.Name, a.Amount, a.Reason)
	return true
}
