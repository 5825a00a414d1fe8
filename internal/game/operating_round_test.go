package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ironrail/rails-server-go/internal/game/actions"
)

// playToOperatingRound drives the demo game to the first operating round with
// GNR floated under carol.
func playToOperatingRound(t *testing.T, sup *RoundSupervisor) {
	t.Helper()
	sellStartPacket(t, sup)
	floatGreatNorthern(t, sup)
	passStockRound(t, sup, "bob", "carol", "alice")
	require.Equal(t, RoundOperating, sup.State().Round.Kind)
}

func layHomeToken(t *testing.T, sup *RoundSupervisor) {
	t.Helper()
	mustProcess(t, sup, actions.BaseTokenLay{
		Company: "GNR", Locations: "B2", Home: true, Hex: "B2",
	})
}

func TestHomeTokenMustBeLaidFirst(t *testing.T) {
	sup := newDemoGame(t, "alice", "bob", "carol")
	playToOperatingRound(t, sup)
	g := sup.State()

	// Track is not on offer until the home token is down.
	ok := sup.Process(actions.TileLay{Company: "GNR", Colours: "yellow", Hex: "A1", TileID: "8"})
	assert.False(t, ok)

	layHomeToken(t, sup)
	gnr, _ := g.CompanyByID("GNR")
	assert.True(t, gnr.HomeTokenLaid)
	assert.Equal(t, 670, gnr.Cash, "the home token is free")
	home, _ := g.Board.Hex("B2")
	assert.True(t, home.HasTokenOf("GNR"))
	assert.True(t, sup.PossibleActions().Contains(
		actions.TileLay{Company: "GNR", Colours: "yellow"}))
}

func TestNormalTileLayConsumesAllowance(t *testing.T) {
	sup := newDemoGame(t, "alice", "bob", "carol")
	playToOperatingRound(t, sup)
	layHomeToken(t, sup)
	g := sup.State()

	mustProcess(t, sup, actions.TileLay{
		Company: "GNR", Colours: "yellow", Hex: "A1", TileID: "8",
	})

	hex, _ := g.Board.Hex("A1")
	assert.Equal(t, "8", hex.TileID)
	assert.Equal(t, "yellow", hex.Colour)
	// One yellow lay per turn in phase 2; the step advanced on its own.
	assert.Equal(t, StepLayToken, g.Round.Operating.Step)
}

func TestTileLayPaysTerrainCost(t *testing.T) {
	sup := newDemoGame(t, "alice", "bob", "carol")
	playToOperatingRound(t, sup)
	layHomeToken(t, sup)
	g := sup.State()

	mustProcess(t, sup, actions.TileLay{
		Company: "GNR", Colours: "yellow", Hex: "A3", TileID: "9",
	})

	gnr, _ := g.CompanyByID("GNR")
	assert.Equal(t, 670-20, gnr.Cash)
}

func TestNormalTokenLayAndTrainlessWithhold(t *testing.T) {
	sup := newDemoGame(t, "alice", "bob", "carol")
	playToOperatingRound(t, sup)
	layHomeToken(t, sup)
	mustProcess(t, sup, actions.TileLay{
		Company: "GNR", Colours: "yellow", Hex: "A1", TileID: "8",
	})
	g := sup.State()

	mustProcess(t, sup, actions.BaseTokenLay{Company: "GNR", Hex: "D4"})

	gnr, _ := g.CompanyByID("GNR")
	assert.Equal(t, 670-40, gnr.Cash, "a normal token costs the configured price")

	// Without a train the revenue step resolves itself: GNR withholds zero
	// and the price drops one space.
	assert.Equal(t, 60, g.Market.Price(gnr.PriceIndex))
	assert.Equal(t, StepBuyTrain, g.Round.Operating.Step)
	assert.True(t, sup.PossibleActions().Contains(actions.BuyTrain{
		Company: "GNR", TrainType: "2", FromOwner: "ipo", FixedPrice: 80,
	}))
	// GNR must own a train, so Done is withheld.
	assert.False(t, sup.PossibleActions().Contains(
		actions.NullAction{Player: "carol", Mode: actions.NullDone}))
}

func TestBuyTrainStartsPhaseAndDoneEndsRound(t *testing.T) {
	sup := newDemoGame(t, "alice", "bob", "carol")
	playToOperatingRound(t, sup)
	layHomeToken(t, sup)
	mustProcess(t, sup, actions.NullAction{Player: "carol", Mode: actions.NullSkip}) // track
	mustProcess(t, sup, actions.NullAction{Player: "carol", Mode: actions.NullSkip}) // token
	g := sup.State()
	require.Equal(t, StepBuyTrain, g.Round.Operating.Step)

	mustProcess(t, sup, actions.BuyTrain{
		Company: "GNR", TrainType: "2", FromOwner: "ipo", FixedPrice: 80, Price: 80,
	})
	gnr, _ := g.CompanyByID("GNR")
	assert.Equal(t, 670-80, gnr.Cash)
	require.Len(t, gnr.Trains, 1)
	assert.Equal(t, "2", g.Phase.Name(), "the first 2-train starts no new phase")
	// With a train in hand the company may stop buying.
	assert.True(t, sup.PossibleActions().Contains(
		actions.NullAction{Player: "carol", Mode: actions.NullDone}))

	mustProcess(t, sup, actions.BuyTrain{
		Company: "GNR", TrainType: "3", FromOwner: "ipo", FixedPrice: 180, Price: 180,
	})
	assert.Equal(t, "3", g.Phase.Name())
	assert.Equal(t, 670-80-180, gnr.Cash)

	mustProcess(t, sup, actions.NullAction{Player: "carol", Mode: actions.NullDone})

	// Phase 2 runs a single OR, so the set ends and stock round 2 opens with
	// selling now permitted.
	assert.Equal(t, RoundStock, g.Round.Kind)
	assert.Equal(t, 2, g.SRNumber)
	assert.True(t, g.Round.Stock.SellingAllowed)
	assert.True(t, gnr.HasOperated)
	assert.True(t, sup.PossibleActions().Contains(actions.SellShares{
		Player: "bob", Company: "GNR", MaxShares: 1, Price: 60,
	}))
}

// operatingFixture builds a floated GNR mid-turn without replaying a whole
// game, for exercising single executors.
func operatingFixture(t *testing.T) (*GameState, *OperatingRound) {
	t.Helper()
	g, err := NewGameState("fixture", DemoDefinition(), []string{"alice", "bob", "carol"})
	require.NoError(t, err)
	gnr, _ := g.CompanyByID("GNR")
	gnr.President = "alice"
	gnr.Floated = true
	gnr.ParPrice = 67
	idx, ok := g.Market.ParIndex(67)
	require.True(t, ok)
	gnr.PriceIndex = idx
	gnr.Holdings[holdingIPO] = 4
	gnr.Holdings["alice"] = 3
	gnr.Holdings["bob"] = 2
	gnr.Holdings["carol"] = 1

	sup := NewRoundSupervisor(g, "demo", zap.NewNop())
	g.Round.Kind = RoundOperating
	g.Round.Operating = newORState(g)
	or := &OperatingRound{sup: sup, g: g, st: g.Round.Operating}
	return g, or
}

func giveTrain(t *testing.T, g *GameState, c *PublicCompany, trainType string) {
	t.Helper()
	train, _, err := g.Supply.TakeNew(trainType)
	require.NoError(t, err)
	c.Trains = append(c.Trains, train)
}

func TestPayoutRoundsUpPerHolding(t *testing.T) {
	g, or := operatingFixture(t)
	gnr, _ := g.CompanyByID("GNR")

	or.payoutRevenue(gnr, 25)

	// 25 per full share-set, 10% per share, rounded up per holding.
	alice, _ := g.PlayerByID("alice")
	bob, _ := g.PlayerByID("bob")
	carol, _ := g.PlayerByID("carol")
	assert.Equal(t, 608, alice.Cash) // 7.5 -> 8
	assert.Equal(t, 605, bob.Cash)   // 5
	assert.Equal(t, 603, carol.Cash) // 2.5 -> 3
}

func TestSetDividendPayoutRaisesPrice(t *testing.T) {
	g, or := operatingFixture(t)
	gnr, _ := g.CompanyByID("GNR")
	giveTrain(t, g, gnr, "2")
	or.st.Step = StepCalcRevenue

	ok := or.Process(actions.SetDividend{
		Company: "GNR", Allowed: or.allowedAllocations(gnr),
		Revenue: 30, Allocation: actions.AllocPayout,
	})
	require.True(t, ok, "%v", g.Report.Lines())

	alice, _ := g.PlayerByID("alice")
	assert.Equal(t, 609, alice.Cash)
	assert.Equal(t, 76, g.Market.Price(gnr.PriceIndex))
	assert.Equal(t, StepBuyTrain, or.st.Step)
}

func TestSetDividendWithholdDropsPrice(t *testing.T) {
	g, or := operatingFixture(t)
	gnr, _ := g.CompanyByID("GNR")
	giveTrain(t, g, gnr, "2")
	or.st.Step = StepCalcRevenue
	treasury := gnr.Cash

	ok := or.Process(actions.SetDividend{
		Company: "GNR", Allowed: or.allowedAllocations(gnr),
		Revenue: 30, Allocation: actions.AllocWithhold,
	})
	require.True(t, ok, "%v", g.Report.Lines())

	assert.Equal(t, treasury+30, gnr.Cash)
	assert.Equal(t, 60, g.Market.Price(gnr.PriceIndex))
}

func TestSetDividendRejectsBadRevenue(t *testing.T) {
	g, or := operatingFixture(t)
	gnr, _ := g.CompanyByID("GNR")
	giveTrain(t, g, gnr, "2")
	or.st.Step = StepCalcRevenue

	ok := or.Process(actions.SetDividend{
		Company: "GNR", Allowed: or.allowedAllocations(gnr),
		Revenue: 25, Allocation: actions.AllocPayout,
	})
	assert.False(t, ok, "revenue must be a multiple of ten")
	assert.Equal(t, StepCalcRevenue, or.st.Step)
}

func TestTrainPurchaseRejectsWrongPrice(t *testing.T) {
	g, or := operatingFixture(t)
	gnr, _ := g.CompanyByID("GNR")
	gnr.Cash = 500
	or.st.Step = StepBuyTrain

	ok := or.Process(actions.BuyTrain{
		Company: "GNR", TrainType: "2", FromOwner: holdingIPO,
		FixedPrice: 80, Price: 70,
	})
	assert.False(t, ok)
	assert.Empty(t, gnr.Trains)
	assert.Equal(t, 500, gnr.Cash)
}

func TestOperatingCostValidation(t *testing.T) {
	g, or := operatingFixture(t)
	gnr, _ := g.CompanyByID("GNR")
	gnr.Cash = 100
	or.st.Step = StepLayTrack

	assert.False(t, or.Process(actions.OperatingCost{
		Company: "GNR", Reason: "maintenance", Amount: 15,
	}), "amount must be a multiple of ten")
	assert.False(t, or.Process(actions.OperatingCost{
		Company: "GNR", Reason: "maintenance", Amount: 200,
	}), "treasury cannot cover the cost")

	require.True(t, or.Process(actions.OperatingCost{
		Company: "GNR", Reason: "maintenance", Amount: 50,
	}))
	assert.Equal(t, 50, gnr.Cash)
}

func TestTakeAndRepayLoans(t *testing.T) {
	g, err := NewGameState("fixture", DemoDefinition(), []string{"alice", "bob", "carol"})
	require.NoError(t, err)
	cpr, _ := g.CompanyByID("CPR")
	cpr.President = "alice"
	cpr.Floated = true
	cpr.Cash = 100

	sup := NewRoundSupervisor(g, "demo", zap.NewNop())
	g.Round.Kind = RoundOperating
	g.Round.Operating = newORState(g)
	or := &OperatingRound{sup: sup, g: g, st: g.Round.Operating}
	or.st.Step = StepLayTrack

	require.True(t, or.Process(actions.TakeLoans{
		Company: "CPR", MaxNumber: 2, ValuePerLoan: 100, Number: 1,
	}), "%v", g.Report.Lines())
	assert.Equal(t, 1, cpr.Loans)
	assert.Equal(t, 200, cpr.Cash)

	// Only one loan grant per turn.
	assert.False(t, or.Process(actions.TakeLoans{
		Company: "CPR", MaxNumber: 1, ValuePerLoan: 100, Number: 1,
	}))

	require.True(t, or.Process(actions.RepayLoans{
		Company: "CPR", MinNumber: 0, MaxNumber: 1, ValuePerLoan: 100, Number: 1,
	}))
	assert.Equal(t, 0, cpr.Loans)
	assert.Equal(t, 100, cpr.Cash)
}

func TestUnreleasedTrainsStayOffSale(t *testing.T) {
	g, or := operatingFixture(t)
	gnr, _ := g.CompanyByID("GNR")
	gnr.Cash = 700
	or.st.Step = StepBuyTrain
	or.sup.recomputeLegal()

	// Affordability alone never puts a later train type on sale.
	ps := or.sup.PossibleActions()
	assert.True(t, ps.Contains(actions.BuyTrain{
		Company: "GNR", TrainType: "2", FromOwner: holdingIPO, FixedPrice: 80,
	}))
	assert.False(t, ps.Contains(actions.BuyTrain{
		Company: "GNR", TrainType: "4", FromOwner: holdingIPO, FixedPrice: 300,
	}))
	assert.False(t, ps.Contains(actions.BuyTrain{
		Company: "GNR", TrainType: "6", FromOwner: holdingIPO, FixedPrice: 630,
	}))

	// The phase started by the first 3-train releases the 4-trains.
	require.True(t, or.Process(actions.BuyTrain{
		Company: "GNR", TrainType: "3", FromOwner: holdingIPO, FixedPrice: 180, Price: 180,
	}), "%v", g.Report.Lines())
	require.Equal(t, "3", g.Phase.Name())

	or.sup.recomputeLegal()
	ps = or.sup.PossibleActions()
	assert.True(t, ps.Contains(actions.BuyTrain{
		Company: "GNR", TrainType: "4", FromOwner: holdingIPO, FixedPrice: 300,
	}))
	assert.False(t, ps.Contains(actions.BuyTrain{
		Company: "GNR", TrainType: "6", FromOwner: holdingIPO, FixedPrice: 630,
	}))
}

func TestEmergencyTrainPurchaseSuspendsAndResumes(t *testing.T) {
	g, or := operatingFixture(t)
	gnr, _ := g.CompanyByID("GNR")
	gnr.Cash = 50
	alice, _ := g.PlayerByID("alice")
	alice.Cash = 10
	or.st.Step = StepBuyTrain
	sup := or.sup
	sup.recomputeLegal()

	// Nothing is affordable, so only the emergency purchase is on offer and
	// Done is withheld.
	emergency := actions.BuyTrain{
		Company: "GNR", TrainType: "2", FromOwner: holdingIPO, FixedPrice: 80, Emergency: true,
	}
	require.True(t, sup.PossibleActions().Contains(emergency))
	assert.False(t, sup.PossibleActions().Contains(
		actions.NullAction{Player: "alice", Mode: actions.NullDone}))

	mustProcess(t, sup, emergency)

	// Treasury plus president cash cannot cover the price: the purchase is
	// parked and a share-selling round opens for the difference.
	require.Equal(t, RoundShareSelling, g.Round.Kind)
	require.NotNil(t, g.Round.Pending)
	assert.Equal(t, 20, g.Round.Selling.CashToRaise)
	assert.Empty(t, gnr.Trains)

	mustProcess(t, sup, actions.SellShares{
		Player: "alice", Company: "GNR", MaxShares: 1, Price: 67, Number: 1,
	})

	// The sale met the target; the operating round resumed and the parked
	// purchase completed with the president covering the shortfall.
	assert.Equal(t, RoundOperating, g.Round.Kind)
	assert.Nil(t, g.Round.Pending)
	require.Len(t, gnr.Trains, 1)
	assert.Equal(t, 0, gnr.Cash)
	assert.Equal(t, 47, alice.Cash)
	assert.Equal(t, StepBuyTrain, or.st.Step)
	assert.Equal(t, "alice", gnr.President)
}

func TestPhaseChangeForcesTrainDiscards(t *testing.T) {
	g, or := operatingFixture(t)
	change, ok := g.Phase.AdvanceTo("3")
	require.True(t, ok)
	g.ApplyPhaseChange(change)

	gnr, _ := g.CompanyByID("GNR")
	gnr.Cash = 500
	cpr, _ := g.CompanyByID("CPR")
	cpr.President = "bob"
	cpr.Floated = true
	for i := 0; i < 4; i++ {
		giveTrain(t, g, cpr, "3")
	}
	or.st.Step = StepBuyTrain

	// The first 4-train starts phase 4: the limit drops to three and CPR is
	// over it, so the step machine detours to the forced discards.
	require.True(t, or.Process(actions.BuyTrain{
		Company: "GNR", TrainType: "4", FromOwner: holdingIPO, FixedPrice: 300, Price: 300,
	}), "%v", g.Report.Lines())
	require.Equal(t, "4", g.Phase.Name())
	assert.Equal(t, StepDiscardTrains, or.st.Step)
	assert.Equal(t, StepBuyTrain, or.st.ReturnStep)

	or.sup.recomputeLegal()
	assert.True(t, or.sup.PossibleActions().Contains(
		actions.DiscardTrain{Company: "CPR", Forced: true}))

	require.True(t, or.Process(actions.DiscardTrain{Company: "CPR"}),
		"%v", g.Report.Lines())

	assert.Len(t, cpr.Trains, 3)
	assert.Contains(t, g.Supply.PoolTypes(), "3")
	// With no company over the limit control returns to the interrupted step.
	assert.Equal(t, StepBuyTrain, or.st.Step)
	assert.Equal(t, StepInitial, or.st.ReturnStep)
}

func TestReloadDropsDoneForSkippedTradeStep(t *testing.T) {
	g, err := NewGameState("fixture", DemoDefinition(), []string{"alice", "bob", "carol"})
	require.NoError(t, err)
	wrr, _ := g.CompanyByID("WRR")
	wrr.President = "bob"
	wrr.Floated = true
	wrr.HasOperated = true
	idx, ok := g.Market.ParIndex(76)
	require.True(t, ok)
	wrr.PriceIndex = idx
	gnr, _ := g.CompanyByID("GNR")
	gnr.President = "alice"
	gnr.Floated = true
	idx, ok = g.Market.ParIndex(67)
	require.True(t, ok)
	gnr.PriceIndex = idx

	change, ok := g.Phase.AdvanceTo("5")
	require.True(t, ok)
	g.ApplyPhaseChange(change)
	giveTrain(t, g, wrr, "3")

	sup := NewRoundSupervisor(g, "demo", zap.NewNop())
	g.Round.Kind = RoundOperating
	g.Round.Operating = newORState(g)
	or := &OperatingRound{sup: sup, g: g, st: g.Round.Operating}
	require.Equal(t, []string{"WRR", "GNR"}, or.st.CompanyOrder)
	or.st.Step = StepBuyTrain

	// WRR may trade treasury shares this phase, but with an empty pool and no
	// treasury shares there is nothing to trade. During a replay the step is
	// skipped outright and the flag records that the log may still carry the
	// Done the older engine asked for.
	sup.replaying = true
	require.True(t, or.Process(actions.NullAction{Player: "bob", Mode: actions.NullDone}),
		"%v", g.Report.Lines())
	sup.replaying = false

	assert.True(t, or.st.DoneSkipCompat)
	assert.Equal(t, "GNR", or.st.CompanyOrder[or.st.Cursor])
	require.Equal(t, StepLayTrack, or.st.Step)

	// The logged Done is swallowed: accepted, no ledger entry, no state change.
	size := sup.Ledger().Size()
	ok = sup.ProcessOnReload(actions.NullAction{Player: "alice", Mode: actions.NullDone})
	assert.True(t, ok)
	assert.False(t, or.st.DoneSkipCompat)
	assert.Equal(t, size, sup.Ledger().Size())
	assert.Equal(t, StepLayTrack, or.st.Step)
}

func TestLoanInterestComesOffRevenue(t *testing.T) {
	g, err := NewGameState("fixture", DemoDefinition(), []string{"alice", "bob", "carol"})
	require.NoError(t, err)
	cpr, _ := g.CompanyByID("CPR")
	cpr.President = "alice"
	cpr.Floated = true
	cpr.Loans = 2
	idx, _ := g.Market.ParIndex(67)
	cpr.PriceIndex = idx

	sup := NewRoundSupervisor(g, "demo", zap.NewNop())
	g.Round.Kind = RoundOperating
	g.Round.Operating = newORState(g)
	or := &OperatingRound{sup: sup, g: g, st: g.Round.Operating}
	giveTrain(t, g, cpr, "2")
	or.st.Step = StepCalcRevenue
	treasury := cpr.Cash

	ok := or.Process(actions.SetDividend{
		Company: "CPR", Allowed: or.allowedAllocations(cpr),
		Revenue: 50, Allocation: actions.AllocWithhold,
	})
	require.True(t, ok, "%v", g.Report.Lines())
	// 2 loans x 10 interest are deducted before the remainder is withheld.
	assert.Equal(t, treasury+30, cpr.Cash)
}
