package game

import (
	"fmt"

	"github.com/ironrail/rails-server-go/internal/game/phase"
)

// GameDefinition is the complete ruleset a game instance is built from.
// Rule loading (XML, config files) is an external concern; the engine
// consumes validated definitions only. A malformed definition is a
// configuration defect and fails construction.
type GameDefinition struct {
	Name         string
	BankCash     int
	StartingCash int
	MinPlayers   int
	MaxPlayers   int

	Companies  []PublicCompany
	Privates   []*PrivateCompany
	TrainTypes []TrainType
	Phases     []phase.Phase
	Hexes      []Hex
	Tiles      []TileInfo
	// MarketPrices is the ascending price ladder; index 0 closes companies.
	MarketPrices []int
	StartPacket  []StartItem
	// ParPrices lists the market prices a company may start at.
	ParPrices []int

	Options Options
}

// Validate checks the definition for structural defects.
func (d *GameDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("definition has no name")
	}
	if d.BankCash <= 0 {
		return fmt.Errorf("bank cash %d", d.BankCash)
	}
	if d.MinPlayers < 2 || d.MaxPlayers < d.MinPlayers {
		return fmt.Errorf("player range %d-%d", d.MinPlayers, d.MaxPlayers)
	}
	if len(d.Companies) == 0 {
		return fmt.Errorf("no public companies")
	}
	if len(d.MarketPrices) < 3 {
		return fmt.Errorf("market ladder too short")
	}
	if len(d.Phases) == 0 {
		return fmt.Errorf("no phases")
	}
	if len(d.TrainTypes) == 0 {
		return fmt.Errorf("no train types")
	}
	hexIDs := make(map[string]bool, len(d.Hexes))
	for _, h := range d.Hexes {
		if h.ID == "" {
			return fmt.Errorf("hex with empty ID")
		}
		if hexIDs[h.ID] {
			return fmt.Errorf("duplicate hex %q", h.ID)
		}
		hexIDs[h.ID] = true
	}
	for _, c := range d.Companies {
		if c.ID == "" || c.ShareUnit <= 0 || c.NumShares <= 0 {
			return fmt.Errorf("company %q misconfigured", c.ID)
		}
		if c.HomeHex != "" && !hexIDs[c.HomeHex] {
			return fmt.Errorf("company %q home hex %q not on board", c.ID, c.HomeHex)
		}
	}
	phaseNames := make(map[string]bool, len(d.Phases))
	for _, p := range d.Phases {
		phaseNames[p.Name] = true
	}
	for _, tt := range d.TrainTypes {
		if tt.StartsPhase != "" && !phaseNames[tt.StartsPhase] {
			return fmt.Errorf("train type %q starts unknown phase %q", tt.Name, tt.StartsPhase)
		}
	}
	for _, item := range d.StartPacket {
		found := false
		for _, pc := range d.Privates {
			if pc.ID == item.Private {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("start packet references unknown private %q", item.Private)
		}
	}
	return nil
}

// NewGameState builds the initial state for the given players. Construction
// failures are fatal configuration errors, never runtime conditions.
func NewGameState(gameID string, def *GameDefinition, playerNames []string) (*GameState, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game definition %q: %w", def.Name, err)
	}
	if len(playerNames) < def.MinPlayers || len(playerNames) > def.MaxPlayers {
		return nil, fmt.Errorf("%d players outside range %d-%d", len(playerNames), def.MinPlayers, def.MaxPlayers)
	}

	phaseMgr, err := phase.NewManager(def.Phases)
	if err != nil {
		return nil, fmt.Errorf("invalid phase list: %w", err)
	}

	g := &GameState{
		GameID:       gameID,
		BankCash:     def.BankCash,
		Supply:       NewTrainSupply(def.TrainTypes),
		Board:        NewBoard(def.Hexes, def.Tiles),
		Market:       NewStockMarket(def.MarketPrices),
		Phase:        phaseMgr,
		StartPacket:  append([]StartItem(nil), def.StartPacket...),
		ParPriceList: append([]int(nil), def.ParPrices...),
		Options:      def.Options,
		Report:       &Report{},
	}
	// The opening phase's releases apply at setup; AdvanceTo only covers
	// later phases.
	g.Supply.Release(phaseMgr.Current().ReleasedTrains...)

	for i, name := range playerNames {
		p := &Player{
			ID:   name,
			Name: name,
			Cash: def.StartingCash,
		}
		if i == 0 {
			p.Priority = true
		}
		g.BankCash -= def.StartingCash
		g.Players = append(g.Players, p)
	}

	for i := range def.Companies {
		c := def.Companies[i] // copy the template
		c.Holdings = map[string]int{holdingIPO: c.NumShares}
		if c.HomeHex != "" {
			if h, ok := g.Board.Hex(c.HomeHex); ok {
				h.HomeOf = append(h.HomeOf, c.ID)
			}
		}
		g.Companies = append(g.Companies, &c)
	}

	for _, pc := range def.Privates {
		g.Privates = append(g.Privates, pc.clone())
	}

	if g.Options.SharesToFloat <= 0 {
		g.Options.SharesToFloat = 6
	}
	if g.Options.TokenCost <= 0 {
		g.Options.TokenCost = 40
	}

	return g, nil
}

// DefinitionByName resolves a ruleset name. Save files reference rulesets by
// name, so every loadable game must resolve here.
func DefinitionByName(name string) (*GameDefinition, error) {
	switch name {
	case "", "demo":
		return DemoDefinition(), nil
	}
	return nil, fmt.Errorf("unknown game definition %q", name)
}

// DemoDefinition returns the built-in compact ruleset used by tests and by
// game creation when no definition is supplied.
func DemoDefinition() *GameDefinition {
	return &GameDefinition{
		Name:         "demo",
		BankCash:     8000,
		StartingCash: 600,
		MinPlayers:   2,
		MaxPlayers:   6,
		Companies: []PublicCompany{
			{ID: "GNR", Name: "Great Northern", ShareUnit: 10, NumShares: 10,
				NumBaseTokens: 3, HomeHex: "B2", MustOwnTrain: true},
			{ID: "WRR", Name: "Western Railway", ShareUnit: 10, NumShares: 10,
				NumBaseTokens: 3, HomeHex: "C3", MustOwnTrain: true, MayTradeShares: true},
			{ID: "CPR", Name: "Coastal Pacific", ShareUnit: 10, NumShares: 10,
				NumBaseTokens: 2, HomeHex: "D2", MustOwnTrain: true, MaySplit: true,
				MaxLoans: 2, LoanValue: 100, LoanInterest: 10},
		},
		Privates: []*PrivateCompany{
			{ID: "P1", Name: "Stage Line", BasePrice: 20, Revenue: 5,
				Specials: []*SpecialProperty{
					{ID: "P1-lay", Kind: SpecialTileLay, Locations: "A3",
						FreeLay: true, ExtraLay: true, ClosesPrivate: true},
				}},
			{ID: "P2", Name: "Harbour Company", BasePrice: 70, Revenue: 15,
				CloseManually: true,
				Specials: []*SpecialProperty{
					{ID: "P2-token", Kind: SpecialTokenLay, Locations: "D4",
						ClosesPrivate: false},
				}},
		},
		TrainTypes: []TrainType{
			{Name: "2", Cost: 80, Amount: 6},
			{Name: "3", Cost: 180, Amount: 5, StartsPhase: "3"},
			{Name: "4", Cost: 300, Amount: 4, StartsPhase: "4"},
			{Name: "5", Cost: 450, Amount: 3, StartsPhase: "5"},
			{Name: "6", Cost: 630, Amount: -1, StartsPhase: "6", ExchangeValue: 200},
		},
		Phases: []phase.Phase{
			{Name: "2", TileColours: []string{"yellow"}, TrainLimit: 4, NumberOfORs: 1,
				ReleasedTrains: []string{"3"}},
			{Name: "3", TileColours: []string{"yellow", "green"}, TrainLimit: 4,
				NumberOfORs: 2, PrivatesSellable: true, TrainTrading: true,
				ReleasedTrains: []string{"4"}},
			{Name: "4", TileColours: []string{"yellow", "green"}, TrainLimit: 3,
				NumberOfORs: 2, PrivatesSellable: true, TrainTrading: true,
				RustedTrains: []string{"2"}, ReleasedTrains: []string{"5"}},
			{Name: "5", TileColours: []string{"yellow", "green", "brown"}, TrainLimit: 2,
				NumberOfORs: 3, TrainTrading: true, TreasuryTrading: true,
				ClosesPrivates: true, ReleasedTrains: []string{"6"}},
			{Name: "6", TileColours: []string{"yellow", "green", "brown"}, TrainLimit: 2,
				NumberOfORs: 3, TrainTrading: true, TreasuryTrading: true,
				RustedTrains: []string{"3"}},
		},
		Hexes: []Hex{
			{ID: "A1", Cost: 0},
			{ID: "A3", Cost: 20},
			{ID: "B2", Cost: 0, TokenSlots: 1},
			{ID: "B4", Cost: 40},
			{ID: "C1", Cost: 0},
			{ID: "C3", Cost: 0, TokenSlots: 1},
			{ID: "D2", Cost: 0, TokenSlots: 1},
			{ID: "D4", Cost: 20, TokenSlots: 1},
		},
		Tiles: []TileInfo{
			{ID: "7", Colour: "yellow", Count: 4},
			{ID: "8", Colour: "yellow", Count: 8},
			{ID: "9", Colour: "yellow", Count: 7},
			{ID: "57", Colour: "yellow", Count: 4, Slots: 1},
			{ID: "14", Colour: "green", Count: 3, Slots: 2},
			{ID: "15", Colour: "green", Count: 2, Slots: 2},
			{ID: "39", Colour: "brown", Count: 2, Slots: 2},
		},
		MarketPrices: []int{0, 40, 50, 60, 67, 76, 82, 90, 100, 112, 126, 142,
			160, 180, 200, 225, 250, 280, 300, 320, 350},
		ParPrices: []int{67, 76, 82, 90, 100},
		StartPacket: []StartItem{
			{Private: "P1", Price: 20},
			{Private: "P2", Price: 70},
		},
		Options: Options{
			SharesToFloat:        6,
			TokenCost:            40,
			BankruptcyEndsGame:   true,
			PresidentMustAddCash: true,
		},
	}
}
