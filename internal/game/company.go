package game

// Share holding keys used alongside player IDs in PublicCompany.Holdings.
const (
	holdingIPO      = "ipo"
	holdingPool     = "pool"
	holdingTreasury = "treasury"
)

// PublicCompany is an operating railway company.
type PublicCompany struct {
	ID        string
	Name      string
	Cash      int
	President string
	// ShareUnit is the percentage one share represents; NumShares * ShareUnit
	// covers the whole company (10 x 10% in the demo ruleset).
	ShareUnit int
	NumShares int
	// Holdings maps player ID / "ipo" / "pool" / "treasury" to share counts.
	Holdings map[string]int

	ParPrice   int
	PriceIndex int

	Floated     bool
	Closed      bool
	HasOperated bool

	HomeHex       string
	HomeTokenLaid bool
	// NumBaseTokens is the total token allotment; TokensLaid counts those on
	// the board.
	NumBaseTokens int
	TokensLaid    int

	Trains []*Train

	Loans     int
	MaxLoans  int
	LoanValue int
	// LoanInterest is deducted per loan from declared revenue before any
	// distribution.
	LoanInterest int

	// Bonuses is extra run revenue granted by bonus tokens and rights.
	Bonuses int

	// MustOwnTrain forces the emergency-purchase path when the company ends
	// its turn trainless.
	MustOwnTrain bool
	// MayTradeShares admits the TRADE_SHARES step once the company has
	// operated.
	MayTradeShares bool
	// AlwaysSplit / MaySplit constrain the dividend allocation choices.
	AlwaysSplit bool
	MaySplit    bool

	ReachedDestination bool
}

func (c *PublicCompany) clone() *PublicCompany {
	cp := *c
	cp.Holdings = make(map[string]int, len(c.Holdings))
	for k, v := range c.Holdings {
		cp.Holdings[k] = v
	}
	cp.Trains = make([]*Train, len(c.Trains))
	for i, t := range c.Trains {
		tc := *t
		cp.Trains[i] = &tc
	}
	return &cp
}

// FreeTokens returns the number of base tokens still available to lay.
func (c *PublicCompany) FreeTokens() int {
	return c.NumBaseTokens - c.TokensLaid
}

// SharesOwned returns the share count held by holder.
func (c *PublicCompany) SharesOwned(holder string) int {
	return c.Holdings[holder]
}

// HasTrain reports whether the company owns at least one unrusted train.
func (c *PublicCompany) HasTrain() bool {
	return len(c.Trains) > 0
}

// RemoveTrain detaches the train with the given ID, reporting success.
func (c *PublicCompany) RemoveTrain(trainID string) (*Train, bool) {
	for i, t := range c.Trains {
		if t.ID == trainID {
			c.Trains = append(c.Trains[:i:i], c.Trains[i+1:]...)
			return t, true
		}
	}
	return nil, false
}

// SpecialKind classifies a special property.
type SpecialKind int

const (
	SpecialTileLay SpecialKind = iota
	SpecialTokenLay
	SpecialBonusToken
	SpecialRight
)

var specialKindNames = map[SpecialKind]string{
	SpecialTileLay:    "TILE_LAY",
	SpecialTokenLay:   "TOKEN_LAY",
	SpecialBonusToken: "BONUS_TOKEN",
	SpecialRight:      "RIGHT",
}

func (k SpecialKind) String() string {
	if name, ok := specialKindNames[k]; ok {
		return name
	}
	return "SPECIAL"
}

// SpecialProperty is an extra ability attached to a private company.
type SpecialProperty struct {
	ID   string
	Kind SpecialKind
	// Locations restricts target hexes when non-empty (comma-joined).
	Locations string
	// Colours restricts tile colours for SpecialTileLay (comma-joined);
	// empty defers to the current phase.
	Colours string
	// FreeLay waives the terrain cost of the lay.
	FreeLay bool
	// ExtraLay keeps the lay from counting against the per-colour counters.
	ExtraLay bool
	// StepIndependent properties are offered in every non-forced step.
	StepIndependent bool
	// CommonToAll properties are usable by any acting party.
	CommonToAll bool
	// ClosesPrivate closes the owning private once exercised.
	ClosesPrivate bool
	// Price and Value apply to SpecialBonusToken and SpecialRight.
	Price int
	Value int
	Name  string

	Exercised bool
}

func (sp *SpecialProperty) clone() *SpecialProperty {
	cp := *sp
	return &cp
}

// PrivateCompany is a minor company owned by a player or a public company.
type PrivateCompany struct {
	ID        string
	Name      string
	BasePrice int
	Revenue   int
	// Owner is a player ID or company ID; empty while in the start packet.
	Owner  string
	Closed bool
	// CloseManually permits a voluntary close during an operating turn.
	CloseManually bool
	Specials      []*SpecialProperty
}

func (pc *PrivateCompany) clone() *PrivateCompany {
	cp := *pc
	cp.Specials = make([]*SpecialProperty, len(pc.Specials))
	for i, sp := range pc.Specials {
		cp.Specials[i] = sp.clone()
	}
	return &cp
}

// UnexercisedSpecials returns the open special properties of the private.
func (pc *PrivateCompany) UnexercisedSpecials() []*SpecialProperty {
	if pc.Closed {
		return nil
	}
	var out []*SpecialProperty
	for _, sp := range pc.Specials {
		if !sp.Exercised {
			out = append(out, sp)
		}
	}
	return out
}
