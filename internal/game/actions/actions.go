// Package actions defines the vocabulary of player-submitted actions and the
// legal-action set the engine publishes after every mutation.
//
// Every action variant is a struct with only comparable fields. Fields split
// into two groups: option fields, fixed by the engine when it enumerates the
// legal set, and choice fields, filled in by the submitting client. Membership
// of a submitted action in the published set is decided by SameOption, which
// compares option fields only; executors validate the choice fields.
package actions

import (
	"encoding/gob"
	"fmt"
)

// Type identifies the concrete variant of an Action.
type Type int

const (
	TypeTileLay Type = iota
	TypeBaseTokenLay
	TypeBonusTokenLay
	TypeBuyBonusToken
	TypeSetDividend
	TypeOperatingCost
	TypeBuyTrain
	TypeDiscardTrain
	TypeBuyPrivate
	TypeClosePrivate
	TypeReachDestinations
	TypeTakeLoans
	TypeRepayLoans
	TypeUseSpecialProperty
	TypeNull
	TypeGame
	TypeCorrection
	TypeBuyCertificate
	TypeSellShares
	TypeStartCompany
	TypeBuyStartItem
)

var typeNames = map[Type]string{
	TypeTileLay:            "TILE_LAY",
	TypeBaseTokenLay:       "BASE_TOKEN_LAY",
	TypeBonusTokenLay:      "BONUS_TOKEN_LAY",
	TypeBuyBonusToken:      "BUY_BONUS_TOKEN",
	TypeSetDividend:        "SET_DIVIDEND",
	TypeOperatingCost:      "OPERATING_COST",
	TypeBuyTrain:           "BUY_TRAIN",
	TypeDiscardTrain:       "DISCARD_TRAIN",
	TypeBuyPrivate:         "BUY_PRIVATE",
	TypeClosePrivate:       "CLOSE_PRIVATE",
	TypeReachDestinations:  "REACH_DESTINATIONS",
	TypeTakeLoans:          "TAKE_LOANS",
	TypeRepayLoans:         "REPAY_LOANS",
	TypeUseSpecialProperty: "USE_SPECIAL_PROPERTY",
	TypeNull:               "NULL",
	TypeGame:               "GAME",
	TypeCorrection:         "CORRECTION",
	TypeBuyCertificate:     "BUY_CERTIFICATE",
	TypeSellShares:         "SELL_SHARES",
	TypeStartCompany:       "START_COMPANY",
	TypeBuyStartItem:       "BUY_START_ITEM",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TYPE_%d", int(t))
}

// Action is the tagged union over all submittable game actions.
// Implementations are value types; an action is immutable once submitted.
type Action interface {
	// Type returns the variant tag.
	Type() Type
	// Actor returns the player or company expected to submit this action.
	Actor() string
	// String renders a short human-readable description for report lines.
	String() string
	// sameOption reports whether other is the same enumerated option,
	// ignoring choice fields. other is guaranteed to have the same Type.
	sameOption(other Action) bool
}

// Equal reports full structural equality, choice fields included. Replay
// verification compares logs with Equal; every Action variant is a struct of
// comparable fields, so interface comparison is exact.
func Equal(a, b Action) bool {
	return a == b
}

// SameOption reports whether a submitted action matches an enumerated option.
// Option fields must match exactly; choice fields are ignored.
func SameOption(a, b Action) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type() != b.Type() {
		return false
	}
	return a.sameOption(b)
}

// NullMode distinguishes the three pass-like actions.
type NullMode int

const (
	NullDone NullMode = iota
	NullPass
	NullSkip
)

var nullModeNames = map[NullMode]string{
	NullDone: "DONE",
	NullPass: "PASS",
	NullSkip: "SKIP",
}

func (m NullMode) String() string {
	if name, ok := nullModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("NULL_%d", int(m))
}

// NullAction is a Done/Pass/Skip affordance.
type NullAction struct {
	Player string
	Mode   NullMode
}

func (a NullAction) Type() Type    { return TypeNull }
func (a NullAction) Actor() string { return a.Player }
func (a NullAction) String() string {
	return fmt.Sprintf("%s: %s", a.Player, a.Mode)
}
func (a NullAction) sameOption(other Action) bool {
	o := other.(NullAction)
	return a.Player == o.Player && a.Mode == o.Mode
}

// GameKind identifies the meta-action handled centrally by the supervisor.
type GameKind int

const (
	GameSave GameKind = iota
	GameReload
	GameUndo
	GameForcedUndo
	GameRedo
	GameExport
)

var gameKindNames = map[GameKind]string{
	GameSave:       "SAVE",
	GameReload:     "RELOAD",
	GameUndo:       "UNDO",
	GameForcedUndo: "FORCED_UNDO",
	GameRedo:       "REDO",
	GameExport:     "EXPORT",
}

func (k GameKind) String() string {
	if name, ok := gameKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("GAME_%d", int(k))
}

// GameAction is a meta action: save, reload, undo, forced-undo, redo, export.
// Index is the target ledger index for ForcedUndo and Redo (choice field).
// Filename is the target for Save/Reload/Export (choice field).
type GameAction struct {
	Player   string
	Kind     GameKind
	Index    int
	Filename string
}

func (a GameAction) Type() Type    { return TypeGame }
func (a GameAction) Actor() string { return a.Player }
func (a GameAction) String() string {
	return fmt.Sprintf("%s: %s", a.Player, a.Kind)
}
func (a GameAction) sameOption(other Action) bool {
	o := other.(GameAction)
	return a.Kind == o.Kind
}

// Correction adjusts a cash balance outside normal round rules.
type Correction struct {
	Player string
	Target string // player or company whose cash is adjusted
	Amount int    // choice: signed cash delta
}

func (a Correction) Type() Type    { return TypeCorrection }
func (a Correction) Actor() string { return a.Player }
func (a Correction) String() string {
	return fmt.Sprintf("correction: %+d to %s", a.Amount, a.Target)
}
func (a Correction) sameOption(other Action) bool {
	// The published set carries a single correction affordance; any
	// submitted correction matches it.
	return true
}

// TileLay offers a tile lay. Colours is the comma-joined, sorted list of
// colours the lay may use; Locations restricts the target hexes when
// non-empty. SpecialID names the special property exercised, empty for a
// normal lay counted against the per-colour counters.
type TileLay struct {
	Company   string
	Colours   string
	Locations string
	SpecialID string
	// choice fields
	Hex         string
	TileID      string
	Orientation int
}

func (a TileLay) Type() Type    { return TypeTileLay }
func (a TileLay) Actor() string { return a.Company }
func (a TileLay) String() string {
	if a.Hex != "" {
		return fmt.Sprintf("%s lays tile %s on %s", a.Company, a.TileID, a.Hex)
	}
	return fmt.Sprintf("%s may lay a tile (%s)", a.Company, a.Colours)
}
func (a TileLay) sameOption(other Action) bool {
	o := other.(TileLay)
	return a.Company == o.Company && a.Colours == o.Colours &&
		a.Locations == o.Locations && a.SpecialID == o.SpecialID
}

// BaseTokenLay offers a station token lay. Locations restricts the target
// hexes when non-empty; Home marks a forced home-token lay.
type BaseTokenLay struct {
	Company   string
	Locations string
	SpecialID string
	Home      bool
	// choice field
	Hex string
}

func (a BaseTokenLay) Type() Type    { return TypeBaseTokenLay }
func (a BaseTokenLay) Actor() string { return a.Company }
func (a BaseTokenLay) String() string {
	if a.Hex != "" {
		return fmt.Sprintf("%s lays a base token on %s", a.Company, a.Hex)
	}
	return fmt.Sprintf("%s may lay a base token", a.Company)
}
func (a BaseTokenLay) sameOption(other Action) bool {
	o := other.(BaseTokenLay)
	return a.Company == o.Company && a.Locations == o.Locations &&
		a.SpecialID == o.SpecialID && a.Home == o.Home
}

// BonusTokenLay places a special-property bonus token on a hex.
type BonusTokenLay struct {
	Company   string
	SpecialID string
	// choice field
	Hex string
}

func (a BonusTokenLay) Type() Type    { return TypeBonusTokenLay }
func (a BonusTokenLay) Actor() string { return a.Company }
func (a BonusTokenLay) String() string {
	return fmt.Sprintf("%s lays bonus token on %s", a.Company, a.Hex)
}
func (a BonusTokenLay) sameOption(other Action) bool {
	o := other.(BonusTokenLay)
	return a.Company == o.Company && a.SpecialID == o.SpecialID
}

// BuyBonusToken buys a revenue bonus token from the bank.
type BuyBonusToken struct {
	Company   string
	SpecialID string
	Name      string
	Price     int
	Value     int
}

func (a BuyBonusToken) Type() Type    { return TypeBuyBonusToken }
func (a BuyBonusToken) Actor() string { return a.Company }
func (a BuyBonusToken) String() string {
	return fmt.Sprintf("%s buys bonus token %s for %d", a.Company, a.Name, a.Price)
}
func (a BuyBonusToken) sameOption(other Action) bool {
	o := other.(BuyBonusToken)
	return a.Company == o.Company && a.SpecialID == o.SpecialID &&
		a.Name == o.Name && a.Price == o.Price && a.Value == o.Value
}

// Allocation is a revenue allocation mode.
type Allocation int

const (
	AllocWithhold Allocation = iota
	AllocPayout
	AllocSplit
)

var allocationNames = map[Allocation]string{
	AllocWithhold: "WITHHOLD",
	AllocPayout:   "PAYOUT",
	AllocSplit:    "SPLIT",
}

func (al Allocation) String() string {
	if name, ok := allocationNames[al]; ok {
		return name
	}
	return fmt.Sprintf("ALLOC_%d", int(al))
}

// AllocSet is a bitmask over Allocation values.
type AllocSet int

// Has reports whether the set contains al.
func (s AllocSet) Has(al Allocation) bool { return s&(1<<al) != 0 }

// With returns the set extended with al.
func (s AllocSet) With(al Allocation) AllocSet { return s | 1<<al }

// SetDividend declares the company's revenue and allocation for the turn.
// Revenue and Allocation are choice fields, constrained by Allowed and,
// when Mandatory is set, forced to a zero-revenue withhold.
type SetDividend struct {
	Company   string
	Allowed   AllocSet
	Mandatory bool
	// choice fields
	Revenue    int
	Allocation Allocation
}

func (a SetDividend) Type() Type    { return TypeSetDividend }
func (a SetDividend) Actor() string { return a.Company }
func (a SetDividend) String() string {
	return fmt.Sprintf("%s declares revenue %d (%s)", a.Company, a.Revenue, a.Allocation)
}
func (a SetDividend) sameOption(other Action) bool {
	o := other.(SetDividend)
	return a.Company == o.Company && a.Allowed == o.Allowed && a.Mandatory == o.Mandatory
}

// OperatingCost pays an extraordinary cost from the company treasury.
type OperatingCost struct {
	Company string
	Reason  string
	// choice field
	Amount int
}

func (a OperatingCost) Type() Type    { return TypeOperatingCost }
func (a OperatingCost) Actor() string { return a.Company }
func (a OperatingCost) String() string {
	return fmt.Sprintf("%s pays %d operating cost (%s)", a.Company, a.Amount, a.Reason)
}
func (a OperatingCost) sameOption(other Action) bool {
	o := other.(OperatingCost)
	return a.Company == o.Company && a.Reason == o.Reason
}

// BuyTrain offers a train purchase. FromOwner is "ipo" or "pool" for bank
// trains, otherwise the selling company. FixedPrice of zero means the price
// is negotiable (cross-company trades); Exchange marks an exchange offer that
// ignores the train limit. Emergency marks the forced-purchase path where the
// president may have to add cash.
type BuyTrain struct {
	Company    string
	TrainType  string
	FromOwner  string
	FixedPrice int
	Exchange   bool
	Emergency  bool
	// choice fields
	Price         int
	PresidentCash int
}

func (a BuyTrain) Type() Type    { return TypeBuyTrain }
func (a BuyTrain) Actor() string { return a.Company }
func (a BuyTrain) String() string {
	return fmt.Sprintf("%s buys %s train from %s for %d", a.Company, a.TrainType, a.FromOwner, a.Price)
}
func (a BuyTrain) sameOption(other Action) bool {
	o := other.(BuyTrain)
	return a.Company == o.Company && a.TrainType == o.TrainType &&
		a.FromOwner == o.FromOwner && a.FixedPrice == o.FixedPrice &&
		a.Exchange == o.Exchange && a.Emergency == o.Emergency
}

// DiscardTrain discards one train from an over-limit company.
type DiscardTrain struct {
	Company string
	Forced  bool
	// choice field
	TrainID string
}

func (a DiscardTrain) Type() Type    { return TypeDiscardTrain }
func (a DiscardTrain) Actor() string { return a.Company }
func (a DiscardTrain) String() string {
	return fmt.Sprintf("%s discards train %s", a.Company, a.TrainID)
}
func (a DiscardTrain) sameOption(other Action) bool {
	o := other.(DiscardTrain)
	return a.Company == o.Company && a.Forced == o.Forced
}

// BuyPrivate buys a private company from a player into the company treasury.
type BuyPrivate struct {
	Company  string
	Private  string
	Seller   string
	MinPrice int
	MaxPrice int
	// choice field
	Price int
}

func (a BuyPrivate) Type() Type    { return TypeBuyPrivate }
func (a BuyPrivate) Actor() string { return a.Company }
func (a BuyPrivate) String() string {
	return fmt.Sprintf("%s buys private %s from %s for %d", a.Company, a.Private, a.Seller, a.Price)
}
func (a BuyPrivate) sameOption(other Action) bool {
	o := other.(BuyPrivate)
	return a.Company == o.Company && a.Private == o.Private && a.Seller == o.Seller &&
		a.MinPrice == o.MinPrice && a.MaxPrice == o.MaxPrice
}

// ClosePrivate voluntarily closes a private company.
type ClosePrivate struct {
	Player  string
	Private string
}

func (a ClosePrivate) Type() Type    { return TypeClosePrivate }
func (a ClosePrivate) Actor() string { return a.Player }
func (a ClosePrivate) String() string {
	return fmt.Sprintf("%s closes private %s", a.Player, a.Private)
}
func (a ClosePrivate) sameOption(other Action) bool {
	o := other.(ClosePrivate)
	return a.Player == o.Player && a.Private == o.Private
}

// ReachDestinations declares that the company has reached its destination.
type ReachDestinations struct {
	Company string
}

func (a ReachDestinations) Type() Type    { return TypeReachDestinations }
func (a ReachDestinations) Actor() string { return a.Company }
func (a ReachDestinations) String() string {
	return fmt.Sprintf("%s reaches its destination", a.Company)
}
func (a ReachDestinations) sameOption(other Action) bool {
	o := other.(ReachDestinations)
	return a.Company == o.Company
}

// TakeLoans takes up to MaxNumber loans of ValuePerLoan each.
type TakeLoans struct {
	Company      string
	MaxNumber    int
	ValuePerLoan int
	// choice field
	Number int
}

func (a TakeLoans) Type() Type    { return TypeTakeLoans }
func (a TakeLoans) Actor() string { return a.Company }
func (a TakeLoans) String() string {
	return fmt.Sprintf("%s takes %d loan(s)", a.Company, a.Number)
}
func (a TakeLoans) sameOption(other Action) bool {
	o := other.(TakeLoans)
	return a.Company == o.Company && a.MaxNumber == o.MaxNumber &&
		a.ValuePerLoan == o.ValuePerLoan
}

// RepayLoans repays between MinNumber and MaxNumber loans.
type RepayLoans struct {
	Company      string
	MinNumber    int
	MaxNumber    int
	ValuePerLoan int
	// choice field
	Number int
}

func (a RepayLoans) Type() Type    { return TypeRepayLoans }
func (a RepayLoans) Actor() string { return a.Company }
func (a RepayLoans) String() string {
	return fmt.Sprintf("%s repays %d loan(s)", a.Company, a.Number)
}
func (a RepayLoans) sameOption(other Action) bool {
	o := other.(RepayLoans)
	return a.Company == o.Company && a.MinNumber == o.MinNumber &&
		a.MaxNumber == o.MaxNumber && a.ValuePerLoan == o.ValuePerLoan
}

// UseSpecialProperty exercises a special property outside its own step.
type UseSpecialProperty struct {
	Player    string
	SpecialID string
}

func (a UseSpecialProperty) Type() Type    { return TypeUseSpecialProperty }
func (a UseSpecialProperty) Actor() string { return a.Player }
func (a UseSpecialProperty) String() string {
	return fmt.Sprintf("%s uses special property %s", a.Player, a.SpecialID)
}
func (a UseSpecialProperty) sameOption(other Action) bool {
	o := other.(UseSpecialProperty)
	return a.Player == o.Player && a.SpecialID == o.SpecialID
}

// BuyCertificate buys one certificate of a company from the IPO or the pool.
type BuyCertificate struct {
	Player  string
	Company string
	Source  string // "ipo" or "pool"
	Shares  int
	Price   int // per share
}

func (a BuyCertificate) Type() Type    { return TypeBuyCertificate }
func (a BuyCertificate) Actor() string { return a.Player }
func (a BuyCertificate) String() string {
	return fmt.Sprintf("%s buys %d share(s) of %s from %s at %d", a.Player, a.Shares, a.Company, a.Source, a.Price)
}
func (a BuyCertificate) sameOption(other Action) bool {
	o := other.(BuyCertificate)
	return a.Player == o.Player && a.Company == o.Company && a.Source == o.Source &&
		a.Shares == o.Shares && a.Price == o.Price
}

// SellShares sells shares of one company into the pool.
type SellShares struct {
	Player    string
	Company   string
	MaxShares int
	Price     int // per share
	// choice field
	Number int
}

func (a SellShares) Type() Type    { return TypeSellShares }
func (a SellShares) Actor() string { return a.Player }
func (a SellShares) String() string {
	return fmt.Sprintf("%s sells %d share(s) of %s at %d", a.Player, a.Number, a.Company, a.Price)
}
func (a SellShares) sameOption(other Action) bool {
	o := other.(SellShares)
	return a.Player == o.Player && a.Company == o.Company &&
		a.MaxShares == o.MaxShares && a.Price == o.Price
}

// StartCompany floats a company by buying the president's certificate at a
// chosen par price. Prices is the comma-joined list of allowed par prices.
type StartCompany struct {
	Player  string
	Company string
	Prices  string
	// choice field
	ParPrice int
}

func (a StartCompany) Type() Type    { return TypeStartCompany }
func (a StartCompany) Actor() string { return a.Player }
func (a StartCompany) String() string {
	return fmt.Sprintf("%s starts %s at par %d", a.Player, a.Company, a.ParPrice)
}
func (a StartCompany) sameOption(other Action) bool {
	o := other.(StartCompany)
	return a.Player == o.Player && a.Company == o.Company && a.Prices == o.Prices
}

// BuyStartItem buys an item from the start packet at its face price.
type BuyStartItem struct {
	Player string
	Item   string
	Price  int
}

func (a BuyStartItem) Type() Type    { return TypeBuyStartItem }
func (a BuyStartItem) Actor() string { return a.Player }
func (a BuyStartItem) String() string {
	return fmt.Sprintf("%s buys start item %s for %d", a.Player, a.Item, a.Price)
}
func (a BuyStartItem) sameOption(other Action) bool {
	o := other.(BuyStartItem)
	return a.Player == o.Player && a.Item == o.Item && a.Price == o.Price
}

// IsPassLike reports whether a is a pass-equivalent action the supervisor may
// auto-process when it is the only legal choice.
func IsPassLike(a Action) bool {
	n, ok := a.(NullAction)
	return ok && (n.Mode == NullPass || n.Mode == NullSkip || n.Mode == NullDone)
}

func init() {
	// Action logs are persisted with encoding/gob; every variant that can
	// appear in a log must be registered.
	gob.Register(NullAction{})
	gob.Register(GameAction{})
	gob.Register(Correction{})
	gob.Register(TileLay{})
	gob.Register(BaseTokenLay{})
	gob.Register(BonusTokenLay{})
	gob.Register(BuyBonusToken{})
	gob.Register(SetDividend{})
	gob.Register(OperatingCost{})
	gob.Register(BuyTrain{})
	gob.Register(DiscardTrain{})
	gob.Register(BuyPrivate{})
	gob.Register(ClosePrivate{})
	gob.Register(ReachDestinations{})
	gob.Register(TakeLoans{})
	gob.Register(RepayLoans{})
	gob.Register(UseSpecialProperty{})
	gob.Register(BuyCertificate{})
	gob.Register(SellShares{})
	gob.Register(StartCompany{})
	gob.Register(BuyStartItem{})
}
