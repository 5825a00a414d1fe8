package game

import (
	"fmt"

	"github.com/ironrail/rails-server-go/internal/game/actions"
)

// RoundKind tags the active round variant.
type RoundKind int

const (
	RoundNone RoundKind = iota
	RoundStart
	RoundStock
	RoundOperating
	RoundShareSelling
	RoundTreasuryShare
	RoundEndOfGame
)

var roundKindNames = map[RoundKind]string{
	RoundNone:          "NONE",
	RoundStart:         "START_ROUND",
	RoundStock:         "STOCK_ROUND",
	RoundOperating:     "OPERATING_ROUND",
	RoundShareSelling:  "SHARE_SELLING_ROUND",
	RoundTreasuryShare: "TREASURY_SHARE_ROUND",
	RoundEndOfGame:     "END_OF_GAME_ROUND",
}

func (k RoundKind) String() string {
	if name, ok := roundKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ROUND_%d", int(k))
}

// Round is the capability set every round variant implements. Round values
// are thin facades over the round context stored in GameState; all of their
// mutable state lives there so that snapshots cover it.
type Round interface {
	// RoundName returns a display name including the round number.
	RoundName() string
	// Process validates and executes one action. A false return means the
	// action was rejected with a report line and state is unchanged.
	Process(a actions.Action) bool
	// SetPossibleActions recomputes the round's contribution to the legal
	// set. It reports whether any action was generated.
	SetPossibleActions() bool
	// Resume continues the round after an interrupting sub-round finished,
	// re-driving the pending action if one was recorded.
	Resume()
}

// RoundCtx is the mutable round bookkeeping, embedded in GameState so that
// undo snapshots restore round-local state along with game state.
type RoundCtx struct {
	Kind RoundKind

	Start     *StartRoundState
	Stock     *StockRoundState
	Operating *ORState
	Selling   *SellingState
	Treasury  *TreasuryState

	// InterruptedKind remembers the suspended round while a sub-round runs.
	// The supervisor retains ownership; the sub-round only holds the tag.
	InterruptedKind RoundKind
	// Pending is the single in-flight action whose completion is deferred
	// until the sub-round finishes. At most one may exist at a time.
	Pending actions.Action
}

func (rc *RoundCtx) clone() RoundCtx {
	cp := *rc
	if rc.Start != nil {
		s := *rc.Start
		cp.Start = &s
	}
	if rc.Stock != nil {
		s := *rc.Stock
		cp.Stock = &s
	}
	if rc.Operating != nil {
		cp.Operating = rc.Operating.clone()
	}
	if rc.Selling != nil {
		s := *rc.Selling
		cp.Selling = &s
	}
	if rc.Treasury != nil {
		s := *rc.Treasury
		cp.Treasury = &s
	}
	// Pending actions are immutable values; sharing is safe.
	return cp
}

// StartRoundState is the bookkeeping of a start round.
type StartRoundState struct {
	Number     int
	TurnPlayer int // index into GameState.Players
	Passes     int
}

// StockRoundState is the bookkeeping of a stock round.
type StockRoundState struct {
	Number     int
	TurnPlayer int
	Passes     int
	LastToAct  string
	// SellingAllowed is false in the first stock round.
	SellingAllowed bool
}

// SellingState is the bookkeeping of a share-selling sub-round.
type SellingState struct {
	Player      string
	CashToRaise int
	// Company is the company whose obligation forced the sale.
	Company   string
	AllowDump bool
}

// TreasuryState is the bookkeeping of a treasury-share trading sub-round.
type TreasuryState struct {
	Company string
}
