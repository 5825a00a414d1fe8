package game

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ironrail/rails-server-go/internal/game/actions"
	"github.com/ironrail/rails-server-go/internal/game/ledger"
)

// RoundSupervisor owns the single current-round reference, dispatches
// incoming actions, decides round transitions, detects game over, and
// orchestrates undo/redo/save/reload. Process is the sole mutation boundary
// of a game; calls are externally serialized.
type RoundSupervisor struct {
	logger   *zap.Logger
	defName  string
	state    *GameState
	ledger   *ledger.Ledger
	possible *actions.Set

	// replaying marks the reload/redo execution path: auto-processing of
	// trivial turns is disabled and the Done-skip compatibility flag engages.
	replaying bool

	autosavePath   string
	autosaveWarned bool
}

// NewRoundSupervisor wraps an initial game state. Call Start to open the
// first round.
func NewRoundSupervisor(state *GameState, defName string, logger *zap.Logger) *RoundSupervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoundSupervisor{
		logger:   logger,
		defName:  defName,
		state:    state,
		ledger:   ledger.New(),
		possible: actions.NewSet(),
	}
}

// State returns the authoritative game state.
func (s *RoundSupervisor) State() *GameState { return s.state }

// Ledger returns the action ledger.
func (s *RoundSupervisor) Ledger() *ledger.Ledger { return s.ledger }

// EnableAutosave writes a save file after every accepted action. I/O errors
// degrade: warn once, keep playing.
func (s *RoundSupervisor) EnableAutosave(path string) {
	s.autosavePath = path
}

// Start opens the first round of the game and publishes the initial legal
// set.
func (s *RoundSupervisor) Start() {
	if len(s.state.StartPacket) > 0 {
		s.startStartRound()
	} else {
		s.startStockRound()
	}
	s.recomputeLegal()
}

// PossibleActions returns the last published legal-action set.
func (s *RoundSupervisor) PossibleActions() *actions.Set {
	return s.possible
}

// IsGameOver reports whether the terminal flag has been set.
func (s *RoundSupervisor) IsGameOver() bool { return s.state.GameOver }

// currentRound builds the facade for the active round context.
func (s *RoundSupervisor) currentRound() Round {
	g := s.state
	switch g.Round.Kind {
	case RoundStart:
		return &StartRound{sup: s, g: g, st: g.Round.Start}
	case RoundStock:
		return &StockRound{sup: s, g: g, st: g.Round.Stock}
	case RoundOperating:
		return &OperatingRound{sup: s, g: g, st: g.Round.Operating}
	case RoundShareSelling:
		return &ShareSellingRound{sup: s, g: g, st: g.Round.Selling}
	case RoundTreasuryShare:
		return &TreasuryShareRound{sup: s, g: g, st: g.Round.Treasury}
	case RoundEndOfGame:
		return &EndOfGameRound{g: g}
	}
	// Reaching here is a construction defect: a game must always hold a round.
	panic(fmt.Sprintf("no current round (kind %v)", g.Round.Kind))
}

// Process validates and executes one externally submitted action. A false
// return means the action was rejected, a reason was reported, and no state
// changed.
func (s *RoundSupervisor) Process(a actions.Action) bool {
	return s.process(a, true)
}

// ProcessOnReload is the mutation entry used during replay. It engages the
// Done-skip backward-compatibility path and disables trivial-turn
// auto-processing (auto-processed actions are already in the log).
func (s *RoundSupervisor) ProcessOnReload(a actions.Action) bool {
	s.replaying = true
	defer func() { s.replaying = false }()
	return s.process(a, true)
}

func (s *RoundSupervisor) process(a actions.Action, clearReport bool) bool {
	g := s.state
	if clearReport {
		g.Report.Clear()
	}
	if a == nil {
		g.Report.Add("No action submitted")
		return false
	}

	if ga, ok := a.(actions.GameAction); ok {
		return s.processGameAction(ga)
	}

	if g.GameOver {
		g.Report.Add("Rejected %q: the game has ended", a.String())
		return false
	}

	// Reload compatibility: older logs record a Done for a trade-shares step
	// the engine now skips outright. Drop it silently.
	if s.replaying && g.Round.Kind == RoundOperating && g.Round.Operating.DoneSkipCompat {
		if n, ok := a.(actions.NullAction); ok && n.Mode == actions.NullDone {
			g.Round.Operating.DoneSkipCompat = false
			return true
		}
	}

	if !s.possible.Contains(a) {
		if s.wrongActor(a) {
			g.Report.Add("Rejected %q: it is not %s's turn", a.String(), a.Actor())
		} else {
			g.Report.Add("Rejected %q: not in the current legal action set", a.String())
		}
		return false
	}

	before := g.Clone()

	var ok bool
	if corr, isCorr := a.(actions.Correction); isCorr {
		ok = s.processCorrection(corr)
	} else {
		ok = s.currentRound().Process(a)
	}
	if !ok {
		return false
	}

	s.ledger.Append(a, before)
	s.recomputeLegal()
	s.autosaveIfEnabled()
	if !s.replaying {
		s.autoProcessTrivial()
	}
	return true
}

// wrongActor reports whether the action's actor differs from every actor the
// legal set expects.
func (s *RoundSupervisor) wrongActor(a actions.Action) bool {
	for _, opt := range s.possible.Items() {
		if opt.Actor() == a.Actor() || opt.Actor() == "" {
			return false
		}
	}
	return true
}

// autoProcessTrivial collapses forced trivial turns: when the recomputed set
// contains only a single pass-equivalent real option, it is processed
// immediately on the actor's behalf.
func (s *RoundSupervisor) autoProcessTrivial() {
	for !s.state.GameOver {
		var real []actions.Action
		for _, opt := range s.possible.Items() {
			if opt.Type() != actions.TypeGame && opt.Type() != actions.TypeCorrection {
				real = append(real, opt)
			}
		}
		if len(real) != 1 || !actions.IsPassLike(real[0]) {
			return
		}
		s.logger.Debug("auto-processing trivial turn",
			zap.String("game_id", s.state.GameID),
			zap.String("action", real[0].String()),
		)
		if !s.process(real[0], false) {
			return
		}
	}
}

// recomputeLegal rebuilds the published legal-action set from the current
// round plus exactly the meta affordances the ledger permits.
func (s *RoundSupervisor) recomputeLegal() {
	s.possible.Clear()
	if s.state.GameOver {
		return
	}
	s.currentRound().SetPossibleActions()
	if s.ledger.CanUndo() {
		s.possible.Add(
			actions.GameAction{Kind: actions.GameUndo},
			actions.GameAction{Kind: actions.GameForcedUndo},
		)
	}
	if s.ledger.CanRedo() {
		s.possible.Add(actions.GameAction{Kind: actions.GameRedo})
	}
	s.possible.Add(
		actions.GameAction{Kind: actions.GameSave},
		actions.GameAction{Kind: actions.GameReload},
		actions.GameAction{Kind: actions.GameExport},
		actions.Correction{},
	)
}

// processGameAction handles the meta actions centrally; they never touch
// round-local logic and never open a change-set.
func (s *RoundSupervisor) processGameAction(ga actions.GameAction) bool {
	g := s.state
	switch ga.Kind {
	case actions.GameUndo:
		entry, err := s.ledger.Undo()
		if err != nil {
			g.Report.Add("Cannot undo: %v", err)
			return false
		}
		s.restore(entry.Before)
		g.Report.Add("Undid %q", entry.Action.String())
	case actions.GameForcedUndo:
		entry, err := s.ledger.UndoTo(ga.Index)
		if err != nil {
			g.Report.Add("Cannot undo to %d: %v", ga.Index, err)
			return false
		}
		s.restore(entry.Before)
		g.Report.Add("Undid back through action %d (%q)", ga.Index, entry.Action.String())
	case actions.GameRedo:
		entries, err := s.ledger.RedoTo(ga.Index)
		if err != nil {
			g.Report.Add("Cannot redo to %d: %v", ga.Index, err)
			return false
		}
		for _, e := range entries {
			s.redoEntry(e)
		}
		g.Report.Add("Redid %d action(s)", len(entries))
		s.recomputeLegal()
	case actions.GameSave:
		if err := s.saveTo(ga.Filename); err != nil {
			g.Report.Add("Save failed: %v", err)
			return false
		}
		g.Report.Add("Game saved to %s", ga.Filename)
	case actions.GameReload:
		return s.reloadFrom(ga.Filename)
	case actions.GameExport:
		if err := s.exportTo(ga.Filename); err != nil {
			g.Report.Add("Export failed: %v", err)
			return false
		}
		g.Report.Add("Game report exported to %s", ga.Filename)
	default:
		g.Report.Add("Unknown game action %v", ga.Kind)
		return false
	}
	return true
}

// restore replaces the live state with a snapshot. The stored snapshot is
// cloned again so repeated undo/redo cycles keep a pristine copy.
func (s *RoundSupervisor) restore(snap ledger.Snapshot) {
	s.state = snap.(*GameState).Clone()
	s.recomputeLegal()
}

// redoEntry re-executes a previously undone action. Legal-action generation
// is deterministic, so re-execution reproduces the original change-set; a
// failure here is a defect, not a recoverable condition.
func (s *RoundSupervisor) redoEntry(e ledger.Entry) {
	s.replaying = true
	defer func() { s.replaying = false }()
	var ok bool
	if corr, isCorr := e.Action.(actions.Correction); isCorr {
		ok = s.processCorrection(corr)
	} else {
		ok = s.currentRound().Process(e.Action)
	}
	if !ok {
		s.logger.Error("redo failed to reapply action",
			zap.String("game_id", s.state.GameID),
			zap.String("action", e.Action.String()),
		)
	}
}

// processCorrection applies a moderator cash correction outside round rules.
func (s *RoundSupervisor) processCorrection(c actions.Correction) bool {
	g := s.state
	if c.Amount == 0 {
		g.Report.Add("Rejected correction: zero amount")
		return false
	}
	from, to, amount := BankID, c.Target, c.Amount
	if amount < 0 {
		from, to, amount = c.Target, BankID, -amount
	}
	if err := g.MoveCash(from, to, amount); err != nil {
		g.Report.Add("Rejected correction: %v", err)
		return false
	}
	g.Report.Add("Correction: %+d to %s", c.Amount, c.Target)
	return true
}

// --- interruption / resume protocol ---

// StartShareSellingRound suspends the current round and opens a forced
// share-selling sub-round for the player, sized to cashToRaise.
func (s *RoundSupervisor) StartShareSellingRound(player string, cashToRaise int, company string, allowDump bool) {
	g := s.state
	g.Round.InterruptedKind = g.Round.Kind
	g.Round.Selling = &SellingState{
		Player:      player,
		CashToRaise: cashToRaise,
		Company:     company,
		AllowDump:   allowDump,
	}
	g.Round.Kind = RoundShareSelling
	g.Report.Add("%s must raise %d by selling shares", player, cashToRaise)
	s.logger.Info("share-selling round started",
		zap.String("game_id", g.GameID),
		zap.String("player", player),
		zap.Int("cash_to_raise", cashToRaise),
	)
}

// FinishShareSellingRound restores the interrupted round and resumes it,
// re-driving the pending action.
func (s *RoundSupervisor) FinishShareSellingRound() {
	g := s.state
	g.Round.Kind = g.Round.InterruptedKind
	g.Round.InterruptedKind = RoundNone
	g.Round.Selling = nil
	s.currentRound().Resume()
}

// StartTreasuryShareTradingRound suspends the current round and opens a
// treasury-share trading sub-round for the company.
func (s *RoundSupervisor) StartTreasuryShareTradingRound(company string) {
	g := s.state
	g.Round.InterruptedKind = g.Round.Kind
	g.Round.Treasury = &TreasuryState{Company: company}
	g.Round.Kind = RoundTreasuryShare
	g.Report.Add("%s may trade treasury shares", company)
}

// FinishTreasuryShareRound restores the interrupted round and resumes it.
func (s *RoundSupervisor) FinishTreasuryShareRound() {
	g := s.state
	g.Round.Kind = g.Round.InterruptedKind
	g.Round.InterruptedKind = RoundNone
	g.Round.Treasury = nil
	s.currentRound().Resume()
}

// setPending records the single in-flight action to re-drive on Resume.
func (s *RoundSupervisor) setPending(a actions.Action) {
	if s.state.Round.Pending != nil {
		// At most one pending action may exist; a second is a defect.
		s.logger.Error("pending action slot already occupied",
			zap.String("game_id", s.state.GameID),
			zap.String("pending", s.state.Round.Pending.String()),
			zap.String("new", a.String()),
		)
		return
	}
	s.state.Round.Pending = a
}

func (s *RoundSupervisor) takePending() actions.Action {
	a := s.state.Round.Pending
	s.state.Round.Pending = nil
	return a
}

// --- round transition table ---

// nextRound establishes the round following a finished one. The branch
// structure is fixed; see the round lifecycle contract.
func (s *RoundSupervisor) nextRound(finished RoundKind) {
	g := s.state
	switch finished {
	case RoundStart:
		g.Round.Start = nil
		switch {
		case !g.StartPacketSold():
			s.startOperatingRounds(false)
		case g.Options.SkipFirstStockRound && g.SRNumber == 0:
			s.startOperatingRounds(true)
		default:
			s.startStockRound()
		}
	case RoundStock:
		g.Round.Stock = nil
		s.startOperatingRounds(true)
	case RoundOperating:
		g.Round.Operating = nil
		switch {
		case g.GameOverPending && g.Options.GameEndsImmediately:
			s.FinishGame()
		case g.RelativeORNumber < g.NumORsThisSet:
			s.startNextOperatingRound()
		case g.GameOverPending:
			s.FinishGame()
		case !g.StartPacketSold():
			s.startStartRound()
		default:
			s.checkSoldOut()
			s.startStockRound()
		}
	default:
		s.logger.Error("nextRound called for sub-round",
			zap.String("game_id", g.GameID),
			zap.Stringer("kind", finished),
		)
	}
	s.logger.Info("round transition",
		zap.String("game_id", g.GameID),
		zap.Stringer("finished", finished),
		zap.Stringer("next", g.Round.Kind),
	)
}

func (s *RoundSupervisor) startStartRound() {
	g := s.state
	g.StartRoundsRun++
	g.Round.Kind = RoundStart
	g.Round.Start = &StartRoundState{
		Number:     g.StartRoundsRun,
		TurnPlayer: g.PlayerIndex(g.PriorityPlayer().ID),
	}
	g.Report.Add("Start round %d begins", g.StartRoundsRun)
}

func (s *RoundSupervisor) startStockRound() {
	g := s.state
	g.SRNumber++
	g.Round.Kind = RoundStock
	g.Round.Stock = &StockRoundState{
		Number:         g.SRNumber,
		TurnPlayer:     g.PlayerIndex(g.PriorityPlayer().ID),
		SellingAllowed: g.SRNumber > 1,
	}
	g.Report.Add("Stock round %d begins", g.SRNumber)
}

// startOperatingRounds opens the first operating round of a set. A
// non-counting run (start packet not fully sold) is a single OR outside the
// normal numbering.
func (s *RoundSupervisor) startOperatingRounds(counting bool) {
	g := s.state
	if counting {
		g.NumORsThisSet = g.Phase.Current().NumberOfORs
	} else {
		g.NumORsThisSet = 1
	}
	g.RelativeORNumber = 1
	s.openOperatingRound()
}

func (s *RoundSupervisor) startNextOperatingRound() {
	s.state.RelativeORNumber++
	s.openOperatingRound()
}

func (s *RoundSupervisor) openOperatingRound() {
	g := s.state
	g.ORNumber++
	g.Round.Kind = RoundOperating
	g.Round.Operating = newORState(g)
	g.Report.Add("Operating round %d.%d begins", g.SRNumber, g.RelativeORNumber)
	s.payPrivateRevenue()
	if len(g.Round.Operating.CompanyOrder) == 0 {
		g.Report.Add("No company can operate")
		s.nextRound(RoundOperating)
		return
	}
	or := &OperatingRound{sup: s, g: g, st: g.Round.Operating}
	or.initTurn()
}

// payPrivateRevenue pays every open private's fixed revenue to its owner at
// the start of an operating round.
func (s *RoundSupervisor) payPrivateRevenue() {
	g := s.state
	for _, pc := range g.Privates {
		if pc.Closed || pc.Owner == "" || pc.Revenue <= 0 {
			continue
		}
		if err := g.MoveCash(BankID, pc.Owner, pc.Revenue); err != nil {
			continue
		}
		g.Report.Add("%s pays %d to %s", pc.Name, pc.Revenue, pc.Owner)
	}
}

// checkSoldOut raises the price of companies whose shares are fully in
// player hands before a new stock round opens.
func (s *RoundSupervisor) checkSoldOut() {
	g := s.state
	for _, c := range g.Companies {
		if c.Closed || !c.Floated {
			continue
		}
		if c.Holdings[holdingIPO] == 0 && c.Holdings[holdingPool] == 0 && c.Holdings[holdingTreasury] == 0 {
			c.PriceIndex = g.Market.Up(c.PriceIndex)
			g.Report.Add("%s is sold out; price rises to %d", c.Name, g.Market.Price(c.PriceIndex))
			g.CheckPriceExtremes(c)
		}
	}
}

// FinishGame sets the terminal flag and reports the final ranking.
func (s *RoundSupervisor) FinishGame() {
	g := s.state
	g.GameOver = true
	g.Round.Kind = RoundEndOfGame
	g.Round.Operating = nil
	g.Round.Stock = nil
	g.Round.Start = nil
	g.Report.Add("The game is over")
	for _, line := range s.GameReport() {
		g.Report.Add("%s", line)
	}
	s.logger.Info("game finished", zap.String("game_id", g.GameID))
}

// GameReport returns the final ranking: players ordered by total worth,
// descending, ties broken by name.
func (s *RoundSupervisor) GameReport() []string {
	g := s.state
	type ranked struct {
		player *Player
		worth  int
	}
	rank := make([]ranked, len(g.Players))
	for i, p := range g.Players {
		rank[i] = ranked{player: p, worth: g.Worth(p)}
	}
	sort.SliceStable(rank, func(i, j int) bool {
		if rank[i].worth != rank[j].worth {
			return rank[i].worth > rank[j].worth
		}
		return rank[i].player.Name < rank[j].player.Name
	})
	lines := make([]string, len(rank))
	for i, r := range rank {
		lines[i] = fmt.Sprintf("%d. %s (%d)", i+1, r.player.Name, r.worth)
	}
	return lines
}
