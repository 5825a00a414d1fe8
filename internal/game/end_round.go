package game

import "github.com/ironrail/rails-server-go/internal/game/actions"

// EndOfGameRound is the terminal round: no game action is legal any more.
type EndOfGameRound struct {
	g *GameState
}

// RoundName implements Round.
func (r *EndOfGameRound) RoundName() string { return "End of game" }

// Process implements Round.
func (r *EndOfGameRound) Process(a actions.Action) bool {
	r.g.Report.Add("Rejected %q: the game has ended", a.String())
	return false
}

// SetPossibleActions implements Round.
func (r *EndOfGameRound) SetPossibleActions() bool { return false }

// Resume implements Round.
func (r *EndOfGameRound) Resume() {}
