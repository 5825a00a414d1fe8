package integration

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ironrail/rails-server-go/internal/game"
	"github.com/ironrail/rails-server-go/internal/game/actions"
)

func submit(t *testing.T, e *game.Engine, gameID string, a actions.Action) {
	t.Helper()
	ok, report, err := e.Process(gameID, a)
	require.NoError(t, err)
	require.True(t, ok, "action %q was rejected: %v", a.String(), report)
}

// TestDemoGameFlow drives one game through the engine facade: start packet,
// first stock round, and the opening of the first operating round.
func TestDemoGameFlow(t *testing.T) {
	e := game.NewEngine(zap.NewNop(), "")
	gameID, err := e.NewGame("demo", []string{"alice", "bob", "carol"})
	require.NoError(t, err)

	view, err := e.View(gameID)
	require.NoError(t, err)
	assert.Equal(t, "Start round 1", view.Round)
	assert.Equal(t, "2", view.Phase)
	require.Len(t, view.Players, 3)

	// The start packet sells out.
	submit(t, e, gameID, actions.BuyStartItem{Player: "alice", Item: "P1", Price: 20})
	submit(t, e, gameID, actions.BuyStartItem{Player: "bob", Item: "P2", Price: 70})

	view, err = e.View(gameID)
	require.NoError(t, err)
	assert.Equal(t, "Stock round 1", view.Round)

	// Carol starts GNR and four certificates follow, floating the company.
	submit(t, e, gameID, actions.StartCompany{
		Player: "carol", Company: "GNR", Prices: "67,76,82,90,100", ParPrice: 67,
	})
	for _, player := range []string{"alice", "bob", "carol", "alice"} {
		submit(t, e, gameID, actions.BuyCertificate{
			Player: player, Company: "GNR", Source: "ipo", Shares: 1, Price: 67,
		})
	}
	for _, player := range []string{"bob", "carol", "alice"} {
		submit(t, e, gameID, actions.NullAction{Player: player, Mode: actions.NullPass})
	}

	view, err = e.View(gameID)
	require.NoError(t, err)
	assert.Equal(t, "Operating round 1.1", view.Round)
	gnr := view.Companies[0]
	assert.True(t, gnr.Floated)
	assert.Equal(t, 670, gnr.Cash)
	assert.Equal(t, "carol", gnr.President)

	// GNR plays out its turn.
	submit(t, e, gameID, actions.BaseTokenLay{
		Company: "GNR", Locations: "B2", Home: true, Hex: "B2",
	})
	submit(t, e, gameID, actions.TileLay{
		Company: "GNR", Colours: "yellow", Hex: "A1", TileID: "8",
	})
	submit(t, e, gameID, actions.NullAction{Player: "carol", Mode: actions.NullSkip})
	submit(t, e, gameID, actions.BuyTrain{
		Company: "GNR", TrainType: "2", FromOwner: "ipo", FixedPrice: 80, Price: 80,
	})
	submit(t, e, gameID, actions.NullAction{Player: "carol", Mode: actions.NullDone})

	view, err = e.View(gameID)
	require.NoError(t, err)
	assert.Equal(t, "Stock round 2", view.Round)
	over, err := e.IsGameOver(gameID)
	require.NoError(t, err)
	assert.False(t, over)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	e := game.NewEngine(zap.NewNop(), "")
	gameID, err := e.NewGame("demo", []string{"alice", "bob"})
	require.NoError(t, err)
	submit(t, e, gameID, actions.BuyStartItem{Player: "alice", Item: "P1", Price: 20})

	sg, err := e.Snapshot(gameID)
	require.NoError(t, err)
	data, err := game.EncodeSavedGame(sg)
	require.NoError(t, err)

	// Restore into a second engine, as the server does when loading a blob
	// from the repository.
	e2 := game.NewEngine(zap.NewNop(), "")
	decoded, err := game.DecodeSavedGame(data)
	require.NoError(t, err)
	restoredID, err := e2.RestoreGame(decoded)
	require.NoError(t, err)
	assert.Equal(t, gameID, restoredID)

	orig, err := e.View(gameID)
	require.NoError(t, err)
	restored, err := e2.View(restoredID)
	require.NoError(t, err)
	assert.Equal(t, orig.Players, restored.Players)
	assert.Equal(t, orig.Companies, restored.Companies)
	assert.Equal(t, orig.Privates, restored.Privates)
	assert.Equal(t, len(orig.Actions), len(restored.Actions))

	// The same ID cannot be hosted twice.
	_, err = e2.RestoreGame(decoded)
	assert.Error(t, err)
}

func TestSaveAndLoadThroughEngine(t *testing.T) {
	e := game.NewEngine(zap.NewNop(), "")
	gameID, err := e.NewGame("demo", []string{"alice", "bob"})
	require.NoError(t, err)
	submit(t, e, gameID, actions.BuyStartItem{Player: "alice", Item: "P1", Price: 20})

	path := filepath.Join(t.TempDir(), "flow.rails")
	require.NoError(t, e.Save(gameID, path))

	e2 := game.NewEngine(zap.NewNop(), "")
	loadedID, err := e2.LoadGame(path)
	require.NoError(t, err)
	assert.Equal(t, gameID, loadedID)

	possible, err := e2.PossibleActions(loadedID)
	require.NoError(t, err)
	assert.NotEmpty(t, possible)
}

// TestPossibleActionsSnapshotIsStable pins down that the slice handed to a
// caller is not rewritten by later processing: the server marshals it
// outside the per-game lock.
func TestPossibleActionsSnapshotIsStable(t *testing.T) {
	e := game.NewEngine(zap.NewNop(), "")
	gameID, err := e.NewGame("demo", []string{"alice", "bob", "carol"})
	require.NoError(t, err)

	before, err := e.PossibleActions(gameID)
	require.NoError(t, err)
	require.NotEmpty(t, before)
	want := make([]string, len(before))
	for i, a := range before {
		want[i] = a.String()
	}

	submit(t, e, gameID, actions.BuyStartItem{Player: "alice", Item: "P1", Price: 20})

	for i, a := range before {
		assert.Equal(t, want[i], a.String())
	}
	after, err := e.PossibleActions(gameID)
	require.NoError(t, err)
	assert.NotEqual(t, want[0], after[0].String())
}

func TestEngineRejectsUnknownGame(t *testing.T) {
	e := game.NewEngine(zap.NewNop(), "")
	_, _, err := e.Process("no-such-game", actions.NullAction{Player: "alice", Mode: actions.NullPass})
	assert.Error(t, err)
	_, err = e.View("no-such-game")
	assert.Error(t, err)
}
