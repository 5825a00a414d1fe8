package game

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ironrail/rails-server-go/internal/game/actions"
)

func TestEncodeDecodeSavedGame(t *testing.T) {
	sup := newDemoGame(t, "alice", "bob", "carol")
	sellStartPacket(t, sup)
	sg := sup.snapshot()

	data, err := EncodeSavedGame(sg)
	require.NoError(t, err)

	got, err := DecodeSavedGame(data)
	require.NoError(t, err)
	assert.Equal(t, sg.GameID, got.GameID)
	assert.Equal(t, sg.Definition, got.Definition)
	assert.Equal(t, sg.Players, got.Players)
	assert.Equal(t, sg.Checksum, got.Checksum)
	require.Len(t, got.Actions, len(sg.Actions))
	for i := range sg.Actions {
		assert.True(t, actions.Equal(sg.Actions[i], got.Actions[i]),
			"action %d differs after the round trip", i)
	}
}

func TestDecodeRejectsWrongVersion(t *testing.T) {
	sup := newDemoGame(t, "alice", "bob")
	sg := sup.snapshot()
	sg.Version = saveFormatVersion + 1

	data, err := EncodeSavedGame(sg)
	require.NoError(t, err)
	_, err = DecodeSavedGame(data)
	assert.Error(t, err)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := DecodeSavedGame([]byte("not a save file"))
	assert.Error(t, err)
}

func TestWriteAndReadSavedGame(t *testing.T) {
	sup := newDemoGame(t, "alice", "bob", "carol")
	sellStartPacket(t, sup)
	path := filepath.Join(t.TempDir(), "nested", "demo.rails")

	require.NoError(t, WriteSavedGame(path, sup.snapshot()))

	got, err := ReadSavedGame(path)
	require.NoError(t, err)
	assert.Equal(t, "test-game", got.GameID)
	assert.Len(t, got.Actions, 2)
}

func TestLoadSavedGameReplaysToIdenticalState(t *testing.T) {
	sup := newDemoGame(t, "alice", "bob", "carol")
	sellStartPacket(t, sup)
	floatGreatNorthern(t, sup)
	path := filepath.Join(t.TempDir(), "demo.rails")
	require.NoError(t, sup.saveTo(path))

	loaded, err := LoadSavedGame(path, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, StateChecksum(sup.State()), StateChecksum(loaded.State()))
	assert.Equal(t, sup.Ledger().Size(), loaded.Ledger().Size())
	assert.Equal(t, sup.PossibleActions().Len(), loaded.PossibleActions().Len())
}

func TestReloadReplaysTheTail(t *testing.T) {
	sup := newDemoGame(t, "alice", "bob", "carol")
	sellStartPacket(t, sup)
	path := filepath.Join(t.TempDir(), "demo.rails")
	require.NoError(t, sup.saveTo(path))
	savedSum := StateChecksum(sup.State())

	mustProcess(t, sup, actions.GameAction{Kind: actions.GameUndo})
	mustProcess(t, sup, actions.GameAction{Kind: actions.GameUndo})
	require.Equal(t, 0, sup.Ledger().Size())

	mustProcess(t, sup, actions.GameAction{Kind: actions.GameReload, Filename: path})

	assert.Equal(t, 2, sup.Ledger().Size())
	assert.Equal(t, savedSum, StateChecksum(sup.State()))
	assert.Equal(t, RoundStock, sup.State().Round.Kind)
}

func TestReloadRejectsDivergedGame(t *testing.T) {
	sup := newDemoGame(t, "alice", "bob", "carol")
	mustProcess(t, sup, actions.BuyStartItem{Player: "alice", Item: "P1", Price: 20})
	path := filepath.Join(t.TempDir(), "demo.rails")
	require.NoError(t, sup.saveTo(path))

	mustProcess(t, sup, actions.GameAction{Kind: actions.GameUndo})
	mustProcess(t, sup, actions.NullAction{Player: "alice", Mode: actions.NullPass})

	ok := sup.Process(actions.GameAction{Kind: actions.GameReload, Filename: path})
	assert.False(t, ok)
	lines := sup.State().Report.Lines()
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[len(lines)-1], "diverges")
}

func TestReloadRejectsStaleSave(t *testing.T) {
	sup := newDemoGame(t, "alice", "bob", "carol")
	mustProcess(t, sup, actions.BuyStartItem{Player: "alice", Item: "P1", Price: 20})
	path := filepath.Join(t.TempDir(), "demo.rails")
	require.NoError(t, sup.saveTo(path))

	mustProcess(t, sup, actions.BuyStartItem{Player: "bob", Item: "P2", Price: 70})

	ok := sup.Process(actions.GameAction{Kind: actions.GameReload, Filename: path})
	assert.False(t, ok)
	assert.Equal(t, 2, sup.Ledger().Size())
	lines := sup.State().Report.Lines()
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[len(lines)-1], "already ahead")
}

func TestAutosaveWritesAfterEveryAction(t *testing.T) {
	sup := newDemoGame(t, "alice", "bob", "carol")
	path := filepath.Join(t.TempDir(), "auto.rails")
	sup.EnableAutosave(path)

	mustProcess(t, sup, actions.BuyStartItem{Player: "alice", Item: "P1", Price: 20})

	got, err := ReadSavedGame(path)
	require.NoError(t, err)
	require.Len(t, got.Actions, 1)
	assert.True(t, actions.Equal(
		actions.BuyStartItem{Player: "alice", Item: "P1", Price: 20}, got.Actions[0]))
}
