package lobby

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateTableSeatsCreator(t *testing.T) {
	m := NewManager(zap.NewNop())
	table := m.CreateTable("friday night", "demo", "alice", 2, 4)

	assert.Equal(t, []string{"alice"}, table.Players())
	assert.Equal(t, TableStateOpen, table.State())
	assert.True(t, table.IsCreator("alice"))
	assert.False(t, table.IsCreator("bob"))

	got, ok := m.GetTable(table.ID)
	require.True(t, ok)
	assert.Same(t, table, got)
}

func TestJoinAndLeave(t *testing.T) {
	table := NewTable("t", "demo", "alice", 2, 3)

	require.NoError(t, table.Join("bob"))
	assert.Error(t, table.Join("bob"), "duplicate seat")
	require.NoError(t, table.Join("carol"))
	assert.Error(t, table.Join("dave"), "table is full")

	require.NoError(t, table.Leave("bob"))
	assert.Equal(t, []string{"alice", "carol"}, table.Players())
	assert.Error(t, table.Leave("bob"), "not seated")
}

func TestBeginStartRequiresMinimumSeats(t *testing.T) {
	table := NewTable("t", "demo", "alice", 3, 4)
	require.NoError(t, table.Join("bob"))

	_, err := table.BeginStart()
	assert.Error(t, err)
	assert.Equal(t, TableStateOpen, table.State())

	require.NoError(t, table.Join("carol"))
	players, err := table.BeginStart()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, players)
	assert.Equal(t, TableStateStarting, table.State())

	// A starting table accepts no more players.
	assert.Error(t, table.Join("dave"))
	_, err = table.BeginStart()
	assert.Error(t, err)
}

func TestConfirmStartAndFinish(t *testing.T) {
	table := NewTable("t", "demo", "alice", 2, 4)
	require.NoError(t, table.Join("bob"))
	_, err := table.BeginStart()
	require.NoError(t, err)

	table.ConfirmStart("game-1")
	assert.Equal(t, TableStatePlaying, table.State())
	assert.Equal(t, "game-1", table.GameID())

	snap := table.Snapshot()
	assert.Equal(t, "Playing", snap.State)
	assert.Equal(t, "game-1", snap.GameID)
	require.NotNil(t, snap.StartedAt)

	table.Finish()
	assert.Equal(t, TableStateFinished, table.State())
}

func TestAbortStartReopensTable(t *testing.T) {
	table := NewTable("t", "demo", "alice", 2, 4)
	require.NoError(t, table.Join("bob"))
	_, err := table.BeginStart()
	require.NoError(t, err)

	table.AbortStart()
	assert.Equal(t, TableStateOpen, table.State())
	require.NoError(t, table.Join("carol"))

	// AbortStart on a playing table does nothing.
	_, err = table.BeginStart()
	require.NoError(t, err)
	table.ConfirmStart("game-1")
	table.AbortStart()
	assert.Equal(t, TableStatePlaying, table.State())
}

func TestTableForGame(t *testing.T) {
	m := NewManager(zap.NewNop())
	t1 := m.CreateTable("one", "demo", "alice", 2, 4)
	m.CreateTable("two", "demo", "bob", 2, 4)

	_, ok := m.TableForGame("game-1")
	assert.False(t, ok)

	t1.ConfirmStart("game-1")
	got, ok := m.TableForGame("game-1")
	require.True(t, ok)
	assert.Same(t, t1, got)

	assert.Len(t, m.AllTables(), 2)
	m.RemoveTable(t1.ID)
	assert.Len(t, m.AllTables(), 1)
}
