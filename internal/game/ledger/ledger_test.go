package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironrail/rails-server-go/internal/game/actions"
)

func pass(player string) actions.Action {
	return actions.NullAction{Player: player, Mode: actions.NullPass}
}

func TestAppendAndApplied(t *testing.T) {
	l := New()
	assert.Equal(t, 0, l.Size())
	assert.False(t, l.CanUndo())
	assert.False(t, l.CanRedo())

	id1 := l.Append(pass("alice"), "snap-1")
	id2 := l.Append(pass("bob"), "snap-2")
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, l.Size())
	assert.Equal(t, 2, l.Total())

	applied := l.Applied()
	require.Len(t, applied, 2)
	assert.True(t, actions.Equal(pass("alice"), applied[0]))
	assert.True(t, actions.Equal(pass("bob"), applied[1]))
}

func TestUndoRestoresSnapshot(t *testing.T) {
	l := New()
	l.Append(pass("alice"), "snap-1")
	l.Append(pass("bob"), "snap-2")

	entry, err := l.Undo()
	require.NoError(t, err)
	assert.Equal(t, "snap-2", entry.Before)
	assert.Equal(t, 1, l.Size())
	assert.True(t, l.CanRedo())

	entry, err = l.Undo()
	require.NoError(t, err)
	assert.Equal(t, "snap-1", entry.Before)
	assert.False(t, l.CanUndo())

	_, err = l.Undo()
	assert.Error(t, err)
}

func TestUndoTo(t *testing.T) {
	l := New()
	for _, p := range []string{"a", "b", "c", "d"} {
		l.Append(pass(p), "snap-"+p)
	}

	entry, err := l.UndoTo(1)
	require.NoError(t, err)
	assert.Equal(t, "snap-b", entry.Before)
	assert.Equal(t, 1, l.Size())
	assert.Equal(t, 4, l.Total())

	_, err = l.UndoTo(3)
	assert.Error(t, err, "index beyond the applied range")
}

func TestRedoTo(t *testing.T) {
	l := New()
	for _, p := range []string{"a", "b", "c"} {
		l.Append(pass(p), "snap-"+p)
	}
	_, err := l.UndoTo(0)
	require.NoError(t, err)

	entries, err := l.RedoTo(1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, actions.Equal(pass("a"), entries[0].Action))
	assert.True(t, actions.Equal(pass("b"), entries[1].Action))
	assert.Equal(t, 2, l.Size())
	assert.True(t, l.CanRedo())

	_, err = l.RedoTo(0)
	assert.Error(t, err, "index already applied")
}

func TestAppendDiscardsRedoTail(t *testing.T) {
	l := New()
	l.Append(pass("a"), nil)
	l.Append(pass("b"), nil)
	_, err := l.Undo()
	require.NoError(t, err)
	require.True(t, l.CanRedo())

	l.Append(pass("c"), nil)
	assert.False(t, l.CanRedo())
	assert.Equal(t, 2, l.Total())

	applied := l.Applied()
	assert.True(t, actions.Equal(pass("c"), applied[1]))
}

func TestMatchPrefix(t *testing.T) {
	l := New()
	l.Append(pass("a"), nil)
	l.Append(pass("b"), nil)

	saved := []actions.Action{pass("a"), pass("b"), pass("c")}
	n, ok := l.MatchPrefix(saved)
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	diverged := []actions.Action{pass("a"), pass("x")}
	idx, ok := l.MatchPrefix(diverged)
	assert.False(t, ok)
	assert.Equal(t, 1, idx)

	n, ok = l.MatchPrefix([]actions.Action{pass("a")})
	assert.True(t, ok)
	assert.Equal(t, 1, n)
}

func TestEntryLookup(t *testing.T) {
	l := New()
	l.Append(pass("a"), "snap-a")

	e, err := l.Entry(0)
	require.NoError(t, err)
	assert.True(t, e.Legal)
	assert.Equal(t, "snap-a", e.Before)

	_, err = l.Entry(1)
	assert.Error(t, err)
}
