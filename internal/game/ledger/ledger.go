// Package ledger keeps the ordered, append-only log of executed actions and
// the change-stack that makes them undoable. One change-set wraps all
// mutations caused by one accepted external action; meta actions (undo,
// redo, save) never open a change-set and never enter the log.
//
// The change-set is realized as the deep-copy state snapshot taken
// immediately before the action executed, paired with the action itself:
// undoing restores the snapshot, redoing re-executes the action. Legal-action
// generation is deterministic, so re-execution reproduces the original state
// exactly.
package ledger

import (
	"fmt"

	"github.com/ironrail/rails-server-go/internal/game/actions"
)

// Snapshot is an opaque pre-action state snapshot owned by the caller.
type Snapshot interface{}

// Entry is one executed external action with its change-set.
type Entry struct {
	Action      actions.Action
	Legal       bool // legality flag at acceptance time; always true for logged entries
	ChangeSetID int
	Before      Snapshot // state immediately before the action executed
}

// Ledger is the action log plus undo/redo cursor. Entries at index >= cursor
// have been undone and form the redo tail; appending a new action discards
// the tail.
type Ledger struct {
	entries []Entry
	cursor  int
	nextID  int
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{nextID: 1}
}

// Append closes a new change-set for an accepted external action, discarding
// any redo tail. It returns the change-set ID.
func (l *Ledger) Append(a actions.Action, before Snapshot) int {
	l.entries = l.entries[:l.cursor]
	id := l.nextID
	l.nextID++
	l.entries = append(l.entries, Entry{Action: a, Legal: true, ChangeSetID: id, Before: before})
	l.cursor = len(l.entries)
	return id
}

// Size returns the number of applied (not undone) entries.
func (l *Ledger) Size() int { return l.cursor }

// Total returns the number of entries including the redo tail.
func (l *Ledger) Total() int { return len(l.entries) }

// CanUndo reports whether at least one change-set can be reverted.
func (l *Ledger) CanUndo() bool { return l.cursor > 0 }

// CanRedo reports whether an undone change-set can be reapplied.
func (l *Ledger) CanRedo() bool { return l.cursor < len(l.entries) }

// Undo reverts the most recently closed change-set. The returned entry's
// Before snapshot is the state to restore.
func (l *Ledger) Undo() (Entry, error) {
	if !l.CanUndo() {
		return Entry{}, fmt.Errorf("nothing to undo")
	}
	l.cursor--
	return l.entries[l.cursor], nil
}

// UndoTo reverts back through index: afterwards index is the first undone
// entry. The returned entry's Before snapshot is the state to restore.
func (l *Ledger) UndoTo(index int) (Entry, error) {
	if index < 0 || index >= l.cursor {
		return Entry{}, fmt.Errorf("undo index %d out of range [0,%d)", index, l.cursor)
	}
	l.cursor = index
	return l.entries[index], nil
}

// RedoTo returns the undone entries up to and including index, in execution
// order, and marks them applied again. The caller re-executes their actions.
func (l *Ledger) RedoTo(index int) ([]Entry, error) {
	if index < l.cursor || index >= len(l.entries) {
		return nil, fmt.Errorf("redo index %d out of range [%d,%d)", index, l.cursor, len(l.entries))
	}
	entries := make([]Entry, index+1-l.cursor)
	copy(entries, l.entries[l.cursor:index+1])
	l.cursor = index + 1
	return entries, nil
}

// Applied returns the applied actions in execution order. This is the log a
// save file persists and a reload replays.
func (l *Ledger) Applied() []actions.Action {
	out := make([]actions.Action, l.cursor)
	for i := 0; i < l.cursor; i++ {
		out[i] = l.entries[i].Action
	}
	return out
}

// Entry returns the applied entry at index.
func (l *Ledger) Entry(index int) (Entry, error) {
	if index < 0 || index >= l.cursor {
		return Entry{}, fmt.Errorf("entry index %d out of range [0,%d)", index, l.cursor)
	}
	return l.entries[index], nil
}

// MatchPrefix compares the applied log, index by index, against saved using
// structural equality. It returns the length of the matching prefix and, on
// the first mismatch, the mismatching index and false.
func (l *Ledger) MatchPrefix(saved []actions.Action) (int, bool) {
	n := l.cursor
	if len(saved) < n {
		n = len(saved)
	}
	for i := 0; i < n; i++ {
		if !actions.Equal(l.entries[i].Action, saved[i]) {
			return i, false
		}
	}
	return n, true
}
