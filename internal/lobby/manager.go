// Package lobby manages tables: games being assembled before the engine
// starts them.
package lobby

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TableState tracks a table through its lifecycle.
type TableState int

const (
	TableStateOpen TableState = iota
	TableStateStarting
	TableStatePlaying
	TableStateFinished
)

func (s TableState) String() string {
	switch s {
	case TableStateOpen:
		return "Open"
	case TableStateStarting:
		return "Starting"
	case TableStatePlaying:
		return "Playing"
	case TableStateFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Seat is a claimed position at a table.
type Seat struct {
	PlayerName string
	JoinedAt   time.Time
}

// Table is a game being assembled. Methods are safe for concurrent use.
type Table struct {
	ID         string
	Name       string
	Definition string
	Creator    string
	MinPlayers int
	MaxPlayers int
	CreatedAt  time.Time

	mu      sync.RWMutex
	state   TableState
	seats   []Seat
	gameID  string
	started *time.Time
}

// TableSnapshot is an immutable view of a table for API responses.
type TableSnapshot struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Definition string     `json:"definition"`
	Creator    string     `json:"creator"`
	State      string     `json:"state"`
	MinPlayers int        `json:"min_players"`
	MaxPlayers int        `json:"max_players"`
	Players    []string   `json:"players"`
	GameID     string     `json:"game_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
}

// NewTable creates an open table with the creator seated.
func NewTable(name, definition, creator string, minPlayers, maxPlayers int) *Table {
	now := time.Now()
	t := &Table{
		ID:         uuid.NewString(),
		Name:       name,
		Definition: definition,
		Creator:    creator,
		MinPlayers: minPlayers,
		MaxPlayers: maxPlayers,
		CreatedAt:  now,
		state:      TableStateOpen,
	}
	t.seats = append(t.seats, Seat{PlayerName: creator, JoinedAt: now})
	return t
}

// Join seats a player. Duplicate names and full tables are rejected.
func (t *Table) Join(playerName string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TableStateOpen {
		return fmt.Errorf("table is %s, not open", t.state)
	}
	for _, s := range t.seats {
		if s.PlayerName == playerName {
			return fmt.Errorf("player %s already seated", playerName)
		}
	}
	if len(t.seats) >= t.MaxPlayers {
		return fmt.Errorf("table is full (%d seats)", t.MaxPlayers)
	}
	t.seats = append(t.seats, Seat{PlayerName: playerName, JoinedAt: time.Now()})
	return nil
}

// Leave removes a player from an open table.
func (t *Table) Leave(playerName string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TableStateOpen {
		return fmt.Errorf("table is %s, not open", t.state)
	}
	for i, s := range t.seats {
		if s.PlayerName == playerName {
			t.seats = append(t.seats[:i], t.seats[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("player %s not seated", playerName)
}

// IsCreator reports whether the named player opened this table.
func (t *Table) IsCreator(playerName string) bool {
	return t.Creator == playerName
}

// Players returns the seated player names in join order.
func (t *Table) Players() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, len(t.seats))
	for i, s := range t.seats {
		names[i] = s.PlayerName
	}
	return names
}

// BeginStart moves the table to Starting and returns the seated players.
// Fails when the table is not open or lacks the minimum seats.
func (t *Table) BeginStart() ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TableStateOpen {
		return nil, fmt.Errorf("table is %s, not open", t.state)
	}
	if len(t.seats) < t.MinPlayers {
		return nil, fmt.Errorf("need at least %d players, have %d", t.MinPlayers, len(t.seats))
	}
	t.state = TableStateStarting
	names := make([]string, len(t.seats))
	for i, s := range t.seats {
		names[i] = s.PlayerName
	}
	return names, nil
}

// ConfirmStart records the created game and moves the table to Playing.
func (t *Table) ConfirmStart(gameID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gameID = gameID
	t.state = TableStatePlaying
	now := time.Now()
	t.started = &now
}

// AbortStart returns a Starting table to Open after an engine failure.
func (t *Table) AbortStart() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == TableStateStarting {
		t.state = TableStateOpen
	}
}

// Finish marks the table's game as over.
func (t *Table) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = TableStateFinished
}

// GameID returns the engine game ID once the table is playing.
func (t *Table) GameID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gameID
}

// State returns the current lifecycle state.
func (t *Table) State() TableState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Snapshot captures the table for an API response.
func (t *Table) Snapshot() TableSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	players := make([]string, len(t.seats))
	for i, s := range t.seats {
		players[i] = s.PlayerName
	}
	var started *time.Time
	if t.started != nil {
		cp := *t.started
		started = &cp
	}
	return TableSnapshot{
		ID:         t.ID,
		Name:       t.Name,
		Definition: t.Definition,
		Creator:    t.Creator,
		State:      t.state.String(),
		MinPlayers: t.MinPlayers,
		MaxPlayers: t.MaxPlayers,
		Players:    players,
		GameID:     t.gameID,
		CreatedAt:  t.CreatedAt,
		StartedAt:  started,
	}
}

// Manager holds the open tables.
type Manager struct {
	mu     sync.RWMutex
	tables map[string]*Table
	logger *zap.Logger
}

func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		tables: make(map[string]*Table),
		logger: logger,
	}
}

// CreateTable opens a new table.
func (m *Manager) CreateTable(name, definition, creator string, minPlayers, maxPlayers int) *Table {
	t := NewTable(name, definition, creator, minPlayers, maxPlayers)
	m.mu.Lock()
	m.tables[t.ID] = t
	m.mu.Unlock()
	m.logger.Info("table created",
		zap.String("table_id", t.ID),
		zap.String("name", name),
		zap.String("creator", creator),
	)
	return t
}

// GetTable looks up a table by ID.
func (m *Manager) GetTable(tableID string) (*Table, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[tableID]
	return t, ok
}

// RemoveTable drops a table.
func (m *Manager) RemoveTable(tableID string) {
	m.mu.Lock()
	delete(m.tables, tableID)
	m.mu.Unlock()
	m.logger.Info("table removed", zap.String("table_id", tableID))
}

// AllTables lists every table.
func (m *Manager) AllTables() []*Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Table, 0, len(m.tables))
	for _, t := range m.tables {
		out = append(out, t)
	}
	return out
}

// TableForGame finds the table running the given game.
func (m *Manager) TableForGame(gameID string) (*Table, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tables {
		if t.GameID() == gameID {
			return t, true
		}
	}
	return nil, false
}
