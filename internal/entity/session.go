package entity

import (
	"tictactoe-online/internal/apperror"
)

const (
	StatusWaiting  = "waiting"
	StatusActive   = "active"
	StatusFinished = "finished"
)

// Outcome describes how a finished session ended.
type Outcome struct {
	Winner    string `json:"winner,omitempty"`
	Line      []Cell `json:"line,omitempty"`
	Draw      bool   `json:"draw,omitempty"`
	Abandoned bool   `json:"abandoned,omitempty"`
	LeftBy    string `json:"left_by,omitempty"`
	Aborted   bool   `json:"aborted,omitempty"`
}

// MoveResult describes one accepted move: the cell played, the resulting
// turn pointer and, when the move ended the game, the outcome.
type MoveResult struct {
	Cell      Cell     `json:"cell"`
	Symbol    string   `json:"symbol"`
	TurnIndex int      `json:"turn_index"`
	Outcome   *Outcome `json:"outcome,omitempty"`
}

// Session is one game: a board, an ordered roster and a turn pointer.
// Sessions are not safe for concurrent use; the registry serializes access.
type Session struct {
	ID              string    `json:"id"`
	RequiredPlayers int       `json:"required_players"`
	Board           *Board    `json:"board"`
	Players         []*Player `json:"players"`
	TurnIndex       int       `json:"turn_index"`
	Status          string    `json:"status"`
	Outcome         *Outcome  `json:"outcome,omitempty"`
}

// SessionSummary is the lobby listing entry for one session.
type SessionSummary struct {
	ID              string `json:"id"`
	RequiredPlayers int    `json:"required_players"`
	CurrentPlayers  int    `json:"current_players"`
	Status          string `json:"status"`
}

// SessionSnapshot is the full serializable view broadcast to participants.
type SessionSnapshot struct {
	ID              string     `json:"id"`
	RequiredPlayers int        `json:"required_players"`
	Players         []Player   `json:"players"`
	Grid            [][]string `json:"grid"`
	Size            int        `json:"size"`
	WinLength       int        `json:"win_length"`
	TurnIndex       int        `json:"turn_index"`
	Turn            string     `json:"turn,omitempty"`
	Status          string     `json:"status"`
	Outcome         *Outcome   `json:"outcome,omitempty"`
}

// NewSession - creates a waiting session with a board sized for the
// required player count.
func NewSession(id string, requiredPlayers, winLength int) *Session {
	return &Session{
		ID:              id,
		RequiredPlayers: requiredPlayers,
		Board:           NewBoard(requiredPlayers, winLength),
		Status:          StatusWaiting,
	}
}

// Join - adds a player to the roster, assigning the first unused symbol of
// the alphabet. The session turns active once the roster is full.
func (that *Session) Join(connectionID, name string) (*Player, error) {
	for _, player := range that.Players {
		if player.ConnectionID == connectionID {
			return nil, apperror.ErrAlreadyJoined
		}
	}

	if that.Status != StatusWaiting {
		return nil, apperror.ErrGameStarted
	}

	if len(that.Players) >= that.RequiredPlayers {
		return nil, apperror.ErrGameFull
	}

	player := &Player{
		ConnectionID: connectionID,
		Name:         name,
		Symbol:       that.nextSymbol(),
	}
	that.Players = append(that.Players, player)

	if len(that.Players) == that.RequiredPlayers {
		that.Status = StatusActive
	}

	return player, nil
}

// Leave - removes a player from the roster. Leaving an active game ends it
// with an abandoned outcome; leaving a waiting game only shrinks the roster.
func (that *Session) Leave(connectionID string) (*Player, error) {
	index := -1
	for i, player := range that.Players {
		if player.ConnectionID == connectionID {
			index = i
			break
		}
	}

	if index == -1 {
		return nil, apperror.ErrNotInGame
	}

	player := that.Players[index]
	that.Players = append(that.Players[:index], that.Players[index+1:]...)

	if that.Status == StatusActive {
		that.Status = StatusFinished
		that.Outcome = &Outcome{Abandoned: true, LeftBy: player.Symbol}
	}

	return player, nil
}

// Move - applies one move for the given connection. On success the turn
// pointer advances, unless the move won the game or filled the board.
func (that *Session) Move(connectionID string, row, col int) (*MoveResult, error) {
	if that.Status != StatusActive {
		return nil, apperror.ErrGameNotActive
	}

	current := that.Players[that.TurnIndex]
	if current.ConnectionID != connectionID {
		return nil, apperror.ErrNotYourTurn
	}

	if err := that.Board.ApplyMove(row, col, current.Symbol); err != nil {
		return nil, err
	}

	result := &MoveResult{
		Cell:   Cell{Row: row, Col: col},
		Symbol: current.Symbol,
	}

	if line := that.Board.CheckWin(row, col, current.Symbol); line != nil {
		that.Status = StatusFinished
		that.Outcome = &Outcome{Winner: current.Symbol, Line: line}
	} else if that.Board.IsFull() {
		that.Status = StatusFinished
		that.Outcome = &Outcome{Draw: true}
	} else {
		that.TurnIndex = (that.TurnIndex + 1) % len(that.Players)
	}

	result.TurnIndex = that.TurnIndex
	result.Outcome = that.Outcome

	return result, nil
}

// Abort - marks the session finished after an internal failure so it is
// never left in an inconsistent state.
func (that *Session) Abort() {
	that.Status = StatusFinished
	that.Outcome = &Outcome{Aborted: true}
}

func (that *Session) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Session) IsActive() bool {
	return that.Status == StatusActive
}

func (that *Session) IsWaiting() bool {
	return that.Status == StatusWaiting
}

// CurrentPlayer - the player whose move is legal, nil unless active.
func (that *Session) CurrentPlayer() *Player {
	if !that.IsActive() {
		return nil
	}
	return that.Players[that.TurnIndex]
}

func (that *Session) Summary() SessionSummary {
	return SessionSummary{
		ID:              that.ID,
		RequiredPlayers: that.RequiredPlayers,
		CurrentPlayers:  len(that.Players),
		Status:          that.Status,
	}
}

func (that *Session) Snapshot() SessionSnapshot {
	players := make([]Player, len(that.Players))
	for i, player := range that.Players {
		players[i] = *player
	}

	snapshot := SessionSnapshot{
		ID:              that.ID,
		RequiredPlayers: that.RequiredPlayers,
		Players:         players,
		Grid:            that.Board.Snapshot(),
		Size:            that.Board.Size,
		WinLength:       that.Board.WinLength,
		TurnIndex:       that.TurnIndex,
		Status:          that.Status,
		Outcome:         that.Outcome,
	}

	if current := that.CurrentPlayer(); current != nil {
		snapshot.Turn = current.Symbol
	}

	return snapshot
}

// nextSymbol - the first alphabet symbol no roster member holds. A symbol
// freed by a player who left while waiting is handed to the next joiner.
func (that *Session) nextSymbol() string {
	for _, symbol := range Symbols {
		taken := false
		for _, player := range that.Players {
			if player.Symbol == symbol {
				taken = true
				break
			}
		}
		if !taken {
			return symbol
		}
	}

	return ""
}
