package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tictactoe-online/internal/apperror"
	"tictactoe-online/internal/entity"
	"tictactoe-online/internal/protocol"
	"tictactoe-online/internal/registry"
)

// broadcaster delivers encoded events to connections. Implemented by the
// broadcast router.
type broadcaster interface {
	ToConnection(connectionID, action string, payload any)
	Connections() int
}

// Stats - live server counters for the stats endpoint.
type Stats struct {
	Sessions    registry.Stats
	Connections int
}

// GameManager turns protocol requests into registry and session operations,
// and emits the resulting events. All events for one session are emitted
// while that session's lock is held, so every participant observes them in
// the same order.
type GameManager struct {
	logger      *slog.Logger
	registry    *registry.Registry
	broadcaster broadcaster

	winLength    int
	cleanupDelay time.Duration

	mu           sync.Mutex
	connSessions map[string]string
}

func NewGameManager(logger *slog.Logger, reg *registry.Registry, bc broadcaster, winLength int, cleanupDelay time.Duration) *GameManager {
	return &GameManager{
		logger:      logger.With("component", "game_manager"),
		registry:    reg,
		broadcaster: bc,

		winLength:    winLength,
		cleanupDelay: cleanupDelay,

		connSessions: make(map[string]string),
	}
}

// Connect - acknowledges a new connection with its assigned id.
func (that *GameManager) Connect(connectionID string) {
	that.broadcaster.ToConnection(connectionID, protocol.ActionConnect, protocol.ConnectedPayload{
		ConnectionID: connectionID,
	})

	that.logger.Info("connection established", "connection_id", connectionID)
}

// CreateGame - allocates a new waiting session and replies with its summary.
// The creator still has to join it explicitly.
func (that *GameManager) CreateGame(connectionID string, players int) error {
	session, err := that.registry.Create(players, that.winLength)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	that.broadcaster.ToConnection(connectionID, protocol.ActionGameCreated, protocol.GameCreatedPayload{
		Session: session.Summary(),
	})

	return nil
}

// ListGames - replies with the lobby view of all live sessions.
func (that *GameManager) ListGames(connectionID string) {
	that.broadcaster.ToConnection(connectionID, protocol.ActionListGames, protocol.GameListPayload{
		Games: that.registry.List(),
	})
}

// JoinGame - adds the connection to a session. The joiner gets a
// game:joined reply; every participant gets game:player_joined plus a full
// game:state snapshot.
func (that *GameManager) JoinGame(connectionID, sessionID, name string) error {
	if err := that.releaseStaleSession(connectionID); err != nil {
		return err
	}

	if name == "" {
		name = defaultName(connectionID)
	}

	err := that.registry.With(sessionID, func(session *entity.Session) error {
		player, err := session.Join(connectionID, name)
		if err != nil {
			return err
		}

		that.setSession(connectionID, sessionID)

		snapshot := session.Snapshot()

		that.broadcaster.ToConnection(connectionID, protocol.ActionGameJoined, protocol.GameJoinedPayload{
			Player:  *player,
			Session: snapshot,
		})

		for _, participant := range session.Players {
			that.broadcaster.ToConnection(participant.ConnectionID, protocol.ActionPlayerJoined, protocol.PlayerJoinedPayload{
				SessionID: sessionID,
				Player:    *player,
			})
			that.broadcaster.ToConnection(participant.ConnectionID, protocol.ActionGameState, protocol.GameStatePayload{
				Session: snapshot,
			})
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to join session %s: %w", sessionID, err)
	}

	that.logger.Info("player joined", "connection_id", connectionID, "session_id", sessionID)

	return nil
}

// MakeMove - applies a move for the connection's current session. Everyone
// in the session gets game:move, and game:over when the move was terminal.
func (that *GameManager) MakeMove(connectionID string, row, col int) error {
	sessionID, ok := that.sessionOf(connectionID)
	if !ok {
		return apperror.ErrNotInGame
	}

	finished := false

	err := that.registry.With(sessionID, func(session *entity.Session) error {
		result, err := session.Move(connectionID, row, col)
		if err != nil {
			return err
		}

		for _, participant := range session.Players {
			that.broadcaster.ToConnection(participant.ConnectionID, protocol.ActionMove, protocol.MovePayload{
				SessionID: sessionID,
				Row:       result.Cell.Row,
				Col:       result.Cell.Col,
				Symbol:    result.Symbol,
				TurnIndex: result.TurnIndex,
			})
		}

		if result.Outcome != nil {
			finished = true
			that.finishSession(session, sessionID)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to make move in session %s: %w", sessionID, err)
	}

	if finished {
		that.registry.ScheduleRemoval(sessionID, that.cleanupDelay)
	}

	return nil
}

// LeaveGame - removes the connection from its session. Leaving an active
// game finishes it with an abandoned outcome broadcast to the rest.
func (that *GameManager) LeaveGame(connectionID string) error {
	sessionID, ok := that.sessionOf(connectionID)
	if !ok {
		return apperror.ErrNotInGame
	}

	var empty, abandoned bool

	err := that.registry.With(sessionID, func(session *entity.Session) error {
		player, err := session.Leave(connectionID)
		if err != nil {
			return err
		}

		that.clearSession(connectionID)

		snapshot := session.Snapshot()

		for _, participant := range session.Players {
			that.broadcaster.ToConnection(participant.ConnectionID, protocol.ActionPlayerLeft, protocol.PlayerLeftPayload{
				SessionID: sessionID,
				Player:    *player,
			})
			that.broadcaster.ToConnection(participant.ConnectionID, protocol.ActionGameState, protocol.GameStatePayload{
				Session: snapshot,
			})
		}

		if outcome := session.Outcome; outcome != nil && outcome.Abandoned && outcome.LeftBy == player.Symbol {
			abandoned = true
			that.finishSession(session, sessionID)
		}

		empty = len(session.Players) == 0

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to leave session %s: %w", sessionID, err)
	}

	that.logger.Info("player left", "connection_id", connectionID, "session_id", sessionID)

	switch {
	case empty:
		that.registry.Remove(sessionID)
	case abandoned:
		that.registry.ScheduleRemoval(sessionID, that.cleanupDelay)
	}

	return nil
}

// Disconnect - the connection is gone; leave whatever session it was in.
func (that *GameManager) Disconnect(connectionID string) {
	log := that.logger.With("method", "Disconnect", "connection_id", connectionID)

	err := that.LeaveGame(connectionID)
	if err != nil && !errors.Is(err, apperror.ErrNotInGame) && !errors.Is(err, apperror.ErrSessionNotFound) {
		log.Error("failed to leave session on disconnect", "error", err)
	}

	log.Info("connection closed")
}

// Stats - current session and connection counters.
func (that *GameManager) Stats() Stats {
	return Stats{
		Sessions:    that.registry.Stats(),
		Connections: that.broadcaster.Connections(),
	}
}

// finishSession - broadcasts the terminal event and frees the participants'
// back-references so they can join new games immediately.
func (that *GameManager) finishSession(session *entity.Session, sessionID string) {
	for _, participant := range session.Players {
		that.broadcaster.ToConnection(participant.ConnectionID, protocol.ActionGameOver, protocol.GameOverPayload{
			SessionID: sessionID,
			Outcome:   *session.Outcome,
		})
		that.clearSession(participant.ConnectionID)
	}
}

// releaseStaleSession - a connection still mapped to a finished or removed
// session may join a new one; a connection in a live game may not.
func (that *GameManager) releaseStaleSession(connectionID string) error {
	sessionID, ok := that.sessionOf(connectionID)
	if !ok {
		return nil
	}

	snapshot, err := that.registry.Get(sessionID)
	if errors.Is(err, apperror.ErrSessionNotFound) || (err == nil && snapshot.Status == entity.StatusFinished) {
		that.clearSession(connectionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to inspect session %s: %w", sessionID, err)
	}

	return apperror.ErrAlreadyJoined
}

func (that *GameManager) sessionOf(connectionID string) (string, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	sessionID, ok := that.connSessions[connectionID]

	return sessionID, ok
}

func (that *GameManager) setSession(connectionID, sessionID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.connSessions[connectionID] = sessionID
}

func (that *GameManager) clearSession(connectionID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.connSessions, connectionID)
}

func defaultName(connectionID string) string {
	if len(connectionID) < 4 {
		return "Player-" + connectionID
	}
	return "Player-" + connectionID[:4]
}
