// Package handler dispatches decoded protocol requests to the game manager.
// Both transports feed their framed messages through one Handler, so TCP and
// WebSocket clients get identical semantics.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"tictactoe-online/internal/apperror"
	"tictactoe-online/internal/protocol"
)

var ErrUnknownAction = errors.New("unknown action")

// validationErrors are returned to the requesting connection only, never
// broadcast and never fatal to the connection.
var validationErrors = []error{
	apperror.ErrOutOfBounds,
	apperror.ErrCellOccupied,
	apperror.ErrNotYourTurn,
	apperror.ErrGameNotActive,
	apperror.ErrGameFull,
	apperror.ErrGameStarted,
	apperror.ErrAlreadyJoined,
	apperror.ErrInvalidPlayerCount,
	apperror.ErrSessionNotFound,
	apperror.ErrNotInGame,
}

type gameManager interface {
	Connect(connectionID string)
	CreateGame(connectionID string, players int) error
	ListGames(connectionID string)
	JoinGame(connectionID, sessionID, name string) error
	MakeMove(connectionID string, row, col int) error
	LeaveGame(connectionID string) error
	Disconnect(connectionID string)
}

type sender interface {
	ToConnection(connectionID, action string, payload any)
}

type Handler struct {
	logger  *slog.Logger
	manager gameManager
	sender  sender

	actions map[string]func(connectionID string, payload json.RawMessage) error
}

func New(logger *slog.Logger, manager gameManager, sender sender) *Handler {
	that := &Handler{
		logger:  logger.With("component", "handler"),
		manager: manager,
		sender:  sender,

		actions: make(map[string]func(string, json.RawMessage) error),
	}

	that.actions[protocol.ActionConnect] = that.handleConnect
	that.actions[protocol.ActionNewGame] = that.handleNewGame
	that.actions[protocol.ActionListGames] = that.handleListGames
	that.actions[protocol.ActionJoinGame] = that.handleJoinGame
	that.actions[protocol.ActionTurn] = that.handleTurn
	that.actions[protocol.ActionLeaveGame] = that.handleLeaveGame

	return that
}

// Connected - called by a transport once a connection is registered.
func (that *Handler) Connected(connectionID string) {
	that.manager.Connect(connectionID)
}

// Disconnected - called by a transport when the connection is lost or
// closed; runs the leave-cleanup path.
func (that *Handler) Disconnected(connectionID string) {
	that.manager.Disconnect(connectionID)
}

// Handle - decodes one framed message and dispatches it. Malformed input
// and validation failures produce an error event for this connection only;
// the connection stays open either way.
func (that *Handler) Handle(connectionID string, frame []byte) {
	log := that.logger.With("method", "Handle", "connection_id", connectionID)

	message, err := protocol.Decode(frame)
	if err != nil {
		log.Error("failed to decode message", "error", err)
		that.sendError(connectionID, apperror.ErrMalformedMessage.Error())
		return
	}

	action, ok := that.actions[message.Action]
	if !ok {
		log.Error("unknown action", "action", message.Action)
		that.sendError(connectionID, fmt.Sprintf("%v: %s", ErrUnknownAction, message.Action))
		return
	}

	if err = action(connectionID, message.Payload); err != nil {
		log.Error("failed to process message", "action", message.Action, "error", err)
		that.sendError(connectionID, errorMessage(err))
	}
}

func (that *Handler) handleConnect(connectionID string, _ json.RawMessage) error {
	that.manager.Connect(connectionID)
	return nil
}

func (that *Handler) handleNewGame(connectionID string, payload json.RawMessage) error {
	var request protocol.NewGamePayload
	if err := json.Unmarshal(payload, &request); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrMalformedMessage, err)
	}

	return that.manager.CreateGame(connectionID, request.Players)
}

func (that *Handler) handleListGames(connectionID string, _ json.RawMessage) error {
	that.manager.ListGames(connectionID)
	return nil
}

func (that *Handler) handleJoinGame(connectionID string, payload json.RawMessage) error {
	var request protocol.JoinGamePayload
	if err := json.Unmarshal(payload, &request); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrMalformedMessage, err)
	}

	return that.manager.JoinGame(connectionID, request.SessionID, request.Name)
}

func (that *Handler) handleTurn(connectionID string, payload json.RawMessage) error {
	var request protocol.TurnPayload
	if err := json.Unmarshal(payload, &request); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrMalformedMessage, err)
	}

	return that.manager.MakeMove(connectionID, request.Row, request.Col)
}

func (that *Handler) handleLeaveGame(connectionID string, _ json.RawMessage) error {
	return that.manager.LeaveGame(connectionID)
}

func (that *Handler) sendError(connectionID, message string) {
	that.sender.ToConnection(connectionID, protocol.ActionError, protocol.ErrorPayload{
		Message: message,
	})
}

// errorMessage - maps an error chain onto the text sent to the client.
// Validation errors surface their own message; anything else stays opaque.
func errorMessage(err error) string {
	if errors.Is(err, apperror.ErrMalformedMessage) {
		return apperror.ErrMalformedMessage.Error()
	}

	for _, sentinel := range validationErrors {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}

	return "internal error"
}
