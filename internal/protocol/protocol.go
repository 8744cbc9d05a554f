// Package protocol defines the wire messages exchanged between server and
// clients. Every message is one JSON envelope terminated by a newline; the
// transport below only has to deliver those units in order and intact.
package protocol

import (
	"encoding/json"
	"fmt"

	"tictactoe-online/internal/entity"
	"tictactoe-online/internal/registry"
)

// Client requests.
const (
	ActionConnect   = "connect"
	ActionNewGame   = "game:new"
	ActionListGames = "game:list"
	ActionJoinGame  = "game:join"
	ActionLeaveGame = "game:leave"
	ActionTurn      = "game:turn"
)

// Server events.
const (
	ActionGameCreated  = "game:created"
	ActionGameJoined   = "game:joined"
	ActionPlayerJoined = "game:player_joined"
	ActionPlayerLeft   = "game:player_left"
	ActionGameState    = "game:state"
	ActionMove         = "game:move"
	ActionGameOver     = "game:over"
	ActionError        = "error"
)

const Delimiter = '\n'

// Message is the envelope for every request and event.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ConnectedPayload struct {
	ConnectionID string `json:"connection_id"`
}

type NewGamePayload struct {
	Players int `json:"players"`
}

type JoinGamePayload struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name,omitempty"`
}

type TurnPayload struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type GameCreatedPayload struct {
	Session entity.SessionSummary `json:"session"`
}

type GameListPayload struct {
	Games []entity.SessionSummary `json:"games"`
}

type GameJoinedPayload struct {
	Player  entity.Player          `json:"player"`
	Session entity.SessionSnapshot `json:"session"`
}

type PlayerJoinedPayload struct {
	SessionID string        `json:"session_id"`
	Player    entity.Player `json:"player"`
}

type PlayerLeftPayload struct {
	SessionID string        `json:"session_id"`
	Player    entity.Player `json:"player"`
}

type GameStatePayload struct {
	Session entity.SessionSnapshot `json:"session"`
}

type MovePayload struct {
	SessionID string `json:"session_id"`
	Row       int    `json:"row"`
	Col       int    `json:"col"`
	Symbol    string `json:"symbol"`
	TurnIndex int    `json:"turn_index"`
}

type GameOverPayload struct {
	SessionID string         `json:"session_id"`
	Outcome   entity.Outcome `json:"outcome"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type StatsPayload struct {
	Sessions    registry.Stats `json:"sessions"`
	Connections int            `json:"connections"`
}

// Encode - marshals one envelope, without the trailing delimiter.
func Encode(action string, payload any) ([]byte, error) {
	message := Message{Action: action}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		message.Payload = raw
	}

	data, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}

// Decode - parses one envelope from a single framed unit.
func Decode(data []byte) (*Message, error) {
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}

	return &message, nil
}
