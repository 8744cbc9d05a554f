package apperror

import "errors"

var (
	ErrOutOfBounds        = errors.New("cell is out of bounds")
	ErrCellOccupied       = errors.New("cell is already occupied")
	ErrNotYourTurn        = errors.New("it's not your turn")
	ErrGameNotActive      = errors.New("game is not active")
	ErrGameFull           = errors.New("game is full")
	ErrGameStarted        = errors.New("game already started")
	ErrAlreadyJoined      = errors.New("player already joined this game")
	ErrInvalidPlayerCount = errors.New("number of players must be between 2 and 10")
	ErrSessionNotFound    = errors.New("session not found")
	ErrNotInGame          = errors.New("player is not in a game")
	ErrMalformedMessage   = errors.New("malformed message")
)
