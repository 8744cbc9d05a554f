// Package client is a small library for talking to the game server over its
// TCP transport. It is the building block for interactive front ends and is
// used by the transport tests for end-to-end coverage.
package client

import (
	"bufio"
	"fmt"
	"net"
	"sync"

	"tictactoe-online/internal/protocol"
)

const (
	maxLineSize = 64 * 1024
	eventBuffer = 64
)

// Client owns one connection to the server. Requests may be sent from any
// goroutine; events arrive on the Events channel in server order.
type Client struct {
	conn   net.Conn
	events chan protocol.Message

	writeMu sync.Mutex
}

// Dial - connects to a server address like "localhost:5555" and starts
// reading events.
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	that := &Client{
		conn:   conn,
		events: make(chan protocol.Message, eventBuffer),
	}

	go that.readLoop()

	return that, nil
}

// Events - the stream of server events. The channel closes when the
// connection drops.
func (that *Client) Events() <-chan protocol.Message {
	return that.events
}

func (that *Client) CreateGame(players int) error {
	return that.send(protocol.ActionNewGame, protocol.NewGamePayload{Players: players})
}

func (that *Client) ListGames() error {
	return that.send(protocol.ActionListGames, nil)
}

func (that *Client) JoinGame(sessionID, name string) error {
	return that.send(protocol.ActionJoinGame, protocol.JoinGamePayload{SessionID: sessionID, Name: name})
}

func (that *Client) MakeMove(row, col int) error {
	return that.send(protocol.ActionTurn, protocol.TurnPayload{Row: row, Col: col})
}

func (that *Client) LeaveGame() error {
	return that.send(protocol.ActionLeaveGame, nil)
}

func (that *Client) Close() error {
	if err := that.conn.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}

	return nil
}

func (that *Client) send(action string, payload any) error {
	data, err := protocol.Encode(action, payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	framed := append(data, protocol.Delimiter)

	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if _, err = that.conn.Write(framed); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	return nil
}

func (that *Client) readLoop() {
	defer close(that.events)

	scanner := bufio.NewScanner(that.conn)
	scanner.Buffer(make([]byte, 0, maxLineSize), maxLineSize)

	for scanner.Scan() {
		message, err := protocol.Decode(scanner.Bytes())
		if err != nil {
			continue
		}

		that.events <- *message
	}
}
