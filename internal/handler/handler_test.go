package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tictactoe-online/internal/apperror"
	"tictactoe-online/internal/protocol"
)

type managerCall struct {
	method string
	args   []any
}

// fakeManager records calls and returns a scripted error.
type fakeManager struct {
	calls []managerCall
	err   error
}

func (that *fakeManager) Connect(connectionID string) {
	that.calls = append(that.calls, managerCall{method: "Connect", args: []any{connectionID}})
}

func (that *fakeManager) CreateGame(connectionID string, players int) error {
	that.calls = append(that.calls, managerCall{method: "CreateGame", args: []any{connectionID, players}})
	return that.err
}

func (that *fakeManager) ListGames(connectionID string) {
	that.calls = append(that.calls, managerCall{method: "ListGames", args: []any{connectionID}})
}

func (that *fakeManager) JoinGame(connectionID, sessionID, name string) error {
	that.calls = append(that.calls, managerCall{method: "JoinGame", args: []any{connectionID, sessionID, name}})
	return that.err
}

func (that *fakeManager) MakeMove(connectionID string, row, col int) error {
	that.calls = append(that.calls, managerCall{method: "MakeMove", args: []any{connectionID, row, col}})
	return that.err
}

func (that *fakeManager) LeaveGame(connectionID string) error {
	that.calls = append(that.calls, managerCall{method: "LeaveGame", args: []any{connectionID}})
	return that.err
}

func (that *fakeManager) Disconnect(connectionID string) {
	that.calls = append(that.calls, managerCall{method: "Disconnect", args: []any{connectionID}})
}

// fakeSender records error events sent back to connections.
type fakeSender struct {
	events []protocol.ErrorPayload
}

func (that *fakeSender) ToConnection(_, action string, payload any) {
	if action == protocol.ActionError {
		that.events = append(that.events, payload.(protocol.ErrorPayload))
	}
}

func newTestHandler(t *testing.T) (*Handler, *fakeManager, *fakeSender) {
	t.Helper()

	manager := &fakeManager{}
	sender := &fakeSender{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return New(logger, manager, sender), manager, sender
}

func TestHandler_Handle(t *testing.T) {
	t.Run("Dispatches game:new with its payload", func(t *testing.T) {
		handler, manager, sender := newTestHandler(t)

		// When: a well-formed create request arrives
		handler.Handle("conn-1", []byte(`{"action":"game:new","payload":{"players":4}}`))

		// Then: the manager got the call and no error event was sent
		require.Equal(t, []managerCall{{method: "CreateGame", args: []any{"conn-1", 4}}}, manager.calls)
		assert.Empty(t, sender.events)
	})

	t.Run("Dispatches game:join with session id and name", func(t *testing.T) {
		handler, manager, _ := newTestHandler(t)

		handler.Handle("conn-1", []byte(`{"action":"game:join","payload":{"session_id":"abc123","name":"alice"}}`))

		require.Equal(t, []managerCall{{method: "JoinGame", args: []any{"conn-1", "abc123", "alice"}}}, manager.calls)
	})

	t.Run("Dispatches game:turn with coordinates", func(t *testing.T) {
		handler, manager, _ := newTestHandler(t)

		handler.Handle("conn-1", []byte(`{"action":"game:turn","payload":{"row":1,"col":2}}`))

		require.Equal(t, []managerCall{{method: "MakeMove", args: []any{"conn-1", 1, 2}}}, manager.calls)
	})

	t.Run("Dispatches payload-free actions", func(t *testing.T) {
		handler, manager, _ := newTestHandler(t)

		handler.Handle("conn-1", []byte(`{"action":"game:list"}`))
		handler.Handle("conn-1", []byte(`{"action":"game:leave"}`))

		require.Equal(t, []managerCall{
			{method: "ListGames", args: []any{"conn-1"}},
			{method: "LeaveGame", args: []any{"conn-1"}},
		}, manager.calls)
	})

	t.Run("Invalid JSON yields an error event and keeps going", func(t *testing.T) {
		handler, manager, sender := newTestHandler(t)

		// When: garbage arrives, followed by a valid request
		handler.Handle("conn-1", []byte(`{not json`))
		handler.Handle("conn-1", []byte(`{"action":"game:list"}`))

		// Then: one malformed-message error, then normal dispatch
		require.Len(t, sender.events, 1)
		assert.Equal(t, apperror.ErrMalformedMessage.Error(), sender.events[0].Message)
		require.Equal(t, []managerCall{{method: "ListGames", args: []any{"conn-1"}}}, manager.calls)
	})

	t.Run("A malformed payload yields a malformed-message error", func(t *testing.T) {
		handler, manager, sender := newTestHandler(t)

		handler.Handle("conn-1", []byte(`{"action":"game:turn","payload":{"row":"nope"}}`))

		require.Len(t, sender.events, 1)
		assert.Equal(t, apperror.ErrMalformedMessage.Error(), sender.events[0].Message)
		assert.Empty(t, manager.calls)
	})

	t.Run("An unknown action yields an error event naming it", func(t *testing.T) {
		handler, manager, sender := newTestHandler(t)

		handler.Handle("conn-1", []byte(`{"action":"game:dance"}`))

		require.Len(t, sender.events, 1)
		assert.Contains(t, sender.events[0].Message, "unknown action")
		assert.Contains(t, sender.events[0].Message, "game:dance")
		assert.Empty(t, manager.calls)
	})

	t.Run("Validation errors surface their own message", func(t *testing.T) {
		handler, manager, sender := newTestHandler(t)
		manager.err = apperror.ErrNotYourTurn

		handler.Handle("conn-1", []byte(`{"action":"game:turn","payload":{"row":0,"col":0}}`))

		require.Len(t, sender.events, 1)
		assert.Equal(t, apperror.ErrNotYourTurn.Error(), sender.events[0].Message)
	})

	t.Run("Wrapped validation errors still map to their sentinel", func(t *testing.T) {
		handler, manager, sender := newTestHandler(t)
		manager.err = fmt.Errorf("failed to join session abc: %w", apperror.ErrGameFull)

		handler.Handle("conn-1", []byte(`{"action":"game:join","payload":{"session_id":"abc"}}`))

		require.Len(t, sender.events, 1)
		assert.Equal(t, apperror.ErrGameFull.Error(), sender.events[0].Message)
	})

	t.Run("Unexpected errors stay opaque to the client", func(t *testing.T) {
		handler, manager, sender := newTestHandler(t)
		manager.err = errors.New("database on fire")

		handler.Handle("conn-1", []byte(`{"action":"game:leave"}`))

		require.Len(t, sender.events, 1)
		assert.Equal(t, "internal error", sender.events[0].Message)
	})
}

func TestHandler_ConnectionLifecycle(t *testing.T) {
	handler, manager, _ := newTestHandler(t)

	// When: the transport reports the connection edges
	handler.Connected("conn-1")
	handler.Disconnected("conn-1")

	// Then: the manager saw both
	require.Equal(t, []managerCall{
		{method: "Connect", args: []any{"conn-1"}},
		{method: "Disconnect", args: []any{"conn-1"}},
	}, manager.calls)
}
