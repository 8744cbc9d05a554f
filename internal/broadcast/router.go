// Package broadcast fans events out to connections. Each connection gets
// one Sender: a bounded outbound queue drained by a single writer goroutine,
// so event bytes from different goroutines never interleave on the wire.
package broadcast

import (
	"log/slog"
	"sync"

	"tictactoe-online/internal/protocol"
)

const queueSize = 64

// MessageWriter writes one framed message to a connection. Implemented by
// each transport (newline framing for TCP, text frames for WebSocket).
type MessageWriter interface {
	WriteMessage(data []byte) error
}

// Sender owns the outbound path of one connection.
type Sender struct {
	queue chan []byte
	done  chan struct{}
}

// Router maps connection ids to their senders and delivers events.
// Delivery is best-effort per recipient: a slow or dead connection drops
// its own events and never blocks the rest of a session.
type Router struct {
	logger *slog.Logger

	mu      sync.RWMutex
	senders map[string]*Sender
}

func New(logger *slog.Logger) *Router {
	return &Router{
		logger:  logger.With("component", "broadcast"),
		senders: make(map[string]*Sender),
	}
}

// Register - attaches a writer for the connection and starts its writer
// goroutine. Replaces any previous sender for the same id.
func (that *Router) Register(connectionID string, writer MessageWriter) {
	sender := &Sender{
		queue: make(chan []byte, queueSize),
		done:  make(chan struct{}),
	}

	that.mu.Lock()
	old, existed := that.senders[connectionID]
	that.senders[connectionID] = sender
	that.mu.Unlock()

	if existed {
		close(old.queue)
		<-old.done
	}

	go that.writeLoop(connectionID, sender, writer)
}

// Unregister - stops the connection's writer after draining its queue.
// Unknown ids are a no-op.
func (that *Router) Unregister(connectionID string) {
	that.mu.Lock()
	sender, ok := that.senders[connectionID]
	if ok {
		delete(that.senders, connectionID)
	}
	that.mu.Unlock()

	if !ok {
		return
	}

	close(sender.queue)
	<-sender.done
}

// ToConnection - encodes an event and enqueues it for one connection.
// Events enqueued from a single goroutine arrive in enqueue order.
func (that *Router) ToConnection(connectionID, action string, payload any) {
	log := that.logger.With("method", "ToConnection")

	data, err := protocol.Encode(action, payload)
	if err != nil {
		log.Error("failed to encode event", "action", action, "error", err)
		return
	}

	that.mu.RLock()
	sender, ok := that.senders[connectionID]
	that.mu.RUnlock()

	if !ok {
		log.Debug("no sender for connection", "connection_id", connectionID)
		return
	}

	select {
	case sender.queue <- data:
	default:
		log.Warn("outbound queue full, dropping event", "connection_id", connectionID, "action", action)
	}
}

// Connections - number of live registered connections.
func (that *Router) Connections() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.senders)
}

func (that *Router) writeLoop(connectionID string, sender *Sender, writer MessageWriter) {
	defer close(sender.done)

	for data := range sender.queue {
		if err := writer.WriteMessage(data); err != nil {
			that.logger.Debug("write failed", "connection_id", connectionID, "error", err)
		}
	}
}
