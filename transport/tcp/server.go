// Package tcp is the primary transport: newline-framed JSON messages over a
// plain TCP connection. One goroutine reads each connection; all writes go
// through the broadcast router's per-connection writer.
package tcp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"tictactoe-online/internal/broadcast"
	"tictactoe-online/internal/handler"
	"tictactoe-online/internal/pkg"
	"tictactoe-online/internal/protocol"
)

const (
	maxLineSize  = 64 * 1024
	writeTimeout = 10 * time.Second
)

type Server struct {
	logger  *slog.Logger
	handler *handler.Handler
	router  *broadcast.Router
}

func New(logger *slog.Logger, h *handler.Handler, router *broadcast.Router) *Server {
	return &Server{
		logger:  logger.With("component", "tcp"),
		handler: h,
		router:  router,
	}
}

// Start - binds the listener and accepts connections until ctx is done.
// A bind failure is returned to the caller; per-connection errors are not.
func (that *Server) Start(ctx context.Context, port string) error {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to bind tcp port %s: %w", port, err)
	}

	return that.Serve(ctx, listener)
}

// Serve - accepts connections on an existing listener until ctx is done.
func (that *Server) Serve(ctx context.Context, listener net.Listener) error {
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	that.logger.Info("tcp server listening", "addr", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("failed to accept connection: %w", err)
			}
		}

		go that.handleConnection(conn)
	}
}

// handleConnection - owns one connection's read lifecycle.
func (that *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	connectionID := pkg.GenerateConnectionID()
	log := that.logger.With("connection_id", connectionID, "remote", conn.RemoteAddr().String())

	that.router.Register(connectionID, &connWriter{conn: conn})
	that.handler.Connected(connectionID)

	log.Info("connection accepted")

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, maxLineSize), maxLineSize)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		that.handler.Handle(connectionID, line)
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Info("read failed, dropping connection", "error", err)
	}

	// Leave first so departure events fan out to the remaining players,
	// then drain and release this connection's writer.
	that.handler.Disconnected(connectionID)
	that.router.Unregister(connectionID)
}

// connWriter frames outbound messages with the protocol delimiter.
type connWriter struct {
	conn net.Conn
}

func (that *connWriter) WriteMessage(data []byte) error {
	if err := that.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	framed := make([]byte, 0, len(data)+1)
	framed = append(framed, data...)
	framed = append(framed, protocol.Delimiter)

	if _, err := that.conn.Write(framed); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}
