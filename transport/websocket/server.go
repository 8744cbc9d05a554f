// Package websocket exposes the same protocol over WebSocket text frames,
// one envelope per frame, for clients that cannot open raw TCP sockets.
package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"tictactoe-online/internal/broadcast"
	"tictactoe-online/internal/handler"
	"tictactoe-online/internal/pkg"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	logger   *slog.Logger
	handler  *handler.Handler
	router   *broadcast.Router
	upgrader websocket.Upgrader
}

func New(logger *slog.Logger, h *handler.Handler, router *broadcast.Router) *Server {
	return &Server{
		logger:  logger.With("component", "websocket"),
		handler: h,
		router:  router,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Start - serves the /ws endpoint until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.serveConnection)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down websocket server", "error", err)
		}
	}()

	that.logger.Info("websocket server listening", "port", port)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start websocket server: %w", err)
	}

	return nil
}

func (that *Server) serveConnection(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveConnection")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	connectionID := pkg.GenerateConnectionID()
	log = log.With("connection_id", connectionID)

	that.router.Register(connectionID, &frameWriter{conn: conn})
	that.handler.Connected(connectionID)

	log.Info("connection upgraded")

	for {
		messageType, frame, err := conn.ReadMessage()
		if err != nil {
			log.Info("read failed, dropping connection", "error", err)
			break
		}

		if messageType != websocket.TextMessage || len(frame) == 0 {
			continue
		}

		that.handler.Handle(connectionID, frame)
	}

	that.handler.Disconnected(connectionID)
	that.router.Unregister(connectionID)
}

// frameWriter sends each message as one text frame. The router's single
// writer goroutine satisfies gorilla's one-concurrent-writer requirement.
type frameWriter struct {
	conn *websocket.Conn
}

func (that *frameWriter) WriteMessage(data []byte) error {
	if err := that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	return nil
}
