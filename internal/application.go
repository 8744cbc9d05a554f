package application

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tictactoe-online/internal/broadcast"
	"tictactoe-online/internal/config"
	"tictactoe-online/internal/handler"
	"tictactoe-online/internal/registry"
	"tictactoe-online/internal/usecase"
	"tictactoe-online/transport/rest"
	"tictactoe-online/transport/tcp"
	"tictactoe-online/transport/websocket"
)

// RunApp - wires all components together and runs the servers until a
// signal arrives or one of them fails.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	sessionRegistry := registry.New(logger)
	router := broadcast.New(logger)
	gameManager := usecase.NewGameManager(logger, sessionRegistry, router, conf.WinLength, conf.CleanupDelay())
	connHandler := handler.New(logger, gameManager, router)

	tcpErrCh := make(chan error, 1)
	go func() {
		tcpServer := tcp.New(logger, connHandler, router)
		if err := tcpServer.Start(ctx, conf.TCPPort); err != nil {
			tcpErrCh <- err
		}
	}()

	wsErrCh := make(chan error, 1)
	go func() {
		wsServer := websocket.New(logger, connHandler, router)
		if err := wsServer.Start(ctx, conf.WSPort); err != nil {
			wsErrCh <- err
		}
	}()

	httpErrCh := make(chan error, 1)
	go func() {
		httpServer := rest.New(logger, gameManager)
		if err := httpServer.Start(ctx, conf.HTTPPort); err != nil {
			httpErrCh <- err
		}
	}()

	select {
	case err := <-tcpErrCh:
		return err
	case err := <-wsErrCh:
		return err
	case err := <-httpErrCh:
		return err
	case <-ctx.Done():
		log.Info("application context canceled, shutting down")
		return nil
	}
}
