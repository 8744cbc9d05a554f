package rest

import (
	"encoding/json"
	"net/http"

	"tictactoe-online/internal/protocol"
)

func pingHandler(writer http.ResponseWriter, _ *http.Request) {
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write([]byte("pong"))
}

// statsHandler - reports live session and connection counters.
func (that *Server) statsHandler(writer http.ResponseWriter, _ *http.Request) {
	stats := that.stats.Stats()

	payload := protocol.StatsPayload{
		Sessions:    stats.Sessions,
		Connections: stats.Connections,
	}

	writer.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(writer).Encode(payload); err != nil {
		that.logger.Error("failed to encode stats", "error", err)
	}
}
