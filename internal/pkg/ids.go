package pkg

import "github.com/google/uuid"

// GenerateSessionID - short unique identifier for a game session.
// Collisions are guarded against by the registry, which retries on a taken id.
func GenerateSessionID() string {
	return uuid.NewString()[:8]
}

// GenerateConnectionID - unique identifier for one live connection.
func GenerateConnectionID() string {
	return uuid.NewString()
}
