package registry

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"tictactoe-online/internal/apperror"
	"tictactoe-online/internal/entity"
	"tictactoe-online/internal/pkg"
)

const (
	minPlayers = 2
	maxPlayers = 10
)

// Stats - counters over the live session set.
type Stats struct {
	Total    int `json:"total"`
	Waiting  int `json:"waiting"`
	Active   int `json:"active"`
	Finished int `json:"finished"`
}

// managedSession pairs a session with its own lock, so mutating one session
// never blocks another.
type managedSession struct {
	mu      sync.Mutex
	session *entity.Session
	removed bool
}

// Registry is the single owner of all live sessions. Every mutation of a
// session goes through With, which serializes mutators of that session only.
type Registry struct {
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*managedSession
	timers   map[string]*time.Timer
}

func New(logger *slog.Logger) *Registry {
	return &Registry{
		logger:   logger.With("component", "registry"),
		sessions: make(map[string]*managedSession),
		timers:   make(map[string]*time.Timer),
	}
}

// Create - allocates a fresh waiting session. Ids are minted from random
// uuids and are never handed out twice, even after removal.
func (that *Registry) Create(requiredPlayers, winLength int) (*entity.Session, error) {
	if requiredPlayers < minPlayers || requiredPlayers > maxPlayers {
		return nil, apperror.ErrInvalidPlayerCount
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	id := pkg.GenerateSessionID()
	for _, taken := that.sessions[id]; taken; _, taken = that.sessions[id] {
		id = pkg.GenerateSessionID()
	}

	session := entity.NewSession(id, requiredPlayers, winLength)
	that.sessions[id] = &managedSession{session: session}

	that.logger.Info("session created", "session_id", id, "required_players", requiredPlayers)

	return session, nil
}

// With - runs fn with exclusive access to the session. Returns
// ErrSessionNotFound when the id is unknown or the session was removed while
// waiting for its lock.
func (that *Registry) With(id string, fn func(session *entity.Session) error) error {
	that.mu.RLock()
	managed, ok := that.sessions[id]
	that.mu.RUnlock()

	if !ok {
		return apperror.ErrSessionNotFound
	}

	managed.mu.Lock()
	defer managed.mu.Unlock()

	if managed.removed {
		return apperror.ErrSessionNotFound
	}

	return fn(managed.session)
}

// Get - snapshot of a single session.
func (that *Registry) Get(id string) (entity.SessionSnapshot, error) {
	var snapshot entity.SessionSnapshot

	err := that.With(id, func(session *entity.Session) error {
		snapshot = session.Snapshot()
		return nil
	})

	return snapshot, err
}

// List - lobby summaries of all live sessions, ordered by id.
func (that *Registry) List() []entity.SessionSummary {
	that.mu.RLock()
	defer that.mu.RUnlock()

	summaries := make([]entity.SessionSummary, 0, len(that.sessions))
	for _, managed := range that.sessions {
		managed.mu.Lock()
		summaries = append(summaries, managed.session.Summary())
		managed.mu.Unlock()
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ID < summaries[j].ID
	})

	return summaries
}

// Remove - drops a session and cancels any pending removal timer.
// Removing an unknown id is a no-op.
func (that *Registry) Remove(id string) {
	that.mu.Lock()
	managed, ok := that.sessions[id]
	if ok {
		delete(that.sessions, id)
	}
	if timer, hasTimer := that.timers[id]; hasTimer {
		timer.Stop()
		delete(that.timers, id)
	}
	that.mu.Unlock()

	if !ok {
		return
	}

	managed.mu.Lock()
	managed.removed = true
	managed.mu.Unlock()

	that.logger.Info("session removed", "session_id", id)
}

// ScheduleRemoval - arranges for the session to be dropped after delay.
// The timer is cancelled if the session is removed earlier.
func (that *Registry) ScheduleRemoval(id string, delay time.Duration) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.sessions[id]; !ok {
		return
	}

	if timer, ok := that.timers[id]; ok {
		timer.Stop()
	}

	that.timers[id] = time.AfterFunc(delay, func() {
		that.Remove(id)
	})
}

// Stats - session counts by state.
func (that *Registry) Stats() Stats {
	that.mu.RLock()
	defer that.mu.RUnlock()

	stats := Stats{Total: len(that.sessions)}
	for _, managed := range that.sessions {
		managed.mu.Lock()
		switch managed.session.Status {
		case entity.StatusWaiting:
			stats.Waiting++
		case entity.StatusActive:
			stats.Active++
		case entity.StatusFinished:
			stats.Finished++
		}
		managed.mu.Unlock()
	}

	return stats
}
