package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Office/internal/core"
	"github.com/dkeye/Office/internal/domain"
)

type sessionEntry struct {
	Session core.PlayerSession
	Cancel  func()
}

type savedEntry struct {
	state domain.SavedState
	timer *time.Timer
}

// Registry is the session registry: one entry per live connection, plus the
// saved-state map that backs reconnection. Both maps are guarded by one
// mutex; every mutation is a short critical section so writes stay
// serialized the way the protocol requires.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
	saved    map[domain.UserID]*savedEntry
	stateTTL time.Duration
}

func NewRegistry(stateTTL time.Duration) *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
		saved:    make(map[domain.UserID]*savedEntry),
		stateTTL: stateTTL,
	}
}

func (r *Registry) Bind(sid core.SessionID, sess core.PlayerSession, cancel func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{Session: sess, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("username", sess.Snapshot().Username).Msg("bound session")
}

func (r *Registry) Get(sid core.SessionID) (domain.Player, core.PlayerSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return domain.Player{}, nil, false
	}
	return e.Session.Snapshot(), e.Session, true
}

func (r *Registry) Remove(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

// Cancel fires the stored cancel func, which tears the connection down
// through its own context. Used when evicting duplicates and slow consumers.
func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}

// FindByUserID returns every live session claiming uid, except the one
// making the claim. These are stale tabs or sockets to evict on join.
func (r *Registry) FindByUserID(uid domain.UserID, except core.SessionID) []core.SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []core.SessionID
	for sid, e := range r.sessions {
		if sid != except && e.Session.Snapshot().UserID == uid {
			out = append(out, sid)
		}
	}
	return out
}

// UsernameTaken reports whether any other live player holds name.
// Uniqueness is global across rooms, matching the office-wide roster.
func (r *Registry) UsernameTaken(name string, except core.SessionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for sid, e := range r.sessions {
		if sid != except && e.Session.Snapshot().Username == name {
			return true
		}
	}
	return false
}

// SaveState stores a disconnect snapshot and arms its eviction timer.
// Re-saving the same uid rearms rather than leaking the old timer.
func (r *Registry) SaveState(uid domain.UserID, st domain.SavedState) {
	if uid == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.saved[uid]; ok {
		old.timer.Stop()
	}
	e := &savedEntry{state: st}
	e.timer = time.AfterFunc(r.stateTTL, func() { r.expireState(uid) })
	r.saved[uid] = e
	log.Info().Str("module", "app.registry").Str("uid", string(uid)).Dur("ttl", r.stateTTL).Msg("saved player state")
}

func (r *Registry) expireState(uid domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.saved, uid)
	log.Info().Str("module", "app.registry").Str("uid", string(uid)).Msg("saved state expired")
}

// TakeState consumes a saved snapshot, canceling its pending eviction.
func (r *Registry) TakeState(uid domain.UserID) (domain.SavedState, bool) {
	if uid == "" {
		return domain.SavedState{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.saved[uid]
	if !ok {
		return domain.SavedState{}, false
	}
	e.timer.Stop()
	delete(r.saved, uid)
	return e.state, true
}

// DropState discards a snapshot without reuse (explicit logout).
func (r *Registry) DropState(uid domain.UserID) {
	if uid == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.saved[uid]; ok {
		e.timer.Stop()
		delete(r.saved, uid)
	}
}

// TouchState mutates an existing snapshot in place so a crash mid-session
// still reconnects near the last reported spot. No-op when none is stored;
// the TTL clock is not reset.
func (r *Registry) TouchState(uid domain.UserID, mutate func(*domain.SavedState)) {
	if uid == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.saved[uid]; ok {
		mutate(&e.state)
	}
}

// HasState reports whether a snapshot is pending for uid.
func (r *Registry) HasState(uid domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.saved[uid]
	return ok
}
