package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Office/internal/domain"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	name  domain.RoomName
	mu    sync.RWMutex
	bySID map[SessionID]PlayerSession
}

func NewRoomService(name domain.RoomName) RoomService {
	return &roomImpl{
		name:  name,
		bySID: make(map[SessionID]PlayerSession),
	}
}

func (r *roomImpl) Name() domain.RoomName { return r.name }

func (r *roomImpl) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySID)
}

func (r *roomImpl) AddPlayer(sid SessionID, ps PlayerSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySID[sid] = ps
	log.Info().Str("module", "core.room").Str("room", string(r.name)).Str("sid", string(sid)).Msg("player added")
}

func (r *roomImpl) RemovePlayer(sid SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bySID, sid)
	log.Info().Str("module", "core.room").Str("room", string(r.name)).Str("sid", string(sid)).Msg("player removed")
}

func (r *roomImpl) Broadcast(from SessionID, data Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for sid, ps := range r.bySID {
		if sid == from {
			continue
		}
		if err := ps.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, sid)
			continue
		}
		res.SentTo++
	}
	return res
}

func (r *roomImpl) BroadcastAll(data Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for sid, ps := range r.bySID {
		if err := ps.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, sid)
			continue
		}
		res.SentTo++
	}
	return res
}

// BroadcastNear includes the origin point's own player when it is a member,
// which gives proximity chat its sender echo.
func (r *roomImpl) BroadcastNear(x, y, radius float64, data Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for sid, ps := range r.bySID {
		p := ps.Snapshot()
		if domain.Distance(x, y, p.X, p.Y) > radius {
			continue
		}
		if err := ps.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, sid)
			continue
		}
		res.SentTo++
	}
	return res
}

func (r *roomImpl) Send(sid SessionID, data Frame) bool {
	r.mu.RLock()
	ps, ok := r.bySID[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if err := ps.Signal().TrySend(data); err != nil {
		log.Warn().Str("module", "core.room").Str("sid", string(sid)).Err(err).Msg("direct send dropped")
		return false
	}
	return true
}

func (r *roomImpl) Roster() []domain.Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Player, 0, len(r.bySID))
	for _, ps := range r.bySID {
		out = append(out, ps.Snapshot())
	}
	return out
}
