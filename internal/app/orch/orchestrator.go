// Package orch owns every registry and room mutation. Handlers in the
// adapters layer translate wire frames into orchestrator calls and turn the
// results back into frames; they never touch the registries directly.
package orch

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Office/internal/app"
	"github.com/dkeye/Office/internal/core"
	"github.com/dkeye/Office/internal/domain"
	"github.com/dkeye/Office/internal/store"
)

type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Store    store.Store

	// lifecycle serializes join, disconnect, logout and room changes.
	// Registry and room locks only cover single operations; the uniqueness
	// checks in Join span several, so check and insert must not interleave
	// across sessions.
	lifecycle sync.Mutex

	// SingleRoom funnels every join into CanonicalRoom. The room machinery
	// stays multi-room capable; this only affects join targeting.
	SingleRoom    bool
	CanonicalRoom domain.RoomName
}

func (o *Orchestrator) RoomList() []core.RoomInfo {
	return o.Rooms.List()
}

// KickDropped disconnects members whose send buffers overflowed during a
// fan-out. A consumer that slow is effectively gone already.
func (o *Orchestrator) KickDropped(res core.PublishResult) {
	for _, sid := range res.Dropped {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("kicking slow consumer")
		o.Registry.Cancel(sid)
	}
}
