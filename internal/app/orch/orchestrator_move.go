package orch

import (
	"github.com/dkeye/Office/internal/core"
	"github.com/dkeye/Office/internal/domain"
)

// MoveUpdate is the clamped state echoed to the rest of the room.
type MoveUpdate struct {
	ID        string           `json:"id"`
	X         float64          `json:"x"`
	Y         float64          `json:"y"`
	Direction domain.Direction `json:"direction,omitempty"`
	Moving    bool             `json:"isMoving"`
	Room      domain.RoomName  `json:"-"`
}

// Move applies a client-reported position. Coordinates are clamped into
// world bounds; beyond that the client is trusted (office LAN deployment).
// The saved-state entry, when armed, tracks the latest spot so a crashed
// session reconnects where it was.
func (o *Orchestrator) Move(sid core.SessionID, x, y float64, dir domain.Direction, moving bool) (MoveUpdate, bool) {
	_, sess, ok := o.Registry.Get(sid)
	if !ok {
		return MoveUpdate{}, false
	}
	cx, cy := domain.Clamp(x, y)
	updated := sess.Update(func(p *domain.Player) {
		p.X, p.Y = cx, cy
		if dir != "" {
			p.Direction = dir
		}
		p.Moving = moving
	})
	o.Registry.TouchState(updated.UserID, func(st *domain.SavedState) {
		st.X, st.Y = cx, cy
	})
	return MoveUpdate{
		ID:        updated.ID,
		X:         cx,
		Y:         cy,
		Direction: updated.Direction,
		Moving:    updated.Moving,
		Room:      updated.Room,
	}, true
}

// UpdateStatus rewrites the caller's status line.
func (o *Orchestrator) UpdateStatus(sid core.SessionID, status string) (domain.Player, bool) {
	_, sess, ok := o.Registry.Get(sid)
	if !ok {
		return domain.Player{}, false
	}
	updated := sess.Update(func(p *domain.Player) { p.Status = status })
	return updated, true
}

// UpdateColor rewrites the caller's avatar color, keeping any saved state
// in step so a reconnect keeps the chosen color.
func (o *Orchestrator) UpdateColor(sid core.SessionID, color string) (domain.Player, bool) {
	_, sess, ok := o.Registry.Get(sid)
	if !ok {
		return domain.Player{}, false
	}
	updated := sess.Update(func(p *domain.Player) { p.Color = color })
	o.Registry.TouchState(updated.UserID, func(st *domain.SavedState) {
		st.Color = color
	})
	return updated, true
}
