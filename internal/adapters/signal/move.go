package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Office/internal/app/orch"
	"github.com/dkeye/Office/internal/domain"
)

func (ctl *Controller) handleMove(cl *client, data []byte) {
	var p struct {
		Type      string  `json:"type"`
		X         float64 `json:"x"`
		Y         float64 `json:"y"`
		Direction string  `json:"direction"`
		Moving    bool    `json:"isMoving"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad move payload")
		return
	}

	upd, ok := ctl.Orch.Move(cl.sid, p.X, p.Y, domain.Direction(p.Direction), p.Moving)
	if !ok {
		return
	}
	// No ack to the mover: its own client is authoritative for itself.
	ctl.broadcastRoom(upd.Room, cl.sid, struct {
		Type string `json:"type"`
		orch.MoveUpdate
	}{"playerMoved", upd})
}

func (ctl *Controller) handleUpdateStatus(cl *client, data []byte) {
	var p struct {
		Type   string `json:"type"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad status payload")
		return
	}
	player, ok := ctl.Orch.UpdateStatus(cl.sid, p.Status)
	if !ok {
		return
	}
	ctl.broadcastRoom(player.Room, cl.sid, map[string]any{
		"type":   "playerStatusUpdated",
		"id":     player.ID,
		"status": player.Status,
	})
}

func (ctl *Controller) handleUpdateColor(cl *client, data []byte) {
	var p struct {
		Type  string `json:"type"`
		Color string `json:"color"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad color payload")
		return
	}
	player, ok := ctl.Orch.UpdateColor(cl.sid, p.Color)
	if !ok {
		return
	}
	ctl.broadcastRoom(player.Room, cl.sid, map[string]any{
		"type":  "playerColorUpdated",
		"id":    player.ID,
		"color": player.Color,
	})
}
