package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Office/internal/domain"
)

type decorationsEvent struct {
	Type string `json:"type"`
	*domain.Decoration
}

func (ctl *Controller) handleGetDecorations(ctx context.Context, cl *client, data []byte) {
	var p struct {
		Type string `json:"type"`
		Room string `json:"room"`
	}
	_ = json.Unmarshal(data, &p)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	dec := ctl.Orch.LoadDecorations(ctx, domain.RoomName(p.Room))
	ctl.sendJSON(cl.conn, decorationsEvent{Type: "decorationsLoaded", Decoration: dec})
}

func (ctl *Controller) handleSaveDecorations(ctx context.Context, cl *client, data []byte) {
	var p struct {
		Type string `json:"type"`
		domain.Decoration
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad saveDecorations payload")
		ctl.sendJSON(cl.conn, map[string]any{"type": "decorationsError", "message": "bad payload"})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	saved, err := ctl.Orch.SaveDecorations(ctx, p.Decoration.Room, &p.Decoration, cl.sid)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("decorations save failed")
		ctl.sendJSON(cl.conn, map[string]any{"type": "decorationsError", "message": "failed to save decorations"})
		return
	}

	// Broadcast what was persisted, not what was submitted, so every
	// client converges on the stored document.
	ctl.broadcastRoom(saved.Room, "", decorationsEvent{Type: "decorationsUpdated", Decoration: saved})
}
