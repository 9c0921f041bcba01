package orch

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Office/internal/core"
	"github.com/dkeye/Office/internal/domain"
)

// LoadDecorations returns the room's decoration document, falling back to
// an empty one when storage is unavailable so a join never fails on it.
func (o *Orchestrator) LoadDecorations(ctx context.Context, room domain.RoomName) *domain.Decoration {
	if room == "" {
		room = o.CanonicalRoom
	}
	dec, err := o.Store.LoadDecorations(ctx, room)
	if err != nil {
		log.Warn().Str("module", "orch").Err(err).Str("room", string(room)).Msg("decorations unavailable, serving empty")
		return domain.EmptyDecoration(room)
	}
	return dec
}

// SaveDecorations replaces the room's document wholesale, stamped with the
// editor and the server clock. Last writer wins; the returned document is
// the persisted one and is what gets broadcast.
func (o *Orchestrator) SaveDecorations(ctx context.Context, room domain.RoomName, dec *domain.Decoration, editor core.SessionID) (*domain.Decoration, error) {
	editorName := "unknown"
	if player, _, ok := o.Registry.Get(editor); ok {
		editorName = player.Username
		if room == "" {
			room = player.Room
		}
	}
	if room == "" {
		room = o.CanonicalRoom
	}

	dec.Room = room
	dec.UpdatedBy = editorName
	dec.UpdatedAt = time.Now()

	saved, err := o.Store.SaveDecorations(ctx, dec)
	if err != nil {
		return nil, fmt.Errorf("save decorations for %s: %w", room, err)
	}
	log.Info().Str("module", "orch").Str("room", string(room)).Str("by", editorName).Msg("decorations saved")
	return saved, nil
}
