package orch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Office/internal/core"
	"github.com/dkeye/Office/internal/domain"
	"github.com/dkeye/Office/internal/store"
)

const storeTimeout = 5 * time.Second

// BuildChat stamps a message with the sender's identity, the server clock
// and a fresh id. Global messages are persisted off the hot path; proximity
// messages stay ephemeral.
func (o *Orchestrator) BuildChat(sid core.SessionID, text string, kind domain.ChatKind) (domain.ChatMessage, domain.Player, bool) {
	player, _, ok := o.Registry.Get(sid)
	if !ok {
		return domain.ChatMessage{}, domain.Player{}, false
	}
	msg := domain.ChatMessage{
		MessageID: uuid.NewString(),
		Username:  player.Username,
		UserID:    player.UserID,
		Text:      text,
		Room:      player.Room,
		Timestamp: time.Now(),
		Kind:      kind,
	}
	if kind == domain.ChatGlobal {
		go o.persistChat(msg)
	}
	return msg, player, true
}

func (o *Orchestrator) persistChat(msg domain.ChatMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := o.Store.AppendChat(ctx, msg); err != nil {
		log.Warn().Str("module", "orch").Err(err).Str("messageId", msg.MessageID).Msg("chat write dropped")
	}
}

// ChatHistory reads recent messages, newest first. Storage trouble degrades
// to an empty history rather than failing the caller.
func (o *Orchestrator) ChatHistory(ctx context.Context, room domain.RoomName, limit int64) []domain.ChatMessage {
	if limit <= 0 {
		limit = 100
	}
	history, err := o.Store.ChatHistory(ctx, room, limit)
	if err != nil {
		log.Warn().Str("module", "orch").Err(err).Str("room", string(room)).Msg("chat history unavailable")
		return []domain.ChatMessage{}
	}
	return history
}

// UpdateTranslation attaches a translation to a persisted message. A miss
// is a silent no-op for the protocol; we only log it.
func (o *Orchestrator) UpdateTranslation(ctx context.Context, messageID, translation string, fresh bool) bool {
	found, err := o.Store.UpdateTranslation(ctx, messageID, translation, fresh)
	if err != nil {
		if !errors.Is(err, store.ErrDisabled) {
			log.Warn().Str("module", "orch").Err(err).Str("messageId", messageID).Msg("translation update failed")
		}
		return false
	}
	if !found {
		log.Warn().Str("module", "orch").Str("messageId", messageID).Msg("translation update for unknown message")
	}
	return found
}
