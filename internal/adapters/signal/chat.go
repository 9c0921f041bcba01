package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Office/internal/domain"
)

type chatEvent struct {
	Type string `json:"type"`
	domain.ChatMessage
	PlayerID string `json:"playerId"`
}

func (ctl *Controller) allowChat(cl *client) bool {
	player, _, ok := ctl.Orch.Registry.Get(cl.sid)
	if !ok {
		return false
	}
	key := string(player.UserID)
	if key == "" {
		key = string(cl.sid)
	}
	if !ctl.chatLimiter.Allow(key) {
		log.Warn().Str("module", "signal").Str("username", player.Username).Msg("chat rate limit hit, frame dropped")
		return false
	}
	return true
}

func (ctl *Controller) handleGlobalChat(cl *client, data []byte) {
	var p struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Message == "" {
		return
	}
	if !ctl.allowChat(cl) {
		return
	}
	msg, _, ok := ctl.Orch.BuildChat(cl.sid, p.Message, domain.ChatGlobal)
	if !ok {
		return
	}
	// Sender included: the client renders from the broadcast, no local echo.
	ctl.broadcastRoom(msg.Room, "", chatEvent{Type: "globalChat", ChatMessage: msg, PlayerID: string(cl.sid)})
}

func (ctl *Controller) handleProximityChat(cl *client, data []byte) {
	var p struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Message == "" {
		return
	}
	if !ctl.allowChat(cl) {
		return
	}
	msg, sender, ok := ctl.Orch.BuildChat(cl.sid, p.Message, domain.ChatProximity)
	if !ok {
		return
	}
	b, err := json.Marshal(chatEvent{Type: "proximityChat", ChatMessage: msg, PlayerID: string(cl.sid)})
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("proximity marshal")
		return
	}
	svc := ctl.Orch.Rooms.GetOrCreate(sender.Room)
	res := svc.BroadcastNear(sender.X, sender.Y, domain.ProximityRange, b)
	ctl.Orch.KickDropped(res)
}

func (ctl *Controller) handleGetChatHistory(ctx context.Context, cl *client, data []byte) {
	var p struct {
		Type  string `json:"type"`
		Room  string `json:"room"`
		Limit int64  `json:"limit"`
	}
	_ = json.Unmarshal(data, &p)

	room := domain.RoomName(p.Room)
	if room == "" {
		if player, _, ok := ctl.Orch.Registry.Get(cl.sid); ok {
			room = player.Room
		} else {
			room = ctl.Orch.CanonicalRoom
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	history := ctl.Orch.ChatHistory(ctx, room, p.Limit)
	ctl.sendJSON(cl.conn, map[string]any{
		"type":     "chatHistoryLoaded",
		"messages": history,
	})
}

func (ctl *Controller) handleUpdateTranslation(ctx context.Context, cl *client, data []byte) {
	var p struct {
		Type        string `json:"type"`
		MessageID   string `json:"messageId"`
		Translation string `json:"translation"`
		Fresh       *bool  `json:"isNewTranslation"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.MessageID == "" {
		return
	}
	fresh := true
	if p.Fresh != nil {
		fresh = *p.Fresh
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if !ctl.Orch.UpdateTranslation(ctx, p.MessageID, p.Translation, fresh) {
		// Unknown message id: silent no-op for the caller.
		return
	}
	ctl.sendJSON(cl.conn, map[string]any{
		"type":             "translationUpdated",
		"messageId":        p.MessageID,
		"translation":      p.Translation,
		"isNewTranslation": fresh,
	})
}

// handleVoiceChat relays a recorded voice clip to the room. Predates the
// live negotiation path, still used for push-to-talk notes.
func (ctl *Controller) handleVoiceChat(cl *client, data []byte) {
	var p struct {
		Type     string  `json:"type"`
		Audio    string  `json:"audio"`
		Duration float64 `json:"duration"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Audio == "" {
		return
	}
	player, _, ok := ctl.Orch.Registry.Get(cl.sid)
	if !ok {
		return
	}
	ctl.broadcastRoom(player.Room, cl.sid, map[string]any{
		"type":      "voiceChat",
		"id":        uuid.NewString(),
		"username":  player.Username,
		"audio":     p.Audio,
		"duration":  p.Duration,
		"timestamp": time.Now(),
	})
}
