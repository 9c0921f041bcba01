package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Office/internal/core"
	"github.com/dkeye/Office/internal/domain"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *WsConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cl *client) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(cl.sid)).Msg("readPump closing")
		cl.cancel()
		ctl.handleGone(cl)
		cl.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := cl.conn.conn.ReadMessage()
			if err != nil {
				return
			}
			ctl.dispatch(ctx, cl, data)
		}
	}
}

// dispatch routes one inbound frame. A handler panic or bad payload only
// affects this connection's frame, never the others.
func (ctl *Controller) dispatch(ctx context.Context, cl *client, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch env.Type {
	case "join":
		ctl.handleJoin(cl, data)
	case "move":
		ctl.handleMove(cl, data)
	case "globalChat":
		ctl.handleGlobalChat(cl, data)
	case "proximityChat":
		ctl.handleProximityChat(cl, data)
	case "updateStatus":
		ctl.handleUpdateStatus(cl, data)
	case "updateColor":
		ctl.handleUpdateColor(cl, data)
	case "changeRoom":
		ctl.handleChangeRoom(cl, data)
	case "getRooms":
		ctl.handleGetRooms(cl)
	case "getDecorations":
		ctl.handleGetDecorations(ctx, cl, data)
	case "saveDecorations":
		ctl.handleSaveDecorations(ctx, cl, data)
	case "getChatHistory":
		ctl.handleGetChatHistory(ctx, cl, data)
	case "updateTranslation":
		ctl.handleUpdateTranslation(ctx, cl, data)
	case "sendPoke":
		ctl.handlePoke(cl, data)
	case "voiceChat":
		ctl.handleVoiceChat(cl, data)
	case "start-screen-share":
		ctl.handleScreenSharePresence(cl, true)
	case "stop-screen-share":
		ctl.handleScreenSharePresence(cl, false)
	case "signal-offer", "signal-answer", "signal-ice-candidate",
		"screen-signal-offer", "screen-signal-answer", "screen-signal-ice-candidate":
		ctl.handleRelay(cl, env.Type, data)
	case "logout":
		ctl.handleLogout(cl)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
	}
}

func (ctl *Controller) sendJSON(c *WsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

// broadcastRoom fans a payload out to everyone in room except sender.
// Pass an empty sender to include everyone.
func (ctl *Controller) broadcastRoom(room domain.RoomName, sender core.SessionID, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("broadcast marshal")
		return
	}
	svc := ctl.Orch.Rooms.GetOrCreate(room)
	var res core.PublishResult
	if sender == "" {
		res = svc.BroadcastAll(b)
	} else {
		res = svc.Broadcast(sender, b)
	}
	ctl.Orch.KickDropped(res)
}
