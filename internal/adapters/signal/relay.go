package signal

import (
	"encoding/json"
	"strings"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Office/internal/core"
)

// handleRelay is the one relay for all negotiation traffic — voice and
// screen share differ only in event name. The payload is forwarded to the
// target byte-identical; this server never joins the resulting media path.
func (ctl *Controller) handleRelay(cl *client, event string, data []byte) {
	var p struct {
		Type     string          `json:"type"`
		TargetID string          `json:"targetId"`
		Payload  json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.TargetID == "" {
		log.Error().Str("module", "signal").Str("event", event).Msg("bad relay payload")
		return
	}

	sender, _, ok := ctl.Orch.Registry.Get(cl.sid)
	if !ok {
		return
	}
	_, target, found := ctl.Orch.Registry.Get(core.SessionID(p.TargetID))
	if !found {
		log.Warn().Str("module", "signal").Str("event", event).Str("target", p.TargetID).Msg("relay target gone")
		return
	}

	ctl.peekNegotiation(event, sender.Username, p.Payload)

	out := struct {
		Type         string          `json:"type"`
		FromID       string          `json:"fromId"`
		FromUsername string          `json:"fromUsername,omitempty"`
		Payload      json.RawMessage `json:"payload"`
	}{
		Type:    event,
		FromID:  string(cl.sid),
		Payload: p.Payload,
	}
	if strings.HasSuffix(event, "-offer") {
		out.FromUsername = sender.Username
	}

	b, err := json.Marshal(out)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("relay marshal")
		return
	}
	if err := target.Signal().TrySend(b); err != nil {
		log.Warn().Str("module", "signal").Str("target", p.TargetID).Err(err).Msg("relay send dropped")
	}
}

// peekNegotiation decodes the payload just enough to log what is being
// negotiated. The forwarded bytes are untouched.
func (ctl *Controller) peekNegotiation(event, from string, payload json.RawMessage) {
	switch {
	case strings.HasSuffix(event, "-offer"), strings.HasSuffix(event, "-answer"):
		var sd webrtc.SessionDescription
		if err := json.Unmarshal(payload, &sd); err == nil && sd.SDP != "" {
			log.Info().Str("module", "signal").Str("event", event).Str("from", from).Str("sdp_type", sd.Type.String()).Msg("relaying description")
		}
	case strings.HasSuffix(event, "-ice-candidate"):
		var ci webrtc.ICECandidateInit
		if err := json.Unmarshal(payload, &ci); err != nil || ci.Candidate == "" {
			log.Warn().Str("module", "signal").Str("event", event).Str("from", from).Msg("candidate payload has no candidate field")
		}
	}
}

func (ctl *Controller) handlePoke(cl *client, data []byte) {
	var p struct {
		Type     string `json:"type"`
		TargetID string `json:"targetId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.TargetID == "" {
		return
	}
	sender, _, ok := ctl.Orch.Registry.Get(cl.sid)
	if !ok {
		return
	}
	_, target, found := ctl.Orch.Registry.Get(core.SessionID(p.TargetID))
	if !found {
		return
	}
	b, _ := json.Marshal(map[string]any{
		"type":         "receivePoke",
		"fromId":       string(cl.sid),
		"fromUsername": sender.Username,
	})
	_ = target.Signal().TrySend(b)
}

// handleScreenSharePresence tells the room who is (or stopped) sharing, so
// clients know whom to negotiate with.
func (ctl *Controller) handleScreenSharePresence(cl *client, started bool) {
	player, _, ok := ctl.Orch.Registry.Get(cl.sid)
	if !ok {
		return
	}
	if started {
		ctl.broadcastRoom(player.Room, cl.sid, map[string]any{
			"type":     "user-started-screen-share",
			"userId":   player.ID,
			"username": player.Username,
		})
		return
	}
	ctl.broadcastRoom(player.Room, cl.sid, map[string]any{
		"type":   "user-stopped-screen-share",
		"userId": player.ID,
	})
}
