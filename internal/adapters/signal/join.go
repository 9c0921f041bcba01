package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Office/internal/app/orch"
	"github.com/dkeye/Office/internal/domain"
)

type playerLeftEvent struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func (ctl *Controller) handleJoin(cl *client, data []byte) {
	var p struct {
		Type     string `json:"type"`
		Username string `json:"username"`
		Room     string `json:"room"`
		UserID   string `json:"userId"`
		Status   string `json:"status"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendJSON(cl.conn, map[string]any{"type": "joinError", "message": "bad payload"})
		return
	}

	res, err := ctl.Orch.Join(cl.sid, cl.conn, cl.cancel, orch.JoinRequest{
		Username: p.Username,
		Room:     domain.RoomName(p.Room),
		UserID:   domain.UserID(p.UserID),
		Status:   p.Status,
	})

	// Evicted duplicates are already torn down; announce their departure
	// regardless of how the join itself went.
	for _, ev := range res.Evicted {
		ctl.broadcastRoom(ev.Room, ev.SID, playerLeftEvent{Type: "playerLeft", ID: string(ev.SID)})
	}

	if err != nil {
		msg := "join failed"
		switch {
		case errors.Is(err, orch.ErrNameTaken):
			msg = "name already taken"
		case errors.Is(err, domain.ErrUsernameTooLong):
			msg = "username too long"
		}
		ctl.sendJSON(cl.conn, map[string]any{"type": "joinError", "message": msg})
		return
	}

	ctl.sendJSON(cl.conn, struct {
		Type    string          `json:"type"`
		Player  domain.Player   `json:"player"`
		Players []domain.Player `json:"players"`
	}{"init", res.Player, res.Roster})

	ctl.broadcastRoom(res.Player.Room, cl.sid, struct {
		Type   string        `json:"type"`
		Player domain.Player `json:"player"`
	}{"playerJoined", res.Player})
}

// handleGone runs when the transport drops: implicit departure with
// reconnect state retained.
func (ctl *Controller) handleGone(cl *client) {
	dep, ok := ctl.Orch.Disconnect(cl.sid)
	if !ok {
		return
	}
	ctl.broadcastRoom(dep.Room, cl.sid, playerLeftEvent{Type: "playerLeft", ID: dep.PlayerID})
}

// handleLogout is an explicit departure: reconnect state is forfeited and
// the connection is torn down.
func (ctl *Controller) handleLogout(cl *client) {
	dep, ok := ctl.Orch.Logout(cl.sid)
	if ok {
		ctl.broadcastRoom(dep.Room, cl.sid, playerLeftEvent{Type: "playerLeft", ID: dep.PlayerID})
	}
	cl.cancel()
	cl.conn.Close()
}

func (ctl *Controller) handleChangeRoom(cl *client, data []byte) {
	var p struct {
		Type string `json:"type"`
		Room string `json:"room"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		log.Error().Str("module", "signal").Msg("bad changeRoom payload")
		return
	}

	res, dep, ok := ctl.Orch.ChangeRoom(cl.sid, domain.RoomName(p.Room))
	if !ok {
		return
	}

	ctl.broadcastRoom(dep.Room, cl.sid, playerLeftEvent{Type: "playerLeft", ID: dep.PlayerID})

	ctl.sendJSON(cl.conn, struct {
		Type    string          `json:"type"`
		Player  domain.Player   `json:"player"`
		Players []domain.Player `json:"players"`
	}{"roomChanged", res.Player, res.Roster})

	ctl.broadcastRoom(res.Player.Room, cl.sid, struct {
		Type   string        `json:"type"`
		Player domain.Player `json:"player"`
	}{"playerJoined", res.Player})
}

func (ctl *Controller) handleGetRooms(cl *client) {
	ctl.sendJSON(cl.conn, map[string]any{
		"type":  "roomList",
		"rooms": ctl.Orch.RoomList(),
	})
}
