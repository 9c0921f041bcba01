package orch

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Office/internal/core"
	"github.com/dkeye/Office/internal/domain"
)

// ErrNameTaken is the only protocol-level join rejection.
var ErrNameTaken = errors.New("username already taken")

type JoinRequest struct {
	Username string
	Room     domain.RoomName
	UserID   domain.UserID
	Status   string
}

type JoinResult struct {
	Player domain.Player
	Roster []domain.Player
	// Evicted lists stale sessions of the same identity that were removed
	// to make way for this join. Their connections are already canceled;
	// the caller still broadcasts their departure.
	Evicted []Evicted
}

type Evicted struct {
	SID  core.SessionID
	Room domain.RoomName
}

// Join runs the full handshake: duplicate-identity eviction, global
// username check, saved-state or fresh spawn, then registry + room insert.
func (o *Orchestrator) Join(sid core.SessionID, conn core.SignalConnection, cancel func(), req JoinRequest) (JoinResult, error) {
	o.lifecycle.Lock()
	defer o.lifecycle.Unlock()

	room := req.Room
	if o.SingleRoom || room == "" {
		room = o.CanonicalRoom
	}

	res := JoinResult{}

	// Stale tabs and half-dead sockets from the same user go first. Their
	// live state is captured so the new session can resume it below.
	if req.UserID != "" {
		for _, dupSID := range o.Registry.FindByUserID(req.UserID, sid) {
			dup, _, ok := o.Registry.Get(dupSID)
			if !ok {
				continue
			}
			if !o.Registry.HasState(req.UserID) {
				o.Registry.SaveState(req.UserID, dup.Snapshot())
			}
			o.Rooms.GetOrCreate(dup.Room).RemovePlayer(dupSID)
			// Cancel before Remove: the entry holds the cancel func, and a
			// removed entry can no longer tear its pumps down.
			o.Registry.Cancel(dupSID)
			o.Registry.Remove(dupSID)
			res.Evicted = append(res.Evicted, Evicted{SID: dupSID, Room: dup.Room})
			log.Info().Str("module", "orch").Str("sid", string(dupSID)).Str("uid", string(req.UserID)).Msg("evicted duplicate session")
		}
	}

	username := req.Username
	if username == "" {
		username = fmt.Sprintf("Player_%.4s", string(sid))
	}
	if err := domain.ValidUsername(username); err != nil {
		log.Warn().Str("module", "orch").Str("username", username).Err(err).Msg("join rejected, bad name")
		return res, err
	}
	if o.Registry.UsernameTaken(username, sid) {
		log.Warn().Str("module", "orch").Str("username", username).Msg("join rejected, name taken")
		// Evictions above already happened; the caller still has to
		// announce them even though this join failed.
		return res, ErrNameTaken
	}

	player := domain.Player{
		ID:       string(sid),
		UserID:   req.UserID,
		Username: username,
		Room:     room,
		Status:   req.Status,
	}
	if st, ok := o.Registry.TakeState(req.UserID); ok {
		player.X, player.Y = st.X, st.Y
		player.Room = st.Room
		player.Color = st.Color
		player.Status = st.Status
	} else {
		player.X, player.Y = domain.SpawnPoint()
		player.Color = domain.RandomColor()
	}
	player.X, player.Y = domain.Clamp(player.X, player.Y)

	sess := core.NewPlayerSession(player, conn)
	o.Registry.Bind(sid, sess, cancel)
	roomSvc := o.Rooms.GetOrCreate(player.Room)
	roomSvc.AddPlayer(sid, sess)

	res.Player = player
	res.Roster = roomSvc.Roster()
	log.Info().Str("module", "orch").Str("username", username).Str("room", string(player.Room)).Str("sid", string(sid)).Msg("joined")
	return res, nil
}

type Departure struct {
	PlayerID string
	Room     domain.RoomName
}

// Disconnect snapshots reconnectable state and removes the player. Unknown
// sids are a no-op, disconnects can race the rest of the protocol.
func (o *Orchestrator) Disconnect(sid core.SessionID) (Departure, bool) {
	o.lifecycle.Lock()
	defer o.lifecycle.Unlock()

	player, _, ok := o.Registry.Get(sid)
	if !ok {
		return Departure{}, false
	}
	if player.UserID != "" {
		o.Registry.SaveState(player.UserID, player.Snapshot())
	}
	o.Rooms.GetOrCreate(player.Room).RemovePlayer(sid)
	o.Registry.Remove(sid)
	log.Info().Str("module", "orch").Str("username", player.Username).Str("sid", string(sid)).Msg("disconnected")
	return Departure{PlayerID: player.ID, Room: player.Room}, true
}

// Logout is a disconnect that forfeits reconnection state.
func (o *Orchestrator) Logout(sid core.SessionID) (Departure, bool) {
	o.lifecycle.Lock()
	defer o.lifecycle.Unlock()

	player, _, ok := o.Registry.Get(sid)
	if !ok {
		return Departure{}, false
	}
	o.Registry.DropState(player.UserID)
	o.Rooms.GetOrCreate(player.Room).RemovePlayer(sid)
	o.Registry.Remove(sid)
	log.Info().Str("module", "orch").Str("username", player.Username).Str("sid", string(sid)).Msg("logged out")
	return Departure{PlayerID: player.ID, Room: player.Room}, true
}

// ChangeRoom moves a player to newRoom with a fresh spawn point there.
func (o *Orchestrator) ChangeRoom(sid core.SessionID, newRoom domain.RoomName) (JoinResult, Departure, bool) {
	o.lifecycle.Lock()
	defer o.lifecycle.Unlock()

	player, sess, ok := o.Registry.Get(sid)
	if !ok {
		return JoinResult{}, Departure{}, false
	}
	oldRoom := player.Room
	o.Rooms.GetOrCreate(oldRoom).RemovePlayer(sid)

	updated := sess.Update(func(p *domain.Player) {
		p.Room = newRoom
		p.X, p.Y = domain.SpawnPoint()
	})
	roomSvc := o.Rooms.GetOrCreate(newRoom)
	roomSvc.AddPlayer(sid, sess)

	log.Info().Str("module", "orch").Str("username", player.Username).Str("from", string(oldRoom)).Str("to", string(newRoom)).Msg("changed room")
	return JoinResult{Player: updated, Roster: roomSvc.Roster()},
		Departure{PlayerID: player.ID, Room: oldRoom}, true
}
