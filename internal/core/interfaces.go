package core

import "github.com/dkeye/Office/internal/domain"

// Frame is a marshaled wire message.
type Frame []byte

// SessionID identifies one live connection. Ephemeral, unlike domain.UserID.
type SessionID string

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// PlayerSession binds a domain.Player and its transport endpoint.
// This is what a room stores and fans out to. Snapshot/Update serialize
// access to the player fields; Update returns the post-mutation state.
type PlayerSession interface {
	Snapshot() domain.Player
	Update(mutate func(*domain.Player)) domain.Player
	Signal() SignalConnection
}

// PublishResult reports delivery stats/backpressure to the orchestrator.
type PublishResult struct {
	SentTo  int
	Dropped []SessionID
}

// RoomService is the core-facing API of a room. It owns the membership set
// but never touches transport resources.
type RoomService interface {
	Name() domain.RoomName
	PlayerCount() int
	Roster() []domain.Player

	AddPlayer(sid SessionID, ps PlayerSession)
	RemovePlayer(sid SessionID)

	// Broadcast fans out to everyone except from.
	Broadcast(from SessionID, data Frame) PublishResult
	// BroadcastAll includes every member, sender too.
	BroadcastAll(data Frame) PublishResult
	// BroadcastNear delivers only to members within radius of (x, y).
	BroadcastNear(x, y, radius float64, data Frame) PublishResult
	// Send targets a single member. Reports false when sid is not a member.
	Send(sid SessionID, data Frame) bool
}

type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	PlayerCount int             `json:"playerCount"`
}

type RoomManager interface {
	GetOrCreate(name domain.RoomName) RoomService
	List() []RoomInfo
	StopRoom(name domain.RoomName)
}
