// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const MaxUsernameLen = 36

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
)

// UserID is the stable identity that survives reconnects. It is distinct
// from the per-connection session id and may be empty for guests.
type UserID string

type Direction string

const (
	DirUp    Direction = "up"
	DirDown  Direction = "down"
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

// Player is the live state of one connected client. One Player per
// connection; the session registry owns the instance.
type Player struct {
	ID        string    `json:"id"`
	UserID    UserID    `json:"userId,omitempty"`
	Username  string    `json:"username"`
	Room      RoomName  `json:"room"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Direction Direction `json:"direction,omitempty"`
	Moving    bool      `json:"isMoving"`
	Color     string    `json:"color"`
	Status    string    `json:"status"`
}

// SavedState is the disconnect snapshot kept briefly per UserID so the same
// user can reconnect where they left off.
type SavedState struct {
	X        float64
	Y        float64
	Room     RoomName
	Color    string
	Username string
	Status   string
}

// Snapshot captures the reconnect-relevant fields of a player.
func (p *Player) Snapshot() SavedState {
	return SavedState{
		X:        p.X,
		Y:        p.Y,
		Room:     p.Room,
		Color:    p.Color,
		Username: p.Username,
		Status:   p.Status,
	}
}

func ValidUsername(name string) error {
	if len(name) == 0 {
		return ErrUsernameEmpty
	}
	if len(name) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	return nil
}
