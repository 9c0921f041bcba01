package core

import (
	"sync"

	"github.com/dkeye/Office/internal/domain"
)

// playerSession pairs player state with its transport endpoint. Player
// fields are read by room fan-out and written by the orchestrator, so the
// session owns the lock.
type playerSession struct {
	mu     sync.RWMutex
	player domain.Player
	conn   SignalConnection
}

func NewPlayerSession(player domain.Player, conn SignalConnection) PlayerSession {
	return &playerSession{player: player, conn: conn}
}

func (s *playerSession) Snapshot() domain.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.player
}

func (s *playerSession) Update(mutate func(*domain.Player)) domain.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	mutate(&s.player)
	return s.player
}

func (s *playerSession) Signal() SignalConnection { return s.conn }
