package app

import (
	"testing"
	"time"

	"github.com/dkeye/Office/internal/core"
	"github.com/dkeye/Office/internal/domain"
)

type nopConn struct{}

func (nopConn) TrySend(core.Frame) error { return nil }
func (nopConn) Close()                   {}

func bind(r *Registry, sid core.SessionID, p domain.Player) {
	r.Bind(sid, core.NewPlayerSession(p, nopConn{}), func() {})
}

func TestSavedStateReuseWithinTTL(t *testing.T) {
	r := NewRegistry(time.Minute)
	r.SaveState("u1", domain.SavedState{X: 42, Y: 17, Room: "lobby"})

	st, ok := r.TakeState("u1")
	if !ok {
		t.Fatal("expected saved state")
	}
	if st.X != 42 || st.Y != 17 || st.Room != "lobby" {
		t.Errorf("state = %+v", st)
	}
	if _, ok := r.TakeState("u1"); ok {
		t.Error("state should be consumed on take")
	}
}

func TestSavedStateExpiresAfterTTL(t *testing.T) {
	r := NewRegistry(20 * time.Millisecond)
	r.SaveState("u1", domain.SavedState{X: 1})

	time.Sleep(60 * time.Millisecond)
	if _, ok := r.TakeState("u1"); ok {
		t.Error("state should have expired")
	}
}

func TestSaveStateRearmsTimer(t *testing.T) {
	r := NewRegistry(40 * time.Millisecond)
	r.SaveState("u1", domain.SavedState{X: 1})
	time.Sleep(25 * time.Millisecond)
	r.SaveState("u1", domain.SavedState{X: 2})
	time.Sleep(25 * time.Millisecond)

	// First timer would have fired by now; the rearm keeps the entry alive.
	st, ok := r.TakeState("u1")
	if !ok {
		t.Fatal("rearmed state should survive the first deadline")
	}
	if st.X != 2 {
		t.Errorf("X = %v, want 2", st.X)
	}
}

func TestTouchStateUpdatesInPlace(t *testing.T) {
	r := NewRegistry(time.Minute)
	r.SaveState("u1", domain.SavedState{X: 1, Y: 1})
	r.TouchState("u1", func(st *domain.SavedState) { st.X, st.Y = 9, 8 })

	st, _ := r.TakeState("u1")
	if st.X != 9 || st.Y != 8 {
		t.Errorf("state = %+v, want X=9 Y=8", st)
	}
}

func TestTouchStateNoEntryIsNoop(t *testing.T) {
	r := NewRegistry(time.Minute)
	r.TouchState("ghost", func(st *domain.SavedState) { st.X = 1 })
	if r.HasState("ghost") {
		t.Error("touch must not create entries")
	}
}

func TestDropState(t *testing.T) {
	r := NewRegistry(time.Minute)
	r.SaveState("u1", domain.SavedState{})
	r.DropState("u1")
	if r.HasState("u1") {
		t.Error("state should be gone after drop")
	}
}

func TestEmptyUserIDNeverSaved(t *testing.T) {
	r := NewRegistry(time.Minute)
	r.SaveState("", domain.SavedState{X: 1})
	if r.HasState("") {
		t.Error("guest state must not be retained")
	}
}

func TestUsernameTakenGlobalScan(t *testing.T) {
	r := NewRegistry(time.Minute)
	bind(r, "s1", domain.Player{ID: "s1", Username: "alice", Room: "lobby"})
	bind(r, "s2", domain.Player{ID: "s2", Username: "bob", Room: "lounge"})

	if !r.UsernameTaken("alice", "s3") {
		t.Error("alice should be taken across rooms")
	}
	if r.UsernameTaken("alice", "s1") {
		t.Error("a player does not collide with itself")
	}
	if r.UsernameTaken("carol", "s3") {
		t.Error("carol is free")
	}
}

func TestFindByUserIDExcludesSelf(t *testing.T) {
	r := NewRegistry(time.Minute)
	bind(r, "s1", domain.Player{ID: "s1", UserID: "u1"})
	bind(r, "s2", domain.Player{ID: "s2", UserID: "u1"})
	bind(r, "s3", domain.Player{ID: "s3", UserID: "u2"})

	got := r.FindByUserID("u1", "s2")
	if len(got) != 1 || got[0] != "s1" {
		t.Errorf("FindByUserID = %v, want [s1]", got)
	}
}
