package orch

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Office/internal/app"
	"github.com/dkeye/Office/internal/core"
	"github.com/dkeye/Office/internal/domain"
)

type nopConn struct{}

func (nopConn) TrySend(core.Frame) error { return nil }
func (nopConn) Close()                   {}

// memStore is an in-memory Store used to exercise the persistence paths.
type memStore struct {
	mu          sync.Mutex
	decorations map[domain.RoomName]*domain.Decoration
	chat        []domain.ChatMessage
}

func newMemStore() *memStore {
	return &memStore{decorations: make(map[domain.RoomName]*domain.Decoration)}
}

func (s *memStore) LoadDecorations(_ context.Context, room domain.RoomName) (*domain.Decoration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.decorations[room]; ok {
		cp := *d
		return &cp, nil
	}
	d := domain.EmptyDecoration(room)
	s.decorations[room] = d
	cp := *d
	return &cp, nil
}

func (s *memStore) SaveDecorations(_ context.Context, dec *domain.Decoration) (*domain.Decoration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *dec
	s.decorations[dec.Room] = &cp
	out := cp
	return &out, nil
}

func (s *memStore) AppendChat(_ context.Context, msg domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = append(s.chat, msg)
	return nil
}

func (s *memStore) ChatHistory(_ context.Context, room domain.RoomName, limit int64) ([]domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ChatMessage
	for _, m := range s.chat {
		if m.Room == room {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) UpdateTranslation(_ context.Context, messageID, translation string, fresh bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.chat {
		if s.chat[i].MessageID == messageID {
			s.chat[i].Translation = translation
			s.chat[i].NewTranslation = fresh
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) Close(context.Context) error { return nil }

func newTestOrch(ttl time.Duration) *Orchestrator {
	return &Orchestrator{
		Registry:      app.NewRegistry(ttl),
		Rooms:         app.NewRoomManager("lobby"),
		Store:         newMemStore(),
		SingleRoom:    true,
		CanonicalRoom: "lobby",
	}
}

func join(t *testing.T, o *Orchestrator, sid core.SessionID, name string, uid domain.UserID) JoinResult {
	t.Helper()
	res, err := o.Join(sid, nopConn{}, func() {}, JoinRequest{Username: name, UserID: uid})
	if err != nil {
		t.Fatalf("join %s: %v", name, err)
	}
	return res
}

func TestJoinSpawnsInsideRect(t *testing.T) {
	o := newTestOrch(time.Minute)
	res := join(t, o, "s1", "alice", "")
	p := res.Player
	if p.X < domain.SpawnXMin || p.X > domain.SpawnXMax || p.Y < domain.SpawnYMin || p.Y > domain.SpawnYMax {
		t.Errorf("spawn (%v, %v) outside spawn rect", p.X, p.Y)
	}
	if p.Room != "lobby" {
		t.Errorf("room = %s, want lobby (single-room funnel)", p.Room)
	}
	if p.Color == "" {
		t.Error("expected a generated color")
	}
	if len(res.Roster) != 1 {
		t.Errorf("roster size = %d, want 1", len(res.Roster))
	}
}

func TestJoinEvictsDuplicateIdentity(t *testing.T) {
	o := newTestOrch(time.Minute)
	join(t, o, "s1", "alice", "u1")

	res := join(t, o, "s2", "alice", "u1")
	if len(res.Evicted) != 1 || res.Evicted[0].SID != "s1" {
		t.Fatalf("Evicted = %v, want [s1]", res.Evicted)
	}
	if _, _, ok := o.Registry.Get("s1"); ok {
		t.Error("old session still registered")
	}
	if got := len(o.Registry.FindByUserID("u1", "")); got != 1 {
		t.Errorf("active sessions for u1 = %d, want 1", got)
	}
	if o.Rooms.GetOrCreate("lobby").PlayerCount() != 1 {
		t.Errorf("room count = %d, want 1", o.Rooms.GetOrCreate("lobby").PlayerCount())
	}
}

func TestEvictedStateCarriesOver(t *testing.T) {
	o := newTestOrch(time.Minute)
	join(t, o, "s1", "alice", "u1")
	o.Move("s1", 2000, 1500, domain.DirLeft, false)

	res := join(t, o, "s2", "alice", "u1")
	if res.Player.X != 2000 || res.Player.Y != 1500 {
		t.Errorf("rejoined at (%v, %v), want (2000, 1500)", res.Player.X, res.Player.Y)
	}
}

func TestJoinRejectsTakenName(t *testing.T) {
	o := newTestOrch(time.Minute)
	join(t, o, "s1", "alice", "u1")

	_, err := o.Join("s2", nopConn{}, func() {}, JoinRequest{Username: "alice", UserID: "u2"})
	if !errors.Is(err, ErrNameTaken) {
		t.Fatalf("err = %v, want ErrNameTaken", err)
	}
	if _, _, ok := o.Registry.Get("s2"); ok {
		t.Error("rejected join must not register a session")
	}
	if o.Rooms.GetOrCreate("lobby").PlayerCount() != 1 {
		t.Error("rejected join must not touch room membership")
	}
}

func TestReconnectRestoresState(t *testing.T) {
	o := newTestOrch(time.Minute)
	join(t, o, "s1", "alice", "u1")
	o.Move("s1", 2500, 1800, domain.DirDown, false)
	color, _ := o.UpdateColor("s1", "hsl(120, 70%, 60%)")

	if _, ok := o.Disconnect("s1"); !ok {
		t.Fatal("disconnect failed")
	}

	res := join(t, o, "s2", "alice", "u1")
	p := res.Player
	if p.X != 2500 || p.Y != 1800 {
		t.Errorf("position = (%v, %v), want (2500, 1800)", p.X, p.Y)
	}
	if p.Room != "lobby" {
		t.Errorf("room = %s, want lobby", p.Room)
	}
	if p.Color != color.Color {
		t.Errorf("color = %s, want %s", p.Color, color.Color)
	}
	if o.Registry.HasState("u1") {
		t.Error("saved state must be consumed on reconnect")
	}
}

func TestReconnectAfterTTLGetsFreshSpawn(t *testing.T) {
	o := newTestOrch(20 * time.Millisecond)
	join(t, o, "s1", "alice", "u1")
	o.Move("s1", 4000, 3000, domain.DirUp, false)
	o.Disconnect("s1")

	time.Sleep(60 * time.Millisecond)

	res := join(t, o, "s2", "alice", "u1")
	p := res.Player
	if p.X < domain.SpawnXMin || p.X > domain.SpawnXMax || p.Y < domain.SpawnYMin || p.Y > domain.SpawnYMax {
		t.Errorf("expected fresh spawn in rect, got (%v, %v)", p.X, p.Y)
	}
}

func TestLogoutForfeitsState(t *testing.T) {
	o := newTestOrch(time.Minute)
	join(t, o, "s1", "alice", "u1")
	o.Move("s1", 2000, 2000, domain.DirUp, false)

	if _, ok := o.Logout("s1"); !ok {
		t.Fatal("logout failed")
	}
	if o.Registry.HasState("u1") {
		t.Error("logout must not retain reconnect state")
	}
}

func TestMoveClampsToWorldBounds(t *testing.T) {
	o := newTestOrch(time.Minute)
	join(t, o, "s1", "alice", "")

	upd, ok := o.Move("s1", domain.WorldWidth+1000, -50, domain.DirRight, true)
	if !ok {
		t.Fatal("move failed")
	}
	if upd.X != domain.WorldWidth || upd.Y != 0 {
		t.Errorf("clamped to (%v, %v), want (%v, 0)", upd.X, upd.Y, domain.WorldWidth)
	}
	player, _, _ := o.Registry.Get("s1")
	if player.X != domain.WorldWidth || player.Y != 0 {
		t.Errorf("stored position (%v, %v) not clamped", player.X, player.Y)
	}
}

func TestMoveUnknownSessionIsNoop(t *testing.T) {
	o := newTestOrch(time.Minute)
	if _, ok := o.Move("ghost", 1, 1, domain.DirUp, false); ok {
		t.Error("move for unknown session should report false")
	}
}

func TestChangeRoomMovesMembership(t *testing.T) {
	o := newTestOrch(time.Minute)
	join(t, o, "s1", "alice", "")

	res, dep, ok := o.ChangeRoom("s1", "meeting-room")
	if !ok {
		t.Fatal("changeRoom failed")
	}
	if dep.Room != "lobby" {
		t.Errorf("departed from %s, want lobby", dep.Room)
	}
	if res.Player.Room != "meeting-room" {
		t.Errorf("player room = %s", res.Player.Room)
	}
	if o.Rooms.GetOrCreate("lobby").PlayerCount() != 0 {
		t.Error("player still counted in old room")
	}
	if o.Rooms.GetOrCreate("meeting-room").PlayerCount() != 1 {
		t.Error("player missing from new room")
	}
	if res.Player.X < domain.SpawnXMin || res.Player.X > domain.SpawnXMax {
		t.Errorf("expected respawn in rect, got x=%v", res.Player.X)
	}
}

func TestStatusUpdateIsSingleField(t *testing.T) {
	o := newTestOrch(time.Minute)
	res := join(t, o, "s1", "alice", "")
	before := res.Player

	after, ok := o.UpdateStatus("s1", "in a meeting")
	if !ok {
		t.Fatal("update failed")
	}
	if after.Status != "in a meeting" {
		t.Errorf("status = %q", after.Status)
	}
	if after.X != before.X || after.Y != before.Y || after.Color != before.Color {
		t.Error("status update must not touch other fields")
	}
}

func TestDecorationRoundTrip(t *testing.T) {
	o := newTestOrch(time.Minute)
	join(t, o, "s1", "alice", "")

	in := domain.EmptyDecoration("lobby")
	in.Furniture = []domain.FurnitureItem{
		{ID: "f1", Type: "desk", X: 100, Y: 200, Width: 80, Height: 40, Blocking: true},
		{ID: "f2", Type: "plant", X: 300, Y: 300},
	}
	in.TileFloors = map[string]string{"3,4": "wood"}

	saved, err := o.SaveDecorations(context.Background(), "lobby", in, "s1")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.UpdatedBy != "alice" {
		t.Errorf("UpdatedBy = %q, want alice", saved.UpdatedBy)
	}
	if saved.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not stamped")
	}

	loaded := o.LoadDecorations(context.Background(), "lobby")
	if !reflect.DeepEqual(loaded.Furniture, in.Furniture) {
		t.Errorf("furniture mismatch: %v vs %v", loaded.Furniture, in.Furniture)
	}
	if !reflect.DeepEqual(loaded.TileFloors, in.TileFloors) {
		t.Errorf("tile floors mismatch: %v vs %v", loaded.TileFloors, in.TileFloors)
	}
}

func TestLoadDecorationsAbsentRoomIsEmpty(t *testing.T) {
	o := newTestOrch(time.Minute)
	dec := o.LoadDecorations(context.Background(), "lounge")
	if dec.Room != "lounge" {
		t.Errorf("room = %s", dec.Room)
	}
	if len(dec.Furniture) != 0 {
		t.Errorf("expected empty furniture, got %v", dec.Furniture)
	}
}

func TestGlobalChatPersistsAndHistoryOrders(t *testing.T) {
	o := newTestOrch(time.Minute)
	join(t, o, "s1", "alice", "u1")

	for _, text := range []string{"first", "second", "third"} {
		if _, _, ok := o.BuildChat("s1", text, domain.ChatGlobal); !ok {
			t.Fatal("build chat failed")
		}
		time.Sleep(2 * time.Millisecond) // distinct timestamps
	}

	// Persistence is async; give the writes a moment.
	deadline := time.Now().Add(time.Second)
	for {
		history := o.ChatHistory(context.Background(), "lobby", 2)
		if len(history) == 2 {
			if history[0].Text != "third" || history[1].Text != "second" {
				t.Fatalf("history order = [%s, %s], want [third, second]", history[0].Text, history[1].Text)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("history = %d messages, want 2", len(history))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestProximityChatNotPersisted(t *testing.T) {
	o := newTestOrch(time.Minute)
	join(t, o, "s1", "alice", "")

	if _, _, ok := o.BuildChat("s1", "psst", domain.ChatProximity); !ok {
		t.Fatal("build chat failed")
	}
	time.Sleep(20 * time.Millisecond)
	if got := len(o.ChatHistory(context.Background(), "lobby", 10)); got != 0 {
		t.Errorf("proximity message persisted, history = %d", got)
	}
}

func TestTranslationUpdate(t *testing.T) {
	o := newTestOrch(time.Minute)
	join(t, o, "s1", "alice", "")

	msg, _, _ := o.BuildChat("s1", "hello", domain.ChatGlobal)

	deadline := time.Now().Add(time.Second)
	for !o.UpdateTranslation(context.Background(), msg.MessageID, "สวัสดี", true) {
		if time.Now().After(deadline) {
			t.Fatal("translation update never found the message")
		}
		time.Sleep(5 * time.Millisecond)
	}

	history := o.ChatHistory(context.Background(), "lobby", 1)
	if len(history) != 1 || history[0].Translation != "สวัสดี" {
		t.Errorf("history = %+v", history)
	}
}

func TestTranslationUnknownMessageIsNoop(t *testing.T) {
	o := newTestOrch(time.Minute)
	if o.UpdateTranslation(context.Background(), "nope", "x", true) {
		t.Error("unknown message id should report false")
	}
}

func TestConcurrentJoinsSameNameAdmitOne(t *testing.T) {
	for round := 0; round < 20; round++ {
		o := newTestOrch(time.Minute)

		const n = 8
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				sid := core.SessionID(fmt.Sprintf("sid-%d", i))
				_, errs[i] = o.Join(sid, nopConn{}, func() {}, JoinRequest{Username: "alice"})
			}(i)
		}
		wg.Wait()

		admitted := 0
		for _, err := range errs {
			switch {
			case err == nil:
				admitted++
			case !errors.Is(err, ErrNameTaken):
				t.Fatalf("unexpected join error: %v", err)
			}
		}
		if admitted != 1 {
			t.Fatalf("round %d: %d joins with the same name succeeded, want 1", round, admitted)
		}
		if got := o.Rooms.GetOrCreate("lobby").PlayerCount(); got != 1 {
			t.Fatalf("round %d: lobby holds %d players, want 1", round, got)
		}
	}
}

func TestConcurrentJoinsSameIdentityLeaveOneActive(t *testing.T) {
	for round := 0; round < 20; round++ {
		o := newTestOrch(time.Minute)

		const n = 8
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				sid := core.SessionID(fmt.Sprintf("sid-%d", i))
				_, _ = o.Join(sid, nopConn{}, func() {}, JoinRequest{
					Username: fmt.Sprintf("tab-%d", i),
					UserID:   "u-7",
				})
			}(i)
		}
		wg.Wait()

		if got := len(o.Registry.FindByUserID("u-7", "none")); got != 1 {
			t.Fatalf("round %d: %d active sessions for one identity, want 1", round, got)
		}
		if got := o.Rooms.GetOrCreate("lobby").PlayerCount(); got != 1 {
			t.Fatalf("round %d: lobby holds %d players, want 1", round, got)
		}
	}
}

func TestEvictionCancelsDuplicateConnection(t *testing.T) {
	o := newTestOrch(time.Minute)

	canceled := false
	if _, err := o.Join("s1", nopConn{}, func() { canceled = true }, JoinRequest{Username: "alice", UserID: "u1"}); err != nil {
		t.Fatalf("first join: %v", err)
	}

	res := join(t, o, "s2", "alice", "u1")
	if len(res.Evicted) != 1 || res.Evicted[0].SID != "s1" {
		t.Fatalf("evicted = %+v, want s1", res.Evicted)
	}
	if !canceled {
		t.Error("evicted session's cancel never ran")
	}
	if o.Registry.Cancel("s1") {
		t.Error("registry still holds the evicted session")
	}
}

func TestJoinRejectsOverlongUsername(t *testing.T) {
	o := newTestOrch(time.Minute)

	long := strings.Repeat("a", domain.MaxUsernameLen+1)
	_, err := o.Join("s1", nopConn{}, func() {}, JoinRequest{Username: long})
	if !errors.Is(err, domain.ErrUsernameTooLong) {
		t.Fatalf("err = %v, want ErrUsernameTooLong", err)
	}
	if _, _, ok := o.Registry.Get("s1"); ok {
		t.Error("rejected join left a bound session")
	}
}
