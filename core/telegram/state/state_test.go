package state

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
	tele "gopkg.in/telebot.v4"
)

const (
	stAwaitID     State = "awaiting_target_user_id"
	stAwaitAmount State = "awaiting_amount"
)

func openBolt(t *testing.T) *BoltStore {
	t.Helper()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "state.db"), 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		t.Fatalf("bolt open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	store, err := NewBoltStore(db)
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	return store
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"bolt":   openBolt(t),
	}
}

func TestManagerLifecycle(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			m := NewManager(store)

			if st, err := m.State(ctx, 1); err != nil || st != StateIdle {
				t.Fatalf("initial state = %q, %v", st, err)
			}
			if m.InProgress(ctx, 1) {
				t.Fatal("fresh conversation must be idle")
			}

			if err := m.UpdateData(ctx, 1, map[string]any{"action": "add"}); err != nil {
				t.Fatalf("UpdateData: %v", err)
			}
			if err := m.SetState(ctx, 1, stAwaitID); err != nil {
				t.Fatalf("SetState: %v", err)
			}
			if err := m.UpdateData(ctx, 1, map[string]any{"user_id": int64(123)}); err != nil {
				t.Fatalf("UpdateData: %v", err)
			}

			s, err := m.Session(ctx, 1)
			if err != nil {
				t.Fatalf("Session: %v", err)
			}
			if s.State != stAwaitID {
				t.Fatalf("state = %q", s.State)
			}
			if action, _ := s.String("action"); action != "add" {
				t.Fatalf("action = %q, merge lost earlier keys", action)
			}
			if id, err := s.Int64("user_id"); err != nil || id != 123 {
				t.Fatalf("user_id = %d, %v", id, err)
			}
			if !m.InProgress(ctx, 1) {
				t.Fatal("expected conversation in progress")
			}
			if m.InProgress(ctx, 2) {
				t.Fatal("conversations must be independent")
			}

			if err := m.Clear(ctx, 1); err != nil {
				t.Fatalf("Clear: %v", err)
			}
			data, err := m.Data(ctx, 1)
			if err != nil || len(data) != 0 {
				t.Fatalf("data after clear = %v, %v", data, err)
			}
			if st, _ := m.State(ctx, 1); st != StateIdle {
				t.Fatalf("state after clear = %q", st)
			}
		})
	}
}

func TestDataIsACopy(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil)
	_ = m.UpdateData(ctx, 7, map[string]any{"k": "v"})
	data, _ := m.Data(ctx, 7)
	data["k"] = "mutated"
	again, _ := m.Data(ctx, 7)
	if again["k"] != "v" {
		t.Fatalf("stored data mutated through copy: %v", again)
	}
}

func TestLookup(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil)
	called := 0
	m.Handle(stAwaitAmount, func(tele.Context) error { called++; return nil })

	if st, h, err := m.Lookup(ctx, 9); err != nil || st != StateIdle || h != nil {
		t.Fatalf("idle lookup = %q, %v, %v", st, h != nil, err)
	}

	_ = m.SetState(ctx, 9, stAwaitID)
	if _, h, _ := m.Lookup(ctx, 9); h != nil {
		t.Fatal("state without handler must yield nil handler")
	}

	_ = m.SetState(ctx, 9, stAwaitAmount)
	st, h, err := m.Lookup(ctx, 9)
	if err != nil || st != stAwaitAmount || h == nil {
		t.Fatalf("lookup = %q, %v, %v", st, h != nil, err)
	}
	_ = h(nil)
	if called != 1 {
		t.Fatalf("handler called %d times", called)
	}
}

func TestHandleAdminMarksState(t *testing.T) {
	m := NewManager(nil)
	m.Handle(stAwaitID, func(tele.Context) error { return nil })
	m.HandleAdmin(stAwaitAmount, func(tele.Context) error { return nil })

	if m.AdminOnly(stAwaitID) {
		t.Fatal("Handle must not restrict the state")
	}
	if !m.AdminOnly(stAwaitAmount) {
		t.Fatal("HandleAdmin must restrict the state")
	}
	if m.AdminOnly("unbound") {
		t.Fatal("unbound state reported as admin only")
	}
	_ = m.SetState(context.Background(), 3, stAwaitAmount)
	if _, h, _ := m.Lookup(context.Background(), 3); h == nil {
		t.Fatal("admin state lost its handler")
	}
}

type failingStore struct{ *MemoryStore }

var errStoreDown = errors.New("store down")

func (*failingStore) Get(context.Context, int64) (*Session, error) { return nil, errStoreDown }

func TestStoreErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	m := NewManager(&failingStore{MemoryStore: NewMemoryStore()})
	if _, _, err := m.Lookup(ctx, 1); !errors.Is(err, errStoreDown) {
		t.Fatalf("Lookup err = %v", err)
	}
	if err := m.SetState(ctx, 1, stAwaitID); !errors.Is(err, errStoreDown) {
		t.Fatalf("SetState err = %v", err)
	}
	if m.InProgress(ctx, 1) {
		t.Fatal("InProgress must be false on store errors")
	}
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	store, err := NewBoltStore(db)
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	m := NewManager(store)
	_ = m.UpdateData(ctx, 42, map[string]any{"action": "remove", "user_id": int64(9007199254740993)})
	_ = m.SetState(ctx, 42, stAwaitAmount)
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err = bolt.Open(path, 0o600, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	store, err = NewBoltStore(db)
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	s, err := NewManager(store).Session(ctx, 42)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if s.State != stAwaitAmount {
		t.Fatalf("state = %q", s.State)
	}
	if id, err := s.Int64("user_id"); err != nil || id != 9007199254740993 {
		t.Fatalf("user_id = %d, %v (precision lost?)", id, err)
	}
}

func TestSessionInt64Conversions(t *testing.T) {
	s := &Session{Data: map[string]any{"a": 5, "b": 6.0, "c": "7", "d": 1.5, "e": true}}
	for key, want := range map[string]int64{"a": 5, "b": 6, "c": 7} {
		if got, err := s.Int64(key); err != nil || got != want {
			t.Fatalf("Int64(%q) = %d, %v", key, got, err)
		}
	}
	for _, key := range []string{"d", "e", "missing"} {
		if _, err := s.Int64(key); !errors.Is(err, ErrNoValue) {
			t.Fatalf("Int64(%q) err = %v, want ErrNoValue", key, err)
		}
	}
}
