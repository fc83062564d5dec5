package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/m3rciful/coinbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Manager coordinates session transitions over a Store and maps states to handlers.
type Manager struct {
	store Store

	mu       sync.RWMutex
	handlers map[State]binding
}

type binding struct {
	handler   tele.HandlerFunc
	adminOnly bool
}

// NewManager returns a Manager backed by store; nil selects a MemoryStore.
func NewManager(store Store) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Manager{store: store, handlers: make(map[State]binding)}
}

// Handle binds h to st. Registering the same state twice replaces the handler.
func (m *Manager) Handle(st State, h tele.HandlerFunc) {
	m.bind(st, binding{handler: h})
}

// HandleAdmin binds h to st and marks st as reachable by the admin only.
// Stored sessions outlive config changes, so routers re-check the sender.
func (m *Manager) HandleAdmin(st State, h tele.HandlerFunc) {
	m.bind(st, binding{handler: h, adminOnly: true})
}

// AdminOnly reports whether st was bound with HandleAdmin.
func (m *Manager) AdminOnly(st State) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.handlers[st].adminOnly
}

func (m *Manager) bind(st State, b binding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[st] = b
}

// Session returns a copy of the session for id; absent sessions are idle.
func (m *Manager) Session(ctx context.Context, id int64) (*Session, error) {
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Clone(), nil
}

// State returns the current state for id.
func (m *Manager) State(ctx context.Context, id int64) (State, error) {
	s, err := m.Session(ctx, id)
	if err != nil {
		return "", err
	}
	return s.State, nil
}

// Data returns a copy of the scratch data for id.
func (m *Manager) Data(ctx context.Context, id int64) (map[string]any, error) {
	s, err := m.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Data, nil
}

// SetState moves id to st keeping scratch data.
func (m *Manager) SetState(ctx context.Context, id int64, st State) error {
	return m.update(ctx, id, func(s *Session) { s.State = st })
}

// UpdateData merges partial into the scratch data of id.
func (m *Manager) UpdateData(ctx context.Context, id int64, partial map[string]any) error {
	return m.update(ctx, id, func(s *Session) {
		for k, v := range partial {
			s.Data[k] = v
		}
	})
}

// Clear resets id to idle and drops its scratch data.
func (m *Manager) Clear(ctx context.Context, id int64) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	logger.Debug(ctx, "tg", "fsm.clear", slog.Int64("target_id", id))
	return nil
}

// InProgress reports whether id has an active, non-idle state.
func (m *Manager) InProgress(ctx context.Context, id int64) bool {
	st, err := m.State(ctx, id)
	if err != nil {
		logger.Warn(ctx, "tg", "fsm.state",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return false
	}
	return st != StateIdle
}

// Lookup returns the state of id and the handler bound to it. The handler is
// nil when id is idle or its state has no handler.
func (m *Manager) Lookup(ctx context.Context, id int64) (State, tele.HandlerFunc, error) {
	st, err := m.State(ctx, id)
	if err != nil {
		return "", nil, err
	}
	if st == StateIdle {
		return st, nil, nil
	}
	m.mu.RLock()
	h := m.handlers[st].handler
	m.mu.RUnlock()
	if h == nil {
		logger.Warn(ctx, "tg", "fsm.lookup",
			slog.String("state", string(st)),
			slog.String("cause", "no_handler"),
		)
	}
	return st, h, nil
}

func (m *Manager) update(ctx context.Context, id int64, fn func(*Session)) error {
	s, err := m.Session(ctx, id)
	if err != nil {
		return fmt.Errorf("state: read %d: %w", id, err)
	}
	fn(s)
	if err := m.store.Put(ctx, id, s); err != nil {
		return err
	}
	logger.Debug(ctx, "tg", "fsm.update",
		slog.Int64("target_id", id),
		slog.String("state", string(s.State)),
	)
	return nil
}
