package middleware

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

// keyedMutex hands out one mutex per key and forgets it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key int64) *refMutex {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return m
}

func (k *keyedMutex) unlock(key int64, m *refMutex) {
	m.Unlock()
	k.mu.Lock()
	m.refs--
	if m.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()
}

// SerializeMiddleware runs at most one handler per sender at a time.
// Telebot dispatches updates concurrently; conversational state needs them in order.
func SerializeMiddleware() tele.MiddlewareFunc {
	km := &keyedMutex{locks: make(map[int64]*refMutex)}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return next(c)
			}
			m := km.lock(user.ID)
			defer km.unlock(user.ID, m)
			return next(c)
		}
	}
}
