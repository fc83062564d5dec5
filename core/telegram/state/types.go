package state

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"strconv"
)

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// ErrNoValue is returned by typed accessors when a scratch key is missing or mistyped.
var ErrNoValue = errors.New("state: no value")

// Session stores conversation state and temporary data for a user.
type Session struct {
	State State          `json:"state"`
	Data  map[string]any `json:"data,omitempty"`
}

func newSession() *Session {
	return &Session{State: StateIdle, Data: make(map[string]any)}
}

// Clone returns a deep enough copy for callers to mutate freely.
func (s *Session) Clone() *Session {
	if s == nil {
		return newSession()
	}
	out := &Session{State: s.State, Data: maps.Clone(s.Data)}
	if out.State == "" {
		out.State = StateIdle
	}
	if out.Data == nil {
		out.Data = make(map[string]any)
	}
	return out
}

// String returns the scratch value under key as a string.
func (s *Session) String(key string) (string, error) {
	v, ok := s.Data[key].(string)
	if !ok {
		return "", ErrNoValue
	}
	return v, nil
}

// Int64 returns the scratch value under key as int64. Values decoded from
// JSON arrive as json.Number or float64 and are converted.
func (s *Session) Int64(key string) (int64, error) {
	switch v := s.Data[key].(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case float64:
		if v == float64(int64(v)) {
			return int64(v), nil
		}
	case string:
		return strconv.ParseInt(v, 10, 64)
	}
	return 0, ErrNoValue
}

// Store persists sessions keyed by conversation id.
// Get returns (nil, nil) when no session exists.
type Store interface {
	Get(ctx context.Context, id int64) (*Session, error)
	Put(ctx context.Context, id int64, s *Session) error
	Delete(ctx context.Context, id int64) error
}
