package state

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var sessionsBucket = []byte("sessions")

// BoltStore persists sessions in a bbolt file so conversations survive restarts.
// Values are JSON; keys are big-endian conversation ids.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore prepares the sessions bucket in db.
func NewBoltStore(db *bolt.DB) (*BoltStore, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("state: create bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Get loads the session for id or returns nil when absent.
func (b *BoltStore) Get(_ context.Context, id int64) (*Session, error) {
	var s *Session
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(sessionsBucket).Get(itob(id))
		if raw == nil {
			return nil
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		s = &Session{}
		return dec.Decode(s)
	})
	if err != nil {
		return nil, fmt.Errorf("state: load session %d: %w", id, err)
	}
	if s == nil {
		return nil, nil
	}
	return s.Clone(), nil
}

// Put writes s for id.
func (b *BoltStore) Put(_ context.Context, id int64, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("state: encode session %d: %w", id, err)
	}
	err = b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Put(itob(id), raw)
	})
	if err != nil {
		return fmt.Errorf("state: save session %d: %w", id, err)
	}
	return nil
}

// Delete removes the session for id.
func (b *BoltStore) Delete(_ context.Context, id int64) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Delete(itob(id))
	})
	if err != nil {
		return fmt.Errorf("state: delete session %d: %w", id, err)
	}
	return nil
}

func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}
