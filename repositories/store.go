package repositories

import (
	stderrors "errors"
	"fmt"
	"pajal/errors"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "pajal"

// Key addresses one stored snapshot: a logical collection, optionally owned by a user.
type Key struct {
	Collection string
	Owner      string
}

// String formats the key as "pajal:{collection}" or "pajal:{collection}:{owner}".
func (k Key) String() string {
	if k.Owner == "" {
		return fmt.Sprintf("%s:%s", keyPrefix, k.Collection)
	}
	return fmt.Sprintf("%s:%s:%s", keyPrefix, k.Collection, k.Owner)
}

func collectionPrefix(collection string) string {
	return fmt.Sprintf("%s:%s:", keyPrefix, collection)
}

// IStore is the raw key-value boundary. Get returns errors.ErrNotFound for
// missing keys.
type IStore interface {
	Get(key Key) ([]byte, error)
	Set(key Key, value []byte) error
	Delete(key Key) error
	// Scan returns every owned value of a collection, keyed by owner.
	Scan(collection string) (map[string][]byte, error)
}

type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func (s *BadgerStore) Get(key Key) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key.String()))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.ErrNotFound
	}
	return value, err
}

func (s *BadgerStore) Set(key Key, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key.String()), value)
	})
}

func (s *BadgerStore) Delete(key Key) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key.String()))
	})
}

func (s *BadgerStore) Scan(collection string) (map[string][]byte, error) {
	values := make(map[string][]byte)
	err := s.db.View(func(txn *badger.Txn) error {
		prefixStr := collectionPrefix(collection)
		prefix := []byte(prefixStr)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			owner := string(item.Key()[len(prefixStr):])
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			values[owner] = value
		}
		return nil
	})
	return values, err
}

// MemoryStore keeps everything in a map. Used by tests and when no
// database path is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (s *MemoryStore) Get(key Key) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key.String()]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *MemoryStore) Set(key Key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key.String()] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Delete(key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key.String())
	return nil
}

func (s *MemoryStore) Scan(collection string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefix := collectionPrefix(collection)
	values := make(map[string][]byte)
	for k, v := range s.values {
		if owner, ok := strings.CutPrefix(k, prefix); ok {
			values[owner] = append([]byte(nil), v...)
		}
	}
	return values, nil
}
