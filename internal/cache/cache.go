package cache

import (
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/logx"
)

// entry is the stored envelope. TTL is deliberately not part of it: freshness
// is a property of how a key is read, supplied by the caller at Get time.
type entry struct {
	Payload   []byte    `msgpack:"payload"`
	WrittenAt time.Time `msgpack:"written_at"`
}

// Store is a Badger-backed key/value cache with read-side TTL checks. Every
// failure mode (closed store, unreadable value, corrupt envelope, stale
// entry) degrades to a miss; callers must never depend on the cache for
// correctness. A nil *Store is valid and always misses.
type Store struct {
	db  *badger.DB
	now func() time.Time
}

// Open creates or opens a store at dir. Pass dir="" for an in-memory store
// (used by tests).
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

// MustOpen opens a store, logging and returning nil (a disabled cache) on
// failure instead of aborting: the service runs fine without a cache.
func MustOpen(dir string) *Store {
	store, err := Open(dir)
	if err != nil {
		logx.Errorf("cache: open %s failed, running without cache: %v", dir, err)
		return nil
	}
	return store
}

// Get returns the payload stored under key when the entry exists and is
// younger than ttl. ok is false on any miss, error, or expiry.
func (s *Store) Get(key string, ttl time.Duration) ([]byte, bool) {
	if s == nil || s.db == nil || key == "" || ttl <= 0 {
		return nil, false
	}

	var e entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &e)
		})
	})
	if err != nil {
		return nil, false
	}
	if s.now().Sub(e.WrittenAt) >= ttl {
		return nil, false
	}
	return e.Payload, true
}

// Put stores payload under key, replacing any previous entry atomically.
// Failures are swallowed: a cache write must never fail an upstream fetch
// that already succeeded.
func (s *Store) Put(key string, payload []byte) {
	if s == nil || s.db == nil {
		return
	}
	s.putAt(key, payload, s.now())
}

func (s *Store) putAt(key string, payload []byte, writtenAt time.Time) {
	if s == nil || s.db == nil || key == "" {
		return
	}

	encoded, err := msgpack.Marshal(entry{Payload: payload, WrittenAt: writtenAt})
	if err != nil {
		logx.Debugf("cache: encode %s: %v", key, err)
		return
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), encoded)
	}); err != nil {
		logx.Debugf("cache: put %s: %v", key, err)
	}
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
