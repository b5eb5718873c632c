package storage

import (
	"fmt"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	BackendLevelDB = "leveldb"
	BackendBolt    = "bolt"
)

var bucketPrefs = []byte("prefs")

// BoltDB is a single-file key-value store backed by bbolt. All keys share
// one bucket.
type BoltDB struct {
	db *bolt.DB
}

// NewBoltDB opens (or creates) the bbolt file at path.
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPrefs)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init bolt %s: %w", path, err)
	}
	return &BoltDB{db: db}, nil
}

func (b *BoltDB) Put(key []byte, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPrefs).Put(key, value)
	})
}

// Get copies the value out of the read transaction.
func (b *BoltDB) Get(key []byte) ([]byte, error) {
	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		stored := tx.Bucket(bucketPrefs).Get(key)
		if stored == nil {
			return ErrNotFound
		}
		value = append([]byte(nil), stored...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (b *BoltDB) Delete(key []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPrefs).Delete(key)
	})
}

func (b *BoltDB) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Open returns the Database for backend at path. An empty backend selects
// LevelDB.
func Open(backend, path string) (Database, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendLevelDB:
		return NewLevelDB(path)
	case BackendBolt:
		return NewBoltDB(path)
	default:
		return nil, fmt.Errorf("storage backend %q is not supported", backend)
	}
}
