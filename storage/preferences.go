package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	keyDefaultNetwork = []byte("prefs/defaultNetwork")
	keyLastAddress    = []byte("prefs/lastAddress")
)

// Preferences persists the small amount of user state that survives restarts.
type Preferences struct {
	db Database
}

// NewPreferences wraps a Database.
func NewPreferences(db Database) *Preferences {
	return &Preferences{db: db}
}

// DefaultNetwork returns the persisted network profile key, or "" when unset.
func (p *Preferences) DefaultNetwork() (string, error) {
	return p.getString(keyDefaultNetwork)
}

// SetDefaultNetwork persists the network profile key. An empty key clears it.
func (p *Preferences) SetDefaultNetwork(network string) error {
	return p.putString(keyDefaultNetwork, network)
}

// LastAddress returns the last viewed address, or "" when unset.
func (p *Preferences) LastAddress() (string, error) {
	return p.getString(keyLastAddress)
}

// SetLastAddress records the last viewed address.
func (p *Preferences) SetLastAddress(address string) error {
	return p.putString(keyLastAddress, address)
}

// Close releases the underlying database.
func (p *Preferences) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

func (p *Preferences) getString(key []byte) (string, error) {
	if p == nil || p.db == nil {
		return "", nil
	}
	value, err := p.db.Get(key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return string(value), nil
}

func (p *Preferences) putString(key []byte, value string) error {
	if p == nil || p.db == nil {
		return fmt.Errorf("preferences not configured")
	}
	value = strings.TrimSpace(value)
	if value == "" {
		if err := p.db.Delete(key); err != nil {
			return fmt.Errorf("clear %s: %w", key, err)
		}
		return nil
	}
	if err := p.db.Put(key, []byte(value)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
