package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nanowallet/core/types"
	"nanowallet/store"
)

// ErrDriverUnsupported is returned for journal drivers other than sqlite and postgres.
var ErrDriverUnsupported = errors.New("journal: unsupported driver")

// Entry is one pending transaction persisted for an account.
type Entry struct {
	Address       string `gorm:"primaryKey;size:32"`
	TransactionID string `gorm:"primaryKey;size:64"`
	Payload       string `gorm:"type:text;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName pins the table name across drivers.
func (Entry) TableName() string { return "pending_transactions" }

// Open connects to the journal database.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrDriverUnsupported, driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return db, nil
}

// Journal keeps the pending set of the logged-in account across restarts.
type Journal struct {
	db     *gorm.DB
	logger *slog.Logger
	mu     sync.Mutex
}

// New migrates the schema and returns a journal backed by db.
func New(db *gorm.DB, logger *slog.Logger) (*Journal, error) {
	if db == nil {
		return nil, fmt.Errorf("journal: database required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return &Journal{db: db, logger: logger}, nil
}

// Load returns the persisted pending transactions for address, oldest first.
func (j *Journal) Load(ctx context.Context, address string) ([]types.Transaction, error) {
	var entries []Entry
	if err := j.db.WithContext(ctx).
		Where("address = ?", address).
		Order("created_at asc").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("load pending: %w", err)
	}
	txs := make([]types.Transaction, 0, len(entries))
	for _, entry := range entries {
		var tx types.Transaction
		if err := json.Unmarshal([]byte(entry.Payload), &tx); err != nil {
			return nil, fmt.Errorf("decode pending %s: %w", entry.TransactionID, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// Replace makes the persisted set for address equal to pending.
func (j *Journal) Replace(ctx context.Context, address string, pending []types.Transaction) error {
	entries := make([]Entry, 0, len(pending))
	ids := make([]string, 0, len(pending))
	for _, tx := range pending {
		if tx.ID == "" {
			continue
		}
		payload, err := json.Marshal(tx)
		if err != nil {
			return fmt.Errorf("encode pending %s: %w", tx.ID, err)
		}
		entries = append(entries, Entry{Address: address, TransactionID: tx.ID, Payload: string(payload)})
		ids = append(ids, tx.ID)
	}
	return j.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		remove := tx.Where("address = ?", address)
		if len(ids) > 0 {
			remove = remove.Where("transaction_id NOT IN ?", ids)
		}
		if err := remove.Delete(&Entry{}).Error; err != nil {
			return fmt.Errorf("prune pending: %w", err)
		}
		if len(entries) == 0 {
			return nil
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entries).Error; err != nil {
			return fmt.Errorf("insert pending: %w", err)
		}
		return nil
	})
}

// StateStore is the subset of the store the journal mirrors.
type StateStore interface {
	GetState() store.State
	Dispatch(action store.Action)
}

// Hook mirrors the pending set of the logged-in account into the journal and
// restores it on login.
func (j *Journal) Hook(s StateStore) store.Hook {
	return func(action store.Action, state store.State) {
		ctx := context.Background()
		switch action.Type {
		case store.AccountLoggedIn:
			if state.Account == nil || state.Account.Address == "" {
				return
			}
			pending, err := j.Load(ctx, state.Account.Address)
			if err != nil {
				j.logger.Error("restore pending transactions", slog.String("address", state.Account.Address), slog.Any("error", err))
				return
			}
			if len(pending) > 0 {
				s.Dispatch(store.PendingRestoredAction(pending))
			}
		case store.TransactionAdded, store.TransactionsFailed, store.TransactionsInit,
			store.TransactionsFiltered, store.PendingRestored:
			j.sync(ctx, s)
		}
	}
}

func (j *Journal) sync(ctx context.Context, s StateStore) {
	j.mu.Lock()
	defer j.mu.Unlock()
	current := s.GetState()
	if current.Account == nil || current.Account.Address == "" {
		return
	}
	if err := j.Replace(ctx, current.Account.Address, current.Transactions.Pending); err != nil {
		j.logger.Error("persist pending transactions", slog.String("address", current.Account.Address), slog.Any("error", err))
	}
}

// Close releases the underlying connection pool.
func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
