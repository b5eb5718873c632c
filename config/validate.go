package config

import (
	"fmt"
	"strings"
)

// Validate checks cross-field constraints after defaults have been applied.
func (cfg *Config) Validate() error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	switch cfg.Journal.Driver {
	case JournalDriverSQLite:
	case JournalDriverPostgres:
		if strings.TrimSpace(cfg.Journal.DSN) == "" {
			return fmt.Errorf("journal.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("journal.driver %q is not supported", cfg.Journal.Driver)
	}
	switch cfg.Prefs.Backend {
	case PrefsBackendLevelDB, PrefsBackendBolt:
	default:
		return fmt.Errorf("prefs.backend %q is not supported", cfg.Prefs.Backend)
	}
	if cfg.Peer.Timeout < 0 {
		return fmt.Errorf("peer.timeout cannot be negative")
	}
	if cfg.Peer.RatePerSecond < 0 {
		return fmt.Errorf("peer.ratePerSecond cannot be negative")
	}
	if cfg.Auth.Enabled && strings.TrimSpace(cfg.Auth.HMACSecret) == "" {
		return ErrAuthSecretMissing
	}
	seen := make(map[string]struct{}, len(cfg.RateLimits))
	for i, limit := range cfg.RateLimits {
		id := strings.TrimSpace(limit.ID)
		if id == "" {
			return fmt.Errorf("rateLimits[%d].id cannot be empty", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("rateLimits[%d].id %q is duplicated", i, id)
		}
		seen[id] = struct{}{}
		if limit.RatePerSecond <= 0 {
			return fmt.Errorf("rateLimits[%d].ratePerSecond must be positive", i)
		}
	}
	if network := strings.TrimSpace(cfg.Network); network != "" {
		if _, ok := DefaultNetworks()[network]; !ok && strings.TrimSpace(cfg.NetworksFile) == "" {
			return fmt.Errorf("network %q is not a built-in profile", network)
		}
	}
	return nil
}
