package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// PeerConfig controls the outbound peer API client.
type PeerConfig struct {
	// Timeout bounds a single peer request. Zero leaves requests unbounded.
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"ratePerSecond"`
	Burst         int           `yaml:"burst"`
}

// JournalConfig selects the database backing the pending transaction journal.
type JournalConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type ObservabilityConfig struct {
	ServiceName   string `yaml:"serviceName"`
	Metrics       bool   `yaml:"metrics"`
	Tracing       bool   `yaml:"tracing"`
	LogRequests   bool   `yaml:"logRequests"`
	MetricsPrefix string `yaml:"metricsPrefix"`
}

type AuthConfig struct {
	Enabled    bool          `yaml:"enabled"`
	HMACSecret string        `yaml:"hmacSecret"`
	Issuer     string        `yaml:"issuer"`
	Audience   string        `yaml:"audience"`
	ScopeClaim string        `yaml:"scopeClaim"`
	ClockSkew  time.Duration `yaml:"clockSkew"`
}

type RateLimitConfig struct {
	ID            string  `yaml:"id"`
	RatePerSecond float64 `yaml:"ratePerSecond"`
	Burst         int     `yaml:"burst"`
}

// PrefsConfig selects the key-value store holding user preferences.
type PrefsConfig struct {
	Backend string `yaml:"backend"`
}

// LogConfig enables file logging with rotation when File is set.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

// Config captures the runtime settings for walletd.
type Config struct {
	ListenAddress string              `yaml:"listen"`
	Network       string              `yaml:"network"`
	NetworksFile  string              `yaml:"networksFile"`
	Test          bool                `yaml:"test"`
	Peer          PeerConfig          `yaml:"peer"`
	PollInterval  time.Duration       `yaml:"pollInterval"`
	DataDir       string              `yaml:"dataDir"`
	Prefs         PrefsConfig         `yaml:"prefs"`
	Journal       JournalConfig       `yaml:"journal"`
	Observability ObservabilityConfig `yaml:"observability"`
	Auth          AuthConfig          `yaml:"auth"`
	RateLimits    []RateLimitConfig   `yaml:"rateLimits"`
	Log           LogConfig           `yaml:"log"`
}

const (
	JournalDriverSQLite   = "sqlite"
	JournalDriverPostgres = "postgres"

	PrefsBackendLevelDB = "leveldb"
	PrefsBackendBolt    = "bolt"
)

// ErrAuthSecretMissing is returned when auth is enabled without a secret.
var ErrAuthSecretMissing = errors.New("auth.hmacSecret is required when auth is enabled")

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		ListenAddress: ":8090",
		Peer:          PeerConfig{Burst: 1},
		PollInterval:  10 * time.Second,
		DataDir:       "./walletd-data",
		Prefs:         PrefsConfig{Backend: PrefsBackendLevelDB},
		Journal:       JournalConfig{Driver: JournalDriverSQLite},
		Observability: ObservabilityConfig{
			ServiceName:   "walletd",
			Metrics:       true,
			LogRequests:   true,
			MetricsPrefix: "walletd",
		},
		Auth: AuthConfig{
			ScopeClaim: "scope",
			ClockSkew:  2 * time.Minute,
		},
		Log: LogConfig{
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}

// Load reads the YAML configuration from disk. An empty path returns the
// validated defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		cfg.applyDefaults()
		if err := cfg.Validate(); err != nil {
			return Config{}, fmt.Errorf("validate config: %w", err)
		}
		return cfg, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg == nil {
		return
	}
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = ":8090"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./walletd-data"
	}
	if cfg.Peer.Burst <= 0 {
		cfg.Peer.Burst = 1
	}
	cfg.Prefs.Backend = strings.ToLower(strings.TrimSpace(cfg.Prefs.Backend))
	if cfg.Prefs.Backend == "" {
		cfg.Prefs.Backend = PrefsBackendLevelDB
	}
	cfg.Journal.Driver = strings.ToLower(strings.TrimSpace(cfg.Journal.Driver))
	if cfg.Journal.Driver == "" {
		cfg.Journal.Driver = JournalDriverSQLite
	}
	if cfg.Journal.Driver == JournalDriverSQLite && strings.TrimSpace(cfg.Journal.DSN) == "" {
		cfg.Journal.DSN = filepath.Join(cfg.DataDir, "journal.db")
	}
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "walletd"
	}
	if cfg.Observability.MetricsPrefix == "" {
		cfg.Observability.MetricsPrefix = "walletd"
	}
	if cfg.Auth.ScopeClaim == "" {
		cfg.Auth.ScopeClaim = "scope"
	}
	if cfg.Auth.ClockSkew <= 0 {
		cfg.Auth.ClockSkew = 2 * time.Minute
	}
}

// PrefsPath is where persisted user preferences live: a LevelDB directory or
// a single bbolt file.
func (cfg Config) PrefsPath() string {
	if cfg.Prefs.Backend == PrefsBackendBolt {
		return filepath.Join(cfg.DataDir, "prefs.db")
	}
	return filepath.Join(cfg.DataDir, "prefs")
}
