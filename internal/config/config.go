package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type StoreKind string

const (
	StoreFile     StoreKind = "file"
	StoreSQLite   StoreKind = "sqlite"
	StorePostgres StoreKind = "postgres"
)

// Config is shared by every binary. Zero Seed means seed from the clock.
type Config struct {
	DataDir         string
	Store           StoreKind
	DatabaseURL     string
	BalanceFile     string
	Seed            int64
	LogLevel        slog.Level
	ArchetypePolicy string
	TickEvery       time.Duration
	SaveEvery       time.Duration
}

// APIConfig adds the listen address. An empty Token leaves the API open,
// which is fine on loopback.
type APIConfig struct {
	Config
	Addr  string
	Token string
}

type CLIConfig struct {
	Config
}

// WorkerConfig drives the headless host. RunOnce loads the save, credits
// the time away, saves and exits.
type WorkerConfig struct {
	Config
	RunOnce bool
}

func LoadAPIFromEnv() (APIConfig, error) {
	base, err := loadBase()
	if err != nil {
		return APIConfig{Config: base}, err
	}
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("OURO_API_ADDR", ":8080")
	}
	return APIConfig{Config: base, Addr: addr, Token: strings.TrimSpace(os.Getenv("OURO_API_TOKEN"))}, nil
}

func LoadCLIFromEnv() (CLIConfig, error) {
	base, err := loadBase()
	return CLIConfig{Config: base}, err
}

func LoadWorkerFromEnv() (WorkerConfig, error) {
	base, err := loadBase()
	return WorkerConfig{Config: base, RunOnce: envBoolDefault("OURO_WORKER_RUN_ONCE", false)}, err
}

func loadBase() (Config, error) {
	hz := envIntDefault("OURO_TICK_HZ", 30)
	if hz <= 0 {
		hz = 30
	}
	cfg := Config{
		DataDir:         envDefault("OURO_DATA_DIR", defaultDataDir()),
		Store:           StoreKind(strings.ToLower(envDefault("OURO_STORE", string(StoreFile)))),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		BalanceFile:     strings.TrimSpace(os.Getenv("OURO_BALANCE_FILE")),
		Seed:            int64(envIntDefault("OURO_SEED", 0)),
		LogLevel:        envLevelDefault("OURO_LOG_LEVEL", slog.LevelInfo),
		ArchetypePolicy: strings.ToLower(envDefault("OURO_ARCHETYPE_POLICY", "offer")),
		TickEvery:       time.Second / time.Duration(hz),
		SaveEvery:       envDurationDefault("OURO_SAVE_EVERY", 30*time.Second),
	}
	switch cfg.Store {
	case StoreFile, StoreSQLite:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return cfg, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return cfg, fmt.Errorf("unknown OURO_STORE %q", cfg.Store)
	}
	if cfg.ArchetypePolicy != "offer" && cfg.ArchetypePolicy != "select" {
		return cfg, fmt.Errorf("OURO_ARCHETYPE_POLICY must be offer or select")
	}
	if cfg.SaveEvery <= 0 {
		cfg.SaveEvery = 30 * time.Second
	}
	return cfg, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ouro"
	}
	return filepath.Join(home, ".ouro")
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envLevelDefault(key string, fallback slog.Level) slog.Level {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return fallback
	}
	return lvl
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
