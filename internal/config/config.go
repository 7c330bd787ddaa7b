package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Addr        string
	DBPath      string // GORM store: assets, PIRs, associations, assessments
	FeedDBPath  string // raw SQLite threat feed store
	RedisAddr   string // empty disables the assessment cache
	RedisDB     int
	CacheTTL    time.Duration
	Workers     int // recompute worker pool size
	Debug       bool
	EnginePath  string // optional YAML engine tunables
	BootstrapOp string // optional admin username to provision on first start
}

// EngineConfig carries the tunable knobs of the matching and scoring engine.
// Everything has a working default; the file is optional.
type EngineConfig struct {
	Thresholds struct {
		Critical float64 `yaml:"critical"`
		High     float64 `yaml:"high"`
		Medium   float64 `yaml:"medium"`
	} `yaml:"thresholds"`
	FuzzyThreshold float64           `yaml:"fuzzy_threshold"`
	ProductAliases map[string]string `yaml:"product_aliases"`
}

// Load parses command line flags and environment variables to populate Config.
// Flags take precedence over environment variables.
func Load() *Config {
	cfg := &Config{}

	// Defaults and Environment Variables
	cfg.Addr = getEnv("TWATCH_ADDR", ":8080")
	cfg.DBPath = getEnv("TWATCH_DB", getDefaultDBPath("threatwatch.db"))
	cfg.FeedDBPath = getEnv("TWATCH_FEED_DB", getDefaultDBPath("feeds.db"))
	cfg.RedisAddr = getEnv("TWATCH_REDIS", "")
	cfg.RedisDB = getEnvInt("TWATCH_REDIS_DB", 0)
	cfg.CacheTTL = time.Duration(getEnvInt("TWATCH_CACHE_TTL_SECONDS", 900)) * time.Second
	cfg.Workers = getEnvInt("TWATCH_WORKERS", 4)
	cfg.Debug = getEnvBool("TWATCH_DEBUG", false)
	cfg.EnginePath = getEnv("TWATCH_ENGINE_CONFIG", "")

	// Command Line Flags (Override Env)
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP server address")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to SQLite database")
	flag.StringVar(&cfg.FeedDBPath, "feed-db", cfg.FeedDBPath, "Path to threat feed SQLite database")
	flag.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Redis address for the assessment cache (empty to disable)")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "Recompute worker pool size")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable verbose debug logging")
	flag.StringVar(&cfg.EnginePath, "engine-config", cfg.EnginePath, "Path to YAML engine tunables (optional)")
	flag.StringVar(&cfg.BootstrapOp, "bootstrap-admin", "", "Provision an admin account with this username on startup")

	flag.Parse()

	return cfg
}

// LoadEngineConfig reads the optional engine tunables file. An empty path
// returns defaults.
func LoadEngineConfig(path string) (*EngineConfig, error) {
	cfg := &EngineConfig{}
	cfg.Thresholds.Critical = 8.0
	cfg.Thresholds.High = 6.0
	cfg.Thresholds.Medium = 4.0
	cfg.FuzzyThreshold = 0.8

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read engine config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse engine config: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getDefaultDBPath returns a database path under ~/.threatwatch, creating
// the directory if needed.
func getDefaultDBPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: Could not get user home directory, using current dir: %v", err)
		return name
	}

	dir := filepath.Join(home, ".threatwatch")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("Warning: Could not create .threatwatch directory, using current dir: %v", err)
		return name
	}

	return filepath.Join(dir, name)
}
