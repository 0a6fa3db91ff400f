package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

// StoreKind selects the street repository backend.
type StoreKind string

const (
	StoreFirestore StoreKind = "firestore"
	StoreSQLite    StoreKind = "sqlite"
	StorePostgres  StoreKind = "postgres"
	StoreJSON      StoreKind = "json"
)

var (
	ErrMissingDatabaseURL  = errors.New("DATABASE_URL is required for the postgres store")
	ErrMissingFirebaseCred = errors.New("FIREBASE_CREDENTIALS is required for the firestore store")
)

type Config struct {
	Port  string
	Store StoreKind

	DBPath         string
	DatabaseURL    string
	LocalStorePath string

	// Base64-encoded service account JSON.
	FirebaseCredentials string
	FirebaseProjectID   string
	StreetsCollection   string

	// Empty means in-process change notifications only.
	RedisURL string

	WalkOrderPath string
	SeedPath      string

	Areas     []string
	Collation language.Tag

	DigestSchedule string
	RateLimitRPS   float64

	LogLevel string
	LogFile  string
}

// Get returns the environment value for key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// LoadEnv reads a .env file when present. A missing file is not an error.
func LoadEnv() bool {
	return godotenv.Load() == nil
}

// Load builds the configuration from environment variables.
//
// Environment variables:
//   - PORT (default 8080)
//   - STORE: firestore, sqlite, postgres or json (default sqlite)
//   - DB_PATH (default data/app.db), DATABASE_URL
//   - LOCAL_STORE_PATH: JSON fallback file (default data/streets.json)
//   - FIREBASE_CREDENTIALS, FIREBASE_PROJECT_ID, STREETS_COLLECTION (default streets)
//   - REDIS_URL
//   - WALK_ORDER_PATH (default data/walk_order.yaml), SEED_PATH (default data/seeds/streets.json)
//   - AREAS: comma separated (default 14,45)
//   - COLLATION_LANG (default de)
//   - DIGEST_SCHEDULE: cron spec (default "0 5 * * *")
//   - RATE_LIMIT_RPS (default 20)
//   - LOG_LEVEL (default info), LOG_FILE
func Load() (Config, error) {
	cfg := Config{
		Port:                Get("PORT", "8080"),
		Store:               StoreKind(strings.ToLower(Get("STORE", string(StoreSQLite)))),
		DBPath:              Get("DB_PATH", "data/app.db"),
		DatabaseURL:         Get("DATABASE_URL", ""),
		LocalStorePath:      Get("LOCAL_STORE_PATH", "data/streets.json"),
		FirebaseCredentials: Get("FIREBASE_CREDENTIALS", ""),
		FirebaseProjectID:   Get("FIREBASE_PROJECT_ID", ""),
		StreetsCollection:   Get("STREETS_COLLECTION", "streets"),
		RedisURL:            Get("REDIS_URL", ""),
		WalkOrderPath:       Get("WALK_ORDER_PATH", "data/walk_order.yaml"),
		SeedPath:            Get("SEED_PATH", "data/seeds/streets.json"),
		Areas:               splitList(Get("AREAS", "14,45")),
		DigestSchedule:      Get("DIGEST_SCHEDULE", "0 5 * * *"),
		LogLevel:            Get("LOG_LEVEL", "info"),
		LogFile:             Get("LOG_FILE", ""),
	}

	tag, err := language.Parse(Get("COLLATION_LANG", "de"))
	if err != nil {
		return Config{}, fmt.Errorf("load config: COLLATION_LANG: %w", err)
	}
	cfg.Collation = tag

	rps, err := strconv.ParseFloat(Get("RATE_LIMIT_RPS", "20"), 64)
	if err != nil || rps <= 0 {
		return Config{}, fmt.Errorf("load config: RATE_LIMIT_RPS must be a positive number")
	}
	cfg.RateLimitRPS = rps

	return cfg, nil
}

// Validate checks that the selected store has what it needs.
func (c Config) Validate() error {
	switch c.Store {
	case StoreSQLite:
		if c.DBPath == "" {
			return errors.New("DB_PATH is required for the sqlite store")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return ErrMissingDatabaseURL
		}
	case StoreFirestore:
		if c.FirebaseCredentials == "" {
			return ErrMissingFirebaseCred
		}
	case StoreJSON:
		if c.LocalStorePath == "" {
			return errors.New("LOCAL_STORE_PATH is required for the json store")
		}
	default:
		return fmt.Errorf("unknown STORE %q", c.Store)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
