package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Database drivers understood by store.Open.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	Port    int
	GinMode string

	DatabaseDriver string
	DatabaseURL    string
	DatabaseName   string
	DBTimeout      time.Duration

	// JWTSecret signs access tokens. JWTSecretGenerated is set when no secret was
	// configured and a random one was created for this process.
	JWTSecret          []byte
	JWTSecretGenerated bool
	JWTExpiry          time.Duration

	PasswordScheme string

	LogLevel  string
	LogFormat string
}

// Address is the listen address for the HTTP server.
func (c *Config) Address() string {
	return ":" + strconv.Itoa(c.Port)
}

func Load() *Config {
	_ = godotenv.Load()

	port := 8000
	if raw := os.Getenv("PORT"); raw != "" {
		if p, err := strconv.Atoi(raw); err == nil && p > 0 && p < 65536 {
			port = p
		}
	}

	cfg := &Config{
		Port:    port,
		GinMode: getEnv("GIN_MODE", "debug"),

		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", DriverMongo)),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DatabaseName:   getEnv("DATABASE_NAME", "dropline"),
		DBTimeout:      getDuration("DB_TIMEOUT", 5*time.Second),

		JWTExpiry: getDuration("JWT_EXPIRY", 24*time.Hour),

		PasswordScheme: strings.ToLower(getEnv("PASSWORD_SCHEME", "sha256")),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = []byte(secret)
	} else {
		cfg.JWTSecret = randomSecret()
		cfg.JWTSecretGenerated = true
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func randomSecret() []byte {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("config: read random secret: " + err.Error())
	}
	return []byte(hex.EncodeToString(b))
}
