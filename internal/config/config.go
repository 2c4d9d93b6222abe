package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr string

	// Env selects dev conveniences like seeding. "dev" | "prod".
	Env string

	// Storage selects the store set: "memory" | "sqlite" | "postgres".
	Storage     string
	DBPath      string // sqlite file, e.g. "./data/faregate.db"
	DatabaseURL string // postgres DSN, required when Storage == "postgres"

	// Fare table
	FaresPath        string // JSON rules file; empty = built-in dev fares
	DefaultFareCents int64  // charged when no rule matches a station pair

	// Gate cache
	RedisAddr        string // empty = in-process cache
	RedisPassword    string
	RedisDB          int
	GateCacheTTLSecs int

	// Tracing
	TracingEnabled bool
	JaegerEndpoint string

	// CORS origins for the console, comma-separated.
	CORSOrigins []string

	LogLevel string
}

func FromEnv() Config {
	env := strings.ToLower(getenvDefault("FAREGATE_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	storage := strings.ToLower(getenvDefault("FAREGATE_STORAGE", "sqlite"))
	switch storage {
	case "memory", "sqlite", "postgres":
	default:
		storage = "sqlite"
	}

	return Config{
		HTTPAddr: getenvDefault("FAREGATE_HTTP_ADDR", ":8080"),
		Env:      env,

		Storage:     storage,
		DBPath:      getenvDefault("FAREGATE_DB_PATH", "./data/faregate.db"),
		DatabaseURL: os.Getenv("FAREGATE_DATABASE_URL"),

		FaresPath:        os.Getenv("FAREGATE_FARES_PATH"),
		DefaultFareCents: int64(getenvInt("FAREGATE_DEFAULT_FARE_CENTS", 200)),

		RedisAddr:        os.Getenv("FAREGATE_REDIS_ADDR"),
		RedisPassword:    os.Getenv("FAREGATE_REDIS_PASSWORD"),
		RedisDB:          getenvInt("FAREGATE_REDIS_DB", 0),
		GateCacheTTLSecs: getenvInt("FAREGATE_GATE_CACHE_TTL_SECONDS", 30),

		TracingEnabled: boolEnv("FAREGATE_TRACING_ENABLED"),
		JaegerEndpoint: getenvDefault("FAREGATE_JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),

		CORSOrigins: splitCSV(os.Getenv("FAREGATE_CORS_ORIGINS")),

		LogLevel: getenvDefault("FAREGATE_LOG_LEVEL", "info"),
	}
}

func boolEnv(key string) bool {
	v := os.Getenv(key)
	return strings.EqualFold(v, "true") || v == "1"
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func splitCSV(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
