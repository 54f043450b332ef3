package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Session  SessionConfig
	Issuance IssuanceConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Reports  ReportsConfig
	LogLevel string
	Location *time.Location
}

type ServerConfig struct {
	Port         string
	PublicURL    string // base of the QR-encoded registration link
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Driver       string // sqlite or postgres
	Path         string
	PostgresDSN  string
	MaxOpenConns int
	SeedUsername string
	SeedPassword string
}

type SessionConfig struct {
	Secret     string
	TTL        time.Duration
	CookieName string
}

type IssuanceConfig struct {
	RequireFields bool
	Lock          string // local, redis or none
}

type RedisConfig struct {
	Addr    string
	LockTTL time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	Enabled bool
}

type ReportsConfig struct {
	Dir string
}

func Load() *Config {
	port := getEnv("PORT", "5000")

	redisAddr := getEnv("REDIS_ADDR", "")
	lock := strings.ToLower(getEnv("ISSUANCE_LOCK", ""))
	if lock == "" {
		lock = "local"
		if redisAddr != "" {
			lock = "redis"
		}
	}

	return &Config{
		Server: ServerConfig{
			Port:         port,
			PublicURL:    strings.TrimRight(getEnv("PUBLIC_URL", getEnv("RENDER_EXTERNAL_URL", "http://localhost:"+port)), "/"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			Path:         getEnv("DB_PATH", "database.db"),
			PostgresDSN:  getEnv("POSTGRES_DSN", ""),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 1),
			SeedUsername: getEnv("SEED_USERNAME", "secretaria"),
			SeedPassword: getEnv("SEED_PASSWORD", "1234"),
		},
		Session: SessionConfig{
			Secret:     getEnv("SESSION_SECRET", "clave_secreta"),
			TTL:        time.Duration(getEnvInt("SESSION_TTL_HOURS", 12)) * time.Hour,
			CookieName: "session",
		},
		Issuance: IssuanceConfig{
			RequireFields: getEnvBool("REQUIRE_FIELDS", false),
			Lock:          lock,
		},
		Redis: RedisConfig{
			Addr:    redisAddr,
			LockTTL: time.Duration(getEnvInt("LOCK_TTL_SECONDS", 5)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:   getEnv("KAFKA_TOPIC", "turnos.events"),
			Enabled: getEnvBool("KAFKA_ENABLED", false),
		},
		Reports: ReportsConfig{
			Dir: getEnv("REPORTS_DIR", "reports"),
		},
		LogLevel: getEnv("LOG_LEVEL", "INFO"),
		Location: getEnvLocation("TIMEZONE"),
	}
}

// Addr is the listen address for http.Server.
func (s ServerConfig) Addr() string {
	if strings.HasPrefix(s.Port, ":") {
		return s.Port
	}
	return ":" + s.Port
}

// RegistrationURL is the link encoded in the dashboard QR.
func (s ServerConfig) RegistrationURL() string {
	return s.PublicURL + "/registrar"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvLocation(key string) *time.Location {
	if value := os.Getenv(key); value != "" {
		if loc, err := time.LoadLocation(value); err == nil {
			return loc
		}
	}
	return time.Local
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
