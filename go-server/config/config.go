package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	defaultJWTSecret = "dev-only-insecure-secret"
)

// Config holds the application settings.
// Precedence, lowest first: defaults, YAML file named by CONFIG_FILE, environment (.env included).
type Config struct {
	Port        string `yaml:"port"`
	Env         string `yaml:"env"`
	LogLevel    string `yaml:"log_level"`
	ServiceName string `yaml:"service_name"`

	Storage          string `yaml:"storage"`
	PostgresURL      string `yaml:"postgres_url"`
	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     int    `yaml:"postgres_port"`
	PostgresDB       string `yaml:"postgres_db"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresSSLMode  string `yaml:"postgres_sslmode"`

	RedisAddr     string        `yaml:"redis_addr"`
	RedisCacheTTL time.Duration `yaml:"redis_cache_ttl"`

	JWTSecret     string        `yaml:"jwt_secret"`
	SessionCookie string        `yaml:"session_cookie"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	BcryptCost    int           `yaml:"bcrypt_cost"`

	CORSOrigins  []string `yaml:"cors_origins"`
	OTLPEndpoint string   `yaml:"otlp_endpoint"`
	SeedDemo     bool     `yaml:"seed_demo"`
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LoadConfig loads defaults, the optional YAML file and environment variables, then validates.
func LoadConfig() (*Config, error) {
	// .env only fills variables that are not already set
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadYAML(path, config); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(config); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func defaults() *Config {
	return &Config{
		Port:            "8080",
		Env:             "development",
		LogLevel:        "info",
		ServiceName:     "tinylinks",
		Storage:         StorageMemory,
		PostgresPort:    5432,
		PostgresSSLMode: "prefer",
		RedisCacheTTL:   24 * time.Hour,
		JWTSecret:       defaultJWTSecret,
		SessionCookie:   "session",
		SessionTTL:      24 * time.Hour,
		BcryptCost:      10,
		CORSOrigins:     []string{"*"},
	}
}

func loadYAML(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(config *Config) error {
	setString(&config.Port, "PORT")
	setString(&config.Env, "ENV")
	setString(&config.LogLevel, "LOG_LEVEL")
	setString(&config.ServiceName, "SERVICE_NAME")
	setString(&config.Storage, "STORAGE")
	setString(&config.PostgresURL, "POSTGRES_URL")
	setString(&config.PostgresHost, "POSTGRES_HOST")
	setString(&config.PostgresDB, "POSTGRES_DB")
	setString(&config.PostgresUser, "POSTGRES_USER")
	setString(&config.PostgresPassword, "POSTGRES_PASSWORD")
	setString(&config.PostgresSSLMode, "POSTGRES_SSLMODE")
	setString(&config.RedisAddr, "REDIS_ADDR")
	setString(&config.JWTSecret, "JWT_SECRET")
	setString(&config.SessionCookie, "SESSION_COOKIE")
	setString(&config.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		config.CORSOrigins = splitList(v)
	}

	if v := os.Getenv("POSTGRES_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid POSTGRES_PORT: %w", err)
		}
		config.PostgresPort = port
	}

	if v := os.Getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BCRYPT_COST: %w", err)
		}
		config.BcryptCost = cost
	}

	if v := os.Getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SESSION_TTL: %w", err)
		}
		config.SessionTTL = ttl
	}

	if v := os.Getenv("REDIS_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_CACHE_TTL: %w", err)
		}
		config.RedisCacheTTL = ttl
	}

	if v := os.Getenv("SEED_DEMO"); v != "" {
		seed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SEED_DEMO: %w", err)
		}
		config.SeedDemo = seed
	}

	return nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.PostgresURL == "" {
			// If PostgresURL is not set, validate individual parameters
			if c.PostgresHost == "" || c.PostgresUser == "" || c.PostgresDB == "" {
				return fmt.Errorf("either POSTGRES_URL or POSTGRES_HOST, POSTGRES_USER, and POSTGRES_DB must be set")
			}
			c.PostgresURL = buildPostgresURL(c)
		}
	default:
		return fmt.Errorf("unknown STORAGE %q: expected %q or %q", c.Storage, StorageMemory, StoragePostgres)
	}

	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	// bcrypt.MinCost and bcrypt.MaxCost
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}

	return nil
}

// buildPostgresURL constructs PostgreSQL connection URL from individual parameters
func buildPostgresURL(config *Config) string {
	password := ""
	if config.PostgresPassword != "" {
		password = ":" + config.PostgresPassword
	}

	return fmt.Sprintf("postgres://%s%s@%s:%d/%s?sslmode=%s",
		config.PostgresUser,
		password,
		config.PostgresHost,
		config.PostgresPort,
		config.PostgresDB,
		config.PostgresSSLMode,
	)
}

func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
