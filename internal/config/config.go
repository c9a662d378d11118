package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	AppPort     string `yaml:"app_port" env:"APP_PORT" env-default:"8080"`
	AppVersion  string `yaml:"app_version" env:"APP_VERSION" env-default:"dev"`
	StoreDriver string `yaml:"store_driver" env:"STORE_DRIVER" env-default:"postgres"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`

	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	JWTTTL    time.Duration `yaml:"jwt_ttl" env:"JWT_TTL" env-default:"24h"`

	// Redis is optional; rate limiting is off without it
	RedisAddr     string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" env:"REDIS_DB" env-default:"0"`
	RateLimit     int           `yaml:"api_rate_limit" env:"API_RATE_LIMIT" env-default:"120"`
	RateWindow    time.Duration `yaml:"api_rate_window" env:"API_RATE_WINDOW" env-default:"1m"`

	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-separator:"," env-default:"*"`

	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogJSON  bool   `yaml:"log_json" env:"LOG_JSON" env-default:"false"`

	TaskCodePrefix string `yaml:"task_code_prefix" env:"TASK_CODE_PREFIX" env-default:"TB"`
}

// Load reads .env (if present), then the optional yaml file at path, then
// the environment. Environment values win over the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read env: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read env: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is not set")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.RateLimit <= 0 || c.RateWindow <= 0 {
		return errors.New("API_RATE_LIMIT and API_RATE_WINDOW must be positive")
	}
	c.TaskCodePrefix = strings.ToUpper(strings.TrimSpace(c.TaskCodePrefix))
	if c.TaskCodePrefix == "" {
		c.TaskCodePrefix = "TB"
	}
	return nil
}

// RedisEnabled reports whether a redis address was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}
