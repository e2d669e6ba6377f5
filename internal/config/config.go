// Package config loads the registry configuration from the environment.
//
// Variables use the REGISTRY_ prefix and dot-nested keys, e.g.
// REGISTRY_DATABASE.HOST maps to Config.Database.Host. A .env file in the
// working directory is loaded first when present.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	EnvPrefix   = "REGISTRY_"
	ServiceName = "civil-registry"
)

type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis" validate:"required"`
	Auth          AuthConfig           `koanf:"auth" validate:"required"`
	Postal        PostalConfig         `koanf:"postal"`
	Seed          SeedConfig           `koanf:"seed"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig timeouts are in seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
	// RateLimit is requests per second per client IP; zero uses the
	// middleware default.
	RateLimit      float64 `koanf:"rate_limit" validate:"min=0"`
	RateLimitBurst int     `koanf:"rate_limit_burst" validate:"min=0"`
}

type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password" validate:"required"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"required"`
}

// RedisConfig.Address is "host:port".
type RedisConfig struct {
	Address string `koanf:"address" validate:"required"`
}

// AuthConfig holds the two API accounts. Passwords are bcrypt hashes.
type AuthConfig struct {
	AdminUsername     string `koanf:"admin_username" validate:"required"`
	AdminPasswordHash string `koanf:"admin_password_hash" validate:"required"`
	UserUsername      string `koanf:"user_username" validate:"required"`
	UserPasswordHash  string `koanf:"user_password_hash" validate:"required"`
}

// PostalConfig configures the ViaCEP client and its cache. Zero values
// are replaced by DefaultPostalConfig, except CacheTTL: an explicit 0
// keeps cached entries until they are evicted by capacity.
type PostalConfig struct {
	BaseURL        string        `koanf:"base_url" validate:"omitempty,url"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	CacheCapacity  int           `koanf:"cache_capacity" validate:"gte=0"`
	CacheTTL       time.Duration `koanf:"cache_ttl"`
	RedisCache     bool          `koanf:"redis_cache"`
}

type SeedConfig struct {
	Enabled bool `koanf:"enabled"`
}

func DefaultPostalConfig() PostalConfig {
	return PostalConfig{
		BaseURL:        "https://viacep.com.br/ws",
		ConnectTimeout: 5 * time.Second,
		RequestTimeout: 10 * time.Second,
		CacheCapacity:  1024,
		CacheTTL:       24 * time.Hour,
	}
}

func (p *PostalConfig) applyDefaults(ttlSet bool) {
	d := DefaultPostalConfig()
	if p.BaseURL == "" {
		p.BaseURL = d.BaseURL
	}
	p.BaseURL = strings.TrimRight(p.BaseURL, "/")
	if p.ConnectTimeout <= 0 {
		p.ConnectTimeout = d.ConnectTimeout
	}
	if p.RequestTimeout <= 0 {
		p.RequestTimeout = d.RequestTimeout
	}
	if p.CacheCapacity == 0 {
		p.CacheCapacity = d.CacheCapacity
	}
	switch {
	case !ttlSet:
		p.CacheTTL = d.CacheTTL
	case p.CacheTTL < 0:
		p.CacheTTL = 0
	}
}

// LoadConfig reads the configuration and exits the process when it is
// missing or invalid.
func LoadConfig() *Config {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := Load(EnvPrefix)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load config")
	}

	return cfg
}

// Load reads and validates the configuration from variables with the given
// prefix.
func Load(prefix string) (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(prefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, prefix))
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, "load env variables")
	}

	ttlSet := k.Exists("postal.cache_ttl")

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if err := validator.New().Struct(mainConfig); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}

	mainConfig.Postal.applyDefaults(ttlSet)

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid observability config")
	}

	return mainConfig, nil
}
