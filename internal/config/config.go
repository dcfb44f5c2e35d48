package config

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dataharvester/dataharvester/backend/go-services/pkg/logger"
)

const defaultMongoURI = "mongodb://localhost:27017/"

// maxTTL is the largest expireAfterSeconds the server accepts (int32).
const maxTTL = math.MaxInt32 * time.Second

// Config holds application configuration
type Config struct {
	LogLevel  string
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Schema    SchemaConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Keycloak  KeycloakConfig
	JWT       JWTConfig
	Admin     AdminConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type SchemaConfig struct {
	Projects                 []string
	RawTranscriptsTTLEnabled bool
	RawTranscriptsTTL        time.Duration
}

// EffectiveTTL returns the retention to apply, zero when disabled.
func (s SchemaConfig) EffectiveTTL() time.Duration {
	if !s.RawTranscriptsTTLEnabled {
		return 0
	}
	return s.RawTranscriptsTTL
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port, or "" when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

type KeycloakConfig struct {
	URL      string
	Realm    string
	ClientID string
}

type JWTConfig struct {
	Secret   string
	TokenTTL time.Duration
}

type AdminConfig struct {
	AllowAnonymous bool
}

// flagBindings maps environment keys to the CLI flags that override them.
var flagBindings = map[string]string{
	"MONGODB_URI":                        "mongo-uri",
	"MONGODB_DATABASE":                   "database",
	"MONGODB_TIMEOUT":                    "timeout",
	"LOG_LEVEL":                          "log-level",
	"SCHEMA_RAW_TRANSCRIPTS_TTL_ENABLED": "raw-transcripts-ttl",
	"SERVER_PORT":                        "port",
}

// LoadConfig loads configuration from the .env file, the environment and,
// when fs is non-nil, explicitly set command-line flags (highest precedence).
func LoadConfig(fs *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SERVER_PORT", "5020")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("MONGODB_DATABASE", "dataharvester")
	v.SetDefault("MONGODB_PORT", "27017")
	v.SetDefault("MONGODB_AUTH_SOURCE", "admin")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("SCHEMA_RAW_TRANSCRIPTS_TTL_ENABLED", false)
	v.SetDefault("SCHEMA_RAW_TRANSCRIPTS_TTL_SECONDS", 7776000)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("RATE_LIMIT_RPS", 5.0)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("JWT_TOKEN_TTL_MINUTES", 60)

	if fs != nil {
		for key, flag := range flagBindings {
			if f := fs.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", flag, err)
				}
			}
		}
	}

	ttlSeconds := v.GetInt64("SCHEMA_RAW_TRANSCRIPTS_TTL_SECONDS")
	if ttlSeconds > math.MaxInt32 {
		return nil, fmt.Errorf("config: SCHEMA_RAW_TRANSCRIPTS_TTL_SECONDS must not exceed %d", math.MaxInt32)
	}

	cfg := &Config{
		LogLevel: v.GetString("LOG_LEVEL"),
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      mongoURI(v),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Schema: SchemaConfig{
			Projects:                 splitList(v.GetString("SCHEMA_PROJECTS")),
			RawTranscriptsTTLEnabled: v.GetBool("SCHEMA_RAW_TRANSCRIPTS_TTL_ENABLED"),
			RawTranscriptsTTL:        time.Duration(ttlSeconds) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Keycloak: KeycloakConfig{
			URL:      v.GetString("KEYCLOAK_URL"),
			Realm:    v.GetString("KEYCLOAK_REALM"),
			ClientID: v.GetString("KEYCLOAK_CLIENT_ID"),
		},
		JWT: JWTConfig{
			Secret:   v.GetString("JWT_SECRET"),
			TokenTTL: time.Duration(v.GetInt("JWT_TOKEN_TTL_MINUTES")) * time.Minute,
		},
		Admin: AdminConfig{
			AllowAnonymous: v.GetBool("ADMIN_ALLOW_ANONYMOUS"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.JWT.Secret != "" && len(cfg.JWT.Secret) < 32 {
		logger.Warnf("JWT_SECRET is shorter than 32 bytes; use a longer value in production")
	}
	return cfg, nil
}

// Validate checks the values the schema initializer cannot run without.
func (c *Config) Validate() error {
	if c.MongoDB.URI == "" {
		return fmt.Errorf("config: MONGODB_URI is required")
	}
	if strings.TrimSpace(c.MongoDB.Database) == "" {
		return fmt.Errorf("config: MONGODB_DATABASE is required")
	}
	if c.MongoDB.Timeout <= 0 {
		return fmt.Errorf("config: MONGODB_TIMEOUT must be positive")
	}
	if c.Schema.RawTranscriptsTTLEnabled && c.Schema.RawTranscriptsTTL <= 0 {
		return fmt.Errorf("config: SCHEMA_RAW_TRANSCRIPTS_TTL_SECONDS must be positive when the TTL index is enabled")
	}
	if c.Schema.RawTranscriptsTTL > maxTTL {
		return fmt.Errorf("config: SCHEMA_RAW_TRANSCRIPTS_TTL_SECONDS must not exceed %d", math.MaxInt32)
	}
	return nil
}

// mongoURI prefers MONGODB_URI; otherwise it composes one from the
// MONGODB_HOST/PORT/USER/PASSWORD parts, falling back to localhost.
func mongoURI(v *viper.Viper) string {
	if uri := v.GetString("MONGODB_URI"); uri != "" {
		return uri
	}
	host := v.GetString("MONGODB_HOST")
	if host == "" {
		return defaultMongoURI
	}
	u := url.URL{Scheme: "mongodb", Host: host + ":" + v.GetString("MONGODB_PORT"), Path: "/"}
	if user := v.GetString("MONGODB_USER"); user != "" {
		u.User = url.UserPassword(user, v.GetString("MONGODB_PASSWORD"))
		q := url.Values{}
		q.Set("authSource", v.GetString("MONGODB_AUTH_SOURCE"))
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
