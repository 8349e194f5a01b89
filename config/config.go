package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config application-wide configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
	Journal   JournalConfig   `mapstructure:"journal"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	BodyLimitKB  int64         `mapstructure:"body_limit_kb"`
	CORS         CORSConfig    `mapstructure:"cors"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// CORSConfig cross-origin settings
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL settings
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// DSN builds the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis settings. An empty Addr disables Redis entirely.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT and bootstrap account settings
type AuthConfig struct {
	JWTSecret               string         `mapstructure:"jwt_secret"`
	AccessTokenTTL          time.Duration  `mapstructure:"access_token_ttl"`
	RefreshTokenTTLDefault  time.Duration  `mapstructure:"refresh_token_ttl_default"`
	RefreshTokenTTLRemember time.Duration  `mapstructure:"refresh_token_ttl_remember_me"`
	Cookie                  CookieConfig   `mapstructure:"cookie"`
	BootstrapAdmin          BootstrapAdmin `mapstructure:"bootstrap_admin"`
}

// CookieConfig refresh token cookie settings
type CookieConfig struct {
	Secure   bool   `mapstructure:"secure"`
	SameSite string `mapstructure:"same_site"` // Strict, Lax or None
	Domain   string `mapstructure:"domain"`
}

// BootstrapAdmin superuser created at start-up when Username and Password are both set
type BootstrapAdmin struct {
	Username string `mapstructure:"username"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// Enabled reports whether a bootstrap superuser was configured
func (b BootstrapAdmin) Enabled() bool {
	return b.Username != "" && b.Password != ""
}

// LogConfig logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Emotion levels the entries table accepts: CHECK (emotion_level BETWEEN 1 AND 10)
// in migration 000001_init_schema. The configured range must lie inside it.
const (
	EmotionLevelFloor   = 1
	EmotionLevelCeiling = 10
)

// JournalConfig journaling policy.
//
// EmotionMin/EmotionMax is the single authoritative emotion-level bound used by
// every entry write path.
type JournalConfig struct {
	EmotionMin      int `mapstructure:"emotion_min"`
	EmotionMax      int `mapstructure:"emotion_max"`
	HistoryPageSize int `mapstructure:"history_page_size"`
}

// RateLimitConfig per-IP request limit on unauthenticated auth routes
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// Load reads configuration from file and environment.
// Precedence: environment > config file > defaults
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── defaults ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.body_limit_kb", 256)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "downward")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_ttl_default", "24h")
	v.SetDefault("auth.refresh_token_ttl_remember_me", "168h")
	v.SetDefault("auth.cookie.secure", false)
	v.SetDefault("auth.cookie.same_site", "Lax")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("journal.emotion_min", 1)
	v.SetDefault("journal.emotion_max", 5)
	v.SetDefault("journal.history_page_size", 20)

	v.SetDefault("rate_limit.requests", 10)
	v.SetDefault("rate_limit.window", "1m")

	// ── config file ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── environment ──
	v.SetEnvPrefix("DOWNWARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings the service cannot run without
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("invalid config: auth.jwt_secret must not be empty")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("invalid config: auth.jwt_secret must be at least 16 characters")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port must be within 1-65535")
	}
	if c.Journal.EmotionMin < EmotionLevelFloor || c.Journal.EmotionMax < c.Journal.EmotionMin {
		return fmt.Errorf("invalid config: journal emotion range [%d,%d] is empty",
			c.Journal.EmotionMin, c.Journal.EmotionMax)
	}
	if c.Journal.EmotionMax > EmotionLevelCeiling {
		return fmt.Errorf("invalid config: journal.emotion_max must not exceed %d", EmotionLevelCeiling)
	}
	return nil
}
