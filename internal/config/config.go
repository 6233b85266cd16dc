package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"     validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"   validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"       validate:"required"`
	CORS      CORSConfig      `mapstructure:"cors"       validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port        int    `mapstructure:"port"        validate:"required,gt=0,lt=65536"`
	LogLevel    string `mapstructure:"log_level"   validate:"required,oneof=debug info warn error"`
	Environment string `mapstructure:"environment" validate:"required,oneof=development test production"`
	// LogFile, when set, receives a rotated copy of every log line.
	LogFile string `mapstructure:"log_file"`
	// StaticDir is served behind the access gate for page routes when set.
	StaticDir string `mapstructure:"static_dir"`
	// MetricsPort serves /metrics on a separate listener. Zero disables it.
	MetricsPort int `mapstructure:"metrics_port" validate:"gte=0,lt=65536"`
	// TrustedProxies lists addresses or CIDR ranges whose X-Forwarded-For and
	// X-Real-IP headers identify the client. Empty means the socket peer is
	// always the client.
	TrustedProxies []string `mapstructure:"trusted_proxies" validate:"dive,cidr|ip"`
}

// IsProduction reports whether cookies must carry the Secure attribute and
// error details must be withheld from responses.
func (c ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url"            validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret  string `mapstructure:"jwt_secret"  validate:"required,min=32"`
	BcryptCost int    `mapstructure:"bcrypt_cost" validate:"gte=4,lte=31"`
	// StoreTimeout bounds credential store lookups made while resolving a session.
	StoreTimeout time.Duration `mapstructure:"store_timeout" validate:"gt=0"`
	// APIMode selects how the gate treats /api routes: "enforce" requires a
	// valid session outside the always-allowed set, "passthrough" forwards
	// every API request and leaves authorization to handlers.
	APIMode string `mapstructure:"api_mode" validate:"required,oneof=enforce passthrough"`
}

// CORSConfig controls the Access-Control-* headers stamped by the gate.
type CORSConfig struct {
	DefaultOrigin  string   `mapstructure:"default_origin"  validate:"required,url"`
	AllowedOrigins []string `mapstructure:"allowed_origins" validate:"dive,url"`
}

// RateLimitConfig configures the redis-backed sign-in limiter. The limiter
// is disabled when RedisAddr is empty.
type RateLimitConfig struct {
	RedisAddr       string `mapstructure:"redis_addr"`
	RedisPassword   string `mapstructure:"redis_password"`
	SignInPerMinute int    `mapstructure:"signin_per_minute" validate:"gte=1"`
}

// Enabled reports whether sign-in attempts should be rate limited.
func (c RateLimitConfig) Enabled() bool {
	return c.RedisAddr != ""
}
