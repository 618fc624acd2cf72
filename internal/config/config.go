package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported HMAC signing algorithms. Exactly one is used for the process lifetime.
var supportedAlgorithms = map[string]struct{}{
	"HS256": {},
	"HS384": {},
	"HS512": {},
}

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level       string
	Development bool
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	AccessSecret      []byte
	RefreshSecret     []byte
	AccessTTLMinutes  int
	RefreshTTLMinutes int
	Algorithm         string
	BcryptCost        int
	MaxFailedLogins   int
	LockoutMinutes    int
	SeedAdminUsername string
	SeedAdminPassword string
	SeedAdminEmail    string
	SeedAdminFullName string
	SeedAdminPhone    string
}

// RateLimitConfig controls per-client limits on credential endpoints.
type RateLimitConfig struct {
	AuthRPM int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "flight-auth"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8081"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
		Auth: AuthConfig{
			AccessSecret:      []byte(os.Getenv("ACCESS_SECRET")),
			RefreshSecret:     []byte(os.Getenv("REFRESH_SECRET")),
			AccessTTLMinutes:  getEnvAsInt("ACCESS_TTL_MINUTES", 30),
			RefreshTTLMinutes: getEnvAsInt("REFRESH_TTL_MINUTES", 60*24*7),
			Algorithm:         strings.ToUpper(getEnv("JWT_ALGORITHM", "HS256")),
			BcryptCost:        getEnvAsInt("AUTH_BCRYPT_COST", 12),
			MaxFailedLogins:   getEnvAsInt("AUTH_MAX_FAILED_LOGINS", 5),
			LockoutMinutes:    getEnvAsInt("AUTH_LOCKOUT_MINUTES", 15),
			SeedAdminUsername: os.Getenv("SEED_SUPERADMIN_USERNAME"),
			SeedAdminPassword: os.Getenv("SEED_SUPERADMIN_PASSWORD"),
			SeedAdminEmail:    os.Getenv("SEED_SUPERADMIN_EMAIL"),
			SeedAdminFullName: getEnv("SEED_SUPERADMIN_FULL_NAME", "Super Admin"),
			SeedAdminPhone:    os.Getenv("SEED_SUPERADMIN_PHONE"),
		},
		RateLimit: RateLimitConfig{
			AuthRPM: getEnvAsInt("RATE_LIMIT_AUTH_RPM", 20),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants the auth core relies on.
func (c *Config) Validate() error {
	var errs []error
	if c.App.Port == "" {
		errs = append(errs, errors.New("APP_PORT cannot be empty"))
	}
	if err := c.Auth.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Validate checks the token and hashing parameters.
func (a AuthConfig) Validate() error {
	var errs []error
	if len(a.AccessSecret) == 0 {
		errs = append(errs, errors.New("ACCESS_SECRET is required"))
	}
	if len(a.RefreshSecret) == 0 {
		errs = append(errs, errors.New("REFRESH_SECRET is required"))
	}
	if len(a.AccessSecret) > 0 && string(a.AccessSecret) == string(a.RefreshSecret) {
		errs = append(errs, errors.New("ACCESS_SECRET and REFRESH_SECRET must differ"))
	}
	if a.AccessTTLMinutes <= 0 {
		errs = append(errs, errors.New("ACCESS_TTL_MINUTES must be positive"))
	}
	if a.RefreshTTLMinutes <= 0 {
		errs = append(errs, errors.New("REFRESH_TTL_MINUTES must be positive"))
	}
	if _, ok := supportedAlgorithms[a.Algorithm]; !ok {
		errs = append(errs, fmt.Errorf("JWT_ALGORITHM %q is not supported", a.Algorithm))
	}
	if a.MaxFailedLogins < 0 {
		errs = append(errs, errors.New("AUTH_MAX_FAILED_LOGINS cannot be negative"))
	}
	if a.MaxFailedLogins > 0 && a.LockoutMinutes <= 0 {
		errs = append(errs, errors.New("AUTH_LOCKOUT_MINUTES must be positive when AUTH_MAX_FAILED_LOGINS is set"))
	}
	if a.SeedAdminUsername != "" && a.SeedAdminPassword == "" {
		errs = append(errs, errors.New("SEED_SUPERADMIN_PASSWORD is required when SEED_SUPERADMIN_USERNAME is set"))
	}
	return errors.Join(errs...)
}

// AccessTTL returns the access token lifetime.
func (a AuthConfig) AccessTTL() time.Duration {
	return time.Duration(a.AccessTTLMinutes) * time.Minute
}

// RefreshTTL returns the refresh token lifetime.
func (a AuthConfig) RefreshTTL() time.Duration {
	return time.Duration(a.RefreshTTLMinutes) * time.Minute
}

// LockoutWindow returns how long failed login attempts are remembered.
func (a AuthConfig) LockoutWindow() time.Duration {
	return time.Duration(a.LockoutMinutes) * time.Minute
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
