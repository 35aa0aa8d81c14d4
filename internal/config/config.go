// Package config loads application configuration from command-line flags,
// environment variables and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Media backends.
const (
	MediaSQLite = "sqlite"
	MediaDisk   = "disk"
	MediaS3     = "s3"
)

// Config holds the application configuration.
type Config struct {
	Env       string
	Logger    LoggerConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Media     MediaConfig
	S3        S3Config
	RateLimit RateLimitConfig
}

type LoggerConfig struct {
	Level  string // debug, info, warn, error
	Format string // text or json
}

type ServerConfig struct {
	Port               string
	CORSAllowedOrigins []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	// TrustProxyHeaders keys client IPs on X-Forwarded-For and X-Real-IP.
	// Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool
}

type DatabaseConfig struct {
	Path string
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// MediaConfig selects where uploaded images are stored and how their
// references are rendered.
type MediaConfig struct {
	Backend        string
	Root           string // disk backend directory
	URL            string // public prefix, e.g. /media/
	MaxUploadBytes int
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	Prefix          string // key prefix inside the bucket
}

// RateLimitConfig throttles the unauthenticated account endpoints per client IP.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Load builds the configuration with precedence:
// 1. Command-line flags.
// 2. Environment variables.
// 3. .env file.
// 4. Defaults.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("recipe-api", flag.ContinueOnError)
	envFile := fs.String("env-file", ".env", "Path to .env file")
	port := fs.String("port", "", "HTTP port (default: 8080)")
	dbPath := fs.String("db", "", "SQLite database path (default: recipes.db)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	mediaBackend := fs.String("media-backend", "", "Image storage backend (sqlite, disk, s3)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// godotenv.Load never overrides variables that are already set.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", *envFile, err)
	}

	cfg := &Config{
		Env: getConfigValue("", "ENV", "development"),
		Logger: LoggerConfig{
			Level:  strings.ToLower(getConfigValue(*logLevel, "LOG_LEVEL", "info")),
			Format: strings.ToLower(getConfigValue("", "LOG_FORMAT", "text")),
		},
		Server: ServerConfig{
			Port:               getConfigValue(*port, "PORT", "8080"),
			CORSAllowedOrigins: splitList(getConfigValue("", "CORS_ALLOWED_ORIGINS", "")),
		},
		Database: DatabaseConfig{
			Path: getConfigValue(*dbPath, "DATABASE_PATH", "recipes.db"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
		},
		Media: MediaConfig{
			Backend: strings.ToLower(getConfigValue(*mediaBackend, "MEDIA_BACKEND", MediaSQLite)),
			Root:    getConfigValue("", "MEDIA_ROOT", "media"),
			URL:     getConfigValue("", "MEDIA_URL", "/media/"),
		},
		S3: S3Config{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getConfigValue("", "S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			Prefix:          os.Getenv("S3_PREFIX"),
		},
	}

	var err error
	if cfg.S3.UsePathStyle, err = getBoolConfigValue("S3_USE_PATH_STYLE", false); err != nil {
		return nil, err
	}
	if cfg.Server.TrustProxyHeaders, err = getBoolConfigValue("TRUST_PROXY_HEADERS", false); err != nil {
		return nil, err
	}
	if cfg.Auth.BcryptCost, err = getIntConfigValue("BCRYPT_COST", 12); err != nil {
		return nil, err
	}
	if cfg.Media.MaxUploadBytes, err = getIntConfigValue("MAX_UPLOAD_BYTES", 10<<20); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Burst, err = getIntConfigValue("AUTH_RATE_LIMIT_BURST", 5); err != nil {
		return nil, err
	}
	if cfg.RateLimit.RPS, err = getFloatConfigValue("AUTH_RATE_LIMIT_RPS", 1); err != nil {
		return nil, err
	}

	durations := []struct {
		dst *time.Duration
		key string
		def string
	}{
		{&cfg.Auth.TokenTTL, "TOKEN_TTL", "24h"},
		{&cfg.Server.ReadTimeout, "SERVER_READ_TIMEOUT", "30s"},
		{&cfg.Server.WriteTimeout, "SERVER_WRITE_TIMEOUT", "30s"},
		{&cfg.Server.IdleTimeout, "SERVER_IDLE_TIMEOUT", "120s"},
	}
	for _, d := range durations {
		raw := getConfigValue("", d.key, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.key, raw, err)
		}
		*d.dst = parsed
	}

	if !strings.HasSuffix(cfg.Media.URL, "/") {
		cfg.Media.URL += "/"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required values are present and in range.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters for HMAC-SHA256 security")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 14 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.Auth.BcryptCost)
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}

	switch c.Logger.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}
	switch c.Logger.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logger.Format)
	}

	switch c.Media.Backend {
	case MediaSQLite:
	case MediaDisk:
		if c.Media.Root == "" {
			return errors.New("MEDIA_ROOT is required for the disk media backend")
		}
	case MediaS3:
		if c.S3.Bucket == "" {
			return errors.New("S3_BUCKET is required for the s3 media backend")
		}
	default:
		return fmt.Errorf("invalid media backend: %s (must be sqlite, disk, or s3)", c.Media.Backend)
	}
	if c.Media.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}

	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("AUTH_RATE_LIMIT_RPS and AUTH_RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// getConfigValue returns the flag value if set, then the environment
// variable, then the default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

func getBoolConfigValue(envKey string, defaultValue bool) (bool, error) {
	raw := os.Getenv(envKey)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", envKey, raw, err)
	}
	return v, nil
}

func getIntConfigValue(envKey string, defaultValue int) (int, error) {
	raw := os.Getenv(envKey)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, raw, err)
	}
	return v, nil
}

func getFloatConfigValue(envKey string, defaultValue float64) (float64, error) {
	raw := os.Getenv(envKey)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, raw, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
