package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultProfile is used when neither the -profiles flag nor APP_PROFILE is set.
const DefaultProfile = "local"

// Config holds all configuration for the application
type Config struct {
	Application ApplicationConfig `yaml:"application"`
	Database    DatabaseConfig    `yaml:"database"`
	EmailClient EmailClientConfig `yaml:"email_client"`
	Redis       RedisConfig       `yaml:"redis"`
	Log         LogConfig         `yaml:"log"`
}

// ApplicationConfig holds HTTP server configuration
type ApplicationConfig struct {
	Name           string   `yaml:"name"`
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	BaseURL        string   `yaml:"base_url"` // public address used in confirmation links
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ListenHost returns the interface to bind, with container detection
func (c ApplicationConfig) ListenHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	return c.Host
}

// Addr returns host:port for the listener.
func (c ApplicationConfig) Addr() string {
	return net.JoinHostPort(c.ListenHost(), strconv.Itoa(c.Port))
}

// PublicBaseURL returns BaseURL, or http://host:port when it is unset.
func (c ApplicationConfig) PublicBaseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return "http://" + net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	URL          string `yaml:"url"` // when set, overrides the discrete fields
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Name         string `yaml:"name"`
	RequireSSL   bool   `yaml:"require_ssl"`
	TimeoutMs    int    `yaml:"timeout_ms"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// Timeout returns the connect timeout as a duration
func (c DatabaseConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// DSN returns a lib/pq connection URL.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	sslMode := "disable"
	if c.RequireSSL {
		sslMode = "require"
	}
	q := url.Values{}
	q.Set("sslmode", sslMode)
	if secs := int(c.Timeout().Seconds()); secs > 0 {
		q.Set("connect_timeout", strconv.Itoa(secs))
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// EmailClientConfig holds the outbound email provider configuration
type EmailClientConfig struct {
	Provider           string    `yaml:"provider"` // "http" or "ses"
	BaseURL            string    `yaml:"base_url"`
	SenderEmail        string    `yaml:"sender_email"`
	AuthorizationToken string    `yaml:"authorization_token"`
	TimeoutMs          int       `yaml:"timeout_ms"`
	SES                SESConfig `yaml:"ses"`
}

// Timeout returns the per-send timeout as a duration
func (c EmailClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// SESConfig holds AWS SES API configuration
type SESConfig struct {
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// RedisConfig holds the optional Redis used for the migration lock
type RedisConfig struct {
	URL string `yaml:"url"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level            string `yaml:"level"`
	Environment      string `yaml:"environment"`
	DisableRedaction bool   `yaml:"disable_redaction"`
}

// ParseProfiles splits a comma separated profile list, dropping blanks.
func ParseProfiles(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads dir/base.yaml and then each dir/<profile>.yaml on top of it.
// Keys present in a later file replace earlier values; absent keys are kept.
// A missing profile file is an error, a missing base.yaml is not.
func Load(dir string, profiles ...string) (*Config, error) {
	var cfg Config

	if err := mergeFile(&cfg, filepath.Join(dir, "base.yaml")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	for _, p := range profiles {
		if err := mergeFile(&cfg, filepath.Join(dir, p+".yaml")); err != nil {
			return nil, fmt.Errorf("profile %q: %w", p, err)
		}
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	// Set defaults
	if cfg.Application.Name == "" {
		cfg.Application.Name = "newsletter"
	}
	if cfg.Application.Host == "" {
		cfg.Application.Host = "127.0.0.1"
	}
	if cfg.Application.Port == 0 {
		cfg.Application.Port = 8000
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.TimeoutMs == 0 {
		cfg.Database.TimeoutMs = 5000
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 3
	}
	if cfg.EmailClient.Provider == "" {
		cfg.EmailClient.Provider = "http"
	}
	if cfg.EmailClient.TimeoutMs == 0 {
		cfg.EmailClient.TimeoutMs = 10000
	}
	if cfg.EmailClient.SES.Region == "" {
		cfg.EmailClient.SES.Region = "us-east-1"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Environment == "" {
		cfg.Log.Environment = "production"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
// When profiles is empty, APP_PROFILE (comma separated) or DefaultProfile is used.
func LoadFromEnv(dir string, profiles []string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	if len(profiles) == 0 {
		profiles = ParseProfiles(os.Getenv("APP_PROFILE"))
	}
	if len(profiles) == 0 {
		profiles = []string{DefaultProfile}
	}

	cfg, err := Load(dir, profiles...)
	if err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	// Override with environment variables if present
	if v := os.Getenv("APP_HOST"); v != "" {
		cfg.Application.Host = v
	}
	if v := os.Getenv("APP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("APP_PORT: %w", err)
		}
		cfg.Application.Port = port
	}
	if v := os.Getenv("APP_BASE_URL"); v != "" {
		cfg.Application.BaseURL = v
	}

	// Database override (deployments inject a full URL)
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("APP_DATABASE_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}

	// Email overrides
	if v := os.Getenv("APP_EMAIL_PROVIDER"); v != "" {
		cfg.EmailClient.Provider = v
	}
	if v := os.Getenv("APP_EMAIL_BASE_URL"); v != "" {
		cfg.EmailClient.BaseURL = v
	}
	if v := os.Getenv("APP_EMAIL_SENDER"); v != "" {
		cfg.EmailClient.SenderEmail = v
	}
	if v := os.Getenv("APP_EMAIL_AUTHORIZATION_TOKEN"); v != "" {
		cfg.EmailClient.AuthorizationToken = v
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.EmailClient.SES.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.EmailClient.SES.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.EmailClient.SES.Region = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("APP_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}
