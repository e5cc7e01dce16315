// Package config parses command line flags and GODUTCH_* environment
// variables into a Config.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

// EnvVarPrefix prefixes every environment variable, e.g. GODUTCH_PORT.
const EnvVarPrefix = "GODUTCH"

// Config holds the server settings.
type Config struct {
	Port       int
	StaticPath string

	Store  string // "sqlite" or "bolt"
	DBPath string

	Scanner     string // "gemini", "ollama" or "stub"
	GeminiKey   string
	GeminiModel string
	OllamaURL   string
	OllamaModel string
	ScanTimeout time.Duration
	StubDelay   time.Duration

	JWTSecret string
	TokenTTL  time.Duration

	// GeneratedSecret is true when no secret was configured and a random
	// one was created. Tokens then do not survive a restart.
	GeneratedSecret bool

	AuthUser string
	AuthPass string

	LogLevel  string
	LogFormat string
}

// UsageError is returned for bad flags and for --help. Usage holds the
// rendered flag help.
type UsageError struct {
	Err   error
	Usage string
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

// Load parses args (without the program name) and the environment.
func Load(args []string) (*Config, error) {
	var cfg Config

	fs := ff.NewFlagSet("godutch")
	fs.IntVar(&cfg.Port, 0, "port", 8080, "HTTP server port")
	fs.StringVar(&cfg.StaticPath, 0, "static", "", "Directory of static frontend files (optional)")
	fs.StringVar(&cfg.Store, 0, "store", "sqlite", "Session store: 'sqlite' or 'bolt'")
	fs.StringVar(&cfg.DBPath, 0, "db", "./data/godutch.db", "Database file path")
	fs.StringVar(&cfg.Scanner, 0, "scanner", "stub", "Receipt scanner: 'gemini', 'ollama' or 'stub'")
	fs.StringVar(&cfg.GeminiKey, 0, "gemini-key", "", "Google Gemini API key")
	fs.StringVar(&cfg.GeminiModel, 0, "gemini-model", "gemini-2.5-flash", "Google Gemini model name")
	fs.StringVar(&cfg.OllamaURL, 0, "ollama-url", "http://localhost:11434", "Ollama API base URL")
	fs.StringVar(&cfg.OllamaModel, 0, "ollama-model", "llava", "Ollama vision model name")
	fs.DurationVar(&cfg.ScanTimeout, 0, "scan-timeout", 0, "Upper bound for one scan (0 = no limit)")
	fs.DurationVar(&cfg.StubDelay, 0, "stub-delay", 5*time.Second, "Simulated processing time of the stub scanner")
	fs.StringVar(&cfg.JWTSecret, 0, "jwt-secret", "", "Secret for signing session tokens (random if empty)")
	fs.DurationVar(&cfg.TokenTTL, 0, "token-ttl", 24*time.Hour, "Session token lifetime")
	fs.StringVar(&cfg.AuthUser, 0, "auth-user", "", "Basic auth username for operator endpoints (optional)")
	fs.StringVar(&cfg.AuthPass, 0, "auth-pass", "", "Basic auth password for operator endpoints")
	fs.StringVar(&cfg.LogLevel, 0, "log-level", "info", "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, 0, "log-format", "text", "Log format: 'text' or 'json'")

	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix(EnvVarPrefix)); err != nil {
		return nil, &UsageError{Err: err, Usage: ffhelp.Flags(fs).String()}
	}

	if err := cfg.validate(); err != nil {
		return nil, &UsageError{Err: err, Usage: ffhelp.Flags(fs).String()}
	}

	if cfg.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.JWTSecret = secret
		cfg.GeneratedSecret = true
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	switch c.Store {
	case "sqlite", "bolt":
	default:
		errs = append(errs, fmt.Errorf("invalid store %q: want 'sqlite' or 'bolt'", c.Store))
	}
	switch c.Scanner {
	case "gemini":
		if c.GeminiKey == "" {
			errs = append(errs, errors.New("gemini scanner requires --gemini-key or GODUTCH_GEMINI_KEY"))
		}
	case "ollama", "stub":
	default:
		errs = append(errs, fmt.Errorf("invalid scanner %q: want 'gemini', 'ollama' or 'stub'", c.Scanner))
	}
	if c.ScanTimeout < 0 || c.StubDelay < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token-ttl must be positive"))
	}
	if c.AuthUser != "" && c.AuthPass == "" {
		errs = append(errs, errors.New("auth-pass is required when auth-user is set"))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q", c.LogFormat))
	}

	return errors.Join(errs...)
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
