// Package config loads atelier settings.
//
// Precedence, lowest to highest: built-in defaults, the YAML file, then
// environment variables (including those read from .env and .env.local).
// Command-line flags are applied by the caller on top of the result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/fpang/vizu-atelier/internal/api"
	"github.com/fpang/vizu-atelier/internal/assets"
	"github.com/fpang/vizu-atelier/internal/gemini"
	"github.com/fpang/vizu-atelier/internal/logging"
	"github.com/fpang/vizu-atelier/internal/media"
	"github.com/fpang/vizu-atelier/internal/session"
	"github.com/fpang/vizu-atelier/internal/stylist"
)

// DefaultPath is the config file looked up when no path is given.
const DefaultPath = "atelier.yaml"

// Config is the full atelier configuration.
type Config struct {
	Models  gemini.Models  `yaml:"models"`
	Retry   RetryConfig    `yaml:"retry"`
	Partner assets.Partner `yaml:"partner"`
	Media   MediaConfig    `yaml:"media"`
	TryOn   TryOnConfig    `yaml:"tryon"`
	Server  ServerConfig   `yaml:"server"`
}

// RetryConfig controls the transient-failure retry policy.
type RetryConfig struct {
	MaxRetries   int           `yaml:"max_retries"`
	InitialDelay time.Duration `yaml:"initial_delay"`
}

// MediaConfig holds the downscale presets per operation.
type MediaConfig struct {
	Quality  media.Resize `yaml:"quality"`
	Analysis media.Resize `yaml:"analysis"`
	Edit     media.Resize `yaml:"edit"`
}

// TryOnConfig tunes virtual try-on.
type TryOnConfig struct {
	MinInterval           time.Duration `yaml:"min_interval"`
	IncludeStylingContext bool          `yaml:"include_styling_context"`
}

// ServerConfig tunes the HTTP server.
type ServerConfig struct {
	Port               int           `yaml:"port"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
	MaxBodyBytes       int64         `yaml:"max_body_bytes"`
	SessionTTL         time.Duration `yaml:"session_ttl"`

	// OriginSecret is read from ORIGIN_VERIFY_SECRET only; it never lives
	// in the YAML file.
	OriginSecret string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Models: gemini.DefaultModels(),
		Retry: RetryConfig{
			MaxRetries:   gemini.DefaultMaxRetries,
			InitialDelay: gemini.DefaultInitialDelay,
		},
		Partner: assets.DefaultPartner(),
		Media: MediaConfig{
			Quality:  media.QualityCheckResize,
			Analysis: media.AnalysisResize,
			Edit:     media.EditResize,
		},
		Server: ServerConfig{
			Port:               8080,
			RateLimitPerMinute: 60,
			MaxBodyBytes:       api.DefaultMaxBodyBytes,
			SessionTTL:         session.SessionTTL,
		},
	}
}

// Load builds the configuration. A missing file at path is not an error;
// an empty path means DefaultPath.
func Load(path string) (*Config, error) {
	loadDotEnv(".env", ".env.local")

	if path == "" {
		path = DefaultPath
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Debug().Str("path", path).Msg("No config file, using defaults")
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv reads each env file that exists. Variables already set in the
// process environment win.
func loadDotEnv(files ...string) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				log.Warn().Err(err).Str("file", f).Msg("Failed to load env file")
			}
			continue
		}
		log.Debug().Str("file", f).Msg("Loaded env file")
	}
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("GEMINI_MODEL_QUALITY"); v != "" {
		c.Models.Quality = v
	}
	if v := os.Getenv("GEMINI_MODEL_ANALYSIS"); v != "" {
		c.Models.Analysis = v
	}
	if v := os.Getenv("GEMINI_MODEL_IMAGE"); v != "" {
		c.Models.Image = v
	}
	if v := os.Getenv("ATELIER_PARTNER_NAME"); v != "" {
		c.Partner.Name = v
	}
	if v := os.Getenv("ATELIER_PARTNER_SEARCH_URL"); v != "" {
		c.Partner.SearchURL = v
	}
	c.Server.OriginSecret = os.Getenv("ORIGIN_VERIFY_SECRET")

	ints := []struct {
		key string
		dst *int
	}{
		{"ATELIER_MAX_RETRIES", &c.Retry.MaxRetries},
		{"PORT", &c.Server.Port},
		{"RATE_LIMIT_PER_MINUTE", &c.Server.RateLimitPerMinute},
	}
	for _, e := range ints {
		if v := os.Getenv(e.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", e.key, v, err)
			}
			*e.dst = n
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"ATELIER_RETRY_DELAY", &c.Retry.InitialDelay},
		{"ATELIER_TRYON_MIN_INTERVAL", &c.TryOn.MinInterval},
		{"ATELIER_SESSION_TTL", &c.Server.SessionTTL},
	}
	for _, e := range durations {
		if v := os.Getenv(e.key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", e.key, v, err)
			}
			*e.dst = d
		}
	}

	if v := os.Getenv("ATELIER_INCLUDE_STYLING_CONTEXT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid ATELIER_INCLUDE_STYLING_CONTEXT %q: %w", v, err)
		}
		c.TryOn.IncludeStylingContext = b
	}
	return nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must be >= 0, got %d", c.Retry.MaxRetries)
	}
	if c.Retry.InitialDelay < 0 {
		return fmt.Errorf("retry.initial_delay must be >= 0, got %s", c.Retry.InitialDelay)
	}
	if c.Partner.Name == "" || c.Partner.SearchURL == "" {
		return errors.New("partner.name and partner.search_url are required")
	}
	for name, r := range map[string]media.Resize{"quality": c.Media.Quality, "analysis": c.Media.Analysis, "edit": c.Media.Edit} {
		if r.MaxWidth <= 0 || r.Quality <= 0 || r.Quality > 1 {
			return fmt.Errorf("media.%s: max_width must be > 0 and quality in (0,1]", name)
		}
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// StylistOptions maps the configuration onto stylist.Options.
func (c *Config) StylistOptions() stylist.Options {
	return stylist.Options{
		Models: c.Models,
		Policy: &gemini.Policy{
			MaxRetries:   c.Retry.MaxRetries,
			InitialDelay: c.Retry.InitialDelay,
		},
		Partner:               c.Partner,
		QualityResize:         c.Media.Quality,
		AnalysisResize:        c.Media.Analysis,
		EditResize:            c.Media.Edit,
		IncludeStylingContext: c.TryOn.IncludeStylingContext,
		TryOnInterval:         c.TryOn.MinInterval,
	}
}

// APIConfig maps the configuration onto api.Config.
func (c *Config) APIConfig(version string) api.Config {
	return api.Config{
		Version:            version,
		MaxBodyBytes:       c.Server.MaxBodyBytes,
		RateLimitPerMinute: c.Server.RateLimitPerMinute,
		OriginSecret:       c.Server.OriginSecret,
	}
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Server.Port)
}

// Startup prepares the startup event for an entrypoint running with c. The
// caller adds its own fields and calls Log.
func (c *Config) Startup(name, version string, initStart time.Time) *logging.StartupLogger {
	return logging.NewStartupLogger(name).
		Version(version).
		Model("quality", c.Models.Quality).
		Model("analysis", c.Models.Analysis).
		Model("image", c.Models.Image).
		Feature("styling_context", c.TryOn.IncludeStylingContext).
		Feature("tryon_pacing", c.TryOn.MinInterval > 0).
		Config("partner", c.Partner.Name).
		Config("max_retries", strconv.Itoa(c.Retry.MaxRetries)).
		Config("retry_delay", c.Retry.InitialDelay.String()).
		Feature("origin_verify", c.Server.OriginSecret != "").
		InitDuration(time.Since(initStart))
}
