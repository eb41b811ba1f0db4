package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "altdirectory.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if cfg.Auth.GitHubCallbackURL == "" {
		cfg.Auth.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Server.Port)
	}

	// The LLM defaults point at OpenRouter; a Gemini deployment that kept
	// them would send OpenRouter model ids to the Gemini API.
	if cfg.LLM.Provider == "gemini" {
		d := Defaults().LLM
		if cfg.LLM.BaseURL == d.BaseURL {
			cfg.LLM.BaseURL = ""
		}
		if cfg.LLM.Model == d.Model {
			cfg.LLM.Model = ""
		}
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

func loadYAML(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setInt(&cfg.Server.Port, "PORT")
	setInt(&cfg.Server.Port, "ALTDIR_PORT")
	setString(&cfg.Server.BaseURL, "ALTDIR_BASE_URL")
	setDuration(&cfg.Server.ShutdownTimeout, "ALTDIR_SHUTDOWN_TIMEOUT")

	setString(&cfg.Database.Path, "DB_PATH")
	setString(&cfg.Database.Path, "ALTDIR_DB_PATH")

	setString(&cfg.Logging.Level, "ALTDIR_LOG_LEVEL")
	setString(&cfg.Logging.Format, "ALTDIR_LOG_FORMAT")

	// Auth
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Auth.GitHubClientID, "GITHUB_CLIENT_ID")
	setString(&cfg.Auth.GitHubClientSecret, "GITHUB_CLIENT_SECRET")
	setString(&cfg.Auth.GitHubCallbackURL, "GITHUB_CALLBACK_URL")
	setBool(&cfg.Auth.SecureCookies, "ALTDIR_SECURE_COOKIES")
	setString(&cfg.Auth.JWKSURL, "ALTDIR_JWKS_URL")
	setString(&cfg.Auth.Issuer, "ALTDIR_JWT_ISSUER")
	setString(&cfg.Auth.Audience, "ALTDIR_JWT_AUDIENCE")

	// Object storage
	setString(&cfg.Storage.Endpoint, "ALTDIR_S3_ENDPOINT")
	setString(&cfg.Storage.AccessKey, "ALTDIR_S3_ACCESS_KEY")
	setString(&cfg.Storage.SecretKey, "ALTDIR_S3_SECRET_KEY")
	setString(&cfg.Storage.Bucket, "ALTDIR_S3_BUCKET")
	setBool(&cfg.Storage.UseSSL, "ALTDIR_S3_USE_SSL")
	setString(&cfg.Storage.PublicURL, "ALTDIR_S3_PUBLIC_URL")

	// Rate limiting
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "ALTDIR_REDIS_PASSWORD")
	setString(&cfg.Redis.KeyPrefix, "ALTDIR_REDIS_PREFIX")
	setInt(&cfg.Redis.RateLimit, "ALTDIR_RATE_LIMIT")
	setDuration(&cfg.Redis.RateWindow, "ALTDIR_RATE_WINDOW")

	setInt64(&cfg.Cache.MaxSizeMB, "ALTDIR_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.FaviconTTL, "ALTDIR_CACHE_FAVICON_TTL")
	setDuration(&cfg.Cache.SitemapTTL, "ALTDIR_CACHE_SITEMAP_TTL")

	setInt(&cfg.Breaker.MaxFailures, "ALTDIR_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "ALTDIR_BREAKER_TIMEOUT")
	setDuration(&cfg.HTTPClient.Timeout, "ALTDIR_HTTP_TIMEOUT")

	// Upstream collaborators
	setString(&cfg.Screenshot.Provider, "ALTDIR_SCREENSHOT_PROVIDER")
	setString(&cfg.Screenshot.AccessKey, "SCREENSHOTONE_ACCESS_KEY")
	setString(&cfg.Screenshot.SecretKey, "SCREENSHOTONE_SECRET_KEY")
	setString(&cfg.Screenshot.ChromeBin, "ALTDIR_CHROME_BIN")
	setInt(&cfg.Screenshot.PoolSize, "ALTDIR_CHROME_POOL_SIZE")
	setString(&cfg.Scrape.Provider, "ALTDIR_SCRAPE_PROVIDER")
	setString(&cfg.Scrape.APIKey, "ALTDIR_SCRAPE_API_KEY")
	setString(&cfg.LLM.Provider, "ALTDIR_LLM_PROVIDER")
	setString(&cfg.LLM.APIKey, "ALTDIR_LLM_API_KEY")
	setString(&cfg.LLM.BaseURL, "ALTDIR_LLM_BASE_URL")
	setString(&cfg.LLM.Model, "ALTDIR_LLM_MODEL")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", cfg.Server.Port)
	}
	if cfg.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if cfg.Auth.JWTSecret != "" && len(cfg.Auth.JWTSecret) < 32 {
		return errors.New("auth.jwt_secret must be at least 32 bytes")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Redis.RateLimit < 1 {
		return errors.New("redis.rate_limit must be >= 1")
	}
	switch cfg.Screenshot.Provider {
	case "", "screenshotone", "chrome":
	default:
		return fmt.Errorf("screenshot.provider %q must be screenshotone or chrome", cfg.Screenshot.Provider)
	}
	switch cfg.Scrape.Provider {
	case "jina", "firecrawl":
	default:
		return fmt.Errorf("scrape.provider %q must be jina or firecrawl", cfg.Scrape.Provider)
	}
	switch cfg.LLM.Provider {
	case "openrouter", "openai", "gemini":
	default:
		return fmt.Errorf("llm.provider %q must be openrouter, openai or gemini", cfg.LLM.Provider)
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q must be text or json", cfg.Logging.Format)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
