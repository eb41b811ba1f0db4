// Package config holds the server configuration.
//
// Values are resolved in three layers: Defaults, then an optional YAML file,
// then environment variables. Later layers win.
package config

import "time"

type Config struct {
	Server     Server     `yaml:"server"`
	Database   Database   `yaml:"database"`
	Logging    Logging    `yaml:"logging"`
	Auth       Auth       `yaml:"auth"`
	Storage    Storage    `yaml:"storage"`
	Redis      Redis      `yaml:"redis"`
	Cache      Cache      `yaml:"cache"`
	Breaker    Breaker    `yaml:"breaker"`
	HTTPClient HTTPClient `yaml:"http_client"`
	Screenshot Screenshot `yaml:"screenshot"`
	Scrape     Scrape     `yaml:"scrape"`
	LLM        LLM        `yaml:"llm"`
}

type Server struct {
	Port            int           `yaml:"port"`
	BaseURL         string        `yaml:"base_url"` // public origin, used for sitemap locs and OAuth callbacks
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type Database struct {
	Path string `yaml:"path"`
}

type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Auth configures both identity sources. Either may be left empty.
type Auth struct {
	JWTSecret          string `yaml:"jwt_secret"`
	GitHubClientID     string `yaml:"github_client_id"`
	GitHubClientSecret string `yaml:"github_client_secret"`
	GitHubCallbackURL  string `yaml:"github_callback_url"`
	SecureCookies      bool   `yaml:"secure_cookies"`

	JWKSURL  string `yaml:"jwks_url"`
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
}

// Storage is an S3 compatible bucket. An empty Endpoint disables uploads.
type Storage struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	PublicURL string `yaml:"public_url"` // prefix for object URLs; empty means presigned
}

// Redis backs the rate limiter. An empty Addr disables limiting.
type Redis struct {
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	KeyPrefix   string        `yaml:"key_prefix"`
	RateLimit   int           `yaml:"rate_limit"`
	RateWindow  time.Duration `yaml:"rate_window"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

type Cache struct {
	MaxSizeMB  int64         `yaml:"max_size_mb"`
	FaviconTTL time.Duration `yaml:"favicon_ttl"`
	SitemapTTL time.Duration `yaml:"sitemap_ttl"`
}

type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

type HTTPClient struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Screenshot selects the renderer: "screenshotone", "chrome" or "" (off).
type Screenshot struct {
	Provider  string `yaml:"provider"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"` // signs screenshotone requests when set
	ChromeBin string `yaml:"chrome_bin"`
	PoolSize  int    `yaml:"pool_size"`
}

// Scrape selects the page scraper: "jina" or "firecrawl".
type Scrape struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
}

// LLM selects the text generator: "openrouter" or "gemini".
type LLM struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
}

// Defaults returns a Config that runs locally with no external services.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:            8080,
			BaseURL:         "http://localhost:8080",
			ShutdownTimeout: 30 * time.Second,
		},
		Database: Database{Path: "data/directory.db"},
		Logging:  Logging{Level: "info", Format: "text"},
		Storage:  Storage{Bucket: "altdirectory"},
		Redis: Redis{
			KeyPrefix:   "altdir:rl",
			RateLimit:   10,
			RateWindow:  time.Minute,
			DialTimeout: 2 * time.Second,
		},
		Cache: Cache{
			MaxSizeMB:  64,
			FaviconTTL: 24 * time.Hour,
			SitemapTTL: 10 * time.Minute,
		},
		Breaker:    Breaker{MaxFailures: 5, Timeout: 30 * time.Second},
		HTTPClient: HTTPClient{Timeout: 30 * time.Second},
		Screenshot: Screenshot{PoolSize: 2},
		Scrape:     Scrape{Provider: "jina"},
		LLM: LLM{
			Provider: "openrouter",
			BaseURL:  "https://openrouter.ai/api/v1",
			Model:    "google/gemini-2.0-flash-001",
		},
	}
}
