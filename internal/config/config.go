// Package config handles TOML configuration loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"storefront-seo-router/internal/crawler"
	"storefront-seo-router/internal/model"
	"storefront-seo-router/internal/route"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/seo-router/config.toml",
	"configs/config.toml",
}

// Render modes.
const (
	// RenderModeEdge serves the application shell untouched to humans; the
	// crawler rewrite or proxy is the authoritative metadata source.
	RenderModeEdge = "edge"
	// RenderModeInject fills shell metadata for human traffic as well.
	RenderModeInject = "inject"
)

// Reserved routes served by the router itself.
const (
	HealthzPath  = "/healthz"
	StatusPath   = "/router/status"
	MetadataPath = "/router/metadata"
)

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config       string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host         string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port         int    `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	LogLevel     string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
	RenderMode   string `kong:"help='Human traffic render mode: edge|inject (overrides config).',env='SEO_RENDER_MODE'"`
	ServiceToken string `kong:"help='Bearer token for the metadata rendering service (overrides config).',env='SEO_SERVICE_TOKEN'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server          ServerConfig          `toml:"server"`
	Origin          OriginConfig          `toml:"origin"`
	Routing         RoutingConfig         `toml:"routing"`
	Crawlers        CrawlersConfig        `toml:"crawlers"`
	Render          RenderConfig          `toml:"render"`
	MetadataService MetadataServiceConfig `toml:"metadata_service"`
	Store           StoreConfig           `toml:"store"`
	Cache           CacheConfig           `toml:"cache"`
	Pages           []PageConfig          `toml:"pages"`
	Log             LogConfig             `toml:"log"`
	Metrics         MetricsConfig         `toml:"metrics"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string          `toml:"host"`
	Port         int             `toml:"port"` // 0 means "use default" (8000); TOML cannot distinguish 0 from unset
	BodyMaxBytes int64           `toml:"body_max_bytes"`
	RateLimit    RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig controls per-IP request rate limiting.
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// OriginConfig points at the single-page application every non-crawler request is passed to.
type OriginConfig struct {
	BaseURL         string `toml:"base_url"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	IdleConnections int    `toml:"idle_connections"`
}

// RoutingConfig controls the crawler routing decision.
type RoutingConfig struct {
	Strategy          string   `toml:"strategy"` // rewrite|proxy
	RewritePath       string   `toml:"rewrite_path"`
	CustomDomainsOnly *bool    `toml:"custom_domains_only"` // nil means true
	PlatformDomains   []string `toml:"platform_domains"`
	ExemptPrefixes    []string `toml:"exempt_prefixes"`
	StaticExtensions  []string `toml:"static_extensions"`
	OverrideParam     string   `toml:"override_param"`
}

// CrawlersConfig extends or replaces the built-in crawler signatures.
type CrawlersConfig struct {
	ReplaceDefaults bool                `toml:"replace_defaults"`
	Signatures      []crawler.Signature `toml:"signatures"`
}

// RenderConfig holds metadata rendering settings.
type RenderConfig struct {
	Mode                   string `toml:"mode"` // edge|inject
	PlaceholderDescription string `toml:"placeholder_description"`
	MaxShellBytes          int64  `toml:"max_shell_bytes"`

	DefaultTitle       string `toml:"default_title"`
	DefaultDescription string `toml:"default_description"`
	DefaultImage       string `toml:"default_image"`
	DefaultRobots      string `toml:"default_robots"`
	DefaultLanguage    string `toml:"default_language"`
	SiteName           string `toml:"site_name"`
}

// MetadataServiceConfig points at the external pre-rendering service used by the proxy strategy.
type MetadataServiceConfig struct {
	BaseURL        string `toml:"base_url"`
	Token          string `toml:"token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxBodyBytes   int64  `toml:"max_body_bytes"`
}

// StoreConfig holds the PostgreSQL metadata store settings. An empty DSN disables the store.
type StoreConfig struct {
	PostgresDSN string `toml:"postgres_dsn"`
	AutoMigrate bool   `toml:"auto_migrate"`
}

// CacheConfig holds the Redis metadata cache settings. An empty address disables the cache.
type CacheConfig struct {
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	TTLSeconds    int    `toml:"ttl_seconds"`
}

// PageConfig is a metadata record declared inline.
type PageConfig struct {
	Host        string `toml:"host"`
	Path        string `toml:"path"`
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Canonical   string `toml:"canonical_url"`
	Image       string `toml:"image"`
	Keywords    string `toml:"keywords"`
	Robots      string `toml:"robots"`
	Author      string `toml:"author"`
	Language    string `toml:"language"`
	Type        string `toml:"type"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load reads the TOML config file and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/seo-router/config.toml then configs/config.toml.
func Load(cli *CLI) (*Config, error) {
	path := cli.Config
	if path == "" {
		path = findConfig()
	}
	if path == "" {
		return nil, fmt.Errorf("config: no config file found (searched %v)", configSearchPaths)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.filePath = path
	cfg.applyCLI(cli)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
	if cli.RenderMode != "" {
		c.Render.Mode = cli.RenderMode
	}
	if cli.ServiceToken != "" {
		c.MetadataService.Token = cli.ServiceToken
	}
}

func (c *Config) validate() error {
	// Origin URL: required, http or https.
	if c.Origin.BaseURL == "" {
		return fmt.Errorf("origin.base_url is required")
	}
	u, err := url.Parse(c.Origin.BaseURL)
	if err != nil {
		return fmt.Errorf("origin.base_url is not a valid URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("origin.base_url must be an absolute http(s) URL; got %q", c.Origin.BaseURL)
	}

	// Routing.
	switch strings.ToLower(c.Routing.Strategy) {
	case route.StrategyRewrite, "":
	case route.StrategyProxy:
		if err := c.validateMetadataService(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("routing.strategy must be one of: rewrite, proxy; got %q", c.Routing.Strategy)
	}
	if p := c.Routing.RewritePath; p != "" && p[0] != '/' {
		return fmt.Errorf("routing.rewrite_path must start with '/'; got %q", p)
	}
	for _, p := range c.Routing.ExemptPrefixes {
		if p == "" || p[0] != '/' {
			return fmt.Errorf("routing.exempt_prefixes entries must start with '/'; got %q", p)
		}
	}
	if c.Crawlers.ReplaceDefaults && len(c.Crawlers.Signatures) == 0 {
		return fmt.Errorf("crawlers.replace_defaults requires at least one crawlers.signatures entry")
	}

	switch strings.ToLower(c.Render.Mode) {
	case RenderModeEdge, RenderModeInject, "":
		// valid
	default:
		return fmt.Errorf("render.mode must be one of: edge, inject; got %q", c.Render.Mode)
	}

	// Numeric bounds.
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 0–65535; got %d", c.Server.Port)
	}
	if c.Server.BodyMaxBytes < 0 {
		return fmt.Errorf("server.body_max_bytes must be non-negative; got %d", c.Server.BodyMaxBytes)
	}
	if c.Origin.TimeoutSeconds < 0 {
		return fmt.Errorf("origin.timeout_seconds must be non-negative; got %d", c.Origin.TimeoutSeconds)
	}
	if c.Origin.IdleConnections < 0 {
		return fmt.Errorf("origin.idle_connections must be non-negative; got %d", c.Origin.IdleConnections)
	}
	if c.MetadataService.TimeoutSeconds < 0 {
		return fmt.Errorf("metadata_service.timeout_seconds must be non-negative; got %d", c.MetadataService.TimeoutSeconds)
	}
	if c.Render.MaxShellBytes < 0 {
		return fmt.Errorf("render.max_shell_bytes must be non-negative; got %d", c.Render.MaxShellBytes)
	}
	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache.ttl_seconds must be non-negative; got %d", c.Cache.TTLSeconds)
	}
	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("server.rate_limit.requests_per_second must be > 0 when rate limiting is enabled; got %v", c.Server.RateLimit.RequestsPerSecond)
	}

	for i, p := range c.Pages {
		if p.Path == "" || p.Path[0] != '/' {
			return fmt.Errorf("pages[%d].path must start with '/'; got %q", i, p.Path)
		}
	}

	// Log fields.
	level := strings.ToLower(c.Log.Level)
	switch level {
	case "debug", "info", "warn", "error", "":
		// valid
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	format := strings.ToLower(c.Log.Format)
	switch format {
	case "json", "text", "":
		// valid
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}

	// Metrics path validation (only when metrics are enabled).
	if c.Metrics.Enabled && c.Metrics.Path != "" {
		p := c.Metrics.Path
		if p[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		for _, reserved := range []string{HealthzPath, StatusPath, MetadataPath, c.rewritePath()} {
			if p == reserved || strings.HasPrefix(p, reserved+"/") {
				return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
			}
		}
	}

	return nil
}

func (c *Config) validateMetadataService() error {
	if c.MetadataService.BaseURL == "" {
		return fmt.Errorf("metadata_service.base_url is required for the proxy strategy")
	}
	u, err := url.Parse(c.MetadataService.BaseURL)
	if err != nil {
		return fmt.Errorf("metadata_service.base_url is not a valid URL: %w", err)
	}
	// The bearer token travels with every request.
	if u.Scheme != "https" {
		return fmt.Errorf("metadata_service.base_url must use HTTPS; got %q", c.MetadataService.BaseURL)
	}
	if c.MetadataService.Token == "YOUR_TOKEN_HERE" {
		return fmt.Errorf("metadata_service.token contains placeholder value; set a real token")
	}
	if c.MetadataService.Token == "" {
		return fmt.Errorf("metadata_service.token is required for the proxy strategy")
	}
	return nil
}

func (c *Config) rewritePath() string {
	if c.Routing.RewritePath == "" {
		return defaultRewritePath
	}
	return c.Routing.RewritePath
}

const defaultRewritePath = "/api/[...catchall]"

// setDefaults fills zero-valued fields with sensible defaults.
// For integer fields (Port, BodyMaxBytes, etc.), zero means "unset" because TOML
// cannot distinguish between an explicit 0 and an omitted key. Setting port=0 in
// the config file therefore results in the default port (8000).
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 10 * 1024 * 1024 // 10 MB
	}
	if c.Origin.TimeoutSeconds == 0 {
		c.Origin.TimeoutSeconds = 30
	}
	if c.Origin.IdleConnections == 0 {
		c.Origin.IdleConnections = 100
	}

	c.Routing.Strategy = strings.ToLower(c.Routing.Strategy)
	if c.Routing.Strategy == "" {
		c.Routing.Strategy = route.StrategyRewrite
	}
	c.Routing.RewritePath = c.rewritePath()
	if c.Routing.CustomDomainsOnly == nil {
		on := true
		c.Routing.CustomDomainsOnly = &on
	}
	if c.Routing.PlatformDomains == nil {
		c.Routing.PlatformDomains = []string{"localhost"}
	}
	if c.Routing.ExemptPrefixes == nil {
		c.Routing.ExemptPrefixes = append([]string(nil), route.DefaultExemptPrefixes...)
	}
	if c.Routing.StaticExtensions == nil {
		c.Routing.StaticExtensions = append([]string(nil), route.DefaultStaticExtensions...)
	}
	if c.Routing.OverrideParam == "" {
		c.Routing.OverrideParam = "__seo"
	}

	c.Render.Mode = strings.ToLower(c.Render.Mode)
	if c.Render.Mode == "" {
		c.Render.Mode = RenderModeEdge
	}
	if c.Render.MaxShellBytes == 0 {
		c.Render.MaxShellBytes = 2 * 1024 * 1024 // 2 MB
	}
	if c.Render.DefaultTitle == "" {
		c.Render.DefaultTitle = "Online Store"
	}
	if c.Render.DefaultDescription == "" {
		c.Render.DefaultDescription = "Discover our products and shop online."
	}
	if c.Render.PlaceholderDescription == "" {
		c.Render.PlaceholderDescription = c.Render.DefaultDescription
	}
	if c.Render.DefaultRobots == "" {
		c.Render.DefaultRobots = "index, follow"
	}
	if c.Render.DefaultLanguage == "" {
		c.Render.DefaultLanguage = "en"
	}

	if c.MetadataService.TimeoutSeconds == 0 {
		c.MetadataService.TimeoutSeconds = 10
	}
	if c.MetadataService.MaxBodyBytes == 0 {
		c.MetadataService.MaxBodyBytes = 5 * 1024 * 1024 // 5 MB
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 300
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ReservedPaths returns the routes the router serves itself. They are never
// subject to crawler routing.
func (c *Config) ReservedPaths() []string {
	paths := []string{HealthzPath, StatusPath, MetadataPath}
	if c.Metrics.Enabled {
		paths = append(paths, c.Metrics.Path)
	}
	return paths
}

// DefaultMetadata returns the platform-wide fallback metadata record.
func (c *Config) DefaultMetadata() model.PageMetadata {
	return model.PageMetadata{
		Title:       c.Render.DefaultTitle,
		Description: c.Render.DefaultDescription,
		Image:       c.Render.DefaultImage,
		Robots:      c.Render.DefaultRobots,
		Language:    c.Render.DefaultLanguage,
		SiteName:    c.Render.SiteName,
		Type:        "website",
	}
}

// PageMetadata converts an inline page entry into a metadata record.
func (p PageConfig) PageMetadata() model.PageMetadata {
	return model.PageMetadata{
		Title:        p.Title,
		Description:  p.Description,
		CanonicalURL: p.Canonical,
		Image:        p.Image,
		Keywords:     p.Keywords,
		Robots:       p.Robots,
		Author:       p.Author,
		Language:     p.Language,
		Type:         p.Type,
	}
}

// WarnPermissions logs a warning if the config file is readable by group or others.
// The file may hold the metadata service token and database credentials.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
