package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"storefront-seo-router/internal/client"
	"storefront-seo-router/internal/config"
	"storefront-seo-router/internal/crawler"
	"storefront-seo-router/internal/handler"
	"storefront-seo-router/internal/metrics"
	"storefront-seo-router/internal/middleware"
	"storefront-seo-router/internal/route"
	"storefront-seo-router/internal/seo"
	"storefront-seo-router/internal/service"
)

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(cfg.Log.Format) {
	case "text":
		h = slog.NewTextHandler(os.Stdout, opts)
	default:
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(h)
}

func newClassifier(cfg *config.Config) *crawler.Classifier {
	return crawler.NewClassifier(cfg.Crawlers.Signatures, cfg.Crawlers.ReplaceDefaults)
}

// newDecider builds the routing decision. The router's own routes are always
// exempt so probes and scrapers never reach the metadata path.
func newDecider(cfg *config.Config, c *crawler.Classifier) *route.Decider {
	prefixes := append(append([]string(nil), cfg.Routing.ExemptPrefixes...), cfg.ReservedPaths()...)
	return route.NewDecider(
		c,
		route.NewExemptions(prefixes, cfg.Routing.StaticExtensions),
		route.NewDomainMatcher(cfg.Routing.PlatformDomains),
		route.Options{
			Strategy:          cfg.Routing.Strategy,
			RewritePath:       cfg.Routing.RewritePath,
			CustomDomainsOnly: cfg.Routing.CustomDomainsOnly == nil || *cfg.Routing.CustomDomainsOnly,
			OverrideParam:     cfg.Routing.OverrideParam,
		},
	)
}

func newOriginService(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*service.OriginService, error) {
	u := client.NewUpstream(
		client.UpstreamOrigin,
		time.Duration(cfg.Origin.TimeoutSeconds)*time.Second,
		cfg.Origin.IdleConnections,
		logger,
		m,
	)
	return service.NewOriginService(u, cfg, logger)
}

// newPrerenderService returns nil unless the proxy strategy is configured.
func newPrerenderService(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*service.PrerenderService, error) {
	if cfg.Routing.Strategy != route.StrategyProxy {
		return nil, nil
	}
	u := client.NewUpstream(
		client.UpstreamRenderer,
		time.Duration(cfg.MetadataService.TimeoutSeconds)*time.Second,
		10,
		logger,
		m,
	)
	rc, err := client.NewRenderClient(u, cfg.MetadataService.BaseURL, cfg.MetadataService.Token, cfg.MetadataService.MaxBodyBytes)
	if err != nil {
		return nil, err
	}
	return service.NewPrerenderService(rc, logger, m), nil
}

// newProvider assembles the metadata lookup chain: inline pages first, then
// the Postgres store behind the optional Redis cache.
func newProvider(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (seo.Provider, error) {
	var chain seo.Chain

	if len(cfg.Pages) > 0 {
		pages := make([]seo.StaticPage, 0, len(cfg.Pages))
		for _, p := range cfg.Pages {
			pages = append(pages, seo.StaticPage{Host: p.Host, Path: p.Path, Meta: p.PageMetadata()})
		}
		static := seo.NewStaticProvider(pages)
		logger.Info("static metadata pages loaded", "count", static.Len())
		chain = append(chain, static)
	}

	if cfg.Store.PostgresDSN == "" {
		if cfg.Cache.RedisAddr != "" {
			logger.Warn("cache.redis_addr is set without store.postgres_dsn; cache disabled")
		}
		return chain, nil
	}

	pool, err := pgxpool.New(context.Background(), cfg.Store.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	store := seo.NewStore(pool)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := pool.Ping(ctx); err != nil {
				return fmt.Errorf("ping postgres: %w", err)
			}
			if cfg.Store.AutoMigrate {
				if err := store.EnsureSchema(ctx); err != nil {
					return err
				}
				logger.Info("metadata schema ensured")
			}
			return nil
		},
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	var p seo.Provider = store
	if cfg.Cache.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				// The cache is optional at runtime; an unreachable Redis only degrades lookups.
				if err := rdb.Ping(ctx).Err(); err != nil {
					logger.Warn("redis unreachable, lookups will bypass the cache", "addr", cfg.Cache.RedisAddr, "err", err)
				}
				return nil
			},
			OnStop: func(context.Context) error {
				return rdb.Close()
			},
		})
		p = seo.NewCachedProvider(store, rdb, time.Duration(cfg.Cache.TTLSeconds)*time.Second, logger)
	}

	return append(chain, p), nil
}

func newResolver(p seo.Provider, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *seo.Resolver {
	return seo.NewResolver(p, cfg.DefaultMetadata(), logger, m)
}

func newInjector(cfg *config.Config) *seo.Injector {
	return seo.NewInjector(cfg.Render.PlaceholderDescription, cfg.Render.DefaultDescription)
}

// newEcho registers every middleware pre-routing. Responses produced by the
// crawler router never reach route-level middleware, and they must still be
// recovered, logged, and measured.
func newEcho(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics, router *handler.CrawlerRouter) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Inbound timeouts to mitigate slow-client attacks.
	e.Server.ReadTimeout = 30 * time.Second
	// Streamed origin responses are bounded by the origin client timeout instead.
	e.Server.WriteTimeout = 0
	e.Server.IdleTimeout = 120 * time.Second
	e.Server.ReadHeaderTimeout = 10 * time.Second

	e.Pre(echomw.Recover())
	e.Pre(echomw.RequestID())
	e.Pre(middleware.RequestLogger(logger))
	e.Pre(middleware.MetricsMiddleware(m))
	e.Pre(middleware.SecurityHeaders())
	e.Pre(middleware.NoIndex(cfg.ReservedPaths()...))

	if rl := middleware.RateLimit(cfg.Server.RateLimit); rl != nil {
		e.Pre(rl)
		logger.Info("rate limiter enabled", "rps", cfg.Server.RateLimit.RequestsPerSecond)
	}

	e.Pre(echomw.BodyLimit(fmt.Sprintf("%dB", cfg.Server.BodyMaxBytes)))
	e.Pre(router.Middleware())

	return e
}

func warnConfigPermissions(cfg *config.Config, logger *slog.Logger) {
	cfg.WarnPermissions(logger)
}

func logRouting(cfg *config.Config, c *crawler.Classifier, d *route.Decider, logger *slog.Logger) {
	logger.Info("crawler routing configured",
		"strategy", d.Strategy(),
		"render_mode", cfg.Render.Mode,
		"origin", cfg.Origin.BaseURL,
		"signatures", len(c.Signatures()),
		"custom_domains_only", *cfg.Routing.CustomDomainsOnly,
	)
}

func startServer(lc fx.Lifecycle, e *echo.Echo, cfg *config.Config, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			addr := cfg.Server.Addr()
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("bind %s: %w", addr, err)
			}
			logger.Info("starting server", "addr", addr)
			go func() {
				if err := e.Server.Serve(ln); err != nil && err != http.ErrServerClosed {
					logger.Error("server error", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down server")
			return e.Shutdown(ctx)
		},
	})
}
