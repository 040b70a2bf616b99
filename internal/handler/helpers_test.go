package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"storefront-seo-router/internal/client"
	"storefront-seo-router/internal/config"
	"storefront-seo-router/internal/crawler"
	"storefront-seo-router/internal/metrics"
	"storefront-seo-router/internal/model"
	"storefront-seo-router/internal/route"
	"storefront-seo-router/internal/seo"
	"storefront-seo-router/internal/service"
)

const (
	testCustomHost   = "shop.example.com"
	testPlatformHost = "acme.platform.test"
	testRewritePath  = "/api/[...catchall]"
	facebookUA       = "facebookexternalhit/1.1 (+http://www.facebook.com/externalhit_uatext.php)"
	browserUA        = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
)

const testShell = `<!DOCTYPE html><html><head><title>Store</title>` +
	`<meta name="description" content="Discover our products and shop online."></head>` +
	`<body><div id="root"></div></body></html>`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingServer serves body with the given status and counts requests.
type countingServer struct {
	*httptest.Server
	calls atomic.Int32
}

func newCountingServer(t *testing.T, status int, contentType, body string) *countingServer {
	t.Helper()
	cs := &countingServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		cs.calls.Add(1)
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(cs.Close)
	return cs
}

type stackOptions struct {
	strategy    string
	renderMode  string
	rendererURL string
	pages       []seo.StaticPage
}

type testStack struct {
	echo    *echo.Echo
	metrics *metrics.Metrics
}

// newTestStack wires the router the way the server does, against originURL.
func newTestStack(t *testing.T, originURL string, opts stackOptions) *testStack {
	t.Helper()
	if opts.strategy == "" {
		opts.strategy = route.StrategyRewrite
	}
	if opts.renderMode == "" {
		opts.renderMode = config.RenderModeEdge
	}

	cfg := &config.Config{
		Origin:  config.OriginConfig{BaseURL: originURL},
		Routing: config.RoutingConfig{Strategy: opts.strategy, RewritePath: testRewritePath},
		Render: config.RenderConfig{
			Mode:                   opts.renderMode,
			MaxShellBytes:          1 << 20,
			PlaceholderDescription: "Discover our products and shop online.",
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}

	logger := discardLogger()
	m := metrics.New()

	prefixes := append(append([]string(nil), route.DefaultExemptPrefixes...), cfg.ReservedPaths()...)
	decider := route.NewDecider(
		crawler.NewClassifier(nil, false),
		route.NewExemptions(prefixes, route.DefaultStaticExtensions),
		route.NewDomainMatcher([]string{"platform.test", "localhost"}),
		route.Options{
			Strategy:          opts.strategy,
			RewritePath:       testRewritePath,
			CustomDomainsOnly: true,
			OverrideParam:     "__seo",
		},
	)

	var prerender *service.PrerenderService
	if opts.rendererURL != "" {
		u := client.NewUpstream(client.UpstreamRenderer, 5*time.Second, 2, logger, m)
		rc, err := client.NewRenderClient(u, opts.rendererURL, "test-token", 0)
		if err != nil {
			t.Fatalf("NewRenderClient: %v", err)
		}
		prerender = service.NewPrerenderService(rc, logger, m)
	}

	origin, err := service.NewOriginService(client.NewUpstream(client.UpstreamOrigin, 5*time.Second, 2, logger, m), cfg, logger)
	if err != nil {
		t.Fatalf("NewOriginService: %v", err)
	}

	defaults := model.PageMetadata{
		Title:       "Online Store",
		Description: "Discover our products and shop online.",
		Robots:      "index, follow",
		Language:    "en",
		Type:        "website",
	}
	resolver := seo.NewResolver(seo.NewStaticProvider(opts.pages), defaults, logger, m)
	pages := NewPageHandler(origin, resolver, seo.NewInjector(cfg.Render.PlaceholderDescription), cfg, logger, m)

	e := echo.New()
	e.Pre(NewCrawlerRouter(decider, prerender, logger, m).Middleware())
	RegisterRoutes(e, cfg, pages, NewHealthHandler(cfg, "test"), m)

	return &testStack{echo: e, metrics: m}
}

func (s *testStack) get(path, host, ua string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	req.Host = host
	if ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

var shoePage = seo.StaticPage{
	Host: testCustomHost,
	Path: "/products/shoe",
	Meta: model.PageMetadata{
		Title:       "Blue Running Shoe",
		Description: "Lightweight running shoe in blue.",
		Image:       "https://cdn.example.com/shoe.jpg",
	},
}
