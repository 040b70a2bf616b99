package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"storefront-seo-router/internal/config"
	"storefront-seo-router/internal/handler"
	"storefront-seo-router/internal/metrics"
	"storefront-seo-router/internal/route"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type cli struct {
	config.CLI `kong:"embed"`

	Version kong.VersionFlag `kong:"help='Print version and exit.'"`

	Serve  serveCmd  `kong:"cmd,default='1',help='Run the router (default).'"`
	Decide decideCmd `kong:"cmd,help='Print the routing decision for a request as JSON.'"`
}

func main() {
	var c cli
	ctx := kong.Parse(&c,
		kong.Name("seo-router"),
		kong.Description("Crawler-aware reverse proxy for storefront single-page applications."),
		kong.Vars{"version": fmt.Sprintf("%s (%s, %s)", version, commit, date)},
		kong.Bind(&c.CLI),
	)
	ctx.FatalIfErrorf(ctx.Run())
}

type serveCmd struct{}

// Run starts the HTTP server and blocks until a shutdown signal.
func (serveCmd) Run(cli *config.CLI) error {
	fx.New(
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With("component", "fx")}
		}),
		fx.Provide(
			func() *config.CLI { return cli },
			func() handler.Version { return handler.Version(version) },
			config.Load,
			newLogger,
			metrics.New,
			newClassifier,
			newDecider,
			newOriginService,
			newPrerenderService,
			newProvider,
			newResolver,
			newInjector,
			handler.NewPageHandler,
			handler.NewHealthHandler,
			handler.NewCrawlerRouter,
			newEcho,
		),
		fx.Invoke(handler.RegisterRoutes, warnConfigPermissions, logRouting, startServer),
	).Run()
	return nil
}

type decideCmd struct {
	Path   string `kong:"arg,help='Request path, optionally with a query string.'"`
	UA     string `kong:"name='ua',help='User-Agent of the request.'"`
	Domain string `kong:"help='Host the request addressed.',default='localhost'"`
}

// Run evaluates the configured decision offline and prints it.
func (d *decideCmd) Run(cli *config.CLI) error {
	cfg, err := config.Load(cli)
	if err != nil {
		return err
	}

	u, err := url.Parse(d.Path)
	if err != nil {
		return fmt.Errorf("parse path: %w", err)
	}
	decision := newDecider(cfg, newClassifier(cfg)).Decide(route.Input{
		Path:      u.Path,
		Host:      d.Domain,
		UserAgent: d.UA,
		Query:     u.Query(),
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(decision)
}
