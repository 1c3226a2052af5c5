// Package blogfront is a blog front-end built with Go, Echo, and templ that
// reads its posts from a Prismic repository.
//
// At start-up the App generates the listing page and one page per post, then
// serves them. Posts published after start-up are generated on first request
// and the listing grows in the browser through the load-more endpoint.
package blogfront

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/eringen/blogfront/listing"
	"github.com/eringen/blogfront/localdate"
	"github.com/eringen/blogfront/prismic"
	"github.com/eringen/blogfront/site"
	"github.com/eringen/blogfront/views"
)

// App is the central blogfront application. It wires together the
// repository client, the page generator, handlers, and middleware.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Log    *logrus.Logger
	Site   *site.Generator

	repo         site.Repository
	moreLimiter  *MoreLimiter
	customRoutes []func(*App)
	setupOnce    sync.Once
}

// New creates a new App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	if a.Log == nil {
		a.Log = logrus.StandardLogger()
	}
	return a
}

// viewConfig returns the template-facing part of the configuration.
func (a *App) viewConfig() views.SiteConfig {
	return views.SiteConfig{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
		Lang:        a.Config.Locale,
	}
}

func (a *App) component(name string) *logrus.Entry {
	return a.Log.WithField("component", name)
}

// Build creates the repository client and generator, then generates every
// page. It fails if any page cannot be generated.
func (a *App) Build(ctx context.Context) error {
	if a.repo == nil {
		if a.Config.PrismicEndpoint == "" {
			return fmt.Errorf("blogfront: PrismicEndpoint is required")
		}
		opts := []prismic.Option{
			prismic.WithAccessToken(a.Config.PrismicAccessToken),
			prismic.WithHTTPClient(&http.Client{Timeout: a.Config.PrismicTimeout}),
			prismic.WithLogger(a.component("prismic")),
		}
		if a.Config.PrismicRef != "" {
			opts = append(opts, prismic.WithRef(a.Config.PrismicRef))
		}
		a.repo = prismic.New(a.Config.PrismicEndpoint, opts...)
	}

	dates, err := localdate.New(a.Config.Locale, a.Config.TimeZone)
	if err != nil {
		return fmt.Errorf("blogfront: %w", err)
	}

	gen, err := site.New(a.repo, site.Config{
		Site:        a.viewConfig(),
		Dates:       dates,
		PageSize:    a.Config.PageSize,
		Concurrency: a.Config.BuildConcurrency,
		Orderings:   a.Config.PrismicOrderings,
		Log:         a.Log.WithField("app", a.Config.Name),
	})
	if err != nil {
		return fmt.Errorf("blogfront: %w", err)
	}

	start := time.Now()
	if err := gen.Build(ctx); err != nil {
		return err
	}
	a.Site = gen
	a.component("app").WithFields(logrus.Fields{
		"pages":    gen.Pages().Len(),
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("build complete")
	return nil
}

// Handler installs middleware and routes once and returns the Echo
// instance. Build must have succeeded first.
func (a *App) Handler() http.Handler {
	a.setupOnce.Do(func() {
		a.moreLimiter = NewMoreLimiter(a.Config.MoreRateLimit, a.Config.MoreRateBurst, 10*time.Minute)
		a.setupMiddleware()
		a.setupRoutes()
		for _, fn := range a.customRoutes {
			fn(a)
		}
	})
	return a.Echo
}

// Start builds the site and serves it until ctx is cancelled.
func (a *App) Start(ctx context.Context) error {
	if err := a.Build(ctx); err != nil {
		return err
	}
	a.Handler()
	if a.Config.RefreshInterval > 0 {
		go a.refreshLoop(ctx, a.Config.RefreshInterval)
	}

	errCh := make(chan error, 1)
	go func() {
		a.component("app").WithField("addr", a.Config.Addr).Info("listening")
		errCh <- a.Echo.Start(a.Config.Addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.component("app").Info("shutting down")
	return a.Echo.Shutdown(shutdownCtx)
}

// refreshLoop picks up newly published posts every interval until ctx is
// cancelled. A tick that finds the previous walk still fetching is skipped.
func (a *App) refreshLoop(ctx context.Context, interval time.Duration) {
	log := a.component("refresh")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if a.Site.Refreshing() {
			log.Debug("previous refresh still running, skipping")
			continue
		}
		go a.refresh(ctx, log)
	}
}

func (a *App) refresh(ctx context.Context, log *logrus.Entry) {
	n, err := a.Site.Refresh(ctx)
	switch {
	case errors.Is(err, listing.ErrStaleResponse), errors.Is(err, listing.ErrLoadInFlight):
		log.WithError(err).Debug("refresh superseded")
	case err != nil:
		log.WithError(err).Warn("refresh failed")
	case n > 0:
		log.WithField("posts", n).Info("new posts generated")
	}
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.StaticFS("/static", echo.MustSubFS(StaticAssets, "static"))
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	e.GET("/", a.handleHome)
	e.GET("/post/:uid/", a.handlePost)
	e.GET("/posts/more/", a.handleMore)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.moreLimiter != nil {
		a.moreLimiter.Stop()
	}
	return nil
}
