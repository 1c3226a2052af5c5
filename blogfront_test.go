package blogfront

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/blogfront/prismic/prismictest"
	"github.com/eringen/blogfront/views"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestApp(t *testing.T, cfg SiteConfig, srv *prismictest.Server, opts ...Option) *App {
	t.Helper()
	if cfg.MoreRateLimit == 0 {
		cfg.MoreRateLimit = 1000
		cfg.MoreRateBurst = 1000
	}
	cfg.Name = "spacetraveling"
	cfg.URL = "https://blog.example.com"
	opts = append([]Option{WithRepository(srv.Client()), WithLogger(quietLogger())}, opts...)
	app := New(cfg, opts...)
	require.NoError(t, app.Build(context.Background()))
	app.Handler()
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func get(app *App, target string, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHome(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(25)...)
	app := newTestApp(t, SiteConfig{}, srv)

	rec := get(app, "/", false)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `href="/post/post-1/"`)
	assert.Contains(t, body, "Joseph Oliveira")
	assert.Contains(t, body, "01 mar 2021")
	assert.Contains(t, body, `id="load-more"`)
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "https://unpkg.com")
}

func TestPrebuiltPost(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(2)...)
	app := newTestApp(t, SiteConfig{}, srv)
	searches := srv.Searches.Load()

	rec := get(app, "/post/post-2/", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Post 2</h1>")
	assert.Contains(t, rec.Body.String(), "1 min")

	rec = get(app, "/post/post-2/?partial=post", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), `<main class="post" id="post">`))

	assert.Equal(t, searches, srv.Searches.Load(), "generated pages are served without upstream calls")
}

func TestPostRedirectsToTrailingSlash(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(1)...)
	app := newTestApp(t, SiteConfig{}, srv)

	rec := get(app, "/post/post-1", false)
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/post/post-1/", rec.Header().Get("Location"))
}

func TestFallbackPost(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(1)...)
	app := newTestApp(t, SiteConfig{}, srv)
	srv.Add(prismictest.Post("late", "2021-04-01T10:00:00+0000", "Chegou depois", "sub", "Ana",
		prismictest.Section("Um", "texto")))

	rec := get(app, "/post/late/", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `hx-get="/post/late/?partial=post"`)
	assert.Contains(t, rec.Body.String(), "Carregando...")

	rec = get(app, "/post/late/?partial=post", true)
	require.Equal(t, http.StatusOK, rec.Code)
	fragment := rec.Body.String()
	assert.Contains(t, fragment, "<h1>Chegou depois</h1>")
	assert.Contains(t, fragment, "01 abr 2021")
	assert.NotContains(t, fragment, "<html")

	rec = get(app, "/post/late/", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), fragment)
	assert.NotContains(t, rec.Body.String(), "Carregando...")
}

func TestFallbackPostNotFound(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(1)...)
	app := newTestApp(t, SiteConfig{}, srv)

	rec := get(app, "/post/missing/?partial=post", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Post não encontrado")
	assert.NotContains(t, rec.Body.String(), "<html")
}

func TestFallbackPostUpstreamError(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(1)...)
	app := newTestApp(t, SiteConfig{}, srv)
	srv.FailWith(http.StatusBadGateway)

	rec := get(app, "/post/other/?partial=post", true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, `<main class="post unavailable" id="post">`))
	assert.Contains(t, body, "Não foi possível carregar o post.")
	assert.Contains(t, body, `hx-get="/post/other/?partial=post"`)
	assert.NotContains(t, body, "<html")
}

func TestFallbackPostRateLimited(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(1)...)
	app := newTestApp(t, SiteConfig{MoreRateLimit: 0.001, MoreRateBurst: 1}, srv)

	rec := get(app, "/post/missing/?partial=post", true)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(app, "/post/missing/?partial=post", true)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="post"`)
	assert.Contains(t, rec.Body.String(), "Tentar novamente")
}

// The placeholder's error answers replace #post; the bundled script lets
// htmx swap them in.
func TestPlaceholderErrorsAreSwappable(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(1)...)
	app := newTestApp(t, SiteConfig{}, srv)

	rec := get(app, "/post/missing/", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<main class="post loading" id="post"`)
	assert.Contains(t, rec.Body.String(), `<script src="/static/app.js" defer></script>`)

	rec = get(app, "/post/missing/?partial=post", true)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), `<main class="container error-page" id="post">`))

	rec = get(app, "/static/app.js", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "javascript")
	script := rec.Body.String()
	assert.Contains(t, script, "htmx:beforeSwap")
	assert.Contains(t, script, `target.id === "post"`)
	assert.Contains(t, script, "shouldSwap = true")
}

func TestServerErrorForHTMXIsFragment(t *testing.T) {
	srv := prismictest.NewServer(t)
	app := newTestApp(t, SiteConfig{}, srv, WithCustomRoutes(func(a *App) {
		a.Echo.GET("/boom/", func(c echo.Context) error {
			return errors.New("boom")
		})
	}))

	rec := get(app, "/boom/", true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Algo deu errado")
	assert.NotContains(t, rec.Body.String(), "<html")

	rec = get(app, "/boom/", false)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "<!DOCTYPE html>")
}

func TestLoadMore(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(45)...)
	app := newTestApp(t, SiteConfig{}, srv)

	next := app.Site.Home().NextPage
	require.NotEmpty(t, next)

	rec := get(app, views.MoreURL(next), true)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<div id="posts" hx-swap-oob="beforeend">`)
	assert.Contains(t, body, `href="/post/post-21/"`)
	assert.Contains(t, body, `href="/post/post-40/"`)
	assert.NotContains(t, body, `href="/post/post-41/"`)
	assert.Contains(t, body, `id="load-more"`)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	assert.Contains(t, body, `hx-get="/posts/more/?page=3"`)

	// Page 3 is the last one: its response carries no control.
	rec = get(app, views.MoreURL("3"), true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/post/post-45/"`)
	assert.NotContains(t, rec.Body.String(), `id="load-more"`)
}

func TestLoadMoreRejectsInvalidCursor(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(3)...)
	app := newTestApp(t, SiteConfig{}, srv)
	draft := prismictest.Post("memo", "2021-03-10T10:00:00+0000", "Segredo interno", "nao publicar", "RH")
	draft.Type = "drafts"
	srv.Add(draft)
	searches := srv.Searches.Load()

	for _, cursor := range []string{
		srv.Endpoint() + `/documents/search?ref=master-ref&q=[[at(document.type,"drafts")]]`,
		"https://evil.example.com/api/v2/documents/search?page=2",
		"1",
		"abc",
	} {
		rec := get(app, views.MoreURL(cursor), true)
		assert.Equal(t, http.StatusBadRequest, rec.Code, cursor)
		assert.NotContains(t, rec.Body.String(), "Segredo interno")
	}

	rec := get(app, "/posts/more/", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, searches, srv.Searches.Load())
}

func TestLoadMoreFailureRendersRetry(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(25)...)
	app := newTestApp(t, SiteConfig{}, srv)
	next := app.Site.Home().NextPage
	srv.FailWith(http.StatusServiceUnavailable)

	rec := get(app, views.MoreURL(next), true)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Tentar novamente")
	assert.Contains(t, body, `hx-get="`+views.MoreURL(next)+`"`)
	assert.NotContains(t, body, "hx-swap-oob")
}

func TestLoadMoreRateLimited(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(25)...)
	app := newTestApp(t, SiteConfig{MoreRateLimit: 0.001, MoreRateBurst: 1}, srv)
	next := app.Site.Home().NextPage

	rec := get(app, views.MoreURL(next), true)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = get(app, views.MoreURL(next), true)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestSitemapFeedRobots(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(3)...)
	app := newTestApp(t, SiteConfig{}, srv)

	rec := get(app, "/sitemap.xml", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/xml")
	assert.Contains(t, rec.Body.String(), "<loc>https://blog.example.com/</loc>")
	assert.Contains(t, rec.Body.String(), "<loc>https://blog.example.com/post/post-3/</loc><lastmod>2021-03-03</lastmod>")

	rec = get(app, "/feed.xml", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<rss version="2.0">`)
	assert.Equal(t, 3, strings.Count(rec.Body.String(), "<item>"))
	assert.Contains(t, rec.Body.String(), "<pubDate>Mon, 01 Mar 2021 19:25:28 +0000</pubDate>")

	rec = get(app, "/robots.txt", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sitemap: https://blog.example.com/sitemap.xml")
}

func TestStaticAssets(t *testing.T) {
	srv := prismictest.NewServer(t)
	app := newTestApp(t, SiteConfig{}, srv)

	rec := get(app, "/static/styles.css", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
	assert.Contains(t, rec.Body.String(), ".load-more")
}

func TestUnknownRouteRendersNotFound(t *testing.T) {
	srv := prismictest.NewServer(t)
	app := newTestApp(t, SiteConfig{}, srv)

	rec := get(app, "/nope/", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>404</h1>")
	assert.Contains(t, rec.Body.String(), "<!DOCTYPE html>")
}

func TestBuildFailsOnUpstreamError(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(1)...)
	srv.FailWith(http.StatusInternalServerError)
	app := New(SiteConfig{}, WithRepository(srv.Client()), WithLogger(quietLogger()))

	err := app.Build(context.Background())
	require.Error(t, err)
	assert.Nil(t, app.Site)
}

func TestBuildPinsConfiguredRef(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(2)...)

	app := New(SiteConfig{PrismicEndpoint: srv.Endpoint(), PrismicRef: prismictest.MasterRef}, WithLogger(quietLogger()))
	require.NoError(t, app.Build(context.Background()))
	assert.Equal(t, 3, app.Site.Pages().Len())

	app = New(SiteConfig{PrismicEndpoint: srv.Endpoint(), PrismicRef: "unknown-release"}, WithLogger(quietLogger()))
	assert.Error(t, app.Build(context.Background()))
}

func TestBuildAppliesOrderings(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(3)...)
	app := New(SiteConfig{
		PrismicEndpoint:  srv.Endpoint(),
		PrismicOrderings: "[document.first_publication_date desc]",
	}, WithLogger(quietLogger()))
	require.NoError(t, app.Build(context.Background()))

	results := app.Site.Home().Results
	require.Len(t, results, 3)
	assert.Equal(t, "post-3", results[0].UID)
}

func TestRefreshLoopPicksUpNewPosts(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(1)...)
	app := newTestApp(t, SiteConfig{}, srv)
	srv.Add(prismictest.Post("late", "2021-04-01T10:00:00+0000", "Chegou depois", "sub", "Ana"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go app.refreshLoop(ctx, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := app.Site.Pages().Get("/post/late/")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	rec := get(app, "/", false)
	assert.Contains(t, rec.Body.String(), `href="/post/late/"`)
}

func TestBuildRequiresEndpoint(t *testing.T) {
	app := New(SiteConfig{}, WithLogger(quietLogger()))
	assert.ErrorContains(t, app.Build(context.Background()), "PrismicEndpoint is required")
}

func TestExport(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(2)...)
	app := newTestApp(t, SiteConfig{}, srv)
	dir := t.TempDir()

	require.NoError(t, app.Export(dir))
	for _, name := range []string{
		"index.html",
		"post/post-1/index.html",
		"post/post-2/index.html",
		"sitemap.xml",
		"feed.xml",
		"robots.txt",
		"static/styles.css",
	} {
		_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name)))
		assert.NoError(t, err, name)
	}
}
