package blogfront

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/eringen/blogfront/post"
	"github.com/eringen/blogfront/prismic"
	"github.com/eringen/blogfront/site"
	"github.com/eringen/blogfront/views"
)

func (a *App) handleHome(c echo.Context) error {
	p, ok := a.Site.Pages().Get("/")
	if !ok {
		return echo.ErrNotFound
	}
	return c.HTMLBlob(http.StatusOK, p.HTML)
}

// handlePost serves a generated post. A post outside the generated set gets
// the loading placeholder, whose htmx request for the partial generates it.
func (a *App) handlePost(c echo.Context) error {
	uid := c.Param("uid")
	partial := isHTMX(c) && c.QueryParam("partial") == "post"

	if p, ok := a.Site.Pages().Get(post.Link(uid)); ok {
		if partial {
			return c.HTMLBlob(http.StatusOK, p.Main)
		}
		return c.HTMLBlob(http.StatusOK, p.HTML)
	}

	if !partial {
		return Render(c, views.Loading(a.viewConfig(), uid))
	}
	// Error answers are fragments that replace the placeholder; static/app.js
	// lets htmx swap them despite the status.
	if !a.moreLimiter.Allow(c.RealIP()) {
		return RenderStatus(c, http.StatusTooManyRequests, views.PostUnavailable(uid))
	}
	p, err := a.Site.Post(c.Request().Context(), uid)
	if errors.Is(err, prismic.ErrNotFound) {
		return RenderStatus(c, http.StatusNotFound, views.NotFoundFragment())
	}
	if err != nil {
		a.component("http").WithError(err).WithField("uid", uid).Error("post generation failed")
		return RenderStatus(c, http.StatusInternalServerError, views.PostUnavailable(uid))
	}
	return c.HTMLBlob(http.StatusOK, p.Main)
}

// handleMore runs one load-more action for the page number in ?page= and
// answers with the appended entries plus the next control. A failed fetch
// answers with a retry control for the same page.
func (a *App) handleMore(c echo.Context) error {
	next := c.QueryParam("page")
	if err := a.Site.ValidateCursor(next); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid page reference").SetInternal(err)
	}
	if !a.moreLimiter.Allow(c.RealIP()) {
		return echo.NewHTTPError(http.StatusTooManyRequests)
	}

	res := a.Site.LoadMore(c.Request().Context(), next)
	if !res.OK() {
		if errors.Is(res.Err, site.ErrInvalidCursor) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid page reference").SetInternal(res.Err)
		}
		return Render(c, views.LoadMoreRetry(next))
	}
	return Render(c, views.MoreResponse(res.Appended, res.NextPage))
}

func (a *App) handleSitemap(c echo.Context) error {
	b, err := a.sitemapXML()
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/xml; charset=utf-8", b)
}

func (a *App) handleFeed(c echo.Context) error {
	b, err := a.feedXML()
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/rss+xml; charset=utf-8", b)
}

func (a *App) handleRobots(c echo.Context) error {
	return c.String(http.StatusOK, a.robotsTxt())
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		if isHTMX(c) {
			_ = RenderStatus(c, http.StatusNotFound, views.NotFoundFragment())
			return
		}
		_ = RenderStatus(c, http.StatusNotFound, views.NotFound(a.viewConfig()))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.component("http").WithError(err).WithFields(logrus.Fields{
			"method": c.Request().Method,
			"uri":    c.Request().RequestURI,
		}).Error("server error")
		if isHTMX(c) {
			_ = RenderStatus(c, code, views.ServerErrorFragment())
			return
		}
		_ = RenderStatus(c, code, views.ServerError(a.viewConfig()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
