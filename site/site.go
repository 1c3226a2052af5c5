// Package site generates the blog's pages from the content repository: the
// listing page, one page per post, and posts generated on demand.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/a-h/templ"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/eringen/blogfront/listing"
	"github.com/eringen/blogfront/localdate"
	"github.com/eringen/blogfront/post"
	"github.com/eringen/blogfront/prismic"
	"github.com/eringen/blogfront/views"
)

// ErrInvalidCursor is returned for a load-more cursor that is not the
// number of a listing page past the first.
var ErrInvalidCursor = errors.New("site: invalid page cursor")

// enumeratePageSize is the largest page the repository serves.
const enumeratePageSize = 100

// Repository is the subset of the content repository client the generator
// uses. *prismic.Client implements it.
type Repository interface {
	Endpoint() string
	ListByType(ctx context.Context, docType string, q prismic.Query) (*prismic.Response, error)
	GetByUID(ctx context.Context, docType, uid string) (*prismic.Document, error)
	FetchPage(ctx context.Context, pageURL string) (*prismic.Response, error)
}

// Config configures a Generator.
type Config struct {
	Site        views.SiteConfig
	Dates       *localdate.Formatter
	PageSize    int    // listing page size, default 20
	Concurrency int    // detail pages generated in parallel, default 4
	Orderings   string // repository orderings for listing queries, e.g. "[document.first_publication_date desc]"
	Log         *logrus.Entry
}

// Generator renders pages from repository data into a PageSet.
type Generator struct {
	repo        Repository
	site        views.SiteConfig
	dates       *localdate.Formatter
	pageSize    int
	concurrency int
	orderings   string
	log         *logrus.Entry

	pages *PageSet
	group singleflight.Group

	// catalog holds every post summary seen by the last path walk. Its
	// cursors are repository next_page links and never leave the server.
	catalog *listing.Feed

	mu   sync.RWMutex
	home listing.Page
}

// New returns a Generator reading from repo.
func New(repo Repository, cfg Config) (*Generator, error) {
	origin, err := url.Parse(repo.Endpoint())
	if err != nil || origin.Host == "" {
		return nil, fmt.Errorf("site: invalid repository endpoint %q", repo.Endpoint())
	}
	if cfg.Dates == nil {
		cfg.Dates, err = localdate.New(localdate.DefaultLocale, "")
		if err != nil {
			return nil, err
		}
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Log == nil {
		cfg.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Generator{
		repo:        repo,
		site:        cfg.Site,
		dates:       cfg.Dates,
		pageSize:    cfg.PageSize,
		concurrency: cfg.Concurrency,
		orderings:   cfg.Orderings,
		log:         cfg.Log.WithField("component", "site"),
		pages:       NewPageSet(),
		catalog:     listing.NewFeed(listing.Page{}),
	}, nil
}

// Pages returns the generated page set.
func (g *Generator) Pages() *PageSet {
	return g.pages
}

// Home returns the first listing page as of the last build.
func (g *Generator) Home() listing.Page {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.home
}

// Build generates the listing page and every known post. The first failure
// cancels the remaining work and is returned.
func (g *Generator) Build(ctx context.Context) error {
	_, err := g.generate(ctx, "build", false)
	return err
}

// Refresh regenerates the listing page and generates the posts that are not
// in the page set yet. It returns how many posts it generated.
func (g *Generator) Refresh(ctx context.Context) (int, error) {
	return g.generate(ctx, "refresh", true)
}

// Refreshing reports whether a path walk is fetching a page.
func (g *Generator) Refreshing() bool {
	return g.catalog.Loading()
}

func (g *Generator) generate(ctx context.Context, op string, onlyNew bool) (int, error) {
	home, err := g.HomeFeed(ctx)
	if err != nil {
		return 0, fmt.Errorf("site: %s home: %w", op, err)
	}
	if err := g.putHome(ctx, home); err != nil {
		return 0, fmt.Errorf("site: %s home: %w", op, err)
	}

	uids, err := g.Paths(ctx)
	if err != nil {
		return 0, fmt.Errorf("site: %s paths: %w", op, err)
	}
	if onlyNew {
		fresh := uids[:0]
		for _, uid := range uids {
			if _, ok := g.pages.Get(post.Link(uid)); !ok {
				fresh = append(fresh, uid)
			}
		}
		uids = fresh
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for _, uid := range uids {
		uid := uid
		eg.Go(func() error {
			if _, err := g.GeneratePost(egCtx, uid); err != nil {
				return fmt.Errorf("site: %s post %q: %w", op, uid, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}
	g.log.WithFields(logrus.Fields{
		"op":      op,
		"posts":   len(uids),
		"catalog": g.catalog.Len(),
		"pages":   g.pages.Len(),
	}).Info("site generated")
	return len(uids), nil
}

// HomeFeed fetches the first listing page.
func (g *Generator) HomeFeed(ctx context.Context) (listing.Page, error) {
	return g.listPage(ctx, 1)
}

// listPage fetches listing page n. Its cursor is the number of the page
// after it, so browsers never hold a repository query.
func (g *Generator) listPage(ctx context.Context, n int) (listing.Page, error) {
	resp, err := g.repo.ListByType(ctx, post.Type, prismic.Query{
		PageSize:  g.pageSize,
		Page:      n,
		Fetch:     post.SummaryFields,
		Orderings: g.orderings,
	})
	if err != nil {
		return listing.Page{}, err
	}
	summaries, err := post.SummariesFromDocuments(resp.Results, g.dates)
	if err != nil {
		return listing.Page{}, err
	}
	return listing.Page{NextPage: pageCursor(resp), Results: summaries}, nil
}

func (g *Generator) putHome(ctx context.Context, home listing.Page) error {
	html, err := render(ctx, views.Home(g.site, home.Results, home.NextPage))
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.home = home
	g.mu.Unlock()
	g.pages.Put(Page{Route: "/", HTML: html, Title: g.site.Name})
	return nil
}

// Paths lists the uid of every post in the repository. It walks the catalog
// from the first page, following next-page references until they run out.
// A walk started later supersedes one still fetching, which then fails with
// listing.ErrStaleResponse.
func (g *Generator) Paths(ctx context.Context) ([]string, error) {
	resp, err := g.repo.ListByType(ctx, post.Type, prismic.Query{
		PageSize:  enumeratePageSize,
		Fetch:     post.SummaryFields,
		Orderings: g.orderings,
	})
	if err != nil {
		return nil, err
	}
	first, err := g.catalogPage(resp)
	if err != nil {
		return nil, err
	}
	g.catalog.Reset(first)
	for g.catalog.HasMore() {
		if res := g.catalog.LoadMore(ctx, catalogPages{g}); !res.OK() {
			return nil, res.Err
		}
	}

	var uids []string
	for _, s := range g.catalog.Results() {
		if s.UID != "" {
			uids = append(uids, s.UID)
		}
	}
	return uids, nil
}

// catalogPages follows repository next_page links for the catalog walk.
type catalogPages struct {
	g *Generator
}

func (c catalogPages) FetchPage(ctx context.Context, next string) (listing.Page, error) {
	resp, err := c.g.repo.FetchPage(ctx, next)
	if err != nil {
		return listing.Page{}, err
	}
	return c.g.catalogPage(resp)
}

func (g *Generator) catalogPage(resp *prismic.Response) (listing.Page, error) {
	summaries, err := post.SummariesFromDocuments(resp.Results, g.dates)
	if err != nil {
		return listing.Page{}, err
	}
	return listing.Page{NextPage: resp.Next(), Results: summaries}, nil
}

// GeneratePost fetches and renders one post and stores it in the page set.
// A missing post yields prismic.ErrNotFound.
func (g *Generator) GeneratePost(ctx context.Context, uid string) (Page, error) {
	doc, err := g.repo.GetByUID(ctx, post.Type, uid)
	if err != nil {
		return Page{}, err
	}
	d, err := post.DetailFromDocument(*doc, g.dates)
	if err != nil {
		return Page{}, err
	}
	main, err := render(ctx, views.PostMain(d))
	if err != nil {
		return Page{}, err
	}
	html, err := render(ctx, views.Layout(g.site, views.PostMeta(g.site, d), templ.Raw(string(main))))
	if err != nil {
		return Page{}, err
	}
	p := Page{
		Route:    post.Link(uid),
		HTML:     html,
		Main:     main,
		Title:    d.Data.Title,
		Modified: d.PublishedAt,
	}
	g.pages.Put(p)
	return p, nil
}

// Post returns the generated page for uid, generating it on demand when it
// was not part of the build. Concurrent calls for the same uid share one
// generation.
func (g *Generator) Post(ctx context.Context, uid string) (Page, error) {
	if p, ok := g.pages.Get(post.Link(uid)); ok {
		return p, nil
	}
	v, err, shared := g.group.Do(uid, func() (any, error) {
		if p, ok := g.pages.Get(post.Link(uid)); ok {
			return p, nil
		}
		g.log.WithField("uid", uid).Debug("generating post on demand")
		return g.GeneratePost(context.WithoutCancel(ctx), uid)
	})
	if err != nil {
		return Page{}, err
	}
	if shared {
		g.log.WithField("uid", uid).Debug("joined in-flight generation")
	}
	return v.(Page), nil
}

// ValidateCursor reports whether cursor names a listing page a browser may
// ask for: a page number greater than one.
func (g *Generator) ValidateCursor(cursor string) error {
	_, err := parseCursor(cursor)
	return err
}

func parseCursor(cursor string) (int, error) {
	n, err := strconv.Atoi(cursor)
	if err != nil || n < 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCursor, cursor)
	}
	return n, nil
}

// FetchPage implements listing.PageFetcher over listing page numbers.
func (g *Generator) FetchPage(ctx context.Context, cursor string) (listing.Page, error) {
	n, err := parseCursor(cursor)
	if err != nil {
		return listing.Page{}, err
	}
	return g.listPage(ctx, n)
}

// LoadMore runs one load-more action for a client holding cursor.
func (g *Generator) LoadMore(ctx context.Context, cursor string) listing.LoadResult {
	res := listing.Fetch(ctx, g, cursor)
	if !res.OK() {
		g.log.WithError(res.Err).WithField("cursor", cursor).Warn("load more failed")
	}
	return res
}

// pageCursor is the number of the page after resp, or "" on the last page.
func pageCursor(resp *prismic.Response) string {
	next := resp.Next()
	if next == "" {
		return ""
	}
	if u, err := url.Parse(next); err == nil {
		if n, err := strconv.Atoi(u.Query().Get("page")); err == nil && n > 1 {
			return strconv.Itoa(n)
		}
	}
	return strconv.Itoa(max(resp.Page, 1) + 1)
}

func render(ctx context.Context, c templ.Component) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
