package site

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/blogfront/listing"
	"github.com/eringen/blogfront/prismic"
	"github.com/eringen/blogfront/prismic/prismictest"
	"github.com/eringen/blogfront/views"
)

var testSite = views.SiteConfig{Name: "spacetraveling", URL: "https://blog.example.com", Lang: "pt-BR"}

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newGenerator(t *testing.T, repo Repository) *Generator {
	t.Helper()
	g, err := New(repo, Config{Site: testSite, PageSize: 20, Log: quietLog()})
	require.NoError(t, err)
	return g
}

func TestBuildGeneratesHomeAndPosts(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(25)...)
	g := newGenerator(t, srv.Client())

	require.NoError(t, g.Build(context.Background()))

	assert.Equal(t, 1+25, g.Pages().Len())
	home, ok := g.Pages().Get("/")
	require.True(t, ok)
	assert.Contains(t, string(home.HTML), `href="/post/post-1/"`)
	assert.Contains(t, string(home.HTML), "01 mar 2021")
	assert.Contains(t, string(home.HTML), `id="load-more"`)
	assert.NotContains(t, string(home.HTML), `href="/post/post-21/"`, "page 1 holds 20 posts")

	assert.Len(t, g.Home().Results, 20)
	assert.Equal(t, "2", g.Home().NextPage)

	p, ok := g.Pages().Get("/post/post-25/")
	require.True(t, ok)
	assert.Equal(t, "Post 25", p.Title)
	require.NotNil(t, p.Modified)
	assert.Contains(t, string(p.HTML), string(p.Main))
	assert.Contains(t, string(p.Main), "<h1>Post 25</h1>")
}

func TestBuildHomeWithoutNextPage(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(3)...)
	g := newGenerator(t, srv.Client())
	require.NoError(t, g.Build(context.Background()))

	home, _ := g.Pages().Get("/")
	assert.NotContains(t, string(home.HTML), `id="load-more"`)
	assert.Empty(t, g.Home().NextPage)
}

func TestBuildFailsOnUpstreamError(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(3)...)
	srv.FailWith(500)
	g := newGenerator(t, srv.Client())

	err := g.Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "site: build home")
	var apiErr *prismic.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 500, apiErr.StatusCode)
}

func TestPathsFollowsNextPage(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(130)...)
	g := newGenerator(t, srv.Client())

	uids, err := g.Paths(context.Background())
	require.NoError(t, err)
	require.Len(t, uids, 130)
	assert.Equal(t, "post-1", uids[0])
	assert.Equal(t, "post-130", uids[129])
	assert.EqualValues(t, 2, srv.Searches.Load())
}

func TestFallbackMatchesPrebuiltMarkup(t *testing.T) {
	doc := prismictest.Post("late", "2021-04-01T10:00:00+0000", "Chegou depois", "sub", "Ana",
		prismictest.Section("Um", "primeiro parágrafo"),
		prismictest.Section("Dois", "segundo parágrafo"),
	)

	prebuiltSrv := prismictest.NewServer(t, doc)
	prebuilt := newGenerator(t, prebuiltSrv.Client())
	require.NoError(t, prebuilt.Build(context.Background()))
	want, ok := prebuilt.Pages().Get("/post/late/")
	require.True(t, ok)

	srv := prismictest.NewServer(t)
	g := newGenerator(t, srv.Client())
	require.NoError(t, g.Build(context.Background()))
	_, ok = g.Pages().Get("/post/late/")
	require.False(t, ok)

	srv.Add(doc)
	got, err := g.Post(context.Background(), "late")
	require.NoError(t, err)
	assert.Equal(t, string(want.Main), string(got.Main))
	assert.Equal(t, string(want.HTML), string(got.HTML))

	searches := srv.Searches.Load()
	again, err := g.Post(context.Background(), "late")
	require.NoError(t, err)
	assert.Equal(t, got.Main, again.Main)
	assert.Equal(t, searches, srv.Searches.Load(), "generated page is served without refetching")
}

func TestPostConcurrentCallsAgree(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(1)...)
	g := newGenerator(t, srv.Client())

	var wg sync.WaitGroup
	results := make([]Page, 8)
	errs := make([]error, 8)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = g.Post(context.Background(), "post-1")
		}()
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].Main, results[i].Main)
	}
	assert.Equal(t, 1, g.Pages().Len())
}

func TestPostNotFound(t *testing.T) {
	srv := prismictest.NewServer(t)
	g := newGenerator(t, srv.Client())

	_, err := g.Post(context.Background(), "missing")
	assert.ErrorIs(t, err, prismic.ErrNotFound)
	assert.Equal(t, 0, g.Pages().Len())
}

func TestLoadMoreAppendsPages(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(45)...)
	g := newGenerator(t, srv.Client())

	home, err := g.HomeFeed(context.Background())
	require.NoError(t, err)
	require.Len(t, home.Results, 20)

	second := g.LoadMore(context.Background(), home.NextPage)
	require.True(t, second.OK(), second.Err)
	require.Len(t, second.Appended, 20)
	assert.Equal(t, "post-21", second.Appended[0].UID)
	assert.Equal(t, "21 mar 2021", second.Appended[0].FirstPublicationDate)

	third := g.LoadMore(context.Background(), second.NextPage)
	require.True(t, third.OK(), third.Err)
	assert.Len(t, third.Appended, 5)
	assert.Empty(t, third.NextPage)
	assert.Equal(t, 45, len(home.Results)+len(second.Appended)+len(third.Appended))
}

func TestLoadMoreRejectsInvalidCursor(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(3)...)
	g := newGenerator(t, srv.Client())

	res := g.LoadMore(context.Background(), "")
	assert.ErrorIs(t, res.Err, listing.ErrNoMorePages)

	for _, cursor := range []string{
		"0",
		"1",
		"-2",
		"2.5",
		"next",
		srv.Endpoint() + `/documents/search?ref=master-ref&q=[[at(document.type,"drafts")]]`,
		"https://evil.example.com/api/v2/documents/search?page=2",
	} {
		res := g.LoadMore(context.Background(), cursor)
		assert.ErrorIs(t, res.Err, ErrInvalidCursor, cursor)
		assert.Equal(t, cursor, res.NextPage)
	}
	assert.Zero(t, srv.Searches.Load())
}

func TestCursorIsPageNumber(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(30)...)
	g := newGenerator(t, srv.Client(prismic.WithAccessToken("s3cret")))

	home, err := g.HomeFeed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2", home.NextPage)

	res := g.LoadMore(context.Background(), home.NextPage)
	require.True(t, res.OK(), res.Err)
	assert.Len(t, res.Appended, 10)
	assert.Equal(t, "post-21", res.Appended[0].UID)
	assert.Empty(t, res.NextPage)
}

func TestListingOrderings(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(3)...)
	g, err := New(srv.Client(), Config{
		Site:      testSite,
		Orderings: "[document.first_publication_date desc]",
		Log:       quietLog(),
	})
	require.NoError(t, err)

	home, err := g.HomeFeed(context.Background())
	require.NoError(t, err)
	require.Len(t, home.Results, 3)
	assert.Equal(t, "post-3", home.Results[0].UID)
	assert.Equal(t, "post-1", home.Results[2].UID)
}

func TestRefreshGeneratesNewPosts(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(3)...)
	g := newGenerator(t, srv.Client())
	require.NoError(t, g.Build(context.Background()))

	srv.Add(prismictest.Post("late", "2021-04-01T10:00:00+0000", "Chegou depois", "sub", "Ana",
		prismictest.Section("Um", "texto")))

	n, err := g.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, ok := g.Pages().Get("/post/late/")
	assert.True(t, ok)
	home, _ := g.Pages().Get("/")
	assert.Contains(t, string(home.HTML), `href="/post/late/"`)

	n, err = g.Refresh(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1+4, g.Pages().Len())
}

// gatedRepo blocks the first next-page fetch until release is closed.
type gatedRepo struct {
	*prismic.Client
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (r *gatedRepo) FetchPage(ctx context.Context, pageURL string) (*prismic.Response, error) {
	first := false
	r.once.Do(func() { first = true })
	if first {
		close(r.entered)
		<-r.release
	}
	return r.Client.FetchPage(ctx, pageURL)
}

func TestPathsLaterWalkSupersedesEarlier(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(130)...)
	repo := &gatedRepo{Client: srv.Client(), entered: make(chan struct{}), release: make(chan struct{})}
	g := newGenerator(t, repo)

	errCh := make(chan error, 1)
	go func() {
		_, err := g.Paths(context.Background())
		errCh <- err
	}()
	<-repo.entered
	assert.True(t, g.Refreshing())

	uids, err := g.Paths(context.Background())
	require.NoError(t, err)
	assert.Len(t, uids, 130)

	close(repo.release)
	assert.ErrorIs(t, <-errCh, listing.ErrStaleResponse)
	assert.False(t, g.Refreshing())
}

func TestExport(t *testing.T) {
	srv := prismictest.NewServer(t, prismictest.Posts(2)...)
	g := newGenerator(t, srv.Client())
	require.NoError(t, g.Build(context.Background()))

	dir := t.TempDir()
	n, err := g.Export(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	index, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(index), "<!DOCTYPE html>"))

	_, err = os.Stat(filepath.Join(dir, "post", "post-2", "index.html"))
	assert.NoError(t, err)
}

func TestNewRejectsRelativeEndpoint(t *testing.T) {
	_, err := New(prismic.New("/api/v2"), Config{})
	assert.Error(t, err)
}
