package blogfront

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/eringen/blogfront/site"
)

// Export writes a static snapshot of the built site to dir: every generated
// page, sitemap.xml, feed.xml, robots.txt, and the static assets. The
// snapshot has no load-more endpoint.
func (a *App) Export(dir string) error {
	if a.Site == nil {
		return fmt.Errorf("blogfront: export before build")
	}
	pages, err := a.Site.Export(dir)
	if err != nil {
		return err
	}

	sitemap, err := a.sitemapXML()
	if err != nil {
		return fmt.Errorf("blogfront: export sitemap: %w", err)
	}
	feed, err := a.feedXML()
	if err != nil {
		return fmt.Errorf("blogfront: export feed: %w", err)
	}
	files := map[string][]byte{
		"sitemap.xml": sitemap,
		"feed.xml":    feed,
		"robots.txt":  []byte(a.robotsTxt()),
	}
	err = fs.WalkDir(StaticAssets, "static", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := fs.ReadFile(StaticAssets, path)
		if err != nil {
			return err
		}
		files[path] = b
		return nil
	})
	if err != nil {
		return fmt.Errorf("blogfront: export assets: %w", err)
	}

	for name, b := range files {
		if err := site.WriteFile(filepath.Join(dir, filepath.FromSlash(name)), b); err != nil {
			return fmt.Errorf("blogfront: export %s: %w", name, err)
		}
	}
	a.component("app").WithFields(logrus.Fields{
		"dir":   dir,
		"pages": pages,
		"files": len(files),
	}).Info("export complete")
	return nil
}
