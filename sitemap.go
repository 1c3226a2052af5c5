package blogfront

import (
	"bytes"
	"encoding/xml"
	"strings"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// sitemapXML lists every generated route, including posts generated on
// demand since start-up.
func (a *App) sitemapXML() ([]byte, error) {
	base := a.Config.URL
	pages := a.Site.Pages().Pages()
	urls := make([]sitemapURL, 0, len(pages))
	for _, p := range pages {
		u := sitemapURL{Loc: BuildURL(base, p.Route)}
		if p.Modified != nil {
			u.LastMod = p.Modified.UTC().Format("2006-01-02")
		}
		urls = append(urls, u)
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(sitemap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *App) robotsTxt() string {
	sitemap := strings.TrimSuffix(BuildURL(a.Config.URL, "sitemap.xml"), "/")
	return "User-agent: *\nAllow: /\n\nSitemap: " + sitemap + "\n"
}
