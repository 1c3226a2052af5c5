package blogfront

import (
	"bytes"
	"encoding/xml"
	"time"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language,omitempty"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate,omitempty"`
	GUID        string `xml:"guid"`
}

// feedXML renders an RSS 2.0 feed over the first listing page.
func (a *App) feedXML() ([]byte, error) {
	base := a.Config.URL
	home := a.Site.Home()
	items := make([]rssItem, 0, len(home.Results))
	for _, s := range home.Results {
		pubDate := ""
		if s.PublishedAt != nil {
			pubDate = s.PublishedAt.UTC().Format(time.RFC1123Z)
		}
		postURL := BuildURL(base, "post", s.UID)
		items = append(items, rssItem{
			Title:       s.Data.Title,
			Link:        postURL,
			Description: s.Data.Subtitle,
			PubDate:     pubDate,
			GUID:        postURL,
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        BuildURL(base),
			Description: a.Config.Description,
			Language:    a.Config.Locale,
			Items:       items,
		},
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(feed); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
