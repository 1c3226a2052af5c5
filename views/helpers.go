package views

import (
	"encoding/json"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/eringen/blogfront/post"
	"github.com/eringen/blogfront/richtext"
)

// buildURL joins path segments onto a base URL, ensuring a trailing slash.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// PostURL is the canonical absolute URL of a post.
func PostURL(cfg SiteConfig, uid string) string {
	return buildURL(cfg.URL, "post", uid)
}

// MoreURL is the load-more endpoint for a next-page reference.
func MoreURL(next string) string {
	return "/posts/more/?page=" + url.QueryEscape(next)
}

// PartialURL is the on-demand fragment endpoint for a post.
func PartialURL(uid string) string {
	return "/post/" + url.PathEscape(uid) + "/?partial=post"
}

// HomeMeta builds the listing page metadata.
func HomeMeta(cfg SiteConfig) PageMeta {
	return PageMeta{
		Title:       cfg.Name,
		Description: cfg.Description,
		URL:         buildURL(cfg.URL),
		OGType:      "website",
		JSONLD:      WebsiteJsonLD(cfg),
	}
}

// PostMeta builds the detail page metadata.
func PostMeta(cfg SiteConfig, d post.Detail) PageMeta {
	return PageMeta{
		Title:       d.Data.Title,
		Description: excerpt(d, 160),
		URL:         PostURL(cfg, d.UID),
		OGType:      "article",
		Image:       d.Data.Banner.URL,
		JSONLD:      BlogPostingJsonLD(cfg, d),
	}
}

// excerpt returns up to max runes of the post's first body text.
func excerpt(d post.Detail, max int) string {
	for _, s := range d.Data.Content {
		text := strings.TrimSpace(richtext.AsText(s.Body, " "))
		if text == "" {
			continue
		}
		r := []rune(text)
		if len(r) > max {
			return strings.TrimSpace(string(r[:max-1])) + "…"
		}
		return text
	}
	return ""
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block using cfg values.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      buildURL(cfg.URL),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJsonLD(cfg SiteConfig, d post.Detail) string {
	postURL := PostURL(cfg, d.UID)
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "BlogPosting",
		"headline": d.Data.Title,
		"url":      postURL,
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	data["timeRequired"] = "PT" + strconv.Itoa(d.ReadingTime()) + "M"
	if d.PublishedAt != nil {
		data["datePublished"] = d.PublishedAt.Format("2006-01-02")
	}
	if d.Data.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  d.Data.Author,
		}
	}
	if d.Data.Banner.URL != "" {
		data["image"] = d.Data.Banner.URL
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
