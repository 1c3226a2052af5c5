package views

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/blogfront/post"
	"github.com/eringen/blogfront/richtext"
)

// Post renders the full detail page.
func Post(cfg SiteConfig, d post.Detail) templ.Component {
	return Layout(cfg, PostMeta(cfg, d), PostMain(d))
}

// PostMain is the detail body. It is also served alone as the fragment that
// replaces the loading placeholder.
func PostMain(d post.Detail) templ.Component {
	return componentFunc(func(h *htmlWriter) {
		h.raw(`<main class="post" id="post">`)
		if d.Data.Banner.URL != "" {
			alt := d.Data.Banner.Alt
			if alt == "" {
				alt = labelBannerAlt
			}
			// SafeURL returns the value already escaped for the attribute.
			h.raw(`<img class="banner" src="`, richtext.SafeURL(d.Data.Banner.URL), `" alt="`)
			h.text(alt)
			h.raw(`"/>`)
		}
		h.raw(`<article class="container"><h1>`)
		h.text(d.Data.Title)
		h.raw(`</h1><ul class="info">`)
		if d.FirstPublicationDate != "" {
			h.raw(`<li>`, iconCalendar, `<time`)
			if d.PublishedAt != nil {
				h.raw(` datetime="`, d.PublishedAt.UTC().Format("2006-01-02"), `"`)
			}
			h.raw(`>`)
			h.text(d.FirstPublicationDate)
			h.raw(`</time></li>`)
		}
		h.raw(`<li>`, iconUser, `<span>`)
		h.text(d.Data.Author)
		h.raw(`</span></li><li>`, iconClock, `<span>`)
		h.text(strconv.Itoa(d.ReadingTime()) + " " + labelReadingTime)
		h.raw(`</span></li></ul>`)
		for _, s := range d.Data.Content {
			h.raw(`<section class="post-content">`)
			if s.Heading != "" {
				h.raw(`<h2>`)
				h.text(s.Heading)
				h.raw(`</h2>`)
			}
			h.raw(`<div class="post-body">`)
			h.component(richtext.Component(s.Body))
			h.raw(`</div></section>`)
		}
		h.raw(`</article></main>`)
	})
}

// Loading renders the placeholder page served while a post that was not
// prebuilt is generated. htmx swaps it for the post fragment on load.
func Loading(cfg SiteConfig, uid string) templ.Component {
	meta := PageMeta{Title: labelLoading, URL: PostURL(cfg, uid)}
	return Layout(cfg, meta, componentFunc(func(h *htmlWriter) {
		h.raw(`<main class="post loading" id="post" hx-get="`)
		h.text(PartialURL(uid))
		h.raw(`" hx-trigger="load" hx-swap="outerHTML"><h1>`)
		h.text(labelLoading)
		h.raw(`</h1></main>`)
	}))
}
