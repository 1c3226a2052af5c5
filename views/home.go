package views

import (
	"github.com/a-h/templ"

	"github.com/eringen/blogfront/post"
)

// Home renders the listing page: the first batch of summaries and, when a
// next page exists, the load-more control.
func Home(cfg SiteConfig, items []post.Summary, next string) templ.Component {
	return Layout(cfg, HomeMeta(cfg), HomeMain(items, next))
}

// HomeMain is the listing body without the document shell.
func HomeMain(items []post.Summary, next string) templ.Component {
	return componentFunc(func(h *htmlWriter) {
		h.raw(`<main class="container posts-page"><div class="posts" id="posts">`)
		h.component(PostItems(items))
		h.raw(`</div>`)
		h.component(LoadMore(next))
		h.raw(`</main>`)
	})
}

// PostItems renders summaries in order.
func PostItems(items []post.Summary) templ.Component {
	return componentFunc(func(h *htmlWriter) {
		for _, s := range items {
			h.component(PostItem(s))
		}
	})
}

// PostItem renders one summary linking to its detail page.
func PostItem(s post.Summary) templ.Component {
	return componentFunc(func(h *htmlWriter) {
		h.raw(`<a class="post-item" href="`)
		h.text(s.Link())
		h.raw(`"><strong>`)
		h.text(s.Data.Title)
		h.raw(`</strong><p>`)
		h.text(s.Data.Subtitle)
		h.raw(`</p><ul class="info">`)
		if s.FirstPublicationDate != "" {
			h.raw(`<li>`, iconCalendar, `<time`)
			if s.PublishedAt != nil {
				h.raw(` datetime="`, s.PublishedAt.UTC().Format("2006-01-02"), `"`)
			}
			h.raw(`>`)
			h.text(s.FirstPublicationDate)
			h.raw(`</time></li>`)
		}
		h.raw(`<li>`, iconUser, `<span>`)
		h.text(s.Data.Author)
		h.raw(`</span></li></ul></a>`)
	})
}

// LoadMore renders the load-more control for next. It renders nothing when
// there is no next page. htmx drops clicks while a request is outstanding
// and disables the button for its duration.
func LoadMore(next string) templ.Component {
	return loadMore(next, false)
}

// LoadMoreRetry renders the control after a failed load: the already shown
// list is left as is and the button retries the same cursor.
func LoadMoreRetry(next string) templ.Component {
	return loadMore(next, true)
}

func loadMore(next string, failed bool) templ.Component {
	return componentFunc(func(h *htmlWriter) {
		if next == "" {
			return
		}
		h.raw(`<div id="load-more" class="load-more">`)
		if failed {
			h.raw(`<p class="load-more-error" role="alert">`)
			h.text(labelLoadFailed)
			h.raw(`</p>`)
		}
		h.raw(`<button type="button" hx-get="`)
		h.text(MoreURL(next))
		h.raw(`" hx-target="#load-more" hx-swap="outerHTML" hx-sync="this:drop" hx-disabled-elt="this">`)
		if failed {
			h.text(labelRetry)
		} else {
			h.text(labelLoadMore)
		}
		h.raw(`<span class="htmx-indicator">`)
		h.text(labelLoading)
		h.raw(`</span></button></div>`)
	})
}

// MoreResponse is the load-more fragment: the new summaries appended to
// #posts out of band, followed by the replacement control.
func MoreResponse(items []post.Summary, next string) templ.Component {
	return componentFunc(func(h *htmlWriter) {
		h.raw(`<div id="posts" hx-swap-oob="beforeend">`)
		h.component(PostItems(items))
		h.raw(`</div>`)
		h.component(LoadMore(next))
	})
}
