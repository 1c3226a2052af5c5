package views

import "github.com/a-h/templ"

// NotFound renders the 404 page.
func NotFound(cfg SiteConfig) templ.Component {
	return Layout(cfg, PageMeta{Title: labelNotFound}, errorMain("404", labelNotFound))
}

// ServerError renders the 500 page.
func ServerError(cfg SiteConfig) templ.Component {
	return Layout(cfg, PageMeta{Title: labelServerError}, errorMain("500", labelServerError))
}

// NotFoundFragment is the 404 body without the document shell, returned to
// htmx requests.
func NotFoundFragment() templ.Component {
	return errorMain("404", labelNotFound)
}

// ServerErrorFragment is the 500 body without the document shell.
func ServerErrorFragment() templ.Component {
	return errorMain("500", labelServerError)
}

// PostUnavailable replaces the loading placeholder when a post could not be
// generated right now. Its button asks for the fragment again.
func PostUnavailable(uid string) templ.Component {
	return componentFunc(func(h *htmlWriter) {
		h.raw(`<main class="post unavailable" id="post"><p class="load-more-error" role="alert">`)
		h.text(labelPostUnavailable)
		h.raw(`</p><button type="button" hx-get="`)
		h.text(PartialURL(uid))
		h.raw(`" hx-target="#post" hx-swap="outerHTML" hx-disabled-elt="this">`)
		h.text(labelRetry)
		h.raw(`</button></main>`)
	})
}

func errorMain(code, message string) templ.Component {
	return componentFunc(func(h *htmlWriter) {
		h.raw(`<main class="container error-page" id="post"><h1>`)
		h.text(code)
		h.raw(`</h1><p>`)
		h.text(message)
		h.raw(`</p><a href="/">`)
		h.text(labelBackHome)
		h.raw(`</a></main>`)
	})
}
