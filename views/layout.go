package views

import "github.com/a-h/templ"

// htmxSrc is loaded by every page; the load-more control and the fallback
// placeholder are driven by hx-* attributes.
const htmxSrc = "https://unpkg.com/htmx.org@1.9.12/dist/htmx.min.js"

// Layout wraps body in the document shell: head metadata, stylesheet,
// htmx and the site header.
func Layout(cfg SiteConfig, meta PageMeta, body templ.Component) templ.Component {
	return componentFunc(func(h *htmlWriter) {
		lang := cfg.Lang
		if lang == "" {
			lang = "pt-BR"
		}
		title := cfg.Name
		if meta.Title != "" && meta.Title != cfg.Name {
			title = meta.Title + " | " + cfg.Name
		}

		h.raw(`<!DOCTYPE html><html lang="`)
		h.text(lang)
		h.raw(`"><head><meta charset="utf-8"/><meta name="viewport" content="width=device-width, initial-scale=1"/><title>`)
		h.text(title)
		h.raw(`</title>`)
		if meta.Description != "" {
			h.raw(`<meta name="description" content="`)
			h.text(meta.Description)
			h.raw(`"/>`)
		}
		if meta.URL != "" {
			h.raw(`<link rel="canonical" href="`)
			h.text(meta.URL)
			h.raw(`"/><meta property="og:url" content="`)
			h.text(meta.URL)
			h.raw(`"/>`)
		}
		h.raw(`<meta property="og:title" content="`)
		h.text(title)
		h.raw(`"/>`)
		if meta.OGType != "" {
			h.raw(`<meta property="og:type" content="`)
			h.text(meta.OGType)
			h.raw(`"/>`)
		}
		if meta.Image != "" {
			h.raw(`<meta property="og:image" content="`)
			h.text(meta.Image)
			h.raw(`"/>`)
		}
		h.raw(`<link rel="stylesheet" href="/static/styles.css"/>`)
		h.raw(`<script src="`, htmxSrc, `" defer></script>`)
		h.raw(`<script src="/static/app.js" defer></script>`)
		if meta.JSONLD != "" {
			// json.Marshal escapes <, > and &, so the block cannot close the script tag.
			h.raw(`<script type="application/ld+json">`, meta.JSONLD, `</script>`)
		}
		h.raw(`</head><body>`)
		h.component(Header(cfg))
		h.component(body)
		h.raw(`</body></html>`)
	})
}

// Header is the site header with the home link.
func Header(cfg SiteConfig) templ.Component {
	return componentFunc(func(h *htmlWriter) {
		h.raw(`<header class="header"><div class="header-content"><a href="/" class="logo">`)
		h.text(cfg.Name)
		h.raw(`<span class="logo-dot">.</span></a></div></header>`)
	})
}
