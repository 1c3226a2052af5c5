package richtext

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// policy is bluemonday's UGC policy plus what rendered rich text needs:
// label classes, image block wrappers, and oEmbed iframes.
var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[\w\- ]*$`)).OnElements("span", "p")
	p.AllowAttrs("loading").Matching(regexp.MustCompile(`^(lazy|eager)$`)).OnElements("img")
	p.AllowAttrs("data-oembed", "data-oembed-type").OnElements("div")
	p.AllowElements("iframe")
	p.AllowAttrs("width", "height").Matching(bluemonday.NumberOrPercent).OnElements("iframe")
	p.AllowAttrs("title", "allow", "allowfullscreen", "frameborder").OnElements("iframe")
	p.AllowAttrs("src").Matching(regexp.MustCompile(`^https://`)).OnElements("iframe")
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_(blank|self)$`)).OnElements("a")
	return p
}
