// Package richtext renders Prismic structured text as HTML, either as a
// string or as a templ.Component.
package richtext

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/a-h/templ"
)

// Block types.
const (
	Heading1     = "heading1"
	Heading2     = "heading2"
	Heading3     = "heading3"
	Heading4     = "heading4"
	Heading5     = "heading5"
	Heading6     = "heading6"
	Paragraph    = "paragraph"
	Preformatted = "preformatted"
	ListItem     = "list-item"
	OListItem    = "o-list-item"
	Image        = "image"
	Embed        = "embed"
)

// Span types.
const (
	Strong    = "strong"
	Em        = "em"
	Hyperlink = "hyperlink"
	Label     = "label"
)

// RichText is an ordered sequence of blocks.
type RichText []Block

// Block is one structured-text block. Text-bearing blocks use Text and
// Spans; image blocks use URL/Alt/Dimensions; embed blocks use Oembed.
type Block struct {
	Type       string      `json:"type"`
	Text       string      `json:"text"`
	Spans      []Span      `json:"spans"`
	URL        string      `json:"url,omitempty"`
	Alt        string      `json:"alt,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	Oembed     *Oembed     `json:"oembed,omitempty"`
	Label      string      `json:"label,omitempty"`
}

// Span marks a formatted range of a block's text. Start and End are offsets
// in UTF-16 code units.
type Span struct {
	Start int       `json:"start"`
	End   int       `json:"end"`
	Type  string    `json:"type"`
	Data  *SpanData `json:"data,omitempty"`
}

// SpanData carries link targets and label names.
type SpanData struct {
	LinkType string `json:"link_type,omitempty"`
	URL      string `json:"url,omitempty"`
	Target   string `json:"target,omitempty"`
	ID       string `json:"id,omitempty"`
	UID      string `json:"uid,omitempty"`
	Type     string `json:"type,omitempty"`
	Label    string `json:"label,omitempty"`
}

// Dimensions of an image block.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Oembed is the provider payload of an embed block.
type Oembed struct {
	Type        string `json:"type"`
	EmbedURL    string `json:"embed_url"`
	HTML        string `json:"html"`
	Title       string `json:"title,omitempty"`
	ProviderURL string `json:"provider_url,omitempty"`
}

// LinkResolver turns a hyperlink span into an href. An empty result renders
// the span's text without a link.
type LinkResolver func(SpanData) string

// DefaultResolver links documents of type "posts" to /post/{uid}/ and
// web/media links to their URL.
func DefaultResolver(d SpanData) string {
	switch d.LinkType {
	case "Document":
		if d.Type == "posts" && d.UID != "" {
			return "/post/" + url.PathEscape(d.UID) + "/"
		}
		return ""
	default:
		return d.URL
	}
}

// Component returns a templ.Component that renders rt as sanitized HTML.
func Component(rt RichText) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, AsHTML(rt, DefaultResolver))
		return err
	})
}

// AsHTML renders rt and sanitizes the result.
func AsHTML(rt RichText, resolve LinkResolver) string {
	var buf bytes.Buffer
	Render(&buf, rt, resolve)
	return policy.Sanitize(buf.String())
}

// AsText joins the text of every block with sep.
func AsText(rt RichText, sep string) string {
	parts := make([]string, 0, len(rt))
	for _, b := range rt {
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, sep)
}

// Render writes the unsanitized HTML representation of rt to buf.
// Consecutive list items are grouped into a single <ul> or <ol>.
func Render(buf *bytes.Buffer, rt RichText, resolve LinkResolver) {
	if resolve == nil {
		resolve = DefaultResolver
	}
	inList := false
	inOrderedList := false

	flushList := func() {
		if inList {
			buf.WriteString("</ul>")
			inList = false
		}
	}
	flushOrderedList := func() {
		if inOrderedList {
			buf.WriteString("</ol>")
			inOrderedList = false
		}
	}

	for _, b := range rt {
		switch b.Type {
		case ListItem:
			flushOrderedList()
			if !inList {
				buf.WriteString("<ul>")
				inList = true
			}
			buf.WriteString("<li>")
			buf.WriteString(FormatSpans(b.Text, b.Spans, resolve, true))
			buf.WriteString("</li>")
		case OListItem:
			flushList()
			if !inOrderedList {
				buf.WriteString("<ol>")
				inOrderedList = true
			}
			buf.WriteString("<li>")
			buf.WriteString(FormatSpans(b.Text, b.Spans, resolve, true))
			buf.WriteString("</li>")
		default:
			flushList()
			flushOrderedList()
			writeBlock(buf, b, resolve)
		}
	}
	flushList()
	flushOrderedList()
}

func writeBlock(buf *bytes.Buffer, b Block, resolve LinkResolver) {
	switch b.Type {
	case Heading1, Heading2, Heading3, Heading4, Heading5, Heading6:
		tag := "h" + b.Type[len(b.Type)-1:]
		buf.WriteString("<" + tag + ">")
		buf.WriteString(FormatSpans(b.Text, b.Spans, resolve, true))
		buf.WriteString("</" + tag + ">")
	case Paragraph:
		buf.WriteString("<p>")
		buf.WriteString(FormatSpans(b.Text, b.Spans, resolve, true))
		buf.WriteString("</p>")
	case Preformatted:
		buf.WriteString("<pre>")
		buf.WriteString(FormatSpans(b.Text, b.Spans, resolve, false))
		buf.WriteString("</pre>")
	case Image:
		src := SafeURL(b.URL)
		if src == "" {
			return
		}
		buf.WriteString(`<p class="block-img"><img src="` + src + `" alt="` + html.EscapeString(b.Alt) + `"`)
		if b.Dimensions != nil && b.Dimensions.Width > 0 && b.Dimensions.Height > 0 {
			buf.WriteString(` width="` + strconv.Itoa(b.Dimensions.Width) + `" height="` + strconv.Itoa(b.Dimensions.Height) + `"`)
		}
		buf.WriteString(` loading="lazy" /></p>`)
	case Embed:
		if b.Oembed == nil {
			return
		}
		buf.WriteString(`<div data-oembed="` + SafeURL(b.Oembed.EmbedURL) + `" data-oembed-type="` + html.EscapeString(b.Oembed.Type) + `">`)
		buf.WriteString(b.Oembed.HTML)
		buf.WriteString("</div>")
	}
}

// FormatSpans escapes text and wraps the ranges covered by spans in their
// tags. Overlapping spans are closed and reopened at each boundary so the
// output is always well nested. With breaks set, newlines become <br />.
func FormatSpans(text string, spans []Span, resolve LinkResolver, breaks bool) string {
	units := utf16.Encode([]rune(text))
	n := len(units)

	valid := make([]Span, 0, len(spans))
	for _, s := range spans {
		s.Start = clamp(s.Start, 0, n)
		s.End = clamp(s.End, 0, n)
		if s.Start < s.End {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return escapeText(text, breaks)
	}
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Start != valid[j].Start {
			return valid[i].Start < valid[j].Start
		}
		return valid[i].End > valid[j].End
	})

	bounds := []int{0, n}
	for _, s := range valid {
		bounds = append(bounds, s.Start, s.End)
	}
	sort.Ints(bounds)
	bounds = uniqueInts(bounds)

	var out strings.Builder
	var open []int // indexes into valid, outermost first
	for i := 0; i+1 < len(bounds); i++ {
		from, to := bounds[i], bounds[i+1]

		var active []int
		for j, s := range valid {
			if s.Start <= from && s.End >= to {
				active = append(active, j)
			}
		}

		common := 0
		for common < len(open) && common < len(active) && open[common] == active[common] {
			common++
		}
		for k := len(open) - 1; k >= common; k-- {
			out.WriteString(closeTag(valid[open[k]], resolve))
		}
		for _, j := range active[common:] {
			out.WriteString(openTag(valid[j], resolve))
		}
		open = active

		out.WriteString(escapeText(string(utf16.Decode(units[from:to])), breaks))
	}
	for k := len(open) - 1; k >= 0; k-- {
		out.WriteString(closeTag(valid[open[k]], resolve))
	}
	return out.String()
}

func openTag(s Span, resolve LinkResolver) string {
	switch s.Type {
	case Strong:
		return "<strong>"
	case Em:
		return "<em>"
	case Hyperlink:
		href := linkHref(s, resolve)
		if href == "" {
			return ""
		}
		attrs := `href="` + href + `"`
		if s.Data.Target != "" {
			attrs += ` target="` + html.EscapeString(s.Data.Target) + `" rel="noopener noreferrer"`
		}
		return "<a " + attrs + ">"
	case Label:
		name := ""
		if s.Data != nil {
			name = s.Data.Label
		}
		return `<span class="` + html.EscapeString(name) + `">`
	}
	return ""
}

func closeTag(s Span, resolve LinkResolver) string {
	switch s.Type {
	case Strong:
		return "</strong>"
	case Em:
		return "</em>"
	case Hyperlink:
		if linkHref(s, resolve) == "" {
			return ""
		}
		return "</a>"
	case Label:
		return "</span>"
	}
	return ""
}

func linkHref(s Span, resolve LinkResolver) string {
	if s.Data == nil {
		return ""
	}
	return SafeURL(resolve(*s.Data))
}

func escapeText(s string, breaks bool) string {
	s = html.EscapeString(s)
	if breaks {
		s = strings.ReplaceAll(s, "\n", "<br />")
	}
	return s
}

// SafeURL validates and escapes a URL for use in an HTML attribute. Only
// relative paths and http(s)/mailto/tel URLs survive.
func SafeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if (strings.HasPrefix(val, "/") && !strings.HasPrefix(val, "//")) || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func uniqueInts(s []int) []int {
	out := s[:0]
	for i, v := range s {
		if i == 0 || v != s[i-1] {
			out = append(out, v)
		}
	}
	return out
}
