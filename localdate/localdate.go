// Package localdate formats publication timestamps as localized
// day-month-year strings such as "15 mar 2021".
package localdate

import (
	"fmt"
	"strings"
	"time"

	"github.com/goodsign/monday"
	"golang.org/x/text/language"
)

// Layout is dd MMM yyyy.
const Layout = "02 Jan 2006"

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "pt-BR"

// timestampLayouts are tried in order. Prismic emits "+0000" offsets
// without a colon, which RFC 3339 parsing rejects.
var timestampLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02",
}

var supported = []struct {
	tag    language.Tag
	locale monday.Locale
}{
	// The first entry is the matcher's fallback.
	{language.BrazilianPortuguese, monday.LocalePtBR},
	{language.EuropeanPortuguese, monday.LocalePtPT},
	{language.AmericanEnglish, monday.LocaleEnUS},
	{language.BritishEnglish, monday.LocaleEnGB},
	{language.Spanish, monday.LocaleEsES},
	{language.French, monday.LocaleFrFR},
	{language.German, monday.LocaleDeDE},
	{language.Italian, monday.LocaleItIT},
	{language.Dutch, monday.LocaleNlNL},
	{language.Russian, monday.LocaleRuRU},
}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, len(supported))
	for i, s := range supported {
		tags[i] = s.tag
	}
	return language.NewMatcher(tags)
}()

// Formatter renders times in one locale and time zone.
type Formatter struct {
	locale monday.Locale
	loc    *time.Location
}

// New returns a Formatter for the BCP 47 locale (e.g. "pt-BR") and IANA
// time zone (e.g. "America/Sao_Paulo"). Empty values select DefaultLocale
// and UTC. Unsupported locales fall back to the closest supported one.
func New(locale, timeZone string) (*Formatter, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return nil, fmt.Errorf("localdate: parse locale %q: %w", locale, err)
	}
	_, idx, _ := matcher.Match(tag)

	loc := time.UTC
	if timeZone != "" {
		loc, err = time.LoadLocation(timeZone)
		if err != nil {
			return nil, fmt.Errorf("localdate: load time zone %q: %w", timeZone, err)
		}
	}
	return &Formatter{locale: supported[idx].locale, loc: loc}, nil
}

// Locale returns the monday locale in use.
func (f *Formatter) Locale() monday.Locale {
	return f.locale
}

// Format renders t as dd MMM yyyy in the formatter's locale. Portuguese
// month abbreviations are always lower case ("mar", not "Mar").
func (f *Formatter) Format(t time.Time) string {
	s := monday.Format(t.In(f.loc), Layout, f.locale)
	if f.locale == monday.LocalePtBR || f.locale == monday.LocalePtPT {
		s = strings.ToLower(s)
	}
	return s
}

// FormatTimestamp parses and formats a nullable repository timestamp. A nil
// or empty timestamp yields "".
func (f *Formatter) FormatTimestamp(raw *string) (string, error) {
	t, err := ParseTimestamp(raw)
	if err != nil || t == nil {
		return "", err
	}
	return f.Format(*t), nil
}

// ParseTimestamp parses a nullable repository timestamp.
func ParseTimestamp(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, *raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("localdate: unrecognized timestamp %q", *raw)
}
