package blogfront

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/eringen/blogfront/site"
)

// SiteConfig holds all configuration for a blogfront site.
type SiteConfig struct {
	Name        string `env:"SITE_NAME" envDefault:"spacetraveling"`
	URL         string `env:"SITE_URL" envDefault:"http://localhost:3000"`
	Description string `env:"SITE_DESCRIPTION"`
	Locale      string `env:"SITE_LOCALE" envDefault:"pt-BR"`
	TimeZone    string `env:"SITE_TIMEZONE"` // IANA zone for displayed dates (default UTC)

	Addr string `env:"ADDR" envDefault:":3000"`

	PrismicEndpoint    string        `env:"PRISMIC_API_ENDPOINT,required,notEmpty"`
	PrismicAccessToken string        `env:"PRISMIC_ACCESS_TOKEN"`
	PrismicTimeout     time.Duration `env:"PRISMIC_TIMEOUT" envDefault:"10s"`
	PrismicRef         string        `env:"PRISMIC_REF"`       // pinned release ref; empty uses the master ref
	PrismicOrderings   string        `env:"PRISMIC_ORDERINGS"` // e.g. [document.first_publication_date desc]

	PageSize         int           `env:"PAGE_SIZE" envDefault:"20"`
	BuildConcurrency int           `env:"BUILD_CONCURRENCY" envDefault:"4"`
	RefreshInterval  time.Duration `env:"REFRESH_INTERVAL"` // 0 disables periodic refresh

	MoreRateLimit float64 `env:"MORE_RATE_LIMIT" envDefault:"2"` // load-more requests per second per IP
	MoreRateBurst int     `env:"MORE_RATE_BURST" envDefault:"5"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // text or json
}

// LoadConfig reads configuration from the environment, after loading any
// .env files given (".env" when none are).
func LoadConfig(files ...string) (SiteConfig, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// A missing file is fine; the environment may carry everything.
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return SiteConfig{}, fmt.Errorf("blogfront: load %s: %w", f, err)
		}
	}
	var cfg SiteConfig
	if err := env.Parse(&cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("blogfront: parse config: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "spacetraveling"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Locale == "" {
		c.Locale = "pt-BR"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.PrismicTimeout == 0 {
		c.PrismicTimeout = 10 * time.Second
	}
	if c.PageSize <= 0 {
		c.PageSize = 20
	}
	if c.BuildConcurrency <= 0 {
		c.BuildConcurrency = 4
	}
	if c.MoreRateLimit <= 0 {
		c.MoreRateLimit = 2
	}
	if c.MoreRateBurst <= 0 {
		c.MoreRateBurst = 5
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithRepository replaces the content repository client built from the
// configuration.
func WithRepository(repo site.Repository) Option {
	return func(a *App) {
		a.repo = repo
	}
}

// WithLogger sets the logger used by the App and its components.
func WithLogger(log *logrus.Logger) Option {
	return func(a *App) {
		a.Log = log
	}
}

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}
