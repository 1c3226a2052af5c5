package blogfront

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PRISMIC_API_ENDPOINT", "https://repo.cdn.prismic.io/api/v2")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "spacetraveling", cfg.Name)
	assert.Equal(t, "pt-BR", cfg.Locale)
	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, 10*time.Second, cfg.PrismicTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PRISMIC_API_ENDPOINT", "https://repo.cdn.prismic.io/api/v2")
	t.Setenv("PAGE_SIZE", "5")
	t.Setenv("PRISMIC_TIMEOUT", "3s")
	t.Setenv("SITE_LOCALE", "en-US")
	t.Setenv("MORE_RATE_LIMIT", "0.5")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.PageSize)
	assert.Equal(t, 3*time.Second, cfg.PrismicTimeout)
	assert.Equal(t, "en-US", cfg.Locale)
	assert.InDelta(t, 0.5, cfg.MoreRateLimit, 1e-9)
}

func TestLoadConfigReadsDotenv(t *testing.T) {
	t.Setenv("PRISMIC_API_ENDPOINT", "https://repo.cdn.prismic.io/api/v2")
	const key = "SITE_DESCRIPTION"
	if _, set := os.LookupEnv(key); set {
		t.Skipf("%s is set in the environment", key)
	}
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte(key+"=Um blog sobre o espaço\n"), 0o600))

	cfg, err := LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, "Um blog sobre o espaço", cfg.Description)
}

func TestLoadConfigRejectsMalformedDotenv(t *testing.T) {
	t.Setenv("PRISMIC_API_ENDPOINT", "https://repo.cdn.prismic.io/api/v2")
	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte("BAD-KEY=1\n"), 0o600))

	_, err := LoadConfig(file)
	assert.ErrorContains(t, err, "blogfront: load")
}

func TestLoadConfigPrismicOptions(t *testing.T) {
	t.Setenv("PRISMIC_API_ENDPOINT", "https://repo.cdn.prismic.io/api/v2")
	t.Setenv("PRISMIC_REF", "YBfzTRAAACIA2DRn")
	t.Setenv("PRISMIC_ORDERINGS", "[document.first_publication_date desc]")
	t.Setenv("REFRESH_INTERVAL", "5m")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "YBfzTRAAACIA2DRn", cfg.PrismicRef)
	assert.Equal(t, "[document.first_publication_date desc]", cfg.PrismicOrderings)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval)
}

func TestLoadConfigRequiresEndpoint(t *testing.T) {
	t.Setenv("PRISMIC_API_ENDPOINT", "")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "PRISMIC_API_ENDPOINT")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger("debug", "json", &buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log.WithField("component", "test").Debug("hello")
	assert.Contains(t, buf.String(), `"component":"test"`)
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	_, err = NewLogger("loud", "text", nil)
	assert.Error(t, err)
	_, err = NewLogger("info", "xml", nil)
	assert.Error(t, err)
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base     string
		segments []string
		want     string
	}{
		{"https://blog.example.com", nil, "https://blog.example.com/"},
		{"https://blog.example.com", []string{"/"}, "https://blog.example.com/"},
		{"https://blog.example.com", []string{"post", "hooks"}, "https://blog.example.com/post/hooks/"},
		{"https://blog.example.com/", []string{"/post/hooks/"}, "https://blog.example.com/post/hooks/"},
		{"https://example.com/blog", nil, "https://example.com/blog"},
		{"https://example.com/blog", []string{"feed.xml"}, "https://example.com/blog/feed.xml/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BuildURL(tt.base, tt.segments...), "%s %v", tt.base, tt.segments)
	}
}
