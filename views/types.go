package views

// SiteConfig holds site-wide settings the templates read. Every handler
// passes it through so nothing is hardcoded.
type SiteConfig struct {
	Name        string // SITE_NAME  (default "spacetraveling")
	URL         string // SITE_URL   (default "http://localhost:3000")
	Description string // SITE_DESCRIPTION
	Lang        string // html lang attribute, from SITE_LOCALE
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string // og:image
	JSONLD      string // optional schema.org block
}

// User-facing strings.
const (
	labelLoadMore        = "Carregar mais posts"
	labelRetry           = "Tentar novamente"
	labelLoadFailed      = "Não foi possível carregar mais posts."
	labelPostUnavailable = "Não foi possível carregar o post."
	labelLoading         = "Carregando..."
	labelNotFound        = "Post não encontrado"
	labelServerError     = "Algo deu errado"
	labelBackHome        = "Voltar para a página inicial"
	labelReadingTime     = "min"
	labelBannerAlt       = "banner"
)
