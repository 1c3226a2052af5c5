package blogfront

import "embed"

// StaticAssets contains the stylesheet and script served under /static/.
//
//go:embed static
var StaticAssets embed.FS
