package blogfront

import (
	"net/url"
	"path"
	"strings"
)

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
// With no segments the base is returned with a trailing slash added to an
// empty path.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if !strings.HasSuffix(u.Path, "/") && (len(pathSegments) > 0 || u.Path == "") {
		u.Path += "/"
	}
	return u.String()
}
