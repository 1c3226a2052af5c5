package prismic

import "strings"

// At builds an "at" predicate matching documents whose field at path equals
// value, e.g. At("document.type", "posts") -> [at(document.type,"posts")].
func At(path, value string) string {
	return "[at(" + path + "," + quote(value) + ")]"
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
