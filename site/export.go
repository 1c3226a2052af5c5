package site

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Export writes every generated page under dir as <route>/index.html and
// returns the number of files written.
func (g *Generator) Export(dir string) (int, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("site: export: %w", err)
	}
	n := 0
	for _, p := range g.pages.Pages() {
		target := filepath.Join(root, filepath.FromSlash(p.Route), "index.html")
		if !strings.HasPrefix(target, root+string(filepath.Separator)) {
			return n, fmt.Errorf("site: export: route %q escapes %s", p.Route, root)
		}
		if err := WriteFile(target, p.HTML); err != nil {
			return n, fmt.Errorf("site: export %s: %w", p.Route, err)
		}
		n++
	}
	g.log.WithFields(logrus.Fields{"dir": root, "files": n}).Info("site exported")
	return n, nil
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
