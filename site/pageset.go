package site

import (
	"sort"
	"sync"
	"time"
)

// Page is one generated route.
type Page struct {
	Route string
	HTML  []byte
	// Main is the <main> fragment of a detail page, served alone to the
	// fallback placeholder. Nil for other routes.
	Main     []byte
	Title    string
	Modified *time.Time
}

// PageSet holds the generated pages keyed by route. Entries are only ever
// added; nothing expires.
type PageSet struct {
	mu    sync.RWMutex
	pages map[string]Page
}

func NewPageSet() *PageSet {
	return &PageSet{pages: make(map[string]Page)}
}

// Put stores p under p.Route, replacing any previous page for the route.
func (s *PageSet) Put(p Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[p.Route] = p
}

// Get returns the page for route.
func (s *PageSet) Get(route string) (Page, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pages[route]
	return p, ok
}

// Len returns the number of generated pages.
func (s *PageSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pages)
}

// Pages returns every page sorted by route.
func (s *PageSet) Pages() []Page {
	s.mu.RLock()
	out := make([]Page, 0, len(s.pages))
	for _, p := range s.pages {
		out = append(out, p)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Route < out[j].Route })
	return out
}
