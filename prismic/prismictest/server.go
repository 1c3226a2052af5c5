// Package prismictest provides an in-process fake of the Prismic REST API for
// tests. It understands the "at" predicates on document.type and
// my.<type>.uid, page/pageSize paging with next_page links, fetch
// projections and orderings on document.first_publication_date.
package prismictest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/eringen/blogfront/prismic"
)

// MasterRef is the ref advertised by the fake API document.
const MasterRef = "master-ref"

var reAt = regexp.MustCompile(`at\(([^,]+),"((?:[^"\\]|\\.)*)"\)`)

// Server is a fake Prismic repository.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	docs     []prismic.Document
	failWith int

	// Searches counts search requests (including next_page follow-ups).
	Searches atomic.Int64
}

// NewServer starts a fake repository holding docs. It is closed when the
// test ends.
func NewServer(t testing.TB, docs ...prismic.Document) *Server {
	t.Helper()
	s := &Server{docs: append([]prismic.Document(nil), docs...)}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2", s.handleAPI)
	mux.HandleFunc("/api/v2/documents/search", s.handleSearch)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Endpoint is the API endpoint to hand to prismic.New.
func (s *Server) Endpoint() string {
	return s.URL + "/api/v2"
}

// Client returns a prismic.Client pointed at the server.
func (s *Server) Client(opts ...prismic.Option) *prismic.Client {
	return prismic.New(s.Endpoint(), opts...)
}

// Add appends documents to the repository.
func (s *Server) Add(docs ...prismic.Document) {
	s.mu.Lock()
	s.docs = append(s.docs, docs...)
	s.mu.Unlock()
}

// FailWith makes every search answer with status until reset with 0.
func (s *Server) FailWith(status int) {
	s.mu.Lock()
	s.failWith = status
	s.mu.Unlock()
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, prismic.API{Refs: []prismic.Ref{
		{ID: "master", Ref: MasterRef, Label: "Master", IsMasterRef: true},
	}})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.Searches.Add(1)

	s.mu.Lock()
	failWith := s.failWith
	docs := append([]prismic.Document(nil), s.docs...)
	s.mu.Unlock()

	if failWith != 0 {
		http.Error(w, "injected failure", failWith)
		return
	}

	q := r.URL.Query()
	if q.Get("ref") != MasterRef {
		http.Error(w, "invalid ref", http.StatusBadRequest)
		return
	}
	matched, ok := filter(docs, q.Get("q"))
	if !ok {
		http.Error(w, "unsupported predicate", http.StatusBadRequest)
		return
	}
	if !order(matched, q.Get("orderings")) {
		http.Error(w, "unsupported orderings", http.StatusBadRequest)
		return
	}

	pageSize := atoiDefault(q.Get("pageSize"), 20)
	page := atoiDefault(q.Get("page"), 1)
	total := len(matched)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	results := project(matched[start:end], q.Get("fetch"))

	resp := prismic.Response{
		Page:             page,
		ResultsPerPage:   pageSize,
		ResultsSize:      len(results),
		TotalResultsSize: total,
		TotalPages:       totalPages,
		Results:          results,
	}
	if page < totalPages {
		next := s.pageURL(r.URL, page+1)
		resp.NextPage = &next
	}
	if page > 1 {
		prev := s.pageURL(r.URL, page-1)
		resp.PrevPage = &prev
	}
	writeJSON(w, resp)
}

func (s *Server) pageURL(u *url.URL, page int) string {
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	return s.URL + u.Path + "?" + q.Encode()
}

func filter(docs []prismic.Document, predicates string) ([]prismic.Document, bool) {
	m := reAt.FindStringSubmatch(predicates)
	if m == nil {
		return nil, false
	}
	path, value := m[1], strings.ReplaceAll(m[2], `\"`, `"`)
	var out []prismic.Document
	for _, d := range docs {
		switch {
		case path == "document.type":
			if d.Type == value {
				out = append(out, d)
			}
		case strings.HasPrefix(path, "my.") && strings.HasSuffix(path, ".uid"):
			docType := strings.TrimSuffix(strings.TrimPrefix(path, "my."), ".uid")
			if d.Type == docType && d.UID == value {
				out = append(out, d)
			}
		default:
			return nil, false
		}
	}
	return out, true
}

// order sorts docs in place by publication date. Any other orderings field
// is rejected.
func order(docs []prismic.Document, orderings string) bool {
	if orderings == "" {
		return true
	}
	field, desc := strings.CutSuffix(strings.Trim(orderings, "[]"), " desc")
	if field != "document.first_publication_date" {
		return false
	}
	published := func(d prismic.Document) string {
		if d.FirstPublicationDate == nil {
			return ""
		}
		return *d.FirstPublicationDate
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if desc {
			return published(docs[i]) > published(docs[j])
		}
		return published(docs[i]) < published(docs[j])
	})
	return true
}

// project keeps only the data fields named in fetch ("type.field,...").
func project(docs []prismic.Document, fetch string) []prismic.Document {
	out := make([]prismic.Document, len(docs))
	copy(out, docs)
	if fetch == "" {
		return out
	}
	keep := make(map[string]bool)
	for _, f := range strings.Split(fetch, ",") {
		if i := strings.LastIndex(f, "."); i >= 0 {
			keep[f[i+1:]] = true
		}
	}
	for i, d := range out {
		var data map[string]json.RawMessage
		if err := json.Unmarshal(d.Data, &data); err != nil {
			continue
		}
		for k := range data {
			if !keep[k] {
				delete(data, k)
			}
		}
		b, _ := json.Marshal(data)
		out[i].Data = b
	}
	return out
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
