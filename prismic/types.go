package prismic

import "encoding/json"

// Document is a single repository record as returned by the search endpoint.
// Data is left raw so callers can decode it into their own content types.
type Document struct {
	ID                   string          `json:"id"`
	UID                  string          `json:"uid"`
	Type                 string          `json:"type"`
	Lang                 string          `json:"lang,omitempty"`
	FirstPublicationDate *string         `json:"first_publication_date"`
	LastPublicationDate  *string         `json:"last_publication_date"`
	Data                 json.RawMessage `json:"data"`
}

// Response is one page of search results.
type Response struct {
	Page             int        `json:"page"`
	ResultsPerPage   int        `json:"results_per_page"`
	ResultsSize      int        `json:"results_size"`
	TotalResultsSize int        `json:"total_results_size"`
	TotalPages       int        `json:"total_pages"`
	NextPage         *string    `json:"next_page"`
	PrevPage         *string    `json:"prev_page"`
	Results          []Document `json:"results"`
}

// Next returns the next page URL, or "" when there are no more pages.
func (r *Response) Next() string {
	if r == nil || r.NextPage == nil {
		return ""
	}
	return *r.NextPage
}

// Ref is a content release reference. Queries must name one.
type Ref struct {
	ID          string `json:"id"`
	Ref         string `json:"ref"`
	Label       string `json:"label"`
	IsMasterRef bool   `json:"isMasterRef"`
}

// API is the repository entry document served at the endpoint root.
type API struct {
	Refs []Ref `json:"refs"`
}

// Query holds the optional parameters of a search request.
type Query struct {
	PageSize  int      // results per page (0 uses the repository default)
	Page      int      // 1-based page number (0 means first)
	Fetch     []string // field projection, e.g. "posts.title"
	Orderings string   // e.g. "[document.first_publication_date desc]"
}
