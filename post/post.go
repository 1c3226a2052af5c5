// Package post defines the view-friendly shapes of blog posts fetched from
// the content repository.
package post

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/eringen/blogfront/localdate"
	"github.com/eringen/blogfront/prismic"
	"github.com/eringen/blogfront/richtext"
)

// Type is the repository document type of blog posts.
const Type = "posts"

// SummaryFields is the projection requested for listing pages.
var SummaryFields = []string{Type + ".title", Type + ".subtitle", Type + ".author"}

// Summary is the listing projection of a post.
type Summary struct {
	UID                  string      `json:"uid"`
	FirstPublicationDate string      `json:"first_publication_date"`
	PublishedAt          *time.Time  `json:"-"`
	Data                 SummaryData `json:"data"`
}

// SummaryData holds the projected fields.
type SummaryData struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Author   string `json:"author"`
}

// Link is the route of the post's detail page.
func (s Summary) Link() string {
	return Link(s.UID)
}

// Detail is a full post.
type Detail struct {
	UID                  string     `json:"uid"`
	FirstPublicationDate string     `json:"first_publication_date"`
	PublishedAt          *time.Time `json:"-"`
	Data                 DetailData `json:"data"`
}

// DetailData holds the post body.
type DetailData struct {
	Title   string    `json:"title"`
	Banner  Banner    `json:"banner"`
	Author  string    `json:"author"`
	Content []Section `json:"content"`
}

// Banner is the post's header image.
type Banner struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// Section is one heading plus its rich-text body.
type Section struct {
	Heading string            `json:"heading"`
	Body    richtext.RichText `json:"body"`
}

// ReadingTime is the estimated reading time of the post in minutes.
func (d Detail) ReadingTime() int {
	return ReadingTime(d.Data.Content)
}

// Link returns the detail route for uid.
func Link(uid string) string {
	return "/post/" + uid + "/"
}

// SummaryFromDocument reshapes a repository document into a Summary,
// formatting its publication date with f.
func SummaryFromDocument(doc prismic.Document, f *localdate.Formatter) (Summary, error) {
	var data SummaryData
	if err := decodeData(doc, &data); err != nil {
		return Summary{}, err
	}
	published, display, err := publication(doc, f)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		UID:                  doc.UID,
		FirstPublicationDate: display,
		PublishedAt:          published,
		Data:                 data,
	}, nil
}

// SummariesFromDocuments converts docs in order.
func SummariesFromDocuments(docs []prismic.Document, f *localdate.Formatter) ([]Summary, error) {
	out := make([]Summary, 0, len(docs))
	for _, doc := range docs {
		s, err := SummaryFromDocument(doc, f)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// DetailFromDocument reshapes a repository document into a Detail.
func DetailFromDocument(doc prismic.Document, f *localdate.Formatter) (Detail, error) {
	var data DetailData
	if err := decodeData(doc, &data); err != nil {
		return Detail{}, err
	}
	published, display, err := publication(doc, f)
	if err != nil {
		return Detail{}, err
	}
	return Detail{
		UID:                  doc.UID,
		FirstPublicationDate: display,
		PublishedAt:          published,
		Data:                 data,
	}, nil
}

func decodeData(doc prismic.Document, out any) error {
	if len(doc.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(doc.Data, out); err != nil {
		return fmt.Errorf("post: decode %q: %w", doc.UID, err)
	}
	return nil
}

func publication(doc prismic.Document, f *localdate.Formatter) (*time.Time, string, error) {
	display, err := f.FormatTimestamp(doc.FirstPublicationDate)
	if err != nil {
		return nil, "", fmt.Errorf("post: %q: %w", doc.UID, err)
	}
	if display == "" {
		return nil, "", nil
	}
	t, err := localdate.ParseTimestamp(doc.FirstPublicationDate)
	return t, display, err
}
