package prismictest

import (
	"encoding/json"
	"fmt"

	"github.com/eringen/blogfront/prismic"
)

// Section builds a post content section whose body has one paragraph block
// per entry in paragraphs.
func Section(heading string, paragraphs ...string) map[string]any {
	body := make([]map[string]any, 0, len(paragraphs))
	for _, p := range paragraphs {
		body = append(body, map[string]any{
			"type":  "paragraph",
			"text":  p,
			"spans": []any{},
		})
	}
	return map[string]any{
		"heading": heading,
		"body":    body,
	}
}

// Post builds a "posts" document. published may be "" for a null timestamp.
func Post(uid, published, title, subtitle, author string, sections ...map[string]any) prismic.Document {
	if sections == nil {
		sections = []map[string]any{}
	}
	data, err := json.Marshal(map[string]any{
		"title":    title,
		"subtitle": subtitle,
		"author":   author,
		"banner": map[string]any{
			"url": "https://images.prismic.io/repo/" + uid + ".png",
			"alt": title,
		},
		"content": sections,
	})
	if err != nil {
		panic(fmt.Sprintf("prismictest: marshal post %q: %v", uid, err))
	}
	doc := prismic.Document{
		ID:   "id-" + uid,
		UID:  uid,
		Type: "posts",
		Data: data,
	}
	if published != "" {
		p := published
		doc.FirstPublicationDate = &p
		doc.LastPublicationDate = &p
	}
	return doc
}

// Posts builds n simple posts named post-1..post-n published on consecutive
// days of March 2021.
func Posts(n int) []prismic.Document {
	docs := make([]prismic.Document, 0, n)
	for i := 1; i <= n; i++ {
		uid := fmt.Sprintf("post-%d", i)
		day := (i-1)%28 + 1
		docs = append(docs, Post(uid,
			fmt.Sprintf("2021-03-%02dT19:25:28+0000", day),
			fmt.Sprintf("Post %d", i),
			fmt.Sprintf("Subtitle %d", i),
			"Joseph Oliveira",
			Section("Intro", "lorem ipsum dolor"),
		))
	}
	return docs
}
