package model

import "time"

// SearchHit is a single semantic-search result. Hits are request-scoped:
// they feed extraction and are never persisted.
type SearchHit struct {
	ID          string     `json:"id"`
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Relevance   float64    `json:"relevance"`
	Snippet     string     `json:"snippet,omitempty"`
}
