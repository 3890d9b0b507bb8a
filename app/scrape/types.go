package scrape

import (
	"time"
)

// ScrapedContent is the transient result of fetching and extracting a single
// page. It is persisted only through a content item.
type ScrapedContent struct {
	Title    string
	URL      string
	Content  string
	Metadata ScrapedMetadata
}

type ScrapedMetadata struct {
	Organization string
	Deadline     string
	Location     string
	Amount       string
	Requirements string
	RawHTML      string
	ScrapedAt    time.Time
	SourceURL    string
}

// Extracted holds the fields pulled from a page by the heuristic extractor.
type Extracted struct {
	Title        string
	Content      string
	Description  string
	Organization string
	Deadline     string
	Location     string
	Amount       string
	Requirements string
	ApplyInfo    string
}
