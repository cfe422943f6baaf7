package scraper

import (
	"context"

	"imagegrab/internal/downloader"
)

// PageFetcher fetches search result pages as text
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

// Client fetches both search pages and image bytes
type Client interface {
	PageFetcher
	downloader.Fetcher
}

// SearchObserver is told about every search page fetch
type SearchObserver interface {
	ObserveSearch(query string, links int, err error)
}
