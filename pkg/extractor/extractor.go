// Package extractor pulls direct image URLs out of a raw image-search results
// page by scanning for fixed literal markers. It is deliberately not an HTML
// parser: a change in the page markup ends the scan early instead of failing.
package extractor

import (
	"context"
	"iter"
	"strings"
)

// Literal markers of one image-result block. The URL sits between
// ContentMarker+`:"` and the quote that precedes CloseDelimiter.
const (
	BlockMarker    = `rg_di`
	MetaMarker     = `"class="rg_meta"`
	ContentMarker  = `"ou"`
	CloseDelimiter = `,"ow"`
)

const (
	leadTrim  = len(ContentMarker) + len(`:"`) // `"ou":"`
	trailTrim = len(`"`)
)

// Result is the outcome of one scan step. Found is false once the block
// marker no longer occurs at or after the cursor.
type Result struct {
	URL   string
	Next  int
	Found bool
}

// Waiter paces successive scan steps
type Waiter interface {
	Wait(ctx context.Context) error
}

// Next scans text starting at offset from and returns the next link together
// with the cursor for the following call. It never panics: offsets produced
// by malformed blocks are clamped, yielding a truncated or empty URL.
func Next(text string, from int) Result {
	if from < 0 {
		from = 0
	}
	if from >= len(text) {
		return Result{Next: from}
	}

	s := text[from:]
	if !strings.Contains(s, BlockMarker) {
		return Result{Next: from}
	}

	startLine := strings.Index(s, MetaMarker)
	startContent := indexFrom(s, ContentMarker, startLine+1)
	endContent := indexFrom(s, CloseDelimiter, startContent+1)

	if endContent < 0 {
		// no closing delimiter: take the rest and finish the scan
		return Result{
			URL:   clampSlice(s, startContent+leadTrim, len(s)),
			Next:  len(text),
			Found: true,
		}
	}

	next := from + endContent
	if next <= from {
		next = from + 1
	}
	return Result{
		URL:   clampSlice(s, startContent+leadTrim, endContent-trailTrim),
		Next:  next,
		Found: true,
	}
}

// All lazily yields every link in text in document order. Each call to the
// returned sequence starts over from the beginning of text.
func All(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		cursor := 0
		for {
			res := Next(text, cursor)
			if !res.Found {
				return
			}
			if !yield(res.URL) {
				return
			}
			cursor = res.Next
		}
	}
}

// Collect drains All(text), waiting on pacer between links. A nil pacer
// disables pacing. The links gathered before a cancellation are returned
// along with the context error.
func Collect(ctx context.Context, text string, pacer Waiter) ([]string, error) {
	var links []string
	for link := range All(text) {
		links = append(links, link)
		if pacer != nil {
			if err := pacer.Wait(ctx); err != nil {
				return links, err
			}
		}
	}
	return links, nil
}

// indexFrom mirrors a find-with-start: a negative start searches from 0.
func indexFrom(s, substr string, start int) int {
	if start < 0 {
		start = 0
	}
	if start > len(s) {
		return -1
	}
	i := strings.Index(s[start:], substr)
	if i < 0 {
		return -1
	}
	return start + i
}

func clampSlice(s string, lo, hi int) string {
	lo = max(0, min(lo, len(s)))
	hi = max(0, min(hi, len(s)))
	if lo >= hi {
		return ""
	}
	return s[lo:hi]
}
