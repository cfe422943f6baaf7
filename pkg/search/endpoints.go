package search

import (
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is the image search endpoint
	DefaultBaseURL = "https://www.google.com/search"

	// imageSearchParams selects the image results vertical and the legacy
	// desktop layout whose markup the extractor understands
	imageSearchParams = "espv=2&biw=1366&bih=667&site=webhp&source=lnms&tbm=isch&sa=X&ei=XosDVaCXD8TasATItgE&ved=0CAcQ_AUoAg"
)

// SearchURL builds the image search URL for query. Spaces are encoded as
// %20 and the query is always the first parameter.
func SearchURL(baseURL, query string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return baseURL + sep + "q=" + QuoteQuery(query) + "&" + imageSearchParams
}

// QuoteQuery percent-encodes a query term, using %20 for spaces
func QuoteQuery(query string) string {
	return strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
}

// Queries expands keywords and modifiers into search terms. Without
// modifiers each keyword is searched alone; otherwise every keyword is
// joined with every modifier, keyword-major.
func Queries(keywords, modifiers []string) []string {
	var out []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if len(modifiers) == 0 {
			out = append(out, kw)
			continue
		}
		for _, mod := range modifiers {
			mod = strings.TrimSpace(mod)
			if mod == "" {
				out = append(out, kw)
				continue
			}
			out = append(out, kw+" "+mod)
		}
	}
	return out
}
