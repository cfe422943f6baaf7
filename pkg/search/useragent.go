package search

import "sync"

// UserAgentProvider supplies the identifying string sent with every request
type UserAgentProvider interface {
	UserAgent() string
}

// StaticUserAgent always returns the same string
type StaticUserAgent string

func (s StaticUserAgent) UserAgent() string { return string(s) }

var firefoxAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:128.0) Gecko/20100101 Firefox/128.0",
	"Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14.5; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:115.0) Gecko/20100101 Firefox/115.0",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:126.0) Gecko/20100101 Firefox/126.0",
}

// FirefoxRotation cycles through desktop Firefox user agents
type FirefoxRotation struct {
	mu   sync.Mutex
	next int
}

// NewFirefoxRotation creates a rotation starting at the first agent
func NewFirefoxRotation() *FirefoxRotation {
	return &FirefoxRotation{}
}

func (r *FirefoxRotation) UserAgent() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ua := firefoxAgents[r.next%len(firefoxAgents)]
	r.next++
	return ua
}
