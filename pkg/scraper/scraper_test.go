package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagegrab/internal/downloader"
	"imagegrab/pkg/config"
	errs "imagegrab/pkg/errors"
	"imagegrab/pkg/logger"
	"imagegrab/pkg/pacing"
)

// mockSearchServer serves result pages and images
type mockSearchServer struct {
	server  *httptest.Server
	mu      sync.Mutex
	queries []string
	images  map[string]int
	// results maps a query to the image paths on its page
	results   map[string][]string
	failQuery map[string]bool
	bodies    map[string]string
	userAgent string
}

func newMockSearchServer(t *testing.T) *mockSearchServer {
	m := &mockSearchServer{
		images:    make(map[string]int),
		results:   make(map[string][]string),
		failQuery: make(map[string]bool),
		bodies:    make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")

		m.mu.Lock()
		defer m.mu.Unlock()
		m.queries = append(m.queries, q)
		m.userAgent = r.Header.Get("User-Agent")

		if m.failQuery[q] {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		var page strings.Builder
		page.WriteString("<html><body>")
		for _, p := range m.results[q] {
			fmt.Fprintf(&page, `<div class="rg_di"><div "class="rg_meta">{"id":"x","ou":"%s%s","ow":640,"oh":480}</div></div>`, m.server.URL, p)
		}
		page.WriteString("</body></html>")
		_, _ = w.Write([]byte(page.String()))
	})
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.images[r.URL.Path]++

		body, ok := m.bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	})

	m.server = httptest.NewServer(mux)
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockSearchServer) addImage(path, body string, queries ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies[path] = body
	for _, q := range queries {
		m.results[q] = append(m.results[q], path)
	}
}

func (m *mockSearchServer) imageHits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.images {
		n += c
	}
	return n
}

func newTestScraper(t *testing.T, m *mockSearchServer, mutate func(*config.Config)) (*Scraper, *config.Config) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Search.BaseURL = m.server.URL + "/search"
	cfg.Download.OutputDirectory = filepath.Join(t.TempDir(), "downloads")
	if mutate != nil {
		mutate(cfg)
	}

	s, err := New(cfg)
	require.NoError(t, err)
	s.SetLogger(logger.NewNopLogger())
	s.SetPacer(pacing.None{})
	return s, cfg
}

type searchRecorder struct {
	queries []string
	links   int
	failed  int
}

func (r *searchRecorder) ObserveSearch(query string, links int, err error) {
	r.queries = append(r.queries, query)
	r.links += links
	if err != nil {
		r.failed++
	}
}

func TestRunEndToEnd(t *testing.T) {
	m := newMockSearchServer(t)
	m.addImage("/img/a.jpg", "aaa", "cats")
	m.addImage("/img/b.png", "bbb", "cats")

	s, cfg := newTestScraper(t, m, nil)
	result, err := s.Run(context.Background(), []string{"cats"})
	require.NoError(t, err)

	assert.Equal(t, []string{"cats"}, result.Queries)
	assert.Equal(t, []string{m.server.URL + "/img/a.jpg", m.server.URL + "/img/b.png"}, result.Links)
	assert.Equal(t, downloader.Summary{Completed: 2}, result.Summary)
	assert.Zero(t, result.FailedSearches)

	data, err := os.ReadFile(filepath.Join(cfg.Download.OutputDirectory, "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "aaa", string(data))
	assert.Contains(t, m.userAgent, "Firefox")
}

func TestRunCrossProductOrder(t *testing.T) {
	m := newMockSearchServer(t)
	s, _ := newTestScraper(t, m, func(cfg *config.Config) {
		cfg.Search.Modifiers = []string{"red", "blue"}
	})

	_, err := s.Run(context.Background(), []string{"cats", "big dogs"})
	require.NoError(t, err)

	assert.Equal(t, []string{"cats red", "cats blue", "big dogs red", "big dogs blue"}, m.queries)
}

func TestRunUsesConfiguredKeywords(t *testing.T) {
	m := newMockSearchServer(t)
	s, _ := newTestScraper(t, m, func(cfg *config.Config) {
		cfg.Search.Keywords = []string{"owls"}
		cfg.HTTP.UserAgent = "imagegrab-test"
	})

	result, err := s.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"owls"}, result.Queries)
	assert.Equal(t, "imagegrab-test", m.userAgent)
}

func TestRunWithoutKeywords(t *testing.T) {
	m := newMockSearchServer(t)
	s, _ := newTestScraper(t, m, nil)

	_, err := s.Run(context.Background(), []string{"  "})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeConfig))
	assert.Empty(t, m.queries)
}

func TestRunInvalidFilenameFormat(t *testing.T) {
	m := newMockSearchServer(t)
	s, _ := newTestScraper(t, m, func(cfg *config.Config) {
		cfg.Download.FilenameFormat = "md5"
	})

	_, err := s.Run(context.Background(), []string{"cats"})
	assert.True(t, errs.Is(err, errs.ErrorTypeConfig))
}

func TestRunContinuesAfterFailedSearch(t *testing.T) {
	m := newMockSearchServer(t)
	m.failQuery["cats"] = true
	m.addImage("/img/dog.jpg", "woof", "dogs")
	rec := &searchRecorder{}

	s, _ := newTestScraper(t, m, nil)
	s.AddSearchObserver(rec)
	result, err := s.Run(context.Background(), []string{"cats", "dogs"})
	require.NoError(t, err)

	assert.Equal(t, 1, result.FailedSearches)
	assert.Equal(t, downloader.Summary{Completed: 1}, result.Summary)
	assert.Equal(t, []string{"cats", "dogs"}, rec.queries)
	assert.Equal(t, 1, rec.failed)
	assert.Equal(t, 1, rec.links)
}

func TestRunDownloadFailuresAreCounted(t *testing.T) {
	m := newMockSearchServer(t)
	m.addImage("/img/ok.jpg", "ok", "cats")
	m.mu.Lock()
	m.results["cats"] = append(m.results["cats"], "/img/missing.jpg")
	m.mu.Unlock()

	var outcomes []downloader.Outcome
	s, _ := newTestScraper(t, m, nil)
	s.AddObserver(downloader.ObserverFunc(func(o downloader.Outcome) {
		outcomes = append(outcomes, o)
	}))

	result, err := s.Run(context.Background(), []string{"cats"})
	require.NoError(t, err)

	assert.Equal(t, downloader.Summary{Completed: 1, Failed: 1}, result.Summary)
	require.Len(t, outcomes, 2)
	assert.True(t, errs.Is(outcomes[1].Err, errs.ErrorTypeProtocol))
}

func TestRunLimitSpansQueries(t *testing.T) {
	m := newMockSearchServer(t)
	for i := 0; i < 5; i++ {
		m.addImage(fmt.Sprintf("/img/cat%d.jpg", i), fmt.Sprintf("cat %d", i), "cats")
		m.addImage(fmt.Sprintf("/img/dog%d.jpg", i), fmt.Sprintf("dog %d", i), "dogs")
	}

	s, _ := newTestScraper(t, m, func(cfg *config.Config) {
		cfg.Download.Limit = 3
	})
	result, err := s.Run(context.Background(), []string{"cats", "dogs"})
	require.NoError(t, err)

	assert.Len(t, result.Links, 10)
	assert.Equal(t, downloader.Summary{Completed: 3}, result.Summary)
	assert.Equal(t, 3, m.imageHits())
}

func TestRunContentHashDedupAcrossQueries(t *testing.T) {
	m := newMockSearchServer(t)
	m.addImage("/img/a.jpg", "same bytes", "cats")
	m.addImage("/img/b.jpg", "same bytes", "kittens")

	var trashed []string
	s, cfg := newTestScraper(t, m, func(cfg *config.Config) {
		cfg.Download.FilenameFormat = config.FormatSHA256
		cfg.Download.NoClobber = true
	})
	s.SetTrasher(trashFunc(func(path string) error {
		trashed = append(trashed, filepath.Base(path))
		return os.Remove(path)
	}))

	result, err := s.Run(context.Background(), []string{"cats", "kittens"})
	require.NoError(t, err)

	assert.Equal(t, downloader.Summary{Completed: 1, Skipped: 1}, result.Summary)
	assert.Equal(t, []string{"b.jpg"}, trashed)

	entries, err := os.ReadDir(cfg.Download.OutputDirectory)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

type trashFunc func(path string) error

func (f trashFunc) Trash(path string) error { return f(path) }

func TestRunDefaultTrash(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, ".local", "share"))

	m := newMockSearchServer(t)
	m.addImage("/img/a.jpg", "same bytes", "cats")
	m.addImage("/img/b.jpg", "same bytes", "cats")

	s, _ := newTestScraper(t, m, func(cfg *config.Config) {
		cfg.Download.FilenameFormat = config.FormatBlake2b
		cfg.Download.NoClobber = true
	})

	result, err := s.Run(context.Background(), []string{"cats"})
	require.NoError(t, err)
	assert.Equal(t, downloader.Summary{Completed: 1, Skipped: 1}, result.Summary)

	entries, err := os.ReadDir(s.config.Download.OutputDirectory)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRunCancelled(t *testing.T) {
	m := newMockSearchServer(t)
	m.addImage("/img/a.jpg", "aaa", "cats")
	s, _ := newTestScraper(t, m, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.Run(ctx, []string{"cats"})
	require.NoError(t, err)
	assert.Empty(t, result.Links)
	assert.Equal(t, downloader.Summary{}, result.Summary)
	assert.Zero(t, m.imageHits())
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil)
	assert.True(t, errs.Is(err, errs.ErrorTypeConfig))
}
