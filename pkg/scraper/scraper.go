package scraper

import (
	"context"
	"time"

	"imagegrab/internal/downloader"
	"imagegrab/pkg/config"
	errs "imagegrab/pkg/errors"
	"imagegrab/pkg/extractor"
	"imagegrab/pkg/logger"
	"imagegrab/pkg/pacing"
	"imagegrab/pkg/search"
	"imagegrab/pkg/storage"
)

// Result describes a finished run
type Result struct {
	Queries        []string
	Links          []string
	FailedSearches int
	Summary        downloader.Summary
	// CollectTime covers fetching and scanning all search pages
	CollectTime time.Duration
	Elapsed     time.Duration
}

// Scraper orchestrates searching and downloading
type Scraper struct {
	client          Client
	config          *config.Config
	logger          logger.Logger
	observers       []downloader.Observer
	searchObservers []SearchObserver
	trash           storage.Trasher
	pacer           pacing.Pacer
	extractPacer    pacing.Pacer
}

// New creates a Scraper from cfg using the default HTTP client
func New(cfg *config.Config) (*Scraper, error) {
	if cfg == nil {
		return nil, errs.New(errs.ErrorTypeConfig, 0, "configuration is required")
	}

	log := logger.GetLogger()

	var agents search.UserAgentProvider
	if cfg.HTTP.UserAgent != "" {
		agents = search.StaticUserAgent(cfg.HTTP.UserAgent)
	}

	return &Scraper{
		client:       search.NewClient(cfg.HTTP.Timeout, agents, log),
		config:       cfg,
		logger:       log,
		pacer:        pacing.NewInterval(pacing.Effective(cfg.Download.RequestsDelay)),
		extractPacer: pacing.NewInterval(pacing.MinimumDelay),
	}, nil
}

// SetClient replaces the client used for page and image fetches
func (s *Scraper) SetClient(c Client) {
	s.client = c
}

// SetLogger replaces the logger
func (s *Scraper) SetLogger(l logger.Logger) {
	s.logger = l
}

// SetTrasher sets where discarded duplicates go. Without one, the
// platform trash is used when a run can discard files.
func (s *Scraper) SetTrasher(t storage.Trasher) {
	s.trash = t
}

// SetPacer replaces both the network pacer and the extraction pacer
func (s *Scraper) SetPacer(p pacing.Pacer) {
	s.pacer = p
	s.extractPacer = p
}

// AddObserver registers o for download outcomes, and for search results
// when o also implements SearchObserver
func (s *Scraper) AddObserver(o downloader.Observer) {
	s.observers = append(s.observers, o)
	if so, ok := o.(SearchObserver); ok {
		s.searchObservers = append(s.searchObservers, so)
	}
}

// AddSearchObserver registers o for search results only
func (s *Scraper) AddSearchObserver(o SearchObserver) {
	s.searchObservers = append(s.searchObservers, o)
}

// CollectLinks fetches and scans the search page of every query in order.
// Failed page fetches are logged and counted. The returned error is set
// only when ctx ends, together with the links gathered so far.
func (s *Scraper) CollectLinks(ctx context.Context, queries []string) ([]string, int, error) {
	var links []string
	failed := 0

	for i, query := range queries {
		s.logger.InfoWithFields("Searching", map[string]interface{}{
			"item":  i + 1,
			"query": query,
		})

		if err := s.pacer.Wait(ctx); err != nil {
			return links, failed, err
		}

		page, err := s.client.FetchPage(ctx, search.SearchURL(s.config.Search.BaseURL, query))
		s.pacer.Done()
		if err != nil {
			failed++
			s.notifySearch(query, 0, err)
			if ctx.Err() != nil {
				return links, failed, ctx.Err()
			}
			continue
		}

		found, err := extractor.Collect(ctx, page, s.extractPacer)
		links = append(links, found...)
		s.notifySearch(query, len(found), nil)
		if err != nil {
			return links, failed, err
		}
	}

	return links, failed, nil
}

func (s *Scraper) notifySearch(query string, links int, err error) {
	logger.LogSearch(s.logger, query, links, err)
	for _, o := range s.searchObservers {
		o.ObserveSearch(query, links, err)
	}
}

// Run searches for keywords (the configured keywords when empty) combined
// with the configured modifiers, then downloads every collected link.
// Only setup problems are returned as errors.
func (s *Scraper) Run(ctx context.Context, keywords []string) (*Result, error) {
	start := time.Now()

	if len(keywords) == 0 {
		keywords = s.config.Search.Keywords
	}
	queries := search.Queries(keywords, s.config.Search.Modifiers)
	if len(queries) == 0 {
		return nil, errs.New(errs.ErrorTypeConfig, 0, "no keywords given")
	}

	policy, err := downloader.PolicyFor(s.config.Download.FilenameFormat)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeConfig, err, "invalid download settings")
	}

	var trash storage.Trasher
	if s.config.Download.NoClobber && policy.IsContentHash() {
		trash = s.trasher()
	}

	store, err := storage.NewManager(s.config.Download.OutputDirectory, trash)
	if err != nil {
		s.logger.WithError(err).WithField("output_dir", s.config.Download.OutputDirectory).Error("Failed to create storage manager")
		return nil, errs.Wrap(errs.ErrorTypeIO, err, "failed to prepare output directory")
	}

	s.logger.InfoWithFields("Starting image grab", map[string]interface{}{
		"queries":    len(queries),
		"output_dir": store.Dir(),
		"policy":     policy.String(),
	})

	result := &Result{Queries: queries}

	links, failed, err := s.CollectLinks(ctx, queries)
	result.Links = links
	result.FailedSearches = failed
	result.CollectTime = time.Since(start)

	s.logger.InfoWithFields("Total time taken", map[string]interface{}{
		"links":           len(links),
		"failed_searches": failed,
		"seconds":         result.CollectTime.Seconds(),
	})
	if err != nil {
		s.logger.WithError(err).Warn("Link collection interrupted")
	}

	pipeline := downloader.New(s.client, store, downloader.Options{
		Directory: store.Dir(),
		Limit:     s.config.Download.Limit,
		NoClobber: s.config.Download.NoClobber,
		Policy:    policy,
		Workers:   s.config.Download.Workers,
		Pacer:     s.pacer,
		Observers: s.observers,
		Logger:    s.logger,
	})
	result.Summary = pipeline.Run(ctx, links)
	result.Elapsed = time.Since(start)

	logger.LogSummary(s.logger, result.Summary.Completed, result.Summary.Skipped, result.Summary.Failed, result.Elapsed)

	return result, nil
}

// trasher returns the configured trasher, or the platform trash with
// plain removal as the fallback
func (s *Scraper) trasher() storage.Trasher {
	if s.trash != nil {
		return s.trash
	}
	return storage.DefaultTrasher(func(path string, err error) {
		s.logger.WithError(err).WithField("path", path).Warn("Trash unavailable, removing duplicate")
	})
}
