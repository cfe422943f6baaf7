package downloader

import (
	"context"
	"sync"
	"time"

	errs "imagegrab/pkg/errors"
	"imagegrab/pkg/logger"
	"imagegrab/pkg/pacing"
	"imagegrab/pkg/storage"
)

// Fetcher downloads the body behind a URL
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Store is the destination directory
type Store interface {
	Exists(name string) bool
	Write(name string, data []byte) error
	Move(oldName, newName string) error
	Discard(name string) error
	Checksum(name string, algo storage.Algorithm) (string, error)
}

// Options configures a pipeline run
type Options struct {
	// Directory is the destination shown in logs; files go through the Store
	Directory string
	// Limit stops the run once this many downloads completed; 0 means no limit
	Limit int
	// NoClobber preserves existing files and discards new content instead
	NoClobber bool
	Policy    FilenamePolicy
	// Workers is the number of concurrent downloads; values below 1 mean 1
	Workers int
	// Pacer spaces successive downloads; nil uses pacing.MinimumDelay
	Pacer     pacing.Pacer
	Observers []Observer
	Logger    logger.Logger
}

// Pipeline downloads links into a Store, applying the naming and no-clobber
// policies.
type Pipeline struct {
	fetcher Fetcher
	store   Store
	opts    Options
	pacer   pacing.Pacer
	logger  logger.Logger

	// renameMu serializes the hash-name lookup with the rename or discard
	// that depends on it
	renameMu sync.Mutex
}

// New creates a pipeline
func New(fetcher Fetcher, store Store, opts Options) *Pipeline {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	pacer := opts.Pacer
	if pacer == nil {
		pacer = pacing.NewInterval(pacing.MinimumDelay)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Pipeline{
		fetcher: fetcher,
		store:   store,
		opts:    opts,
		pacer:   pacer,
		logger:  log,
	}
}

// Process downloads url into target and applies policy. It never returns an
// error: every failure is reported as a StatusFailed outcome.
func (p *Pipeline) Process(ctx context.Context, url, target string, policy FilenamePolicy, noClobber bool) Outcome {
	start := time.Now()
	o := Outcome{URL: url, Filename: target}

	finish := func(status Status, reason string, err error) Outcome {
		o.Status = status
		o.Reason = reason
		o.Err = err
		o.Duration = time.Since(start)
		return o
	}
	fail := func(err error) Outcome {
		return finish(StatusFailed, string(errs.TypeOf(err)), err)
	}

	data, err := p.fetcher.FetchBytes(ctx, url)
	if err != nil {
		if errs.TypeOf(err) == errs.ErrorTypeUnknown {
			err = errs.Wrap(errs.ErrorTypeNetwork, err, "fetch failed")
		}
		return fail(err)
	}
	o.Size = len(data)

	if err := p.store.Write(target, data); err != nil {
		return fail(errs.Wrap(errs.ErrorTypeIO, err, "failed to save %s", target))
	}

	if !policy.IsContentHash() {
		return finish(StatusCompleted, "", nil)
	}

	sum, err := p.store.Checksum(target, policy.algo)
	if err != nil {
		return fail(errs.Wrap(errs.ErrorTypeIO, err, "failed to hash %s", target))
	}

	hashed := storage.HashedName(target, sum)
	if hashed == target {
		return finish(StatusCompleted, "", nil)
	}

	p.renameMu.Lock()
	defer p.renameMu.Unlock()

	if noClobber && p.store.Exists(hashed) {
		p.logger.DebugWithFields("Content already stored", map[string]interface{}{
			"url":      url,
			"filename": hashed,
		})
		if err := p.store.Discard(target); err != nil {
			return fail(errs.Wrap(errs.ErrorTypeIO, err, "failed to discard %s", target))
		}
		o.Filename = hashed
		return finish(StatusSkipped, ReasonDuplicate, nil)
	}

	if err := p.store.Move(target, hashed); err != nil {
		return fail(errs.Wrap(errs.ErrorTypeIO, err, "failed to rename %s", target))
	}
	o.Filename = hashed
	return finish(StatusCompleted, "", nil)
}

// notify logs o and forwards it to every observer
func (p *Pipeline) notify(o Outcome) {
	logger.LogOutcome(p.logger, string(o.Status), o.URL, o.Filename, o.Reason, o.Err)
	for _, obs := range p.opts.Observers {
		obs.Observe(o)
	}
}
