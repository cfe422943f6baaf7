package downloader

import (
	"context"
	"sync"

	"imagegrab/pkg/storage"
)

// job is one link handed to a worker
type job struct {
	url    string
	target string
}

// result is a worker's answer for a job
type result struct {
	target  string
	outcome Outcome
}

// Run downloads links in order and returns the accumulated Summary.
//
// With Workers > 1 downloads run on a bounded pool. The dispatching goroutine
// still owns the counters, the no-clobber pre-check and the limit, so the
// totals equal the outcomes delivered to observers. Links sharing a target
// name are never in flight at the same time. With one worker the pacing gap
// runs from the end of each download to the start of the next.
func (p *Pipeline) Run(ctx context.Context, links []string) Summary {
	var summary Summary

	jobs := make(chan job)
	results := make(chan result)
	var wg sync.WaitGroup

	p.logger.InfoWithFields("Starting download run", map[string]interface{}{
		"links":      len(links),
		"workers":    p.opts.Workers,
		"limit":      p.opts.Limit,
		"policy":     p.opts.Policy.String(),
		"no_clobber": p.opts.NoClobber,
	})

	for i := 0; i < p.opts.Workers; i++ {
		wg.Add(1)
		go p.worker(ctx, i, jobs, results, &wg)
	}

	pending := 0
	inFlight := make(map[string]int)

	record := func(r result) {
		pending--
		inFlight[r.target]--
		if inFlight[r.target] <= 0 {
			delete(inFlight, r.target)
		}
		summary.Add(r.outcome)
		p.notify(r.outcome)
	}

	limitReached := func() bool {
		return p.opts.Limit > 0 && summary.Completed >= p.opts.Limit
	}

dispatch:
	for _, link := range links {
		if ctx.Err() != nil {
			p.logger.Warn("Download run cancelled, waiting for in-flight downloads")
			break
		}

		// Sequential runs let the previous download land first so the pacer
		// measures the gap from its end
		for p.opts.Workers == 1 && pending > 0 {
			record(<-results)
		}

		target := storage.BasenameFromURL(link)

		// A download to the same name must land before the pre-check
		for inFlight[target] > 0 {
			record(<-results)
		}

		// Downloads still in flight may satisfy the limit on their own
		for p.opts.Limit > 0 && pending > 0 && summary.Completed+pending >= p.opts.Limit {
			record(<-results)
		}
		if limitReached() {
			break
		}

		if p.opts.NoClobber && p.store.Exists(target) {
			o := Outcome{URL: link, Filename: target, Status: StatusSkipped, Reason: ReasonExists}
			summary.Add(o)
			p.notify(o)
			continue
		}

		if err := p.pacer.Wait(ctx); err != nil {
			break
		}

		for {
			select {
			case jobs <- job{url: link, target: target}:
				pending++
				inFlight[target]++
				continue dispatch
			case r := <-results:
				record(r)
			}
		}
	}

	close(jobs)
	go func() {
		wg.Wait()
		close(results)
	}()
	for r := range results {
		record(r)
	}

	if limitReached() {
		p.logger.InfoWithFields("Download limit reached", map[string]interface{}{
			"limit": p.opts.Limit,
		})
	}

	return summary
}

// worker processes jobs until the queue is closed
func (p *Pipeline) worker(ctx context.Context, id int, jobs <-chan job, results chan<- result, wg *sync.WaitGroup) {
	defer wg.Done()

	p.logger.DebugWithFields("Worker started", map[string]interface{}{
		"worker_id": id,
	})

	for j := range jobs {
		o := p.Process(ctx, j.url, j.target, p.opts.Policy, p.opts.NoClobber)
		p.pacer.Done()
		results <- result{target: j.target, outcome: o}
	}

	p.logger.DebugWithFields("Worker stopping - job queue closed", map[string]interface{}{
		"worker_id": id,
	})
}
