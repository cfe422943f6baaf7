// Package scraper runs a complete image grab.
//
// For every keyword, optionally combined with every modifier term, the
// scraper fetches the image search page, extracts the direct image links
// from the embedded result markup and collects them in order. The combined
// list then goes through the download pipeline, which applies the filename
// policy, the no-clobber rule and the global download limit.
//
// A search page that cannot be fetched is logged and counted; the run
// continues with the next query. Individual download failures never abort
// the run either, they are reported as outcomes.
//
// Usage:
//
//	cfg := config.DefaultConfig()
//	cfg.Download.Limit = 20
//
//	s, err := scraper.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	s.AddObserver(ui.NewReporter(nil))
//
//	result, err := s.Run(ctx, []string{"golden retriever"})
package scraper
