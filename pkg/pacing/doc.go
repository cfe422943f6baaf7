// Package pacing spaces out successive network operations.
//
// A Pacer enforces a fixed minimum interval between operations. Callers that
// report the end of each operation with Done get the gap measured from that
// end, so a slow operation is still followed by a full pause. The interval
// never changes in response to server behavior.
//
// Usage:
//
//	p := pacing.NewInterval(pacing.Effective(cfg.Download.RequestsDelay))
//	for _, link := range links {
//	    if err := p.Wait(ctx); err != nil {
//	        return err
//	    }
//	    // fetch link
//	    p.Done()
//	}
package pacing
