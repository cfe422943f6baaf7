package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"imagegrab/internal/downloader"
)

// Reporter prints one line per download outcome and a closing summary.
// It implements downloader.Observer.
type Reporter struct {
	mu        sync.Mutex
	w         io.Writer
	startTime time.Time
	summary   downloader.Summary
	bytes     int64
	searches  int
	links     int
}

// NewReporter creates a reporter writing to w, or to Output() when w is nil
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{
		w:         w,
		startTime: time.Now(),
	}
}

func (r *Reporter) writer() io.Writer {
	if r.w != nil {
		return r.w
	}
	return Output()
}

// ObserveSearch prints the number of links a search produced
func (r *Reporter) ObserveSearch(query string, links int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.searches++
	if err != nil {
		fmt.Fprintf(r.writer(), "%s %q: %v\n", Red("Search failed"), query, err)
		return
	}
	r.links += links
	if IsQuietMode() {
		return
	}
	fmt.Fprintf(r.writer(), "%s %s %s\n", Magenta("Evaluating..."), Cyan(query), Dim(fmt.Sprintf("(%d image links)", links)))
}

// Observe prints a single outcome
func (r *Reporter) Observe(o downloader.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.summary.Add(o)
	switch o.Status {
	case downloader.StatusCompleted:
		r.bytes += int64(o.Size)
		if !IsQuietMode() {
			fmt.Fprintf(r.writer(), "%s ====> %s %s\n", Green("completed"), o.Filename, Dim(formatBytes(int64(o.Size))))
		}
	case downloader.StatusSkipped:
		if !IsQuietMode() {
			fmt.Fprintf(r.writer(), "%s ====> %s %s\n", Yellow("Skipped"), o.Filename, Dim("("+o.Reason+")"))
		}
	case downloader.StatusFailed:
		fmt.Fprintf(r.writer(), "%s ====> %s: %v\n", Red("Failed"), o.URL, o.Err)
	}
}

// Summary returns the totals seen so far
func (r *Reporter) Summary() downloader.Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary
}

// Complete prints the end-of-run summary
func (r *Reporter) Complete(summary downloader.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := time.Since(r.startTime)
	w := r.writer()

	fmt.Fprintf(w, "\n%s completed=%d skipped=%d errors=%d\n",
		Green("Everything downloaded!"),
		summary.Completed,
		summary.Skipped,
		summary.Failed,
	)

	if IsQuietMode() {
		return
	}

	fmt.Fprintf(w, "  %s %s in %s from %d links across %d searches\n",
		Dim("•"),
		formatBytes(r.bytes),
		formatDuration(elapsed),
		r.links,
		r.searches,
	)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

// formatBytes formats bytes in a human-readable way
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
