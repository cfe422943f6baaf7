package downloader

import (
	"fmt"
	"time"

	"imagegrab/pkg/storage"
)

// Status is the terminal state of one link
type Status string

const (
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Skip reasons
const (
	ReasonExists    = "exists"    // basename target already on disk, not fetched
	ReasonDuplicate = "duplicate" // content hash name already on disk, download discarded
)

// Outcome describes what happened to one link. Err is set only for
// StatusFailed and carries a typed error from imagegrab/pkg/errors.
type Outcome struct {
	URL      string
	Filename string
	Status   Status
	Reason   string
	Err      error
	Size     int
	Duration time.Duration
}

func (o Outcome) String() string {
	switch o.Status {
	case StatusFailed:
		return fmt.Sprintf("%s %s: %v", o.Status, o.URL, o.Err)
	case StatusSkipped:
		return fmt.Sprintf("%s %s (%s)", o.Status, o.Filename, o.Reason)
	default:
		return fmt.Sprintf("%s %s", o.Status, o.Filename)
	}
}

// Summary holds the run totals. Every counted outcome increments exactly one
// field.
type Summary struct {
	Completed int `json:"completed" yaml:"completed"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	Failed    int `json:"errors" yaml:"errors"`
}

// Add counts o
func (s *Summary) Add(o Outcome) {
	switch o.Status {
	case StatusCompleted:
		s.Completed++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
}

// Total returns the number of counted outcomes
func (s Summary) Total() int {
	return s.Completed + s.Skipped + s.Failed
}

// Observer receives every outcome in the order it is counted. Observe is
// always called from the goroutine running Pipeline.Run.
type Observer interface {
	Observe(o Outcome)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(o Outcome)

func (f ObserverFunc) Observe(o Outcome) { f(o) }

// FilenamePolicy decides the final name of a downloaded file. The zero value
// keeps the basename derived from the URL.
type FilenamePolicy struct {
	algo    storage.Algorithm
	hashing bool
}

// BasenamePolicy keeps the URL-derived name
func BasenamePolicy() FilenamePolicy {
	return FilenamePolicy{}
}

// ContentHashPolicy renames files to "<hex digest><ext>"
func ContentHashPolicy(algo storage.Algorithm) FilenamePolicy {
	return FilenamePolicy{algo: algo, hashing: true}
}

// PolicyFor maps a filename format name (basename, sha256, blake2b) to a policy
func PolicyFor(format string) (FilenamePolicy, error) {
	if format == "" || format == "basename" {
		return BasenamePolicy(), nil
	}
	algo, err := storage.AlgorithmByName(format)
	if err != nil {
		return FilenamePolicy{}, fmt.Errorf("unknown filename format %q", format)
	}
	return ContentHashPolicy(algo), nil
}

// IsContentHash reports whether files are renamed by content digest
func (p FilenamePolicy) IsContentHash() bool {
	return p.hashing
}

func (p FilenamePolicy) String() string {
	if !p.hashing {
		return "basename"
	}
	return p.algo.Name
}
