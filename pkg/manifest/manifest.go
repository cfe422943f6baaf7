// Package manifest records every download outcome of a run and saves the
// list as JSON or YAML next to the downloaded images.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"imagegrab/internal/downloader"
	"imagegrab/pkg/logger"
)

// Version is bumped when the file layout changes
const Version = 1

// Entry is one processed link
type Entry struct {
	URL        string    `json:"url" yaml:"url"`
	Filename   string    `json:"filename" yaml:"filename"`
	Status     string    `json:"status" yaml:"status"`
	Reason     string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
	Size       int       `json:"size,omitempty" yaml:"size,omitempty"`
	DurationMS int64     `json:"duration_ms" yaml:"duration_ms"`
	RecordedAt time.Time `json:"recorded_at" yaml:"recorded_at"`
}

// Manifest describes a whole run
type Manifest struct {
	Version    int                `json:"version" yaml:"version"`
	Keywords   []string           `json:"keywords" yaml:"keywords"`
	Modifiers  []string           `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Directory  string             `json:"directory" yaml:"directory"`
	StartedAt  time.Time          `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time          `json:"finished_at" yaml:"finished_at"`
	Summary    downloader.Summary `json:"summary" yaml:"summary"`
	Entries    []Entry            `json:"entries" yaml:"entries"`
}

// Recorder collects outcomes into a Manifest. It implements
// downloader.Observer.
type Recorder struct {
	path     string
	mu       sync.Mutex
	manifest *Manifest
	now      func() time.Time
	logger   logger.Logger
}

// NewRecorder starts a manifest that Finish writes to path
func NewRecorder(path, directory string, keywords, modifiers []string) *Recorder {
	r := &Recorder{
		path:   path,
		now:    time.Now,
		logger: logger.GetLogger(),
	}
	r.manifest = &Manifest{
		Version:   Version,
		Keywords:  keywords,
		Modifiers: modifiers,
		Directory: directory,
		StartedAt: r.now(),
		Entries:   []Entry{},
	}
	return r
}

// Observe appends o to the manifest
func (r *Recorder) Observe(o downloader.Outcome) {
	e := Entry{
		URL:        o.URL,
		Filename:   o.Filename,
		Status:     string(o.Status),
		Reason:     o.Reason,
		Size:       o.Size,
		DurationMS: o.Duration.Milliseconds(),
		RecordedAt: r.now(),
	}
	if o.Err != nil {
		e.Error = o.Err.Error()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifest.Entries = append(r.manifest.Entries, e)
}

// Manifest returns a copy of the manifest collected so far
func (r *Recorder) Manifest() Manifest {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := *r.manifest
	m.Entries = append([]Entry(nil), r.manifest.Entries...)
	return m
}

// Finish stamps the summary and saves the manifest
func (r *Recorder) Finish(summary downloader.Summary) error {
	r.mu.Lock()
	r.manifest.FinishedAt = r.now()
	r.manifest.Summary = summary
	m := *r.manifest
	r.mu.Unlock()

	if err := Save(r.path, &m); err != nil {
		return err
	}

	r.logger.InfoWithFields("Manifest saved", map[string]interface{}{
		"path":    r.path,
		"entries": len(m.Entries),
	})
	return nil
}

// isYAML reports whether path selects the YAML encoding
func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Save writes m to path atomically. The encoding follows the extension:
// .yaml and .yml produce YAML, anything else JSON.
func Save(path string, m *Manifest) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(m)
	} else {
		data, err = json.MarshalIndent(m, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}

	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary manifest file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync manifest file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close manifest file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace manifest file: %w", err)
	}

	return nil
}

// Load reads a manifest written by Save
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if isYAML(path) {
		err = yaml.Unmarshal(data, &m)
	} else {
		err = json.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}

	return &m, nil
}
