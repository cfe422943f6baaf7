package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagegrab/internal/downloader"
)

// gather returns the metric families of c keyed by name
func gather(t *testing.T, c *Collector) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := c.Registry().Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func counterValue(f *dto.MetricFamily, labels map[string]string) float64 {
	for _, m := range f.GetMetric() {
		match := true
		for _, lp := range m.GetLabel() {
			if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
				match = false
			}
		}
		if match {
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestObserveOutcomes(t *testing.T) {
	c := New()
	c.Observe(downloader.Outcome{Status: downloader.StatusCompleted, Size: 100, Duration: 20 * time.Millisecond})
	c.Observe(downloader.Outcome{Status: downloader.StatusCompleted, Size: 50, Duration: 30 * time.Millisecond})
	c.Observe(downloader.Outcome{Status: downloader.StatusSkipped, Reason: downloader.ReasonExists})
	c.Observe(downloader.Outcome{Status: downloader.StatusSkipped, Reason: downloader.ReasonDuplicate, Size: 10})
	c.Observe(downloader.Outcome{Status: downloader.StatusFailed, Reason: "protocol"})

	families := gather(t, c)

	downloads := families["imagegrab_downloads_total"]
	require.NotNil(t, downloads)
	assert.Equal(t, 2.0, counterValue(downloads, map[string]string{"status": "completed"}))
	assert.Equal(t, 1.0, counterValue(downloads, map[string]string{"status": "skipped", "reason": "exists"}))
	assert.Equal(t, 1.0, counterValue(downloads, map[string]string{"status": "skipped", "reason": "duplicate"}))
	assert.Equal(t, 1.0, counterValue(downloads, map[string]string{"status": "failed", "reason": "protocol"}))

	assert.Equal(t, 150.0, families["imagegrab_downloaded_bytes_total"].GetMetric()[0].GetCounter().GetValue())

	var observed uint64
	for _, m := range families["imagegrab_download_duration_seconds"].GetMetric() {
		observed += m.GetHistogram().GetSampleCount()
	}
	assert.Equal(t, uint64(4), observed)
}

func TestObserveSearch(t *testing.T) {
	c := New()
	c.ObserveSearch("cats", 12, nil)
	c.ObserveSearch("dogs", 3, nil)
	c.ObserveSearch("birds", 0, errors.New("HTTP 503"))

	families := gather(t, c)
	searches := families["imagegrab_searches_total"]
	assert.Equal(t, 2.0, counterValue(searches, map[string]string{"result": "ok"}))
	assert.Equal(t, 1.0, counterValue(searches, map[string]string{"result": "failed"}))
	assert.Equal(t, 15.0, families["imagegrab_links_found_total"].GetMetric()[0].GetCounter().GetValue())
}

func TestWriteTextfile(t *testing.T) {
	c := New()
	c.Observe(downloader.Outcome{Status: downloader.StatusCompleted, Size: 1})

	path := filepath.Join(t.TempDir(), "imagegrab.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `status="completed"} 1`)
	assert.Contains(t, string(data), "# TYPE imagegrab_download_duration_seconds histogram")
}

func TestCollectorsAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.Observe(downloader.Outcome{Status: downloader.StatusFailed, Reason: "network"})

	assert.Empty(t, gather(t, b)["imagegrab_downloads_total"].GetMetric())
}
