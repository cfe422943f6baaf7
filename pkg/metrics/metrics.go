// Package metrics counts download outcomes and search results in a private
// Prometheus registry that can be written to a node_exporter textfile.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"imagegrab/internal/downloader"
)

const namespace = "imagegrab"

// Collector implements downloader.Observer
type Collector struct {
	registry *prometheus.Registry

	DownloadsTotal   *prometheus.CounterVec
	DownloadDuration *prometheus.HistogramVec
	DownloadedBytes  prometheus.Counter
	SearchesTotal    *prometheus.CounterVec
	LinksFound       prometheus.Counter
}

// New creates a Collector with its own registry
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		DownloadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "downloads_total",
				Help:      "Total number of processed image links.",
			},
			[]string{"status", "reason"}, // status: completed, skipped, failed
		),
		DownloadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "download_duration_seconds",
				Help:      "Duration of image downloads.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"status"},
		),
		DownloadedBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloaded_bytes_total",
			Help:      "Total number of bytes fetched for kept images.",
		}),
		SearchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "searches_total",
				Help:      "Total number of search page fetches.",
			},
			[]string{"result"}, // result: ok, failed
		),
		LinksFound: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_found_total",
			Help:      "Total number of image links extracted from search pages.",
		}),
	}
}

// Registry returns the registry holding all imagegrab metrics
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Observe records one download outcome
func (c *Collector) Observe(o downloader.Outcome) {
	status := string(o.Status)
	c.DownloadsTotal.WithLabelValues(status, o.Reason).Inc()

	// pre-check skips never touched the network
	if o.Status == downloader.StatusSkipped && o.Reason == downloader.ReasonExists {
		return
	}
	c.DownloadDuration.WithLabelValues(status).Observe(o.Duration.Seconds())
	if o.Status == downloader.StatusCompleted {
		c.DownloadedBytes.Add(float64(o.Size))
	}
}

// ObserveSearch records one search page fetch
func (c *Collector) ObserveSearch(query string, links int, err error) {
	if err != nil {
		c.SearchesTotal.WithLabelValues("failed").Inc()
		return
	}
	c.SearchesTotal.WithLabelValues("ok").Inc()
	c.LinksFound.Add(float64(links))
}

// WriteTextfile atomically writes the metrics in text exposition format
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
