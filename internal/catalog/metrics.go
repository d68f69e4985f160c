package catalog

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheMetricsMu sync.Mutex

	cacheHitCounter  *prometheus.CounterVec
	cacheMissCounter *prometheus.CounterVec
	fillHistogram    *prometheus.HistogramVec
)

// SetupCacheMetrics registers Prometheus metrics for the catalog cache.
// Repeated calls reuse already registered collectors.
func SetupCacheMetrics(reg prometheus.Registerer) error {
	cacheMetricsMu.Lock()
	defer cacheMetricsMu.Unlock()
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	hits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kanak_catalog_cache_hits_total",
		Help: "Number of catalog lookups served from Redis.",
	}, []string{"lookup"})
	misses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kanak_catalog_cache_miss_total",
		Help: "Number of catalog lookups fetched from the API.",
	}, []string{"lookup"})
	fills := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kanak_catalog_cache_fill_duration_seconds",
		Help:    "Duration of catalog cache fills.",
		Buckets: prometheus.DefBuckets,
	}, []string{"lookup"})

	var err error
	if cacheHitCounter, err = registerCounter(reg, hits); err != nil {
		return err
	}
	if cacheMissCounter, err = registerCounter(reg, misses); err != nil {
		return err
	}
	if err := reg.Register(fills); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return err
		}
		existing, ok := already.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return err
		}
		fills = existing
	}
	fillHistogram = fills
	return nil
}

func registerCounter(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

func recordCacheHit(lookup string) {
	cacheMetricsMu.Lock()
	c := cacheHitCounter
	cacheMetricsMu.Unlock()
	if c != nil {
		c.WithLabelValues(lookup).Inc()
	}
}

func recordCacheMiss(lookup string) {
	cacheMetricsMu.Lock()
	c := cacheMissCounter
	cacheMetricsMu.Unlock()
	if c != nil {
		c.WithLabelValues(lookup).Inc()
	}
}

func observeFillDuration(lookup string, d time.Duration) {
	cacheMetricsMu.Lock()
	h := fillHistogram
	cacheMetricsMu.Unlock()
	if h != nil {
		h.WithLabelValues(lookup).Observe(d.Seconds())
	}
}
