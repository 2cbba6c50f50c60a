// Package refsnapshotmgr is the one concrete bucket.SnapshotManager this
// module ships: an atomically swapped snapshot pointer instrumented with
// Prometheus histograms, generalized from the teacher's habit of wrapping
// every externally observable operation in a log.Printf trail (sstable's
// SSManager) into metrics a real deployment would actually scrape.
package refsnapshotmgr

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/stellarbase/bucketlist/bucket"
)

// Manager holds the current bucket.BucketListSnapshot behind an atomic
// pointer so Refresh never blocks a concurrent reader, and records point-
// and bulk-load latencies as Prometheus histograms.
type Manager struct {
	current atomic.Pointer[bucket.BucketListSnapshot]

	pointLoad prometheus.ObserverVec
	bulkLoad  prometheus.ObserverVec
	bulkSize  prometheus.ObserverVec
}

// New wires a Manager's metrics into reg and seeds it with the given initial
// snapshot.
func New(reg prometheus.Registerer, initial *bucket.BucketListSnapshot) *Manager {
	m := &Manager{
		pointLoad: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bucketlist_point_load_seconds",
			Help:    "Latency of single-key lookups against the bucket list cascade.",
			Buckets: prometheus.DefBuckets,
		}, []string{"key_type"}),
		bulkLoad: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bucketlist_bulk_load_seconds",
			Help:    "Latency of bulk lookups against the bucket list cascade.",
			Buckets: prometheus.DefBuckets,
		}, []string{"label"}),
		bulkSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bucketlist_bulk_load_key_count",
			Help:    "Number of keys requested per bulk lookup.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"label"}),
	}
	if reg != nil {
		reg.MustRegister(m.pointLoad.(prometheus.Collector), m.bulkLoad.(prometheus.Collector), m.bulkSize.(prometheus.Collector))
	}
	m.current.Store(initial)
	return m
}

// Publish swaps in a freshly built snapshot, making it visible to every
// subsequent Refresh call. The previous snapshot remains valid for any
// in-flight reader still holding it.
func (m *Manager) Publish(snap *bucket.BucketListSnapshot) {
	m.current.Store(snap)
}

// Refresh implements bucket.SnapshotManager.
func (m *Manager) Refresh(held **bucket.BucketListSnapshot) {
	*held = m.current.Load()
}

// PointLoadTimer implements bucket.SnapshotManager.
func (m *Manager) PointLoadTimer(keyType string) bucket.Timer {
	return newHistogramTimer(m.pointLoad.WithLabelValues(keyType))
}

// BulkLoadTimer implements bucket.SnapshotManager.
func (m *Manager) BulkLoadTimer(label string, count int) bucket.Timer {
	m.bulkSize.WithLabelValues(label).Observe(float64(count))
	return newHistogramTimer(m.bulkLoad.WithLabelValues(label))
}

type histogramTimer struct {
	timer *prometheus.Timer
}

func newHistogramTimer(obs prometheus.Observer) histogramTimer {
	return histogramTimer{timer: prometheus.NewTimer(obs)}
}

func (t histogramTimer) Stop() {
	t.timer.ObserveDuration()
}
