// Package metrics provides Prometheus metrics for duplicate detection and merging.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// DedupMetrics contains Prometheus metrics for scans, reviews, merges and undos.
// A nil *DedupMetrics is valid and records nothing.
type DedupMetrics struct {
	registry *prometheus.Registry

	// Scan metrics
	scansTotal          *prometheus.CounterVec
	scanComparisons     *prometheus.CounterVec
	scanCandidates      *prometheus.CounterVec
	scanDuration        *prometheus.HistogramVec
	pairsUpsertedTotal  prometheus.Counter
	scanJobRunningGauge prometheus.Gauge

	// Queue metrics
	reviewsTotal *prometheus.CounterVec

	// Merge metrics
	mergesTotal    *prometheus.CounterVec
	mergeDuration  prometheus.Histogram
	transfersTotal *prometheus.CounterVec
	movedRecords   *prometheus.CounterVec
	undosTotal     *prometheus.CounterVec

	collectors []prometheus.Collector
}

// NewDedupMetrics creates and registers the metrics on registry.
func NewDedupMetrics(registry *prometheus.Registry) (*DedupMetrics, error) {
	m := &DedupMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DedupMetrics) initMetrics() {
	m.scansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedup_scans_total",
			Help: "Total number of duplicate scans",
		},
		[]string{"kind", "result"},
	)
	m.scanComparisons = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedup_scan_comparisons_total",
			Help: "Total number of member pairs scored",
		},
		[]string{"kind"},
	)
	m.scanCandidates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedup_scan_candidates_total",
			Help: "Total number of pairs at or above the scan threshold",
		},
		[]string{"kind"},
	)
	m.scanDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dedup_scan_duration_seconds",
			Help:    "Time taken by a duplicate scan",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4.4min
		},
		[]string{"kind"},
	)
	m.pairsUpsertedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dedup_pairs_upserted_total",
			Help: "Total number of duplicate pairs written to the queue",
		},
	)
	m.scanJobRunningGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dedup_scan_job_running",
			Help: "Whether a background full scan is running",
		},
	)
	m.reviewsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedup_reviews_total",
			Help: "Total number of manual review decisions",
		},
		[]string{"decision", "result"},
	)
	m.mergesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedup_merges_total",
			Help: "Total number of merge attempts",
		},
		[]string{"result"},
	)
	m.mergeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dedup_merge_duration_seconds",
			Help:    "Time taken by a merge transaction",
			Buckets: prometheus.DefBuckets,
		},
	)
	m.transfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedup_relationship_transfers_total",
			Help: "Total number of relationship category transfers",
		},
		[]string{"category", "result"},
	)
	m.movedRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedup_relationship_records_moved_total",
			Help: "Total number of dependent records repointed by merges",
		},
		[]string{"category"},
	)
	m.undosTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedup_undos_total",
			Help: "Total number of undo attempts",
		},
		[]string{"result"},
	)

	m.collectors = []prometheus.Collector{
		m.scansTotal,
		m.scanComparisons,
		m.scanCandidates,
		m.scanDuration,
		m.pairsUpsertedTotal,
		m.scanJobRunningGauge,
		m.reviewsTotal,
		m.mergesTotal,
		m.mergeDuration,
		m.transfersTotal,
		m.movedRecords,
		m.undosTotal,
	}
}

// Describe implements prometheus.Collector.
func (m *DedupMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *DedupMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// ObserveScan records one finished scan of the given kind ("all" or "member").
func (m *DedupMetrics) ObserveScan(kind string, comparisons int64, candidates int, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.scansTotal.WithLabelValues(kind, resultLabel(err)).Inc()
	m.scanComparisons.WithLabelValues(kind).Add(float64(comparisons))
	m.scanCandidates.WithLabelValues(kind).Add(float64(candidates))
	m.scanDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// AddUpsertedPairs counts pairs written to the queue.
func (m *DedupMetrics) AddUpsertedPairs(n int) {
	if m == nil {
		return
	}
	m.pairsUpsertedTotal.Add(float64(n))
}

// SetScanJobRunning flags whether the background scan is running.
func (m *DedupMetrics) SetScanJobRunning(running bool) {
	if m == nil {
		return
	}
	if running {
		m.scanJobRunningGauge.Set(1)
		return
	}
	m.scanJobRunningGauge.Set(0)
}

// RecordReview counts a review decision.
func (m *DedupMetrics) RecordReview(decision string, err error) {
	if m == nil {
		return
	}
	m.reviewsTotal.WithLabelValues(decision, resultLabel(err)).Inc()
}

// ObserveMerge records a merge attempt and its duration.
func (m *DedupMetrics) ObserveMerge(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.mergesTotal.WithLabelValues(resultLabel(err)).Inc()
	m.mergeDuration.Observe(d.Seconds())
}

// RecordTransfer records the outcome of one relationship category transfer.
func (m *DedupMetrics) RecordTransfer(category string, moved int64, err error) {
	if m == nil {
		return
	}
	m.transfersTotal.WithLabelValues(category, resultLabel(err)).Inc()
	if err == nil {
		m.movedRecords.WithLabelValues(category).Add(float64(moved))
	}
}

// RecordUndo counts an undo attempt.
func (m *DedupMetrics) RecordUndo(err error) {
	if m == nil {
		return
	}
	m.undosTotal.WithLabelValues(resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
