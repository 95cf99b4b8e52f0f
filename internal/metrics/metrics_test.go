package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestDedupMetricsRecords(t *testing.T) {
	m, err := NewDedupMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.ObserveScan("all", 45, 3, 20*time.Millisecond, nil)
	m.RecordTransfer("payments", 4, nil)
	m.RecordTransfer("payments", 0, errors.New("boom"))
	m.RecordUndo(nil)
	m.SetScanJobRunning(true)

	require.Equal(t, 45.0, testutil.ToFloat64(m.scanComparisons.WithLabelValues("all")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.scanCandidates.WithLabelValues("all")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.transfersTotal.WithLabelValues("payments", ResultSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.transfersTotal.WithLabelValues("payments", ResultError)))
	require.Equal(t, 4.0, testutil.ToFloat64(m.movedRecords.WithLabelValues("payments")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.undosTotal.WithLabelValues(ResultSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.scanJobRunningGauge))
}

func TestDedupMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewDedupMetrics(reg)
	require.NoError(t, err)

	_, err = NewDedupMetrics(reg)
	require.Error(t, err)
}

func TestNilDedupMetricsIsNoop(t *testing.T) {
	var m *DedupMetrics
	require.NotPanics(t, func() {
		m.ObserveScan("member", 1, 0, time.Millisecond, nil)
		m.AddUpsertedPairs(1)
		m.SetScanJobRunning(false)
		m.RecordReview("skipped", nil)
		m.ObserveMerge(time.Millisecond, nil)
		m.RecordTransfer("payments", 1, nil)
		m.RecordUndo(nil)
	})
}
