package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncTransactions()
	m.IncTransactions()
	m.IncEvent("domains::RegisterNameEventV1")
	m.AddFlushed("postgres", 3)
	m.IncFatal("decode")
	m.SetLastFlushedVersion(42)

	require.Equal(t, 2.0, testutil.ToFloat64(m.TransactionsProcessed))
	require.Equal(t, 1.0, testutil.ToFloat64(m.EventsDecoded.WithLabelValues("domains::RegisterNameEventV1")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.RecordsFlushed.WithLabelValues("postgres")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.FatalErrors.WithLabelValues("decode")))
	require.Equal(t, 42.0, testutil.ToFloat64(m.LastFlushedVersion))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.IncTransactions()
	m.IncEvent("x")
	m.AddFlushed("jsonl", 1)
	m.IncFatal("decode")
	m.SetLastFlushedVersion(1)
}
