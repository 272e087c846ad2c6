package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ANS projection.
type Metrics struct {
	TransactionsProcessed prometheus.Counter

	// Decoded ANS events by qualified event type
	EventsDecoded *prometheus.CounterVec

	// Records written by sink: "jsonl", "postgres", "redis"
	RecordsFlushed *prometheus.CounterVec

	// Fatal errors by kind: "decode", "timestamp"
	FatalErrors *prometheus.CounterVec

	LastFlushedVersion prometheus.Gauge
}

// New registers the collectors with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		TransactionsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "ans_indexer_transactions_processed_total",
			Help: "Transactions passed through the ANS projection",
		}),
		EventsDecoded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ans_indexer_events_decoded_total",
			Help: "ANS events decoded by event type",
		}, []string{"event_type"}),
		RecordsFlushed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ans_indexer_records_flushed_total",
			Help: "current_ans_lookup records written by sink",
		}, []string{"sink"}),
		FatalErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ans_indexer_fatal_errors_total",
			Help: "Fatal projection errors by kind",
		}, []string{"kind"}),
		LastFlushedVersion: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ans_indexer_last_flushed_version",
			Help: "Highest transaction version flushed to the sink",
		}),
	}
}

func (m *Metrics) IncTransactions() {
	if m != nil {
		m.TransactionsProcessed.Inc()
	}
}

func (m *Metrics) IncEvent(eventType string) {
	if m != nil {
		m.EventsDecoded.WithLabelValues(eventType).Inc()
	}
}

func (m *Metrics) AddFlushed(sink string, n int) {
	if m != nil {
		m.RecordsFlushed.WithLabelValues(sink).Add(float64(n))
	}
}

func (m *Metrics) IncFatal(kind string) {
	if m != nil {
		m.FatalErrors.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) SetLastFlushedVersion(version uint64) {
	if m != nil {
		m.LastFlushedVersion.Set(float64(version))
	}
}
