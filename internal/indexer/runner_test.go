package indexer

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ansindexer/internal/ans"
	"ansindexer/internal/metrics"
	"ansindexer/internal/model"
)

const testContract = "0x867ed1f6bf916171b1de3ee92849b8978b7d1b9e0a8cc982a3d19d535dfd9c0c"

type memorySink struct {
	batches [][]model.CurrentAnsLookup
	err     error
}

func (s *memorySink) UpsertLookups(_ context.Context, lookups []model.CurrentAnsLookup) error {
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, lookups)
	return nil
}

func registerLine(version int, domain string) string {
	return `{"type":"user_transaction","version":"` + strconv.Itoa(version) + `","events":[{"type":"` + testContract +
		`::domains::RegisterNameEventV1","data":{"domain_name":"` + domain +
		`","subdomain_name":{"vec":[]},"expiration_time_secs":"1700000000"}}]}`
}

func setAddressLine(version int, domain, addr string) string {
	return `{"type":"user_transaction","version":"` + strconv.Itoa(version) + `","events":[{"type":"` + testContract +
		`::domains::SetNameAddressEventV1","data":{"domain_name":"` + domain +
		`","subdomain_name":{"vec":[]},"new_address":{"vec":["` + addr + `"]},"expiration_time_secs":"1700000000"}}]}`
}

type runnerFixture struct {
	sink       *memorySink
	checkpoint *FileCheckpointStore
	metrics    *metrics.Metrics
}

func newFixture(t *testing.T) *runnerFixture {
	t.Helper()
	return &runnerFixture{
		sink:       &memorySink{},
		checkpoint: NewFileCheckpointStore(filepath.Join(t.TempDir(), "checkpoint.json"), true),
		metrics:    metrics.New(prometheus.NewRegistry()),
	}
}

func (f *runnerFixture) runner(t *testing.T, contract string, input string, cfg RunConfig) *Runner {
	t.Helper()
	projector, err := ans.NewProjector(contract)
	require.NoError(t, err)
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	cfg.SinkName = "memory"
	cfg.Now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	return NewRunner(cfg, projector, NewJSONLSource(strings.NewReader(input)), f.sink, f.checkpoint, f.metrics, zap.NewNop())
}

func TestRunnerMergesAcrossTransactions(t *testing.T) {
	f := newFixture(t)
	input := strings.Join([]string{
		registerLine(10, "alice"),
		"",
		setAddressLine(11, "alice", "0xabc"),
		registerLine(12, "bob"),
	}, "\n")

	require.NoError(t, f.runner(t, testContract, input, RunConfig{}).Run(context.Background()))

	require.Len(t, f.sink.batches, 1)
	records := f.sink.batches[0]
	require.Len(t, records, 2)
	require.Equal(t, "alice", records[0].Domain)
	require.Equal(t, uint64(11), records[0].LastTransactionVersion)
	require.Equal(t, "0xabc", *records[0].RegisteredAddress)
	require.Equal(t, "bob", records[1].Domain)

	last, ok, err := f.checkpoint.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(12), last)

	require.Equal(t, 3.0, testutil.ToFloat64(f.metrics.TransactionsProcessed))
	require.Equal(t, 2.0, testutil.ToFloat64(f.metrics.RecordsFlushed.WithLabelValues("memory")))
}

func TestRunnerBatchesAndResumes(t *testing.T) {
	f := newFixture(t)
	input := strings.Join([]string{
		registerLine(1, "a"),
		registerLine(2, "b"),
		registerLine(3, "c"),
	}, "\n")

	require.NoError(t, f.runner(t, testContract, input, RunConfig{BatchSize: 2}).Run(context.Background()))
	require.Len(t, f.sink.batches, 2)
	require.Len(t, f.sink.batches[0], 2)
	require.Len(t, f.sink.batches[1], 1)

	f.sink.batches = nil
	input = strings.Join([]string{input, registerLine(4, "d")}, "\n")
	require.NoError(t, f.runner(t, testContract, input, RunConfig{BatchSize: 2}).Run(context.Background()))
	require.Len(t, f.sink.batches, 1)
	require.Equal(t, "d", f.sink.batches[0][0].Domain)
}

func TestRunnerVersionRange(t *testing.T) {
	f := newFixture(t)
	input := strings.Join([]string{
		registerLine(1, "a"),
		registerLine(2, "b"),
		registerLine(3, "c"),
	}, "\n")

	cfg := RunConfig{Range: VersionRange{From: 2, To: 2}}
	require.NoError(t, f.runner(t, testContract, input, cfg).Run(context.Background()))
	require.Len(t, f.sink.batches, 1)
	require.Len(t, f.sink.batches[0], 1)
	require.Equal(t, "b", f.sink.batches[0][0].Domain)
}

func TestRunnerDisabledWritesNothing(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.runner(t, "", registerLine(1, "a"), RunConfig{}).Run(context.Background()))
	require.Len(t, f.sink.batches, 1)
	require.Empty(t, f.sink.batches[0])
}

func TestRunnerStopsOnFatalError(t *testing.T) {
	f := newFixture(t)
	bad := `{"type":"user_transaction","version":"3","events":[{"type":"` + testContract +
		`::domains::RegisterNameEventV1","data":{"subdomain_name":{"vec":[]},"expiration_time_secs":"1"}}]}`
	input := strings.Join([]string{registerLine(1, "a"), bad, registerLine(4, "d")}, "\n")

	err := f.runner(t, testContract, input, RunConfig{BatchSize: 1}).Run(context.Background())
	require.ErrorIs(t, err, ans.ErrFatal)

	require.Len(t, f.sink.batches, 1)
	require.Equal(t, "a", f.sink.batches[0][0].Domain)
	last, _, err := f.checkpoint.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(1), last)
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.FatalErrors.WithLabelValues("decode")))
}

func TestRunnerMalformedLine(t *testing.T) {
	f := newFixture(t)
	err := f.runner(t, testContract, "{not json", RunConfig{}).Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 1")
}

func TestRunnerSinkError(t *testing.T) {
	f := newFixture(t)
	f.sink.err = errors.New("boom")
	err := f.runner(t, testContract, registerLine(1, "a"), RunConfig{}).Run(context.Background())
	require.ErrorContains(t, err, "boom")

	_, ok, err := f.checkpoint.Load(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}
