package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"ansindexer/internal/ans"
	"ansindexer/internal/metrics"
	"ansindexer/internal/model"
	"ansindexer/internal/storage"
)

// RunConfig holds runtime settings for the indexer.
type RunConfig struct {
	Range     VersionRange
	BatchSize int
	SinkName  string
	// Now stamps inserted_at on every record. Defaults to time.Now.
	Now func() time.Time
}

// Runner streams transactions through the ANS projection into a sink.
type Runner struct {
	cfg        RunConfig
	projector  *ans.Projector
	source     Source
	sink       storage.Sink
	checkpoint CheckpointStore
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(
	cfg RunConfig,
	projector *ans.Projector,
	source Source,
	sink storage.Sink,
	checkpoint CheckpointStore,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Runner{
		cfg:        cfg,
		projector:  projector,
		source:     source,
		sink:       sink,
		checkpoint: checkpoint,
		metrics:    m,
		logger:     logger,
	}
}

type batch struct {
	lookups      map[model.CurrentAnsLookupPK]model.CurrentAnsLookup
	transactions int
	lastVersion  uint64
}

func newBatch() *batch {
	return &batch{lookups: make(map[model.CurrentAnsLookupPK]model.CurrentAnsLookup)}
}

// Run executes the projection loop until the source is exhausted.
func (r *Runner) Run(ctx context.Context) error {
	if r.projector == nil {
		return fmt.Errorf("projector is nil")
	}
	if r.source == nil {
		return fmt.Errorf("source is nil")
	}
	if r.sink == nil {
		return fmt.Errorf("sink is nil")
	}
	if r.cfg.BatchSize <= 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if err := r.cfg.Range.Validate(); err != nil {
		return err
	}
	if !r.projector.Enabled() {
		r.logger.Warn("contract address not configured, ans projection disabled")
	}

	var resumeAfter uint64
	var resume bool
	if r.checkpoint != nil {
		last, ok, err := r.checkpoint.Load(ctx)
		if err != nil {
			return err
		}
		if ok {
			resumeAfter, resume = last, true
			r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", last))
		}
	}

	var total, skipped, flushed int
	current := newBatch()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		txn, err := r.source.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read transaction: %w", err)
		}
		total++

		version := uint64(txn.Version)
		if !r.cfg.Range.Contains(version) || (resume && version <= resumeAfter) {
			skipped++
			continue
		}

		lookups, err := r.project(txn)
		if err != nil {
			r.reportFatal(err)
			return err
		}
		ans.Merge(current.lookups, lookups)
		current.transactions++
		if version > current.lastVersion {
			current.lastVersion = version
		}
		r.metrics.IncTransactions()

		if current.transactions >= r.cfg.BatchSize {
			n, err := r.flush(ctx, current)
			if err != nil {
				return err
			}
			flushed += n
			current = newBatch()
		}
	}

	if current.transactions > 0 {
		n, err := r.flush(ctx, current)
		if err != nil {
			return err
		}
		flushed += n
	}

	r.logger.Info("run complete",
		zap.Int("total", total),
		zap.Int("skipped", skipped),
		zap.Int("records", flushed),
	)
	return nil
}

func (r *Runner) project(txn model.Transaction) (map[model.CurrentAnsLookupPK]model.CurrentAnsLookup, error) {
	events, err := r.projector.Events(txn)
	if err != nil {
		return nil, err
	}
	lookups, err := ans.Reduce(events, r.cfg.Now())
	if err != nil {
		return nil, err
	}
	for _, event := range events {
		r.metrics.IncEvent(event.EventType)
	}
	return lookups, nil
}

func (r *Runner) flush(ctx context.Context, b *batch) (int, error) {
	records := model.SortedLookups(b.lookups)
	if err := r.sink.UpsertLookups(ctx, records); err != nil {
		return 0, fmt.Errorf("store lookups: %w", err)
	}
	if r.checkpoint != nil {
		if err := r.checkpoint.Save(ctx, b.lastVersion); err != nil {
			return 0, err
		}
	}
	r.metrics.AddFlushed(r.cfg.SinkName, len(records))
	r.metrics.SetLastFlushedVersion(b.lastVersion)

	r.logger.Info("batch complete",
		zap.Int("transactions", b.transactions),
		zap.Int("records", len(records)),
		zap.Uint64("last_version", b.lastVersion),
	)
	return len(records), nil
}

func (r *Runner) reportFatal(err error) {
	var decodeErr *ans.DecodeEventError
	var tsErr *ans.InvalidTimestampError
	switch {
	case errors.As(err, &decodeErr):
		r.metrics.IncFatal("decode")
		r.logger.Error("ans event decode failed",
			zap.Uint64("version", decodeErr.Version),
			zap.String("event_type", decodeErr.EventType),
			zap.ByteString("payload", decodeErr.Payload),
			zap.Error(decodeErr.Err),
		)
	case errors.As(err, &tsErr):
		r.metrics.IncFatal("timestamp")
		r.logger.Error("ans expiration timestamp invalid",
			zap.Uint64("version", tsErr.Version),
			zap.String("value", tsErr.Value),
		)
	default:
		r.logger.Error("ans projection failed", zap.Error(err))
	}
}
