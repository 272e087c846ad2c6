package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ansindexer/internal/ans"
	"ansindexer/internal/config"
	"ansindexer/internal/indexer"
	"ansindexer/internal/metrics"
	"ansindexer/internal/storage"
	"ansindexer/internal/storage/postgres"
	"ansindexer/internal/storage/redis"
)

func main() {
	root := &cobra.Command{
		Use:          "indexer",
		Short:        "ANS current lookup indexer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Project ANS events into current_ans_lookup",
		RunE:  runIndexer,
	}

	runCmd.Flags().String("in", "", "input transactions JSONL")
	runCmd.Flags().String("contract-address", "", "ANS contract address (empty disables the projection)")
	runCmd.Flags().String("sink", config.SinkJSONL, "record sink (jsonl, postgres, redis)")
	runCmd.Flags().String("out", "./data/current_ans_lookup.jsonl", "output JSONL path for the jsonl sink")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	runCmd.Flags().String("redis-url", "", "Redis URL (redis://host:port/db)")
	runCmd.Flags().String("redis-prefix", redis.DefaultPrefix, "Redis key prefix")
	runCmd.Flags().Int("batch-size", 500, "transactions per sink flush")
	runCmd.Flags().Uint64("from-version", 0, "first transaction version (inclusive)")
	runCmd.Flags().Uint64("to-version", 0, "last transaction version (inclusive), 0 means unbounded")
	runCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	runCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	runCmd.Flags().String("checkpoint-store", config.CheckpointFile, "checkpoint store (file, db)")
	runCmd.Flags().String("metrics-addr", "", "address for the Prometheus /metrics endpoint, empty disables it")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode ANS events from transactions for inspection",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("in", "", "input transactions JSONL")
	decodeCmd.Flags().String("contract-address", "", "ANS contract address")
	decodeCmd.Flags().String("out", "./data/ans_events.jsonl", "output decoded events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIndexer(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}

	contract, err := indexer.ParseContractAddress(cfg.ContractAddress)
	if err != nil {
		return err
	}
	projector, err := ans.NewProjector(contract)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := indexer.OpenJSONLSource(cfg.In)
	if err != nil {
		return err
	}
	defer source.Close()

	var pgStore *postgres.Store
	if cfg.Sink == config.SinkPostgres || (cfg.CheckpointEnabled && cfg.CheckpointStore == config.CheckpointDB) {
		pgStore, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pgStore.Close()
		if err := pgStore.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	var sink storage.Sink
	switch cfg.Sink {
	case config.SinkPostgres:
		sink = pgStore
	case config.SinkRedis:
		redisStore, err := redis.NewStore(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisStore.Close()
		sink = redisStore
	default:
		sink = storage.NewJsonlStorage(cfg.Out)
	}

	var checkpoint indexer.CheckpointStore
	if cfg.CheckpointStore == config.CheckpointDB && cfg.CheckpointEnabled {
		checkpoint = &indexer.DBCheckpointStore{Store: pgStore, Name: "current_ans_lookup:" + cfg.Sink}
	} else {
		checkpoint = indexer.NewFileCheckpointStore(cfg.Checkpoint, cfg.CheckpointEnabled)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.MetricsAddr != "" {
		shutdown := serveMetrics(cfg.MetricsAddr, logger)
		defer shutdown()
	}

	runner := indexer.NewRunner(indexer.RunConfig{
		Range:     indexer.VersionRange{From: cfg.FromVersion, To: cfg.ToVersion},
		BatchSize: cfg.BatchSize,
		SinkName:  cfg.Sink,
	}, projector, source, sink, checkpoint, m, logger)

	logger.Info("indexer start",
		zap.String("in", cfg.In),
		zap.String("contract_address", contract),
		zap.String("sink", cfg.Sink),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Uint64("from_version", cfg.FromVersion),
		zap.Uint64("to_version", cfg.ToVersion),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint_store", cfg.CheckpointStore),
	)

	return runner.Run(ctx)
}

func serveMetrics(addr string, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
	logger.Info("metrics listening", zap.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
