package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Sink names accepted by the run command.
const (
	SinkJSONL    = "jsonl"
	SinkPostgres = "postgres"
	SinkRedis    = "redis"
)

// Checkpoint store names accepted by the run command.
const (
	CheckpointFile = "file"
	CheckpointDB   = "db"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	In                string
	ContractAddress   string
	Sink              string
	Out               string
	PGDSN             string
	RedisURL          string
	RedisPrefix       string
	BatchSize         int
	FromVersion       uint64
	ToVersion         uint64
	Checkpoint        string
	CheckpointEnabled bool
	CheckpointStore   string
	MetricsAddr       string
	LogLevel          string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("sink", SinkJSONL)
		v.SetDefault("out", "./data/current_ans_lookup.jsonl")
		v.SetDefault("redis-prefix", "ans:lookup")
		v.SetDefault("batch-size", 500)
		v.SetDefault("checkpoint", "./data/checkpoint.json")
		v.SetDefault("checkpoint-enabled", true)
		v.SetDefault("checkpoint-store", CheckpointFile)
		v.SetDefault("log-level", "info")
	})
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		In:                v.GetString("in"),
		ContractAddress:   strings.TrimSpace(v.GetString("contract-address")),
		Sink:              strings.ToLower(v.GetString("sink")),
		Out:               v.GetString("out"),
		PGDSN:             v.GetString("pg-dsn"),
		RedisURL:          v.GetString("redis-url"),
		RedisPrefix:       v.GetString("redis-prefix"),
		BatchSize:         v.GetInt("batch-size"),
		FromVersion:       v.GetUint64("from-version"),
		ToVersion:         v.GetUint64("to-version"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		CheckpointStore:   strings.ToLower(v.GetString("checkpoint-store")),
		MetricsAddr:       v.GetString("metrics-addr"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks the settings that do not need a live connection.
func (c Config) Validate() error {
	if c.In == "" {
		return fmt.Errorf("input path is required")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	switch c.Sink {
	case SinkJSONL:
		if c.Out == "" {
			return fmt.Errorf("output path is required")
		}
	case SinkPostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg dsn is required")
		}
	case SinkRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("redis url is required")
		}
	default:
		return fmt.Errorf("unsupported sink: %s", c.Sink)
	}
	switch c.CheckpointStore {
	case CheckpointFile:
	case CheckpointDB:
		if c.CheckpointEnabled && c.PGDSN == "" {
			return fmt.Errorf("pg dsn is required for db checkpoints")
		}
	default:
		return fmt.Errorf("unsupported checkpoint store: %s", c.CheckpointStore)
	}
	return nil
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults func(v *viper.Viper)) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	defaults(v)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}
