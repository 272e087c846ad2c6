package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ansindexer/internal/ans"
	"ansindexer/internal/config"
	"ansindexer/internal/indexer"
	"ansindexer/internal/model"
)

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}

	contract, err := indexer.ParseContractAddress(cfg.ContractAddress)
	if err != nil {
		return err
	}
	if contract == "" {
		return fmt.Errorf("contract address is required")
	}
	projector, err := ans.NewProjector(contract)
	if err != nil {
		return err
	}

	source, err := indexer.OpenJSONLSource(cfg.In)
	if err != nil {
		return err
	}
	defer source.Close()

	outWriter, err := newJSONLWriter(cfg.Out, false)
	if err != nil {
		return err
	}
	defer outWriter.Close()

	errWriter, err := newJSONLWriter(cfg.Errors, false)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	logger.Info("decode start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.String("contract_address", contract),
	)

	var total, decoded int
	for {
		txn, err := source.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		total++

		events, err := projector.Events(txn)
		if err != nil {
			writeDecodeError(errWriter, decodeErrorFromErr(uint64(txn.Version), err))
			logger.Error("decode failed", zap.Uint64("version", uint64(txn.Version)), zap.Error(err))
			return err
		}
		for _, event := range events {
			if err := outWriter.Write(event); err != nil {
				return err
			}
			decoded++
		}
	}

	logger.Info("decode complete",
		zap.Int("transactions", total),
		zap.Int("decoded", decoded),
	)

	return nil
}

type jsonlWriter struct {
	file   *os.File
	writer *bufio.Writer
}

func newJSONLWriter(path string, appendMode bool) (*jsonlWriter, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	return &jsonlWriter{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

func (w *jsonlWriter) Write(value interface{}) error {
	line, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if _, err := w.writer.Write(line); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	return nil
}

func (w *jsonlWriter) Close() error {
	if w == nil {
		return nil
	}
	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

func decodeErrorFromErr(version uint64, err error) model.DecodeError {
	record := model.DecodeError{Version: version, Error: err.Error()}
	var decodeErr *ans.DecodeEventError
	if errors.As(err, &decodeErr) {
		record.EventType = decodeErr.EventType
		record.Payload = decodeErr.Payload
	}
	return record
}

func writeDecodeError(writer *jsonlWriter, errRecord model.DecodeError) {
	if writer == nil {
		return
	}
	_ = writer.Write(errRecord)
}
