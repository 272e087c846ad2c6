package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ansindexer/internal/model"
)

// JsonlStorage appends lookup records to a JSONL file. Readers replay the
// file in order; the last line for a name is its current state.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// UpsertLookups appends a batch of records as JSON lines.
func (s *JsonlStorage) UpsertLookups(_ context.Context, lookups []model.CurrentAnsLookup) error {
	if len(lookups) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range lookups {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal lookup: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write lookup: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
