package indexer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"ansindexer/internal/model"
)

// Source yields transactions in ledger order. Next returns io.EOF when the
// stream is exhausted.
type Source interface {
	Next() (model.Transaction, error)
}

// JSONLSource reads one JSON transaction per line.
type JSONLSource struct {
	closer  io.Closer
	scanner *bufio.Scanner
	line    int
}

// OpenJSONLSource opens a JSONL transaction file.
func OpenJSONLSource(path string) (*JSONLSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	src := NewJSONLSource(file)
	src.closer = file
	return src, nil
}

// NewJSONLSource reads transactions from r.
func NewJSONLSource(r io.Reader) *JSONLSource {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)
	return &JSONLSource{scanner: scanner}
}

func (s *JSONLSource) Next() (model.Transaction, error) {
	for s.scanner.Scan() {
		s.line++
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var txn model.Transaction
		if err := json.Unmarshal(line, &txn); err != nil {
			return model.Transaction{}, fmt.Errorf("line %d: %w", s.line, err)
		}
		return txn, nil
	}
	if err := s.scanner.Err(); err != nil {
		return model.Transaction{}, fmt.Errorf("scan input: %w", err)
	}
	return model.Transaction{}, io.EOF
}

func (s *JSONLSource) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
