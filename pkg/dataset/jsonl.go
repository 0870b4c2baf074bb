// Package dataset reads and writes line-delimited JSON corpora.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zorse-project/zorse/pkg/record"
)

// Ext is the only accepted corpus file extension.
const Ext = ".jsonl"

// WriteRecords encodes one record per line to w.
func WriteRecords(w io.Writer, records []record.Record) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i := range records {
		if err := enc.Encode(records[i]); err != nil {
			return fmt.Errorf("encode record %d: %w", i, err)
		}
	}
	return nil
}

// WriteFile writes records to path, creating or truncating it. The file is
// created even when records is empty.
func WriteFile(path string, records []record.Record) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(f, 1<<20)
	if err := WriteRecords(bw, records); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadRows decodes r into raw JSON rows, keeping each row's bytes as-is.
// Blank lines are skipped. Every other line must be a JSON object.
func ReadRows(r io.Reader) ([]json.RawMessage, error) {
	br := bufio.NewReaderSize(r, 1<<20)
	var rows []json.RawMessage
	for lineNo := 1; ; lineNo++ {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			line = bytes.TrimSpace(line)
			if len(line) > 0 {
				if !json.Valid(line) {
					return nil, fmt.Errorf("line %d: invalid JSON", lineNo)
				}
				if line[0] != '{' {
					return nil, fmt.Errorf("line %d: not a JSON object", lineNo)
				}
				rows = append(rows, json.RawMessage(line))
			}
		}
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// ReadFiles concatenates the rows of every file, in argument order.
func ReadFiles(paths ...string) ([]json.RawMessage, error) {
	var all []json.RawMessage
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		rows, err := ReadRows(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		all = append(all, rows...)
	}
	return all, nil
}

// EncodeRows joins rows into a JSONL payload.
func EncodeRows(rows []json.RawMessage) []byte {
	var buf bytes.Buffer
	for _, row := range rows {
		buf.Write(row)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
