package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ReadCSV loads a delimited text file into a Table. Header cells are trimmed.
// Files that are not valid UTF-8, or that fail to parse on the first attempt,
// are retried once through a Latin-1 decode; government portals still publish
// CSVs in legacy encodings.
func ReadCSV(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if !utf8.Valid(data) {
		return parseCSV(decodeLatin1(data), path)
	}
	t, err := parseCSV(data, path)
	if err != nil {
		if t2, err2 := parseCSV(decodeLatin1(data), path); err2 == nil {
			return t2, nil
		}
		return nil, err
	}
	return t, nil
}

func decodeLatin1(data []byte) []byte {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		// ISO 8859-1 maps every byte; this path is unreachable in practice.
		return data
	}
	return out
}

func parseCSV(data []byte, path string) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(path, data)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return New(nil, nil), nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, append([]string(nil), rec...))
	}
	return New(header, rows), nil
}

// sniffDelimiter picks the field separator: extension first, then a first-line
// count among ',', ';', '\t'.
func sniffDelimiter(path string, data []byte) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, cand := range []byte{';', '\t'} {
		if n := bytes.Count(line, []byte{cand}); n > bestCount {
			best, bestCount = rune(cand), n
		}
	}
	return best
}
