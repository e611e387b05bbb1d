package nacc

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

// Supported record formats.
const (
	FormatCSV        = "csv"
	FormatJSONLines  = "jsonl"
	maxJSONLineBytes = 16 << 20
)

// RecordSource yields records one at a time. Next returns io.EOF when the
// input is exhausted.
type RecordSource interface {
	Next() (Record, error)
}

// NewSource opens a record source over r for the named format.
func NewSource(format string, r io.Reader) (RecordSource, error) {
	switch strings.ToLower(format) {
	case "", FormatCSV:
		return NewCSVSource(r)
	case FormatJSONLines, "ndjson":
		return NewJSONLinesSource(r), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

///////////////////////////////////////////////////////////////////////////////
// CSV
///////////////////////////////////////////////////////////////////////////////

// CSVSource reads a REDCap CSV export. The first row names the columns.
type CSVSource struct {
	r      *csv.Reader
	header []string
}

func NewCSVSource(r io.Reader) (*CSVSource, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv: missing header row")
		}
		return nil, fmt.Errorf("csv: header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return &CSVSource{r: cr, header: header}, nil
}

// Header returns the column names.
func (s *CSVSource) Header() []string {
	return s.header
}

// Next returns the next row. Short rows leave the trailing columns out of
// the record; extra cells are ignored.
func (s *CSVSource) Next() (Record, error) {
	row, err := s.r.Read()
	if err != nil {
		return nil, err
	}
	rec := make(Record, len(s.header))
	for i, column := range s.header {
		if i < len(row) {
			rec[column] = row[i]
		}
	}
	return rec, nil
}

///////////////////////////////////////////////////////////////////////////////
// JSON lines
///////////////////////////////////////////////////////////////////////////////

// JSONLinesSource reads one JSON object per line, as produced by the
// REDCap API with format=json flattened to rows. Non-string values keep
// their JSON text; null becomes the empty string.
type JSONLinesSource struct {
	sc   *bufio.Scanner
	line int
}

func NewJSONLinesSource(r io.Reader) *JSONLinesSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxJSONLineBytes)
	return &JSONLinesSource{sc: sc}
}

func (s *JSONLinesSource) Next() (Record, error) {
	for s.sc.Scan() {
		s.line++
		line := strings.TrimSpace(s.sc.Text())
		if line == "" {
			continue
		}
		if !gjson.Valid(line) {
			return nil, fmt.Errorf("jsonl: line %d: invalid JSON", s.line)
		}
		obj := gjson.Parse(line)
		if !obj.IsObject() {
			return nil, fmt.Errorf("jsonl: line %d: not an object", s.line)
		}

		rec := make(Record)
		obj.ForEach(func(key, value gjson.Result) bool {
			switch value.Type {
			case gjson.String:
				rec[key.String()] = value.Str
			case gjson.Null:
				rec[key.String()] = ""
			default:
				rec[key.String()] = value.Raw
			}
			return true
		})
		return rec, nil
	}
	if err := s.sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}
