package nacc

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ExtractFilter selects the rows ExtractPTID keeps. Empty VisitNum and
// Event match any row.
type ExtractFilter struct {
	PTID     string
	VisitNum string
	Event    string // substring of redcap_event_name
}

// ExtractPTID copies the CSV header and every row matching f from r to w.
// It returns the number of rows written, not counting the header.
func ExtractPTID(r io.Reader, w io.Writer, f ExtractFilter) (int, error) {
	if f.PTID == "" {
		return 0, fmt.Errorf("%w: extract needs a ptid", ErrConflictingOptions)
	}

	src, err := NewCSVSource(r)
	if err != nil {
		return 0, err
	}
	cw := csv.NewWriter(w)
	header := src.Header()
	if err := cw.Write(header); err != nil {
		return 0, err
	}

	n := 0
	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return n, err
		}
		if !f.Matches(rec) {
			continue
		}

		row := make([]string, len(header))
		for i, column := range header {
			row[i] = rec[column]
		}
		if err := cw.Write(row); err != nil {
			return n, err
		}
		n++
	}

	cw.Flush()
	return n, cw.Error()
}

// Matches reports whether rec belongs to the filter's participant and,
// when set, visit number and event.
func (f ExtractFilter) Matches(rec Record) bool {
	if rec.PTID() != f.PTID {
		return false
	}
	if f.VisitNum != "" && rec[ColumnVisitNum] != f.VisitNum {
		return false
	}
	if f.Event != "" && !strings.Contains(rec[ColumnEventName], f.Event) {
		return false
	}
	return true
}
