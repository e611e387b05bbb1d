package nacc

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// NormalizationEntry ties a trigger field to the dependent fields it
// governs. An entry without a trigger applies unconditionally.
type NormalizationEntry struct {
	Trigger string
	Values  []string // trigger values, compared after trimming
	Range   [2]int   // inclusive numeric trigger range, used when Values is empty
	Fields  []string

	hasRange bool
}

// NormalizationTable is an ordered list of entries applied in sequence.
type NormalizationTable struct {
	Entries []NormalizationEntry
}

// ParseNormalizationTable reads a table of the form
//
//	{"entries": [{"trigger": "GDS", "range": [0, 14], "fields": ["NOGDS"]}]}
func ParseNormalizationTable(data []byte) (NormalizationTable, error) {
	var table NormalizationTable
	if !gjson.ValidBytes(data) {
		return table, fmt.Errorf("%w: normalization table is not valid JSON", ErrInvalidCatalog)
	}

	var err error
	gjson.GetBytes(data, "entries").ForEach(func(_, e gjson.Result) bool {
		entry := NormalizationEntry{Trigger: e.Get("trigger").String()}
		for _, v := range e.Get("values").Array() {
			entry.Values = append(entry.Values, v.String())
		}
		if r := e.Get("range"); r.Exists() {
			bounds := r.Array()
			if len(bounds) != 2 || bounds[0].Int() > bounds[1].Int() {
				err = fmt.Errorf("%w: trigger %s: range needs [lo, hi]", ErrInvalidCatalog, entry.Trigger)
				return false
			}
			entry.Range = [2]int{int(bounds[0].Int()), int(bounds[1].Int())}
			entry.hasRange = true
		}
		for _, f := range e.Get("fields").Array() {
			entry.Fields = append(entry.Fields, f.String())
		}

		switch {
		case len(entry.Fields) == 0:
			err = fmt.Errorf("%w: trigger %q: entry has no fields", ErrInvalidCatalog, entry.Trigger)
		case entry.Trigger != "" && len(entry.Values) == 0 && !entry.hasRange:
			err = fmt.Errorf("%w: trigger %s: needs values or range", ErrInvalidCatalog, entry.Trigger)
		}
		if err != nil {
			return false
		}
		table.Entries = append(table.Entries, entry)
		return true
	})
	return table, err
}

// triggered reports whether the entry applies to p. Entries whose trigger
// field is absent from the packet never apply.
func (e *NormalizationEntry) triggered(p *Packet) bool {
	if e.Trigger == "" {
		return true
	}
	field, _, ok := p.Field(e.Trigger)
	if !ok {
		return false
	}

	value := strings.TrimSpace(field.Value)
	if len(e.Values) > 0 {
		return slices.Contains(e.Values, value)
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return false
	}
	return n >= e.Range[0] && n <= e.Range[1]
}

// ZeroFill sets every blank dependent of a triggered entry to "0".
// Dependents absent from the packet are skipped. Applying it twice gives
// the same result as applying it once.
func ZeroFill(p *Packet, table NormalizationTable) int {
	return table.apply(p, func(f *Field) bool {
		if !f.Empty() {
			return false
		}
		f.Value = ZeroValue
		return true
	})
}

// Reblank is the inverse of ZeroFill: dependents of a triggered entry
// holding an explicit zero are reset to blank.
func Reblank(p *Packet, table NormalizationTable) int {
	return table.apply(p, func(f *Field) bool {
		if strings.TrimSpace(f.Value) != ZeroValue {
			return false
		}
		f.Value = ""
		return true
	})
}

// Normalize runs a normalization mode with the catalog's tables and
// returns the number of fields changed.
func Normalize(p *Packet, mode Normalization, cat *Catalog) int {
	switch mode {
	case NormalizeZeroFill:
		return ZeroFill(p, cat.ZeroFill)
	case NormalizeReblank:
		return Reblank(p, cat.Reblank)
	default:
		return 0
	}
}

func (t NormalizationTable) apply(p *Packet, mutate func(*Field) bool) int {
	changed := 0
	for i := range t.Entries {
		entry := &t.Entries[i]
		if !entry.triggered(p) {
			continue
		}
		for _, name := range entry.Fields {
			field, _, ok := p.Field(name)
			if !ok {
				continue
			}
			if mutate(field) {
				changed++
			}
		}
	}
	return changed
}
