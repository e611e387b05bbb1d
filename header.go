package nacc

import (
	"fmt"
	"strings"
)

// StampHeaders fills the header fields of every form in p. Visit
// identity comes from rec and the visit date must be a calendar date,
// whether or not the protocol has a cutoff. When the protocol declares
// per-form dates, a form's own date and rater columns override the visit
// date and initials.
func StampHeaders(p *Packet, spec *ProtocolSpec, rec Record) error {
	visit, err := visitHeader(rec)
	if err != nil {
		return err
	}
	if _, err := VisitDate(rec); err != nil {
		return err
	}

	for _, form := range p.Forms() {
		packet := spec.Packet
		if header, ok := spec.HeaderForm(); ok && header.ID == form.ID {
			packet = spec.HeaderPacket
		}

		values := map[string]string{
			HeaderPacket:  packet,
			HeaderFormID:  form.ID,
			HeaderFormVer: spec.Version,
		}
		for name, v := range visit {
			values[name] = v
		}
		if spec.FormDates {
			overrideFormDate(values, form, rec)
		}

		for _, h := range headerLayout {
			if err := form.Set(h.Name, values[h.Name]); err != nil {
				return err
			}
		}
	}
	return nil
}

// visitHeader copies the record-level header columns.
func visitHeader(rec Record) (map[string]string, error) {
	columns := []struct{ field, column string }{
		{HeaderADCID, ColumnADCID},
		{HeaderPTID, ColumnPTID},
		{HeaderVisitMo, ColumnVisitMo},
		{HeaderVisitDay, ColumnVisitDay},
		{HeaderVisitYr, ColumnVisitYr},
		{HeaderVisitNum, ColumnVisitNum},
		{HeaderInitials, ColumnInitials},
	}

	values := make(map[string]string, len(columns))
	for _, c := range columns {
		v, ok := rec[c.column]
		if !ok {
			return nil, fmt.Errorf("%w: header %s (column %s)", ErrMissingField, c.field, c.column)
		}
		values[c.field] = v
	}
	return values, nil
}

func overrideFormDate(values map[string]string, form *Form, rec Record) {
	if form.Date != "" {
		if yr, mo, day, ok := splitFormDate(rec[form.Date]); ok {
			values[HeaderVisitYr] = yr
			values[HeaderVisitMo] = mo
			values[HeaderVisitDay] = day
		}
	}
	if form.Rater != "" {
		if rater := rec[form.Rater]; rater != "" {
			values[HeaderInitials] = rater
		}
	}
}

// splitFormDate splits a yyyy-mm-dd form date. Anything other than three
// numeric components is rejected.
func splitFormDate(date string) (yr, mo, day string, ok bool) {
	parts := strings.Split(strings.TrimSpace(date), DateComponentSep)
	if len(parts) != 3 {
		return "", "", "", false
	}
	for _, part := range parts {
		if !isDigits(part) {
			return "", "", "", false
		}
	}
	return parts[0], parts[1], parts[2], true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
