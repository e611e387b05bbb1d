package nacc

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Builder turns records into packets for one protocol.
//
// A Builder holds no per-record state and may be shared.
type Builder struct {
	Spec   *ProtocolSpec
	chains *ChainManager
}

func NewBuilder(spec *ProtocolSpec, chains *ChainManager) *Builder {
	if chains == nil {
		chains = NewChainManager()
	}
	return &Builder{Spec: spec, chains: chains}
}

// Build constructs the header-stamped packet for rec. Notices are
// non-fatal diagnostics, such as a header form that reports the session
// as not done. Any error aborts the record and no packet is returned.
func (b *Builder) Build(rec Record) (*Packet, []string, error) {
	if err := CheckCutoff(b.Spec, rec); err != nil {
		return nil, nil, err
	}

	var notices []string
	packet := NewPacket()

	header, hasHeader := b.Spec.HeaderForm()
	if b.checklistDone(rec) {
		for _, spec := range b.Spec.Forms {
			if spec.Role == RoleHeader || !spec.Included(rec) {
				continue
			}
			form, err := b.buildForm(spec, rec)
			if err != nil {
				return nil, nil, err
			}
			packet.Append(form)
		}
	} else {
		notices = append(notices, fmt.Sprintf("ptid %s: No %s form found.", rec.PTID(), header.ID))
	}

	if hasHeader {
		form, err := b.buildForm(header, rec)
		if err != nil {
			return nil, nil, err
		}
		if err := packet.Insert(0, form); err != nil {
			return nil, nil, err
		}
	}

	if err := StampHeaders(packet, b.Spec, rec); err != nil {
		return nil, nil, err
	}
	return packet, notices, nil
}

func (b *Builder) buildForm(spec *FormSpec, rec Record) (*Form, error) {
	chain, err := b.chains.GetChain(b.Spec.Name, spec)
	if err != nil {
		return nil, err
	}
	form := NewForm(spec)
	if err := chain.Execute(rec, form); err != nil {
		return nil, err
	}
	return form, nil
}

// checklistDone reports whether the header form marks the session as
// completed. Protocols without a checklist are always complete.
func (b *Builder) checklistDone(rec Record) bool {
	c := b.Spec.Checklist
	if c == nil {
		return true
	}
	value, _, found := rec.Lookup(c.bindings...)
	return found && slices.Contains(c.Done, strings.TrimSpace(value))
}

// Included reports whether the form is built for rec. Optional forms need
// their presence flag set to an affirmative value; a flag column missing
// from the record means the form is not present.
func (f *FormSpec) Included(rec Record) bool {
	if f.Role != RoleOptional {
		return true
	}
	value, _, found := rec.Lookup(f.flag...)
	return found && slices.Contains(f.When, strings.TrimSpace(value))
}

// CheckCutoff rejects records whose visit date precedes the protocol's
// cutoff date.
func CheckCutoff(spec *ProtocolSpec, rec Record) error {
	cutoff, ok := spec.CutoffDate()
	if !ok {
		return nil
	}
	visit, err := VisitDate(rec)
	if err != nil {
		return err
	}
	if visit.Before(cutoff) {
		return fmt.Errorf("%w: visit %s, cutoff %s",
			ErrDateOutOfRange, visit.Format(CutoffLayout), cutoff.Format(CutoffLayout))
	}
	return nil
}

// VisitDate parses the record's visit year, month and day.
func VisitDate(rec Record) (time.Time, error) {
	var parts [3]int
	for i, column := range []string{ColumnVisitYr, ColumnVisitMo, ColumnVisitDay} {
		raw, ok := rec[column]
		if !ok {
			return time.Time{}, fmt.Errorf("%w: %s", ErrMissingField, column)
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s=%q", ErrDateParse, column, raw)
		}
		parts[i] = n
	}

	yr, mo, day := parts[0], parts[1], parts[2]
	date := time.Date(yr, time.Month(mo), day, 0, 0, 0, 0, time.UTC)
	if date.Year() != yr || int(date.Month()) != mo || date.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d is not a calendar date", ErrDateParse, yr, mo, day)
	}
	return date, nil
}
