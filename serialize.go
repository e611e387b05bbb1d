package nacc

import (
	"bytes"
	"fmt"
	"strings"
)

// MarshalText renders the form as one fixed-width line: the header fields
// followed by the content fields, each padded to its width. Char fields
// are left-justified and all others right-justified.
func (f *Form) MarshalText() ([]byte, error) {
	var buf bytes.Buffer

	write := func(field *Field) error {
		value := field.Value
		width := field.Width()
		if len(value) > width {
			return fmt.Errorf("%w: %s on form %s is %d wide, limit %d",
				ErrFieldOverflow, field.Name, f.ID, len(value), width)
		}
		pad := strings.Repeat(" ", width-len(value))
		if field.IsChar() {
			buf.WriteString(value)
			buf.WriteString(pad)
		} else {
			buf.WriteString(pad)
			buf.WriteString(value)
		}
		return nil
	}

	for _, h := range headerLayout {
		field, _ := f.Field(h.Name)
		if err := write(field); err != nil {
			return nil, err
		}
	}
	for _, field := range f.fields {
		if isHeaderField(field.Name) {
			continue
		}
		if err := write(field); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func isHeaderField(name string) bool {
	for _, h := range headerLayout {
		if h.Name == name {
			return true
		}
	}
	return false
}

// MarshalPacket renders every form of p, one line each, in packet order.
// Nothing is returned unless every form renders.
func MarshalPacket(p *Packet) ([]byte, error) {
	var buf bytes.Buffer
	for _, form := range p.Forms() {
		line, err := form.MarshalText()
		if err != nil {
			return nil, err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
