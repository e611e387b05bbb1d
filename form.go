package nacc

import "fmt"

// Form is an ordered set of Fields for one clinical sub-form. Content
// fields come first in declaration order, followed by the header fields.
// Only declared fields can be set.
type Form struct {
	ID     string
	Date   string // optional per-form date column
	Rater  string // optional per-form rater column
	fields []*Field
	index  map[string]int
}

// NewForm declares every content field of spec, blank, followed by the
// header fields.
func NewForm(spec *FormSpec) *Form {
	form := &Form{
		ID:     spec.ID,
		Date:   spec.Date,
		Rater:  spec.Rater,
		fields: make([]*Field, 0, len(spec.Fields)+len(headerLayout)),
		index:  make(map[string]int, len(spec.Fields)+len(headerLayout)),
	}

	for _, fs := range spec.Fields {
		form.declare(&Field{
			Name:   fs.Name,
			Type:   fs.Type,
			Length: fs.Length,
			Blanks: fs.Blanks,
		})
	}
	for _, h := range headerLayout {
		form.declare(&Field{Name: h.Name, Type: h.Type, Length: h.Length})
	}
	return form
}

func (f *Form) declare(field *Field) {
	if _, exists := f.index[field.Name]; exists {
		return
	}
	f.index[field.Name] = len(f.fields)
	f.fields = append(f.fields, field)
}

// Set assigns a value to a declared field.
func (f *Form) Set(name, value string) error {
	i, ok := f.index[name]
	if !ok {
		return fmt.Errorf("%w: %s on form %s", ErrUnknownField, name, f.ID)
	}
	f.fields[i].Value = value
	return nil
}

// Field returns the named field, if declared.
func (f *Form) Field(name string) (*Field, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.fields[i], true
}

// Value returns the named field's value, or "" if undeclared.
func (f *Form) Value(name string) string {
	if field, ok := f.Field(name); ok {
		return field.Value
	}
	return ""
}

// Fields returns the fields in insertion order. The slice is shared.
func (f *Form) Fields() []*Field {
	return f.fields
}

// FormID is the stamped form-identity code.
func (f *Form) FormID() string {
	return f.Value(HeaderFormID)
}

// PacketType is the stamped packet-type code.
func (f *Form) PacketType() string {
	return f.Value(HeaderPacket)
}

// Version is the stamped schema version.
func (f *Form) Version() string {
	return f.Value(HeaderFormVer)
}
