package nacc

import "strings"

// Field is a single named value on a Form. Value is never nil; absent
// data is the empty string.
type Field struct {
	Name   string
	Value  string
	Type   TypeClass
	Length int
	Blanks []string // blanking rules, in declaration order
}

// Empty reports whether the value is blank after trimming whitespace.
func (f *Field) Empty() bool {
	return strings.TrimSpace(f.Value) == ""
}

func (f *Field) IsChar() bool {
	return f.Type == TypeChar
}

// Width returns the serialized width of the field.
func (f *Field) Width() int {
	if f.Length > 0 {
		return f.Length
	}
	if f.IsChar() {
		return DefaultCharLength
	}
	return DefaultNumLength
}
