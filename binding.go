package nacc

// Binding is one candidate source column for a field. A field usually
// declares several bindings, tried in order.
type Binding struct {
	Column    string           // raw record column name
	Modifiers BindingModifiers // failure and fallback behavior
}

// BindingModifiers control what happens when a binding's column is absent
// from the record.
type BindingModifiers struct {
	Required  bool // absent column fails the field
	OmitEmpty bool // absent column falls through to the next binding
}

// Record is one raw input row keyed by column name.
type Record map[string]string

// Lookup returns the value of the first binding whose column exists in
// the record. found is false when none of them exist.
func (r Record) Lookup(bindings ...Binding) (value string, binding Binding, found bool) {
	for _, b := range bindings {
		if v, ok := r[b.Column]; ok {
			return v, b, true
		}
	}
	return "", Binding{}, false
}

// PTID returns the participant identifier, or "" if absent.
func (r Record) PTID() string {
	return r[ColumnPTID]
}
