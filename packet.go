package nacc

import "fmt"

// Packet is the ordered collection of Forms converted from one record.
type Packet struct {
	forms []*Form
}

func NewPacket() *Packet {
	return &Packet{}
}

// Append adds a form after all existing forms.
func (p *Packet) Append(form *Form) {
	p.forms = append(p.forms, form)
}

// Insert places form at position i, shifting later forms right.
func (p *Packet) Insert(i int, form *Form) error {
	if i < 0 || i > len(p.forms) {
		return fmt.Errorf("insert position %d out of range [0,%d]", i, len(p.forms))
	}
	p.forms = append(p.forms, nil)
	copy(p.forms[i+1:], p.forms[i:])
	p.forms[i] = form
	return nil
}

// Forms returns the forms in packet order.
func (p *Packet) Forms() []*Form {
	out := make([]*Form, len(p.forms))
	copy(out, p.forms)
	return out
}

func (p *Packet) Len() int {
	return len(p.forms)
}

// At returns the form at position i.
func (p *Packet) At(i int) *Form {
	return p.forms[i]
}

// Form returns the first form with the given identity.
func (p *Packet) Form(id string) (*Form, bool) {
	for _, form := range p.forms {
		if form.ID == id {
			return form, true
		}
	}
	return nil, false
}

// Field looks a field up by name across all forms. The first match in
// packet order wins.
func (p *Packet) Field(name string) (*Field, *Form, bool) {
	for _, form := range p.forms {
		if field, ok := form.Field(name); ok {
			return field, form, true
		}
	}
	return nil, nil, false
}

// Values flattens the packet into a name to value map using the same
// first-match precedence as Field.
func (p *Packet) Values() map[string]string {
	values := make(map[string]string)
	for _, form := range p.forms {
		for _, field := range form.Fields() {
			if _, seen := values[field.Name]; !seen {
				values[field.Name] = field.Value
			}
		}
	}
	return values
}
