package nacc

import (
	"fmt"
	"strconv"
)

const blankWarningFormat = "%s%s is '%s' with length '%s', but should be blank: '%s'."

// CheckBlanks evaluates the blanking rules of every non-blank field in the
// packet against rs. Each rule whose trigger holds yields one warning.
// Blank fields are never reported. An error means a rule could not be
// evaluated against this packet, e.g. it references a field the packet
// does not carry.
func CheckBlanks(p *Packet, rs *RuleSet) ([]string, error) {
	var (
		warnings []string
		values   map[string]any
	)

	for _, form := range p.Forms() {
		for _, field := range form.Fields() {
			if len(field.Blanks) == 0 || field.Empty() {
				continue
			}
			if values == nil {
				values = RuleValues(p)
			}

			for _, rule := range field.Blanks {
				cr, err := rs.Compile(field.Name, rule)
				if err != nil {
					return nil, err
				}
				triggered, err := cr.Eval(values)
				if err != nil {
					return nil, err
				}
				if !triggered {
					continue
				}
				warnings = append(warnings, fmt.Sprintf(
					blankWarningFormat,
					field.Name, formSuffix(form), field.Value,
					strconv.Itoa(len(field.Value)), rule,
				))
			}
		}
	}
	return warnings, nil
}
