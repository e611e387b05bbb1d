package nacc

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ExclusivityGroup is a one-of-N question: at most one of its fields may
// hold the selected value.
type ExclusivityGroup struct {
	Name    string
	Message string
	Fields  []string
}

// ExclusivityTable holds the groups checked for base-protocol packets.
type ExclusivityTable struct {
	Selected string
	Groups   []ExclusivityGroup
}

// ParseExclusivityTable reads
//
//	{"selected": "1", "groups": [{"name": "...", "message": "...", "fields": [...]}]}
func ParseExclusivityTable(data []byte) (ExclusivityTable, error) {
	table := ExclusivityTable{Selected: SelectedValue}
	if !gjson.ValidBytes(data) {
		return table, fmt.Errorf("%w: exclusivity table is not valid JSON", ErrInvalidCatalog)
	}

	doc := gjson.ParseBytes(data)
	if sel := doc.Get("selected"); sel.Exists() {
		table.Selected = sel.String()
	}

	var err error
	doc.Get("groups").ForEach(func(_, g gjson.Result) bool {
		group := ExclusivityGroup{
			Name:    g.Get("name").String(),
			Message: g.Get("message").String(),
		}
		for _, f := range g.Get("fields").Array() {
			group.Fields = append(group.Fields, f.String())
		}
		if group.Message == "" || len(group.Fields) < 2 {
			err = fmt.Errorf("%w: exclusivity group %q needs a message and two or more fields", ErrInvalidCatalog, group.Name)
			return false
		}
		table.Groups = append(table.Groups, group)
		return true
	})
	return table, err
}

// CheckSingleSelect returns one warning per group with more than one field
// selected. Fields absent from the packet count as not selected.
func CheckSingleSelect(p *Packet, table ExclusivityTable) []string {
	var warnings []string
	for _, group := range table.Groups {
		selected := 0
		for _, name := range group.Fields {
			field, _, ok := p.Field(name)
			if ok && strings.TrimSpace(field.Value) == table.Selected {
				selected++
			}
		}
		if selected > 1 {
			warnings = append(warnings, group.Message)
		}
	}
	return warnings
}
