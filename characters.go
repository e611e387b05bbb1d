package nacc

import (
	"fmt"
	"strings"
)

// forbiddenChars are reported in this order.
var forbiddenChars = []rune{'\'', '"', '&', '%'}

const charWarningFormat = "%s%s is '%s', which has invalid character(s) %s ." +
	" This field can have any text or numbers, but cannot include single quotes '," +
	" double quotes \", ampersands & or percentage signs %% "

// CheckCharacters scans every Char field of the packet and returns one
// warning per field holding a forbidden character.
func CheckCharacters(p *Packet) []string {
	var warnings []string
	for _, form := range p.Forms() {
		for _, field := range form.Fields() {
			if !field.IsChar() {
				continue
			}
			counts := ForbiddenCharacters(field.Value)
			if len(counts) == 0 {
				continue
			}
			warnings = append(warnings, fmt.Sprintf(
				charWarningFormat,
				field.Name, formSuffix(form), field.Value, formatCounts(counts),
			))
		}
	}
	return warnings
}

// CharCount is one forbidden character and how often it occurs.
type CharCount struct {
	Char  rune
	Count int
}

// ForbiddenCharacters counts each forbidden character present in value.
func ForbiddenCharacters(value string) []CharCount {
	var out []CharCount
	for _, c := range forbiddenChars {
		if n := strings.Count(value, string(c)); n > 0 {
			out = append(out, CharCount{Char: c, Count: n})
		}
	}
	return out
}

func formatCounts(counts []CharCount) string {
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = fmt.Sprintf("%c (%d)", c.Char, c.Count)
	}
	return strings.Join(parts, " ")
}

// formSuffix names the owning form in a warning, or is empty when the form
// identity has not been stamped.
func formSuffix(form *Form) string {
	if id := form.FormID(); id != "" {
		return " in form " + id
	}
	return ""
}
