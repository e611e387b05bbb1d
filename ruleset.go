package nacc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/tidwall/gjson"
)

// packetVar is the CEL variable holding the packet's field values.
const packetVar = "p"

// maxRuleRange bounds the expansion of "= lo-hi" clauses.
const maxRuleRange = 100

var (
	rulePrefix    = regexp.MustCompile(`(?i)^\s*blank\s+if\s+`)
	parenthetical = regexp.MustCompile(`\([^)]*\)`)
	connective    = regexp.MustCompile(`(?i)\s+(or|and)\s+`)
	clausePattern = regexp.MustCompile(
		`^(?:Question\s+\S+\s+)?([A-Z][A-Z0-9_]*)\s*(=|ne|!=|<>)\s*(-?\d+)(?:\s*-\s*(-?\d+))?$`,
	)
)

// RuleSet is one family of blanking rules. Rule text is translated to a
// CEL predicate over the packet's values, except where the set declares
// a hand-written predicate for a specific field and rule.
type RuleSet struct {
	Name        string
	Description string

	special  map[ruleKey]string
	env      *cel.Env
	programs *ProgramCache[string, cel.Program]

	mu       sync.RWMutex
	compiled map[ruleKey]*CompiledRule
}

type ruleKey struct {
	field string
	rule  string
}

// CompiledRule is an evaluable blanking rule.
type CompiledRule struct {
	Field string // field the rule constrains
	Text  string // rule as written on the form
	Expr  string // CEL predicate; true means the field must be blank

	program cel.Program
}

// ParseRuleSet reads a rule set definition:
//
//	{"name": "uds3", "special": [{"field": "F", "rule": "...", "expr": "..."}]}
func ParseRuleSet(data []byte) (*RuleSet, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: rule set is not valid JSON", ErrInvalidCatalog)
	}
	doc := gjson.ParseBytes(data)

	name := doc.Get("name").String()
	if name == "" {
		return nil, fmt.Errorf("%w: rule set without a name", ErrInvalidCatalog)
	}

	rs, err := NewRuleSet(name)
	if err != nil {
		return nil, err
	}
	rs.Description = doc.Get("description").String()

	doc.Get("special").ForEach(func(_, entry gjson.Result) bool {
		field := entry.Get("field").String()
		rule := entry.Get("rule").String()
		expr := entry.Get("expr").String()
		if field == "" || rule == "" || expr == "" {
			err = fmt.Errorf("%w: rule set %s: special entry needs field, rule and expr", ErrInvalidCatalog, name)
			return false
		}
		rs.Override(field, rule, expr)
		return true
	})
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// NewRuleSet creates an empty rule set.
func NewRuleSet(name string) (*RuleSet, error) {
	env, err := cel.NewEnv(
		cel.Variable(packetVar, cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("rule set %s: %w", name, err)
	}

	return &RuleSet{
		Name:     name,
		special:  make(map[ruleKey]string),
		env:      env,
		programs: NewProgramCache[string, cel.Program](),
		compiled: make(map[ruleKey]*CompiledRule),
	}, nil
}

// Override registers a hand-written predicate for a field's rule. It must
// be called before the rule is first compiled.
func (rs *RuleSet) Override(field, rule, expr string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.special[ruleKey{field, rule}] = expr
}

// Programs counts the distinct CEL programs compiled so far.
func (rs *RuleSet) Programs() int {
	return rs.programs.Len()
}

// Prepare compiles every blanking rule declared by spec.
func (rs *RuleSet) Prepare(spec *ProtocolSpec) error {
	for _, fs := range spec.BlankedFields() {
		for _, rule := range fs.Blanks {
			if _, err := rs.Compile(fs.Name, rule); err != nil {
				return err
			}
		}
	}
	return nil
}

// Compile returns the compiled form of a field's rule, compiling it on
// first use.
func (rs *RuleSet) Compile(field, rule string) (*CompiledRule, error) {
	key := ruleKey{field, rule}

	rs.mu.RLock()
	cr, ok := rs.compiled[key]
	expr, isSpecial := rs.special[key]
	rs.mu.RUnlock()
	if ok {
		return cr, nil
	}

	if !isSpecial {
		var err error
		expr, err = TranslateRule(rule)
		if err != nil {
			return nil, fmt.Errorf("rule set %s: field %s: %w", rs.Name, field, err)
		}
	}

	program, err := rs.programs.GetOrCreate(expr, func() (cel.Program, error) {
		ast, iss := rs.env.Compile(expr)
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrRuleSyntax, expr, iss.Err())
		}
		return rs.env.Program(ast)
	})
	if err != nil {
		return nil, fmt.Errorf("rule set %s: field %s: %w", rs.Name, field, err)
	}

	cr = &CompiledRule{Field: field, Text: rule, Expr: expr, program: program}
	rs.mu.Lock()
	rs.compiled[key] = cr
	rs.mu.Unlock()
	return cr, nil
}

// Eval reports whether the rule's trigger condition holds. values maps
// field names to int64 for numeric values and string otherwise; see
// RuleValues. A reference to a field absent from values is an error.
func (cr *CompiledRule) Eval(values map[string]any) (bool, error) {
	out, _, err := cr.program.Eval(map[string]any{packetVar: values})
	if err != nil {
		return false, fmt.Errorf("%w: %s: %q: %w", ErrRuleEvaluation, cr.Field, cr.Text, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s: %q: non-boolean result %v", ErrRuleEvaluation, cr.Field, cr.Text, out.Value())
	}
	return result, nil
}

// RuleValues converts a packet's values for rule evaluation. Values that
// parse as integers become int64 so that "= 0" matches "0" and " 0".
func RuleValues(p *Packet) map[string]any {
	raw := p.Values()
	values := make(map[string]any, len(raw))
	for name, v := range raw {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			values[name] = n
			continue
		}
		values[name] = v
	}
	return values
}

// TranslateRule turns blanking rule text into a CEL predicate. It accepts
//
//	Blank if [Question <label>] FIELD (=|ne) N[-M] [(comment)] [(or|and) ...]
//
// Parenthesized comments are ignored.
func TranslateRule(rule string) (string, error) {
	body := rulePrefix.ReplaceAllString(rule, "")
	if body == rule {
		return "", fmt.Errorf("%w: missing 'Blank if' in %q", ErrRuleSyntax, rule)
	}
	body = strings.TrimSpace(parenthetical.ReplaceAllString(body, ""))

	var (
		clauses []string
		joins   []string
		start   int
	)
	for _, m := range connective.FindAllStringSubmatchIndex(body, -1) {
		clauses = append(clauses, body[start:m[0]])
		joins = append(joins, strings.ToLower(body[m[2]:m[3]]))
		start = m[1]
	}
	clauses = append(clauses, body[start:])

	var sb strings.Builder
	for i, clause := range clauses {
		expr, err := translateClause(strings.TrimSpace(clause))
		if err != nil {
			return "", fmt.Errorf("%w in %q", err, rule)
		}
		if i > 0 {
			if joins[i-1] == "and" {
				sb.WriteString(" && ")
			} else {
				sb.WriteString(" || ")
			}
		}
		sb.WriteString(expr)
	}
	return sb.String(), nil
}

func translateClause(clause string) (string, error) {
	m := clausePattern.FindStringSubmatch(clause)
	if m == nil {
		return "", fmt.Errorf("%w: unrecognized clause %q", ErrRuleSyntax, clause)
	}
	field, op, lo, hi := m[1], m[2], m[3], m[4]
	negate := op != "="
	ref := packetVar + "." + field

	if hi == "" {
		if negate {
			return ref + " != " + lo, nil
		}
		return ref + " == " + lo, nil
	}

	from, _ := strconv.Atoi(lo)
	to, _ := strconv.Atoi(hi)
	if to < from || to-from > maxRuleRange {
		return "", fmt.Errorf("%w: bad range %s-%s", ErrRuleSyntax, lo, hi)
	}
	members := make([]string, 0, to-from+1)
	for v := from; v <= to; v++ {
		members = append(members, strconv.Itoa(v))
	}
	expr := ref + " in [" + strings.Join(members, ", ") + "]"
	if negate {
		return "!(" + expr + ")", nil
	}
	return expr, nil
}
