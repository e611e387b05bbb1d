package nacc

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed catalog
var catalogFS embed.FS

const catalogRoot = "catalog"

///////////////////////////////////////////////////////////////////////////////
// Declarative protocol schema
///////////////////////////////////////////////////////////////////////////////

// Derivation computes a field from another column when none of the
// field's own columns exist.
type Derivation struct {
	Column string   `yaml:"column"`
	When   []string `yaml:"when"`
	Value  string   `yaml:"value"`
}

// FieldSpec declares one content field of a form.
type FieldSpec struct {
	Name    string      `yaml:"name"`
	Source  string      `yaml:"source"` // binding grammar, see ParseSource
	Default string      `yaml:"default"`
	Derive  *Derivation `yaml:"derive"`
	Type    TypeClass   `yaml:"type"`
	Length  int         `yaml:"length"`
	Blanks  []string    `yaml:"blanks"`
}

// FormSpec declares a form and its role within a protocol.
type FormSpec struct {
	ID     string      `yaml:"id"`
	Role   Role        `yaml:"role"`
	Flag   string      `yaml:"flag"` // presence column for optional forms
	When   []string    `yaml:"when"` // affirmative flag values
	Date   string      `yaml:"date"`
	Rater  string      `yaml:"rater"`
	Fields []FieldSpec `yaml:"fields"`

	flag []Binding
}

// Route is the routing filter for a protocol.
type Route struct {
	Event    string `yaml:"event"`    // substring of the event name
	Complete string `yaml:"complete"` // completion flag columns
	Any      bool   `yaml:"any"`      // any present flag may match
	Label    string `yaml:"label"`

	bindings []Binding
}

// Checklist gates content forms on the header form's completion status.
type Checklist struct {
	Source string   `yaml:"source"`
	Done   []string `yaml:"done"`

	bindings []Binding
}

// ProtocolSpec is one data-collection instrument.
type ProtocolSpec struct {
	Name         string        `yaml:"name"`
	Packet       string        `yaml:"packet"`
	HeaderPacket string        `yaml:"header_packet"`
	Version      string        `yaml:"version"`
	Cutoff       string        `yaml:"cutoff"`
	RuleSet      string        `yaml:"rule_set"`
	Normalize    Normalization `yaml:"normalize"`
	SingleSelect bool          `yaml:"single_select"`
	FormDates    bool          `yaml:"form_dates"`
	Route        *Route        `yaml:"route"`
	Checklist    *Checklist    `yaml:"checklist"`
	Forms        []*FormSpec   `yaml:"forms"`

	cutoff time.Time
}

// DecodeProtocol parses and checks a protocol definition.
func DecodeProtocol(data []byte) (*ProtocolSpec, error) {
	var spec ProtocolSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	if err := spec.prepare(); err != nil {
		return nil, err
	}
	return &spec, nil
}

func (p *ProtocolSpec) prepare() error {
	if p.Name == "" {
		return fmt.Errorf("%w: protocol without a name", ErrInvalidCatalog)
	}
	if p.Packet == "" || p.Version == "" {
		return fmt.Errorf("%w: %s: packet and version are required", ErrInvalidCatalog, p.Name)
	}
	if p.HeaderPacket == "" {
		p.HeaderPacket = p.Packet
	}

	switch p.Normalize {
	case "":
		p.Normalize = NormalizeNone
	case NormalizeNone, NormalizeZeroFill, NormalizeReblank:
	default:
		return fmt.Errorf("%w: %s: unknown normalization %q", ErrInvalidCatalog, p.Name, p.Normalize)
	}

	if p.Cutoff != "" {
		cutoff, err := time.Parse(CutoffLayout, p.Cutoff)
		if err != nil {
			return fmt.Errorf("%w: %s: cutoff: %w", ErrInvalidCatalog, p.Name, err)
		}
		p.cutoff = cutoff
	}

	if r := p.Route; r != nil && r.Complete != "" {
		bindings, err := ParseSource(p.Name, r.Complete)
		if err != nil {
			return fmt.Errorf("%w: %s: route: %w", ErrInvalidCatalog, p.Name, err)
		}
		r.bindings = bindings
		if r.Label == "" {
			r.Label = strings.ToUpper(p.Name)
		}
	}

	if c := p.Checklist; c != nil {
		bindings, err := ParseSource(p.Name, c.Source)
		if err != nil {
			return fmt.Errorf("%w: %s: checklist: %w", ErrInvalidCatalog, p.Name, err)
		}
		c.bindings = bindings
	}

	headers := 0
	seen := make(map[string]bool, len(p.Forms))
	for _, form := range p.Forms {
		if seen[form.ID] {
			return fmt.Errorf("%w: %s: duplicate form %s", ErrInvalidCatalog, p.Name, form.ID)
		}
		seen[form.ID] = true

		switch form.Role {
		case RoleHeader:
			headers++
		case RoleRequired:
		case RoleOptional:
			if form.Flag == "" {
				return fmt.Errorf("%w: %s: optional form %s has no flag", ErrInvalidCatalog, p.Name, form.ID)
			}
			if len(form.When) == 0 {
				form.When = []string{DefaultAffirmativeValue}
			}
			// A flag column missing from an older schema means "not present".
			bindings, err := ParseSource(form.ID, form.Flag)
			if err != nil {
				return fmt.Errorf("%w: %s: form %s flag: %w", ErrInvalidCatalog, p.Name, form.ID, err)
			}
			for i := range bindings {
				bindings[i].Modifiers = BindingModifiers{OmitEmpty: true}
			}
			form.flag = bindings
		default:
			return fmt.Errorf("%w: %s: form %s has unknown role %q", ErrInvalidCatalog, p.Name, form.ID, form.Role)
		}

		names := make(map[string]bool, len(form.Fields))
		for i := range form.Fields {
			name := form.Fields[i].Name
			if isHeaderField(name) {
				return fmt.Errorf("%w: %s: form %s declares header field %s", ErrInvalidCatalog, p.Name, form.ID, name)
			}
			if names[name] {
				return fmt.Errorf("%w: %s: form %s declares %s twice", ErrInvalidCatalog, p.Name, form.ID, name)
			}
			names[name] = true
			if form.Fields[i].Type == "" {
				form.Fields[i].Type = TypeNum
			}
		}
	}
	if headers > 1 {
		return fmt.Errorf("%w: %s: more than one header form", ErrInvalidCatalog, p.Name)
	}
	if p.Checklist != nil && headers == 0 {
		return fmt.Errorf("%w: %s: checklist without a header form", ErrInvalidCatalog, p.Name)
	}
	return nil
}

// CutoffDate returns the earliest accepted visit date, if the protocol
// has one.
func (p *ProtocolSpec) CutoffDate() (time.Time, bool) {
	return p.cutoff, !p.cutoff.IsZero()
}

// HeaderForm returns the checklist form built at position 0, if any.
func (p *ProtocolSpec) HeaderForm() (*FormSpec, bool) {
	for _, form := range p.Forms {
		if form.Role == RoleHeader {
			return form, true
		}
	}
	return nil, false
}

// BaseProtocol reports whether the protocol is part of the core data set
// rather than a disease-specific module.
func (p *ProtocolSpec) BaseProtocol() bool {
	return p.SingleSelect
}

// BlankedFields lists every field of the protocol that carries blanking
// rules.
func (p *ProtocolSpec) BlankedFields() []FieldSpec {
	var out []FieldSpec
	for _, form := range p.Forms {
		for _, fs := range form.Fields {
			if len(fs.Blanks) > 0 {
				out = append(out, fs)
			}
		}
	}
	return out
}

///////////////////////////////////////////////////////////////////////////////
// Catalog
///////////////////////////////////////////////////////////////////////////////

// Catalog is the immutable configuration data loaded once per process:
// protocols, blanking rule sets, normalization and exclusivity tables.
type Catalog struct {
	Protocols *ProtocolRegistry
	RuleSets  map[string]*RuleSet
	ZeroFill  NormalizationTable
	Reblank   NormalizationTable
	Exclusive ExclusivityTable
}

// LoadCatalog loads the catalog embedded in the binary.
func LoadCatalog() (*Catalog, error) {
	return LoadCatalogFS(catalogFS, catalogRoot)
}

// LoadCatalogFS loads a catalog laid out under root in fsys. Every
// blanking rule is compiled against its protocol's rule set, so a rule
// that cannot be parsed fails the load.
func LoadCatalogFS(fsys fs.FS, root string) (*Catalog, error) {
	registry, err := NewProtocolRegistry(ProtocolRegistryOpts{})
	if err != nil {
		return nil, err
	}

	protocolFiles, err := fs.Glob(fsys, path.Join(root, "protocols", "*.yaml"))
	if err != nil {
		return nil, err
	}
	slices.Sort(protocolFiles)
	for _, name := range protocolFiles {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		spec, err := DecodeProtocol(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if err := registry.Register(spec); err != nil {
			return nil, err
		}
	}

	cat := &Catalog{
		Protocols: registry,
		RuleSets:  make(map[string]*RuleSet),
	}

	ruleFiles, err := fs.Glob(fsys, path.Join(root, "rules", "blanks_*.json"))
	if err != nil {
		return nil, err
	}
	for _, name := range ruleFiles {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		rs, err := ParseRuleSet(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		cat.RuleSets[rs.Name] = rs
	}

	tables := []struct {
		file string
		dst  *NormalizationTable
	}{
		{"zerofill.json", &cat.ZeroFill},
		{"reblank.json", &cat.Reblank},
	}
	for _, t := range tables {
		data, err := fs.ReadFile(fsys, path.Join(root, "rules", t.file))
		if err != nil {
			return nil, err
		}
		if *t.dst, err = ParseNormalizationTable(data); err != nil {
			return nil, fmt.Errorf("%s: %w", t.file, err)
		}
	}

	data, err := fs.ReadFile(fsys, path.Join(root, "rules", "exclusive.json"))
	if err != nil {
		return nil, err
	}
	if cat.Exclusive, err = ParseExclusivityTable(data); err != nil {
		return nil, fmt.Errorf("exclusive.json: %w", err)
	}

	for _, spec := range registry.All() {
		rs, err := cat.RuleSet(spec.RuleSet)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", spec.Name, err)
		}
		if err := rs.Prepare(spec); err != nil {
			return nil, fmt.Errorf("%s: %w", spec.Name, err)
		}
	}

	return cat, nil
}

// RuleSet returns the named blanking rule set.
func (c *Catalog) RuleSet(name string) (*RuleSet, error) {
	rs, ok := c.RuleSets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRuleSetNotFound, name)
	}
	return rs, nil
}

// Protocol returns the named protocol.
func (c *Catalog) Protocol(name string) (*ProtocolSpec, error) {
	return c.Protocols.Get(name)
}
