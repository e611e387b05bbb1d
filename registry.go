package nacc

import (
	"fmt"
	"slices"
)

// ProtocolRegistry holds the protocols a run can select from.
//
// Protocols are registered once while the catalog loads and are read-only
// afterwards. Lookup is by name, e.g. "uds3-ivp" or "ftld-fvp".
type ProtocolRegistry struct {
	m     map[string]*ProtocolSpec
	order []string
}

type ProtocolRegistryOpts struct {
	Protocols []*ProtocolSpec
}

func NewProtocolRegistry(opts ProtocolRegistryOpts) (*ProtocolRegistry, error) {
	reg := &ProtocolRegistry{
		m: make(map[string]*ProtocolSpec),
	}

	for _, spec := range opts.Protocols {
		if err := reg.Register(spec); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Register adds a protocol. Names must be unique.
func (reg *ProtocolRegistry) Register(spec *ProtocolSpec) error {
	if _, exists := reg.m[spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrProtocolRegistered, spec.Name)
	}
	reg.m[spec.Name] = spec
	reg.order = append(reg.order, spec.Name)
	return nil
}

// Get returns the protocol registered under name.
func (reg *ProtocolRegistry) Get(name string) (*ProtocolSpec, error) {
	spec, ok := reg.m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProtocolNotFound, name)
	}
	return spec, nil
}

// Names returns the registered protocol names, sorted.
func (reg *ProtocolRegistry) Names() []string {
	names := slices.Clone(reg.order)
	slices.Sort(names)
	return names
}

// All returns the registered protocols in registration order.
func (reg *ProtocolRegistry) All() []*ProtocolSpec {
	out := make([]*ProtocolSpec, 0, len(reg.order))
	for _, name := range reg.order {
		out = append(out, reg.m[name])
	}
	return out
}
