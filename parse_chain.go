package nacc

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var ErrNilChain = errors.New("parse chain is empty for form")

// Chain is a linked list of population steps for one form, one step per
// content field in declaration order.
type Chain struct {
	FormID string
	Head   *Step
}

// Step populates a single field.
type Step struct {
	Next      *Step       // Next is the next step in the chain
	FieldName string      // Name of the target field
	Bindings  []Binding   // Ordered list of columns to try
	Derive    *Derivation // Fallback computed from another column
	Default   string      // Value used when every binding is omitted
}

// Execute populates form from rec. The first failing step aborts the
// chain.
func (chain *Chain) Execute(rec Record, form *Form) error {
	if chain.Head == nil {
		return fmt.Errorf("%w: %s", ErrNilChain, chain.FormID)
	}

	for current := chain.Head; current != nil; current = current.Next {
		value, err := current.resolve(rec)
		if err != nil {
			return fmt.Errorf("form %s: %w", chain.FormID, err)
		}
		if err := form.Set(current.FieldName, value); err != nil {
			return err
		}
	}
	return nil
}

// resolve walks the bindings in order. A present column wins. An absent
// required column fails with ErrMissingField. When every binding is
// omitempty and none is present, the derivation and then the default
// apply.
func (step *Step) resolve(rec Record) (string, error) {
	allOmitEmpty := true

	for _, binding := range step.Bindings {
		allOmitEmpty = allOmitEmpty && binding.Modifiers.OmitEmpty

		if value, ok := rec[binding.Column]; ok {
			return value, nil
		}
		if binding.Modifiers.Required {
			return "", fmt.Errorf(
				"%w: %s (column %s)",
				ErrMissingField, step.FieldName, binding.Column,
			)
		}
	}

	if !allOmitEmpty {
		return "", fmt.Errorf("%w: %s", ErrMissingField, step.FieldName)
	}

	if d := step.Derive; d != nil {
		if value, ok := rec[d.Column]; ok && slices.Contains(d.When, value) {
			return d.Value, nil
		}
	}
	return step.Default, nil
}

// ChainManager builds and caches chains per protocol form.
//
// ChainManager is safe for concurrent use.
type ChainManager struct {
	chains map[string]*Chain // keyed by protocol and form identity
	mu     sync.RWMutex
}

func NewChainManager() *ChainManager {
	return &ChainManager{
		chains: make(map[string]*Chain),
	}
}

// GetChain returns the cached chain for a protocol's form, building it on
// first use.
func (cman *ChainManager) GetChain(protocol string, spec *FormSpec) (*Chain, error) {
	key := protocol + "/" + spec.ID

	cman.mu.RLock()
	chain, exists := cman.chains[key]
	cman.mu.RUnlock()
	if exists {
		return chain, nil
	}

	chain, err := NewChain(spec)
	if err != nil {
		return nil, err
	}

	cman.mu.Lock()
	defer cman.mu.Unlock()
	if cached, ok := cman.chains[key]; ok {
		return cached, nil
	}
	cman.chains[key] = chain
	return chain, nil
}

// Len reports the number of cached chains.
func (cman *ChainManager) Len() int {
	cman.mu.RLock()
	defer cman.mu.RUnlock()
	return len(cman.chains)
}

// NewChain compiles a form spec into a chain.
func NewChain(spec *FormSpec) (*Chain, error) {
	var head, current *Step

	for _, fs := range spec.Fields {
		step, err := NewStep(fs)
		if err != nil {
			return nil, fmt.Errorf("form %s: %w", spec.ID, err)
		}

		if head == nil {
			head = step
		} else {
			current.Next = step
		}
		current = step
	}

	if head == nil {
		return nil, fmt.Errorf("%w: %s", ErrNilChain, spec.ID)
	}
	return &Chain{FormID: spec.ID, Head: head}, nil
}

// NewStep compiles one field spec.
func NewStep(fs FieldSpec) (*Step, error) {
	bindings, err := ParseSource(fs.Name, fs.Source)
	if err != nil {
		return nil, err
	}
	return &Step{
		FieldName: fs.Name,
		Bindings:  bindings,
		Derive:    fs.Derive,
		Default:   fs.Default,
	}, nil
}
