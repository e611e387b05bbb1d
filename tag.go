package nacc

import (
	"errors"
	"fmt"
	"strings"
)

// Base Error types for source binding parsing errors
var (
	ErrEmptyBindingColumn       = errors.New("binding column cannot be empty")
	ErrInvalidBindingFormat     = errors.New("invalid binding format")
	ErrUnallowedBindingModifier = errors.New("binding modifier is not allowed")
	ErrConflictingModifiers     = errors.New("binding cannot be both required and omitempty")
)

// This file contains the parser for field source declarations. A source
// lists the record columns a field may be read from, in priority order.
// It supports all sources in the following grammar:
//
// Source grammar:
//     <source>
// source:
//     [<binding>]^* // Space Separated
// binding:
//     <column>[,<binding_modifier_list>]
// column:
//     <string> // raw record column name
// binding_modifier_list:
//     [binding_modifier]^* // Delimited with ","
// binding_modifier:
//     omitempty | required
//
// A binding with no modifier is required. An empty source binds the
// lower-cased field name as a single required binding.

// ParseSource parses a source declaration for the named field.
func ParseSource(field, source string) ([]Binding, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return []Binding{{
			Column:    strings.ToLower(field),
			Modifiers: BindingModifiers{Required: true},
		}}, nil
	}

	parts := strings.Fields(source)
	bindings := make([]Binding, 0, len(parts))
	for _, part := range parts {
		binding, err := parseBinding(part)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		bindings = append(bindings, binding)
	}
	return bindings, nil
}

func parseBinding(s string) (Binding, error) {
	info := strings.Split(s, BindingModifierDelimiter)
	column := strings.TrimSpace(info[0])
	if column == "" {
		return Binding{}, fmt.Errorf("%w in %q", ErrEmptyBindingColumn, s)
	}
	if strings.ContainsAny(column, ":'\"") {
		return Binding{}, fmt.Errorf("%w: %q", ErrInvalidBindingFormat, s)
	}

	var mods BindingModifiers
	for _, modifier := range info[1:] {
		switch strings.TrimSpace(modifier) {
		case OmitEmptyBindingModifier:
			mods.OmitEmpty = true
		case RequiredBindingModifier:
			mods.Required = true
		case "":
			// trailing delimiter
			continue
		default:
			return Binding{}, fmt.Errorf("%w: %s", ErrUnallowedBindingModifier, modifier)
		}
	}

	if mods.Required && mods.OmitEmpty {
		return Binding{}, fmt.Errorf("%w: %s", ErrConflictingModifiers, s)
	}
	mods.Required = !mods.OmitEmpty

	return Binding{Column: column, Modifiers: mods}, nil
}
