package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

var ErrInvalidFilter = errors.New("invalid command filter")

// FilterKind tags the condition a Filter evaluates.
type FilterKind string

const (
	FilterAcceptAll    FilterKind = "accept_all"
	FilterDenyAll      FilterKind = "deny_all"
	FilterCommandName  FilterKind = "command_name"
	FilterPayloadField FilterKind = "payload_field"
	FilterAnd          FilterKind = "and"
	FilterOr           FilterKind = "or"
	FilterNot          FilterKind = "not"
)

// Filter is the command-acceptance predicate a member advertises.
//
// It is a closed tagged variant rather than a closure so it can travel in
// join messages and routing information and be evaluated by any node.
// The zero value accepts every command.
type Filter struct {
	Kind    FilterKind `json:"type" yaml:"type"`
	Names   []string   `json:"names,omitempty" yaml:"names,omitempty"`
	Field   string     `json:"field,omitempty" yaml:"field,omitempty"`
	Value   string     `json:"value,omitempty" yaml:"value,omitempty"`
	Filters []Filter   `json:"filters,omitempty" yaml:"filters,omitempty"`
}

func AcceptAll() Filter {
	return Filter{Kind: FilterAcceptAll}
}

func DenyAll() Filter {
	return Filter{Kind: FilterDenyAll}
}

// CommandNames accepts commands whose name is one of names.
func CommandNames(names ...string) Filter {
	return Filter{Kind: FilterCommandName, Names: slices.Clone(names)}
}

// PayloadFieldEquals accepts commands whose payload field has the given
// string form.
func PayloadFieldEquals(field, value string) Filter {
	return Filter{Kind: FilterPayloadField, Field: field, Value: value}
}

func And(filters ...Filter) Filter {
	return Filter{Kind: FilterAnd, Filters: slices.Clone(filters)}
}

func Or(filters ...Filter) Filter {
	return Filter{Kind: FilterOr, Filters: slices.Clone(filters)}
}

func Not(filter Filter) Filter {
	return Filter{Kind: FilterNot, Filters: []Filter{filter}}
}

func (f Filter) And(other Filter) Filter { return And(f, other) }

func (f Filter) Or(other Filter) Filter { return Or(f, other) }

func (f Filter) Negate() Filter { return Not(f) }

// Matches reports whether the member advertising f accepts msg.
func (f Filter) Matches(msg Message) bool {
	switch f.Kind {
	case "", FilterAcceptAll:
		return true
	case FilterDenyAll:
		return false
	case FilterCommandName:
		return slices.Contains(f.Names, msg.Name)
	case FilterPayloadField:
		v, ok := msg.PayloadField(f.Field)
		return ok && v == f.Value
	case FilterAnd:
		for _, sub := range f.Filters {
			if !sub.Matches(msg) {
				return false
			}
		}
		return true
	case FilterOr:
		for _, sub := range f.Filters {
			if sub.Matches(msg) {
				return true
			}
		}
		return false
	case FilterNot:
		return len(f.Filters) == 1 && !f.Filters[0].Matches(msg)
	default:
		// Unknown kinds never accept; Validate rejects them on decode.
		return false
	}
}

// Validate checks the kind and arity of f and every nested filter.
func (f Filter) Validate() error {
	switch f.Kind {
	case "", FilterAcceptAll, FilterDenyAll:
		return nil
	case FilterCommandName:
		if len(f.Names) == 0 {
			return fmt.Errorf("%w: %s requires at least one name", ErrInvalidFilter, f.Kind)
		}
		return nil
	case FilterPayloadField:
		if f.Field == "" {
			return fmt.Errorf("%w: %s requires a field", ErrInvalidFilter, f.Kind)
		}
		return nil
	case FilterAnd, FilterOr:
		if len(f.Filters) == 0 {
			return fmt.Errorf("%w: %s requires nested filters", ErrInvalidFilter, f.Kind)
		}
	case FilterNot:
		if len(f.Filters) != 1 {
			return fmt.Errorf("%w: not requires exactly one nested filter, got %d", ErrInvalidFilter, len(f.Filters))
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidFilter, f.Kind)
	}

	for i, sub := range f.Filters {
		if err := sub.Validate(); err != nil {
			return fmt.Errorf("%s[%d]: %w", f.Kind, i, err)
		}
	}
	return nil
}

// Canonical returns the stable wire form of f, used for equality and
// ring checksums.
func (f Filter) Canonical() string {
	if f.Kind == "" {
		f.Kind = FilterAcceptAll
	}
	data, err := json.Marshal(f)
	if err != nil {
		return string(f.Kind)
	}
	return string(data)
}

// ParseFilter decodes and validates a transmitted filter.
func ParseFilter(data []byte) (Filter, error) {
	var f Filter
	if len(data) == 0 {
		return AcceptAll(), nil
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return Filter{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	if err := f.Validate(); err != nil {
		return Filter{}, err
	}
	return f, nil
}

func (f Filter) String() string {
	return f.Canonical()
}
