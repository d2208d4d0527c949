package contract

import (
	"fmt"
	"strings"
)

// Registry holds the declared variants addressable by name or alias.
type Registry struct {
	variants []*Variant
	index    map[string]*Variant
}

// NewRegistry validates every variant and indexes it by lower-cased name and
// aliases. Duplicate keys are rejected.
func NewRegistry(variants ...*Variant) (*Registry, error) {
	r := &Registry{index: make(map[string]*Variant)}
	for _, v := range variants {
		if v == nil {
			return nil, fmt.Errorf("nil variant")
		}
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("invalid variant: %w", err)
		}

		keys := append([]string{v.Name}, v.Aliases...)
		for _, key := range keys {
			key = strings.ToLower(strings.TrimSpace(key))
			if key == "" {
				continue
			}
			if existing, ok := r.index[key]; ok {
				return nil, fmt.Errorf("variant %s: key %q already used by %s", v.Name, key, existing.Name)
			}
			r.index[key] = v
		}
		r.variants = append(r.variants, v)
	}
	return r, nil
}

// DefaultRegistry returns the risk, alignment and profile variants.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(RiskVariant(), AlignmentVariant(), ProfileVariant())
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup finds a variant by name or alias, ignoring case.
func (r *Registry) Lookup(name string) (*Variant, error) {
	v, ok := r.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}
	return v, nil
}

// Variants returns the registered variants in registration order.
func (r *Registry) Variants() []*Variant {
	return append([]*Variant(nil), r.variants...)
}

// Names returns the canonical variant names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.variants))
	for _, v := range r.variants {
		names = append(names, v.Name)
	}
	return names
}
