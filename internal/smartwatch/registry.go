package smartwatch

import "strings"

// Registry holds one adapter per brand. It is built once at start-up and is
// read-only afterwards, so it is safe for concurrent use.
type Registry struct {
	adapters []Adapter
	byBrand  map[string]Adapter
}

// NewRegistry registers adapters in order. When two adapters share a brand
// the first one wins.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{byBrand: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		if a == nil {
			continue
		}
		if _, ok := r.byBrand[a.Brand()]; ok {
			continue
		}
		r.byBrand[a.Brand()] = a
		r.adapters = append(r.adapters, a)
	}
	return r
}

// Get resolves brand to an adapter. An exact match is preferred, falling
// back to a case-insensitive one.
func (r *Registry) Get(brand string) (Adapter, error) {
	if a, ok := r.byBrand[brand]; ok {
		return a, nil
	}
	for _, a := range r.adapters {
		if strings.EqualFold(a.Brand(), brand) {
			return a, nil
		}
	}
	return nil, &UnsupportedVendorError{Brand: brand}
}

// Available returns the adapters whose configuration is present.
func (r *Registry) Available() []Adapter {
	var out []Adapter
	for _, a := range r.adapters {
		if a.IsAvailable() {
			out = append(out, a)
		}
	}
	return out
}

// All returns every registered adapter in registration order.
func (r *Registry) All() []Adapter {
	out := make([]Adapter, len(r.adapters))
	copy(out, r.adapters)
	return out
}
