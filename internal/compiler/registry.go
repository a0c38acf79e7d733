package compiler

import "sort"

// Registry is the set of names declared as functions with define(name,
// fun(...)). Calls to a registered name compile to call expressions instead
// of being resolved through the scope chain. Names are never removed.
type Registry struct {
	names map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// Add registers name and reports whether it was new.
func (r *Registry) Add(name string) bool {
	if _, ok := r.names[name]; ok {
		return false
	}
	r.names[name] = struct{}{}
	return true
}

func (r *Registry) Has(name string) bool {
	_, ok := r.names[name]
	return ok
}

func (r *Registry) Len() int {
	return len(r.names)
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.names))
	for name := range r.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
