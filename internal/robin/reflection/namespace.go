package reflection

import (
	"sync"

	"github.com/skn123/robin/internal/robin/errs"
)

// Namespace maps names to reflection entities: classes, enums, overloaded
// function sets, and nested namespaces, plus aliases pointing at any of
// them. A registered dynamic library is
// exposed as one root Namespace.
type Namespace struct {
	name string

	mu      sync.Mutex
	entries map[string]any
	aliases map[string]string
}

// NewNamespace returns an empty namespace under name.
func NewNamespace(name string) *Namespace {
	return &Namespace{
		name:    name,
		entries: make(map[string]any),
		aliases: make(map[string]string),
	}
}

// Name returns the namespace's own name.
func (n *Namespace) Name() string { return n.name }

// DeclareClass binds name to a class.
func (n *Namespace) DeclareClass(name string, c *Class) { n.declare(name, c) }

// DeclareEnum binds name to an enumerated type.
func (n *Namespace) DeclareEnum(name string, e *EnumeratedType) { n.declare(name, e) }

// DeclareFunction binds name to an overloaded function set.
func (n *Namespace) DeclareFunction(name string, o *OverloadedSet) { n.declare(name, o) }

// DeclareNamespace binds name to a nested namespace.
func (n *Namespace) DeclareNamespace(name string, ns *Namespace) { n.declare(name, ns) }

func (n *Namespace) declare(name string, entity any) {
	n.mu.Lock()
	n.entries[name] = entity
	n.mu.Unlock()
}

// Alias declares that alias resolves to whatever actual resolves to.
// Aliases may chain; cycles terminate in a LookupFailure.
func (n *Namespace) Alias(alias, actual string) {
	n.mu.Lock()
	n.aliases[alias] = actual
	n.mu.Unlock()
}

// Lookup resolves name, following aliases, or fails with LookupFailure.
func (n *Namespace) Lookup(name string) (any, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	seen := map[string]bool{}
	for {
		if e, ok := n.entries[name]; ok {
			return e, nil
		}
		actual, ok := n.aliases[name]
		if !ok || seen[name] {
			return nil, errs.NewLookupFailure(name)
		}
		seen[name] = true
		name = actual
	}
}

// LookupClass resolves name and requires it to be a class.
func (n *Namespace) LookupClass(name string) (*Class, error) {
	e, err := n.Lookup(name)
	if err != nil {
		return nil, err
	}
	c, ok := e.(*Class)
	if !ok {
		return nil, errs.NewLookupFailure(name)
	}
	return c, nil
}

// LookupEnum resolves name and requires it to be an enumerated type.
func (n *Namespace) LookupEnum(name string) (*EnumeratedType, error) {
	e, err := n.Lookup(name)
	if err != nil {
		return nil, err
	}
	en, ok := e.(*EnumeratedType)
	if !ok {
		return nil, errs.NewLookupFailure(name)
	}
	return en, nil
}

// LookupFunction resolves name and requires it to be an overloaded set.
func (n *Namespace) LookupFunction(name string) (*OverloadedSet, error) {
	e, err := n.Lookup(name)
	if err != nil {
		return nil, err
	}
	o, ok := e.(*OverloadedSet)
	if !ok {
		return nil, errs.NewLookupFailure(name)
	}
	return o, nil
}

// FunctionForDeclaration returns the overloaded set bound to name,
// creating and declaring an empty one if name is unbound; registration
// uses this to append alternatives as it walks a library's table.
func (n *Namespace) FunctionForDeclaration(name string) *OverloadedSet {
	n.mu.Lock()
	defer n.mu.Unlock()
	if e, ok := n.entries[name]; ok {
		if o, ok := e.(*OverloadedSet); ok {
			return o
		}
	}
	o := NewOverloadedSet(name)
	n.entries[name] = o
	return o
}

// Names lists every directly declared name, aliases excluded.
func (n *Namespace) Names() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.entries))
	for name := range n.entries {
		out = append(out, name)
	}
	return out
}
