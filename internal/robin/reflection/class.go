package reflection

import (
	"sync"

	"github.com/skn123/robin/internal/robin/errs"
	"github.com/skn123/robin/internal/robin/trace"
)

// Class is the reflection record of a registered C++ class. It owns the four canonical
// RobinTypes of the class, its constructor bag, an optional destructor,
// the instance method map, the inheritance list, and an inner namespace
// for static members and nested declarations.
type Class struct {
	name  string
	table *ConversionTable

	ptrType     *RobinType // T*
	constType   *RobinType // const T&
	valueType   *RobinType // T
	creatorType *RobinType // constructor return, never seen by user code

	mu           sync.Mutex
	constructors *OverloadedSet
	destructor   *CFunction
	methods      map[string]*OverloadedSet
	bases        []*Class
	mergedCache  map[string]*OverloadedSet

	inner *Namespace
}

// NewClass registers a class named name whose conversion edges live in
// table. The four canonical types are created immediately; the value
// type's const-creation observer fires right away since the const view is
// always built alongside it.
func NewClass(name string, table *ConversionTable) *Class {
	c := &Class{
		name:        name,
		table:       table,
		methods:     make(map[string]*OverloadedSet),
		mergedCache: make(map[string]*OverloadedSet),
	}
	c.valueType = NewObjectType(c, Regular)
	c.constType = NewObjectType(c, ConstReference)
	c.valueType.ConstObserver().NotifyTypeCreated(c.constType)

	c.ptrType = &RobinType{
		id:       nextTypeID(),
		category: CategoryPointer,
		spec:     SpecPointerTo,
		class:    c,
		name:     "*" + name,
	}
	c.creatorType = &RobinType{
		id:       nextTypeID(),
		category: CategoryUserDefined,
		spec:     SpecObject,
		class:    c,
		name:     name + " (new)",
	}
	c.constructors = NewOverloadedSet(name + "::" + name)
	c.inner = NewNamespace(name)

	// An instance handle is freely viewed by value or through the const
	// reference; all three views reinterpret the same address. The direct
	// pointer-to-const edge matters because a const-only search may not
	// pass through the writable by-value view.
	table.RegisterConversion(NewTrivialConversion(c.ptrType, c.valueType))
	table.RegisterConversion(NewTrivialConversion(c.valueType, c.constType))
	table.RegisterConversion(NewTrivialConversion(c.ptrType, c.constType))
	// The const view is no edge source yet; adopting it gives it the
	// implicit scripting_element edge.
	table.AdoptType(c.constType)

	trace.Tracef(2, "Registered class: %q", name)
	return c
}

// Name returns the class's registered name.
func (c *Class) Name() string { return c.name }

// PtrType returns the T* type: the most-specific type of a live instance.
func (c *Class) PtrType() *RobinType { return c.ptrType }

// ConstType returns the const T& view type.
func (c *Class) ConstType() *RobinType { return c.constType }

// ValueType returns the by-value T type.
func (c *Class) ValueType() *RobinType { return c.valueType }

// CreatorType returns the internal constructor-return type; its adapter
// wraps the raw pointer into an owned Instance.
func (c *Class) CreatorType() *RobinType { return c.creatorType }

// Inner returns the namespace holding the class's static members.
func (c *Class) Inner() *Namespace { return c.inner }

// AddConstructor appends one constructor prototype. Its return type is
// pinned to the creator-return type at registration.
func (c *Class) AddConstructor(ctor *CFunction) {
	ctor.SetOwnerClass(c.name)
	c.constructors.AddAlternative(ctor)
}

// SetDestructor installs the destructor; its signature is void(T*).
func (c *Class) SetDestructor(dtor *CFunction) {
	dtor.SetOwnerClass(c.name)
	c.mu.Lock()
	c.destructor = dtor
	c.mu.Unlock()
}

// AddMethod appends one prototype under name, creating the method's
// overload set on first use.
func (c *Class) AddMethod(name string, fn *CFunction) {
	fn.SetOwnerClass(c.name)
	c.mu.Lock()
	set, ok := c.methods[name]
	if !ok {
		set = NewOverloadedSet(c.name + "::" + name)
		c.methods[name] = set
	}
	// Any previously merged view of this name is stale now.
	delete(c.mergedCache, name)
	c.mu.Unlock()
	set.AddAlternative(fn)
}

// AddBase declares inheritance from base. upcast adjusts a derived
// instance address to the base subobject's address (accounting for
// multi-inheritance offsets). Two conversions are registered, one for the
// instance form and one for the const form, each costing a single up-cast
// unit.
func (c *Class) AddBase(base *Class, upcast func(uintptr) uintptr) {
	if upcast == nil {
		upcast = func(p uintptr) uintptr { return p }
	}
	c.mu.Lock()
	c.bases = append(c.bases, base)
	// Base methods become reachable, so merged lookups must rebuild.
	c.mergedCache = make(map[string]*OverloadedSet)
	c.mu.Unlock()

	c.table.RegisterConversion(NewUpCastConversion(c.ptrType, base.ptrType, base, upcast))
	c.table.RegisterConversion(NewUpCastConversion(c.constType, base.constType, base, upcast))
	trace.Tracef(2, "Class %q extends %q", c.name, base.name)
}

// Bases returns the direct base classes in declaration order.
func (c *Class) Bases() []*Class {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Class(nil), c.bases...)
}

// Constructors returns the constructor overload set.
func (c *Class) Constructors() *OverloadedSet { return c.constructors }

// collectMethod gathers this class's own overload set for name plus,
// recursively, every base's, into merged. Reports whether anything was
// found.
func (c *Class) collectMethod(name string, merged *OverloadedSet) bool {
	found := false
	c.mu.Lock()
	own := c.methods[name]
	bases := append([]*Class(nil), c.bases...)
	c.mu.Unlock()
	if own != nil {
		merged.AddAlternatives(own)
		found = true
	}
	for _, b := range bases {
		if b.collectMethod(name, merged) {
			found = true
		}
	}
	return found
}

// FindMethod resolves name on this class, walking bases recursively and
// merging their overload sets with the child's; the merged view is cached
// per class on first use.
func (c *Class) FindMethod(name string) (*OverloadedSet, error) {
	c.mu.Lock()
	if set, ok := c.mergedCache[name]; ok {
		c.mu.Unlock()
		return set, nil
	}
	c.mu.Unlock()

	merged := NewOverloadedSet(c.name + "::" + name)
	if !c.collectMethod(name, merged) {
		return nil, errs.NewNoSuchMethod(c.name, name)
	}
	c.mu.Lock()
	c.mergedCache[name] = merged
	c.mu.Unlock()
	return merged, nil
}

// MethodNames lists the names declared directly on this class.
func (c *Class) MethodNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.methods))
	for n := range c.methods {
		names = append(names, n)
	}
	return names
}

// BindMethod resolves name and binds it to the given instance, yielding a
// Callable that prepends self on every call.
func (c *Class) BindMethod(name string, self *Instance) (Callable, error) {
	set, err := c.FindMethod(name)
	if err != nil {
		return nil, err
	}
	return &BoundMethod{set: set, self: ActualArgument{Type: self.class.ptrType, Value: self}}, nil
}

// CreateInstance walks the constructor overload set with the given
// arguments; the chosen constructor's creator-return adapter wraps the raw
// pointer into an owned Instance.
func (c *Class) CreateInstance(args []ActualArgument, kwargs KeywordArguments) (ScriptingElement, error) {
	if c.constructors.IsEmpty() {
		return nil, errs.NewNoConstructorsAtAll(c.name)
	}
	result, err := c.constructors.Call(args, kwargs, nil)
	if err != nil {
		switch err.(type) {
		case *errs.OverloadingNoMatch:
			return nil, errs.NewNoSuchConstructor(c.name)
		}
		return nil, err
	}
	return result, nil
}

// destroyInstance invokes the registered destructor with the raw address,
// bypassing the marshalling pipeline. Instances of classes
// without a destructor are simply released to the host's collector.
func (c *Class) destroyInstance(inst *Instance) error {
	c.mu.Lock()
	dtor := c.destructor
	c.mu.Unlock()
	if dtor == nil {
		return nil
	}
	_, err := dtor.caller.Call(dtor.symbol, []uint64{uint64(inst.ptr)})
	return err
}
