package reflection

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Adapter is implemented by a front-end to translate a ScriptingElement
// to/from the machine-word representation a RobinType's basetype expects.
// Core dispatch code never constructs host values itself; it always goes
// through the RobinType's installed Adapter.
type Adapter interface {
	// Get lifts a raw argbuf word, already known to be of this type, into
	// a host-language value.
	Get(raw argbufWord) (ScriptingElement, error)
	// Put lowers a host-language value into the argument buffer being
	// built for a native call.
	Put(buf ArgumentsBuffer, value ScriptingElement) error
}

// argbufWord mirrors argbuf.Word as a plain machine word, so Adapter
// signatures do not name the argbuf package.
type argbufWord = uint64

// ArgumentsBuffer is the subset of argbuf.Buffer's surface an Adapter's Put
// needs. Dispatch in this package passes the *argbuf.Buffer it creates for
// each call; any other implementation (a test's, for instance) fits too.
type ArgumentsBuffer interface {
	PushWord(w uint64)
	Words() []uint64
}

// LowLevelCaller is the pluggable trampoline contract: it
// knows how to actually invoke a native symbol given its already-marshaled
// argument words, returning the raw machine word the callee produced. The
// binary layout of any specific platform ABI is out of scope for Robin's
// core; this interface exists so a concrete implementation
// can be swapped in per target without the reflection package knowing or
// caring which one.
type LowLevelCaller interface {
	Call(symbol string, args []uint64) (uint64, error)
}

// ConversionProposer proposes outgoing edges from a RobinType that has
// already been reached during a shortest-path search, feeding them into
// the Dijkstra frontier. A RobinType is itself a
// ConversionProposer for its own registered edges; container proposers
// additionally synthesize edges for parameterized list/dict types on
// demand.
type ConversionProposer interface {
	ProposeConversionContinuations(
		reachedWeight Weight,
		frontier *weightHeap,
		constConversions bool,
		distance *TypeToWeightMap,
		previous *ConversionTree,
	)
}

var typeIDCounter uint64

// RobinType describes one node of the conversion graph: either an
// intrinsic C numeric type, an extended type (void, cstring,
// pascal-string, scripting-element handle), a user-defined class or enum,
// or a pointer-to wrapper. Each RobinType is created once by the registry,
// class, enum or container factory that owns it; callers compare
// *RobinType pointers for identity, or ID() for a stable small integer.
// The (category, spec, class/enum identity, constness) tuple alone does not
// identify a type: the bounded numeric subtypes share the int intrinsic's
// tuple, and the borrowed scripting_element shares the plain one's.
type RobinType struct {
	id int64

	category Category
	spec     Spec
	name     string

	class *Class // set when spec == SpecObject
	enum  *EnumeratedType // set when spec == SpecEnum

	constness Constness
	borrowed  bool

	// container parameters; set only for SpecList / SpecDict types. A nil
	// element (or key/value) marks the hyper-generic empty-container type.
	listElem *RobinType
	dictKey  *RobinType
	dictVal  *RobinType

	hyperGeneric bool

	mu           sync.Mutex
	adapter      Adapter
	proposer     ConversionProposer
	cachePointer *RobinType

	constObserver TypeExistenceObservable

	table *ConversionTable // graph this type's edges live in
}

func nextTypeID() int64 {
	return int64(atomic.AddUint64(&typeIDCounter, 1))
}

// NewIntrinsicType builds (or would build, before interning is added by a
// registry) a RobinType for a fixed intrinsic or extended C type.
func NewIntrinsicType(category Category, spec Spec, name string, constness Constness) *RobinType {
	return &RobinType{
		id:        nextTypeID(),
		category:  category,
		spec:      spec,
		name:      name,
		constness: constness,
	}
}

// NewObjectType builds a RobinType representing a user-defined class
// instance handle.
func NewObjectType(class *Class, constness Constness) *RobinType {
	return &RobinType{
		id:        nextTypeID(),
		category:  CategoryUserDefined,
		spec:      SpecObject,
		class:     class,
		constness: constness,
	}
}

// NewEnumType builds a RobinType representing an enumerated type's value.
func NewEnumType(enum *EnumeratedType, constness Constness) *RobinType {
	return &RobinType{
		id:        nextTypeID(),
		category:  CategoryUserDefined,
		spec:      SpecEnum,
		enum:      enum,
		constness: constness,
	}
}

// ID returns a stable, monotonically increasing identifier, preferred over
// comparing pointers so future refactors (e.g. value types) stay safe.
func (t *RobinType) ID() int64 { return t.id }

// Category returns the type's top-level category tag.
func (t *RobinType) Category() Category { return t.category }

// Spec returns the type's spec tag.
func (t *RobinType) Spec() Spec { return t.spec }

// Class returns the owning class handle; only meaningful when
// Spec() == SpecObject.
func (t *RobinType) Class() *Class { return t.class }

// Enum returns the owning enum handle; only meaningful when
// Spec() == SpecEnum.
func (t *RobinType) Enum() *EnumeratedType { return t.enum }

// Constness reports whether this type is a regular type or a const,
// one-directional view of one.
func (t *RobinType) Constness() Constness { return t.constness }

// IsBorrowed reports whether this type was registered as borrowed, meaning
// Robin never takes ownership of instances of it.
func (t *RobinType) IsBorrowed() bool { return t.borrowed }

// IsHyperGeneric reports whether this type represents an object belonging
// to several concrete subtypes at once (e.g. the type of an empty list
// literal, which belongs to every list<T>). No conversion edge may enter a
// hyper-generic type, to keep the search space finite; the registry marks
// empty-container types and container types with hyper-generic parameters.
func (t *RobinType) IsHyperGeneric() bool { return t.hyperGeneric }

// ListElement returns the element type of a list type, or nil for the
// hyper-generic empty list (and for non-list types).
func (t *RobinType) ListElement() *RobinType { return t.listElem }

// DictKey returns the key type of a dict type, nil for the empty dict.
func (t *RobinType) DictKey() *RobinType { return t.dictKey }

// DictValue returns the value type of a dict type, nil for the empty dict.
func (t *RobinType) DictValue() *RobinType { return t.dictVal }

// TypeName renders a human-readable name for diagnostics and trace output.
func (t *RobinType) TypeName() string {
	if t.name != "" {
		return t.name
	}
	switch t.spec {
	case SpecObject:
		if t.class != nil {
			return t.class.Name()
		}
	case SpecEnum:
		if t.enum != nil {
			return t.enum.Name()
		}
	}
	return t.spec.String()
}

func (t *RobinType) String() string {
	c := ""
	if t.constness == ConstReference {
		c = "const "
	}
	return fmt.Sprintf("%s%s", c, t.TypeName())
}

// AssignAdapter installs the front-end's Adapter for this type. Called
// once, during front-end initialization.
func (t *RobinType) AssignAdapter(a Adapter) {
	t.mu.Lock()
	t.adapter = a
	t.mu.Unlock()
}

// AdapterOrNil returns the installed Adapter, or nil if none was assigned.
func (t *RobinType) AdapterOrNil() Adapter {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.adapter
}

// SetConversionProposer installs the proposer this type delegates outgoing
// edge discovery to during a shortest-path search. Should be called at
// most once, normally right after construction by whatever registered the
// type (the registry installs container proposers on list/dict
// instantiations; plain types have none and use their table edges).
func (t *RobinType) SetConversionProposer(p ConversionProposer) {
	t.mu.Lock()
	t.proposer = p
	t.mu.Unlock()
}

// IsConstLike reports whether a value of this type behaves as a constant
// for the purposes of a const-only search: either the type is an explicit
// const view, or it describes a host immutable (intrinsic numerics,
// strings, enum values), whose references are one-directional by nature.
func (t *RobinType) IsConstLike() bool {
	if t.constness == ConstReference {
		return true
	}
	switch t.category {
	case CategoryIntrinsic, CategoryExtended:
		return true
	}
	return t.spec == SpecEnum
}

// ProposeConversionContinuations implements ConversionProposer for a plain
// RobinType: any installed proposer contributes its dynamic edges first,
// then the type's statically registered table edges are relaxed.
func (t *RobinType) ProposeConversionContinuations(
	reachedWeight Weight,
	frontier *weightHeap,
	constConversions bool,
	distance *TypeToWeightMap,
	previous *ConversionTree,
) {
	t.mu.Lock()
	p := t.proposer
	table := t.table
	t.mu.Unlock()

	if p != nil {
		p.ProposeConversionContinuations(reachedWeight, frontier, constConversions, distance, previous)
	}
	if table == nil {
		return
	}
	table.proposeRegisteredEdges(t, reachedWeight, frontier, constConversions, distance, previous)
}

// Pointer returns (creating and caching on first use) the RobinType
// representing a pointer to this type.
func (t *RobinType) Pointer() *RobinType {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cachePointer == nil {
		t.cachePointer = &RobinType{
			id:       nextTypeID(),
			category: CategoryPointer,
			spec:     SpecPointerTo,
			name:     "pointer to " + t.TypeName(),
		}
	}
	return t.cachePointer
}

// ConstObserver exposes the one-shot notifier that fires when this type's
// const variant is created, restoring
// RobinType::m_constTypeAdditionAnnouncer's firing protocol.
func (t *RobinType) ConstObserver() *TypeExistenceObservable { return &t.constObserver }
