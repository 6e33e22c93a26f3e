package reflection

import (
	"math"
	"sync"
)

// TypeRegistry interns every RobinType an Engine knows: the fixed
// intrinsic and extended types, the preconstructed bounded numeric
// subtypes, and the lazily created container-parameterised types, keyed by
// their parameters. It also owns the standard
// promotion edges between intrinsics, registered once at construction.
type TypeRegistry struct {
	table *ConversionTable

	mu         sync.Mutex
	intrinsics map[Spec]*RobinType
	lists      map[listKey]*RobinType
	dicts      map[dictKey]*RobinType
	allLists   []*RobinType
	allDicts   []*RobinType

	emptyList *RobinType
	emptyDict *RobinType

	scriptingElement         *RobinType
	borrowedScriptingElement *RobinType

	// Bounded numeric subtypes for integers that do not fit a C int;
	// values that do are detected as the int intrinsic itself.
	boundedUInt      *RobinType // fits unsigned int, positive
	boundedLongNeg   *RobinType // fits long, negative
	boundedLongPos   *RobinType // fits long, positive
	boundedULongOnly *RobinType // fits unsigned long long only, positive

	// typeObserver is notified of every lazily created container type so
	// the active front-end can install its Adapter on first reference.
	typeObserver func(*RobinType)
}

// NewTypeRegistry builds the fixed type population and its standard
// conversion edges on top of table.
func NewTypeRegistry(table *ConversionTable) *TypeRegistry {
	r := &TypeRegistry{
		table:      table,
		intrinsics: make(map[Spec]*RobinType),
		lists:      make(map[listKey]*RobinType),
		dicts:      make(map[dictKey]*RobinType),
	}

	intrinsicSpecs := []Spec{
		SpecInt, SpecUInt, SpecLong, SpecULong, SpecLongLong, SpecULongLong,
		SpecShort, SpecUShort, SpecChar, SpecSChar, SpecUChar,
		SpecFloat, SpecDouble, SpecBool, SpecVoid,
	}
	for _, s := range intrinsicSpecs {
		r.intrinsics[s] = NewIntrinsicType(CategoryIntrinsic, s, s.String(), Regular)
	}
	for _, s := range []Spec{SpecCString, SpecPascalString} {
		r.intrinsics[s] = NewIntrinsicType(CategoryExtended, s, s.String(), Regular)
	}

	r.scriptingElement = NewIntrinsicType(CategoryExtended, SpecScriptingElement, "scripting_element", Regular)
	r.borrowedScriptingElement = NewIntrinsicType(CategoryExtended, SpecScriptingElement, "&scripting_element", Regular)
	r.borrowedScriptingElement.borrowed = true
	table.SetScriptingElementType(r.scriptingElement)
	table.AdoptType(r.scriptingElement)
	table.AdoptType(r.borrowedScriptingElement)
	// Intrinsics that never become an edge source (double, unsigned long
	// long, void) still need the table to offer the scripting_element edge.
	for _, t := range r.intrinsics {
		table.AdoptType(t)
	}

	r.registerIntrinsicPromotions()
	r.registerBoundedSubtypes()

	r.emptyList = r.newContainerType(SpecList, "list<>", nil, nil, nil)
	r.emptyList.SetConversionProposer(&listProposer{self: r.emptyList, reg: r})
	r.emptyDict = r.newContainerType(SpecDict, "dict<>", nil, nil, nil)
	r.emptyDict.SetConversionProposer(&dictProposer{self: r.emptyDict, reg: r})

	return r
}

// Table returns the conversion table this registry's edges live in.
func (r *TypeRegistry) Table() *ConversionTable { return r.table }

// Intrinsic returns the canonical type for an intrinsic or extended spec.
func (r *TypeRegistry) Intrinsic(s Spec) *RobinType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.intrinsics[s]
}

// ScriptingElementType is the opaque pass-anything host value type.
func (r *TypeRegistry) ScriptingElementType() *RobinType { return r.scriptingElement }

// BorrowedScriptingElementType is its borrowed variant: the callee keeps
// no reference past the call.
func (r *TypeRegistry) BorrowedScriptingElementType() *RobinType { return r.borrowedScriptingElement }

// promote registers a representation-preserving widening edge.
func (r *TypeRegistry) promote(from, to Spec, w Weight) {
	r.table.RegisterConversion(NewPromotionConversion(r.intrinsics[from], r.intrinsics[to], w, nil))
}

// registerIntrinsicPromotions wires the C ladder: each single widening
// step costs one promotion unit; crossing signedness at equal width is
// promotion-free but pays extra epsilon, so the tighter-signed alternative
// wins a tie; integral-to-floating costs two promotion units, floating
// widening one.
func (r *TypeRegistry) registerIntrinsicPromotions() {
	r.promote(SpecBool, SpecInt, Weight{Promotion: 1})
	r.promote(SpecChar, SpecShort, Weight{Promotion: 1})
	r.promote(SpecSChar, SpecShort, Weight{Promotion: 1})
	r.promote(SpecUChar, SpecUShort, Weight{Promotion: 1})
	r.promote(SpecShort, SpecInt, Weight{Promotion: 1})
	r.promote(SpecUShort, SpecUInt, Weight{Promotion: 1})
	r.promote(SpecInt, SpecLong, Weight{Promotion: 1})
	r.promote(SpecUInt, SpecULong, Weight{Promotion: 1})
	r.promote(SpecLong, SpecLongLong, Weight{Promotion: 1})
	r.promote(SpecULong, SpecULongLong, Weight{Promotion: 1})

	r.promote(SpecInt, SpecUInt, Weight{Epsilon: 2})
	r.promote(SpecLong, SpecULong, Weight{Epsilon: 2})

	intToFloat := func(from, to Spec, w Weight) {
		r.table.RegisterConversion(NewIntToFloatConversion(r.intrinsics[from], r.intrinsics[to], w))
	}
	intToFloat(SpecInt, SpecDouble, Weight{Promotion: 2})
	intToFloat(SpecInt, SpecFloat, Weight{Epsilon: 2, Promotion: 2})
	intToFloat(SpecLong, SpecDouble, Weight{Epsilon: 2, Promotion: 2})
	r.promote(SpecFloat, SpecDouble, Weight{Promotion: 1})

	pascal := r.intrinsics[SpecPascalString]
	cstring := r.intrinsics[SpecCString]
	r.table.RegisterConversion(NewPascalToCStringConversion(pascal, cstring))
	r.table.RegisterConversion(NewPascalToCStringConversion(cstring, pascal))
}

// registerBoundedSubtypes preconstructs the synthetic integer range types
// and their promotion edges to every intrinsic that can hold the whole
// range. A 64-bit target one widening step up costs one
// promotion unit; equally wide targets are ranked by epsilon with signed
// before unsigned, which is what makes the tighter-signed alternative win
// when both are offered.
func (r *TypeRegistry) registerBoundedSubtypes() {
	newBounded := func(name string) *RobinType {
		t := NewIntrinsicType(CategoryIntrinsic, SpecInt, name, Regular)
		r.table.AdoptType(t)
		return t
	}
	edge := func(from *RobinType, to Spec, w Weight) {
		r.table.RegisterConversion(NewPromotionConversion(from, r.intrinsics[to], w, nil))
	}
	floatEdge := func(from *RobinType, to Spec, w Weight) {
		r.table.RegisterConversion(NewIntToFloatConversion(from, r.intrinsics[to], w))
	}

	r.boundedUInt = newBounded("integer (fits unsigned int)")
	edge(r.boundedUInt, SpecUInt, Weight{Epsilon: 2})
	edge(r.boundedUInt, SpecLong, Weight{Epsilon: 1, Promotion: 1})
	edge(r.boundedUInt, SpecLongLong, Weight{Epsilon: 2, Promotion: 1})
	edge(r.boundedUInt, SpecULong, Weight{Epsilon: 3, Promotion: 1})
	edge(r.boundedUInt, SpecULongLong, Weight{Epsilon: 4, Promotion: 1})
	floatEdge(r.boundedUInt, SpecDouble, Weight{Epsilon: 1, Promotion: 2})
	floatEdge(r.boundedUInt, SpecFloat, Weight{Epsilon: 1, Promotion: 3})

	r.boundedLongNeg = newBounded("negative integer (fits long)")
	edge(r.boundedLongNeg, SpecLong, Weight{Epsilon: 1})
	edge(r.boundedLongNeg, SpecLongLong, Weight{Epsilon: 2})
	floatEdge(r.boundedLongNeg, SpecDouble, Weight{Epsilon: 1, Promotion: 1})
	floatEdge(r.boundedLongNeg, SpecFloat, Weight{Epsilon: 1, Promotion: 2})

	r.boundedLongPos = newBounded("integer (fits long)")
	edge(r.boundedLongPos, SpecLong, Weight{Epsilon: 1})
	edge(r.boundedLongPos, SpecLongLong, Weight{Epsilon: 2})
	edge(r.boundedLongPos, SpecULong, Weight{Epsilon: 3})
	edge(r.boundedLongPos, SpecULongLong, Weight{Epsilon: 4})
	floatEdge(r.boundedLongPos, SpecDouble, Weight{Epsilon: 1, Promotion: 1})
	floatEdge(r.boundedLongPos, SpecFloat, Weight{Epsilon: 1, Promotion: 2})

	r.boundedULongOnly = newBounded("integer (fits unsigned long long)")
	edge(r.boundedULongOnly, SpecULong, Weight{Epsilon: 1})
	edge(r.boundedULongOnly, SpecULongLong, Weight{Epsilon: 2})
	floatEdge(r.boundedULongOnly, SpecDouble, Weight{Epsilon: 1, Promotion: 1})
}

// DetectIntType returns the most-specific numeric type of a host integer:
// the int intrinsic when the value fits a C int, otherwise the bounded
// subtype encoding which wider targets can hold it, so overload resolution
// never has to inspect the value again.
func (r *TypeRegistry) DetectIntType(v int64) *RobinType {
	switch {
	case v >= math.MinInt32 && v <= math.MaxInt32:
		return r.intrinsics[SpecInt]
	case v < 0:
		return r.boundedLongNeg
	case v <= math.MaxUint32:
		return r.boundedUInt
	default:
		return r.boundedLongPos
	}
}

// DetectUintType is the unsigned-entry variant of DetectIntType, needed
// for host values above the signed 64-bit range.
func (r *TypeRegistry) DetectUintType(v uint64) *RobinType {
	if v <= math.MaxInt64 {
		return r.DetectIntType(int64(v))
	}
	return r.boundedULongOnly
}

// listKey and dictKey intern container types by their parameters plus
// constness: a const container view is a one-directional copy into the
// callee, the regular view converts in place so callee writes publish
// back.
type listKey struct {
	elem  *RobinType
	konst Constness
}

type dictKey struct {
	key, val *RobinType
	konst    Constness
}

// newContainerType allocates one container-parameterised type; callers
// hold r.mu or run during construction.
func (r *TypeRegistry) newContainerType(spec Spec, name string, elem, key, val *RobinType) *RobinType {
	hyper := false
	switch spec {
	case SpecList:
		hyper = elem == nil || elem.IsHyperGeneric()
	case SpecDict:
		hyper = key == nil || val == nil || key.IsHyperGeneric() || val.IsHyperGeneric()
	}
	t := &RobinType{
		id:           nextTypeID(),
		category:     CategoryExtended,
		spec:         spec,
		name:         name,
		listElem:     elem,
		dictKey:      key,
		dictVal:      val,
		hyperGeneric: hyper,
	}
	r.table.AdoptType(t)
	return t
}

// ListOf returns (creating and interning on first demand) the regular
// list<elem> type, whose composed conversions publish back in place.
func (r *TypeRegistry) ListOf(elem *RobinType) *RobinType {
	return r.listOf(elem, Regular)
}

// ConstListOf returns the const view of list<elem>: conversions into it
// copy into a fresh container, leaving the caller's list untouched.
func (r *TypeRegistry) ConstListOf(elem *RobinType) *RobinType {
	return r.listOf(elem, ConstReference)
}

func (r *TypeRegistry) listOf(elem *RobinType, konst Constness) *RobinType {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := listKey{elem: elem, konst: konst}
	if t, ok := r.lists[k]; ok {
		return t
	}
	t := r.newContainerType(SpecList, "list<"+elem.TypeName()+">", elem, nil, nil)
	t.constness = konst
	t.SetConversionProposer(&listProposer{self: t, reg: r})
	r.lists[k] = t
	r.allLists = append(r.allLists, t)
	if r.typeObserver != nil {
		r.typeObserver(t)
	}
	r.table.ForceRecompute()
	return t
}

// DictOf returns the regular dict<key,val> type; composed conversions
// into it re-publish the caller's dict in place.
func (r *TypeRegistry) DictOf(key, val *RobinType) *RobinType {
	return r.dictOf(key, val, Regular)
}

// ConstDictOf returns the const view of dict<key,val>.
func (r *TypeRegistry) ConstDictOf(key, val *RobinType) *RobinType {
	return r.dictOf(key, val, ConstReference)
}

func (r *TypeRegistry) dictOf(key, val *RobinType, konst Constness) *RobinType {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := dictKey{key: key, val: val, konst: konst}
	if t, ok := r.dicts[k]; ok {
		return t
	}
	t := r.newContainerType(SpecDict, "dict<"+key.TypeName()+","+val.TypeName()+">", nil, key, val)
	t.constness = konst
	t.SetConversionProposer(&dictProposer{self: t, reg: r})
	r.dicts[k] = t
	r.allDicts = append(r.allDicts, t)
	if r.typeObserver != nil {
		r.typeObserver(t)
	}
	r.table.ForceRecompute()
	return t
}

// OnNewContainerType installs the front-end's lazy-adapter hook; it fires
// for every container type created after this call.
func (r *TypeRegistry) OnNewContainerType(fn func(*RobinType)) {
	r.mu.Lock()
	r.typeObserver = fn
	r.mu.Unlock()
}

// BoundedTypes lists the preconstructed bounded numeric subtypes, so a
// front-end can install its integer Adapter on each.
func (r *TypeRegistry) BoundedTypes() []*RobinType {
	return []*RobinType{r.boundedUInt, r.boundedLongNeg, r.boundedLongPos, r.boundedULongOnly}
}

// EmptyListType is the hyper-generic type of an empty list literal.
func (r *TypeRegistry) EmptyListType() *RobinType { return r.emptyList }

// EmptyDictType is the hyper-generic type of an empty dict literal.
func (r *TypeRegistry) EmptyDictType() *RobinType { return r.emptyDict }

// knownListTypes snapshots every concrete list type created so far, for
// proposer enumeration.
func (r *TypeRegistry) knownListTypes() []*RobinType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*RobinType(nil), r.allLists...)
}

func (r *TypeRegistry) knownDictTypes() []*RobinType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*RobinType(nil), r.allDicts...)
}
