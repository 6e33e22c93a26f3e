package reflection

import (
	"github.com/skn123/robin/internal/robin/errs"
)

// FunctionKind tags what role a CFunction plays, which decides how the
// self argument and the return value are treated.
type FunctionKind int

const (
	KindGlobal FunctionKind = iota
	KindMethod
	KindStaticMethod
	KindConstructor
	KindDestructor
)

func (k FunctionKind) String() string {
	switch k {
	case KindMethod:
		return "method"
	case KindStaticMethod:
		return "static method"
	case KindConstructor:
		return "constructor"
	case KindDestructor:
		return "destructor"
	default:
		return "function"
	}
}

// Param describes one formal parameter of a CFunction: its expected
// RobinType and, for keyword-argument support, the name it is addressable
// by.
type Param struct {
	Name string
	Type *RobinType
}

// ActualArgument pairs a value flowing into a call with the RobinType the
// caller has already determined it to carry (normally assigned by a
// front-end Adapter when it boxed the host value).
type ActualArgument struct {
	Type  *RobinType
	Value ScriptingElement
}

// KeywordArguments maps argument names to values for a call that addresses
// some parameters by name rather than position.
type KeywordArguments map[string]ActualArgument

// CFunction is a single callable native entry point: a fixed parameter
// signature, a return type, and the low-level symbol that does the actual
// call once arguments are marshaled. Several CFunctions with different
// signatures but the same name are grouped into an OverloadedSet.
// Immutable after registration.
type CFunction struct {
	name      string
	className string
	kind      FunctionKind
	params    []Param
	ret       *RobinType // nil for void
	symbol    string
	caller    LowLevelCaller
	table     *ConversionTable

	// allowEdge gates the post-return edge conversion for this function.
	// Registration's `!` name prefix clears it; holding the decision here
	// rather than per-set keeps the `!` convention a loader detail.
	allowEdge bool

	// transfersOwnership hints that the returned pointer is a fresh object
	// the caller must destroy; suppressed when the return type is a const
	// reference view.
	transfersOwnership bool

	byName map[string]int
}

// NewCFunction builds a CFunction bound to symbol, invoked through caller
// once its arguments have been converted to match params. ret is nil for a
// void function.
func NewCFunction(name string, kind FunctionKind, params []Param, ret *RobinType, symbol string, caller LowLevelCaller, table *ConversionTable) *CFunction {
	byName := make(map[string]int, len(params))
	for i, p := range params {
		if p.Name != "" {
			byName[p.Name] = i
		}
	}
	return &CFunction{
		name:      name,
		kind:      kind,
		params:    params,
		ret:       ret,
		symbol:    symbol,
		caller:    caller,
		table:     table,
		allowEdge: true,
		byName:    byName,
	}
}

// Name returns the function's registered name.
func (f *CFunction) Name() string { return f.name }

// Kind returns the function's role.
func (f *CFunction) Kind() FunctionKind { return f.kind }

// Params returns the function's formal parameter list.
func (f *CFunction) Params() []Param { return f.params }

// Arity returns the number of formal parameters.
func (f *CFunction) Arity() int { return len(f.params) }

// Return returns the function's declared return type, nil for void.
func (f *CFunction) Return() *RobinType { return f.ret }

// SetOwnerClass records which class this function belongs to, for
// diagnostics.
func (f *CFunction) SetOwnerClass(name string) { f.className = name }

// DisableEdgeConversion suppresses the post-return edge conversion for
// this function only; installed by the loader for `!`-prefixed names.
func (f *CFunction) DisableEdgeConversion() { f.allowEdge = false }

// AllowsEdgeConversion reports whether returned values of this function
// still receive their type's registered edge conversion.
func (f *CFunction) AllowsEdgeConversion() bool { return f.allowEdge }

// SetTransfersOwnership records the registration hint that the returned
// pointer is a fresh object the host must eventually destroy.
func (f *CFunction) SetTransfersOwnership(v bool) { f.transfersOwnership = v }

// Signature renders a human-readable prototype, used in diagnostics for
// OverloadingNoMatch/OverloadingAmbiguity candidate lists.
func (f *CFunction) Signature() string {
	s := f.name
	if f.className != "" {
		s = f.className + "::" + f.name
	}
	s += "("
	for i, p := range f.params {
		if i > 0 {
			s += ", "
		}
		s += p.Type.String()
	}
	s += ")"
	if f.ret != nil {
		s += " -> " + f.ret.String()
	}
	return s
}

// MergeWithKeywordArguments folds named arguments into positional slots
// using this function's own name-to-position map. It raises
// InvalidArguments on an unknown keyword, a keyword that shadows an
// already-supplied positional, a missing parameter, or an extra positional.
func (f *CFunction) MergeWithKeywordArguments(positional []ActualArgument, named KeywordArguments) ([]ActualArgument, error) {
	if len(positional) > len(f.params) {
		return nil, errs.NewInvalidArguments("%s takes %d arguments, %d positional given", f.name, len(f.params), len(positional))
	}
	if len(named) == 0 {
		if len(positional) != len(f.params) {
			return nil, errs.NewInvalidArguments("%s takes %d arguments, got %d", f.name, len(f.params), len(positional))
		}
		return positional, nil
	}

	merged := make([]ActualArgument, len(f.params))
	filled := make([]bool, len(f.params))
	copy(merged, positional)
	for i := range positional {
		filled[i] = true
	}

	for name, arg := range named {
		pos, ok := f.byName[name]
		if !ok {
			return nil, errs.NewInvalidArguments("%s has no argument named %q", f.name, name)
		}
		if filled[pos] {
			return nil, errs.NewInvalidArguments("%s: argument %q supplied both positionally and by keyword", f.name, name)
		}
		merged[pos] = arg
		filled[pos] = true
	}

	for i, ok := range filled {
		if !ok {
			return nil, errs.NewInvalidArguments("%s: missing argument %q", f.name, f.params[i].Name)
		}
	}
	return merged, nil
}

// ConversionRoutesFor computes, without applying them, the per-argument
// conversion routes needed to call f with actual, or an error if any
// argument admits no route to its parameter type. Used both to actually
// dispatch and, by OverloadedSet, to score this CFunction as an overload
// candidate.
func (f *CFunction) ConversionRoutesFor(actual []ActualArgument) (ConversionRoutes, error) {
	if len(actual) != len(f.params) {
		return nil, errs.NewInvalidArguments("%s expects %d arguments, got %d", f.name, len(f.params), len(actual))
	}
	routes := make(ConversionRoutes, len(actual))
	for i, a := range actual {
		if a.Type == f.params[i].Type {
			routes[i] = &ConversionRoute{}
			continue
		}
		route, err := f.table.BestSingleRoute(a.Type, f.params[i].Type)
		if err != nil {
			return nil, err
		}
		routes[i] = route
	}
	return routes, nil
}

// Call resolves the per-argument conversion routes itself and dispatches,
// bypassing overload resolution.
func (f *CFunction) Call(actual []ActualArgument, owner ScriptingElement) (ScriptingElement, error) {
	routes, err := f.ConversionRoutesFor(actual)
	if err != nil {
		return nil, err
	}
	gc := NewGarbageCollection()
	defer gc.Cleanup()
	return f.callWithRoutes(routes, actual, owner, gc)
}

// callWithRoutes converts each actual argument along its already-resolved
// route, marshals the results into a fresh ArgumentsBuffer, invokes the
// bound native symbol, and lifts the raw return word back through the
// return type's Adapter and any registered edge conversion. owner, when
// non-nil, is the host value the returned
// reference's lifetime should be pinned to.
func (f *CFunction) callWithRoutes(routes ConversionRoutes, actual []ActualArgument, owner ScriptingElement, gc *GarbageCollection) (ScriptingElement, error) {
	buf := newArgumentsBuffer()
	for i, a := range actual {
		value := a.Value
		if len(routes[i].Steps) > 0 {
			var err error
			value, err = routes[i].Apply(value, gc)
			if err != nil {
				return nil, err
			}
		}
		adapter := f.params[i].Type.AdapterOrNil()
		if adapter == nil {
			return nil, errs.NewUnsupportedInterface(f.params[i].Type.TypeName())
		}
		if err := adapter.Put(buf, value); err != nil {
			return nil, err
		}
	}

	raw, err := f.caller.Call(f.symbol, buf.Words())
	if err != nil {
		// The symbol threw across the native boundary; wrap it so the
		// front-end can translate it back into a host exception while the
		// first-chance payload is still fresh.
		if _, alreadyWrapped := err.(*errs.UserExceptionOccurred); alreadyWrapped {
			return nil, err
		}
		return nil, errs.NewUserExceptionOccurred("", err.Error())
	}

	if f.ret == nil {
		return nil, nil
	}

	retAdapter := f.ret.AdapterOrNil()
	if retAdapter == nil {
		return nil, errs.NewUnsupportedInterface(f.ret.TypeName())
	}
	result, err := retAdapter.Get(raw)
	if err != nil {
		return nil, err
	}

	// A const reference return is a view into memory somebody else owns:
	// never transfer ownership, and pin the owner if one was supplied.
	// Otherwise the registration hint decides whether the returned
	// pointer is a fresh object the wrapper must destroy.
	if inst, ok := result.(*Instance); ok {
		if f.ret.Constness() == ConstReference {
			inst.Disown()
			if owner != nil {
				inst.BondTo(owner)
			}
		} else if f.transfersOwnership {
			inst.Own()
		}
	}

	if f.allowEdge {
		if edge := f.table.GetEdgeConversion(f.ret); edge != nil {
			result, err = edge.Apply(result)
			if err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}
