// Package registration unpacks the declarative table a native library
// exports under its `entry` symbol into live reflection entities: classes,
// enums, overloaded function sets, aliases and conversions. The
// dynamic-loader glue that locates `entry` inside a .so/.dll is the
// caller's business; this package starts from the decoded record array.
package registration

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/skn123/robin/internal/robin/errs"
	"github.com/skn123/robin/internal/robin/frontend"
	"github.com/skn123/robin/internal/robin/lowlevel"
	"github.com/skn123/robin/internal/robin/reflection"
	"github.com/skn123/robin/internal/robin/trace"
)

// RegData is one record of a library's registration table. Name both
// names the entity and, empty, terminates the enclosing array. Type is
// the mini-DSL payload deciding how the record is interpreted. Sym is the
// record's opaque payload: a lowlevel.Symbol for callables, an integer
// for enum constants, an address-transform callback for `extends`
// records, or nil for a pure-virtual method. Prototype nests the record's
// members or arguments.
type RegData struct {
	Name      string
	Type      string
	Sym       any
	Prototype []RegData
}

// UpcastTransform adjusts a derived instance address to the base
// subobject address, accounting for multi-inheritance offsets.
type UpcastTransform func(uintptr) uintptr

// Mechanism admits registration tables into an engine's reflection state.
type Mechanism struct {
	reg     *reflection.TypeRegistry
	symbols *lowlevel.SymbolTable
	fe      *frontend.Frontend
	counter uint64
}

// NewMechanism builds a mechanism writing into the given registry and
// symbol table, installing Adapters through fe as entities appear.
func NewMechanism(reg *reflection.TypeRegistry, symbols *lowlevel.SymbolTable, fe *frontend.Frontend) *Mechanism {
	return &Mechanism{reg: reg, symbols: symbols, fe: fe}
}

// AdmitLibrary walks a library's entry table and returns the namespace
// holding everything it declared.
func (m *Mechanism) AdmitLibrary(name string, entry []RegData) (*reflection.Namespace, error) {
	if entry == nil {
		return nil, errs.NewDynamicLibraryOpen(name, fmt.Errorf("library exposes no entry table"))
	}
	lib := reflection.NewNamespace(name)
	if err := m.admit(entry, nil, lib); err != nil {
		return nil, err
	}
	trace.Tracef(2, "Admitted library %q", name)
	return lib, nil
}

// admit unpacks one record array; klass is non-nil while descending into
// a class's members.
func (m *Mechanism) admit(data []RegData, klass *reflection.Class, container *reflection.Namespace) error {
	for i := range data {
		rec := &data[i]
		if rec.Name == "" {
			break
		}
		var err error
		switch rec.Type {
		case "enum":
			err = m.admitEnum(rec, container)
		case "class":
			err = m.admitClass(rec, container)
		case "extends":
			err = m.admitExtends(rec, klass, container)
		case "constructor":
			err = m.admitConstructor(rec, klass, container)
		case "destructor":
			err = m.admitDestructor(rec, klass, container)
		default:
			if strings.HasPrefix(rec.Type, "=") {
				container.Alias(rec.Name, rec.Type[1:])
			} else {
				err = m.admitFunction(rec, klass, container)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *Mechanism) admitEnum(rec *RegData, container *reflection.Namespace) error {
	e := reflection.NewEnumeratedType(rec.Name)
	// Enum types are no edge source; adopting them gives them the implicit
	// scripting_element edge.
	m.reg.Table().AdoptType(e.Type())
	m.reg.Table().AdoptType(e.ConstType())
	for i := range rec.Prototype {
		c := &rec.Prototype[i]
		if c.Name == "" {
			break
		}
		v, err := symInt(c.Sym)
		if err != nil {
			return fmt.Errorf("enum %s constant %s: %w", rec.Name, c.Name, err)
		}
		e.AddValue(c.Name, v)
	}
	m.fe.InstallEnumAdapter(e)
	container.DeclareEnum(rec.Name, e)
	trace.Tracef(2, "Registered enum: %q", rec.Name)
	return nil
}

func (m *Mechanism) admitClass(rec *RegData, container *reflection.Namespace) error {
	c := reflection.NewClass(rec.Name, m.reg.Table())
	m.fe.InstallClassAdapters(c)
	container.DeclareClass(rec.Name, c)
	return m.admit(rec.Prototype, c, container)
}

func (m *Mechanism) admitExtends(rec *RegData, klass *reflection.Class, container *reflection.Namespace) error {
	if klass == nil {
		return errs.NewLookupFailure(rec.Name)
	}
	base, err := container.LookupClass(rec.Name)
	if err != nil {
		return err
	}
	var transform UpcastTransform
	switch t := rec.Sym.(type) {
	case nil:
	case UpcastTransform:
		transform = t
	case func(uintptr) uintptr:
		transform = t
	default:
		return fmt.Errorf("extends %s: sym is %T, not an upcast transform", rec.Name, rec.Sym)
	}
	klass.AddBase(base, transform)
	return nil
}

// Constructor conversion policy, encoded in the first character of the
// record's name: `%` explicit (never used implicitly), `*` user-defined
// implicit conversion, `^` promotion-grade implicit conversion. An
// unprefixed one-argument constructor behaves like `*`, matching C++'s
// default of non-explicit constructors.
func (m *Mechanism) admitConstructor(rec *RegData, klass *reflection.Class, container *reflection.Namespace) error {
	if klass == nil {
		return errs.NewLookupFailure("constructor outside a class")
	}
	name := rec.Name
	policy := byte(0)
	if len(name) > 0 && (name[0] == '%' || name[0] == '*' || name[0] == '^') {
		policy = name[0]
		name = name[1:]
	}

	params, err := m.admitArguments(rec.Prototype, container)
	if err != nil {
		return fmt.Errorf("constructor of %s: %w", klass.Name(), err)
	}
	symbol, err := m.installSymbol(klass.Name()+"::"+klass.Name(), rec.Sym, params, klass.CreatorType())
	if err != nil {
		return err
	}
	ctor := reflection.NewCFunction(name, reflection.KindConstructor, params, klass.CreatorType(), symbol, m.symbols, m.reg.Table())
	klass.AddConstructor(ctor)

	if len(params) == 1 && policy != '%' {
		construct := func(v reflection.ScriptingElement) (reflection.ScriptingElement, error) {
			return klass.CreateInstance([]reflection.ActualArgument{{Type: params[0].Type, Value: v}}, nil)
		}
		for _, target := range []*reflection.RobinType{klass.ValueType(), klass.ConstType()} {
			if policy == '^' {
				m.reg.Table().RegisterConversion(reflection.NewPromotionConversion(
					params[0].Type, target, reflection.Weight{Promotion: 1}, construct))
			} else {
				m.reg.Table().RegisterConversion(reflection.NewViaConstructionConversion(params[0].Type, klass, target))
			}
		}
	}
	return nil
}

func (m *Mechanism) admitDestructor(rec *RegData, klass *reflection.Class, container *reflection.Namespace) error {
	if klass == nil {
		return errs.NewLookupFailure("destructor outside a class")
	}
	params := []reflection.Param{{Name: "self", Type: klass.PtrType()}}
	symbol, err := m.installSymbol(klass.Name()+"::~", rec.Sym, params, nil)
	if err != nil {
		return err
	}
	dtor := reflection.NewCFunction(rec.Name, reflection.KindDestructor, params, nil, symbol, m.symbols, m.reg.Table())
	klass.SetDestructor(dtor)
	return nil
}

func (m *Mechanism) admitFunction(rec *RegData, klass *reflection.Class, container *reflection.Namespace) error {
	name := rec.Name
	disableEdge := false
	if strings.HasPrefix(name, "!") {
		disableEdge = true
		name = name[1:]
	}

	ret, err := m.resolveType(rec.Type, nil, container)
	if err != nil {
		return fmt.Errorf("function %s: %w", name, err)
	}

	var params []reflection.Param
	kind := reflection.KindGlobal
	if klass != nil {
		kind = reflection.KindMethod
		params = append(params, reflection.Param{Name: "self", Type: klass.PtrType()})
	}
	args, err := m.admitArguments(rec.Prototype, container)
	if err != nil {
		return fmt.Errorf("function %s: %w", name, err)
	}
	params = append(params, args...)

	qualified := name
	if klass != nil {
		qualified = klass.Name() + "::" + name
	}
	symbol, err := m.installSymbol(qualified, rec.Sym, params, ret)
	if err != nil {
		return err
	}

	fn := reflection.NewCFunction(name, kind, params, ret, symbol, m.symbols, m.reg.Table())
	if disableEdge {
		fn.DisableEdgeConversion()
	}
	if klass != nil {
		klass.AddMethod(name, fn)
	} else {
		container.FunctionForDeclaration(name).AddAlternative(fn)
	}
	return nil
}

// admitArguments resolves one prototype level into a formal parameter
// list. Unnamed records get positional fallback names so keyword merging
// stays total.
func (m *Mechanism) admitArguments(data []RegData, container *reflection.Namespace) ([]reflection.Param, error) {
	var params []reflection.Param
	for i := range data {
		rec := &data[i]
		if rec.Name == "" && rec.Type == "" {
			break
		}
		t, err := m.resolveType(rec.Type, rec, container)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", rec.Name, err)
		}
		if t == nil {
			return nil, fmt.Errorf("argument %q cannot be void", rec.Name)
		}
		name := rec.Name
		if name == "" {
			name = "arg" + strconv.Itoa(i)
		}
		params = append(params, reflection.Param{Name: name, Type: t})
	}
	return params, nil
}

// resolveType interprets the type mini-grammar. rec, when
// non-nil, is the record the string came from, consulted for the `>`
// passthrough marker which takes its real type from the next nesting
// level. A nil result means void.
func (m *Mechanism) resolveType(s string, rec *RegData, container *reflection.Namespace) (*reflection.RobinType, error) {
	if spec, ok := intrinsicSpecs[s]; ok {
		return m.reg.Intrinsic(spec), nil
	}
	switch s {
	case "void":
		return nil, nil
	case "*char":
		return m.reg.Intrinsic(reflection.SpecCString), nil
	case "@string":
		return m.reg.Intrinsic(reflection.SpecPascalString), nil
	case "scripting_element", "#scripting_element":
		return m.reg.ScriptingElementType(), nil
	case "&scripting_element":
		return m.reg.BorrowedScriptingElementType(), nil
	case ">":
		if rec == nil || len(rec.Prototype) == 0 {
			return nil, fmt.Errorf("passthrough marker with no nested prototype")
		}
		return m.resolveType(rec.Prototype[0].Type, &rec.Prototype[0], container)
	}

	// Container parameters: `list<T>` and `dict<K,V>` bind the const,
	// copy-in view; the `&`-prefixed forms bind the writable view whose
	// composed conversion publishes element writes back to the caller.
	if inner, ok := cutContainer(s, "list<"); ok {
		elem, err := m.resolveType(inner, nil, container)
		if err != nil || elem == nil {
			return nil, fmt.Errorf("list element %q: %w", inner, err)
		}
		return m.reg.ConstListOf(elem), nil
	}
	if inner, ok := cutContainer(s, "&list<"); ok {
		elem, err := m.resolveType(inner, nil, container)
		if err != nil || elem == nil {
			return nil, fmt.Errorf("list element %q: %w", inner, err)
		}
		return m.reg.ListOf(elem), nil
	}
	if inner, ok := cutContainer(s, "dict<"); ok {
		key, val, err := m.resolveDictParams(inner, container)
		if err != nil {
			return nil, err
		}
		return m.reg.ConstDictOf(key, val), nil
	}
	if inner, ok := cutContainer(s, "&dict<"); ok {
		key, val, err := m.resolveDictParams(inner, container)
		if err != nil {
			return nil, err
		}
		return m.reg.DictOf(key, val), nil
	}

	if strings.HasPrefix(s, "#") {
		e, err := container.LookupEnum(s[1:])
		if err != nil {
			return nil, err
		}
		return e.Type(), nil
	}
	if strings.HasPrefix(s, "*") {
		c, err := container.LookupClass(s[1:])
		if err != nil {
			return nil, err
		}
		return c.PtrType(), nil
	}
	if strings.HasPrefix(s, "&") {
		c, err := container.LookupClass(s[1:])
		if err != nil {
			return nil, err
		}
		return c.ConstType(), nil
	}

	// A bare name resolves to a class by value or an enum.
	entity, err := container.Lookup(s)
	if err != nil {
		return nil, err
	}
	switch e := entity.(type) {
	case *reflection.Class:
		return e.ValueType(), nil
	case *reflection.EnumeratedType:
		return e.Type(), nil
	default:
		return nil, errs.NewLookupFailure(s)
	}
}

// cutContainer strips `prefix` and the closing `>` from a container type
// string, reporting whether s had that shape.
func cutContainer(s, prefix string) (string, bool) {
	if strings.HasPrefix(s, prefix) && strings.HasSuffix(s, ">") {
		return s[len(prefix) : len(s)-1], true
	}
	return "", false
}

func (m *Mechanism) resolveDictParams(inner string, container *reflection.Namespace) (*reflection.RobinType, *reflection.RobinType, error) {
	parts := strings.SplitN(inner, ",", 2)
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("dict parameters %q: want key,value", inner)
	}
	key, err := m.resolveType(strings.TrimSpace(parts[0]), nil, container)
	if err != nil || key == nil {
		return nil, nil, fmt.Errorf("dict key %q: %w", parts[0], err)
	}
	val, err := m.resolveType(strings.TrimSpace(parts[1]), nil, container)
	if err != nil || val == nil {
		return nil, nil, fmt.Errorf("dict value %q: %w", parts[1], err)
	}
	return key, val, nil
}

var intrinsicSpecs = map[string]reflection.Spec{
	"int":                reflection.SpecInt,
	"unsigned int":       reflection.SpecUInt,
	"long":               reflection.SpecLong,
	"unsigned long":      reflection.SpecULong,
	"long long":          reflection.SpecLongLong,
	"unsigned long long": reflection.SpecULongLong,
	"short":              reflection.SpecShort,
	"unsigned short":     reflection.SpecUShort,
	"char":               reflection.SpecChar,
	"signed char":        reflection.SpecSChar,
	"unsigned char":      reflection.SpecUChar,
	"float":              reflection.SpecFloat,
	"double":             reflection.SpecDouble,
	"bool":               reflection.SpecBool,
}

// installSymbol binds a record's sym payload into the symbol table under
// a unique name and returns that name. A nil payload declares the method
// pure virtual: the stored signature dispatches through the front-end's
// Interceptor when one is installed.
func (m *Mechanism) installSymbol(qualified string, sym any, params []reflection.Param, ret *reflection.RobinType) (string, error) {
	name := qualified + "#" + strconv.FormatUint(atomic.AddUint64(&m.counter, 1), 10)
	switch fn := sym.(type) {
	case nil:
		signature := make([]*reflection.RobinType, len(params))
		for i, p := range params {
			signature[i] = p.Type
		}
		fe := m.fe
		m.symbols.Install(name, func(args []lowlevel.Word) (lowlevel.Word, error) {
			interceptor := fe.Interceptor()
			if interceptor == nil {
				return 0, fmt.Errorf("pure virtual %s called with no interceptor installed", qualified)
			}
			return interceptor.Invoke(signature, ret, args)
		})
	case lowlevel.Symbol:
		m.symbols.Install(name, fn)
	case func(args []lowlevel.Word) (lowlevel.Word, error):
		m.symbols.Install(name, fn)
	case string:
		// Already a symbol-table name, e.g. pre-installed by a loader.
		return fn, nil
	default:
		return "", fmt.Errorf("record %s: sym is %T, not a callable", qualified, sym)
	}
	return name, nil
}

func symInt(sym any) (int64, error) {
	switch v := sym.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		return 0, fmt.Errorf("sym is %T, not an integer constant", sym)
	}
}
