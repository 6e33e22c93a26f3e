package registration

import (
	"errors"
	"testing"

	"github.com/skn123/robin/internal/robin/errs"
	"github.com/skn123/robin/internal/robin/frontend"
	"github.com/skn123/robin/internal/robin/lowlevel"
	"github.com/skn123/robin/internal/robin/reflection"
)

func newTestMechanism() (*Mechanism, *lowlevel.SymbolTable, *reflection.TypeRegistry) {
	table := reflection.NewConversionTable()
	reg := reflection.NewTypeRegistry(table)
	fe := frontend.New(reg)
	symbols := lowlevel.NewSymbolTable()
	return NewMechanism(reg, symbols, fe), symbols, reg
}

func noopSymbol() lowlevel.Symbol {
	return func([]lowlevel.Word) (lowlevel.Word, error) { return 0, nil }
}

func TestAdmitEnum(t *testing.T) {
	m, _, _ := newTestMechanism()
	lib, err := m.AdmitLibrary("colors", []RegData{
		{Name: "Color", Type: "enum", Prototype: []RegData{
			{Name: "RED", Sym: 0},
			{Name: "GREEN", Sym: 1},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	e, err := lib.LookupEnum("Color")
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := e.Value("GREEN"); !ok || v != 1 {
		t.Errorf("GREEN = %d, %v; want 1", v, ok)
	}
	if e.Type().AdapterOrNil() == nil {
		t.Error("enum type has no adapter installed")
	}
}

func TestAdmitFunctionAndOverloads(t *testing.T) {
	m, _, _ := newTestMechanism()
	lib, err := m.AdmitLibrary("mathlib", []RegData{
		{Name: "add", Type: "int", Sym: noopSymbol(), Prototype: []RegData{
			{Name: "a", Type: "int"}, {Name: "b", Type: "int"},
		}},
		{Name: "add", Type: "double", Sym: noopSymbol(), Prototype: []RegData{
			{Name: "a", Type: "double"}, {Name: "b", Type: "double"},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	set, err := lib.LookupFunction("add")
	if err != nil {
		t.Fatal(err)
	}
	if got := len(set.Alternatives()); got != 2 {
		t.Errorf("add has %d alternatives, want 2", got)
	}
}

func TestAdmitClassMembers(t *testing.T) {
	m, _, _ := newTestMechanism()
	lib, err := m.AdmitLibrary("shapes", []RegData{
		{Name: "Shape", Type: "class", Prototype: []RegData{
			{Name: "%Shape", Type: "constructor", Sym: noopSymbol()},
			{Name: "~Shape", Type: "destructor", Sym: noopSymbol()},
			{Name: "area", Type: "double", Sym: noopSymbol()},
		}},
		{Name: "Square", Type: "class", Prototype: []RegData{
			{Name: "Shape", Type: "extends", Sym: func(p uintptr) uintptr { return p }},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	shape, err := lib.LookupClass("Shape")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := shape.FindMethod("area"); err != nil {
		t.Errorf("area method missing: %v", err)
	}
	square, err := lib.LookupClass("Square")
	if err != nil {
		t.Fatal(err)
	}
	// Inherited lookup walks the base.
	if _, err := square.FindMethod("area"); err != nil {
		t.Errorf("inherited area missing: %v", err)
	}
	if bases := square.Bases(); len(bases) != 1 || bases[0] != shape {
		t.Errorf("bases = %v, want [Shape]", bases)
	}
}

func TestAdmitAlias(t *testing.T) {
	m, _, _ := newTestMechanism()
	lib, err := m.AdmitLibrary("lib", []RegData{
		{Name: "Counter", Type: "class", Prototype: nil},
		{Name: "LegacyCounter", Type: "=Counter"},
	})
	if err != nil {
		t.Fatal(err)
	}
	c, err := lib.LookupClass("LegacyCounter")
	if err != nil {
		t.Fatal(err)
	}
	if c.Name() != "Counter" {
		t.Errorf("alias resolved to %q, want Counter", c.Name())
	}
}

func TestEdgeDisablePrefix(t *testing.T) {
	m, _, _ := newTestMechanism()
	lib, err := m.AdmitLibrary("lib", []RegData{
		{Name: "!raw", Type: "int", Sym: noopSymbol()},
		{Name: "cooked", Type: "int", Sym: noopSymbol()},
	})
	if err != nil {
		t.Fatal(err)
	}
	raw, err := lib.LookupFunction("raw")
	if err != nil {
		t.Fatal(err)
	}
	if raw.Alternatives()[0].AllowsEdgeConversion() {
		t.Error("!-prefixed function still allows edge conversions")
	}
	cooked, err := lib.LookupFunction("cooked")
	if err != nil {
		t.Fatal(err)
	}
	if !cooked.Alternatives()[0].AllowsEdgeConversion() {
		t.Error("unprefixed function lost edge conversions")
	}
}

func TestImplicitConstructorConversionPolicies(t *testing.T) {
	m, _, reg := newTestMechanism()
	lib, err := m.AdmitLibrary("lib", []RegData{
		{Name: "Implicit", Type: "class", Prototype: []RegData{
			{Name: "Implicit", Type: "constructor", Sym: noopSymbol(), Prototype: []RegData{
				{Name: "n", Type: "int"},
			}},
		}},
		{Name: "Explicit", Type: "class", Prototype: []RegData{
			{Name: "%Explicit", Type: "constructor", Sym: noopSymbol(), Prototype: []RegData{
				{Name: "n", Type: "int"},
			}},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}

	implicit, _ := lib.LookupClass("Implicit")
	explicit, _ := lib.LookupClass("Explicit")
	intType := reg.Intrinsic(reflection.SpecInt)

	if _, err := reg.Table().BestSingleRoute(intType, implicit.ValueType()); err != nil {
		t.Errorf("one-argument constructor produced no implicit conversion: %v", err)
	}
	if _, err := reg.Table().BestSingleRoute(intType, explicit.ValueType()); err == nil {
		t.Error("percent-prefixed constructor still converts implicitly")
	}
}

func TestPureVirtualNeedsInterceptor(t *testing.T) {
	m, symbols, _ := newTestMechanism()
	lib, err := m.AdmitLibrary("lib", []RegData{
		{Name: "Listener", Type: "class", Prototype: []RegData{
			{Name: "onEvent", Type: "void", Sym: nil, Prototype: []RegData{
				{Name: "code", Type: "int"},
			}},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	listener, err := lib.LookupClass("Listener")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := listener.FindMethod("onEvent"); err != nil {
		t.Fatal(err)
	}

	// The declared signature is stored and the installed symbol routes
	// through the interceptor; with none installed it must say so.
	const symbol = "Listener::onEvent#1"
	if !symbols.Has(symbol) {
		t.Fatal("pure virtual symbol not installed")
	}
	if _, err := symbols.Call(symbol, []lowlevel.Word{0, 0}); err == nil {
		t.Error("pure virtual call without an interceptor must fail")
	}
}

func TestUnknownTypeNameFailsLookup(t *testing.T) {
	m, _, _ := newTestMechanism()
	_, err := m.AdmitLibrary("lib", []RegData{
		{Name: "f", Type: "*Missing", Sym: noopSymbol()},
	})
	var lf *errs.LookupFailure
	if !errors.As(err, &lf) {
		t.Fatalf("err = %v, want LookupFailure", err)
	}
	if lf.Name != "Missing" {
		t.Errorf("failure names %q, want Missing", lf.Name)
	}
}
