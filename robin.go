// Package robin is a runtime bridge exposing compiled native libraries to
// a dynamically typed host environment. Its core is a type-aware dispatch
// and conversion engine: given a call against one of many native
// functions it decides which overload to invoke and how to marshal each
// argument through the cheapest chain of implicit conversions.
//
// This package is the thin public facade; the machinery lives under
// internal/robin. Create an Engine, install a front-end, admit a
// library's registration table, and call:
//
//	eng := robin.CreateEngine()
//	if err := eng.RegisterLibrary("geometry", entry); err != nil { ... }
//	res, err := eng.CallFunction("distance", p1, p2)
package robin

import (
	"github.com/skn123/robin/internal/robin/errs"
	"github.com/skn123/robin/internal/robin/frontend"
	"github.com/skn123/robin/internal/robin/lowlevel"
	"github.com/skn123/robin/internal/robin/reflection"
	"github.com/skn123/robin/internal/robin/registration"
	"github.com/skn123/robin/internal/robin/trace"
)

// RegData re-exports the registration record so callers can declare entry
// tables without importing internal packages.
type RegData = registration.RegData

// Instance re-exports the native object wrapper.
type Instance = reflection.Instance

// EnumValue re-exports the govalue enum constant representation.
type EnumValue = frontend.EnumValue

// Engine is one complete dispatch universe: a type registry, a conversion
// graph, a symbol table, and the reflection state of every admitted
// library. Engines are independent; reflection entities never migrate
// between them.
type Engine interface {
	// RegisterLibrary admits a registration table under the library's
	// name, declaring its entities into the engine's global namespace.
	RegisterLibrary(name string, entry []RegData) error

	// CallFunction dispatches a global function call by name with
	// positional arguments.
	CallFunction(name string, args ...any) (any, error)

	// CallFunctionKw is CallFunction with keyword arguments folded in.
	CallFunctionKw(name string, kwargs map[string]any, args ...any) (any, error)

	// CreateInstance constructs an instance of a registered class.
	CreateInstance(className string, args ...any) (*Instance, error)

	// CallMethod dispatches a method call on an instance.
	CallMethod(self *Instance, method string, args ...any) (any, error)

	// Enum resolves a registered enum constant by name.
	Enum(enumName, constant string) (EnumValue, error)

	// Globals returns the engine's global namespace for direct lookups.
	Globals() *reflection.Namespace

	// Registry exposes the engine's type registry.
	Registry() *reflection.TypeRegistry

	// Symbols exposes the engine's low-level symbol table, where
	// in-process libraries install their callable entry points.
	Symbols() *lowlevel.SymbolTable

	// SetFrontend installs the active front-end. CreateEngine installs
	// the govalue reference front-end already; NewEngine starts empty.
	SetFrontend(fe *frontend.Frontend)

	// Frontend returns the active front-end, or nil.
	Frontend() *frontend.Frontend
}

// EnableTrace turns on the one-line HTML-comment diagnostic trace of
// registration, cache hits, conversion choices and weights.
func EnableTrace() { trace.Enable() }

// DisableTrace turns the diagnostic trace back off.
func DisableTrace() { trace.Disable() }

type engine struct {
	table    *reflection.ConversionTable
	registry *reflection.TypeRegistry
	symbols  *lowlevel.SymbolTable
	globals  *reflection.Namespace

	fe        *frontend.Frontend
	mechanism *registration.Mechanism
}

// NewEngine returns an engine with no front-end installed; operations
// needing one fail with EnvironmentVacuum until SetFrontend is called.
func NewEngine() Engine {
	table := reflection.NewConversionTable()
	return &engine{
		table:    table,
		registry: reflection.NewTypeRegistry(table),
		symbols:  lowlevel.NewSymbolTable(),
		globals:  reflection.NewNamespace("robin"),
	}
}

// CreateEngine returns an engine with the govalue reference front-end
// active, which is what embedders and tests normally want.
func CreateEngine() Engine {
	e := NewEngine().(*engine)
	e.SetFrontend(frontend.New(e.registry))
	return e
}

func (e *engine) SetFrontend(fe *frontend.Frontend) {
	e.fe = fe
	e.mechanism = nil
}

func (e *engine) Frontend() *frontend.Frontend { return e.fe }

func (e *engine) Globals() *reflection.Namespace { return e.globals }

func (e *engine) Registry() *reflection.TypeRegistry { return e.registry }

func (e *engine) Symbols() *lowlevel.SymbolTable { return e.symbols }

func (e *engine) activeFrontend() (*frontend.Frontend, error) {
	if e.fe == nil {
		return nil, errs.NewEnvironmentVacuum()
	}
	return e.fe, nil
}

func (e *engine) RegisterLibrary(name string, entry []RegData) error {
	fe, err := e.activeFrontend()
	if err != nil {
		return err
	}
	if e.mechanism == nil {
		e.mechanism = registration.NewMechanism(e.registry, e.symbols, fe)
	}
	lib, err := e.mechanism.AdmitLibrary(name, entry)
	if err != nil {
		return err
	}
	// Everything the library declared becomes globally visible; the
	// library namespace itself is reachable under its own name.
	for _, n := range lib.Names() {
		entity, lookupErr := lib.Lookup(n)
		if lookupErr != nil {
			continue
		}
		switch v := entity.(type) {
		case *reflection.Class:
			e.globals.DeclareClass(n, v)
		case *reflection.EnumeratedType:
			e.globals.DeclareEnum(n, v)
		case *reflection.OverloadedSet:
			e.globals.DeclareFunction(n, v)
		case *reflection.Namespace:
			e.globals.DeclareNamespace(n, v)
		}
	}
	e.globals.DeclareNamespace(name, lib)
	return nil
}

// finishCall translates a trapped native exception into the front-end's
// first-chance slot, or clears the slot on success, so a host can always
// consult ErrorHandler.GetError for the freshest payload.
func (e *engine) finishCall(fe *frontend.Frontend, result any, err error) (any, error) {
	if err == nil {
		fe.ErrorHandler().Clear()
		return result, nil
	}
	if uex, ok := err.(*errs.UserExceptionOccurred); ok {
		// An error a host callback already stashed wins: the round trip
		// must restore the original host exception object, not our wrap.
		if fe.ErrorHandler().GetError() == nil {
			fe.ErrorHandler().SetErrorWithBacktrace(uex, uex.Backtrace())
		}
	}
	return nil, err
}

func (e *engine) CallFunction(name string, args ...any) (any, error) {
	return e.CallFunctionKw(name, nil, args...)
}

func (e *engine) CallFunctionKw(name string, kwargs map[string]any, args ...any) (any, error) {
	fe, err := e.activeFrontend()
	if err != nil {
		return nil, err
	}
	set, err := e.globals.LookupFunction(name)
	if err != nil {
		return nil, err
	}
	actual, err := fe.DetectAll(args)
	if err != nil {
		return nil, err
	}
	kw, err := fe.DetectKeywords(kwargs)
	if err != nil {
		return nil, err
	}
	result, err := set.Call(actual, kw, nil)
	return e.finishCall(fe, result, err)
}

func (e *engine) CreateInstance(className string, args ...any) (*Instance, error) {
	fe, err := e.activeFrontend()
	if err != nil {
		return nil, err
	}
	class, err := e.globals.LookupClass(className)
	if err != nil {
		return nil, err
	}
	actual, err := fe.DetectAll(args)
	if err != nil {
		return nil, err
	}
	result, err := class.CreateInstance(actual, nil)
	if result, err = e.finishCall(fe, result, err); err != nil {
		return nil, err
	}
	inst, ok := result.(*reflection.Instance)
	if !ok {
		return nil, errs.NewNoSuchConstructor(className)
	}
	return inst, nil
}

func (e *engine) CallMethod(self *Instance, method string, args ...any) (any, error) {
	fe, err := e.activeFrontend()
	if err != nil {
		return nil, err
	}
	bound, err := self.Class().BindMethod(method, self)
	if err != nil {
		return nil, err
	}
	actual, err := fe.DetectAll(args)
	if err != nil {
		return nil, err
	}
	result, err := bound.Call(actual, nil, nil)
	return e.finishCall(fe, result, err)
}

func (e *engine) Enum(enumName, constant string) (EnumValue, error) {
	en, err := e.globals.LookupEnum(enumName)
	if err != nil {
		return EnumValue{}, err
	}
	v, ok := en.Value(constant)
	if !ok {
		return EnumValue{}, errs.NewLookupFailure(enumName + "." + constant)
	}
	return EnumValue{Enum: en, Value: v}, nil
}
