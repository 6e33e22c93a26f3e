// Package errs defines Robin's error taxonomy: the fixed set of failure
// kinds a dispatch can terminate in. Every exported type wraps
// github.com/pkg/errors so that the point of failure keeps a stack, which
// UserExceptionOccurred in particular needs to reconstruct a best-effort
// backtrace for the host.
package errs

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// InvalidArguments is raised when a positional/keyword merge fails or the
// argument count does not match the signature chosen for a call.
type InvalidArguments struct {
	err error
}

func NewInvalidArguments(format string, args ...any) *InvalidArguments {
	return &InvalidArguments{err: errors.Errorf(format, args...)}
}

func (e *InvalidArguments) Error() string { return "invalid arguments: " + e.err.Error() }
func (e *InvalidArguments) Unwrap() error { return e.err }

// NoApplicableConversion is raised when the shortest-path search exhausts
// the conversion graph without reaching the target type.
type NoApplicableConversion struct {
	From, To string
	err      error
}

func NewNoApplicableConversion(from, to string) *NoApplicableConversion {
	return &NoApplicableConversion{
		From: from,
		To:   to,
		err:  errors.Errorf("no conversion route connects %q to %q", from, to),
	}
}

func (e *NoApplicableConversion) Error() string { return e.err.Error() }
func (e *NoApplicableConversion) Unwrap() error { return e.err }

// OverloadingNoMatch is raised when no alternative in an overload set admits
// a possible route for the actual argument types. Candidates is a printable
// list of the rejected signatures, for diagnosis.
type OverloadingNoMatch struct {
	Name       string
	Candidates []string
	err        error
}

func NewOverloadingNoMatch(name string, candidates []string) *OverloadingNoMatch {
	return &OverloadingNoMatch{
		Name:       name,
		Candidates: candidates,
		err: errors.Errorf("no overloaded alternative of %q matches the given arguments; candidates:\n  %s",
			name, strings.Join(candidates, "\n  ")),
	}
}

func (e *OverloadingNoMatch) Error() string { return e.err.Error() }
func (e *OverloadingNoMatch) Unwrap() error { return e.err }

// OverloadingAmbiguity is raised when two or more structurally distinct
// alternatives tie for the cheapest conversion-weight vector.
type OverloadingAmbiguity struct {
	Name       string
	Candidates []string
	err        error
}

func NewOverloadingAmbiguity(name string, candidates []string) *OverloadingAmbiguity {
	return &OverloadingAmbiguity{
		Name:       name,
		Candidates: candidates,
		err: errors.Errorf("call to %q is ambiguous between:\n  %s",
			name, strings.Join(candidates, "\n  ")),
	}
}

func (e *OverloadingAmbiguity) Error() string { return e.err.Error() }
func (e *OverloadingAmbiguity) Unwrap() error { return e.err }

// NoSuchMethod is raised when a method name lookup misses on a class (and
// all of its bases).
type NoSuchMethod struct {
	Class, Method string
	err           error
}

func NewNoSuchMethod(class, method string) *NoSuchMethod {
	return &NoSuchMethod{Class: class, Method: method,
		err: errors.Errorf("class %q has no method %q", class, method)}
}

func (e *NoSuchMethod) Error() string { return e.err.Error() }
func (e *NoSuchMethod) Unwrap() error { return e.err }

// NoSuchConstructor is raised when no registered constructor of a class
// matches a set of actual arguments.
type NoSuchConstructor struct {
	Class string
	err   error
}

func NewNoSuchConstructor(class string) *NoSuchConstructor {
	return &NoSuchConstructor{Class: class, err: errors.Errorf("class %q has no matching constructor", class)}
}

func (e *NoSuchConstructor) Error() string { return e.err.Error() }
func (e *NoSuchConstructor) Unwrap() error { return e.err }

// NoConstructorsAtAll is raised when a class was never given any
// constructor, so instance construction is impossible outright.
type NoConstructorsAtAll struct {
	Class string
	err   error
}

func NewNoConstructorsAtAll(class string) *NoConstructorsAtAll {
	return &NoConstructorsAtAll{Class: class, err: errors.Errorf("class %q declares no constructors at all", class)}
}

func (e *NoConstructorsAtAll) Error() string { return e.err.Error() }
func (e *NoConstructorsAtAll) Unwrap() error { return e.err }

// LookupFailure is raised when a namespace/class/enum/function name cannot
// be found during registration or resolution.
type LookupFailure struct {
	Name string
	err  error
}

func NewLookupFailure(name string) *LookupFailure {
	return &LookupFailure{Name: name, err: errors.Errorf("lookup failed: no such name %q", name)}
}

func (e *LookupFailure) Error() string { return e.err.Error() }
func (e *LookupFailure) Unwrap() error { return e.err }

// UnsupportedInterface is raised when a RobinType is used without an
// Adapter installed by the active front-end.
type UnsupportedInterface struct {
	TypeName string
	err      error
}

func NewUnsupportedInterface(typeName string) *UnsupportedInterface {
	return &UnsupportedInterface{TypeName: typeName,
		err: errors.Errorf("type %q has no adapter installed by the active front-end", typeName)}
}

func (e *UnsupportedInterface) Error() string { return e.err.Error() }
func (e *UnsupportedInterface) Unwrap() error { return e.err }

// UserExceptionOccurred wraps a native exception trapped at the
// CFunction.Call boundary. It preserves the first-chance payload (native
// type name, message) and a best-effort backtrace captured at the moment of
// capture, so the front-end can later restore a host-typed exception via
// ErrorHandler.GetError.
type UserExceptionOccurred struct {
	NativeType string
	What       string
	err        error
}

func NewUserExceptionOccurred(nativeType, what string) *UserExceptionOccurred {
	msg := what
	if nativeType != "" {
		msg = fmt.Sprintf("%s: %s", nativeType, what)
	}
	return &UserExceptionOccurred{NativeType: nativeType, What: what, err: errors.New(msg)}
}

func (e *UserExceptionOccurred) Error() string { return e.err.Error() }
func (e *UserExceptionOccurred) Unwrap() error { return e.err }

// Backtrace returns the stack captured at the point this error was
// created, formatted one frame per line.
func (e *UserExceptionOccurred) Backtrace() []string {
	type stackTracer interface {
		StackTrace() errors.StackTrace
	}
	st, ok := e.err.(stackTracer)
	if !ok {
		return nil
	}
	frames := st.StackTrace()
	out := make([]string, 0, len(frames))
	for _, f := range frames {
		out = append(out, fmt.Sprintf("%+v", f))
	}
	return out
}

// EnvironmentVacuum is raised when a front-end operation is attempted with
// no active front-end installed on the engine.
type EnvironmentVacuum struct {
	err error
}

func NewEnvironmentVacuum() *EnvironmentVacuum {
	return &EnvironmentVacuum{err: errors.New("no active front-end is installed on this engine")}
}

func (e *EnvironmentVacuum) Error() string { return e.err.Error() }
func (e *EnvironmentVacuum) Unwrap() error { return e.err }

// DynamicLibraryOpen is raised when a registration table cannot be
// acquired; the actual dynamic-loader mechanics are delegated to the
// front-end, this only carries its report.
type DynamicLibraryOpen struct {
	Path string
	err  error
}

func NewDynamicLibraryOpen(path string, cause error) *DynamicLibraryOpen {
	return &DynamicLibraryOpen{Path: path, err: errors.Wrapf(cause, "could not open dynamic library %q", path)}
}

func (e *DynamicLibraryOpen) Error() string { return e.err.Error() }
func (e *DynamicLibraryOpen) Unwrap() error { return e.err }
