// Package frontend carries the contracts a host-language binding supplies
// to the engine plus a complete reference front-end,
// "govalue", that represents host values as plain Go values. The reference
// front-end is what the demo CLI and the test suites dispatch through; a
// real binding replaces the value representation and keeps the contracts.
package frontend

import (
	"sync"

	"github.com/skn123/robin/internal/robin/lowlevel"
	"github.com/skn123/robin/internal/robin/reflection"
)

// Interceptor carries a call from native code back into the host: a
// host-implemented pure-virtual method is invoked with its declared
// signature and raw argument words, and the host's return value travels
// back as one word.
type Interceptor interface {
	Invoke(signature []*reflection.RobinType, ret *reflection.RobinType, args []lowlevel.Word) (lowlevel.Word, error)
}

// ErrorHandler holds the current first-chance error payload while an
// exception crosses the native boundary in either direction.
type ErrorHandler struct {
	mu        sync.Mutex
	current   any
	backtrace []string
}

// NewErrorHandler returns an empty handler.
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{}
}

// SetError stashes a host-typed error object, normally just before a host
// callback lets native code reclaim control.
func (h *ErrorHandler) SetError(hostError any) {
	h.mu.Lock()
	h.current = hostError
	h.backtrace = nil
	h.mu.Unlock()
}

// SetErrorWithBacktrace stashes a native exception's payload together
// with the best-effort backtrace captured at the trap point.
func (h *ErrorHandler) SetErrorWithBacktrace(err error, backtrace []string) {
	h.mu.Lock()
	h.current = err
	h.backtrace = append([]string(nil), backtrace...)
	h.mu.Unlock()
}

// GetError returns the stashed payload without clearing it, so the host
// can re-raise the original exception object after the round trip.
func (h *ErrorHandler) GetError() any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Backtrace returns the captured native backtrace, if any.
func (h *ErrorHandler) Backtrace() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.backtrace...)
}

// Clear drops the stashed payload; called when a dispatch completes
// without error so a stale payload cannot leak into the next failure.
func (h *ErrorHandler) Clear() {
	h.mu.Lock()
	h.current = nil
	h.backtrace = nil
	h.mu.Unlock()
}

// EnumValue is the govalue representation of a registered enum constant.
type EnumValue struct {
	Enum  *reflection.EnumeratedType
	Value int64
}

func (v EnumValue) String() string {
	if name := v.Enum.NameOf(v.Value); name != "" {
		return v.Enum.Name() + "." + name
	}
	return v.Enum.Name() + "(?)"
}

// Frontend is the govalue reference front-end: it detects the
// most-specific RobinType of a Go value, installs Adapters on every type
// the registry knows, and owns the handle table opaque values travel
// through when they cross the word-sized boundary.
type Frontend struct {
	reg     *reflection.TypeRegistry
	errors  *ErrorHandler
	handles *handleTable

	mu          sync.Mutex
	interceptor Interceptor
}

// New builds a front-end over the given registry and installs its
// Adapters on every fixed type plus, via the registry's container hook,
// every container type created later.
func New(reg *reflection.TypeRegistry) *Frontend {
	fe := &Frontend{
		reg:     reg,
		errors:  NewErrorHandler(),
		handles: newHandleTable(),
	}
	fe.installAdapters()
	return fe
}

// Registry returns the type registry this front-end serves.
func (fe *Frontend) Registry() *reflection.TypeRegistry { return fe.reg }

// ErrorHandler returns the per-frontend first-chance error slot.
func (fe *Frontend) ErrorHandler() *ErrorHandler { return fe.errors }

// SetInterceptor installs the host-side dispatcher for pure-virtual
// methods.
func (fe *Frontend) SetInterceptor(i Interceptor) {
	fe.mu.Lock()
	fe.interceptor = i
	fe.mu.Unlock()
}

// Interceptor returns the installed host-side dispatcher, or nil.
func (fe *Frontend) Interceptor() Interceptor {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.interceptor
}

// handleTable assigns word-sized handles to values that cannot travel by
// bit pattern: strings, containers, opaque host values.
type handleTable struct {
	mu     sync.Mutex
	next   uint64
	values map[uint64]any
}

func newHandleTable() *handleTable {
	return &handleTable{next: 1, values: make(map[uint64]any)}
}

func (t *handleTable) put(v any) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.next
	t.next++
	t.values[id] = v
	return id
}

func (t *handleTable) get(id uint64) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.values[id]
	return v, ok
}

// ToWord boxes an opaque host value into a word for native code to carry
// around; native demo symbols use FromWord to look it back up.
func (fe *Frontend) ToWord(v any) lowlevel.Word {
	return fe.handles.put(v)
}

// FromWord resolves a word previously produced by ToWord (or by an
// Adapter for a handle-carried type).
func (fe *Frontend) FromWord(w lowlevel.Word) (any, bool) {
	return fe.handles.get(w)
}
