// Package lowlevel defines the trampoline contract between the dispatch
// engine and actual native symbols: a symbol takes a base pointer to
// already-marshaled machine words and yields one machine word back. The
// engine only ever observes this word-in/word-out shape; how a concrete
// Caller places the words into registers and stack slots is the platform
// collaborator's business.
package lowlevel

import (
	"fmt"
	"sync"

	"github.com/skn123/robin/internal/robin/argbuf"
)

// ArgumentArrayLimit caps how many words a single call may carry through
// the fixed-parameter dispatch variant.
const ArgumentArrayLimit = 12

// Word mirrors argbuf.Word: one machine-sized slot.
type Word = argbuf.Word

// Symbol is one callable native entry point in word-in/word-out form.
type Symbol func(args []Word) (Word, error)

// Caller invokes a named symbol with marshaled argument words. It
// satisfies the reflection package's LowLevelCaller contract.
type Caller interface {
	Call(symbol string, args []Word) (Word, error)
}

// SymbolTable is an in-process Caller: a name-to-function map standing in
// for a dynamic library's export table. Production front-ends substitute a
// Caller backed by dlopen'd addresses and a platform trampoline; the
// engine cannot tell the difference.
type SymbolTable struct {
	mu      sync.RWMutex
	symbols map[string]Symbol
}

// NewSymbolTable returns an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: make(map[string]Symbol)}
}

// Install binds name to fn, replacing any previous binding.
func (t *SymbolTable) Install(name string, fn Symbol) {
	t.mu.Lock()
	t.symbols[name] = fn
	t.mu.Unlock()
}

// Has reports whether name is bound.
func (t *SymbolTable) Has(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.symbols[name]
	return ok
}

// Call resolves name and invokes it with args.
func (t *SymbolTable) Call(symbol string, args []Word) (Word, error) {
	if len(args) > ArgumentArrayLimit {
		return 0, fmt.Errorf("call to %s exceeds the %d-argument dispatch limit", symbol, ArgumentArrayLimit)
	}
	t.mu.RLock()
	fn, ok := t.symbols[symbol]
	t.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("unresolved symbol %q", symbol)
	}
	return fn(args)
}
