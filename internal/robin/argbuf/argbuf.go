// Package argbuf implements the fixed-capacity machine-word stack that
// carries converted arguments from the dispatcher down to a native call.
// Every argument and return value travels as one uint64 "basic block"
// regardless of its natural C width; the low-level caller is the only
// layer that knows how those words land in registers and stack slots.
package argbuf

import (
	"fmt"
	"math"
)

// Size is the capacity of an ArgumentsBuffer in machine words. Callers
// never legitimately exceed it;
// doing so is a fatal precondition violation, not a recoverable error.
const Size = 40

// Word is one machine-sized slot, a "basic block".
type Word = uint64

// Buffer is an append-only stack of machine words, laid out in push order so
// its raw contents can be handed to a low-level C-ABI trampoline exactly as
// the platform's calling convention expects for the general-purpose
// argument area.
type Buffer struct {
	words [Size]Word
	n     int
}

// New returns an empty argument buffer.
func New() *Buffer {
	return &Buffer{}
}

func (b *Buffer) push(w Word) {
	if b.n >= Size {
		panic(fmt.Sprintf("argbuf: pushed past capacity (%d words)", Size))
	}
	b.words[b.n] = w
	b.n++
}

// PushInt appends a signed 32-bit integer, sign-extended into its word.
func (b *Buffer) PushInt(v int32) { b.push(Word(uint64(int64(v)))) }

// PushChar appends a single byte.
func (b *Buffer) PushChar(v int8) { b.push(Word(uint64(int64(v)))) }

// PushLong appends a 64-bit integer.
func (b *Buffer) PushLong(v int64) { b.push(Word(uint64(v))) }

// PushFloat appends an IEEE-754 single-precision value as a word holding
// the float32 bits in its low half. ABI-specific register-class selection
// belongs to the low-level trampoline, the collaborator that knows the
// platform's convention for a lone float in the argument area.
func (b *Buffer) PushFloat(v float32) {
	b.push(Word(math.Float32bits(v)))
}

// PushPointer appends a raw address.
func (b *Buffer) PushPointer(v uintptr) { b.push(Word(v)) }

// PushWord appends an already-encoded machine word verbatim; used by
// Adapters that have already produced a wire value via ToWireType-style
// conversion.
func (b *Buffer) PushWord(w Word) { b.push(w) }

// Size returns the number of words currently pushed.
func (b *Buffer) Size() int { return b.n }

// Words returns the buffer's contents in push order. The slice aliases the
// buffer's backing array and must not be retained past the call it is used
// for.
func (b *Buffer) Words() []Word { return b.words[:b.n] }
