package argbuf

import (
	"math"
	"testing"
)

func TestPushOrderPreserved(t *testing.T) {
	b := New()
	b.PushInt(-7)
	b.PushLong(1 << 40)
	b.PushPointer(0xdead)
	b.PushChar(-1)

	words := b.Words()
	if len(words) != 4 {
		t.Fatalf("len = %d, want 4", len(words))
	}
	if int64(words[0]) != -7 {
		t.Errorf("word[0] = %d, want sign-extended -7", int64(words[0]))
	}
	if int64(words[1]) != 1<<40 {
		t.Errorf("word[1] = %d, want 1<<40", int64(words[1]))
	}
	if words[2] != 0xdead {
		t.Errorf("word[2] = %#x, want 0xdead", words[2])
	}
	if int64(words[3]) != -1 {
		t.Errorf("word[3] = %d, want sign-extended -1", int64(words[3]))
	}
}

func TestPushFloatKeepsBits(t *testing.T) {
	b := New()
	b.PushFloat(1.5)
	if got := math.Float32frombits(uint32(b.Words()[0])); got != 1.5 {
		t.Errorf("float round trip = %v, want 1.5", got)
	}
}

func TestSizeTracksPushes(t *testing.T) {
	b := New()
	if b.Size() != 0 {
		t.Fatalf("fresh buffer size = %d", b.Size())
	}
	for i := 0; i < 5; i++ {
		b.PushWord(Word(i))
	}
	if b.Size() != 5 {
		t.Errorf("size = %d, want 5", b.Size())
	}
}

func TestOverflowIsFatal(t *testing.T) {
	b := New()
	for i := 0; i < Size; i++ {
		b.PushWord(0)
	}
	defer func() {
		if recover() == nil {
			t.Error("push past capacity must panic")
		}
	}()
	b.PushWord(0)
}
