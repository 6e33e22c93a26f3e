package frontend

import (
	"errors"
	"testing"

	"github.com/skn123/robin/internal/robin/reflection"
)

func newTestFrontend() *Frontend {
	return New(reflection.NewTypeRegistry(reflection.NewConversionTable()))
}

func TestDetectScalars(t *testing.T) {
	fe := newTestFrontend()
	reg := fe.Registry()

	tests := []struct {
		name  string
		value any
		want  *reflection.RobinType
	}{
		{"small int", 42, reg.Intrinsic(reflection.SpecInt)},
		{"wide int", int64(10_000_000_000), reg.DetectIntType(10_000_000_000)},
		{"double", 2.5, reg.Intrinsic(reflection.SpecDouble)},
		{"float32", float32(2.5), reg.Intrinsic(reflection.SpecFloat)},
		{"bool", true, reg.Intrinsic(reflection.SpecBool)},
		{"string", "hi", reg.Intrinsic(reflection.SpecCString)},
		{"nil", nil, reg.ScriptingElementType()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			arg, err := fe.Detect(tc.value)
			if err != nil {
				t.Fatal(err)
			}
			if arg.Type != tc.want {
				t.Errorf("Detect(%v) = %s, want %s", tc.value, arg.Type, tc.want)
			}
		})
	}
}

func TestDetectContainers(t *testing.T) {
	fe := newTestFrontend()
	reg := fe.Registry()

	arg, err := fe.Detect(reflection.ListValue{int64(1), int64(2)})
	if err != nil {
		t.Fatal(err)
	}
	if want := reg.ListOf(reg.Intrinsic(reflection.SpecInt)); arg.Type != want {
		t.Errorf("list detect = %s, want %s", arg.Type, want)
	}

	arg, err = fe.Detect(reflection.ListValue{})
	if err != nil {
		t.Fatal(err)
	}
	if arg.Type != reg.EmptyListType() {
		t.Errorf("empty list detect = %s, want the hyper-generic empty list", arg.Type)
	}

	arg, err = fe.Detect(reflection.DictValue{"k": 1.0})
	if err != nil {
		t.Fatal(err)
	}
	if want := reg.DictOf(reg.Intrinsic(reflection.SpecCString), reg.Intrinsic(reflection.SpecDouble)); arg.Type != want {
		t.Errorf("dict detect = %s, want %s", arg.Type, want)
	}
}

func TestDetectUnknownTypeFails(t *testing.T) {
	fe := newTestFrontend()
	if _, err := fe.Detect(struct{ x int }{}); err == nil {
		t.Error("detecting an unsupported Go value must fail")
	}
}

func TestLazyContainerAdapterInstall(t *testing.T) {
	fe := newTestFrontend()
	listType := fe.Registry().ListOf(fe.Registry().Intrinsic(reflection.SpecInt))
	if listType.AdapterOrNil() == nil {
		t.Error("container type created after front-end init has no adapter")
	}
}

func TestStringAdapterRoundTrip(t *testing.T) {
	fe := newTestFrontend()
	typ := fe.Registry().Intrinsic(reflection.SpecCString)

	buf := newTestBuffer()
	if err := typ.AdapterOrNil().Put(buf, "payload"); err != nil {
		t.Fatal(err)
	}
	back, err := typ.AdapterOrNil().Get(buf.words[0])
	if err != nil {
		t.Fatal(err)
	}
	if back != "payload" {
		t.Errorf("round trip = %v, want payload", back)
	}

	if err := typ.AdapterOrNil().Put(buf, 99); err == nil {
		t.Error("string adapter accepted a non-string")
	}
}

func TestErrorHandlerHoldsFirstChancePayload(t *testing.T) {
	h := NewErrorHandler()
	if h.GetError() != nil {
		t.Fatal("fresh handler must be empty")
	}

	native := errors.New("nope")
	h.SetErrorWithBacktrace(native, []string{"frame0", "frame1"})
	if h.GetError() != native {
		t.Error("payload lost")
	}
	if bt := h.Backtrace(); len(bt) != 2 || bt[0] != "frame0" {
		t.Errorf("backtrace = %v", bt)
	}
	// Reading must not clear: the host may consult it repeatedly while
	// rethrowing.
	if h.GetError() != native {
		t.Error("GetError cleared the payload")
	}

	// A host-thrown error set during a callback replaces the slot whole.
	h.SetError("host exception object")
	if h.GetError() != "host exception object" {
		t.Error("host error did not replace the slot")
	}
	if len(h.Backtrace()) != 0 {
		t.Error("stale backtrace survived a host error")
	}

	h.Clear()
	if h.GetError() != nil {
		t.Error("Clear left a payload behind")
	}
}

// testBuffer is a minimal ArgumentsBuffer for adapter tests.
type testBuffer struct {
	words []uint64
}

func newTestBuffer() *testBuffer { return &testBuffer{} }

func (b *testBuffer) PushWord(w uint64) { b.words = append(b.words, w) }

func (b *testBuffer) Words() []uint64 { return b.words }
