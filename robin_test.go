package robin_test

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/skn123/robin"
	"github.com/skn123/robin/internal/robin/errs"
	"github.com/skn123/robin/internal/robin/lowlevel"
	"github.com/skn123/robin/internal/robin/reflection"
)

// testLibrary builds an engine with a registration table covering the
// end-to-end scenarios: integer-width overloads, up-casts, list
// conversions, ambiguity, keyword calls, and a native exception.
func testLibrary(t *testing.T) (robin.Engine, map[string]int) {
	t.Helper()
	eng := robin.CreateEngine()
	fe := eng.Frontend()
	called := map[string]int{}

	mark := func(label string, fn func(a []lowlevel.Word) (lowlevel.Word, error)) lowlevel.Symbol {
		return func(a []lowlevel.Word) (lowlevel.Word, error) {
			called[label]++
			return fn(a)
		}
	}

	objects := map[uintptr]float64{}
	var next uintptr = 0x100

	entry := []robin.RegData{
		// Overloads distinguished only by integer width.
		{Name: "f", Type: "int", Sym: mark("f(int)", func(a []lowlevel.Word) (lowlevel.Word, error) {
			return a[0], nil
		}), Prototype: []robin.RegData{{Name: "n", Type: "int"}}},
		{Name: "f", Type: "long long", Sym: mark("f(long long)", func(a []lowlevel.Word) (lowlevel.Word, error) {
			return a[0], nil
		}), Prototype: []robin.RegData{{Name: "n", Type: "long long"}}},

		// A base/derived pair with an address-adjusting upcast.
		{Name: "Base", Type: "class", Prototype: []robin.RegData{
			{Name: "Base", Type: "constructor", Sym: mark("Base()", func([]lowlevel.Word) (lowlevel.Word, error) {
				next += 0x10
				objects[next] = 0
				return lowlevel.Word(next), nil
			})},
		}},
		{Name: "Derived", Type: "class", Prototype: []robin.RegData{
			{Name: "Base", Type: "extends", Sym: func(p uintptr) uintptr { return p + 4 }},
			{Name: "Derived", Type: "constructor", Sym: mark("Derived()", func([]lowlevel.Word) (lowlevel.Word, error) {
				next += 0x10
				objects[next] = 0
				return lowlevel.Word(next), nil
			})},
		}},
		{Name: "g", Type: "void", Sym: mark("g(Base*)", func(a []lowlevel.Word) (lowlevel.Word, error) {
			objects[uintptr(a[0])] = 1
			return 0, nil
		}), Prototype: []robin.RegData{{Name: "b", Type: "*Base"}}},

		// A list-of-double parameter.
		{Name: "h", Type: "double", Sym: mark("h(list<double>)", func(a []lowlevel.Word) (lowlevel.Word, error) {
			v, _ := fe.FromWord(a[0])
			total := 0.0
			for _, e := range v.(reflection.ListValue) {
				total += e.(float64)
			}
			return math.Float64bits(total), nil
		}), Prototype: []robin.RegData{{Name: "xs", Type: "list<double>"}}},

		// A pair of alternatives no integer call can choose between.
		{Name: "k", Type: "void", Sym: mark("k(int,double)", func([]lowlevel.Word) (lowlevel.Word, error) {
			return 0, nil
		}), Prototype: []robin.RegData{{Name: "a", Type: "int"}, {Name: "b", Type: "double"}}},
		{Name: "k", Type: "void", Sym: mark("k(double,int)", func([]lowlevel.Word) (lowlevel.Word, error) {
			return 0, nil
		}), Prototype: []robin.RegData{{Name: "a", Type: "double"}, {Name: "b", Type: "int"}}},

		// Named parameters for keyword calls.
		{Name: "m", Type: "int", Sym: mark("m(x,y)", func(a []lowlevel.Word) (lowlevel.Word, error) {
			return lowlevel.Word(int64(a[0])*100 + int64(a[1])), nil
		}), Prototype: []robin.RegData{{Name: "x", Type: "int"}, {Name: "y", Type: "int"}}},

		// A function that always throws.
		{Name: "boom", Type: "void", Sym: mark("boom()", func([]lowlevel.Word) (lowlevel.Word, error) {
			return 0, errors.New("nope")
		})},
	}

	if err := eng.RegisterLibrary("testlib", entry); err != nil {
		t.Fatal(err)
	}

	// The test's stand-in for address-space bookkeeping.
	t.Cleanup(func() { clear(objects) })
	return eng, called
}

func TestOverloadOnIntegerWidth(t *testing.T) {
	eng, called := testLibrary(t)

	if _, err := eng.CallFunction("f", 42); err != nil {
		t.Fatal(err)
	}
	if called["f(int)"] != 1 || called["f(long long)"] != 0 {
		t.Errorf("f(42) dispatched to %v, want f(int)", called)
	}

	if _, err := eng.CallFunction("f", int64(10_000_000_000)); err != nil {
		t.Fatal(err)
	}
	if called["f(long long)"] != 1 {
		t.Errorf("f(10^10) dispatched to %v, want f(long long)", called)
	}
}

func TestUpcastDispatchesDerivedToBase(t *testing.T) {
	eng, called := testLibrary(t)

	d, err := eng.CreateInstance("Derived")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.CallFunction("g", d); err != nil {
		t.Fatal(err)
	}
	if called["g(Base*)"] != 1 {
		t.Fatalf("g not called: %v", called)
	}
}

func TestListConversionLeavesOriginalIntact(t *testing.T) {
	eng, _ := testLibrary(t)

	xs := reflection.ListValue{int64(1), int64(2), int64(3)}
	result, err := eng.CallFunction("h", xs)
	if err != nil {
		t.Fatal(err)
	}
	if result != 6.0 {
		t.Errorf("h([1 2 3]) = %v, want 6.0", result)
	}
	// The const-composed conversion passed a fresh list; the caller's
	// stays as written.
	if diff := cmp.Diff(reflection.ListValue{int64(1), int64(2), int64(3)}, xs); diff != "" {
		t.Errorf("caller's list changed (-want +got):\n%s", diff)
	}
}

func TestAmbiguousOverload(t *testing.T) {
	eng, _ := testLibrary(t)

	_, err := eng.CallFunction("k", 1, 2)
	var amb *errs.OverloadingAmbiguity
	if !errors.As(err, &amb) {
		t.Fatalf("k(1, 2) = %v, want OverloadingAmbiguity", err)
	}
	if len(amb.Candidates) < 2 {
		t.Errorf("ambiguity lists %v, want both competing signatures", amb.Candidates)
	}
}

func TestKeywordArguments(t *testing.T) {
	eng, _ := testLibrary(t)

	result, err := eng.CallFunctionKw("m", map[string]any{"y": 2, "x": 1})
	if err != nil {
		t.Fatal(err)
	}
	if result != int64(102) {
		t.Errorf("m(y=2, x=1) = %v, want 102 (actuals reordered to x=1, y=2)", result)
	}
}

func TestNativeExceptionCarriesPayload(t *testing.T) {
	eng, _ := testLibrary(t)

	_, err := eng.CallFunction("boom")
	var uex *errs.UserExceptionOccurred
	if !errors.As(err, &uex) {
		t.Fatalf("boom() = %v, want UserExceptionOccurred", err)
	}
	if uex.What != "nope" {
		t.Errorf("payload = %q, want nope", uex.What)
	}

	// The first-chance payload stays available for the host to restore.
	if got := eng.Frontend().ErrorHandler().GetError(); got != any(uex) {
		t.Errorf("ErrorHandler.GetError() = %v, want the trapped exception", got)
	}

	// A successful call clears the slot.
	if _, err := eng.CallFunction("f", 1); err != nil {
		t.Fatal(err)
	}
	if got := eng.Frontend().ErrorHandler().GetError(); got != nil {
		t.Errorf("stale payload survived a successful call: %v", got)
	}
}

func TestLookupFailureForUnknownFunction(t *testing.T) {
	eng, _ := testLibrary(t)
	_, err := eng.CallFunction("no_such_function")
	var lf *errs.LookupFailure
	if !errors.As(err, &lf) {
		t.Fatalf("err = %v, want LookupFailure", err)
	}
}

func TestEnvironmentVacuumWithoutFrontend(t *testing.T) {
	eng := robin.NewEngine()
	err := eng.RegisterLibrary("lib", []robin.RegData{})
	var ev *errs.EnvironmentVacuum
	if !errors.As(err, &ev) {
		t.Fatalf("err = %v, want EnvironmentVacuum", err)
	}
}
