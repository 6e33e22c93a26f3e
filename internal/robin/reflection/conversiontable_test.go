package reflection

import (
	"testing"

	"github.com/skn123/robin/internal/robin/errs"
)

func newTestType(name string) *RobinType {
	return NewIntrinsicType(CategoryIntrinsic, SpecInt, name, Regular)
}

// edge registers a non-zero-work identity-apply conversion for graph
// shape tests.
func edge(table *ConversionTable, from, to *RobinType, w Weight) {
	table.RegisterConversion(newConversion(from, to, w, false,
		func(v ScriptingElement) (ScriptingElement, error) { return v, nil }))
}

func TestBestSingleRoutePrefersCheaperChain(t *testing.T) {
	table := NewConversionTable()
	a, b, c := newTestType("a"), newTestType("b"), newTestType("c")

	edge(table, a, c, Weight{UserDefined: 1})
	edge(table, a, b, Weight{Epsilon: 1})
	edge(table, b, c, Weight{Epsilon: 1})

	route, err := table.BestSingleRoute(a, c)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := route.TotalWeight(), (Weight{Epsilon: 2}); got != want {
		t.Errorf("route weight = %v, want %v (two-hop chain beats one user-defined edge)", got, want)
	}
	if len(route.Steps) != 2 {
		t.Errorf("route has %d steps, want 2", len(route.Steps))
	}
}

func TestBestSingleRouteToSelfIsEmpty(t *testing.T) {
	table := NewConversionTable()
	a := newTestType("a")
	edge(table, a, newTestType("b"), Weight{Epsilon: 1})

	route, err := table.BestSingleRoute(a, a)
	if err != nil {
		t.Fatal(err)
	}
	if len(route.Steps) != 0 || route.TotalWeight() != ZeroWeight {
		t.Errorf("self route = %d steps, weight %v; want empty, zero", len(route.Steps), route.TotalWeight())
	}
}

func TestBestSingleRouteUnreachable(t *testing.T) {
	table := NewConversionTable()
	a, b := newTestType("a"), newTestType("b")
	edge(table, b, newTestType("c"), Weight{Epsilon: 1})

	_, err := table.BestSingleRoute(a, b)
	if _, ok := err.(*errs.NoApplicableConversion); !ok {
		t.Fatalf("err = %v, want NoApplicableConversion", err)
	}

	// The failure is cached; a second ask must answer identically.
	_, err = table.BestSingleRoute(a, b)
	if _, ok := err.(*errs.NoApplicableConversion); !ok {
		t.Fatalf("cached err = %v, want NoApplicableConversion", err)
	}
}

func TestRegisterConversionFlushesRouteCache(t *testing.T) {
	table := NewConversionTable()
	a, b := newTestType("a"), newTestType("b")
	edge(table, a, newTestType("decoy"), Weight{Epsilon: 1})

	if _, err := table.BestSingleRoute(a, b); err == nil {
		t.Fatal("route should not exist yet")
	}

	// Adding the missing edge must make the same query succeed: a fresh
	// engine with these registrations would answer the same.
	edge(table, a, b, Weight{Epsilon: 1})
	route, err := table.BestSingleRoute(a, b)
	if err != nil {
		t.Fatalf("after registration: %v", err)
	}
	if got := route.TotalWeight(); got != (Weight{Epsilon: 1}) {
		t.Errorf("weight = %v, want epsilon 1", got)
	}
}

func TestZeroWorkEdgesElidedButCharged(t *testing.T) {
	table := NewConversionTable()
	a, b, c := newTestType("a"), newTestType("b"), newTestType("c")

	table.RegisterConversion(NewTrivialConversion(a, b)) // zero-work
	edge(table, b, c, Weight{Promotion: 1})

	route, err := table.BestSingleRoute(a, c)
	if err != nil {
		t.Fatal(err)
	}
	if len(route.Steps) != 1 {
		t.Fatalf("route keeps %d steps, want 1 (trivial hop elided)", len(route.Steps))
	}
	if got, want := route.TotalWeight(), (Weight{Epsilon: 1, Promotion: 1}); got != want {
		t.Errorf("total = %v, want %v (elided hop still charged)", got, want)
	}
}

func TestEdgeConversionLookup(t *testing.T) {
	table := NewConversionTable()
	a := newTestType("a")
	conv := NewTrivialConversion(a, a)
	table.RegisterEdgeConversion(conv)
	if got := table.GetEdgeConversion(a); got != conv {
		t.Error("edge conversion not returned for its node")
	}
	if got := table.GetEdgeConversion(newTestType("b")); got != nil {
		t.Error("edge conversion leaked to an unrelated node")
	}
}

func TestStaticEdgeIntoHyperGenericPanics(t *testing.T) {
	table := NewConversionTable()
	reg := NewTypeRegistry(table)
	defer func() {
		if recover() == nil {
			t.Error("expected panic registering a static edge into a hyper-generic type")
		}
	}()
	edge(table, reg.Intrinsic(SpecInt), reg.EmptyListType(), Weight{Epsilon: 1})
}
