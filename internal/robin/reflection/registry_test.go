package reflection

import (
	"math"
	"testing"
)

func TestRegistryInternsContainerTypes(t *testing.T) {
	reg := NewTypeRegistry(NewConversionTable())
	intType := reg.Intrinsic(SpecInt)
	doubleType := reg.Intrinsic(SpecDouble)

	if a, b := reg.ListOf(intType), reg.ListOf(intType); a != b || a.ID() != b.ID() {
		t.Error("list<int> created twice must be the same type")
	}
	if a, b := reg.ListOf(intType), reg.ListOf(doubleType); a == b {
		t.Error("list<int> and list<double> must be distinct")
	}
	if a, b := reg.DictOf(intType, doubleType), reg.DictOf(intType, doubleType); a != b {
		t.Error("dict<int,double> created twice must be the same type")
	}
	if a, b := reg.DictOf(intType, doubleType), reg.DictOf(doubleType, intType); a == b {
		t.Error("dict key/value order must distinguish types")
	}
}

func TestRegistryHyperGenericMarking(t *testing.T) {
	reg := NewTypeRegistry(NewConversionTable())
	if !reg.EmptyListType().IsHyperGeneric() {
		t.Error("empty list must be hyper-generic")
	}
	if !reg.EmptyDictType().IsHyperGeneric() {
		t.Error("empty dict must be hyper-generic")
	}
	concrete := reg.ListOf(reg.Intrinsic(SpecInt))
	if concrete.IsHyperGeneric() {
		t.Error("list<int> must not be hyper-generic")
	}
	nested := reg.ListOf(reg.EmptyListType())
	if !nested.IsHyperGeneric() {
		t.Error("list<list<>> must inherit hyper-genericity from its parameter")
	}
}

func TestDetectIntTypeByRange(t *testing.T) {
	reg := NewTypeRegistry(NewConversionTable())
	intType := reg.Intrinsic(SpecInt)

	tests := []struct {
		v    int64
		want *RobinType
	}{
		{0, intType},
		{42, intType},
		{math.MaxInt32, intType},
		{math.MinInt32, intType},
		{math.MaxInt32 + 1, reg.boundedUInt},
		{math.MaxUint32, reg.boundedUInt},
		{math.MaxUint32 + 1, reg.boundedLongPos},
		{10_000_000_000, reg.boundedLongPos},
		{math.MinInt32 - 1, reg.boundedLongNeg},
		{math.MinInt64, reg.boundedLongNeg},
	}
	for _, tc := range tests {
		if got := reg.DetectIntType(tc.v); got != tc.want {
			t.Errorf("DetectIntType(%d) = %s, want %s", tc.v, got, tc.want)
		}
	}

	if got := reg.DetectUintType(math.MaxInt64 + 1); got != reg.boundedULongOnly {
		t.Errorf("DetectUintType(MaxInt64+1) = %s, want the unsigned-only subtype", got)
	}
	if got := reg.DetectUintType(7); got != intType {
		t.Errorf("DetectUintType(7) = %s, want int", got)
	}
}

func TestBoundedSubtypeRoutes(t *testing.T) {
	reg := NewTypeRegistry(NewConversionTable())
	table := reg.Table()

	// A just-past-int positive value reaches unsigned int without any
	// promotion but long only through one.
	uintW, err := table.BestSingleRoute(reg.boundedUInt, reg.Intrinsic(SpecUInt))
	if err != nil {
		t.Fatal(err)
	}
	longW, err := table.BestSingleRoute(reg.boundedUInt, reg.Intrinsic(SpecLong))
	if err != nil {
		t.Fatal(err)
	}
	if !uintW.TotalWeight().Less(longW.TotalWeight()) {
		t.Errorf("unsigned int route %v must be cheaper than long route %v", uintW.TotalWeight(), longW.TotalWeight())
	}

	// A negative 64-bit value must not reach any unsigned type.
	if _, err := table.BestSingleRoute(reg.boundedLongNeg, reg.Intrinsic(SpecULongLong)); err == nil {
		t.Error("negative value found a route to unsigned long long")
	}
}

func TestTighterSignedAlternativeWins(t *testing.T) {
	reg := NewTypeRegistry(NewConversionTable())
	table := reg.Table()

	// At the boundary the signed target must be cheaper than the equally
	// wide unsigned one.
	signed, err := table.BestSingleRoute(reg.boundedLongPos, reg.Intrinsic(SpecLong))
	if err != nil {
		t.Fatal(err)
	}
	unsigned, err := table.BestSingleRoute(reg.boundedLongPos, reg.Intrinsic(SpecULong))
	if err != nil {
		t.Fatal(err)
	}
	if !signed.TotalWeight().Less(unsigned.TotalWeight()) {
		t.Errorf("signed route %v must undercut unsigned route %v", signed.TotalWeight(), unsigned.TotalWeight())
	}
}

func TestEveryTypeReachesScriptingElement(t *testing.T) {
	reg := NewTypeRegistry(NewConversionTable())
	table := reg.Table()
	for _, from := range []*RobinType{
		reg.Intrinsic(SpecInt),
		reg.Intrinsic(SpecDouble),
		reg.Intrinsic(SpecCString),
		reg.boundedLongPos,
	} {
		route, err := table.BestSingleRoute(from, reg.ScriptingElementType())
		if err != nil {
			t.Errorf("%s -> scripting_element: %v", from, err)
			continue
		}
		if w := route.TotalWeight(); w.Promotion != 0 || w.Upcast != 0 || w.UserDefined != 0 {
			t.Errorf("%s -> scripting_element costs %v, want epsilon only", from, w)
		}
	}
}

func TestConstObservableFiresOnce(t *testing.T) {
	table := NewConversionTable()
	c := NewClass("Thing", table)
	var seen []*RobinType
	c.ValueType().ConstObserver().Observe(func(tp *RobinType) { seen = append(seen, tp) })
	// The const variant already exists, so the observer fires instantly,
	// and a duplicate notification is ignored.
	c.ValueType().ConstObserver().NotifyTypeCreated(c.ValueType())
	if len(seen) != 1 || seen[0] != c.ConstType() {
		t.Errorf("observer saw %v, want exactly the const view once", seen)
	}
}
