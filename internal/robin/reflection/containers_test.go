package reflection

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestListComposedConstCopies(t *testing.T) {
	reg := NewTypeRegistry(NewConversionTable())
	intList := reg.ListOf(reg.Intrinsic(SpecInt))
	doubleList := reg.ListOf(reg.Intrinsic(SpecDouble))

	// A const-only search forces the copying variant of the composed
	// conversion.
	tree := reg.Table().GenerateConversionTree(intList, doubleList, true)
	route, err := tree.GenerateRouteTo(doubleList)
	if err != nil {
		t.Fatal(err)
	}

	original := ListValue{int64(1), int64(2), int64(3)}
	out, err := route.Apply(original, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := ListValue{1.0, 2.0, 3.0}
	if diff := cmp.Diff(want, out.(ListValue)); diff != "" {
		t.Errorf("converted list mismatch (-want +got):\n%s", diff)
	}
	// The const variant never touches the caller's container.
	if diff := cmp.Diff(ListValue{int64(1), int64(2), int64(3)}, original); diff != "" {
		t.Errorf("original list changed (-want +got):\n%s", diff)
	}
}

func TestListComposedInPlacePublishesBack(t *testing.T) {
	reg := NewTypeRegistry(NewConversionTable())
	intList := reg.ListOf(reg.Intrinsic(SpecInt))
	doubleList := reg.ListOf(reg.Intrinsic(SpecDouble))

	tree := reg.Table().GenerateConversionTree(intList, doubleList, false)
	route, err := tree.GenerateRouteTo(doubleList)
	if err != nil {
		t.Fatal(err)
	}

	original := ListValue{int64(1), int64(2)}
	out, err := route.Apply(original, nil)
	if err != nil {
		t.Fatal(err)
	}
	// The non-const variant converts in place: the caller's backing
	// array now holds the converted elements.
	if diff := cmp.Diff(ListValue{1.0, 2.0}, original); diff != "" {
		t.Errorf("caller's list not updated in place (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(ListValue{1.0, 2.0}, out.(ListValue)); diff != "" {
		t.Errorf("returned list mismatch (-want +got):\n%s", diff)
	}
}

func TestListIdenticalElementRouteIsFree(t *testing.T) {
	reg := NewTypeRegistry(NewConversionTable())
	intList := reg.ListOf(reg.Intrinsic(SpecInt))

	route, err := reg.Table().BestSingleRoute(intList, intList)
	if err != nil {
		t.Fatal(err)
	}
	if w := route.TotalWeight(); w.UserDefined != 0 || w != ZeroWeight {
		t.Errorf("list<int> -> list<int> costs %v, want zero", w)
	}
}

func TestEmptyListConvertsAtPromotionOne(t *testing.T) {
	reg := NewTypeRegistry(NewConversionTable())
	doubleList := reg.ListOf(reg.Intrinsic(SpecDouble))

	tree := reg.Table().GenerateConversionTree(reg.EmptyListType(), doubleList, true)
	route, err := tree.GenerateRouteTo(doubleList)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := route.TotalWeight(), (Weight{Promotion: 1}); got != want {
		t.Errorf("empty list route weight = %v, want %v", got, want)
	}
	out, err := route.Apply(ListValue{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if l, ok := out.(ListValue); !ok || len(l) != 0 {
		t.Errorf("empty list conversion produced %v, want a fresh empty list", out)
	}
}

func TestDictComposedConversion(t *testing.T) {
	reg := NewTypeRegistry(NewConversionTable())
	src := reg.DictOf(reg.Intrinsic(SpecCString), reg.Intrinsic(SpecInt))
	dst := reg.DictOf(reg.Intrinsic(SpecCString), reg.Intrinsic(SpecDouble))

	tree := reg.Table().GenerateConversionTree(src, dst, true)
	route, err := tree.GenerateRouteTo(dst)
	if err != nil {
		t.Fatal(err)
	}

	original := DictValue{"a": int64(1), "b": int64(2)}
	out, err := route.Apply(original, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := DictValue{"a": 1.0, "b": 2.0}
	if diff := cmp.Diff(want, out.(DictValue)); diff != "" {
		t.Errorf("converted dict mismatch (-want +got):\n%s", diff)
	}
	if original["a"] != int64(1) {
		t.Error("const dict conversion modified the caller's dict")
	}
}

func TestDictWeightIsMaxOfKeyAndValue(t *testing.T) {
	reg := NewTypeRegistry(NewConversionTable())
	// Key route is free (identical), value route costs promotions; the
	// composed weight is the heavier of the two, not their sum.
	src := reg.DictOf(reg.Intrinsic(SpecCString), reg.Intrinsic(SpecInt))
	dst := reg.DictOf(reg.Intrinsic(SpecCString), reg.Intrinsic(SpecDouble))

	tree := reg.Table().GenerateConversionTree(src, dst, true)
	route, err := tree.GenerateRouteTo(dst)
	if err != nil {
		t.Fatal(err)
	}
	valueRoute, err := reg.Table().BestSingleRoute(reg.Intrinsic(SpecInt), reg.Intrinsic(SpecDouble))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := route.TotalWeight(), valueRoute.TotalWeight(); got != want {
		t.Errorf("dict route weight = %v, want the value sub-route's %v", got, want)
	}
}

func TestComposedConversionsDoNotChain(t *testing.T) {
	reg := NewTypeRegistry(NewConversionTable())
	intList := reg.ListOf(reg.Intrinsic(SpecInt))
	// Nested lists: there is no element route from int to list<int>, and
	// the anti-chain rule keeps the search from manufacturing one by
	// composing through another list type.
	listOfLists := reg.ListOf(intList)

	if _, err := reg.Table().BestSingleRoute(intList, listOfLists); err == nil {
		t.Error("list<int> found a route to list<list<int>>; composed edges chained")
	}
}
