package reflection

import "testing"

func TestWeightLexicographicOrder(t *testing.T) {
	tests := []struct {
		name string
		a, b Weight
		less bool
	}{
		{"zero before epsilon", ZeroWeight, Weight{Epsilon: 1}, true},
		{"epsilon before promotion", Weight{Epsilon: 5}, Weight{Promotion: 1}, true},
		{"promotion before upcast", Weight{Promotion: 9}, Weight{Upcast: 1}, true},
		{"upcast before user-defined", Weight{Upcast: 9, Promotion: 9}, Weight{UserDefined: 1}, true},
		{"possible before infinite", Weight{UserDefined: 40}, InfiniteWeight, true},
		{"infinite never less", InfiniteWeight, ZeroWeight, false},
		{"equal not less", Weight{Epsilon: 2}, Weight{Epsilon: 2}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Less(tc.b); got != tc.less {
				t.Errorf("(%v).Less(%v) = %v, want %v", tc.a, tc.b, got, tc.less)
			}
		})
	}
}

func TestWeightAddMonotonic(t *testing.T) {
	a := Weight{Epsilon: 1}
	b := Weight{Promotion: 1}
	c := Weight{Epsilon: 3, Upcast: 1}
	if !a.Less(b) {
		t.Fatalf("precondition: %v should be less than %v", a, b)
	}
	if !a.Add(c).LessEqual(b.Add(c)) {
		t.Errorf("addition broke monotonicity: %v vs %v", a.Add(c), b.Add(c))
	}
}

func TestWeightAddInfinitePoisons(t *testing.T) {
	if got := InfiniteWeight.Add(ZeroWeight); got.IsPossible() {
		t.Errorf("infinite + zero = %v, want impossible", got)
	}
	if got := (Weight{Epsilon: 1}).Add(InfiniteWeight); got.IsPossible() {
		t.Errorf("possible + infinite = %v, want impossible", got)
	}
}

func TestUnknownWeightNotPossible(t *testing.T) {
	if UnknownWeight.IsPossible() {
		t.Error("unknown weight must not report possible")
	}
	if !ZeroWeight.IsPossible() {
		t.Error("zero weight must report possible")
	}
}

func TestTypeToWeightMapKeepsCheaper(t *testing.T) {
	typ := NewIntrinsicType(CategoryIntrinsic, SpecInt, "int", Regular)
	m := NewTypeToWeightMap()
	if !m.UpdateIfBetter(typ, Weight{Promotion: 2}) {
		t.Fatal("first update must succeed")
	}
	if m.UpdateIfBetter(typ, Weight{Promotion: 3}) {
		t.Error("heavier weight must not overwrite")
	}
	if !m.UpdateIfBetter(typ, Weight{Promotion: 1}) {
		t.Error("lighter weight must overwrite")
	}
	if w, ok := m.Get(typ); !ok || w != (Weight{Promotion: 1}) {
		t.Errorf("Get = %v, %v; want promotion 1", w, ok)
	}
}
