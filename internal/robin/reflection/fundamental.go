package reflection

import "github.com/skn123/robin/internal/robin/errs"

// errTypeMismatch reports a value that does not carry the representation
// its declared RobinType promises.
func errTypeMismatch(expected *RobinType, got ScriptingElement) error {
	return errs.NewInvalidArguments("value %v does not carry type %s", got, expected)
}

// Constructors for the built-in conversion kinds.
// Container-composed conversions live with their proposers in
// containers.go; up-casts are registered by Class.AddBase.

// NewTrivialConversion is a zero-work edge charging one epsilon: the value
// is reinterpreted, never copied (e.g. a value viewed through its const
// type, or a pointer viewed as the pointee).
func NewTrivialConversion(source, target *RobinType) Conversion {
	return newConversion(source, target, Weight{Epsilon: 1}, true,
		func(v ScriptingElement) (ScriptingElement, error) { return v, nil })
}

// NewPromotionConversion widens a value along the intrinsic ladder at the
// given promotion cost; fn performs the actual representation change (nil
// means the wire representation is already compatible).
func NewPromotionConversion(source, target *RobinType, w Weight, fn func(ScriptingElement) (ScriptingElement, error)) Conversion {
	if fn == nil {
		return newConversion(source, target, w, true,
			func(v ScriptingElement) (ScriptingElement, error) { return v, nil })
	}
	return newConversion(source, target, w, false, fn)
}

// NewIntToFloatConversion is the classic integral-to-floating promotion.
// Host integers travel as int64; the result travels as float64.
func NewIntToFloatConversion(source, target *RobinType, w Weight) Conversion {
	return newConversion(source, target, w, false,
		func(v ScriptingElement) (ScriptingElement, error) {
			switch n := v.(type) {
			case int64:
				return float64(n), nil
			case uint64:
				return float64(n), nil
			case int:
				return float64(n), nil
			case int32:
				return float64(n), nil
			default:
				return v, nil
			}
		})
}

// NewPascalToCStringConversion bridges the two string representations. At
// the host level both travel as a Go string, so the edge only charges its
// epsilon; the width difference is the receiving Adapter's concern.
func NewPascalToCStringConversion(source, target *RobinType) Conversion {
	return newConversion(source, target, Weight{Epsilon: 1}, true,
		func(v ScriptingElement) (ScriptingElement, error) { return v, nil })
}

// NewUpCastConversion adjusts a derived instance's address into a base
// subobject address using the transform callback supplied at inheritance
// registration (multi-inheritance offsets included). The produced wrapper
// is unowned and bonded to the original so the derived object outlives the
// base view.
func NewUpCastConversion(source, target *RobinType, base *Class, adjust func(uintptr) uintptr) Conversion {
	return newConversion(source, target, Weight{Upcast: 1}, false,
		func(v ScriptingElement) (ScriptingElement, error) {
			inst, ok := v.(*Instance)
			if !ok {
				return nil, errTypeMismatch(source, v)
			}
			up := WrapInstance(base, adjust(inst.Ptr()))
			up.BondTo(inst)
			return up, nil
		})
}

// NewViaConstructionConversion converts by invoking a one-argument
// constructor of the target class, at user-defined cost. targetType is
// one of the class's views; registering the edge once for the by-value
// view and once for the const view keeps the conversion reachable inside
// const-only searches.
func NewViaConstructionConversion(source *RobinType, target *Class, targetType *RobinType) Conversion {
	return newConversion(source, targetType, Weight{UserDefined: 1}, false,
		func(v ScriptingElement) (ScriptingElement, error) {
			return target.CreateInstance([]ActualArgument{{Type: source, Value: v}}, nil)
		})
}

// NewUserConversion wraps a front-end-provided callable as a conversion
// edge at user-defined cost.
func NewUserConversion(source, target *RobinType, fn func(ScriptingElement) (ScriptingElement, error)) Conversion {
	return newConversion(source, target, Weight{UserDefined: 1}, false, fn)
}
