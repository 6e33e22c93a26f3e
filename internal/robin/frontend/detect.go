package frontend

import (
	"fmt"

	"github.com/skn123/robin/internal/robin/reflection"
)

// Detect determines the most-specific RobinType of a host value.
// Integers come back as the int intrinsic or a bounded
// subtype depending on range, so resolution between overloads of
// different widths never has to re-inspect the value. Container literals
// are detected by their first element, the insight the list/dict
// proposers build their element routes from; an empty container gets the
// hyper-generic empty type.
func (fe *Frontend) Detect(value any) (reflection.ActualArgument, error) {
	reg := fe.reg
	switch v := value.(type) {
	case nil:
		return reflection.ActualArgument{Type: reg.ScriptingElementType(), Value: nil}, nil
	case bool:
		return reflection.ActualArgument{Type: reg.Intrinsic(reflection.SpecBool), Value: v}, nil
	case int:
		return reflection.ActualArgument{Type: reg.DetectIntType(int64(v)), Value: int64(v)}, nil
	case int32:
		return reflection.ActualArgument{Type: reg.DetectIntType(int64(v)), Value: int64(v)}, nil
	case int64:
		return reflection.ActualArgument{Type: reg.DetectIntType(v), Value: v}, nil
	case uint64:
		return reflection.ActualArgument{Type: reg.DetectUintType(v), Value: v}, nil
	case float32:
		return reflection.ActualArgument{Type: reg.Intrinsic(reflection.SpecFloat), Value: float64(v)}, nil
	case float64:
		return reflection.ActualArgument{Type: reg.Intrinsic(reflection.SpecDouble), Value: v}, nil
	case string:
		return reflection.ActualArgument{Type: reg.Intrinsic(reflection.SpecCString), Value: v}, nil
	case EnumValue:
		return reflection.ActualArgument{Type: v.Enum.Type(), Value: v}, nil
	case *reflection.Instance:
		return reflection.ActualArgument{Type: v.Class().PtrType(), Value: v}, nil
	case reflection.ListValue:
		return fe.detectList(v)
	case reflection.DictValue:
		return fe.detectDict(v)
	default:
		return reflection.ActualArgument{}, fmt.Errorf("cannot determine a native type for %v (%T)", value, value)
	}
}

// DetectAll maps Detect over a call's positional arguments.
func (fe *Frontend) DetectAll(values []any) ([]reflection.ActualArgument, error) {
	out := make([]reflection.ActualArgument, len(values))
	for i, v := range values {
		arg, err := fe.Detect(v)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		out[i] = arg
	}
	return out, nil
}

// DetectKeywords maps Detect over a call's keyword arguments.
func (fe *Frontend) DetectKeywords(values map[string]any) (reflection.KeywordArguments, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(reflection.KeywordArguments, len(values))
	for name, v := range values {
		arg, err := fe.Detect(v)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", name, err)
		}
		out[name] = arg
	}
	return out, nil
}

func (fe *Frontend) detectList(v reflection.ListValue) (reflection.ActualArgument, error) {
	if len(v) == 0 {
		return reflection.ActualArgument{Type: fe.reg.EmptyListType(), Value: v}, nil
	}
	first, err := fe.Detect(v[0])
	if err != nil {
		return reflection.ActualArgument{}, err
	}
	return reflection.ActualArgument{Type: fe.reg.ListOf(first.Type), Value: v}, nil
}

func (fe *Frontend) detectDict(v reflection.DictValue) (reflection.ActualArgument, error) {
	for k, val := range v {
		kArg, err := fe.Detect(k)
		if err != nil {
			return reflection.ActualArgument{}, err
		}
		vArg, err := fe.Detect(val)
		if err != nil {
			return reflection.ActualArgument{}, err
		}
		return reflection.ActualArgument{Type: fe.reg.DictOf(kArg.Type, vArg.Type), Value: v}, nil
	}
	return reflection.ActualArgument{Type: fe.reg.EmptyDictType(), Value: v}, nil
}
