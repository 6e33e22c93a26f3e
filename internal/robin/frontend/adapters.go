package frontend

import (
	"fmt"
	"math"

	"github.com/skn123/robin/internal/robin/reflection"
)

// Adapter implementations for the govalue representation. Conventions:
// every integer travels as int64 (uint64 above the signed range), every
// floating value as float64, booleans as bool, strings as string, class
// instances as *reflection.Instance. A word either carries the value's
// bit pattern directly (numerics, addresses) or a handle-table id
// (strings, containers, opaque host values).

func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case EnumValue:
		return n.Value, nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("value %v (%T) does not carry an integer", v, v)
	}
}

// intAdapter handles every integer-shaped intrinsic plus the bounded
// numeric subtypes; the word carries the two's-complement bit pattern.
type intAdapter struct{}

func (intAdapter) Put(buf reflection.ArgumentsBuffer, v reflection.ScriptingElement) error {
	switch n := v.(type) {
	case uint64:
		buf.PushWord(n)
		return nil
	default:
		i, err := asInt64(v)
		if err != nil {
			return err
		}
		buf.PushWord(uint64(i))
		return nil
	}
}

func (intAdapter) Get(raw uint64) (reflection.ScriptingElement, error) {
	return int64(raw), nil
}

// uintAdapter differs from intAdapter only in lifting the word unsigned.
type uintAdapter struct{}

func (uintAdapter) Put(buf reflection.ArgumentsBuffer, v reflection.ScriptingElement) error {
	return intAdapter{}.Put(buf, v)
}

func (uintAdapter) Get(raw uint64) (reflection.ScriptingElement, error) {
	return uint64(raw), nil
}

// doubleAdapter carries IEEE-754 double bits in the word.
type doubleAdapter struct{}

func (doubleAdapter) Put(buf reflection.ArgumentsBuffer, v reflection.ScriptingElement) error {
	switch f := v.(type) {
	case float64:
		buf.PushWord(math.Float64bits(f))
		return nil
	case float32:
		buf.PushWord(math.Float64bits(float64(f)))
		return nil
	default:
		i, err := asInt64(v)
		if err != nil {
			return err
		}
		buf.PushWord(math.Float64bits(float64(i)))
		return nil
	}
}

func (doubleAdapter) Get(raw uint64) (reflection.ScriptingElement, error) {
	return math.Float64frombits(raw), nil
}

// floatAdapter narrows to single precision on the way down, per the
// platform convention the argument buffer documents for a lone float.
type floatAdapter struct{}

func (floatAdapter) Put(buf reflection.ArgumentsBuffer, v reflection.ScriptingElement) error {
	switch f := v.(type) {
	case float64:
		buf.PushWord(uint64(math.Float32bits(float32(f))))
		return nil
	case float32:
		buf.PushWord(uint64(math.Float32bits(f)))
		return nil
	default:
		i, err := asInt64(v)
		if err != nil {
			return err
		}
		buf.PushWord(uint64(math.Float32bits(float32(i))))
		return nil
	}
}

func (floatAdapter) Get(raw uint64) (reflection.ScriptingElement, error) {
	return float64(math.Float32frombits(uint32(raw))), nil
}

// boolAdapter carries 0/1.
type boolAdapter struct{}

func (boolAdapter) Put(buf reflection.ArgumentsBuffer, v reflection.ScriptingElement) error {
	b, ok := v.(bool)
	if !ok {
		i, err := asInt64(v)
		if err != nil {
			return err
		}
		b = i != 0
	}
	if b {
		buf.PushWord(1)
	} else {
		buf.PushWord(0)
	}
	return nil
}

func (boolAdapter) Get(raw uint64) (reflection.ScriptingElement, error) {
	return raw != 0, nil
}

// handleAdapter carries any value by handle-table id: strings, lists,
// dicts and opaque scripting elements all travel this way.
type handleAdapter struct {
	fe *Frontend
}

func (a handleAdapter) Put(buf reflection.ArgumentsBuffer, v reflection.ScriptingElement) error {
	buf.PushWord(a.fe.handles.put(v))
	return nil
}

func (a handleAdapter) Get(raw uint64) (reflection.ScriptingElement, error) {
	v, ok := a.fe.handles.get(raw)
	if !ok {
		return nil, fmt.Errorf("word 0x%x does not name a live host value", raw)
	}
	return v, nil
}

// stringAdapter is a handleAdapter that insists on a string.
type stringAdapter struct {
	fe *Frontend
}

func (a stringAdapter) Put(buf reflection.ArgumentsBuffer, v reflection.ScriptingElement) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("value %v (%T) does not carry a string", v, v)
	}
	buf.PushWord(a.fe.handles.put(s))
	return nil
}

func (a stringAdapter) Get(raw uint64) (reflection.ScriptingElement, error) {
	v, ok := a.fe.handles.get(raw)
	if !ok {
		return nil, fmt.Errorf("word 0x%x does not name a live string", raw)
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("word 0x%x names a %T, not a string", raw, v)
	}
	return s, nil
}

// enumAdapter carries the constant's integer value in the word.
type enumAdapter struct {
	enum *reflection.EnumeratedType
}

func (a enumAdapter) Put(buf reflection.ArgumentsBuffer, v reflection.ScriptingElement) error {
	i, err := asInt64(v)
	if err != nil {
		return err
	}
	buf.PushWord(uint64(i))
	return nil
}

func (a enumAdapter) Get(raw uint64) (reflection.ScriptingElement, error) {
	return EnumValue{Enum: a.enum, Value: int64(raw)}, nil
}

// instanceAdapter carries a live instance's native address; lifting the
// word wraps it unowned, since the callee returned a pointer it still
// owns.
type instanceAdapter struct {
	class *reflection.Class
}

func (a instanceAdapter) Put(buf reflection.ArgumentsBuffer, v reflection.ScriptingElement) error {
	inst, ok := v.(*reflection.Instance)
	if !ok {
		return fmt.Errorf("value %v (%T) is not a %s instance", v, v, a.class.Name())
	}
	buf.PushWord(uint64(inst.Ptr()))
	return nil
}

func (a instanceAdapter) Get(raw uint64) (reflection.ScriptingElement, error) {
	if raw == 0 {
		return nil, nil
	}
	return reflection.WrapInstance(a.class, uintptr(raw)), nil
}

// creatorAdapter lifts a constructor's return word into an owned
// Instance: the host wrapper is now responsible for destruction.
type creatorAdapter struct {
	class *reflection.Class
}

func (a creatorAdapter) Put(reflection.ArgumentsBuffer, reflection.ScriptingElement) error {
	return fmt.Errorf("constructor-return type of %s cannot appear as a parameter", a.class.Name())
}

func (a creatorAdapter) Get(raw uint64) (reflection.ScriptingElement, error) {
	return reflection.NewOwnedInstance(a.class, uintptr(raw)), nil
}

// installAdapters populates every fixed type the registry owns and hooks
// lazily created container types.
func (fe *Frontend) installAdapters() {
	reg := fe.reg
	intSpecs := []reflection.Spec{
		reflection.SpecInt, reflection.SpecLong, reflection.SpecLongLong,
		reflection.SpecShort, reflection.SpecChar, reflection.SpecSChar,
	}
	for _, s := range intSpecs {
		reg.Intrinsic(s).AssignAdapter(intAdapter{})
	}
	uintSpecs := []reflection.Spec{
		reflection.SpecUInt, reflection.SpecULong, reflection.SpecULongLong,
		reflection.SpecUShort, reflection.SpecUChar,
	}
	for _, s := range uintSpecs {
		reg.Intrinsic(s).AssignAdapter(uintAdapter{})
	}
	for _, t := range reg.BoundedTypes() {
		t.AssignAdapter(intAdapter{})
	}

	reg.Intrinsic(reflection.SpecDouble).AssignAdapter(doubleAdapter{})
	reg.Intrinsic(reflection.SpecFloat).AssignAdapter(floatAdapter{})
	reg.Intrinsic(reflection.SpecBool).AssignAdapter(boolAdapter{})
	reg.Intrinsic(reflection.SpecCString).AssignAdapter(stringAdapter{fe: fe})
	reg.Intrinsic(reflection.SpecPascalString).AssignAdapter(stringAdapter{fe: fe})

	opaque := handleAdapter{fe: fe}
	reg.ScriptingElementType().AssignAdapter(opaque)
	reg.BorrowedScriptingElementType().AssignAdapter(opaque)
	reg.EmptyListType().AssignAdapter(opaque)
	reg.EmptyDictType().AssignAdapter(opaque)
	reg.OnNewContainerType(func(t *reflection.RobinType) {
		t.AssignAdapter(opaque)
	})
}

// InstallClassAdapters wires the four canonical types of a freshly
// registered class; the registration mechanism calls this for every class
// it creates.
func (fe *Frontend) InstallClassAdapters(c *reflection.Class) {
	a := instanceAdapter{class: c}
	c.PtrType().AssignAdapter(a)
	c.ValueType().AssignAdapter(a)
	c.ConstType().AssignAdapter(a)
	c.CreatorType().AssignAdapter(creatorAdapter{class: c})
}

// InstallEnumAdapter wires an enum's value types.
func (fe *Frontend) InstallEnumAdapter(e *reflection.EnumeratedType) {
	a := enumAdapter{enum: e}
	e.Type().AssignAdapter(a)
	e.ConstType().AssignAdapter(a)
}
