package reflection

// Category is the top-level tag of a RobinType.
type Category int

const (
	CategoryIntrinsic Category = iota
	CategoryExtended
	CategoryUserDefined
	CategoryPointer
)

func (c Category) String() string {
	switch c {
	case CategoryIntrinsic:
		return "intrinsic"
	case CategoryExtended:
		return "extended"
	case CategoryUserDefined:
		return "user-defined"
	case CategoryPointer:
		return "pointer"
	default:
		return "unknown-category"
	}
}

// Spec is the tag inside a Category, trimmed to what this core actually
// dispatches on; front-end specific specs (scripting_element handles)
// live under CategoryExtended alongside cstring/pascal-string.
type Spec int

const (
	SpecInt Spec = iota
	SpecUInt
	SpecLong
	SpecULong
	SpecLongLong
	SpecULongLong
	SpecShort
	SpecUShort
	SpecChar
	SpecSChar
	SpecUChar
	SpecFloat
	SpecDouble
	SpecBool
	SpecVoid
	SpecCString
	SpecPascalString
	SpecScriptingElement
	SpecObject // owning Class handle
	SpecEnum   // owning EnumeratedType handle
	SpecList   // container-parameterised
	SpecDict   // container-parameterised
	SpecPointerTo
)

func (s Spec) String() string {
	names := [...]string{
		"int", "unsigned int", "long", "unsigned long", "long long",
		"unsigned long long", "short", "unsigned short", "char",
		"signed char", "unsigned char", "float", "double", "bool", "void",
		"cstring", "pascal-string", "scripting_element", "object", "enum",
		"list", "dict", "pointer-to",
	}
	if int(s) < 0 || int(s) >= len(names) {
		return "unknown-spec"
	}
	return names[s]
}

// Constness mirrors RobinType::ConstnessKind: a const type is a
// one-directional view that forbids write-back to the caller's object.
type Constness int

const (
	Regular Constness = iota
	ConstReference
)

func (c Constness) String() string {
	if c == ConstReference {
		return "const"
	}
	return "regular"
}
