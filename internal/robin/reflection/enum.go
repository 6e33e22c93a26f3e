package reflection

// EnumeratedType represents a registered enum: a set of named integer
// constants plus the RobinType that values of this enum carry. Robin treats enum
// values as plain integers at the ABI boundary; the EnumeratedType only
// exists to give them a name and a distinct RobinType for overload
// resolution.
type EnumeratedType struct {
	name    string
	values  map[string]int64
	order   []string
	typ     *RobinType
	consttyp *RobinType
}

// NewEnumeratedType registers a new enum under fullname. Values are added
// afterward with AddValue.
func NewEnumeratedType(fullname string) *EnumeratedType {
	e := &EnumeratedType{name: fullname, values: make(map[string]int64)}
	e.typ = NewEnumType(e, Regular)
	e.consttyp = NewEnumType(e, ConstReference)
	return e
}

// Name returns the enum's fully qualified name.
func (e *EnumeratedType) Name() string { return e.name }

// AddValue registers one named constant.
func (e *EnumeratedType) AddValue(name string, value int64) {
	if _, exists := e.values[name]; !exists {
		e.order = append(e.order, name)
	}
	e.values[name] = value
}

// Value looks up a constant by name.
func (e *EnumeratedType) Value(name string) (int64, bool) {
	v, ok := e.values[name]
	return v, ok
}

// Names returns every registered constant name, in registration order.
func (e *EnumeratedType) Names() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// NameOf reverse-looks-up the constant name for a value, for diagnostics;
// returns "" if value was never registered.
func (e *EnumeratedType) NameOf(value int64) string {
	for _, n := range e.order {
		if e.values[n] == value {
			return n
		}
	}
	return ""
}

// Type returns the RobinType carrying this enum's regular (mutable) values.
func (e *EnumeratedType) Type() *RobinType { return e.typ }

// ConstType returns the RobinType carrying this enum's const values.
func (e *EnumeratedType) ConstType() *RobinType { return e.consttyp }
