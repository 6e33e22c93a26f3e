package reflection

// BoundMethod wraps a method's overload set together with the instance it
// was looked up on: calling it prepends the self pointer to the positional
// argument list and delegates to the set.
type BoundMethod struct {
	set  *OverloadedSet
	self ActualArgument
}

// Call invokes the method with self prepended. The instance also serves as
// the owner a returned const reference gets bonded to, so a getter's
// result cannot dangle once the receiver is released.
func (m *BoundMethod) Call(args []ActualArgument, kwargs KeywordArguments, owner ScriptingElement) (ScriptingElement, error) {
	full := make([]ActualArgument, 0, len(args)+1)
	full = append(full, m.self)
	full = append(full, args...)
	if owner == nil {
		owner = m.self.Value
	}
	return m.set.Call(full, kwargs, owner)
}

// Weight scores the method call without performing it, self included.
func (m *BoundMethod) Weight(args []ActualArgument, kwargs KeywordArguments) ([]Weight, error) {
	full := make([]ActualArgument, 0, len(args)+1)
	full = append(full, m.self)
	full = append(full, args...)
	return m.set.Weight(full, kwargs)
}
