package reflection

// ScriptingElement is an opaque host-language value flowing through the
// conversion graph. Robin's core never inspects it directly; Adapters
// (installed by a front-end) are the only code that knows how to produce or
// consume one.
type ScriptingElement = any

// Conversion is a single edge in the conversion graph: a function from
// one RobinType to another, tagged with the Weight it costs to traverse.
// Concrete kinds (trivial, up-cast, int-to-float, pascal-string,
// front-end-provided, container-composed) implement this by embedding
// conversionBase and supplying Apply.
type Conversion interface {
	SourceType() *RobinType
	TargetType() *RobinType
	Weight() Weight
	// IsZeroWorkConversion reports whether Apply is the identity function
	// at runtime (e.g. a const-view edge that reinterprets rather than
	// copies); ConversionRoute uses this to elide pointless hops while
	// still charging their weight.
	IsZeroWorkConversion() bool
	// Apply performs the conversion. value is assumed to already be of
	// SourceType; the result is of TargetType.
	Apply(value ScriptingElement) (ScriptingElement, error)
}

// conversionBase is embedded by every concrete Conversion implementation to
// avoid repeating the source/target/weight bookkeeping.
type conversionBase struct {
	source *RobinType
	target *RobinType
	weight Weight
}

func (c *conversionBase) SourceType() *RobinType    { return c.source }
func (c *conversionBase) TargetType() *RobinType    { return c.target }
func (c *conversionBase) Weight() Weight            { return c.weight }
func (c *conversionBase) IsZeroWorkConversion() bool { return false }

// funcConversion adapts a plain function into a Conversion, used by the
// fundamental and front-end-provided conversion constructors.
type funcConversion struct {
	conversionBase
	zeroWork bool
	fn       func(ScriptingElement) (ScriptingElement, error)
}

func (c *funcConversion) IsZeroWorkConversion() bool { return c.zeroWork }
func (c *funcConversion) Apply(v ScriptingElement) (ScriptingElement, error) { return c.fn(v) }

// newConversion builds a Conversion from source/target/weight and an Apply
// function. zeroWork marks routes that only reinterpret a value (e.g.
// value-to-const-reference) rather than copying it.
func newConversion(source, target *RobinType, w Weight, zeroWork bool, fn func(ScriptingElement) (ScriptingElement, error)) Conversion {
	return &funcConversion{
		conversionBase: conversionBase{source: source, target: target, weight: w},
		zeroWork:       zeroWork,
		fn:             fn,
	}
}

// ConversionRoute is a concatenation of edges applied in sequence to carry
// a value from one RobinType to another, plus any extra weight charged for
// hops elided because they were zero-work.
type ConversionRoute struct {
	Steps []Conversion
	extra Weight
}

// TotalWeight sums every step's weight plus any elided extra weight.
func (r *ConversionRoute) TotalWeight() Weight {
	w := r.extra
	for _, step := range r.Steps {
		w = w.Add(step.Weight())
	}
	return w
}

// AddExtraWeight folds in the weight of a conversion whose actual
// application was skipped because it is a no-op at runtime.
func (r *ConversionRoute) AddExtraWeight(amount Weight) {
	r.extra = r.extra.Add(amount)
}

// HasOnlyConstantConversions reports whether every step targets a const
// type, meaning the whole route is one-directional: no write-back is
// possible.
func (r *ConversionRoute) HasOnlyConstantConversions() bool {
	for _, step := range r.Steps {
		if step.TargetType().Constness() != ConstReference {
			return false
		}
	}
	return true
}

// IsZeroWorkConversionRoute reports whether every step is a no-op at
// runtime, meaning Apply can be skipped entirely by the caller.
func (r *ConversionRoute) IsZeroWorkConversionRoute() bool {
	for _, step := range r.Steps {
		if !step.IsZeroWorkConversion() {
			return false
		}
	}
	return true
}

// Apply threads value through every step of the route in order. Each
// intermediate result is registered with gc so the originals stay alive
// until the call that requested the conversion returns; gc may be nil when
// the caller manages lifetimes itself.
func (r *ConversionRoute) Apply(value ScriptingElement, gc *GarbageCollection) (ScriptingElement, error) {
	cur := value
	for _, step := range r.Steps {
		var err error
		cur, err = step.Apply(cur)
		if err != nil {
			return nil, err
		}
		if gc != nil {
			gc.Mark(cur)
		}
	}
	return cur, nil
}

// ConversionRoutes holds one independent route per argument of a call,
// matched positionally.
type ConversionRoutes []*ConversionRoute

// AreAllEmptyConversions reports whether every route has zero steps, i.e.
// every argument already matches its target type exactly.
func (rs ConversionRoutes) AreAllEmptyConversions() bool {
	for _, r := range rs {
		if len(r.Steps) != 0 {
			return false
		}
	}
	return true
}
