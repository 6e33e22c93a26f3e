package reflection

// Host containers travel through the core as these aliases; front-end
// Adapters box the host's own list/dict into them on detection. Converting
// a ListValue in place mutates the backing array the host list aliases, so
// writes from the callee propagate back to the caller.
type (
	ListValue = []ScriptingElement
	DictValue = map[ScriptingElement]ScriptingElement
)

// listComposedConversion converts list<T> to list<U> by threading every
// element through the element route. The copying variant builds a fresh
// container (used on const-only routes); the in-place variant overwrites
// the original container's slots and re-publishes it.
type listComposedConversion struct {
	conversionBase
	elemRoute *ConversionRoute
	copying   bool
}

func (c *listComposedConversion) Apply(v ScriptingElement) (ScriptingElement, error) {
	list, ok := v.(ListValue)
	if !ok {
		return nil, errTypeMismatch(c.source, v)
	}
	out := list
	if c.copying {
		out = make(ListValue, len(list))
	}
	for i, elem := range list {
		converted, err := c.elemRoute.Apply(elem, nil)
		if err != nil {
			return nil, err
		}
		out[i] = converted
	}
	return out, nil
}

// dictComposedConversion is the two-route analogue for dict<K,V>.
type dictComposedConversion struct {
	conversionBase
	keyRoute *ConversionRoute
	valRoute *ConversionRoute
	copying  bool
}

func (c *dictComposedConversion) Apply(v ScriptingElement) (ScriptingElement, error) {
	dict, ok := v.(DictValue)
	if !ok {
		return nil, errTypeMismatch(c.source, v)
	}
	out := dict
	if c.copying {
		out = make(DictValue, len(dict))
	}
	converted := make([][2]ScriptingElement, 0, len(dict))
	for k, val := range dict {
		ck, err := c.keyRoute.Apply(k, nil)
		if err != nil {
			return nil, err
		}
		cv, err := c.valRoute.Apply(val, nil)
		if err != nil {
			return nil, err
		}
		converted = append(converted, [2]ScriptingElement{ck, cv})
	}
	if !c.copying {
		// In-place: clear first so old keys do not survive a key-type
		// change, then re-publish under the converted keys.
		for k := range out {
			delete(out, k)
		}
	}
	for _, kv := range converted {
		out[kv[0]] = kv[1]
	}
	return out, nil
}

// emptyContainerConversion materializes a fresh concrete container from
// the hyper-generic empty literal, at promotion cost one.
func newEmptyListConversion(source, target *RobinType) Conversion {
	return newConversion(source, target, Weight{Promotion: 1}, false,
		func(ScriptingElement) (ScriptingElement, error) { return make(ListValue, 0), nil })
}

func newEmptyDictConversion(source, target *RobinType) Conversion {
	return newConversion(source, target, Weight{Promotion: 1}, false,
		func(ScriptingElement) (ScriptingElement, error) { return make(DictValue), nil })
}

// listProposer synthesizes edges from one list<T> to every other known
// list<U> whose element type is reachable from T, at search time, instead
// of materializing the quadratic edge set eagerly.
type listProposer struct {
	self *RobinType
	reg  *TypeRegistry
}

func (p *listProposer) ProposeConversionContinuations(
	reachedWeight Weight,
	frontier *weightHeap,
	constConversions bool,
	distance *TypeToWeightMap,
	previous *ConversionTree,
) {
	// A route that already crossed one list composition may not chain
	// another: element routes are confined to the element graph, so a
	// second composition can only revisit territory, and forbidding it
	// keeps proposer expansion finite.
	if edge := previous.EdgeInto(p.self); edge != nil {
		if _, composed := edge.(*listComposedConversion); composed {
			return
		}
	}

	elem := p.self.ListElement()
	for _, other := range p.reg.knownListTypes() {
		if other == p.self || other.IsHyperGeneric() {
			continue
		}
		var edge Conversion
		var w Weight
		if elem == nil {
			edge = newEmptyListConversion(p.self, other)
			w = edge.Weight()
		} else {
			route, err := p.reg.table.elementRoute(elem, other.ListElement())
			if err != nil {
				continue
			}
			w = route.TotalWeight()
			edge = &listComposedConversion{
				conversionBase: conversionBase{source: p.self, target: other, weight: w},
				elemRoute:      route,
				copying:        constConversions,
			}
		}
		candidate := reachedWeight.Add(w)
		if distance.UpdateIfBetter(other, candidate) {
			previous.Record(other, edge)
			frontier.insert(candidate, other)
		}
	}
}

// dictProposer is the dict<K,V> analogue; the composed weight is the
// heavier of the key and value sub-weights.
type dictProposer struct {
	self *RobinType
	reg  *TypeRegistry
}

func (p *dictProposer) ProposeConversionContinuations(
	reachedWeight Weight,
	frontier *weightHeap,
	constConversions bool,
	distance *TypeToWeightMap,
	previous *ConversionTree,
) {
	if edge := previous.EdgeInto(p.self); edge != nil {
		if _, composed := edge.(*dictComposedConversion); composed {
			return
		}
	}

	key, val := p.self.DictKey(), p.self.DictValue()
	for _, other := range p.reg.knownDictTypes() {
		if other == p.self || other.IsHyperGeneric() {
			continue
		}
		var edge Conversion
		var w Weight
		if key == nil {
			edge = newEmptyDictConversion(p.self, other)
			w = edge.Weight()
		} else {
			keyRoute, err := p.reg.table.elementRoute(key, other.DictKey())
			if err != nil {
				continue
			}
			valRoute, err := p.reg.table.elementRoute(val, other.DictValue())
			if err != nil {
				continue
			}
			w = keyRoute.TotalWeight()
			if w.Less(valRoute.TotalWeight()) {
				w = valRoute.TotalWeight()
			}
			edge = &dictComposedConversion{
				conversionBase: conversionBase{source: p.self, target: other, weight: w},
				keyRoute:       keyRoute,
				valRoute:       valRoute,
				copying:        constConversions,
			}
		}
		candidate := reachedWeight.Add(w)
		if distance.UpdateIfBetter(other, candidate) {
			previous.Record(other, edge)
			frontier.insert(candidate, other)
		}
	}
}
