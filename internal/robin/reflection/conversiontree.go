package reflection

import "github.com/skn123/robin/internal/robin/errs"

// ConversionTree is the predecessor map produced by one run of Dijkstra's
// algorithm over the conversion graph: for every type reached, it records
// the edge that reached it most cheaply.
type ConversionTree struct {
	source     *RobinType
	prevEdge   map[*RobinType]Conversion
}

// NewConversionTree starts an empty predecessor map rooted at source.
func NewConversionTree(source *RobinType) *ConversionTree {
	return &ConversionTree{source: source, prevEdge: make(map[*RobinType]Conversion)}
}

// Record stores the cheapest edge found so far that enters to.
func (t *ConversionTree) Record(to *RobinType, edge Conversion) {
	t.prevEdge[to] = edge
}

// EdgeInto returns the cheapest edge found so far that enters node, or nil
// if node has not been reached (or is the search's source). Container
// proposers consult this to refuse chaining two composed conversions of the
// same kind back to back, which is what keeps proposer expansion acyclic.
func (t *ConversionTree) EdgeInto(node *RobinType) Conversion {
	return t.prevEdge[node]
}

// GenerateRouteTo walks the predecessor chain backward from dest to the
// search's source, producing the ConversionRoute that applies each
// non-zero-work edge in forward order (accumulating the weight of elided
// zero-work edges instead of dropping it).
func (t *ConversionTree) GenerateRouteTo(dest *RobinType) (*ConversionRoute, error) {
	route := &ConversionRoute{}
	tail := dest
	for tail != t.source {
		edge, ok := t.prevEdge[tail]
		if !ok {
			return nil, errs.NewNoApplicableConversion(t.source.TypeName(), dest.TypeName())
		}
		if !edge.IsZeroWorkConversion() {
			route.Steps = append([]Conversion{edge}, route.Steps...)
		} else {
			route.AddExtraWeight(edge.Weight())
		}
		tail = edge.SourceType()
	}
	return route, nil
}
