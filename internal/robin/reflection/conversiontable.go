package reflection

import (
	"container/heap"
	"fmt"
	"sync"

	"github.com/skn123/robin/internal/robin/errs"
	"github.com/skn123/robin/internal/robin/trace"
)

// adjacency is one outgoing edge recorded against its source type.
type adjacency struct {
	target *RobinType
	edge   Conversion
}

// weightHeapItem is one entry in the Dijkstra frontier.
type weightHeapItem struct {
	weight Weight
	typ    *RobinType
}

// weightHeap is a container/heap-backed priority queue ordered by Weight.
type weightHeap []weightHeapItem

func (h weightHeap) Len() int            { return len(h) }
func (h weightHeap) Less(i, j int) bool  { return h[i].weight.Less(h[j].weight) }
func (h weightHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *weightHeap) Push(x interface{}) { *h = append(*h, x.(weightHeapItem)) }
func (h *weightHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// insert pushes a (weight, type) pair onto the frontier.
func (h *weightHeap) insert(w Weight, t *RobinType) {
	heap.Push(h, weightHeapItem{weight: w, typ: t})
}

// extractMinimum pops the cheapest (weight, type) pair.
func (h *weightHeap) extractMinimum() (Weight, *RobinType) {
	item := heap.Pop(h).(weightHeapItem)
	return item.weight, item.typ
}

// routeCacheKey identifies a memoized best-route query.
type routeCacheKey struct {
	source *RobinType
	target *RobinType
}

// ConversionTable owns the conversion graph for one Engine: the adjacency
// lists of registered Conversion edges, the exit (edge) conversions, and a
// cache of previously computed best routes per (source, target) pair.
type ConversionTable struct {
	mu       sync.RWMutex
	graph    map[*RobinType][]adjacency
	edgeConv map[*RobinType]Conversion

	scriptingElementType *RobinType

	cacheMu sync.Mutex
	cache   map[routeCacheKey]*ConversionRoute // nil value == known-impossible
}

// NewConversionTable returns an empty conversion graph.
func NewConversionTable() *ConversionTable {
	return &ConversionTable{
		graph:    make(map[*RobinType][]adjacency),
		edgeConv: make(map[*RobinType]Conversion),
		cache:    make(map[routeCacheKey]*ConversionRoute),
	}
}

// RegisterConversion adds edge to the graph and installs this table as the
// owning table of its source type (so the type's default
// ProposeConversionContinuations can find it), then flushes every cached
// route: adding an edge can only make existing routes cheaper or newly
// possible, never invalid, but a stale cache would hide the improvement.
func (c *ConversionTable) RegisterConversion(edge Conversion) {
	src := edge.SourceType()
	tgt := edge.TargetType()

	// A hyper-generic type stands for infinitely many concrete types at
	// once; a static edge into one would make proposer expansion cycle.
	// The one admitted exception is a type targeting its own const view.
	if tgt.IsHyperGeneric() && !sameTypeModuloConst(src, tgt) {
		panic(fmt.Sprintf("conversion into hyper-generic type %q is not allowed", tgt.TypeName()))
	}

	trace.Tracef(2, "Add conversion: %q to %q", src.TypeName(), tgt.TypeName())

	c.mu.Lock()
	c.graph[src] = append(c.graph[src], adjacency{target: tgt, edge: edge})
	if src.table == nil {
		src.table = c
	}
	c.mu.Unlock()

	c.ForceRecompute()
}

// RegisterEdgeConversion installs an exit conversion applied to every
// value of source's type that is returned from a native call, with no
// corresponding incoming node in the graph.
func (c *ConversionTable) RegisterEdgeConversion(edge Conversion) {
	c.mu.Lock()
	c.edgeConv[edge.SourceType()] = edge
	c.mu.Unlock()
	c.ForceRecompute()
}

// GetEdgeConversion returns the exit conversion registered for node, or nil.
func (c *ConversionTable) GetEdgeConversion(node *RobinType) Conversion {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.edgeConv[node]
}

// proposeRegisteredEdges is the default ConversionProposer behavior for a
// plain RobinType: relax every registered outgoing edge against the
// current best-known distances, plus the ever-present trivial edge into
// the opaque scripting_element type. During a const-only search, edges
// into writable targets are inadmissible: the route may not open a
// write-back channel.
func (c *ConversionTable) proposeRegisteredEdges(
	from *RobinType,
	reachedWeight Weight,
	frontier *weightHeap,
	constConversions bool,
	distance *TypeToWeightMap,
	previous *ConversionTree,
) {
	c.mu.RLock()
	adjlist := c.graph[from]
	opaque := c.scriptingElementType
	c.mu.RUnlock()

	relax := func(target *RobinType, edge Conversion) {
		if constConversions && !target.IsConstLike() {
			return
		}
		candidate := reachedWeight.Add(edge.Weight())
		if distance.UpdateIfBetter(target, candidate) {
			previous.Record(target, edge)
			frontier.insert(candidate, target)
		}
	}

	for _, adj := range adjlist {
		relax(adj.target, adj.edge)
	}
	if opaque != nil && opaque != from {
		relax(opaque, NewTrivialConversion(from, opaque))
	}
}

// AdoptType makes this table the one a type's default proposer walks, even
// before any outgoing edge is registered for it; lazily created container
// and bounded-numeric types need this so they still offer the implicit
// scripting_element edge.
func (c *ConversionTable) AdoptType(t *RobinType) {
	c.mu.Lock()
	if t.table == nil {
		t.table = c
	}
	c.mu.Unlock()
}

// SetScriptingElementType designates the opaque host-value type every
// other type converts to trivially (passing a value as scripting_element
// always succeeds, at epsilon cost).
func (c *ConversionTable) SetScriptingElementType(t *RobinType) {
	c.mu.Lock()
	c.scriptingElementType = t
	c.mu.Unlock()
}

// GenerateConversionTree runs Dijkstra's algorithm from source, stopping
// early once stopType is reached if stopType is non-nil.
func (c *ConversionTable) GenerateConversionTree(source *RobinType, stopType *RobinType, constConversionTree bool) *ConversionTree {
	frontier := &weightHeap{}
	heap.Init(frontier)
	previous := NewConversionTree(source)
	distance := NewTypeToWeightMap()

	distance.UpdateIfBetter(source, ZeroWeight)
	frontier.insert(ZeroWeight, source)

	for frontier.Len() != 0 {
		reachedWeight, u := frontier.extractMinimum()
		if stopType != nil && u.ID() == stopType.ID() {
			break
		}
		u.ProposeConversionContinuations(reachedWeight, frontier, constConversionTree, distance, previous)
	}
	return previous
}

// BestSingleRoute returns the cheapest ConversionRoute from 'from' to 'to',
// using (and populating) the route cache.
func (c *ConversionTable) BestSingleRoute(from, to *RobinType) (*ConversionRoute, error) {
	key := routeCacheKey{source: from, target: to}

	c.cacheMu.Lock()
	cached, hit := c.cache[key]
	c.cacheMu.Unlock()
	if hit {
		if cached == nil {
			return nil, errs.NewNoApplicableConversion(from.TypeName(), to.TypeName())
		}
		return cached, nil
	}

	tree := c.GenerateConversionTree(from, to, to.Constness() == ConstReference)
	route, err := tree.GenerateRouteTo(to)

	c.cacheMu.Lock()
	if err != nil {
		c.cache[key] = nil
	} else {
		c.cache[key] = route
	}
	c.cacheMu.Unlock()

	if err != nil {
		return nil, err
	}
	trace.Tracef(2, "@TYPE-DISTANCE: %s", route.TotalWeight())
	return route, nil
}

// elementRoute runs the inner element-graph search container proposers
// compose over. It is always const-only: element conversions may never
// open a write-back channel through a container boundary. Identical
// endpoints yield an empty route.
func (c *ConversionTable) elementRoute(from, to *RobinType) (*ConversionRoute, error) {
	if from == to {
		return &ConversionRoute{}, nil
	}
	tree := c.GenerateConversionTree(from, to, true)
	return tree.GenerateRouteTo(to)
}

// ForceRecompute flushes the route cache, so the next BestSingleRoute call
// recomputes from scratch, and advances the global dispatch generation so
// every OverloadedSet cache entry computed against the old graph expires.
// Called whenever the graph changes.
func (c *ConversionTable) ForceRecompute() {
	c.cacheMu.Lock()
	c.cache = make(map[routeCacheKey]*ConversionRoute)
	c.cacheMu.Unlock()
	bumpDispatchGeneration()
}
