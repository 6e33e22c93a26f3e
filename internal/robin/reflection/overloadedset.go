package reflection

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/skn123/robin/internal/robin/argbuf"
	"github.com/skn123/robin/internal/robin/errs"
	"github.com/skn123/robin/internal/robin/trace"
)

// newArgumentsBuffer hands CFunction a fresh fixed-capacity word stack per
// dispatch.
func newArgumentsBuffer() ArgumentsBuffer { return argbuf.New() }

// dispatchGeneration is the process-wide monotonic counter keying every
// overload-resolution cache entry. Registering a conversion or adding an
// overload alternative advances it, atomically expiring every decision made
// against the older graph.
var dispatchGeneration uint64

func bumpDispatchGeneration() { atomic.AddUint64(&dispatchGeneration, 1) }

func currentDispatchGeneration() uint64 { return atomic.LoadUint64(&dispatchGeneration) }

// resolution is one memoized dispatch decision: which alternative won for a
// given actual-type sequence, and the per-argument routes that carry the
// actuals to its formals.
type resolution struct {
	winner     *CFunction
	routes     ConversionRoutes
	generation uint64
}

// Callable is anything the dispatcher can invoke with positional and
// keyword arguments. OverloadedSet and BoundMethod implement it.
type Callable interface {
	Call(args []ActualArgument, kwargs KeywordArguments, owner ScriptingElement) (ScriptingElement, error)
}

// OverloadedSet packs several prototypes (CFunctions) sharing one name and
// determines at run time which alternative to invoke according to the
// types of the actual arguments, preferring the cheapest total conversion.
type OverloadedSet struct {
	name string

	mu           sync.Mutex
	alternatives []*CFunction
	cache        map[string]*resolution
}

// NewOverloadedSet returns an empty bag of alternatives under name.
func NewOverloadedSet(name string) *OverloadedSet {
	return &OverloadedSet{name: name, cache: make(map[string]*resolution)}
}

// Name returns the overloaded function's name.
func (o *OverloadedSet) Name() string { return o.name }

// AddAlternative appends one prototype to the set and expires every cached
// dispatch decision process-wide; a new alternative can change the outcome
// of any previously resolved call.
func (o *OverloadedSet) AddAlternative(alt *CFunction) {
	o.mu.Lock()
	o.alternatives = append(o.alternatives, alt)
	o.mu.Unlock()
	bumpDispatchGeneration()
}

// AddAlternatives merges every alternative of more into this set; used when
// a class inherits a method bag from a base.
func (o *OverloadedSet) AddAlternatives(more *OverloadedSet) {
	more.mu.Lock()
	alts := append([]*CFunction(nil), more.alternatives...)
	more.mu.Unlock()
	o.mu.Lock()
	o.alternatives = append(o.alternatives, alts...)
	o.mu.Unlock()
	bumpDispatchGeneration()
}

// IsEmpty reports whether no alternative was ever added.
func (o *OverloadedSet) IsEmpty() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.alternatives) == 0
}

// Alternatives returns a snapshot of the registered prototypes.
func (o *OverloadedSet) Alternatives() []*CFunction {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*CFunction(nil), o.alternatives...)
}

// candidateSignatures renders every alternative's prototype for the
// diagnostic lists carried by no-match and ambiguity errors.
func (o *OverloadedSet) candidateSignatures() []string {
	alts := o.Alternatives()
	out := make([]string, len(alts))
	for i, a := range alts {
		out[i] = a.Signature()
	}
	return out
}

// cacheKey encodes the actual-type id sequence plus the sorted keyword
// names; two calls with the same key resolve identically under the same
// dispatch generation.
func cacheKey(args []ActualArgument, kwargs KeywordArguments) string {
	var sb strings.Builder
	for _, a := range args {
		sb.WriteString(strconv.FormatInt(a.Type.ID(), 10))
		sb.WriteByte(',')
	}
	if len(kwargs) > 0 {
		names := make([]string, 0, len(kwargs))
		for name := range kwargs {
			names = append(names, name)
		}
		// Insertion sort keeps this allocation-light for the tiny maps
		// keyword calls actually carry.
		for i := 1; i < len(names); i++ {
			for j := i; j > 0 && names[j] < names[j-1]; j-- {
				names[j], names[j-1] = names[j-1], names[j]
			}
		}
		for _, name := range names {
			sb.WriteByte(';')
			sb.WriteString(name)
			sb.WriteByte('=')
			sb.WriteString(strconv.FormatInt(kwargs[name].Type.ID(), 10))
		}
	}
	return sb.String()
}

// vectorOrder is the outcome of comparing two per-argument weight vectors.
type vectorOrder int

const (
	vectorBetter vectorOrder = iota
	vectorWorse
	vectorEquivalent
	vectorAmbiguous
)

// compareWeightVectors applies the partial order on per-argument weight
// tuples: a is better than b iff at least one slot is
// strictly lighter and no slot is strictly heavier; ambiguous iff each has
// some strictly-lighter slot; equivalent iff every slot matches.
func compareWeightVectors(a, b []Weight) vectorOrder {
	aLighter, bLighter := false, false
	for i := range a {
		if a[i].Less(b[i]) {
			aLighter = true
		} else if b[i].Less(a[i]) {
			bLighter = true
		}
	}
	switch {
	case aLighter && bLighter:
		return vectorAmbiguous
	case aLighter:
		return vectorBetter
	case bLighter:
		return vectorWorse
	default:
		return vectorEquivalent
	}
}

// sameTypeModuloConst reports whether a and b denote the same underlying
// type, ignoring constness.
func sameTypeModuloConst(a, b *RobinType) bool {
	if a == b {
		return true
	}
	return a.category == b.category &&
		a.spec == b.spec &&
		a.name == b.name &&
		a.borrowed == b.borrowed &&
		a.class == b.class &&
		a.enum == b.enum &&
		a.listElem == b.listElem &&
		a.dictKey == b.dictKey &&
		a.dictVal == b.dictVal
}

// structurallyIdentical reports whether two prototypes have the same formal
// signature modulo constness. Equal-weight alternatives that are
// structurally identical do not make a call ambiguous: a const/non-const
// method pair is the canonical case, and either member is an acceptable
// winner. This is a documented tiebreak, not an ambiguity-suppression
// heuristic: identical-signature alternatives are interchangeable by
// construction.
func structurallyIdentical(a, b *CFunction) bool {
	if len(a.params) != len(b.params) {
		return false
	}
	for i := range a.params {
		if !sameTypeModuloConst(a.params[i].Type, b.params[i].Type) {
			return false
		}
	}
	return true
}

// resolveCall picks the cheapest matching alternative for the given
// positional and keyword arguments, consulting and populating the dispatch
// cache.
func (o *OverloadedSet) resolveCall(args []ActualArgument, kwargs KeywordArguments) (*resolution, error) {
	key := cacheKey(args, kwargs)
	generation := currentDispatchGeneration()

	o.mu.Lock()
	cached, ok := o.cache[key]
	alts := append([]*CFunction(nil), o.alternatives...)
	o.mu.Unlock()
	if ok && cached.generation == generation {
		trace.Tracef(2, "@OVERLOAD-CACHE-HIT: %s(%s)", o.name, key)
		return cached, nil
	}

	if len(alts) == 0 {
		return nil, errs.NewOverloadingNoMatch(o.name, nil)
	}

	nargs := len(args) + len(kwargs)

	var best *CFunction
	var bestRoutes ConversionRoutes
	var bestWeights []Weight
	ambiguityAlert := false
	competing := []*CFunction(nil)
	arityMatched, mergeFailed := 0, 0
	var firstMergeErr error

	for _, alt := range alts {
		if alt.Arity() != nargs {
			continue
		}
		arityMatched++
		merged, err := alt.MergeWithKeywordArguments(args, kwargs)
		if err != nil {
			// Keyword names incompatible with this alternative; it does
			// not compete, but remember why in case nothing else does.
			mergeFailed++
			if firstMergeErr == nil {
				firstMergeErr = err
			}
			continue
		}
		routes, err := alt.ConversionRoutesFor(merged)
		if err != nil {
			continue
		}
		weights := make([]Weight, len(routes))
		possible := true
		for i, r := range routes {
			weights[i] = r.TotalWeight()
			if !weights[i].IsPossible() {
				possible = false
				break
			}
		}
		if !possible {
			continue
		}

		if best == nil {
			best, bestRoutes, bestWeights = alt, routes, weights
			continue
		}
		switch compareWeightVectors(weights, bestWeights) {
		case vectorBetter:
			best, bestRoutes, bestWeights = alt, routes, weights
			ambiguityAlert = false
			competing = competing[:0]
		case vectorWorse:
			// keep current best
		default: // equivalent or ambiguous
			if !structurallyIdentical(alt, best) {
				ambiguityAlert = true
				competing = append(competing, alt)
			}
		}
	}

	if best == nil {
		// When every arity-matching alternative was rejected for its
		// keyword names alone, the call is malformed rather than
		// unmatchable: surface the merge failure itself.
		if arityMatched > 0 && mergeFailed == arityMatched {
			return nil, firstMergeErr
		}
		return nil, errs.NewOverloadingNoMatch(o.name, o.candidateSignatures())
	}
	if ambiguityAlert {
		sigs := []string{best.Signature()}
		for _, c := range competing {
			sigs = append(sigs, c.Signature())
		}
		return nil, errs.NewOverloadingAmbiguity(o.name, sigs)
	}

	trace.Tracef(2, "@OVERLOAD-RESOLVED: %s as %s", o.name, best.Signature())
	// The cache stores the decision against the merged argument order;
	// Call replays the same merge on a hit, so reordering stays correct.
	res := &resolution{winner: best, routes: bestRoutes, generation: generation}
	o.mu.Lock()
	o.cache[key] = res
	o.mu.Unlock()
	return res, nil
}

// Call resolves and invokes the cheapest matching alternative. owner,
// when non-nil, is forwarded to the winner so a
// returned const reference can be lifetime-bonded to it.
func (o *OverloadedSet) Call(args []ActualArgument, kwargs KeywordArguments, owner ScriptingElement) (ScriptingElement, error) {
	res, err := o.resolveCall(args, kwargs)
	if err != nil {
		return nil, err
	}
	merged, err := res.winner.MergeWithKeywordArguments(args, kwargs)
	if err != nil {
		return nil, err
	}
	gc := NewGarbageCollection()
	defer gc.Cleanup()
	return res.winner.callWithRoutes(res.routes, merged, owner, gc)
}

// Weight scores the call without performing it: the per-argument weight
// vector of the alternative that would win, used by front-ends that rank
// candidate callables themselves.
func (o *OverloadedSet) Weight(args []ActualArgument, kwargs KeywordArguments) ([]Weight, error) {
	res, err := o.resolveCall(args, kwargs)
	if err != nil {
		return nil, err
	}
	weights := make([]Weight, len(res.routes))
	for i, r := range res.routes {
		weights[i] = r.TotalWeight()
	}
	return weights, nil
}

// SeekAlternative finds the alternative whose formal parameter types match
// prototype exactly, or nil.
func (o *OverloadedSet) SeekAlternative(prototype []*RobinType) *CFunction {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, alt := range o.alternatives {
		if len(alt.params) != len(prototype) {
			continue
		}
		match := true
		for i := range prototype {
			if alt.params[i].Type != prototype[i] {
				match = false
				break
			}
		}
		if match {
			return alt
		}
	}
	return nil
}
