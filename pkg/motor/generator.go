package motor

import "iter"

// Mark is the scheme-leaf sentinel (§4.5, §9 "sentinel marker classes"): a
// closed two-variant enum. A scheme leaf that is instead a nested mapping
// is the implicit third variant, "recurse into a sub-scheme".
type Mark int

const (
	// Scalar leaves carry the same source value, unchanged, into every
	// emitted argset.
	Scalar Mark = iota
	// Iterable leaves are drained once and crossed into the Cartesian product.
	Iterable
)

// Scheme is the "prototype" of an argset: each leaf is Scalar, Iterable, or
// (via a nested Scheme value) a sub-scheme to recurse into.
type Scheme map[string]interface{}

// Source holds, for each scheme key, either the one unchanging Scalar
// value, the Iterable's values, or — for a nested Scheme key — a nested
// Source. Iterable values may be given as []interface{} or anything
// implementing Sequence (so genuinely single-pass producers are supported).
type Source map[string]interface{}

// Sequence is a single-pass source of values, for source leaves that cannot
// be restarted (§4.5 "Iterators may be single-pass"). The generator drains
// a Sequence exactly once, materializing it into a slice before crossing it
// with the other factors (§9 "Lazy/one-shot iterators in sources").
type Sequence interface {
	Next() (value interface{}, ok bool)
}

// Argset is an unordered mapping from parameter name to value, immutable
// once produced by the Generator (§3).
type Argset map[string]interface{}

// Generator enumerates the Cartesian product described by scheme over
// source (Cartman, §4.5). It is a direct port of hoover.py's Cartman class.
type Generator struct {
	scheme         Scheme
	source         Source
	recursionLimit int
}

// NewGenerator builds a Generator for the given scheme/source pair, with a
// recursion limit on nested sub-schemes (default: use NewGeneratorDefault
// for the conventional limit of 10).
func NewGenerator(scheme Scheme, source Source, recursionLimit int) *Generator {
	return &Generator{scheme: scheme, source: source, recursionLimit: recursionLimit}
}

// NewGeneratorDefault uses the conventional recursion limit of 10.
func NewGeneratorDefault(scheme Scheme, source Source) *Generator {
	return NewGenerator(scheme, source, 10)
}

func toSlice(v interface{}) ([]interface{}, error) {
	switch t := v.(type) {
	case []interface{}:
		return t, nil
	case Sequence:
		var out []interface{}
		for {
			val, ok := t.Next()
			if !ok {
				break
			}
			out = append(out, val)
		}
		return out, nil
	default:
		// A bare scalar given where a slice was expected is treated as a
		// single-element sequence, matching Python's tolerant duck typing
		// around iterables.
		return []interface{}{v}, nil
	}
}

// factorFor materializes the values to iterate for a single scheme key,
// recursing into sub-generators for nested sub-schemes (§4.5).
func (g *Generator) factorFor(key string, depth int) ([]interface{}, error) {
	if depth > g.recursionLimit {
		return nil, &RecursionLimitError{Limit: g.recursionLimit}
	}

	subscheme := g.scheme[key]
	subsource, present := g.source[key]
	if !present {
		return nil, nil // dangling key: silently skipped (§4.5)
	}

	switch mark := subscheme.(type) {
	case Mark:
		switch mark {
		case Scalar:
			return []interface{}{subsource}, nil
		case Iterable:
			return toSlice(subsource)
		default:
			return nil, &BadMarkError{Key: key}
		}

	case Scheme:
		return g.factorForSchemeValue(key, mark, subsource, depth)

	case map[string]interface{}:
		return g.factorForSchemeValue(key, Scheme(mark), subsource, depth)

	default:
		return nil, &BadMarkError{Key: key}
	}
}

func (g *Generator) factorForSchemeValue(key string, sub Scheme, subsource interface{}, depth int) ([]interface{}, error) {
	srcMap, ok := subsource.(Source)
	if !ok {
		if m, ok2 := subsource.(map[string]interface{}); ok2 {
			srcMap = Source(m)
		} else {
			return nil, &MismatchError{Key: key}
		}
	}
	generator := NewGenerator(sub, srcMap, g.recursionLimit)
	argsets, err := generator.collect(depth + 1)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, len(argsets))
	for i, as := range argsets {
		out[i] = map[string]interface{}(as)
	}
	return out, nil
}

// collect fully materializes every emitted argset. Used internally for
// nested sub-schemes (which must be buffered into one of the outer factors)
// and exposed publicly as Collect.
func (g *Generator) collect(depth int) ([]Argset, error) {
	if g.scheme == nil {
		return nil, &BadSchemeError{Reason: "scheme must be a mapping"}
	}

	var names []string
	var factors [][]interface{}
	for key := range g.scheme {
		factor, err := g.factorFor(key, depth)
		if err != nil {
			return nil, err
		}
		if factor == nil {
			continue
		}
		names = append(names, key)
		factors = append(factors, factor)
	}

	var out []Argset
	indices := make([]int, len(factors))
	if len(factors) == 0 {
		return out, nil
	}
	for _, f := range factors {
		if len(f) == 0 {
			return out, nil // one empty factor means an empty product
		}
	}

	for {
		as := make(Argset, len(names))
		for i, name := range names {
			as[name] = factors[i][indices[i]]
		}
		out = append(out, as)

		// odometer increment
		pos := len(indices) - 1
		for pos >= 0 {
			indices[pos]++
			if indices[pos] < len(factors[pos]) {
				break
			}
			indices[pos] = 0
			pos--
		}
		if pos < 0 {
			break
		}
	}
	return out, nil
}

// Collect materializes every argset the Cartesian product emits (§8
// property 1, "enumeration completeness"). For huge spaces prefer All(),
// which streams the same sequence without holding it all in memory at once.
func (g *Generator) Collect() ([]Argset, error) {
	return g.collect(0)
}

// All streams argsets lazily: each per-key factor is materialized once
// (honoring single-pass sources, §9), but the N-dimensional product itself
// is walked with an odometer rather than buffered whole. Errors
// (BadSchemeError, MismatchError, BadMarkError, RecursionLimitError) are
// delivered as the second element of the yielded pair and end iteration.
func (g *Generator) All() iter.Seq2[Argset, error] {
	return func(yield func(Argset, error) bool) {
		if g.scheme == nil {
			yield(nil, &BadSchemeError{Reason: "scheme must be a mapping"})
			return
		}

		var names []string
		var factors [][]interface{}
		for key := range g.scheme {
			factor, err := g.factorFor(key, 0)
			if err != nil {
				yield(nil, err)
				return
			}
			if factor == nil {
				continue
			}
			names = append(names, key)
			factors = append(factors, factor)
		}
		if len(factors) == 0 {
			return
		}
		for _, f := range factors {
			if len(f) == 0 {
				return
			}
		}

		indices := make([]int, len(factors))
		for {
			as := make(Argset, len(names))
			for i, name := range names {
				as[name] = factors[i][indices[i]]
			}
			if !yield(as, nil) {
				return
			}

			pos := len(indices) - 1
			for pos >= 0 {
				indices[pos]++
				if indices[pos] < len(factors[pos]) {
					break
				}
				indices[pos] = 0
				pos--
			}
			if pos < 0 {
				return
			}
		}
	}
}
