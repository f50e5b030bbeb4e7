package motor

// RuleOp is the logical combinator for a Predicate node (§4.3).
type RuleOp int

const (
	// OpAll requires every item to hold. ALL([]) is true.
	OpAll RuleOp = iota
	// OpAny requires at least one item to hold. ANY([]) is false.
	OpAny
)

// Predicate is a node in a RulePredicate expression tree: either a logical
// combinator over nested items, or an atom to be handed to the caller's
// evaluator. Construct leaves with Atom(x) and combinators with All(...)/Any(...).
//
// This mirrors the teacher's operator_registry.go shape (a closed set of
// node kinds dispatched by a single Eval), generalized from graft's
// expression precedence levels to the two-operator boolean algebra §4.3
// calls for.
type Predicate struct {
	op       RuleOp
	items    []Predicate
	isAtom   bool
	atom     interface{}
	isLeaf   bool // distinguishes a zero-value Predicate{} from a real one
}

// All builds an ALL(...) predicate: true iff every item holds (vacuously
// true for zero items).
func All(items ...Predicate) Predicate {
	return Predicate{op: OpAll, items: items, isLeaf: true}
}

// Any builds an ANY(...) predicate: true iff at least one item holds
// (vacuously false for zero items).
func Any(items ...Predicate) Predicate {
	return Predicate{op: OpAny, items: items, isLeaf: true}
}

// Atom wraps a value to be passed to the caller's atomOK function during
// Eval, rather than recursed into as a nested expression.
func Atom(x interface{}) Predicate {
	return Predicate{isAtom: true, atom: x, isLeaf: true}
}

// Eval evaluates the predicate tree using atomOK to decide each atom. Malformed
// trees (an empty, zero-value Predicate somewhere in items) are reported as
// BadPatternError rather than panicking (§4.3).
func (p Predicate) Eval(atomOK func(x interface{}) bool) (bool, error) {
	if !p.isLeaf {
		return false, &BadPatternError{Reason: "empty predicate node"}
	}
	if p.isAtom {
		return atomOK(p.atom), nil
	}

	switch p.op {
	case OpAll:
		for _, item := range p.items {
			ok, err := item.Eval(atomOK)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil

	case OpAny:
		for _, item := range p.items {
			ok, err := item.Eval(atomOK)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	default:
		return false, &BadPatternError{Reason: "unknown operator"}
	}
}
