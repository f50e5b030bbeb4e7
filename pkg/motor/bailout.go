package motor

import (
	"github.com/Knetic/govaluate"
)

// CompileBailout builds a Bailout whose predicate is a govaluate boolean
// expression evaluated against the argset, e.g. "region == 'us-west-2'" or
// "retries > 3 && protocol == 'grpc'". This lets bailout rules live as
// short strings in driver settings/config rather than as compiled Go
// closures, the same role govaluate plays wherever the pack uses it for
// externally-configurable boolean rules.
func CompileBailout(name, expression string) (Bailout, error) {
	expr, err := govaluate.NewEvaluableExpression(expression)
	if err != nil {
		return Bailout{}, wrap(err, "compile bailout expression")
	}

	return Bailout{
		Name: name,
		Fn: func(args Argset) bool {
			result, err := expr.Eval(govaluate.MapParameters(map[string]interface{}(args)))
			if err != nil {
				return false
			}
			ok, isBool := result.(bool)
			return isBool && ok
		},
	}, nil
}

// AtomExpression compiles a govaluate boolean expression into an atomOK
// function usable with Predicate.Eval, so a RulePredicate's leaves can be
// expressions over a single value rather than bare equality checks, e.g.
// ALL(Atom("value > 100"), Atom("region != 'eu-west-1'")) evaluated with
// AtomExpression's returned function and a `value` parameter supplied per
// call.
func AtomExpression(params map[string]interface{}) func(x interface{}) bool {
	return func(x interface{}) bool {
		exprStr, ok := x.(string)
		if !ok {
			return false
		}
		expr, err := govaluate.NewEvaluableExpression(exprStr)
		if err != nil {
			return false
		}
		result, err := expr.Eval(govaluate.MapParameters(params))
		if err != nil {
			return false
		}
		b, isBool := result.(bool)
		return isBool && b
	}
}
