package motor

import "fmt"

// Case is the smallest unit of comparison (§4.7): an argset plus the two
// deep-copied driver outputs being compared and the two driver class names.
// Cases are throwaway — they live only for one comparator evaluation and are
// mutated in place by hacks, never the cached per-driver output they were
// copied from. Direct Go port of hoover.py's TinyCase.
type Case struct {
	Argset Argset
	Oracle map[string]interface{}
	Result map[string]interface{}
	OName  string
	RName  string
}

// asMap exposes the Case as the nested mapping hacks and rule patterns
// address: {"argset": ..., "oracle": ..., "result": ..., "oname": ...,
// "rname": ...}. The argset/oracle/result values are the Case's own maps,
// not copies, so Set/Del through a path mutate the Case directly.
func (c *Case) asMap() map[string]interface{} {
	return map[string]interface{}{
		"argset": map[string]interface{}(c.Argset),
		"oracle": c.Oracle,
		"result": c.Result,
		"oname":  c.OName,
		"rname":  c.RName,
	}
}

func (c *Case) pathAddr() *PathAddressing {
	return NewPathAddressing(c.asMap(), "/")
}

// ExchangeRule is one entry of an `exchange` action (§4.7): for each path,
// if the current value equals Old, it is replaced with New.
type ExchangeRule struct {
	Old, New interface{}
	Paths    []string
}

// EvenUpPair is one entry of an `even_up` action (§4.7): a pair of paths,
// each addressing a flat mapping, whose key sets are evened up.
type EvenUpPair struct {
	PathA, PathB string
}

// Rule is one entry of a hack ruleset (§4.7): optional `drivers`/`argsets`
// structural-match guards, plus any subset of the five known actions. A
// rule with no actions is inert but still counts as matched if its guards
// pass. Drivers/Argsets patterns are matched against the Case's own
// asMap() representation, not just the named sub-tree, so a pattern like
// {"oname": "..."} or {"argset": {...}} both work.
type Rule struct {
	Drivers []interface{}
	Argsets []interface{}

	Remove    []string
	EvenUp    []EvenUpPair
	FormatStr map[string][]string
	Exchange  []ExchangeRule
	Round     map[int][]string
}

func (c *Case) exchange(rules []ExchangeRule) {
	pa := c.pathAddr()
	for _, r := range rules {
		for _, path := range r.Paths {
			cur, err := pa.Get(path)
			if err != nil {
				continue
			}
			if cur == r.Old {
				_ = pa.Set(path, r.New)
			}
		}
	}
}

// formatStr replaces each path's value with the result of formatting it
// with the given format string (§4.7), mainly used to quantize floats
// before comparison. Go's fmt verbs are a close enough superset of Python's
// `%` operator for the common "%.2f"-style cases this action exists for.
func (c *Case) formatStr(m map[string][]string) {
	pa := c.pathAddr()
	for format, paths := range m {
		for _, path := range paths {
			if !pa.Exists(path) {
				continue
			}
			v, err := pa.Get(path)
			if err != nil {
				continue
			}
			_ = pa.Set(path, fmt.Sprintf(format, v))
		}
	}
}

// evenUp unions the key sets of the two flat mappings addressed by each
// pair; a key present on exactly one side with a null value there gets a
// null entry added on the other side. A key present on one side with a
// non-null value, and absent from the other, is left alone — this
// asymmetry is preserved literally from the source (§9 Open Question).
func (c *Case) evenUp(pairs []EvenUpPair) {
	pa := c.pathAddr()
	for _, p := range pairs {
		av, erra := pa.Get(p.PathA)
		bv, errb := pa.Get(p.PathB)
		if erra != nil || errb != nil {
			continue
		}
		a, aok := av.(map[string]interface{})
		b, bok := bv.(map[string]interface{})
		if !aok || !bok {
			continue
		}

		keys := make(map[string]struct{}, len(a)+len(b))
		for k := range a {
			keys[k] = struct{}{}
		}
		for k := range b {
			keys[k] = struct{}{}
		}

		for k := range keys {
			_, inA := a[k]
			_, inB := b[k]
			switch {
			case inA && inB:
				// nothing to do
			case inA && a[k] == nil:
				b[k] = nil
			case inB && b[k] == nil:
				a[k] = nil
			default:
				// odd key but value is not null: bail out on this key
			}
		}
	}
}

func (c *Case) remove(paths []string) {
	pa := c.pathAddr()
	for _, path := range paths {
		if pa.Exists(path) {
			_ = pa.Del(path)
		}
	}
}

func (c *Case) round(m map[int][]string) {
	pa := c.pathAddr()
	for ndigits, paths := range m {
		for _, path := range paths {
			v, err := pa.Get(path)
			if err != nil {
				continue
			}
			f, ferr := NewValue(v).AsFloat64()
			if ferr != nil {
				continue
			}
			_ = pa.Set(path, RoundFloat(f, ndigits))
		}
	}
}

// Hack applies every rule in ruleset whose drivers/argsets guards match,
// running the five known actions in a fixed order (remove, even_up,
// format_str, exchange, round) for each matched rule. It reports whether
// any rule matched, regardless of whether its actions changed anything
// (§4.7) — a rule with no drivers/argsets patterns matches unconditionally.
func (c *Case) Hack(ruleset []Rule) (bool, error) {
	matched := false
	selfMap := c.asMap()

	for _, rule := range ruleset {
		driverOK := true
		if len(rule.Drivers) > 0 {
			driverOK = false
			for _, pattern := range rule.Drivers {
				ok, err := Matches(pattern, selfMap, DefaultMatchDepth)
				if err != nil {
					return matched, err
				}
				if ok {
					driverOK = true
					break
				}
			}
		}
		if !driverOK {
			continue
		}

		argsetOK := true
		if len(rule.Argsets) > 0 {
			argsetOK = false
			for _, pattern := range rule.Argsets {
				ok, err := Matches(pattern, selfMap, DefaultMatchDepth)
				if err != nil {
					return matched, err
				}
				if ok {
					argsetOK = true
					break
				}
			}
		}
		if !argsetOK {
			continue
		}

		matched = true
		if len(rule.Remove) > 0 {
			c.remove(rule.Remove)
		}
		if len(rule.EvenUp) > 0 {
			c.evenUp(rule.EvenUp)
		}
		if len(rule.FormatStr) > 0 {
			c.formatStr(rule.FormatStr)
		}
		if len(rule.Exchange) > 0 {
			c.exchange(rule.Exchange)
		}
		if len(rule.Round) > 0 {
			c.round(rule.Round)
		}
	}
	return matched, nil
}
