package motor

// DefaultMatchDepth is the default recursion ceiling for Matches, guarding
// against cyclic or pathologically deep inputs (§4.2).
const DefaultMatchDepth = 10

// Matches reports whether pattern is structurally contained in data
// (§4.2, §8 S5):
//
//   - scalars compare equal-by-value
//   - mappings: every key in pattern must exist in data with a matching value
//   - sequences: every element of pattern must have at least one matching
//     counterpart in data; order is ignored and duplicates in pattern are
//     satisfied by a single match in data
//   - a type mismatch between pattern and data is simply "no match", never
//     an error
//
// Exceeding depthLimit levels of nesting is a fatal RecursionLimitError —
// it exists to catch cyclic inputs, not to bound legitimate depth, so pass
// DefaultMatchDepth unless you know your structures run deeper.
func Matches(pattern, data interface{}, depthLimit int) (bool, error) {
	return matchesAt(pattern, data, depthLimit, 0)
}

func matchesAt(pattern, data interface{}, depthLimit, depth int) (bool, error) {
	if depth > depthLimit {
		return false, &RecursionLimitError{Limit: depthLimit}
	}

	switch p := pattern.(type) {
	case map[string]interface{}:
		d, ok := data.(map[string]interface{})
		if !ok {
			return false, nil
		}
		for k, pv := range p {
			dv, ok := d[k]
			if !ok {
				return false, nil
			}
			ok, err := matchesAt(pv, dv, depthLimit, depth+1)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil

	case []interface{}:
		d, ok := data.([]interface{})
		if !ok {
			return false, nil
		}
		for _, pv := range p {
			found := false
			for _, dv := range d {
				ok, err := matchesAt(pv, dv, depthLimit, depth+1)
				if err != nil {
					return false, err
				}
				if ok {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		}
		return true, nil

	default:
		switch data.(type) {
		case map[string]interface{}, []interface{}:
			return false, nil
		default:
			return pattern == data, nil
		}
	}
}
