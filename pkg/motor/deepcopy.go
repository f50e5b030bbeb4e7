package motor

// deepCopy recursively copies maps and slices so a Case's oracle/result can
// be isolated from the cached per-driver output they were built from (§4.7,
// §8 property 6 "deep-copy isolation"). Scalars are returned as-is since Go
// passes them by value already.
func deepCopy(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return deepCopyMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}
		return out
	default:
		return t
	}
}

// deepCopyMap recursively copies a map[string]interface{} tree.
func deepCopyMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = deepCopy(v)
	}
	return out
}
