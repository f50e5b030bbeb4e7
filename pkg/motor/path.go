package motor

import "strings"

// PathAddressing maps string paths of the form "/a/b/c" onto a nested
// map[string]interface{}, following the traversal idiom of the teacher's
// internal/utils/tree package (Cursor.Resolve): split on the separator,
// descend through intermediate mappings, and fail closed on anything that
// isn't a map at a non-final segment (§4.1).
type PathAddressing struct {
	root map[string]interface{}
	div  string
}

// NewPathAddressing wraps root for path-based access. div is the path
// separator (typically "/"); it is fixed for the lifetime of the instance.
func NewPathAddressing(root map[string]interface{}, div string) *PathAddressing {
	if div == "" {
		div = "/"
	}
	return &PathAddressing{root: root, div: div}
}

func (p *PathAddressing) segments(path string) []string {
	trimmed := strings.TrimPrefix(path, p.div)
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, p.div)
}

// Get traverses path and returns the value stored there. A value of nil
// that was explicitly stored is returned successfully (exists() treats it
// as present); a missing key at any level is PathNotFoundError.
func (p *PathAddressing) Get(path string) (interface{}, error) {
	segs := p.segments(path)
	if len(segs) == 0 {
		return nil, &PathNotFoundError{Path: path}
	}

	cur := interface{}(p.root)
	for i, seg := range segs {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, &PathNotFoundError{Path: path}
		}
		v, ok := m[seg]
		if !ok {
			return nil, &PathNotFoundError{Path: path}
		}
		if i == len(segs)-1 {
			return v, nil
		}
		cur = v
	}
	return nil, &PathNotFoundError{Path: path}
}

// Set stores value at path. Every non-final segment must already name an
// existing mapping (Set never creates intermediate mappings, per §4.1); the
// final key is created if absent.
func (p *PathAddressing) Set(path string, value interface{}) error {
	segs := p.segments(path)
	if len(segs) == 0 {
		return &PathNotFoundError{Path: path}
	}

	cur := p.root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg]
		if !ok {
			return &PathNotFoundError{Path: path}
		}
		m, ok := next.(map[string]interface{})
		if !ok {
			return &PathNotFoundError{Path: path}
		}
		cur = m
	}
	cur[segs[len(segs)-1]] = value
	return nil
}

// Del removes the key at path, if it and every intermediate mapping exist.
func (p *PathAddressing) Del(path string) error {
	segs := p.segments(path)
	if len(segs) == 0 {
		return &PathNotFoundError{Path: path}
	}

	cur := p.root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg]
		if !ok {
			return &PathNotFoundError{Path: path}
		}
		m, ok := next.(map[string]interface{})
		if !ok {
			return &PathNotFoundError{Path: path}
		}
		cur = m
	}
	last := segs[len(segs)-1]
	if _, ok := cur[last]; !ok {
		return &PathNotFoundError{Path: path}
	}
	delete(cur, last)
	return nil
}

// Exists reports whether Get(path) would succeed. A stored nil still counts
// as existing (§4.1).
func (p *PathAddressing) Exists(path string) bool {
	_, err := p.Get(path)
	return err == nil
}
