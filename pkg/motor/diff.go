package motor

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// CanonicalJSON renders data with sorted keys and 4-space indentation,
// ": " key/value separators and ", " list separators (§6), the same shape
// Python's json.dumps(data, sort_keys=True, indent=4) produces. It is the
// basis for both JSONDiff and the failure fingerprint.
func CanonicalJSON(data interface{}) (string, error) {
	sorted := sortKeysDeep(data)
	buf, err := json.MarshalIndent(sorted, "", "    ")
	if err != nil {
		return "", wrap(err, "canonical json encode")
	}
	return string(buf), nil
}

// sortKeysDeep recursively converts map[string]interface{} into an
// order-preserving structure whose keys marshal in sorted order. encoding/json
// already sorts map[string]interface{} keys on Marshal, so this mostly exists
// to make that behavior explicit and to recurse through slices uniformly.
func sortKeysDeep(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out[k] = sortKeysDeep(t[k])
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = sortKeysDeep(e)
		}
		return out
	default:
		return t
	}
}

// JSONDiff produces the compact, contextual diff described in §4.4: a
// unified diff of two canonical JSON dumps with effectively unbounded
// context, collapsed so only change lines and the minimal breadcrumb trail
// of ancestor opener lines survive. This is a direct Go port of
// hoover.jsDiff's `compress()` (original_source/sznqalibs/hoover.py), built
// on pmezard/go-difflib in place of Python's difflib.unified_diff — the
// same go-difflib surfaced transitively through the example pack
// (gatekeeper, lvlath).
func JSONDiff(oracle, result interface{}, nameOracle, nameResult string) (string, error) {
	return jsonDiffChars(oracle, result, nameOracle, nameResult, "a", "b")
}

func jsonDiffChars(oracle, result interface{}, nameOracle, nameResult, chara, charb string) (string, error) {
	dumpa, err := CanonicalJSON(oracle)
	if err != nil {
		return "", err
	}
	dumpb, err := CanonicalJSON(result)
	if err != nil {
		return "", err
	}

	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(dumpa),
		B:        difflib.SplitLines(dumpb),
		FromFile: "~/" + nameOracle,
		ToFile:   "~/" + nameResult,
		Context:  1 << 20, // effectively unbounded: every line is present
		Eol:      "\n",
	}
	raw, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", wrap(err, "unified diff")
	}

	lines := strings.Split(raw, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(compressDiff(lines, chara, charb), "\n"), nil
}

// level tracks the ancestor opener line at one indentation depth, and
// whether it has already been emitted as a breadcrumb.
type level struct {
	hint   string
	hasHint bool
	hinted bool
}

func (l *level) getHint() (string, bool) {
	if l.hinted || !l.hasHint {
		return "", false
	}
	l.hinted = true
	return l.hint, true
}

// contextTracker maintains a stack of "most recent opener line at each
// indentation level", mirroring hoover.jsDiff's ContextTracker.
type contextTracker struct {
	trace      []*level
	lastLine   string
	hasLast    bool
	lastIndent int
}

func newContextTracker() *contextTracker {
	return &contextTracker{lastIndent: -1}
}

func indentOf(line string) int {
	meat := strings.TrimLeft(line[1:], " ")
	return len(line) - len(meat) - 1
}

func (ct *contextTracker) check(line string) {
	indent := indentOf(line)
	if indent > ct.lastIndent {
		l := &level{}
		if ct.hasLast {
			l.hint = ct.lastLine
			l.hasHint = true
		}
		ct.trace = append(ct.trace, l)
	} else if indent < ct.lastIndent {
		if len(ct.trace) > 0 {
			ct.trace = ct.trace[:len(ct.trace)-1]
		}
	}
	ct.lastLine = line
	ct.hasLast = true
	ct.lastIndent = indent
}

func (ct *contextTracker) getHint() (string, bool) {
	if len(ct.trace) == 0 {
		return "", false
	}
	return ct.trace[len(ct.trace)-1].getHint()
}

func compressDiff(lines []string, chara, charb string) []string {
	isHdrHunk := func(l string) bool { return strings.HasPrefix(l, "@@") }
	isHdrA := func(l string) bool { return strings.HasPrefix(l, "---") }
	isHdrB := func(l string) bool { return strings.HasPrefix(l, "+++") }
	isDiffA := func(l string) bool { return strings.HasPrefix(l, "-") }
	isDiffB := func(l string) bool { return strings.HasPrefix(l, "+") }
	isBody := func(l string) bool {
		return strings.HasPrefix(l, "-") || strings.HasPrefix(l, "+") || strings.HasPrefix(l, " ")
	}
	isDiff := func(l string) bool { return isDiffA(l) || isDiffB(l) }

	var buffa, buffb []string
	ct := newContextTracker()

	for _, line := range lines {
		switch {
		case isHdrHunk(line):
			continue

		case isHdrA(line):
			line = strings.Replace(line, "---", strings.Repeat(chara, 3), 1)
			buffa = append([]string{line}, buffa...)

		case isHdrB(line):
			line = strings.Replace(line, "+++", strings.Repeat(charb, 3), 1)
			buffb = append([]string{line}, buffb...)

		case isBody(line):
			ct.check(line)

			if isDiff(line) {
				// emit, outermost first, every ancestor opener not yet shown
				for _, l := range ct.trace {
					if hint, ok := l.getHint(); ok {
						buffa = append(buffa, hint)
						buffb = append(buffb, hint)
					}
				}
			}

			if isDiffA(line) {
				buffa = append(buffa, chara+line[1:])
			} else if isDiffB(line) {
				buffb = append(buffb, charb+line[1:])
			}

		default:
			// go-difflib never emits anything else for unified diffs with
			// full context; tolerate it rather than raise, since this is
			// a rendering helper, not a correctness boundary.
			continue
		}
	}

	return append(buffa, buffb...)
}
