package motor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gonvenience/bunt"
)

// ColorMode controls whether FormatReportColor emits ANSI color codes.
type ColorMode = bunt.ColorSetting

const (
	ColorAuto ColorMode = bunt.AUTO
	ColorOn   ColorMode = bunt.ON
	ColorOff  ColorMode = bunt.OFF
)

// FormatReportColor renders a Tracker's findings the way FormatReport does,
// with bucket headers and pass/fail counts colorized through bunt's inline
// markup, the same colorization layer the pack's diff reports use.
func (t *Tracker) FormatReportColor(maxAA int, mode ColorMode) string {
	bunt.SetColorSetting(mode)
	defer bunt.SetColorSetting(bunt.AUTO)

	var b strings.Builder

	if t.testsDone == 0 {
		fmt.Fprintln(&b, bunt.Sprintf("Yellow{no cases were run}"))
		return b.String()
	}

	if !t.ErrorsFound() {
		fmt.Fprintln(&b, bunt.Sprintf("Green{all %d cases passed}", t.testsDone))
		return b.String()
	}

	keys := make([]string, 0, len(t.db))
	for k := range t.db {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(&b, bunt.Sprintf("Red{%d of %d cases failed across %d distinct errors}",
		t.testsDone-t.testsPassed, t.testsDone, len(keys)))
	fmt.Fprintln(&b)

	for _, fingerprint := range keys {
		fmt.Fprintln(&b, bunt.Sprintf("Orange{eid %s} (%d occurrences)", EID(fingerprint), len(t.db[fingerprint])))
		fmt.Fprintln(&b, t.formatError(fingerprint, maxAA))
		fmt.Fprintln(&b)
	}

	return b.String()
}

// PrintReport writes the colorized report directly to stdout via bunt,
// honoring terminal/NO_COLOR detection when mode is ColorAuto.
func (t *Tracker) PrintReport(maxAA int, mode ColorMode) {
	bunt.Print(t.FormatReportColor(maxAA, mode))
}
