package motor

import (
	"crypto/sha1"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tracker is a deduplicating error database (§4.9): a bucket per distinct
// failure fingerprint, each holding every argset that produced it. Direct
// port of hoover.py's Tracker class.
type Tracker struct {
	start time.Time

	// runID distinguishes one Tracker's stats/CSV/dump output from another
	// when several runs land in the same stats CSV or get compared
	// side-by-side, since nothing else about a Tracker is inherently unique.
	runID string

	db          map[string][]Argset
	testsDone   int
	testsPassed int
	argsetsDone int

	// finalStats is attached once, after the source is exhausted (§4.8 "attach
	// the final stats snapshot to the Tracker"), and merged into GetStats.
	finalStats map[string]interface{}
}

// NewTracker starts a fresh Tracker, its "age" measured from now.
func NewTracker() *Tracker {
	return &Tracker{start: time.Now(), runID: uuid.New().String(), db: map[string][]Argset{}}
}

// RunID uniquely identifies this Tracker's run.
func (t *Tracker) RunID() string {
	return t.runID
}

// EID returns the 7-hex-digit SHA-1 prefix identifying a fingerprint (§6).
func EID(fingerprint string) string {
	sum := sha1.Sum([]byte(fingerprint))
	return fmt.Sprintf("%x", sum)[:7]
}

// Update records one comparison's outcome. A nil fingerprint means the
// comparison passed; a non-nil fingerprint (typically a JSONDiff string)
// buckets argset under it, deduplicating by the fingerprint's exact text
// (§4.9 "update").
func (t *Tracker) Update(fingerprint *string, argset Argset) {
	t.testsDone++
	if fingerprint == nil {
		t.testsPassed++
		return
	}
	t.db[*fingerprint] = append(t.db[*fingerprint], argset)
}

// IncrementArgsetsDone bumps the count of unique argsets processed so far;
// the Motor calls this once per argset, regardless of how many triples it
// produced comparisons for.
func (t *Tracker) IncrementArgsetsDone() { t.argsetsDone++ }

// AttachStats records the final stats snapshot (typically a StatCounter's
// AllStats()) to be merged into GetStats (§4.8 "attach the final stats
// snapshot to the Tracker and return it").
func (t *Tracker) AttachStats(stats map[string]interface{}) { t.finalStats = stats }

// ErrorsFound reports whether any bucket exists (§4.9).
func (t *Tracker) ErrorsFound() bool { return len(t.db) > 0 }

func (t *Tracker) formatError(fingerprint string, maxAA int) string {
	affected := t.db[fingerprint]
	numAA := len(affected)

	shown := affected
	var elision string
	if maxAA > 0 && numAA > maxAA {
		shown = affected[:maxAA]
		elision = fmt.Sprintf("[...] not showing %d cases, see %s.csv for full list", numAA-maxAA, EID(fingerprint))
	}

	var lines []string
	for _, arg := range shown {
		lines = append(lines, fmt.Sprintf("%v", map[string]interface{}(arg)))
	}
	if elision != "" {
		lines = append(lines, elision)
	}

	return fmt.Sprintf(
		"~~~ ERROR FOUND (%s) ~~~~~~~~~~~~~~~~~~~~~~~~~\n"+
			"--- error string: -----------------------------------\n%s\n"+
			"--- argsets affected (%d) ---------------------------\n%s\n",
		EID(fingerprint), fingerprint, numAA, strings.Join(lines, "\n"))
}

// FormatReport renders a human-readable report: a summary line from
// GetStats followed by one formatted block per distinct error. maxAA caps
// the number of argsets listed per error (0 means show all) (§4.9).
func (t *Tracker) FormatReport(maxAA int) string {
	stats := t.GetStats()

	var blocks []string
	for fingerprint := range t.db {
		blocks = append(blocks, fingerprint)
	}
	sort.Strings(blocks)

	var formatted []string
	for _, fingerprint := range blocks {
		formatted = append(formatted, t.formatError(fingerprint, maxAA))
	}

	summary := fmt.Sprintf(
		"Found %v (%v distinct) errors in %v tests with %v argsets (duration: %vs):",
		stats["total_errors"], stats["distinct_errors"], stats["tests_done"], stats["argsets"], stats["time"])

	return summary + "\n\n" + strings.Join(formatted, "\n")
}

// GetStats returns the basic counters plus any attached final stats
// snapshot (§4.9).
func (t *Tracker) GetStats() map[string]interface{} {
	total := 0
	for _, affected := range t.db {
		total += len(affected)
	}

	stats := map[string]interface{}{
		"run_id":          t.runID,
		"argsets":         t.argsetsDone,
		"tests_done":      t.testsDone,
		"distinct_errors": len(t.db),
		"total_errors":    total,
		"time":            int(time.Since(t.start).Seconds()),
	}
	for k, v := range t.finalStats {
		stats[k] = v
	}
	return stats
}

// WriteStatsCSV appends a header row and one data row to fname; columns
// are GetStats' keys, sorted lexicographically (§6).
func (t *Tracker) WriteStatsCSV(fname string) error {
	stats := t.GetStats()
	colnames := sortedKeys(stats)

	f, err := os.OpenFile(fname, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return wrap(err, "open stats csv")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(colnames); err != nil {
		return wrap(err, "write stats csv header")
	}
	row := make([]string, len(colnames))
	for i, c := range colnames {
		row[i] = fmt.Sprintf("%v", stats[c])
	}
	if err := w.Write(row); err != nil {
		return wrap(err, "write stats csv row")
	}
	w.Flush()
	return w.Error()
}

// WriteArgsCSV creates one file per bucket under prefix, named
// "<7-hex>.csv". Every file shares the same header: the sorted union of
// argset keys across *all* buckets, not just the one it's writing — this
// keeps the column schema globally uniform across the whole output set
// (§6), unlike the original, whose per-bucket column computation only ever
// looked at the first bucket it iterated.
func (t *Tracker) WriteArgsCSV(prefix string) error {
	colset := map[string]struct{}{}
	for _, affected := range t.db {
		for _, argset := range affected {
			for k := range argset {
				colset[k] = struct{}{}
			}
		}
	}
	allColnames := make([]string, 0, len(colset))
	for k := range colset {
		allColnames = append(allColnames, k)
	}
	sort.Strings(allColnames)

	for fingerprint, affected := range t.db {
		fname := fmt.Sprintf("%s/%s.csv", prefix, EID(fingerprint))
		if err := writeArgsetCSV(fname, allColnames, affected); err != nil {
			return err
		}
	}
	return nil
}

func writeArgsetCSV(fname string, colnames []string, argsets []Argset) error {
	f, err := os.OpenFile(fname, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return wrap(err, "open args csv")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(colnames); err != nil {
		return wrap(err, "write args csv header")
	}
	for _, argset := range argsets {
		row := make([]string, len(colnames))
		for i, c := range colnames {
			if v, ok := argset[c]; ok {
				row[i] = fmt.Sprintf("%v", v)
			}
		}
		if err := w.Write(row); err != nil {
			return wrap(err, "write args csv row")
		}
	}
	w.Flush()
	return w.Error()
}

// trackerDump is the on-disk shape written by DumpJSON and read by
// LoadTrackerJSON — a `motor report` command re-renders a saved run
// without re-executing it, rather than re-driving Generator/Driver.
type trackerDump struct {
	RunID       string                 `json:"run_id"`
	DB          map[string][]Argset    `json:"db"`
	TestsDone   int                    `json:"tests_done"`
	TestsPassed int                    `json:"tests_passed"`
	ArgsetsDone int                    `json:"argsets_done"`
	FinalStats  map[string]interface{} `json:"final_stats"`
}

// DumpJSON serializes the tracker's full state (buckets, counters, and any
// attached stats) to fname, so a later `motor report` invocation can
// re-render FormatReport without re-running the suite.
func (t *Tracker) DumpJSON(fname string) error {
	dump := trackerDump{
		RunID:       t.runID,
		DB:          t.db,
		TestsDone:   t.testsDone,
		TestsPassed: t.testsPassed,
		ArgsetsDone: t.argsetsDone,
		FinalStats:  t.finalStats,
	}
	body, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return wrap(err, "marshal tracker dump")
	}
	if err := os.WriteFile(fname, body, 0644); err != nil {
		return wrap(err, "write tracker dump")
	}
	return nil
}

// LoadTrackerJSON reconstructs a Tracker from a file written by DumpJSON.
// Its "age" (used by GetStats' time field) restarts from the load time,
// since the original run's wall-clock start is not preserved.
func LoadTrackerJSON(fname string) (*Tracker, error) {
	body, err := os.ReadFile(fname)
	if err != nil {
		return nil, wrap(err, "read tracker dump")
	}
	var dump trackerDump
	if err := json.Unmarshal(body, &dump); err != nil {
		return nil, wrap(err, "unmarshal tracker dump")
	}
	if dump.DB == nil {
		dump.DB = map[string][]Argset{}
	}
	runID := dump.RunID
	if runID == "" {
		runID = uuid.New().String()
	}
	return &Tracker{
		start:       time.Now(),
		runID:       runID,
		db:          dump.DB,
		testsDone:   dump.TestsDone,
		testsPassed: dump.TestsPassed,
		argsetsDone: dump.ArgsetsDone,
		finalStats:  dump.FinalStats,
	}, nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
