package motor

import (
	"fmt"
	"iter"
	"reflect"
	"time"
)

// DriverFactory constructs a fresh, unconfigured Driver instance. The Motor
// calls it once per argset per distinct driver class (§5 "Driver instances
// are created and discarded per-argset").
type DriverFactory func() Driver

// Comparator decides whether an oracle/result pair match. IsEquality marks
// the distinguished "equals" comparator: only non-equality comparators get
// a cleanup_hack pass on mismatch (§4.8 item 3c), mirroring the Python
// original's `match_op == operator.eq` identity check — Go functions
// aren't comparable, so the flag stands in for it.
type Comparator struct {
	Fn         func(oracle, result map[string]interface{}) bool
	IsEquality bool
}

// EqualComparator is the default "equals" comparator, using deep structural
// equality over the (already canonicalized-by-JSON-shape) driver output.
func EqualComparator() Comparator {
	return Comparator{
		Fn:         func(oracle, result map[string]interface{}) bool { return reflect.DeepEqual(oracle, result) },
		IsEquality: true,
	}
}

// Triple is one configured comparison: a comparator and the two driver
// classes (by registry name) whose output it compares (§4.8).
type Triple struct {
	Comparator  Comparator
	OracleClass string
	ResultClass string
}

// RunConfig holds everything one Motor.Run invocation needs beyond the
// argset source itself (§4.8).
type RunConfig struct {
	Triples []Triple

	// Settings is the shared driver_settings mapping, keyed
	// "DriverClassName.optionName" (§6).
	Settings map[string]interface{}

	// ApplyHacks rulesets are applied to every Case, always, in order.
	ApplyHacks [][]Rule

	// CleanupHack is applied only after a mismatch under a non-equality
	// comparator, to strip comparison-irrelevant fields before diffing.
	CleanupHack []Rule

	// OnNext, if set, runs synchronously between argsets; its cost is
	// measured and folded into the "on_next" stat.
	OnNext func(current, previous Argset)

	// Tracker, if set, is updated in place instead of a freshly allocated
	// one, letting a caller hold a reference to it (e.g. to scrape live
	// stats through StatsCollector/ServeMetrics) while Run is still in
	// progress.
	Tracker *Tracker
}

// Motor is the single-threaded, sequential orchestrator (§4.8, §5): for
// each argset it runs every distinct driver class once, builds a Case per
// configured triple, applies hacks, compares, diffs on mismatch, and feeds
// the outcome to a Tracker. Direct port of hoover.py's regression_test.
type Motor struct {
	Drivers map[string]DriverFactory
}

// NewMotor builds a Motor backed by the given driver class registry.
func NewMotor(drivers map[string]DriverFactory) *Motor {
	return &Motor{Drivers: drivers}
}

type driverResult struct {
	data     map[string]interface{}
	duration time.Duration
}

// Run drains source (typically a Generator's All()), returning the Tracker
// accumulated over the whole run. It stops and returns an error as soon as
// any driver error, generator error, or unknown driver class is
// encountered — the Motor never recovers from driver errors, only from
// NotSupported bailouts (§7 "Propagation policy"). A CleanupAteError is a
// fatal invariant violation and is raised as a panic rather than returned,
// matching the unrecovered RuntimeError the Python original raises deep in
// the per-argset loop.
func (m *Motor) Run(source iter.Seq2[Argset, error], cfg RunConfig) (*Tracker, error) {
	onNext := cfg.OnNext
	if onNext == nil {
		onNext = func(current, previous Argset) {}
	}

	allClasses := map[string]struct{}{}
	for _, tr := range cfg.Triples {
		allClasses[tr.OracleClass] = struct{}{}
		allClasses[tr.ResultClass] = struct{}{}
	}

	tracker := cfg.Tracker
	if tracker == nil {
		tracker = NewTracker()
	}
	counter := NewStatCounter()
	var lastArgset Argset

	for argset, srcErr := range source {
		if srcErr != nil {
			return nil, srcErr
		}

		onNextStart := time.Now()
		onNext(argset, lastArgset)
		counter.Add("on_next", time.Since(onNextStart).Seconds())

		data := map[string]driverResult{}
		for class := range allClasses {
			factory, ok := m.Drivers[class]
			if !ok {
				return nil, fmt.Errorf("motor: no driver registered for class %q", class)
			}
			wallStart := time.Now()
			d := factory()

			if err := d.Base().CheckValues(argset); err != nil {
				if _, isNotSupported := err.(*NotSupportedError); isNotSupported {
					counter.CountFor(class, "bailouts")
					continue
				}
				return nil, err
			}

			d.Setup(cfg.Settings, true)

			out, duration, err := RunDriver(d, argset)
			if err != nil {
				return nil, err
			}
			overhead := time.Since(wallStart) - duration

			data[class] = driverResult{data: out, duration: duration}
			counter.CountFor(class, "calls")
			counter.AddFor(class, "duration", duration.Seconds())
			counter.AddFor(class, "overhead", overhead.Seconds())
		}

		for _, triple := range cfg.Triples {
			oracleOut, oOK := data[triple.OracleClass]
			resultOut, rOK := data[triple.ResultClass]
			if !oOK || !rOK {
				continue
			}

			c := &Case{
				Argset: argset,
				Oracle: deepCopyMap(oracleOut.data),
				Result: deepCopyMap(resultOut.data),
				OName:  triple.OracleClass,
				RName:  triple.ResultClass,
			}

			hacksDone := 0
			for _, ruleset := range cfg.ApplyHacks {
				matched, herr := c.Hack(ruleset)
				if herr != nil {
					return nil, herr
				}
				if matched {
					hacksDone++
				}
			}
			counter.AddFor(triple.OracleClass, "ohacks", float64(hacksDone))
			counter.AddFor(triple.ResultClass, "rhacks", float64(hacksDone))
			counter.Add("hacks", float64(hacksDone))
			if hacksDone > 0 {
				counter.Add("hacked_cases", 1)
			}

			var fingerprint *string
			if !triple.Comparator.Fn(c.Oracle, c.Result) {
				if !triple.Comparator.IsEquality && len(cfg.CleanupHack) > 0 {
					if _, herr := c.Hack(cfg.CleanupHack); herr != nil {
						return nil, herr
					}
					if triple.Comparator.Fn(c.Oracle, c.Result) {
						panic(CleanupAteErrorPanic{Fingerprint: fmt.Sprintf("%s vs %s, argset=%v", c.OName, c.RName, map[string]interface{}(argset))})
					}
				}

				diff, derr := JSONDiff(c.Oracle, c.Result, c.OName, c.RName)
				if derr != nil {
					return nil, derr
				}
				fingerprint = &diff
			}

			tracker.Update(fingerprint, argset)
			counter.Count("cases")
		}

		tracker.IncrementArgsetsDone()
		lastArgset = argset
		counter.Count("argsets")
	}

	tracker.AttachStats(counter.AllStats())
	return tracker, nil
}
