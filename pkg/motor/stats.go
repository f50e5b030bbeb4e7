package motor

import (
	"fmt"
	"math"
	"time"
)

// driverStatFields are the per-driver counters every registered driver
// starts with (§4.9), matching hoover.py's StatCounter._register.
var driverStatFields = []string{"calls", "rhacks", "ohacks", "duration", "overhead"}

// statFormula computes a derived metric from the raw counters. It returns
// ok=false for a formula's own division-by-zero, mirroring Python's
// ZeroDivisionError being caught and surfaced as None rather than failing
// the whole report.
type statFormula func(generic map[string]float64, driver map[string]map[string]float64) (value float64, ok bool)

// StatCounter is a simple counter with formula support (§4.9): raw counts
// are added incrementally during a run, and "formulas" derive percentages,
// per-call averages and grand totals from them lazily, only when the report
// is assembled. Direct port of hoover.py's StatCounter.
type StatCounter struct {
	born        time.Time
	generic     map[string]float64
	driver      map[string]map[string]float64
	formulas    map[string]statFormula
	onNextTotal float64
}

// NewStatCounter starts a fresh counter, its "age" measured from now.
func NewStatCounter() *StatCounter {
	sc := &StatCounter{
		born:     time.Now(),
		generic:  map[string]float64{},
		driver:   map[string]map[string]float64{},
		formulas: map[string]statFormula{},
	}
	sc.registerGlobalFormulas()
	return sc
}

func (sc *StatCounter) registerGlobalFormulas() {
	gtotalDrivertime := func(g map[string]float64, d map[string]map[string]float64) (float64, bool) {
		var total float64
		for _, s := range d {
			total += s["overhead"] + s["duration"]
		}
		return math.Trunc(1000 * total), true
	}
	sc.AddFormula("gtotal_drivertime", gtotalDrivertime)

	sc.AddFormula("gtotal_loop_overhead", func(g map[string]float64, d map[string]map[string]float64) (float64, bool) {
		driverTime, _ := gtotalDrivertime(g, d)
		onNextTime := 1000 * sc.onNextTotal
		age := 1000 * time.Since(sc.born).Seconds()
		return math.Trunc(age - driverTime - onNextTime), true
	})

	sc.AddFormula("gtotal_loop_onnext", func(g map[string]float64, d map[string]map[string]float64) (float64, bool) {
		return math.Trunc(1000 * sc.onNextTotal), true
	})

	sc.AddFormula("cases_hacked", func(g map[string]float64, d map[string]map[string]float64) (float64, bool) {
		cases := g["cases"]
		if cases == 0 {
			return 0, false
		}
		return RoundFloat(100*g["hacked_cases"]/cases, 2), true
	})
}

// register initializes a newly-seen driver's counters and its per-driver
// formulas (overhead/duration in ms, and the per-call averages of each).
func (sc *StatCounter) register(dname string) {
	fields := map[string]float64{}
	for _, f := range driverStatFields {
		fields[f] = 0
	}
	sc.driver[dname] = fields

	sc.AddFormula(dname+"_overhead", func(g map[string]float64, d map[string]map[string]float64) (float64, bool) {
		return math.Trunc(1000 * d[dname]["overhead"]), true
	})
	sc.AddFormula(dname+"_duration", func(g map[string]float64, d map[string]map[string]float64) (float64, bool) {
		return math.Trunc(1000 * d[dname]["duration"]), true
	})
	sc.AddFormula(dname+"_overhead_per_call", func(g map[string]float64, d map[string]map[string]float64) (float64, bool) {
		calls := d[dname]["calls"]
		if calls == 0 {
			return 0, false
		}
		return math.Trunc(1000 * d[dname]["overhead"] / calls), true
	})
	sc.AddFormula(dname+"_duration_per_call", func(g map[string]float64, d map[string]map[string]float64) (float64, bool) {
		calls := d[dname]["calls"]
		if calls == 0 {
			return 0, false
		}
		return math.Trunc(1000 * d[dname]["duration"] / calls), true
	})
}

// AddFormula registers (or replaces) a named derived metric.
func (sc *StatCounter) AddFormula(vname string, formula statFormula) {
	sc.formulas[vname] = formula
}

// Add accumulates value into a generic (non-driver-scoped) counter.
func (sc *StatCounter) Add(vname string, value float64) {
	sc.generic[vname] += value
	if vname == "on_next" {
		sc.onNextTotal += value
	}
}

// AddFor accumulates value into dclass's own counter set, registering the
// driver (and its formulas) on first use.
func (sc *StatCounter) AddFor(dclass, vname string, value float64) {
	if _, ok := sc.driver[dclass]; !ok {
		sc.register(dclass)
	}
	sc.driver[dclass][vname] += value
}

// Count is Add(vname, 1).
func (sc *StatCounter) Count(vname string) { sc.Add(vname, 1) }

// CountFor is AddFor(dclass, vname, 1).
func (sc *StatCounter) CountFor(dclass, vname string) { sc.AddFor(dclass, vname, 1) }

func (sc *StatCounter) computedStats() map[string]interface{} {
	computed := make(map[string]interface{}, len(sc.formulas))
	for fname, fml := range sc.formulas {
		v, ok := fml(sc.generic, sc.driver)
		if !ok {
			computed[fname] = nil
			continue
		}
		computed[fname] = v
	}
	return computed
}

// AllStats computes every formula and merges the result with the raw
// generic counters and the per-driver counters (each driver counter
// exposed as "<DriverName>_<field>", e.g. "HTTPDriver_calls"), matching
// hoover.py's StatCounter.all_stats.
func (sc *StatCounter) AllStats() map[string]interface{} {
	stats := make(map[string]interface{}, len(sc.generic)+len(sc.formulas))
	for k, v := range sc.generic {
		stats[k] = v
	}
	for dname, dstats := range sc.driver {
		for key, value := range dstats {
			stats[fmt.Sprintf("%s_%s", dname, key)] = value
		}
	}
	for k, v := range sc.computedStats() {
		stats[k] = v
	}
	return stats
}
