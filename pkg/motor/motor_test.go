package motor

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// constDriver always returns the same data map, ignoring the argset.
type constDriver struct {
	BaseDriver
	value map[string]interface{}
}

func (d *constDriver) Fetch(args Argset) error {
	d.SetData(deepCopyMap(d.value))
	return nil
}

func newConstDriverFactory(class string, value map[string]interface{}) DriverFactory {
	return func() Driver {
		return &constDriver{BaseDriver: BaseDriver{Class: class}, value: value}
	}
}

// argsetEchoDriver echoes one argset key into its data, so oracle/result
// can be made to genuinely diverge per argset.
type argsetEchoDriver struct {
	BaseDriver
	key  string
	bump float64
}

func (d *argsetEchoDriver) Fetch(args Argset) error {
	v, _ := args[d.key].(float64)
	d.SetData(map[string]interface{}{"value": v + d.bump})
	return nil
}

func TestMotorRun(t *testing.T) {
	Convey("Motor.Run", t, func() {
		scheme := Scheme{"n": Iterable}
		source := Source{"n": []interface{}{1.0, 2.0, 3.0}}
		gen := NewGeneratorDefault(scheme, source)

		Convey("identical drivers never produce a fingerprint", func() {
			m := NewMotor(map[string]DriverFactory{
				"Oracle": newConstDriverFactory("Oracle", map[string]interface{}{"ok": true}),
				"Result": newConstDriverFactory("Result", map[string]interface{}{"ok": true}),
			})
			tracker, err := m.Run(gen.All(), RunConfig{
				Triples: []Triple{{Comparator: EqualComparator(), OracleClass: "Oracle", ResultClass: "Result"}},
			})
			So(err, ShouldBeNil)
			So(tracker.ErrorsFound(), ShouldBeFalse)
			So(tracker.GetStats()["tests_done"], ShouldEqual, 3)
		})

		Convey("diverging drivers produce one bucket per distinct diff", func() {
			m := NewMotor(map[string]DriverFactory{
				"Oracle": func() Driver { return &argsetEchoDriver{BaseDriver: BaseDriver{Class: "Oracle"}, key: "n", bump: 0} },
				"Result": func() Driver { return &argsetEchoDriver{BaseDriver: BaseDriver{Class: "Result"}, key: "n", bump: 1} },
			})
			tracker, err := m.Run(gen.All(), RunConfig{
				Triples: []Triple{{Comparator: EqualComparator(), OracleClass: "Oracle", ResultClass: "Result"}},
			})
			So(err, ShouldBeNil)
			So(tracker.ErrorsFound(), ShouldBeTrue)
			stats := tracker.GetStats()
			So(stats["total_errors"], ShouldEqual, 3)
			So(stats["distinct_errors"], ShouldEqual, 3) // each n produces a differently-valued diff
		})

		Convey("apply_hacks can paper over a known, irrelevant difference", func() {
			m := NewMotor(map[string]DriverFactory{
				"Oracle": func() Driver { return &argsetEchoDriver{BaseDriver: BaseDriver{Class: "Oracle"}, key: "n", bump: 0} },
				"Result": func() Driver { return &argsetEchoDriver{BaseDriver: BaseDriver{Class: "Result"}, key: "n", bump: 1} },
			})
			tracker, err := m.Run(gen.All(), RunConfig{
				Triples: []Triple{{Comparator: EqualComparator(), OracleClass: "Oracle", ResultClass: "Result"}},
				ApplyHacks: [][]Rule{
					{{Remove: []string{"/oracle/value", "/result/value"}}},
				},
			})
			So(err, ShouldBeNil)
			So(tracker.ErrorsFound(), ShouldBeFalse)
			// every case matches the unconditional remove rule.
			So(tracker.GetStats()["hacked_cases"], ShouldEqual, float64(3))
		})

		Convey("a bailout predicate omits a class from that round without failing the run", func() {
			oracleFactory := func() Driver {
				d := &constDriver{BaseDriver: BaseDriver{Class: "Oracle"}, value: map[string]interface{}{"ok": true}}
				d.BailoutFns = []Bailout{{Name: "n-is-2", Fn: func(a Argset) bool {
					v, _ := a["n"].(float64)
					return v == 2.0
				}}}
				return d
			}
			m := NewMotor(map[string]DriverFactory{
				"Oracle": oracleFactory,
				"Result": newConstDriverFactory("Result", map[string]interface{}{"ok": true}),
			})
			tracker, err := m.Run(gen.All(), RunConfig{
				Triples: []Triple{{Comparator: EqualComparator(), OracleClass: "Oracle", ResultClass: "Result"}},
			})
			So(err, ShouldBeNil)
			// only 2 of 3 argsets produce a comparison; the n==2 argset bails out of Oracle.
			So(tracker.GetStats()["tests_done"], ShouldEqual, 2)
		})
	})
}
