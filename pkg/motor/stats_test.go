package motor

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestStatCounter(t *testing.T) {
	Convey("StatCounter", t, func() {
		sc := NewStatCounter()

		Convey("generic counters accumulate", func() {
			sc.Count("cases")
			sc.Count("cases")
			sc.Add("cases", 3)
			So(sc.generic["cases"], ShouldEqual, 5)
		})

		Convey("per-driver counters register lazily and accumulate", func() {
			sc.CountFor("HTTPDriver", "calls")
			sc.AddFor("HTTPDriver", "duration", 0.25)
			So(sc.driver["HTTPDriver"]["calls"], ShouldEqual, 1)
			So(sc.driver["HTTPDriver"]["duration"], ShouldEqual, 0.25)
		})

		Convey("per-call formulas divide by zero safely", func() {
			sc.register("HTTPDriver")
			stats := sc.AllStats()
			So(stats["HTTPDriver_overhead_per_call"], ShouldBeNil)
		})

		Convey("per-call formulas compute once calls is non-zero", func() {
			sc.AddFor("HTTPDriver", "calls", 2)
			sc.AddFor("HTTPDriver", "duration", 0.5)
			stats := sc.AllStats()
			So(stats["HTTPDriver_duration_per_call"], ShouldEqual, 250.0)
		})

		Convey("millisecond formulas truncate non-integral results to an int", func() {
			sc.AddFor("HTTPDriver", "calls", 3)
			sc.AddFor("HTTPDriver", "duration", 0.1001)
			sc.AddFor("HTTPDriver", "overhead", 0.0012)
			stats := sc.AllStats()
			So(stats["HTTPDriver_duration"], ShouldEqual, 100.0)
			So(stats["HTTPDriver_overhead"], ShouldEqual, 1.0)
			So(stats["HTTPDriver_duration_per_call"], ShouldEqual, 33.0)
			So(stats["gtotal_drivertime"], ShouldEqual, 101.0)
		})

		Convey("cases_hacked percentage", func() {
			sc.Add("cases", 4)
			sc.Add("hacked_cases", 1)
			stats := sc.AllStats()
			So(stats["cases_hacked"], ShouldEqual, 25.0)
		})
	})
}
