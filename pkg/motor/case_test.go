package motor

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCaseHack(t *testing.T) {
	Convey("Case.Hack", t, func() {
		newCase := func() *Case {
			return &Case{
				Argset: Argset{"host": "a"},
				Oracle: map[string]interface{}{
					"temperature": 98.65432,
					"status":      "ok",
					"extra":       "only-oracle",
				},
				Result: map[string]interface{}{
					"temperature": 98.6,
					"status":      "ok",
				},
				OName: "OracleDriver",
				RName: "ResultDriver",
			}
		}

		Convey("a rule with no guards matches unconditionally", func() {
			c := newCase()
			matched, err := c.Hack([]Rule{{Remove: []string{"/oracle/extra"}}})
			So(err, ShouldBeNil)
			So(matched, ShouldBeTrue)
			So(c.Oracle, ShouldNotContainKey, "extra")
		})

		Convey("a rule with a non-matching driver guard does not match", func() {
			c := newCase()
			matched, err := c.Hack([]Rule{{
				Drivers: []interface{}{map[string]interface{}{"oname": "SomethingElse"}},
				Remove:  []string{"/oracle/extra"},
			}})
			So(err, ShouldBeNil)
			So(matched, ShouldBeFalse)
			So(c.Oracle, ShouldContainKey, "extra")
		})

		Convey("format_str quantizes a float before comparison", func() {
			c := newCase()
			matched, err := c.Hack([]Rule{{
				FormatStr: map[string][]string{"%.1f": {"/oracle/temperature", "/result/temperature"}},
			}})
			So(err, ShouldBeNil)
			So(matched, ShouldBeTrue)
			So(c.Oracle["temperature"], ShouldEqual, "98.7")
			So(c.Result["temperature"], ShouldEqual, "98.6")
		})

		Convey("round rounds floats to n digits", func() {
			c := newCase()
			_, err := c.Hack([]Rule{{
				Round: map[int][]string{1: {"/oracle/temperature"}},
			}})
			So(err, ShouldBeNil)
			So(c.Oracle["temperature"], ShouldEqual, 98.7)
		})

		Convey("exchange only replaces an exact match", func() {
			c := newCase()
			_, err := c.Hack([]Rule{{
				Exchange: []ExchangeRule{{Old: "ok", New: "normalized", Paths: []string{"/oracle/status", "/result/status"}}},
			}})
			So(err, ShouldBeNil)
			So(c.Oracle["status"], ShouldEqual, "normalized")
			So(c.Result["status"], ShouldEqual, "normalized")
		})

		Convey("even_up fills null keys symmetrically but leaves non-null asymmetry alone", func() {
			c := &Case{
				Oracle: map[string]interface{}{
					"flat": map[string]interface{}{"a": 1, "b": nil, "c": "oracle-only"},
				},
				Result: map[string]interface{}{
					"flat": map[string]interface{}{"a": 1, "d": nil},
				},
			}
			_, err := c.Hack([]Rule{{
				EvenUp: []EvenUpPair{{PathA: "/oracle/flat", PathB: "/result/flat"}},
			}})
			So(err, ShouldBeNil)

			oracleFlat := c.Oracle["flat"].(map[string]interface{})
			resultFlat := c.Result["flat"].(map[string]interface{})

			// b is null in oracle, missing in result: result gets a null b.
			So(resultFlat, ShouldContainKey, "b")
			So(resultFlat["b"], ShouldBeNil)
			// d is null in result, missing in oracle: oracle gets a null d.
			So(oracleFlat, ShouldContainKey, "d")
			So(oracleFlat["d"], ShouldBeNil)
			// c is non-null and only in oracle: left alone, not mirrored.
			So(resultFlat, ShouldNotContainKey, "c")
		})

		Convey("remove is idempotent", func() {
			c := newCase()
			rules := []Rule{{Remove: []string{"/oracle/extra"}}}
			matched1, err1 := c.Hack(rules)
			So(err1, ShouldBeNil)
			So(matched1, ShouldBeTrue)

			snapshot := map[string]interface{}{}
			for k, v := range c.Oracle {
				snapshot[k] = v
			}

			matched2, err2 := c.Hack(rules)
			So(err2, ShouldBeNil)
			So(matched2, ShouldBeTrue)
			So(c.Oracle, ShouldResemble, snapshot)
		})

		Convey("hacks on a Case never observably mutate the original driver output maps", func() {
			oracleData := map[string]interface{}{"temperature": 98.65432}
			oracleCopy := deepCopyMap(oracleData)

			c := &Case{Oracle: oracleCopy, Result: map[string]interface{}{"temperature": 98.6}}
			_, err := c.Hack([]Rule{{Round: map[int][]string{1: {"/oracle/temperature"}}}})
			So(err, ShouldBeNil)

			So(oracleData["temperature"], ShouldEqual, 98.65432)
			So(c.Oracle["temperature"], ShouldEqual, 98.7)
		})
	})
}
