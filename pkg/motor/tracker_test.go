package motor

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTracker(t *testing.T) {
	Convey("Tracker", t, func() {
		tr := NewTracker()

		Convey("a passing update is not bucketed", func() {
			tr.Update(nil, Argset{"host": "a"})
			So(tr.ErrorsFound(), ShouldBeFalse)
			So(tr.GetStats()["tests_done"], ShouldEqual, 1)
		})

		Convey("a failing update buckets by fingerprint text, deduplicating", func() {
			fp := "some diff text"
			tr.Update(&fp, Argset{"host": "a"})
			tr.Update(&fp, Argset{"host": "b"})
			So(tr.ErrorsFound(), ShouldBeTrue)

			stats := tr.GetStats()
			So(stats["distinct_errors"], ShouldEqual, 1)
			So(stats["total_errors"], ShouldEqual, 2)
		})

		Convey("EID is a stable 7-hex-digit prefix", func() {
			e1 := EID("same text")
			e2 := EID("same text")
			So(e1, ShouldEqual, e2)
			So(len(e1), ShouldEqual, 7)
		})

		Convey("FormatReport lists each distinct error with its argsets", func() {
			fp := "boom"
			tr.Update(&fp, Argset{"host": "a"})
			report := tr.FormatReport(0)
			So(report, ShouldContainSubstring, EID(fp))
			So(report, ShouldContainSubstring, "boom")
		})

		Convey("WriteArgsCSV uses one globally uniform column schema across all buckets", func() {
			dir := t.TempDir()
			fpA := "error-a"
			fpB := "error-b"
			tr.Update(&fpA, Argset{"host": "a", "port": 80})
			tr.Update(&fpB, Argset{"region": "us-east-1"})

			err := tr.WriteArgsCSV(dir)
			So(err, ShouldBeNil)

			dataA, rerr := os.ReadFile(filepath.Join(dir, EID(fpA)+".csv"))
			So(rerr, ShouldBeNil)
			dataB, rerr2 := os.ReadFile(filepath.Join(dir, EID(fpB)+".csv"))
			So(rerr2, ShouldBeNil)

			// both files share the same header line (union of all buckets' keys).
			headerA := splitFirstLine(string(dataA))
			headerB := splitFirstLine(string(dataB))
			So(headerA, ShouldEqual, headerB)
			So(headerA, ShouldContainSubstring, "host")
			So(headerA, ShouldContainSubstring, "region")
		})

		Convey("DumpJSON/LoadTrackerJSON round-trips buckets and counters", func() {
			fp := "boom"
			tr.Update(&fp, Argset{"host": "a"})
			tr.Update(nil, Argset{"host": "b"})
			tr.IncrementArgsetsDone()
			tr.AttachStats(map[string]interface{}{"calls": 4.0})

			fname := filepath.Join(t.TempDir(), "tracker.json")
			So(tr.DumpJSON(fname), ShouldBeNil)

			loaded, err := LoadTrackerJSON(fname)
			So(err, ShouldBeNil)
			So(loaded.ErrorsFound(), ShouldBeTrue)
			So(loaded.GetStats()["tests_done"], ShouldEqual, 2)
			So(loaded.GetStats()["calls"], ShouldEqual, 4.0)
			So(loaded.FormatReport(0), ShouldContainSubstring, EID(fp))
		})

		Convey("WriteStatsCSV appends a header and one data row", func() {
			fname := filepath.Join(t.TempDir(), "stats.csv")
			err := tr.WriteStatsCSV(fname)
			So(err, ShouldBeNil)
			data, rerr := os.ReadFile(fname)
			So(rerr, ShouldBeNil)
			So(string(data), ShouldContainSubstring, "argsets")
		})
	})
}

func splitFirstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
