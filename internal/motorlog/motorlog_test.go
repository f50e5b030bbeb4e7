package motorlog

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/wayneeseguin/motor/internal/config"
)

func TestNew(t *testing.T) {
	Convey("New builds a usable logger for both text and json formats", t, func() {
		for _, format := range []string{"text", "json"} {
			cfg := config.LoggingConfig{Level: "info", Format: format, Output: "stderr"}
			logger, err := New(cfg)
			So(err, ShouldBeNil)
			So(logger.GetSink(), ShouldNotBeNil)
		}
	})

	Convey("an unparseable level falls back to info rather than failing", t, func() {
		cfg := config.LoggingConfig{Level: "not-a-level", Format: "json"}
		_, err := New(cfg)
		So(err, ShouldBeNil)
	})
}
