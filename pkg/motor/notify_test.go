package motor

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	. "github.com/smartystreets/goconvey/convey"
)

func startTestNATSServer() (*server.Server, string) {
	opts := &server.Options{Port: -1}
	ns, err := server.NewServer(opts)
	if err != nil {
		panic(err)
	}
	ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		panic("nats test server failed to start")
	}
	return ns, ns.ClientURL()
}

func TestNotifier(t *testing.T) {
	Convey("Notifier publishes case and summary events", t, func() {
		ns, url := startTestNATSServer()
		defer ns.Shutdown()

		sub, err := nats.Connect(url)
		So(err, ShouldBeNil)
		defer sub.Close()

		received := make(chan RunEvent, 4)
		_, err = sub.Subscribe("motor.run.smoke", func(msg *nats.Msg) {
			var ev RunEvent
			if err := json.Unmarshal(msg.Data, &ev); err == nil {
				received <- ev
			}
		})
		So(err, ShouldBeNil)
		So(sub.Flush(), ShouldBeNil)

		notifier, err := Dial(url, "motor.run.smoke")
		So(err, ShouldBeNil)
		defer notifier.Close()

		fp := "some-diff"
		So(notifier.PublishCase(Argset{"region": "us-east-1"}, &fp), ShouldBeNil)
		So(notifier.PublishCase(Argset{"region": "us-west-2"}, nil), ShouldBeNil)
		So(notifier.PublishSummary(map[string]interface{}{"argsets": 2}), ShouldBeNil)

		var events []RunEvent
		timeout := time.After(2 * time.Second)
		for len(events) < 3 {
			select {
			case ev := <-received:
				events = append(events, ev)
			case <-timeout:
				t.Fatal("timed out waiting for published events")
			}
		}

		So(events[0].Kind, ShouldEqual, "case")
		So(events[0].Fingerprint, ShouldEqual, "some-diff")
		So(events[1].Kind, ShouldEqual, "case")
		So(events[1].Fingerprint, ShouldEqual, "")
		So(events[2].Kind, ShouldEqual, "summary")
		So(events[2].Stats["argsets"], ShouldEqual, float64(2))
	})

	Convey("a nil Notifier is a no-op", t, func() {
		var n *Notifier
		So(n.PublishCase(Argset{}, nil), ShouldBeNil)
		So(n.PublishSummary(nil), ShouldBeNil)
		n.Close()
	})
}
