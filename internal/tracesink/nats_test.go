package tracesink

import (
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/amorph-lang/amorph/pkg/vm"
)

// startTestNATSServer spins up an in-process NATS server on a random
// port, the same embedded-server-for-tests approach graft's own
// op_nats_test.go uses rather than requiring a real NATS cluster.
func startTestNATSServer() (*server.Server, string) {
	opts := &server.Options{Port: -1}

	ns, err := server.NewServer(opts)
	if err != nil {
		panic(err)
	}
	ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		panic("NATS server failed to start")
	}
	return ns, ns.ClientURL()
}

func TestNatsBackend(t *testing.T) {
	Convey("NatsBackend", t, func() {
		ns, url := startTestNATSServer()
		defer ns.Shutdown()

		Convey("Dial fails against an unreachable URL", func() {
			_, err := Dial("nats://127.0.0.1:1", "amorph.trace", vm.NewQuietBackend())
			So(err, ShouldNotBeNil)
		})

		Convey("Trace tees to the inner backend and publishes to the subject", func() {
			inner := vm.NewRecordingBackend(nil)
			nb, err := Dial(url, "amorph.trace", inner)
			So(err, ShouldBeNil)
			defer nb.Close()

			sub, err := nb.conn.SubscribeSync("amorph.trace")
			So(err, ShouldBeNil)
			defer sub.Unsubscribe()

			ev := vm.TraceEvent{Kind: "enter", CallID: "c1", Op: "inc"}
			nb.Trace(ev)

			So(len(inner.Events), ShouldEqual, 1)
			So(inner.Events[0].Op, ShouldEqual, "inc")

			msg, err := sub.NextMsg(2 * time.Second)
			So(err, ShouldBeNil)
			So(string(msg.Data), ShouldEqual, ev.NDJSON())
		})

		Convey("Print and ReadLine delegate to the inner backend", func() {
			inner := vm.NewRecordingBackend([]string{"reply"})
			nb, err := Dial(url, "amorph.trace", inner)
			So(err, ShouldBeNil)
			defer nb.Close()

			So(nb.Print("hi"), ShouldBeNil)
			So(inner.Stdout.String(), ShouldEqual, "hi")

			line, err := nb.ReadLine("")
			So(err, ShouldBeNil)
			So(line, ShouldEqual, "reply")
		})
	})
}
