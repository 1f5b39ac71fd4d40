// Package tracesink publishes the VM's NDJSON trace stream to a NATS
// subject, an optional sink alongside stdout. Graft reaches for
// github.com/nats-io/nats.go for data-plane operator concerns
// (op_nats.go); Amorph reuses the same dependency for the trace
// channel instead, since both are "publish a document to a subject"
// problems.
package tracesink

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/amorph-lang/amorph/pkg/vm"
)

// NatsBackend tees every trace event to a NATS subject in addition to
// delegating Print/ReadLine/Trace to an inner Backend.
type NatsBackend struct {
	inner   vm.Backend
	conn    *nats.Conn
	subject string
}

// Dial connects to url and wraps inner so its trace events are also
// published to subject. The caller must call Close when the VM run is
// finished.
func Dial(url, subject string, inner vm.Backend) (*NatsBackend, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("tracesink: connect %s: %w", url, err)
	}
	return &NatsBackend{inner: inner, conn: conn, subject: subject}, nil
}

func (b *NatsBackend) Print(s string) error { return b.inner.Print(s) }

func (b *NatsBackend) ReadLine(prompt string) (string, error) { return b.inner.ReadLine(prompt) }

func (b *NatsBackend) Trace(ev vm.TraceEvent) {
	b.inner.Trace(ev)
	_ = b.conn.Publish(b.subject, []byte(ev.NDJSON()))
}

// Close flushes and closes the NATS connection.
func (b *NatsBackend) Close() {
	b.conn.Flush()
	b.conn.Close()
}
