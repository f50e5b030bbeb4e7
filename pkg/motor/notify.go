package motor

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
)

// RunEvent is the message a Notifier publishes to its subject: PublishCase
// sends one for a finished case and PublishSummary one for a finished run.
// Kind distinguishes the two ("case" vs "summary"). Motor.Run publishes
// nothing itself; `motor run` sends only the summary.
type RunEvent struct {
	Kind      string                 `json:"kind"`
	Subject   string                 `json:"subject"`
	Fingerprint string               `json:"fingerprint,omitempty"`
	Argset    map[string]interface{} `json:"argset,omitempty"`
	Stats     map[string]interface{} `json:"stats,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Notifier publishes RunEvents to a NATS subject, the same connect/publish
// pattern the pack uses for its NATS-backed operator, trimmed to the single
// responsibility a Motor run needs: fire-and-forget progress events rather
// than a request/response KV or object store client.
type Notifier struct {
	conn    *nats.Conn
	subject string
}

// Dial connects to url and returns a Notifier that publishes to subject.
// An empty url connects to nats.DefaultURL.
func Dial(url, subject string) (*Notifier, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	conn, err := nats.Connect(url, nats.Timeout(5*time.Second), nats.MaxReconnects(3))
	if err != nil {
		return nil, wrap(err, "connect to nats")
	}
	return &Notifier{conn: conn, subject: subject}, nil
}

// Close flushes any buffered publishes and closes the connection.
func (n *Notifier) Close() {
	if n == nil || n.conn == nil {
		return
	}
	_ = n.conn.Flush()
	n.conn.Close()
}

// PublishCase notifies subscribers that a case finished, fingerprint is nil
// on a pass.
func (n *Notifier) PublishCase(argset Argset, fingerprint *string) error {
	if n == nil {
		return nil
	}
	ev := RunEvent{Kind: "case", Subject: n.subject, Argset: map[string]interface{}(argset), Timestamp: clockNow()}
	if fingerprint != nil {
		ev.Fingerprint = *fingerprint
	}
	return n.publish(ev)
}

// PublishSummary notifies subscribers that a run finished, attaching final
// stats.
func (n *Notifier) PublishSummary(stats map[string]interface{}) error {
	if n == nil {
		return nil
	}
	ev := RunEvent{Kind: "summary", Subject: n.subject, Stats: stats, Timestamp: clockNow()}
	return n.publish(ev)
}

func (n *Notifier) publish(ev RunEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return wrap(err, "marshal run event")
	}
	if err := n.conn.Publish(n.subject, body); err != nil {
		return wrap(err, "publish run event")
	}
	return nil
}

// clockNow is a var so tests can override it without dragging in the
// clock.Clock interface for a single timestamp field.
var clockNow = time.Now
